// Package guard enforces the preconditions every panelock command runs under:
// the caller must be the superuser, and before any mutation the console
// user's own copies of the disabled/hidden keys are deleted, since a
// per-user value shadows the host-wide one panelock edits.
package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/panelock/internal/execx"
	"github.com/danieljhkim/panelock/internal/logging"
	"github.com/danieljhkim/panelock/internal/plist"
)

// ErrPermission indicates the tool was not run as the superuser.
var ErrPermission = errors.New("permission denied")

// Identity answers who is running the tool and who owns the console.
type Identity interface {
	// EffectiveUID returns the effective user ID of this process.
	EffectiveUID() int

	// ConsoleOwner returns the UID owning the console device.
	ConsoleOwner(device string) (int, error)

	// Username resolves a UID to a login name.
	Username(uid int) (string, error)
}

// Options configures how session overrides are found and cleared.
type Options struct {
	// ConsoleDevice is stat'ed to find the logged-in user.
	ConsoleDevice string

	// Sudo runs commands as the console user.
	Sudo string

	// DefaultsBin is the path to defaults(1).
	DefaultsBin string

	// UserDomain is the per-user preference domain holding the overrides.
	UserDomain string

	// Keys are deleted from UserDomain when present.
	Keys []string

	// Disabled skips ClearSessionOverrides entirely.
	Disabled bool
}

// Guard checks privileges and clears per-user overrides.
type Guard struct {
	identity Identity
	runner   execx.Runner
	opts     Options
	logger   zerolog.Logger
}

// New creates a new Guard.
func New(identity Identity, runner execx.Runner, opts Options) *Guard {
	return &Guard{
		identity: identity,
		runner:   runner,
		opts:     opts,
		logger:   logging.GetLogger("guard"),
	}
}

// RequireAdmin fails with ErrPermission unless running as UID 0.
func (g *Guard) RequireAdmin() error {
	if euid := g.identity.EffectiveUID(); euid != 0 {
		return fmt.Errorf("%w: you must run this tool with sudo or as root (euid %d)", ErrPermission, euid)
	}
	return nil
}

// ClearSessionOverrides deletes the override keys from the console user's
// own preference domain. It is a no-op when nobody or root is at the console
// or when that user has no such domain.
func (g *Guard) ClearSessionOverrides(ctx context.Context) error {
	if g.opts.Disabled {
		return nil
	}

	uid, err := g.identity.ConsoleOwner(g.opts.ConsoleDevice)
	if err != nil {
		g.logger.Debug().Err(err).Str("device", g.opts.ConsoleDevice).Msg("No console owner, skipping override check")
		return nil
	}
	if uid == 0 {
		return nil
	}

	user, err := g.identity.Username(uid)
	if err != nil {
		g.logger.Debug().Err(err).Int("uid", uid).Msg("Console owner has no username, skipping override check")
		return nil
	}
	logger := g.logger.With().Str("user", user).Logger()

	exportArgs := g.asUser(user, "export", g.opts.UserDomain, "-")
	logging.LogCommand(logger, g.opts.Sudo, exportArgs)
	out, err := g.runner.Run(ctx, g.opts.Sudo, exportArgs...)
	if err != nil {
		logger.Debug().Err(err).Msg("No user preference domain, nothing to clear")
		return nil
	}

	doc, err := plist.Parse(out)
	if err != nil {
		return fmt.Errorf("failed to parse %s preferences for %s: %w", g.opts.UserDomain, user, err)
	}

	for _, key := range g.opts.Keys {
		if !doc.Has(key) {
			continue
		}
		deleteArgs := g.asUser(user, "delete", g.opts.UserDomain, key)
		logging.LogCommand(logger, g.opts.Sudo, deleteArgs)
		if _, err := g.runner.Run(ctx, g.opts.Sudo, deleteArgs...); err != nil {
			return fmt.Errorf("failed to clear %s override for %s: %w", key, user, err)
		}
		logger.Info().Str("key", key).Msg("Cleared session override")
	}

	return nil
}

func (g *Guard) asUser(user string, defaultsArgs ...string) []string {
	return append([]string{"-u", user, g.opts.DefaultsBin}, defaultsArgs...)
}

// FakeIdentity implements Identity with fixed answers for testing.
type FakeIdentity struct {
	EUID       int
	ConsoleUID int
	ConsoleErr error
	Users      map[int]string
}

// EffectiveUID returns the configured EUID.
func (f *FakeIdentity) EffectiveUID() int {
	return f.EUID
}

// ConsoleOwner returns the configured console UID or error.
func (f *FakeIdentity) ConsoleOwner(string) (int, error) {
	if f.ConsoleErr != nil {
		return 0, f.ConsoleErr
	}
	return f.ConsoleUID, nil
}

// Username looks the UID up in Users.
func (f *FakeIdentity) Username(uid int) (string, error) {
	name, ok := f.Users[uid]
	if !ok {
		return "", fmt.Errorf("unknown uid %d", uid)
	}
	return name, nil
}
