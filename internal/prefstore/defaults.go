package prefstore

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/panelock/internal/execx"
	"github.com/danieljhkim/panelock/internal/logging"
	"github.com/danieljhkim/panelock/internal/plist"
)

// DefaultsStore implements Store with the defaults(1) tool. Reading exports
// the whole domain as an XML property list; writing runs one defaults write
// or delete per staged key.
type DefaultsStore struct {
	staging

	runner      execx.Runner
	bin         string
	domain      string
	currentHost bool
	logger      zerolog.Logger
}

// NewDefaultsStore creates a store for domain. When currentHost is set every
// command carries -currentHost.
func NewDefaultsStore(runner execx.Runner, bin, domain string, currentHost bool) *DefaultsStore {
	return &DefaultsStore{
		runner:      runner,
		bin:         bin,
		domain:      domain,
		currentHost: currentHost,
		logger:      logging.GetLogger("prefstore").With().Str("domain", domain).Logger(),
	}
}

func (d *DefaultsStore) args(verb string, rest ...string) []string {
	args := make([]string, 0, len(rest)+3)
	if d.currentHost {
		args = append(args, "-currentHost")
	}
	args = append(args, verb, d.domain)
	return append(args, rest...)
}

func (d *DefaultsStore) run(ctx context.Context, args []string) ([]byte, error) {
	logging.LogCommand(d.logger, d.bin, args)
	return d.runner.Run(ctx, d.bin, args...)
}

func (d *DefaultsStore) export(ctx context.Context) (*plist.Document, error) {
	out, err := d.run(ctx, d.args("export", "-"))
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", d.domain, err)
	}
	doc, err := plist.Parse(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", d.domain, err)
	}
	return doc, nil
}

// Read returns the staged value for key, or the value currently in the domain.
func (d *DefaultsStore) Read(ctx context.Context, key string) ([]string, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	if values, ok, staged := d.readStaged(key); staged {
		return values, ok, nil
	}

	doc, err := d.export(ctx)
	if err != nil {
		return nil, false, err
	}
	values, ok, err := doc.StringArray(key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return values, ok, nil
}

// Write stages values for key.
func (d *DefaultsStore) Write(_ context.Context, key string, values []string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	d.stage(key, values)
	return nil
}

// Synchronize applies the staged writes. Deletes of keys that are already
// absent are skipped since defaults(1) fails on them.
func (d *DefaultsStore) Synchronize(ctx context.Context) error {
	changes := d.changes()
	if len(changes) == 0 {
		return nil
	}

	current, err := d.export(ctx)
	if err != nil {
		return err
	}

	for _, c := range changes {
		if c.values == nil {
			if !current.Has(c.key) {
				continue
			}
			if _, err := d.run(ctx, d.args("delete", c.key)); err != nil {
				return fmt.Errorf("failed to delete %s: %w", c.key, err)
			}
			continue
		}

		args := d.args("write", append([]string{c.key, "-array"}, c.values...)...)
		if _, err := d.run(ctx, args); err != nil {
			return fmt.Errorf("failed to write %s: %w", c.key, err)
		}
	}

	d.reset()
	d.logger.Debug().Int("keys", len(changes)).Msg("Preferences synchronized")
	return nil
}
