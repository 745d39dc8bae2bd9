// Package engine provides the core business logic for panelock operations.
//
// The engine package is the orchestration layer between the CLI and the
// lower-level packages. Each operation checks privileges, runs the pure
// reconciler over the current disabled list, and only then performs its side
// effects against the preference store and the snapshot file.
//
// Key components:
//   - Engine: Main orchestrator that coordinates all operations
//   - List/Locked: Read-only views of the catalog and the disabled list
//   - Lock/Unlock: Batch edits of the disabled list
//   - UnlockAll/Restore: Snapshot-backed disable-everything and its undo
package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/panelock/internal/catalog"
	"github.com/danieljhkim/panelock/internal/logging"
	"github.com/danieljhkim/panelock/internal/prefstore"
	"github.com/danieljhkim/panelock/internal/reconcile"
)

// CatalogSource enumerates the installed panes.
type CatalogSource interface {
	Enumerate(ctx context.Context) (*catalog.Catalog, error)
}

// SnapshotStore holds the single saved disabled list.
type SnapshotStore interface {
	Path() string
	Exists() (bool, error)
	Save(ids []string) error
	Load() ([]string, error)
	Clear() error
}

// Guard checks privileges and clears per-user overrides.
type Guard interface {
	RequireAdmin() error
	ClearSessionOverrides(ctx context.Context) error
}

// Options names the preference keys and the snapshot policy.
type Options struct {
	// DisabledKey holds the disabled list.
	DisabledKey string

	// HiddenKey mirrors DisabledKey on every write.
	HiddenKey string

	// ProtectSnapshot makes UnlockAll refuse to replace an existing snapshot.
	ProtectSnapshot bool
}

// Engine orchestrates all panelock operations.
// It is the main API surface called by the CLI.
type Engine struct {
	catalog  CatalogSource
	store    prefstore.Store
	snapshot SnapshotStore
	guard    Guard
	opts     Options
	logger   zerolog.Logger
}

// New creates a new Engine with the given dependencies.
func New(
	cat CatalogSource,
	store prefstore.Store,
	snap SnapshotStore,
	g Guard,
	opts Options,
) *Engine {
	return &Engine{
		catalog:  cat,
		store:    store,
		snapshot: snap,
		guard:    g,
		opts:     opts,
		logger:   logging.GetLogger("engine"),
	}
}

// RequireAdmin reports whether the process may touch host preferences.
// Every operation checks this itself; callers use it to gate their own side
// effects, such as opening the log file.
func (e *Engine) RequireAdmin() error {
	return e.guard.RequireAdmin()
}

// prepare runs the checks every mutating operation starts with.
func (e *Engine) prepare(ctx context.Context) error {
	if err := e.guard.RequireAdmin(); err != nil {
		return err
	}
	if err := e.guard.ClearSessionOverrides(ctx); err != nil {
		return fmt.Errorf("failed to clear session overrides: %w", err)
	}
	return nil
}

// current reads the disabled list. An absent key yields a nil list.
func (e *Engine) current(ctx context.Context) (reconcile.List, error) {
	values, ok, err := e.store.Read(ctx, e.opts.DisabledKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", e.opts.DisabledKey, err)
	}
	if !ok {
		return nil, nil
	}
	return reconcile.List(values), nil
}

// persist writes list to both keys and synchronizes once. A nil list deletes
// the keys.
func (e *Engine) persist(ctx context.Context, list reconcile.List) error {
	for _, key := range []string{e.opts.DisabledKey, e.opts.HiddenKey} {
		if err := e.store.Write(ctx, key, list); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}
	if err := e.store.Synchronize(ctx); err != nil {
		return fmt.Errorf("failed to synchronize preferences: %w", err)
	}
	e.logger.Info().Strs("disabled", list).Msg("Preferences updated")
	return nil
}

// validate enumerates the catalog and splits ids into known and unknown.
func (e *Engine) validate(ctx context.Context, ids []string) (valid, invalid []string, err error) {
	cat, err := e.catalog.Enumerate(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to enumerate preference panes: %w", err)
	}

	valid, invalid = reconcile.Validate(ids, cat.Identifiers())
	for _, id := range invalid {
		e.logger.Info().Str("identifier", id).Msg("Ignoring unknown bundle identifier")
	}
	return valid, invalid, nil
}

// nonNil keeps result slices encoding as [] rather than null.
func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
