package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/danieljhkim/panelock/internal/logging"
	"github.com/danieljhkim/panelock/internal/reconcile"
	"github.com/danieljhkim/panelock/internal/snapshot"
)

// UnlockAll saves the current disabled list as the snapshot and then clears
// both keys.
// Algorithm steps:
// 1. Require root and clear the console user's overrides
// 2. Read the current list; fail if nothing is locked
// 3. Apply the overwrite policy to any existing snapshot
// 4. Save the snapshot, then persist the absent list
func (e *Engine) UnlockAll(ctx context.Context) (*UnlockAllResult, error) {
	defer logging.LogOperationStart(e.logger, "unlockall")()

	// Step 1: Preconditions
	if err := e.prepare(ctx); err != nil {
		return nil, err
	}

	// Step 2: Reconcile
	current, err := e.current(ctx)
	if err != nil {
		return nil, err
	}
	saved, next, err := reconcile.DisableAll(current)
	if err != nil {
		return nil, err
	}

	// Step 3: Overwrite policy
	exists, err := e.snapshot.Exists()
	if err != nil {
		return nil, err
	}
	if exists {
		if e.opts.ProtectSnapshot {
			return nil, fmt.Errorf("%w: snapshot %s already exists; restore it first", ErrPrecondition, e.snapshot.Path())
		}
		e.logger.Warn().Str("path", e.snapshot.Path()).Msg("Overwriting existing snapshot")
	}

	// Step 4: Snapshot before the write so a failed write loses nothing
	if err := e.snapshot.Save(saved); err != nil {
		return nil, err
	}
	if err := e.persist(ctx, next); err != nil {
		return nil, err
	}

	return &UnlockAllResult{
		Snapshot:     saved,
		SnapshotPath: e.snapshot.Path(),
		Overwrote:    exists,
	}, nil
}

// Restore persists the saved snapshot and deletes it. It fails with
// ErrNotFound when there is no snapshot.
func (e *Engine) Restore(ctx context.Context) (*RestoreResult, error) {
	defer logging.LogOperationStart(e.logger, "restore")()

	if err := e.prepare(ctx); err != nil {
		return nil, err
	}

	saved, err := e.snapshot.Load()
	found := err == nil
	if err != nil && !errors.Is(err, snapshot.ErrNotFound) {
		return nil, err
	}

	list, err := reconcile.RestoreAll(saved, found)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, e.snapshot.Path())
	}

	if err := e.persist(ctx, list); err != nil {
		return nil, err
	}
	if err := e.snapshot.Clear(); err != nil {
		return nil, err
	}

	return &RestoreResult{
		Restored:     nonNil(list),
		SnapshotPath: e.snapshot.Path(),
	}, nil
}
