package engine

import (
	"context"

	"github.com/danieljhkim/panelock/internal/logging"
	"github.com/danieljhkim/panelock/internal/reconcile"
)

// Lock adds the requested panes to the disabled list.
// Algorithm steps:
// 1. Require root and clear the console user's overrides
// 2. Drop identifiers no installed pane declares
// 3. Append the rest to the current list, skipping ones already present
// 4. Write both keys and synchronize
func (e *Engine) Lock(ctx context.Context, req *LockRequest) (*LockResult, error) {
	defer logging.LogOperationStart(e.logger, "lock")()

	// Step 1: Preconditions
	if err := e.prepare(ctx); err != nil {
		return nil, err
	}

	// Step 2: Validate
	valid, invalid, err := e.validate(ctx, req.Identifiers)
	if err != nil {
		return nil, err
	}

	// Step 3: Reconcile
	current, err := e.current(ctx)
	if err != nil {
		return nil, err
	}
	outcome := reconcile.ApplyLock(current, valid)

	// Step 4: Persist
	if err := e.persist(ctx, outcome.List); err != nil {
		return nil, err
	}

	return &LockResult{
		Locked:        outcome.Locked,
		AlreadyLocked: outcome.AlreadyLocked,
		Invalid:       invalid,
		Disabled:      nonNil(outcome.List),
	}, nil
}

// Unlock removes the requested panes from the disabled list. It fails with
// ErrPrecondition, writing nothing, when nothing is locked.
func (e *Engine) Unlock(ctx context.Context, req *UnlockRequest) (*UnlockResult, error) {
	defer logging.LogOperationStart(e.logger, "unlock")()

	if err := e.prepare(ctx); err != nil {
		return nil, err
	}

	valid, invalid, err := e.validate(ctx, req.Identifiers)
	if err != nil {
		return nil, err
	}

	current, err := e.current(ctx)
	if err != nil {
		return nil, err
	}
	outcome, err := reconcile.ApplyUnlock(current, valid)
	if err != nil {
		return nil, err
	}

	if err := e.persist(ctx, outcome.List); err != nil {
		return nil, err
	}

	return &UnlockResult{
		Unlocked:  outcome.Unlocked,
		NotLocked: outcome.NotLocked,
		Invalid:   invalid,
		Disabled:  nonNil(outcome.List),
	}, nil
}
