package engine

import (
	"context"
	"fmt"

	"github.com/danieljhkim/panelock/internal/catalog"
	"github.com/danieljhkim/panelock/internal/logging"
)

// List enumerates every installed pane, split into system and third-party.
func (e *Engine) List(ctx context.Context) (*ListResult, error) {
	defer logging.LogOperationStart(e.logger, "list")()

	if err := e.guard.RequireAdmin(); err != nil {
		return nil, err
	}

	cat, err := e.catalog.Enumerate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate preference panes: %w", err)
	}

	return &ListResult{
		System:     cat.Entries(catalog.System),
		ThirdParty: cat.Entries(catalog.ThirdParty),
	}, nil
}

// Locked returns the current disabled list. It fails with ErrPrecondition
// when nothing is locked.
func (e *Engine) Locked(ctx context.Context) (*LockedResult, error) {
	defer logging.LogOperationStart(e.logger, "locked")()

	if err := e.guard.RequireAdmin(); err != nil {
		return nil, err
	}

	current, err := e.current(ctx)
	if err != nil {
		return nil, err
	}
	if current.Absent() {
		return nil, fmt.Errorf("%w: no preference panes are currently locked", ErrPrecondition)
	}

	return &LockedResult{Locked: current}, nil
}
