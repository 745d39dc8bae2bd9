package engine

import (
	"errors"

	"github.com/danieljhkim/panelock/internal/guard"
	"github.com/danieljhkim/panelock/internal/reconcile"
)

var (
	// ErrPermission indicates the tool was not run as the superuser.
	ErrPermission = guard.ErrPermission

	// ErrArgument indicates a malformed command line.
	ErrArgument = errors.New("invalid arguments")

	// ErrValidation indicates an identifier that no installed pane declares.
	ErrValidation = errors.New("validation failed")

	// ErrPrecondition indicates nothing is locked, or a protected snapshot
	// would be overwritten.
	ErrPrecondition = reconcile.ErrPrecondition

	// ErrNotFound indicates there is no snapshot to restore.
	ErrNotFound = reconcile.ErrNotFound
)
