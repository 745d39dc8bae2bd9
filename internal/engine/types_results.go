package engine

import (
	"fmt"

	"github.com/danieljhkim/panelock/internal/catalog"
)

// ListResult represents the installed panes.
type ListResult struct {
	System     []catalog.Entry `json:"system" yaml:"system"`
	ThirdParty []catalog.Entry `json:"thirdParty" yaml:"thirdParty"`
}

// LockedResult represents the current disabled list.
type LockedResult struct {
	Locked []string `json:"locked" yaml:"locked"`
}

// LockResult represents the result of locking panes.
type LockResult struct {
	// Locked is the list of identifiers added by this call
	Locked []string `json:"locked" yaml:"locked"`

	// AlreadyLocked is the list of identifiers that were already present
	AlreadyLocked []string `json:"alreadyLocked" yaml:"alreadyLocked"`

	// Invalid is the list of identifiers no installed pane declares
	Invalid []string `json:"invalid" yaml:"invalid"`

	// Disabled is the full list persisted by this call
	Disabled []string `json:"disabled" yaml:"disabled"`
}

// UnlockResult represents the result of unlocking panes.
type UnlockResult struct {
	// Unlocked is the list of identifiers removed by this call
	Unlocked []string `json:"unlocked" yaml:"unlocked"`

	// NotLocked is the list of identifiers that were not present
	NotLocked []string `json:"notLocked" yaml:"notLocked"`

	// Invalid is the list of identifiers no installed pane declares
	Invalid []string `json:"invalid" yaml:"invalid"`

	// Disabled is the full list persisted by this call
	Disabled []string `json:"disabled" yaml:"disabled"`
}

// UnlockAllResult represents the result of unlocking every pane.
type UnlockAllResult struct {
	// Snapshot is the list saved for a later restore
	Snapshot []string `json:"snapshot" yaml:"snapshot"`

	// SnapshotPath is where the snapshot was written
	SnapshotPath string `json:"snapshotPath" yaml:"snapshotPath"`

	// Overwrote is set when an earlier snapshot was replaced
	Overwrote bool `json:"overwroteSnapshot" yaml:"overwroteSnapshot"`
}

// RestoreResult represents the result of restoring a snapshot.
type RestoreResult struct {
	Restored     []string `json:"restored" yaml:"restored"`
	SnapshotPath string   `json:"snapshotPath" yaml:"snapshotPath"`
}

// validationErrors wraps each invalid identifier in ErrValidation.
func validationErrors(invalid []string) []error {
	errs := make([]error, 0, len(invalid))
	for _, id := range invalid {
		errs = append(errs, fmt.Errorf("%w: %s is not a valid bundle identifier", ErrValidation, id))
	}
	return errs
}

// Problems returns one ErrValidation per invalid identifier.
func (r *LockResult) Problems() []error {
	return validationErrors(r.Invalid)
}

// Problems returns one ErrValidation per invalid identifier.
func (r *UnlockResult) Problems() []error {
	return validationErrors(r.Invalid)
}
