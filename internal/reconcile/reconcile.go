package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrPrecondition indicates the operation needs state that is absent,
	// e.g. unlocking when nothing is locked.
	ErrPrecondition = errors.New("precondition failed")

	// ErrNotFound indicates there is no snapshot to restore from.
	ErrNotFound = errors.New("not found")
)

// List is an ordered set of pane identifiers. Empty means absent.
type List []string

// Absent reports whether the list holds no identifiers.
func (l List) Absent() bool {
	return len(l) == 0
}

// Contains reports whether id is in the list.
func (l List) Contains(id string) bool {
	for _, existing := range l {
		if existing == id {
			return true
		}
	}
	return false
}

// Normalize returns the list with duplicates dropped, keeping first
// occurrences. An absent list normalizes to nil.
func (l List) Normalize() List {
	if l.Absent() {
		return nil
	}
	seen := make(map[string]struct{}, len(l))
	out := make(List, 0, len(l))
	for _, id := range l {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// LockOutcome is the result of ApplyLock.
type LockOutcome struct {
	// List is the full value to persist.
	List List

	// Locked holds identifiers appended by this call, in input order.
	Locked []string

	// AlreadyLocked holds requested identifiers that were already present.
	AlreadyLocked []string
}

// ApplyLock appends every identifier of toLock not already in current.
// Existing entries are never removed or reordered.
func ApplyLock(current List, toLock []string) LockOutcome {
	out := LockOutcome{
		List:          append(List{}, current.Normalize()...),
		Locked:        []string{},
		AlreadyLocked: []string{},
	}

	for _, id := range toLock {
		if out.List.Contains(id) {
			out.AlreadyLocked = append(out.AlreadyLocked, id)
			continue
		}
		out.List = append(out.List, id)
		out.Locked = append(out.Locked, id)
	}

	if out.List.Absent() {
		out.List = nil
	}
	return out
}

// UnlockOutcome is the result of ApplyUnlock.
type UnlockOutcome struct {
	// List is the full value to persist; nil means delete the key.
	List List

	// Unlocked holds identifiers removed by this call, in input order.
	Unlocked []string

	// NotLocked holds requested identifiers that were not present.
	NotLocked []string
}

// ApplyUnlock removes every identifier of toUnlock from current. Identifiers
// that are not locked are ignored. Unlocking from an absent list fails with
// ErrPrecondition.
func ApplyUnlock(current List, toUnlock []string) (UnlockOutcome, error) {
	if current.Absent() {
		return UnlockOutcome{}, fmt.Errorf("%w: no panes are currently locked", ErrPrecondition)
	}

	remove := make(map[string]struct{}, len(toUnlock))
	out := UnlockOutcome{Unlocked: []string{}, NotLocked: []string{}}
	for _, id := range toUnlock {
		if _, dup := remove[id]; dup {
			continue
		}
		if !current.Contains(id) {
			out.NotLocked = append(out.NotLocked, id)
			continue
		}
		remove[id] = struct{}{}
		out.Unlocked = append(out.Unlocked, id)
	}

	for _, id := range current.Normalize() {
		if _, drop := remove[id]; !drop {
			out.List = append(out.List, id)
		}
	}
	return out, nil
}

// DisableAll returns the snapshot to save and the value to persist when
// unlocking every pane. The snapshot is current verbatim; next is absent.
func DisableAll(current List) (snapshot List, next List, err error) {
	if current.Absent() {
		return nil, nil, fmt.Errorf("%w: no panes are currently locked", ErrPrecondition)
	}
	return append(List{}, current...), nil, nil
}

// RestoreAll returns the snapshot as the value to persist. exists reports
// whether a snapshot was found at all.
func RestoreAll(snapshot List, exists bool) (List, error) {
	if !exists {
		return nil, fmt.Errorf("%w: no snapshot to restore", ErrNotFound)
	}
	if snapshot.Absent() {
		return nil, nil
	}
	return append(List{}, snapshot...), nil
}
