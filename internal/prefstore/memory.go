package prefstore

import (
	"context"
	"errors"
)

// ErrSyncFailed is returned by FakeStore.Synchronize when FailSync is set.
var ErrSyncFailed = errors.New("synchronize failed")

// FakeStore is an in-memory Store for testing. Committed holds what a real
// backend would have persisted.
type FakeStore struct {
	staging

	Committed map[string][]string

	// FailSync makes Synchronize fail without committing anything.
	FailSync bool

	// Syncs counts successful Synchronize calls.
	Syncs int
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{Committed: map[string][]string{}}
}

// Read returns the staged or committed value for key.
func (f *FakeStore) Read(_ context.Context, key string) ([]string, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	if values, ok, staged := f.readStaged(key); staged {
		return values, ok, nil
	}
	values, ok := f.Committed[key]
	if !ok {
		return nil, false, nil
	}
	return append([]string{}, values...), true, nil
}

// Write stages values for key.
func (f *FakeStore) Write(_ context.Context, key string, values []string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	f.stage(key, values)
	return nil
}

// Synchronize commits staged writes.
func (f *FakeStore) Synchronize(_ context.Context) error {
	if f.FailSync {
		return ErrSyncFailed
	}
	for _, c := range f.changes() {
		if c.values == nil {
			delete(f.Committed, c.key)
			continue
		}
		f.Committed[c.key] = c.values
	}
	f.reset()
	f.Syncs++
	return nil
}
