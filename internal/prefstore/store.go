// Package prefstore reads and writes string-array keys of a host preference
// domain.
//
// Writes are staged in memory and only applied by Synchronize, so a caller
// can update several keys and commit them together. Reads see staged values.
// Two backends are provided: DefaultsStore drives the macOS defaults tool and
// FileStore edits an XML property-list file directly.
package prefstore

import (
	"context"
	"fmt"

	"github.com/danieljhkim/panelock/internal/execx"
	"github.com/danieljhkim/panelock/internal/fsops"
)

// Store is a preference domain bound to one scope.
type Store interface {
	// Read returns the array stored under key. ok is false when the key is
	// absent.
	Read(ctx context.Context, key string) (values []string, ok bool, err error)

	// Write stages values for key. Nil or empty values stage a deletion.
	Write(ctx context.Context, key string, values []string) error

	// Synchronize applies every staged write to the backing store.
	Synchronize(ctx context.Context) error
}

// Backend names accepted by Open.
const (
	BackendDefaults = "defaults"
	BackendFile     = "file"
)

// Options selects and configures a backend.
type Options struct {
	// Backend is BackendDefaults or BackendFile.
	Backend string

	// Domain is the preference domain passed to defaults(1).
	Domain string

	// CurrentHost scopes defaults(1) commands to the current host.
	CurrentHost bool

	// DefaultsBin is the path to defaults(1).
	DefaultsBin string

	// File is the property list edited by the file backend.
	File string
}

// Open returns the backend named by opts.Backend.
func Open(opts Options, fs fsops.FS, runner execx.Runner) (Store, error) {
	switch opts.Backend {
	case BackendDefaults, "":
		return NewDefaultsStore(runner, opts.DefaultsBin, opts.Domain, opts.CurrentHost), nil
	case BackendFile:
		if opts.File == "" {
			return nil, fmt.Errorf("file backend requires a property list path")
		}
		return NewFileStore(fs, opts.File), nil
	default:
		return nil, fmt.Errorf("unknown preference backend %q", opts.Backend)
	}
}

// change is one staged write. A nil values slice means delete.
type change struct {
	key    string
	values []string
}

// staging keeps pending writes in first-write order.
type staging struct {
	order   []string
	pending map[string]change
}

func (s *staging) stage(key string, values []string) {
	if s.pending == nil {
		s.pending = make(map[string]change)
	}
	if _, ok := s.pending[key]; !ok {
		s.order = append(s.order, key)
	}
	var copied []string
	if len(values) > 0 {
		copied = append([]string{}, values...)
	}
	s.pending[key] = change{key: key, values: copied}
}

func (s *staging) lookup(key string) (change, bool) {
	c, ok := s.pending[key]
	return c, ok
}

func (s *staging) changes() []change {
	out := make([]change, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.pending[key])
	}
	return out
}

func (s *staging) reset() {
	s.order = nil
	s.pending = nil
}

// readStaged answers a Read from staged state when possible.
func (s *staging) readStaged(key string) ([]string, bool, bool) {
	c, ok := s.lookup(key)
	if !ok {
		return nil, false, false
	}
	if c.values == nil {
		return nil, false, true
	}
	return append([]string{}, c.values...), true, true
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("preference key must not be empty")
	}
	return nil
}
