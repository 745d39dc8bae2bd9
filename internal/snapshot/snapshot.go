// Package snapshot persists the single saved copy of the disabled-pane list
// taken by "unlock all" and consumed by "restore".
//
// The file holds one identifier per line. There is exactly one slot: every
// Save replaces the previous snapshot wholesale.
package snapshot

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/danieljhkim/panelock/internal/fsops"
)

// ErrNotFound is returned by Load when no snapshot file exists.
var ErrNotFound = errors.New("snapshot not found")

// Manager reads and writes the snapshot file at a fixed path.
type Manager struct {
	fs   fsops.FS
	path string
}

// NewManager creates a new Manager for the snapshot at path.
func NewManager(fs fsops.FS, path string) *Manager {
	return &Manager{fs: fs, path: path}
}

// Path returns the location of the snapshot file.
func (m *Manager) Path() string {
	return m.path
}

// Exists reports whether a snapshot is currently saved.
func (m *Manager) Exists() (bool, error) {
	exists, err := m.fs.Exists(m.path)
	if err != nil {
		return false, fmt.Errorf("failed to check snapshot %s: %w", m.path, err)
	}
	return exists, nil
}

// Save overwrites the snapshot with ids, one per line.
func (m *Manager) Save(ids []string) error {
	var buf bytes.Buffer
	for _, id := range ids {
		buf.WriteString(id)
		buf.WriteByte('\n')
	}

	if err := m.fs.AtomicWrite(m.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", m.path, err)
	}
	return nil
}

// Load returns the saved identifiers in file order. Blank lines are skipped
// and surrounding whitespace trimmed.
func (m *Manager) Load() ([]string, error) {
	data, err := m.fs.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, m.path)
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", m.path, err)
	}

	ids := []string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", m.path, err)
	}

	return ids, nil
}

// Clear deletes the snapshot. A missing file is not an error.
func (m *Manager) Clear() error {
	if err := m.fs.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot %s: %w", m.path, err)
	}
	return nil
}
