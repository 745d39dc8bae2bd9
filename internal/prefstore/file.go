package prefstore

import (
	"context"
	"fmt"
	"os"

	"github.com/danieljhkim/panelock/internal/fsops"
	"github.com/danieljhkim/panelock/internal/plist"
)

// FileStore implements Store on an XML property-list file. Keys it does not
// write are preserved. A missing file reads as an empty domain.
type FileStore struct {
	staging

	fs   fsops.FS
	path string
}

// NewFileStore creates a store backed by the property list at path.
func NewFileStore(fs fsops.FS, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

func (f *FileStore) load() (*plist.Document, error) {
	data, err := f.fs.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return plist.New(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	doc, err := plist.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f.path, err)
	}
	return doc, nil
}

// Read returns the staged value for key, or the value currently in the file.
func (f *FileStore) Read(_ context.Context, key string) ([]string, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	if values, ok, staged := f.readStaged(key); staged {
		return values, ok, nil
	}

	doc, err := f.load()
	if err != nil {
		return nil, false, err
	}
	values, ok, err := doc.StringArray(key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return values, ok, nil
}

// Write stages values for key.
func (f *FileStore) Write(_ context.Context, key string, values []string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	f.stage(key, values)
	return nil
}

// Synchronize rewrites the file atomically with every staged change applied.
func (f *FileStore) Synchronize(_ context.Context) error {
	changes := f.changes()
	if len(changes) == 0 {
		return nil
	}

	doc, err := f.load()
	if err != nil {
		return err
	}

	for _, c := range changes {
		if c.values == nil {
			doc.Delete(c.key)
			continue
		}
		doc.SetStringArray(c.key, c.values)
	}

	data, err := doc.Bytes()
	if err != nil {
		return err
	}
	if err := f.fs.AtomicWrite(f.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.path, err)
	}

	f.reset()
	return nil
}
