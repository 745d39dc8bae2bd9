// Package catalog enumerates the preference-pane bundles installed on the
// host and the bundle identifier each one declares in its manifest.
//
// Two roots are scanned: the system panes shipped with the OS and the
// third-party panes installed under /Library. A catalog is built fresh on
// every call; nothing is cached between invocations.
package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/panelock/internal/execx"
	"github.com/danieljhkim/panelock/internal/fsops"
	"github.com/danieljhkim/panelock/internal/logging"
	"github.com/danieljhkim/panelock/internal/plist"
)

// Partition names one of the two bundle roots.
type Partition string

const (
	System     Partition = "system"
	ThirdParty Partition = "third-party"
)

// Entry is one installed pane.
type Entry struct {
	Name       string `json:"name" yaml:"name"`
	Identifier string `json:"identifier" yaml:"identifier"`
}

// Catalog maps short bundle names to identifiers, per partition.
type Catalog struct {
	System     map[string]string
	ThirdParty map[string]string
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		System:     map[string]string{},
		ThirdParty: map[string]string{},
	}
}

// Identifiers returns both partitions merged into one map for validation.
// Keys are qualified by partition so a short name present in both roots
// keeps both identifiers.
func (c *Catalog) Identifiers() map[string]string {
	all := make(map[string]string, len(c.System)+len(c.ThirdParty))
	for name, id := range c.System {
		all[string(System)+"/"+name] = id
	}
	for name, id := range c.ThirdParty {
		all[string(ThirdParty)+"/"+name] = id
	}
	return all
}

// Entries returns the partition's panes sorted by short name.
func (c *Catalog) Entries(p Partition) []Entry {
	src := c.System
	if p == ThirdParty {
		src = c.ThirdParty
	}

	entries := make([]Entry, 0, len(src))
	for name, id := range src {
		entries = append(entries, Entry{Name: name, Identifier: id})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// Options locates bundles and their manifests.
type Options struct {
	SystemDir     string
	ThirdPartyDir string

	// BundlePattern selects bundle directories, e.g. "*.prefPane".
	BundlePattern string

	// Manifest is the manifest path relative to the bundle directory.
	Manifest string

	// IdentifierKey is the manifest key holding the bundle identifier.
	IdentifierKey string

	// Plutil converts binary manifests to XML.
	Plutil string
}

// Enumerator builds catalogs from the filesystem.
type Enumerator struct {
	fs     fsops.FS
	runner execx.Runner
	opts   Options
	logger zerolog.Logger
}

// NewEnumerator creates a new Enumerator.
func NewEnumerator(fs fsops.FS, runner execx.Runner, opts Options) *Enumerator {
	return &Enumerator{
		fs:     fs,
		runner: runner,
		opts:   opts,
		logger: logging.GetLogger("catalog"),
	}
}

// Enumerate scans both roots. A missing root yields an empty partition and a
// bundle with an unreadable manifest is skipped with a warning.
func (e *Enumerator) Enumerate(ctx context.Context) (*Catalog, error) {
	c := New()

	if err := e.scan(ctx, e.opts.SystemDir, c.System); err != nil {
		return nil, err
	}
	if err := e.scan(ctx, e.opts.ThirdPartyDir, c.ThirdParty); err != nil {
		return nil, err
	}

	e.logger.Debug().
		Int("system", len(c.System)).
		Int("thirdParty", len(c.ThirdParty)).
		Msg("Catalog enumerated")
	return c, nil
}

func (e *Enumerator) scan(ctx context.Context, root string, into map[string]string) error {
	if root == "" {
		return nil
	}

	bundles, err := e.fs.Glob(root, e.opts.BundlePattern)
	if err != nil {
		return fmt.Errorf("failed to list bundles in %s: %w", root, err)
	}

	for _, bundle := range bundles {
		if err := ctx.Err(); err != nil {
			return err
		}

		manifest := filepath.Join(root, bundle, e.opts.Manifest)
		id, err := e.readIdentifier(ctx, manifest)
		if err != nil {
			e.logger.Warn().Err(err).Str("bundle", bundle).Msg("Skipping bundle")
			continue
		}

		// Last write wins on short-name collisions.
		into[ShortName(bundle)] = id
	}
	return nil
}

func (e *Enumerator) readIdentifier(ctx context.Context, manifest string) (string, error) {
	data, err := e.fs.ReadFile(manifest)
	if err != nil {
		return "", fmt.Errorf("failed to read manifest: %w", err)
	}

	if plist.IsBinary(data) {
		args := []string{"-convert", "xml1", "-o", "-", manifest}
		logging.LogCommand(e.logger, e.opts.Plutil, args)
		data, err = e.runner.Run(ctx, e.opts.Plutil, args...)
		if err != nil {
			return "", fmt.Errorf("failed to convert binary manifest: %w", err)
		}
	}

	doc, err := plist.Parse(data)
	if err != nil {
		return "", fmt.Errorf("failed to parse manifest %s: %w", manifest, err)
	}

	id, ok, err := doc.String(e.opts.IdentifierKey)
	if err != nil {
		return "", err
	}
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		return "", fmt.Errorf("manifest %s has no %s", manifest, e.opts.IdentifierKey)
	}
	return id, nil
}

// ShortName derives the display name of a bundle: its directory name up to
// the first '.'.
func ShortName(bundle string) string {
	if i := strings.IndexByte(bundle, '.'); i >= 0 {
		return bundle[:i]
	}
	return bundle
}
