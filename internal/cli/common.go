package cli

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/panelock/internal/catalog"
	"github.com/danieljhkim/panelock/internal/config"
	"github.com/danieljhkim/panelock/internal/engine"
	"github.com/danieljhkim/panelock/internal/execx"
	"github.com/danieljhkim/panelock/internal/fsops"
	"github.com/danieljhkim/panelock/internal/guard"
	"github.com/danieljhkim/panelock/internal/prefstore"
	"github.com/danieljhkim/panelock/internal/snapshot"
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// Constructors for host-facing dependencies. Tests replace them.
var (
	newIdentity = func() guard.Identity { return guard.NewSystemIdentity() }
	newRunner   = func() execx.Runner { return execx.NewRealRunner() }
)

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine(cfg *config.Config) (*engine.Engine, error) {
	fs := fsops.NewRealFS()
	runner := newRunner()

	store, err := prefstore.Open(prefstore.Options{
		Backend:     cfg.Preferences.Backend,
		Domain:      cfg.Preferences.Domain,
		CurrentHost: cfg.Preferences.CurrentHost,
		DefaultsBin: cfg.Preferences.DefaultsBin,
		File:        cfg.Preferences.File,
	}, fs, runner)
	if err != nil {
		return nil, fmt.Errorf("failed to open preference store: %w", err)
	}

	enumerator := catalog.NewEnumerator(fs, runner, catalog.Options{
		SystemDir:     cfg.Catalog.SystemDir,
		ThirdPartyDir: cfg.Catalog.ThirdPartyDir,
		BundlePattern: cfg.Catalog.BundlePattern,
		Manifest:      cfg.Catalog.Manifest,
		IdentifierKey: cfg.Catalog.IdentifierKey,
		Plutil:        cfg.Catalog.Plutil,
	})

	g := guard.New(newIdentity(), runner, guard.Options{
		ConsoleDevice: cfg.Session.ConsoleDevice,
		Sudo:          cfg.Session.Sudo,
		DefaultsBin:   cfg.Preferences.DefaultsBin,
		UserDomain:    cfg.Preferences.UserDomain,
		Keys:          []string{cfg.Preferences.DisabledKey, cfg.Preferences.HiddenKey},
		Disabled:      !cfg.Session.ClearOverrides,
	})

	return engine.New(
		enumerator,
		store,
		snapshot.NewManager(fs, cfg.Snapshot.Path),
		g,
		engine.Options{
			DisabledKey:     cfg.Preferences.DisabledKey,
			HiddenKey:       cfg.Preferences.HiddenKey,
			ProtectSnapshot: cfg.Snapshot.Protect,
		},
	), nil
}

// validateOutput rejects unknown --output values.
func validateOutput(format string) error {
	switch format {
	case outputText, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("%w: unknown output format %q (want text, json or yaml)", engine.ErrArgument, format)
	}
}

// render writes v in the structured format, or calls text for text output.
func render(format string, v interface{}, text func()) error {
	switch format {
	case outputJSON:
		return writeJSON(v)
	case outputYAML:
		return writeYAML(v)
	default:
		text()
		return nil
	}
}

// writeJSON outputs a value as indented JSON.
func writeJSON(v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML outputs a value as YAML.
func writeYAML(v interface{}) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
