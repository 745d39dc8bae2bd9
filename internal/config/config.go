// Package config loads panelock configuration.
//
// Values are layered with koanf: built-in defaults, then the first TOML file
// found (--config, $PANELOCK_CONFIG, the XDG config search path, then
// /etc/panelock/config.toml), then PANELOCK_* environment variables such as
// PANELOCK_SNAPSHOT_PATH for snapshot.path.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	toml2 "github.com/pelletier/go-toml/v2"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "PANELOCK_"

	// EnvConfig names an explicit config file.
	EnvConfig = "PANELOCK_CONFIG"

	// SystemConfigFile is consulted when no other config file is found.
	SystemConfigFile = "/etc/panelock/config.toml"

	xdgConfigFile = "panelock/config.toml"
)

// Config is the effective panelock configuration.
type Config struct {
	Preferences Preferences `koanf:"preferences" toml:"preferences"`
	Catalog     Catalog     `koanf:"catalog" toml:"catalog"`
	Snapshot    Snapshot    `koanf:"snapshot" toml:"snapshot"`
	Session     Session     `koanf:"session" toml:"session"`

	// Source is the config file that was loaded, if any.
	Source string `koanf:"-" toml:"-"`
}

// Preferences locates the preference store being edited.
type Preferences struct {
	// Backend is "defaults" or "file".
	Backend string `koanf:"backend" toml:"backend"`

	// Domain is the domain the disabled list lives in. The default is the
	// any-user plist path, which defaults(1) addresses by file.
	Domain string `koanf:"domain" toml:"domain"`

	// CurrentHost adds -currentHost to defaults(1) commands. It only has an
	// effect on named domains, so it cannot be combined with a path domain.
	CurrentHost bool `koanf:"current_host" toml:"current_host"`

	// UserDomain is the per-user domain whose overrides get cleared.
	UserDomain string `koanf:"user_domain" toml:"user_domain"`

	DisabledKey string `koanf:"disabled_key" toml:"disabled_key"`
	HiddenKey   string `koanf:"hidden_key" toml:"hidden_key"`

	// File is the property list used by the file backend.
	File string `koanf:"file" toml:"file"`

	DefaultsBin string `koanf:"defaults_bin" toml:"defaults_bin"`
}

// Catalog locates installed pane bundles.
type Catalog struct {
	SystemDir     string `koanf:"system_dir" toml:"system_dir"`
	ThirdPartyDir string `koanf:"third_party_dir" toml:"third_party_dir"`
	BundlePattern string `koanf:"bundle_pattern" toml:"bundle_pattern"`
	Manifest      string `koanf:"manifest" toml:"manifest"`
	IdentifierKey string `koanf:"identifier_key" toml:"identifier_key"`
	Plutil        string `koanf:"plutil" toml:"plutil"`
}

// Snapshot configures the unlock-all snapshot file.
type Snapshot struct {
	Path string `koanf:"path" toml:"path"`

	// Protect makes unlock-all refuse to overwrite an existing snapshot.
	Protect bool `koanf:"protect" toml:"protect"`
}

// Session configures console-user override clearing.
type Session struct {
	ConsoleDevice  string `koanf:"console_device" toml:"console_device"`
	Sudo           string `koanf:"sudo" toml:"sudo"`
	ClearOverrides bool   `koanf:"clear_overrides" toml:"clear_overrides"`
}

// defaults returns the built-in configuration as a flat koanf map.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"preferences.backend":      "defaults",
		"preferences.domain":       "/Library/Preferences/com.apple.systempreferences",
		"preferences.current_host": false,
		"preferences.user_domain":  "com.apple.systempreferences",
		"preferences.disabled_key": "DisabledPreferencePanes",
		"preferences.hidden_key":   "HiddenPreferencePanes",
		"preferences.file":         "",
		"preferences.defaults_bin": "/usr/bin/defaults",

		"catalog.system_dir":      "/System/Library/PreferencePanes",
		"catalog.third_party_dir": "/Library/PreferencePanes",
		"catalog.bundle_pattern":  "*.prefPane",
		"catalog.manifest":        "Contents/Info.plist",
		"catalog.identifier_key":  "CFBundleIdentifier",
		"catalog.plutil":          "/usr/bin/plutil",

		"snapshot.path":    "/tmp/prefpanes.restore",
		"snapshot.protect": false,

		"session.console_device":  "/dev/console",
		"session.sudo":            "/usr/bin/sudo",
		"session.clear_overrides": true,
	}
}

// Load builds the effective configuration. explicitPath, when set, must exist.
func Load(explicitPath string) (*Config, error) {
	k := koanf.New(".")

	// 1. Built-in defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	source, err := findConfigFile(explicitPath)
	if err != nil {
		return nil, err
	}
	if source != "" {
		if err := k.Load(file.Provider(source), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", source, err)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Source = source

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps PANELOCK_SNAPSHOT_PATH to snapshot.path. Only the first
// underscore separates the section from the key. Variables that do not name
// a known key map to "" and are skipped by the env provider.
func envKey(s string) string {
	key := strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	if _, ok := knownKeys[key]; !ok {
		return ""
	}
	return key
}

var knownKeys = defaults()

// findConfigFile returns the config file to load, or "" for none.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath == "" {
		explicitPath = os.Getenv(EnvConfig)
	}
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicitPath, err)
		}
		return explicitPath, nil
	}

	xdg.Reload()
	if path, err := xdg.SearchConfigFile(xdgConfigFile); err == nil {
		return path, nil
	}

	if _, err := os.Stat(SystemConfigFile); err == nil {
		return SystemConfigFile, nil
	}
	return "", nil
}

// Validate rejects configurations the tool cannot act on.
func (c *Config) Validate() error {
	switch c.Preferences.Backend {
	case "defaults":
	case "file":
		if c.Preferences.File == "" {
			return fmt.Errorf("invalid configuration: preferences.file is required for the file backend")
		}
	default:
		return fmt.Errorf("invalid configuration: unknown preferences.backend %q", c.Preferences.Backend)
	}

	if c.Preferences.Backend == "defaults" && c.Preferences.CurrentHost && filepath.IsAbs(c.Preferences.Domain) {
		return fmt.Errorf("invalid configuration: preferences.current_host has no effect on path domain %s", c.Preferences.Domain)
	}

	required := map[string]string{
		"preferences.domain":       c.Preferences.Domain,
		"preferences.disabled_key": c.Preferences.DisabledKey,
		"preferences.hidden_key":   c.Preferences.HiddenKey,
		"catalog.bundle_pattern":   c.Catalog.BundlePattern,
		"catalog.manifest":         c.Catalog.Manifest,
		"catalog.identifier_key":   c.Catalog.IdentifierKey,
		"snapshot.path":            c.Snapshot.Path,
	}
	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("invalid configuration: %s must not be empty", key)
		}
	}
	return nil
}

// TOML renders the configuration as a TOML document.
func (c *Config) TOML() (string, error) {
	data, err := toml2.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode configuration: %w", err)
	}
	return string(data), nil
}
