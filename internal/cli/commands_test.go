package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/panelock/internal/engine"
	"github.com/danieljhkim/panelock/internal/execx"
	"github.com/danieljhkim/panelock/internal/guard"
	"github.com/danieljhkim/panelock/internal/plist"
)

type testEnv struct {
	dir      string
	config   string
	prefs    string
	snapshot string
}

const paneManifest = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleIdentifier</key>
	<string>%s</string>
</dict>
</plist>
`

func writePane(t *testing.T, root, bundle, id string) {
	t.Helper()
	dir := filepath.Join(root, bundle, "Contents")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create bundle: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Info.plist"), []byte(fmt.Sprintf(paneManifest, id)), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}
}

// setupTestEnv creates pane bundles, a file-backed preference store and a
// config file pointing at them. euid is the identity the guard sees.
func setupTestEnv(t *testing.T, euid int) *testEnv {
	t.Helper()
	dir := t.TempDir()

	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CONFIG_DIRS", filepath.Join(dir, "config"))
	t.Setenv("PANELOCK_CONFIG", "")

	systemDir := filepath.Join(dir, "System", "PreferencePanes")
	thirdPartyDir := filepath.Join(dir, "Library", "PreferencePanes")
	writePane(t, systemDir, "Sound.prefPane", "com.apple.preference.sound")
	writePane(t, systemDir, "TimeMachine.prefPane", "com.apple.prefs.backup")
	writePane(t, thirdPartyDir, "Flash Player.prefPane", "com.adobe.flashplayerpreferences")

	env := &testEnv{
		dir:      dir,
		config:   filepath.Join(dir, "panelock.toml"),
		prefs:    filepath.Join(dir, "com.apple.systempreferences.plist"),
		snapshot: filepath.Join(dir, "prefpanes.restore"),
	}

	content := fmt.Sprintf(`[preferences]
backend = "file"
file = %q

[catalog]
system_dir = %q
third_party_dir = %q

[snapshot]
path = %q
`, env.prefs, systemDir, thirdPartyDir, env.snapshot)
	if err := os.WriteFile(env.config, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	oldIdentity, oldRunner := newIdentity, newRunner
	newIdentity = func() guard.Identity {
		return &guard.FakeIdentity{EUID: euid, ConsoleErr: os.ErrNotExist}
	}
	newRunner = func() execx.Runner { return execx.NewFakeRunner() }
	t.Cleanup(func() {
		newIdentity, newRunner = oldIdentity, oldRunner
	})

	return env
}

// run executes the root command against env's config.
func (env *testEnv) run(args ...string) (string, string, error) {
	return executeRoot(append(args, "--config", env.config)...)
}

// disabled returns both preference keys from the store file.
func (env *testEnv) disabled(t *testing.T) (disabledIDs, hiddenIDs []string) {
	t.Helper()
	data, err := os.ReadFile(env.prefs)
	if err != nil {
		t.Fatalf("Failed to read preferences: %v", err)
	}
	doc, err := plist.Parse(data)
	if err != nil {
		t.Fatalf("Failed to parse preferences: %v", err)
	}
	disabledIDs, _, _ = doc.StringArray("DisabledPreferencePanes")
	hiddenIDs, _, _ = doc.StringArray("HiddenPreferencePanes")
	return disabledIDs, hiddenIDs
}

func TestListCommand_Text(t *testing.T) {
	env := setupTestEnv(t, 0)

	output, _, err := env.run("--list")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, want := range []string{"System Panes", "Third-Party Panes", "Sound", "com.apple.prefs.backup", "Flash Player"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got %q", want, output)
		}
	}
}

func TestListCommand_JSONOutput(t *testing.T) {
	env := setupTestEnv(t, 0)

	output, _, err := env.run("--list", "-o", "json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var result engine.ListResult
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("expected valid JSON output, got error: %v, output: %q", err, output)
	}
	if len(result.System) != 2 || len(result.ThirdParty) != 1 {
		t.Errorf("unexpected list result: %+v", result)
	}
	if result.System[0].Name != "Sound" {
		t.Errorf("expected entries sorted by name, got %+v", result.System)
	}
}

func TestLockCommand(t *testing.T) {
	env := setupTestEnv(t, 0)

	output, _, err := env.run("--lock", "com.apple.preference.sound, com.example.bogus")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(output, "Locked com.apple.preference.sound") {
		t.Errorf("expected lock confirmation, got %q", output)
	}
	if !strings.Contains(output, "com.example.bogus is not a valid bundle identifier") {
		t.Errorf("expected validation warning, got %q", output)
	}

	disabledIDs, hiddenIDs := env.disabled(t)
	want := []string{"com.apple.preference.sound"}
	if !reflect.DeepEqual(disabledIDs, want) || !reflect.DeepEqual(hiddenIDs, want) {
		t.Errorf("keys = %v / %v, want %v", disabledIDs, hiddenIDs, want)
	}

	// Locking again is a no-op
	output, _, err = env.run("--lock", "com.apple.preference.sound")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(output, "already locked") {
		t.Errorf("expected already-locked notice, got %q", output)
	}
	if disabledIDs, _ = env.disabled(t); !reflect.DeepEqual(disabledIDs, want) {
		t.Errorf("DisabledPreferencePanes = %v, want %v", disabledIDs, want)
	}
}

func TestLockedCommand(t *testing.T) {
	env := setupTestEnv(t, 0)

	_, _, err := env.run("--locked")
	if !errors.Is(err, engine.ErrPrecondition) {
		t.Fatalf("Execute() error = %v, want ErrPrecondition", err)
	}

	if _, _, err := env.run("--lock", "com.apple.prefs.backup,com.apple.preference.sound"); err != nil {
		t.Fatalf("lock failed: %v", err)
	}

	output, _, err := env.run("--locked", "-o", "yaml")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	var result engine.LockedResult
	if err := yaml.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("expected valid YAML output, got error: %v, output: %q", err, output)
	}
	want := []string{"com.apple.prefs.backup", "com.apple.preference.sound"}
	if !reflect.DeepEqual(result.Locked, want) {
		t.Errorf("Locked = %v, want %v", result.Locked, want)
	}
}

func TestUnlockCommand(t *testing.T) {
	env := setupTestEnv(t, 0)

	_, _, err := env.run("--unlock", "com.apple.preference.sound")
	if !errors.Is(err, engine.ErrPrecondition) {
		t.Fatalf("unlock with nothing locked error = %v, want ErrPrecondition", err)
	}

	if _, _, err := env.run("--lock", "com.apple.preference.sound"); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	output, _, err := env.run("--unlock", "com.apple.preference.sound")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(output, "Unlocked com.apple.preference.sound") {
		t.Errorf("expected unlock confirmation, got %q", output)
	}

	disabledIDs, hiddenIDs := env.disabled(t)
	if disabledIDs != nil || hiddenIDs != nil {
		t.Errorf("expected both keys absent, got %v / %v", disabledIDs, hiddenIDs)
	}

	_, _, err = env.run("--unlockall")
	if !errors.Is(err, engine.ErrPrecondition) {
		t.Errorf("unlockall after unlock error = %v, want ErrPrecondition", err)
	}
}

func TestUnlockAllRestoreCommands(t *testing.T) {
	env := setupTestEnv(t, 0)
	ids := []string{"com.apple.prefs.backup", "com.adobe.flashplayerpreferences"}

	if _, _, err := env.run("--lock", strings.Join(ids, ", ")); err != nil {
		t.Fatalf("lock failed: %v", err)
	}

	output, _, err := env.run("--unlockall")
	if err != nil {
		t.Fatalf("unlockall error = %v", err)
	}
	if !strings.Contains(output, env.snapshot) {
		t.Errorf("expected snapshot path in output, got %q", output)
	}
	if disabledIDs, _ := env.disabled(t); disabledIDs != nil {
		t.Errorf("expected no locked panes, got %v", disabledIDs)
	}
	saved, err := os.ReadFile(env.snapshot)
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	if string(saved) != strings.Join(ids, "\n")+"\n" {
		t.Errorf("snapshot = %q", saved)
	}

	output, _, err = env.run("--restore", "-o", "json")
	if err != nil {
		t.Fatalf("restore error = %v", err)
	}
	var result engine.RestoreResult
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("expected valid JSON output, got error: %v, output: %q", err, output)
	}
	if !reflect.DeepEqual(result.Restored, ids) {
		t.Errorf("Restored = %v, want %v", result.Restored, ids)
	}

	disabledIDs, hiddenIDs := env.disabled(t)
	if !reflect.DeepEqual(disabledIDs, ids) || !reflect.DeepEqual(hiddenIDs, ids) {
		t.Errorf("keys = %v / %v, want %v", disabledIDs, hiddenIDs, ids)
	}
	if _, err := os.Stat(env.snapshot); !os.IsNotExist(err) {
		t.Errorf("expected snapshot to be deleted, stat error = %v", err)
	}

	_, _, err = env.run("--restore")
	if !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("second restore error = %v, want ErrNotFound", err)
	}
}

func TestUnlockAllCommand_ProtectedSnapshot(t *testing.T) {
	env := setupTestEnv(t, 0)
	t.Setenv("PANELOCK_SNAPSHOT_PROTECT", "true")

	if err := os.WriteFile(env.snapshot, []byte("com.apple.preference.sound\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := env.run("--lock", "com.apple.prefs.backup"); err != nil {
		t.Fatalf("lock failed: %v", err)
	}

	_, _, err := env.run("--unlockall")
	if !errors.Is(err, engine.ErrPrecondition) {
		t.Fatalf("unlockall error = %v, want ErrPrecondition", err)
	}
	if disabledIDs, _ := env.disabled(t); !reflect.DeepEqual(disabledIDs, []string{"com.apple.prefs.backup"}) {
		t.Errorf("locks should be untouched, got %v", disabledIDs)
	}
}

func TestShowConfigCommand(t *testing.T) {
	// No root needed
	env := setupTestEnv(t, 501)

	output, _, err := env.run("--show-config")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"# loaded from " + env.config, "[snapshot]", env.snapshot, "backend = 'file'"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got %q", want, output)
		}
	}
}
