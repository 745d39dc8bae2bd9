package guard

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/panelock/internal/execx"
)

const userPrefs = `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
	<key>DisabledPreferencePanes</key>
	<array><string>com.apple.preference.sound</string></array>
	<key>NSWindow Frame</key>
	<string>0 0 100 100</string>
</dict>
</plist>`

func testOptions() Options {
	return Options{
		ConsoleDevice: "/dev/console",
		Sudo:          "/usr/bin/sudo",
		DefaultsBin:   "/usr/bin/defaults",
		UserDomain:    "com.apple.systempreferences",
		Keys:          []string{"DisabledPreferencePanes", "HiddenPreferencePanes"},
	}
}

func TestRequireAdmin(t *testing.T) {
	g := New(&FakeIdentity{EUID: 0}, execx.NewFakeRunner(), testOptions())
	assert.NoError(t, g.RequireAdmin())

	g = New(&FakeIdentity{EUID: 501}, execx.NewFakeRunner(), testOptions())
	err := g.RequireAdmin()
	assert.ErrorIs(t, err, ErrPermission)
	assert.Contains(t, err.Error(), "sudo")
}

func TestClearSessionOverrides_DeletesPresentKeys(t *testing.T) {
	runner := execx.NewFakeRunner()
	runner.SetOutput("/usr/bin/sudo -u alex /usr/bin/defaults export com.apple.systempreferences -", []byte(userPrefs))

	g := New(&FakeIdentity{ConsoleUID: 501, Users: map[int]string{501: "alex"}}, runner, testOptions())
	require.NoError(t, g.ClearSessionOverrides(context.Background()))

	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "/usr/bin/sudo -u alex /usr/bin/defaults delete com.apple.systempreferences DisabledPreferencePanes", calls[1].String())
}

func TestClearSessionOverrides_DeleteFailure(t *testing.T) {
	runner := execx.NewFakeRunner()
	runner.SetOutput("/usr/bin/sudo -u alex /usr/bin/defaults export com.apple.systempreferences -", []byte(userPrefs))
	runner.SetFailure("/usr/bin/sudo -u alex /usr/bin/defaults delete com.apple.systempreferences DisabledPreferencePanes", "locked")

	g := New(&FakeIdentity{ConsoleUID: 501, Users: map[int]string{501: "alex"}}, runner, testOptions())
	err := g.ClearSessionOverrides(context.Background())
	assert.ErrorIs(t, err, execx.ErrCommandFailed)
}

func TestClearSessionOverrides_NoOps(t *testing.T) {
	tests := []struct {
		name     string
		identity *FakeIdentity
		opts     func(*Options)
		script   func(*execx.FakeRunner)
		calls    int
	}{
		{
			name:     "root at console",
			identity: &FakeIdentity{ConsoleUID: 0},
		},
		{
			name:     "no console device",
			identity: &FakeIdentity{ConsoleErr: os.ErrNotExist},
		},
		{
			name:     "unknown console uid",
			identity: &FakeIdentity{ConsoleUID: 777, Users: map[int]string{}},
		},
		{
			name:     "disabled by config",
			identity: &FakeIdentity{ConsoleUID: 501, Users: map[int]string{501: "alex"}},
			opts:     func(o *Options) { o.Disabled = true },
		},
		{
			name:     "user has no domain",
			identity: &FakeIdentity{ConsoleUID: 501, Users: map[int]string{501: "alex"}},
			script: func(r *execx.FakeRunner) {
				r.SetFailure("/usr/bin/sudo -u alex /usr/bin/defaults export com.apple.systempreferences -", "Domain does not exist")
			},
			calls: 1,
		},
		{
			name:     "no override keys",
			identity: &FakeIdentity{ConsoleUID: 501, Users: map[int]string{501: "alex"}},
			script: func(r *execx.FakeRunner) {
				r.SetOutput("/usr/bin/sudo -u alex /usr/bin/defaults export com.apple.systempreferences -", []byte(`<plist version="1.0"><dict/></plist>`))
			},
			calls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := execx.NewFakeRunner()
			if tt.script != nil {
				tt.script(runner)
			}
			opts := testOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}

			g := New(tt.identity, runner, opts)
			require.NoError(t, g.ClearSessionOverrides(context.Background()))
			assert.Len(t, runner.Calls(), tt.calls)
		})
	}
}

func TestClearSessionOverrides_MalformedExport(t *testing.T) {
	runner := execx.NewFakeRunner()
	runner.SetOutput("/usr/bin/sudo -u alex /usr/bin/defaults export com.apple.systempreferences -", []byte("not a plist"))

	g := New(&FakeIdentity{ConsoleUID: 501, Users: map[int]string{501: "alex"}}, runner, testOptions())
	err := g.ClearSessionOverrides(context.Background())
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrPermission))
}
