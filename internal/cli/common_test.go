package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/panelock/internal/engine"
)

// captureOutput points the print helpers at buffers for the test.
func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	oldOut, oldErr := out, errOut
	var bufOut, bufErr bytes.Buffer
	out, errOut = &bufOut, &bufErr
	t.Cleanup(func() {
		out, errOut = oldOut, oldErr
	})
	return &bufOut, &bufErr
}

func TestValidateOutput(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"text", false},
		{"json", false},
		{"yaml", false},
		{"xml", true},
		{"", true},
	}

	for _, tt := range tests {
		err := validateOutput(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateOutput(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, engine.ErrArgument) {
			t.Errorf("validateOutput(%q) error = %v, want ErrArgument", tt.format, err)
		}
	}
}

func TestRender(t *testing.T) {
	result := &engine.LockedResult{Locked: []string{"com.apple.preference.sound"}}

	t.Run("json", func(t *testing.T) {
		bufOut, _ := captureOutput(t)
		if err := render(outputJSON, result, func() { t.Error("text renderer called") }); err != nil {
			t.Fatalf("render() error = %v", err)
		}
		var v map[string][]string
		if err := json.Unmarshal(bufOut.Bytes(), &v); err != nil {
			t.Fatalf("render() produced invalid JSON: %v", err)
		}
		if v["locked"][0] != "com.apple.preference.sound" {
			t.Errorf("unexpected JSON: %s", bufOut.String())
		}
	})

	t.Run("yaml", func(t *testing.T) {
		bufOut, _ := captureOutput(t)
		if err := render(outputYAML, result, func() { t.Error("text renderer called") }); err != nil {
			t.Fatalf("render() error = %v", err)
		}
		var v map[string][]string
		if err := yaml.Unmarshal(bufOut.Bytes(), &v); err != nil {
			t.Fatalf("render() produced invalid YAML: %v", err)
		}
		if v["locked"][0] != "com.apple.preference.sound" {
			t.Errorf("unexpected YAML: %s", bufOut.String())
		}
	})

	t.Run("text", func(t *testing.T) {
		captureOutput(t)
		called := false
		if err := render(outputText, result, func() { called = true }); err != nil {
			t.Fatalf("render() error = %v", err)
		}
		if !called {
			t.Error("text renderer not called")
		}
	})
}

func TestPrintFunctions(t *testing.T) {
	bufOut, bufErr := captureOutput(t)

	PrintSuccess("Success message")
	PrintWarning("Warning message")
	PrintError("Error message")
	PrintInfo("Info message")

	for _, want := range []string{"Success message", "Warning message", "Info message"} {
		if !strings.Contains(bufOut.String(), want) {
			t.Errorf("stdout missing %q: %q", want, bufOut.String())
		}
	}
	if strings.Contains(bufOut.String(), "Error message") {
		t.Error("PrintError should not write to stdout")
	}
	if !strings.Contains(bufErr.String(), "Error message") {
		t.Error("PrintError should write to stderr")
	}
}

func TestPrintTable(t *testing.T) {
	bufOut, _ := captureOutput(t)

	PrintTable([]string{"Pane", "Bundle Identifier"}, [][]string{
		{"Sound", "com.apple.preference.sound"},
		{"TimeMachine", "com.apple.prefs.backup"},
	})

	lines := strings.Split(strings.TrimRight(bufOut.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator and 2 rows, got %q", bufOut.String())
	}
	if !strings.Contains(lines[1], strings.Repeat("-", len("TimeMachine"))) {
		t.Errorf("separator should match widest cell, got %q", lines[1])
	}

	bufOut.Reset()
	PrintTable([]string{"Pane"}, nil)
	if bufOut.Len() != 0 {
		t.Errorf("empty table should print nothing, got %q", bufOut.String())
	}
}

func TestPrintCount(t *testing.T) {
	if got := PrintCount(1, "pane", "panes"); got != "1 pane" {
		t.Errorf("PrintCount(1) = %q", got)
	}
	if got := PrintCount(3, "pane", "panes"); got != "3 panes" {
		t.Errorf("PrintCount(3) = %q", got)
	}
}
