// Package execx runs the host tools panelock drives (defaults, plutil, sudo).
//
// Callers depend on the Runner interface so tests can script command output
// with FakeRunner instead of touching the host preference system.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// ErrCommandFailed is wrapped by every error caused by a non-zero exit.
var ErrCommandFailed = errors.New("command failed")

// Runner executes external commands.
type Runner interface {
	// Run executes name with args and returns its stdout.
	// A non-zero exit yields an error wrapping ErrCommandFailed that
	// carries the command's stderr.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RealRunner implements Runner using os/exec.
type RealRunner struct{}

// NewRealRunner creates a new RealRunner.
func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

// Run executes the command and captures stdout and stderr separately.
func (r *RealRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s %s: exit %d\nstderr: %s",
				ErrCommandFailed, name, strings.Join(args, " "), exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("failed to run %s: %w", name, err)
	}

	return stdout.Bytes(), nil
}

// Call records one invocation made against a FakeRunner.
type Call struct {
	Name string
	Args []string
}

// String renders the call the way it would be typed in a shell.
func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// FakeRunner implements Runner with scripted responses for testing.
// Responses are keyed by the full command line (Call.String()).
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string][]byte
	failures  map[string]error
	handler   func(call Call) ([]byte, error)
	calls     []Call
}

// NewFakeRunner creates a new FakeRunner with no scripted responses.
// Unscripted commands succeed with empty output.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		responses: make(map[string][]byte),
		failures:  make(map[string]error),
	}
}

// SetOutput scripts the stdout returned for the given command line.
func (f *FakeRunner) SetOutput(cmdline string, out []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = out
}

// SetFailure scripts a failure for the given command line.
// The returned error wraps ErrCommandFailed.
func (f *FakeRunner) SetFailure(cmdline string, stderr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[cmdline] = fmt.Errorf("%w: %s\nstderr: %s", ErrCommandFailed, cmdline, stderr)
}

// SetHandler installs a function consulted before the scripted tables.
// It lets tests model stateful tools such as defaults.
func (f *FakeRunner) SetHandler(h func(call Call) ([]byte, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
}

// Calls returns every command run so far, in order.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Run records the call and returns the scripted response.
func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	call := Call{Name: name, Args: append([]string(nil), args...)}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	handler := f.handler
	key := call.String()
	out, hasOut := f.responses[key]
	failure := f.failures[key]
	f.mu.Unlock()

	if handler != nil {
		return handler(call)
	}
	if failure != nil {
		return nil, failure
	}
	if hasOut {
		return out, nil
	}
	return nil, nil
}
