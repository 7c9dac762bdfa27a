// Package infrastructure provides the git CLI implementation of the
// application Gateway port.
package infrastructure

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// Runner abstracts git command execution for testability. Tests substitute a
// fake; production code uses ExecRunner.
type Runner interface {
	// Run executes git with args in dir, returning stdout and stderr
	// separately. A non-zero exit is returned as the error with stderr
	// still populated.
	Run(ctx context.Context, dir string, args ...string) (stdout, stderr string, err error)
}

// ExecRunner runs the real git binary via os/exec.
type ExecRunner struct {
	binary  string
	timeout time.Duration
}

// NewExecRunner creates a runner for the given git binary. An empty binary
// falls back to PATH lookup of "git"; a zero timeout means no per-command
// deadline beyond the caller's context.
func NewExecRunner(binary string, timeout time.Duration) *ExecRunner {
	if binary == "" {
		binary = "git"
	}
	return &ExecRunner{binary: binary, timeout: timeout}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	// #nosec G204 -- args are assembled by the gateway, never raw user text
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = dir

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	return outBuf.String(), errBuf.String(), err
}
