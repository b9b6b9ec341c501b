package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"alltube/internal/logging"
)

// ExitError is returned when a process exits with a non-zero status.
// Stderr carries the process's error output verbatim.
type ExitError struct {
	Path   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = "(no stderr)"
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Path, e.Code, msg)
}

// Process is a handle to a running external process whose stdout is consumed
// as a stream.
type Process struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
}

// Stdout returns the process's standard output pipe. Bytes become available
// as the process produces them.
func (p *Process) Stdout() io.Reader {
	return p.stdout
}

// Wait waits for the process to exit. A non-zero exit status is reported as
// an *ExitError carrying the captured stderr.
func (p *Process) Wait() error {
	err := p.cmd.Wait()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{
			Path:   p.cmd.Path,
			Code:   exitErr.ExitCode(),
			Stderr: p.stderr.String(),
		}
	}
	return err
}

// Kill terminates the process immediately. Safe to call after exit.
func (p *Process) Kill() {
	if p.cmd.Process != nil {
		if err := p.cmd.Process.Kill(); err != nil {
			logging.Debug("Kill %s: %v", p.cmd.Path, err)
		}
	}
}

// Close kills the process and reaps it, discarding the exit status. Use this
// when the consumer abandons the stream early.
func (p *Process) Close() error {
	p.Kill()
	_ = p.cmd.Wait()
	return nil
}

// Start launches path with args and the inherited environment plus extraEnv,
// returning a handle whose stdout streams incrementally. The process is
// killed when ctx is canceled.
func Start(ctx context.Context, path string, args []string, extraEnv []string) (*Process, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	logging.Debug("Starting %s %s", path, strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", path, err)
	}

	return &Process{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

// Output runs path with args to completion and returns its stdout. A non-zero
// exit is reported as an *ExitError carrying the captured stderr.
func Output(ctx context.Context, path string, args []string, extraEnv []string) (string, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.Debug("Running %s %s", path, strings.Join(args, " "))
	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.String(), &ExitError{
			Path:   path,
			Code:   exitErr.ExitCode(),
			Stderr: stderr.String(),
		}
	}
	return stdout.String(), err
}
