package extractor

import (
	"errors"
	"fmt"
	"strings"

	"alltube/internal/runner"
)

var (
	// ErrPasswordRequired indicates the source is password-protected and no
	// password was supplied.
	ErrPasswordRequired = errors.New("video password required")

	// ErrWrongPassword indicates the supplied video password was rejected.
	ErrWrongPassword = errors.New("wrong video password")

	// ErrEmptyResult indicates the tool succeeded but produced no URL.
	ErrEmptyResult = errors.New("extraction returned no URL")
)

// ExtractionError is any other extraction failure. It carries the tool's
// stderr verbatim together with its exit code.
type ExtractionError struct {
	Stderr   string
	ExitCode int
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed (exit %d): %s", e.ExitCode, strings.TrimSpace(e.Stderr))
}

// Stderr sentinels emitted by the extraction tool for protected sources.
const (
	passwordRequiredSentinel = "protected by a password, use the --video-password option"
	wrongPasswordPrefix      = "Wrong password"
)

// classify maps a tool invocation error onto the typed taxonomy. Errors that
// are not tool exit failures (spawn errors, context cancellation) pass
// through unchanged.
func classify(err error) error {
	var exitErr *runner.ExitError
	if !errors.As(err, &exitErr) {
		return err
	}

	stderr := strings.TrimSpace(exitErr.Stderr)
	if stderr == passwordRequiredSentinel {
		return ErrPasswordRequired
	}
	if strings.HasPrefix(stderr, wrongPasswordPrefix) {
		return ErrWrongPassword
	}
	return &ExtractionError{Stderr: exitErr.Stderr, ExitCode: exitErr.Code}
}
