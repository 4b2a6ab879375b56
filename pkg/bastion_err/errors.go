// pkg/bastion_err/errors.go

package bastion_err

import (
	"errors"
	"strings"

	cerr "github.com/cockroachdb/errors"
)

// Sentinel errors for the guarded mutation taxonomy. The coordinator decides
// which are fatal-before-mutation and which are fatal-after-rollback; nothing
// below it is allowed to swallow them.
var (
	// ErrInputInvalid is recoverable at the prompt: re-ask or skip the item.
	ErrInputInvalid = errors.New("input invalid")

	// ErrResourceUnavailable aborts a cycle before any mutation is attempted.
	ErrResourceUnavailable = errors.New("resource unavailable")

	// ErrBackupFailed aborts a cycle before any mutation is attempted.
	// Mutating without a recoverable snapshot is forbidden.
	ErrBackupFailed = errors.New("backup failed")

	// ErrValidationFailed is raised only after a verified-complete rollback.
	ErrValidationFailed = errors.New("validation failed")

	// ErrExternalActionFailed marks a disruptive action (restart, enable)
	// that errored on every attempted form; never auto-retried.
	ErrExternalActionFailed = errors.New("external action failed")
)

// UserError marks errors that are expected outcomes of operator choices
// rather than system faults; callers soften their presentation.
type UserError struct {
	cause error
}

func (e *UserError) Error() string { return e.cause.Error() }
func (e *UserError) Unwrap() error { return e.cause }

// NewExpectedError wraps an error for softer UX handling.
func NewExpectedError(err error) error {
	if err == nil {
		return nil
	}
	return &UserError{cause: err}
}

// IsExpectedUserError checks if the error is marked as expected.
func IsExpectedUserError(err error) bool {
	var e *UserError
	return errors.As(err, &e)
}

// WithRecovery attaches operator-facing recovery instructions as a hint.
// Fatal paths must name the exact backup path and restore sequence, because
// the operator may be on a minimal terminal with no other documentation.
func WithRecovery(err error, instructions string) error {
	return cerr.WithHint(err, instructions)
}

// ExtractSummary extracts a concise error summary from full command output.
func ExtractSummary(output string, maxCandidates int) string {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return "No output provided."
	}

	lines := strings.Split(trimmed, "\n")
	var candidates []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lowerLine := strings.ToLower(line)
		if strings.Contains(lowerLine, "error") ||
			strings.Contains(lowerLine, "failed") ||
			strings.Contains(lowerLine, "cannot") ||
			strings.Contains(lowerLine, "invalid") ||
			strings.Contains(lowerLine, "fatal") {
			candidates = append(candidates, line)
		}
	}

	if len(candidates) > 0 {
		if len(candidates) > maxCandidates {
			candidates = candidates[:maxCandidates]
		}
		return strings.Join(candidates, " - ")
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}

	return "Unknown error."
}
