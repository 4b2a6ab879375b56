// pkg/bastion_err/errors_test.go

package bastion_err

import (
	"errors"
	"testing"

	cerr "github.com/cockroachdb/errors"
)

func TestIsExpectedUserError(t *testing.T) {
	t.Parallel()

	base := errors.New("operator declined")
	wrapped := NewExpectedError(base)

	if !IsExpectedUserError(wrapped) {
		t.Error("expected user error not detected")
	}
	if IsExpectedUserError(base) {
		t.Error("plain error misclassified as user error")
	}
	if IsExpectedUserError(nil) {
		t.Error("nil misclassified as user error")
	}

	// Detection must survive further wrapping.
	rewrapped := cerr.Wrap(wrapped, "outer context")
	if !IsExpectedUserError(rewrapped) {
		t.Error("user error lost through wrapping")
	}
}

func TestNewExpectedErrorNil(t *testing.T) {
	t.Parallel()
	if NewExpectedError(nil) != nil {
		t.Error("NewExpectedError(nil) should be nil")
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrInputInvalid,
		ErrResourceUnavailable,
		ErrBackupFailed,
		ErrValidationFailed,
		ErrExternalActionFailed,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %v matches %v", a, b)
			}
		}
	}
}

func TestExtractSummary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		output        string
		maxCandidates int
		want          string
	}{
		{
			name:          "empty output",
			output:        "",
			maxCandidates: 3,
			want:          "No output provided.",
		},
		{
			name:          "sshd diagnostic",
			output:        "/tmp/candidate: line 12: Bad configuration option: PermitRotLogin\n/tmp/candidate: terminating, 1 bad configuration options",
			maxCandidates: 2,
			want:          "/tmp/candidate: line 12: Bad configuration option: PermitRotLogin",
		},
		{
			name:          "no error keywords",
			output:        "all good\nnothing to see",
			maxCandidates: 3,
			want:          "all good",
		},
		{
			name:          "caps at max candidates",
			output:        "error one\nerror two\nerror three",
			maxCandidates: 2,
			want:          "error one - error two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSummary(tt.output, tt.maxCandidates)
			if got != tt.want {
				t.Errorf("ExtractSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}
