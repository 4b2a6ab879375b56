// pkg/checker/checker_test.go

package checker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCapability(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CapabilityPresent, DetectCapability("sh"))
	assert.Equal(t, CapabilityAbsent, DetectCapability("no-such-binary-bastion-test"))
}

// sh -n is a convenient stand-in syntax checker: present everywhere the
// tests run and deterministic about what it accepts.
func shChecker(strict bool) *CommandChecker {
	return &CommandChecker{
		Binary:      "sh",
		Args:        []string{"-n", "{file}"},
		TempPattern: "checker-test-*",
		Strict:      strict,
	}
}

func TestCommandCheckerPass(t *testing.T) {
	t.Parallel()

	outcome := shChecker(false).Check(context.Background(), "echo ok\n")
	assert.Equal(t, Pass, outcome.Status)
	assert.Empty(t, outcome.Diagnostic)
}

func TestCommandCheckerFailCarriesDiagnostic(t *testing.T) {
	t.Parallel()

	outcome := shChecker(false).Check(context.Background(), "if then fi (\n")
	assert.Equal(t, Fail, outcome.Status)
	assert.NotEmpty(t, outcome.Diagnostic)
}

func TestCommandCheckerUnavailableBinary(t *testing.T) {
	t.Parallel()

	chk := &CommandChecker{
		Binary:      "no-such-binary-bastion-test",
		Args:        []string{"-t", "{file}"},
		TempPattern: "checker-test-*",
	}
	outcome := chk.Check(context.Background(), "anything")
	assert.Equal(t, Unavailable, outcome.Status)
	assert.Contains(t, outcome.Diagnostic, "not found")
}

func TestCommandCheckerStrictModeFailsWhenAbsent(t *testing.T) {
	t.Parallel()

	chk := &CommandChecker{
		Binary:      "no-such-binary-bastion-test",
		Args:        []string{"-t", "{file}"},
		TempPattern: "checker-test-*",
		Strict:      true,
	}
	outcome := chk.Check(context.Background(), "anything")
	assert.Equal(t, Fail, outcome.Status)
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pass", Pass.String())
	assert.Equal(t, "fail", Fail.String())
	assert.Equal(t, "unavailable", Unavailable.String())
}
