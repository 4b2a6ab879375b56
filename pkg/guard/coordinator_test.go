// pkg/guard/coordinator_test.go

package guard

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bastionsec/bastion/pkg/bastion_err"
	"github.com/bastionsec/bastion/pkg/bastion_io"
	"github.com/bastionsec/bastion/pkg/checker"
	"github.com/bastionsec/bastion/pkg/configstore"
	"github.com/bastionsec/bastion/pkg/directive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChecker returns a fixed outcome and records what it was asked to check.
type stubChecker struct {
	outcome   checker.Outcome
	candidate string
	calls     int
}

func (s *stubChecker) Check(_ context.Context, candidate string) checker.Outcome {
	s.calls++
	s.candidate = candidate
	return s.outcome
}

func testRC(t *testing.T) *bastion_io.RuntimeContext {
	t.Helper()
	return bastion_io.NewContext(context.Background(), "test")
}

func writeResource(t *testing.T, content string) configstore.Resource {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sshd_config")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return configstore.Resource{Name: "sshd config", Path: path, Mode: 0644}
}

func liveContent(t *testing.T, r configstore.Resource) string {
	t.Helper()
	data, err := os.ReadFile(r.Path)
	require.NoError(t, err)
	return string(data)
}

var hardeningRules = []directive.Rule{
	{Key: "PermitRootLogin", Value: "no", Policy: directive.ReplaceOrAppend},
	{Key: "AllowUsers", Value: "alice", Policy: directive.AppendIfAbsent},
}

func TestRunCommitsOnPass(t *testing.T) {
	t.Parallel()

	original := "#PermitRootLogin yes\nPort 22\n"
	resource := writeResource(t, original)
	chk := &stubChecker{outcome: checker.Outcome{Status: checker.Pass}}

	cycle, err := NewCoordinator(configstore.NewStore(), chk).Run(testRC(t), resource, hardeningRules)
	require.NoError(t, err)

	assert.Equal(t, StateCommitted, cycle.State)
	assert.True(t, cycle.Committed())
	assert.Equal(t, 1, chk.calls)

	// Commit persistence: live == apply(original, rules), backup == original.
	want := directive.Apply(original, hardeningRules)
	assert.Equal(t, want, liveContent(t, resource))
	assert.Equal(t, want, chk.candidate, "checker sees exactly the candidate content")

	backup, rerr := os.ReadFile(resource.BackupPath())
	require.NoError(t, rerr)
	assert.Equal(t, original, string(backup))
}

func TestRunCommitsOnUnavailableChecker(t *testing.T) {
	t.Parallel()

	resource := writeResource(t, "Port 22\n")
	chk := &stubChecker{outcome: checker.Outcome{
		Status:     checker.Unavailable,
		Diagnostic: "checker binary sshd not found",
	}}

	cycle, err := NewCoordinator(configstore.NewStore(), chk).Run(testRC(t), resource, hardeningRules)
	require.NoError(t, err)

	assert.Equal(t, StateCommitted, cycle.State)
	assert.Equal(t, checker.Unavailable, cycle.Outcome.Status)
}

func TestRunRollsBackOnFail(t *testing.T) {
	t.Parallel()

	original := "Port 22\nUsePAM yes\n"
	resource := writeResource(t, original)
	chk := &stubChecker{outcome: checker.Outcome{
		Status:     checker.Fail,
		Diagnostic: "line 3: Bad configuration option",
	}}

	cycle, err := NewCoordinator(configstore.NewStore(), chk).Run(testRC(t), resource, hardeningRules)
	require.Error(t, err)

	assert.Equal(t, StateRolledBack, cycle.State)
	assert.ErrorIs(t, err, bastion_err.ErrValidationFailed)
	assert.Contains(t, err.Error(), "line 3: Bad configuration option",
		"checker diagnostic surfaces to the caller")

	// Rollback exactness: live content is byte-identical to pre-cycle.
	assert.Equal(t, original, liveContent(t, resource))
}

func TestRunAbortsBeforeMutationWhenResourceMissing(t *testing.T) {
	t.Parallel()

	resource := configstore.Resource{
		Name: "sshd config",
		Path: filepath.Join(t.TempDir(), "missing"),
	}
	chk := &stubChecker{outcome: checker.Outcome{Status: checker.Pass}}

	cycle, err := NewCoordinator(configstore.NewStore(), chk).Run(testRC(t), resource, hardeningRules)
	require.Error(t, err)

	assert.ErrorIs(t, err, bastion_err.ErrResourceUnavailable)
	assert.Equal(t, StateCreated, cycle.State)
	assert.Equal(t, 0, chk.calls, "no validation without a snapshot")
	assert.NoFileExists(t, resource.BackupPath())
}

func TestRunNeverRetriesValidation(t *testing.T) {
	t.Parallel()

	resource := writeResource(t, "Port 22\n")
	chk := &stubChecker{outcome: checker.Outcome{Status: checker.Fail, Diagnostic: "nope"}}

	_, err := NewCoordinator(configstore.NewStore(), chk).Run(testRC(t), resource, hardeningRules)
	require.Error(t, err)
	assert.Equal(t, 1, chk.calls, "a syntax error is deterministic, not transient")
}
