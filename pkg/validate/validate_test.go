// pkg/validate/validate_test.go

package validate

import (
	"testing"

	"github.com/bastionsec/bastion/pkg/bastion_err"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidIdentifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"alice", true},
		{"_svc-1", true},
		{"a", true},
		{"_", true},
		{"deploy_user", true},
		{"Bob", false},
		{"1bob", false},
		{"-bob", false},
		{"", false},
		{"bob alice", false},
		{"bob;rm", false},
		{"bob$HOME", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidIdentifier(tt.input))
		})
	}
}

func TestIsValidPort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"22", true},
		{"1", true},
		{"65535", true},
		{"8080", true},
		{"0", false},
		{"65536", false},
		{"22a", false},
		{"-22", false},
		{"", false},
		{" 22", false},
		{"2 2", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidPort(tt.input))
		})
	}
}

func TestFilterBatchSkipPolicy(t *testing.T) {
	t.Parallel()

	valid, rejected, err := FilterBatch(
		[]string{"22", "bogus", "443", "", "70000"},
		IsValidPort, BatchPolicySkip)

	require.NoError(t, err)
	assert.Equal(t, []string{"22", "443"}, valid)
	assert.Equal(t, []string{"bogus", "70000"}, rejected)
}

func TestFilterBatchStrictPolicy(t *testing.T) {
	t.Parallel()

	valid, rejected, err := FilterBatch(
		[]string{"22", "bogus", "443"},
		IsValidPort, BatchPolicyStrict)

	require.Error(t, err)
	assert.ErrorIs(t, err, bastion_err.ErrInputInvalid)
	assert.Nil(t, valid)
	assert.Nil(t, rejected)
}

func TestFilterBatchAllValid(t *testing.T) {
	t.Parallel()

	valid, rejected, err := FilterBatch(
		[]string{"alice", "bob"},
		IsValidIdentifier, BatchPolicyStrict)

	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, valid)
	assert.Empty(t, rejected)
}
