// pkg/configstore/store_test.go

package configstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bastionsec/bastion/pkg/bastion_err"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResource(t *testing.T, content string) Resource {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sshd_config")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return Resource{Name: "sshd config", Path: path, Mode: 0644}
}

func TestReadMissingResource(t *testing.T) {
	t.Parallel()

	store := NewStore()
	r := Resource{Name: "missing", Path: filepath.Join(t.TempDir(), "nope")}

	_, err := store.Read(r)
	require.Error(t, err)
	assert.ErrorIs(t, err, bastion_err.ErrResourceUnavailable)
}

func TestSnapshotWritesBackupSlot(t *testing.T) {
	t.Parallel()

	store := NewStore()
	r := testResource(t, "Port 22\n")

	handle, err := store.Snapshot(r)
	require.NoError(t, err)
	assert.Equal(t, "Port 22\n", handle.Content)

	backup, err := os.ReadFile(r.BackupPath())
	require.NoError(t, err)
	assert.Equal(t, "Port 22\n", string(backup))
}

func TestSnapshotMissingResourceAbortsWithoutBackup(t *testing.T) {
	t.Parallel()

	store := NewStore()
	r := Resource{Name: "missing", Path: filepath.Join(t.TempDir(), "nope")}

	_, err := store.Snapshot(r)
	require.Error(t, err)
	assert.ErrorIs(t, err, bastion_err.ErrResourceUnavailable)
	assert.NoFileExists(t, r.BackupPath())
}

func TestWriteThenRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore()
	r := testResource(t, "original\n")

	handle, err := store.Snapshot(r)
	require.NoError(t, err)

	require.NoError(t, store.Write(r, "mutated\n"))
	live, err := store.Read(r)
	require.NoError(t, err)
	assert.Equal(t, "mutated\n", live)

	require.NoError(t, store.Restore(handle))
	live, err = store.Read(r)
	require.NoError(t, err)
	assert.Equal(t, "original\n", live, "restore must be byte-identical")
}

func TestRestoreIsIdempotent(t *testing.T) {
	t.Parallel()

	store := NewStore()
	r := testResource(t, "original\n")

	handle, err := store.Snapshot(r)
	require.NoError(t, err)
	require.NoError(t, store.Write(r, "mutated\n"))

	require.NoError(t, store.Restore(handle))
	// A write after restore must not be clobbered by a second restore.
	require.NoError(t, store.Write(r, "post-restore\n"))
	require.NoError(t, store.Restore(handle))

	live, err := store.Read(r)
	require.NoError(t, err)
	assert.Equal(t, "post-restore\n", live)
}

func TestRecoveryInstructionsNameExactPaths(t *testing.T) {
	t.Parallel()

	store := NewStore()
	r := testResource(t, "x\n")

	handle, err := store.Snapshot(r)
	require.NoError(t, err)

	instructions := handle.RecoveryInstructions()
	assert.Contains(t, instructions, r.Path)
	assert.Contains(t, instructions, r.BackupPath())
	assert.Contains(t, instructions, "cp "+r.BackupPath()+" "+r.Path)
}
