// pkg/configstore/store.go

// Package configstore reads, snapshots, restores, and writes named
// line-oriented configuration resources. It owns the backup/restore
// discipline shared by every guarded resource; validation lives elsewhere.
package configstore

import (
	"fmt"
	"os"

	"github.com/bastionsec/bastion/pkg/bastion_err"
	cerr "github.com/cockroachdb/errors"
)

// BackupSuffix is appended to a resource path to form its backup slot.
// The tool never deletes backups; they are operator-facing recovery
// artifacts and recovery instructions name this exact path.
const BackupSuffix = ".bastion-backup"

// Resource identifies one guarded configuration file.
type Resource struct {
	// Name is a short human label ("sshd config", "firewall ruleset").
	Name string
	// Path is the live file on the target host.
	Path string
	// Mode is used when (re)creating the live file.
	Mode os.FileMode
}

// BackupPath returns the durable backup slot for this resource.
func (r Resource) BackupPath() string {
	return r.Path + BackupSuffix
}

// BackupHandle captures one snapshot for one mutation cycle. At most one
// pending handle exists per resource per cycle; it is never overwritten
// until the cycle resolves.
type BackupHandle struct {
	Resource Resource
	Content  string
	restored bool
}

// RecoveryInstructions spells out the manual restore sequence for the
// operator. Every fatal path surfaces this verbatim.
func (b *BackupHandle) RecoveryInstructions() string {
	return fmt.Sprintf(
		"a pre-change backup of %s is kept at %s; to restore manually run:\n  cp %s %s",
		b.Resource.Path, b.Resource.BackupPath(), b.Resource.BackupPath(), b.Resource.Path)
}

// Store performs the filesystem side of guarded mutation.
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

// Read returns the live content of the resource.
func (s *Store) Read(r Resource) (string, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return "", cerr.Wrapf(bastion_err.ErrResourceUnavailable,
			"read %s (%s): %v", r.Name, r.Path, err)
	}
	return string(data), nil
}

// Snapshot copies the current live content into the backup slot and
// returns a handle for later restore. It must be called before any
// mutating write; a failure here aborts the cycle.
func (s *Store) Snapshot(r Resource) (*BackupHandle, error) {
	content, err := s.Read(r)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(r.BackupPath(), []byte(content), 0600); err != nil {
		return nil, cerr.Wrapf(bastion_err.ErrBackupFailed,
			"snapshot %s to %s: %v", r.Name, r.BackupPath(), err)
	}
	return &BackupHandle{Resource: r, Content: content}, nil
}

// Write tentatively replaces live content. The consuming service does not
// act on it until it is explicitly told to reload.
func (s *Store) Write(r Resource, content string) error {
	mode := r.Mode
	if mode == 0 {
		mode = 0644
	}
	if err := os.WriteFile(r.Path, []byte(content), mode); err != nil {
		return cerr.Wrapf(bastion_err.ErrResourceUnavailable,
			"write %s (%s): %v", r.Name, r.Path, err)
	}
	return nil
}

// Restore overwrites live content with the handle's captured content.
// Idempotent: restoring twice from the same handle is a no-op after the
// first successful restore.
func (s *Store) Restore(b *BackupHandle) error {
	if b.restored {
		return nil
	}
	if err := s.Write(b.Resource, b.Content); err != nil {
		return err
	}
	b.restored = true
	return nil
}
