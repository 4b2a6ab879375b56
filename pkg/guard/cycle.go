// pkg/guard/cycle.go

package guard

import (
	"github.com/bastionsec/bastion/pkg/checker"
	"github.com/bastionsec/bastion/pkg/configstore"
	"github.com/bastionsec/bastion/pkg/directive"
)

// State tracks one mutation cycle through its lifecycle.
type State int

const (
	StateCreated State = iota
	StateSnapshotted
	StateMutated
	StateValidated
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSnapshotted:
		return "snapshotted"
	case StateMutated:
		return "mutated"
	case StateValidated:
		return "validated"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Cycle is a transient, single-use workflow instance binding one resource
// to one ordered rule list and one validation outcome. RolledBack is
// terminal and reported as a hard failure; Committed hands control to the
// confirmation gate.
type Cycle struct {
	Resource configstore.Resource
	Rules    []directive.Rule
	State    State
	Backup   *configstore.BackupHandle
	Outcome  checker.Outcome
}

// Committed reports whether the cycle ended with validated live content.
func (c *Cycle) Committed() bool {
	return c.State == StateCommitted
}
