// pkg/guard/coordinator.go

// Package guard implements the guarded configuration mutation protocol:
// snapshot the live resource, apply idempotent directive upserts, validate
// the candidate with an independent external checker, then commit, or
// roll the live resource back to byte-identical pre-cycle content.
package guard

import (
	"github.com/bastionsec/bastion/pkg/bastion_err"
	"github.com/bastionsec/bastion/pkg/bastion_io"
	"github.com/bastionsec/bastion/pkg/checker"
	"github.com/bastionsec/bastion/pkg/configstore"
	"github.com/bastionsec/bastion/pkg/directive"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Coordinator drives one mutation cycle at a time against one resource.
// The design assumes exclusive access to the host for the duration of a
// cycle; the console administrator is the sole actor, so there is no
// locking.
type Coordinator struct {
	Store   *configstore.Store
	Checker checker.Checker
}

func NewCoordinator(store *configstore.Store, chk checker.Checker) *Coordinator {
	return &Coordinator{Store: store, Checker: chk}
}

// Run executes one full cycle. Fatal-before-mutation errors
// (ErrResourceUnavailable, ErrBackupFailed) abort with the live resource
// untouched. A validation failure returns ErrValidationFailed only after
// a synchronous, verified-complete rollback. The coordinator never retries
// a validation failure: a syntax error is a deterministic input problem,
// not a transient fault.
func (g *Coordinator) Run(rc *bastion_io.RuntimeContext, resource configstore.Resource, rules []directive.Rule) (*Cycle, error) {
	log := otelzap.Ctx(rc.Ctx)
	cycle := &Cycle{Resource: resource, Rules: rules, State: StateCreated}

	// ASSESS - no mutation without a recoverable snapshot
	backup, err := g.Store.Snapshot(resource)
	if err != nil {
		log.Error("Snapshot failed, aborting before any mutation",
			zap.String("resource", resource.Name), zap.Error(err))
		return cycle, err
	}
	cycle.Backup = backup
	cycle.State = StateSnapshotted
	log.Info("Snapshot taken",
		zap.String("resource", resource.Name),
		zap.String("backup_path", resource.BackupPath()))

	// INTERVENE - tentative write; nothing consumes it until a reload is
	// explicitly requested later
	mutated := directive.Apply(backup.Content, rules)
	if err := g.Store.Write(resource, mutated); err != nil {
		log.Error("Tentative write failed", zap.String("resource", resource.Name), zap.Error(err))
		return cycle, bastion_err.WithRecovery(err, backup.RecoveryInstructions())
	}
	cycle.State = StateMutated

	// EVALUATE - independent external validation of the now-live content
	outcome := g.Checker.Check(rc.Ctx, mutated)
	cycle.Outcome = outcome
	cycle.State = StateValidated

	switch outcome.Status {
	case checker.Pass, checker.Unavailable:
		// The snapshot is retained on disk regardless: it is the
		// operator's recovery artifact, not a temp file.
		cycle.State = StateCommitted
		log.Info("Mutation committed",
			zap.String("resource", resource.Name),
			zap.String("validation", outcome.Status.String()),
			zap.Int("rules", len(rules)))
		return cycle, nil

	case checker.Fail:
		if rerr := g.Store.Restore(backup); rerr != nil {
			// Rollback itself failed: surface both problems and the manual
			// restore sequence. This is the worst path and must be loud.
			log.Error("Rollback failed after validation failure",
				zap.String("resource", resource.Name),
				zap.String("diagnostic", outcome.Diagnostic),
				zap.Error(rerr))
			return cycle, bastion_err.WithRecovery(
				cerr.Wrapf(rerr, "rollback failed after validation failure (%s)", outcome.Diagnostic),
				backup.RecoveryInstructions())
		}
		cycle.State = StateRolledBack
		log.Warn("Validation failed, live resource restored",
			zap.String("resource", resource.Name),
			zap.String("diagnostic", outcome.Diagnostic))
		return cycle, bastion_err.WithRecovery(
			cerr.Wrapf(bastion_err.ErrValidationFailed, "%s rejected: %s", resource.Name, outcome.Diagnostic),
			backup.RecoveryInstructions())

	default:
		return cycle, cerr.AssertionFailedf("unhandled validation status %v", outcome.Status)
	}
}
