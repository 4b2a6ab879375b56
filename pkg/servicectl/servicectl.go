// pkg/servicectl/servicectl.go

// Package servicectl wraps systemctl for the few operations the hardening
// flows need: liveness probes and restarts with a fallback unit name.
package servicectl

import (
	"github.com/bastionsec/bastion/pkg/bastion_err"
	"github.com/bastionsec/bastion/pkg/bastion_io"
	"github.com/bastionsec/bastion/pkg/execute"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Controller abstracts service control so flows can be tested with spies.
type Controller interface {
	IsActive(rc *bastion_io.RuntimeContext, unit string) bool
	Restart(rc *bastion_io.RuntimeContext, unit string) error
}

// Systemctl is the production controller.
type Systemctl struct{}

func NewSystemctl() *Systemctl {
	return &Systemctl{}
}

// IsActive reports whether the unit is currently active.
func (s *Systemctl) IsActive(rc *bastion_io.RuntimeContext, unit string) bool {
	err := execute.RunSimple(rc.Ctx, "systemctl", "is-active", "--quiet", unit)
	return err == nil
}

// Restart restarts a single unit.
func (s *Systemctl) Restart(rc *bastion_io.RuntimeContext, unit string) error {
	log := otelzap.Ctx(rc.Ctx)
	log.Info("Restarting service", zap.String("unit", unit))
	if err := execute.RunSimple(rc.Ctx, "systemctl", "restart", unit); err != nil {
		return cerr.Wrapf(err, "systemctl restart %s", unit)
	}
	return nil
}

// RestartWithFallback tries the primary unit name, then the fallback
// (distributions disagree on e.g. "ssh" vs "sshd"). Both failing yields
// ErrExternalActionFailed; never auto-retried beyond the fallback.
func RestartWithFallback(rc *bastion_io.RuntimeContext, ctl Controller, primary, fallback string) error {
	log := otelzap.Ctx(rc.Ctx)

	if err := ctl.Restart(rc, primary); err == nil {
		return nil
	} else {
		log.Warn("Primary unit restart failed, trying fallback",
			zap.String("primary", primary),
			zap.String("fallback", fallback),
			zap.Error(err))
	}

	if err := ctl.Restart(rc, fallback); err != nil {
		return cerr.Wrapf(bastion_err.ErrExternalActionFailed,
			"restart failed for both %q and %q: %v", primary, fallback, err)
	}
	return nil
}
