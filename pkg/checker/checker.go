// pkg/checker/checker.go

// Package checker runs service-specific syntax checks against candidate
// configuration content without ever touching the live resource.
package checker

import (
	"context"
	"os"
	"strings"

	"github.com/bastionsec/bastion/pkg/bastion_err"
	"github.com/bastionsec/bastion/pkg/execute"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Status is the tri-state result of a syntax check.
type Status int

const (
	Pass Status = iota
	Fail
	// Unavailable means the checker binary is absent. Treated as a
	// non-blocking pass with a recorded warning, never a hard failure;
	// refusing to proceed on minimal hosts would make the tool unusable.
	Unavailable
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Outcome reports one check of one candidate.
type Outcome struct {
	Status     Status
	Diagnostic string
}

// Checker validates candidate content. Implementations must not mutate
// the live resource.
type Checker interface {
	Check(ctx context.Context, candidate string) Outcome
}

// CommandChecker materializes the candidate to a temp file and invokes an
// external syntax-check subcommand against it. The token {file} in Args is
// replaced with the temp path.
type CommandChecker struct {
	// Binary is the checker executable, e.g. "sshd".
	Binary string
	// Args form the syntax-check invocation, e.g. ["-t", "-f", "{file}"].
	Args []string
	// TempPattern names the temp file, e.g. "sshd_config-candidate-*".
	TempPattern string
	// Strict turns an absent checker binary into a hard failure. Default
	// false: stricter deployments opt in via configuration.
	Strict bool
}

// Check runs the external syntax checker against the candidate.
func (c *CommandChecker) Check(ctx context.Context, candidate string) Outcome {
	log := otelzap.Ctx(ctx)

	switch DetectCapability(c.Binary) {
	case CapabilityAbsent:
		if c.Strict {
			return Outcome{Status: Fail, Diagnostic: "checker binary " + c.Binary + " not found and strict validation is enabled"}
		}
		log.Warn("Syntax checker not found, proceeding unvalidated",
			zap.String("binary", c.Binary))
		return Outcome{Status: Unavailable, Diagnostic: "checker binary " + c.Binary + " not found"}
	case CapabilityError:
		log.Warn("Capability detection errored, treating checker as unavailable",
			zap.String("binary", c.Binary))
		return Outcome{Status: Unavailable, Diagnostic: "capability detection failed for " + c.Binary}
	}

	tmp, err := execute.WriteTempFile(c.TempPattern, candidate)
	if err != nil {
		return Outcome{Status: Fail, Diagnostic: "materialize candidate: " + err.Error()}
	}
	defer func() { _ = os.Remove(tmp) }()

	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = strings.ReplaceAll(a, "{file}", tmp)
	}

	output, err := execute.Run(ctx, execute.Options{
		Command: c.Binary,
		Args:    args,
		Capture: true,
	})
	if err != nil {
		diag := bastion_err.ExtractSummary(output, 3)
		log.Info("Syntax check failed", zap.String("binary", c.Binary),
			zap.String("diagnostic", diag))
		return Outcome{Status: Fail, Diagnostic: diag}
	}

	return Outcome{Status: Pass}
}
