// pkg/confirm/gate.go

// Package confirm implements the two-stage human interlock that stands
// between a committed configuration and any action able to sever the
// operator's own session (service restart, firewall activation).
package confirm

import (
	"bufio"
	"fmt"
	"os"

	"github.com/bastionsec/bastion/pkg/bastion_io"
	"github.com/bastionsec/bastion/pkg/interaction"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Decision is the terminal outcome of the gate.
type Decision int

const (
	// Defer is not an error: configuration is committed, activation is
	// postponed by operator choice.
	Defer Decision = iota
	Proceed
)

func (d Decision) String() string {
	if d == Proceed {
		return "proceed"
	}
	return "defer"
}

// Authorization is the single-use token minted on Proceed. It authorizes
// exactly one disruptive call and is not reusable.
type Authorization struct {
	action string
	used   bool
}

// Consume spends the authorization. A second call fails.
func (a *Authorization) Consume() error {
	if a == nil {
		return cerr.New("no authorization present")
	}
	if a.used {
		return cerr.Newf("authorization for %q already consumed", a.action)
	}
	a.used = true
	return nil
}

// Gate holds the confirmation state for one disruptive action. State is
// never persisted and is reset per action by constructing a new gate.
type Gate struct {
	// Action names the disruptive operation, e.g. "restart sshd".
	Action string
	// TestedPrompt asks the operator to attest the new access path works
	// (e.g. a second SSH session opened on the new port).
	TestedPrompt string
	// ActionPrompt asks for explicit authorization of the action itself.
	ActionPrompt string
	// DeferInstructions tell the operator how to complete manually later.
	DeferInstructions string

	reader *bufio.Reader

	confirmedTested  bool
	authorizedAction bool
}

// NewGate builds a gate reading operator answers from r.
func NewGate(action, testedPrompt, actionPrompt, deferInstructions string, r *bufio.Reader) *Gate {
	return &Gate{
		Action:            action,
		TestedPrompt:      testedPrompt,
		ActionPrompt:      actionPrompt,
		DeferInstructions: deferInstructions,
		reader:            r,
	}
}

// Await walks the two stages in order. Absence of the tested attestation
// short-circuits before the action is even offered. Declining either stage
// yields Defer with manual-completion instructions surfaced; both answered
// yes yields Proceed and a single-use authorization.
func (g *Gate) Await(rc *bastion_io.RuntimeContext) (Decision, *Authorization, error) {
	log := otelzap.Ctx(rc.Ctx)

	g.confirmedTested = interaction.PromptYesNo(rc.Ctx, g.reader, g.TestedPrompt, false)
	if !g.confirmedTested {
		log.Warn("Operator has not verified the new access path; deferring",
			zap.String("action", g.Action))
		g.surfaceDeferInstructions()
		return Defer, nil, nil
	}

	g.authorizedAction = interaction.PromptYesNo(rc.Ctx, g.reader, g.ActionPrompt, false)
	if !g.authorizedAction {
		log.Info("Operator declined the disruptive action; configuration stands unreloaded",
			zap.String("action", g.Action))
		g.surfaceDeferInstructions()
		return Defer, nil, nil
	}

	log.Info("Disruptive action authorized", zap.String("action", g.Action))
	return Proceed, &Authorization{action: g.Action}, nil
}

func (g *Gate) surfaceDeferInstructions() {
	if g.DeferInstructions == "" {
		return
	}
	fmt.Fprintf(os.Stderr, "\nTo complete manually:\n%s\n", g.DeferInstructions)
}
