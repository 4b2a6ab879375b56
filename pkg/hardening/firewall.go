// pkg/hardening/firewall.go

package hardening

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bastionsec/bastion/pkg/bastion_err"
	"github.com/bastionsec/bastion/pkg/bastion_io"
	"github.com/bastionsec/bastion/pkg/checker"
	"github.com/bastionsec/bastion/pkg/config"
	"github.com/bastionsec/bastion/pkg/configstore"
	"github.com/bastionsec/bastion/pkg/confirm"
	"github.com/bastionsec/bastion/pkg/directive"
	"github.com/bastionsec/bastion/pkg/execute"
	"github.com/bastionsec/bastion/pkg/guard"
	"github.com/bastionsec/bastion/pkg/interaction"
	"github.com/bastionsec/bastion/pkg/validate"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const firewallRulesHeader = `# bastion-managed firewall ruleset
# one directive per line: <port>/tcp allow
`

// FirewallOptions are the operator inputs for the firewall flow.
type FirewallOptions struct {
	AllowPorts []string
}

// HardenFirewall runs the guarded cycle against the bastion-managed
// ruleset and, on commit, gates activation (the step that can sever the
// session) behind the two-stage confirmation.
func HardenFirewall(rc *bastion_io.RuntimeContext, settings *config.Settings, opts FirewallOptions, reader *bufio.Reader) error {
	log := otelzap.Ctx(rc.Ctx)
	log.Info("Starting firewall hardening",
		zap.String("resource", settings.FirewallRulesPath))

	// ASSESS - validate the port batch before any mutation
	ports, err := resolveFirewallPorts(rc, settings, opts.AllowPorts, reader)
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		return cerr.Wrap(bastion_err.ErrInputInvalid, "no valid ports to allow")
	}

	resource := configstore.Resource{
		Name: "firewall ruleset",
		Path: settings.FirewallRulesPath,
		Mode: 0600,
	}
	if err := ensureRulesetExists(resource); err != nil {
		return err
	}

	rules := make([]directive.Rule, 0, len(ports))
	for _, p := range ports {
		// Leading token is "<port>/tcp", so each port is its own key and
		// re-running never duplicates a rule line.
		rules = append(rules, directive.Rule{
			Key:    p + "/tcp",
			Value:  "allow",
			Policy: directive.AppendIfAbsent,
		})
	}

	// ufw validates engine state without applying anything; on hosts
	// without ufw the cycle proceeds through the unavailable path.
	chk := &checker.CommandChecker{
		Binary:      "ufw",
		Args:        []string{"--dry-run", "enable"},
		TempPattern: "firewall-rules-candidate-*",
		Strict:      settings.StrictValidation,
	}

	// INTERVENE
	coordinator := guard.NewCoordinator(configstore.NewStore(), chk)
	cycle, err := coordinator.Run(rc, resource, rules)
	if err != nil {
		return err
	}

	// EVALUATE - activation is the disruptive step
	fmt.Fprintf(os.Stderr,
		"\nFirewall ruleset updated (backup: %s). The firewall is NOT yet active.\n"+
			"Confirm the ruleset includes your own SSH port before enabling.\n\n",
		resource.BackupPath())

	gate := confirm.NewGate(
		"enable firewall",
		"Does the ruleset allow your current SSH connection (check the port you are connected on)",
		"Enable the firewall now",
		fmt.Sprintf("  1. Review %s\n"+
			"  2. Apply each rule: ufw allow <port>/tcp\n"+
			"  3. Enable: ufw --force enable\n"+
			"  4. To undo the ruleset change: cp %s %s",
			resource.Path, resource.BackupPath(), resource.Path),
		reader,
	)

	decision, auth, err := gate.Await(rc)
	if err != nil {
		return err
	}
	if decision == confirm.Defer {
		log.Info("Firewall activation deferred by operator",
			zap.String("ruleset", resource.Path))
		return nil
	}

	if err := auth.Consume(); err != nil {
		return err
	}
	if err := activateFirewall(rc, cycle); err != nil {
		return bastion_err.WithRecovery(err, cycle.Backup.RecoveryInstructions())
	}

	log.Info("Firewall enabled", zap.Strings("allowed_ports", ports))
	return nil
}

func resolveFirewallPorts(rc *bastion_io.RuntimeContext, settings *config.Settings, flagPorts []string, reader *bufio.Reader) ([]string, error) {
	log := otelzap.Ctx(rc.Ctx)

	entries := flagPorts
	if len(entries) == 0 {
		raw, err := interaction.ReadLine(rc.Ctx, reader,
			"Ports to allow through the firewall (space-separated, e.g. 22 80 443)")
		if err != nil {
			return nil, err
		}
		entries = strings.Fields(raw)
	}

	valid, rejected, err := validate.FilterBatch(entries, validate.IsValidPort, settings.BatchPolicy())
	if err != nil {
		return nil, err
	}
	for _, r := range rejected {
		log.Warn("Skipping invalid port", zap.String("port", r))
		fmt.Fprintf(os.Stderr, "skipping invalid port %q\n", r)
	}
	return valid, nil
}

// ensureRulesetExists seeds the managed ruleset on first run so Read and
// Snapshot have a resource to work with.
func ensureRulesetExists(r configstore.Resource) error {
	if _, err := os.Stat(r.Path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.Path), 0755); err != nil {
		return cerr.Wrapf(bastion_err.ErrResourceUnavailable,
			"create ruleset directory: %v", err)
	}
	if err := os.WriteFile(r.Path, []byte(firewallRulesHeader), r.Mode); err != nil {
		return cerr.Wrapf(bastion_err.ErrResourceUnavailable,
			"seed ruleset %s: %v", r.Path, err)
	}
	return nil
}

// activateFirewall replays the committed ruleset into ufw and enables it.
func activateFirewall(rc *bastion_io.RuntimeContext, cycle *guard.Cycle) error {
	if capability := checker.DetectCapability("ufw"); capability != checker.CapabilityPresent {
		return cerr.Wrapf(bastion_err.ErrExternalActionFailed,
			"ufw not available (%s); ruleset committed but firewall not enabled", capability)
	}

	for _, rule := range cycle.Rules {
		if rule.Value != "allow" {
			continue
		}
		if err := execute.RunSimple(rc.Ctx, "ufw", "allow", rule.Key); err != nil {
			return cerr.Wrapf(bastion_err.ErrExternalActionFailed,
				"ufw allow %s: %v", rule.Key, err)
		}
	}

	if err := execute.RunSimple(rc.Ctx, "ufw", "--force", "enable"); err != nil {
		return cerr.Wrapf(bastion_err.ErrExternalActionFailed, "ufw enable: %v", err)
	}
	return nil
}
