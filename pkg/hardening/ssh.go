// pkg/hardening/ssh.go

// Package hardening wires the guarded mutation protocol to its two
// concrete resources: the SSH daemon configuration and the firewall
// ruleset. Everything here runs in one operator session, one cycle at a
// time; the only suspension points are prompts and external processes.
package hardening

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/bastionsec/bastion/pkg/bastion_err"
	"github.com/bastionsec/bastion/pkg/bastion_io"
	"github.com/bastionsec/bastion/pkg/checker"
	"github.com/bastionsec/bastion/pkg/config"
	"github.com/bastionsec/bastion/pkg/configstore"
	"github.com/bastionsec/bastion/pkg/confirm"
	"github.com/bastionsec/bastion/pkg/directive"
	"github.com/bastionsec/bastion/pkg/guard"
	"github.com/bastionsec/bastion/pkg/interaction"
	"github.com/bastionsec/bastion/pkg/servicectl"
	"github.com/bastionsec/bastion/pkg/validate"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// SSHOptions are the operator inputs for the SSH flow. Empty fields are
// prompted for interactively.
type SSHOptions struct {
	Port             string
	AllowUsers       []string
	KeepPasswordAuth bool
}

// HardenSSH runs the full guarded cycle against sshd_config and, on
// commit, walks the confirmation gate before any restart.
func HardenSSH(rc *bastion_io.RuntimeContext, settings *config.Settings, opts SSHOptions, reader *bufio.Reader, ctl servicectl.Controller) error {
	log := otelzap.Ctx(rc.Ctx)
	log.Info("Starting SSH hardening",
		zap.String("resource", settings.SSHConfigPath))

	// ASSESS - collect and validate operator input before any mutation
	port, err := resolvePort(rc, opts.Port, reader)
	if err != nil {
		return err
	}
	if port == "" {
		port = "22"
	}

	users, err := resolveAllowUsers(rc, settings, opts.AllowUsers, reader)
	if err != nil {
		return err
	}

	rules := sshRules(port, users, opts.KeepPasswordAuth)

	resource := configstore.Resource{
		Name: "sshd config",
		Path: settings.SSHConfigPath,
		Mode: 0644,
	}

	chk := &checker.CommandChecker{
		Binary:      "sshd",
		Args:        []string{"-t", "-f", "{file}"},
		TempPattern: "sshd_config-candidate-*",
		Strict:      settings.StrictValidation,
	}

	// INTERVENE - snapshot, mutate, validate, commit or roll back
	coordinator := guard.NewCoordinator(configstore.NewStore(), chk)
	cycle, err := coordinator.Run(rc, resource, rules)
	if err != nil {
		return err
	}

	// EVALUATE - committed config is inert until sshd reloads it; the gate
	// decides whether that happens now
	fmt.Fprintf(os.Stderr,
		"\nsshd configuration updated and validated (backup: %s).\n"+
			"The running daemon still uses the old settings.\n"+
			"Before restarting, open a NEW terminal and confirm you can log in\n"+
			"with the new settings (port %s, key-based auth). Keep this session open.\n\n",
		resource.BackupPath(), port)

	gate := confirm.NewGate(
		"restart sshd",
		"Have you confirmed, in a separate session, that the new SSH access path works",
		"Restart the SSH daemon now to activate the new configuration",
		fmt.Sprintf("  1. Verify access on port %s from a second terminal\n"+
			"  2. Run: systemctl restart ssh   (or: systemctl restart sshd)\n"+
			"  3. If locked out, restore with: cp %s %s",
			port, resource.BackupPath(), resource.Path),
		reader,
	)

	decision, auth, err := gate.Await(rc)
	if err != nil {
		return err
	}
	if decision == confirm.Defer {
		log.Info("SSH restart deferred by operator; committed config stands unreloaded",
			zap.String("backup", cycle.Backup.Resource.BackupPath()))
		return nil
	}

	if err := auth.Consume(); err != nil {
		return err
	}
	if !ctl.IsActive(rc, "ssh") && !ctl.IsActive(rc, "sshd") {
		log.Warn("SSH daemon does not appear active; restart will start it fresh")
	}
	if err := servicectl.RestartWithFallback(rc, ctl, "ssh", "sshd"); err != nil {
		return bastion_err.WithRecovery(err,
			cycle.Backup.RecoveryInstructions()+
				"\nthen restart manually: systemctl restart ssh (or sshd)")
	}

	log.Info("SSH daemon restarted with hardened configuration",
		zap.String("port", port), zap.Strings("allow_users", users))
	return nil
}

func resolvePort(rc *bastion_io.RuntimeContext, flagPort string, reader *bufio.Reader) (string, error) {
	if flagPort != "" {
		if !validate.IsValidPort(flagPort) {
			return "", cerr.Wrapf(bastion_err.ErrInputInvalid, "invalid SSH port %q", flagPort)
		}
		return flagPort, nil
	}

	return interaction.PromptValidated(rc.Ctx, reader,
		"SSH port to listen on (1-65535, empty keeps 22)",
		func(s string) error {
			if s == "" {
				return nil
			}
			if !validate.IsValidPort(s) {
				return fmt.Errorf("invalid port %q: must be a number between 1 and 65535", s)
			}
			return nil
		})
}

func resolveAllowUsers(rc *bastion_io.RuntimeContext, settings *config.Settings, flagUsers []string, reader *bufio.Reader) ([]string, error) {
	log := otelzap.Ctx(rc.Ctx)

	entries := flagUsers
	if len(entries) == 0 {
		raw, err := interaction.ReadLine(rc.Ctx, reader,
			"Users allowed to log in over SSH (space-separated, empty skips AllowUsers)")
		if err != nil {
			return nil, err
		}
		entries = strings.Fields(raw)
	}

	valid, rejected, err := validate.FilterBatch(entries, validate.IsValidIdentifier, settings.BatchPolicy())
	if err != nil {
		return nil, err
	}
	for _, r := range rejected {
		log.Warn("Skipping invalid username", zap.String("username", r))
		fmt.Fprintf(os.Stderr, "skipping invalid username %q\n", r)
	}
	return valid, nil
}

// sshRules builds the ordered hardening set. AllowUsers comes last and is
// append-if-absent: an existing access restriction, even a commented one,
// must never be duplicated or silently rewritten.
func sshRules(port string, users []string, keepPasswordAuth bool) []directive.Rule {
	passwordAuth := "no"
	if keepPasswordAuth {
		passwordAuth = "yes"
	}

	rules := []directive.Rule{
		{Key: "PermitRootLogin", Value: "no", Policy: directive.ReplaceOrAppend},
		{Key: "PubkeyAuthentication", Value: "yes", Policy: directive.ReplaceOrAppend},
		{Key: "PasswordAuthentication", Value: passwordAuth, Policy: directive.ReplaceOrAppend},
		{Key: "MaxAuthTries", Value: "3", Policy: directive.ReplaceOrAppend},
		{Key: "X11Forwarding", Value: "no", Policy: directive.ReplaceOrAppend},
		{Key: "ClientAliveInterval", Value: "300", Policy: directive.ReplaceOrAppend},
		{Key: "ClientAliveCountMax", Value: "2", Policy: directive.ReplaceOrAppend},
	}

	if port != "" && port != "22" {
		rules = append(rules, directive.Rule{Key: "Port", Value: port, Policy: directive.ReplaceOrAppend})
	}
	if len(users) > 0 {
		rules = append(rules, directive.Rule{
			Key:    "AllowUsers",
			Value:  strings.Join(users, " "),
			Policy: directive.AppendIfAbsent,
		})
	}
	return rules
}
