// cmd/harden/harden.go

package harden

import (
	"github.com/spf13/cobra"
)

// HardenCmd groups the guarded hardening flows.
var HardenCmd = &cobra.Command{
	Use:   "harden",
	Short: "Apply guarded hardening to sshd or the firewall",
	Long: `Each harden subcommand runs one guarded mutation cycle:
snapshot, idempotent directive upserts, external syntax validation,
commit-or-rollback, and a two-stage confirmation before anything that
could drop your current session.`,
}

func init() {
	HardenCmd.AddCommand(sshCmd)
	HardenCmd.AddCommand(firewallCmd)
}
