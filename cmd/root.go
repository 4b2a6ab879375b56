/* cmd/root.go */

package cmd

import (
	"os"

	"github.com/bastionsec/bastion/cmd/harden"
	"github.com/bastionsec/bastion/pkg/bastion_err"
	"github.com/bastionsec/bastion/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd is the base command for bastion.
var RootCmd = &cobra.Command{
	Use:   "bastion",
	Short: "Bastion hardens a live host without locking you out",
	Long: `Bastion mutates security-sensitive configuration (sshd, firewall) on the
host you are connected to, using a guarded protocol: snapshot first,
validate the candidate with the service's own syntax checker, roll back
automatically on failure, and never restart anything that could sever
your session without explicit staged confirmation.`,
	SilenceUsage: true,
}

// Execute runs the CLI and maps error classes to exit codes. A deferred
// activation exits zero; a validation rollback or system fault exits
// non-zero with the diagnostic already printed.
func Execute() {
	RegisterCommands()

	if err := RootCmd.Execute(); err != nil {
		if bastion_err.IsExpectedUserError(err) {
			logger.L().Warn("Exiting after expected user outcome", zap.Error(err))
			logger.Sync()
			os.Exit(0)
		}
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

// RegisterCommands adds all subcommands to the root command.
func RegisterCommands() {
	RootCmd.AddCommand(harden.HardenCmd)
}
