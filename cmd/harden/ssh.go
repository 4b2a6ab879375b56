// cmd/harden/ssh.go

package harden

import (
	"bufio"
	"fmt"
	"os"

	"github.com/bastionsec/bastion/pkg/bastion_cli"
	"github.com/bastionsec/bastion/pkg/bastion_io"
	"github.com/bastionsec/bastion/pkg/config"
	"github.com/bastionsec/bastion/pkg/hardening"
	"github.com/bastionsec/bastion/pkg/servicectl"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var sshCmd = &cobra.Command{
	Use:   "ssh",
	Short: "Harden the SSH daemon configuration with snapshot and rollback",
	Long: `Applies hardening directives to sshd_config (root login off, key-based
auth, connection limits, optional port and AllowUsers), validates the
candidate with 'sshd -t' before it can take effect, rolls back on any
syntax failure, and asks twice before restarting the daemon.

The pre-change file is kept at <path>.bastion-backup and is never deleted.`,
	RunE: bastion_cli.Wrap(func(rc *bastion_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		log := otelzap.Ctx(rc.Ctx)

		if os.Geteuid() != 0 {
			return fmt.Errorf("this command must be run as root")
		}

		settings, err := config.Load()
		if err != nil {
			return err
		}
		log.Debug("Settings loaded",
			zap.String("ssh_config_path", settings.SSHConfigPath),
			zap.String("port_batch_policy", settings.PortBatchPolicy))

		port, _ := cmd.Flags().GetString("port")
		users, _ := cmd.Flags().GetStringSlice("allow-user")
		keepPasswordAuth, _ := cmd.Flags().GetBool("keep-password-auth")

		opts := hardening.SSHOptions{
			Port:             port,
			AllowUsers:       users,
			KeepPasswordAuth: keepPasswordAuth,
		}

		reader := bufio.NewReader(os.Stdin)
		return hardening.HardenSSH(rc, settings, opts, reader, servicectl.NewSystemctl())
	}),
}

func init() {
	sshCmd.Flags().String("port", "", "SSH port to configure (prompted if unset)")
	sshCmd.Flags().StringSlice("allow-user", nil, "username allowed to log in over SSH (repeatable)")
	sshCmd.Flags().Bool("keep-password-auth", false, "leave PasswordAuthentication enabled")
}
