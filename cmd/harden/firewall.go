// cmd/harden/firewall.go

package harden

import (
	"bufio"
	"fmt"
	"os"

	"github.com/bastionsec/bastion/pkg/bastion_cli"
	"github.com/bastionsec/bastion/pkg/bastion_io"
	"github.com/bastionsec/bastion/pkg/config"
	"github.com/bastionsec/bastion/pkg/hardening"
	"github.com/spf13/cobra"
)

var firewallCmd = &cobra.Command{
	Use:   "firewall",
	Short: "Update the managed firewall ruleset and gate its activation",
	Long: `Upserts allow-rules into the bastion-managed ruleset with snapshot and
rollback, then asks twice, including an explicit check that your own SSH
port is allowed, before enabling the firewall. Declining leaves the
ruleset committed but the firewall inactive, with manual steps printed.`,
	RunE: bastion_cli.Wrap(func(rc *bastion_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		if os.Geteuid() != 0 {
			return fmt.Errorf("this command must be run as root")
		}

		settings, err := config.Load()
		if err != nil {
			return err
		}

		ports, _ := cmd.Flags().GetStringSlice("allow")
		opts := hardening.FirewallOptions{AllowPorts: ports}

		reader := bufio.NewReader(os.Stdin)
		return hardening.HardenFirewall(rc, settings, opts, reader)
	}),
}

func init() {
	firewallCmd.Flags().StringSlice("allow", nil, "port to allow through the firewall (repeatable)")
}
