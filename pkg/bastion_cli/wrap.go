// pkg/bastion_cli/wrap.go

package bastion_cli

import (
	"context"

	"github.com/bastionsec/bastion/pkg/bastion_io"
	"github.com/bastionsec/bastion/pkg/logger"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Wrap adapts a RuntimeContext-taking handler to cobra's RunE, adding
// panic recovery and outcome logging. Every command goes through here so
// exit behavior stays uniform: expected user outcomes soften to warnings,
// everything else is a hard error with a non-zero exit.
func Wrap(fn func(rc *bastion_io.RuntimeContext, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		logger.InitializeWithFallback()

		rc := bastion_io.NewContext(context.Background(), cmd.Name())
		defer rc.End(&err)

		defer func() {
			if r := recover(); r != nil {
				err = cerr.AssertionFailedf("panic: %v", r)
				rc.Log.Error("Panic recovered", zap.Any("panic", r))
			}
		}()

		return fn(rc, cmd, args)
	}
}
