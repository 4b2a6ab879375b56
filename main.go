// main.go

package main

import (
	"github.com/bastionsec/bastion/cmd"
	"github.com/bastionsec/bastion/pkg/logger"
	"github.com/bastionsec/bastion/pkg/telemetry"
)

func main() {
	logger.InitializeWithFallback()
	if err := telemetry.Init("bastion"); err != nil {
		logger.L().Warn("Telemetry disabled: " + err.Error())
	}

	cmd.Execute()
}
