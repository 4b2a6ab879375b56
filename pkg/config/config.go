// pkg/config/config.go

// Package config loads tool settings from /etc/bastion/config.yaml and the
// environment. The two deliberately configurable policies live here: what
// to do with partially invalid input batches, and whether an absent syntax
// checker blocks the cycle.
package config

import (
	"os"
	"strings"

	"github.com/bastionsec/bastion/pkg/validate"
	cerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings is the validated tool configuration.
type Settings struct {
	// PortBatchPolicy: "skip" drops invalid batch entries with a warning
	// per item; "strict" rejects the whole batch.
	PortBatchPolicy string `mapstructure:"port_batch_policy" validate:"oneof=skip strict"`

	// StrictValidation: when true, an absent external checker fails the
	// cycle instead of passing unvalidated.
	StrictValidation bool `mapstructure:"strict_validation"`

	// SSHConfigPath is the guarded sshd resource.
	SSHConfigPath string `mapstructure:"ssh_config_path" validate:"required"`

	// FirewallRulesPath is the bastion-managed guarded ruleset.
	FirewallRulesPath string `mapstructure:"firewall_rules_path" validate:"required"`
}

// BatchPolicy converts the configured string to the validate type.
func (s *Settings) BatchPolicy() validate.BatchPolicy {
	if strings.EqualFold(s.PortBatchPolicy, "strict") {
		return validate.BatchPolicyStrict
	}
	return validate.BatchPolicySkip
}

// Load reads an optional env file, then the config file and environment,
// applies defaults, and validates the result.
func Load() (*Settings, error) {
	// Optional: operators can pin settings in an env file on minimal
	// hosts where editing YAML is inconvenient.
	if _, err := os.Stat("/etc/bastion/bastion.env"); err == nil {
		_ = godotenv.Load("/etc/bastion/bastion.env")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/bastion")
	v.AddConfigPath("$HOME/.bastion")

	v.SetDefault("port_batch_policy", "skip")
	v.SetDefault("strict_validation", false)
	v.SetDefault("ssh_config_path", "/etc/ssh/sshd_config")
	v.SetDefault("firewall_rules_path", "/etc/bastion/firewall.rules")

	v.SetEnvPrefix("BASTION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults and env carry the day.
		var notFound viper.ConfigFileNotFoundError
		if !cerr.As(err, &notFound) {
			return nil, cerr.Wrap(err, "read config file")
		}
	}

	var s Settings
	// Env values arrive as strings; decode them weakly so booleans work.
	if err := v.Unmarshal(&s, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, cerr.Wrap(err, "unmarshal settings")
	}

	if err := validator.New().Struct(&s); err != nil {
		return nil, cerr.Wrap(err, "settings validation")
	}

	return &s, nil
}
