// Package cli holds the commands behind the advisor binary: validating
// configuration, running the service, and issuing one-shot advisory
// queries.
package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	appconfig "github.com/enviweather/envi-advisor/internal/config"
	"github.com/enviweather/envi-advisor/pkg/config"
	"github.com/enviweather/envi-advisor/pkg/logger"
)

// ConfigCommand returns a command for configuration operations
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Configuration operations",
		Subcommands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "Validate configuration",
				Action: configValidateAction,
			},
		},
	}
}

func configValidateAction(ctx *cli.Context) error {
	log := getLogger(ctx)

	log.Info("Validating configuration")

	if _, err := loadConfig(ctx); err != nil {
		log.Error("Configuration validation failed", logger.ErrorField(err))
		return err
	}

	log.Info("Configuration validation passed")
	fmt.Println("Configuration is valid")
	return nil
}

// loadConfig loads the full application configuration and validates it.
// The config file is optional; environment variables always override it.
func loadConfig(ctx *cli.Context) (*appconfig.AppConfig, error) {
	cfg := &appconfig.AppConfig{}
	if err := config.GetConfig(cfg, ctx.String("config-file"), true); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
