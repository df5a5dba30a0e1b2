package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/enviweather/envi-advisor/internal/server"
	"github.com/enviweather/envi-advisor/pkg/logger"
)

// ServerCommand returns a command for server operations
func ServerCommand() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Server operations",
		Subcommands: []*cli.Command{
			{
				Name:   "start",
				Usage:  "Start the advisory service",
				Action: serverStartAction,
			},
		},
	}
}

func serverStartAction(ctx *cli.Context) error {
	bootLog := getLogger(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		bootLog.Error("Failed to load config", logger.ErrorField(err))
		return err
	}

	// Swap the bootstrap logger for one shaped by the configuration.
	log := logger.NewLogger(logger.Config{
		Level:   cfg.GetLogLevel(),
		Format:  cfg.Logging.Format,
		Service: cfg.ServiceName,
	})
	cfg.LogConfig(log)

	s, err := server.New(ctx.Context, cfg, log)
	if err != nil {
		log.Error("Failed to create server", logger.ErrorField(err))
		return fmt.Errorf("failed to create server: %w", err)
	}

	return s.Run()
}
