package cli

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/enviweather/envi-advisor/internal/advisor"
	"github.com/enviweather/envi-advisor/internal/server"
	"github.com/enviweather/envi-advisor/pkg/logger"
)

// AdviseCommand returns a command that runs a single advisory query and
// prints the report, without starting any listener.
func AdviseCommand() *cli.Command {
	return &cli.Command{
		Name:    "advise",
		Aliases: []string{"a"},
		Usage:   "Run one advisory query and print the report",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "area",
				Usage:    "Area to assess (repeat for multiple areas)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "activity",
				Usage: "Activity to assess conditions for",
			},
			&cli.StringFlag{
				Name:  "session",
				Usage: "Session id to record the query under",
			},
			&cli.StringFlag{
				Name:  "window",
				Usage: "Time window label, e.g. \"this weekend\"",
			},
			&cli.BoolFlag{
				Name:  "save-favorite",
				Usage: "Save the top ranked location as a favorite",
			},
		},
		Action: adviseAction,
	}
}

func adviseAction(ctx *cli.Context) error {
	log := getLogger(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		log.Error("Failed to load config", logger.ErrorField(err))
		return err
	}

	s, err := server.New(ctx.Context, cfg, log)
	if err != nil {
		log.Error("Failed to create server", logger.ErrorField(err))
		return fmt.Errorf("failed to create server: %w", err)
	}

	result, err := s.Advisor().Advise(ctx.Context, advisor.Request{
		SessionID:    ctx.String("session"),
		Activity:     ctx.String("activity"),
		Areas:        ctx.StringSlice("area"),
		TimeWindow:   ctx.String("window"),
		SaveFavorite: ctx.Bool("save-favorite"),
	})
	if err != nil {
		return fmt.Errorf("advisory query failed: %w", err)
	}

	if result.Rendered != "" {
		fmt.Println(result.Rendered)
		return nil
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
