package cli

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"
)

const (
	flagCounts = "counts"
	flagSet    = "set"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Shows or updates the pipeline state of a track",
		ArgsUsage: "<id>",
		Action:    cmdStatus,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  flagCounts,
				Usage: "Prints the number of tracks per status (sql stores only)",
			},
			&cli.StringFlag{
				Name:  flagSet,
				Usage: "Sets the track status [queued, downloading, processing, complete, failed]",
			},
		},
	}
}

type statusCounter interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

func cmdStatus(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	s, err := cfg.openTracks(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if cmd.Bool(flagCounts) {
		c, ok := s.(statusCounter)
		if !ok {
			return errors.New("status counts require a sql store")
		}
		counts, err := c.CountByStatus(ctx)
		if err != nil {
			return err
		}
		return cfg.encode(counts)
	}

	id := cmd.Args().First()
	if id == "" {
		return errors.New("track id required")
	}

	if status := cmd.String(flagSet); status != "" {
		if err := s.SetStatus(ctx, id, status); err != nil {
			return err
		}
	}

	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return cfg.encode(t)
}
