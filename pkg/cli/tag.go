package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mchmarny/genrelay/pkg/genre"
	"github.com/mchmarny/genrelay/pkg/tagger"
	"github.com/urfave/cli/v3"
)

const flagTop = "top"

func tagCommand() *cli.Command {
	return &cli.Command{
		Name:      "tag",
		Usage:     "Runs the tagging models on a local audio file and selects its genre",
		ArgsUsage: "<file.mp3>",
		Action:    cmdTag,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  flagTop,
				Usage: "Number of tags each model returns (default: from config)",
			},
			explainFlag(),
		},
	}
}

func cmdTag(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	file := cmd.Args().First()
	if file == "" {
		return errors.New("audio file required")
	}
	if _, err := os.Stat(file); err != nil {
		return fmt.Errorf("checking %s: %w", file, err)
	}

	topN := cfg.Config.Tagger.TopN
	if n := cmd.Int(flagTop); n > 0 {
		topN = n
	}
	models, err := tagger.ParseModels(cfg.Config.Tagger.Models)
	if err != nil {
		return err
	}

	lists, err := tagger.RunModels(ctx, cfg.tagger(), file, topN, models)
	if err != nil {
		return err
	}

	r, err := explain(genre.NewAggregator(), lists)
	if err != nil {
		return err
	}

	if cmd.Bool(flagExplain) {
		return cfg.encode(r)
	}
	return cfg.encode(map[string]string{"genre": r.Genre})
}
