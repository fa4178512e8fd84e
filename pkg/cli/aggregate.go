package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mchmarny/genrelay/pkg/genre"
	"github.com/mchmarny/genrelay/pkg/metrics"
	"github.com/urfave/cli/v3"
)

const (
	flagFile    = "file"
	flagExplain = "explain"
)

func explainFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  flagExplain,
		Usage: "Prints the ranked tag scores with the genre",
	}
}

func aggregateCommand() *cli.Command {
	return &cli.Command{
		Name:   "aggregate",
		Usage:  "Selects a genre from the tag lists of the tagging models",
		Action: cmdAggregate,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagFile,
				Aliases: []string{"f"},
				Usage:   `JSON file with the tag lists, e.g. [["rock","pop"],...] ("-" reads stdin)`,
				Value:   "-",
			},
			explainFlag(),
		},
	}
}

func cmdAggregate(_ context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	lists, err := readTagLists(cmd.String(flagFile))
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

// explain aggregates lists and records the outcome.
func explain(a *genre.Aggregator, lists []genre.TagList) (*genre.Result, error) {
	r, err := a.Explain(lists)
	switch {
	case err != nil:
		metrics.RecordAggregation(metrics.OutcomeError)
		return nil, err
	case r.Whitelisted:
		metrics.RecordAggregation(metrics.OutcomeWhitelist)
	default:
		metrics.RecordAggregation(metrics.OutcomeFallback)
	}
	return r, nil
}

func readTagLists(path string) ([]genre.TagList, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var lists []genre.TagList
	if err := json.NewDecoder(r).Decode(&lists); err != nil {
		return nil, fmt.Errorf("decoding tag lists: %w", err)
	}
	return lists, nil
}
