// Package cli implements the genrelay command line: one-off aggregation and
// tagging, the HTTP relay server, and the queue workers.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mchmarny/genrelay/pkg/config"
	"github.com/mchmarny/genrelay/pkg/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "genrelay"
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"
)

const (
	flagDebug   = "debug"
	flagConfig  = "config"
	flagFormat  = "format"
	flagJSONLog = "json-log"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger("info")

	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Dir    string
	Debug  bool
	Format string
	Config *config.Config
	Out    io.Writer
}

func getConfig(cmd *cli.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

// newApp builds a fresh command tree; flag values live on the flag
// instances, so they are never shared between runs.
func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Genre aggregation and metadata relay for the track download pipeline",
		Metadata:              map[string]any{},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Usage:   "Prints verbose logs (optional, default: false)",
				Sources: cli.EnvVars("GENRELAY_DEBUG"),
			},
			&cli.StringFlag{
				Name:    flagConfig,
				Usage:   "Directory holding config.yaml (default: ~/.genrelay)",
				Sources: cli.EnvVars("GENRELAY_CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:  flagFormat,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
			&cli.BoolFlag{
				Name:    flagJSONLog,
				Usage:   "Writes structured JSON logs to stdout",
				Sources: cli.EnvVars("GENRELAY_JSON_LOG"),
			},
		},
		Commands: []*cli.Command{
			aggregateCommand(),
			tagCommand(),
			serverCommand(),
			workerCommand(),
			lambdaCommand(),
			statusCommand(),
			authCommand(),
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return before(ctx, cmd, out)
		},
	}
}

func before(ctx context.Context, cmd *cli.Command, out io.Writer) (context.Context, error) {
	level := "info"
	if cmd.Bool(flagDebug) {
		level = "debug"
	}
	if cmd.Bool(flagJSONLog) {
		logging.SetDefaultJSONLogger(level, appName)
	} else {
		logging.SetDefaultCLILogger(level)
	}

	dir := cmd.String(flagConfig)
	if dir == "" {
		var err error
		if dir, _, err = config.GetOrCreateHomeDir(appName); err != nil {
			return ctx, fmt.Errorf("resolving config dir: %w", err)
		}
	}

	c, err := config.ReadOrCreate(dir)
	if err != nil {
		return ctx, fmt.Errorf("loading config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return ctx, fmt.Errorf("invalid config: %w", err)
	}
	slog.Debug("config loaded", "dir", dir)

	format := formatJSON
	if f := cmd.String(flagFormat); f == formatYAML || f == "yml" {
		format = formatYAML
	}

	cmd.Metadata[appConfigKey] = &appConfig{
		Dir:    dir,
		Debug:  cmd.Bool(flagDebug),
		Format: format,
		Config: c,
		Out:    out,
	}
	return ctx, nil
}

func (a *appConfig) encode(v any) error {
	if a.Format == formatYAML {
		return yaml.NewEncoder(a.Out).Encode(v)
	}
	e := json.NewEncoder(a.Out)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
