package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/cyberia-to/publish-quartz/internal"
	pkgconfig "github.com/cyberia-to/publish-quartz/pkg/config"
)

var version = "dev"

type runFunc func(ctx context.Context, opts ...internal.Option) error

// loadConfig reads the config file and applies flag overrides. The default
// config path may be absent; an explicitly given one must exist.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	load := pkgconfig.LoadOptional[internal.Config]
	if cmd.IsSet("config") {
		load = pkgconfig.Load[internal.Config]
	}
	if err := load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cmd.IsSet("input") {
		cfg.Source.Path = cmd.String("input")
	}
	if cmd.IsSet("output") {
		cfg.Output.Path = cmd.String("output")
	}
	if cmd.IsSet("include-private") {
		cfg.Publish.IncludePrivate = cmd.Bool("include-private")
	}
	if cmd.IsSet("create-stubs") {
		cfg.Publish.CreateStubs = cmd.Bool("create-stubs")
	}
	if cmd.IsSet("watch") {
		cfg.Publish.Watch = cmd.Bool("watch")
	}
	if cmd.IsSet("port") {
		cfg.HTTP.Port = int(cmd.Int("port"))
	}
	if cmd.Bool("verbose") {
		cfg.App.LogLevel = slog.LevelDebug
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func action(run runFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithVersion(version),
		}

		if err := run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:   "publish-quartz",
		Usage:  "Convert a Logseq graph into Quartz-ready Markdown",
		Action: action(internal.Run),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Logseq graph root",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Quartz content directory",
			},
			&cli.BoolFlag{
				Name:  "include-private",
				Usage: "Publish pages marked private:: true",
			},
			&cli.BoolFlag{
				Name:  "create-stubs",
				Usage: "Write placeholder pages for unresolved links",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Rebuild when the graph changes",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log at debug level",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the query API over HTTP",
				Action: action(internal.Serve),
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "HTTP port",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve query tools over MCP stdio",
				Action: action(internal.ServeMCP),
			},
			{
				Name:   "repl",
				Usage:  "Start an interactive query shell",
				Action: action(internal.RunREPL),
			},
		},
	}
}

func main() {
	cmd := newCommand()
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
