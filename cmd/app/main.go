package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal"
	"github.com/starford/raido/internal/compliance"
	"github.com/starford/raido/internal/linkhealth"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/override"
	pkgconfig "github.com/starford/raido/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(cmd.String("config"), "config/config.example.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

// runMCP serves the MCP tools over stdio against the same dataset and
// override store as the HTTP server. Logs go to stderr: stdout belongs to
// the protocol.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	provider, err := compliance.NewDirProvider(cfg.Dataset.Path)
	if err != nil {
		return fmt.Errorf("init dataset provider: %w", err)
	}

	var repo override.Repository
	if cfg.Overrides.Driver == internal.OverrideDriverSQLite {
		sqliteRepo, err := override.OpenSQLite(cfg.Overrides.Path)
		if err != nil {
			return fmt.Errorf("init override db: %w", err)
		}
		defer sqliteRepo.Close()
		repo = sqliteRepo
	} else {
		fileRepo, err := override.NewFileRepository(cfg.Overrides.Path)
		if err != nil {
			return fmt.Errorf("init override file: %w", err)
		}
		repo = fileRepo
	}
	overrides, err := override.NewStore(repo)
	if err != nil {
		return fmt.Errorf("load overrides: %w", err)
	}

	links := linkhealth.NewCache(
		linkhealth.NewChecker(cfg.Probe.Timeout.Std(), cfg.Probe.UserAgent),
		cfg.Probe.Concurrency,
	)

	return mcpserver.New(provider, overrides, links).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:   "raido",
		Usage:  "Per-country e-invoicing compliance reference with curated link overrides and link health checks",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
