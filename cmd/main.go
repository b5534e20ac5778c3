package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tbg-racing/rankingsaver/internal/config"
	"github.com/tbg-racing/rankingsaver/pkg/logger"
	"github.com/urfave/cli/v2"
)

const appName = "rankingsaver"

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, appName+": "+err.Error())
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}

// env is what every command shares once configuration is loaded.
type env struct {
	cfg    *config.Config
	out    io.Writer
	logger logger.Logger
}

func newApp(stdout, stderr io.Writer) *cli.App {
	e := &env{out: stdout}

	return &cli.App{
		Name:      appName,
		Usage:     "rank finished maps and keep the daily tournament results",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML configuration file",
				EnvVars: []string{config.EnvConfigFile},
			},
			&cli.StringFlag{
				Name:  "results-dir",
				Usage: "directory holding the daily result files (overrides results_dir)",
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.LoadFile(c.Context, c.String("config"))
			if err != nil {
				return err
			}
			if dir := c.String("results-dir"); dir != "" {
				cfg.ResultsDir = dir
			}
			e.cfg = cfg

			if err := logger.Init(logger.WithWriter(stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			// Apply configured log level (fallback to info on invalid input)
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				logger.Get().Warn(c.Context, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
				_ = logger.SetLevelString("info")
			}
			e.logger = logger.Get()
			return nil
		},
		Commands: []*cli.Command{
			rankCommand(e),
			replayCommand(e),
			simulateCommand(e),
			showCommand(e),
			exportCommand(e),
		},
	}
}
