package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Clementwa0/Job-tracker-sub001/internal/relay"
	"github.com/Clementwa0/Job-tracker-sub001/internal/router"
	"github.com/Clementwa0/Job-tracker-sub001/internal/server"
)

const serveUsage = `Usage:
  jobtracker-ai serve --config <path> [--port <port>] [--env-file <path>]

Flags:
  --config   string   Path to YAML configuration file (required)
  --port     int      Override server port from configuration
  --env-file string   Load environment variables from this file (default .env, optional)`

func serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, serveUsage)
	}

	var cfgPath, envFile string
	var overridePort int
	fs.StringVar(&cfgPath, "config", "", "path to configuration file")
	fs.IntVar(&overridePort, "port", 0, "override server port")
	fs.StringVar(&envFile, "env-file", "", "path to .env file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse serve flags: %w", err)
	}

	cfg, err := loadConfig(cfgPath, envFile)
	if err != nil {
		return err
	}

	if overridePort != 0 {
		if overridePort <= 0 || overridePort > 65535 {
			return fmt.Errorf("port override %d must be a valid TCP port", overridePort)
		}
		cfg.Server.Port = overridePort
	}

	logger := newLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	registry, err := buildRegistry(ctx, cfg)
	if err != nil {
		return err
	}

	rt := router.New(registry)

	engine, err := relay.NewEngine(rt, logger, relay.Options{
		Routes:        cfg.Routes,
		StreamTimeout: cfg.Server.StreamTimeout,
	})
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, engine, rt, logger)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
