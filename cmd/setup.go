package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Clementwa0/Job-tracker-sub001/internal/config"
	"github.com/Clementwa0/Job-tracker-sub001/internal/provider"
	providerfactory "github.com/Clementwa0/Job-tracker-sub001/internal/provider/factory"
)

const defaultEnvFile = ".env"

// loadConfig reads envFile into the process environment, then loads the YAML
// configuration so ${VAR} references can point at .env entries. A missing
// default .env is not an error; a missing explicit one is.
func loadConfig(cfgPath, envFile string) (config.Config, error) {
	if cfgPath == "" {
		return config.Config{}, errors.New("--config <path> is required")
	}

	path := envFile
	if path == "" {
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if envFile != "" || !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, fmt.Errorf("load env file %q: %w", path, err)
		}
	}

	return config.Load(cfgPath)
}

// newLogger builds the slog logger described by the log section.
func newLogger(cfg config.LogConfig, out io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// buildRegistry registers every configured provider and checks that each
// route's model is served by one of them.
func buildRegistry(ctx context.Context, cfg config.Config) (*provider.Registry, error) {
	registry := provider.NewRegistry()
	if err := providerfactory.RegisterConfiguredProviders(ctx, cfg, registry); err != nil {
		return nil, err
	}

	routes := []struct {
		name  string
		model string
	}{
		{"cv_review", cfg.Routes.CVReview.Model},
		{"job_extract", cfg.Routes.JobExtract.Model},
		{"tip", cfg.Routes.Tip.Model},
	}
	for _, route := range routes {
		if _, _, err := registry.LookupModel(route.model); err != nil {
			return nil, fmt.Errorf("routes.%s: %w", route.name, err)
		}
	}
	return registry, nil
}
