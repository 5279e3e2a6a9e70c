package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/Clementwa0/Job-tracker-sub001/internal/config"
	"github.com/Clementwa0/Job-tracker-sub001/internal/models"
)

const modelsUsage = `Usage:
  jobtracker-ai models --config <path> [--env-file <path>]

Flags:
  --config   string   Path to YAML configuration file (required)
  --env-file string   Load environment variables from this file (default .env, optional)`

func listModels(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, modelsUsage)
	}

	var cfgPath, envFile string
	fs.StringVar(&cfgPath, "config", "", "path to configuration file")
	fs.StringVar(&envFile, "env-file", "", "path to .env file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse models flags: %w", err)
	}

	cfg, err := loadConfig(cfgPath, envFile)
	if err != nil {
		return err
	}

	registry, err := buildRegistry(ctx, cfg)
	if err != nil {
		return err
	}

	return writeModelTable(os.Stdout, registry.Models(), cfg.Routes)
}

func writeModelTable(out io.Writer, list []models.Model, routes config.RoutesConfig) error {
	usedBy := map[string][]string{}
	for name, id := range map[string]string{
		"cv_review":   routes.CVReview.Model,
		"job_extract": routes.JobExtract.Model,
		"tip":         routes.Tip.Model,
	} {
		usedBy[id] = append(usedBy[id], name)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tPROVIDER\tAPI STYLE\tROUTES")
	for _, m := range list {
		routed := "-"
		if names := usedBy[m.ID]; len(names) > 0 {
			slices.Sort(names)
			routed = strings.Join(names, ",")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Provider, m.APIStyle, routed)
	}
	return tw.Flush()
}
