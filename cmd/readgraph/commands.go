package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sanonone/readgraph/pkg/config"
	"github.com/sanonone/readgraph/pkg/metrics"
)

// cli carries the state shared by the subcommands of one invocation.
type cli struct {
	configPath  string
	dataDir     string
	logLevel    string
	metricsFile string

	cfg config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "readgraph",
		Short: "Query the read graph of an assembly data directory",
		Long: `readgraph answers read graph queries over read-only, memory mapped
stores of reads and alignments, and packs those stores from plain-text inputs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.MetricsFile == "" {
				return nil
			}
			if err := metrics.WriteTextfile(c.cfg.MetricsFile); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&c.dataDir, "data-dir", "", "data directory holding the stores (default \"data\")")
	pf.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error (default \"info\")")
	pf.StringVar(&c.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	root.AddCommand(newLocalReadsCmd(c), newInfoCmd(c), newPackCmd(c))
	return root
}

// load reads the configuration file, applies persistent flag overrides and
// installs the logger.
func (c *cli) load(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = c.dataDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = c.metricsFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	setupLogger(cmd.ErrOrStderr(), cfg.SlogLevel())
	return nil
}

func setupLogger(w io.Writer, level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
