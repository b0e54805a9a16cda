package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-coach/analysis"
	"github.com/RyanBlaney/sonido-coach/api"
	"github.com/RyanBlaney/sonido-coach/app"
	"github.com/RyanBlaney/sonido-coach/config"
	"github.com/RyanBlaney/sonido-coach/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "sonido-coach",
		Short:         "Speech delivery analysis and coaching feedback",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		app.ConfigureLogging(cfg.Logging)
		return cfg, nil
	}

	root.AddCommand(newServeCmd(load), newAnalyzeCmd(load), newConfigCmd(load))
	return root
}

type configLoader func() (*config.Config, error)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			analyzer, err := app.NewAnalyzer(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return api.NewServer(cfg, analyzer).Run(ctx)
		},
	}
}

func newAnalyzeCmd(load configLoader) *cobra.Command {
	var level string

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze one recording and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			parsed, ok := analysis.ParseLevel(level)
			if !ok {
				return fmt.Errorf("unknown level %q (basic, detailed or advanced)", level)
			}

			analyzer, err := app.NewAnalyzer(cfg)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Server.RequestTimeout)
			defer cancel()

			logging.WithFields(logging.Fields{"file": args[0], "level": string(parsed)}).Debug("Analyzing file")
			result := analyzer.AnalyzeBytes(ctx, data, parsed)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVarP(&level, "level", "l", string(analysis.LevelDetailed), "analysis level: basic, detailed or advanced")
	return cmd
}

func newConfigCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			out, err := config.Dump(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
