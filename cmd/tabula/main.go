// Package main provides the tabula CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/spektr-org/tabula/assistant"
	"github.com/spektr-org/tabula/config"
	"github.com/spektr-org/tabula/llm"
	"github.com/spektr-org/tabula/logging"
)

const version = "0.3.0"

var (
	// Global flags
	cfgFile  string
	logLevel string
	noColor  bool

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tabula",
	Short: "Ask questions about a spreadsheet in plain language",
	Long: `tabula loads a CSV or XLSX file and answers natural-language questions
about it. Questions are matched against cell values first; otherwise a
language model turns them into a filter plan. Without an API key, or when
the model is unreachable, answers are produced locally.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		logCfg := cfg.Logging()
		logCfg.Output = os.Stderr
		logger = logging.New(logCfg)

		if noColor {
			color.NoColor = true
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: .env and environment only)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newAssistant builds an assistant from the loaded configuration. The model
// client is only created when an API key is set.
func newAssistant(ctx context.Context) *assistant.Assistant {
	var client llm.Client
	if cfg.LLM.APIKey != "" {
		gcfg := cfg.Gemini()
		gcfg.Logger = logger
		g, err := llm.NewGemini(ctx, gcfg)
		if err != nil {
			logger.Warn().Err(err).Msg("language model disabled; answering locally")
		} else {
			client = g
		}
	} else {
		logger.Debug().Str("env", config.EnvAPIKey).Msg("no API key; answering locally")
	}

	return assistant.New(client,
		assistant.WithLogger(logger),
		assistant.WithLimits(cfg.Limits()),
		assistant.WithPlannerConfig(cfg.Planner()),
		assistant.WithFormatterConfig(cfg.FormatOptions()),
	)
}

// loadFile reads path into a fresh assistant.
func loadFile(ctx context.Context, path string) (*assistant.Assistant, error) {
	a := newAssistant(ctx)
	if err := loadInto(ctx, a, path); err != nil {
		return nil, err
	}
	return a, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tabula %s\n", version)
		},
	}
}
