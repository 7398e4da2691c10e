package main

import (
	"github.com/CageChen/dirscope/internal/config"
	"github.com/CageChen/dirscope/internal/logging"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Global configuration variables
var (
	configPath string // --config
	logLevel   string
	logFormat  string
	noColor    bool

	// Populated by PersistentPreRunE before any subcommand runs
	cfg    *config.Config
	logger *zap.Logger
)

// NewRootCmd builds the dirscope command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dirscope",
		Short: "Explore and index local directory trees",
		Long: `dirscope lists, navigates and indexes directories on the local filesystem.

Every entry is classified as a directory, file, link or unknown node. Symbolic
links are reported as links and are never followed during indexing.

Examples:
  # List the current directory
  dirscope ls

  # Index a tree and write directories/files/links JSON to ./out
  dirscope index ~/projects --export-dir out

  # Serve the browser UI and REST API
  dirscope serve --path ~ --port 8080`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// Flags override the config file only when explicitly set
			if cmd.Flags().Changed("log-level") {
				loaded.Log.Level = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				loaded.Log.Format = logFormat
			}
			if noColor {
				color.NoColor = true
			}

			l, err := logging.New(loaded.Log)
			if err != nil {
				return err
			}

			cfg = loaded
			logger = l
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file path")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format (console, json)")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(
		NewServeCmd(),
		NewLsCmd(),
		NewIndexCmd(),
		NewConfigCmd(),
	)

	return cmd
}
