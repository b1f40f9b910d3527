// Package main provides the drawbridge CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rpggio/drawbridge/internal/config"
)

var (
	// configFile is set by the --config flag.
	configFile string

	// cfg and logger are initialized before any subcommand runs.
	cfg        config.Config
	logger     *slog.Logger
	closeLogFn func() error
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "drawbridge",
	Short: "drawbridge stores rows in user-defined tables",
	Long: `drawbridge is a storage engine for tables whose schema is defined at
runtime. Table definitions live in a metadata database; each table's rows
live in a physical table of its own. It is served to agents over MCP.`,
	SilenceUsage:      true,
	PersistentPreRunE: initRuntime,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeLogFn != nil {
			return closeLogFn()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: $DRAWBRIDGE_CONFIG_PATH)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(apiKeyCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("drawbridge", version)
	},
}

// initRuntime loads config and builds the logger.
func initRuntime(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	if configFile != "" {
		if err := os.Setenv("DRAWBRIDGE_CONFIG_PATH", configFile); err != nil {
			return fmt.Errorf("set config path: %w", err)
		}
	}

	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Name() == "serve" && serveTransport != "" {
		loaded.Transport.Mode = serveTransport
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	cfg = loaded

	// Stdio mode reserves stdout for JSON-RPC.
	logWriter := os.Stderr
	l, closer, err := newLogger(cfg.Log, logWriter)
	if err != nil {
		return err
	}
	logger = l
	closeLogFn = closer
	return nil
}
