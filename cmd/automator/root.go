package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/automator"
	"github.com/aretw0/automator/internal/cli"
	"github.com/aretw0/automator/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "automator",
	Short: "Condition group engine for workflow recipes",
	Long: `Automator builds, validates and edits the condition groups that gate recipe actions.

Condition types come from a catalog (a YAML file or a directory of definition
documents). Groups are stored in memory or in Redis and served over HTTP or MCP.`,
	Version:           version(),
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: ./automator.yaml)")
	flags.String("catalog", "", "YAML condition catalog file")
	flags.String("dir", "", "directory of condition definition documents")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.Bool("log-json", false, "emit JSON logs")

	// Bind flags to viper
	_ = viper.BindPFlag("catalog.path", flags.Lookup("catalog"))
	_ = viper.BindPFlag("catalog.dir", flags.Lookup("dir"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.json", flags.Lookup("log-json"))
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	logger, err = cli.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

func version() string {
	return strings.TrimSpace(automator.Version)
}
