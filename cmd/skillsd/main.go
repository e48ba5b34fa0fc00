package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jingkaihe/skillsd/pkg/logger"
	"github.com/jingkaihe/skillsd/pkg/presenter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Environment variables
	viper.SetEnvPrefix("SKILLSD")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillsd")
	viper.AddConfigPath(".")

	setDefaults()

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

var shutdownTracing = func(context.Context) error { return nil }

var rootCmd = &cobra.Command{
	Use:   "skillsd",
	Short: "MCP server that serves SKILL.md skills to agents",
	Long: `skillsd discovers SKILL.md skills in project and user directories and serves
them to MCP clients through a single "skill" tool.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.Configure(viper.GetString("log_level"), viper.GetString("log_format")); err != nil {
			return err
		}
		if viper.GetBool("no_color") {
			presenter.SetColorMode(presenter.ColorNever)
		}

		shutdown, err := initTracing(cmd.Context())
		if err != nil {
			return errors.Wrap(err, "failed to initialize tracing")
		}
		shutdownTracing = shutdown
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.G(cmd.Context()).WithError(err).Warn("failed to shutdown tracing")
		}
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (panic, fatal, error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt, json)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))

	rootCmd.AddCommand(withTracing(serveCmd))
	rootCmd.AddCommand(withTracing(listCmd))
	rootCmd.AddCommand(withTracing(showCmd))
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
