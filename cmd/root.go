// Package cmd provides the command-line interface for webpress.
//
// Configuration is resolved from multiple sources with clear precedence:
//
//	1. Command-line flags (--config, --port, --debug, ...) - highest priority
//	2. WEBPRESS_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (WEBPRESS_SERVER_PORT, ...)
//	4. Configuration file (.webpress.yml) - lowest priority
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "webpress",
	Short: "Bundle, process, and fingerprint web assets",
	Long: `webpress organizes CSS and JavaScript fragments into named bundles,
runs each bundle through a configurable chain of processors (minifiers,
a LESS compiler), and serves the results under content-addressed URLs
that are safe to cache indefinitely.

Quick Start:
  webpress serve                  Serve the bundles from bundles.yml
  webpress list                   List registered bundles with their URLs
  webpress render site.css        Print the HTML tag for a bundle
  webpress version                Show version information

In debug mode (--debug) nothing is memoized, minifiers are disabled, and
file edits are picked up on every request, with optional browser live
reload over a websocket.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is .webpress.yml, can also use WEBPRESS_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().Bool("debug", false, "debug mode: no memoization, no minification")
	rootCmd.PersistentFlags().String("static-root", "", "directory file-backed assets resolve against")
	rootCmd.PersistentFlags().String("manifest", "", "bundle manifest file")

	bindFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	bindFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	bindFlag("development.debug", rootCmd.PersistentFlags().Lookup("debug"))
	bindFlag("assets.static_root", rootCmd.PersistentFlags().Lookup("static-root"))
	bindFlag("assets.manifest", rootCmd.PersistentFlags().Lookup("manifest"))
}

// bindFlag wires a cobra flag into viper, but only overrides config/env
// values when the flag was actually set on the command line.
func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag %q: %v", key, err))
	}
}

// initConfig initializes the configuration sources before any command runs.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("WEBPRESS_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".webpress")
	}

	viper.SetEnvPrefix("WEBPRESS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
