package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mark-henry/mhnodalnetwork/infrastructure/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "nodalnet",
	Short: "Graph editing API backed by Neo4j",
	Long: `nodalnet serves a JSON API for editing graphs of named, linked nodes
and the browser client that drives it.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file (defaults to $CONFIG_FILE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(tokenCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
