package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mark-henry/mhnodalnetwork/infrastructure/config"
	"github.com/mark-henry/mhnodalnetwork/infrastructure/di"
)

var seedGraphs string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the schema constraints and seed graphs, then exit",
	Example: `  nodalnet seed
  nodalnet seed --graphs "1:default,2:scratch"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if seedGraphs != "" {
			if cfg.SeedGraphs, err = config.ParseSeedGraphs(seedGraphs); err != nil {
				return err
			}
		}

		container, cleanup, err := di.InitializeContainer(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := container.Bootstrap(cmd.Context()); err != nil {
			return err
		}
		for _, g := range cfg.SeedGraphs {
			container.Logger.Info("Seeded graph", zap.Int64("id", g.ID), zap.String("name", g.Name))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d graph(s)\n", len(cfg.SeedGraphs))
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedGraphs, "graphs", "", "graphs to seed as id:name pairs, overriding SEED_GRAPHS")
}
