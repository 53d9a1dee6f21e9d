package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vialac/vialac/internal/logging"
	"github.com/vialac/vialac/internal/testdata"
)

func seedCmd() *cobra.Command {
	var (
		animals int
		seed    uint64
		trend   bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the herd with generated sample data",
		RunE: func(cmd *cobra.Command, args []string) error {
			if animals <= 0 {
				return fmt.Errorf("--animals must be positive")
			}
			log, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			_, db, err := openHost(log)
			if err != nil {
				return err
			}
			defer db.Close()

			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}
			if err := testdata.Seed(cmd.Context(), db, animals, seed); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d animals (seed %d)\n", animals, seed)
			if trend {
				if err := testdata.WriteTrend(trendPath(), 180, seed); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", trendPath())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&animals, "animals", 120, "number of animals")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (default: time based)")
	cmd.Flags().BoolVar(&trend, "trend", false, "also write a 180 day production export to data.trend_csv")
	return cmd
}
