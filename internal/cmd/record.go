package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/reefcraft/internal/store"
	"github.com/MeKo-Tech/reefcraft/internal/trace"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a sampled trace in a SQLite database",
	Long: `Evaluate a freshly seeded sampler over a time grid and store the run so it
can later be checked with "reefcraft verify".`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)

	addSeedFlag(recordCmd)
	addGridFlags(recordCmd)
	recordCmd.Flags().String("db", "reefcraft.db", "SQLite database path")

	mustBind(recordCmd, "record", "seed", "start", "end", "step", "db")
}

func runRecord(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	seed := viper.GetUint32("record.seed")
	dbPath := viper.GetString("record.db")

	g, err := readGrid("record")
	if err != nil {
		return err
	}

	w, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}()

	samples := trace.RunSeed(seed, g)
	id, err := w.WriteRun(seed, g, samples)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	logger.Info("Run recorded", "id", id, "seed", seed, "samples", len(samples), "db", dbPath)
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}
