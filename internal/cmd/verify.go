package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/reefcraft/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [run-id...]",
	Short: "Re-evaluate recorded runs and compare them sample by sample",
	Long: `Replay recorded runs with a fresh sampler and report any sample that differs
from the stored value. With no run ids, every run in the database is checked.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("db", "reefcraft.db", "SQLite database path")
	verifyCmd.Flags().Int("show", 5, "Mismatches to log per failing run")

	mustBind(verifyCmd, "verify", "db", "show")
}

func runVerify(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	dbPath := viper.GetString("verify.db")
	show := viper.GetInt("verify.show")

	r, err := store.OpenReader(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = r.Close() }()

	reports, err := store.Verify(cmd.Context(), r, args...)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	var failed int
	for _, rep := range reports {
		if rep.OK() {
			logger.Info("Run verified", "id", rep.Run.ID, "seed", rep.Run.Seed, "samples", rep.Checked)
			continue
		}
		failed++
		logger.Error("Run mismatch",
			"id", rep.Run.ID,
			"seed", rep.Run.Seed,
			"checked", rep.Checked,
			"expected", rep.Run.Samples,
			"mismatches", len(rep.Mismatches),
		)
		for i, m := range rep.Mismatches {
			if i >= show {
				break
			}
			logger.Error("Sample differs", "index", m.Index, "t", m.T, "stored", m.Stored, "got", m.Got)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed verification", failed, len(reports))
	}
	logger.Info("All runs verified", "runs", len(reports))
	return nil
}
