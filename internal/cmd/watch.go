package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/reefcraft/internal/adapter"
	"github.com/MeKo-Tech/reefcraft/internal/clock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print live values against wall-clock time",
	Long: `Start a clock at zero and print the waveform at a fixed interval until
interrupted or until --duration has passed.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addSeedFlag(watchCmd)
	watchCmd.Flags().Duration("interval", 100*time.Millisecond, "Time between readings")
	watchCmd.Flags().Duration("duration", 0, "Stop after this long (0 runs until interrupted)")

	mustBind(watchCmd, "watch", "seed", "interval", "duration")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	seed := viper.GetUint32("watch.seed")
	interval := viper.GetDuration("watch.interval")
	duration := viper.GetDuration("watch.duration")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	engine := clock.NewEngine(adapter.New(seed), logger)
	out := cmd.OutOrStdout()

	logger.Debug("Watching", "seed", seed, "interval", interval)
	err := engine.Run(ctx, interval, func(tk clock.Tick) error {
		_, err := fmt.Fprintf(out, "%10.3f  %+.6f\n", tk.Time, tk.Value)
		return err
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
