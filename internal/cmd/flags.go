package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/reefcraft/internal/sampler"
	"github.com/MeKo-Tech/reefcraft/internal/trace"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// maxSweepSeeds bounds the seed list a single sweep may expand to.
const maxSweepSeeds = 1 << 20

func mustBind(cmd *cobra.Command, prefix string, flags ...string) {
	for _, name := range flags {
		key := prefix + "." + strings.ReplaceAll(name, "-", "_")
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", name, err))
		}
	}
}

// addGridFlags registers --start, --end and --step.
func addGridFlags(cmd *cobra.Command) {
	cmd.Flags().Float32("start", 0, "First sample time")
	cmd.Flags().Float32("end", 10, "Last sample time (inclusive)")
	cmd.Flags().Float32("step", 0.01, "Time between samples")
}

func addSeedFlag(cmd *cobra.Command) {
	cmd.Flags().Uint32("seed", sampler.DefaultSeed, "Sampler seed")
}

func readGrid(prefix string) (trace.Grid, error) {
	g := trace.Grid{
		Start: float32(viper.GetFloat64(prefix + ".start")),
		End:   float32(viper.GetFloat64(prefix + ".end")),
		Step:  float32(viper.GetFloat64(prefix + ".step")),
	}
	if err := g.Validate(); err != nil {
		return trace.Grid{}, fmt.Errorf("invalid grid: %w", err)
	}
	return g, nil
}

// parseSeeds expands a seed list such as "1-100", "3,7,11" or "1-4,9".
func parseSeeds(s string) ([]uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty seed list")
	}

	var seeds []uint32
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")

		first, err := parseSeed(lo)
		if err != nil {
			return nil, err
		}
		last := first
		if isRange {
			if last, err = parseSeed(hi); err != nil {
				return nil, err
			}
			if last < first {
				return nil, fmt.Errorf("invalid seed range %q: end before start", part)
			}
		}

		if uint64(len(seeds))+uint64(last-first)+1 > maxSweepSeeds {
			return nil, fmt.Errorf("seed list exceeds %d seeds", maxSweepSeeds)
		}
		for v := uint64(first); v <= uint64(last); v++ {
			seeds = append(seeds, uint32(v))
		}
	}
	return seeds, nil
}

func parseSeed(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid seed %q: must be an unsigned 32-bit integer", s)
	}
	return uint32(v), nil
}
