package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/reefcraft/internal/plot"
	"github.com/MeKo-Tech/reefcraft/internal/trace"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a trace as a PNG plot",
	Long:  `Sample the waveform over a time grid and paint it onto grained paper as a PNG.`,
	RunE:  runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	defaults := plot.DefaultOptions()

	addSeedFlag(renderCmd)
	addGridFlags(renderCmd)
	renderCmd.Flags().StringP("output", "o", "trace.png", "Output PNG path")
	renderCmd.Flags().Int("width", defaults.Width, "Image width in pixels")
	renderCmd.Flags().Int("height", defaults.Height, "Image height in pixels")
	renderCmd.Flags().Float64("stroke-width", defaults.StrokeWidth, "Curve stroke width in pixels")
	renderCmd.Flags().Float32("blur", defaults.Blur, "Gaussian sigma for the wash under the curve (0 disables)")
	renderCmd.Flags().Bool("paper", defaults.Paper, "Draw a grained paper background")
	renderCmd.Flags().Int64("paper-seed", defaults.Seed, "Seed for the paper grain")
	renderCmd.Flags().Float64("tolerance", defaults.Tolerance, "Curve simplification tolerance in pixels (0 draws every sample)")

	mustBind(renderCmd, "render", "seed", "start", "end", "step", "output",
		"width", "height", "stroke-width", "blur", "paper", "paper-seed", "tolerance")
}

func runRender(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	seed := viper.GetUint32("render.seed")
	output := viper.GetString("render.output")

	g, err := readGrid("render")
	if err != nil {
		return err
	}

	opts := plot.DefaultOptions()
	opts.Width = viper.GetInt("render.width")
	opts.Height = viper.GetInt("render.height")
	opts.StrokeWidth = viper.GetFloat64("render.stroke_width")
	opts.Blur = float32(viper.GetFloat64("render.blur"))
	opts.Paper = viper.GetBool("render.paper")
	opts.Seed = viper.GetInt64("render.paper_seed")
	opts.Tolerance = viper.GetFloat64("render.tolerance")

	samples := trace.RunSeed(seed, g)
	img, err := plot.Render(samples, opts)
	if err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	if err := plot.WriteFile(output, img); err != nil {
		return err
	}

	logger.Info("Plot written",
		"path", output,
		"seed", seed,
		"samples", len(samples),
		"width", opts.Width,
		"height", opts.Height,
	)
	return nil
}
