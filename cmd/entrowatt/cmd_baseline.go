package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"entrowatt/pkg/power"
)

var baselineOpts struct {
	idle       string
	minSamples int
}

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Reduce an idle power log to its scalar baseline",
	Long: `Baseline averages a dedicated idle-session power log into the scalar
used for net-power subtraction. Idle and experimental runs must share
session conditions (power plan, AC state); that precondition is yours
to keep, not something this tool can check.`,
	RunE: runBaseline,
}

func init() {
	baselineCmd.Flags().StringVar(&baselineOpts.idle, "idle", "", "idle power log (required)")
	baselineCmd.Flags().IntVar(&baselineOpts.minSamples, "min-samples", power.DefaultMinIdleSamples, "minimum sample count")
	_ = baselineCmd.MarkFlagRequired("idle")
}

func runBaseline(cmd *cobra.Command, args []string) error {
	samples, err := power.ReadLog(baselineOpts.idle)
	if err != nil {
		return err
	}
	idle, err := power.Baseline(samples, baselineOpts.minSamples)
	if err != nil {
		return err
	}

	span := samples[len(samples)-1].At.Sub(samples[0].At)
	fmt.Printf("idle baseline: %.3f W (%d samples over %s)\n", idle, len(samples), span.Round(time.Millisecond))
	return nil
}
