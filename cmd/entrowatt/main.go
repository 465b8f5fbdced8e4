package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"entrowatt/pkg/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "entrowatt",
	Short: "Order-dependent forced-token interventions with energy accounting",
	Long: `Entrowatt forces designated tokens into a language model's generation
stream in two orders (A-then-B vs B-then-A), probes target-token
probability and distribution entropy around each injection, and joins
the per-run telemetry with externally sampled power logs to compute
idle-subtracted net energy per run.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Init(logLevel, logFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(baselineCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
