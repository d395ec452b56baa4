// Package cmd implements the stepprof command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// envFile is handled by main before cobra runs; the flag is declared so cobra accepts it.
	envFile string

	rootCmd = &cobra.Command{
		Use:   "stepprof",
		Short: "stepprof - training step profiler",
		Long: `stepprof accumulates per-phase timings and data movement for a training loop
and reports each phase's share of the step and the throughput of every transfer.

Use the simulate command to replay a training plan through the profilers.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "Environment file to load (default .env)")
}

// newLogger creates a new logger. The verbose flag forces DebugLevel,
// otherwise the configured level is used.
func newLogger(verbose bool, level logrus.Level) *logrus.Logger {
	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(level)
	}
	return log
}
