package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethpandaops/stepprof/internal/config"
	"github.com/ethpandaops/stepprof/internal/profile"
	"github.com/ethpandaops/stepprof/internal/simulate"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Simulate command flags
	simulatePlan    string
	simulateFormat  string
	simulateEpochs  int
	simulateVerbose bool
)

// simulateCmd replays a training plan through the profilers
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a synthetic training loop through the profilers",
	Long: `Run a synthetic training loop and report the profiles after every epoch.

Each step runs the plan's phases in order. Phases are timed under their own
name and every transfer inside a phase is timed and counted under its key, so
the data move report can show throughput. Both profilers are reset after each
epoch report.

Example:
  stepprof simulate
  stepprof simulate --plan plans/offload.yaml --format table --epochs 3`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simulatePlan, "plan", "", "Plan file (defaults to $STEPPROF_PLAN or the built-in plan)")
	simulateCmd.Flags().StringVar(&simulateFormat, "format", "", "Report format: log or table (defaults to $STEPPROF_REPORT_FORMAT)")
	simulateCmd.Flags().IntVar(&simulateEpochs, "epochs", 0, "Override the plan's epoch count")
	simulateCmd.Flags().BoolVar(&simulateVerbose, "verbose", false, "Verbose output")

	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cmd.Flags().Changed("plan") {
		cfg.PlanPath = simulatePlan
	}

	if cmd.Flags().Changed("format") {
		cfg.ReportFormat = simulateFormat
	}

	if cmd.Flags().Changed("epochs") {
		cfg.Epochs = simulateEpochs
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	log := newLogger(simulateVerbose, cfg.LogLevel)
	log.SetOutput(cmd.ErrOrStderr())

	plan, err := loadPlan(log, cfg)
	if err != nil {
		return err
	}

	timer := profile.NewIntervalTimer(log, profile.WithTotalKeys(cfg.TotalKeys...))
	counter := profile.NewDataMoveCounter(log)

	var reporter simulate.Reporter
	switch cfg.ReportFormat {
	case config.ReportFormatTable:
		reporter = simulate.NewTableReporter(log, cmd.OutOrStdout())
	default:
		reporter = simulate.NewLogReporter(log)
	}

	runner, err := simulate.NewRunner(log, plan, cfg.TotalKeys, timer, counter, reporter)
	if err != nil {
		return fmt.Errorf("creating runner: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"epochs":          plan.Epochs,
		"steps_per_epoch": plan.StepsPerEpoch,
		"phases":          len(plan.Phases),
		"format":          cfg.ReportFormat,
	}).Info("starting simulation")

	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("running simulation: %w", err)
	}

	return nil
}

func loadPlan(log logrus.FieldLogger, cfg *config.Config) (*simulate.Plan, error) {
	plan := simulate.DefaultPlan()

	if cfg.PlanPath != "" {
		loaded, err := simulate.LoadPlan(cfg.PlanPath)
		if err != nil {
			return nil, fmt.Errorf("loading plan: %w", err)
		}

		plan = loaded
	}

	if cfg.Epochs > 0 {
		plan.Epochs = cfg.Epochs
	}

	log.WithField("plan", cfg.PlanPath).Debug("plan loaded")

	return plan, nil
}
