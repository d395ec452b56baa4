package simulate

import (
	"fmt"
	"io"

	"github.com/ethpandaops/stepprof/internal/profile"
	"github.com/ethpandaops/stepprof/internal/table"
	"github.com/sirupsen/logrus"
)

// Reporter publishes the accumulated profiles at the end of an epoch.
type Reporter interface {
	Report(epoch int, timer profile.IntervalTimer, counter profile.DataMoveCounter) error
}

type logReporter struct {
	log logrus.FieldLogger
}

// NewLogReporter writes reports through the profilers' own log output.
func NewLogReporter(log logrus.FieldLogger) Reporter {
	return &logReporter{
		log: log.WithField("component", "simulate.log_reporter"),
	}
}

func (r *logReporter) Report(epoch int, timer profile.IntervalTimer, counter profile.DataMoveCounter) error {
	r.log.WithField("epoch", epoch).Info("epoch finished")

	if err := timer.Print(); err != nil {
		return err
	}

	counter.Print(timer.Elapsed)

	return nil
}

type tableReporter struct {
	writer   io.Writer
	colors   *table.ColorHelper
	timer    *table.TimerFormatter
	dataMove *table.DataMoveFormatter
}

// NewTableReporter writes reports as tables to w.
func NewTableReporter(log logrus.FieldLogger, w io.Writer) Reporter {
	renderer := table.NewRenderer(log)

	return &tableReporter{
		writer:   w,
		colors:   table.NewColorHelper(),
		timer:    table.NewTimerFormatter(log, renderer),
		dataMove: table.NewDataMoveFormatter(log, renderer),
	}
}

func (r *tableReporter) Report(epoch int, timer profile.IntervalTimer, counter profile.DataMoveCounter) error {
	report, err := timer.Report()
	if err != nil {
		return fmt.Errorf("building profile report: %w", err)
	}

	fmt.Fprintf(r.writer, "\n%s\n", r.colors.Bold(fmt.Sprintf("Epoch %d", epoch)))
	fmt.Fprint(r.writer, r.timer.Format(report))
	fmt.Fprint(r.writer, r.dataMove.Format(counter.Report(timer.Elapsed)))

	return nil
}

// Compile-time interface compliance checks
var (
	_ Reporter = (*logReporter)(nil)
	_ Reporter = (*tableReporter)(nil)
)
