package table

import (
	"fmt"

	"github.com/ethpandaops/stepprof/internal/format"
	"github.com/ethpandaops/stepprof/internal/profile"
	"github.com/sirupsen/logrus"
)

// TimerFormatter formats interval timer reports as a table.
type TimerFormatter struct {
	log      logrus.FieldLogger
	renderer Renderer
	colors   *ColorHelper
}

// NewTimerFormatter creates a new timer report formatter.
func NewTimerFormatter(log logrus.FieldLogger, renderer Renderer) *TimerFormatter {
	return &TimerFormatter{
		log:      log.WithField("component", "table.timer_formatter"),
		renderer: renderer,
		colors:   NewColorHelper(),
	}
}

// Format converts a timer report into a formatted table string.
func (f *TimerFormatter) Format(report *profile.TimerReport) string {
	var (
		headers = []string{"Key", "Elapsed", "Share"}
		rows    = make([][]string, 0, len(report.Entries))
	)

	for _, e := range report.Entries {
		rows = append(rows, []string{
			e.Key,
			format.Duration(e.Elapsed),
			f.colors.FormatShare(e.Percent),
		})
	}

	f.log.WithField("entries", len(rows)).Debug("formatting timer report")

	rows = append(rows, []string{f.colors.Bold("TOTAL"), f.colors.Bold(format.Duration(report.Total)), ""})

	return "\n" + f.colors.Header("▸ Profile") + "\n\n" + f.renderer.RenderToString(headers, rows)
}

// DataMoveFormatter formats data move counter reports as a table.
type DataMoveFormatter struct {
	log      logrus.FieldLogger
	renderer Renderer
	colors   *ColorHelper
}

// NewDataMoveFormatter creates a new data move report formatter.
func NewDataMoveFormatter(log logrus.FieldLogger, renderer Renderer) *DataMoveFormatter {
	return &DataMoveFormatter{
		log:      log.WithField("component", "table.data_move_formatter"),
		renderer: renderer,
		colors:   NewColorHelper(),
	}
}

// Format converts a data move report into a formatted table string.
func (f *DataMoveFormatter) Format(report *profile.DataMoveReport) string {
	var (
		headers = []string{"Key", "Amount", "Count", "Throughput"}
		rows    = make([][]string, 0, len(report.Entries))
		total   int64
	)

	for _, e := range report.Entries {
		throughput := f.colors.Muted("-")
		if e.HasThroughput {
			throughput = format.Throughput(e.Throughput)
		}

		rows = append(rows, []string{
			e.Key,
			format.Bytes(e.Bytes),
			fmt.Sprintf("%d", e.Count),
			throughput,
		})
		total += e.Bytes
	}

	f.log.WithField("entries", len(rows)).Debug("formatting data move report")

	rows = append(rows, []string{f.colors.Bold("TOTAL"), f.colors.Bold(format.Bytes(total)), "", ""})

	return "\n" + f.colors.Header("▸ Data Movement") + "\n\n" + f.renderer.RenderToString(headers, rows)
}
