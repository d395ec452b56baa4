package profile

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
)

const (
	dataMoveHeader = "------------- DATA MOVE RESULTS --------------"
	bytesPerMiB    = 1024 * 1024
)

// DataMoveCounter accumulates byte volume and event count per transfer key.
type DataMoveCounter interface {
	Update(key string, size int64)
	Reset()
	Amount(key string) int64
	Count(key string) int64
	Report(lookup ElapsedFunc) *DataMoveReport
	Print(lookup ElapsedFunc)
}

type dataMoveCounter struct {
	log logrus.FieldLogger

	order   []string
	amounts map[string]int64
	counts  map[string]int64
}

// NewDataMoveCounter creates a new data move counter
func NewDataMoveCounter(log logrus.FieldLogger) DataMoveCounter {
	return &dataMoveCounter{
		log:     log.WithField("component", "data_move_counter"),
		amounts: make(map[string]int64),
		counts:  make(map[string]int64),
	}
}

func (c *dataMoveCounter) Update(key string, size int64) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}

	c.counts[key]++
	c.amounts[key] += size
}

func (c *dataMoveCounter) Reset() {
	for _, key := range c.order {
		c.counts[key] = 0
		c.amounts[key] = 0
	}

	c.log.Debug("data move counter reset")
}

func (c *dataMoveCounter) Amount(key string) int64 {
	return c.amounts[key]
}

func (c *dataMoveCounter) Count(key string) int64 {
	return c.counts[key]
}

// DataMoveEntry is one transfer key's line in a DataMoveReport.
type DataMoveEntry struct {
	Key   string
	Bytes int64
	Count int64
	// Throughput is in bytes per second, only meaningful when HasThroughput is set.
	Throughput    float64
	HasThroughput bool
}

// DataMoveReport is a snapshot of the counter's accumulated totals.
type DataMoveReport struct {
	Entries []DataMoveEntry
}

// Report snapshots the counter. Throughput is derived from lookup, which is
// consulted with each transfer key; keys it does not know are reported without it.
func (c *dataMoveCounter) Report(lookup ElapsedFunc) *DataMoveReport {
	report := &DataMoveReport{
		Entries: make([]DataMoveEntry, 0, len(c.order)),
	}

	for _, key := range c.order {
		entry := DataMoveEntry{
			Key:   key,
			Bytes: c.amounts[key],
			Count: c.counts[key],
		}

		if lookup != nil && entry.Bytes != 0 {
			if elapsed, ok := lookup(key); ok && elapsed > 0 {
				entry.Throughput = float64(entry.Bytes) / elapsed.Seconds()
				entry.HasThroughput = true
			}
		}

		report.Entries = append(report.Entries, entry)
	}

	return report
}

func (c *dataMoveCounter) Print(lookup ElapsedFunc) {
	for _, line := range c.Report(lookup).Lines() {
		c.log.Info(line)
	}
}

// Lines renders the report as text lines, header included.
func (r *DataMoveReport) Lines() []string {
	lines := make([]string, 0, len(r.Entries)+1)
	lines = append(lines, dataMoveHeader)

	for _, e := range r.Entries {
		if e.HasThroughput {
			lines = append(lines, fmt.Sprintf("%s: %s MB, %d times, %s MB/s",
				e.Key, formatFloat(MiB(e.Bytes)), e.Count, formatFloat(e.Throughput/bytesPerMiB)))

			continue
		}

		lines = append(lines, fmt.Sprintf("%s: %s MB", e.Key, formatFloat(MiB(e.Bytes))))
	}

	return lines
}

// MiB converts a byte count to mebibytes.
func MiB(bytes int64) float64 {
	return float64(bytes) / bytesPerMiB
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Compile-time interface compliance check
var _ DataMoveCounter = (*dataMoveCounter)(nil)
