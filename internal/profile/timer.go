// Package profile provides the training-loop accumulators: a named-interval
// timer and a data-move counter.
//
// Neither accumulator is safe for concurrent use. Create one of each when the
// training loop starts and hand them to every call site that needs them.
package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// PhaseForward is the forward pass phase key.
	PhaseForward = "FWD"
	// PhaseBackward is the backward pass phase key.
	PhaseBackward = "BWD"
	// PhaseOptimizer is the optimizer step phase key.
	PhaseOptimizer = "ADAM"

	profileHeader = "------------- PROFILE RESULTS ----------------"
	totalLabel    = "TOTAL"
	minDotWidth   = 20
)

// DefaultTotalKeys are the phases summed into the report total.
var DefaultTotalKeys = []string{PhaseForward, PhaseBackward, PhaseOptimizer}

// ElapsedFunc looks up the accumulated time recorded for a key.
type ElapsedFunc func(key string) (time.Duration, bool)

// IntervalTimer accumulates elapsed time per named key.
type IntervalTimer interface {
	StartProfile(key string) error
	FinishProfile(key string) error
	Reset()
	Elapsed(key string) (time.Duration, bool)
	Report() (*TimerReport, error)
	Print() error
}

// TimerOption configures an IntervalTimer.
type TimerOption func(*intervalTimer)

// WithClock replaces time.Now as the timer's time source.
func WithClock(now func() time.Time) TimerOption {
	return func(t *intervalTimer) {
		t.now = now
	}
}

// WithTotalKeys sets the phases summed into the report total.
func WithTotalKeys(keys ...string) TimerOption {
	return func(t *intervalTimer) {
		t.totalKeys = append([]string(nil), keys...)
	}
}

type intervalTimer struct {
	log       logrus.FieldLogger
	now       func() time.Time
	totalKeys []string

	order   []string
	elapsed map[string]time.Duration
	started map[string]time.Time
}

// NewIntervalTimer creates a new interval timer
func NewIntervalTimer(log logrus.FieldLogger, opts ...TimerOption) IntervalTimer {
	t := &intervalTimer{
		log:       log.WithField("component", "interval_timer"),
		now:       time.Now,
		totalKeys: DefaultTotalKeys,
		elapsed:   make(map[string]time.Duration),
		started:   make(map[string]time.Time),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

func (t *intervalTimer) StartProfile(key string) error {
	start, seen := t.started[key]
	if !start.IsZero() {
		return fmt.Errorf("starting %q: %w", key, ErrAlreadyRunning)
	}

	if !seen {
		t.order = append(t.order, key)
	}

	t.started[key] = t.now()

	return nil
}

func (t *intervalTimer) FinishProfile(key string) error {
	start := t.started[key]
	if start.IsZero() {
		return fmt.Errorf("finishing %q: %w", key, ErrNotRunning)
	}

	t.elapsed[key] += t.now().Sub(start)
	t.started[key] = time.Time{}

	return nil
}

func (t *intervalTimer) Reset() {
	for key := range t.elapsed {
		t.elapsed[key] = 0
	}

	t.log.Debug("interval timer reset")
}

func (t *intervalTimer) Elapsed(key string) (time.Duration, bool) {
	d, ok := t.elapsed[key]
	return d, ok
}

// TimerEntry is one key's line in a TimerReport.
type TimerEntry struct {
	Key     string
	Elapsed time.Duration
	Percent float64
}

// TimerReport is a snapshot of the timer's accumulated totals.
type TimerReport struct {
	Entries []TimerEntry
	Total   time.Duration
}

func (t *intervalTimer) Report() (*TimerReport, error) {
	var total time.Duration

	for _, key := range t.totalKeys {
		d, ok := t.elapsed[key]
		if !ok {
			return nil, fmt.Errorf("total key %q: %w", key, ErrMissingPhase)
		}

		total += d
	}

	if total == 0 {
		return nil, ErrZeroTotal
	}

	report := &TimerReport{
		Entries: make([]TimerEntry, 0, len(t.elapsed)),
		Total:   total,
	}

	for _, key := range t.order {
		d, ok := t.elapsed[key]
		if !ok {
			continue
		}

		report.Entries = append(report.Entries, TimerEntry{
			Key:     key,
			Elapsed: d,
			Percent: float64(d) / float64(total) * 100,
		})
	}

	return report, nil
}

func (t *intervalTimer) Print() error {
	report, err := t.Report()
	if err != nil {
		return fmt.Errorf("building profile report: %w", err)
	}

	for _, line := range report.Lines() {
		t.log.Info(line)
	}

	return nil
}

// Lines renders the report as dot-padded text lines, header and total included.
func (r *TimerReport) Lines() []string {
	width := minDotWidth
	for _, e := range r.Entries {
		width = max(width, len(e.Key)+2)
	}

	lines := make([]string, 0, len(r.Entries)+2)
	lines = append(lines, profileHeader)

	for _, e := range r.Entries {
		lines = append(lines, fmt.Sprintf("%s %s %s, %s %%",
			e.Key, dots(width, e.Key), formatFloat(e.Elapsed.Seconds()), formatFloat(e.Percent)))
	}

	lines = append(lines, fmt.Sprintf("%s %s %s",
		totalLabel, dots(width, totalLabel), formatFloat(r.Total.Seconds())))

	return lines
}

func dots(width int, key string) string {
	return strings.Repeat(".", max(width-len(key), 0))
}

// Compile-time interface compliance check
var _ IntervalTimer = (*intervalTimer)(nil)
