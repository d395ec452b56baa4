package profile

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTimer(t *testing.T, opts ...TimerOption) (IntervalTimer, *fakeClock, *logtest.Hook) {
	t.Helper()

	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	clock := newFakeClock()
	timer := NewIntervalTimer(log, append([]TimerOption{WithClock(clock.Now)}, opts...)...)

	return timer, clock, hook
}

func runPhase(t *testing.T, timer IntervalTimer, clock *fakeClock, key string, d time.Duration) {
	t.Helper()

	require.NoError(t, timer.StartProfile(key))
	clock.Advance(d)
	require.NoError(t, timer.FinishProfile(key))
}

func messages(hook *logtest.Hook, level logrus.Level) []string {
	var out []string
	for _, e := range hook.AllEntries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}

	return out
}

func TestIntervalTimer_AccumulatesPairedIntervals(t *testing.T) {
	timer, clock, _ := newTestTimer(t)

	intervals := []time.Duration{
		150 * time.Millisecond,
		2 * time.Second,
		35 * time.Microsecond,
	}

	var want time.Duration
	for _, d := range intervals {
		runPhase(t, timer, clock, "FWD_linear", d)
		clock.Advance(time.Second) // idle time between intervals is not counted
		want += d
	}

	got, ok := timer.Elapsed("FWD_linear")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestIntervalTimer_DoubleStart(t *testing.T) {
	timer, clock, _ := newTestTimer(t)

	require.NoError(t, timer.StartProfile("BWD"))
	clock.Advance(time.Second)

	err := timer.StartProfile("BWD")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.ErrorIs(t, err, ErrMisuse)
	assert.Contains(t, err.Error(), `"BWD"`)

	// The first start is kept.
	clock.Advance(time.Second)
	require.NoError(t, timer.FinishProfile("BWD"))

	got, _ := timer.Elapsed("BWD")
	assert.Equal(t, 2*time.Second, got)
}

func TestIntervalTimer_RestartAfterFinish(t *testing.T) {
	timer, clock, _ := newTestTimer(t)

	runPhase(t, timer, clock, "ADAM", time.Second)
	runPhase(t, timer, clock, "ADAM", time.Second)

	got, _ := timer.Elapsed("ADAM")
	assert.Equal(t, 2*time.Second, got)
}

func TestIntervalTimer_FinishWithoutStart(t *testing.T) {
	timer, clock, _ := newTestTimer(t)

	t.Run("never started", func(t *testing.T) {
		err := timer.FinishProfile("FWD")
		assert.ErrorIs(t, err, ErrNotRunning)
		assert.ErrorIs(t, err, ErrMisuse)

		_, ok := timer.Elapsed("FWD")
		assert.False(t, ok)
	})

	t.Run("finished twice", func(t *testing.T) {
		runPhase(t, timer, clock, "BWD", time.Second)

		err := timer.FinishProfile("BWD")
		assert.ErrorIs(t, err, ErrNotRunning)

		got, _ := timer.Elapsed("BWD")
		assert.Equal(t, time.Second, got)
	})
}

func TestIntervalTimer_Reset(t *testing.T) {
	timer, clock, _ := newTestTimer(t)

	runPhase(t, timer, clock, "FWD", time.Second)
	runPhase(t, timer, clock, "BWD", 2*time.Second)
	require.NoError(t, timer.StartProfile("ADAM"))

	timer.Reset()

	for _, key := range []string{"FWD", "BWD"} {
		got, ok := timer.Elapsed(key)
		assert.True(t, ok, "key %s should survive a reset", key)
		assert.Zero(t, got)
	}

	// Running intervals are not interrupted by a reset.
	clock.Advance(3 * time.Second)
	require.NoError(t, timer.FinishProfile("ADAM"))

	got, _ := timer.Elapsed("ADAM")
	assert.Equal(t, 3*time.Second, got)
}

func TestIntervalTimer_Report(t *testing.T) {
	timer, clock, _ := newTestTimer(t)

	runPhase(t, timer, clock, "FWD", time.Second)
	runPhase(t, timer, clock, "BWD", 2*time.Second)
	runPhase(t, timer, clock, "ADAM", time.Second)

	report, err := timer.Report()
	require.NoError(t, err)

	assert.Equal(t, 4*time.Second, report.Total)
	require.Len(t, report.Entries, 3)

	assert.Equal(t, TimerEntry{Key: "FWD", Elapsed: time.Second, Percent: 25}, report.Entries[0])
	assert.Equal(t, TimerEntry{Key: "BWD", Elapsed: 2 * time.Second, Percent: 50}, report.Entries[1])
	assert.Equal(t, TimerEntry{Key: "ADAM", Elapsed: time.Second, Percent: 25}, report.Entries[2])
}

func TestIntervalTimer_ReportOrderFollowsFirstStart(t *testing.T) {
	timer, clock, _ := newTestTimer(t)

	require.NoError(t, timer.StartProfile("FWD"))
	runPhase(t, timer, clock, "FWD_attention", time.Second)
	clock.Advance(time.Second)
	require.NoError(t, timer.FinishProfile("FWD"))

	runPhase(t, timer, clock, "BWD", time.Second)
	runPhase(t, timer, clock, "ADAM", time.Second)

	report, err := timer.Report()
	require.NoError(t, err)

	keys := make([]string, 0, len(report.Entries))
	for _, e := range report.Entries {
		keys = append(keys, e.Key)
	}

	assert.Equal(t, []string{"FWD", "FWD_attention", "BWD", "ADAM"}, keys)
	// Sub-phases are reported but not added to the total.
	assert.Equal(t, 4*time.Second, report.Total)
}

func TestIntervalTimer_ReportErrors(t *testing.T) {
	tests := []struct {
		name    string
		phases  map[string]time.Duration
		wantErr error
	}{
		{
			name:    "no phases",
			phases:  map[string]time.Duration{},
			wantErr: ErrMissingPhase,
		},
		{
			name:    "missing optimizer phase",
			phases:  map[string]time.Duration{"FWD": time.Second, "BWD": time.Second},
			wantErr: ErrMissingPhase,
		},
		{
			name:    "zero total",
			phases:  map[string]time.Duration{"FWD": 0, "BWD": 0, "ADAM": 0},
			wantErr: ErrZeroTotal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timer, clock, _ := newTestTimer(t)

			for key, d := range tt.phases {
				runPhase(t, timer, clock, key, d)
			}

			_, err := timer.Report()
			assert.ErrorIs(t, err, tt.wantErr)

			assert.ErrorIs(t, timer.Print(), tt.wantErr)
		})
	}
}

func TestIntervalTimer_CustomTotalKeys(t *testing.T) {
	timer, clock, _ := newTestTimer(t, WithTotalKeys("FWD", "BWD"))

	runPhase(t, timer, clock, "FWD", time.Second)
	runPhase(t, timer, clock, "BWD", 3*time.Second)

	report, err := timer.Report()
	require.NoError(t, err)
	assert.Equal(t, 4*time.Second, report.Total)
	assert.InDelta(t, 75.0, report.Entries[1].Percent, 1e-9)
}

func TestIntervalTimer_Print(t *testing.T) {
	timer, clock, hook := newTestTimer(t)

	runPhase(t, timer, clock, "FWD", time.Second)
	runPhase(t, timer, clock, "BWD", 2*time.Second)
	runPhase(t, timer, clock, "ADAM", time.Second)

	require.NoError(t, timer.Print())

	assert.Equal(t, []string{
		"------------- PROFILE RESULTS ----------------",
		"FWD ................. 1, 25 %",
		"BWD ................. 2, 50 %",
		"ADAM ................ 1, 25 %",
		"TOTAL ............... 4",
	}, messages(hook, logrus.InfoLevel))
}

func TestTimerReport_LinesWidenForLongKeys(t *testing.T) {
	report := &TimerReport{
		Entries: []TimerEntry{
			{Key: "ADAM_fp16_to_fp32_copy", Elapsed: 500 * time.Millisecond, Percent: 12.5},
		},
		Total: 4 * time.Second,
	}

	lines := report.Lines()
	require.Len(t, lines, 3)

	// Width is the longest key plus two.
	assert.Equal(t, "ADAM_fp16_to_fp32_copy .. 0.5, 12.5 %", lines[1])
	assert.Equal(t, "TOTAL ................... 4", lines[2])
}
