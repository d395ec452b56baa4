package simulate

import (
	"context"
	"fmt"
	"time"

	"github.com/ethpandaops/stepprof/internal/profile"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// step identifies one training step handed from the batch producer to the trainer.
type step struct {
	epoch int
	index int
}

func (s step) lastOfEpoch(plan *Plan) bool {
	return s.index == plan.StepsPerEpoch-1
}

// Runner replays a Plan against an interval timer and a data move counter.
type Runner struct {
	log      logrus.FieldLogger
	plan     *Plan
	timer    profile.IntervalTimer
	counter  profile.DataMoveCounter
	reporter Reporter
	sleep    SleepFunc
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithSleep replaces the wall-clock sleep used to simulate work.
func WithSleep(sleep SleepFunc) RunnerOption {
	return func(r *Runner) {
		r.sleep = sleep
	}
}

// NewRunner creates a new simulation runner. The plan must contain every key
// the timer sums into its total, otherwise the epoch reports could never be built.
func NewRunner(
	log logrus.FieldLogger,
	plan *Plan,
	totalKeys []string,
	timer profile.IntervalTimer,
	counter profile.DataMoveCounter,
	reporter Reporter,
	opts ...RunnerOption,
) (*Runner, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("validating plan: %w", err)
	}

	if err := plan.RequirePhases(totalKeys...); err != nil {
		return nil, fmt.Errorf("checking total keys: %w", err)
	}

	r := &Runner{
		log:      log.WithField("component", "simulate.runner"),
		plan:     plan,
		timer:    timer,
		counter:  counter,
		reporter: reporter,
		sleep:    sleepContext,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Run plays every epoch of the plan. A producer goroutine feeds steps to the
// trainer goroutine, which is the only goroutine touching the profilers.
func (r *Runner) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	steps := make(chan step, 1)

	g.Go(func() error {
		defer close(steps)

		for epoch := 0; epoch < r.plan.Epochs; epoch++ {
			for i := 0; i < r.plan.StepsPerEpoch; i++ {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case steps <- step{epoch: epoch, index: i}:
				}
			}
		}

		return nil
	})

	g.Go(func() error {
		for s := range steps {
			if err := r.runStep(gctx, s); err != nil {
				return fmt.Errorf("epoch %d step %d: %w", s.epoch, s.index, err)
			}

			if !s.lastOfEpoch(r.plan) {
				continue
			}

			if err := r.reporter.Report(s.epoch, r.timer, r.counter); err != nil {
				return fmt.Errorf("reporting epoch %d: %w", s.epoch, err)
			}

			r.timer.Reset()
			r.counter.Reset()
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	r.log.WithFields(logrus.Fields{
		"epochs": r.plan.Epochs,
		"steps":  r.plan.Epochs * r.plan.StepsPerEpoch,
	}).Debug("simulation finished")

	return nil
}

func (r *Runner) runStep(ctx context.Context, s step) error {
	r.log.WithFields(logrus.Fields{
		"epoch": s.epoch,
		"step":  s.index,
	}).Trace("running step")

	for _, phase := range r.plan.Phases {
		if err := r.runPhase(ctx, phase); err != nil {
			return err
		}
	}

	return nil
}

func (r *Runner) runPhase(ctx context.Context, phase *Phase) (err error) {
	if err := r.timer.StartProfile(phase.Name); err != nil {
		return err
	}

	defer func() {
		err = r.finish(phase.Name, err)
	}()

	if err := r.sleep(ctx, phase.Duration); err != nil {
		return err
	}

	for _, tr := range phase.Transfers {
		if err := r.runTransfer(ctx, tr); err != nil {
			return err
		}
	}

	return nil
}

func (r *Runner) runTransfer(ctx context.Context, tr *Transfer) (err error) {
	if err := r.timer.StartProfile(tr.Key); err != nil {
		return err
	}

	defer func() {
		err = r.finish(tr.Key, err)
	}()

	if err := r.sleep(ctx, tr.Duration); err != nil {
		return err
	}

	r.counter.Update(tr.Key, tr.Bytes)

	return nil
}

// finish stops key even when the interval was cut short so the timer stays
// usable after a failed run. The work error takes precedence.
func (r *Runner) finish(key string, workErr error) error {
	finishErr := r.timer.FinishProfile(key)
	if workErr != nil {
		return workErr
	}

	return finishErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
