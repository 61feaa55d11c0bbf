// Package timing drives a flood from outside. The flood engine only exposes a
// Step function; the drivers here decide when it is called.
package timing

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sarchlab/floodsim/flooding"
)

// DefaultInterval is the redraw period of the original visualization.
const DefaultInterval = 100 * time.Millisecond

// ErrStepLimit is returned when a drain does not finish within its step
// limit.
var ErrStepLimit = errors.New("step limit reached before the flood drained")

// A Stepper advances a flood one packet at a time.
type Stepper interface {
	Step() flooding.StepResult
	IsIdle() bool
}

// A Ticker calls Step at a fixed interval.
type Ticker struct {
	stepper  Stepper
	interval time.Duration
	maxSteps int
	observer func(flooding.StepResult)
}

// NewTicker creates a ticker. An interval of zero or less steps without
// waiting.
func NewTicker(stepper Stepper, interval time.Duration) *Ticker {
	return &Ticker{
		stepper:  stepper,
		interval: interval,
	}
}

// WithObserver sets a function that receives every step result.
func (t *Ticker) WithObserver(fn func(flooding.StepResult)) *Ticker {
	t.observer = fn
	return t
}

// WithMaxSteps makes Run give up with ErrStepLimit after n steps. Zero means
// no limit.
func (t *Ticker) WithMaxSteps(n int) *Ticker {
	t.maxSteps = n
	return t
}

func (t *Ticker) limitReached(steps int) error {
	if t.maxSteps > 0 && steps >= t.maxSteps {
		return errors.Wrapf(ErrStepLimit, "limit %d", t.maxSteps)
	}

	return nil
}

func (t *Ticker) step() {
	result := t.stepper.Step()

	if t.observer != nil {
		t.observer(result)
	}
}

// Run steps once per interval until the stepper is idle. It returns the
// number of steps taken, and the context error if the context ends first.
func (t *Ticker) Run(ctx context.Context) (int, error) {
	steps := 0

	if t.interval <= 0 {
		for !t.stepper.IsIdle() {
			if err := ctx.Err(); err != nil {
				return steps, err
			}

			if err := t.limitReached(steps); err != nil {
				return steps, err
			}

			t.step()
			steps++
		}

		return steps, nil
	}

	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	for !t.stepper.IsIdle() {
		if err := t.limitReached(steps); err != nil {
			return steps, err
		}

		select {
		case <-ctx.Done():
			return steps, ctx.Err()
		case <-tk.C:
		}

		t.step()
		steps++
	}

	return steps, nil
}

// Loop keeps ticking until the context ends, stepping whenever a packet is
// pending. It suits servers where a new broadcast may start at any time.
func (t *Ticker) Loop(ctx context.Context) error {
	interval := t.interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	tk := time.NewTicker(interval)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tk.C:
		}

		if !t.stepper.IsIdle() {
			t.step()
		}
	}
}

// DrainNow steps until the stepper is idle. A limit above zero bounds the
// number of steps.
func DrainNow(s Stepper, limit int) (int, error) {
	steps := 0

	for !s.IsIdle() {
		if limit > 0 && steps >= limit {
			return steps, errors.Wrapf(ErrStepLimit, "limit %d", limit)
		}

		s.Step()
		steps++
	}

	return steps, nil
}
