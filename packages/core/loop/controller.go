package loop

import (
	"context"

	"github.com/abdul-hamid-achik/rester/packages/core/errs"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// Work runs one iteration. first is true only for the first iteration,
// which is when setup requests run. passed reports whether every
// executed request was valid; a non-nil error is fatal to the loop.
type Work func(ctx context.Context, first bool) (passed bool, err error)

// Summary is the outcome of a whole loop.
type Summary struct {
	Iterations int
	Passed     bool
}

type Controller struct {
	clock clock.Clock
	log   *logrus.Entry
}

type Option func(*Controller)

func WithClock(c clock.Clock) Option {
	return func(ctl *Controller) {
		ctl.clock = c
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(ctl *Controller) {
		ctl.log = log
	}
}

func NewController(opts ...Option) *Controller {
	ctl := &Controller{
		clock: clock.RealClock{},
		log:   logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(ctl)
	}
	return ctl
}

// Once runs work a single time.
func (c *Controller) Once(ctx context.Context, work Work) (Summary, error) {
	passed, err := work(ctx, true)
	return Summary{Iterations: 1, Passed: passed}, err
}

// Run drives work until params says the loop is done. A nil params runs
// work once. The delay is slept before every iteration but the first.
// The first error returned by work stops the loop.
func (c *Controller) Run(ctx context.Context, params *Parameters, work Work) (Summary, error) {
	if params == nil {
		return c.Once(ctx, work)
	}

	iteration := params.Iteration
	summary := Summary{Passed: true}
	c.log.WithField("iteration", iteration.String()).WithField("delay", params.Delay).Debug("starting loop")

	for first := true; ; first = false {
		if iteration.Done(c.clock.Now()) {
			return summary, nil
		}
		if !first && params.Delay > 0 {
			select {
			case <-ctx.Done():
				return summary, errs.Cancelled(ctx.Err())
			case <-c.clock.After(params.Delay):
			}
			if iteration.Done(c.clock.Now()) {
				return summary, nil
			}
		}
		if err := ctx.Err(); err != nil {
			return summary, errs.Cancelled(err)
		}

		passed, err := work(ctx, first)
		summary.Iterations++
		summary.Passed = summary.Passed && passed
		if err != nil {
			c.log.WithError(err).WithField("iteration", summary.Iterations).Debug("loop aborted")
			return summary, err
		}
		iteration.Increment()
	}
}
