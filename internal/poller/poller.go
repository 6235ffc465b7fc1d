// Package poller drives the long-poll protocol for asynchronous jobs:
// check status on a fixed cadence until the job reaches a terminal
// state, the wall-clock ceiling passes, or the caller cancels.
package poller

import (
	"context"
	"strings"
	"time"

	"media-translator/internal/api"
	"media-translator/internal/logger"
	"media-translator/internal/types"
)

// StatusFunc fetches the current state of a job.
type StatusFunc func(ctx context.Context, correlationID string) (*api.JobStatus, error)

// TickFunc observes elapsed polling time, once per completed wait.
type TickFunc func(elapsed time.Duration)

// Poller repeatedly checks job status until a terminal state.
type Poller struct {
	check    StatusFunc
	interval func() time.Duration
	timeout  func() time.Duration

	// now and tick are replaceable in tests.
	now func() time.Time
}

// New creates a poller over the given status function. interval and
// timeout are read per wait so settings changes apply to in-flight
// jobs.
func New(check StatusFunc, interval, timeout func() time.Duration) *Poller {
	return &Poller{
		check:    check,
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
	}
}

// SetClock overrides the poller's time source, for tests.
func (p *Poller) SetClock(now func() time.Time) {
	p.now = now
}

// Wait polls the job until it completes, fails, times out or ctx is
// cancelled. onTick, if non-nil, fires after every status check with
// the elapsed wall-clock time. No status checks are issued after a
// terminal outcome or cancellation.
func (p *Poller) Wait(ctx context.Context, correlationID string, onTick TickFunc) (*api.JobOutput, error) {
	if correlationID == "" {
		return nil, types.NewAppError(types.ErrInvalidInput, "correlation id is required", nil)
	}

	start := p.now()
	deadline := start.Add(p.timeout())

	for {
		status, err := p.check(ctx, correlationID)
		if err != nil {
			return nil, err
		}

		elapsed := p.now().Sub(start)
		if onTick != nil {
			onTick(elapsed)
		}

		switch status.Status {
		case types.JobStateCompleted:
			if status.Data == nil {
				return nil, types.NewAppError(types.ErrAPICall,
					"job completed without a result", nil)
			}
			logger.Info("job completed",
				logger.String("correlation_id", correlationID),
				logger.Duration("elapsed", elapsed))
			return status.Data, nil

		case types.JobStateError:
			msg := "job failed"
			if len(status.Errors) > 0 {
				msg = strings.Join(status.Errors, "; ")
			}
			return nil, types.NewAppError(types.ErrAPICall, msg, nil)

		case types.JobStateTimeout:
			return nil, types.NewAppError(types.ErrTimeout,
				"the server gave up on the job", nil)

		case types.JobStateCreated, types.JobStatePending:
			// keep waiting

		default:
			logger.Warn("unrecognized job state, continuing to poll",
				logger.String("correlation_id", correlationID),
				logger.String("state", string(status.Status)))
		}

		if !p.now().Before(deadline) {
			return nil, types.NewAppError(types.ErrTimeout,
				"gave up waiting for the job to finish", nil)
		}

		if err := sleepWithContext(ctx, p.interval()); err != nil {
			return nil, err
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
