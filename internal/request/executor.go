package request

import (
	"context"
	"time"

	"media-translator/internal/logger"
	"media-translator/internal/network"
)

// UseRuleBudget tells Do to take the retry budget from the classified
// type's rule instead of an explicit override.
const UseRuleBudget = -1

// Executor runs units of work through connectivity gating and the
// classify-and-retry policy, tracking each logical call for the busy
// indicator.
type Executor struct {
	policy  *network.Policy
	monitor network.ConnectivityMonitor
	tracker *Tracker

	// sleep is replaceable in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an executor over the given policy and monitor.
// A nil tracker disables activity tracking.
func NewExecutor(policy *network.Policy, monitor network.ConnectivityMonitor, tracker *Tracker) *Executor {
	return &Executor{
		policy:  policy,
		monitor: monitor,
		tracker: tracker,
		sleep:   sleepWithContext,
	}
}

// Do runs fn with the type's full retry budget. See DoWithLimit.
func (e *Executor) Do(ctx context.Context, description string, fn func(ctx context.Context) error) error {
	return e.DoWithLimit(ctx, description, UseRuleBudget, fn)
}

// DoWithLimit runs fn, retrying classified-retryable failures up to
// maxRetries (or the matched rule's budget when maxRetries is
// UseRuleBudget). The budget resets on every call to DoWithLimit; it is
// not shared across logical calls. Non-retryable failures propagate
// after a single attempt. The returned error is always a classified
// *network.Error for transport failures.
func (e *Executor) DoWithLimit(ctx context.Context, description string, maxRetries int, fn func(ctx context.Context) error) error {
	var id string
	if e.tracker != nil {
		id = e.tracker.Begin(description)
		defer e.tracker.End(id)
	}

	// Fast-fail before spending any retry budget on a call that is
	// guaranteed to fail.
	if !e.monitor.Online() {
		logger.Warn("request refused while offline", logger.String("op", description))
		return e.policy.Offline()
	}

	var lastErr *network.Error
	for attempt := 0; ; attempt++ {
		err := e.attempt(ctx, description, attempt+1, fn)
		if err == nil {
			return nil
		}

		if nerr, ok := err.(*network.Error); ok && nerr.Type == network.TypeOffline && nerr.Cause == nil {
			// Inner connectivity check refused the attempt.
			lastErr = nerr
		} else {
			lastErr = e.policy.Classify(err, e.monitor.Online())
		}

		if !lastErr.Retryable {
			logger.Error("non-retryable request failure", err,
				logger.String("op", description),
				logger.String("type", string(lastErr.Type)))
			return lastErr
		}

		budget := maxRetries
		if budget == UseRuleBudget {
			budget = e.policy.MaxRetries(lastErr.Type)
		}
		if attempt >= budget {
			logger.Error("request failed after all retries", err,
				logger.String("op", description),
				logger.String("type", string(lastErr.Type)),
				logger.Int("attempts", attempt+1))
			return lastErr
		}

		delay := e.policy.Delay(lastErr.Type, attempt+1)
		logger.Debug("retrying after delay",
			logger.String("op", description),
			logger.String("type", string(lastErr.Type)),
			logger.Duration("delay", delay))

		if err := e.sleep(ctx, delay); err != nil {
			return lastErr
		}
	}
}

// attempt is the lower-level execute wrapper around a single try. It
// re-checks connectivity so a mid-call offline transition produces the
// same offline taxonomy as the outer fast-fail, and logs the outcome.
func (e *Executor) attempt(ctx context.Context, description string, number int, fn func(ctx context.Context) error) error {
	if !e.monitor.Online() {
		return e.policy.Offline()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := fn(ctx)
	if err != nil {
		logger.Warn("request attempt failed",
			logger.String("op", description),
			logger.Int("attempt", number),
			logger.Err(err))
		return err
	}

	logger.Debug("request attempt succeeded",
		logger.String("op", description),
		logger.Int("attempt", number))
	return nil
}

// sleepWithContext blocks for d, returning early if ctx is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
