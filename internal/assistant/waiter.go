package assistant

import (
	"context"
	"time"

	"github.com/mipractice/mipractice/internal/metrics"
)

// PollFunc is notified with the run status after every poll, in order.
type PollFunc func(RunStatus)

// Waiter drives a created run to a terminal state by polling its status on a
// fixed interval under a timeout budget. The wait parks on the ticker between
// polls; only this logical flow suspends, never the whole process.
type Waiter struct {
	client   Client
	interval time.Duration
	timeout  time.Duration
}

func NewWaiter(client Client, interval, timeout time.Duration) *Waiter {
	if interval <= 0 {
		interval = time.Second
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Waiter{client: client, interval: interval, timeout: timeout}
}

// Await polls the run until it reaches a terminal state or the budget is
// spent. On success it returns the terminal status snapshot; a terminal
// non-success status becomes a *RunFailedError carrying the provider's error
// detail, and exceeding the budget becomes a *TimeoutError. A failed run is
// never retried, and a timed-out run is not cancelled remotely.
func (w *Waiter) Await(ctx context.Context, threadID, runID string, onPoll PollFunc) (RunState, error) {
	start := time.Now()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		state, err := w.client.GetRunStatus(ctx, threadID, runID)
		if err != nil {
			metrics.RunsTotal.WithLabelValues("remote_error").Inc()
			return RunState{}, err
		}

		if onPoll != nil {
			onPoll(state.Status)
		}

		switch state.Status {
		case StatusCompleted:
			metrics.RunsTotal.WithLabelValues("completed").Inc()
			metrics.RunWaitDuration.Observe(time.Since(start).Seconds())
			return state, nil
		case StatusFailed, StatusExpired, StatusCancelled:
			metrics.RunsTotal.WithLabelValues(string(state.Status)).Inc()
			return state, &RunFailedError{Status: state.Status, Detail: state.ErrorDetail}
		}

		if time.Since(start) >= w.timeout {
			metrics.RunsTotal.WithLabelValues("timeout").Inc()
			return state, &TimeoutError{Budget: w.timeout}
		}

		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case <-ticker.C:
		}
	}
}
