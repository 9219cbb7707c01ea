package assistant

import (
	"fmt"
	"time"
)

// RemoteServiceError wraps any failure talking to the remote assistant
// service: network, auth, malformed response, provider 4xx/5xx. This layer
// never retries; errors propagate immediately to the caller.
type RemoteServiceError struct {
	Op  string
	Err error
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("remote service: %s: %v", e.Op, e.Err)
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}

// RunFailedError reports a run that reached a terminal non-success status.
// Detail carries the provider-supplied error message unmodified.
type RunFailedError struct {
	Status RunStatus
	Detail string
}

func (e *RunFailedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("run %s", e.Status)
	}
	return fmt.Sprintf("run %s: %s", e.Status, e.Detail)
}

// TimeoutError reports a run that did not reach a terminal state within the
// waiter's budget. The remote run is not cancelled; it is simply no longer
// awaited.
type TimeoutError struct {
	Budget time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("run did not complete within %s", e.Budget)
}
