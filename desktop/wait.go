// ABOUTME: Polling helper with a wall-clock budget
// ABOUTME: Waits for an external resource such as a callback listener to come up
package desktop

import (
	"context"
	"errors"
	"time"
)

// ErrWaitTimeout is returned when the condition never became true in time.
var ErrWaitTimeout = errors.New("timed out waiting for condition")

// WaitFor calls cond every interval until it returns true, the timeout
// elapses or ctx ends. cond is checked once immediately.
func WaitFor(ctx context.Context, timeout, interval time.Duration, cond func() bool) error {
	if cond() {
		return nil
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			if cond() {
				return nil
			}
			return ErrWaitTimeout
		case <-ticker.C:
			if cond() {
				return nil
			}
		}
	}
}
