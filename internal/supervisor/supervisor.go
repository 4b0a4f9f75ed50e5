// Package supervisor bounds the wall-clock duration of blocking calls
// that cannot be safely interrupted. On timeout the caller stops
// waiting; the worker goroutine is left to finish on its own and its
// result is discarded. Killing a call into the engine mid-flight can
// leave process-wide engine state unusable, so we abandon instead.
package supervisor

import (
	"errors"
	"time"
)

// ErrTimeout is returned when fn does not complete within the deadline.
var ErrTimeout = errors.New("operation timed out")

// Run executes fn on its own goroutine and waits up to timeout for the
// result. The result channel is buffered so an abandoned worker never
// blocks on send.
func Run(timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return ErrTimeout
	}
}
