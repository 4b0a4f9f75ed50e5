package supervisor

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CompletesBeforeDeadline(t *testing.T) {
	err := Run(time.Second, func() error {
		return nil
	})
	require.NoError(t, err)
}

func TestRun_PropagatesWorkerError(t *testing.T) {
	boom := errors.New("engine crashed")
	err := Run(time.Second, func() error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRun_TimesOutWithoutWaiting(t *testing.T) {
	start := time.Now()
	err := Run(50*time.Millisecond, func() error {
		time.Sleep(time.Second)
		return nil
	})
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrTimeout)
	// Returned at the deadline, not after the worker finished.
	assert.Less(t, elapsed, 500*time.Millisecond)
}

// A timed-out worker keeps running in the background; its late result
// is discarded rather than delivered. This is the documented trade-off
// of abandoning instead of killing.
func TestRun_AbandonedWorkerStillCompletes(t *testing.T) {
	var finished atomic.Bool
	release := make(chan struct{})

	err := Run(20*time.Millisecond, func() error {
		<-release
		finished.Store(true)
		return nil
	})
	require.ErrorIs(t, err, ErrTimeout)
	assert.False(t, finished.Load())

	close(release)
	assert.Eventually(t, finished.Load, time.Second, 5*time.Millisecond)
}
