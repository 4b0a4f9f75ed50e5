package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/entities"
)

// overlapRecorder records whether two conversions ever ran at once.
type overlapRecorder struct {
	active     atomic.Int32
	overlapped atomic.Bool
	callTime   time.Duration
}

func (p *overlapRecorder) Convert(context.Context, string, string, entities.Format, entities.Format) error {
	if p.active.Add(1) > 1 {
		p.overlapped.Store(true)
	}
	time.Sleep(p.callTime)
	p.active.Add(-1)
	return nil
}

func TestExclusive_SerializesConcurrentConversions(t *testing.T) {
	rec := &overlapRecorder{callTime: 30 * time.Millisecond}
	ex := NewExclusive(rec)

	const calls = 4
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ex.Convert(context.Background(), "in", "out", entities.FormatFBX, entities.FormatGLB)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, rec.overlapped.Load(), "engine calls must never overlap")
	// Total duration is the sum of the serialized calls, not the max.
	assert.GreaterOrEqual(t, time.Since(start), calls*rec.callTime)
}
