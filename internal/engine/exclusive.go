package engine

import (
	"context"
	"sync"

	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/entities"
)

// Exclusive serializes all access to a shared engine. The engine's
// scene state is global to its process, so at most one conversion may
// be in flight at a time; concurrent requests queue here in FIFO-ish
// mutex order while their rate-limit and cache work stays unblocked.
type Exclusive struct {
	mu    sync.Mutex
	inner Adapter
}

func NewExclusive(inner Adapter) *Exclusive {
	return &Exclusive{inner: inner}
}

func (e *Exclusive) Convert(ctx context.Context, inputPath, outputPath string, source, target entities.Format) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inner.Convert(ctx, inputPath, outputPath, source, target)
}
