// Package redisholder owns the process-wide redis client and swaps it
// atomically when the health loop reconnects. Dependents hold the
// Holder itself and call Get per operation, never a client snapshot.
package redisholder

import (
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// clientBox keeps the stored concrete type constant; atomic.Value
// panics if a *redis.Client is swapped for a *redis.ClusterClient
// directly.
type clientBox struct {
	cl redis.UniversalClient
}

type Holder struct {
	v atomic.Value // stores clientBox
}

func NewHolder(initial redis.UniversalClient) *Holder {
	h := &Holder{}
	h.v.Store(clientBox{cl: initial})
	return h
}

// Get returns the current client. Callers must not cache the result
// across requests; the health loop may swap it at any time.
func (h *Holder) Get() redis.UniversalClient {
	b, _ := h.v.Load().(clientBox)
	return b.cl
}

func (h *Holder) swap(newc redis.UniversalClient) (old redis.UniversalClient) {
	b, _ := h.v.Load().(clientBox)
	h.v.Store(clientBox{cl: newc})
	return b.cl
}

func (h *Holder) Close() error {
	if c := h.Get(); c != nil {
		return c.Close()
	}
	return nil
}
