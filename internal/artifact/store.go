// Package artifact persists converted model bytes under deterministic,
// cache-key-derived names.
package artifact

import "context"

// Store is a durable-enough location for converted artifacts.
// Put is best-effort and may complete asynchronously; onStored runs
// once the bytes are physically written, with the location a later
// Fetch accepts.
type Store interface {
	Put(ctx context.Context, name string, data []byte, onStored func(location string)) error
	Fetch(ctx context.Context, location string) ([]byte, error)
}
