package queue

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/entities"
)

// ClientSource yields the current shared redis client, fetched per
// operation so the reconnect loop can swap it underneath.
type ClientSource interface {
	Get() redis.UniversalClient
}

type Producer struct {
	clients ClientSource
	stream  string
	maxLen  int64
}

func NewProducer(clients ClientSource, stream string, maxLen int64) *Producer {
	return &Producer{clients: clients, stream: stream, maxLen: maxLen}
}

// Publish encodes the event as JSON and appends it to the audit stream
// for background persistence.
func (p *Producer) Publish(ctx context.Context, ev entities.ConversionEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.clients.Get().XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Values: map[string]any{
			payloadField: string(raw),
			attemptField: 0,
		},
	}).Err()
}
