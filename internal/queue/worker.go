package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/config"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/entities"
)

// Repository persists audit events.
type Repository interface {
	InsertConversion(ctx context.Context, ev entities.ConversionEvent) error
}

type Worker struct {
	clients ClientSource
	cfg     config.AuditWorkerConfig
	repo    Repository
	log     *zap.Logger
}

// Init starts the audit worker in the background and returns the
// producer the orchestrator publishes through.
func Init(ctx context.Context, clients ClientSource, cfg config.AuditWorkerConfig, repo Repository, log *zap.Logger) *Producer {
	producer := NewProducer(clients, cfg.Stream, cfg.MaxLen)
	worker := NewWorker(clients, cfg, repo, log)

	go func() {
		if err := worker.Start(ctx); err != nil && ctx.Err() == nil {
			log.Error("audit worker stopped", zap.Error(err))
		}
	}()

	return producer
}

func NewWorker(clients ClientSource, cfg config.AuditWorkerConfig, repo Repository, log *zap.Logger) *Worker {
	return &Worker{clients: clients, cfg: cfg, repo: repo, log: log}
}

func (w *Worker) EnsureGroup(ctx context.Context) error {
	// Without MkStream, redis errors out when the group is created
	// before any messages exist in the stream.
	err := w.clients.Get().XGroupCreateMkStream(ctx, w.cfg.Stream, w.cfg.Group, "0").Err()
	// BUSYGROUP just means the group already exists.
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (w *Worker) Start(ctx context.Context) error {
	if err := w.EnsureGroup(ctx); err != nil {
		return fmt.Errorf("failed to ensure redis group: %w", err)
	}

	w.log.Info("audit worker starting",
		zap.String("stream", w.cfg.Stream), zap.String("group", w.cfg.Group))

	// Adopt events left pending by a crashed consumer.
	w.autoClaim(ctx)

	return w.loop(ctx)
}

// autoClaim takes ownership of events that were delivered to another
// consumer but never acknowledged, so nothing is lost across restarts.
func (w *Worker) autoClaim(ctx context.Context) {
	next := "0-0"

	minIdle := 30 * time.Second
	if w.cfg.BlockTimeout > 0 {
		if t := w.cfg.BlockTimeout * 6; t > minIdle {
			minIdle = t
		}
	}

	for {
		msgs, start, err := w.clients.Get().XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   w.cfg.Stream,
			Group:    w.cfg.Group,
			Consumer: w.cfg.Consumer,
			MinIdle:  minIdle,
			Start:    next,
			Count:    100,
		}).Result()
		if err != nil || len(msgs) == 0 {
			return
		}
		next = start
	}
}

func (w *Worker) loop(ctx context.Context) error {
	for {
		// XREADGROUP marks returned messages pending for this consumer;
		// they stay in the group's PEL until handle() XACKs them. A
		// crash before XACK leaves them for autoClaim on restart.
		streams, err := w.clients.Get().XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    w.cfg.Group,
			Consumer: w.cfg.Consumer,
			Streams:  []string{w.cfg.Stream, ">"},
			Count:    1,
			Block:    w.cfg.BlockTimeout,
		}).Result()
		if err != nil && err != redis.Nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		for _, s := range streams {
			for _, m := range s.Messages {
				if err := w.handle(ctx, m); err != nil {
					sentry.CaptureException(err)
				}
			}
		}
	}
}

func (w *Worker) handle(ctx context.Context, m redis.XMessage) error {
	defer w.clients.Get().XAck(ctx, w.cfg.Stream, w.cfg.Group, m.ID)

	raw, ok := m.Values[payloadField].(string)
	if !ok {
		w.log.Warn("audit event without payload dropped", zap.String("id", m.ID))
		return nil
	}
	var ev entities.ConversionEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		w.log.Warn("malformed audit event dropped", zap.String("id", m.ID), zap.Error(err))
		return nil
	}
	attempt := toInt(m.Values[attemptField])

	if err := w.repo.InsertConversion(ctx, ev); err != nil {
		if attempt+1 >= w.cfg.MaxAttempts {
			w.log.Error("audit event dropped after retries",
				zap.String("id", m.ID), zap.Int("attempts", attempt+1), zap.Error(err))
			return err
		}
		// simple exponential backoff requeue
		backoff := w.cfg.BackoffBase << attempt
		time.AfterFunc(backoff, func() {
			_ = w.clients.Get().XAdd(context.Background(), &redis.XAddArgs{
				Stream: w.cfg.Stream,
				MaxLen: w.cfg.MaxLen,
				Values: map[string]any{
					payloadField: raw,
					attemptField: attempt + 1,
				},
			}).Err()
		})
		return err
	}
	return nil
}

func toInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case string:
		var x int
		fmt.Sscanf(t, "%d", &x)
		return x
	default:
		return 0
	}
}
