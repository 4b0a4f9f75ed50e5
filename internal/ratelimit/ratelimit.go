// Package ratelimit implements sliding-window admission control backed
// by a redis sorted set per client. Availability wins over strict
// enforcement: when redis is unreachable the limiter fails open.
package ratelimit

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/config"
)

// ClientSource yields the current shared redis client. The health loop
// may replace the client between calls, so it is fetched per operation
// rather than held.
type ClientSource interface {
	Get() redis.UniversalClient
}

// Decision is the admission verdict for one request.
type Decision struct {
	Allowed bool
	// RetryAfterSeconds is set when denied: time until the oldest
	// retained timestamp exits the window.
	RetryAfterSeconds int
}

// admitScript prunes, counts and conditionally records in one atomic
// step, so concurrent requests cannot both observe the last free slot.
// Returns {1, 0} when admitted, {0, oldest score} when denied.
var admitScript = redis.NewScript(`
local cutoff = ARGV[1]
local now = ARGV[2]
local member = ARGV[3]
local max = tonumber(ARGV[4])
local window = ARGV[5]

redis.call("ZREMRANGEBYSCORE", KEYS[1], 0, cutoff)
if redis.call("ZCARD", KEYS[1]) < max then
	redis.call("ZADD", KEYS[1], now, member)
	redis.call("EXPIRE", KEYS[1], window)
	return {1, 0}
end
local oldest = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
return {0, tonumber(oldest[2])}
`)

type Limiter struct {
	clients     ClientSource
	namespace   string
	maxRequests int
	window      time.Duration
	log         *zap.Logger

	now func() time.Time // injectable clock
	seq atomic.Uint64
}

func New(clients ClientSource, cfg config.RateLimitConfig, log *zap.Logger) *Limiter {
	return &Limiter{
		clients:     clients,
		namespace:   "modelhub:rate_limit",
		maxRequests: cfg.MaxRequests,
		window:      time.Duration(cfg.WindowSeconds) * time.Second,
		log:         log,
		now:         time.Now,
	}
}

// Admit prunes timestamps older than the trailing window, then either
// records the request and allows it, or denies it with a retry hint.
// Denied requests do not consume window capacity.
func (l *Limiter) Admit(ctx context.Context, clientID string) Decision {
	now := l.now()
	key := l.namespace + ":" + clientID
	// Millisecond scores stay exact in redis' float64 score space.
	cutoff := now.Add(-l.window).UnixMilli()
	// The sequence suffix keeps same-instant requests distinct members.
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + strconv.FormatUint(l.seq.Add(1), 10)

	res, err := admitScript.Run(ctx, l.clients.Get(), []string{key},
		cutoff, now.UnixMilli(), member, l.maxRequests, int(l.window/time.Second)).Int64Slice()
	if err != nil || len(res) < 2 {
		// Fail open: admission is granted when the backing store is
		// unreachable.
		l.log.Warn("rate limiter degraded, admitting request",
			zap.String("client_id", clientID), zap.Error(err))
		return Decision{Allowed: true}
	}

	if res[0] == 1 {
		return Decision{Allowed: true}
	}
	return Decision{Allowed: false, RetryAfterSeconds: l.retryAfter(time.UnixMilli(res[1]), now)}
}

// retryAfter computes seconds until the oldest retained timestamp
// leaves the window.
func (l *Limiter) retryAfter(oldest, now time.Time) int {
	retry := oldest.Add(l.window).Sub(now)
	secs := int((retry + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Status reports reachability of the backing store.
func (l *Limiter) Status(ctx context.Context) error {
	return l.clients.Get().Ping(ctx).Err()
}
