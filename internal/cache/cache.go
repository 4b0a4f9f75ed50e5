// Package cache provides content-addressed caching of conversion
// artifacts. The redis index maps cache keys to artifact locations and
// expires with the entry TTL; the bytes themselves live in an artifact
// store. Every operation degrades to a miss when the index is
// unreachable.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/artifact"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/entities"
)

// Key derives the deterministic cache key for a conversion: identical
// bytes and target format produce the identical key regardless of
// filename or client.
func Key(source []byte, target entities.Format) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:]) + ":" + target.String()
}

// artifactName maps a cache key to the artifact's stored name.
func artifactName(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == ':' {
			return key[:i] + "." + key[i+1:]
		}
	}
	return key
}

// entry is the index record kept per key. CreatedAt and TTL are
// recorded for operators; expiry itself is enforced by redis.
type entry struct {
	Location   string    `json:"location"`
	CreatedAt  time.Time `json:"created_at"`
	TTLSeconds int       `json:"ttl_seconds"`
}

// ClientSource yields the current shared redis client. Fetched per
// operation; the reconnect loop may swap the client at any time.
type ClientSource interface {
	Get() redis.UniversalClient
}

type Cache struct {
	Namespace string

	clients ClientSource
	store   artifact.Store
	log     *zap.Logger
}

func NewCache(namespace string, clients ClientSource, store artifact.Store, log *zap.Logger) *Cache {
	return &Cache{
		Namespace: namespace,
		clients:   clients,
		store:     store,
		log:       log,
	}
}

// Lookup returns the cached artifact bytes for key, or false. Index
// outages and orphaned entries both degrade to a miss, never an error.
func (c *Cache) Lookup(ctx context.Context, key string) ([]byte, bool) {
	raw, err := c.clients.Get().Get(ctx, c.Namespace+":"+key).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("cache index unreachable, treating as miss", zap.Error(err))
		}
		return nil, false
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		c.log.Warn("cache entry corrupt, treating as miss", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	data, err := c.store.Fetch(ctx, e.Location)
	if err != nil {
		c.log.Warn("cached artifact missing, treating as miss",
			zap.String("key", key), zap.String("location", e.Location), zap.Error(err))
		return nil, false
	}
	return data, true
}

// Store writes the artifact first, then records the index entry with an
// expiry. Best-effort: a failed index write after a successful artifact
// write only orphans the artifact.
func (c *Cache) Store(ctx context.Context, key string, data []byte, ttlSeconds int) error {
	err := c.store.Put(ctx, artifactName(key), data, func(location string) {
		e := entry{
			Location:   location,
			CreatedAt:  time.Now().UTC(),
			TTLSeconds: ttlSeconds,
		}
		raw, _ := json.Marshal(e)

		// The put may have completed on a store worker after the
		// request finished, so the index write gets its own context.
		setCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		ttl := time.Duration(ttlSeconds) * time.Second
		if err := c.clients.Get().Set(setCtx, c.Namespace+":"+key, raw, ttl).Err(); err != nil {
			c.log.Warn("cache index write failed, artifact orphaned",
				zap.String("key", key), zap.String("location", location), zap.Error(err))
		}
	})
	if err != nil {
		c.log.Warn("artifact store write failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Flush drops all index entries in this cache's namespace. Artifacts
// are untouched; they age out operationally.
func (c *Cache) Flush(ctx context.Context) error {
	rc := c.clients.Get()
	keys := rc.Keys(ctx, c.Namespace+":*")
	pl := rc.Pipeline()
	for _, key := range keys.Val() {
		pl.Del(ctx, key)
	}
	_, err := pl.Exec(ctx)
	return err
}

// Status reports reachability of the index.
func (c *Cache) Status(ctx context.Context) error {
	return c.clients.Get().Ping(ctx).Err()
}
