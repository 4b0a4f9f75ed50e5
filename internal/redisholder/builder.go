package redisholder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/config"
)

// Build creates the shared redis client used by the rate limiter, the
// cache index and the audit stream, and starts a background health
// loop that rebuilds the client on ping failure. The service stays up
// through redis outages: dependents degrade to fail-open or cache-miss
// behavior while the loop reconnects.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Holder, error) {
	var cl redis.UniversalClient
	cl, err := newClusterClient(&cfg.Redis)
	if err != nil {
		clusterErr := err
		cl, err = newClient(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("create redis client: %w", err)
		}
		log.Info("redis cluster client failed; using single-node client", zap.Error(clusterErr))
	}

	h := NewHolder(cl)

	go healthLoop(ctx, h, cfg, log)

	return h, nil
}

func healthLoop(ctx context.Context, h *Holder, cfg *config.Config, log *zap.Logger) {
	interval := cfg.Redis.HealthCheckInterval * time.Second
	log.Info("redis health loop started", zap.Duration("interval", interval))

	ping := func() {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := h.Get().Ping(pingCtx).Err()
		cancel()

		if err == nil {
			return
		}
		log.Warn("redis ping failed, attempting reconnect", zap.Error(err))

		var newCl redis.UniversalClient
		var newErr error
		// Rebuild client (cluster first, then fallback)
		newCl, newErr = newClusterClient(&cfg.Redis)
		if newErr != nil {
			newCl, newErr = newClient(&cfg.Redis)
		}
		if newErr != nil {
			log.Warn("redis reconnect failed", zap.Error(newErr))
			return
		}

		if old := h.swap(newCl); old != nil {
			_ = old.Close()
		}
		log.Info("redis reconnected")
	}

	ping()

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = h.Close()
			log.Info("redis health loop stopped", zap.Error(ctx.Err()))
			return
		case <-t.C:
			ping()
		}
	}
}

func newClusterClient(cfg *config.RedisConfig) (*redis.ClusterClient, error) {
	if len(cfg.Nodes) < 2 {
		return nil, errors.New("not enough nodes for a cluster")
	}

	nodeAddrs := make([]string, 0, len(cfg.Nodes))
	for _, node := range cfg.Nodes {
		nodeAddrs = append(nodeAddrs, node.Addr())
	}

	cl := redis.NewClusterClient(&redis.ClusterOptions{
		RouteByLatency: true,
		Password:       cfg.Password,
		Addrs:          nodeAddrs,
		DialTimeout:    cfg.DialTimeout * time.Second,
		ReadTimeout:    cfg.ReadTimeout * time.Second,
		WriteTimeout:   cfg.WriteTimeout * time.Second,
		PoolSize:       20,
		PoolTimeout:    30 * time.Second,
		MaxRetries:     30,
	})

	if err := cl.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("error pinging redis cluster: %w", err)
	}

	return cl, nil
}

func newClient(cfg *config.RedisConfig) (*redis.Client, error) {
	stickyErr := errors.New("no nodes defined")

	for _, node := range cfg.Nodes {
		cl := redis.NewClient(&redis.Options{
			Addr:         node.Addr(),
			Password:     cfg.Password,
			DB:           cfg.DatabaseID,
			DialTimeout:  cfg.DialTimeout * time.Second,
			ReadTimeout:  cfg.ReadTimeout * time.Second,
			WriteTimeout: cfg.WriteTimeout * time.Second,
		})

		if err := cl.Ping(context.Background()).Err(); err != nil {
			stickyErr = fmt.Errorf("error pinging redis server: %w", err)
			continue
		}

		return cl, nil
	}

	return nil, stickyErr
}
