package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/NAGA-29/MotionFormatConverter-GAMMA/cmd/migrate"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/artifact"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/cache"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/config"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/engine"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/engine/blender"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/queue"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/ratelimit"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/redisholder"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/repository/storage"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/transport/handler"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/transport/router"
	use_case "github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/use-case"
)

type App struct {
	HttpServer *http.Server
	log        *zap.Logger
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	ctx := context.Background()

	if err := migrate.Migrate(cfg.Database.DSN, migrate.Migrations); err != nil {
		return nil, err
	}

	repo, err := storage.New(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	// Components receive the holder, not a client snapshot: the health
	// loop closes and replaces the client on reconnect, so each
	// operation fetches the current one.
	holder, err := redisholder.Build(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New(holder, cfg.RateLimit, log)

	store, err := newArtifactStore(cfg, log)
	if err != nil {
		return nil, err
	}
	convCache := cache.NewCache("modelhub:conversions", holder, store, log)

	producer := queue.Init(ctx, holder, cfg.Audit, repo, log)

	// One engine per process; the guard makes the single-conversion
	// rule explicit instead of relying on a single-worker deployment.
	eng := engine.NewExclusive(blender.New(cfg.Convert.BlenderBin, log))

	uc := use_case.New(limiter, convCache, eng, producer, use_case.Options{
		TimeoutSeconds:  cfg.Convert.TimeoutSeconds,
		CacheTTLSeconds: cfg.Convert.CacheTTLSeconds,
		MaxFileSize:     cfg.MaxFileSizeBytes(),
		WorkDir:         cfg.Convert.WorkDir,
	}, log)

	h := handler.New(uc, limiter, cfg, log)
	r := router.NewRouter(h)

	s := &http.Server{
		Handler:      r,
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &App{
		HttpServer: s,
		log:        log,
	}, nil
}

func newArtifactStore(cfg *config.Config, log *zap.Logger) (artifact.Store, error) {
	if cfg.Artifacts.Backend == "r2" {
		return artifact.NewR2(&cfg.Artifacts.R2, log)
	}
	return artifact.NewFS(cfg.Artifacts.Dir)
}

func (a *App) Run() error {
	a.log.Info("starting server", zap.String("addr", a.HttpServer.Addr))
	return a.HttpServer.ListenAndServe()
}
