package main

import (
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/app"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/config"
)

const file = "config.json"

func initSentry(cfg *config.SentryConfig, version string) error {
	return sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     version,
	})
}

func main() {
	cfg := config.NewConfig()
	if err := cfg.Read(file); err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := initSentry(&cfg.Sentry, "v1"); err != nil {
		logger.Fatal("sentry init failed", zap.Error(err))
	}

	// Flush buffered events before the program terminates.
	defer sentry.Flush(2 * time.Second)

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build app", zap.Error(err))
	}

	if err := a.Run(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
