// Package use_case orchestrates one conversion request end to end:
// admission, validation, cache lookup, the supervised engine call and
// the best-effort cache store. Terminal state is always a response;
// nothing here retries.
package use_case

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/cache"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/engine"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/entities"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/ratelimit"
	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/supervisor"
)

type Limiter interface {
	Admit(ctx context.Context, clientID string) ratelimit.Decision
}

type ConversionCache interface {
	Lookup(ctx context.Context, key string) ([]byte, bool)
	Store(ctx context.Context, key string, data []byte, ttlSeconds int) error
}

type Publisher interface {
	Publish(ctx context.Context, ev entities.ConversionEvent) error
}

// ConvertParams carries the request fields that accompany the uploaded
// bytes.
type ConvertParams struct {
	Filename     string
	OutputFormat string
	ClientID     string
	DetectedMIME string
}

type Options struct {
	TimeoutSeconds  int
	CacheTTLSeconds int
	MaxFileSize     int64
	WorkDir         string
}

type useCase struct {
	limiter Limiter
	cache   ConversionCache
	engine  engine.Adapter
	events  Publisher
	opts    Options
	log     *zap.Logger
}

func New(limiter Limiter, convCache ConversionCache, eng engine.Adapter, events Publisher, opts Options, log *zap.Logger) *useCase {
	return &useCase{
		limiter: limiter,
		cache:   convCache,
		engine:  eng,
		events:  events,
		opts:    opts,
		log:     log,
	}
}

// Convert runs the full pipeline for one request. On failure the
// returned error is always a classified *entities.ConversionError.
func (c *useCase) Convert(ctx context.Context, data []byte, params ConvertParams) (entities.Outcome, error) {
	started := time.Now()

	decision := c.limiter.Admit(ctx, params.ClientID)
	if !decision.Allowed {
		convErr := &entities.ConversionError{
			Kind:       entities.KindRateLimited,
			Message:    "Rate limit exceeded",
			RetryAfter: decision.RetryAfterSeconds,
		}
		c.publishEvent(ctx, data, params, "", started, false, convErr)
		return entities.Outcome{}, convErr
	}

	source, target, convErr := c.validate(data, params)
	if convErr != nil {
		c.publishEvent(ctx, data, params, "", started, false, convErr)
		return entities.Outcome{}, convErr
	}

	key := cache.Key(data, target)
	if cached, ok := c.cache.Lookup(ctx, key); ok {
		c.log.Info("serving cached conversion",
			zap.String("key", key), zap.String("client_id", params.ClientID))
		outcome := entities.Outcome{Data: cached, ContentType: target.ContentType(), CacheHit: true}
		c.publishEvent(ctx, data, params, target.String(), started, true, nil)
		return outcome, nil
	}

	converted, convErr := c.runConversion(data, source, target, key)
	if convErr != nil {
		sentry.CaptureException(convErr)
		c.publishEvent(ctx, data, params, target.String(), started, false, convErr)
		return entities.Outcome{}, convErr
	}

	c.publishEvent(ctx, data, params, target.String(), started, false, nil)
	return entities.Outcome{Data: converted, ContentType: target.ContentType()}, nil
}

func (c *useCase) validate(data []byte, params ConvertParams) (entities.Format, entities.Format, *entities.ConversionError) {
	if len(data) == 0 {
		return "", "", entities.NewValidationError("File is empty")
	}
	if int64(len(data)) > c.opts.MaxFileSize {
		return "", "", &entities.ConversionError{
			Kind:    entities.KindPayloadTooLarge,
			Message: fmt.Sprintf("File size exceeds maximum limit of %dMB", c.opts.MaxFileSize>>20),
		}
	}

	if filepath.Ext(params.Filename) == "" {
		return "", "", entities.NewValidationError("File has no extension")
	}
	source, ext, ok := entities.FormatFromFilename(params.Filename)
	if !ok {
		return "", "", entities.NewValidationError("Unsupported input format: " + ext)
	}
	if params.DetectedMIME != "" && !source.AcceptsMIME(params.DetectedMIME) {
		return "", "", entities.NewValidationError("Invalid MIME type: " + params.DetectedMIME)
	}

	if params.OutputFormat == "" {
		return "", "", entities.NewValidationError("output_format query parameter is required")
	}
	target, ok := entities.ParseFormat(params.OutputFormat)
	if !ok {
		return "", "", entities.NewValidationError("Unsupported output format: " + params.OutputFormat)
	}

	return source, target, nil
}

// runConversion executes the engine call under the timeout supervisor.
// The worker closure owns the temp dir and the cache store, so a
// timed-out conversion that later completes still cleans up after
// itself and may still populate the cache; only its response is
// discarded.
func (c *useCase) runConversion(data []byte, source, target entities.Format, key string) ([]byte, *entities.ConversionError) {
	tmpDir, err := os.MkdirTemp(c.opts.WorkDir, "convert_")
	if err != nil {
		return nil, entities.NewDomainError("failed to prepare working directory")
	}

	inputPath := filepath.Join(tmpDir, "input."+source.String())
	outputPath := filepath.Join(tmpDir, "converted."+target.String())
	if err := os.WriteFile(inputPath, data, 0o644); err != nil {
		os.RemoveAll(tmpDir)
		return nil, entities.NewDomainError("failed to stage input file")
	}

	var converted []byte
	timeout := time.Duration(c.opts.TimeoutSeconds) * time.Second

	err = supervisor.Run(timeout, func() error {
		defer os.RemoveAll(tmpDir)

		if err := c.engine.Convert(context.Background(), inputPath, outputPath, source, target); err != nil {
			return err
		}
		out, err := os.ReadFile(outputPath)
		if err != nil {
			return fmt.Errorf("read converted file: %w", err)
		}
		converted = out
		_ = c.cache.Store(context.Background(), key, out, c.opts.CacheTTLSeconds)
		return nil
	})
	if err != nil {
		return nil, classifyEngineError(err)
	}
	return converted, nil
}

// classifyEngineError maps supervisor and engine failures into the
// response taxonomy; raw engine errors never reach the client.
func classifyEngineError(err error) *entities.ConversionError {
	if errors.Is(err, supervisor.ErrTimeout) {
		return &entities.ConversionError{Kind: entities.KindTimeout, Message: "Conversion timed out"}
	}

	var engErr *engine.Error
	if errors.As(err, &engErr) {
		return entities.NewDomainError(engErr.Message)
	}
	return entities.NewDomainError("Error during conversion")
}

func (c *useCase) publishEvent(ctx context.Context, data []byte, params ConvertParams, target string, started time.Time, cacheHit bool, convErr *entities.ConversionError) {
	if c.events == nil {
		return
	}

	source := ""
	if f, _, ok := entities.FormatFromFilename(params.Filename); ok {
		source = f.String()
	}

	ev := entities.ConversionEvent{
		ClientID:     params.ClientID,
		SourceFormat: source,
		TargetFormat: target,
		SizeBytes:    int64(len(data)),
		DetectedMIME: params.DetectedMIME,
		Status:       "success",
		CacheHit:     cacheHit,
		Duration:     time.Since(started),
		OccurredAt:   time.Now().UTC(),
	}
	if convErr != nil {
		ev.Status = "failure"
		ev.ErrorKind = string(convErr.Kind)
	}

	if err := c.events.Publish(ctx, ev); err != nil {
		c.log.Warn("failed to publish audit event", zap.Error(err))
	}
}
