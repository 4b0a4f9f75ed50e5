package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/entities"
)

type dbStorage struct {
	dbpool *pgxpool.Pool
}

func New(ctx context.Context, databaseDSN string) (*dbStorage, error) {
	pool, err := pgxpool.New(ctx, databaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &dbStorage{dbpool: pool}, nil
}

func (s *dbStorage) Ping(ctx context.Context) error {
	return s.dbpool.Ping(ctx)
}

func (s *dbStorage) Close() {
	s.dbpool.Close()
}

// InsertConversion appends one audit record. Events are append-only;
// there is no update path.
func (s *dbStorage) InsertConversion(ctx context.Context, ev entities.ConversionEvent) error {
	_, err := s.dbpool.Exec(ctx, `
		INSERT INTO conversions (
			client_id, source_format, target_format, size_bytes,
			detected_mime, status, error_kind, cache_hit, duration_ms, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		ev.ClientID,
		ev.SourceFormat,
		ev.TargetFormat,
		ev.SizeBytes,
		ev.DetectedMIME,
		ev.Status,
		ev.ErrorKind,
		ev.CacheHit,
		ev.Duration.Milliseconds(),
		ev.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert conversion event: %w", err)
	}
	return nil
}
