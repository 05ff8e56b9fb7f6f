package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"opportunity-agent/internal/domain/entity"

	"github.com/jackc/pgx/v5/pgxpool"
)

const saveTimeout = 10 * time.Second

// PostgresSink persists finished analysis records as JSONB documents.
// Best effort: the orchestrator treats save failures as non-fatal.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink connects and ensures the analyses table exists.
// Construction failure means the caller runs with persistence disabled.
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS opportunity_analyses (
			id             TEXT PRIMARY KEY,
			opportunity_id TEXT NOT NULL,
			record         JSONB NOT NULL,
			processed_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure analyses table: %w", err)
	}

	return &PostgresSink{pool: pool}, nil
}

func (s *PostgresSink) SaveAnalysis(ctx context.Context, rec entity.AnalysisRecord) (string, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis record: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	_, err = s.pool.Exec(callCtx, `
		INSERT INTO opportunity_analyses (id, opportunity_id, record)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET record = EXCLUDED.record`,
		rec.ID, rec.OpportunityID, doc)
	if err != nil {
		return "", fmt.Errorf("failed to save analysis record: %w", err)
	}

	return rec.ID, nil
}

func (s *PostgresSink) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresSink) Close() {
	s.pool.Close()
}
