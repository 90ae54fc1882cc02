// Package store provides Postgres-backed persistence for harvest runs.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jfaulkner/pageharvest/internal/harvest"
)

// Config controls the Postgres connection pool used for harvest rows.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// RunStore writes harvest runs and their outcomes into Postgres.
type RunStore struct {
	pool execCloser
}

// New creates a Postgres-backed RunStore using the provided config.
func New(ctx context.Context, cfg Config) (*RunStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &RunStore{pool: pool}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool execCloser) (*RunStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &RunStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *RunStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// RecordRun inserts the run header row.
func (s *RunStore) RecordRun(ctx context.Context, runID, startURL string, startedAt time.Time) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("run store is not configured")
	}
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	query := `
INSERT INTO harvest_runs (
	id,
	start_url,
	started_at
) VALUES (
	$1,$2,$3
)`
	if _, err := s.pool.Exec(ctx, query, runID, startURL, startedAt); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordOutcome inserts one page outcome, with extracted data as JSONB.
func (s *RunStore) RecordOutcome(ctx context.Context, runID string, outcome harvest.Outcome[map[string]any]) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("run store is not configured")
	}
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	data := outcome.Data
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal outcome data: %w", err)
	}
	query := `
INSERT INTO harvest_outcomes (
	run_id,
	url,
	is_successful,
	data
) VALUES (
	$1,$2,$3,$4
)`
	if _, err := s.pool.Exec(ctx, query, runID, outcome.Address, outcome.Succeeded, payload); err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// FinishRun stamps the run row with its completion time and counts.
func (s *RunStore) FinishRun(ctx context.Context, runID string, finishedAt time.Time, harvested, failed int) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("run store is not configured")
	}
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	query := `
UPDATE harvest_runs
SET finished_at = $2,
	harvested = $3,
	failed = $4
WHERE id = $1`
	if _, err := s.pool.Exec(ctx, query, runID, finishedAt, harvested, failed); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}
