// Package store persists run reports in PostgreSQL. The store is optional;
// when no database URL is configured the runner keeps reports on disk only.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
)

// DBPool abstracts pgxpool.Pool so tests can substitute a mock.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ErrRunNotFound is returned by GetRun for unknown run IDs.
var ErrRunNotFound = errors.New("run not found")

const sqlCreateRunsTable = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		artifact_count INTEGER NOT NULL,
		files_changed INTEGER NOT NULL,
		prs_opened INTEGER NOT NULL,
		failures INTEGER NOT NULL,
		report JSONB NOT NULL
	);`

const sqlInsertRun = `
	INSERT INTO runs (run_id, started_at, finished_at, artifact_count, files_changed, prs_opened, failures, report)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (run_id) DO UPDATE SET
		started_at = EXCLUDED.started_at,
		finished_at = EXCLUDED.finished_at,
		artifact_count = EXCLUDED.artifact_count,
		files_changed = EXCLUDED.files_changed,
		prs_opened = EXCLUDED.prs_opened,
		failures = EXCLUDED.failures,
		report = EXCLUDED.report;`

const sqlSelectRun = `SELECT report FROM runs WHERE run_id = $1;`

// RunStore is the PostgreSQL implementation of schemas.RunStore.
type RunStore struct {
	pool DBPool
	log  *zap.Logger
}

// New verifies the connection and ensures the runs table exists.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*RunStore, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := pool.Exec(ctx, sqlCreateRunsTable); err != nil {
		return nil, fmt.Errorf("ensuring runs table: %w", err)
	}
	return &RunStore{pool: pool, log: logger.Named("store")}, nil
}

// RecordRun upserts a report. The scalar columns exist for SQL-side
// aggregation; the full report lives in the JSONB column.
func (s *RunStore) RecordRun(ctx context.Context, report *schemas.RunReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}

	_, err = s.pool.Exec(ctx, sqlInsertRun,
		report.RunID, report.StartedAt, report.FinishedAt,
		report.ArtifactCount, report.FilesChanged, report.PRsOpened, report.Failures,
		payload)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", report.RunID, err)
	}

	s.log.Debug("recorded run", zap.String("run_id", report.RunID))
	return nil
}

// GetRun loads a report by ID.
func (s *RunStore) GetRun(ctx context.Context, runID string) (*schemas.RunReport, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, sqlSelectRun, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("querying run %s: %w", runID, err)
	}

	var report schemas.RunReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("unmarshaling run %s: %w", runID, err)
	}
	return &report, nil
}
