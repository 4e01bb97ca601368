// Package store persists finished pipeline runs in PostgreSQL. The model and
// its validation result are stored as JSONB documents so downstream consumers
// can query them without a relational projection of every collection.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DBPool abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store provides the PostgreSQL implementation of schemas.RunStore.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

const sqlCreateRuns = `
    CREATE TABLE IF NOT EXISTS model_runs (
        id TEXT PRIMARY KEY,
        project_id TEXT NOT NULL DEFAULT '',
        model JSONB NOT NULL,
        validation JSONB NOT NULL,
        created_at TIMESTAMPTZ NOT NULL
    );
`

// EnsureSchema creates the runs table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, sqlCreateRuns); err != nil {
		return fmt.Errorf("failed to create model_runs table: %w", err)
	}
	return nil
}

const sqlInsertRun = `
    INSERT INTO model_runs (id, project_id, model, validation, created_at)
    VALUES ($1, $2, $3, $4, $5);
`

// SaveRun writes one finished run inside a transaction.
func (s *Store) SaveRun(ctx context.Context, run *schemas.ModelRun) error {
	modelJSON, err := json.Marshal(run.Model)
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}
	validationJSON, err := json.Marshal(run.Validation)
	if err != nil {
		return fmt.Errorf("failed to marshal validation result: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if _, err := tx.Exec(ctx, sqlInsertRun,
		run.ID, run.ProjectID, modelJSON, validationJSON, run.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Info("Persisted model run",
		zap.String("run_id", run.ID),
		zap.String("project_id", run.ProjectID))
	return nil
}

// GetRun loads one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*schemas.ModelRun, error) {
	query := `
        SELECT id, project_id, model, validation, created_at
        FROM model_runs
        WHERE id = $1;
    `
	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error during row iteration: %w", err)
		}
		return nil, fmt.Errorf("run %q not found", id)
	}

	run, err := scanRun(rows)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the runs of one project, newest first. An empty projectID
// lists every run.
func (s *Store) ListRuns(ctx context.Context, projectID string) ([]*schemas.ModelRun, error) {
	query := `
        SELECT id, project_id, model, validation, created_at
        FROM model_runs
        WHERE ($1 = '' OR project_id = $1)
        ORDER BY created_at DESC;
    `
	rows, err := s.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*schemas.ModelRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return runs, nil
}

func scanRun(rows pgx.Rows) (*schemas.ModelRun, error) {
	var run schemas.ModelRun
	var modelJSON, validationJSON []byte
	if err := rows.Scan(&run.ID, &run.ProjectID, &modelJSON, &validationJSON, &run.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan run row: %w", err)
	}
	if err := json.Unmarshal(modelJSON, &run.Model); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model: %w", err)
	}
	if err := json.Unmarshal(validationJSON, &run.Validation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal validation result: %w", err)
	}
	return &run, nil
}
