// Package taskstore supplies the read-only task trees that seed extraction.
// Two sources exist: a PostgreSQL-backed one for task databases and a file
// one for exported JSON trees.
package taskstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
)

// DBPool abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// PostgresSource reads one project's task tree from the tasks table.
type PostgresSource struct {
	pool      DBPool
	projectID string
	log       *zap.Logger
}

// NewPostgresSource creates a source for one project and verifies the
// connection.
func NewPostgresSource(ctx context.Context, pool DBPool, projectID string, logger *zap.Logger) (*PostgresSource, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresSource{
		pool:      pool,
		projectID: projectID,
		log:       logger.Named("taskstore"),
	}, nil
}

// ProjectContext returns the description of the root task (the row without a
// parent). A project with no root yields an empty context, not an error.
func (s *PostgresSource) ProjectContext(ctx context.Context) (string, error) {
	query := `
        SELECT description, COALESCE(implementation_details, '')
        FROM tasks
        WHERE project_id = $1 AND parent_id IS NULL
        ORDER BY position ASC
        LIMIT 1;
    `
	rows, err := s.pool.Query(ctx, query, s.projectID)
	if err != nil {
		return "", fmt.Errorf("failed to query root task: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", fmt.Errorf("error during row iteration: %w", err)
		}
		s.log.Warn("Project has no root task; proceeding without context",
			zap.String("project_id", s.projectID))
		return "", nil
	}

	var description, details string
	if err := rows.Scan(&description, &details); err != nil {
		return "", fmt.Errorf("failed to scan root task row: %w", err)
	}
	if details != "" {
		return description + "\n\n" + details, nil
	}
	return description, nil
}

// Tasks returns the ordered non-root task nodes of the project.
func (s *PostgresSource) Tasks(ctx context.Context) ([]schemas.TaskNode, error) {
	query := `
        SELECT id, COALESCE(parent_id, ''), description, COALESCE(implementation_details, ''), is_atomic
        FROM tasks
        WHERE project_id = $1 AND parent_id IS NOT NULL
        ORDER BY position ASC;
    `
	rows, err := s.pool.Query(ctx, query, s.projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []schemas.TaskNode
	for rows.Next() {
		var t schemas.TaskNode
		if err := rows.Scan(&t.ID, &t.ParentID, &t.Description, &t.ImplementationDetails, &t.IsAtomic); err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	s.log.Debug("Loaded task tree",
		zap.String("project_id", s.projectID),
		zap.Int("tasks", len(tasks)))
	return tasks, nil
}
