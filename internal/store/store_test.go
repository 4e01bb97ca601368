package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for
// more robust SQL mock testing.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

func testRun() *schemas.ModelRun {
	model := schemas.NewEventModel()
	model.Events = append(model.Events,
		schemas.DomainEvent{Name: "ItemAdded", Kind: schemas.EventKindUserAction})
	return &schemas.ModelRun{
		ID:         "run-1",
		ProjectID:  "proj-1",
		Model:      model,
		Validation: schemas.ValidationResult{Valid: true},
		CreatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewStore(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = New(context.Background(), mockPool, zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestSaveRun(t *testing.T) {
	ctx := context.Background()

	t.Run("should persist a run without rollback errors", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		observedZapCore, observedLogs := observer.New(zapcore.ErrorLevel)
		mockPool.ExpectPing().WillReturnError(nil)
		s, err := New(ctx, mockPool, zap.New(observedZapCore))
		require.NoError(t, err)

		run := testRun()
		modelJSON, err := json.Marshal(run.Model)
		require.NoError(t, err)
		validationJSON, err := json.Marshal(run.Validation)
		require.NoError(t, err)

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertRun)).
			WithArgs(run.ID, run.ProjectID, modelJSON, validationJSON, run.CreatedAt.UTC()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		// Expect Commit AND the subsequent Rollback (which returns ErrTxClosed).
		mockPool.ExpectCommit()
		mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

		require.NoError(t, s.SaveRun(ctx, run))
		assert.NoError(t, mockPool.ExpectationsWereMet())
		assert.Empty(t, observedLogs.All(), "Expected no errors logged on successful commit")
	})

	t.Run("should roll back when the insert fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		s, err := New(ctx, mockPool, zap.NewNop())
		require.NoError(t, err)

		insertErr := errors.New("constraint violation")
		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertRun)).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(insertErr)
		mockPool.ExpectRollback()

		err = s.SaveRun(ctx, testRun())
		require.Error(t, err)
		assert.ErrorIs(t, err, insertErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestGetRun(t *testing.T) {
	ctx := context.Background()

	t.Run("should load and unmarshal a run", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		s, err := New(ctx, mockPool, zap.NewNop())
		require.NoError(t, err)

		run := testRun()
		modelJSON, err := json.Marshal(run.Model)
		require.NoError(t, err)
		validationJSON, err := json.Marshal(run.Validation)
		require.NoError(t, err)

		rows := pgxmock.NewRows([]string{"id", "project_id", "model", "validation", "created_at"}).
			AddRow(run.ID, run.ProjectID, modelJSON, validationJSON, run.CreatedAt)
		mockPool.ExpectQuery("SELECT id, project_id, model, validation, created_at").
			WithArgs(run.ID).
			WillReturnRows(rows)

		loaded, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, loaded.ID)
		assert.Equal(t, run.ProjectID, loaded.ProjectID)
		require.Len(t, loaded.Model.Events, 1)
		assert.Equal(t, "ItemAdded", loaded.Model.Events[0].Name)
		assert.True(t, loaded.Validation.Valid)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should return an error for a missing run", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectPing().WillReturnError(nil)
		s, err := New(ctx, mockPool, zap.NewNop())
		require.NoError(t, err)

		mockPool.ExpectQuery("SELECT id, project_id, model, validation, created_at").
			WithArgs("missing").
			WillReturnRows(pgxmock.NewRows([]string{"id", "project_id", "model", "validation", "created_at"}))

		_, err = s.GetRun(ctx, "missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestEnsureSchema(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectPing().WillReturnError(nil)
	s, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)

	mockPool.ExpectExec(flexibleSQLMatcher(sqlCreateRuns)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
