package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/slp-tools/caseload-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func trialRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "session_id", "objective_id", "goal_id", "independent", "minimal_support", "moderate_support", "maximal_support", "incorrect", "notes", "created_at"})
}

func TestTrialRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTrialRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO trial_records")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	trial := &models.TrialRecord{SessionID: "sess-1", Independent: 4, Incorrect: 1}
	require.NoError(t, repo.Create(context.Background(), trial))
	require.NotEmpty(t, trial.ID)
	require.False(t, trial.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTrialRepositoryOverwrite(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTrialRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE trial_records SET independent")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	trial := &models.TrialRecord{ID: "trial-1", Independent: 7, Incorrect: 3}
	require.NoError(t, repo.Overwrite(context.Background(), trial))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTrialRepositoryListBySessionOrdersByInsertion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTrialRepository(db)
	rows := trialRows().
		AddRow("trial-1", "sess-1", nil, nil, 4, 0, 0, 0, 1, "", time.Now().Add(-time.Hour)).
		AddRow("trial-2", "sess-1", "obj-1", nil, 6, 1, 0, 0, 1, "", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at")).
		WithArgs("sess-1").
		WillReturnRows(rows)

	trials, err := repo.ListBySession(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, trials, 2)
	require.Equal(t, "trial-1", trials[0].ID)
	require.Equal(t, models.TargetObjective, trials[1].Target().Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTrialRepositoryListByObjectiveSinceJoinsSessionDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTrialRepository(db)
	cutoff := time.Date(2025, time.February, 13, 0, 0, 0, 0, time.UTC)
	rows := trialRows().
		AddRow("trial-1", "sess-1", "obj-1", nil, 8, 0, 0, 0, 2, "", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("JOIN sessions s ON tr.session_id = s.id")).
		WithArgs("obj-1", cutoff).
		WillReturnRows(rows)

	trials, err := repo.ListByObjectiveSince(context.Background(), "obj-1", cutoff)
	require.NoError(t, err)
	require.Len(t, trials, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
