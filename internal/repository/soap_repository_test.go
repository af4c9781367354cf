package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/slp-tools/caseload-api/internal/models"
)

func TestSOAPRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSOAPRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (session_id) DO UPDATE")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	note := &models.SOAPNote{
		SessionID:  "sess-1",
		Subjective: "Student participated in individual therapy session.",
	}
	require.NoError(t, repo.Upsert(context.Background(), note))
	require.NotEmpty(t, note.ID)
	require.False(t, note.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSOAPRepositoryFindBySession(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSOAPRepository(db)
	rows := sqlmock.NewRows([]string{"id", "session_id", "subjective", "objective", "assessment", "plan", "created_at", "updated_at"}).
		AddRow("note-1", "sess-1", "S", "O", "A", "P", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM soap_notes WHERE session_id = $1")).
		WithArgs("sess-1").
		WillReturnRows(rows)

	note, err := repo.FindBySession(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Equal(t, "note-1", note.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSOAPRepositoryCountPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSOAPRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE sn.id IS NULL AND s.status = $1")).
		WithArgs(models.SessionStatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.CountPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
