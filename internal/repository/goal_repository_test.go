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

func TestGoalRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewGoalRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO goals")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	goal := &models.Goal{StudentID: "student-1", Description: "Articulation", Active: true}
	require.NoError(t, repo.Create(context.Background(), goal))
	require.NotEmpty(t, goal.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalRepositoryDeleteCascades(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewGoalRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM trial_records")).
		WithArgs("goal-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM objectives WHERE goal_id = $1")).
		WithArgs("goal-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM goals WHERE id = $1")).
		WithArgs("goal-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "goal-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalRepositoryListByStudentFiltersActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewGoalRepository(db)
	rows := sqlmock.NewRows([]string{"id", "student_id", "description", "target_accuracy", "active", "created_at"}).
		AddRow("goal-1", "student-1", "Articulation", 80, true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_id = $1 AND active = true")).
		WithArgs("student-1").
		WillReturnRows(rows)

	goals, err := repo.ListByStudent(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
