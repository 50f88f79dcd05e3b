package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusforge/timetable-engine/internal/domain"
	"github.com/campusforge/timetable-engine/internal/scheduler"
)

func newPostgresRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPostgresRepositoryLoadBatch(t *testing.T) {
	db, mock, cleanup := newPostgresRepoMock(t)
	defer cleanup()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, code, strength FROM batches WHERE id = $1")).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "strength"}).AddRow("b1", "CS-3A", "CS3A", 30))

	mock.ExpectQuery("SELECT(.|\n)*FROM batch_subject_bindings").
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "subject_name", "subject_code", "subject_type", "hours_per_week", "faculty_id", "faculty_name"}).
			AddRow("math", "Mathematics", "MATH", "theory", 3, "f1", "Dr. A"))

	batch, err := repo.LoadBatch(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "CS3A", batch.Code)
	require.Len(t, batch.Bindings, 1)
	assert.Equal(t, "math", batch.Bindings[0].Subject.ID)
	assert.Equal(t, domain.SubjectTheory, batch.Bindings[0].Subject.Type)
	assert.Equal(t, "f1", batch.Bindings[0].Faculty.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryLoadBatchNotFound(t *testing.T) {
	db, mock, cleanup := newPostgresRepoMock(t)
	defer cleanup()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, code, strength FROM batches WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.LoadBatch(context.Background(), "missing")
	require.Error(t, err)
}

func TestPostgresRepositoryLoadActiveClassrooms(t *testing.T) {
	db, mock, cleanup := newPostgresRepoMock(t)
	defer cleanup()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, capacity, type, active FROM classrooms WHERE active = true ORDER BY capacity, id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity", "type", "active"}).
			AddRow("r1", "Room 1", 40, "lecture", true).
			AddRow("lr1", "Lab 1", 30, "lab", true))

	classrooms, err := repo.LoadActiveClassrooms(context.Background())
	require.NoError(t, err)
	require.Len(t, classrooms, 2)
	assert.Equal(t, domain.RoomLecture, classrooms[0].Type)
	assert.Equal(t, domain.RoomLab, classrooms[1].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryLoadCommittedTimetablesExcludesDrafts(t *testing.T) {
	db, mock, cleanup := newPostgresRepoMock(t)
	defer cleanup()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, status FROM schedules WHERE status IN ('active', 'published')")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow("s1", "published"))

	mock.ExpectQuery("SELECT(.|\n)*FROM placements WHERE schedule_id IN").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"schedule_id", "day", "start_time", "end_time", "subject_id", "faculty_id", "classroom_id", "type"}).
			AddRow("s1", "Monday", "09:00", "10:00", "math", "f1", "r1", "theory"))

	schedules, err := repo.LoadCommittedTimetables(context.Background())
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, domain.StatusPublished, schedules[0].Status)
	require.Len(t, schedules[0].WeekSlots, 1)
	assert.Equal(t, "Monday", schedules[0].WeekSlots[0].Day)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryLoadCommittedTimetablesEmpty(t *testing.T) {
	db, mock, cleanup := newPostgresRepoMock(t)
	defer cleanup()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, status FROM schedules WHERE status IN ('active', 'published')")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))

	schedules, err := repo.LoadCommittedTimetables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, schedules)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositorySaveDraftScheduleRejectsEmptyOptions(t *testing.T) {
	db, _, cleanup := newPostgresRepoMock(t)
	defer cleanup()
	repo := NewPostgresRepository(db)

	err := repo.SaveDraftSchedule(context.Background(), "b1", &scheduler.GenerateResult{})
	require.Error(t, err)
}

func TestPostgresRepositorySaveDraftScheduleUpsertsAndReplacesPlacements(t *testing.T) {
	db, mock, cleanup := newPostgresRepoMock(t)
	defer cleanup()
	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO schedules(.|\n)*ON CONFLICT(.|\n)*RETURNING id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("s1"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM placements WHERE schedule_id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO placements").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result := &scheduler.GenerateResult{
		Options: []scheduler.Option{{
			WeekSlots: []domain.Placement{
				{Day: "Monday", StartTime: "09:00", EndTime: "10:00", SubjectID: "math", FacultyID: "f1", ClassroomID: "r1", Type: domain.SubjectTheory},
			},
		}},
		Warnings: []string{"capacity_fallback"},
	}

	err := repo.SaveDraftSchedule(context.Background(), "b1", result)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
