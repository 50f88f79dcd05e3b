// Package repository implements the scheduler.Repository contract against
// Postgres via sqlx, using parameterized queries and
// sqlx.GetContext/SelectContext throughout.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/campusforge/timetable-engine/internal/domain"
	"github.com/campusforge/timetable-engine/internal/scheduler"
	apperrors "github.com/campusforge/timetable-engine/pkg/errors"
)

// PostgresRepository is the sqlx-backed implementation of
// scheduler.Repository.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository wires a repository against an open connection
// pool.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type batchRow struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Code     string `db:"code"`
	Strength int    `db:"strength"`
}

type bindingRow struct {
	SubjectID    string `db:"subject_id"`
	SubjectName  string `db:"subject_name"`
	SubjectCode  string `db:"subject_code"`
	SubjectType  string `db:"subject_type"`
	HoursPerWeek int    `db:"hours_per_week"`
	FacultyID    string `db:"faculty_id"`
	FacultyName  string `db:"faculty_name"`
}

type classroomRow struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Capacity int    `db:"capacity"`
	Type     string `db:"type"`
	Active   bool   `db:"active"`
}

type scheduleRow struct {
	ID     string `db:"id"`
	Status string `db:"status"`
}

type placementRow struct {
	ScheduleID  string `db:"schedule_id"`
	Day         string `db:"day"`
	StartTime   string `db:"start_time"`
	EndTime     string `db:"end_time"`
	SubjectID   string `db:"subject_id"`
	FacultyID   string `db:"faculty_id"`
	ClassroomID string `db:"classroom_id"`
	Type        string `db:"type"`
}

// LoadBatch returns the batch and its fully resolved subject/faculty
// bindings, or NotFound if the batch does not exist.
func (r *PostgresRepository) LoadBatch(ctx context.Context, id string) (domain.Batch, error) {
	const batchQuery = `SELECT id, name, code, strength FROM batches WHERE id = $1`
	var row batchRow
	if err := r.db.GetContext(ctx, &row, batchQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return domain.Batch{}, apperrors.Wrap(err, apperrors.ErrNotFound.Code, apperrors.ErrNotFound.Status, fmt.Sprintf("batch %s not found", id))
		}
		return domain.Batch{}, fmt.Errorf("load batch %s: %w", id, err)
	}

	const bindingsQuery = `
		SELECT
			s.id AS subject_id, s.name AS subject_name, s.code AS subject_code,
			s.type AS subject_type, s.hours_per_week AS hours_per_week,
			f.id AS faculty_id, f.name AS faculty_name
		FROM batch_subject_bindings b
		JOIN subjects s ON s.id = b.subject_id
		JOIN faculty f ON f.id = b.faculty_id
		WHERE b.batch_id = $1
		ORDER BY s.code`
	var bindingRows []bindingRow
	if err := r.db.SelectContext(ctx, &bindingRows, bindingsQuery, id); err != nil {
		return domain.Batch{}, fmt.Errorf("load bindings for batch %s: %w", id, err)
	}

	bindings := make([]domain.BatchSubjectBinding, 0, len(bindingRows))
	for _, b := range bindingRows {
		bindings = append(bindings, domain.BatchSubjectBinding{
			Subject: domain.Subject{
				ID:           b.SubjectID,
				Name:         b.SubjectName,
				Code:         b.SubjectCode,
				Type:         domain.SubjectType(b.SubjectType),
				HoursPerWeek: b.HoursPerWeek,
			},
			Faculty: domain.Faculty{ID: b.FacultyID, Name: b.FacultyName},
		})
	}

	return domain.Batch{
		ID:       row.ID,
		Name:     row.Name,
		Code:     row.Code,
		Strength: row.Strength,
		Bindings: bindings,
	}, nil
}

// LoadActiveClassrooms returns every classroom with active = true.
func (r *PostgresRepository) LoadActiveClassrooms(ctx context.Context) ([]domain.Classroom, error) {
	const query = `SELECT id, name, capacity, type, active FROM classrooms WHERE active = true ORDER BY capacity, id`
	var rows []classroomRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("load active classrooms: %w", err)
	}
	classrooms := make([]domain.Classroom, 0, len(rows))
	for _, row := range rows {
		classrooms = append(classrooms, domain.Classroom{
			ID:       row.ID,
			Name:     row.Name,
			Capacity: row.Capacity,
			Type:     domain.RoomType(row.Type),
			Active:   row.Active,
		})
	}
	return classrooms, nil
}

// LoadCommittedTimetables returns every schedule whose status is active or
// published, with their placements attached. Draft schedules are excluded
// at the query level so they can never leak into a ConflictIndex.
func (r *PostgresRepository) LoadCommittedTimetables(ctx context.Context) ([]domain.Schedule, error) {
	const scheduleQuery = `SELECT id, status FROM schedules WHERE status IN ('active', 'published')`
	var scheduleRows []scheduleRow
	if err := r.db.SelectContext(ctx, &scheduleRows, scheduleQuery); err != nil {
		return nil, fmt.Errorf("load committed schedules: %w", err)
	}
	if len(scheduleRows) == 0 {
		return nil, nil
	}

	ids := make([]string, len(scheduleRows))
	for i, s := range scheduleRows {
		ids[i] = s.ID
	}
	placementQuery, args, err := sqlx.In(
		`SELECT schedule_id, day, start_time, end_time, subject_id, faculty_id, classroom_id, type
		 FROM placements WHERE schedule_id IN (?) ORDER BY schedule_id, day, start_time`, ids)
	if err != nil {
		return nil, fmt.Errorf("build placements query: %w", err)
	}
	placementQuery = r.db.Rebind(placementQuery)
	var placementRows []placementRow
	if err := r.db.SelectContext(ctx, &placementRows, placementQuery, args...); err != nil {
		return nil, fmt.Errorf("load placements for committed schedules: %w", err)
	}

	placementsBySchedule := make(map[string][]domain.Placement, len(scheduleRows))
	for _, p := range placementRows {
		placementsBySchedule[p.ScheduleID] = append(placementsBySchedule[p.ScheduleID], domain.Placement{
			Day:         p.Day,
			StartTime:   p.StartTime,
			EndTime:     p.EndTime,
			SubjectID:   p.SubjectID,
			FacultyID:   p.FacultyID,
			ClassroomID: p.ClassroomID,
			Type:        domain.SubjectType(p.Type),
		})
	}

	schedules := make([]domain.Schedule, 0, len(scheduleRows))
	for _, s := range scheduleRows {
		schedules = append(schedules, domain.Schedule{
			Status:    domain.ScheduleStatus(s.Status),
			WeekSlots: placementsBySchedule[s.ID],
		})
	}
	return schedules, nil
}

type scheduleMeta struct {
	Warnings []string `json:"warnings"`
}

// SaveDraftSchedule persists the first option of a generation result as a
// draft schedule, replacing any prior placements for the same run. It
// implements orchestration.ScheduleWriter; the core scheduler package never
// calls this; persistence is an orchestration-layer concern.
func (r *PostgresRepository) SaveDraftSchedule(ctx context.Context, batchID string, result *scheduler.GenerateResult) error {
	if len(result.Options) == 0 {
		return fmt.Errorf("save draft schedule for batch %s: no options to save", batchID)
	}
	option := result.Options[0]

	meta, err := json.Marshal(scheduleMeta{Warnings: result.Warnings})
	if err != nil {
		return fmt.Errorf("marshal schedule metadata: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin draft schedule tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	scheduleID := uuid.NewString()
	const upsertSchedule = `
		INSERT INTO schedules (id, batch_id, status, meta)
		VALUES ($1, $2, 'draft', $3)
		ON CONFLICT (batch_id) WHERE status = 'draft'
		DO UPDATE SET meta = EXCLUDED.meta, updated_at = now()
		RETURNING id`
	if err := tx.GetContext(ctx, &scheduleID, upsertSchedule, scheduleID, batchID, types.JSONText(meta)); err != nil {
		return fmt.Errorf("upsert draft schedule for batch %s: %w", batchID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM placements WHERE schedule_id = $1`, scheduleID); err != nil {
		return fmt.Errorf("clear prior placements for schedule %s: %w", scheduleID, err)
	}

	const insertPlacement = `
		INSERT INTO placements (schedule_id, day, start_time, end_time, subject_id, faculty_id, classroom_id, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, p := range option.WeekSlots {
		if _, err := tx.ExecContext(ctx, insertPlacement, scheduleID, p.Day, p.StartTime, p.EndTime, p.SubjectID, p.FacultyID, p.ClassroomID, string(p.Type)); err != nil {
			return fmt.Errorf("insert placement for schedule %s: %w", scheduleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit draft schedule for batch %s: %w", batchID, err)
	}
	return nil
}
