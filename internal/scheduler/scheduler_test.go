package scheduler

import (
	"testing"

	"github.com/campusforge/timetable-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func theoryBinding(subjectID, code string, hours int, facultyID string) domain.BatchSubjectBinding {
	return domain.BatchSubjectBinding{
		Subject: domain.Subject{ID: subjectID, Code: code, Name: code, Type: domain.SubjectTheory, HoursPerWeek: hours},
		Faculty: domain.Faculty{ID: facultyID, Name: facultyID},
	}
}

func labBinding(subjectID, code string, hours int, facultyID string) domain.BatchSubjectBinding {
	return domain.BatchSubjectBinding{
		Subject: domain.Subject{ID: subjectID, Code: code, Name: code, Type: domain.SubjectLab, HoursPerWeek: hours},
		Faculty: domain.Faculty{ID: facultyID, Name: facultyID},
	}
}

func lectureRoom(id string, capacity int) domain.Classroom {
	return domain.Classroom{ID: id, Name: id, Capacity: capacity, Type: domain.RoomLecture, Active: true}
}

func labRoom(id string, capacity int) domain.Classroom {
	return domain.Classroom{ID: id, Name: id, Capacity: capacity, Type: domain.RoomLab, Active: true}
}

// Scenario 1: trivial feasible.
func TestSchedulerTrivialFeasible(t *testing.T) {
	grid := DefaultTimeGrid()
	batch := domain.Batch{ID: "b1", Code: "B1", Strength: 30, Bindings: []domain.BatchSubjectBinding{
		theoryBinding("math", "MATH", 3, "f1"),
	}}
	pool := NewResourcePool([]domain.Classroom{lectureRoom("r1", 40)})
	idx := NewConflictIndex(nil)

	result, err := NewScheduler(grid, idx, pool).Run(batch)
	require.NoError(t, err)
	require.Len(t, result.Placements, 3)

	wantDays := []string{"Monday", "Tuesday", "Wednesday"}
	for i, p := range result.Placements {
		assert.Equal(t, wantDays[i], p.Day)
		assert.Equal(t, "09:00", p.StartTime)
		assert.Equal(t, "10:00", p.EndTime)
		assert.Equal(t, "r1", p.ClassroomID)
		assert.Equal(t, "f1", p.FacultyID)
	}
}

// Scenario 2: a lab block stays contiguous without spanning the lunch
// boundary, so it lands entirely after lunch.
func TestSchedulerLabContiguity(t *testing.T) {
	grid := DefaultTimeGrid()
	batch := domain.Batch{ID: "b1", Code: "B1", Strength: 30, Bindings: []domain.BatchSubjectBinding{
		labBinding("lab", "LAB", 4, "f1"),
	}}
	pool := NewResourcePool([]domain.Classroom{labRoom("lr1", 30)})
	idx := NewConflictIndex(nil)

	result, err := NewScheduler(grid, idx, pool).Run(batch)
	require.NoError(t, err)
	require.Len(t, result.Placements, 4)

	wantStarts := []string{"13:00", "14:00", "15:00", "16:00"}
	for i, p := range result.Placements {
		assert.Equal(t, "Monday", p.Day)
		assert.Equal(t, wantStarts[i], p.StartTime)
		assert.Equal(t, "lr1", p.ClassroomID)
	}
}

// Scenario 3: cross-batch faculty conflict from a committed timetable.
func TestSchedulerAvoidsExternalFacultyConflict(t *testing.T) {
	grid := DefaultTimeGrid()
	existing := domain.Schedule{
		BatchID: "other",
		Status:  domain.StatusPublished,
		WeekSlots: []domain.Placement{
			{Day: "Monday", StartTime: "09:00", EndTime: "10:00", FacultyID: "f1", ClassroomID: "r-other"},
			{Day: "Monday", StartTime: "10:00", EndTime: "11:00", FacultyID: "f1", ClassroomID: "r-other"},
		},
	}
	batch := domain.Batch{ID: "b1", Code: "B1", Strength: 30, Bindings: []domain.BatchSubjectBinding{
		theoryBinding("math", "MATH", 3, "f1"),
	}}
	pool := NewResourcePool([]domain.Classroom{lectureRoom("r1", 40)})
	idx := NewConflictIndex([]domain.Schedule{existing})

	result, err := NewScheduler(grid, idx, pool).Run(batch)
	require.NoError(t, err)
	require.Len(t, result.Placements, 3)

	assert.Equal(t, domain.Placement{Day: "Monday", StartTime: "11:00", EndTime: "12:00", SubjectID: "math", FacultyID: "f1", ClassroomID: "r1", Type: domain.SubjectTheory}, result.Placements[0])
	assert.Equal(t, "Tuesday", result.Placements[1].Day)
	assert.Equal(t, "09:00", result.Placements[1].StartTime)
	assert.Equal(t, "Wednesday", result.Placements[2].Day)
	assert.Equal(t, "09:00", result.Placements[2].StartTime)
}

// Scenario 4: capacity fallback.
func TestSchedulerCapacityFallback(t *testing.T) {
	grid := DefaultTimeGrid()
	batch := domain.Batch{ID: "b1", Code: "B1", Strength: 60, Bindings: []domain.BatchSubjectBinding{
		theoryBinding("math", "MATH", 1, "f1"),
	}}
	pool := NewResourcePool([]domain.Classroom{lectureRoom("small", 40), lectureRoom("big", 50)})
	idx := NewConflictIndex(nil)

	result, err := NewScheduler(grid, idx, pool).Run(batch)
	require.NoError(t, err)
	require.Len(t, result.Placements, 1)
	assert.Equal(t, "big", result.Placements[0].ClassroomID)
	assert.Contains(t, result.Warnings, "capacity_fallback")
}

// Scenario 5: infeasible due to hours overflow.
func TestSchedulerHoursExceedCapacity(t *testing.T) {
	grid := DefaultTimeGrid()
	bindings := make([]domain.BatchSubjectBinding, 0, 40)
	for i := 0; i < 40; i++ {
		bindings = append(bindings, theoryBinding(subjectIDFor(i), subjectIDFor(i), 1, "f1"))
	}
	batch := domain.Batch{ID: "b1", Code: "B1", Strength: 30, Bindings: bindings}
	pool := NewResourcePool([]domain.Classroom{lectureRoom("r1", 40)})
	idx := NewConflictIndex(nil)

	_, err := NewScheduler(grid, idx, pool).Run(batch)
	require.Error(t, err)
	var hoursErr *HoursExceedCapacityError
	require.ErrorAs(t, err, &hoursErr)
	assert.Equal(t, 40, hoursErr.RequiredHours)
	assert.Equal(t, grid.UsableSlotsPerWeek(), hoursErr.UsableSlots)
}

func subjectIDFor(i int) string {
	return string(rune('A' + i%26))
}

// Scenario 6: unplaceable because every lab room is externally saturated.
func TestSchedulerUnplaceableRoomSaturation(t *testing.T) {
	grid := DefaultTimeGrid()
	var existing []domain.Schedule
	for _, day := range grid.Days() {
		existing = append(existing,
			domain.Schedule{Status: domain.StatusPublished, WeekSlots: []domain.Placement{
				{Day: day, StartTime: "09:00", FacultyID: "other", ClassroomID: "lr1"},
				{Day: day, StartTime: "10:00", FacultyID: "other", ClassroomID: "lr1"},
				{Day: day, StartTime: "11:00", FacultyID: "other", ClassroomID: "lr1"},
				{Day: day, StartTime: "13:00", FacultyID: "other", ClassroomID: "lr1"},
				{Day: day, StartTime: "14:00", FacultyID: "other", ClassroomID: "lr1"},
				{Day: day, StartTime: "15:00", FacultyID: "other", ClassroomID: "lr1"},
				{Day: day, StartTime: "16:00", FacultyID: "other", ClassroomID: "lr1"},
			}})
	}
	batch := domain.Batch{ID: "b1", Code: "B1", Strength: 30, Bindings: []domain.BatchSubjectBinding{
		labBinding("lab", "LAB", 4, "f1"),
	}}
	pool := NewResourcePool([]domain.Classroom{labRoom("lr1", 30)})
	idx := NewConflictIndex(existing)

	_, err := NewScheduler(grid, idx, pool).Run(batch)
	require.Error(t, err)
	var unplaceable *UnplaceableError
	require.ErrorAs(t, err, &unplaceable)
	assert.Equal(t, "lab", unplaceable.SubjectID)
	assert.Equal(t, "room", unplaceable.Reason)
}

// Determinism: identical inputs produce bit-for-bit identical output.
func TestSchedulerDeterminism(t *testing.T) {
	grid := DefaultTimeGrid()
	batch := domain.Batch{ID: "b1", Code: "B1", Strength: 30, Bindings: []domain.BatchSubjectBinding{
		theoryBinding("math", "MATH", 3, "f1"),
		labBinding("lab", "LAB", 4, "f2"),
		theoryBinding("phys", "PHYS", 2, "f3"),
	}}
	pool := NewResourcePool([]domain.Classroom{lectureRoom("r1", 40), lectureRoom("r2", 35), labRoom("lr1", 30)})
	idx := NewConflictIndex(nil)

	r1, err1 := NewScheduler(grid, idx, pool).Run(batch)
	r2, err2 := NewScheduler(grid, idx, pool).Run(batch)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, r1.Placements, r2.Placements)
	assert.Equal(t, r1.Warnings, r2.Warnings)
}

// Validator agreement: every schedule the scheduler emits passes the
// independent Validator.
func TestSchedulerOutputPassesValidator(t *testing.T) {
	grid := DefaultTimeGrid()
	bindings := []domain.BatchSubjectBinding{
		theoryBinding("math", "MATH", 3, "f1"),
		labBinding("lab", "LAB", 4, "f2"),
		theoryBinding("phys", "PHYS", 5, "f3"),
	}
	batch := domain.Batch{ID: "b1", Code: "B1", Strength: 30, Bindings: bindings}
	classrooms := []domain.Classroom{lectureRoom("r1", 40), lectureRoom("r2", 35), labRoom("lr1", 30)}
	pool := NewResourcePool(classrooms)
	idx := NewConflictIndex(nil)

	result, err := NewScheduler(grid, idx, pool).Run(batch)
	require.NoError(t, err)

	validator := NewValidator(grid, bindings, classrooms)
	outcome := validator.Validate(domain.Schedule{BatchID: batch.ID, WeekSlots: result.Placements})
	assert.True(t, outcome.Valid, "issues: %v", outcome.Issues)
}

func TestTimeGridCrossesLunch(t *testing.T) {
	grid := DefaultTimeGrid()
	assert.True(t, grid.CrossesLunch(0, 4))
	assert.True(t, grid.CrossesLunch(2, 2))
	assert.False(t, grid.CrossesLunch(3, 4))
	assert.False(t, grid.CrossesLunch(0, 1))
}

func TestResourcePoolBestFitOrdering(t *testing.T) {
	pool := NewResourcePool([]domain.Classroom{lectureRoom("big", 100), lectureRoom("small", 30), lectureRoom("mid", 50)})
	candidates, fallback := pool.Candidates(domain.SubjectTheory, 30)
	require.False(t, fallback)
	require.Len(t, candidates, 3)
	assert.Equal(t, "small", candidates[0].ID)
	assert.Equal(t, "mid", candidates[1].ID)
	assert.Equal(t, "big", candidates[2].ID)
}

func TestResourcePoolMissingRoomType(t *testing.T) {
	pool := NewResourcePool([]domain.Classroom{lectureRoom("r1", 40)})
	assert.False(t, pool.HasRoomType(domain.SubjectLab))

	grid := DefaultTimeGrid()
	batch := domain.Batch{ID: "b1", Code: "B1", Strength: 30, Bindings: []domain.BatchSubjectBinding{
		labBinding("lab", "LAB", 2, "f1"),
	}}
	_, err := NewScheduler(grid, NewConflictIndex(nil), pool).Run(batch)
	require.Error(t, err)
	var missing *MissingRoomTypeError
	require.ErrorAs(t, err, &missing)
}
