package scheduler

import (
	"context"
	"fmt"

	"github.com/campusforge/timetable-engine/internal/domain"
	apperrors "github.com/campusforge/timetable-engine/pkg/errors"
)

// Option is one candidate schedule the Engine returns. The current design
// always returns exactly one, wrapped in a slice so a future multi-option
// variant (distinct cost profiles) can be added without breaking callers.
type Option struct {
	Name        string
	Description string
	WeekSlots   []domain.Placement
}

// GenerateResult is the Engine facade's output.
type GenerateResult struct {
	Options  []Option
	Warnings []string
}

// Engine orchestrates the Repository, ConflictIndex, ResourcePool,
// Scheduler and Validator into the single entry point the rest of the
// system calls.
type Engine struct {
	repo Repository
	grid TimeGrid
}

// NewEngine builds an Engine against a Repository and a TimeGrid. Pass
// DefaultTimeGrid() for the standard grid configuration.
func NewEngine(repo Repository, grid TimeGrid) Engine {
	return Engine{repo: repo, grid: grid}
}

// Generate produces a feasible weekly schedule for the given batch, or a
// typed *errors.Error describing why it could not.
func (e Engine) Generate(ctx context.Context, batchID string) (*GenerateResult, error) {
	batch, err := e.repo.LoadBatch(ctx, batchID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrNotFound.Code, apperrors.ErrNotFound.Status, fmt.Sprintf("batch %s not found", batchID))
	}

	if issues := validateBindings(batch.Bindings); len(issues) > 0 {
		return nil, apperrors.Wrap(&InvalidInputError{Issues: issues}, apperrors.ErrInvalidInput.Code, apperrors.ErrInvalidInput.Status, "batch has invalid bindings")
	}

	required := 0
	for _, b := range batch.Bindings {
		required += b.Subject.HoursPerWeek
	}
	if required > e.grid.UsableSlotsPerWeek() {
		err := &HoursExceedCapacityError{RequiredHours: required, UsableSlots: e.grid.UsableSlotsPerWeek()}
		return nil, apperrors.Wrap(err, apperrors.ErrHoursExceedCapacity.Code, apperrors.ErrHoursExceedCapacity.Status, err.Error())
	}

	classrooms, err := e.repo.LoadActiveClassrooms(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal.Code, apperrors.ErrInternal.Status, "failed to load classrooms")
	}
	committed, err := e.repo.LoadCommittedTimetables(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal.Code, apperrors.ErrInternal.Status, "failed to load committed timetables")
	}

	conflictIdx := NewConflictIndex(committed)
	pool := NewResourcePool(classrooms)

	sched := NewScheduler(e.grid, conflictIdx, pool)
	result, err := sched.Run(batch)
	if err != nil {
		return nil, translateSchedulerError(err)
	}

	validator := NewValidator(e.grid, batch.Bindings, classrooms)
	outcome := validator.Validate(domain.Schedule{BatchID: batch.ID, WeekSlots: result.Placements})
	if !outcome.Valid {
		return nil, apperrors.New(apperrors.ErrInternal.Code, apperrors.ErrInternal.Status,
			fmt.Sprintf("scheduler produced an invalid schedule: %v", outcome.Issues))
	}

	return &GenerateResult{
		Options: []Option{{
			Name:        fmt.Sprintf("%s weekly schedule", batch.Code),
			Description: "generated by the hardest-first greedy scheduler",
			WeekSlots:   result.Placements,
		}},
		Warnings: result.Warnings,
	}, nil
}

// translateSchedulerError maps the scheduler's typed errors onto the
// engine's error taxonomy.
func translateSchedulerError(err error) error {
	switch e := err.(type) {
	case *InvalidInputError:
		return apperrors.Wrap(e, apperrors.ErrInvalidInput.Code, apperrors.ErrInvalidInput.Status, e.Error())
	case *HoursExceedCapacityError:
		return apperrors.Wrap(e, apperrors.ErrHoursExceedCapacity.Code, apperrors.ErrHoursExceedCapacity.Status, e.Error())
	case *MissingRoomTypeError:
		return apperrors.Wrap(e, apperrors.ErrMissingRoomType.Code, apperrors.ErrMissingRoomType.Status, e.Error())
	case *UnplaceableError:
		return apperrors.Wrap(e, apperrors.ErrUnplaceable.Code, apperrors.ErrUnplaceable.Status, e.Error())
	default:
		return apperrors.Wrap(err, apperrors.ErrInternal.Code, apperrors.ErrInternal.Status, "scheduler failed")
	}
}
