package scheduler

import (
	"context"

	"github.com/campusforge/timetable-engine/internal/domain"
)

// Repository is the persistence abstraction the Engine consumes. It is
// implemented outside the core (see internal/repository); the core only
// ever reads through it, and only at the start of a run.
type Repository interface {
	// LoadBatch returns the batch with its bindings fully resolved, or a
	// not-found error if the batch does not exist.
	LoadBatch(ctx context.Context, id string) (domain.Batch, error)
	// LoadActiveClassrooms returns every classroom with Active=true.
	LoadActiveClassrooms(ctx context.Context) ([]domain.Classroom, error)
	// LoadCommittedTimetables returns every schedule whose status is
	// active or published; draft schedules must not be returned here.
	LoadCommittedTimetables(ctx context.Context) ([]domain.Schedule, error)
}
