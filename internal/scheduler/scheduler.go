package scheduler

import (
	"fmt"
	"sort"

	"github.com/campusforge/timetable-engine/internal/domain"
)

// Result is the outcome of one successful scheduling run.
type Result struct {
	Placements []domain.Placement
	Warnings   []string
}

// Scheduler runs the hardest-first greedy placement algorithm against one
// batch, given a TimeGrid, a ConflictIndex snapshot of
// committed timetables, and a ResourcePool of active classrooms. A
// Scheduler owns no mutable state between runs: Run rebuilds its local
// busy-sets from scratch every call.
type Scheduler struct {
	grid     TimeGrid
	conflict ConflictIndex
	pool     ResourcePool
}

// NewScheduler wires the three inputs a run needs.
func NewScheduler(grid TimeGrid, conflict ConflictIndex, pool ResourcePool) Scheduler {
	return Scheduler{grid: grid, conflict: conflict, pool: pool}
}

// blockShape is the per-binding placement unit: how many slots make up one
// contiguous block, and how many such blocks must be placed.
type blockShape struct {
	binding       domain.BatchSubjectBinding
	blockDuration int
	iterations    int
}

// Run places every binding's weekly hours and returns the placements in
// canonical order (day ascending per the grid's day order, startTime
// ascending), or a typed error describing why the batch could not be
// scheduled. Iteration order is total and deterministic, so identical
// inputs always produce identical output.
func (s Scheduler) Run(batch domain.Batch) (*Result, error) {
	if issues := validateBindings(batch.Bindings); len(issues) > 0 {
		return nil, &InvalidInputError{Issues: issues}
	}

	required := 0
	for _, b := range batch.Bindings {
		required += b.Subject.HoursPerWeek
	}
	if required > s.grid.UsableSlotsPerWeek() {
		return nil, &HoursExceedCapacityError{RequiredHours: required, UsableSlots: s.grid.UsableSlotsPerWeek()}
	}

	shapes := orderedShapes(batch.Bindings)

	localFaculty := newLocalBusy()
	localRoom := newLocalBusy()
	placedToday := make(map[string]map[string]bool) // subjectID -> day -> placed

	var placements []domain.Placement
	warnedFallback := make(map[string]bool)
	var warnings []string

	for _, shape := range shapes {
		subj := shape.binding.Subject
		fac := shape.binding.Faculty

		if !s.pool.HasRoomType(subj.Type) {
			return nil, &MissingRoomTypeError{SubjectID: subj.ID, SubjectCode: subj.Code, RoomType: string(roomTypeFor(subj.Type))}
		}

		for it := 0; it < shape.iterations; it++ {
			placed, fallbackUsed, facultyEverFree := s.placeOneBlock(subj, fac, batch.Strength, shape.blockDuration, localFaculty, localRoom, placedToday, &placements)
			if !placed {
				reason := "faculty"
				if facultyEverFree {
					reason = "room"
				}
				return nil, &UnplaceableError{SubjectID: subj.ID, SubjectCode: subj.Code, Reason: reason}
			}
			if fallbackUsed && !warnedFallback[subj.ID] {
				warnedFallback[subj.ID] = true
				warnings = append(warnings, "capacity_fallback")
			}
		}
	}

	sortCanonical(placements, s.grid.Days())

	return &Result{Placements: placements, Warnings: warnings}, nil
}

// placeOneBlock attempts to place a single contiguous block for one
// subject occurrence, trying days and start slots in grid order and rooms
// in best-fit order.
func (s Scheduler) placeOneBlock(
	subj domain.Subject,
	fac domain.Faculty,
	strength int,
	blockDuration int,
	localFaculty, localRoom localBusy,
	placedToday map[string]map[string]bool,
	placements *[]domain.Placement,
) (placed bool, fallbackUsed bool, facultyEverFree bool) {
	days := s.grid.Days()
	slotCount := s.grid.SlotCount()

	for _, day := range days {
		if !subj.Type.IsLab() && placedToday[subj.ID][day] {
			continue
		}
		for t := 0; t+blockDuration <= slotCount; t++ {
			if s.grid.CrossesLunch(t, blockDuration) {
				continue
			}
			if !s.facultyFree(fac.ID, day, t, blockDuration, localFaculty) {
				continue
			}
			facultyEverFree = true

			candidates, fallback := s.pool.Candidates(subj.Type, strength)
			for _, room := range candidates {
				if !s.roomFree(room.ID, day, t, blockDuration, localRoom) {
					continue
				}
				s.commitBlock(subj, fac, room.ID, day, t, blockDuration, localFaculty, localRoom, placements)
				if placedToday[subj.ID] == nil {
					placedToday[subj.ID] = make(map[string]bool)
				}
				placedToday[subj.ID][day] = true
				return true, fallback, facultyEverFree
			}
		}
	}
	return false, false, facultyEverFree
}

func (s Scheduler) facultyFree(facultyID, day string, t, duration int, local localBusy) bool {
	for k := t; k < t+duration; k++ {
		slot, _ := s.grid.SlotAt(k)
		if s.conflict.FacultyBusy(facultyID, day, slot.Start) || local.busy(facultyID, day, slot.Start) {
			return false
		}
	}
	return true
}

func (s Scheduler) roomFree(roomID, day string, t, duration int, local localBusy) bool {
	for k := t; k < t+duration; k++ {
		slot, _ := s.grid.SlotAt(k)
		if s.conflict.RoomBusy(roomID, day, slot.Start) || local.busy(roomID, day, slot.Start) {
			return false
		}
	}
	return true
}

func (s Scheduler) commitBlock(subj domain.Subject, fac domain.Faculty, roomID, day string, t, duration int, localFaculty, localRoom localBusy, placements *[]domain.Placement) {
	for k := t; k < t+duration; k++ {
		slot, _ := s.grid.SlotAt(k)
		localFaculty.mark(fac.ID, day, slot.Start)
		localRoom.mark(roomID, day, slot.Start)
		*placements = append(*placements, domain.Placement{
			Day:         day,
			StartTime:   slot.Start,
			EndTime:     slot.End,
			SubjectID:   subj.ID,
			FacultyID:   fac.ID,
			ClassroomID: roomID,
			Type:        subj.Type,
		})
	}
}

// localBusy is the per-run mutable busy-set the greedy search marks as it
// commits blocks, distinct from the immutable external ConflictIndex.
type localBusy map[string]map[slotKey]struct{}

func newLocalBusy() localBusy {
	return make(localBusy)
}

func (b localBusy) mark(id, day, start string) {
	set, ok := b[id]
	if !ok {
		set = make(map[slotKey]struct{})
		b[id] = set
	}
	set[slotKey{day: day, start: start}] = struct{}{}
}

func (b localBusy) busy(id, day, start string) bool {
	set, ok := b[id]
	if !ok {
		return false
	}
	_, found := set[slotKey{day: day, start: start}]
	return found
}

// orderedShapes sorts bindings into hardest-first placement order: block
// duration descending, then weekly hours descending, then a deterministic
// tiebreak on subject code/id.
func orderedShapes(bindings []domain.BatchSubjectBinding) []blockShape {
	shapes := make([]blockShape, len(bindings))
	for i, b := range bindings {
		duration := 1
		iterations := b.Subject.HoursPerWeek
		if b.Subject.Type.IsLab() {
			duration = b.Subject.HoursPerWeek
			iterations = 1
		}
		shapes[i] = blockShape{binding: b, blockDuration: duration, iterations: iterations}
	}
	sort.SliceStable(shapes, func(i, j int) bool {
		if shapes[i].blockDuration != shapes[j].blockDuration {
			return shapes[i].blockDuration > shapes[j].blockDuration
		}
		if shapes[i].binding.Subject.HoursPerWeek != shapes[j].binding.Subject.HoursPerWeek {
			return shapes[i].binding.Subject.HoursPerWeek > shapes[j].binding.Subject.HoursPerWeek
		}
		if shapes[i].binding.Subject.Code != shapes[j].binding.Subject.Code {
			return shapes[i].binding.Subject.Code < shapes[j].binding.Subject.Code
		}
		return shapes[i].binding.Subject.ID < shapes[j].binding.Subject.ID
	})
	return shapes
}

// sortCanonical orders placements day-ascending (per the grid's day
// order), then startTime ascending, so API responses are stable across runs.
func sortCanonical(placements []domain.Placement, days []string) {
	dayIndex := make(map[string]int, len(days))
	for i, d := range days {
		dayIndex[d] = i
	}
	sort.SliceStable(placements, func(i, j int) bool {
		if dayIndex[placements[i].Day] != dayIndex[placements[j].Day] {
			return dayIndex[placements[i].Day] < dayIndex[placements[j].Day]
		}
		return placements[i].StartTime < placements[j].StartTime
	})
}

func roomTypeFor(t domain.SubjectType) domain.RoomType {
	if t.IsLab() {
		return domain.RoomLab
	}
	return domain.RoomLecture
}

func validateBindings(bindings []domain.BatchSubjectBinding) []string {
	var issues []string
	if len(bindings) == 0 {
		issues = append(issues, "batch has no subject bindings")
	}
	for i, b := range bindings {
		if b.Subject.ID == "" {
			issues = append(issues, indexIssue(i, "missing subject"))
		}
		if b.Faculty.ID == "" {
			issues = append(issues, indexIssue(i, "missing faculty"))
		}
		if b.Subject.HoursPerWeek <= 0 {
			issues = append(issues, indexIssue(i, "hoursPerWeek must be positive"))
		}
	}
	return issues
}

func indexIssue(i int, msg string) string {
	return fmt.Sprintf("binding[%d]: %s", i, msg)
}
