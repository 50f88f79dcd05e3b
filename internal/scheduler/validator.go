package scheduler

import (
	"fmt"
	"sort"

	"github.com/campusforge/timetable-engine/internal/domain"
)

// ValidationResult is the outcome of an independent post-check against a
// produced schedule. It is used both as a safety net inside the Engine
// facade and as the oracle property-based tests check generated schedules
// against.
type ValidationResult struct {
	Valid  bool
	Issues []string
}

// Validator re-derives the busy-sets and per-subject hour totals from a
// finished schedule, independently of however the Scheduler built it, and
// reports any violation of the schedule invariants.
type Validator struct {
	grid     TimeGrid
	subjects map[string]domain.Subject
	rooms    map[string]domain.Classroom
}

// NewValidator builds a Validator for one scheduling run's reference data.
func NewValidator(grid TimeGrid, bindings []domain.BatchSubjectBinding, classrooms []domain.Classroom) Validator {
	v := Validator{
		grid:     grid,
		subjects: make(map[string]domain.Subject, len(bindings)),
		rooms:    make(map[string]domain.Classroom, len(classrooms)),
	}
	for _, b := range bindings {
		v.subjects[b.Subject.ID] = b.Subject
	}
	for _, c := range classrooms {
		v.rooms[c.ID] = c
	}
	return v
}

// Validate checks a schedule against its internal well-formedness
// properties: hour totals, faculty/room non-overlap, lab contiguity,
// non-lab daily cap, the lunch boundary, and room-type compatibility. It
// does not re-check conflict-freedom against other committed schedules;
// that is the ConflictIndex's job, built from data the Validator is never
// given.
func (v Validator) Validate(schedule domain.Schedule) ValidationResult {
	var issues []string

	// ownerSlot keys a faculty or room id to one (day, start) cell, so two
	// different faculty or rooms in the same cell are not an overlap.
	type ownerSlot struct {
		id   string
		slot slotKey
	}
	facultySeen := make(map[ownerSlot]struct{})
	roomSeen := make(map[ownerSlot]string)
	hoursBySubject := make(map[string]int)
	daysBySubject := make(map[string]map[string]struct{})
	labDaySet := make(map[string]map[string]struct{})
	labIndices := make(map[string][]int)

	for _, p := range schedule.WeekSlots {
		key := slotKey{day: p.Day, start: p.StartTime}

		facultyKey := ownerSlot{id: p.FacultyID, slot: key}
		if _, exists := facultySeen[facultyKey]; exists {
			issues = append(issues, fmt.Sprintf("faculty %s double-booked at %s %s", p.FacultyID, p.Day, p.StartTime))
		}
		facultySeen[facultyKey] = struct{}{}

		roomKey := ownerSlot{id: p.ClassroomID, slot: key}
		if prev, exists := roomSeen[roomKey]; exists {
			issues = append(issues, fmt.Sprintf("room %s double-booked at %s %s (also holds %s)", p.ClassroomID, p.Day, p.StartTime, prev))
		}
		roomSeen[roomKey] = p.SubjectID

		hoursBySubject[p.SubjectID]++

		if daysBySubject[p.SubjectID] == nil {
			daysBySubject[p.SubjectID] = make(map[string]struct{})
		}
		daysBySubject[p.SubjectID][p.Day] = struct{}{}

		startIdx := v.grid.SlotIndexByStart(p.StartTime)
		if startIdx < 0 {
			issues = append(issues, fmt.Sprintf("placement for %s at %s has unrecognized start time %s", p.SubjectID, p.Day, p.StartTime))
			continue
		}
		if v.grid.CrossesLunch(startIdx, 1) {
			issues = append(issues, fmt.Sprintf("placement for %s on %s at %s crosses the lunch boundary", p.SubjectID, p.Day, p.StartTime))
		}

		subj, ok := v.subjects[p.SubjectID]
		if !ok {
			issues = append(issues, fmt.Sprintf("placement references unknown subject %s", p.SubjectID))
			continue
		}
		room, ok := v.rooms[p.ClassroomID]
		if !ok {
			issues = append(issues, fmt.Sprintf("placement references unknown classroom %s", p.ClassroomID))
			continue
		}
		if subj.Type.IsLab() {
			if room.Type != domain.RoomLab {
				issues = append(issues, fmt.Sprintf("lab subject %s placed in non-lab room %s", subj.ID, room.ID))
			}
			if labDaySet[subj.ID] == nil {
				labDaySet[subj.ID] = make(map[string]struct{})
			}
			labDaySet[subj.ID][p.Day] = struct{}{}
			labIndices[subj.ID] = append(labIndices[subj.ID], startIdx)
		} else {
			if room.Type != domain.RoomLecture && room.Type != domain.RoomSeminar {
				issues = append(issues, fmt.Sprintf("non-lab subject %s placed in lab room %s", subj.ID, room.ID))
			}
		}
	}

	for subjectID, days := range daysBySubject {
		subj, ok := v.subjects[subjectID]
		if !ok || subj.Type.IsLab() {
			continue
		}
		if len(days) != hoursBySubject[subjectID] {
			issues = append(issues, fmt.Sprintf("non-lab subject %s has more than one placement on a day", subjectID))
		}
	}

	for subjectID, indices := range labIndices {
		if len(labDaySet[subjectID]) != 1 {
			issues = append(issues, fmt.Sprintf("lab subject %s placements span more than one day", subjectID))
			continue
		}
		sort.Ints(indices)
		for i := 1; i < len(indices); i++ {
			if indices[i] != indices[i-1]+1 {
				issues = append(issues, fmt.Sprintf("lab subject %s placements are not contiguous", subjectID))
				break
			}
		}
		if v.grid.CrossesLunch(indices[0], len(indices)) {
			issues = append(issues, fmt.Sprintf("lab subject %s block crosses the lunch boundary", subjectID))
		}
	}

	for id, subj := range v.subjects {
		if hoursBySubject[id] != subj.HoursPerWeek {
			issues = append(issues, fmt.Sprintf("subject %s has %d placed hours, expected %d", id, hoursBySubject[id], subj.HoursPerWeek))
		}
	}

	return ValidationResult{Valid: len(issues) == 0, Issues: issues}
}
