package scheduler

import "github.com/campusforge/timetable-engine/internal/domain"

// slotKey identifies one (day, start-time) cell in the grid.
type slotKey struct {
	day   string
	start string
}

// ConflictIndex is the read-only busy-set snapshot derived once per run
// from committed (active or published) timetables. Containment checks are
// O(1); construction is O(total placements). The index never changes after
// construction, so it would be safe to share across goroutines, though each
// run builds its own.
type ConflictIndex struct {
	facultyBusy map[string]map[slotKey]struct{}
	roomBusy    map[string]map[slotKey]struct{}
}

// NewConflictIndex builds a ConflictIndex from every schedule whose status
// is committed (active or published); draft schedules are ignored so they
// do not block iterative generation of their own batch or anyone else's.
func NewConflictIndex(committed []domain.Schedule) ConflictIndex {
	idx := ConflictIndex{
		facultyBusy: make(map[string]map[slotKey]struct{}),
		roomBusy:    make(map[string]map[slotKey]struct{}),
	}
	for _, sch := range committed {
		if !sch.Status.Committed() {
			continue
		}
		for _, p := range sch.WeekSlots {
			idx.markFaculty(p.FacultyID, p.Day, p.StartTime)
			idx.markRoom(p.ClassroomID, p.Day, p.StartTime)
		}
	}
	return idx
}

func (c ConflictIndex) markFaculty(facultyID, day, start string) {
	key := slotKey{day: day, start: start}
	set, ok := c.facultyBusy[facultyID]
	if !ok {
		set = make(map[slotKey]struct{})
		c.facultyBusy[facultyID] = set
	}
	set[key] = struct{}{}
}

func (c ConflictIndex) markRoom(roomID, day, start string) {
	key := slotKey{day: day, start: start}
	set, ok := c.roomBusy[roomID]
	if !ok {
		set = make(map[slotKey]struct{})
		c.roomBusy[roomID] = set
	}
	set[key] = struct{}{}
}

// FacultyBusy reports whether the given faculty is already booked at
// (day, start) in a committed timetable.
func (c ConflictIndex) FacultyBusy(facultyID, day, start string) bool {
	set, ok := c.facultyBusy[facultyID]
	if !ok {
		return false
	}
	_, busy := set[slotKey{day: day, start: start}]
	return busy
}

// RoomBusy reports whether the given classroom is already booked at
// (day, start) in a committed timetable.
func (c ConflictIndex) RoomBusy(roomID, day, start string) bool {
	set, ok := c.roomBusy[roomID]
	if !ok {
		return false
	}
	_, busy := set[slotKey{day: day, start: start}]
	return busy
}
