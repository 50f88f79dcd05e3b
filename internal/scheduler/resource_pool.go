package scheduler

import (
	"sort"

	"github.com/campusforge/timetable-engine/internal/domain"
)

// ResourcePool classifies the active classrooms by type and orders each
// view ascending by capacity (best-fit first, to minimize wasted seats).
type ResourcePool struct {
	lectureRooms []domain.Classroom
	labRooms     []domain.Classroom
}

// NewResourcePool partitions the given active classrooms into the lecture
// (lecture+seminar) and lab views, each sorted ascending by capacity with a
// deterministic tiebreak on classroom id.
func NewResourcePool(classrooms []domain.Classroom) ResourcePool {
	pool := ResourcePool{}
	for _, c := range classrooms {
		switch c.Type {
		case domain.RoomLab:
			pool.labRooms = append(pool.labRooms, c)
		case domain.RoomLecture, domain.RoomSeminar:
			pool.lectureRooms = append(pool.lectureRooms, c)
		}
	}
	sortRoomsByCapacity(pool.lectureRooms)
	sortRoomsByCapacity(pool.labRooms)
	return pool
}

func sortRoomsByCapacity(rooms []domain.Classroom) {
	sort.SliceStable(rooms, func(i, j int) bool {
		if rooms[i].Capacity != rooms[j].Capacity {
			return rooms[i].Capacity < rooms[j].Capacity
		}
		return rooms[i].ID < rooms[j].ID
	})
}

// roomsFor returns the ordered candidate view for a subject type: lab
// subjects draw from labRooms, everything else from lectureRooms.
func (p ResourcePool) roomsFor(t domain.SubjectType) []domain.Classroom {
	if t.IsLab() {
		return p.labRooms
	}
	return p.lectureRooms
}

// HasRoomType reports whether the pool has any room at all for the given
// subject type, used to fail fast with MissingRoomType before the greedy
// search begins.
func (p ResourcePool) HasRoomType(t domain.SubjectType) bool {
	return len(p.roomsFor(t)) > 0
}

// Candidates returns the ordered room candidates to try for a subject of
// the given type and a batch of the given strength. When at least one room
// of the required type can seat the batch, it returns every such room in
// ascending (best-fit) capacity order and fallback=false. When none can,
// it falls back to the single largest room of the required type, with
// fallback=true so the caller can attach a capacity_fallback warning.
func (p ResourcePool) Candidates(t domain.SubjectType, strength int) (rooms []domain.Classroom, fallback bool) {
	pool := p.roomsFor(t)
	fitting := make([]domain.Classroom, 0, len(pool))
	for _, c := range pool {
		if c.Capacity >= strength {
			fitting = append(fitting, c)
		}
	}
	if len(fitting) > 0 {
		return fitting, false
	}
	if len(pool) == 0 {
		return nil, false
	}
	return []domain.Classroom{pool[len(pool)-1]}, true
}
