package scheduler

import "fmt"

// Slot is one fixed one-hour teaching period.
type Slot struct {
	Start string
	End   string
	Label string
}

// TimeGrid is the static, immutable shape of a week: its working days and
// its fixed one-hour slots, plus the lunch-boundary rule no block may span.
// It is a pure value type: deterministic and side-effect-free.
type TimeGrid struct {
	days               []string
	slots              []Slot
	lunchBoundaryIndex int
}

// DefaultTimeGrid returns the standard weekly grid: Monday through Friday,
// 09:00-12:00 and 13:00-17:00, lunch sitting after slot 2.
func DefaultTimeGrid() TimeGrid {
	return TimeGrid{
		days: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		slots: []Slot{
			{Start: "09:00", End: "10:00", Label: "morning"},
			{Start: "10:00", End: "11:00", Label: "morning"},
			{Start: "11:00", End: "12:00", Label: "morning"},
			{Start: "13:00", End: "14:00", Label: "afternoon"},
			{Start: "14:00", End: "15:00", Label: "afternoon"},
			{Start: "15:00", End: "16:00", Label: "afternoon"},
			{Start: "16:00", End: "17:00", Label: "afternoon"},
		},
		lunchBoundaryIndex: 3,
	}
}

// NewTimeGrid builds a grid from explicit configuration. When days or slots
// differ from the default, the caller must supply the index of the first
// slot after the lunch break (3 in the default grid); there is no way to
// infer it from slot labels alone.
func NewTimeGrid(days []string, slots []Slot, lunchBoundaryIndex int) (TimeGrid, error) {
	if len(days) == 0 {
		return TimeGrid{}, fmt.Errorf("time grid: at least one day is required")
	}
	if len(slots) == 0 {
		return TimeGrid{}, fmt.Errorf("time grid: at least one slot is required")
	}
	if lunchBoundaryIndex < 0 || lunchBoundaryIndex > len(slots) {
		return TimeGrid{}, fmt.Errorf("time grid: lunch boundary index %d out of range [0,%d]", lunchBoundaryIndex, len(slots))
	}
	return TimeGrid{days: append([]string(nil), days...), slots: append([]Slot(nil), slots...), lunchBoundaryIndex: lunchBoundaryIndex}, nil
}

// Days returns the grid's working-day identifiers in canonical order.
func (g TimeGrid) Days() []string {
	return append([]string(nil), g.days...)
}

// Slots returns the grid's slots in canonical order.
func (g TimeGrid) Slots() []Slot {
	return append([]Slot(nil), g.slots...)
}

// SlotCount is the number of one-hour slots per day.
func (g TimeGrid) SlotCount() int {
	return len(g.slots)
}

// UsableSlotsPerWeek is the total number of one-hour slots across the week.
// There is no lunch "slot" to subtract; the break simply sits between slot
// indices.
func (g TimeGrid) UsableSlotsPerWeek() int {
	return len(g.days) * len(g.slots)
}

// SlotIndexByStart returns the index of the slot starting at the given
// "HH:MM" time, or -1 if no slot starts there.
func (g TimeGrid) SlotIndexByStart(start string) int {
	for i, s := range g.slots {
		if s.Start == start {
			return i
		}
	}
	return -1
}

// SlotAt returns the slot at the given index.
func (g TimeGrid) SlotAt(i int) (Slot, bool) {
	if i < 0 || i >= len(g.slots) {
		return Slot{}, false
	}
	return g.slots[i], true
}

// CrossesLunch reports whether a contiguous block starting at slot index
// startIdx with the given duration (in slots) would span the lunch
// boundary. A block crosses lunch when it begins before the first
// post-lunch slot and extends into it.
func (g TimeGrid) CrossesLunch(startIdx, duration int) bool {
	if startIdx+duration > len(g.slots) {
		return false // caller already rejects this as out-of-range
	}
	return startIdx <= g.lunchBoundaryIndex-1 && startIdx+duration > g.lunchBoundaryIndex
}
