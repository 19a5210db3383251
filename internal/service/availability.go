package service

import "github.com/maplewood-sis/scheduling-api/internal/models"

type ownerKind uint8

const (
	ownerTeacher ownerKind = iota
	ownerClassroom
)

type owner struct {
	kind ownerKind
	id   string
}

func teacherOwner(id string) owner   { return owner{kind: ownerTeacher, id: id} }
func classroomOwner(id string) owner { return owner{kind: ownerClassroom, id: id} }

type busySlot struct {
	start int
	end   int
}

type slotKey struct {
	owner owner
	day   models.Weekday
}

// AvailabilityIndex tracks which weekly time ranges are already claimed per
// teacher and per classroom. Reservations are journaled so a partially placed
// meeting pattern can be rolled back to a checkpoint when the search dead-ends.
type AvailabilityIndex struct {
	busy    map[slotKey][]busySlot
	journal []slotKey
}

// NewAvailabilityIndex returns an empty index.
func NewAvailabilityIndex() *AvailabilityIndex {
	return &AvailabilityIndex{busy: make(map[slotKey][]busySlot)}
}

// Free reports whether the owner has no reservation intersecting [start, end)
// on the given day. Times are minutes since midnight.
func (a *AvailabilityIndex) Free(o owner, day models.Weekday, start, end int) bool {
	for _, slot := range a.busy[slotKey{owner: o, day: day}] {
		if start < slot.end && slot.start < end {
			return false
		}
	}
	return true
}

// Reserve claims [start, end) on the given day for the owner.
func (a *AvailabilityIndex) Reserve(o owner, day models.Weekday, start, end int) {
	key := slotKey{owner: o, day: day}
	a.busy[key] = append(a.busy[key], busySlot{start: start, end: end})
	a.journal = append(a.journal, key)
}

// BusyMinutes sums the owner's reserved minutes on the given day.
func (a *AvailabilityIndex) BusyMinutes(o owner, day models.Weekday) int {
	total := 0
	for _, slot := range a.busy[slotKey{owner: o, day: day}] {
		total += slot.end - slot.start
	}
	return total
}

// Checkpoint returns a mark for the current journal position.
func (a *AvailabilityIndex) Checkpoint() int {
	return len(a.journal)
}

// Rollback undoes every reservation made after the mark, most recent first.
func (a *AvailabilityIndex) Rollback(mark int) {
	for len(a.journal) > mark {
		key := a.journal[len(a.journal)-1]
		a.journal = a.journal[:len(a.journal)-1]
		slots := a.busy[key]
		if len(slots) > 0 {
			a.busy[key] = slots[:len(slots)-1]
		}
	}
}

// SeedMeetings pre-loads committed meetings for a teacher and classroom pair,
// outside of any checkpoint scope.
func (a *AvailabilityIndex) SeedMeetings(teacherID, classroomID string, meetings []models.Meeting) {
	for _, m := range meetings {
		start := models.MinuteOfDay(m.StartTime)
		end := models.MinuteOfDay(m.EndTime)
		a.Reserve(teacherOwner(teacherID), m.DayOfWeek, start, end)
		a.Reserve(classroomOwner(classroomID), m.DayOfWeek, start, end)
	}
	a.journal = a.journal[:0]
}
