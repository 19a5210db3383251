package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maplewood-sis/scheduling-api/internal/models"
)

func TestAvailabilityIndexReserveAndFree(t *testing.T) {
	index := NewAvailabilityIndex()
	teacher := teacherOwner("teacher-1")

	assert.True(t, index.Free(teacher, models.Monday, 9*60, 11*60))
	index.Reserve(teacher, models.Monday, 9*60, 11*60)

	assert.False(t, index.Free(teacher, models.Monday, 10*60, 12*60), "overlapping range must be busy")
	assert.True(t, index.Free(teacher, models.Monday, 11*60, 12*60), "adjacent range must stay free")
	assert.True(t, index.Free(teacher, models.Tuesday, 9*60, 11*60), "other days are unaffected")
	assert.True(t, index.Free(classroomOwner("room-1"), models.Monday, 9*60, 11*60), "other owners are unaffected")
}

func TestAvailabilityIndexBusyMinutes(t *testing.T) {
	index := NewAvailabilityIndex()
	teacher := teacherOwner("teacher-1")

	index.Reserve(teacher, models.Monday, 9*60, 10*60)
	index.Reserve(teacher, models.Monday, 14*60, 16*60)
	index.Reserve(teacher, models.Friday, 9*60, 10*60)

	assert.Equal(t, 180, index.BusyMinutes(teacher, models.Monday))
	assert.Equal(t, 60, index.BusyMinutes(teacher, models.Friday))
	assert.Equal(t, 0, index.BusyMinutes(teacher, models.Wednesday))
}

func TestAvailabilityIndexRollback(t *testing.T) {
	index := NewAvailabilityIndex()
	teacher := teacherOwner("teacher-1")
	room := classroomOwner("room-1")

	index.Reserve(teacher, models.Monday, 9*60, 10*60)
	mark := index.Checkpoint()

	index.Reserve(teacher, models.Tuesday, 9*60, 11*60)
	index.Reserve(room, models.Tuesday, 9*60, 11*60)
	assert.False(t, index.Free(teacher, models.Tuesday, 9*60, 10*60))

	index.Rollback(mark)

	assert.True(t, index.Free(teacher, models.Tuesday, 9*60, 10*60), "rolled back reservation must be free again")
	assert.True(t, index.Free(room, models.Tuesday, 9*60, 10*60))
	assert.False(t, index.Free(teacher, models.Monday, 9*60, 10*60), "reservations before the mark survive")
}

func TestAvailabilityIndexSeedMeetings(t *testing.T) {
	index := NewAvailabilityIndex()
	index.SeedMeetings("teacher-1", "room-1", []models.Meeting{
		{DayOfWeek: models.Monday, StartTime: "09:00", EndTime: "11:00"},
	})

	assert.False(t, index.Free(teacherOwner("teacher-1"), models.Monday, 9*60, 10*60))
	assert.False(t, index.Free(classroomOwner("room-1"), models.Monday, 9*60, 10*60))

	// Seeded reservations sit outside checkpoint scope.
	index.Rollback(0)
	assert.False(t, index.Free(teacherOwner("teacher-1"), models.Monday, 9*60, 10*60))
}
