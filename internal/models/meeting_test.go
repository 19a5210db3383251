package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeetingOverlaps(t *testing.T) {
	base := Meeting{DayOfWeek: Monday, StartTime: "09:00", EndTime: "11:00"}

	tests := []struct {
		name  string
		other Meeting
		want  bool
	}{
		{"same block", Meeting{DayOfWeek: Monday, StartTime: "09:00", EndTime: "11:00"}, true},
		{"partial overlap", Meeting{DayOfWeek: Monday, StartTime: "10:00", EndTime: "12:00"}, true},
		{"contained", Meeting{DayOfWeek: Monday, StartTime: "09:30", EndTime: "10:30"}, true},
		{"back to back", Meeting{DayOfWeek: Monday, StartTime: "11:00", EndTime: "12:00"}, false},
		{"before", Meeting{DayOfWeek: Monday, StartTime: "08:00", EndTime: "09:00"}, false},
		{"different day", Meeting{DayOfWeek: Tuesday, StartTime: "09:00", EndTime: "11:00"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestMeetingsConflict(t *testing.T) {
	a := []Meeting{
		{DayOfWeek: Monday, StartTime: "09:00", EndTime: "10:00"},
		{DayOfWeek: Wednesday, StartTime: "13:00", EndTime: "15:00"},
	}
	b := []Meeting{
		{DayOfWeek: Tuesday, StartTime: "09:00", EndTime: "10:00"},
	}
	assert.False(t, MeetingsConflict(a, b))

	b = append(b, Meeting{DayOfWeek: Wednesday, StartTime: "14:00", EndTime: "16:00"})
	assert.True(t, MeetingsConflict(a, b))
}

func TestMeetingDurationHours(t *testing.T) {
	assert.Equal(t, 2, Meeting{StartTime: "09:00", EndTime: "11:00"}.DurationHours())
	assert.Equal(t, 1, Meeting{StartTime: "13:00", EndTime: "13:30"}.DurationHours(), "partial hours round up")
	assert.Equal(t, 0, Meeting{StartTime: "13:00", EndTime: "13:00"}.DurationHours())
}

func TestClockHelpers(t *testing.T) {
	assert.Equal(t, 9*60, MinuteOfDay("09:00"))
	assert.Equal(t, 16*60+30, MinuteOfDay("16:30"))
	assert.Equal(t, 0, MinuteOfDay("bogus"))
	assert.Equal(t, "09:00", FormatClock(9*60))
	assert.Equal(t, "16:30", FormatClock(16*60+30))
}
