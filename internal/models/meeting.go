package models

import (
	"strconv"
	"strings"
)

// Weekday names follow the persisted MONDAY..FRIDAY convention.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
)

// TeachingDays is the ordered weekly grid the generator places meetings on.
var TeachingDays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

// Meeting is one recurring weekly time block of a course section.
// Times are wall-clock "HH:MM" strings.
type Meeting struct {
	ID        string  `db:"id" json:"id"`
	SectionID string  `db:"section_id" json:"section_id"`
	DayOfWeek Weekday `db:"day_of_week" json:"day_of_week"`
	StartTime string  `db:"start_time" json:"start_time"`
	EndTime   string  `db:"end_time" json:"end_time"`
}

// Overlaps reports whether two meetings share a day and their time ranges intersect.
func (m Meeting) Overlaps(other Meeting) bool {
	if m.DayOfWeek != other.DayOfWeek {
		return false
	}
	s1, e1 := MinuteOfDay(m.StartTime), MinuteOfDay(m.EndTime)
	s2, e2 := MinuteOfDay(other.StartTime), MinuteOfDay(other.EndTime)
	return s1 < e2 && s2 < e1
}

// DurationHours returns the meeting length in whole hours, rounding up partial hours.
func (m Meeting) DurationHours() int {
	mins := MinuteOfDay(m.EndTime) - MinuteOfDay(m.StartTime)
	if mins <= 0 {
		return 0
	}
	return (mins + 59) / 60
}

// MeetingsConflict reports whether any meeting in the first set overlaps one in the second.
func MeetingsConflict(a, b []Meeting) bool {
	for _, m := range a {
		for _, other := range b {
			if m.Overlaps(other) {
				return true
			}
		}
	}
	return false
}

// MinuteOfDay parses "HH:MM" into minutes since midnight. Malformed input yields 0.
func MinuteOfDay(clock string) int {
	parts := strings.SplitN(strings.TrimSpace(clock), ":", 2)
	if len(parts) != 2 {
		return 0
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return h*60 + m
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	return pad2(h) + ":" + pad2(m)
}

func pad2(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}
