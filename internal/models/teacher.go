package models

import "github.com/lib/pq"

// Teacher represents an instructor record. Mutated only by administration.
type Teacher struct {
	ID                 string         `db:"id" json:"id"`
	FullName           string         `db:"full_name" json:"full_name"`
	Email              *string        `db:"email" json:"email,omitempty"`
	MaxWeeklyHours     int            `db:"max_weekly_hours" json:"max_weekly_hours"`
	QualifiedCourseIDs pq.StringArray `db:"qualified_course_ids" json:"qualified_course_ids"`
	Active             bool           `db:"active" json:"active"`
}

// QualifiedFor reports whether the teacher may be assigned to the course.
func (t Teacher) QualifiedFor(courseID string) bool {
	for _, id := range t.QualifiedCourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}
