package models

import "time"

// Enrollment is the fact that a student holds a seat in a section for a
// semester. Unique per (student, section).
type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	SectionID  string    `db:"section_id" json:"section_id"`
	SemesterID string    `db:"semester_id" json:"semester_id"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}
