package models

import (
	"time"

	"github.com/lib/pq"
)

// CourseSection is one scheduled instance of a course: a teacher, a room and a
// weekly meeting pattern. Created by the generator; enrolled_count mutated only
// through atomic seat reservation.
type CourseSection struct {
	ID            string    `db:"id" json:"id"`
	CourseID      string    `db:"course_id" json:"course_id"`
	TeacherID     string    `db:"teacher_id" json:"teacher_id"`
	ClassroomID   string    `db:"classroom_id" json:"classroom_id"`
	SemesterID    string    `db:"semester_id" json:"semester_id"`
	Capacity      int       `db:"capacity" json:"capacity"`
	EnrolledCount int       `db:"enrolled_count" json:"enrolled_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// RemainingCapacity is the number of seats still available.
func (s CourseSection) RemainingCapacity() int {
	return s.Capacity - s.EnrolledCount
}

// SectionDetail joins a section with its course, teacher and classroom context
// for read projections. Meetings are attached by the repository.
type SectionDetail struct {
	CourseSection
	CourseCode      string         `db:"course_code" json:"course_code"`
	CourseName      string         `db:"course_name" json:"course_name"`
	Credits         float64        `db:"credits" json:"credits"`
	HoursPerWeek    int            `db:"hours_per_week" json:"hours_per_week"`
	CourseType      string         `db:"course_type" json:"course_type"`
	PrerequisiteIDs pq.StringArray `db:"prerequisite_ids" json:"prerequisite_ids"`
	TeacherName     string         `db:"teacher_name" json:"teacher_name"`
	ClassroomName   string         `db:"classroom_name" json:"classroom_name"`
	Meetings        []Meeting      `db:"-" json:"meetings"`
}

// PlacementOutcome tags how the generator fared for one course.
type PlacementOutcome string

const (
	PlacedFully     PlacementOutcome = "placed_fully"
	PlacedPartially PlacementOutcome = "placed_partially"
	Unassigned      PlacementOutcome = "unassigned"
)

// CoursePlacement records the generator's outcome for a single course.
type CoursePlacement struct {
	CourseID        string           `json:"course_id"`
	CourseCode      string           `json:"course_code"`
	Outcome         PlacementOutcome `json:"outcome"`
	SectionsPlanned int              `json:"sections_planned"`
	SectionsPlaced  int              `json:"sections_placed"`
	Reason          string           `json:"reason,omitempty"`
}
