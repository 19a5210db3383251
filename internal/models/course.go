package models

import "github.com/lib/pq"

// CourseType distinguishes graduation-required courses from electives.
type CourseType string

const (
	CourseTypeCore     CourseType = "core"
	CourseTypeElective CourseType = "elective"
)

// Course is a catalog entry. Static within a generation run.
type Course struct {
	ID                  string         `db:"id" json:"id"`
	Code                string         `db:"code" json:"code"`
	Name                string         `db:"name" json:"name"`
	Credits             float64        `db:"credits" json:"credits"`
	HoursPerWeek        int            `db:"hours_per_week" json:"hours_per_week"`
	CourseType          CourseType     `db:"course_type" json:"course_type"`
	RoomType            *string        `db:"room_type" json:"room_type,omitempty"`
	SemesterOrder       int            `db:"semester_order" json:"semester_order"`
	PrerequisiteIDs     pq.StringArray `db:"prerequisite_ids" json:"prerequisite_ids"`
	GradeLevelMin       *int           `db:"grade_level_min" json:"grade_level_min,omitempty"`
	GradeLevelMax       *int           `db:"grade_level_max" json:"grade_level_max,omitempty"`
	ProjectedEnrollment int            `db:"projected_enrollment" json:"projected_enrollment"`
	IsActive            bool           `db:"is_active" json:"is_active"`
}

// IsCore reports whether the course counts toward the core requirement.
func (c Course) IsCore() bool {
	return c.CourseType == CourseTypeCore
}
