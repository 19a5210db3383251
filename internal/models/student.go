package models

// Student is a learner record consumed by the enrollment engine.
type Student struct {
	ID             string  `db:"id" json:"id"`
	FullName       string  `db:"full_name" json:"full_name"`
	Email          *string `db:"email" json:"email,omitempty"`
	GradeLevel     int     `db:"grade_level" json:"grade_level"`
	EnrollmentYear int     `db:"enrollment_year" json:"enrollment_year"`
	Status         string  `db:"status" json:"status"`
}

// CourseHistory is one completed-course fact with its grade outcome.
type CourseHistory struct {
	ID         string  `db:"id" json:"id"`
	StudentID  string  `db:"student_id" json:"student_id"`
	CourseID   string  `db:"course_id" json:"course_id"`
	Grade      string  `db:"grade" json:"grade"`
	GradePoint float64 `db:"grade_point" json:"grade_point"`
	Passed     bool    `db:"passed" json:"passed"`
}
