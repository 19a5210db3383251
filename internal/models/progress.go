package models

// AcademicProgress is a derived snapshot of a student's standing. Computed on
// demand, never persisted.
type AcademicProgress struct {
	CreditsEarned           float64 `json:"credits_earned"`
	CreditsRequired         float64 `json:"credits_required"`
	CoreCoursesCompleted    int     `json:"core_courses_completed"`
	CoreCoursesRequired     int     `json:"core_courses_required"`
	GPA                     float64 `json:"gpa"`
	ProjectedGraduationYear int     `json:"projected_graduation_year"`
	GraduationStatus        string  `json:"graduation_status"`
}
