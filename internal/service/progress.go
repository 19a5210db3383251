package service

import (
	"math"
	"time"

	"github.com/maplewood-sis/scheduling-api/internal/models"
)

// Graduation status values surfaced in progress snapshots.
const (
	StatusEligible = "ELIGIBLE"
	StatusOnTrack  = "ON_TRACK"
	StatusAtRisk   = "AT_RISK"
)

// ProgressCalculator derives a student's academic standing from completed
// course history. It keeps no state beyond the graduation thresholds.
type ProgressCalculator struct {
	CreditsRequired     float64
	CoreCoursesRequired int
	CreditsPerSemester  float64
	now                 func() time.Time
}

// NewProgressCalculator returns a calculator with the school's default
// graduation thresholds.
func NewProgressCalculator() *ProgressCalculator {
	return &ProgressCalculator{
		CreditsRequired:     30,
		CoreCoursesRequired: 20,
		CreditsPerSemester:  15,
		now:                 time.Now,
	}
}

// Calculate builds a progress snapshot. The courses map provides catalog
// context for the history entries; unknown course IDs are skipped for the core
// count but still contribute to GPA.
func (p *ProgressCalculator) Calculate(student *models.Student, history []models.CourseHistory, courses map[string]models.Course) models.AcademicProgress {
	progress := models.AcademicProgress{
		CreditsRequired:     p.CreditsRequired,
		CoreCoursesRequired: p.CoreCoursesRequired,
	}

	var gradePoints float64
	for _, record := range history {
		gradePoints += record.GradePoint
		if !record.Passed {
			continue
		}
		course, ok := courses[record.CourseID]
		if !ok {
			continue
		}
		progress.CreditsEarned += course.Credits
		if course.IsCore() {
			progress.CoreCoursesCompleted++
		}
	}
	if len(history) > 0 {
		progress.GPA = math.Round(gradePoints/float64(len(history))*100) / 100
	}

	currentYear := p.now().Year()
	remaining := progress.CreditsRequired - progress.CreditsEarned
	switch {
	case remaining <= 0 && progress.CoreCoursesCompleted >= progress.CoreCoursesRequired:
		progress.ProjectedGraduationYear = currentYear
		progress.GraduationStatus = StatusEligible
	default:
		if remaining < 0 {
			remaining = 0
		}
		semestersRemaining := int(math.Ceil(remaining / p.CreditsPerSemester))
		if semestersRemaining < 1 {
			semestersRemaining = 1
		}
		yearsRemaining := (semestersRemaining + 1) / 2
		progress.ProjectedGraduationYear = currentYear + yearsRemaining
		if progress.ProjectedGraduationYear <= student.EnrollmentYear+4 {
			progress.GraduationStatus = StatusOnTrack
		} else {
			progress.GraduationStatus = StatusAtRisk
		}
	}
	return progress
}
