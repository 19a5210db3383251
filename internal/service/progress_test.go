package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/maplewood-sis/scheduling-api/internal/models"
)

func fixedCalculator() *ProgressCalculator {
	calc := NewProgressCalculator()
	calc.now = func() time.Time { return time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC) }
	return calc
}

func TestProgressEligible(t *testing.T) {
	calc := fixedCalculator()
	student := &models.Student{ID: "stu-1", EnrollmentYear: 2022}

	history := make([]models.CourseHistory, 0, 20)
	courses := make(map[string]models.Course, 20)
	for i := 0; i < 20; i++ {
		id := string(rune('a' + i))
		history = append(history, models.CourseHistory{CourseID: id, GradePoint: 4.0, Passed: true})
		courses[id] = models.Course{ID: id, Credits: 1.5, CourseType: models.CourseTypeCore}
	}

	progress := calc.Calculate(student, history, courses)

	assert.Equal(t, 30.0, progress.CreditsEarned)
	assert.Equal(t, 20, progress.CoreCoursesCompleted)
	assert.Equal(t, 4.0, progress.GPA)
	assert.Equal(t, StatusEligible, progress.GraduationStatus)
	assert.Equal(t, 2026, progress.ProjectedGraduationYear)
}

func TestProgressOnTrack(t *testing.T) {
	calc := fixedCalculator()
	student := &models.Student{ID: "stu-1", EnrollmentYear: 2024}

	history := []models.CourseHistory{
		{CourseID: "math101", GradePoint: 3.3, Passed: true},
		{CourseID: "eng101", GradePoint: 3.7, Passed: true},
	}
	courses := map[string]models.Course{
		"math101": {ID: "math101", Credits: 3, CourseType: models.CourseTypeCore},
		"eng101":  {ID: "eng101", Credits: 3, CourseType: models.CourseTypeCore},
	}

	progress := calc.Calculate(student, history, courses)

	assert.Equal(t, 6.0, progress.CreditsEarned)
	assert.Equal(t, 2, progress.CoreCoursesCompleted)
	assert.Equal(t, 3.5, progress.GPA)
	// 24 credits remaining at 15 per semester is two semesters, one year.
	assert.Equal(t, 2027, progress.ProjectedGraduationYear)
	assert.Equal(t, StatusOnTrack, progress.GraduationStatus)
}

func TestProgressAtRisk(t *testing.T) {
	calc := fixedCalculator()
	student := &models.Student{ID: "stu-1", EnrollmentYear: 2020}

	progress := calc.Calculate(student, nil, nil)

	assert.Equal(t, 0.0, progress.CreditsEarned)
	assert.Equal(t, 0.0, progress.GPA)
	assert.Equal(t, 2027, progress.ProjectedGraduationYear)
	assert.Equal(t, StatusAtRisk, progress.GraduationStatus)
}

func TestProgressFailedCoursesCountTowardGPAOnly(t *testing.T) {
	calc := fixedCalculator()
	student := &models.Student{ID: "stu-1", EnrollmentYear: 2024}

	history := []models.CourseHistory{
		{CourseID: "math101", GradePoint: 4.0, Passed: true},
		{CourseID: "phys101", GradePoint: 0.0, Passed: false},
	}
	courses := map[string]models.Course{
		"math101": {ID: "math101", Credits: 3, CourseType: models.CourseTypeCore},
		"phys101": {ID: "phys101", Credits: 3, CourseType: models.CourseTypeCore},
	}

	progress := calc.Calculate(student, history, courses)

	assert.Equal(t, 3.0, progress.CreditsEarned, "failed course earns no credits")
	assert.Equal(t, 1, progress.CoreCoursesCompleted)
	assert.Equal(t, 2.0, progress.GPA, "failed course still weighs on GPA")
}

func TestProgressGPARounding(t *testing.T) {
	calc := fixedCalculator()
	student := &models.Student{ID: "stu-1", EnrollmentYear: 2024}

	history := []models.CourseHistory{
		{CourseID: "a", GradePoint: 3.3, Passed: true},
		{CourseID: "b", GradePoint: 3.3, Passed: true},
		{CourseID: "c", GradePoint: 3.4, Passed: true},
	}

	progress := calc.Calculate(student, history, nil)
	assert.Equal(t, 3.33, progress.GPA)
}
