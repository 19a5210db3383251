package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maplewood-sis/scheduling-api/internal/dto"
	"github.com/maplewood-sis/scheduling-api/internal/models"
	appErrors "github.com/maplewood-sis/scheduling-api/pkg/errors"
)

func TestEnrollSuccess(t *testing.T) {
	f := newPlanningFixture(t)

	resp, err := f.svc.Enroll(context.Background(), "stu-1", dto.EnrollRequest{
		SemesterID: "sem-1",
		SectionIDs: []string{"sec-math"},
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, []string{"sec-math"}, resp.EnrolledSectionIDs)
	assert.Empty(t, resp.Errors)
	assert.Equal(t, "Successfully enrolled in 1 course(s)", resp.Message)
	assert.Equal(t, 1, f.sections.enrolledCount("sec-math"))
}

func TestEnrollPrerequisiteUnmet(t *testing.T) {
	f := newPlanningFixture(t)

	resp, err := f.svc.Enroll(context.Background(), "stu-1", dto.EnrollRequest{
		SemesterID: "sem-1",
		SectionIDs: []string{"sec-calc"},
	})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Empty(t, resp.EnrolledSectionIDs)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, dto.ReasonPrerequisiteUnmet, resp.Errors[0].Code)
	assert.Equal(t, 0, f.sections.enrolledCount("sec-calc"), "no seat may be claimed for a rejected section")
}

func TestEnrollPrerequisiteSatisfiedByHistory(t *testing.T) {
	f := newPlanningFixture(t)
	f.students.history = append(f.students.history, models.CourseHistory{
		StudentID: "stu-1", CourseID: "math101", Grade: "B", GradePoint: 3.0, Passed: true,
	})

	resp, err := f.svc.Enroll(context.Background(), "stu-1", dto.EnrollRequest{
		SemesterID: "sem-1",
		SectionIDs: []string{"sec-calc"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestEnrollTimeConflict(t *testing.T) {
	f := newPlanningFixture(t)

	// sec-math and sec-art meet Monday 09:00-10:00.
	resp, err := f.svc.Enroll(context.Background(), "stu-1", dto.EnrollRequest{
		SemesterID: "sem-1",
		SectionIDs: []string{"sec-math", "sec-art"},
	})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, []string{"sec-math"}, resp.EnrolledSectionIDs)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, dto.ReasonTimeConflict, resp.Errors[0].Code)
	assert.Equal(t, "sec-art", resp.Errors[0].SectionID)
	assert.Equal(t, "Enrolled 1 of 2 requested sections", resp.Message)
}

func TestEnrollSectionFull(t *testing.T) {
	f := newPlanningFixture(t)
	f.sections.setEnrolled("sec-math", 30)

	resp, err := f.svc.Enroll(context.Background(), "stu-1", dto.EnrollRequest{
		SemesterID: "sem-1",
		SectionIDs: []string{"sec-math"},
	})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, dto.ReasonSectionFull, resp.Errors[0].Code)
}

func TestEnrollSectionNotFound(t *testing.T) {
	f := newPlanningFixture(t)

	resp, err := f.svc.Enroll(context.Background(), "stu-1", dto.EnrollRequest{
		SemesterID: "sem-1",
		SectionIDs: []string{"sec-ghost"},
	})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, dto.ReasonSectionNotFound, resp.Errors[0].Code)
}

func TestEnrollIdempotentResubmit(t *testing.T) {
	f := newPlanningFixture(t)

	first, err := f.svc.Enroll(context.Background(), "stu-1", dto.EnrollRequest{
		SemesterID: "sem-1",
		SectionIDs: []string{"sec-math"},
	})
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := f.svc.Enroll(context.Background(), "stu-1", dto.EnrollRequest{
		SemesterID: "sem-1",
		SectionIDs: []string{"sec-math"},
	})
	require.NoError(t, err)

	assert.True(t, second.Success)
	assert.Equal(t, []string{"sec-math"}, second.EnrolledSectionIDs)
	assert.Equal(t, 1, f.sections.enrolledCount("sec-math"), "re-submit must not claim a second seat")
	assert.Len(t, f.enrollments.items["stu-1"], 1)
}

func TestEnrollSemesterCeiling(t *testing.T) {
	f := newPlanningFixture(t)
	f.svc.maxSections = 1

	resp, err := f.svc.Enroll(context.Background(), "stu-1", dto.EnrollRequest{
		SemesterID: "sem-1",
		SectionIDs: []string{"sec-math", "sec-hist"},
	})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, []string{"sec-math"}, resp.EnrolledSectionIDs)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, dto.ReasonLimitExceeded, resp.Errors[0].Code)
}

func TestEnrollValidatesRequest(t *testing.T) {
	f := newPlanningFixture(t)

	_, err := f.svc.Enroll(context.Background(), "stu-1", dto.EnrollRequest{SemesterID: "sem-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollStudentNotFound(t *testing.T) {
	f := newPlanningFixture(t)
	f.students.missing = true

	_, err := f.svc.Enroll(context.Background(), "stu-ghost", dto.EnrollRequest{
		SemesterID: "sem-1",
		SectionIDs: []string{"sec-math"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollConcurrentNeverOversellsSeats(t *testing.T) {
	f := newPlanningFixture(t)
	f.sections.setCapacity("sec-math", 3)

	const students = 8
	var wg sync.WaitGroup
	results := make([]*dto.EnrollResponse, students)
	for i := 0; i < students; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			studentID := string(rune('a'+i)) + "-stu"
			f.students.addStudent(studentID)
			resp, err := f.svc.Enroll(context.Background(), studentID, dto.EnrollRequest{
				SemesterID: "sem-1",
				SectionIDs: []string{"sec-math"},
			})
			assert.NoError(t, err)
			results[i] = resp
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, resp := range results {
		require.NotNil(t, resp)
		if resp.Success {
			succeeded++
		} else {
			require.Len(t, resp.Errors, 1)
			assert.Equal(t, dto.ReasonSectionFull, resp.Errors[0].Code)
		}
	}
	assert.Equal(t, 3, succeeded, "exactly capacity seats may be won")
	assert.Equal(t, 3, f.sections.enrolledCount("sec-math"))
}

func TestGetStudentPlan(t *testing.T) {
	f := newPlanningFixture(t)
	_, err := f.svc.Enroll(context.Background(), "stu-1", dto.EnrollRequest{
		SemesterID: "sem-1",
		SectionIDs: []string{"sec-math"},
	})
	require.NoError(t, err)

	plan, err := f.svc.GetStudentPlan(context.Background(), "stu-1", "sem-1")
	require.NoError(t, err)

	assert.Equal(t, "stu-1", plan.Student.ID)
	require.Len(t, plan.EnrolledSections, 1)
	assert.Equal(t, "sec-math", plan.EnrolledSections[0].ID)

	byID := make(map[string]dto.AvailableSection)
	for _, section := range plan.AvailableSections {
		byID[section.ID] = section
	}
	require.NotContains(t, byID, "sec-math", "enrolled sections are not offered again")

	art := byID["sec-art"]
	assert.True(t, art.HasTimeConflict, "sec-art overlaps the enrolled math section")
	assert.Equal(t, "overlaps MATH101", art.ConflictReason)

	calc := byID["sec-calc"]
	assert.False(t, calc.PrerequisitesMet)

	hist := byID["sec-hist"]
	assert.True(t, hist.PrerequisitesMet)
	assert.False(t, hist.HasTimeConflict)
}

func TestGetStudentPlanMarksFullSection(t *testing.T) {
	f := newPlanningFixture(t)
	f.sections.setEnrolled("sec-hist", 30)

	plan, err := f.svc.GetStudentPlan(context.Background(), "stu-1", "sem-1")
	require.NoError(t, err)

	byID := make(map[string]dto.AvailableSection)
	for _, section := range plan.AvailableSections {
		byID[section.ID] = section
	}
	hist := byID["sec-hist"]
	assert.Equal(t, 30, hist.EnrolledCount)
	assert.Equal(t, 0, hist.RemainingCapacity, "a full section advertises zero remaining seats")
}

func TestEnrollConcurrentSameStudentHonorsCeiling(t *testing.T) {
	f := newPlanningFixture(t)
	f.svc.maxSections = 1

	// sec-math meets Monday, sec-hist Wednesday, so neither the conflict nor
	// the seat checks interfere with the ceiling.
	var wg sync.WaitGroup
	results := make([]*dto.EnrollResponse, 2)
	for i, sectionID := range []string{"sec-math", "sec-hist"} {
		wg.Add(1)
		go func(i int, sectionID string) {
			defer wg.Done()
			resp, err := f.svc.Enroll(context.Background(), "stu-1", dto.EnrollRequest{
				SemesterID: "sem-1",
				SectionIDs: []string{sectionID},
			})
			assert.NoError(t, err)
			results[i] = resp
		}(i, sectionID)
	}
	wg.Wait()

	succeeded := 0
	for _, resp := range results {
		require.NotNil(t, resp)
		if resp.Success {
			succeeded++
		} else {
			require.Len(t, resp.Errors, 1)
			assert.Equal(t, dto.ReasonLimitExceeded, resp.Errors[0].Code)
		}
	}
	assert.Equal(t, 1, succeeded, "only one batch may win the last ceiling slot")
	assert.Len(t, f.enrollments.items["stu-1"], 1)
}

func TestEnrollConcurrentSameSectionClaimsOneSeat(t *testing.T) {
	f := newPlanningFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.svc.Enroll(context.Background(), "stu-1", dto.EnrollRequest{
				SemesterID: "sem-1",
				SectionIDs: []string{"sec-math"},
			})
			assert.NoError(t, err)
			if assert.NotNil(t, resp) {
				assert.True(t, resp.Success, "the later batch resolves as an idempotent re-submit")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.sections.enrolledCount("sec-math"))
	assert.Len(t, f.enrollments.items["stu-1"], 1)
}

func TestEnrollDuplicateWriteTreatedAsHeld(t *testing.T) {
	f := newPlanningFixture(t)
	f.enrollments.createErr = fmt.Errorf("create enrollment: %w", appErrors.ErrDuplicateEnrollment)

	resp, err := f.svc.Enroll(context.Background(), "stu-1", dto.EnrollRequest{
		SemesterID: "sem-1",
		SectionIDs: []string{"sec-math"},
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, []string{"sec-math"}, resp.EnrolledSectionIDs)
	assert.Equal(t, 0, f.sections.enrolledCount("sec-math"), "the losing writer must give its seat back")
	assert.Empty(t, f.enrollments.items["stu-1"])
}

// --- Fixtures ---

type planningFixture struct {
	svc         *PlanningService
	students    *studentDirectoryStub
	sections    *planningSectionStub
	enrollments *enrollmentStoreStub
}

func newPlanningFixture(t *testing.T) *planningFixture {
	t.Helper()
	students := &studentDirectoryStub{
		known: map[string]bool{"stu-1": true},
	}
	sections := newPlanningSectionStub([]models.SectionDetail{
		{
			CourseSection: models.CourseSection{ID: "sec-math", CourseID: "math101", SemesterID: "sem-1", Capacity: 30},
			CourseCode:    "MATH101",
			Meetings:      []models.Meeting{{SectionID: "sec-math", DayOfWeek: models.Monday, StartTime: "09:00", EndTime: "10:00"}},
		},
		{
			CourseSection: models.CourseSection{ID: "sec-art", CourseID: "art101", SemesterID: "sem-1", Capacity: 30},
			CourseCode:    "ART101",
			Meetings:      []models.Meeting{{SectionID: "sec-art", DayOfWeek: models.Monday, StartTime: "09:00", EndTime: "10:00"}},
		},
		{
			CourseSection:   models.CourseSection{ID: "sec-calc", CourseID: "calc201", SemesterID: "sem-1", Capacity: 30},
			CourseCode:      "CALC201",
			PrerequisiteIDs: []string{"math101"},
			Meetings:        []models.Meeting{{SectionID: "sec-calc", DayOfWeek: models.Tuesday, StartTime: "09:00", EndTime: "10:00"}},
		},
		{
			CourseSection: models.CourseSection{ID: "sec-hist", CourseID: "hist101", SemesterID: "sem-1", Capacity: 30},
			CourseCode:    "HIST101",
			Meetings:      []models.Meeting{{SectionID: "sec-hist", DayOfWeek: models.Wednesday, StartTime: "09:00", EndTime: "10:00"}},
		},
	})
	enrollments := &enrollmentStoreStub{items: make(map[string][]models.Enrollment)}

	svc := NewPlanningService(
		students,
		&semesterReaderStub{},
		sections,
		enrollments,
		courseReaderStub{},
		NewProgressCalculator(),
		NewCacheService(nil, nil, 0, zap.NewNop(), false),
		nil,
		validator.New(),
		zap.NewNop(),
		5,
	)
	return &planningFixture{svc: svc, students: students, sections: sections, enrollments: enrollments}
}

type studentDirectoryStub struct {
	mu      sync.Mutex
	known   map[string]bool
	missing bool
	history []models.CourseHistory
}

func (s *studentDirectoryStub) addStudent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.known[id] = true
}

func (s *studentDirectoryStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.missing || !s.known[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Student{ID: id, FullName: "Jordan Lee", GradeLevel: 10, EnrollmentYear: 2024, Status: "active"}, nil
}

func (s *studentDirectoryStub) ListHistory(ctx context.Context, studentID string) ([]models.CourseHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CourseHistory, len(s.history))
	copy(out, s.history)
	return out, nil
}

type planningSectionStub struct {
	mu      sync.Mutex
	details []models.SectionDetail
}

func newPlanningSectionStub(details []models.SectionDetail) *planningSectionStub {
	return &planningSectionStub{details: details}
}

func (s *planningSectionStub) ListDetailsBySemester(ctx context.Context, semesterID string) ([]models.SectionDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SectionDetail, len(s.details))
	copy(out, s.details)
	return out, nil
}

func (s *planningSectionStub) ReserveSeat(ctx context.Context, sectionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.details {
		if s.details[i].ID == sectionID {
			if s.details[i].EnrolledCount >= s.details[i].Capacity {
				return false, nil
			}
			s.details[i].EnrolledCount++
			return true, nil
		}
	}
	return false, nil
}

func (s *planningSectionStub) ReleaseSeat(ctx context.Context, sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.details {
		if s.details[i].ID == sectionID && s.details[i].EnrolledCount > 0 {
			s.details[i].EnrolledCount--
		}
	}
	return nil
}

func (s *planningSectionStub) enrolledCount(sectionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, detail := range s.details {
		if detail.ID == sectionID {
			return detail.EnrolledCount
		}
	}
	return 0
}

func (s *planningSectionStub) setEnrolled(sectionID string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.details {
		if s.details[i].ID == sectionID {
			s.details[i].EnrolledCount = count
		}
	}
}

func (s *planningSectionStub) setCapacity(sectionID string, capacity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.details {
		if s.details[i].ID == sectionID {
			s.details[i].Capacity = capacity
		}
	}
}

type enrollmentStoreStub struct {
	mu        sync.Mutex
	items     map[string][]models.Enrollment
	createErr error // returned once by Create
}

func (s *enrollmentStoreStub) ListByStudentAndSemester(ctx context.Context, studentID, semesterID string) ([]models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Enrollment
	for _, e := range s.items[studentID] {
		if e.SemesterID == semesterID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *enrollmentStoreStub) Create(ctx context.Context, enrollment *models.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		err := s.createErr
		s.createErr = nil
		return err
	}
	s.items[enrollment.StudentID] = append(s.items[enrollment.StudentID], *enrollment)
	return nil
}

type courseReaderStub struct{}

func (courseReaderStub) ListByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	catalog := map[string]models.Course{
		"math101": {ID: "math101", Code: "MATH101", Credits: 3, CourseType: models.CourseTypeCore},
		"art101":  {ID: "art101", Code: "ART101", Credits: 2, CourseType: models.CourseTypeElective},
	}
	var out []models.Course
	for _, id := range ids {
		if c, ok := catalog[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
