package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/maplewood-sis/scheduling-api/internal/dto"
	"github.com/maplewood-sis/scheduling-api/internal/models"
	appErrors "github.com/maplewood-sis/scheduling-api/pkg/errors"
)

type planningStudentDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListHistory(ctx context.Context, studentID string) ([]models.CourseHistory, error)
}

type planningSemesterReader interface {
	FindByID(ctx context.Context, id string) (*models.Semester, error)
}

type planningSectionStore interface {
	ListDetailsBySemester(ctx context.Context, semesterID string) ([]models.SectionDetail, error)
	ReserveSeat(ctx context.Context, sectionID string) (bool, error)
	ReleaseSeat(ctx context.Context, sectionID string) error
}

type planningEnrollmentStore interface {
	ListByStudentAndSemester(ctx context.Context, studentID, semesterID string) ([]models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
}

type planningCourseReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Course, error)
}

// PlanningService serves student-facing schedule views and runs the enrollment
// engine: per-section validation, atomic seat claims, and progress snapshots.
type PlanningService struct {
	students    planningStudentDirectory
	semesters   planningSemesterReader
	sections    planningSectionStore
	enrollments planningEnrollmentStore
	courses     planningCourseReader
	progress    *ProgressCalculator
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	maxSections int

	// Enrollment batches serialize per student. The ceiling, duplicate and
	// personal-conflict checks validate against the enrollment snapshot read
	// at the top of Enroll, so two batches from the same student must not
	// interleave. Cross-student seat capacity is guarded by ReserveSeat alone.
	locks *keyedLocks
}

// NewPlanningService wires planning dependencies.
func NewPlanningService(
	students planningStudentDirectory,
	semesters planningSemesterReader,
	sections planningSectionStore,
	enrollments planningEnrollmentStore,
	courses planningCourseReader,
	progress *ProgressCalculator,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	maxSections int,
) *PlanningService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if progress == nil {
		progress = NewProgressCalculator()
	}
	if maxSections <= 0 {
		maxSections = 5
	}
	return &PlanningService{
		students:    students,
		semesters:   semesters,
		sections:    sections,
		enrollments: enrollments,
		courses:     courses,
		progress:    progress,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		maxSections: maxSections,
		locks:       newKeyedLocks(),
	}
}

// GetStudentPlan returns the semester's sections annotated with the student's
// eligibility, alongside their committed enrollments and progress snapshot.
func (s *PlanningService) GetStudentPlan(ctx context.Context, studentID, semesterID string) (*dto.StudentPlanResponse, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	semester, err := s.loadSemester(ctx, semesterID)
	if err != nil {
		return nil, err
	}
	details, err := s.sections.ListDetailsBySemester(ctx, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "load semester sections")
	}
	enrollments, err := s.enrollments.ListByStudentAndSemester(ctx, studentID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "load enrollments")
	}
	history, err := s.students.ListHistory(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "load course history")
	}

	enrolledSet := make(map[string]bool, len(enrollments))
	for _, e := range enrollments {
		enrolledSet[e.SectionID] = true
	}
	passed := passedCourseSet(history)

	var enrolledSections []dto.Section
	var enrolledDetails []models.SectionDetail
	for _, detail := range details {
		if enrolledSet[detail.ID] {
			enrolledSections = append(enrolledSections, dto.SectionFromDetail(detail))
			enrolledDetails = append(enrolledDetails, detail)
		}
	}

	available := make([]dto.AvailableSection, 0, len(details))
	for _, detail := range details {
		if enrolledSet[detail.ID] {
			continue
		}
		entry := dto.AvailableSection{
			Section:          dto.SectionFromDetail(detail),
			PrerequisitesMet: prerequisitesMet(detail.PrerequisiteIDs, passed),
		}
		for _, enrolled := range enrolledDetails {
			if models.MeetingsConflict(detail.Meetings, enrolled.Meetings) {
				entry.HasTimeConflict = true
				entry.ConflictReason = fmt.Sprintf("overlaps %s", enrolled.CourseCode)
				break
			}
		}
		available = append(available, entry)
	}

	progress, err := s.calculateProgress(ctx, student, history)
	if err != nil {
		return nil, err
	}

	return &dto.StudentPlanResponse{
		Student:           dto.StudentRef{ID: student.ID, Name: student.FullName, GradeLevel: student.GradeLevel},
		SemesterID:        semester.ID,
		SemesterName:      semester.DisplayName(),
		AvailableSections: available,
		EnrolledSections:  enrolledSections,
		Progress:          progress,
	}, nil
}

// Enroll processes a batch of section choices. Each section is validated and
// committed independently; one rejection never blocks the others. Seats are
// claimed through an atomic conditional increment, so concurrent batches can
// never oversubscribe a section.
func (s *PlanningService) Enroll(ctx context.Context, studentID string, req dto.EnrollRequest) (*dto.EnrollResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	lock := s.locks.acquire(studentID)
	defer lock.Unlock()

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	semester, err := s.loadSemester(ctx, req.SemesterID)
	if err != nil {
		return nil, err
	}
	details, err := s.sections.ListDetailsBySemester(ctx, semester.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "load semester sections")
	}
	enrollments, err := s.enrollments.ListByStudentAndSemester(ctx, studentID, semester.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "load enrollments")
	}
	history, err := s.students.ListHistory(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "load course history")
	}

	byID := make(map[string]models.SectionDetail, len(details))
	for _, detail := range details {
		byID[detail.ID] = detail
	}
	passed := passedCourseSet(history)

	enrolledSet := make(map[string]bool, len(enrollments))
	var committedMeetings []models.Meeting
	for _, e := range enrollments {
		enrolledSet[e.SectionID] = true
		if detail, ok := byID[e.SectionID]; ok {
			committedMeetings = append(committedMeetings, detail.Meetings...)
		}
	}
	activeCount := len(enrollments)

	resp := &dto.EnrollResponse{EnrolledSectionIDs: make([]string, 0, len(req.SectionIDs))}
	newlyEnrolled := 0

	for _, sectionID := range req.SectionIDs {
		if enrolledSet[sectionID] {
			// Re-submitting a held seat is a no-op success.
			resp.EnrolledSectionIDs = append(resp.EnrolledSectionIDs, sectionID)
			continue
		}
		detail, ok := byID[sectionID]
		if !ok {
			s.reject(resp, sectionID, dto.ReasonSectionNotFound, "course section not found in this semester")
			continue
		}
		if !prerequisitesMet(detail.PrerequisiteIDs, passed) {
			s.reject(resp, sectionID, dto.ReasonPrerequisiteUnmet,
				fmt.Sprintf("missing prerequisite for %s", detail.CourseCode))
			continue
		}
		if models.MeetingsConflict(detail.Meetings, committedMeetings) {
			s.reject(resp, sectionID, dto.ReasonTimeConflict,
				fmt.Sprintf("%s overlaps an enrolled section", detail.CourseCode))
			continue
		}
		if activeCount >= s.maxSections {
			s.reject(resp, sectionID, dto.ReasonLimitExceeded,
				fmt.Sprintf("students may hold at most %d sections per semester", s.maxSections))
			continue
		}

		reserved, err := s.sections.ReserveSeat(ctx, sectionID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "reserve seat")
		}
		if !reserved {
			s.reject(resp, sectionID, dto.ReasonSectionFull,
				fmt.Sprintf("%s has no remaining seats", detail.CourseCode))
			continue
		}

		enrollment := &models.Enrollment{
			StudentID:  student.ID,
			SectionID:  sectionID,
			SemesterID: semester.ID,
		}
		if err := s.enrollments.Create(ctx, enrollment); err != nil {
			if errors.Is(err, appErrors.ErrDuplicateEnrollment) {
				// Another instance won the race on the unique
				// (student, section) constraint. Give the seat back and
				// report the section as held.
				if releaseErr := s.sections.ReleaseSeat(ctx, sectionID); releaseErr != nil {
					s.logger.Error("seat release after duplicate enrollment",
						zap.String("section_id", sectionID), zap.Error(releaseErr))
				}
				resp.EnrolledSectionIDs = append(resp.EnrolledSectionIDs, sectionID)
				enrolledSet[sectionID] = true
				committedMeetings = append(committedMeetings, detail.Meetings...)
				activeCount++
				continue
			}
			if releaseErr := s.sections.ReleaseSeat(ctx, sectionID); releaseErr != nil {
				s.logger.Error("seat release after failed enrollment write",
					zap.String("section_id", sectionID), zap.Error(releaseErr))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "record enrollment")
		}

		s.metrics.RecordSeatReserved()
		resp.EnrolledSectionIDs = append(resp.EnrolledSectionIDs, sectionID)
		enrolledSet[sectionID] = true
		committedMeetings = append(committedMeetings, detail.Meetings...)
		activeCount++
		newlyEnrolled++
	}

	resp.Success = len(resp.Errors) == 0
	switch {
	case resp.Success:
		resp.Message = fmt.Sprintf("Successfully enrolled in %d course(s)", len(resp.EnrolledSectionIDs))
	case len(resp.EnrolledSectionIDs) == 0:
		resp.Message = "No requested sections could be enrolled"
	default:
		resp.Message = fmt.Sprintf("Enrolled %d of %d requested sections", len(resp.EnrolledSectionIDs), len(req.SectionIDs))
	}

	if newlyEnrolled > 0 && s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, "schedule:"+semester.ID+"*"); err != nil {
			s.logger.Warn("schedule cache invalidation failed", zap.String("semester_id", semester.ID), zap.Error(err))
		}
	}

	s.logger.Info("enrollment processed",
		zap.String("student_id", student.ID),
		zap.String("semester_id", semester.ID),
		zap.Int("requested", len(req.SectionIDs)),
		zap.Int("enrolled", newlyEnrolled),
		zap.Int("rejected", len(resp.Errors)))

	return resp, nil
}

// GetStudentProgress returns the student's graduation progress snapshot.
func (s *PlanningService) GetStudentProgress(ctx context.Context, studentID string) (*models.AcademicProgress, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	history, err := s.students.ListHistory(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "load course history")
	}
	progress, err := s.calculateProgress(ctx, student, history)
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (s *PlanningService) calculateProgress(ctx context.Context, student *models.Student, history []models.CourseHistory) (models.AcademicProgress, error) {
	ids := make([]string, 0, len(history))
	for _, record := range history {
		ids = append(ids, record.CourseID)
	}
	coursesByID := make(map[string]models.Course, len(ids))
	if len(ids) > 0 {
		courses, err := s.courses.ListByIDs(ctx, ids)
		if err != nil {
			return models.AcademicProgress{}, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "load history courses")
		}
		for _, c := range courses {
			coursesByID[c.ID] = c
		}
	}
	return s.progress.Calculate(student, history, coursesByID), nil
}

func (s *PlanningService) reject(resp *dto.EnrollResponse, sectionID, code, reason string) {
	resp.Errors = append(resp.Errors, dto.EnrollmentError{SectionID: sectionID, Code: code, Reason: reason})
	s.metrics.RecordEnrollmentRejection(code)
}

func (s *PlanningService) loadStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "load student")
	}
	return student, nil
}

func (s *PlanningService) loadSemester(ctx context.Context, id string) (*models.Semester, error) {
	semester, err := s.semesters.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "load semester")
	}
	return semester, nil
}

func passedCourseSet(history []models.CourseHistory) map[string]bool {
	passed := make(map[string]bool, len(history))
	for _, record := range history {
		if record.Passed {
			passed[record.CourseID] = true
		}
	}
	return passed
}

func prerequisitesMet(prerequisites []string, passed map[string]bool) bool {
	for _, id := range prerequisites {
		if !passed[id] {
			return false
		}
	}
	return true
}
