package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/maplewood-sis/scheduling-api/internal/dto"
	"github.com/maplewood-sis/scheduling-api/internal/models"
	appErrors "github.com/maplewood-sis/scheduling-api/pkg/errors"
)

// School day grid. Meetings start on the hour between 09:00 and 17:00, never
// crossing the 12:00-13:00 lunch block.
const (
	dayStartMinute = 9 * 60
	dayEndMinute   = 17 * 60
	lunchStart     = 12 * 60
	lunchEnd       = 13 * 60

	maxSessionMinutes      = 2 * 60
	maxDailyTeacherMinutes = 4 * 60
)

type schedulerSemesterReader interface {
	FindByID(ctx context.Context, id string) (*models.Semester, error)
}

type schedulerCourseCatalog interface {
	ListActiveBySemesterOrder(ctx context.Context, semesterOrder int) ([]models.Course, error)
}

type schedulerTeacherRoster interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type schedulerClassroomLister interface {
	List(ctx context.Context) ([]models.Classroom, error)
}

type schedulerSectionStore interface {
	ListDetailsBySemester(ctx context.Context, semesterID string) ([]models.SectionDetail, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, section *models.CourseSection, meetings []models.Meeting) error
	DeleteUnenrolledTx(ctx context.Context, tx *sqlx.Tx, semesterID string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// GeneratorConfig governs section sizing and search effort.
type GeneratorConfig struct {
	MaxSectionSize  int
	MinSections     int
	BacktrackBudget int
}

// ScheduleGeneratorService builds a semester's master schedule from the course
// catalog, the teacher roster and the room inventory.
type ScheduleGeneratorService struct {
	semesters schedulerSemesterReader
	courses   schedulerCourseCatalog
	teachers  schedulerTeacherRoster
	rooms     schedulerClassroomLister
	sections  schedulerSectionStore
	tx        txProvider
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       GeneratorConfig

	// Generation runs serialize per semester. Runs for different semesters
	// touch disjoint data and may proceed concurrently.
	locks *keyedLocks
}

// NewScheduleGeneratorService wires generator dependencies.
func NewScheduleGeneratorService(
	semesters schedulerSemesterReader,
	courses schedulerCourseCatalog,
	teachers schedulerTeacherRoster,
	rooms schedulerClassroomLister,
	sections schedulerSectionStore,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg GeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxSectionSize <= 0 {
		cfg.MaxSectionSize = 30
	}
	if cfg.MinSections <= 0 {
		cfg.MinSections = 1
	}
	if cfg.BacktrackBudget <= 0 {
		cfg.BacktrackBudget = 24
	}
	return &ScheduleGeneratorService{
		semesters: semesters,
		courses:   courses,
		teachers:  teachers,
		rooms:     rooms,
		sections:  sections,
		tx:        tx,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		locks:     newKeyedLocks(),
	}
}

// generationState tracks resource commitments accumulated during one run.
type generationState struct {
	index        *AvailabilityIndex
	teacherLoads map[string]int // weekly committed minutes per teacher
	roomLoads    map[string]int // weekly committed minutes per room
}

type sectionPlacement struct {
	teacher  models.Teacher
	room     models.Classroom
	meetings []models.Meeting
}

// Generate replaces the semester's unenrolled sections with a freshly computed
// master schedule. Sections that already hold students are preserved and their
// meetings pre-seed the availability index.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}

	semester, err := s.semesters.FindByID(ctx, req.SemesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "load semester")
	}

	lock := s.locks.acquire(semester.ID)
	defer lock.Unlock()

	courses, err := s.courses.ListActiveBySemesterOrder(ctx, semester.OrderInYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "load course catalog")
	}
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "load teacher roster")
	}
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "load classrooms")
	}
	existing, err := s.sections.ListDetailsBySemester(ctx, semester.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "load existing sections")
	}

	state := &generationState{
		index:        NewAvailabilityIndex(),
		teacherLoads: make(map[string]int),
		roomLoads:    make(map[string]int),
	}
	preservedPerCourse := make(map[string]int)
	for _, detail := range existing {
		if detail.EnrolledCount == 0 {
			continue
		}
		state.index.SeedMeetings(detail.TeacherID, detail.ClassroomID, detail.Meetings)
		for _, m := range detail.Meetings {
			minutes := models.MinuteOfDay(m.EndTime) - models.MinuteOfDay(m.StartTime)
			state.teacherLoads[detail.TeacherID] += minutes
			state.roomLoads[detail.ClassroomID] += minutes
		}
		preservedPerCourse[detail.CourseID]++
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "begin generation transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.sections.DeleteUnenrolledTx(ctx, tx, semester.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "clear previous schedule")
	}

	placements := make([]models.CoursePlacement, 0, len(courses))
	newSections := 0
	for _, course := range s.orderByScarcity(courses, teachers, rooms) {
		placement := s.placeCourse(ctx, tx, semester.ID, course, teachers, rooms, state, preservedPerCourse[course.ID])
		if placement == nil {
			return nil, appErrors.Clone(appErrors.ErrUnavailable, "persist generated sections")
		}
		newSections += placement.SectionsPlaced - preservedPerCourse[course.ID]
		placements = append(placements, *placement)
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "commit generated schedule")
	}

	// Unmet demand covers both fully unassigned courses and courses that got
	// fewer sections than planned.
	unmetDemand := 0
	for _, p := range placements {
		if p.Outcome != models.PlacedFully {
			unmetDemand++
		}
	}
	s.metrics.RecordPlacements(newSections, unmetDemand)
	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, "schedule:"+semester.ID+"*"); err != nil {
			s.logger.Warn("schedule cache invalidation failed", zap.String("semester_id", semester.ID), zap.Error(err))
		}
	}

	details, err := s.sections.ListDetailsBySemester(ctx, semester.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "reload generated schedule")
	}

	sort.Slice(placements, func(i, j int) bool { return placements[i].CourseCode < placements[j].CourseCode })
	resp := buildScheduleResponse(semester, details, placements)
	resp.Summary.UnassignedCourses = unmetDemand
	resp.Summary.Message = fmt.Sprintf("Generated %d sections for %d courses. %d courses could not be fully assigned.",
		newSections, len(courses), unmetDemand)

	s.logger.Info("schedule generated",
		zap.String("semester_id", semester.ID),
		zap.Int("courses", len(courses)),
		zap.Int("sections_created", newSections),
		zap.Int("unmet_demand_courses", unmetDemand))

	return resp, nil
}

// GetSchedule returns the committed schedule for a semester, served from cache
// when available.
func (s *ScheduleGeneratorService) GetSchedule(ctx context.Context, semesterID string) (*dto.ScheduleResponse, error) {
	cacheKey := "schedule:" + semesterID
	var cached dto.ScheduleResponse
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	semester, err := s.semesters.FindByID(ctx, semesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "load semester")
	}
	details, err := s.sections.ListDetailsBySemester(ctx, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "load schedule")
	}

	resp := buildScheduleResponse(semester, details, nil)
	resp.Summary.Message = fmt.Sprintf("%d sections across %d courses", resp.Summary.TotalSections, resp.Summary.TotalCourses)

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, resp, 0); err != nil {
			s.logger.Warn("schedule cache write failed", zap.String("semester_id", semesterID), zap.Error(err))
		}
	}
	return resp, nil
}

func buildScheduleResponse(semester *models.Semester, details []models.SectionDetail, placements []models.CoursePlacement) *dto.ScheduleResponse {
	sections := make([]dto.Section, 0, len(details))
	courseIDs := make(map[string]struct{})
	for _, detail := range details {
		sections = append(sections, dto.SectionFromDetail(detail))
		courseIDs[detail.CourseID] = struct{}{}
	}
	return &dto.ScheduleResponse{
		SemesterID:   semester.ID,
		SemesterName: semester.DisplayName(),
		Sections:     sections,
		Placements:   placements,
		Summary: dto.ScheduleSummary{
			TotalSections: len(sections),
			TotalCourses:  len(courseIDs),
		},
	}
}

// orderByScarcity sorts courses so the hardest to place go first: fewest
// qualified teachers times fewest compatible rooms, then core before elective,
// then more weekly hours first.
func (s *ScheduleGeneratorService) orderByScarcity(courses []models.Course, teachers []models.Teacher, rooms []models.Classroom) []models.Course {
	ordered := make([]models.Course, len(courses))
	copy(ordered, courses)
	scarcity := make(map[string]int, len(courses))
	for _, course := range ordered {
		qualified := 0
		for _, t := range teachers {
			if t.QualifiedFor(course.ID) {
				qualified++
			}
		}
		compatible := 0
		target := s.targetSectionSize(course)
		for _, r := range rooms {
			if r.Accepts(course.RoomType) && r.Capacity >= target {
				compatible++
			}
		}
		scarcity[course.ID] = qualified * compatible
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if scarcity[a.ID] != scarcity[b.ID] {
			return scarcity[a.ID] < scarcity[b.ID]
		}
		if a.IsCore() != b.IsCore() {
			return a.IsCore()
		}
		if a.HoursPerWeek != b.HoursPerWeek {
			return a.HoursPerWeek > b.HoursPerWeek
		}
		return a.Code < b.Code
	})
	return ordered
}

func (s *ScheduleGeneratorService) sectionsNeeded(course models.Course) int {
	if course.ProjectedEnrollment <= 0 {
		return s.cfg.MinSections
	}
	needed := (course.ProjectedEnrollment + s.cfg.MaxSectionSize - 1) / s.cfg.MaxSectionSize
	if needed < s.cfg.MinSections {
		needed = s.cfg.MinSections
	}
	return needed
}

func (s *ScheduleGeneratorService) targetSectionSize(course models.Course) int {
	if course.ProjectedEnrollment <= 0 {
		return 1
	}
	needed := s.sectionsNeeded(course)
	target := (course.ProjectedEnrollment + needed - 1) / needed
	if target > s.cfg.MaxSectionSize {
		target = s.cfg.MaxSectionSize
	}
	return target
}

// placeCourse places as many sections as the course still needs and persists
// them inside the run's transaction. A nil return signals a store failure.
func (s *ScheduleGeneratorService) placeCourse(
	ctx context.Context,
	tx *sqlx.Tx,
	semesterID string,
	course models.Course,
	teachers []models.Teacher,
	rooms []models.Classroom,
	state *generationState,
	preserved int,
) *models.CoursePlacement {
	needed := s.sectionsNeeded(course)
	placement := &models.CoursePlacement{
		CourseID:        course.ID,
		CourseCode:      course.Code,
		SectionsPlanned: needed,
		SectionsPlaced:  preserved,
	}
	if course.HoursPerWeek <= 0 {
		placement.Outcome = models.Unassigned
		placement.Reason = "course has no weekly hours"
		return placement
	}

	target := s.targetSectionSize(course)
	candidateRooms := make([]models.Classroom, 0, len(rooms))
	for _, r := range rooms {
		if r.Accepts(course.RoomType) && r.Capacity >= target {
			candidateRooms = append(candidateRooms, r)
		}
	}

	for placement.SectionsPlaced < needed {
		candidateTeachers := s.candidateTeachers(course, teachers, state)
		if len(candidateTeachers) == 0 {
			placement.Reason = "no qualified teacher with remaining weekly hours"
			break
		}
		if len(candidateRooms) == 0 {
			placement.Reason = "no compatible classroom"
			break
		}
		sortRoomsByLoad(candidateRooms, state)

		found := s.searchPlacement(course, candidateTeachers, candidateRooms, state)
		if found == nil {
			placement.Reason = "no conflict-free meeting pattern within search budget"
			break
		}

		capacity := found.room.Capacity
		if capacity > s.cfg.MaxSectionSize {
			capacity = s.cfg.MaxSectionSize
		}
		section := &models.CourseSection{
			CourseID:    course.ID,
			TeacherID:   found.teacher.ID,
			ClassroomID: found.room.ID,
			SemesterID:  semesterID,
			Capacity:    capacity,
		}
		if err := s.sections.CreateTx(ctx, tx, section, found.meetings); err != nil {
			s.logger.Error("persist section failed",
				zap.String("course_id", course.ID),
				zap.String("teacher_id", found.teacher.ID),
				zap.Error(err))
			return nil
		}

		minutes := course.HoursPerWeek * 60
		state.teacherLoads[found.teacher.ID] += minutes
		state.roomLoads[found.room.ID] += minutes
		placement.SectionsPlaced++
	}

	switch {
	case placement.SectionsPlaced >= needed:
		placement.Outcome = models.PlacedFully
		placement.Reason = ""
	case placement.SectionsPlaced > 0:
		placement.Outcome = models.PlacedPartially
	default:
		placement.Outcome = models.Unassigned
	}
	return placement
}

// candidateTeachers filters to qualified teachers with weekly headroom for the
// course and orders them least-loaded first.
func (s *ScheduleGeneratorService) candidateTeachers(course models.Course, teachers []models.Teacher, state *generationState) []models.Teacher {
	needMinutes := course.HoursPerWeek * 60
	candidates := make([]models.Teacher, 0, len(teachers))
	for _, t := range teachers {
		if !t.QualifiedFor(course.ID) {
			continue
		}
		if t.MaxWeeklyHours > 0 && state.teacherLoads[t.ID]+needMinutes > t.MaxWeeklyHours*60 {
			continue
		}
		candidates = append(candidates, t)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		li, lj := state.teacherLoads[candidates[i].ID], state.teacherLoads[candidates[j].ID]
		if li != lj {
			return li < lj
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates
}

func sortRoomsByLoad(rooms []models.Classroom, state *generationState) {
	sort.SliceStable(rooms, func(i, j int) bool {
		li, lj := state.roomLoads[rooms[i].ID], state.roomLoads[rooms[j].ID]
		if li != lj {
			return li < lj
		}
		return rooms[i].Capacity > rooms[j].Capacity
	})
}

// searchPlacement walks teacher and room candidates in preference order until a
// conflict-free weekly pattern fits, giving up once the attempt budget is spent.
func (s *ScheduleGeneratorService) searchPlacement(course models.Course, teachers []models.Teacher, rooms []models.Classroom, state *generationState) *sectionPlacement {
	attempts := 0
	for _, t := range teachers {
		for i := range rooms {
			attempts++
			if attempts > s.cfg.BacktrackBudget {
				return nil
			}
			if meetings, ok := s.findPattern(course, t.ID, rooms[i].ID, state); ok {
				return &sectionPlacement{teacher: t, room: rooms[i], meetings: meetings}
			}
		}
	}
	return nil
}

// findPattern tries to lay the course's weekly hours onto the day grid for one
// teacher/room pair, at most one session per day. On success the reservations
// stay in the index; on failure everything since the checkpoint is rolled back.
func (s *ScheduleGeneratorService) findPattern(course models.Course, teacherID, roomID string, state *generationState) ([]models.Meeting, bool) {
	mark := state.index.Checkpoint()
	remaining := course.HoursPerWeek * 60
	var meetings []models.Meeting

	for _, day := range models.TeachingDays {
		if remaining <= 0 {
			break
		}
		headroom := maxDailyTeacherMinutes - state.index.BusyMinutes(teacherOwner(teacherID), day)
		if headroom < 60 {
			continue
		}
		session := remaining
		if session > maxSessionMinutes {
			session = maxSessionMinutes
		}
		if session > headroom {
			session = headroom
		}
		session -= session % 60

		for dur := session; dur >= 60; dur -= 60 {
			start, ok := s.findWindow(day, teacherID, roomID, dur, state)
			if !ok {
				continue
			}
			state.index.Reserve(teacherOwner(teacherID), day, start, start+dur)
			state.index.Reserve(classroomOwner(roomID), day, start, start+dur)
			meetings = append(meetings, models.Meeting{
				DayOfWeek: day,
				StartTime: models.FormatClock(start),
				EndTime:   models.FormatClock(start + dur),
			})
			remaining -= dur
			break
		}
	}

	if remaining > 0 {
		state.index.Rollback(mark)
		return nil, false
	}
	return meetings, true
}

// findWindow scans hourly start times for a block where both owners are free
// and the block does not cross lunch.
func (s *ScheduleGeneratorService) findWindow(day models.Weekday, teacherID, roomID string, dur int, state *generationState) (int, bool) {
	for start := dayStartMinute; start+dur <= dayEndMinute; start += 60 {
		if start < lunchEnd && lunchStart < start+dur {
			continue
		}
		if !state.index.Free(teacherOwner(teacherID), day, start, start+dur) {
			continue
		}
		if !state.index.Free(classroomOwner(roomID), day, start, start+dur) {
			continue
		}
		return start, true
	}
	return 0, false
}
