package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/maplewood-sis/scheduling-api/internal/dto"
	"github.com/maplewood-sis/scheduling-api/internal/models"
	appErrors "github.com/maplewood-sis/scheduling-api/pkg/errors"
)

// Weekly minutes a room can be scheduled: five seven-hour days (lunch excluded).
const roomWeeklyCapacityMinutes = 5 * 7 * 60

type reportingSectionStore interface {
	ListDetailsBySemester(ctx context.Context, semesterID string) ([]models.SectionDetail, error)
}

// ReportingService aggregates committed schedules into staffing and facility views.
type ReportingService struct {
	semesters planningSemesterReader
	sections  reportingSectionStore
	logger    *zap.Logger
}

// NewReportingService wires reporting dependencies.
func NewReportingService(semesters planningSemesterReader, sections reportingSectionStore, logger *zap.Logger) *ReportingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportingService{semesters: semesters, sections: sections, logger: logger}
}

// TeacherWorkloads sums each teacher's committed weekly and per-day hours for a semester.
func (s *ReportingService) TeacherWorkloads(ctx context.Context, semesterID string) ([]dto.TeacherWorkload, error) {
	details, err := s.loadDetails(ctx, semesterID)
	if err != nil {
		return nil, err
	}

	byTeacher := make(map[string]*dto.TeacherWorkload)
	for _, detail := range details {
		entry, ok := byTeacher[detail.TeacherID]
		if !ok {
			entry = &dto.TeacherWorkload{
				TeacherID:   detail.TeacherID,
				TeacherName: detail.TeacherName,
				DailyHours:  make(map[string]int),
			}
			byTeacher[detail.TeacherID] = entry
		}
		entry.SectionCount++
		for _, m := range detail.Meetings {
			hours := m.DurationHours()
			entry.WeeklyHours += hours
			entry.DailyHours[string(m.DayOfWeek)] += hours
		}
	}

	workloads := make([]dto.TeacherWorkload, 0, len(byTeacher))
	for _, entry := range byTeacher {
		workloads = append(workloads, *entry)
	}
	sort.Slice(workloads, func(i, j int) bool { return workloads[i].TeacherName < workloads[j].TeacherName })
	return workloads, nil
}

// RoomUsages sums each classroom's committed hours and utilization for a semester.
func (s *ReportingService) RoomUsages(ctx context.Context, semesterID string) ([]dto.RoomUsage, error) {
	details, err := s.loadDetails(ctx, semesterID)
	if err != nil {
		return nil, err
	}

	byRoom := make(map[string]*dto.RoomUsage)
	minutesByRoom := make(map[string]int)
	for _, detail := range details {
		entry, ok := byRoom[detail.ClassroomID]
		if !ok {
			entry = &dto.RoomUsage{
				ClassroomID:   detail.ClassroomID,
				ClassroomName: detail.ClassroomName,
			}
			byRoom[detail.ClassroomID] = entry
		}
		entry.SectionCount++
		for _, m := range detail.Meetings {
			entry.WeeklyHours += m.DurationHours()
			minutesByRoom[detail.ClassroomID] += models.MinuteOfDay(m.EndTime) - models.MinuteOfDay(m.StartTime)
		}
	}

	usages := make([]dto.RoomUsage, 0, len(byRoom))
	for id, entry := range byRoom {
		entry.UtilizationPct = float64(minutesByRoom[id]) / float64(roomWeeklyCapacityMinutes) * 100
		usages = append(usages, *entry)
	}
	sort.Slice(usages, func(i, j int) bool { return usages[i].ClassroomName < usages[j].ClassroomName })
	return usages, nil
}

func (s *ReportingService) loadDetails(ctx context.Context, semesterID string) ([]models.SectionDetail, error) {
	if _, err := s.semesters.FindByID(ctx, semesterID); err != nil {
		return nil, notFoundOrUnavailable(err, "semester not found", "load semester")
	}
	details, err := s.sections.ListDetailsBySemester(ctx, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "load semester sections")
	}
	return details, nil
}

func notFoundOrUnavailable(err error, notFoundMsg, wrapMsg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFoundMsg)
	}
	return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, wrapMsg)
}
