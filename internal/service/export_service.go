package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/maplewood-sis/scheduling-api/internal/dto"
	"github.com/maplewood-sis/scheduling-api/pkg/export"
	appErrors "github.com/maplewood-sis/scheduling-api/pkg/errors"
)

// Supported export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type scheduleSource interface {
	GetSchedule(ctx context.Context, semesterID string) (*dto.ScheduleResponse, error)
}

type csvRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type pdfRenderer interface {
	Render(table export.Table) ([]byte, error)
}

// ExportResult is a rendered schedule document ready to stream.
type ExportResult struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ExportService renders a semester's committed schedule as a downloadable document.
type ExportService struct {
	schedules scheduleSource
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(schedules scheduleSource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{schedules: schedules, csv: csv, pdf: pdf, logger: logger}
}

// Export builds the schedule table for the semester and renders it in the
// requested format.
func (s *ExportService) Export(ctx context.Context, semesterID, format string) (*ExportResult, error) {
	schedule, err := s.schedules.GetSchedule(ctx, semesterID)
	if err != nil {
		return nil, err
	}

	table := buildScheduleTable(schedule)
	switch strings.ToLower(format) {
	case FormatCSV:
		data, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render csv export")
		}
		return &ExportResult{
			Data:        data,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("schedule-%s.csv", semesterID),
		}, nil
	case FormatPDF:
		data, err := s.pdf.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render pdf export")
		}
		return &ExportResult{
			Data:        data,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("schedule-%s.pdf", semesterID),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// buildScheduleTable flattens the schedule to one row per weekly meeting.
func buildScheduleTable(schedule *dto.ScheduleResponse) export.Table {
	table := export.Table{
		Title:   "Master Schedule " + schedule.SemesterName,
		Headers: []string{"Course", "Section", "Teacher", "Room", "Day", "Start", "End", "Enrolled", "Capacity"},
	}
	for _, section := range schedule.Sections {
		if len(section.Meetings) == 0 {
			table.Rows = append(table.Rows, []string{
				section.Course.Code, section.ID, section.Teacher.Name, section.Classroom.Name,
				"", "", "",
				fmt.Sprintf("%d", section.EnrolledCount), fmt.Sprintf("%d", section.Capacity),
			})
			continue
		}
		for _, meeting := range section.Meetings {
			table.Rows = append(table.Rows, []string{
				section.Course.Code, section.ID, section.Teacher.Name, section.Classroom.Name,
				meeting.DayOfWeek, meeting.StartTime, meeting.EndTime,
				fmt.Sprintf("%d", section.EnrolledCount), fmt.Sprintf("%d", section.Capacity),
			})
		}
	}
	return table
}
