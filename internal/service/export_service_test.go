package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maplewood-sis/scheduling-api/internal/dto"
	appErrors "github.com/maplewood-sis/scheduling-api/pkg/errors"
)

type scheduleSourceStub struct {
	resp *dto.ScheduleResponse
}

func (s scheduleSourceStub) GetSchedule(ctx context.Context, semesterID string) (*dto.ScheduleResponse, error) {
	return s.resp, nil
}

func exportFixtureSchedule() *dto.ScheduleResponse {
	return &dto.ScheduleResponse{
		SemesterID:   "sem-1",
		SemesterName: "Fall 2026",
		Sections: []dto.Section{
			{
				ID:        "sec-1",
				Course:    dto.CourseRef{Code: "MATH101"},
				Teacher:   dto.TeacherRef{Name: "Ada Byrne"},
				Classroom: dto.ClassroomRef{Name: "Room 101"},
				Meetings: []dto.MeetingSlot{
					{DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "11:00"},
					{DayOfWeek: "WEDNESDAY", StartTime: "09:00", EndTime: "10:00"},
				},
				Capacity:      30,
				EnrolledCount: 12,
			},
		},
	}
}

func TestExportCSV(t *testing.T) {
	svc := NewExportService(scheduleSourceStub{resp: exportFixtureSchedule()}, nil, nil, zap.NewNop())

	result, err := svc.Export(context.Background(), "sem-1", "csv")
	require.NoError(t, err)

	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "schedule-sem-1.csv", result.Filename)

	lines := strings.Split(strings.TrimSpace(string(result.Data)), "\n")
	require.Len(t, lines, 3, "header plus one row per meeting")
	assert.Equal(t, "Course,Section,Teacher,Room,Day,Start,End,Enrolled,Capacity", lines[0])
	assert.Contains(t, lines[1], "MATH101")
	assert.Contains(t, lines[1], "MONDAY")
	assert.Contains(t, lines[2], "WEDNESDAY")
}

func TestExportPDF(t *testing.T) {
	svc := NewExportService(scheduleSourceStub{resp: exportFixtureSchedule()}, nil, nil, zap.NewNop())

	result, err := svc.Export(context.Background(), "sem-1", "pdf")
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "schedule-sem-1.pdf", result.Filename)
	assert.True(t, strings.HasPrefix(string(result.Data), "%PDF"), "output must be a PDF document")
}

func TestExportUnsupportedFormat(t *testing.T) {
	svc := NewExportService(scheduleSourceStub{resp: exportFixtureSchedule()}, nil, nil, zap.NewNop())

	_, err := svc.Export(context.Background(), "sem-1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
