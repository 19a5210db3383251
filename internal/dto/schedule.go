package dto

import "github.com/maplewood-sis/scheduling-api/internal/models"

// GenerateScheduleRequest asks for a fresh master schedule for one semester.
type GenerateScheduleRequest struct {
	SemesterID string `json:"semesterId" validate:"required"`
}

// ScheduleSummary carries the headline counters of a generation run.
type ScheduleSummary struct {
	TotalSections     int    `json:"totalSections"`
	TotalCourses      int    `json:"totalCourses"`
	UnassignedCourses int    `json:"unassignedCourses"`
	Message           string `json:"message"`
}

// CourseRef is the course slice of a section projection.
type CourseRef struct {
	ID              string   `json:"id"`
	Code            string   `json:"code"`
	Name            string   `json:"name"`
	Credits         float64  `json:"credits"`
	HoursPerWeek    int      `json:"hoursPerWeek"`
	CourseType      string   `json:"courseType"`
	PrerequisiteIDs []string `json:"prerequisiteIds,omitempty"`
}

// TeacherRef identifies the assigned teacher.
type TeacherRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ClassroomRef identifies the assigned room.
type ClassroomRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// MeetingSlot is one weekly time block in a section projection.
type MeetingSlot struct {
	DayOfWeek string `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Section is the read projection of one committed course section.
type Section struct {
	ID                string        `json:"id"`
	Course            CourseRef     `json:"course"`
	Teacher           TeacherRef    `json:"teacher"`
	Classroom         ClassroomRef  `json:"classroom"`
	Meetings          []MeetingSlot `json:"meetings"`
	Capacity          int           `json:"capacity"`
	EnrolledCount     int           `json:"enrolledCount"`
	RemainingCapacity int           `json:"remainingCapacity"`
}

// ScheduleResponse joins a semester's sections with per-course outcomes.
type ScheduleResponse struct {
	SemesterID   string                   `json:"semesterId"`
	SemesterName string                   `json:"semesterName"`
	Sections     []Section                `json:"sections"`
	Placements   []models.CoursePlacement `json:"placements,omitempty"`
	Summary      ScheduleSummary          `json:"summary"`
}

// SectionFromDetail maps the repository projection into the wire shape.
func SectionFromDetail(detail models.SectionDetail) Section {
	meetings := make([]MeetingSlot, 0, len(detail.Meetings))
	for _, m := range detail.Meetings {
		meetings = append(meetings, MeetingSlot{
			DayOfWeek: string(m.DayOfWeek),
			StartTime: m.StartTime,
			EndTime:   m.EndTime,
		})
	}
	return Section{
		ID: detail.ID,
		Course: CourseRef{
			ID:              detail.CourseID,
			Code:            detail.CourseCode,
			Name:            detail.CourseName,
			Credits:         detail.Credits,
			HoursPerWeek:    detail.HoursPerWeek,
			CourseType:      detail.CourseType,
			PrerequisiteIDs: detail.PrerequisiteIDs,
		},
		Teacher:           TeacherRef{ID: detail.TeacherID, Name: detail.TeacherName},
		Classroom:         ClassroomRef{ID: detail.ClassroomID, Name: detail.ClassroomName, Capacity: detail.Capacity},
		Meetings:          meetings,
		Capacity:          detail.Capacity,
		EnrolledCount:     detail.EnrolledCount,
		RemainingCapacity: detail.RemainingCapacity(),
	}
}
