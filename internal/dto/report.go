package dto

// TeacherWorkload aggregates a teacher's weekly load within one semester.
type TeacherWorkload struct {
	TeacherID    string         `json:"teacherId"`
	TeacherName  string         `json:"teacherName"`
	SectionCount int            `json:"sectionCount"`
	WeeklyHours  int            `json:"weeklyHours"`
	DailyHours   map[string]int `json:"dailyHours"`
}

// RoomUsage aggregates how heavily one classroom is scheduled.
type RoomUsage struct {
	ClassroomID    string  `json:"classroomId"`
	ClassroomName  string  `json:"classroomName"`
	SectionCount   int     `json:"sectionCount"`
	WeeklyHours    int     `json:"weeklyHours"`
	UtilizationPct float64 `json:"utilizationPct"`
}
