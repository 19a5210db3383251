package dto

import "github.com/maplewood-sis/scheduling-api/internal/models"

// StudentRef identifies the student a plan belongs to.
type StudentRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	GradeLevel int    `json:"gradeLevel"`
}

// AvailableSection is a section annotated with the student's eligibility.
type AvailableSection struct {
	Section
	PrerequisitesMet bool   `json:"prerequisitesMet"`
	HasTimeConflict  bool   `json:"hasTimeConflict"`
	ConflictReason   string `json:"conflictReason,omitempty"`
}

// StudentPlanResponse is the planFor projection for one student and semester.
type StudentPlanResponse struct {
	Student           StudentRef              `json:"student"`
	SemesterID        string                  `json:"semesterId"`
	SemesterName      string                  `json:"semesterName"`
	AvailableSections []AvailableSection      `json:"availableSections"`
	EnrolledSections  []Section               `json:"enrolledSections"`
	Progress          models.AcademicProgress `json:"progress"`
}

// EnrollRequest is a batch of section choices for one semester.
type EnrollRequest struct {
	SemesterID string   `json:"semesterId" validate:"required"`
	SectionIDs []string `json:"sectionIds" validate:"required,min=1,dive,required"`
}

// Enrollment rejection reason codes.
const (
	ReasonPrerequisiteUnmet = "PREREQUISITE_UNMET"
	ReasonTimeConflict      = "TIME_CONFLICT"
	ReasonSectionFull       = "SECTION_FULL"
	ReasonLimitExceeded     = "LIMIT_EXCEEDED"
	ReasonSectionNotFound   = "SECTION_NOT_FOUND"
)

// EnrollmentError explains why one requested section was rejected.
type EnrollmentError struct {
	SectionID string `json:"sectionId"`
	Code      string `json:"code"`
	Reason    string `json:"reason"`
}

// EnrollResponse reports per-section outcomes of an enrollment batch.
// Success is true only when every requested section was committed.
type EnrollResponse struct {
	Success            bool              `json:"success"`
	Message            string            `json:"message"`
	EnrolledSectionIDs []string          `json:"enrolledSectionIds"`
	Errors             []EnrollmentError `json:"errors,omitempty"`
}
