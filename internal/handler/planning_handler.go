package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maplewood-sis/scheduling-api/internal/dto"
	"github.com/maplewood-sis/scheduling-api/internal/service"
	appErrors "github.com/maplewood-sis/scheduling-api/pkg/errors"
	"github.com/maplewood-sis/scheduling-api/pkg/response"
)

// PlanningHandler exposes student planning and enrollment endpoints.
type PlanningHandler struct {
	planning *service.PlanningService
}

// NewPlanningHandler constructs the handler.
func NewPlanningHandler(planning *service.PlanningService) *PlanningHandler {
	return &PlanningHandler{planning: planning}
}

// Plan godoc
// @Summary Get a student's plan for a semester
// @Tags Planning
// @Produce json
// @Param studentId path string true "Student ID"
// @Param semesterId query string true "Semester ID"
// @Success 200 {object} response.Envelope{data=dto.StudentPlanResponse}
// @Router /students/{studentId}/plan [get]
func (h *PlanningHandler) Plan(c *gin.Context) {
	semesterID := c.Query("semesterId")
	if semesterID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semesterId query parameter is required"))
		return
	}
	plan, err := h.planning.GetStudentPlan(c.Request.Context(), c.Param("studentId"), semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Enroll godoc
// @Summary Enroll a student into a batch of sections
// @Tags Planning
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param payload body dto.EnrollRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope{data=dto.EnrollResponse}
// @Router /students/{studentId}/enrollments [post]
func (h *PlanningHandler) Enroll(c *gin.Context) {
	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.planning.Enroll(c.Request.Context(), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Progress godoc
// @Summary Get a student's graduation progress
// @Tags Planning
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope{data=models.AcademicProgress}
// @Router /students/{studentId}/progress [get]
func (h *PlanningHandler) Progress(c *gin.Context) {
	progress, err := h.planning.GetStudentProgress(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}
