package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maplewood-sis/scheduling-api/internal/service"
	"github.com/maplewood-sis/scheduling-api/pkg/response"
)

// ReportingHandler exposes staffing and facility report endpoints.
type ReportingHandler struct {
	reporting *service.ReportingService
}

// NewReportingHandler constructs the handler.
func NewReportingHandler(reporting *service.ReportingService) *ReportingHandler {
	return &ReportingHandler{reporting: reporting}
}

// TeacherWorkloads godoc
// @Summary Teacher workload report for a semester
// @Tags Reports
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Success 200 {object} response.Envelope{data=[]dto.TeacherWorkload}
// @Router /semesters/{semesterId}/reports/teacher-workload [get]
func (h *ReportingHandler) TeacherWorkloads(c *gin.Context) {
	workloads, err := h.reporting.TeacherWorkloads(c.Request.Context(), c.Param("semesterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workloads, nil)
}

// RoomUsages godoc
// @Summary Classroom usage report for a semester
// @Tags Reports
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Success 200 {object} response.Envelope{data=[]dto.RoomUsage}
// @Router /semesters/{semesterId}/reports/room-usage [get]
func (h *ReportingHandler) RoomUsages(c *gin.Context) {
	usages, err := h.reporting.RoomUsages(c.Request.Context(), c.Param("semesterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, usages, nil)
}
