package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maplewood-sis/scheduling-api/internal/dto"
	"github.com/maplewood-sis/scheduling-api/internal/service"
	"github.com/maplewood-sis/scheduling-api/pkg/response"
)

// ScheduleHandler exposes master-schedule endpoints.
type ScheduleHandler struct {
	generator *service.ScheduleGeneratorService
	exports   *service.ExportService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(generator *service.ScheduleGeneratorService, exports *service.ExportService) *ScheduleHandler {
	return &ScheduleHandler{generator: generator, exports: exports}
}

// Generate godoc
// @Summary Generate the master schedule for a semester
// @Tags Schedule
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Success 200 {object} response.Envelope{data=dto.ScheduleResponse}
// @Router /semesters/{semesterId}/schedule/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	req := dto.GenerateScheduleRequest{SemesterID: c.Param("semesterId")}
	schedule, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Get godoc
// @Summary Retrieve the committed schedule for a semester
// @Tags Schedule
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Success 200 {object} response.Envelope{data=dto.ScheduleResponse}
// @Router /semesters/{semesterId}/schedule [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.generator.GetSchedule(c.Request.Context(), c.Param("semesterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Export godoc
// @Summary Download the schedule as CSV or PDF
// @Tags Schedule
// @Produce text/csv
// @Produce application/pdf
// @Param semesterId path string true "Semester ID"
// @Param format query string false "Export format (csv or pdf)" default(csv)
// @Success 200 {file} file
// @Router /semesters/{semesterId}/schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", service.FormatCSV)
	result, err := h.exports.Export(c.Request.Context(), c.Param("semesterId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
