package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maplewood-sis/scheduling-api/internal/service"
	"github.com/maplewood-sis/scheduling-api/pkg/response"
)

// SemesterHandler exposes academic calendar endpoints.
type SemesterHandler struct {
	semesters *service.SemesterService
}

// NewSemesterHandler constructs the handler.
func NewSemesterHandler(semesters *service.SemesterService) *SemesterHandler {
	return &SemesterHandler{semesters: semesters}
}

// List godoc
// @Summary List semesters in calendar order
// @Tags Semesters
// @Produce json
// @Success 200 {object} response.Envelope{data=[]models.Semester}
// @Router /semesters [get]
func (h *SemesterHandler) List(c *gin.Context) {
	semesters, err := h.semesters.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesters, nil)
}

// Get godoc
// @Summary Get one semester
// @Tags Semesters
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Success 200 {object} response.Envelope{data=models.Semester}
// @Router /semesters/{semesterId} [get]
func (h *SemesterHandler) Get(c *gin.Context) {
	semester, err := h.semesters.Get(c.Request.Context(), c.Param("semesterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}
