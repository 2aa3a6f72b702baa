package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/academix-io/academix-api/internal/service"
	"github.com/academix-io/academix-api/pkg/response"
)

// GradeReportHandler exposes read-only grade reporting endpoints.
type GradeReportHandler struct {
	reports *service.GradeReportService
}

// NewGradeReportHandler constructs GradeReportHandler.
func NewGradeReportHandler(reports *service.GradeReportService) *GradeReportHandler {
	return &GradeReportHandler{reports: reports}
}

// CourseReport godoc
// @Summary Ranked grade report with distribution for a course
// @Tags Grading
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /grading/reports/courses/{courseId} [get]
func (h *GradeReportHandler) CourseReport(c *gin.Context) {
	report, err := h.reports.CourseReport(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Transcript godoc
// @Summary Resolved grades across all of a student's courses
// @Tags Grading
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /grading/transcripts/{studentId} [get]
func (h *GradeReportHandler) Transcript(c *gin.Context) {
	transcript, err := h.reports.Transcript(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transcript, nil)
}

// CategoryTotals godoc
// @Summary Item-weighted per-category totals for one student in a course
// @Tags Grading
// @Produce json
// @Param studentId query string true "Student ID"
// @Param courseId query string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /grading/category-totals [get]
func (h *GradeReportHandler) CategoryTotals(c *gin.Context) {
	totals, err := h.reports.CategoryTotals(c.Request.Context(), c.Query("studentId"), c.Query("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, totals, nil)
}
