package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/academix-io/academix-api/internal/dto"
	"github.com/academix-io/academix-api/internal/models"
	"github.com/academix-io/academix-api/internal/service"
	appErrors "github.com/academix-io/academix-api/pkg/errors"
	"github.com/academix-io/academix-api/pkg/response"
)

// GradeHandler exposes score recording and grade resolution endpoints.
type GradeHandler struct {
	scores   *service.ScoreService
	resolver *service.GradeResolverService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(scores *service.ScoreService, resolver *service.GradeResolverService) *GradeHandler {
	return &GradeHandler{scores: scores, resolver: resolver}
}

// UpsertScore godoc
// @Summary Record or replace a score
// @Tags Grading
// @Accept json
// @Produce json
// @Param payload body dto.UpsertScoreRequest true "Score payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grading/scores [post]
func (h *GradeHandler) UpsertScore(c *gin.Context) {
	var req dto.UpsertScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	score, err := h.scores.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score, nil)
}

// ListScores godoc
// @Summary List recorded scores
// @Tags Grading
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param courseId query string false "Filter by course"
// @Param category query string false "Filter by category"
// @Success 200 {object} response.Envelope
// @Router /grading/scores [get]
func (h *GradeHandler) ListScores(c *gin.Context) {
	filter := models.ScoreFilter{
		StudentID: c.Query("studentId"),
		CourseID:  c.Query("courseId"),
		Category:  models.AssessmentCategory(c.Query("category")),
	}
	scores, err := h.scores.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scores, nil)
}

// CategoryAverage godoc
// @Summary Average score and max score within one category
// @Tags Grading
// @Produce json
// @Param studentId query string true "Student ID"
// @Param courseId query string true "Course ID"
// @Param category query string true "Assessment category"
// @Success 200 {object} response.Envelope
// @Router /grading/averages/category [get]
func (h *GradeHandler) CategoryAverage(c *gin.Context) {
	avg, err := h.scores.CategoryAverage(c.Request.Context(), c.Query("studentId"), c.Query("courseId"), models.AssessmentCategory(c.Query("category")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, avg, nil)
}

// NormalizedAverages godoc
// @Summary Normalized 0-100 averages for every category
// @Tags Grading
// @Produce json
// @Param studentId query string true "Student ID"
// @Param courseId query string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /grading/averages [get]
func (h *GradeHandler) NormalizedAverages(c *gin.Context) {
	averages, err := h.scores.NormalizedCategoryAverages(c.Request.Context(), c.Query("studentId"), c.Query("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, averages, nil)
}

// ResolveStudent godoc
// @Summary Resolve the grade of one student in a course
// @Tags Grading
// @Produce json
// @Param studentId path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /grading/resolve/{courseId}/students/{studentId} [post]
func (h *GradeHandler) ResolveStudent(c *gin.Context) {
	grade, err := h.resolver.ResolveStudentCourse(c.Request.Context(), c.Param("studentId"), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// ResolveCourse godoc
// @Summary Resolve grades for every actively enrolled student in a course
// @Tags Grading
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /grading/resolve/{courseId} [post]
func (h *GradeHandler) ResolveCourse(c *gin.Context) {
	result, err := h.resolver.ResolveCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GetStudentGrade godoc
// @Summary Resolved grade row for one student in a course
// @Tags Grading
// @Produce json
// @Param studentId path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grading/grades/{courseId}/students/{studentId} [get]
func (h *GradeHandler) GetStudentGrade(c *gin.Context) {
	grade, err := h.resolver.GetStudentCourseGrade(c.Request.Context(), c.Param("studentId"), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// UpsertFinalGrade godoc
// @Summary Store a caller-computed final grade
// @Tags Grading
// @Accept json
// @Produce json
// @Param payload body dto.UpsertFinalGradeRequest true "Final grade payload"
// @Success 200 {object} response.Envelope
// @Router /grading/final-grades [post]
func (h *GradeHandler) UpsertFinalGrade(c *gin.Context) {
	var req dto.UpsertFinalGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.resolver.UpsertFinalGrade(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// GetFinalGrade godoc
// @Summary Stored final grade for one student in a course
// @Tags Grading
// @Produce json
// @Param studentId path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grading/final-grades/{courseId}/students/{studentId} [get]
func (h *GradeHandler) GetFinalGrade(c *gin.Context) {
	grade, err := h.resolver.GetFinalGrade(c.Request.Context(), c.Param("studentId"), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}
