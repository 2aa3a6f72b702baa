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

// WeightHandler exposes grading weight configuration endpoints.
type WeightHandler struct {
	weights *service.WeightService
}

// NewWeightHandler constructs WeightHandler.
func NewWeightHandler(weights *service.WeightService) *WeightHandler {
	return &WeightHandler{weights: weights}
}

// SetCourseWeights godoc
// @Summary Configure category weights for a course
// @Tags Grading
// @Accept json
// @Produce json
// @Param payload body dto.SetCourseWeightsRequest true "Weights payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grading/weights [put]
func (h *WeightHandler) SetCourseWeights(c *gin.Context) {
	var req dto.SetCourseWeightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	weights, err := h.weights.SetCourseWeights(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, weights, nil)
}

// GetCourseWeights godoc
// @Summary Get configured category weights for a course
// @Tags Grading
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grading/weights/{courseId} [get]
func (h *WeightHandler) GetCourseWeights(c *gin.Context) {
	weights, err := h.weights.GetCourseWeights(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, weights, nil)
}

// SetAssessmentWeight godoc
// @Summary Configure the weight of a single graded item
// @Tags Grading
// @Accept json
// @Produce json
// @Param payload body dto.UpsertAssessmentWeightRequest true "Item weight payload"
// @Success 200 {object} response.Envelope
// @Router /grading/item-weights [put]
func (h *WeightHandler) SetAssessmentWeight(c *gin.Context) {
	var req dto.UpsertAssessmentWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	weight, err := h.weights.SetAssessmentWeight(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, weight, nil)
}

// ListAssessmentWeights godoc
// @Summary List configured item weights for a course
// @Tags Grading
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /grading/item-weights/{courseId} [get]
func (h *WeightHandler) ListAssessmentWeights(c *gin.Context) {
	weights, err := h.weights.ListAssessmentWeights(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, weights, nil)
}

// GetAssessmentWeight godoc
// @Summary Get the weight of one graded item
// @Tags Grading
// @Produce json
// @Param courseId path string true "Course ID"
// @Param category query string true "Assessment category"
// @Param itemId query string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /grading/item-weights/{courseId}/item [get]
func (h *WeightHandler) GetAssessmentWeight(c *gin.Context) {
	category := models.AssessmentCategory(c.Query("category"))
	weight, err := h.weights.GetAssessmentWeight(c.Request.Context(), c.Param("courseId"), category, c.Query("itemId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if weight == nil {
		weight = &models.AssessmentWeight{
			CourseID: c.Param("courseId"),
			Category: category,
			ItemID:   c.Query("itemId"),
			Weight:   0,
		}
	}
	response.JSON(c, http.StatusOK, weight, nil)
}
