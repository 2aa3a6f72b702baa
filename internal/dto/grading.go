package dto

import "github.com/academix-io/academix-api/internal/models"

// SetCourseWeightsRequest defines payload for configuring course category weights.
type SetCourseWeightsRequest struct {
	CourseID         string  `json:"course_id" validate:"required"`
	AssignmentWeight float64 `json:"assignment_weight" validate:"min=0,max=100"`
	QuizWeight       float64 `json:"quiz_weight" validate:"min=0,max=100"`
	MidtermWeight    float64 `json:"midterm_weight" validate:"min=0,max=100"`
	FinalWeight      float64 `json:"final_weight" validate:"min=0,max=100"`
}

// UpsertAssessmentWeightRequest configures the weight of a single graded item.
type UpsertAssessmentWeightRequest struct {
	CourseID string                    `json:"course_id" validate:"required"`
	Category models.AssessmentCategory `json:"category" validate:"required"`
	ItemID   string                    `json:"item_id" validate:"required"`
	Weight   float64                   `json:"weight" validate:"min=0,max=100"`
}

// UpsertScoreRequest records or replaces one achieved score.
type UpsertScoreRequest struct {
	StudentID string                    `json:"student_id" validate:"required"`
	CourseID  string                    `json:"course_id" validate:"required"`
	Category  models.AssessmentCategory `json:"category" validate:"required"`
	ItemID    string                    `json:"item_id" validate:"required"`
	Score     float64                   `json:"score" validate:"min=0"`
	MaxScore  float64                   `json:"max_score" validate:"required,gt=0"`
	Weight    *float64                  `json:"weight,omitempty" validate:"omitempty,min=0,max=100"`
}

// UpsertFinalGradeRequest stores a caller-computed final grade. The letter is
// derived from the percentage when the caller leaves it out.
type UpsertFinalGradeRequest struct {
	StudentID          string  `json:"student_id" validate:"required"`
	CourseID           string  `json:"course_id" validate:"required"`
	FinalWeightedScore float64 `json:"final_weighted_score" validate:"min=0"`
	WeightSum          float64 `json:"weight_sum" validate:"required,gt=0"`
	FinalPercentage    float64 `json:"final_percentage" validate:"min=0,max=100"`
	LetterGrade        *string `json:"letter_grade,omitempty" validate:"omitempty,oneof=A B C D F"`
}

// ResolveCourseResponse reports the outcome of a batch course resolution.
type ResolveCourseResponse struct {
	CourseID string                      `json:"course_id"`
	Resolved int                         `json:"resolved"`
	Skipped  int                         `json:"skipped"`
	Grades   []models.StudentCourseGrade `json:"grades"`
}

// CategoryTotalsResponse exposes the weighted per-category totals view.
type CategoryTotalsResponse struct {
	StudentID string                                                  `json:"student_id"`
	CourseID  string                                                  `json:"course_id"`
	Totals    map[models.AssessmentCategory]models.CategoryWeightedTotal `json:"totals"`
}
