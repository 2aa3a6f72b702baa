package models

import "time"

// AssessmentCategory identifies one of the four graded assessment kinds.
type AssessmentCategory string

const (
	CategoryAssignment AssessmentCategory = "assignment"
	CategoryQuiz       AssessmentCategory = "quiz"
	CategoryMidterm    AssessmentCategory = "midterm"
	CategoryFinal      AssessmentCategory = "final"
)

// Categories lists every supported category in weighting order.
var Categories = []AssessmentCategory{CategoryAssignment, CategoryQuiz, CategoryMidterm, CategoryFinal}

// Valid reports whether the category is one of the supported values.
func (c AssessmentCategory) Valid() bool {
	switch c {
	case CategoryAssignment, CategoryQuiz, CategoryMidterm, CategoryFinal:
		return true
	default:
		return false
	}
}

// CourseWeights holds the percentage weight per category for a course.
// The four weights must sum to 100 (validated before persistence).
type CourseWeights struct {
	ID               string    `db:"id" json:"id"`
	CourseID         string    `db:"course_id" json:"course_id"`
	ProfessorID      string    `db:"professor_id" json:"professor_id"`
	AssignmentWeight float64   `db:"assignment_weight" json:"assignment_weight"`
	QuizWeight       float64   `db:"quiz_weight" json:"quiz_weight"`
	MidtermWeight    float64   `db:"midterm_weight" json:"midterm_weight"`
	FinalWeight      float64   `db:"final_weight" json:"final_weight"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Sum returns the total of the four category weights.
func (w CourseWeights) Sum() float64 {
	return w.AssignmentWeight + w.QuizWeight + w.MidtermWeight + w.FinalWeight
}

// ForCategory returns the weight configured for one category.
func (w CourseWeights) ForCategory(c AssessmentCategory) float64 {
	switch c {
	case CategoryAssignment:
		return w.AssignmentWeight
	case CategoryQuiz:
		return w.QuizWeight
	case CategoryMidterm:
		return w.MidtermWeight
	case CategoryFinal:
		return w.FinalWeight
	default:
		return 0
	}
}

// DefaultCourseWeights is applied when a course has no explicit configuration.
var DefaultCourseWeights = CourseWeights{
	AssignmentWeight: 20,
	QuizWeight:       20,
	MidtermWeight:    25,
	FinalWeight:      35,
}

// AssessmentWeight holds the weight for one specific graded item,
// unique per (course, category, item).
type AssessmentWeight struct {
	ID        string             `db:"id" json:"id"`
	CourseID  string             `db:"course_id" json:"course_id"`
	Category  AssessmentCategory `db:"category" json:"category"`
	ItemID    string             `db:"item_id" json:"item_id"`
	Weight    float64            `db:"weight" json:"weight"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt time.Time          `db:"updated_at" json:"updated_at"`
}

// Score records one achieved result against a maximum,
// unique per (student, course, category, item).
type Score struct {
	ID        string             `db:"id" json:"id"`
	StudentID string             `db:"student_id" json:"student_id"`
	CourseID  string             `db:"course_id" json:"course_id"`
	Category  AssessmentCategory `db:"category" json:"category"`
	ItemID    string             `db:"item_id" json:"item_id"`
	Score     float64            `db:"score" json:"score"`
	MaxScore  float64            `db:"max_score" json:"max_score"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt time.Time          `db:"updated_at" json:"updated_at"`
}

// ScoreFilter allows querying of score rows.
type ScoreFilter struct {
	StudentID string
	CourseID  string
	Category  AssessmentCategory
}

// CategoryAverage reports the arithmetic means of score and max score
// within one category. Both are zero when no rows exist.
type CategoryAverage struct {
	AvgScore    float64 `json:"avg_score"`
	AvgMaxScore float64 `json:"avg_max_score"`
}

// CategoryWeightedTotal accumulates item-weighted contributions per category.
type CategoryWeightedTotal struct {
	TotalWeightedScore float64 `json:"total_weighted_score"`
	Count              int     `json:"count"`
	Average            float64 `json:"average"`
}

// StudentCourseGrade is the authoritative resolved summary per (student, course).
type StudentCourseGrade struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	CourseID      string    `db:"course_id" json:"course_id"`
	AssignmentAvg float64   `db:"assignment_avg" json:"assignment_avg"`
	QuizAvg       float64   `db:"quiz_avg" json:"quiz_avg"`
	MidtermScore  float64   `db:"midterm_score" json:"midterm_score"`
	FinalScore    float64   `db:"final_score" json:"final_score"`
	WeightedTotal float64   `db:"weighted_total" json:"weighted_total"`
	LetterGrade   string    `db:"letter_grade" json:"letter_grade"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// FinalGrade stores a caller-computed final result per (student, course).
type FinalGrade struct {
	ID                 string    `db:"id" json:"id"`
	StudentID          string    `db:"student_id" json:"student_id"`
	CourseID           string    `db:"course_id" json:"course_id"`
	FinalWeightedScore float64   `db:"final_weighted_score" json:"final_weighted_score"`
	WeightSum          float64   `db:"weight_sum" json:"weight_sum"`
	FinalPercentage    float64   `db:"final_percentage" json:"final_percentage"`
	LetterGrade        string    `db:"letter_grade" json:"letter_grade"`
	CalculatedAt       time.Time `db:"calculated_at" json:"calculated_at"`
}

// GradeReportRow represents a student's resolved grade row for course reports.
type GradeReportRow struct {
	StudentID     string   `db:"student_id" json:"student_id"`
	StudentName   string   `db:"student_name" json:"student_name"`
	WeightedTotal *float64 `db:"weighted_total" json:"weighted_total,omitempty"`
	LetterGrade   *string  `db:"letter_grade" json:"letter_grade,omitempty"`
	Rank          *int     `db:"rank" json:"rank,omitempty"`
}

// GradeDistribution summarises resolved grade metrics for a course.
type GradeDistribution struct {
	CourseID string   `db:"course_id" json:"course_id"`
	Min      *float64 `db:"min" json:"min,omitempty"`
	Max      *float64 `db:"max" json:"max,omitempty"`
	Average  *float64 `db:"average" json:"average,omitempty"`
}

// CourseGradeReport aggregates course performance.
type CourseGradeReport struct {
	CourseID     string             `json:"course_id"`
	Distribution *GradeDistribution `json:"distribution,omitempty"`
	Students     []GradeReportRow   `json:"students"`
}

// TranscriptRow is one course line of a student transcript.
type TranscriptRow struct {
	CourseID      string   `db:"course_id" json:"course_id"`
	CourseCode    string   `db:"course_code" json:"course_code"`
	CourseTitle   string   `db:"course_title" json:"course_title"`
	WeightedTotal *float64 `db:"weighted_total" json:"weighted_total,omitempty"`
	LetterGrade   *string  `db:"letter_grade" json:"letter_grade,omitempty"`
}

// StudentTranscript contains resolved grades across a student's courses.
type StudentTranscript struct {
	StudentID string          `json:"student_id"`
	Courses   []TranscriptRow `json:"courses"`
}
