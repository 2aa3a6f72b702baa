package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academix-io/academix-api/internal/dto"
	"github.com/academix-io/academix-api/internal/models"
	appErrors "github.com/academix-io/academix-api/pkg/errors"
)

type mockWeightRepo struct {
	courseWeights map[string]models.CourseWeights
	itemWeights   map[string]models.AssessmentWeight
}

func weightKey(courseID string, category models.AssessmentCategory, itemID string) string {
	return courseID + "|" + string(category) + "|" + itemID
}

func (m *mockWeightRepo) UpsertCourseWeights(ctx context.Context, w *models.CourseWeights) error {
	if m.courseWeights == nil {
		m.courseWeights = make(map[string]models.CourseWeights)
	}
	m.courseWeights[w.CourseID] = *w
	return nil
}

func (m *mockWeightRepo) FindCourseWeights(ctx context.Context, courseID string) (*models.CourseWeights, error) {
	if w, ok := m.courseWeights[courseID]; ok {
		return &w, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockWeightRepo) UpsertAssessmentWeight(ctx context.Context, w *models.AssessmentWeight) error {
	if m.itemWeights == nil {
		m.itemWeights = make(map[string]models.AssessmentWeight)
	}
	m.itemWeights[weightKey(w.CourseID, w.Category, w.ItemID)] = *w
	return nil
}

func (m *mockWeightRepo) FindAssessmentWeight(ctx context.Context, courseID string, category models.AssessmentCategory, itemID string) (*models.AssessmentWeight, error) {
	if w, ok := m.itemWeights[weightKey(courseID, category, itemID)]; ok {
		return &w, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockWeightRepo) ListAssessmentWeights(ctx context.Context, courseID string) ([]models.AssessmentWeight, error) {
	var weights []models.AssessmentWeight
	for _, w := range m.itemWeights {
		if w.CourseID == courseID {
			weights = append(weights, w)
		}
	}
	return weights, nil
}

type mockCourseReader struct {
	courses map[string]*models.CourseDetail
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func newCourseReader() *mockCourseReader {
	return &mockCourseReader{courses: map[string]*models.CourseDetail{
		"course-1": {Course: models.Course{ID: "course-1", Code: "CS101", ProfessorID: "prof-1"}},
	}}
}

func TestWeightServiceSetCourseWeightsAcceptsExactSum(t *testing.T) {
	svc := NewWeightService(&mockWeightRepo{}, newCourseReader(), nil, nil)

	weights, err := svc.SetCourseWeights(context.Background(), dto.SetCourseWeightsRequest{
		CourseID:         "course-1",
		AssignmentWeight: 20,
		QuizWeight:       20,
		MidtermWeight:    25,
		FinalWeight:      35,
	})
	require.NoError(t, err)
	assert.Equal(t, "prof-1", weights.ProfessorID)
	assert.InDelta(t, 100, weights.Sum(), 0.001)
}

func TestWeightServiceSetCourseWeightsRejectsBadSum(t *testing.T) {
	repo := &mockWeightRepo{}
	svc := NewWeightService(repo, newCourseReader(), nil, nil)

	_, err := svc.SetCourseWeights(context.Background(), dto.SetCourseWeightsRequest{
		CourseID:         "course-1",
		AssignmentWeight: 20,
		QuizWeight:       20,
		MidtermWeight:    25,
		FinalWeight:      34,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidWeights.Code, appErr.Code)
	assert.Empty(t, repo.courseWeights)
}

func TestWeightServiceSetCourseWeightsUnknownCourse(t *testing.T) {
	svc := NewWeightService(&mockWeightRepo{}, newCourseReader(), nil, nil)

	_, err := svc.SetCourseWeights(context.Background(), dto.SetCourseWeightsRequest{
		CourseID:         "missing",
		AssignmentWeight: 25,
		QuizWeight:       25,
		MidtermWeight:    25,
		FinalWeight:      25,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestWeightServiceGetCourseWeightsNotConfigured(t *testing.T) {
	svc := NewWeightService(&mockWeightRepo{}, newCourseReader(), nil, nil)

	_, err := svc.GetCourseWeights(context.Background(), "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestWeightServiceSetAssessmentWeightRejectsUnknownCategory(t *testing.T) {
	svc := NewWeightService(&mockWeightRepo{}, newCourseReader(), nil, nil)

	_, err := svc.SetAssessmentWeight(context.Background(), dto.UpsertAssessmentWeightRequest{
		CourseID: "course-1",
		Category: "lab",
		ItemID:   "lab-1",
		Weight:   10,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownCategory.Code, appErrors.FromError(err).Code)
}

func TestWeightServiceAssessmentWeightUpsertReplaces(t *testing.T) {
	repo := &mockWeightRepo{}
	svc := NewWeightService(repo, newCourseReader(), nil, nil)

	_, err := svc.SetAssessmentWeight(context.Background(), dto.UpsertAssessmentWeightRequest{
		CourseID: "course-1", Category: models.CategoryQuiz, ItemID: "quiz-1", Weight: 10,
	})
	require.NoError(t, err)
	_, err = svc.SetAssessmentWeight(context.Background(), dto.UpsertAssessmentWeightRequest{
		CourseID: "course-1", Category: models.CategoryQuiz, ItemID: "quiz-1", Weight: 15,
	})
	require.NoError(t, err)

	require.Len(t, repo.itemWeights, 1)
	stored, err := svc.GetAssessmentWeight(context.Background(), "course-1", models.CategoryQuiz, "quiz-1")
	require.NoError(t, err)
	assert.InDelta(t, 15, stored.Weight, 0.0001)
}

func TestWeightServiceGetAssessmentWeightAbsent(t *testing.T) {
	svc := NewWeightService(&mockWeightRepo{}, newCourseReader(), nil, nil)

	w, err := svc.GetAssessmentWeight(context.Background(), "course-1", models.CategoryQuiz, "quiz-9")
	require.NoError(t, err)
	assert.Nil(t, w)
}
