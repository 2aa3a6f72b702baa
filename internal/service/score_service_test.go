package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academix-io/academix-api/internal/dto"
	"github.com/academix-io/academix-api/internal/models"
	appErrors "github.com/academix-io/academix-api/pkg/errors"
)

type mockScoreRepo struct {
	scores map[string]models.Score
}

func scoreKey(s *models.Score) string {
	return s.StudentID + "|" + s.CourseID + "|" + string(s.Category) + "|" + s.ItemID
}

func (m *mockScoreRepo) Upsert(ctx context.Context, s *models.Score) error {
	if m.scores == nil {
		m.scores = make(map[string]models.Score)
	}
	m.scores[scoreKey(s)] = *s
	return nil
}

func (m *mockScoreRepo) List(ctx context.Context, filter models.ScoreFilter) ([]models.Score, error) {
	var result []models.Score
	for _, s := range m.scores {
		if filter.StudentID != "" && filter.StudentID != s.StudentID {
			continue
		}
		if filter.CourseID != "" && filter.CourseID != s.CourseID {
			continue
		}
		if filter.Category != "" && filter.Category != s.Category {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

func (m *mockScoreRepo) CategoryAverage(ctx context.Context, studentID, courseID string, category models.AssessmentCategory) (models.CategoryAverage, error) {
	var sum, sumMax float64
	count := 0
	for _, s := range m.scores {
		if s.StudentID == studentID && s.CourseID == courseID && s.Category == category {
			sum += s.Score
			sumMax += s.MaxScore
			count++
		}
	}
	if count == 0 {
		return models.CategoryAverage{}, nil
	}
	return models.CategoryAverage{AvgScore: sum / float64(count), AvgMaxScore: sumMax / float64(count)}, nil
}

func (m *mockScoreRepo) FetchByStudentCourse(ctx context.Context, studentID, courseID string) (map[models.AssessmentCategory][]models.Score, error) {
	result := make(map[models.AssessmentCategory][]models.Score)
	for _, s := range m.scores {
		if s.StudentID == studentID && s.CourseID == courseID {
			result[s.Category] = append(result[s.Category], s)
		}
	}
	return result, nil
}

type mockEnrollmentChecker struct {
	enrolled map[string]bool
}

func (m *mockEnrollmentChecker) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	return m.enrolled[studentID+"|"+courseID], nil
}

func allEnrolled() *mockEnrollmentChecker {
	return &mockEnrollmentChecker{enrolled: map[string]bool{"stu-1|course-1": true}}
}

func TestScoreServiceUpsertIdempotent(t *testing.T) {
	repo := &mockScoreRepo{}
	svc := NewScoreService(repo, allEnrolled(), &mockWeightRepo{}, nil, nil)

	req := dto.UpsertScoreRequest{
		StudentID: "stu-1", CourseID: "course-1",
		Category: models.CategoryAssignment, ItemID: "hw-1",
		Score: 15, MaxScore: 20,
	}
	_, err := svc.Upsert(context.Background(), req)
	require.NoError(t, err)

	req.Score = 18
	_, err = svc.Upsert(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, repo.scores, 1)
	stored := repo.scores["stu-1|course-1|assignment|hw-1"]
	assert.InDelta(t, 18, stored.Score, 0.0001)
}

func TestScoreServiceUpsertRejectsUnknownCategory(t *testing.T) {
	svc := NewScoreService(&mockScoreRepo{}, allEnrolled(), &mockWeightRepo{}, nil, nil)

	_, err := svc.Upsert(context.Background(), dto.UpsertScoreRequest{
		StudentID: "stu-1", CourseID: "course-1",
		Category: "project", ItemID: "p-1", Score: 5, MaxScore: 10,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownCategory.Code, appErrors.FromError(err).Code)
}

func TestScoreServiceUpsertRejectsUnenrolled(t *testing.T) {
	svc := NewScoreService(&mockScoreRepo{}, &mockEnrollmentChecker{}, &mockWeightRepo{}, nil, nil)

	_, err := svc.Upsert(context.Background(), dto.UpsertScoreRequest{
		StudentID: "stu-9", CourseID: "course-1",
		Category: models.CategoryQuiz, ItemID: "quiz-1", Score: 5, MaxScore: 10,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScoreServiceUpsertForwardsItemWeight(t *testing.T) {
	weights := &mockWeightRepo{}
	svc := NewScoreService(&mockScoreRepo{}, allEnrolled(), weights, nil, nil)

	itemWeight := 12.5
	_, err := svc.Upsert(context.Background(), dto.UpsertScoreRequest{
		StudentID: "stu-1", CourseID: "course-1",
		Category: models.CategoryQuiz, ItemID: "quiz-1",
		Score: 8, MaxScore: 10, Weight: &itemWeight,
	})
	require.NoError(t, err)
	stored, err := weights.FindAssessmentWeight(context.Background(), "course-1", models.CategoryQuiz, "quiz-1")
	require.NoError(t, err)
	assert.InDelta(t, 12.5, stored.Weight, 0.0001)
}

func TestScoreServiceCategoryAverageZeroData(t *testing.T) {
	svc := NewScoreService(&mockScoreRepo{}, allEnrolled(), &mockWeightRepo{}, nil, nil)

	avg, err := svc.CategoryAverage(context.Background(), "stu-1", "course-1", models.CategoryMidterm)
	require.NoError(t, err)
	assert.Zero(t, avg.AvgScore)
	assert.Zero(t, avg.AvgMaxScore)
}

func TestScoreServiceNormalizedCategoryAverages(t *testing.T) {
	repo := &mockScoreRepo{}
	svc := NewScoreService(repo, allEnrolled(), &mockWeightRepo{}, nil, nil)

	seed := []dto.UpsertScoreRequest{
		{StudentID: "stu-1", CourseID: "course-1", Category: models.CategoryAssignment, ItemID: "hw-1", Score: 16, MaxScore: 20},
		{StudentID: "stu-1", CourseID: "course-1", Category: models.CategoryAssignment, ItemID: "hw-2", Score: 50, MaxScore: 50},
		{StudentID: "stu-1", CourseID: "course-1", Category: models.CategoryMidterm, ItemID: "mid", Score: 70, MaxScore: 100},
	}
	for _, req := range seed {
		_, err := svc.Upsert(context.Background(), req)
		require.NoError(t, err)
	}

	averages, err := svc.NormalizedCategoryAverages(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	assert.InDelta(t, 90, averages[models.CategoryAssignment], 0.0001)
	assert.InDelta(t, 70, averages[models.CategoryMidterm], 0.0001)
	assert.Zero(t, averages[models.CategoryQuiz])
	assert.Zero(t, averages[models.CategoryFinal])
}

func TestScoreServiceWeightedCategoryTotals(t *testing.T) {
	repo := &mockScoreRepo{}
	weights := &mockWeightRepo{}
	svc := NewScoreService(repo, allEnrolled(), weights, nil, nil)

	w := 2.0
	_, err := svc.Upsert(context.Background(), dto.UpsertScoreRequest{
		StudentID: "stu-1", CourseID: "course-1",
		Category: models.CategoryQuiz, ItemID: "quiz-1",
		Score: 8, MaxScore: 10, Weight: &w,
	})
	require.NoError(t, err)
	_, err = svc.Upsert(context.Background(), dto.UpsertScoreRequest{
		StudentID: "stu-1", CourseID: "course-1",
		Category: models.CategoryQuiz, ItemID: "quiz-2",
		Score: 6, MaxScore: 10,
	})
	require.NoError(t, err)

	totals, err := svc.WeightedCategoryTotals(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	quiz := totals[models.CategoryQuiz]
	assert.Equal(t, 2, quiz.Count)
	// quiz-1 contributes (8/10)*2, quiz-2 has no configured weight
	assert.InDelta(t, 1.6, quiz.TotalWeightedScore, 0.0001)
	assert.InDelta(t, 0.8, quiz.Average, 0.0001)
}

func TestScoreServiceWeightedCategoryTotalsNormalizesByMaxScore(t *testing.T) {
	repo := &mockScoreRepo{}
	weights := &mockWeightRepo{}
	svc := NewScoreService(repo, allEnrolled(), weights, nil, nil)

	w := 10.0
	_, err := svc.Upsert(context.Background(), dto.UpsertScoreRequest{
		StudentID: "stu-1", CourseID: "course-1",
		Category: models.CategoryFinal, ItemID: "final",
		Score: 50, MaxScore: 100, Weight: &w,
	})
	require.NoError(t, err)

	totals, err := svc.WeightedCategoryTotals(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	final := totals[models.CategoryFinal]
	assert.InDelta(t, 5, final.TotalWeightedScore, 0.0001)
	assert.InDelta(t, 5, final.Average, 0.0001)
}
