package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academix-io/academix-api/internal/models"
	appErrors "github.com/academix-io/academix-api/pkg/errors"
)

type memoryCacheRepo struct {
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	delete(m.entries, pattern)
	return nil
}

type mockGradeReportRepo struct {
	rows       []models.GradeReportRow
	transcript []models.TranscriptRow
	calls      int
}

func (m *mockGradeReportRepo) CourseReportRows(ctx context.Context, courseID string) ([]models.GradeReportRow, error) {
	m.calls++
	return m.rows, nil
}

func (m *mockGradeReportRepo) CourseDistribution(ctx context.Context, courseID string) (*models.GradeDistribution, error) {
	avg := 81.25
	return &models.GradeDistribution{CourseID: courseID, Min: &avg, Max: &avg, Average: &avg}, nil
}

func (m *mockGradeReportRepo) Transcript(ctx context.Context, studentID string) ([]models.TranscriptRow, error) {
	return m.transcript, nil
}

type mockCategoryTotals struct {
	totals map[models.AssessmentCategory]models.CategoryWeightedTotal
}

func (m *mockCategoryTotals) WeightedCategoryTotals(ctx context.Context, studentID, courseID string) (map[models.AssessmentCategory]models.CategoryWeightedTotal, error) {
	return m.totals, nil
}

func TestGradeReportServiceCourseReportCaches(t *testing.T) {
	repo := &mockGradeReportRepo{rows: []models.GradeReportRow{{StudentID: "stu-1", StudentName: "Dana Ivers"}}}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := NewGradeReportService(repo, &mockCategoryTotals{}, cache, time.Minute, nil)

	first, err := svc.CourseReport(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, first.Students, 1)

	second, err := svc.CourseReport(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, first.Students, second.Students)
	assert.Equal(t, 1, repo.calls)
}

func TestGradeReportServiceInvalidateCourse(t *testing.T) {
	repo := &mockGradeReportRepo{rows: []models.GradeReportRow{{StudentID: "stu-1"}}}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := NewGradeReportService(repo, &mockCategoryTotals{}, cache, time.Minute, nil)

	_, err := svc.CourseReport(context.Background(), "course-1")
	require.NoError(t, err)

	svc.InvalidateCourse(context.Background(), "course-1")

	_, err = svc.CourseReport(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestGradeReportServiceCourseReportCacheDisabled(t *testing.T) {
	repo := &mockGradeReportRepo{rows: []models.GradeReportRow{{StudentID: "stu-1"}}}
	cache := NewCacheService(nil, nil, time.Minute, nil, false)
	svc := NewGradeReportService(repo, &mockCategoryTotals{}, cache, time.Minute, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.CourseReport(context.Background(), "course-1")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, repo.calls)
}

func TestGradeReportServiceTranscript(t *testing.T) {
	repo := &mockGradeReportRepo{transcript: []models.TranscriptRow{{CourseID: "course-1", CourseCode: "CS101"}}}
	svc := NewGradeReportService(repo, &mockCategoryTotals{}, nil, time.Minute, nil)

	transcript, err := svc.Transcript(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "stu-1", transcript.StudentID)
	require.Len(t, transcript.Courses, 1)
	assert.Equal(t, "CS101", transcript.Courses[0].CourseCode)
}

func TestGradeReportServiceCategoryTotals(t *testing.T) {
	totals := &mockCategoryTotals{totals: map[models.AssessmentCategory]models.CategoryWeightedTotal{
		models.CategoryMidterm: {TotalWeightedScore: 28.4, Count: 2, Average: 81.1},
	}}
	svc := NewGradeReportService(&mockGradeReportRepo{}, totals, nil, time.Minute, nil)

	resp, err := svc.CategoryTotals(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Totals[models.CategoryMidterm].Count)
}
