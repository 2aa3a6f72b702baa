package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academix-io/academix-api/internal/models"
	appErrors "github.com/academix-io/academix-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	byID    map[string]*models.Enrollment
	existing map[string]bool
}

func newEnrollmentRepo() *mockEnrollmentRepo {
	return &mockEnrollmentRepo{byID: map[string]*models.Enrollment{}, existing: map[string]bool{}}
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.byID[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	return m.existing[studentID+"/"+courseID], nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	m.byID[enrollment.ID] = enrollment
	m.existing[enrollment.StudentID+"/"+enrollment.CourseID] = true
	return nil
}

func (m *mockEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, droppedAt *time.Time) error {
	e, ok := m.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.Status = status
	e.DroppedAt = droppedAt
	return nil
}

type mockStudentReader struct {
	students map[string]*models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func newEnrollmentServiceForTest() (*EnrollmentService, *mockEnrollmentRepo) {
	repo := newEnrollmentRepo()
	students := &mockStudentReader{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", StudentNo: "S001", FullName: "Dana Ivers", Active: true},
		"stu-2": {ID: "stu-2", StudentNo: "S002", FullName: "Remy Okafor", Active: false},
	}}
	courses := &mockCourseReader{courses: map[string]*models.CourseDetail{
		"course-1": {Course: models.Course{ID: "course-1", Code: "CS101", Active: true}},
	}}
	return NewEnrollmentService(repo, students, courses, nil, nil), repo
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	svc, repo := newEnrollmentServiceForTest()

	enrollment, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "stu-1", CourseID: "course-1"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.Len(t, repo.byID, 1)
}

func TestEnrollmentServiceEnrollDuplicate(t *testing.T) {
	svc, _ := newEnrollmentServiceForTest()

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "stu-1", CourseID: "course-1"})
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), EnrollRequest{StudentID: "stu-1", CourseID: "course-1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestEnrollmentServiceEnrollInactiveStudent(t *testing.T) {
	svc, _ := newEnrollmentServiceForTest()

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "stu-2", CourseID: "course-1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestEnrollmentServiceDropOnlyFromActive(t *testing.T) {
	svc, repo := newEnrollmentServiceForTest()

	enrollment, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "stu-1", CourseID: "course-1"})
	require.NoError(t, err)

	require.NoError(t, svc.Drop(context.Background(), enrollment.ID))
	assert.Equal(t, models.EnrollmentStatusDropped, repo.byID[enrollment.ID].Status)
	assert.NotNil(t, repo.byID[enrollment.ID].DroppedAt)

	err = svc.Complete(context.Background(), enrollment.ID)
	require.Error(t, err)
}
