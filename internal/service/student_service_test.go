package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academix-io/academix-api/internal/models"
	appErrors "github.com/academix-io/academix-api/pkg/errors"
)

type mockStudentRepo struct {
	byID map[string]*models.Student
}

func newStudentRepo(seed ...*models.Student) *mockStudentRepo {
	repo := &mockStudentRepo{byID: map[string]*models.Student{}}
	for _, s := range seed {
		repo.byID[s.ID] = s
	}
	return repo
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	students := make([]models.Student, 0, len(m.byID))
	for _, s := range m.byID {
		students = append(students, *s)
	}
	return students, len(students), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.byID[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByStudentNo(ctx context.Context, studentNo string, excludeID string) (bool, error) {
	for _, s := range m.byID {
		if s.StudentNo == studentNo && s.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	m.byID[student.ID] = student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	if _, ok := m.byID[student.ID]; !ok {
		return sql.ErrNoRows
	}
	m.byID[student.ID] = student
	return nil
}

func (m *mockStudentRepo) Deactivate(ctx context.Context, id string) error {
	s, ok := m.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.Active = false
	return nil
}

func TestStudentServiceCreate(t *testing.T) {
	svc := NewStudentService(newStudentRepo(), nil, nil)

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentNo: "S001",
		FullName:  "Dana Ivers",
		Email:     "dana@example.edu",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.True(t, student.Active)
}

func TestStudentServiceCreateDuplicateNumber(t *testing.T) {
	repo := newStudentRepo(&models.Student{ID: "stu-1", StudentNo: "S001", FullName: "Dana Ivers", Active: true})
	svc := NewStudentService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentNo: "S001",
		FullName:  "Remy Okafor",
		Email:     "remy@example.edu",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreateInvalidEmail(t *testing.T) {
	svc := NewStudentService(newStudentRepo(), nil, nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentNo: "S001",
		FullName:  "Dana Ivers",
		Email:     "not-an-email",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceUpdate(t *testing.T) {
	repo := newStudentRepo(&models.Student{ID: "stu-1", StudentNo: "S001", FullName: "Dana Ivers", Email: "dana@example.edu", Active: true})
	svc := NewStudentService(repo, nil, nil)

	updated, err := svc.Update(context.Background(), "stu-1", UpdateStudentRequest{
		StudentNo: "S001",
		FullName:  "Dana I. Vers",
		Email:     "dana@example.edu",
		Active:    false,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dana I. Vers", updated.FullName)
	assert.False(t, repo.byID["stu-1"].Active)
}

func TestStudentServiceUpdateNotFound(t *testing.T) {
	svc := NewStudentService(newStudentRepo(), nil, nil)

	_, err := svc.Update(context.Background(), "missing", UpdateStudentRequest{
		StudentNo: "S001",
		FullName:  "Dana Ivers",
		Email:     "dana@example.edu",
		Active:    true,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceDeactivate(t *testing.T) {
	repo := newStudentRepo(&models.Student{ID: "stu-1", StudentNo: "S001", Active: true})
	svc := NewStudentService(repo, nil, nil)

	require.NoError(t, svc.Deactivate(context.Background(), "stu-1"))
	assert.False(t, repo.byID["stu-1"].Active)

	err := svc.Deactivate(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
