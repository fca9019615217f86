package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/gradebook-api/internal/dto"
	"github.com/edupulse/gradebook-api/internal/models"
	appErrors "github.com/edupulse/gradebook-api/pkg/errors"
)

type catalogueStub struct {
	assessments map[string]*models.Assessment
	created     []*models.Assessment
}

func (s *catalogueStub) List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, error) {
	var out []models.Assessment
	for _, a := range s.assessments {
		out = append(out, *a)
	}
	return out, nil
}

func (s *catalogueStub) FindByID(ctx context.Context, id string) (*models.Assessment, error) {
	a, ok := s.assessments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func (s *catalogueStub) Create(ctx context.Context, assessment *models.Assessment) error {
	assessment.ID = "a-new"
	s.created = append(s.created, assessment)
	return nil
}

func TestAssessmentServiceCreate(t *testing.T) {
	repo := &catalogueStub{}
	svc := NewAssessmentService(repo, nil)

	created, err := svc.Create(context.Background(), dto.AssessmentRequest{
		Name:     "Final Exam",
		Type:     models.AssessmentExam,
		MaxGrade: 100,
		Weight:   40,
		ClassID:  "class-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "a-new", created.ID)
	assert.False(t, created.Date.IsZero())
	require.Len(t, repo.created, 1)
}

func TestAssessmentServiceCreateComponentWeights(t *testing.T) {
	repo := &catalogueStub{}
	svc := NewAssessmentService(repo, nil)

	req := dto.AssessmentRequest{
		Name:     "Practical Series",
		Type:     models.AssessmentPractical,
		MaxGrade: 100,
		ClassID:  "class-1",
		Components: []dto.ComponentRequest{
			{Name: "Lab Work", MaxGrade: 50, Weight: 60},
			{Name: "Write-up", MaxGrade: 50, Weight: 30},
		},
	}
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidWeights.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)

	req.Components[1].Weight = 40
	created, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, created.Components, 2)
}

func TestAssessmentServiceCreateUnknownType(t *testing.T) {
	repo := &catalogueStub{}
	svc := NewAssessmentService(repo, nil)

	_, err := svc.Create(context.Background(), dto.AssessmentRequest{
		Name:     "Oral",
		Type:     models.AssessmentType("oral"),
		MaxGrade: 100,
		ClassID:  "class-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssessmentServiceGetNotFound(t *testing.T) {
	svc := NewAssessmentService(&catalogueStub{assessments: map[string]*models.Assessment{}}, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
