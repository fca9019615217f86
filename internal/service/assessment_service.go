package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupulse/gradebook-api/internal/dto"
	"github.com/edupulse/gradebook-api/internal/grading"
	"github.com/edupulse/gradebook-api/internal/models"
	appErrors "github.com/edupulse/gradebook-api/pkg/errors"
)

type assessmentCatalogue interface {
	List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, error)
	FindByID(ctx context.Context, id string) (*models.Assessment, error)
	Create(ctx context.Context, assessment *models.Assessment) error
}

// AssessmentService manages the assessment catalogue.
type AssessmentService struct {
	repo     assessmentCatalogue
	validate *validator.Validate
	logger   *zap.Logger
}

// NewAssessmentService constructs an assessment service.
func NewAssessmentService(repo assessmentCatalogue, logger *zap.Logger) *AssessmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{repo: repo, validate: validator.New(), logger: logger}
}

// List returns assessments matching the filter.
func (s *AssessmentService) List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, error) {
	assessments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessments")
	}
	return assessments, nil
}

// Get returns one assessment with its components.
func (s *AssessmentService) Get(ctx context.Context, id string) (*models.Assessment, error) {
	assessment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	return assessment, nil
}

// Create validates and stores a new assessment. Component weights must sum
// to 100 when components are supplied.
func (s *AssessmentService) Create(ctx context.Context, req dto.AssessmentRequest) (*models.Assessment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown assessment type")
	}
	assessment := &models.Assessment{
		Name:      req.Name,
		Type:      req.Type,
		MaxGrade:  req.MaxGrade,
		Weight:    req.Weight,
		Date:      req.Date,
		ClassID:   req.ClassID,
		SubjectID: req.SubjectID,
	}
	if assessment.Date.IsZero() {
		assessment.Date = time.Now().UTC()
	}
	for _, component := range req.Components {
		assessment.Components = append(assessment.Components, models.AssessmentComponent{
			Name:     component.Name,
			MaxGrade: component.MaxGrade,
			Weight:   component.Weight,
		})
	}
	if len(assessment.Components) > 0 && !grading.ValidateComponentWeights(assessment.Components) {
		return nil, appErrors.ErrInvalidWeights
	}
	if err := s.repo.Create(ctx, assessment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assessment")
	}
	s.logger.Info("assessment created",
		zap.String("assessment_id", assessment.ID),
		zap.String("class_id", assessment.ClassID),
		zap.String("type", string(assessment.Type)))
	return assessment, nil
}
