package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupulse/gradebook-api/internal/dto"
	"github.com/edupulse/gradebook-api/internal/models"
	appErrors "github.com/edupulse/gradebook-api/pkg/errors"
	"github.com/edupulse/gradebook-api/pkg/response"
)

type assessmentOrchestrator interface {
	List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, error)
	Get(ctx context.Context, id string) (*models.Assessment, error)
	Create(ctx context.Context, req dto.AssessmentRequest) (*models.Assessment, error)
}

// AssessmentHandler exposes assessment catalogue endpoints.
type AssessmentHandler struct {
	assessments assessmentOrchestrator
}

// NewAssessmentHandler constructs handler.
func NewAssessmentHandler(assessments assessmentOrchestrator) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// ListAssessments godoc
// @Summary List assessments
// @Tags Assessments
// @Produce json
// @Param classId query string false "Class ID"
// @Param subjectId query string false "Subject ID"
// @Param type query string false "Assessment type"
// @Success 200 {object} response.Envelope
// @Router /assessments [get]
func (h *AssessmentHandler) ListAssessments(c *gin.Context) {
	filter := models.AssessmentFilter{
		ClassID:   c.Query("classId"),
		SubjectID: c.Query("subjectId"),
		Type:      models.AssessmentType(c.Query("type")),
	}
	assessments, err := h.assessments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessments, nil)
}

// GetAssessment godoc
// @Summary Assessment detail with components
// @Tags Assessments
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/{id} [get]
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	assessment, err := h.assessments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// CreateAssessment godoc
// @Summary Create an assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body dto.AssessmentRequest true "Assessment"
// @Success 201 {object} response.Envelope
// @Router /assessments [post]
func (h *AssessmentHandler) CreateAssessment(c *gin.Context) {
	var req dto.AssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assessment payload"))
		return
	}
	assessment, err := h.assessments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assessment)
}
