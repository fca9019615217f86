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

type gradeOrchestrator interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntry, error)
	Record(ctx context.Context, req dto.GradeEntryRequest) (*models.GradeEntry, error)
	BulkImport(ctx context.Context, req dto.BulkImportRequest) (*dto.BulkImportResult, error)
	Verify(ctx context.Context, id, actorID, ip, userAgent string) (*models.GradeEntry, error)
	Recalculate(ctx context.Context, req dto.RecalculateRequest) (*dto.RecalculateResult, error)
	FinalGrade(ctx context.Context, studentID string) (*models.FinalGradeCalculation, error)
}

// GradeHandler exposes grade entry endpoints.
type GradeHandler struct {
	grades gradeOrchestrator
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades gradeOrchestrator) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// ListGrades godoc
// @Summary List grade entries
// @Tags Grades
// @Produce json
// @Param studentId query string false "Student ID"
// @Param assessmentId query string false "Assessment ID"
// @Param classId query string false "Class ID"
// @Param status query string false "Lifecycle status"
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) ListGrades(c *gin.Context) {
	filter := models.GradeFilter{
		StudentID:    c.Query("studentId"),
		AssessmentID: c.Query("assessmentId"),
		ClassID:      c.Query("classId"),
		Status:       models.GradeStatus(c.Query("status")),
	}
	entries, err := h.grades.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// RecordGrade godoc
// @Summary Record or overwrite a grade entry
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body dto.GradeEntryRequest true "Grade entry"
// @Success 201 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) RecordGrade(c *gin.Context) {
	var req dto.GradeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid grade payload"))
		return
	}
	entry, err := h.grades.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// BulkImport godoc
// @Summary Import a grade sheet for one assessment
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body dto.BulkImportRequest true "Grade sheet"
// @Success 200 {object} response.Envelope
// @Router /grades/bulk-import [post]
func (h *GradeHandler) BulkImport(c *gin.Context) {
	var req dto.BulkImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid import payload"))
		return
	}
	result, err := h.grades.BulkImport(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// VerifyGrade godoc
// @Summary Verify a recorded grade
// @Tags Grades
// @Produce json
// @Param id path string true "Grade entry ID"
// @Success 200 {object} response.Envelope
// @Router /grades/{id}/verify [post]
func (h *GradeHandler) VerifyGrade(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entry, err := h.grades.Verify(c.Request.Context(), c.Param("id"), claims.UserID, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Recalculate godoc
// @Summary Re-normalise all entries of an assessment
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body dto.RecalculateRequest true "Recalculate request"
// @Success 200 {object} response.Envelope
// @Router /grades/recalculate [post]
func (h *GradeHandler) Recalculate(c *gin.Context) {
	var req dto.RecalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid recalculate payload"))
		return
	}
	result, err := h.grades.Recalculate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// FinalGrade godoc
// @Summary Composed weighted final grade for a student
// @Tags Grades
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/final-grade [get]
func (h *GradeHandler) FinalGrade(c *gin.Context) {
	calc, err := h.grades.FinalGrade(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calc, nil)
}
