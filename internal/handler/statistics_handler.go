package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupulse/gradebook-api/internal/dto"
	"github.com/edupulse/gradebook-api/internal/models"
	"github.com/edupulse/gradebook-api/pkg/response"
)

type statisticsOrchestrator interface {
	ClassStatistics(ctx context.Context, classID, assessmentID string) (*models.GradeStatistics, error)
	AnomalyScan(ctx context.Context, classID, assessmentID string) (*dto.AnomalyScanResult, error)
}

// StatisticsHandler exposes cohort statistics endpoints.
type StatisticsHandler struct {
	stats statisticsOrchestrator
}

// NewStatisticsHandler constructs handler.
func NewStatisticsHandler(stats statisticsOrchestrator) *StatisticsHandler {
	return &StatisticsHandler{stats: stats}
}

// ClassStatistics godoc
// @Summary Statistics for a class cohort
// @Tags Statistics
// @Produce json
// @Param id path string true "Class ID"
// @Param assessmentId query string false "Narrow to one assessment"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/statistics [get]
func (h *StatisticsHandler) ClassStatistics(c *gin.Context) {
	stats, err := h.stats.ClassStatistics(c.Request.Context(), c.Param("id"), c.Query("assessmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// AnomalyScan godoc
// @Summary Flag anomalous grades in one assessment
// @Tags Statistics
// @Produce json
// @Param id path string true "Class ID"
// @Param assessmentId query string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/anomaly-scan [post]
func (h *StatisticsHandler) AnomalyScan(c *gin.Context) {
	result, err := h.stats.AnomalyScan(c.Request.Context(), c.Param("id"), c.Query("assessmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
