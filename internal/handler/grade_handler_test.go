package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/gradebook-api/internal/dto"
	"github.com/edupulse/gradebook-api/internal/middleware"
	"github.com/edupulse/gradebook-api/internal/models"
	appErrors "github.com/edupulse/gradebook-api/pkg/errors"
)

type gradeServiceMock struct {
	entries        []models.GradeEntry
	recorded       *models.GradeEntry
	recordErr      error
	importResult   *dto.BulkImportResult
	verifyEntry    *models.GradeEntry
	verifyErr      error
	recalcResult   *dto.RecalculateResult
	finalCalc      *models.FinalGradeCalculation
	capturedFilter models.GradeFilter
}

func (m *gradeServiceMock) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntry, error) {
	m.capturedFilter = filter
	return m.entries, nil
}

func (m *gradeServiceMock) Record(ctx context.Context, req dto.GradeEntryRequest) (*models.GradeEntry, error) {
	return m.recorded, m.recordErr
}

func (m *gradeServiceMock) BulkImport(ctx context.Context, req dto.BulkImportRequest) (*dto.BulkImportResult, error) {
	return m.importResult, nil
}

func (m *gradeServiceMock) Verify(ctx context.Context, id, actorID, ip, userAgent string) (*models.GradeEntry, error) {
	return m.verifyEntry, m.verifyErr
}

func (m *gradeServiceMock) Recalculate(ctx context.Context, req dto.RecalculateRequest) (*dto.RecalculateResult, error) {
	return m.recalcResult, nil
}

func (m *gradeServiceMock) FinalGrade(ctx context.Context, studentID string) (*models.FinalGradeCalculation, error) {
	return m.finalCalc, nil
}

func TestGradeHandlerListGrades(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &gradeServiceMock{entries: []models.GradeEntry{{ID: "g-1", Percentage: 85}}}
	handler := NewGradeHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/grades?classId=class-1&status=ENTERED", nil)

	handler.ListGrades(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "class-1", mockSvc.capturedFilter.ClassID)
	require.Equal(t, models.GradeStatusEntered, mockSvc.capturedFilter.Status)
}

func TestGradeHandlerRecordGrade(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &gradeServiceMock{recorded: &models.GradeEntry{ID: "g-1", Percentage: 85, Letter: models.LetterA}}
	handler := NewGradeHandler(mockSvc)

	payload, _ := json.Marshal(dto.GradeEntryRequest{StudentID: "s-1", AssessmentID: "a-1", Score: 42.5})
	c, w := newGinContext(http.MethodPost, "/grades", payload)

	handler.RecordGrade(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestGradeHandlerRecordGradeInvalidScore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &gradeServiceMock{recordErr: appErrors.ErrInvalidScore}
	handler := NewGradeHandler(mockSvc)

	payload, _ := json.Marshal(dto.GradeEntryRequest{StudentID: "s-1", AssessmentID: "a-1", Score: -1})
	c, w := newGinContext(http.MethodPost, "/grades", payload)

	handler.RecordGrade(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGradeHandlerBulkImport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &gradeServiceMock{importResult: &dto.BulkImportResult{Matched: 2, Total: 3}}
	handler := NewGradeHandler(mockSvc)

	payload, _ := json.Marshal(dto.BulkImportRequest{
		AssessmentID: "a-1",
		Rows:         []dto.BulkImportRow{{StudentNumber: "2024-001", Score: 40}},
	})
	c, w := newGinContext(http.MethodPost, "/grades/bulk-import", payload)

	handler.BulkImport(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGradeHandlerVerifyGradeRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGradeHandler(&gradeServiceMock{})

	c, w := newGinContext(http.MethodPost, "/grades/g-1/verify", nil)
	c.Params = gin.Params{{Key: "id", Value: "g-1"}}

	handler.VerifyGrade(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGradeHandlerVerifyGrade(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &gradeServiceMock{verifyEntry: &models.GradeEntry{ID: "g-1", Status: models.GradeStatusVerified}}
	handler := NewGradeHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/grades/g-1/verify", nil)
	c.Params = gin.Params{{Key: "id", Value: "g-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})

	handler.VerifyGrade(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGradeHandlerFinalGrade(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &gradeServiceMock{finalCalc: &models.FinalGradeCalculation{StudentID: "s-1", FinalGrade: 84.46}}
	handler := NewGradeHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/students/s-1/final-grade", nil)
	c.Params = gin.Params{{Key: "id", Value: "s-1"}}

	handler.FinalGrade(c)
	require.Equal(t, http.StatusOK, w.Code)
}

type statisticsServiceMock struct {
	stats   *models.GradeStatistics
	scan    *dto.AnomalyScanResult
	scanErr error
}

func (m *statisticsServiceMock) ClassStatistics(ctx context.Context, classID, assessmentID string) (*models.GradeStatistics, error) {
	return m.stats, nil
}

func (m *statisticsServiceMock) AnomalyScan(ctx context.Context, classID, assessmentID string) (*dto.AnomalyScanResult, error) {
	return m.scan, m.scanErr
}

func TestStatisticsHandlerClassStatistics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &statisticsServiceMock{stats: &models.GradeStatistics{TotalStudents: 4, Average: 60}}
	handler := NewStatisticsHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/classes/class-1/statistics", nil)
	c.Params = gin.Params{{Key: "id", Value: "class-1"}}

	handler.ClassStatistics(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestStatisticsHandlerAnomalyScan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &statisticsServiceMock{scan: &dto.AnomalyScanResult{Scanned: 4}}
	handler := NewStatisticsHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/classes/class-1/anomaly-scan?assessmentId=a-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "class-1"}}

	handler.AnomalyScan(c)
	require.Equal(t, http.StatusOK, w.Code)
}
