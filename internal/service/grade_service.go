package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupulse/gradebook-api/internal/dto"
	"github.com/edupulse/gradebook-api/internal/grading"
	"github.com/edupulse/gradebook-api/internal/models"
	appErrors "github.com/edupulse/gradebook-api/pkg/errors"
)

type gradeStore interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntry, error)
	FindByID(ctx context.Context, id string) (*models.GradeEntry, error)
	Upsert(ctx context.Context, entry *models.GradeEntry) error
	BulkUpsert(ctx context.Context, entries []models.GradeEntry) error
	UpdateStatus(ctx context.Context, id string, status models.GradeStatus, flagReason *string) error
}

type assessmentStore interface {
	FindByID(ctx context.Context, id string) (*models.Assessment, error)
	FindByClass(ctx context.Context, classID string) ([]models.Assessment, error)
}

type studentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByClass(ctx context.Context, classID string) ([]models.Student, error)
}

type gradeAuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// GradeService manages the grade entry lifecycle: recording, bulk import,
// verification, and final-grade composition.
type GradeService struct {
	grades      gradeStore
	assessments assessmentStore
	students    studentStore
	audit       gradeAuditWriter
	cache       *CacheService
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs a grade service.
func NewGradeService(grades gradeStore, assessments assessmentStore, students studentStore, audit gradeAuditWriter, cache *CacheService, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		grades:      grades,
		assessments: assessments,
		students:    students,
		audit:       audit,
		cache:       cache,
		validate:    validator.New(),
		logger:      logger,
	}
}

// List returns grade entries matching the filter.
func (s *GradeService) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntry, error) {
	entries, err := s.grades.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade entries")
	}
	return entries, nil
}

// Record creates or overwrites the grade entry for a student/assessment pair.
// The raw score is normalised against the assessment's maximum.
func (s *GradeService) Record(ctx context.Context, req dto.GradeEntryRequest) (*models.GradeEntry, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	assessment, err := s.findAssessment(ctx, req.AssessmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	entry := &models.GradeEntry{
		StudentID:    req.StudentID,
		AssessmentID: req.AssessmentID,
		Score:        req.Score,
		MaxScore:     assessment.MaxGrade,
		Status:       models.GradeStatusEntered,
	}
	if err := entry.ValidateScore(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidScore.Code, appErrors.ErrInvalidScore.Status, err.Error())
	}
	entry.Percentage, entry.Letter = grading.Normalize(entry.Score, entry.MaxScore)

	if err := s.grades.Upsert(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store grade entry")
	}
	s.invalidateClassCache(ctx, assessment.ClassID)
	return entry, nil
}

// BulkImport records a sheet of scores against one assessment. Rows are
// matched to the class roster by student number first, then by normalised
// full name; unmatched rows are reported back, not treated as errors.
func (s *GradeService) BulkImport(ctx context.Context, req dto.BulkImportRequest) (*dto.BulkImportResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import payload")
	}
	assessment, err := s.findAssessment(ctx, req.AssessmentID)
	if err != nil {
		return nil, err
	}
	roster, err := s.students.FindByClass(ctx, assessment.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
	}
	byNumber := make(map[string]models.Student, len(roster))
	byName := make(map[string]models.Student, len(roster))
	for _, student := range roster {
		byNumber[student.StudentNumber] = student
		byName[normalizeName(student.FullName)] = student
	}

	result := &dto.BulkImportResult{Total: len(req.Rows)}
	entries := make([]models.GradeEntry, 0, len(req.Rows))
	for i, row := range req.Rows {
		student, ok := byNumber[strings.TrimSpace(row.StudentNumber)]
		if !ok {
			student, ok = byName[normalizeName(row.StudentName)]
		}
		if !ok {
			result.Unmatched = append(result.Unmatched, fmt.Sprintf("row %d: no student matching number %q or name %q", i+1, row.StudentNumber, row.StudentName))
			continue
		}
		entry := models.GradeEntry{
			StudentID:    student.ID,
			AssessmentID: assessment.ID,
			Score:        row.Score,
			MaxScore:     assessment.MaxGrade,
			Status:       models.GradeStatusEntered,
		}
		if err := entry.ValidateScore(); err != nil {
			result.Unmatched = append(result.Unmatched, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		entry.Percentage, entry.Letter = grading.Normalize(entry.Score, entry.MaxScore)
		entries = append(entries, entry)
	}
	if err := s.grades.BulkUpsert(ctx, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store imported grades")
	}
	result.Matched = len(entries)
	s.invalidateClassCache(ctx, assessment.ClassID)
	s.logger.Info("bulk import finished",
		zap.String("assessment_id", assessment.ID),
		zap.Int("matched", result.Matched),
		zap.Int("total", result.Total))
	return result, nil
}

// Verify confirms a recorded grade. Verifying clears any anomaly flag; a
// grade without a score cannot be verified.
func (s *GradeService) Verify(ctx context.Context, id, actorID, ip, userAgent string) (*models.GradeEntry, error) {
	entry, err := s.grades.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade entry")
	}
	if entry.Status == models.GradeStatusVerified {
		return nil, appErrors.ErrAlreadyVerified
	}
	if !entry.Status.HasScore() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade has no recorded score")
	}
	if err := s.grades.UpdateStatus(ctx, id, models.GradeStatusVerified, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify grade")
	}
	entry.Status = models.GradeStatusVerified
	entry.FlagReason = nil

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actorID,
			Action:     models.AuditActionGradeVerify,
			Resource:   "grade_entries",
			ResourceID: &id,
			IPAddress:  ip,
			UserAgent:  userAgent,
		}); err != nil {
			s.logger.Warn("failed to record grade verify audit log", zap.Error(err))
		}
	}
	return entry, nil
}

// Recalculate re-normalises every scored entry of an assessment against its
// current maximum. Used after an assessment's max grade is corrected.
func (s *GradeService) Recalculate(ctx context.Context, req dto.RecalculateRequest) (*dto.RecalculateResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recalculate payload")
	}
	assessment, err := s.findAssessment(ctx, req.AssessmentID)
	if err != nil {
		return nil, err
	}
	entries, err := s.grades.List(ctx, models.GradeFilter{AssessmentID: assessment.ID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade entries")
	}
	updated := make([]models.GradeEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.Status.HasScore() {
			continue
		}
		entry.MaxScore = assessment.MaxGrade
		entry.Percentage, entry.Letter = grading.Normalize(entry.Score, entry.MaxScore)
		updated = append(updated, entry)
	}
	if err := s.grades.BulkUpsert(ctx, updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store recalculated grades")
	}
	s.invalidateClassCache(ctx, assessment.ClassID)
	return &dto.RecalculateResult{Updated: len(updated)}, nil
}

// FinalGrade composes a student's weighted final grade across every scored
// assessment in their class.
func (s *GradeService) FinalGrade(ctx context.Context, studentID string) (*models.FinalGradeCalculation, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	entries, err := s.grades.List(ctx, models.GradeFilter{StudentID: studentID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade entries")
	}
	assessments, err := s.assessments.FindByClass(ctx, student.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessments")
	}
	assessmentsByID := make(map[string]models.Assessment, len(assessments))
	for _, a := range assessments {
		assessmentsByID[a.ID] = a
	}
	grades := make([]grading.AssessmentGrade, 0, len(entries))
	for _, entry := range entries {
		if !entry.Status.HasScore() {
			continue
		}
		a, ok := assessmentsByID[entry.AssessmentID]
		if !ok {
			continue
		}
		grades = append(grades, grading.AssessmentGrade{Assessment: a, Grade: float64(entry.Percentage)})
	}
	calc := grading.ComposeFinal(studentID, grades)
	return &calc, nil
}

func (s *GradeService) findAssessment(ctx context.Context, id string) (*models.Assessment, error) {
	assessment, err := s.assessments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	return assessment, nil
}

func (s *GradeService) invalidateClassCache(ctx context.Context, classID string) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, "stats:class:"+classID+":*"); err != nil {
		s.logger.Warn("failed to invalidate statistics cache", zap.String("class_id", classID), zap.Error(err))
	}
}

// normalizeName lowers the case and collapses interior whitespace so sheet
// names like " Alice  TAN " match the roster.
func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
