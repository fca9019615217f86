package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edupulse/gradebook-api/internal/dto"
	"github.com/edupulse/gradebook-api/internal/models"
	appErrors "github.com/edupulse/gradebook-api/pkg/errors"
)

type gradeStoreStub struct {
	entries  map[string]*models.GradeEntry
	upserted []models.GradeEntry
	statuses map[string]models.GradeStatus
}

func newGradeStoreStub() *gradeStoreStub {
	return &gradeStoreStub{entries: map[string]*models.GradeEntry{}, statuses: map[string]models.GradeStatus{}}
}

func (g *gradeStoreStub) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntry, error) {
	var out []models.GradeEntry
	for _, entry := range g.entries {
		if filter.StudentID != "" && entry.StudentID != filter.StudentID {
			continue
		}
		if filter.AssessmentID != "" && entry.AssessmentID != filter.AssessmentID {
			continue
		}
		out = append(out, *entry)
	}
	return out, nil
}

func (g *gradeStoreStub) FindByID(ctx context.Context, id string) (*models.GradeEntry, error) {
	entry, ok := g.entries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *entry
	return &copied, nil
}

func (g *gradeStoreStub) Upsert(ctx context.Context, entry *models.GradeEntry) error {
	g.upserted = append(g.upserted, *entry)
	return nil
}

func (g *gradeStoreStub) BulkUpsert(ctx context.Context, entries []models.GradeEntry) error {
	g.upserted = append(g.upserted, entries...)
	return nil
}

func (g *gradeStoreStub) UpdateStatus(ctx context.Context, id string, status models.GradeStatus, flagReason *string) error {
	g.statuses[id] = status
	return nil
}

func (g *gradeStoreStub) StudentAverages(ctx context.Context, classID, excludeAssessmentID string) (map[string]int, error) {
	return map[string]int{}, nil
}

type assessmentStoreStub struct {
	assessment *models.Assessment
}

func (a assessmentStoreStub) FindByID(ctx context.Context, id string) (*models.Assessment, error) {
	if a.assessment == nil || a.assessment.ID != id {
		return nil, sql.ErrNoRows
	}
	return a.assessment, nil
}

func (a assessmentStoreStub) FindByClass(ctx context.Context, classID string) ([]models.Assessment, error) {
	if a.assessment == nil {
		return nil, nil
	}
	return []models.Assessment{*a.assessment}, nil
}

type studentStoreStub struct {
	students []models.Student
}

func (s studentStoreStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	for _, student := range s.students {
		if student.ID == id {
			copied := student
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s studentStoreStub) FindByClass(ctx context.Context, classID string) ([]models.Student, error) {
	return s.students, nil
}

type auditStub struct {
	logs []models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, *log)
	return nil
}

func newGradeServiceForTest(store *gradeStoreStub) (*GradeService, *auditStub) {
	audit := &auditStub{}
	assessments := assessmentStoreStub{assessment: &models.Assessment{
		ID: "a-1", Name: "Midterm Exam", Type: models.AssessmentExam, MaxGrade: 50, Weight: 40, ClassID: "class-1",
	}}
	students := studentStoreStub{students: []models.Student{
		{ID: "s-1", StudentNumber: "2024-001", FullName: "Alice Tan", ClassID: "class-1", Active: true},
		{ID: "s-2", StudentNumber: "2024-002", FullName: "Bob Lim", ClassID: "class-1", Active: true},
	}}
	return NewGradeService(store, assessments, students, audit, nil, zap.NewNop()), audit
}

func TestGradeServiceRecordNormalizes(t *testing.T) {
	store := newGradeStoreStub()
	svc, _ := newGradeServiceForTest(store)

	entry, err := svc.Record(context.Background(), dto.GradeEntryRequest{
		StudentID: "s-1", AssessmentID: "a-1", Score: 42.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 85, entry.Percentage)
	assert.Equal(t, models.LetterA, entry.Letter)
	assert.Equal(t, models.GradeStatusEntered, entry.Status)
	assert.Equal(t, 50.0, entry.MaxScore)
	require.Len(t, store.upserted, 1)
}

func TestGradeServiceRecordUnknownAssessment(t *testing.T) {
	store := newGradeStoreStub()
	svc, _ := newGradeServiceForTest(store)

	_, err := svc.Record(context.Background(), dto.GradeEntryRequest{
		StudentID: "s-1", AssessmentID: "missing", Score: 10,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestGradeServiceBulkImportMatching(t *testing.T) {
	store := newGradeStoreStub()
	svc, _ := newGradeServiceForTest(store)

	result, err := svc.BulkImport(context.Background(), dto.BulkImportRequest{
		AssessmentID: "a-1",
		Rows: []dto.BulkImportRow{
			{StudentNumber: "2024-001", Score: 40},
			{StudentName: " bob   LIM ", Score: 25},
			{StudentNumber: "9999-999", StudentName: "Nobody Here", Score: 10},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Matched)
	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Unmatched, 1)
	assert.Contains(t, result.Unmatched[0], "row 3")
	require.Len(t, store.upserted, 2)
	assert.Equal(t, "s-1", store.upserted[0].StudentID)
	assert.Equal(t, "s-2", store.upserted[1].StudentID)
}

func TestGradeServiceBulkImportRejectsNegativeScore(t *testing.T) {
	store := newGradeStoreStub()
	svc, _ := newGradeServiceForTest(store)

	result, err := svc.BulkImport(context.Background(), dto.BulkImportRequest{
		AssessmentID: "a-1",
		Rows: []dto.BulkImportRow{
			{StudentNumber: "2024-001", Score: -5},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Matched)
	require.Len(t, result.Unmatched, 1)
}

func TestGradeServiceVerify(t *testing.T) {
	store := newGradeStoreStub()
	reason := "Unusually high compared to class average"
	store.entries["g-1"] = &models.GradeEntry{
		ID: "g-1", StudentID: "s-1", AssessmentID: "a-1",
		Score: 48, MaxScore: 50, Percentage: 96, Letter: models.LetterAPlus,
		Status: models.GradeStatusFlagged, FlagReason: &reason,
	}
	svc, audit := newGradeServiceForTest(store)

	entry, err := svc.Verify(context.Background(), "g-1", "admin", "127.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.Equal(t, models.GradeStatusVerified, entry.Status)
	assert.Nil(t, entry.FlagReason)
	assert.Equal(t, models.GradeStatusVerified, store.statuses["g-1"])
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionGradeVerify, audit.logs[0].Action)
}

func TestGradeServiceVerifyAlreadyVerified(t *testing.T) {
	store := newGradeStoreStub()
	store.entries["g-1"] = &models.GradeEntry{
		ID: "g-1", Status: models.GradeStatusVerified, Percentage: 80,
	}
	svc, _ := newGradeServiceForTest(store)

	_, err := svc.Verify(context.Background(), "g-1", "admin", "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyVerified.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceVerifyPending(t *testing.T) {
	store := newGradeStoreStub()
	store.entries["g-1"] = &models.GradeEntry{ID: "g-1", Status: models.GradeStatusPending}
	svc, _ := newGradeServiceForTest(store)

	_, err := svc.Verify(context.Background(), "g-1", "admin", "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceRecalculate(t *testing.T) {
	store := newGradeStoreStub()
	store.entries["g-1"] = &models.GradeEntry{
		ID: "g-1", StudentID: "s-1", AssessmentID: "a-1",
		Score: 40, MaxScore: 100, Percentage: 40, Letter: models.LetterF,
		Status: models.GradeStatusEntered,
	}
	store.entries["g-2"] = &models.GradeEntry{
		ID: "g-2", StudentID: "s-2", AssessmentID: "a-1",
		Status: models.GradeStatusPending,
	}
	svc, _ := newGradeServiceForTest(store)

	result, err := svc.Recalculate(context.Background(), dto.RecalculateRequest{AssessmentID: "a-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	require.Len(t, store.upserted, 1)
	// re-normalised against the assessment max of 50
	assert.Equal(t, 80, store.upserted[0].Percentage)
	assert.Equal(t, models.LetterAMinus, store.upserted[0].Letter)
}

func TestGradeServiceFinalGrade(t *testing.T) {
	store := newGradeStoreStub()
	store.entries["g-1"] = &models.GradeEntry{
		ID: "g-1", StudentID: "s-1", AssessmentID: "a-1",
		Score: 42.5, MaxScore: 50, Percentage: 85, Letter: models.LetterA,
		Status: models.GradeStatusVerified,
	}
	svc, _ := newGradeServiceForTest(store)

	calc, err := svc.FinalGrade(context.Background(), "s-1")
	require.NoError(t, err)
	assert.InDelta(t, 85.0, calc.FinalGrade, 1e-9)
	assert.Equal(t, models.LetterA, calc.FinalLetterGrade)
	require.Len(t, calc.Breakdown, 1)
}
