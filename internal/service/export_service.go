package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edupulse/gradebook-api/internal/grading"
	"github.com/edupulse/gradebook-api/internal/models"
	"github.com/edupulse/gradebook-api/pkg/export"
	"github.com/edupulse/gradebook-api/pkg/storage"
)

type exportGradeRepository interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntry, error)
}

type exportAssessmentRepository interface {
	List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, error)
	FindByClass(ctx context.Context, classID string) ([]models.Assessment, error)
}

type exportClassRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type exportStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	grades      exportGradeRepository
	assessments exportAssessmentRepository
	classes     exportClassRepository
	students    exportStudentRepository
	storage     fileStorage
	csv         csvRenderer
	pdf         pdfRenderer
	signer      *storage.SignedURLSigner
	logger      *zap.Logger
	cfg         ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(grades exportGradeRepository, assessments exportAssessmentRepository, classes exportClassRepository, students exportStudentRepository, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		grades:      grades,
		assessments: assessments,
		classes:     classes,
		students:    students,
		storage:     storage,
		csv:         csv,
		pdf:         pdf,
		signer:      signer,
		logger:      logger,
		cfg:         cfg,
	}
}

// Generate builds dataset according to job definition and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/reports/download/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	scope := deref(job.Params.ClassID)
	if scope == "" {
		scope = deref(job.Params.StudentID)
	}
	name := fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), sanitizeFilename(scope), timestamp, job.Params.Format)
	return name
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeClassGrades:
		return s.buildClassGradesDataset(ctx, job.Params)
	case models.ReportTypeStudentReportCard:
		return s.buildReportCardDataset(ctx, job.Params)
	case models.ReportTypeInstitutionSummary:
		return s.buildInstitutionDataset(ctx)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

var classGradesHeaders = []string{"Student ID", "Student Name", "Grade", "Max Grade", "Percentage", "Letter Grade", "Comments"}

func (s *ExportService) buildClassGradesDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	classID := deref(params.ClassID)
	if classID == "" {
		return export.Dataset{}, "", fmt.Errorf("class id required")
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	entries, err := s.grades.List(ctx, models.GradeFilter{ClassID: classID})
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Status.HasScore() {
			continue
		}
		dataRows = append(dataRows, map[string]string{
			"Student ID":   entry.StudentID,
			"Student Name": entry.StudentName,
			"Grade":        fmt.Sprintf("%.2f", entry.Score),
			"Max Grade":    fmt.Sprintf("%.2f", entry.MaxScore),
			"Percentage":   fmt.Sprintf("%d", entry.Percentage),
			"Letter Grade": string(entry.Letter),
			"Comments":     deref(entry.FlagReason),
		})
	}
	dataset := export.Dataset{Headers: classGradesHeaders, Rows: dataRows}
	title := fmt.Sprintf("Class Grades %s", class.Name)
	return dataset, title, nil
}

func (s *ExportService) buildReportCardDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	studentID := deref(params.StudentID)
	if studentID == "" {
		return export.Dataset{}, "", fmt.Errorf("student id required")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	entries, err := s.grades.List(ctx, models.GradeFilter{StudentID: studentID})
	if err != nil {
		return export.Dataset{}, "", err
	}
	assessments, err := s.assessments.FindByClass(ctx, student.ClassID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	assessmentsByID := make(map[string]models.Assessment, len(assessments))
	for _, a := range assessments {
		assessmentsByID[a.ID] = a
	}
	scored := entries[:0]
	for _, entry := range entries {
		if entry.Status.HasScore() {
			scored = append(scored, entry)
		}
	}
	report := grading.AssembleStudentReport(studentID, student.FullName, scored, assessmentsByID)

	dataRows := make([]map[string]string, 0, len(report.Final.Breakdown)+1)
	for _, item := range report.Final.Breakdown {
		dataRows = append(dataRows, map[string]string{
			"Assessment":   item.AssessmentName,
			"Type":         string(item.Type),
			"Grade":        fmt.Sprintf("%.2f", item.Grade),
			"Weight":       fmt.Sprintf("%.2f", item.Weight),
			"Contribution": fmt.Sprintf("%.2f", item.Contribution),
		})
	}
	dataRows = append(dataRows, map[string]string{
		"Assessment":   "Final",
		"Type":         string(report.Final.FinalLetterGrade),
		"Grade":        fmt.Sprintf("%.2f", report.Final.FinalGrade),
		"Weight":       "",
		"Contribution": report.Remark,
	})
	dataset := export.Dataset{
		Headers: []string{"Assessment", "Type", "Grade", "Weight", "Contribution"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Report Card %s", student.FullName)
	return dataset, title, nil
}

func (s *ExportService) buildInstitutionDataset(ctx context.Context) (export.Dataset, string, error) {
	classes, err := s.classes.List(ctx, models.ClassFilter{})
	if err != nil {
		return export.Dataset{}, "", err
	}
	entries, err := s.grades.List(ctx, models.GradeFilter{})
	if err != nil {
		return export.Dataset{}, "", err
	}
	assessments, err := s.assessments.List(ctx, models.AssessmentFilter{})
	if err != nil {
		return export.Dataset{}, "", err
	}
	report := grading.AssembleInstitutionReport(classes, entries, assessments)

	dataRows := make([]map[string]string, 0, len(report.Classes)+1)
	for _, class := range report.Classes {
		dataRows = append(dataRows, map[string]string{
			"Class ID":      class.ClassID,
			"Class Name":    class.ClassName,
			"Students":      fmt.Sprintf("%d", len(class.Students)),
			"Class Average": fmt.Sprintf("%d", class.ClassAverage),
			"Pass Rate":     fmt.Sprintf("%d", class.PassRate),
		})
	}
	dataRows = append(dataRows, map[string]string{
		"Class ID":      "ALL",
		"Class Name":    "Institution",
		"Students":      fmt.Sprintf("%d", report.TotalStudents),
		"Class Average": fmt.Sprintf("%d", report.OverallAverage),
		"Pass Rate":     fmt.Sprintf("%d", report.OverallPassRate),
	})
	dataset := export.Dataset{
		Headers: []string{"Class ID", "Class Name", "Students", "Class Average", "Pass Rate"},
		Rows:    dataRows,
	}
	return dataset, "Institution Summary", nil
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
