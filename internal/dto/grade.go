package dto

import "github.com/edupulse/gradebook-api/internal/models"

// GradeEntryRequest captures POST /grades payload. Submitting a score for an
// existing student/assessment pair overwrites the previous entry.
type GradeEntryRequest struct {
	StudentID    string  `json:"studentId" validate:"required"`
	AssessmentID string  `json:"assessmentId" validate:"required"`
	Score        float64 `json:"score" validate:"gte=0"`
}

// BulkImportRow is one line of an imported grade sheet. Rows are matched to
// students by number first, then by normalised full name.
type BulkImportRow struct {
	StudentNumber string  `json:"studentNumber"`
	StudentName   string  `json:"studentName"`
	Score         float64 `json:"score"`
}

// BulkImportRequest captures POST /grades/bulk-import payload.
type BulkImportRequest struct {
	AssessmentID string          `json:"assessmentId" validate:"required"`
	Rows         []BulkImportRow `json:"rows" validate:"required,min=1"`
}

// BulkImportResult summarises how many sheet rows were matched.
type BulkImportResult struct {
	Matched   int      `json:"matched"`
	Total     int      `json:"total"`
	Unmatched []string `json:"unmatched,omitempty"`
}

// RecalculateRequest captures POST /grades/recalculate payload.
type RecalculateRequest struct {
	AssessmentID string `json:"assessmentId" validate:"required"`
}

// RecalculateResult reports how many entries were re-normalised.
type RecalculateResult struct {
	Updated int `json:"updated"`
}

// AnomalyScanResult reports the outcome of a class anomaly scan.
type AnomalyScanResult struct {
	Scanned int                 `json:"scanned"`
	Flagged []models.GradeEntry `json:"flagged"`
}
