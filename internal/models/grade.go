package models

import (
	"fmt"
	"time"
)

// LetterGrade is a discrete grade band from A+ down to F.
type LetterGrade string

const (
	LetterAPlus  LetterGrade = "A+"
	LetterA      LetterGrade = "A"
	LetterAMinus LetterGrade = "A-"
	LetterBPlus  LetterGrade = "B+"
	LetterB      LetterGrade = "B"
	LetterBMinus LetterGrade = "B-"
	LetterCPlus  LetterGrade = "C+"
	LetterC      LetterGrade = "C"
	LetterCMinus LetterGrade = "C-"
	LetterD      LetterGrade = "D"
	LetterF      LetterGrade = "F"
)

// GradeStatus tracks the lifecycle of a single grade record.
type GradeStatus string

const (
	// GradeStatusPending marks a record awaiting score entry.
	GradeStatusPending GradeStatus = "PENDING"
	// GradeStatusEntered marks a record with a recorded score.
	GradeStatusEntered GradeStatus = "ENTERED"
	// GradeStatusVerified marks a record confirmed by a reviewer.
	GradeStatusVerified GradeStatus = "VERIFIED"
	// GradeStatusFlagged marks a record flagged by the anomaly scan.
	GradeStatusFlagged GradeStatus = "FLAGGED"
)

// HasScore reports whether the status carries a recorded score. Verified and
// flagged records keep theirs; only pending records have none.
func (s GradeStatus) HasScore() bool {
	return s == GradeStatusEntered || s == GradeStatusVerified || s == GradeStatusFlagged
}

// GradeEntry is one student's result on one assessment.
type GradeEntry struct {
	ID           string      `db:"id" json:"id"`
	StudentID    string      `db:"student_id" json:"student_id"`
	StudentName  string      `db:"student_name" json:"student_name"`
	AssessmentID string      `db:"assessment_id" json:"assessment_id"`
	Score        float64     `db:"score" json:"score"`
	MaxScore     float64     `db:"max_score" json:"max_score"`
	Percentage   int         `db:"percentage" json:"percentage"`
	Letter       LetterGrade `db:"letter_grade" json:"letter_grade"`
	Status       GradeStatus `db:"status" json:"status"`
	FlagReason   *string     `db:"flag_reason" json:"flag_reason,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// ValidateScore rejects scores the normalizer cannot handle. A score above
// MaxScore is allowed and yields a percentage above 100.
func (e *GradeEntry) ValidateScore() error {
	if e.MaxScore <= 0 {
		return fmt.Errorf("max score must be positive, got %g", e.MaxScore)
	}
	if e.Score < 0 {
		return fmt.Errorf("score must not be negative, got %g", e.Score)
	}
	return nil
}

// GradeFilter allows querying of grade entries.
type GradeFilter struct {
	StudentID    string
	AssessmentID string
	ClassID      string
	Status       GradeStatus
}

// GradeStatistics summarises a cohort of grade entries.
type GradeStatistics struct {
	TotalStudents int                  `json:"total_students"`
	EnteredCount  int                  `json:"entered_count"`
	PendingCount  int                  `json:"pending_count"`
	Average       int                  `json:"average"`
	Median        int                  `json:"median"`
	Highest       int                  `json:"highest"`
	Lowest        int                  `json:"lowest"`
	PassRate      int                  `json:"pass_rate"`
	Distribution  []DistributionBucket `json:"distribution"`
}

// DistributionBucket is one fixed percentage band of the cohort histogram.
type DistributionBucket struct {
	Label    string   `json:"label"`
	Min      int      `json:"min"`
	Max      int      `json:"max"`
	Count    int      `json:"count"`
	Share    int      `json:"share"`
	Students []string `json:"students,omitempty"`
}

// AssessmentContribution is one line of a final-grade breakdown.
type AssessmentContribution struct {
	AssessmentID   string         `json:"assessment_id"`
	AssessmentName string         `json:"assessment_name"`
	Type           AssessmentType `json:"type"`
	Grade          float64        `json:"grade"`
	Weight         float64        `json:"weight"`
	Contribution   float64        `json:"contribution"`
}

// FinalGradeCalculation is one student's composed result across assessments.
type FinalGradeCalculation struct {
	StudentID        string                   `json:"student_id"`
	FinalGrade       float64                  `json:"final_grade"`
	FinalLetterGrade LetterGrade              `json:"final_letter_grade"`
	Breakdown        []AssessmentContribution `json:"breakdown"`
}
