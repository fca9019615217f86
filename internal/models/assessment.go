package models

import "time"

// AssessmentType categorises gradeable events.
type AssessmentType string

const (
	AssessmentQuiz       AssessmentType = "quiz"
	AssessmentTest       AssessmentType = "test"
	AssessmentExam       AssessmentType = "exam"
	AssessmentAssignment AssessmentType = "assignment"
	AssessmentProject    AssessmentType = "project"
	AssessmentPractical  AssessmentType = "practical"
)

// Valid reports whether the assessment type is a known category.
func (t AssessmentType) Valid() bool {
	switch t {
	case AssessmentQuiz, AssessmentTest, AssessmentExam, AssessmentAssignment, AssessmentProject, AssessmentPractical:
		return true
	default:
		return false
	}
}

// Assessment is a gradeable event carrying a weight toward the final grade.
type Assessment struct {
	ID         string                `db:"id" json:"id"`
	Name       string                `db:"name" json:"name"`
	Type       AssessmentType        `db:"type" json:"type"`
	MaxGrade   float64               `db:"max_grade" json:"max_grade"`
	Weight     float64               `db:"weight" json:"weight"`
	Date       time.Time             `db:"date" json:"date"`
	ClassID    string                `db:"class_id" json:"class_id"`
	SubjectID  string                `db:"subject_id" json:"subject_id"`
	CreatedAt  time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time             `db:"updated_at" json:"updated_at"`
	Components []AssessmentComponent `json:"components,omitempty"`
}

// AssessmentComponent is an optional sub-structure of an assessment whose
// weights are expected to sum to 100 within the parent.
type AssessmentComponent struct {
	ID           string    `db:"id" json:"id"`
	AssessmentID string    `db:"assessment_id" json:"assessment_id"`
	Name         string    `db:"name" json:"name"`
	MaxGrade     float64   `db:"max_grade" json:"max_grade"`
	Weight       float64   `db:"weight" json:"weight"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AssessmentFilter defines filter criteria for listing assessments.
type AssessmentFilter struct {
	ClassID   string
	SubjectID string
	Type      AssessmentType
	Page      int
	PageSize  int
}
