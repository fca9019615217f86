package dto

import (
	"time"

	"github.com/edupulse/gradebook-api/internal/models"
)

// ComponentRequest is one weighted sub-part of an assessment.
type ComponentRequest struct {
	Name     string  `json:"name" validate:"required"`
	MaxGrade float64 `json:"maxGrade" validate:"gt=0"`
	Weight   float64 `json:"weight" validate:"gt=0"`
}

// AssessmentRequest captures POST /assessments payload. Component weights,
// when present, must sum to 100.
type AssessmentRequest struct {
	Name       string                `json:"name" validate:"required"`
	Type       models.AssessmentType `json:"type" validate:"required"`
	MaxGrade   float64               `json:"maxGrade" validate:"gt=0"`
	Weight     float64               `json:"weight" validate:"gte=0"`
	Date       time.Time             `json:"date"`
	ClassID    string                `json:"classId" validate:"required"`
	SubjectID  string                `json:"subjectId"`
	Components []ComponentRequest    `json:"components,omitempty"`
}
