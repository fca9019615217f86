// Package grading implements the grade computation core: score
// normalization, cohort statistics, weighted final-grade composition, and
// institution report assembly. Everything here is a pure function over
// in-memory records; persistence and transport live in the service layer.
package grading

import (
	"math"

	"github.com/edupulse/gradebook-api/internal/models"
)

// PassThreshold is the percentage at or above which a grade counts as a pass.
const PassThreshold = 50

// Normalize converts a raw (score, maxScore) pair into a rounded percentage
// and its letter band. Callers must guarantee maxScore > 0; entry
// constructors enforce that. Scores above maxScore are not clamped and yield
// percentages above 100.
func Normalize(score, maxScore float64) (int, models.LetterGrade) {
	pct := int(math.Round(100 * score / maxScore))
	return pct, LetterFor(pct)
}

// LetterFor maps a percentage to its letter band, top-down, first match
// wins. Percentages above 100 land in the top band.
func LetterFor(percentage int) models.LetterGrade {
	switch {
	case percentage >= 90:
		return models.LetterAPlus
	case percentage >= 85:
		return models.LetterA
	case percentage >= 80:
		return models.LetterAMinus
	case percentage >= 75:
		return models.LetterBPlus
	case percentage >= 70:
		return models.LetterB
	case percentage >= 65:
		return models.LetterBMinus
	case percentage >= 60:
		return models.LetterCPlus
	case percentage >= 55:
		return models.LetterC
	case percentage >= 50:
		return models.LetterCMinus
	case percentage >= 45:
		return models.LetterD
	default:
		return models.LetterF
	}
}
