package grading

import (
	"math"

	"github.com/edupulse/gradebook-api/internal/models"
)

// AssessmentGrade pairs an assessment with the percentage a student achieved
// on it.
type AssessmentGrade struct {
	Assessment models.Assessment
	Grade      float64
}

// ComposeFinal computes a student's weighted final grade across assessments.
//
// Weights are treated as relative importance, not absolute percentage-point
// allocations: the final grade is Σ(gradeᵢ·weightᵢ)/Σ(weightᵢ), so the
// result stays correct even when weights do not sum to 100. Each breakdown
// contribution is gradeᵢ·weightᵢ/Σ(weightᵢ) and the contributions sum to
// the final grade exactly. Breakdown order follows input order. Zero total
// weight yields a zero final grade.
func ComposeFinal(studentID string, grades []AssessmentGrade) models.FinalGradeCalculation {
	totalWeight := 0.0
	for _, g := range grades {
		totalWeight += g.Assessment.Weight
	}

	calc := models.FinalGradeCalculation{
		StudentID: studentID,
		Breakdown: make([]models.AssessmentContribution, 0, len(grades)),
	}
	weightedSum := 0.0
	for _, g := range grades {
		contribution := 0.0
		if totalWeight > 0 {
			contribution = g.Grade * g.Assessment.Weight / totalWeight
		}
		weightedSum += g.Grade * g.Assessment.Weight
		calc.Breakdown = append(calc.Breakdown, models.AssessmentContribution{
			AssessmentID:   g.Assessment.ID,
			AssessmentName: g.Assessment.Name,
			Type:           g.Assessment.Type,
			Grade:          g.Grade,
			Weight:         g.Assessment.Weight,
			Contribution:   contribution,
		})
	}
	if totalWeight > 0 {
		calc.FinalGrade = weightedSum / totalWeight
	}
	calc.FinalLetterGrade = LetterFor(int(math.Round(calc.FinalGrade)))
	return calc
}

// ValidateComponentWeights reports whether component weights sum to 100
// within tolerance. It is an advisory gate used before assessment creation;
// the composer itself never rejects off-100 weights.
func ValidateComponentWeights(components []models.AssessmentComponent) bool {
	total := 0.0
	for _, c := range components {
		total += c.Weight
	}
	return math.Abs(total-100) < 0.01
}
