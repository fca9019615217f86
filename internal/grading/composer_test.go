package grading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/gradebook-api/internal/models"
)

func weightedAssessment(id string, weight float64) models.Assessment {
	return models.Assessment{ID: id, Name: "Assessment " + id, Type: models.AssessmentTest, MaxGrade: 100, Weight: weight}
}

func TestComposeFinalWeightedMean(t *testing.T) {
	calc := ComposeFinal("s1", []AssessmentGrade{
		{Assessment: weightedAssessment("a1", 10), Grade: 85},
		{Assessment: weightedAssessment("a2", 30), Grade: 78},
		{Assessment: weightedAssessment("a3", 25), Grade: 92},
	})
	// (85*10 + 78*30 + 92*25) / (10+30+25)
	assert.InDelta(t, 5490.0/65.0, calc.FinalGrade, 1e-9)
	assert.Equal(t, models.LetterAMinus, calc.FinalLetterGrade)
}

func TestComposeFinalBreakdownReconciles(t *testing.T) {
	calc := ComposeFinal("s1", []AssessmentGrade{
		{Assessment: weightedAssessment("a1", 10), Grade: 85},
		{Assessment: weightedAssessment("a2", 30), Grade: 78},
		{Assessment: weightedAssessment("a3", 25), Grade: 92},
	})
	sum := 0.0
	for _, line := range calc.Breakdown {
		sum += line.Contribution
	}
	assert.InDelta(t, calc.FinalGrade, sum, 1e-6)
}

func TestComposeFinalWeightsSumTo100(t *testing.T) {
	// When weights already sum to 100 the normalized mean matches the naive
	// grade*weight/100 accumulation.
	calc := ComposeFinal("s1", []AssessmentGrade{
		{Assessment: weightedAssessment("a1", 40), Grade: 80},
		{Assessment: weightedAssessment("a2", 60), Grade: 90},
	})
	assert.InDelta(t, 80*0.4+90*0.6, calc.FinalGrade, 1e-9)
}

func TestComposeFinalPreservesInputOrder(t *testing.T) {
	calc := ComposeFinal("s1", []AssessmentGrade{
		{Assessment: weightedAssessment("z", 50), Grade: 70},
		{Assessment: weightedAssessment("a", 50), Grade: 90},
	})
	require.Len(t, calc.Breakdown, 2)
	assert.Equal(t, "z", calc.Breakdown[0].AssessmentID)
	assert.Equal(t, "a", calc.Breakdown[1].AssessmentID)
}

func TestComposeFinalZeroWeights(t *testing.T) {
	calc := ComposeFinal("s1", []AssessmentGrade{{Assessment: weightedAssessment("a1", 0), Grade: 80}})
	assert.Zero(t, calc.FinalGrade)
	assert.Equal(t, models.LetterF, calc.FinalLetterGrade)
}

func TestComposeFinalNoGrades(t *testing.T) {
	calc := ComposeFinal("s1", nil)
	assert.Zero(t, calc.FinalGrade)
	assert.Empty(t, calc.Breakdown)
}

func TestValidateComponentWeights(t *testing.T) {
	components := func(weights ...float64) []models.AssessmentComponent {
		out := make([]models.AssessmentComponent, len(weights))
		for i, w := range weights {
			out[i] = models.AssessmentComponent{Weight: w}
		}
		return out
	}
	assert.True(t, ValidateComponentWeights(components(40, 60)))
	assert.True(t, ValidateComponentWeights(components(33.33, 33.33, 33.34)))
	assert.False(t, ValidateComponentWeights(components(40, 50)))
	assert.False(t, ValidateComponentWeights(components()))
}

func TestComposeFinalLetterRounding(t *testing.T) {
	calc := ComposeFinal("s1", []AssessmentGrade{
		{Assessment: weightedAssessment("a1", 50), Grade: 89},
		{Assessment: weightedAssessment("a2", 50), Grade: 90},
	})
	// 89.5 rounds to 90, the top band.
	assert.Equal(t, models.LetterAPlus, LetterFor(int(math.Round(calc.FinalGrade))))
	assert.Equal(t, models.LetterAPlus, calc.FinalLetterGrade)
}
