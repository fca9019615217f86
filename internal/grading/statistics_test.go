package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/gradebook-api/internal/models"
)

func scoredEntry(studentID string, percentage int) models.GradeEntry {
	return models.GradeEntry{
		StudentID:   studentID,
		StudentName: "Student " + studentID,
		Percentage:  percentage,
		Letter:      LetterFor(percentage),
		Status:      models.GradeStatusEntered,
	}
}

func pendingEntry(studentID string) models.GradeEntry {
	return models.GradeEntry{StudentID: studentID, StudentName: "Student " + studentID, Status: models.GradeStatusPending}
}

func TestComputeEmptyCohort(t *testing.T) {
	stats := Compute(nil)
	assert.Equal(t, 0, stats.Average)
	assert.Equal(t, 0, stats.Median)
	assert.Equal(t, 0, stats.Highest)
	assert.Equal(t, 0, stats.Lowest)
	assert.Equal(t, 0, stats.PassRate)
}

func TestComputePendingExcluded(t *testing.T) {
	stats := Compute([]models.GradeEntry{scoredEntry("s1", 80), scoredEntry("s2", 60), pendingEntry("s3")})
	assert.Equal(t, 3, stats.TotalStudents)
	assert.Equal(t, 2, stats.EnteredCount)
	assert.Equal(t, 1, stats.PendingCount)
	assert.Equal(t, 70, stats.Average)
	assert.Equal(t, 80, stats.Highest)
	assert.Equal(t, 60, stats.Lowest)
	assert.Equal(t, 100, stats.PassRate)
}

func TestComputeMedian(t *testing.T) {
	odd := Compute([]models.GradeEntry{scoredEntry("s1", 50), scoredEntry("s2", 60), scoredEntry("s3", 70)})
	assert.Equal(t, 60, odd.Median)

	even := Compute([]models.GradeEntry{scoredEntry("s1", 50), scoredEntry("s2", 60), scoredEntry("s3", 70), scoredEntry("s4", 80)})
	assert.Equal(t, 65, even.Median)
}

func TestComputePassRateMonotonic(t *testing.T) {
	entries := []models.GradeEntry{scoredEntry("s1", 55), scoredEntry("s2", 45)}
	base := Compute(entries).PassRate

	withPass := Compute(append(append([]models.GradeEntry{}, entries...), scoredEntry("s3", 90))).PassRate
	assert.GreaterOrEqual(t, withPass, base)

	withFail := Compute(append(append([]models.GradeEntry{}, entries...), scoredEntry("s3", 10))).PassRate
	assert.LessOrEqual(t, withFail, base)
}

func TestDistributionExhaustive(t *testing.T) {
	entries := []models.GradeEntry{
		scoredEntry("s1", 0), scoredEntry("s2", 49), scoredEntry("s3", 50),
		scoredEntry("s4", 59), scoredEntry("s5", 60), scoredEntry("s6", 69),
		scoredEntry("s7", 70), scoredEntry("s8", 79), scoredEntry("s9", 80),
		scoredEntry("s10", 89), scoredEntry("s11", 90), scoredEntry("s12", 100),
	}
	stats := Compute(entries)
	total := 0
	for _, bucket := range stats.Distribution {
		total += bucket.Count
	}
	assert.Equal(t, stats.EnteredCount, total)
	for _, bucket := range stats.Distribution {
		assert.Equal(t, 2, bucket.Count, bucket.Label)
	}
}

func TestDistributionOverflowBucket(t *testing.T) {
	stats := Compute([]models.GradeEntry{scoredEntry("s1", 105), scoredEntry("s2", 95)})
	var overflow *models.DistributionBucket
	total := 0
	for i, bucket := range stats.Distribution {
		total += bucket.Count
		if bucket.Label == "above 100" {
			overflow = &stats.Distribution[i]
		}
	}
	require.NotNil(t, overflow)
	assert.Equal(t, 1, overflow.Count)
	assert.Equal(t, stats.EnteredCount, total)
}

func TestFlagAnomaliesBelowStudentAverage(t *testing.T) {
	entries := []models.GradeEntry{scoredEntry("s1", 60), scoredEntry("s2", 62)}
	flagged := FlagAnomalies(entries, map[string]int{"s1": 85})
	assert.Equal(t, models.GradeStatusFlagged, flagged[0].Status)
	require.NotNil(t, flagged[0].FlagReason)
	assert.Equal(t, FlagBelowStudentAverage, *flagged[0].FlagReason)
	assert.Equal(t, models.GradeStatusEntered, flagged[1].Status)
}

func TestFlagAnomaliesAboveClassAverage(t *testing.T) {
	entries := []models.GradeEntry{
		scoredEntry("s1", 95),
		scoredEntry("s2", 50), scoredEntry("s3", 50), scoredEntry("s4", 50),
	}
	flagged := FlagAnomalies(entries, nil)
	require.NotNil(t, flagged[0].FlagReason)
	assert.Equal(t, FlagAboveClassAverage, *flagged[0].FlagReason)
}

func TestFlagAnomaliesLowOutlier(t *testing.T) {
	entries := []models.GradeEntry{
		scoredEntry("s1", 20),
		scoredEntry("s2", 70), scoredEntry("s3", 72), scoredEntry("s4", 74),
	}
	flagged := FlagAnomalies(entries, nil)
	require.NotNil(t, flagged[0].FlagReason)
	assert.Equal(t, FlagNeedsIntervention, *flagged[0].FlagReason)
}

func TestFlagAnomaliesIdempotent(t *testing.T) {
	entries := []models.GradeEntry{
		scoredEntry("s1", 95),
		scoredEntry("s2", 50), scoredEntry("s3", 50), scoredEntry("s4", 50),
		pendingEntry("s5"),
	}
	averages := map[string]int{"s2": 80}
	first := FlagAnomalies(entries, averages)
	second := FlagAnomalies(first, averages)
	assert.Equal(t, first, second)
}

func TestFlagAnomaliesDoesNotMutateInput(t *testing.T) {
	entries := []models.GradeEntry{
		scoredEntry("s1", 95),
		scoredEntry("s2", 50), scoredEntry("s3", 50), scoredEntry("s4", 50),
	}
	_ = FlagAnomalies(entries, nil)
	assert.Equal(t, models.GradeStatusEntered, entries[0].Status)
	assert.Nil(t, entries[0].FlagReason)
}
