package grading

import (
	"math"
	"sort"

	"github.com/edupulse/gradebook-api/internal/models"
)

// Anomaly flag reasons attached to entries by FlagAnomalies.
const (
	FlagBelowStudentAverage = "Significantly below student average"
	FlagAboveClassAverage   = "Unusually high compared to class average"
	FlagNeedsIntervention   = "Unusually low - may need intervention"
)

// distributionBands are the fixed histogram buckets. The overflow band
// catches unclamped percentages above 100 so the histogram stays exhaustive.
var distributionBands = []struct {
	label    string
	min, max int
}{
	{"90-100", 90, 100},
	{"80-89", 80, 89},
	{"70-79", 70, 79},
	{"60-69", 60, 69},
	{"50-59", 50, 59},
	{"0-49", 0, 49},
}

const overflowLabel = "above 100"

// Compute summarises a cohort of grade entries. Only entries carrying a
// score feed the descriptive statistics; pending entries count toward
// TotalStudents and PendingCount only. An empty cohort yields zero-valued
// statistics rather than an error.
func Compute(entries []models.GradeEntry) models.GradeStatistics {
	stats := models.GradeStatistics{TotalStudents: len(entries)}

	var scored []models.GradeEntry
	for _, entry := range entries {
		if entry.Status.HasScore() {
			scored = append(scored, entry)
		} else {
			stats.PendingCount++
		}
	}
	stats.EnteredCount = len(scored)
	stats.Distribution = distribute(scored)
	if len(scored) == 0 {
		return stats
	}

	percentages := make([]int, len(scored))
	sum := 0
	passed := 0
	highest := scored[0].Percentage
	lowest := scored[0].Percentage
	for i, entry := range scored {
		percentages[i] = entry.Percentage
		sum += entry.Percentage
		if entry.Percentage >= PassThreshold {
			passed++
		}
		if entry.Percentage > highest {
			highest = entry.Percentage
		}
		if entry.Percentage < lowest {
			lowest = entry.Percentage
		}
	}

	stats.Average = roundRatio(float64(sum), float64(len(scored)))
	stats.Median = median(percentages)
	stats.Highest = highest
	stats.Lowest = lowest
	stats.PassRate = roundRatio(float64(passed)*100, float64(len(scored)))
	return stats
}

// FlagAnomalies re-evaluates every scored entry against the cohort and the
// optional historical averages, returning a new slice. Rules are checked in
// order, first match wins:
//
//  1. more than 20 points below the student's historical average
//  2. more than 30 points above the cohort average
//  3. more than 30 points below the cohort average and below 40 absolute
//
// Entries matching no rule keep their input status. The scan is advisory:
// it never removes a score, and running it twice on the same input yields
// identical flags.
func FlagAnomalies(entries []models.GradeEntry, studentAverages map[string]int) []models.GradeEntry {
	stats := Compute(entries)
	out := make([]models.GradeEntry, len(entries))
	for i, entry := range entries {
		out[i] = entry
		if !entry.Status.HasScore() {
			continue
		}
		reason := ""
		if avg, ok := studentAverages[entry.StudentID]; ok && avg-entry.Percentage > 20 {
			reason = FlagBelowStudentAverage
		} else if entry.Percentage-stats.Average > 30 {
			reason = FlagAboveClassAverage
		} else if stats.Average-entry.Percentage > 30 && entry.Percentage < 40 {
			reason = FlagNeedsIntervention
		}
		if reason == "" {
			continue
		}
		r := reason
		out[i].Status = models.GradeStatusFlagged
		out[i].FlagReason = &r
	}
	return out
}

func distribute(scored []models.GradeEntry) []models.DistributionBucket {
	buckets := make([]models.DistributionBucket, 0, len(distributionBands)+1)
	for _, band := range distributionBands {
		buckets = append(buckets, models.DistributionBucket{Label: band.label, Min: band.min, Max: band.max})
	}
	overflow := models.DistributionBucket{Label: overflowLabel, Min: 101, Max: math.MaxInt32}

	for _, entry := range scored {
		if entry.Percentage > 100 {
			overflow.Count++
			overflow.Students = append(overflow.Students, entry.StudentName)
			continue
		}
		for i := range buckets {
			if entry.Percentage >= buckets[i].Min && entry.Percentage <= buckets[i].Max {
				buckets[i].Count++
				buckets[i].Students = append(buckets[i].Students, entry.StudentName)
				break
			}
		}
	}
	if overflow.Count > 0 {
		buckets = append(buckets, overflow)
	}
	if len(scored) > 0 {
		for i := range buckets {
			buckets[i].Share = roundRatio(float64(buckets[i].Count)*100, float64(len(scored)))
		}
	}
	return buckets
}

func median(percentages []int) int {
	if len(percentages) == 0 {
		return 0
	}
	sorted := make([]int, len(percentages))
	copy(sorted, percentages)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return roundRatio(float64(sorted[mid-1]+sorted[mid]), 2)
	}
	return sorted[mid]
}

func roundRatio(numerator, denominator float64) int {
	return int(math.Round(numerator / denominator))
}
