package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/gradebook-api/internal/models"
)

func classEntry(studentID, assessmentID string, percentage int) models.GradeEntry {
	e := scoredEntry(studentID, percentage)
	e.AssessmentID = assessmentID
	return e
}

func classAssessment(id, classID string, weight float64) models.Assessment {
	return models.Assessment{ID: id, Name: "Assessment " + id, Type: models.AssessmentExam, MaxGrade: 100, Weight: weight, ClassID: classID, Date: time.Now()}
}

func TestAssembleStudentReport(t *testing.T) {
	assessments := map[string]models.Assessment{
		"a1": classAssessment("a1", "c1", 40),
		"a2": classAssessment("a2", "c1", 60),
	}
	report := AssembleStudentReport("s1", "Student s1", []models.GradeEntry{
		classEntry("s1", "a1", 80),
		classEntry("s1", "a2", 40),
	}, assessments)

	// (80*40 + 40*60) / 100 = 56
	assert.Equal(t, 56, report.FinalPercentage)
	assert.Equal(t, 1, report.PassedCount)
	assert.Equal(t, 1, report.FailedCount)
	assert.Equal(t, RemarkNeedsImprovement, report.Remark)
}

func TestAssembleStudentReportRemarkBands(t *testing.T) {
	cases := map[int]string{
		85: RemarkExcellent,
		75: RemarkGood,
		65: RemarkSatisfactory,
		55: RemarkNeedsImprovement,
		30: RemarkUrgent,
	}
	for pct, want := range cases {
		assessments := map[string]models.Assessment{"a1": classAssessment("a1", "c1", 100)}
		report := AssembleStudentReport("s1", "Student s1", []models.GradeEntry{classEntry("s1", "a1", pct)}, assessments)
		assert.Equal(t, want, report.Remark, "final %d", pct)
	}
}

func TestAssembleInstitutionReportWeightedRollup(t *testing.T) {
	classes := []models.Class{{ID: "c1", Name: "Small"}, {ID: "c2", Name: "Large"}}
	assessments := []models.Assessment{
		classAssessment("a1", "c1", 100),
		classAssessment("a2", "c2", 100),
	}
	var entries []models.GradeEntry
	// two students averaging 90 in the small class
	entries = append(entries, classEntry("s1", "a1", 90), classEntry("s2", "a1", 90))
	// eight students averaging 60 in the large class
	for _, id := range []string{"s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10"} {
		entries = append(entries, classEntry(id, "a2", 60))
	}

	report := AssembleInstitutionReport(classes, entries, assessments)
	require.Len(t, report.Classes, 2)
	assert.Equal(t, 10, report.TotalStudents)
	// (90*2 + 60*8) / 10, not the naive unweighted mean of 75
	assert.Equal(t, 66, report.OverallAverage)
	assert.Equal(t, 100, report.OverallPassRate)
}

func TestAssembleInstitutionReportEmpty(t *testing.T) {
	report := AssembleInstitutionReport(nil, nil, nil)
	assert.Zero(t, report.TotalStudents)
	assert.Zero(t, report.OverallAverage)
	assert.Zero(t, report.OverallPassRate)
}

func TestAssembleInstitutionReportSkipsUnknownAssessments(t *testing.T) {
	classes := []models.Class{{ID: "c1", Name: "Class"}}
	assessments := []models.Assessment{classAssessment("a1", "c1", 100)}
	entries := []models.GradeEntry{
		classEntry("s1", "a1", 70),
		classEntry("s1", "ghost", 10),
	}
	report := AssembleInstitutionReport(classes, entries, assessments)
	require.Len(t, report.Classes, 1)
	require.Len(t, report.Classes[0].Students, 1)
	assert.Equal(t, 70, report.Classes[0].Students[0].FinalPercentage)
}

func TestAssembleClassReportPendingIgnored(t *testing.T) {
	classes := []models.Class{{ID: "c1", Name: "Class"}}
	assessments := []models.Assessment{classAssessment("a1", "c1", 100)}
	pending := pendingEntry("s2")
	pending.AssessmentID = "a1"
	entries := []models.GradeEntry{classEntry("s1", "a1", 80), pending}

	report := AssembleInstitutionReport(classes, entries, assessments)
	require.Len(t, report.Classes[0].Students, 1)
	assert.Equal(t, "s1", report.Classes[0].Students[0].StudentID)
}
