package grading

import (
	"math"
	"sort"
	"time"

	"github.com/edupulse/gradebook-api/internal/models"
)

// Remark bands for composed final percentages.
const (
	RemarkExcellent        = "Excellent performance"
	RemarkGood             = "Good performance"
	RemarkSatisfactory     = "Satisfactory performance"
	RemarkNeedsImprovement = "Needs improvement"
	RemarkUrgent           = "Urgent intervention required"
)

// AssembleInstitutionReport builds per-student reports for every class and
// rolls them up to class and institution level. Grade entries are joined to
// their assessments to determine class membership; entries referencing
// unknown assessments are ignored. The institution rollup weights each
// class by its student count so small classes do not skew the averages.
func AssembleInstitutionReport(classes []models.Class, entries []models.GradeEntry, assessments []models.Assessment) models.InstitutionReport {
	assessmentsByID := make(map[string]models.Assessment, len(assessments))
	entriesByClass := make(map[string][]models.GradeEntry)
	for _, a := range assessments {
		assessmentsByID[a.ID] = a
	}
	for _, entry := range entries {
		if !entry.Status.HasScore() {
			continue
		}
		a, ok := assessmentsByID[entry.AssessmentID]
		if !ok {
			continue
		}
		entriesByClass[a.ClassID] = append(entriesByClass[a.ClassID], entry)
	}

	report := models.InstitutionReport{GeneratedAt: time.Now().UTC()}
	weightedAverageSum := 0
	weightedPassRateSum := 0
	totalStudents := 0
	for _, class := range classes {
		classReport := assembleClassReport(class, entriesByClass[class.ID], assessmentsByID)
		report.Classes = append(report.Classes, classReport)
		weightedAverageSum += classReport.ClassAverage * len(classReport.Students)
		weightedPassRateSum += classReport.PassRate * len(classReport.Students)
		totalStudents += len(classReport.Students)
	}

	report.TotalStudents = totalStudents
	divisor := float64(max(totalStudents, 1))
	report.OverallAverage = roundRatio(float64(weightedAverageSum), divisor)
	report.OverallPassRate = roundRatio(float64(weightedPassRateSum), divisor)
	return report
}

// AssembleStudentReport composes one student's report from their scored
// entries joined against the assessment catalogue.
func AssembleStudentReport(studentID, studentName string, entries []models.GradeEntry, assessmentsByID map[string]models.Assessment) models.StudentGradeReport {
	grades := make([]AssessmentGrade, 0, len(entries))
	passed := 0
	for _, entry := range entries {
		a, ok := assessmentsByID[entry.AssessmentID]
		if !ok {
			continue
		}
		grades = append(grades, AssessmentGrade{Assessment: a, Grade: float64(entry.Percentage)})
		if entry.Percentage >= PassThreshold {
			passed++
		}
	}

	final := ComposeFinal(studentID, grades)
	finalPct := int(math.Round(final.FinalGrade))
	return models.StudentGradeReport{
		StudentID:       studentID,
		StudentName:     studentName,
		Final:           final,
		FinalPercentage: finalPct,
		PassedCount:     passed,
		FailedCount:     len(grades) - passed,
		Remark:          remarkFor(finalPct),
	}
}

func assembleClassReport(class models.Class, entries []models.GradeEntry, assessmentsByID map[string]models.Assessment) models.ClassGradeReport {
	byStudent := make(map[string][]models.GradeEntry)
	names := make(map[string]string)
	for _, entry := range entries {
		byStudent[entry.StudentID] = append(byStudent[entry.StudentID], entry)
		names[entry.StudentID] = entry.StudentName
	}

	studentIDs := make([]string, 0, len(byStudent))
	for id := range byStudent {
		studentIDs = append(studentIDs, id)
	}
	sort.Strings(studentIDs)

	classReport := models.ClassGradeReport{ClassID: class.ID, ClassName: class.Name}
	finalSum := 0
	passedStudents := 0
	for _, id := range studentIDs {
		student := AssembleStudentReport(id, names[id], byStudent[id], assessmentsByID)
		classReport.Students = append(classReport.Students, student)
		finalSum += student.FinalPercentage
		if student.FinalPercentage >= PassThreshold {
			passedStudents++
		}
	}
	if len(classReport.Students) > 0 {
		classReport.ClassAverage = roundRatio(float64(finalSum), float64(len(classReport.Students)))
		classReport.PassRate = roundRatio(float64(passedStudents)*100, float64(len(classReport.Students)))
	}
	return classReport
}

func remarkFor(finalPercentage int) string {
	switch {
	case finalPercentage >= 80:
		return RemarkExcellent
	case finalPercentage >= 70:
		return RemarkGood
	case finalPercentage >= 60:
		return RemarkSatisfactory
	case finalPercentage >= PassThreshold:
		return RemarkNeedsImprovement
	default:
		return RemarkUrgent
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
