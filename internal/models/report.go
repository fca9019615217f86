package models

import "time"

// StudentGradeReport is one student's composed result within a class report.
type StudentGradeReport struct {
	StudentID       string                `json:"student_id"`
	StudentName     string                `json:"student_name"`
	Final           FinalGradeCalculation `json:"final"`
	FinalPercentage int                   `json:"final_percentage"`
	PassedCount     int                   `json:"passed_count"`
	FailedCount     int                   `json:"failed_count"`
	Remark          string                `json:"remark"`
}

// ClassGradeReport rolls up student reports for one class.
type ClassGradeReport struct {
	ClassID      string               `json:"class_id"`
	ClassName    string               `json:"class_name"`
	Students     []StudentGradeReport `json:"students"`
	ClassAverage int                  `json:"class_average"`
	PassRate     int                  `json:"pass_rate"`
}

// InstitutionReport is the institution-wide rollup across all classes.
type InstitutionReport struct {
	Classes         []ClassGradeReport `json:"classes"`
	TotalStudents   int                `json:"total_students"`
	OverallAverage  int                `json:"overall_average"`
	OverallPassRate int                `json:"overall_pass_rate"`
	GeneratedAt     time.Time          `json:"generated_at"`
}
