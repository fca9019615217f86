// Command seed populates a development database with demo users, classes,
// students, assessments, and grade entries.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/edupulse/gradebook-api/internal/grading"
	"github.com/edupulse/gradebook-api/internal/models"
	"github.com/edupulse/gradebook-api/pkg/config"
	"github.com/edupulse/gradebook-api/pkg/database"
)

func main() {
	var (
		students  int
		classes   int
		adminPass string
	)
	flag.IntVar(&students, "students", 25, "students per class")
	flag.IntVar(&classes, "classes", 3, "number of classes")
	flag.StringVar(&adminPass, "admin-password", "admin123", "password for the seeded admin account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPass), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	const userStmt = `INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6) ON CONFLICT (email) DO NOTHING`
	if _, err := db.ExecContext(ctx, userStmt, uuid.NewString(), "admin@example.com", string(hash), "Seed Admin", string(models.RoleAdmin), now); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	rng := rand.New(rand.NewSource(now.UnixNano()))

	for c := 0; c < classes; c++ {
		classID := uuid.NewString()
		grade := 10 + c
		className := fmt.Sprintf("%d-A", grade)
		if _, err := db.ExecContext(ctx,
			`INSERT INTO classes (id, name, grade, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`,
			classID, className, fmt.Sprintf("%d", grade), now); err != nil {
			log.Fatalf("seed class %s: %v", className, err)
		}

		assessmentID := uuid.NewString()
		if _, err := db.ExecContext(ctx,
			`INSERT INTO assessments (id, name, type, max_grade, weight, date, class_id, subject_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
			assessmentID, "Midterm Exam", string(models.AssessmentExam), 100.0, 40.0, now, classID, "", now); err != nil {
			log.Fatalf("seed assessment: %v", err)
		}

		for s := 0; s < students; s++ {
			studentID := uuid.NewString()
			number := fmt.Sprintf("%d%03d", grade, s+1)
			name := fmt.Sprintf("Student %s", number)
			if _, err := db.ExecContext(ctx,
				`INSERT INTO students (id, student_number, full_name, class_id, active, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, TRUE, $5, $5)`,
				studentID, number, name, classID, now); err != nil {
				log.Fatalf("seed student %s: %v", number, err)
			}

			score := 35 + rng.Float64()*65
			pct, letter := grading.Normalize(score, 100)
			if _, err := db.ExecContext(ctx,
				`INSERT INTO grade_entries (id, student_id, assessment_id, score, max_score, percentage, letter_grade, status, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
				uuid.NewString(), studentID, assessmentID, score, 100.0, pct, string(letter), string(models.GradeStatusEntered), now); err != nil {
				log.Fatalf("seed grade: %v", err)
			}
		}
		log.Printf("seeded class %s with %d students", className, students)
	}

	log.Printf("done: %d classes, admin@example.com / %s", classes, adminPass)
}
