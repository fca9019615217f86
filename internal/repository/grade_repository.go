package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupulse/gradebook-api/internal/models"
)

// GradeRepository handles grade entry persistence.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const gradeColumns = `g.id, g.student_id, s.full_name AS student_name, g.assessment_id, g.score, g.max_score, g.percentage, g.letter_grade, g.status, g.flag_reason, g.created_at, g.updated_at`

// List returns grade entries matching the filter.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntry, error) {
	query := `SELECT ` + gradeColumns + `
        FROM grade_entries g
        JOIN students s ON s.id = g.student_id
        JOIN assessments a ON a.id = g.assessment_id
        WHERE 1=1`
	var args []interface{}
	if filter.StudentID != "" {
		query += fmt.Sprintf(" AND g.student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	if filter.AssessmentID != "" {
		query += fmt.Sprintf(" AND g.assessment_id = $%d", len(args)+1)
		args = append(args, filter.AssessmentID)
	}
	if filter.ClassID != "" {
		query += fmt.Sprintf(" AND a.class_id = $%d", len(args)+1)
		args = append(args, filter.ClassID)
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND g.status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	query += " ORDER BY g.updated_at DESC"
	var entries []models.GradeEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list grade entries: %w", err)
	}
	return entries, nil
}

// FindByID returns a single grade entry.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.GradeEntry, error) {
	query := `SELECT ` + gradeColumns + `
        FROM grade_entries g
        JOIN students s ON s.id = g.student_id
        WHERE g.id = $1`
	var entry models.GradeEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Upsert inserts or updates a grade entry keyed by student + assessment.
func (r *GradeRepository) Upsert(ctx context.Context, entry *models.GradeEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	const query = `INSERT INTO grade_entries (id, student_id, assessment_id, score, max_score, percentage, letter_grade, status, flag_reason, created_at, updated_at)
        VALUES (:id, :student_id, :assessment_id, :score, :max_score, :percentage, :letter_grade, :status, :flag_reason, :created_at, :updated_at)
        ON CONFLICT (student_id, assessment_id)
        DO UPDATE SET score = EXCLUDED.score, max_score = EXCLUDED.max_score, percentage = EXCLUDED.percentage, letter_grade = EXCLUDED.letter_grade, status = EXCLUDED.status, flag_reason = EXCLUDED.flag_reason, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("upsert grade entry: %w", err)
	}
	return nil
}

// BulkUpsert inserts or updates multiple grade entries in a transaction.
func (r *GradeRepository) BulkUpsert(ctx context.Context, entries []models.GradeEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		now := time.Now().UTC()
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = now
		}
		entries[i].UpdatedAt = now
		const query = `INSERT INTO grade_entries (id, student_id, assessment_id, score, max_score, percentage, letter_grade, status, flag_reason, created_at, updated_at)
                VALUES (:id, :student_id, :assessment_id, :score, :max_score, :percentage, :letter_grade, :status, :flag_reason, :created_at, :updated_at)
                ON CONFLICT (student_id, assessment_id)
                DO UPDATE SET score = EXCLUDED.score, max_score = EXCLUDED.max_score, percentage = EXCLUDED.percentage, letter_grade = EXCLUDED.letter_grade, status = EXCLUDED.status, flag_reason = EXCLUDED.flag_reason, updated_at = EXCLUDED.updated_at`
		if _, err := tx.NamedExecContext(ctx, query, entries[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bulk upsert grade entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grade entries: %w", err)
	}
	return nil
}

// UpdateStatus transitions a grade entry's lifecycle state.
func (r *GradeRepository) UpdateStatus(ctx context.Context, id string, status models.GradeStatus, flagReason *string) error {
	const query = `UPDATE grade_entries SET status = $2, flag_reason = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, flagReason, time.Now().UTC()); err != nil {
		return fmt.Errorf("update grade status: %w", err)
	}
	return nil
}

// FetchByStudents returns scored entries keyed by student ID for a class.
func (r *GradeRepository) FetchByStudents(ctx context.Context, studentIDs []string, classID string) (map[string][]models.GradeEntry, error) {
	if len(studentIDs) == 0 {
		return map[string][]models.GradeEntry{}, nil
	}
	placeholders := make([]string, len(studentIDs))
	args := make([]interface{}, len(studentIDs)+1)
	for i, id := range studentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	args[len(args)-1] = classID
	query := fmt.Sprintf(`SELECT `+gradeColumns+`
        FROM grade_entries g
        JOIN students s ON s.id = g.student_id
        JOIN assessments a ON a.id = g.assessment_id
        WHERE g.student_id IN (%s) AND a.class_id = $%d`, strings.Join(placeholders, ","), len(args))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch grade entries: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	result := make(map[string][]models.GradeEntry)
	for rows.Next() {
		var entry models.GradeEntry
		if err := rows.StructScan(&entry); err != nil {
			return nil, fmt.Errorf("scan grade entry: %w", err)
		}
		result[entry.StudentID] = append(result[entry.StudentID], entry)
	}
	return result, rows.Err()
}

// StudentAverages returns each student's historical average percentage over
// scored entries, excluding the provided assessment.
func (r *GradeRepository) StudentAverages(ctx context.Context, classID, excludeAssessmentID string) (map[string]int, error) {
	const query = `SELECT g.student_id, ROUND(AVG(g.percentage))::int AS average
        FROM grade_entries g
        JOIN assessments a ON a.id = g.assessment_id
        WHERE a.class_id = $1 AND g.assessment_id <> $2 AND g.status <> 'PENDING'
        GROUP BY g.student_id`
	rows, err := r.db.QueryxContext(ctx, query, classID, excludeAssessmentID)
	if err != nil {
		return nil, fmt.Errorf("fetch student averages: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	averages := make(map[string]int)
	for rows.Next() {
		var studentID string
		var average int
		if err := rows.Scan(&studentID, &average); err != nil {
			return nil, fmt.Errorf("scan student average: %w", err)
		}
		averages[studentID] = average
	}
	return averages, rows.Err()
}
