package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupulse/gradebook-api/internal/models"
)

// AssessmentRepository handles assessment persistence.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository creates a new assessment repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// List returns assessments matching the filter.
func (r *AssessmentRepository) List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, error) {
	query := `SELECT id, name, type, max_grade, weight, date, class_id, subject_id, created_at, updated_at
        FROM assessments WHERE 1=1`
	var args []interface{}
	if filter.ClassID != "" {
		query += fmt.Sprintf(" AND class_id = $%d", len(args)+1)
		args = append(args, filter.ClassID)
	}
	if filter.SubjectID != "" {
		query += fmt.Sprintf(" AND subject_id = $%d", len(args)+1)
		args = append(args, filter.SubjectID)
	}
	if filter.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", len(args)+1)
		args = append(args, filter.Type)
	}
	query += " ORDER BY date DESC"
	var assessments []models.Assessment
	if err := r.db.SelectContext(ctx, &assessments, query, args...); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return assessments, nil
}

// FindByID returns a single assessment with its weighted components.
func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*models.Assessment, error) {
	const query = `SELECT id, name, type, max_grade, weight, date, class_id, subject_id, created_at, updated_at
        FROM assessments WHERE id = $1`
	var assessment models.Assessment
	if err := r.db.GetContext(ctx, &assessment, query, id); err != nil {
		return nil, err
	}
	components, err := r.components(ctx, id)
	if err != nil {
		return nil, err
	}
	assessment.Components = components
	return &assessment, nil
}

// FindByClass returns all assessments for a class.
func (r *AssessmentRepository) FindByClass(ctx context.Context, classID string) ([]models.Assessment, error) {
	const query = `SELECT id, name, type, max_grade, weight, date, class_id, subject_id, created_at, updated_at
        FROM assessments WHERE class_id = $1 ORDER BY date`
	var assessments []models.Assessment
	if err := r.db.SelectContext(ctx, &assessments, query, classID); err != nil {
		return nil, fmt.Errorf("list class assessments: %w", err)
	}
	return assessments, nil
}

// Create inserts an assessment and its components.
func (r *AssessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assessment.CreatedAt = now
	assessment.UpdatedAt = now
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `INSERT INTO assessments (id, name, type, max_grade, weight, date, class_id, subject_id, created_at, updated_at)
        VALUES (:id, :name, :type, :max_grade, :weight, :date, :class_id, :subject_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, assessment); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert assessment: %w", err)
	}
	for i := range assessment.Components {
		if assessment.Components[i].ID == "" {
			assessment.Components[i].ID = uuid.NewString()
		}
		assessment.Components[i].AssessmentID = assessment.ID
		assessment.Components[i].CreatedAt = now
		const compQuery = `INSERT INTO assessment_components (id, assessment_id, name, max_grade, weight, created_at)
                VALUES (:id, :assessment_id, :name, :max_grade, :weight, :created_at)`
		if _, err := tx.NamedExecContext(ctx, compQuery, assessment.Components[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert assessment component: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assessment: %w", err)
	}
	return nil
}

func (r *AssessmentRepository) components(ctx context.Context, assessmentID string) ([]models.AssessmentComponent, error) {
	const query = `SELECT id, assessment_id, name, max_grade, weight, created_at FROM assessment_components WHERE assessment_id = $1 ORDER BY name`
	var components []models.AssessmentComponent
	if err := r.db.SelectContext(ctx, &components, query, assessmentID); err != nil {
		return nil, fmt.Errorf("list assessment components: %w", err)
	}
	return components, nil
}
