package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/maplewood-sis/scheduling-api/internal/models"
	appErrors "github.com/maplewood-sis/scheduling-api/pkg/errors"
)

// Postgres unique_violation, raised by the (student_id, section_id) constraint.
const uniqueViolation = "23505"

// EnrollmentRepository handles persistence of enrollment facts.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListByStudentAndSemester returns the student's committed enrollments for a semester.
func (r *EnrollmentRepository) ListByStudentAndSemester(ctx context.Context, studentID, semesterID string) ([]models.Enrollment, error) {
	const query = `SELECT id, student_id, section_id, semester_id, enrolled_at
        FROM enrollments WHERE student_id = $1 AND semester_id = $2 ORDER BY enrolled_at`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID, semesterID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// Exists reports whether the student already holds a seat in the section.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, sectionID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND section_id = $2 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, studentID, sectionID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// Create persists a new enrollment fact. A unique-violation on
// (student_id, section_id) is reported as ErrDuplicateEnrollment so callers
// can treat the seat as already held.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, student_id, section_id, semester_id, enrolled_at)
        VALUES (:id, :student_id, :section_id, :semester_id, :enrolled_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("create enrollment: %w", appErrors.ErrDuplicateEnrollment)
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}
