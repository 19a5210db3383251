package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/maplewood-sis/scheduling-api/internal/models"
)

// StudentRepository handles persistence of students and their course history.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, full_name, email, grade_level, enrollment_year, status
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListHistory returns the student's completed-course records.
func (r *StudentRepository) ListHistory(ctx context.Context, studentID string) ([]models.CourseHistory, error) {
	const query = `SELECT id, student_id, course_id, grade, grade_point, passed
        FROM course_history WHERE student_id = $1`
	var history []models.CourseHistory
	if err := r.db.SelectContext(ctx, &history, query, studentID); err != nil {
		return nil, fmt.Errorf("list course history: %w", err)
	}
	return history, nil
}
