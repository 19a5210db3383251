package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/maplewood-sis/scheduling-api/internal/models"
)

const courseColumns = `id, code, name, credits, hours_per_week, course_type, room_type,
        semester_order, prerequisite_ids, grade_level_min, grade_level_max,
        projected_enrollment, is_active`

// CourseRepository handles persistence of catalog courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListActiveBySemesterOrder returns the active courses targeting a semester position.
func (r *CourseRepository) ListActiveBySemesterOrder(ctx context.Context, order int) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE semester_order = $1 AND is_active = TRUE ORDER BY code`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, order); err != nil {
		return nil, fmt.Errorf("list courses for semester order %d: %w", order, err)
	}
	return courses, nil
}

// ListByIDs returns the courses matching the given ids.
func (r *CourseRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = ANY($1)`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list courses by ids: %w", err)
	}
	return courses, nil
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}
