package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/maplewood-sis/scheduling-api/internal/models"
)

const sectionDetailColumns = `s.id, s.course_id, s.teacher_id, s.classroom_id, s.semester_id,
        s.capacity, s.enrolled_count, s.created_at,
        c.code AS course_code, c.name AS course_name, c.credits, c.hours_per_week,
        c.course_type, c.prerequisite_ids,
        t.full_name AS teacher_name, r.name AS classroom_name`

const sectionDetailJoins = `FROM course_sections s
        JOIN courses c ON c.id = s.course_id
        JOIN teachers t ON t.id = s.teacher_id
        JOIN classrooms r ON r.id = s.classroom_id`

// SectionRepository handles persistence of course sections and their meetings.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// ListDetailsBySemester returns every section of a semester with course,
// teacher, classroom and meeting context attached.
func (r *SectionRepository) ListDetailsBySemester(ctx context.Context, semesterID string) ([]models.SectionDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE s.semester_id = $1 ORDER BY c.code, s.created_at`,
		sectionDetailColumns, sectionDetailJoins)
	var details []models.SectionDetail
	if err := r.db.SelectContext(ctx, &details, query, semesterID); err != nil {
		return nil, fmt.Errorf("list section details: %w", err)
	}
	if err := r.attachMeetings(ctx, details); err != nil {
		return nil, err
	}
	return details, nil
}

// FindDetailByID returns one section with full context.
func (r *SectionRepository) FindDetailByID(ctx context.Context, id string) (*models.SectionDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE s.id = $1`, sectionDetailColumns, sectionDetailJoins)
	var detail models.SectionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	details := []models.SectionDetail{detail}
	if err := r.attachMeetings(ctx, details); err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (r *SectionRepository) attachMeetings(ctx context.Context, details []models.SectionDetail) error {
	if len(details) == 0 {
		return nil
	}
	ids := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
	}
	meetings, err := r.listMeetings(ctx, ids)
	if err != nil {
		return err
	}
	bySection := make(map[string][]models.Meeting, len(details))
	for _, m := range meetings {
		bySection[m.SectionID] = append(bySection[m.SectionID], m)
	}
	for i := range details {
		details[i].Meetings = bySection[details[i].ID]
	}
	return nil
}

func (r *SectionRepository) listMeetings(ctx context.Context, sectionIDs []string) ([]models.Meeting, error) {
	query, args, err := sqlx.In(`SELECT id, section_id, day_of_week, start_time, end_time
        FROM section_meetings WHERE section_id IN (?) ORDER BY day_of_week, start_time`, sectionIDs)
	if err != nil {
		return nil, fmt.Errorf("build meetings query: %w", err)
	}
	query = r.db.Rebind(query)
	var meetings []models.Meeting
	if err := r.db.SelectContext(ctx, &meetings, query, args...); err != nil {
		return nil, fmt.Errorf("list section meetings: %w", err)
	}
	return meetings, nil
}

// CreateTx persists a section and its meeting pattern inside a transaction.
func (r *SectionRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, section *models.CourseSection, meetings []models.Meeting) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	if section.CreatedAt.IsZero() {
		section.CreatedAt = time.Now().UTC()
	}
	const insertSection = `INSERT INTO course_sections
        (id, course_id, teacher_id, classroom_id, semester_id, capacity, enrolled_count, created_at)
        VALUES (:id, :course_id, :teacher_id, :classroom_id, :semester_id, :capacity, :enrolled_count, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertSection, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	const insertMeeting = `INSERT INTO section_meetings (id, section_id, day_of_week, start_time, end_time)
        VALUES ($1, $2, $3, $4, $5)`
	for i := range meetings {
		meetings[i].SectionID = section.ID
		if meetings[i].ID == "" {
			meetings[i].ID = uuid.NewString()
		}
		m := meetings[i]
		if _, err := tx.ExecContext(ctx, insertMeeting, m.ID, m.SectionID, m.DayOfWeek, m.StartTime, m.EndTime); err != nil {
			return fmt.Errorf("create section meeting: %w", err)
		}
	}
	return nil
}

// DeleteUnenrolledTx removes a semester's sections that hold no enrollments.
// Sections with seated students are left untouched so regeneration cannot
// orphan them. Meetings cascade through the same statement pair.
func (r *SectionRepository) DeleteUnenrolledTx(ctx context.Context, tx *sqlx.Tx, semesterID string) error {
	const deleteMeetings = `DELETE FROM section_meetings WHERE section_id IN
        (SELECT id FROM course_sections WHERE semester_id = $1 AND enrolled_count = 0)`
	if _, err := tx.ExecContext(ctx, deleteMeetings, semesterID); err != nil {
		return fmt.Errorf("delete meetings of unenrolled sections: %w", err)
	}
	const deleteSections = `DELETE FROM course_sections WHERE semester_id = $1 AND enrolled_count = 0`
	if _, err := tx.ExecContext(ctx, deleteSections, semesterID); err != nil {
		return fmt.Errorf("delete unenrolled sections: %w", err)
	}
	return nil
}

// ReserveSeat atomically claims one seat if any remain. The capacity check and
// the increment are a single statement so concurrent reservations can never
// push enrolled_count past capacity.
func (r *SectionRepository) ReserveSeat(ctx context.Context, sectionID string) (bool, error) {
	const query = `UPDATE course_sections SET enrolled_count = enrolled_count + 1
        WHERE id = $1 AND enrolled_count < capacity`
	result, err := r.db.ExecContext(ctx, query, sectionID)
	if err != nil {
		return false, fmt.Errorf("reserve seat: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reserve seat result: %w", err)
	}
	return affected == 1, nil
}

// ReleaseSeat returns a previously reserved seat. Used to compensate when the
// enrollment row cannot be written after the seat was claimed.
func (r *SectionRepository) ReleaseSeat(ctx context.Context, sectionID string) error {
	const query = `UPDATE course_sections SET enrolled_count = enrolled_count - 1
        WHERE id = $1 AND enrolled_count > 0`
	if _, err := r.db.ExecContext(ctx, query, sectionID); err != nil {
		return fmt.Errorf("release seat: %w", err)
	}
	return nil
}
