package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/maplewood-sis/scheduling-api/internal/models"
	appErrors "github.com/maplewood-sis/scheduling-api/pkg/errors"
)

type semesterRepository interface {
	List(ctx context.Context) ([]models.Semester, error)
	FindByID(ctx context.Context, id string) (*models.Semester, error)
}

// SemesterService exposes the academic calendar.
type SemesterService struct {
	repo   semesterRepository
	logger *zap.Logger
}

// NewSemesterService constructs a semester service.
func NewSemesterService(repo semesterRepository, logger *zap.Logger) *SemesterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterService{repo: repo, logger: logger}
}

// List returns all semesters in calendar order.
func (s *SemesterService) List(ctx context.Context) ([]models.Semester, error) {
	semesters, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "list semesters")
	}
	return semesters, nil
}

// Get returns one semester.
func (s *SemesterService) Get(ctx context.Context, id string) (*models.Semester, error) {
	semester, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrUnavailable(err, "semester not found", "load semester")
	}
	return semester, nil
}
