package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/coursehub/marketplace/internal/core/domain"
	"github.com/coursehub/marketplace/internal/core/ports"
)

type EnrollmentService struct {
	repo ports.EnrollmentRepository
	log  zerolog.Logger
}

func NewEnrollmentService(repo ports.EnrollmentRepository, log zerolog.Logger) *EnrollmentService {
	return &EnrollmentService{repo: repo, log: log}
}

// Grant enrolls the user in the course. Granting twice is a no-op.
func (s *EnrollmentService) Grant(ctx context.Context, g ports.EnrollmentGrant) error {
	if g.UserID == "" || g.CourseID == "" {
		return fmt.Errorf("%w: grant needs user and course", domain.ErrInvalidInput)
	}
	created, err := s.repo.Grant(ctx, &domain.Enrollment{
		UserID:    g.UserID,
		CourseID:  g.CourseID,
		PaymentID: g.PaymentID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("grant enrollment: %w", err)
	}
	if created {
		s.log.Info().Str("user_id", g.UserID).Str("course_id", g.CourseID).Str("payment_id", g.PaymentID).Msg("enrollment granted")
	} else {
		s.log.Debug().Str("user_id", g.UserID).Str("course_id", g.CourseID).Msg("enrollment already present")
	}
	return nil
}

// List returns every enrollment for admins and the caller's own otherwise.
func (s *EnrollmentService) List(ctx context.Context, caller ports.Caller) ([]*domain.Enrollment, error) {
	if caller.IsAdmin() {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListByUser(ctx, caller.UserID)
}

func (s *EnrollmentService) ListByUser(ctx context.Context, caller ports.Caller, userID string) ([]*domain.Enrollment, error) {
	if !caller.CanActFor(userID) {
		return nil, domain.ErrForbidden
	}
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, domain.ErrEnrollmentNotFound
	}
	return out, nil
}

func (s *EnrollmentService) CountByUser(ctx context.Context, caller ports.Caller, userID string) (int64, error) {
	if !caller.CanActFor(userID) {
		return 0, domain.ErrForbidden
	}
	return s.repo.CountByUser(ctx, userID)
}
