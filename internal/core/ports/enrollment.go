package ports

import (
	"context"

	"github.com/coursehub/marketplace/internal/core/domain"
)

// EnrollmentRepository defines persistence operations for enrollments.
type EnrollmentRepository interface {
	// Grant stores the enrollment unless the user already holds the course.
	// created is false for an existing enrollment.
	Grant(ctx context.Context, e *domain.Enrollment) (created bool, err error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Enrollment, error)
	ListAll(ctx context.Context) ([]*domain.Enrollment, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}

// EnrollmentGrant is emitted when a payment completes.
type EnrollmentGrant struct {
	UserID    string
	CourseID  string
	PaymentID string
}

type EnrollmentService interface {
	Grant(ctx context.Context, grant EnrollmentGrant) error
	List(ctx context.Context, caller Caller) ([]*domain.Enrollment, error)
	ListByUser(ctx context.Context, caller Caller, userID string) ([]*domain.Enrollment, error)
	CountByUser(ctx context.Context, caller Caller, userID string) (int64, error)
}
