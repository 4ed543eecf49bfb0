package ports

import (
	"context"
	"time"

	"github.com/coursehub/marketplace/internal/core/domain"
)

// CourseRepository defines persistence operations for courses.
type CourseRepository interface {
	Create(ctx context.Context, c *domain.Course) (*domain.Course, error)
	FindByID(ctx context.Context, id string) (*domain.Course, error)
	// FindByIDs silently skips unknown ids.
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Course, error)
	List(ctx context.Context) ([]*domain.Course, error)
	Save(ctx context.Context, c *domain.Course) error
	Delete(ctx context.Context, id string) error
	// Sample returns up to n courses picked at random.
	Sample(ctx context.Context, n int) ([]*domain.Course, error)
}

// CourseInput carries the editable fields of a course.
type CourseInput struct {
	Title       string
	Description string
	Price       float64
	Category    string
	StartDate   time.Time
	EndDate     time.Time
	TeacherID   string
	VideoURL    string
}

type CourseService interface {
	List(ctx context.Context) ([]*domain.Course, error)
	Get(ctx context.Context, id string) (*domain.Course, error)
	Create(ctx context.Context, caller Caller, input CourseInput) (*domain.Course, error)
	Update(ctx context.Context, caller Caller, id string, input CourseInput) (*domain.Course, error)
	Delete(ctx context.Context, caller Caller, id string) error
	// UserCourses lists the courses userID is enrolled in.
	UserCourses(ctx context.Context, caller Caller, userID string) ([]*domain.Course, error)
	Random(ctx context.Context, limit int) ([]*domain.Course, error)
}
