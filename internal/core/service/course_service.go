package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/coursehub/marketplace/internal/core/domain"
	"github.com/coursehub/marketplace/internal/core/ports"
)

const defaultRandomCourses = 2

type CourseService struct {
	repo        ports.CourseRepository
	enrollments ports.EnrollmentRepository
	log         zerolog.Logger
}

func NewCourseService(repo ports.CourseRepository, enrollments ports.EnrollmentRepository, log zerolog.Logger) *CourseService {
	return &CourseService{repo: repo, enrollments: enrollments, log: log}
}

func (s *CourseService) List(ctx context.Context) ([]*domain.Course, error) {
	return s.repo.List(ctx)
}

func (s *CourseService) Get(ctx context.Context, id string) (*domain.Course, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores a new course. Teachers may only list courses they teach;
// admins may assign any teacher.
func (s *CourseService) Create(ctx context.Context, caller ports.Caller, in ports.CourseInput) (*domain.Course, error) {
	if in.TeacherID == "" {
		in.TeacherID = caller.UserID
	}
	if !caller.CanActFor(in.TeacherID) {
		return nil, domain.ErrForbidden
	}
	if err := validateCourse(in); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, toCourse(in))
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	s.log.Info().Str("course_id", created.ID).Str("teacher_id", created.TeacherID).Msg("course created")
	return created, nil
}

func (s *CourseService) Update(ctx context.Context, caller ports.Caller, id string, in ports.CourseInput) (*domain.Course, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanActFor(existing.TeacherID) {
		return nil, domain.ErrForbidden
	}
	if in.TeacherID == "" {
		in.TeacherID = existing.TeacherID
	}
	// Only admins may hand a course over to another teacher.
	if in.TeacherID != existing.TeacherID && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if err := validateCourse(in); err != nil {
		return nil, err
	}

	updated := toCourse(in)
	updated.ID = existing.ID
	if err := s.repo.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}
	return updated, nil
}

func (s *CourseService) Delete(ctx context.Context, caller ports.Caller, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanActFor(existing.TeacherID) {
		return domain.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("course_id", id).Str("by", caller.UserID).Msg("course deleted")
	return nil
}

// UserCourses resolves the user's enrollments into courses. Enrollments whose
// course was deleted are skipped.
func (s *CourseService) UserCourses(ctx context.Context, caller ports.Caller, userID string) ([]*domain.Course, error) {
	if !caller.CanActFor(userID) {
		return nil, domain.ErrForbidden
	}
	enrolled, err := s.enrollments.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user courses: %w", err)
	}
	if len(enrolled) == 0 {
		return []*domain.Course{}, nil
	}

	ids := make([]string, len(enrolled))
	for i, e := range enrolled {
		ids[i] = e.CourseID
	}
	return s.repo.FindByIDs(ctx, ids)
}

func (s *CourseService) Random(ctx context.Context, limit int) ([]*domain.Course, error) {
	if limit <= 0 {
		limit = defaultRandomCourses
	}
	return s.repo.Sample(ctx, limit)
}

func validateCourse(in ports.CourseInput) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	case in.Price < 0:
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	case !in.StartDate.IsZero() && !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate):
		return fmt.Errorf("%w: end_date is before start_date", domain.ErrInvalidInput)
	}
	return nil
}

func toCourse(in ports.CourseInput) *domain.Course {
	return &domain.Course{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		TeacherID:   in.TeacherID,
		VideoURL:    in.VideoURL,
	}
}
