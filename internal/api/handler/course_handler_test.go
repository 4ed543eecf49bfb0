package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coursehub/marketplace/internal/core/domain"
	"github.com/coursehub/marketplace/internal/core/ports"
)

func TestCourseHandler_Create_ParsesDates(t *testing.T) {
	stub := &stubCourseService{
		createFn: func(ctx context.Context, caller ports.Caller, in ports.CourseInput) (*domain.Course, error) {
			if caller.UserID != "t1" || !caller.Roles.Has(domain.RoleTeacher) {
				t.Fatalf("unexpected caller: %+v", caller)
			}
			if !in.StartDate.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected start date: %v", in.StartDate)
			}
			if !in.EndDate.Equal(time.Date(2026, 6, 30, 18, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected end date: %v", in.EndDate)
			}
			return &domain.Course{ID: "c1", Title: in.Title, Price: in.Price, TeacherID: caller.UserID}, nil
		},
	}
	h := NewCourseHandler(stub)

	body := `{"title":"Go","price":49.5,"start_date":"2026-05-01","end_date":"2026-06-30T18:00:00Z"}`
	c, rec := newJSONContext(http.MethodPost, "/course/create", strings.NewReader(body), userClaims("t1", domain.RoleTeacher))

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestCourseHandler_Create_Rejects(t *testing.T) {
	stub := &stubCourseService{
		createFn: func(ctx context.Context, caller ports.Caller, in ports.CourseInput) (*domain.Course, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewCourseHandler(stub)

	cases := map[string]string{
		"bad date":       `{"title":"Go","start_date":"May 1st"}`,
		"negative price": `{"title":"Go","price":-1}`,
		"missing title":  `{"price":10}`,
		"bad video url":  `{"title":"Go","video_url":"not a url"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newJSONContext(http.MethodPost, "/course/create", strings.NewReader(body), userClaims("t1", domain.RoleTeacher))
			if err := h.Create(c); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCourseHandler_Create_NoClaims(t *testing.T) {
	h := NewCourseHandler(&stubCourseService{})

	c, _ := newJSONContext(http.MethodPost, "/course/create", strings.NewReader(`{"title":"Go"}`), nil)
	if err := h.Create(c); !errors.Is(err, domain.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestCourseHandler_Random_Limit(t *testing.T) {
	var got int
	stub := &stubCourseService{
		randomFn: func(ctx context.Context, limit int) ([]*domain.Course, error) {
			got = limit
			return []*domain.Course{}, nil
		},
	}
	h := NewCourseHandler(stub)

	c, rec := newJSONContext(http.MethodGet, "/course/random-courses/?limit=5", nil, userClaims("u1", domain.RoleUser))
	if err := h.Random(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got != 5 || rec.Code != http.StatusOK {
		t.Fatalf("expected limit 5 and 200, got %d and %d", got, rec.Code)
	}

	c, _ = newJSONContext(http.MethodGet, "/course/random-courses/?limit=abc", nil, userClaims("u1", domain.RoleUser))
	if err := h.Random(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
