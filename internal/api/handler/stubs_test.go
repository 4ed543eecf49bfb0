package handler

import (
	"context"
	"io"
	"net/http/httptest"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/marketplace/internal/api/middleware"
	"github.com/coursehub/marketplace/internal/core/auth"
	"github.com/coursehub/marketplace/internal/core/domain"
	"github.com/coursehub/marketplace/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, input ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, username, password string) (*ports.LoginResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, input)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, username, password)
}

type stubCourseService struct {
	ports.CourseService
	createFn func(ctx context.Context, caller ports.Caller, input ports.CourseInput) (*domain.Course, error)
	randomFn func(ctx context.Context, limit int) ([]*domain.Course, error)
}

func (s *stubCourseService) Create(ctx context.Context, caller ports.Caller, input ports.CourseInput) (*domain.Course, error) {
	return s.createFn(ctx, caller, input)
}

func (s *stubCourseService) Random(ctx context.Context, limit int) ([]*domain.Course, error) {
	return s.randomFn(ctx, limit)
}

type stubPaymentService struct {
	ports.PaymentService
	createFn       func(ctx context.Context, caller ports.Caller, input ports.CreatePaymentInput) (*ports.PaymentResult, error)
	updateStatusFn func(ctx context.Context, caller ports.Caller, id string, status domain.PaymentStatus) (*domain.Payment, error)
	chargeFn       func(ctx context.Context, caller ports.Caller, id, paymentMethod string) (*domain.Payment, error)
}

func (s *stubPaymentService) Create(ctx context.Context, caller ports.Caller, input ports.CreatePaymentInput) (*ports.PaymentResult, error) {
	return s.createFn(ctx, caller, input)
}

func (s *stubPaymentService) UpdateStatus(ctx context.Context, caller ports.Caller, id string, status domain.PaymentStatus) (*domain.Payment, error) {
	return s.updateStatusFn(ctx, caller, id, status)
}

func (s *stubPaymentService) Charge(ctx context.Context, caller ports.Caller, id, paymentMethod string) (*domain.Payment, error) {
	return s.chargeFn(ctx, caller, id, paymentMethod)
}

type stubEnrollmentService struct {
	ports.EnrollmentService
	countFn func(ctx context.Context, caller ports.Caller, userID string) (int64, error)
}

func (s *stubEnrollmentService) CountByUser(ctx context.Context, caller ports.Caller, userID string) (int64, error) {
	return s.countFn(ctx, caller, userID)
}

// newJSONContext builds a context with the validator installed and, when
// claims is non-nil, the caller already authenticated.
func newJSONContext(method, target string, body io.Reader, claims *auth.Claims) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if claims != nil {
		middleware.SetClaims(c, claims)
	}
	return c, rec
}

func userClaims(id string, roles ...domain.Role) *auth.Claims {
	return &auth.Claims{SubjectID: id, SubjectName: "user-" + id, Roles: domain.NewRoleSet(roles...)}
}

