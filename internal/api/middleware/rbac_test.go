package middleware

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/marketplace/internal/core/auth"
	"github.com/coursehub/marketplace/internal/core/domain"
)

func withClaims(roles ...domain.Role) echo.Context {
	c, _ := newContext("")
	SetClaims(c, &auth.Claims{SubjectID: "u1", Roles: domain.NewRoleSet(roles...)})
	return c
}

func TestRBAC_Allows(t *testing.T) {
	c := withClaims(domain.RoleTeacher)

	called := false
	h := RBAC(domain.RoleAdmin, domain.RoleTeacher)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
}

func TestRBAC_Forbids(t *testing.T) {
	c := withClaims(domain.RoleUser)

	h := RBAC(domain.RoleAdmin)(func(echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := h(c); !errors.Is(err, domain.ErrInsufficientRole) {
		t.Fatalf("expected ErrInsufficientRole, got %v", err)
	}
}

func TestRequire_NoClaims(t *testing.T) {
	c, _ := newContext("")

	h := Require(auth.AuthenticatedPolicy())(func(echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := h(c); !errors.Is(err, domain.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestRequire_EmptyRolesDeny(t *testing.T) {
	c := withClaims(domain.RoleAdmin)

	h := Require(auth.Policy{})(func(echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := h(c); !errors.Is(err, domain.ErrInsufficientRole) {
		t.Fatalf("expected ErrInsufficientRole, got %v", err)
	}
}

func TestRequire_Public(t *testing.T) {
	c, _ := newContext("")

	called := false
	h := Require(auth.PublicPolicy())(func(echo.Context) error {
		called = true
		return nil
	})
	if err := h(c); err != nil || !called {
		t.Fatalf("public route must pass, err=%v called=%v", err, called)
	}
}
