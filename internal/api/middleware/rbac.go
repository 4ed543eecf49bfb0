package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/coursehub/marketplace/internal/api/metrics"
	"github.com/coursehub/marketplace/internal/core/auth"
	"github.com/coursehub/marketplace/internal/core/domain"
)

// Require enforces policy on the claims placed by Auth. Non-public policies
// must be mounted behind Auth; without claims the request is unauthenticated.
func Require(policy auth.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if policy.Decide(claims) == auth.Deny {
				if claims == nil {
					metrics.AccessDecisionsTotal.WithLabelValues("deny", "missing_token").Inc()
					return domain.ErrMissingToken
				}
				metrics.AccessDecisionsTotal.WithLabelValues("deny", "insufficient_role").Inc()
				return domain.ErrInsufficientRole
			}
			metrics.AccessDecisionsTotal.WithLabelValues("allow", "ok").Inc()
			return next(c)
		}
	}
}

// RBAC admits callers holding any of roles.
func RBAC(roles ...domain.Role) echo.MiddlewareFunc {
	return Require(auth.RequireRoles(roles...))
}
