package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/marketplace/internal/api/metrics"
	"github.com/coursehub/marketplace/internal/core/auth"
	"github.com/coursehub/marketplace/internal/core/domain"
)

const claimsKey = "auth.claims"

// TokenValidator verifies a bearer token and returns its claims.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// Auth validates the bearer token and stores its claims in the context.
// Failures are returned as domain errors so the HTTP error handler renders
// them as 401.
func Auth(v TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.AccessDecisionsTotal.WithLabelValues("deny", "missing_token").Inc()
				return domain.ErrMissingToken
			}

			claims, err := v.Validate(token)
			if err != nil {
				reason := "invalid_token"
				if errors.Is(err, domain.ErrTokenExpired) {
					reason = "token_expired"
				}
				metrics.AccessDecisionsTotal.WithLabelValues("deny", reason).Inc()
				return err
			}

			SetClaims(c, claims)
			return next(c)
		}
	}
}

// SetClaims attaches validated claims to the request context.
func SetClaims(c echo.Context, claims *auth.Claims) {
	c.Set(claimsKey, claims)
}

// ClaimsFrom returns the claims stored by Auth, or nil on anonymous requests.
func ClaimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey).(*auth.Claims)
	return claims
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
