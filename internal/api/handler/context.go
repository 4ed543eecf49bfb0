package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/coursehub/marketplace/internal/api/middleware"
	"github.com/coursehub/marketplace/internal/core/domain"
	"github.com/coursehub/marketplace/internal/core/ports"
)

// callerFrom builds the service-level caller from the claims stored by the
// Auth middleware. Handlers mounted behind Auth always have claims; a missing
// set means the route was wired without it.
func callerFrom(c echo.Context) (ports.Caller, error) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil || claims.SubjectID == "" {
		return ports.Caller{}, domain.ErrMissingToken
	}
	return ports.Caller{UserID: claims.SubjectID, Roles: claims.Roles}, nil
}

// bindAndValidate binds the request into dst and runs the registered validator.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return invalidPayload()
	}
	return c.Validate(dst)
}
