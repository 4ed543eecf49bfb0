package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/marketplace/internal/core/ports"
)

type EnrollmentHandler struct {
	service ports.EnrollmentService
}

func NewEnrollmentHandler(service ports.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

type enrollmentCountResponse struct {
	UserID string `json:"user_id"`
	Count  int64  `json:"count"`
}

// List handles GET /userCourse/.
//
// @Summary      List enrollments
// @Description  Admins see every enrollment, everyone else their own.
// @Tags         userCourse
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Enrollment
// @Router       /userCourse/ [get]
func (h *EnrollmentHandler) List(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	items, err := h.service.List(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// ListByUser handles GET /userCourse/:user_id.
//
// @Summary      Enrollments of one user
// @Tags         userCourse
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path      string  true  "User id"
// @Success      200      {array}   domain.Enrollment
// @Failure      403      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /userCourse/{user_id} [get]
func (h *EnrollmentHandler) ListByUser(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	items, err := h.service.ListByUser(c.Request().Context(), caller, c.Param("user_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Count handles GET /userCourse/my-courses/:user_id.
//
// @Summary      Count a user's enrollments
// @Tags         userCourse
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path      string  true  "User id"
// @Success      200      {object}  enrollmentCountResponse
// @Failure      403      {object}  map[string]string
// @Router       /userCourse/my-courses/{user_id} [get]
func (h *EnrollmentHandler) Count(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	userID := c.Param("user_id")
	n, err := h.service.CountByUser(c.Request().Context(), caller, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, enrollmentCountResponse{UserID: userID, Count: n})
}
