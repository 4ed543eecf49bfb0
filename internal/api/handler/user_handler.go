package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/marketplace/internal/core/domain"
	"github.com/coursehub/marketplace/internal/core/ports"
)

type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type changePasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

type changeEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type updateUserRequest struct {
	Name  string   `json:"name" validate:"required"`
	Email string   `json:"email" validate:"omitempty,email"`
	Roles []string `json:"roles" validate:"required,min=1"`
}

// List handles GET /user/.
//
// @Summary      List users
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /user/ [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Get handles GET /user/:id.
//
// @Summary      Get a user
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  map[string]string
// @Router       /user/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /user/delete/:id.
//
// @Summary      Delete a user
// @Tags         user
// @Security     BearerAuth
// @Param        id   path  string  true  "User id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /user/delete/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangePassword handles PATCH /user/change-password/:id.
//
// @Summary      Change a password
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "User id"
// @Param        body  body      changePasswordRequest  true  "New password"
// @Success      200   {object}  domain.User
// @Failure      403   {object}  map[string]string
// @Router       /user/change-password/{id} [patch]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.ChangePassword(c.Request().Context(), caller, c.Param("id"), req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ChangeEmail handles PATCH /user/change-email/:id.
//
// @Summary      Change an email address
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "User id"
// @Param        body  body      changeEmailRequest  true  "New email"
// @Success      200   {object}  domain.User
// @Failure      403   {object}  map[string]string
// @Router       /user/change-email/{id} [patch]
func (h *UserHandler) ChangeEmail(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req changeEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.ChangeEmail(c.Request().Context(), caller, c.Param("id"), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Update handles PATCH /user/update/:id.
//
// @Summary      Update name, email and roles
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "Profile"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Router       /user/update/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	roles, err := domain.ParseRoleSet(req.Roles)
	if err != nil {
		return err
	}

	user, err := h.service.Update(c.Request().Context(), c.Param("id"), ports.UpdateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Roles: roles,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
