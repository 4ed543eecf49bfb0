package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/marketplace/internal/core/domain"
	"github.com/coursehub/marketplace/internal/core/ports"
)

type CourseHandler struct {
	service ports.CourseService
}

func NewCourseHandler(service ports.CourseService) *CourseHandler {
	return &CourseHandler{service: service}
}

// courseRequest takes dates as YYYY-MM-DD or RFC 3339.
type courseRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	TeacherID   string  `json:"teacher_id"`
	VideoURL    string  `json:"video_url" validate:"omitempty,url"`
}

func (r courseRequest) toInput() (ports.CourseInput, error) {
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return ports.CourseInput{}, err
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return ports.CourseInput{}, err
	}
	return ports.CourseInput{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		StartDate:   start,
		EndDate:     end,
		TeacherID:   r.TeacherID,
		VideoURL:    r.VideoURL,
	}, nil
}

func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD or RFC 3339", domain.ErrInvalidInput, field)
	}
	return t.UTC(), nil
}

// List handles GET /course/.
//
// @Summary      List courses
// @Tags         course
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Course
// @Failure      403  {object}  map[string]string
// @Router       /course/ [get]
func (h *CourseHandler) List(c echo.Context) error {
	courses, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, courses)
}

// Get handles GET /course/:id.
//
// @Summary      Get a course
// @Tags         course
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Course id"
// @Success      200  {object}  domain.Course
// @Failure      404  {object}  map[string]string
// @Router       /course/{id} [get]
func (h *CourseHandler) Get(c echo.Context) error {
	course, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}

// Create handles POST /course/create.
//
// @Summary      Create a course
// @Tags         course
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      courseRequest  true  "Course"
// @Success      201   {object}  domain.Course
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /course/create [post]
func (h *CourseHandler) Create(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req courseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := req.toInput()
	if err != nil {
		return err
	}

	course, err := h.service.Create(c.Request().Context(), caller, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, course)
}

// Update handles PATCH /course/update/:id.
//
// @Summary      Update a course
// @Tags         course
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Course id"
// @Param        body  body      courseRequest  true  "Course"
// @Success      200   {object}  domain.Course
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /course/update/{id} [patch]
func (h *CourseHandler) Update(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req courseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := req.toInput()
	if err != nil {
		return err
	}

	course, err := h.service.Update(c.Request().Context(), caller, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}

// Delete handles DELETE /course/delete/:id.
//
// @Summary      Delete a course
// @Tags         course
// @Security     BearerAuth
// @Param        id   path  string  true  "Course id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /course/delete/{id} [delete]
func (h *CourseHandler) Delete(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// MyCourses handles GET /course/my-courses/:user_id.
//
// @Summary      Courses a user is enrolled in
// @Tags         course
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path      string  true  "User id"
// @Success      200      {array}   domain.Course
// @Failure      403      {object}  map[string]string
// @Router       /course/my-courses/{user_id} [get]
func (h *CourseHandler) MyCourses(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	courses, err := h.service.UserCourses(c.Request().Context(), caller, c.Param("user_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, courses)
}

// Random handles GET /course/random-courses/.
//
// @Summary      Random course suggestions
// @Tags         course
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "How many courses (default 2)"
// @Success      200    {array}   domain.Course
// @Router       /course/random-courses/ [get]
func (h *CourseHandler) Random(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 50 {
			return fmt.Errorf("%w: limit must be between 0 and 50", domain.ErrInvalidInput)
		}
		limit = n
	}

	courses, err := h.service.Random(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, courses)
}
