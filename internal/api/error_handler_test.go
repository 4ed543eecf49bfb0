package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/coursehub/marketplace/internal/core/domain"
)

func TestHTTPErrorHandler_Mapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrMissingToken, http.StatusUnauthorized},
		{domain.ErrTokenExpired, http.StatusUnauthorized},
		{fmt.Errorf("%w: bad", domain.ErrInvalidSignature), http.StatusUnauthorized},
		{domain.ErrInsufficientRole, http.StatusForbidden},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrCourseNotFound, http.StatusNotFound},
		{domain.ErrPaymentNotFound, http.StatusNotFound},
		{domain.ErrEnrollmentNotFound, http.StatusNotFound},
		{domain.ErrUserExists, http.StatusConflict},
		{domain.ErrPaymentInProgress, http.StatusConflict},
		{fmt.Errorf("%w (from completed to failed)", domain.ErrInvalidTransition), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: title is required", domain.ErrInvalidInput), http.StatusBadRequest},
		{domain.ErrInvalidRoles, http.StatusBadRequest},
		{fmt.Errorf("%w: timeout", domain.ErrGateway), http.StatusBadGateway},
		{echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	handler := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		handler(tc.err, c)

		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		var body errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
			t.Fatalf("%v: expected error envelope, got %s", tc.err, rec.Body.String())
		}
		if tc.code == http.StatusUnauthorized && rec.Header().Get(echo.HeaderWWWAuthenticate) != "Bearer" {
			t.Fatalf("%v: missing WWW-Authenticate header", tc.err)
		}
		if tc.code == http.StatusInternalServerError && body.Error != "internal server error" {
			t.Fatalf("internal error leaked: %q", body.Error)
		}
	}
}
