package domain

import "errors"

// Authentication and authorization.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSignature   = errors.New("invalid token signature")
	ErrTokenExpired       = errors.New("token expired")
	ErrMissingToken       = errors.New("missing bearer token")
	ErrInsufficientRole   = errors.New("insufficient role")
	ErrForbidden          = errors.New("access forbidden")
)

// Users.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrInvalidRoles = errors.New("invalid roles")
)

// Catalogue, payments and enrollments.
var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrEnrollmentNotFound = errors.New("data not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrPaymentInProgress  = errors.New("a payment with this idempotency key is in progress")
	ErrGateway            = errors.New("payment gateway error")
)

var ErrInvalidInput = errors.New("invalid input")
