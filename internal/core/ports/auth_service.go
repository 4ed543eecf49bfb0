package ports

import (
	"context"
	"time"

	"github.com/coursehub/marketplace/internal/core/domain"
)

// RegisterInput carries a self-service sign-up.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Roles    domain.RoleSet
}

// LoginResult is returned to the client after a successful login.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	User        *domain.User
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}
