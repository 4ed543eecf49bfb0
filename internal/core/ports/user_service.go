package ports

import (
	"context"

	"github.com/coursehub/marketplace/internal/core/domain"
)

// UpdateUserInput carries an administrative profile update.
type UpdateUserInput struct {
	Name  string
	Email string
	Roles domain.RoleSet
}

type UserService interface {
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	ChangePassword(ctx context.Context, caller Caller, id, password string) (*domain.User, error)
	ChangeEmail(ctx context.Context, caller Caller, id, email string) (*domain.User, error)
	Update(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error)
}
