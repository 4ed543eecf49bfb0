package ports

import (
	"context"

	"github.com/coursehub/marketplace/internal/core/domain"
)

// UserRepository is the credential store.
type UserRepository interface {
	// Create inserts a new user and returns it with its assigned ID.
	// Returns domain.ErrUserExists when the name is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByName(ctx context.Context, name string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// Save replaces the stored record in a single write, so a failed or
	// abandoned request never leaves it half updated.
	Save(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}
