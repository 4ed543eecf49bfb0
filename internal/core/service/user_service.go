package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/coursehub/marketplace/internal/core/domain"
	"github.com/coursehub/marketplace/internal/core/ports"
)

// UserService covers account administration. Every mutation loads the record,
// changes it in memory and writes it back with a single Save.
type UserService struct {
	repo   ports.UserRepository
	hasher Hasher
	log    zerolog.Logger
}

func NewUserService(repo ports.UserRepository, hasher Hasher, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, hasher: hasher, log: log}
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// ChangePassword rehashes before touching the store; the old password stops
// verifying as soon as Save returns.
func (s *UserService) ChangePassword(ctx context.Context, caller ports.Caller, id, password string) (*domain.User, error) {
	if !caller.CanActFor(id) {
		return nil, domain.ErrForbidden
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("change password: %w", err)
	}
	s.log.Info().Str("user_id", id).Str("by", caller.UserID).Msg("password changed")
	return user, nil
}

func (s *UserService) ChangeEmail(ctx context.Context, caller ports.Caller, id, email string) (*domain.User, error) {
	if !caller.CanActFor(id) {
		return nil, domain.ErrForbidden
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Email = email
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("change email: %w", err)
	}
	return user, nil
}

// Update replaces name, email and roles. Outstanding tokens keep the roles
// they were issued with until they expire.
func (s *UserService) Update(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if in.Roles.IsEmpty() {
		return nil, fmt.Errorf("%w: at least one role is required", domain.ErrInvalidRoles)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Name = name
	user.Email = strings.TrimSpace(in.Email)
	user.Roles = in.Roles
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.log.Info().Str("user_id", id).Str("roles", in.Roles.String()).Msg("user updated")
	return user, nil
}
