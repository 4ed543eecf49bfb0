package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/coursehub/marketplace/internal/core/domain"
	"github.com/coursehub/marketplace/internal/core/ports"
)

// Hasher abstracts the password hasher (bcrypt).
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenIssuer abstracts access token minting (JWT).
type TokenIssuer interface {
	Issue(subjectID, subjectName, email string, roles domain.RoleSet, ttl time.Duration) (string, error)
}

// selfServiceRoles are the roles a visitor may pick at sign-up. ADMIN is only
// granted by another admin.
var selfServiceRoles = domain.NewRoleSet(domain.RoleTeacher, domain.RoleUser)

// fallbackDecoyDigest is a well-formed cost 10 bcrypt digest used when the
// hasher cannot produce a fresh decoy. No known password matches it.
const fallbackDecoyDigest = "$2a$10$CCCCCCCCCCCCCCCCCCCCC.E5YPO9kmyuRGyh0XouQYb4YMJKvyOeW"

// AuthService implements registration and login.
type AuthService struct {
	repo     ports.UserRepository
	hasher   Hasher
	issuer   TokenIssuer
	tokenTTL time.Duration
	log      zerolog.Logger

	// decoy is verified against when the user does not exist so both failure
	// paths cost one bcrypt comparison.
	decoy string
}

func NewAuthService(repo ports.UserRepository, hasher Hasher, issuer TokenIssuer, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 30 * time.Minute
	}
	decoy, err := hasher.Hash("decoy-password-for-unknown-users")
	if err != nil || decoy == "" {
		log.Warn().Err(err).Msg("could not prepare decoy hash, using the fixed digest")
		decoy = fallbackDecoyDigest
	}
	return &AuthService{
		repo:     repo,
		hasher:   hasher,
		issuer:   issuer,
		tokenTTL: tokenTTL,
		log:      log,
		decoy:    decoy,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name and password are required", domain.ErrInvalidInput)
	}
	roles := in.Roles
	if roles.IsEmpty() {
		roles = domain.NewRoleSet(domain.RoleUser)
	}
	if roles|selfServiceRoles != selfServiceRoles {
		return nil, fmt.Errorf("%w: %s cannot be self-assigned", domain.ErrInvalidRoles, roles)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:         name,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("roles", roles.String()).Msg("user registered")
	return created, nil
}

// Login verifies the credentials and mints a bearer token. An unknown user
// and a wrong password both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByName(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(password, s.decoy)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	issuedAt := time.Now()
	token, err := s.issuer.Issue(user.ID, user.Name, user.Email, user.Roles, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	return &ports.LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   issuedAt.Add(s.tokenTTL),
		User:        user,
	}, nil
}
