package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/coursehub/marketplace/internal/core/domain"
)

// DefaultTokenTTL is the lifetime of tokens minted at login.
const DefaultTokenTTL = 30 * time.Minute

var supportedMethods = map[string]*jwt.SigningMethodHMAC{
	jwt.SigningMethodHS256.Alg(): jwt.SigningMethodHS256,
	jwt.SigningMethodHS384.Alg(): jwt.SigningMethodHS384,
	jwt.SigningMethodHS512.Alg(): jwt.SigningMethodHS512,
}

// TokenConfig is the immutable signing configuration shared by the issuer and
// the validator. Build it once at startup with NewTokenConfig.
type TokenConfig struct {
	secret     []byte
	method     *jwt.SigningMethodHMAC
	defaultTTL time.Duration
}

// NewTokenConfig validates the secret and algorithm (HS256, HS384 or HS512).
// A non-positive defaultTTL falls back to DefaultTokenTTL.
func NewTokenConfig(secret, algorithm string, defaultTTL time.Duration) (TokenConfig, error) {
	if secret == "" {
		return TokenConfig{}, fmt.Errorf("%w: empty signing secret", domain.ErrInvalidInput)
	}
	method, ok := supportedMethods[strings.ToUpper(strings.TrimSpace(algorithm))]
	if !ok {
		return TokenConfig{}, fmt.Errorf("%w: unsupported signing algorithm %q", domain.ErrInvalidInput, algorithm)
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTokenTTL
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return TokenConfig{secret: key, method: method, defaultTTL: defaultTTL}, nil
}

func (c TokenConfig) Algorithm() string        { return c.method.Alg() }
func (c TokenConfig) DefaultTTL() time.Duration { return c.defaultTTL }

// Claims is the identity carried by a validated token. Roles reflect the user
// at issuance time; nothing re-reads the store until the next login.
type Claims struct {
	SubjectID   string
	SubjectName string
	Email       string
	Roles       domain.RoleSet
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// wireClaims is the JSON layout inside the token:
// {"sub": name, "id": id, "roles": [...], "email": ..., "iat": ..., "exp": ...}.
type wireClaims struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles"`
	Email string   `json:"email"`
	jwt.RegisteredClaims
}

type options struct {
	now func() time.Time
}

// Option customises an issuer or validator.
type Option func(*options)

// WithClock replaces time.Now; used by tests to move across expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// TokenIssuer mints signed access tokens.
type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenIssuer(cfg TokenConfig, opts ...Option) *TokenIssuer {
	o := buildOptions(opts)
	return &TokenIssuer{cfg: cfg, now: o.now}
}

// Issue signs a token for the subject that expires ttl from now.
func (i *TokenIssuer) Issue(subjectID, subjectName, email string, roles domain.RoleSet, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("%w: token ttl must be positive", domain.ErrInvalidInput)
	}
	now := i.now()
	claims := wireClaims{
		ID:    subjectID,
		Roles: roles.Strings(),
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(i.cfg.method, claims).SignedString(i.cfg.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// TokenValidator checks signature and expiry of access tokens.
type TokenValidator struct {
	cfg    TokenConfig
	parser *jwt.Parser
}

func NewTokenValidator(cfg TokenConfig, opts ...Option) *TokenValidator {
	o := buildOptions(opts)
	return &TokenValidator{
		cfg: cfg,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{cfg.method.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(o.now),
		),
	}
}

// Validate returns the claims of a well-signed, unexpired token. Any failure
// other than expiry (bad signature, wrong algorithm, garbage) is reported as
// domain.ErrInvalidSignature.
func (v *TokenValidator) Validate(token string) (*Claims, error) {
	var wc wireClaims
	_, err := v.parser.ParseWithClaims(token, &wc, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != v.cfg.method.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return v.cfg.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	roles, err := domain.ParseRoleSet(wc.Roles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	claims := &Claims{
		SubjectID:   wc.ID,
		SubjectName: wc.Subject,
		Email:       wc.Email,
		Roles:       roles,
	}
	if wc.IssuedAt != nil {
		claims.IssuedAt = wc.IssuedAt.Time
	}
	if wc.ExpiresAt != nil {
		claims.ExpiresAt = wc.ExpiresAt.Time
	}
	return claims, nil
}
