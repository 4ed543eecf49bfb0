package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursehub/marketplace/internal/core/auth"
	"github.com/coursehub/marketplace/internal/core/domain"
	"github.com/coursehub/marketplace/internal/core/service"
)

// memUsers is an in-memory credential store.
type memUsers struct {
	mu     sync.Mutex
	users  map[string]domain.User
	nextID int
}

func (m *memUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Name == u.Name {
			return nil, domain.ErrUserExists
		}
	}
	m.nextID++
	c := *u
	c.ID = "u" + strconv.Itoa(m.nextID)
	m.users[c.ID] = c
	return &c, nil
}

func (m *memUsers) FindByName(_ context.Context, name string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Name == name {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUsers) List(_ context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		u := u
		out = append(out, &u)
	}
	return out, nil
}

func (m *memUsers) Save(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

type testServer struct {
	e      *echo.Echo
	cfg    auth.TokenConfig
	users  *memUsers
	hasher *auth.PasswordHasher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg, err := auth.NewTokenConfig("router-secret", "HS256", 30*time.Minute)
	require.NoError(t, err)

	users := &memUsers{users: make(map[string]domain.User)}
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	log := zerolog.Nop()

	e := NewRouter(Dependencies{
		Auth:        service.NewAuthService(users, hasher, auth.NewTokenIssuer(cfg), cfg.DefaultTTL(), log),
		Users:       service.NewUserService(users, hasher, log),
		Tokens:      auth.NewTokenValidator(cfg),
		CORSOrigins: []string{"http://localhost:5173"},
		Log:         log,
		Registry:    prometheus.NewRegistry(),
	})
	return &testServer{e: e, cfg: cfg, users: users, hasher: hasher}
}

func (s *testServer) seed(t *testing.T, name, password string, roles ...domain.Role) *domain.User {
	t.Helper()
	hash, err := s.hasher.Hash(password)
	require.NoError(t, err)
	u, err := s.users.Create(context.Background(), &domain.User{
		Name: name, Email: name + "@example.com", PasswordHash: hash, Roles: domain.NewRoleSet(roles...),
	})
	require.NoError(t, err)
	return u
}

func (s *testServer) do(method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(username, password string) *httptest.ResponseRecorder {
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/user/token", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) token(t *testing.T, username, password string) string {
	t.Helper()
	rec := s.login(username, password)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bearer", resp.TokenType)
	return resp.AccessToken
}

func TestRouter_RoleEnforcement(t *testing.T) {
	s := newTestServer(t)
	alice := s.seed(t, "alice", "wonderland", domain.RoleUser)
	s.seed(t, "root", "toor-toor", domain.RoleAdmin)

	aliceTok := s.token(t, "alice", "wonderland")

	rec := s.do(http.MethodGet, "/user/", aliceTok)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/user/"+alice.ID, aliceTok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hash")

	rec = s.do(http.MethodGet, "/course/", aliceTok)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/payment/update/p1/status?status=completed", aliceTok)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminTok := s.token(t, "root", "toor-toor")
	rec = s.do(http.MethodGet, "/user/", adminTok)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/user/u999", adminTok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_LoginFailuresAreIndistinguishable(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "alice", "wonderland", domain.RoleUser)

	wrongPassword := s.login("alice", "looking-glass")
	unknownUser := s.login("mallory", "wonderland")

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
}

func TestRouter_RejectsBadTokens(t *testing.T) {
	s := newTestServer(t)
	alice := s.seed(t, "alice", "wonderland", domain.RoleUser)

	expired, err := auth.NewTokenIssuer(s.cfg, auth.WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	})).Issue(alice.ID, alice.Name, alice.Email, alice.Roles, time.Minute)
	require.NoError(t, err)

	cases := map[string]string{
		"missing": "",
		"garbage": "not.a.token",
		"expired": expired,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			rec := s.do(http.MethodGet, "/user/"+alice.ID, tok)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
		})
	}
}

func TestRouter_RegisterThenLogin(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/user/create",
		strings.NewReader(`{"name":"bob","email":"bob@example.com","password":"builder","roles":["TEACHER"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	tok := s.token(t, "bob", "builder")
	claims, err := auth.NewTokenValidator(s.cfg).Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.SubjectName)
	assert.True(t, claims.Roles.Has(domain.RoleTeacher))
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health/ready", "").Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/metrics", "").Code)
}
