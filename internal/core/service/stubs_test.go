package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/coursehub/marketplace/internal/core/domain"
	"github.com/coursehub/marketplace/internal/core/ports"
)

// plainHasher marks digests with a prefix so tests skip bcrypt cost. It counts
// Verify calls to check that both login failure paths do the same work.
type plainHasher struct {
	mu       sync.Mutex
	verifies int
	digests  []string
	hashErr  error
}

func (h *plainHasher) Hash(p string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + p, nil
}

func (h *plainHasher) Verify(p, digest string) bool {
	h.mu.Lock()
	h.verifies++
	h.digests = append(h.digests, digest)
	h.mu.Unlock()
	return digest == "hashed:"+p
}

func (h *plainHasher) lastDigest() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.digests) == 0 {
		return ""
	}
	return h.digests[len(h.digests)-1]
}

func (h *plainHasher) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

type stubIssuer struct {
	lastTTL time.Duration
	err     error
}

func (i *stubIssuer) Issue(id, name, _ string, roles domain.RoleSet, ttl time.Duration) (string, error) {
	if i.err != nil {
		return "", i.err
	}
	i.lastTTL = ttl
	return "token-" + id + "-" + name + "-" + roles.String(), nil
}

type stubUserRepo struct {
	users  map[string]*domain.User
	nextID int
	saves  int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	for _, existing := range r.users {
		if existing.Name == u.Name {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	c := cloneUser(u)
	c.ID = "u" + strconv.Itoa(r.nextID)
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) FindByName(_ context.Context, name string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Name == name {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *stubUserRepo) Save(_ context.Context, u *domain.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.saves++
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type stubCourseRepo struct {
	courses map[string]*domain.Course
	nextID  int
}

func newStubCourseRepo(seed ...*domain.Course) *stubCourseRepo {
	r := &stubCourseRepo{courses: make(map[string]*domain.Course)}
	for _, c := range seed {
		r.courses[c.ID] = c
	}
	return r
}

func (r *stubCourseRepo) Create(_ context.Context, c *domain.Course) (*domain.Course, error) {
	r.nextID++
	cp := *c
	cp.ID = "c" + strconv.Itoa(r.nextID)
	r.courses[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *stubCourseRepo) FindByID(_ context.Context, id string) (*domain.Course, error) {
	c, ok := r.courses[id]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCourseRepo) FindByIDs(ctx context.Context, ids []string) ([]*domain.Course, error) {
	out := make([]*domain.Course, 0, len(ids))
	for _, id := range ids {
		if c, err := r.FindByID(ctx, id); err == nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *stubCourseRepo) List(_ context.Context) ([]*domain.Course, error) {
	out := make([]*domain.Course, 0, len(r.courses))
	for _, c := range r.courses {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *stubCourseRepo) Save(_ context.Context, c *domain.Course) error {
	if _, ok := r.courses[c.ID]; !ok {
		return domain.ErrCourseNotFound
	}
	cp := *c
	r.courses[c.ID] = &cp
	return nil
}

func (r *stubCourseRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.courses[id]; !ok {
		return domain.ErrCourseNotFound
	}
	delete(r.courses, id)
	return nil
}

func (r *stubCourseRepo) Sample(ctx context.Context, n int) ([]*domain.Course, error) {
	all, _ := r.List(ctx)
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

type stubPaymentRepo struct {
	payments map[string]*domain.Payment
	nextID   int
	// createErr fails the next Create.
	createErr error
}

func newStubPaymentRepo() *stubPaymentRepo {
	return &stubPaymentRepo{payments: make(map[string]*domain.Payment)}
}

func (r *stubPaymentRepo) Create(_ context.Context, p *domain.Payment) (*domain.Payment, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	cp := *p
	cp.ID = "p" + strconv.Itoa(r.nextID)
	r.payments[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *stubPaymentRepo) FindByID(_ context.Context, id string) (*domain.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubPaymentRepo) UpdateStatus(_ context.Context, id string, from, to domain.PaymentStatus, at time.Time) (*domain.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	if p.Status != from {
		return nil, domain.ErrInvalidTransition
	}
	p.Status = to
	p.UpdatedAt = at
	cp := *p
	return &cp, nil
}

type stubGateway struct {
	createErr    error
	chargeStatus domain.PaymentStatus
	status       domain.PaymentStatus
	requests     []ports.ChargeRequest
	// onCreate runs before Create answers, while the caller is still in flight.
	onCreate func()
}

func (g *stubGateway) Create(_ context.Context, req ports.ChargeRequest) (*ports.GatewayIntent, error) {
	if g.onCreate != nil {
		hook := g.onCreate
		g.onCreate = nil
		hook()
	}
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.requests = append(g.requests, req)
	ref := "pi_" + strconv.Itoa(len(g.requests))
	return &ports.GatewayIntent{Ref: ref, ClientSecret: ref + "_secret", Status: domain.PaymentPending}, nil
}

func (g *stubGateway) Charge(_ context.Context, ref, _ string) (*ports.GatewayIntent, error) {
	return &ports.GatewayIntent{Ref: ref, Status: g.chargeStatus}, nil
}

func (g *stubGateway) Status(_ context.Context, _ string) (domain.PaymentStatus, error) {
	return g.status, nil
}

// stubIdempotency mirrors the Redis store: a reserved key maps to "" until
// Complete stores the payment id.
type stubIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
	err  error
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]string)}
}

func (s *stubIdempotency) Reserve(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", false, s.err
	}
	if id, ok := s.keys[key]; ok {
		return id, false, nil
	}
	s.keys[key] = ""
	return "", true, nil
}

func (s *stubIdempotency) Complete(_ context.Context, key, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = id
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

func (s *stubIdempotency) held(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok
}

type stubQueue struct {
	grants []ports.EnrollmentGrant
}

func (q *stubQueue) Enqueue(g ports.EnrollmentGrant) { q.grants = append(q.grants, g) }

type stubEnrollmentRepo struct {
	items []*domain.Enrollment
}

func (r *stubEnrollmentRepo) Grant(_ context.Context, e *domain.Enrollment) (bool, error) {
	for _, existing := range r.items {
		if existing.UserID == e.UserID && existing.CourseID == e.CourseID {
			return false, nil
		}
	}
	cp := *e
	r.items = append(r.items, &cp)
	return true, nil
}

func (r *stubEnrollmentRepo) ListByUser(_ context.Context, userID string) ([]*domain.Enrollment, error) {
	var out []*domain.Enrollment
	for _, e := range r.items {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubEnrollmentRepo) ListAll(_ context.Context) ([]*domain.Enrollment, error) {
	return r.items, nil
}

func (r *stubEnrollmentRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	out, _ := r.ListByUser(ctx, userID)
	return int64(len(out)), nil
}

func userCaller(id string) ports.Caller {
	return ports.Caller{UserID: id, Roles: domain.NewRoleSet(domain.RoleUser)}
}

func teacherCaller(id string) ports.Caller {
	return ports.Caller{UserID: id, Roles: domain.NewRoleSet(domain.RoleTeacher)}
}

func adminCaller(id string) ports.Caller {
	return ports.Caller{UserID: id, Roles: domain.NewRoleSet(domain.RoleAdmin)}
}
