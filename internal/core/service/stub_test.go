package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory identity service
// ---------------------------------------------------------------------------

type stubIdentity struct {
	mu        sync.Mutex
	users     map[string]*domain.User // by email
	passwords map[string]string       // by email
	sessions  map[string]*domain.Session
	handlers  map[int]ports.AuthEventHandler
	nextID    int
	seq       int

	createErr  error
	deleteErr  error
	signOutErr error
	deleted    []string
}

func newStubIdentity() *stubIdentity {
	return &stubIdentity{
		users:     make(map[string]*domain.User),
		passwords: make(map[string]string),
		sessions:  make(map[string]*domain.Session),
		handlers:  make(map[int]ports.AuthEventHandler),
	}
}

// addUser registers an account directly, bypassing SignUp.
func (s *stubIdentity) addUser(id, email, password string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &domain.User{ID: id, Email: email, Name: email}
	s.users[email] = u
	s.passwords[email] = password
	return u
}

func (s *stubIdentity) next(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *stubIdentity) SignIn(_ context.Context, email, password string) (*domain.Session, error) {
	s.mu.Lock()
	u, ok := s.users[email]
	if !ok || s.passwords[email] != password {
		s.mu.Unlock()
		return nil, domain.ErrInvalidCredentials
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		ID:        s.next("sess"),
		UserID:    u.ID,
		Email:     email,
		Token:     s.next("tok"),
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
		EventID:   s.next("ev"),
	}
	stored := *sess
	s.sessions[sess.Token] = &stored
	s.mu.Unlock()

	s.emit(domain.AuthEvent{ID: sess.EventID, Type: domain.AuthSignedIn, UserID: u.ID, SessionID: sess.ID, Session: withoutToken(sess), At: now})
	return sess, nil
}

func (s *stubIdentity) SignUp(ctx context.Context, email, password, name string) (*domain.User, error) {
	return s.CreateAccount(ctx, email, password, name)
}

func (s *stubIdentity) CreateAccount(_ context.Context, email, password, name string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	if _, ok := s.users[email]; ok {
		return nil, domain.ErrEmailTaken
	}
	u := &domain.User{ID: s.next("user"), Email: email, Name: name}
	s.users[email] = u
	s.passwords[email] = password
	return u, nil
}

func (s *stubIdentity) DeleteAccount(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for email, u := range s.users {
		if u.ID == userID {
			delete(s.users, email)
			delete(s.passwords, email)
		}
	}
	s.deleted = append(s.deleted, userID)
	return nil
}

func (s *stubIdentity) SignOut(_ context.Context, token string) error {
	s.mu.Lock()
	if s.signOutErr != nil {
		s.mu.Unlock()
		return s.signOutErr
	}
	sess, ok := s.sessions[token]
	delete(s.sessions, token)
	id := s.next("ev")
	s.mu.Unlock()

	if ok {
		s.emit(domain.AuthEvent{ID: id, Type: domain.AuthSignedOut, UserID: sess.UserID, SessionID: sess.ID, At: time.Now().UTC()})
	}
	return nil
}

func (s *stubIdentity) GetSession(_ context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, domain.ErrInvalidSession
	}
	clone := *sess
	return &clone, nil
}

func (s *stubIdentity) Refresh(_ context.Context, token string) (*domain.Session, error) {
	s.mu.Lock()
	cur, ok := s.sessions[token]
	if !ok {
		s.mu.Unlock()
		return nil, domain.ErrInvalidSession
	}
	delete(s.sessions, token)
	now := time.Now().UTC()
	next := *cur
	next.Token = s.next("tok")
	next.IssuedAt = now
	next.ExpiresAt = now.Add(time.Hour)
	next.EventID = s.next("ev")
	stored := next
	s.sessions[next.Token] = &stored
	s.mu.Unlock()

	s.emit(domain.AuthEvent{ID: next.EventID, Type: domain.AuthTokenRefreshed, UserID: next.UserID, SessionID: next.ID, Session: withoutToken(&next), At: now})
	return &next, nil
}

func (s *stubIdentity) Subscribe(handler ports.AuthEventHandler) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = handler
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	}
}

// emit delivers ev synchronously to every subscriber, like the real bus does.
func (s *stubIdentity) emit(ev domain.AuthEvent) {
	s.mu.Lock()
	hs := make([]ports.AuthEventHandler, 0, len(s.handlers))
	for _, h := range s.handlers {
		hs = append(hs, h)
	}
	s.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
}

func (s *stubIdentity) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

func withoutToken(sess *domain.Session) *domain.Session {
	clone := *sess
	clone.Token = ""
	return &clone
}

// ---------------------------------------------------------------------------
// In-memory profile repository
// ---------------------------------------------------------------------------

type stubProfileRepo struct {
	mu       sync.Mutex
	byID     map[string]*domain.Profile
	findErr  error // returned by FindByUserID when set
	writeErr error // returned by Create and Update when set
	lookups  int   // FindByUserID calls
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{byID: make(map[string]*domain.Profile)}
}

func (r *stubProfileRepo) put(p *domain.Profile) *domain.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.byID[p.ID] = &clone
	return p
}

func (r *stubProfileRepo) get(id string) *domain.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil
	}
	clone := *p
	return &clone
}

func (r *stubProfileRepo) lookupCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups
}

func (r *stubProfileRepo) Create(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return r.writeErr
	}
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *stubProfileRepo) FindByID(_ context.Context, id string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubProfileRepo) FindByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, p := range r.byID {
		if p.UserID == userID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, domain.ErrProfileNotFound
}

// List applies the same filters and ordering the real Mongo repo uses.
func (r *stubProfileRepo) List(_ context.Context, f ports.ProfileFilter) ([]*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var wanted map[string]bool
	if len(f.UserIDs) > 0 {
		wanted = make(map[string]bool, len(f.UserIDs))
		for _, id := range f.UserIDs {
			wanted[id] = true
		}
	}
	out := make([]*domain.Profile, 0, len(r.byID))
	for _, p := range r.byID {
		if f.Ativo != nil && p.Ativo != *f.Ativo {
			continue
		}
		if wanted != nil && !wanted[p.UserID] {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nome < out[j].Nome })
	return out, nil
}

func (r *stubProfileRepo) Update(_ context.Context, id string, patch domain.ProfilePatch, updatedAt time.Time) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return nil, r.writeErr
	}
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	patch.Apply(p)
	p.UpdatedAt = updatedAt
	clone := *p
	return &clone, nil
}

func (r *stubProfileRepo) DeleteByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.byID {
		if p.UserID == userID {
			delete(r.byID, id)
			return nil
		}
	}
	return domain.ErrProfileNotFound
}

// ---------------------------------------------------------------------------
// In-memory role repository
// ---------------------------------------------------------------------------

type stubRoleRepo struct {
	mu         sync.Mutex
	byUser     map[string]domain.Role
	findErr    error
	assignErrs []error // consumed one per Assign call
	assigns    int
}

func newStubRoleRepo() *stubRoleRepo {
	return &stubRoleRepo{byUser: make(map[string]domain.Role)}
}

func (r *stubRoleRepo) set(userID string, role domain.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[userID] = role
}

func (r *stubRoleRepo) get(userID string) (domain.Role, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.byUser[userID]
	return role, ok
}

func (r *stubRoleRepo) FindByUserID(_ context.Context, userID string) (domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return domain.RoleNone, r.findErr
	}
	role, ok := r.byUser[userID]
	if !ok {
		return domain.RoleNone, domain.ErrRoleNotFound
	}
	return role, nil
}

func (r *stubRoleRepo) ListByRole(_ context.Context, roles ...domain.Role) (map[string]domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]domain.Role)
	for userID, role := range r.byUser {
		for _, want := range roles {
			if role == want {
				out[userID] = role
			}
		}
	}
	return out, nil
}

func (r *stubRoleRepo) Assign(_ context.Context, userID string, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assigns++
	if len(r.assignErrs) > 0 {
		err := r.assignErrs[0]
		r.assignErrs = r.assignErrs[1:]
		if err != nil {
			return err
		}
	}
	r.byUser[userID] = role
	return nil
}

func (r *stubRoleRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byUser, userID)
	return nil
}

// ---------------------------------------------------------------------------
// In-memory task repository
// ---------------------------------------------------------------------------

type stubTaskRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Task
	createErr error
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{byID: make(map[string]*domain.Task)}
}

func (r *stubTaskRepo) put(t *domain.Task) *domain.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *t
	r.byID[t.ID] = &clone
	return t
}

func (r *stubTaskRepo) get(id string) *domain.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return nil
	}
	clone := *t
	return &clone
}

func (r *stubTaskRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *stubTaskRepo) Create(_ context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	clone := *t
	r.byID[t.ID] = &clone
	return nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	clone := *t
	return &clone, nil
}

// List applies the same filters and ordering the real Mongo repo uses.
func (r *stubTaskRepo) List(_ context.Context, f ports.TaskFilter) ([]*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Task, 0, len(r.byID))
	for _, t := range r.byID {
		if f.ClientID != "" && t.ClientID != f.ClientID {
			continue
		}
		if f.AssignedTo != "" && t.AssignedTo != f.AssignedTo {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubTaskRepo) Update(_ context.Context, id string, patch domain.TaskPatch, updatedAt time.Time) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	patch.Apply(t)
	t.UpdatedAt = updatedAt
	clone := *t
	return &clone, nil
}

func (r *stubTaskRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.byID, id)
	return nil
}

// ---------------------------------------------------------------------------
// Recurrence stubs
// ---------------------------------------------------------------------------

type stubScheduler struct {
	mu        sync.Mutex
	scheduled []*domain.Task
	err       error
}

func (s *stubScheduler) Schedule(task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	clone := *task
	s.scheduled = append(s.scheduled, &clone)
	return nil
}

type stubGuard struct {
	mu      sync.Mutex
	claimed map[string]bool
	err     error
}

func newStubGuard() *stubGuard {
	return &stubGuard{claimed: make(map[string]bool)}
}

func (g *stubGuard) Claim(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	if g.claimed[key] {
		return false, nil
	}
	g.claimed[key] = true
	return true, nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var (
	adminActor  = domain.Principal{UserID: "u-admin", ProfileID: "p-admin", Role: domain.RoleAdmin}
	staffActor  = domain.Principal{UserID: "u-staff", ProfileID: "p-staff", Role: domain.RoleStaff}
	clientActor = domain.Principal{UserID: "u-client", ProfileID: "p-client", Role: domain.RoleClient}
)

// seedPeople stores one active admin, staff member and client, plus an
// inactive client, with matching roles.
func seedPeople(profiles *stubProfileRepo, roles *stubRoleRepo) {
	people := []struct {
		profile domain.Profile
		role    domain.Role
	}{
		{domain.Profile{ID: "p-admin", UserID: "u-admin", Nome: "Ana Admin", Email: "ana@primar.com.br", Ativo: true}, domain.RoleAdmin},
		{domain.Profile{ID: "p-staff", UserID: "u-staff", Nome: "Bruno Staff", Email: "bruno@primar.com.br", Ativo: true}, domain.RoleStaff},
		{domain.Profile{ID: "p-client", UserID: "u-client", Nome: "Carla Cliente", Email: "carla@empresa.com.br", CNPJ: "11.222.333/0001-81", Ativo: true}, domain.RoleClient},
		{domain.Profile{ID: "p-old", UserID: "u-old", Nome: "Dario Antigo", Email: "dario@antiga.com.br", Ativo: false}, domain.RoleClient},
	}
	for _, p := range people {
		profile := p.profile
		profiles.put(&profile)
		roles.set(profile.UserID, p.role)
	}
}
