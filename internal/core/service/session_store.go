package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

const (
	eventQueueSize    = 16
	handledEventsCap  = 256
	eventApplyTimeout = 10 * time.Second
)

var authEventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "primar",
	Name:      "auth_events_dropped_total",
	Help:      "Auth events dropped because a session store queue was full.",
})

// SessionStore holds the current session, profile and role of one actor.
// It is loading until Initialize or SignIn completes.
type SessionStore struct {
	identity ports.IdentityProvider
	profiles ports.ProfileRepository
	roles    ports.RoleRepository
	logger   zerolog.Logger

	mu           sync.Mutex
	state        domain.SessionState
	handled      map[string]struct{}
	handledOrder []string
	listeners    map[int]func(domain.SessionState)
	nextListener int
	// inflight counts SignIn/Refresh calls between the identity call and
	// claiming their event; events arriving meanwhile wait in deferred.
	inflight int
	deferred []domain.AuthEvent

	events      chan domain.AuthEvent
	wake        chan struct{}
	done        chan struct{}
	unsubscribe func()
	startOnce   sync.Once
	closeOnce   sync.Once
	wg          sync.WaitGroup
}

func NewSessionStore(identity ports.IdentityProvider, profiles ports.ProfileRepository, roles ports.RoleRepository, logger zerolog.Logger) *SessionStore {
	return &SessionStore{
		identity:  identity,
		profiles:  profiles,
		roles:     roles,
		logger:    logger,
		state:     domain.SessionState{Loading: true},
		handled:   make(map[string]struct{}),
		listeners: make(map[int]func(domain.SessionState)),
		events:    make(chan domain.AuthEvent, eventQueueSize),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Initialize restores the session behind token, fetching profile and role
// concurrently. An empty token leaves the store signed out.
func (s *SessionStore) Initialize(ctx context.Context, token string) error {
	if token == "" {
		s.setState(domain.SessionState{})
		return nil
	}
	sess, err := s.identity.GetSession(ctx, token)
	if err != nil {
		s.setState(domain.SessionState{})
		return err
	}
	s.mu.Lock()
	s.markHandledLocked(sess.EventID)
	s.state.Session = sess
	s.mu.Unlock()

	s.reload(ctx, sess)
	return nil
}

// Start subscribes to session-change notifications. Events are queued by the
// subscription callback and applied on the store's own goroutine, never inside
// the dispatcher.
func (s *SessionStore) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.mu.Lock()
		s.unsubscribe = s.identity.Subscribe(s.enqueue)
		s.mu.Unlock()
		s.wg.Add(1)
		go s.loop(ctx)
	})
}

// enqueue never blocks the dispatcher. When the queue is full the event is
// dropped; the next GetSession or Refresh resynchronizes the store.
func (s *SessionStore) enqueue(ev domain.AuthEvent) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.events <- ev:
	default:
		authEventsDroppedTotal.Inc()
		s.logger.Warn().Str("event_id", ev.ID).Str("type", string(ev.Type)).Str("session_id", ev.SessionID).Msg("auth event dropped, queue full")
	}
}

func (s *SessionStore) loop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case ev := <-s.events:
			s.apply(ctx, ev)
		case <-s.wake:
			s.mu.Lock()
			pending := s.deferred
			s.deferred = nil
			s.mu.Unlock()
			for _, ev := range pending {
				s.apply(ctx, ev)
			}
		}
	}
}

// apply handles one event at most once. Events for other sessions are ignored.
func (s *SessionStore) apply(ctx context.Context, ev domain.AuthEvent) {
	s.mu.Lock()
	if s.inflight > 0 {
		s.deferred = append(s.deferred, ev)
		s.mu.Unlock()
		return
	}
	if _, seen := s.handled[ev.ID]; seen {
		s.mu.Unlock()
		return
	}
	s.markHandledLocked(ev.ID)
	cur := s.state.Session
	if cur == nil || cur.ID != ev.SessionID {
		s.mu.Unlock()
		return
	}

	switch ev.Type {
	case domain.AuthSignedOut:
		s.state = domain.SessionState{}
		snapshot := s.state
		s.mu.Unlock()
		s.logger.Info().Str("user_id", ev.UserID).Str("session_id", ev.SessionID).Msg("session signed out")
		s.notify(snapshot)
		return
	case domain.AuthSignedIn, domain.AuthTokenRefreshed:
		next := *cur
		if ev.Session != nil {
			next.IssuedAt = ev.Session.IssuedAt
			next.ExpiresAt = ev.Session.ExpiresAt
			if ev.Session.Token != "" {
				next.Token = ev.Session.Token
			}
		}
		s.state.Session = &next
		s.mu.Unlock()

		applyCtx, cancel := context.WithTimeout(ctx, eventApplyTimeout)
		defer cancel()
		s.reload(applyCtx, &next)
	default:
		s.mu.Unlock()
		s.logger.Warn().Str("type", string(ev.Type)).Msg("unknown auth event")
	}
}

// SignIn authenticates and refreshes profile and role before returning, so the
// role is populated as soon as SignIn succeeds.
func (s *SessionStore) SignIn(ctx context.Context, email, password string) error {
	s.beginOp()
	sess, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		s.endOp(nil)
		return err
	}
	s.endOp(func() {
		s.markHandledLocked(sess.EventID)
		s.state.Session = sess
	})

	s.reload(ctx, sess)
	return nil
}

func (s *SessionStore) beginOp() {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
}

// endOp runs claim under the store lock, closes the in-flight window and
// wakes the loop for any deferred events.
func (s *SessionStore) endOp(claim func()) {
	s.mu.Lock()
	if claim != nil {
		claim()
	}
	s.inflight--
	pending := s.inflight == 0 && len(s.deferred) > 0
	s.mu.Unlock()
	if pending {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

// SignUp registers a new identity. It does not sign the user in.
func (s *SessionStore) SignUp(ctx context.Context, input ports.SignUpInput) error {
	return signUp(ctx, s.identity, input)
}

func signUp(ctx context.Context, identity ports.IdentityProvider, input ports.SignUpInput) error {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if !domain.ValidEmail(email) {
		return domain.NewValidationError("email", "invalid email")
	}
	if strings.TrimSpace(input.Name) == "" {
		return domain.NewValidationError("name", "is required")
	}
	if err := domain.ValidatePassword(input.Password, input.ConfirmPassword); err != nil {
		return err
	}
	_, err := identity.SignUp(ctx, email, input.Password, strings.TrimSpace(input.Name))
	return err
}

// SignOut clears the local state even when the identity service fails, and
// returns that failure.
func (s *SessionStore) SignOut(ctx context.Context) error {
	s.mu.Lock()
	sess := s.state.Session
	s.state = domain.SessionState{}
	snapshot := s.state
	s.mu.Unlock()
	s.notify(snapshot)

	if sess == nil {
		return nil
	}
	if err := s.identity.SignOut(ctx, sess.Token); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sess.ID).Msg("remote sign out failed")
		return err
	}
	return nil
}

// Refresh renews the session token and reloads profile and role.
func (s *SessionStore) Refresh(ctx context.Context) (*domain.Session, error) {
	s.mu.Lock()
	cur := s.state.Session
	s.mu.Unlock()
	if cur == nil {
		return nil, domain.ErrUnauthenticated
	}

	s.beginOp()
	next, err := s.identity.Refresh(ctx, cur.Token)
	if err != nil {
		s.endOp(nil)
		return nil, err
	}
	stale := false
	s.endOp(func() {
		s.markHandledLocked(next.EventID)
		if s.state.Session == nil || s.state.Session.ID != cur.ID {
			stale = true
			return
		}
		s.state.Session = next
	})
	if stale {
		return nil, domain.ErrInvalidSession
	}

	s.reload(ctx, next)
	clone := *next
	return &clone, nil
}

// reload fetches profile and role for sess. Fetch failures are logged and fall
// back to no profile and no role.
func (s *SessionStore) reload(ctx context.Context, sess *domain.Session) {
	profile, role := s.fetchProfileAndRole(ctx, sess.UserID)

	s.mu.Lock()
	if s.state.Session == nil || s.state.Session.ID != sess.ID {
		s.mu.Unlock()
		return
	}
	s.state.Profile = profile
	s.state.Role = role
	s.state.Loading = false
	snapshot := s.state
	s.mu.Unlock()

	s.notify(snapshot)
}

func (s *SessionStore) fetchProfileAndRole(ctx context.Context, userID string) (*domain.Profile, domain.Role) {
	var (
		profile *domain.Profile
		role    domain.Role
		g       errgroup.Group
	)
	g.Go(func() error {
		p, err := s.profiles.FindByUserID(ctx, userID)
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("profile fetch failed")
			return nil
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		r, err := s.roles.FindByUserID(ctx, userID)
		if errors.Is(err, domain.ErrRoleNotFound) {
			s.logger.Info().Str("user_id", userID).Msg("user holds no role")
			return nil
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("role fetch failed")
			return nil
		}
		role = r
		return nil
	})
	_ = g.Wait()
	return profile, role
}

func (s *SessionStore) setState(st domain.SessionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.notify(st)
}

func (s *SessionStore) markHandledLocked(id string) {
	if id == "" {
		return
	}
	if _, ok := s.handled[id]; ok {
		return
	}
	s.handled[id] = struct{}{}
	s.handledOrder = append(s.handledOrder, id)
	if len(s.handledOrder) > handledEventsCap {
		delete(s.handled, s.handledOrder[0])
		s.handledOrder = s.handledOrder[1:]
	}
}

// Snapshot returns a copy of the current state.
func (s *SessionStore) Snapshot() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	if st.Session != nil {
		sess := *st.Session
		st.Session = &sess
	}
	if st.Profile != nil {
		p := *st.Profile
		st.Profile = &p
	}
	return st
}

func (s *SessionStore) IsAdmin() bool  { return s.Snapshot().IsAdmin() }
func (s *SessionStore) IsStaff() bool  { return s.Snapshot().IsStaff() }
func (s *SessionStore) IsClient() bool { return s.Snapshot().IsClient() }

// Principal returns the current actor. ok is false when signed out.
func (s *SessionStore) Principal() (domain.Principal, bool) {
	return s.Snapshot().Principal()
}

// OnChange registers fn to be called with every new state. Listeners run
// outside the store lock and must not call back into SignIn or SignOut.
func (s *SessionStore) OnChange(fn func(domain.SessionState)) (remove func()) {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *SessionStore) notify(st domain.SessionState) {
	s.mu.Lock()
	fns := make([]func(domain.SessionState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

// Close unsubscribes and stops the event goroutine.
func (s *SessionStore) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		unsubscribe := s.unsubscribe
		s.mu.Unlock()
		if unsubscribe != nil {
			unsubscribe()
		}
		s.wg.Wait()
	})
}
