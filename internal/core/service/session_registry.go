package service

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

var (
	sessionCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "primar",
		Name:      "session_cache_hits_total",
		Help:      "Session lookups served by a live session store.",
	})
	sessionCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "primar",
		Name:      "session_cache_misses_total",
		Help:      "Session lookups that rebuilt the session store from the identity service.",
	})
)

const (
	defaultSessionCacheSize = 1024
	defaultSessionCacheTTL  = 30 * time.Minute
)

// SessionRegistry keeps one SessionStore per live session id. A store evicted
// from the cache is closed and rebuilt from the token on the next request.
type SessionRegistry struct {
	identity ports.IdentityProvider
	profiles ports.ProfileRepository
	roles    ports.RoleRepository
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// rebuildMu serializes cache misses so a session never gets two stores.
	rebuildMu sync.Mutex
	stores    *expirable.LRU[string, *SessionStore]
	closing   sync.WaitGroup
}

func NewSessionRegistry(identity ports.IdentityProvider, profiles ports.ProfileRepository, roles ports.RoleRepository, logger zerolog.Logger, size int, ttl time.Duration) *SessionRegistry {
	if size <= 0 {
		size = defaultSessionCacheSize
	}
	if ttl <= 0 {
		ttl = defaultSessionCacheTTL
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &SessionRegistry{
		identity: identity,
		profiles: profiles,
		roles:    roles,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
	// The LRU calls onEvict under its own lock; closing waits for the store's
	// goroutine, so it happens off that lock.
	r.stores = expirable.NewLRU[string, *SessionStore](size, func(_ string, store *SessionStore) {
		r.closing.Add(1)
		go func() {
			defer r.closing.Done()
			store.Close()
		}()
	}, ttl)
	return r
}

func (r *SessionRegistry) newStore() *SessionStore {
	store := NewSessionStore(r.identity, r.profiles, r.roles, r.logger)
	store.Start(r.ctx)
	return store
}

// SignIn opens a session and caches its store.
func (r *SessionRegistry) SignIn(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	store := r.newStore()
	if err := store.SignIn(ctx, email, password); err != nil {
		store.Close()
		return nil, err
	}
	st := store.Snapshot()
	r.stores.Add(st.Session.ID, store)

	r.logger.Info().Str("user_id", st.Session.UserID).Str("role", string(st.Role)).Msg("signed in")
	return &ports.AuthResult{Token: st.Session.Token, ExpiresAt: st.Session.ExpiresAt, State: st}, nil
}

func (r *SessionRegistry) SignUp(ctx context.Context, input ports.SignUpInput) error {
	return signUp(ctx, r.identity, input)
}

// SignOut ends the session behind token. An already invalid token is not an error.
func (r *SessionRegistry) SignOut(ctx context.Context, token string) error {
	sess, err := r.identity.GetSession(ctx, token)
	if err != nil {
		return nil
	}
	store, ok := r.stores.Peek(sess.ID)
	if !ok {
		return r.identity.SignOut(ctx, token)
	}
	err = store.SignOut(ctx)
	r.stores.Remove(sess.ID)
	return err
}

func (r *SessionRegistry) Refresh(ctx context.Context, token string) (*ports.AuthResult, error) {
	store, err := r.store(ctx, token)
	if err != nil {
		return nil, err
	}
	next, err := store.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	st := store.Snapshot()
	return &ports.AuthResult{Token: next.Token, ExpiresAt: next.ExpiresAt, State: st}, nil
}

// Resolve returns the actor behind token.
func (r *SessionRegistry) Resolve(ctx context.Context, token string) (domain.Principal, error) {
	st, err := r.State(ctx, token)
	if err != nil {
		return domain.Principal{}, err
	}
	p, ok := st.Principal()
	if !ok || p.Role == domain.RoleNone {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	return p, nil
}

// State returns the session state behind token, including sessions whose user
// holds no role.
func (r *SessionRegistry) State(ctx context.Context, token string) (domain.SessionState, error) {
	store, err := r.store(ctx, token)
	if err != nil {
		return domain.SessionState{}, err
	}
	return store.Snapshot(), nil
}

func (r *SessionRegistry) store(ctx context.Context, token string) (*SessionStore, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	sess, err := r.identity.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}

	if store, ok := r.stores.Get(sess.ID); ok {
		sessionCacheHitsTotal.Inc()
		if store.Snapshot().Session == nil {
			r.stores.Remove(sess.ID)
			return nil, domain.ErrInvalidSession
		}
		return store, nil
	}

	r.rebuildMu.Lock()
	defer r.rebuildMu.Unlock()
	if store, ok := r.stores.Get(sess.ID); ok {
		sessionCacheHitsTotal.Inc()
		return store, nil
	}
	sessionCacheMissesTotal.Inc()

	store := r.newStore()
	if err := store.Initialize(ctx, token); err != nil {
		store.Close()
		return nil, err
	}
	r.stores.Add(sess.ID, store)
	r.logger.Debug().Str("session_id", sess.ID).Msg("session store rebuilt")
	return store, nil
}

// Len returns the number of cached session stores.
func (r *SessionRegistry) Len() int {
	return r.stores.Len()
}

// Close closes every cached store.
func (r *SessionRegistry) Close() {
	r.cancel()
	r.stores.Purge()
	r.closing.Wait()
}
