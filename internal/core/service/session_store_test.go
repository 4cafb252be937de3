package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type storeFixture struct {
	identity *stubIdentity
	profiles *stubProfileRepo
	roles    *stubRoleRepo
	store    *SessionStore
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()
	f := &storeFixture{
		identity: newStubIdentity(),
		profiles: newStubProfileRepo(),
		roles:    newStubRoleRepo(),
	}
	seedPeople(f.profiles, f.roles)
	f.identity.addUser("u-admin", "ana@primar.com.br", "segredo1")
	f.identity.addUser("u-client", "carla@empresa.com.br", "segredo2")
	f.identity.addUser("u-norole", "novo@primar.com.br", "segredo3")
	f.store = NewSessionStore(f.identity, f.profiles, f.roles, discardLogger)
	t.Cleanup(f.store.Close)
	return f
}

// settle emits a refresh event for the current session and waits until the
// store has reloaded for it. Events are applied in order, so every earlier
// event has been applied too.
func (f *storeFixture) settle(t *testing.T, id string) {
	t.Helper()
	st := f.store.Snapshot()
	require.NotNil(t, st.Session)
	marker := time.Now().Add(24 * time.Hour).Round(0)

	reloaded := make(chan struct{}, 1)
	remove := f.store.OnChange(func(st domain.SessionState) {
		if st.Session != nil && st.Session.ExpiresAt.Equal(marker) {
			select {
			case reloaded <- struct{}{}:
			default:
			}
		}
	})
	defer remove()

	f.identity.emit(domain.AuthEvent{
		ID:        id,
		Type:      domain.AuthTokenRefreshed,
		UserID:    st.Session.UserID,
		SessionID: st.Session.ID,
		Session:   &domain.Session{ID: st.Session.ID, UserID: st.Session.UserID, ExpiresAt: marker},
	})
	select {
	case <-reloaded:
	case <-time.After(waitFor):
		t.Fatalf("event %s was not applied", id)
	}
}

func TestSessionStore_StartsLoading(t *testing.T) {
	f := newStoreFixture(t)

	st := f.store.Snapshot()
	assert.True(t, st.Loading)
	assert.Nil(t, st.Session)
	_, ok := f.store.Principal()
	assert.False(t, ok)
}

func TestSessionStore_Initialize(t *testing.T) {
	t.Run("empty token signs out", func(t *testing.T) {
		f := newStoreFixture(t)

		require.NoError(t, f.store.Initialize(context.Background(), ""))
		st := f.store.Snapshot()
		assert.False(t, st.Loading)
		assert.Nil(t, st.Session)
	})

	t.Run("valid token restores session, profile and role", func(t *testing.T) {
		f := newStoreFixture(t)
		sess, err := f.identity.SignIn(context.Background(), "carla@empresa.com.br", "segredo2")
		require.NoError(t, err)

		require.NoError(t, f.store.Initialize(context.Background(), sess.Token))
		st := f.store.Snapshot()
		assert.False(t, st.Loading)
		require.NotNil(t, st.Profile)
		assert.Equal(t, "p-client", st.Profile.ID)
		assert.True(t, f.store.IsClient())
		assert.False(t, f.store.IsAdmin())
	})

	t.Run("revoked token clears state", func(t *testing.T) {
		f := newStoreFixture(t)

		err := f.store.Initialize(context.Background(), "stale")
		assert.ErrorIs(t, err, domain.ErrInvalidSession)
		st := f.store.Snapshot()
		assert.False(t, st.Loading)
		assert.Nil(t, st.Session)
	})
}

func TestSessionStore_SignIn_PopulatesRoleBeforeReturning(t *testing.T) {
	f := newStoreFixture(t)
	f.store.Start(context.Background())

	require.NoError(t, f.store.SignIn(context.Background(), "ana@primar.com.br", "segredo1"))

	assert.True(t, f.store.IsAdmin())
	p, ok := f.store.Principal()
	require.True(t, ok)
	assert.Equal(t, "u-admin", p.UserID)
	assert.Equal(t, "p-admin", p.ProfileID)
	assert.Equal(t, "Ana Admin", p.Name)
}

func TestSessionStore_SignIn_InvalidCredentials(t *testing.T) {
	f := newStoreFixture(t)

	err := f.store.SignIn(context.Background(), "ana@primar.com.br", "errada")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, ok := f.store.Principal()
	assert.False(t, ok)
}

func TestSessionStore_SignIn_WithoutRole(t *testing.T) {
	f := newStoreFixture(t)

	require.NoError(t, f.store.SignIn(context.Background(), "novo@primar.com.br", "segredo3"))
	st := f.store.Snapshot()
	assert.NotNil(t, st.Session)
	assert.Equal(t, domain.RoleNone, st.Role)
	assert.Nil(t, st.Profile)
	assert.False(t, st.Loading)
}

func TestSessionStore_SignIn_ProfileFailureKeepsRole(t *testing.T) {
	f := newStoreFixture(t)
	f.profiles.findErr = errors.New("mongo down")

	require.NoError(t, f.store.SignIn(context.Background(), "ana@primar.com.br", "segredo1"))
	st := f.store.Snapshot()
	assert.Nil(t, st.Profile)
	assert.Equal(t, domain.RoleAdmin, st.Role)
}

func TestSessionStore_SignIn_OwnEventAppliedOnce(t *testing.T) {
	f := newStoreFixture(t)
	f.store.Start(context.Background())

	require.NoError(t, f.store.SignIn(context.Background(), "ana@primar.com.br", "segredo1"))
	require.Equal(t, 1, f.profiles.lookupCount())

	f.settle(t, "ev-sentinel")
	// The signed_in event raised by SignIn itself must not trigger a reload.
	assert.Equal(t, 2, f.profiles.lookupCount())
}

func TestSessionStore_DuplicateEventsAppliedOnce(t *testing.T) {
	f := newStoreFixture(t)
	f.store.Start(context.Background())
	require.NoError(t, f.store.SignIn(context.Background(), "ana@primar.com.br", "segredo1"))
	f.settle(t, "ev-warmup")
	base := f.profiles.lookupCount()

	st := f.store.Snapshot()
	dup := domain.AuthEvent{ID: "ev-dup", Type: domain.AuthTokenRefreshed, UserID: st.Session.UserID, SessionID: st.Session.ID}
	f.identity.emit(dup)
	f.identity.emit(dup)
	f.settle(t, "ev-after")

	assert.Equal(t, base+2, f.profiles.lookupCount())
}

func TestSessionStore_ExternalSignOutClearsState(t *testing.T) {
	f := newStoreFixture(t)
	f.store.Start(context.Background())
	require.NoError(t, f.store.SignIn(context.Background(), "ana@primar.com.br", "segredo1"))
	st := f.store.Snapshot()

	f.identity.emit(domain.AuthEvent{ID: "ev-out", Type: domain.AuthSignedOut, UserID: st.Session.UserID, SessionID: st.Session.ID})

	require.Eventually(t, func() bool {
		_, ok := f.store.Principal()
		return !ok
	}, waitFor, tick)
	assert.False(t, f.store.IsAdmin())
}

func TestSessionStore_IgnoresOtherSessions(t *testing.T) {
	f := newStoreFixture(t)
	f.store.Start(context.Background())
	require.NoError(t, f.store.SignIn(context.Background(), "ana@primar.com.br", "segredo1"))

	f.identity.emit(domain.AuthEvent{ID: "ev-other", Type: domain.AuthSignedOut, UserID: "u-admin", SessionID: "sess-elsewhere"})
	f.settle(t, "ev-after")

	_, ok := f.store.Principal()
	assert.True(t, ok)
}

func TestSessionStore_RoleChangeReachesSessionOnNextEvent(t *testing.T) {
	f := newStoreFixture(t)
	f.store.Start(context.Background())
	require.NoError(t, f.store.SignIn(context.Background(), "ana@primar.com.br", "segredo1"))

	f.roles.set("u-admin", domain.RoleStaff)
	assert.True(t, f.store.IsAdmin(), "role changes are not polled")

	f.settle(t, "ev-refresh")
	assert.True(t, f.store.IsStaff())
}

func TestSessionStore_SignOut(t *testing.T) {
	t.Run("clears state and revokes the token", func(t *testing.T) {
		f := newStoreFixture(t)
		require.NoError(t, f.store.SignIn(context.Background(), "ana@primar.com.br", "segredo1"))
		token := f.store.Snapshot().Session.Token

		require.NoError(t, f.store.SignOut(context.Background()))
		_, ok := f.store.Principal()
		assert.False(t, ok)
		_, err := f.identity.GetSession(context.Background(), token)
		assert.ErrorIs(t, err, domain.ErrInvalidSession)
	})

	t.Run("clears state even when the identity service fails", func(t *testing.T) {
		f := newStoreFixture(t)
		require.NoError(t, f.store.SignIn(context.Background(), "ana@primar.com.br", "segredo1"))
		f.identity.signOutErr = errors.New("identity down")

		err := f.store.SignOut(context.Background())
		assert.Error(t, err)
		_, ok := f.store.Principal()
		assert.False(t, ok)
	})

	t.Run("signed out store is a no-op", func(t *testing.T) {
		f := newStoreFixture(t)
		assert.NoError(t, f.store.SignOut(context.Background()))
	})
}

func TestSessionStore_Refresh(t *testing.T) {
	f := newStoreFixture(t)
	f.store.Start(context.Background())

	_, err := f.store.Refresh(context.Background())
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	require.NoError(t, f.store.SignIn(context.Background(), "ana@primar.com.br", "segredo1"))
	before := f.store.Snapshot().Session

	next, err := f.store.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before.ID, next.ID)
	assert.NotEqual(t, before.Token, next.Token)
	assert.Equal(t, next.Token, f.store.Snapshot().Session.Token)
	assert.True(t, f.store.IsAdmin())
}

func TestSessionStore_OnChange(t *testing.T) {
	f := newStoreFixture(t)

	var (
		mu     sync.Mutex
		states []domain.SessionState
	)
	remove := f.store.OnChange(func(st domain.SessionState) {
		mu.Lock()
		states = append(states, st)
		mu.Unlock()
	})

	require.NoError(t, f.store.SignIn(context.Background(), "ana@primar.com.br", "segredo1"))
	require.NoError(t, f.store.SignOut(context.Background()))
	remove()
	require.NoError(t, f.store.Initialize(context.Background(), ""))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, states, 2)
	assert.Equal(t, domain.RoleAdmin, states[0].Role)
	assert.Nil(t, states[1].Session)
}

func TestSessionStore_CloseUnsubscribes(t *testing.T) {
	f := newStoreFixture(t)
	f.store.Start(context.Background())
	require.Equal(t, 1, f.identity.subscribers())

	f.store.Close()
	f.store.Close()
	assert.Equal(t, 0, f.identity.subscribers())
}

func TestSessionStore_FullQueueDoesNotBlockDispatcher(t *testing.T) {
	f := newStoreFixture(t)
	require.NoError(t, f.store.SignIn(context.Background(), "ana@primar.com.br", "segredo1"))
	// Subscribed but the loop is not running, so nothing drains the queue.
	f.store.mu.Lock()
	f.store.unsubscribe = f.identity.Subscribe(f.store.enqueue)
	f.store.mu.Unlock()

	delivered := make(chan struct{})
	go func() {
		defer close(delivered)
		for i := 0; i < eventQueueSize+4; i++ {
			f.identity.emit(domain.AuthEvent{ID: fmt.Sprintf("ev-%d", i), Type: domain.AuthTokenRefreshed})
		}
	}()

	select {
	case <-delivered:
	case <-time.After(waitFor):
		t.Fatal("publishing blocked on a full session queue")
	}
	assert.Len(t, f.store.events, eventQueueSize)
}

func TestSessionStore_EnqueueAfterCloseIsNoop(t *testing.T) {
	f := newStoreFixture(t)
	f.store.Close()

	f.store.enqueue(domain.AuthEvent{ID: "ev-late"})
	assert.Empty(t, f.store.events)
}

func TestSignUp_Validation(t *testing.T) {
	f := newStoreFixture(t)

	cases := []struct {
		name  string
		input ports.SignUpInput
		field string
	}{
		{"bad email", ports.SignUpInput{Email: "x", Password: "123456", ConfirmPassword: "123456", Name: "X"}, "email"},
		{"missing name", ports.SignUpInput{Email: "x@y.com", Password: "123456", ConfirmPassword: "123456"}, "name"},
		{"short password", ports.SignUpInput{Email: "x@y.com", Password: "123", ConfirmPassword: "123", Name: "X"}, "password"},
		{"mismatch", ports.SignUpInput{Email: "x@y.com", Password: "123456", ConfirmPassword: "654321", Name: "X"}, "confirm_password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.store.SignUp(context.Background(), tc.input)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	require.NoError(t, f.store.SignUp(context.Background(), ports.SignUpInput{
		Email: " Novo@Empresa.com.br ", Password: "123456", ConfirmPassword: "123456", Name: "Novo",
	}))
	_, ok := f.store.Principal()
	assert.False(t, ok, "sign up does not sign in")

	err := f.store.SignUp(context.Background(), ports.SignUpInput{
		Email: "novo@empresa.com.br", Password: "123456", ConfirmPassword: "123456", Name: "Novo",
	})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}
