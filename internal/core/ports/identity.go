package ports

import (
	"context"

	"github.com/primar/console/internal/core/domain"
)

// AuthEventHandler receives session-change notifications. Handlers must not
// block; the store queues events and applies them on its own goroutine.
type AuthEventHandler func(domain.AuthEvent)

// IdentityProvider is the identity service: credentials, sessions and
// session-change notifications.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	// SignUp registers a new identity. It does not start a session.
	SignUp(ctx context.Context, email, password, name string) (*domain.User, error)
	SignOut(ctx context.Context, token string) error
	GetSession(ctx context.Context, token string) (*domain.Session, error)
	Refresh(ctx context.Context, token string) (*domain.Session, error)
	// Subscribe registers handler and returns a function that removes it.
	Subscribe(handler AuthEventHandler) (unsubscribe func())

	// CreateAccount provisions an account on behalf of an admin.
	CreateAccount(ctx context.Context, email, password, name string) (*domain.User, error)
	// DeleteAccount removes an account. Used to compensate failed provisioning.
	DeleteAccount(ctx context.Context, userID string) error
}
