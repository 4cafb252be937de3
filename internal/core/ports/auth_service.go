package ports

import (
	"context"
	"time"

	"github.com/primar/console/internal/core/domain"
)

// SignUpInput carries the self-registration form.
type SignUpInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	Name            string
}

// AuthResult is returned after a successful sign-in or token refresh.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	State     domain.SessionState
}

// AuthService manages the live sessions of the console.
type AuthService interface {
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)
	SignUp(ctx context.Context, input SignUpInput) error
	SignOut(ctx context.Context, token string) error
	Refresh(ctx context.Context, token string) (*AuthResult, error)
	// Resolve returns the actor behind token. A session whose user holds no
	// role resolves to domain.ErrUnauthenticated.
	Resolve(ctx context.Context, token string) (domain.Principal, error)
	State(ctx context.Context, token string) (domain.SessionState, error)
}
