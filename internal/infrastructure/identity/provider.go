// Package identity issues and verifies console sessions: bcrypt credentials,
// HS256 tokens with per-token revocation, and session-change events.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

const defaultTokenTTL = 24 * time.Hour

// TokenBlacklist records revoked token ids until they would have expired anyway.
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Config struct {
	Secret   string
	TokenTTL time.Duration
}

type sessionClaims struct {
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Provider implements ports.IdentityProvider.
type Provider struct {
	users     ports.AuthRepository
	profiles  ports.ProfileRepository
	blacklist TokenBlacklist
	bus       *Bus
	secret    []byte
	ttl       time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

func NewProvider(users ports.AuthRepository, profiles ports.ProfileRepository, blacklist TokenBlacklist, bus *Bus, cfg Config, logger zerolog.Logger) *Provider {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Provider{
		users:     users,
		profiles:  profiles,
		blacklist: blacklist,
		bus:       bus,
		secret:    []byte(cfg.Secret),
		ttl:       ttl,
		logger:    logger,
		now: domain.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := p.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	sess, err := p.issue(user.ID, user.Email, uuid.NewString())
	if err != nil {
		return nil, err
	}
	sess.EventID = p.publish(ctx, domain.AuthSignedIn, sess)
	return sess, nil
}

// SignUp registers an identity and creates its profile, the way the hosted
// backend's sign-up hook does.
func (p *Provider) SignUp(ctx context.Context, email, password, name string) (*domain.User, error) {
	return p.register(ctx, email, password, name)
}

func (p *Provider) CreateAccount(ctx context.Context, email, password, name string) (*domain.User, error) {
	return p.register(ctx, email, password, name)
}

func (p *Provider) register(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := p.now()
	user, err := p.users.Create(ctx, &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	profile := &domain.Profile{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Nome:      name,
		Email:     email,
		Ativo:     true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.profiles.Create(ctx, profile); err != nil {
		p.logger.Error().Err(err).Str("user_id", user.ID).Msg("profile creation after sign-up failed")
	}

	p.logger.Info().Str("user_id", user.ID).Msg("account registered")
	return user, nil
}

func (p *Provider) DeleteAccount(ctx context.Context, userID string) error {
	return p.users.Delete(ctx, userID)
}

// SignOut revokes the token for the rest of its lifetime.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token)
	if err != nil {
		return err
	}
	if err := p.revoke(ctx, claims); err != nil {
		return err
	}
	p.publish(ctx, domain.AuthSignedOut, &domain.Session{ID: claims.SessionID, UserID: claims.Subject, Email: claims.Email})
	return nil
}

func (p *Provider) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	claims, err := p.parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := p.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, domain.WrapPersistence("check token revocation", err)
	}
	if revoked {
		return nil, domain.ErrInvalidSession
	}
	return &domain.Session{
		ID:        claims.SessionID,
		UserID:    claims.Subject,
		Email:     claims.Email,
		Token:     token,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Refresh swaps a live token for a new one on the same session.
func (p *Provider) Refresh(ctx context.Context, token string) (*domain.Session, error) {
	cur, err := p.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if _, err := p.users.FindByID(ctx, cur.UserID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}

	next, err := p.issue(cur.UserID, cur.Email, cur.ID)
	if err != nil {
		return nil, err
	}
	claims, err := p.parse(token)
	if err != nil {
		return nil, err
	}
	if err := p.revoke(ctx, claims); err != nil {
		return nil, err
	}
	next.EventID = p.publish(ctx, domain.AuthTokenRefreshed, next)
	return next, nil
}

func (p *Provider) Subscribe(handler ports.AuthEventHandler) func() {
	return p.bus.Subscribe(handler)
}

func (p *Provider) issue(userID, email, sessionID string) (*domain.Session, error) {
	now := p.now().Truncate(time.Second)
	exp := now.Add(p.ttl)
	claims := sessionClaims{
		Email:     email,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &domain.Session{
		ID:        sessionID,
		UserID:    userID,
		Email:     email,
		Token:     signed,
		IssuedAt:  now,
		ExpiresAt: exp,
	}, nil
}

func (p *Provider) parse(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil || !parsed.Valid || claims.SessionID == "" || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, domain.ErrInvalidSession
	}
	return claims, nil
}

func (p *Provider) revoke(ctx context.Context, claims *sessionClaims) error {
	remaining := claims.ExpiresAt.Time.Sub(p.now())
	if remaining <= 0 {
		return nil
	}
	if err := p.blacklist.Revoke(ctx, claims.ID, remaining); err != nil {
		return domain.WrapPersistence("revoke token", err)
	}
	return nil
}

// publish announces a session change and returns the event id. A relay
// failure is logged; local subscribers still receive the event.
func (p *Provider) publish(ctx context.Context, typ domain.AuthEventType, sess *domain.Session) string {
	ev := domain.AuthEvent{
		ID:        uuid.NewString(),
		Type:      typ,
		UserID:    sess.UserID,
		SessionID: sess.ID,
		At:        p.now(),
	}
	if typ != domain.AuthSignedOut {
		public := *sess
		public.Token = ""
		ev.Session = &public
	}
	if err := p.bus.Publish(ctx, ev); err != nil {
		p.logger.Warn().Err(err).Str("event", string(typ)).Msg("auth event relay failed")
	}
	return ev.ID
}
