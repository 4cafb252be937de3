package domain

import "time"

// User is the identity record owned by the identity provider.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	Name         string    `json:"name" bson:"name"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// Session is a live authenticated session issued by the identity provider.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"-"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	// EventID is the id of the auth event that announced this session.
	EventID string `json:"-"`
}

// AuthEventType enumerates session-change notifications.
type AuthEventType string

const (
	AuthSignedIn       AuthEventType = "signed_in"
	AuthSignedOut      AuthEventType = "signed_out"
	AuthTokenRefreshed AuthEventType = "token_refreshed"
)

// AuthEvent is delivered to subscribers whenever a session changes.
type AuthEvent struct {
	ID        string        `json:"id"`
	Type      AuthEventType `json:"type"`
	UserID    string        `json:"user_id"`
	SessionID string        `json:"session_id"`
	// Session is nil for signed_out.
	Session *Session  `json:"session,omitempty"`
	At      time.Time `json:"at"`
}

// Principal is the resolved actor for one request.
type Principal struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	ProfileID string `json:"profile_id,omitempty"`
	Role      Role   `json:"role"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email"`
}

func (p Principal) IsAdmin() bool  { return p.Role == RoleAdmin }
func (p Principal) IsStaff() bool  { return p.Role == RoleStaff }
func (p Principal) IsClient() bool { return p.Role == RoleClient }

// SessionState is a snapshot of the session store.
type SessionState struct {
	Session *Session `json:"session,omitempty"`
	Profile *Profile `json:"profile,omitempty"`
	Role    Role     `json:"role"`
	Loading bool     `json:"loading"`
}

func (s SessionState) IsAdmin() bool  { return s.Role == RoleAdmin }
func (s SessionState) IsStaff() bool  { return s.Role == RoleStaff }
func (s SessionState) IsClient() bool { return s.Role == RoleClient }

// Principal derives the request actor. ok is false when there is no session.
func (s SessionState) Principal() (Principal, bool) {
	if s.Session == nil {
		return Principal{}, false
	}
	p := Principal{
		UserID:    s.Session.UserID,
		SessionID: s.Session.ID,
		Role:      s.Role,
		Email:     s.Session.Email,
	}
	if s.Profile != nil {
		p.ProfileID = s.Profile.ID
		p.Name = s.Profile.Nome
	}
	return p, true
}
