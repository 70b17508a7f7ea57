// Package identity abstracts who authenticates users. The rest of the
// application talks to the Provider interface only; whether sessions
// come from the real store or from the in-memory demo fixtures is a
// bootstrap decision, never an email comparison inside business logic.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned by SignUp for an already-registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidSession is returned for unknown, expired or revoked tokens.
	ErrInvalidSession = errors.New("invalid session")
)

// Session is an authenticated session as seen by the application.
type Session struct {
	UserID    uint      `json:"user_id"`
	Email     string    `json:"email"`
	Admin     bool      `json:"admin"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Profile are the user-editable profile fields layered over the
// identity record.
type Profile struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	LogoURL string `json:"logo_url"`
}

// Provider issues and validates sessions.
type Provider interface {
	// SignUp registers a new identity and opens a session for it.
	SignUp(ctx context.Context, email, password string, profile Profile) (*Session, error)
	// SignIn authenticates credentials and opens a session.
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// SignOut revokes a session token where the provider supports
	// revocation; unknown tokens are not an error.
	SignOut(ctx context.Context, token string) error
	// Session resolves a token to its session, ErrInvalidSession otherwise.
	Session(ctx context.Context, token string) (*Session, error)
}
