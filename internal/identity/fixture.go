package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mitgajera/InvoicePro/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Demo identities recognized by the fixture provider. The password for
// both is "demo1234".
const (
	DemoAdminEmail = "admin@invoicepro.com"
	DemoUserEmail  = "demo@invoicepro.com"

	demoPassword = "demo1234"
)

// FixtureProvider keeps sessions in memory and recognizes only the
// seeded demonstration identities. Tokens are opaque uuids with no
// cryptography behind them; the provider is for demos and tests, not
// production.
type FixtureProvider struct {
	db  *gorm.DB
	ttl time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewFixtureProvider seeds the demo users into the store (normally the
// in-memory demo database) and returns the provider.
func NewFixtureProvider(db *gorm.DB, ttl time.Duration) (*FixtureProvider, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	p := &FixtureProvider{db: db, ttl: ttl, sessions: make(map[string]*Session)}
	if err := p.seed(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *FixtureProvider) seed() error {
	seedUsers := []models.User{
		{Email: DemoAdminEmail, PasswordHash: "-", Name: "Demo Admin", Company: "InvoicePro", Admin: true},
		{Email: DemoUserEmail, PasswordHash: "-", Name: "Demo User", Company: "Acme Studio"},
	}
	for _, u := range seedUsers {
		var existing models.User
		if err := p.db.Where("email = ?", u.Email).First(&existing).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			if err := p.db.Create(&u).Error; err != nil {
				return fmt.Errorf("seed demo user: %w", err)
			}
		}
	}
	return nil
}

// SignUp is not available in demo mode: the fixture set is fixed.
func (p *FixtureProvider) SignUp(_ context.Context, _, _ string, _ Profile) (*Session, error) {
	return nil, ErrInvalidCredentials
}

func (p *FixtureProvider) SignIn(_ context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if password != demoPassword {
		return nil, ErrInvalidCredentials
	}
	var user models.User
	if err := p.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	sess := &Session{
		UserID:    user.ID,
		Email:     user.Email,
		Admin:     user.Admin,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(p.ttl),
	}
	p.mu.Lock()
	p.sessions[sess.Token] = sess
	p.mu.Unlock()
	return sess, nil
}

func (p *FixtureProvider) SignOut(_ context.Context, token string) error {
	p.mu.Lock()
	delete(p.sessions, token)
	p.mu.Unlock()
	return nil
}

func (p *FixtureProvider) Session(_ context.Context, token string) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.sessions[token]
	if !ok {
		return nil, ErrInvalidSession
	}
	if time.Now().After(sess.ExpiresAt) {
		// expired sessions do not linger in the map
		delete(p.sessions, token)
		return nil, ErrInvalidSession
	}
	return sess, nil
}
