package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitgajera/InvoicePro/auth"
	"github.com/mitgajera/InvoicePro/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RemoteProvider authenticates against the users table and issues
// signed stateless tokens. SignOut cannot revoke a stateless token
// server-side; the caller clears the cookie and the token ages out.
type RemoteProvider struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewRemoteProvider(db *gorm.DB, ttl time.Duration) *RemoteProvider {
	if ttl <= 0 {
		ttl = auth.DefaultTTL
	}
	return &RemoteProvider{db: db, ttl: ttl}
}

func (p *RemoteProvider) SignUp(ctx context.Context, email, password string, profile Profile) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var count int64
	if err := p.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("signup lookup: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         profile.Name,
		Company:      profile.Company,
		Address:      profile.Address,
		Phone:        profile.Phone,
		LogoURL:      profile.LogoURL,
	}
	if err := p.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return p.open(&user)
}

func (p *RemoteProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	if err := p.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("signin lookup: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return p.open(&user)
}

func (p *RemoteProvider) SignOut(_ context.Context, _ string) error {
	return nil
}

func (p *RemoteProvider) Session(ctx context.Context, token string) (*Session, error) {
	claims, err := auth.ParseToken(token)
	if err != nil {
		return nil, ErrInvalidSession
	}
	// The token must still refer to an existing user.
	var count int64
	if err := p.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", claims.UserID).Limit(1).Count(&count).Error; err != nil || count == 0 {
		return nil, ErrInvalidSession
	}
	return &Session{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Admin:     claims.Admin,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (p *RemoteProvider) open(user *models.User) (*Session, error) {
	token, err := auth.MintToken(user.ID, user.Email, user.Admin, p.ttl)
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}
	return &Session{
		UserID:    user.ID,
		Email:     user.Email,
		Admin:     user.Admin,
		Token:     token,
		ExpiresAt: time.Now().Add(p.ttl),
	}, nil
}
