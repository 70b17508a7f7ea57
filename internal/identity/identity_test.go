package identity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mitgajera/InvoicePro/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openIdentityDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func TestRemoteProviderSignUpAndSignIn(t *testing.T) {
	db := openIdentityDB(t)
	p := NewRemoteProvider(db, time.Hour)
	ctx := context.Background()

	sess, err := p.SignUp(ctx, "Jane@Example.com", "hunter22", Profile{Name: "Jane", Company: "JD Studio"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", sess.Email, "emails normalize to lower case")
	assert.NotEmpty(t, sess.Token)
	assert.False(t, sess.Admin)

	// duplicate email
	_, err = p.SignUp(ctx, "jane@example.com", "whatever", Profile{})
	assert.ErrorIs(t, err, ErrEmailTaken)

	// password is stored hashed
	var user models.User
	require.NoError(t, db.Where("email = ?", "jane@example.com").First(&user).Error)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
	assert.Equal(t, "JD Studio", user.Company)

	// sign in round trip
	sess2, err := p.SignIn(ctx, "jane@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, sess2.UserID)

	_, err = p.SignIn(ctx, "jane@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = p.SignIn(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRemoteProviderSessionVerification(t *testing.T) {
	db := openIdentityDB(t)
	p := NewRemoteProvider(db, time.Hour)
	ctx := context.Background()

	sess, err := p.SignUp(ctx, "a@b.test", "secret123", Profile{})
	require.NoError(t, err)

	restored, err := p.Session(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, restored.UserID)

	_, err = p.Session(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidSession)

	// a token for a deleted user is rejected
	require.NoError(t, db.Delete(&models.User{}, sess.UserID).Error)
	_, err = p.Session(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestFixtureProviderDemoIdentities(t *testing.T) {
	db := openIdentityDB(t)
	p, err := NewFixtureProvider(db, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	admin, err := p.SignIn(ctx, DemoAdminEmail, "demo1234")
	require.NoError(t, err)
	assert.True(t, admin.Admin)

	user, err := p.SignIn(ctx, DemoUserEmail, "demo1234")
	require.NoError(t, err)
	assert.False(t, user.Admin)
	assert.NotEqual(t, admin.UserID, user.UserID)

	_, err = p.SignIn(ctx, DemoUserEmail, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = p.SignIn(ctx, "someone@else.test", "demo1234")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// sessions resolve until signed out
	restored, err := p.Session(ctx, user.Token)
	require.NoError(t, err)
	assert.Equal(t, user.UserID, restored.UserID)
	require.NoError(t, p.SignOut(ctx, user.Token))
	_, err = p.Session(ctx, user.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// the fixture set is fixed: no signups in demo mode
	_, err = p.SignUp(ctx, "new@user.test", "pw", Profile{})
	assert.Error(t, err)
}

func TestFixtureProviderEvictsExpiredSessions(t *testing.T) {
	db := openIdentityDB(t)
	p, err := NewFixtureProvider(db, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	sess, err := p.SignIn(ctx, DemoUserEmail, "demo1234")
	require.NoError(t, err)

	p.mu.Lock()
	p.sessions[sess.Token].ExpiresAt = time.Now().Add(-time.Minute)
	p.mu.Unlock()

	_, err = p.Session(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// the expired entry is gone, not just rejected
	p.mu.Lock()
	_, stillThere := p.sessions[sess.Token]
	p.mu.Unlock()
	assert.False(t, stillThere, "expired session must be evicted from the map")
}

func TestFixtureProviderSeedIsIdempotent(t *testing.T) {
	db := openIdentityDB(t)
	_, err := NewFixtureProvider(db, time.Hour)
	require.NoError(t, err)
	_, err = NewFixtureProvider(db, time.Hour)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}
