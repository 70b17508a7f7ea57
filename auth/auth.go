package auth

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const (
	sessionCookieName = "session"
	userIDCtxKey      = ctxKey("userID")
	adminCtxKey       = ctxKey("admin")
)

// DefaultTTL is the session lifetime when the caller does not override it.
const DefaultTTL = 14 * 24 * time.Hour

var errInvalidToken = errors.New("invalid session token")

// Claims are the session claims embedded in the signed token.
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Admin  bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Secret returns SESSION_SECRET or a dev fallback.
func Secret() string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "devsessionsecret"
}

// MintToken signs a session token for the user. The ttl is taken as
// given; providers default it at construction time.
func MintToken(userID uint, email string, admin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Admin:  admin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(Secret()))
}

// ParseToken verifies a session token and returns its claims.
func ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(Secret()), nil
	})
	if err != nil || !parsed.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

// WriteSession sets the session cookie on the response.
func WriteSession(w http.ResponseWriter, token string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
	})
}

// ClearSession deletes the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// TokenFromRequest extracts the session token from the Authorization
// header (Bearer form) or, failing that, the session cookie.
func TokenFromRequest(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return parts[1], true
		}
	}
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

// WithUser stores the authenticated user in the request context.
func WithUser(ctx context.Context, userID uint, admin bool) context.Context {
	ctx = context.WithValue(ctx, userIDCtxKey, userID)
	return context.WithValue(ctx, adminCtxKey, admin)
}

// UserIDFromContext extracts the authenticated user id.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDCtxKey).(uint)
	return id, ok
}

// IsAdmin reports whether the context user carries the admin flag.
func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(adminCtxKey).(bool)
	return admin
}

// Verifier resolves a raw token to (userID, admin). The identity
// provider supplies one at bootstrap so this package stays free of
// storage concerns.
type Verifier func(ctx context.Context, token string) (uint, bool, error)

// Middleware attaches the user to the request context when a valid
// session token is present. Requests without one pass through
// unauthenticated.
func Middleware(verify Verifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := TokenFromRequest(r); ok {
			if uid, admin, err := verify(r.Context(), token); err == nil {
				r = r.WithContext(WithUser(r.Context(), uid, admin))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects unauthenticated requests with a 401 JSON body.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
