package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/mitgajera/InvoicePro/auth"
	"github.com/mitgajera/InvoicePro/httpx"
	"github.com/mitgajera/InvoicePro/internal/identity"
	"github.com/mitgajera/InvoicePro/validation"
)

// AuthHandler exposes the session lifecycle over the identity provider.
type AuthHandler struct {
	Provider identity.Provider
	TTL      time.Duration
}

func NewAuthHandler(provider identity.Provider, ttl time.Duration) *AuthHandler {
	return &AuthHandler{Provider: provider, TTL: ttl}
}

type credentialsReq struct {
	Email    string           `json:"email"`
	Password string           `json:"password"`
	Profile  identity.Profile `json:"profile"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := make(validation.Violations)
	validation.Required("email", req.Email, v)
	validation.Email("email", req.Email, v)
	validation.Required("password", req.Password, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	sess, err := h.Provider.SignUp(r.Context(), req.Email, req.Password, req.Profile)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			httpx.JSONError(w, http.StatusConflict, "email_taken", nil)
			return
		}
		if errors.Is(err, identity.ErrInvalidCredentials) {
			httpx.JSONError(w, http.StatusForbidden, "signup_disabled", nil)
			return
		}
		log.Printf("signup failed: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "signup_failed", nil)
		return
	}
	auth.WriteSession(w, sess.Token, h.TTL)
	httpx.JSON(w, http.StatusCreated, sess)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := make(validation.Violations)
	validation.Required("email", req.Email, v)
	validation.Required("password", req.Password, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	sess, err := h.Provider.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
			return
		}
		log.Printf("login failed: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "login_failed", nil)
		return
	}
	auth.WriteSession(w, sess.Token, h.TTL)
	httpx.JSON(w, http.StatusOK, sess)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := auth.TokenFromRequest(r); ok {
		if err := h.Provider.SignOut(r.Context(), token); err != nil {
			log.Printf("signout failed: %v", err)
		}
	}
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// Session returns the current session, restoring it from the request
// token. 401 when no valid token is present.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.TokenFromRequest(r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	sess, err := h.Provider.Session(r.Context(), token)
	if err != nil {
		auth.ClearSession(w)
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, sess)
}
