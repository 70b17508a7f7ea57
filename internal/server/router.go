package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/mitgajera/InvoicePro/auth"
	"github.com/mitgajera/InvoicePro/httpx"
	"github.com/mitgajera/InvoicePro/internal/config"
	"github.com/mitgajera/InvoicePro/internal/handlers"
	"github.com/mitgajera/InvoicePro/internal/identity"
	"github.com/mitgajera/InvoicePro/internal/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// New constructs the root http.Handler with all routes and middlewares
// applied. Dependencies arrive explicitly; nothing here reaches for
// package-level state.
func New(db *gorm.DB, provider identity.Provider, cfg config.Config) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth endpoints
	ah := handlers.NewAuthHandler(provider, cfg.SessionTTL)
	mux.HandleFunc("POST /signup", ah.Signup)
	mux.HandleFunc("POST /login", ah.Login)
	mux.HandleFunc("POST /logout", ah.Logout)
	mux.HandleFunc("GET /session", ah.Session)

	protected := func(h http.HandlerFunc) http.Handler {
		return auth.RequireAuth(h)
	}

	// Client endpoints
	ch := handlers.NewClientHandler(services.NewClientService(db))
	mux.Handle("GET /clients", protected(ch.List))
	mux.Handle("POST /clients", protected(ch.Create))
	mux.Handle("GET /clients/{id}", protected(ch.Get))
	mux.Handle("PUT /clients/{id}", protected(ch.Update))
	mux.Handle("DELETE /clients/{id}", protected(ch.Delete))

	// Invoice endpoints
	ih := handlers.NewInvoiceHandler(db, services.NewInvoiceService(db, cfg.PaymentBaseURL))
	mux.Handle("GET /invoices", protected(ih.List))
	mux.Handle("POST /invoices", protected(ih.Create))
	mux.Handle("GET /invoices/{id}", protected(ih.Get))
	mux.Handle("PUT /invoices/{id}", protected(ih.Update))
	mux.Handle("DELETE /invoices/{id}", protected(ih.Delete))
	mux.Handle("POST /invoices/{id}/send", protected(ih.Send))
	mux.Handle("POST /invoices/{id}/pay", protected(ih.MarkPaid))
	mux.Handle("POST /invoices/{id}/overdue", protected(ih.MarkOverdue))
	mux.Handle("GET /invoices/{id}/pdf", protected(ih.PDF))

	// Dashboard
	dh := handlers.NewDashboardHandler(services.NewDashboardService(db))
	mux.Handle("GET /dashboard", protected(dh.Stats))

	sessionVerifier := auth.Verifier(func(ctx context.Context, token string) (uint, bool, error) {
		sess, err := provider.Session(ctx, token)
		if err != nil {
			return 0, false, err
		}
		return sess.UserID, sess.Admin, nil
	})

	return withRequestID(withLogging(withRecover(auth.Middleware(sessionVerifier, mux))))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s rid=%s", r.Method, r.URL.Path, time.Since(start), w.Header().Get("X-Request-ID"))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withRequestID tags every response with an id for log correlation.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r)
	})
}
