package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/mitgajera/InvoicePro/auth"
	"github.com/mitgajera/InvoicePro/httpx"
	"github.com/mitgajera/InvoicePro/internal/services"
)

// DashboardHandler serves the aggregate figures behind the dashboard.
type DashboardHandler struct {
	Svc *services.DashboardService
}

func NewDashboardHandler(svc *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{Svc: svc}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	stats, err := h.Svc.Stats(userID, time.Now())
	if err != nil {
		log.Printf("dashboard stats: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_stats", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}
