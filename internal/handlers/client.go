package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/mitgajera/InvoicePro/auth"
	"github.com/mitgajera/InvoicePro/httpx"
	"github.com/mitgajera/InvoicePro/internal/models"
	"github.com/mitgajera/InvoicePro/internal/services"
	"github.com/mitgajera/InvoicePro/validation"

	"gorm.io/gorm"
)

// ClientHandler is the HTTP boundary over the client record manager.
type ClientHandler struct {
	Svc *services.ClientService
}

func NewClientHandler(svc *services.ClientService) *ClientHandler {
	return &ClientHandler{Svc: svc}
}

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	clients, err := h.Svc.List(userID)
	if err != nil {
		log.Printf("list clients: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_clients", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": clients, "total": len(clients)})
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	client, err := h.Svc.Get(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		log.Printf("get client: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_client", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var client models.Client
	if err := httpx.DecodeJSON(r, &client); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := make(validation.Violations)
	validation.Required("name", client.Name, v)
	validation.Required("email", client.Email, v)
	validation.Email("email", client.Email, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	created, err := h.Svc.Add(userID, client)
	if err != nil {
		log.Printf("create client: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_client", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var patch services.ClientPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := make(validation.Violations)
	if patch.Name != nil {
		validation.Required("name", *patch.Name, v)
	}
	if patch.Email != nil {
		validation.Required("email", *patch.Email, v)
		validation.Email("email", *patch.Email, v)
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	client, err := h.Svc.Update(id, userID, patch)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		log.Printf("update client: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_client", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Svc.Delete(id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		log.Printf("delete client: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_client", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
