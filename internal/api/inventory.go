package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"medstock/m/domain"
	"medstock/m/internal/checkout"
	"medstock/m/internal/inventory"
)

func (h *Handler) listInventory(w http.ResponseWriter, r *http.Request) {
	items := h.inventory.Search(r.URL.Query().Get("query"))
	if items == nil {
		items = []domain.Item{}
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.inventory.Get(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "item not found")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

type addItemRequest struct {
	ID             field `json:"id"`
	Name           field `json:"name"`
	Quantity       field `json:"quantity"`
	ExpirationDate field `json:"expiration_date"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID.trimmed() == "" || req.Name.trimmed() == "" || req.Quantity.trimmed() == "" || req.ExpirationDate.trimmed() == "" {
		respondError(w, http.StatusBadRequest, "id, name, quantity and expiration_date are required")
		return
	}
	quantity, err := checkout.ParseQuantity(string(req.Quantity))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	item, err := h.inventory.Add(req.ID.trimmed(), req.Name.trimmed(), quantity, req.ExpirationDate.trimmed())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

type editItemRequest struct {
	Quantity       *field `json:"quantity"`
	ExpirationDate *field `json:"expiration_date"`
}

func (h *Handler) editItem(w http.ResponseWriter, r *http.Request) {
	var req editItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var changes inventory.Changes
	if req.Quantity != nil {
		quantity, err := parseStock(string(*req.Quantity))
		if err != nil {
			respondDomainError(w, err)
			return
		}
		changes.Quantity = &quantity
	}
	if req.ExpirationDate != nil {
		exp := req.ExpirationDate.trimmed()
		changes.ExpirationDate = &exp
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	item, err := h.inventory.Edit(chi.URLParam(r, "id"), changes)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if err := h.inventory.Delete(chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type expiryAlertResponse struct {
	Days  int           `json:"days"`
	Items []domain.Item `json:"items"`
}

func (h *Handler) expiryAlerts(w http.ResponseWriter, r *http.Request) {
	window := h.expiryWindow
	raw := strings.TrimSpace(r.URL.Query().Get("days"))
	if raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		window, err = inventory.ExpiryWindowDays(days)
		if err != nil {
			respondDomainError(w, err)
			return
		}
	}
	items := h.inventory.CheckExpirations(window)
	if items == nil {
		items = []domain.Item{}
	}
	respondJSON(w, http.StatusOK, expiryAlertResponse{Days: int(window / (24 * time.Hour)), Items: items})
}
