package api

import (
	"net/http"
	"strings"

	"medstock/m/domain"
	"medstock/m/internal/checkout"
	"medstock/m/internal/sales"
)

type saleRequest struct {
	ItemID   field `json:"item_id"`
	Quantity field `json:"quantity"`
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemID.trimmed() == "" || req.Quantity.trimmed() == "" {
		respondError(w, http.StatusBadRequest, "item_id and quantity are required")
		return
	}
	quantity, err := checkout.ParseQuantity(string(req.Quantity))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	sale, err := h.checkout.Sell(r.Context(), string(req.ItemID), quantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, sale)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	all := h.sales.All()
	if all == nil {
		all = []domain.Sale{}
	}
	respondJSON(w, http.StatusOK, all)
}

type salesReportResponse struct {
	StartDate *domain.Date  `json:"start_date,omitempty"`
	EndDate   *domain.Date  `json:"end_date,omitempty"`
	Summary   sales.Summary `json:"summary"`
	Sales     []domain.Sale `json:"sales"`
}

func (h *Handler) salesReport(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}

	var from, to *domain.Date
	if startDate := strings.TrimSpace(r.URL.Query().Get("start_date")); startDate != "" {
		d, err := domain.ParseCanonicalDate(startDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "start_date must be in YYYY-MM-DD format")
			return
		}
		from = &d
	}
	if endDate := strings.TrimSpace(r.URL.Query().Get("end_date")); endDate != "" {
		d, err := domain.ParseCanonicalDate(endDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "end_date must be in YYYY-MM-DD format")
			return
		}
		to = &d
	}

	rows := h.sales.Between(from, to)
	if rows == nil {
		rows = []domain.Sale{}
	}
	respondJSON(w, http.StatusOK, salesReportResponse{
		StartDate: from,
		EndDate:   to,
		Summary:   h.sales.Summarize(from, to),
		Sales:     rows,
	})
}
