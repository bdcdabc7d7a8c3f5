package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakinadamha/buildpk/pkg/market/points"
	"github.com/sakinadamha/buildpk/pkg/models"
)

// PointsHandler holds the dependencies for the points-market handlers.
type PointsHandler struct {
	Market *points.Service
}

// NewPointsHandler creates a new PointsHandler.
func NewPointsHandler(m *points.Service) *PointsHandler {
	return &PointsHandler{Market: m}
}

// GetBalance returns the caller's points balance.
func (h *PointsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Market.Balance(r.Context(), account))
}

// ListListings returns points listings, optionally filtered by ?status=.
func (h *PointsHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	status := models.ListingStatus(r.URL.Query().Get("status"))
	out := h.Market.Listings(r.Context(), status)
	if out == nil {
		out = []models.PointsListing{}
	}
	writeJSON(w, http.StatusOK, out)
}

type listPointsRequest struct {
	Points      int64 `json:"points"`
	AskPrice    int64 `json:"ask_price"`
	DiscountPct int   `json:"discount_pct,omitempty"`
}

// CreateListing offers the caller's points for sale.
func (h *PointsHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	var req listPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	listing, err := h.Market.List(r.Context(), account, req.Points, req.AskPrice, req.DiscountPct)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

type buyPointsRequest struct {
	Quantity int64 `json:"quantity"`
}

// BuyListing fills part or all of a listing for the caller.
func (h *PointsHandler) BuyListing(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	var req buyPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	tx, err := h.Market.Buy(r.Context(), account, chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// CancelListing withdraws the caller's active listing.
func (h *PointsHandler) CancelListing(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	listing, err := h.Market.Cancel(r.Context(), account, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// ListTransactions returns the caller's points trades newest first.
func (h *PointsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	out := h.Market.Transactions(r.Context(), account)
	if out == nil {
		out = []models.PointTransaction{}
	}
	writeJSON(w, http.StatusOK, out)
}
