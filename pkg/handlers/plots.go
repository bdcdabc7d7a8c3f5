package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakinadamha/buildpk/pkg/market/plots"
	"github.com/sakinadamha/buildpk/pkg/models"
)

// PlotsHandler holds the dependencies for the plot-market handlers.
type PlotsHandler struct {
	Market *plots.Service
}

// NewPlotsHandler creates a new PlotsHandler.
func NewPlotsHandler(m *plots.Service) *PlotsHandler {
	return &PlotsHandler{Market: m}
}

// ListPlots returns the full plot inventory.
func (h *PlotsHandler) ListPlots(w http.ResponseWriter, r *http.Request) {
	out := h.Market.Plots(r.Context())
	if out == nil {
		out = []models.ChargingPlot{}
	}
	writeJSON(w, http.StatusOK, out)
}

// GetPlot returns one plot by id.
func (h *PlotsHandler) GetPlot(w http.ResponseWriter, r *http.Request) {
	plot, err := h.Market.Plot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plot)
}

// PurchasePlot buys an available plot from the network at its listed price.
func (h *PlotsHandler) PurchasePlot(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	plot, err := h.Market.Purchase(r.Context(), account, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plot)
}

// ListListings returns resale listings, optionally filtered by ?status=.
func (h *PlotsHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	status := models.ListingStatus(r.URL.Query().Get("status"))
	out := h.Market.Listings(r.Context(), status)
	if out == nil {
		out = []models.PlotListing{}
	}
	writeJSON(w, http.StatusOK, out)
}

type listPlotRequest struct {
	PlotID    string `json:"plot_id"`
	SalePrice int64  `json:"sale_price"`
}

// CreateListing puts a plot the caller owns up for resale.
func (h *PlotsHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	var req listPlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	listing, err := h.Market.List(r.Context(), account, req.PlotID, req.SalePrice)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

// BuyListing settles a resale in favor of the caller.
func (h *PlotsHandler) BuyListing(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	listing, err := h.Market.BuyListing(r.Context(), account, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// CancelListing withdraws the caller's active listing.
func (h *PlotsHandler) CancelListing(w http.ResponseWriter, r *http.Request) {
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
