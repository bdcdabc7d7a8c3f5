package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakinadamha/buildpk/pkg/charging"
	"github.com/sakinadamha/buildpk/pkg/models"
)

// ChargingHandler holds the dependencies for charger and session handlers.
type ChargingHandler struct {
	Charging *charging.Service
}

// NewChargingHandler creates a new ChargingHandler.
func NewChargingHandler(c *charging.Service) *ChargingHandler {
	return &ChargingHandler{Charging: c}
}

// InstallCharger registers a charger on a plot the caller owns.
func (h *ChargingHandler) InstallCharger(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	var res models.Resource
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	created, err := h.Charging.InstallCharger(r.Context(), account, res)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type startSessionRequest struct {
	ChargerID   string `json:"charger_id"`
	VehicleType string `json:"vehicle_type,omitempty"`
}

// StartSession opens a charging session for the caller on an online charger.
func (h *ChargingHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	session, err := h.Charging.StartSession(r.Context(), account, req.ChargerID, req.VehicleType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

type endSessionRequest struct {
	EnergyKWh float64 `json:"energy_kwh"`
}

// EndSession closes the caller's active session and settles rewards.
func (h *ChargingHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	var req endSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	session, err := h.Charging.EndSession(r.Context(), account, chi.URLParam(r, "id"), req.EnergyKWh)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// ListSessions returns the caller's sessions newest first.
func (h *ChargingHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	out := h.Charging.Sessions(r.Context(), account)
	if out == nil {
		out = []models.ChargingSession{}
	}
	writeJSON(w, http.StatusOK, out)
}
