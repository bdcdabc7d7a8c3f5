package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sakinadamha/buildpk/pkg/ledger"
)

// EconomyHandler holds the dependencies for token-economy handlers.
type EconomyHandler struct {
	Ledger *ledger.Service
}

// NewEconomyHandler creates a new EconomyHandler.
func NewEconomyHandler(lg *ledger.Service) *EconomyHandler {
	return &EconomyHandler{Ledger: lg}
}

// GetBalance returns the caller's token balance, creating it with the signup
// bonus on first access.
func (h *EconomyHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Ledger.Balance(r.Context(), account))
}

// GetHistory returns the caller's ledger entries newest first. Accepts an
// optional ?limit= query parameter.
func (h *EconomyHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, h.Ledger.History(r.Context(), account, limit))
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

// Stake moves tokens from the caller's liquid pool into the staked pool.
func (h *EconomyHandler) Stake(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if err := h.Ledger.Stake(r.Context(), account, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Ledger.Balance(r.Context(), account))
}

// Unstake moves tokens from the caller's staked pool back to liquid.
func (h *EconomyHandler) Unstake(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if err := h.Ledger.Unstake(r.Context(), account, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Ledger.Balance(r.Context(), account))
}

type transferRequest struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
	Memo   string `json:"memo,omitempty"`
}

// Transfer moves liquid tokens from the caller to another account.
func (h *EconomyHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.To == "" {
		http.Error(w, "to is required", http.StatusBadRequest)
		return
	}
	if err := h.Ledger.Transfer(r.Context(), account, req.To, req.Amount, req.Memo); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Ledger.Balance(r.Context(), account))
}

// ClaimRewards credits the caller's pending staking rewards.
func (h *EconomyHandler) ClaimRewards(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	amount, err := h.Ledger.ClaimRewards(r.Context(), account)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"claimed": amount,
		"balance": h.Ledger.Balance(r.Context(), account),
	})
}
