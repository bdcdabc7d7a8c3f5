package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakinadamha/buildpk/pkg/models"
	"github.com/sakinadamha/buildpk/pkg/verify"
)

// VerificationsHandler holds the dependencies for verification handlers.
type VerificationsHandler struct {
	Verify *verify.Service
}

// NewVerificationsHandler creates a new VerificationsHandler.
func NewVerificationsHandler(v *verify.Service) *VerificationsHandler {
	return &VerificationsHandler{Verify: v}
}

type submitVerificationRequest struct {
	ResourceKind models.ResourceKind `json:"resource_kind"`
	ResourceID   string              `json:"resource_id"`
}

// Submit enqueues a pending verification request for a resource the caller
// owns.
func (h *VerificationsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	var req submitVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	created, err := h.Verify.Submit(r.Context(), req.ResourceKind, req.ResourceID, account)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Queue returns the verification queue, optionally filtered by ?status=.
func (h *VerificationsHandler) Queue(w http.ResponseWriter, r *http.Request) {
	status := models.VerificationStatus(r.URL.Query().Get("status"))
	reqs := h.Verify.Queue(r.Context(), status)
	if reqs == nil {
		reqs = []models.VerificationRequest{}
	}
	writeJSON(w, http.StatusOK, reqs)
}

type reviewRequest struct {
	Notes string `json:"notes,omitempty"`
}

// Approve moves a pending request to approved and activates the resource.
func (h *VerificationsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	reviewed, err := h.Verify.Approve(r.Context(), chi.URLParam(r, "id"), account, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewed)
}

// Reject moves a pending request to rejected. Notes are mandatory.
func (h *VerificationsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	reviewed, err := h.Verify.Reject(r.Context(), chi.URLParam(r, "id"), account, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewed)
}
