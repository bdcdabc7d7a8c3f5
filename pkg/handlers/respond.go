// Package handlers exposes the HTTP facade. Every route identifies its caller
// through the X-Account-Id header; domain errors map onto HTTP statuses in
// one place.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sakinadamha/buildpk/pkg/models"
)

// accountID extracts the caller identity. The dashboard is a simulation, so
// the header stands in for real authentication.
func accountID(r *http.Request) string {
	return r.Header.Get("X-Account-Id")
}

// requireAccount writes a 401 and returns false when the caller header is
// missing.
func requireAccount(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := accountID(r)
	if id == "" {
		http.Error(w, "X-Account-Id header is required", http.StatusUnauthorized)
		return "", false
	}
	return id, true
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// writeError maps domain sentinels onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrInsufficientPoints):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, models.ErrAlreadyListed),
		errors.Is(err, models.ErrNotListed),
		errors.Is(err, models.ErrInvalidStateTransition),
		errors.Is(err, models.ErrUnavailable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrMissingReviewNotes),
		errors.Is(err, models.ErrUnknownKind):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
