package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakinadamha/buildpk/pkg/models"
	"github.com/sakinadamha/buildpk/pkg/notify"
)

// NotificationsHandler holds the dependencies for notification handlers.
type NotificationsHandler struct {
	Notify *notify.Service
}

// NewNotificationsHandler creates a new NotificationsHandler.
func NewNotificationsHandler(n *notify.Service) *NotificationsHandler {
	return &NotificationsHandler{Notify: n}
}

// List returns the caller's notifications newest first.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	out := h.Notify.For(r.Context(), account)
	if out == nil {
		out = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, out)
}

// MarkRead flips one of the caller's notifications to read.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	if err := h.Notify.MarkRead(r.Context(), account, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead flips all of the caller's unread notifications.
func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	changed := h.Notify.MarkAllRead(r.Context(), account)
	writeJSON(w, http.StatusOK, map[string]int{"updated": changed})
}
