package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakinadamha/buildpk/pkg/models"
	"github.com/sakinadamha/buildpk/pkg/registry"
)

// ResourcesHandler holds the dependencies for resource-registry handlers.
// Routes are kind-generic: the {kind} URL parameter selects the entity type.
type ResourcesHandler struct {
	Registry *registry.Service
}

// NewResourcesHandler creates a new ResourcesHandler.
func NewResourcesHandler(reg *registry.Service) *ResourcesHandler {
	return &ResourcesHandler{Registry: reg}
}

func kindParam(r *http.Request) models.ResourceKind {
	return models.ResourceKind(chi.URLParam(r, "kind"))
}

// CreateResource registers a new resource and pays the registration reward.
func (h *ResourcesHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	var res models.Resource
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	created, err := h.Registry.Create(r.Context(), kindParam(r), account, res)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListResources returns all resources of a kind. With ?mine=true, only the
// caller's.
func (h *ResourcesHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	var (
		resources []models.Resource
		err       error
	)
	if r.URL.Query().Get("mine") == "true" {
		account, ok := requireAccount(w, r)
		if !ok {
			return
		}
		resources, err = h.Registry.ListByOwner(r.Context(), kindParam(r), account)
	} else {
		resources, err = h.Registry.List(r.Context(), kindParam(r))
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if resources == nil {
		resources = []models.Resource{}
	}
	writeJSON(w, http.StatusOK, resources)
}

// GetResource returns one resource by id.
func (h *ResourcesHandler) GetResource(w http.ResponseWriter, r *http.Request) {
	res, err := h.Registry.Get(r.Context(), kindParam(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type resourcePatch struct {
	Name     *string                `json:"name,omitempty"`
	Location *string                `json:"location,omitempty"`
	Status   *models.ResourceStatus `json:"status,omitempty"`
	Meta     map[string]any         `json:"meta,omitempty"`
}

// UpdateResource applies a partial update to a resource the caller owns.
func (h *ResourcesHandler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	var patch resourcePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	updated, err := h.Registry.Update(r.Context(), kindParam(r), account, chi.URLParam(r, "id"), registry.Patch{
		Name:     patch.Name,
		Location: patch.Location,
		Status:   patch.Status,
		Meta:     patch.Meta,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// RecordContribution logs one usage event against an active resource and pays
// the owner the per-kind reward.
func (h *ResourcesHandler) RecordContribution(w http.ResponseWriter, r *http.Request) {
	res, err := h.Registry.RecordContribution(r.Context(), kindParam(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
