// Package verify implements the review workflow that gates resource
// activation. Requests start pending and end approved or rejected; reviewed
// requests are terminal.
package verify

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sakinadamha/buildpk/pkg/models"
	"github.com/sakinadamha/buildpk/pkg/notify"
	"github.com/sakinadamha/buildpk/pkg/registry"
	"github.com/sakinadamha/buildpk/pkg/substrate"
)

const queueTable = "verification_queue"

// Service is the verification workflow.
type Service struct {
	store    substrate.Store
	registry *registry.Service
	notify   *notify.Service
	mu       sync.Mutex
}

// New creates a verification service bound to the registry it activates
// resources in.
func New(store substrate.Store, reg *registry.Service, nt *notify.Service) *Service {
	return &Service{store: store, registry: reg, notify: nt}
}

func (s *Service) load(ctx context.Context) []models.VerificationRequest {
	var out []models.VerificationRequest
	s.store.Load(ctx, substrate.Key(queueTable), &out)
	return out
}

func (s *Service) save(ctx context.Context, reqs []models.VerificationRequest) {
	s.store.Save(ctx, substrate.Key(queueTable), reqs)
}

// Submit enqueues a pending verification request for a registered resource.
// The resource must exist and belong to the requester.
func (s *Service) Submit(ctx context.Context, kind models.ResourceKind, resourceID, requestedBy string) (models.VerificationRequest, error) {
	res, err := s.registry.Get(ctx, kind, resourceID)
	if err != nil {
		return models.VerificationRequest{}, err
	}
	if res.OwnerID != requestedBy {
		return models.VerificationRequest{}, models.ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reqs := s.load(ctx)
	for _, r := range reqs {
		if r.ResourceID == resourceID && r.Status == models.VerificationPending {
			return models.VerificationRequest{}, fmt.Errorf("verification already pending: %w", models.ErrAlreadyListed)
		}
	}

	req := models.VerificationRequest{
		ID:           uuid.New().String(),
		ResourceKind: kind,
		ResourceID:   resourceID,
		RequestedBy:  requestedBy,
		Status:       models.VerificationPending,
		CreatedAt:    time.Now().UTC(),
	}
	s.save(ctx, append(reqs, req))
	return req, nil
}

// Queue returns requests newest first, optionally filtered by status.
func (s *Service) Queue(ctx context.Context, status models.VerificationStatus) []models.VerificationRequest {
	var out []models.VerificationRequest
	for _, r := range s.load(ctx) {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Get returns one request by id.
func (s *Service) Get(ctx context.Context, id string) (models.VerificationRequest, error) {
	for _, r := range s.load(ctx) {
		if r.ID == id {
			return r, nil
		}
	}
	return models.VerificationRequest{}, models.ErrNotFound
}

// Approve moves a pending request to approved, activates the resource in its
// kind-appropriate status, and notifies the requester.
func (s *Service) Approve(ctx context.Context, id, reviewedBy, notes string) (models.VerificationRequest, error) {
	req, err := s.review(ctx, id, reviewedBy, notes, models.VerificationApproved)
	if err != nil {
		return models.VerificationRequest{}, err
	}

	active, err := registry.ActiveStatus(req.ResourceKind)
	if err != nil {
		return models.VerificationRequest{}, err
	}
	if err := s.registry.SetStatus(ctx, req.ResourceKind, req.ResourceID, active); err != nil {
		return models.VerificationRequest{}, err
	}

	s.notify.Push(ctx, req.RequestedBy, models.NotifyVerification,
		"Verification Approved",
		fmt.Sprintf("Your %s has been verified and is now %s.", req.ResourceKind, active))
	return req, nil
}

// Reject moves a pending request to rejected. Review notes are mandatory so
// the owner knows what to fix.
func (s *Service) Reject(ctx context.Context, id, reviewedBy, notes string) (models.VerificationRequest, error) {
	if notes == "" {
		return models.VerificationRequest{}, models.ErrMissingReviewNotes
	}
	req, err := s.review(ctx, id, reviewedBy, notes, models.VerificationRejected)
	if err != nil {
		return models.VerificationRequest{}, err
	}

	s.notify.Push(ctx, req.RequestedBy, models.NotifyVerification,
		"Verification Rejected",
		fmt.Sprintf("Your %s verification was rejected: %s", req.ResourceKind, notes))
	return req, nil
}

// review transitions a pending request to a terminal status.
func (s *Service) review(ctx context.Context, id, reviewedBy, notes string, to models.VerificationStatus) (models.VerificationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reqs := s.load(ctx)
	for i := range reqs {
		if reqs[i].ID != id {
			continue
		}
		if reqs[i].Status != models.VerificationPending {
			return models.VerificationRequest{}, models.ErrInvalidStateTransition
		}
		now := time.Now().UTC()
		reqs[i].Status = to
		reqs[i].ReviewedBy = reviewedBy
		reqs[i].ReviewNotes = notes
		reqs[i].ReviewedAt = &now
		s.save(ctx, reqs)
		return reqs[i], nil
	}
	return models.VerificationRequest{}, models.ErrNotFound
}
