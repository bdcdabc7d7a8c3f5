// Package notify is the fire-and-forget notification sink. Pushing never
// fails the calling operation: substrate or publisher trouble is logged and
// swallowed.
package notify

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sakinadamha/buildpk/pkg/models"
	"github.com/sakinadamha/buildpk/pkg/substrate"
)

const notificationsTable = "notifications"

// Publisher forwards notifications to an external channel (queue, socket)
// after they are stored. Implementations must not block indefinitely.
type Publisher interface {
	Publish(ctx context.Context, n models.Notification) error
}

// NoOpPublisher discards everything. Used when no external channel is
// configured.
type NoOpPublisher struct{}

func (NoOpPublisher) Publish(ctx context.Context, n models.Notification) error { return nil }

// Service stores notifications per recipient and mirrors them to a Publisher.
type Service struct {
	store     substrate.Store
	publisher Publisher
	mu        sync.Mutex
}

// New creates a notification service. A nil publisher falls back to NoOp.
func New(store substrate.Store, publisher Publisher) *Service {
	if publisher == nil {
		publisher = NoOpPublisher{}
	}
	return &Service{store: store, publisher: publisher}
}

func (s *Service) load(ctx context.Context) []models.Notification {
	var all []models.Notification
	s.store.Load(ctx, substrate.Key(notificationsTable), &all)
	return all
}

// Push stores a notification for the recipient and mirrors it to the
// publisher. Always returns the stored notification; delivery problems are
// logged, never propagated.
func (s *Service) Push(ctx context.Context, recipientID string, category models.NotificationCategory, title, body string) models.Notification {
	n := models.Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		Category:    category,
		Title:       title,
		Body:        body,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	all := append(s.load(ctx), n)
	s.store.Save(ctx, substrate.Key(notificationsTable), all)
	s.mu.Unlock()

	if err := s.publisher.Publish(ctx, n); err != nil {
		slog.Warn("notification publish failed", "recipient", recipientID, "error", err)
	}
	return n
}

// For returns the recipient's notifications newest first.
func (s *Service) For(ctx context.Context, recipientID string) []models.Notification {
	var out []models.Notification
	for _, n := range s.load(ctx) {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// MarkRead flips one notification to read. Unknown ids return ErrNotFound;
// ids belonging to another recipient return ErrUnauthorized.
func (s *Service) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load(ctx)
	for i := range all {
		if all[i].ID != notificationID {
			continue
		}
		if all[i].RecipientID != recipientID {
			return models.ErrUnauthorized
		}
		all[i].Read = true
		s.store.Save(ctx, substrate.Key(notificationsTable), all)
		return nil
	}
	return models.ErrNotFound
}

// MarkAllRead flips every unread notification for the recipient and returns
// how many changed.
func (s *Service) MarkAllRead(ctx context.Context, recipientID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load(ctx)
	changed := 0
	for i := range all {
		if all[i].RecipientID == recipientID && !all[i].Read {
			all[i].Read = true
			changed++
		}
	}
	if changed > 0 {
		s.store.Save(ctx, substrate.Key(notificationsTable), all)
	}
	return changed
}
