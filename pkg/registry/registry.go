// Package registry manages the registrable infrastructure entities: hotspots,
// delivery partners, solar farms, healthcare units, tax collection points and
// chargers. Registration pays a kind-specific reward; contributions accrue
// usage rewards onto the resource's earnings counter.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sakinadamha/buildpk/pkg/ledger"
	"github.com/sakinadamha/buildpk/pkg/models"
	"github.com/sakinadamha/buildpk/pkg/notify"
	"github.com/sakinadamha/buildpk/pkg/substrate"
)

// kindConfig carries the per-kind economics and lifecycle defaults.
type kindConfig struct {
	label              string
	initialStatus      models.ResourceStatus
	activeStatus       models.ResourceStatus
	registrationReward int64
	contributionReward int64
	contributionLabel  string
}

var kinds = map[models.ResourceKind]kindConfig{
	models.KindHotspot: {
		label:              "Hotspot",
		initialStatus:      models.StatusOffline,
		activeStatus:       models.StatusOnline,
		registrationReward: 50,
	},
	models.KindPartner: {
		label:              "Delivery partner",
		initialStatus:      models.StatusInactive,
		activeStatus:       models.StatusActive,
		registrationReward: 25,
		contributionReward: 5,
		contributionLabel:  "delivery completed",
	},
	models.KindFarm: {
		label:              "Solar farm",
		initialStatus:      models.StatusActive,
		activeStatus:       models.StatusActive,
		registrationReward: 75,
		contributionReward: 2,
		contributionLabel:  "sensor reading submitted",
	},
	models.KindHealthcare: {
		label:              "Healthcare unit",
		initialStatus:      models.StatusPending,
		activeStatus:       models.StatusActive,
		registrationReward: 100,
		contributionReward: 10,
		contributionLabel:  "patient visit logged",
	},
	models.KindTaxPoint: {
		label:              "Tax collection point",
		initialStatus:      models.StatusInactive,
		activeStatus:       models.StatusActive,
		registrationReward: 150,
		contributionReward: 15,
		contributionLabel:  "tax receipt processed",
	},
	models.KindCharger: {
		label:         "EV charger",
		initialStatus: models.StatusOnline,
		activeStatus:  models.StatusOnline,
	},
}

// ActiveStatus returns the status a kind enters when its verification is
// approved.
func ActiveStatus(kind models.ResourceKind) (models.ResourceStatus, error) {
	cfg, ok := kinds[kind]
	if !ok {
		return "", models.ErrUnknownKind
	}
	return cfg.activeStatus, nil
}

// Patch is a partial resource update. Nil fields are left untouched.
type Patch struct {
	Name     *string
	Location *string
	Status   *models.ResourceStatus
	Meta     map[string]any
}

// Service is the resource registry. One substrate document per kind.
type Service struct {
	store  substrate.Store
	ledger *ledger.Service
	notify *notify.Service
	mu     sync.Mutex
}

// New creates a registry on top of the ledger and notification services.
func New(store substrate.Store, lg *ledger.Service, nt *notify.Service) *Service {
	return &Service{store: store, ledger: lg, notify: nt}
}

func tableFor(kind models.ResourceKind) string {
	return "resources_" + string(kind)
}

func (s *Service) loadKind(ctx context.Context, kind models.ResourceKind) []models.Resource {
	var out []models.Resource
	s.store.Load(ctx, substrate.Key(tableFor(kind)), &out)
	return out
}

func (s *Service) saveKind(ctx context.Context, kind models.ResourceKind, resources []models.Resource) {
	s.store.Save(ctx, substrate.Key(tableFor(kind)), resources)
}

// Create registers a new resource of the given kind, pays the owner the
// registration reward, and notifies them. The resource starts in the kind's
// initial status regardless of what the caller set.
func (s *Service) Create(ctx context.Context, kind models.ResourceKind, ownerID string, res models.Resource) (models.Resource, error) {
	cfg, ok := kinds[kind]
	if !ok {
		return models.Resource{}, models.ErrUnknownKind
	}
	if res.Name == "" {
		return models.Resource{}, fmt.Errorf("%w: name is required", models.ErrInvalidAmount)
	}
	if kind == models.KindCharger && res.Charger == nil {
		return models.Resource{}, fmt.Errorf("charger details are required: %w", models.ErrInvalidAmount)
	}

	res.ID = uuid.New().String()
	res.Kind = kind
	res.OwnerID = ownerID
	res.Status = cfg.initialStatus
	res.Earnings = 0
	res.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	all := append(s.loadKind(ctx, kind), res)
	s.saveKind(ctx, kind, all)
	s.mu.Unlock()

	if cfg.registrationReward > 0 {
		desc := fmt.Sprintf("%s registration reward: %s", cfg.label, res.Name)
		if _, err := s.ledger.Record(ctx, ownerID, models.EntryEarned, models.PoolLiquid, cfg.registrationReward, desc); err != nil {
			return models.Resource{}, err
		}
		s.notify.Push(ctx, ownerID, models.NotifyReward,
			fmt.Sprintf("%s Registered", cfg.label),
			fmt.Sprintf("You earned %d BUILD for registering %s.", cfg.registrationReward, res.Name))
	}
	return res, nil
}

// Get returns one resource by kind and id.
func (s *Service) Get(ctx context.Context, kind models.ResourceKind, id string) (models.Resource, error) {
	if _, ok := kinds[kind]; !ok {
		return models.Resource{}, models.ErrUnknownKind
	}
	for _, r := range s.loadKind(ctx, kind) {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Resource{}, models.ErrNotFound
}

// List returns all resources of a kind, newest first.
func (s *Service) List(ctx context.Context, kind models.ResourceKind) ([]models.Resource, error) {
	if _, ok := kinds[kind]; !ok {
		return nil, models.ErrUnknownKind
	}
	out := s.loadKind(ctx, kind)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ListByOwner returns the owner's resources of a kind, newest first.
func (s *Service) ListByOwner(ctx context.Context, kind models.ResourceKind, ownerID string) ([]models.Resource, error) {
	all, err := s.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	var out []models.Resource
	for _, r := range all {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Update applies a partial update to a resource. Only the owner may update.
func (s *Service) Update(ctx context.Context, kind models.ResourceKind, ownerID, id string, patch Patch) (models.Resource, error) {
	if _, ok := kinds[kind]; !ok {
		return models.Resource{}, models.ErrUnknownKind
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.loadKind(ctx, kind)
	for i := range all {
		if all[i].ID != id {
			continue
		}
		if all[i].OwnerID != ownerID {
			return models.Resource{}, models.ErrUnauthorized
		}
		if patch.Name != nil {
			all[i].Name = *patch.Name
		}
		if patch.Location != nil {
			all[i].Location = *patch.Location
		}
		if patch.Status != nil {
			all[i].Status = *patch.Status
		}
		if patch.Meta != nil {
			if all[i].Meta == nil {
				all[i].Meta = make(map[string]any)
			}
			for k, v := range patch.Meta {
				all[i].Meta[k] = v
			}
		}
		s.saveKind(ctx, kind, all)
		return all[i], nil
	}
	return models.Resource{}, models.ErrNotFound
}

// SetStatus moves a resource to the given status without ownership checks.
// Used by the verification workflow.
func (s *Service) SetStatus(ctx context.Context, kind models.ResourceKind, id string, status models.ResourceStatus) error {
	if _, ok := kinds[kind]; !ok {
		return models.ErrUnknownKind
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.loadKind(ctx, kind)
	for i := range all {
		if all[i].ID == id {
			all[i].Status = status
			s.saveKind(ctx, kind, all)
			return nil
		}
	}
	return models.ErrNotFound
}

// AddEarnings bumps a resource's usage-earnings counter. Used by the charging
// service for session revenue.
func (s *Service) AddEarnings(ctx context.Context, kind models.ResourceKind, id string, amount int64) error {
	if _, ok := kinds[kind]; !ok {
		return models.ErrUnknownKind
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.loadKind(ctx, kind)
	for i := range all {
		if all[i].ID == id {
			all[i].Earnings += amount
			s.saveKind(ctx, kind, all)
			return nil
		}
	}
	return models.ErrNotFound
}

// BumpChargerUsage advances a charger's session and energy counters.
func (s *Service) BumpChargerUsage(ctx context.Context, id string, energyKWh float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.loadKind(ctx, models.KindCharger)
	for i := range all {
		if all[i].ID == id {
			if all[i].Charger == nil {
				return models.ErrNotFound
			}
			all[i].Charger.TotalSessions++
			all[i].Charger.TotalEnergy += energyKWh
			s.saveKind(ctx, models.KindCharger, all)
			return nil
		}
	}
	return models.ErrNotFound
}

// RecordContribution logs one usage event against a resource: the fixed
// per-kind reward goes to the owner's ledger and onto the resource's earnings
// counter. Only active resources accrue; kinds without a contribution reward
// (hotspots, chargers) reject the call.
func (s *Service) RecordContribution(ctx context.Context, kind models.ResourceKind, id string) (models.Resource, error) {
	cfg, ok := kinds[kind]
	if !ok {
		return models.Resource{}, models.ErrUnknownKind
	}
	if cfg.contributionReward == 0 {
		return models.Resource{}, fmt.Errorf("%s does not accept contributions: %w", cfg.label, models.ErrInvalidStateTransition)
	}

	s.mu.Lock()
	all := s.loadKind(ctx, kind)
	var res *models.Resource
	for i := range all {
		if all[i].ID == id {
			res = &all[i]
			break
		}
	}
	if res == nil {
		s.mu.Unlock()
		return models.Resource{}, models.ErrNotFound
	}
	if res.Status != cfg.activeStatus {
		s.mu.Unlock()
		return models.Resource{}, fmt.Errorf("%s is not active: %w", cfg.label, models.ErrUnavailable)
	}
	res.Earnings += cfg.contributionReward
	updated := *res
	s.saveKind(ctx, kind, all)
	s.mu.Unlock()

	desc := fmt.Sprintf("Reward: %s (%s)", cfg.contributionLabel, updated.Name)
	if _, err := s.ledger.Record(ctx, updated.OwnerID, models.EntryEarned, models.PoolLiquid, cfg.contributionReward, desc); err != nil {
		return models.Resource{}, err
	}
	return updated, nil
}
