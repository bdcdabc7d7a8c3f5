// Package charging manages EV charger installation and vehicle charging
// sessions. Ending a session is where the two reward units meet: the driver
// earns points and the charger owner earns BUILD tokens.
package charging

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sakinadamha/buildpk/pkg/ledger"
	"github.com/sakinadamha/buildpk/pkg/market/plots"
	"github.com/sakinadamha/buildpk/pkg/market/points"
	"github.com/sakinadamha/buildpk/pkg/models"
	"github.com/sakinadamha/buildpk/pkg/notify"
	"github.com/sakinadamha/buildpk/pkg/registry"
	"github.com/sakinadamha/buildpk/pkg/substrate"
)

const sessionsTable = "charging_sessions"

// Reward rates per kWh delivered.
const (
	driverPointsPerKWh = 10  // points to the driver
	ownerTokensPerKWh  = 0.5 // BUILD to the charger owner
)

// Service runs the charging workflow across the registry, plot market,
// points market and token ledger.
type Service struct {
	store    substrate.Store
	registry *registry.Service
	plots    *plots.Service
	points   *points.Service
	ledger   *ledger.Service
	notify   *notify.Service
	mu       sync.Mutex
}

// New wires the charging service to the components it settles against.
func New(store substrate.Store, reg *registry.Service, pm *plots.Service, pts *points.Service, lg *ledger.Service, nt *notify.Service) *Service {
	return &Service{store: store, registry: reg, plots: pm, points: pts, ledger: lg, notify: nt}
}

func (s *Service) loadSessions(ctx context.Context) []models.ChargingSession {
	var out []models.ChargingSession
	s.store.Load(ctx, substrate.Key(sessionsTable), &out)
	return out
}

func (s *Service) saveSessions(ctx context.Context, sessions []models.ChargingSession) {
	s.store.Save(ctx, substrate.Key(sessionsTable), sessions)
}

// InstallCharger registers a charger on a plot the owner holds. The install
// cost is debited from the owner's liquid balance up front.
func (s *Service) InstallCharger(ctx context.Context, ownerID string, res models.Resource) (models.Resource, error) {
	if res.Charger == nil {
		return models.Resource{}, fmt.Errorf("charger details are required: %w", models.ErrInvalidAmount)
	}
	plot, err := s.plots.Plot(ctx, res.Charger.PlotID)
	if err != nil {
		return models.Resource{}, err
	}
	if plot.OwnerID != ownerID {
		return models.Resource{}, models.ErrUnauthorized
	}

	if res.Charger.InstallCost > 0 {
		desc := fmt.Sprintf("Charger installation: %s", res.Name)
		if _, err := s.ledger.Record(ctx, ownerID, models.EntryTransferred, models.PoolLiquid, -res.Charger.InstallCost, desc); err != nil {
			return models.Resource{}, err
		}
	}

	created, err := s.registry.Create(ctx, models.KindCharger, ownerID, res)
	if err != nil {
		return models.Resource{}, err
	}
	if created.Location == "" {
		loc := fmt.Sprintf("%s, %s", plot.Location, plot.City)
		created, err = s.registry.Update(ctx, models.KindCharger, ownerID, created.ID, registry.Patch{Location: &loc})
		if err != nil {
			return models.Resource{}, err
		}
	}
	return created, nil
}

// StartSession opens a session on an online charger and flips it to charging.
func (s *Service) StartSession(ctx context.Context, driverID, chargerID, vehicleType string) (models.ChargingSession, error) {
	charger, err := s.registry.Get(ctx, models.KindCharger, chargerID)
	if err != nil {
		return models.ChargingSession{}, err
	}
	if charger.Status != models.StatusOnline {
		return models.ChargingSession{}, fmt.Errorf("charger is not online: %w", models.ErrUnavailable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.loadSessions(ctx)
	for _, sess := range sessions {
		if sess.ChargerID == chargerID && sess.Status == models.SessionActive {
			return models.ChargingSession{}, fmt.Errorf("charger is busy: %w", models.ErrUnavailable)
		}
	}

	session := models.ChargingSession{
		ID:          uuid.New().String(),
		ChargerID:   chargerID,
		DriverID:    driverID,
		VehicleType: vehicleType,
		StartTime:   time.Now().UTC(),
		Status:      models.SessionActive,
	}
	s.saveSessions(ctx, append(sessions, session))

	if err := s.registry.SetStatus(ctx, models.KindCharger, chargerID, models.StatusCharging); err != nil {
		return models.ChargingSession{}, err
	}
	return session, nil
}

// EndSession closes an active session with the energy delivered. The driver
// earns floor(energy*10) points, the charger owner earns floor(energy*0.5)
// BUILD, and the charger's counters advance. Only the driver may end their
// own session.
func (s *Service) EndSession(ctx context.Context, driverID, sessionID string, energyKWh float64) (models.ChargingSession, error) {
	if energyKWh < 0 {
		return models.ChargingSession{}, models.ErrInvalidAmount
	}

	s.mu.Lock()
	sessions := s.loadSessions(ctx)
	idx := -1
	for i := range sessions {
		if sessions[i].ID == sessionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return models.ChargingSession{}, models.ErrNotFound
	}
	if sessions[idx].DriverID != driverID {
		s.mu.Unlock()
		return models.ChargingSession{}, models.ErrUnauthorized
	}
	if sessions[idx].Status != models.SessionActive {
		s.mu.Unlock()
		return models.ChargingSession{}, models.ErrInvalidStateTransition
	}

	charger, err := s.registry.Get(ctx, models.KindCharger, sessions[idx].ChargerID)
	if err != nil {
		s.mu.Unlock()
		return models.ChargingSession{}, err
	}

	now := time.Now().UTC()
	duration := int64(now.Sub(sessions[idx].StartTime).Seconds())
	cost := 0.0
	if charger.Charger != nil {
		switch charger.Charger.PricingModel {
		case "per_second":
			cost = float64(duration) * charger.Charger.PerSecond
		default:
			cost = energyKWh * charger.Charger.PerKWh
		}
	}
	earned := int64(math.Floor(energyKWh * driverPointsPerKWh))

	sessions[idx].EndTime = &now
	sessions[idx].EnergyKWh = energyKWh
	sessions[idx].DurationSec = duration
	sessions[idx].Cost = cost
	sessions[idx].PointsEarned = earned
	sessions[idx].Status = models.SessionCompleted
	s.saveSessions(ctx, sessions)
	session := sessions[idx]
	s.mu.Unlock()

	if err := s.registry.SetStatus(ctx, models.KindCharger, charger.ID, models.StatusOnline); err != nil {
		return models.ChargingSession{}, err
	}

	if earned > 0 {
		if err := s.points.Award(ctx, driverID, earned); err != nil {
			return models.ChargingSession{}, err
		}
		s.notify.Push(ctx, driverID, models.NotifyReward,
			"Charging Complete",
			fmt.Sprintf("You earned %d points for charging %.2f kWh.", earned, energyKWh))
	}

	ownerReward := int64(math.Floor(energyKWh * ownerTokensPerKWh))
	if ownerReward > 0 {
		desc := fmt.Sprintf("Charging session revenue: %.2f kWh", energyKWh)
		if _, err := s.ledger.Record(ctx, charger.OwnerID, models.EntryEarned, models.PoolLiquid, ownerReward, desc); err != nil {
			return models.ChargingSession{}, err
		}
		if err := s.registry.AddEarnings(ctx, models.KindCharger, charger.ID, ownerReward); err != nil {
			return models.ChargingSession{}, err
		}
	}

	if err := s.registry.BumpChargerUsage(ctx, charger.ID, energyKWh); err != nil {
		return models.ChargingSession{}, err
	}
	return session, nil
}

// Sessions returns sessions newest first, optionally filtered to one driver.
func (s *Service) Sessions(ctx context.Context, driverID string) []models.ChargingSession {
	var out []models.ChargingSession
	for _, sess := range s.loadSessions(ctx) {
		if driverID == "" || sess.DriverID == driverID {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out
}
