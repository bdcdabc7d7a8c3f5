// Package plots implements the charging-plot market: primary sale of
// network-owned plots plus an escrow resale market. Listing a plot moves it
// to reserved so it cannot be listed twice or sold outside the listing.
package plots

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sakinadamha/buildpk/pkg/ledger"
	"github.com/sakinadamha/buildpk/pkg/metrics"
	"github.com/sakinadamha/buildpk/pkg/models"
	"github.com/sakinadamha/buildpk/pkg/notify"
	"github.com/sakinadamha/buildpk/pkg/substrate"
)

const (
	plotsTable    = "charging_plots"
	listingsTable = "plot_listings"
)

// Service is the plot market. All plot and listing mutations serialize on one
// mutex so escrow checks and writes stay atomic.
type Service struct {
	store  substrate.Store
	ledger *ledger.Service
	notify *notify.Service
	mu     sync.Mutex
}

// New creates a plot market on top of the ledger and notification services.
func New(store substrate.Store, lg *ledger.Service, nt *notify.Service) *Service {
	return &Service{store: store, ledger: lg, notify: nt}
}

func (s *Service) loadPlots(ctx context.Context) []models.ChargingPlot {
	var out []models.ChargingPlot
	s.store.Load(ctx, substrate.Key(plotsTable), &out)
	return out
}

func (s *Service) savePlots(ctx context.Context, plots []models.ChargingPlot) {
	s.store.Save(ctx, substrate.Key(plotsTable), plots)
}

func (s *Service) loadListings(ctx context.Context) []models.PlotListing {
	var out []models.PlotListing
	s.store.Load(ctx, substrate.Key(listingsTable), &out)
	return out
}

func (s *Service) saveListings(ctx context.Context, listings []models.PlotListing) {
	s.store.Save(ctx, substrate.Key(listingsTable), listings)
}

// Seed installs the demo plot inventory when the store is empty. Safe to call
// on every startup.
func (s *Service) Seed(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plots := s.loadPlots(ctx); len(plots) > 0 {
		return
	}
	now := time.Now().UTC()
	s.savePlots(ctx, []models.ChargingPlot{
		{ID: "plot-1", Location: "Clifton Block 4", City: "Karachi", Status: models.PlotAvailable, Price: 500},
		{ID: "plot-2", Location: "Gulberg III", City: "Lahore", Status: models.PlotAvailable, Price: 450},
		{ID: "plot-3", Location: "F-7 Markaz", City: "Islamabad", Status: models.PlotOccupied, OwnerID: "demo-user", Price: 600, PurchasedAt: &now},
		{ID: "plot-4", Location: "D-Ground", City: "Faisalabad", Status: models.PlotAvailable, Price: 350},
		{ID: "plot-5", Location: "Cantt Area", City: "Multan", Status: models.PlotAvailable, Price: 300},
		{ID: "plot-6", Location: "Saddar", City: "Rawalpindi", Status: models.PlotOccupied, OwnerID: "user-2", Price: 400, PurchasedAt: &now},
		{ID: "plot-7", Location: "Blue Area", City: "Islamabad", Status: models.PlotAvailable, Price: 550},
		{ID: "plot-8", Location: "DHA Phase 5", City: "Karachi", Status: models.PlotReserved, Price: 700},
	})
}

// Plots returns every plot.
func (s *Service) Plots(ctx context.Context) []models.ChargingPlot {
	return s.loadPlots(ctx)
}

// Plot returns one plot by id.
func (s *Service) Plot(ctx context.Context, id string) (models.ChargingPlot, error) {
	for _, p := range s.loadPlots(ctx) {
		if p.ID == id {
			return p, nil
		}
	}
	return models.ChargingPlot{}, models.ErrNotFound
}

// Purchase is the primary sale: an available, unowned plot is bought from the
// network at its listed price. The payment leaves the economy rather than
// going to a counterparty.
func (s *Service) Purchase(ctx context.Context, buyerID, plotID string) (models.ChargingPlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plots := s.loadPlots(ctx)
	idx := -1
	for i := range plots {
		if plots[i].ID == plotID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.ChargingPlot{}, models.ErrNotFound
	}
	if plots[idx].Status != models.PlotAvailable || plots[idx].OwnerID != "" {
		return models.ChargingPlot{}, fmt.Errorf("plot is not for primary sale: %w", models.ErrUnavailable)
	}

	desc := fmt.Sprintf("Charging plot purchased: %s, %s", plots[idx].Location, plots[idx].City)
	if _, err := s.ledger.Record(ctx, buyerID, models.EntryTransferred, models.PoolLiquid, -plots[idx].Price, desc); err != nil {
		return models.ChargingPlot{}, err
	}

	now := time.Now().UTC()
	plots[idx].OwnerID = buyerID
	plots[idx].Status = models.PlotOccupied
	plots[idx].PurchasedAt = &now
	s.savePlots(ctx, plots)

	metrics.MarketTrades.WithLabelValues("plots").Inc()
	return plots[idx], nil
}

// Listings returns listings newest first, optionally filtered by status.
func (s *Service) Listings(ctx context.Context, status models.ListingStatus) []models.PlotListing {
	var out []models.PlotListing
	for _, l := range s.loadListings(ctx) {
		if status == "" || l.Status == status {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ListedAt.After(out[j].ListedAt)
	})
	return out
}

// List puts an owned plot up for resale. The plot moves to reserved for the
// life of the listing, so one plot can never carry two active listings.
func (s *Service) List(ctx context.Context, sellerID, plotID string, salePrice int64) (models.PlotListing, error) {
	if salePrice <= 0 {
		return models.PlotListing{}, models.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	plots := s.loadPlots(ctx)
	idx := -1
	for i := range plots {
		if plots[i].ID == plotID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.PlotListing{}, models.ErrNotFound
	}
	if plots[idx].OwnerID != sellerID {
		return models.PlotListing{}, models.ErrUnauthorized
	}
	if plots[idx].Status != models.PlotOccupied {
		return models.PlotListing{}, models.ErrAlreadyListed
	}

	listing := models.PlotListing{
		ID:            uuid.New().String(),
		PlotID:        plotID,
		SellerID:      sellerID,
		OriginalPrice: plots[idx].Price,
		SalePrice:     salePrice,
		Status:        models.ListingActive,
		ListedAt:      time.Now().UTC(),
	}

	plots[idx].Status = models.PlotReserved
	s.savePlots(ctx, plots)
	s.saveListings(ctx, append(s.loadListings(ctx), listing))
	return listing, nil
}

// Cancel withdraws an active listing. Only the seller may cancel; the plot
// returns to occupied.
func (s *Service) Cancel(ctx context.Context, sellerID, listingID string) (models.PlotListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listings := s.loadListings(ctx)
	idx := -1
	for i := range listings {
		if listings[i].ID == listingID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.PlotListing{}, models.ErrNotFound
	}
	if listings[idx].SellerID != sellerID {
		return models.PlotListing{}, models.ErrUnauthorized
	}
	if listings[idx].Status != models.ListingActive {
		return models.PlotListing{}, models.ErrNotListed
	}

	listings[idx].Status = models.ListingCancelled
	s.saveListings(ctx, listings)

	plots := s.loadPlots(ctx)
	for i := range plots {
		if plots[i].ID == listings[idx].PlotID {
			plots[i].Status = models.PlotOccupied
			break
		}
	}
	s.savePlots(ctx, plots)
	return listings[idx], nil
}

// BuyListing settles an escrow resale: the buyer pays the sale price, the
// seller is credited, and plot ownership transfers. All preconditions are
// checked before the first write.
func (s *Service) BuyListing(ctx context.Context, buyerID, listingID string) (models.PlotListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listings := s.loadListings(ctx)
	idx := -1
	for i := range listings {
		if listings[i].ID == listingID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.PlotListing{}, models.ErrNotFound
	}
	listing := listings[idx]
	if listing.Status != models.ListingActive {
		return models.PlotListing{}, models.ErrNotListed
	}
	if listing.SellerID == buyerID {
		return models.PlotListing{}, models.ErrUnauthorized
	}

	plots := s.loadPlots(ctx)
	pidx := -1
	for i := range plots {
		if plots[i].ID == listing.PlotID {
			pidx = i
			break
		}
	}
	if pidx < 0 {
		return models.PlotListing{}, models.ErrNotFound
	}

	if s.ledger.Balance(ctx, buyerID).Liquid < listing.SalePrice {
		return models.PlotListing{}, models.ErrInsufficientFunds
	}

	desc := fmt.Sprintf("Plot resale: %s, %s", plots[pidx].Location, plots[pidx].City)
	if _, err := s.ledger.Record(ctx, buyerID, models.EntryTransferred, models.PoolLiquid, -listing.SalePrice, desc); err != nil {
		return models.PlotListing{}, err
	}
	if _, err := s.ledger.Record(ctx, listing.SellerID, models.EntryTransferred, models.PoolLiquid, listing.SalePrice, desc); err != nil {
		return models.PlotListing{}, err
	}

	now := time.Now().UTC()
	plots[pidx].OwnerID = buyerID
	plots[pidx].Status = models.PlotOccupied
	plots[pidx].PurchasedAt = &now
	s.savePlots(ctx, plots)

	listings[idx].Status = models.ListingSold
	s.saveListings(ctx, listings)

	metrics.MarketTrades.WithLabelValues("plots").Inc()
	s.notify.Push(ctx, listing.SellerID, models.NotifyReward,
		"Plot Sold",
		fmt.Sprintf("Your plot at %s sold for %d BUILD.", plots[pidx].Location, listing.SalePrice))
	return listings[idx], nil
}
