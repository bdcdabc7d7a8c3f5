// Package points implements the BUILD points market. Points are a secondary
// reward unit earned from charging sessions; listings support partial fills
// with the price-per-point fixed at listing time.
//
// Listings do not escrow the seller's points. Availability is validated when
// the listing is created and revalidated at every fill, so a seller who spent
// their points in between simply fails the fill.
package points

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
	balancesTable     = "charging_points"
	listingsTable     = "marketplace_listings"
	transactionsTable = "point_transactions"
)

// Service is the points market. One mutex serializes balance and listing
// mutations so fills stay atomic.
type Service struct {
	store  substrate.Store
	ledger *ledger.Service
	notify *notify.Service
	mu     sync.Mutex
}

// New creates a points market on top of the ledger and notification services.
func New(store substrate.Store, lg *ledger.Service, nt *notify.Service) *Service {
	return &Service{store: store, ledger: lg, notify: nt}
}

func (s *Service) loadBalances(ctx context.Context) []models.PointsBalance {
	var out []models.PointsBalance
	s.store.Load(ctx, substrate.Key(balancesTable), &out)
	return out
}

func (s *Service) saveBalances(ctx context.Context, balances []models.PointsBalance) {
	s.store.Save(ctx, substrate.Key(balancesTable), balances)
}

func (s *Service) loadListings(ctx context.Context) []models.PointsListing {
	var out []models.PointsListing
	s.store.Load(ctx, substrate.Key(listingsTable), &out)
	return out
}

func (s *Service) saveListings(ctx context.Context, listings []models.PointsListing) {
	s.store.Save(ctx, substrate.Key(listingsTable), listings)
}

// balanceLocked returns the account's points balance, creating a zero one on
// first access. Caller holds s.mu.
func (s *Service) balanceLocked(ctx context.Context, accountID string) models.PointsBalance {
	balances := s.loadBalances(ctx)
	for _, b := range balances {
		if b.AccountID == accountID {
			return b
		}
	}
	b := models.PointsBalance{AccountID: accountID, UpdatedAt: time.Now().UTC()}
	s.saveBalances(ctx, append(balances, b))
	return b
}

func (s *Service) applyLocked(ctx context.Context, accountID string, deltaPoints, deltaEarned, deltaTraded int64) {
	balances := s.loadBalances(ctx)
	found := false
	for i := range balances {
		if balances[i].AccountID == accountID {
			balances[i].Points += deltaPoints
			balances[i].EarnedTotal += deltaEarned
			balances[i].TradedTotal += deltaTraded
			balances[i].UpdatedAt = time.Now().UTC()
			found = true
			break
		}
	}
	if !found {
		balances = append(balances, models.PointsBalance{
			AccountID:   accountID,
			Points:      deltaPoints,
			EarnedTotal: deltaEarned,
			TradedTotal: deltaTraded,
			UpdatedAt:   time.Now().UTC(),
		})
	}
	s.saveBalances(ctx, balances)
}

// Balance returns the account's points balance, creating a zero balance on
// first access.
func (s *Service) Balance(ctx context.Context, accountID string) models.PointsBalance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balanceLocked(ctx, accountID)
}

// Award credits freshly-earned points (charging sessions). Amount must be
// positive.
func (s *Service) Award(ctx context.Context, accountID string, points int64) error {
	if points <= 0 {
		return models.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(ctx, accountID, points, points, 0)
	return nil
}

// Listings returns listings newest first, optionally filtered by status.
func (s *Service) Listings(ctx context.Context, status models.ListingStatus) []models.PointsListing {
	var out []models.PointsListing
	for _, l := range s.loadListings(ctx) {
		if status == "" || l.Status == status {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// List offers points for sale at a total ask price in BUILD tokens, with an
// advertised discount against the face rate. The seller must hold at least
// that many points right now; the points stay in their balance until a fill
// settles.
func (s *Service) List(ctx context.Context, sellerID string, points, askPrice int64, discountPct int) (models.PointsListing, error) {
	if points <= 0 || askPrice <= 0 || discountPct < 0 || discountPct >= 100 {
		return models.PointsListing{}, models.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.balanceLocked(ctx, sellerID).Points < points {
		return models.PointsListing{}, models.ErrInsufficientPoints
	}

	listing := models.PointsListing{
		ID:          uuid.New().String(),
		SellerID:    sellerID,
		Points:      points,
		AskPrice:    askPrice,
		DiscountPct: discountPct,
		Status:      models.ListingActive,
		CreatedAt:   time.Now().UTC(),
	}
	s.saveListings(ctx, append(s.loadListings(ctx), listing))
	return listing, nil
}

// Cancel withdraws an active listing. Only the seller may cancel.
func (s *Service) Cancel(ctx context.Context, sellerID, listingID string) (models.PointsListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listings := s.loadListings(ctx)
	for i := range listings {
		if listings[i].ID != listingID {
			continue
		}
		if listings[i].SellerID != sellerID {
			return models.PointsListing{}, models.ErrUnauthorized
		}
		if listings[i].Status != models.ListingActive {
			return models.PointsListing{}, models.ErrNotListed
		}
		listings[i].Status = models.ListingCancelled
		s.saveListings(ctx, listings)
		return listings[i], nil
	}
	return models.PointsListing{}, models.ErrNotFound
}

// Buy fills quantity points from an active listing. The token cost is the
// pro-rata share of the ask price rounded up; a partial fill rescales the
// listing so price-per-point never drifts. All preconditions are checked
// before the first write.
func (s *Service) Buy(ctx context.Context, buyerID, listingID string, quantity int64) (models.PointTransaction, error) {
	if quantity <= 0 {
		return models.PointTransaction{}, models.ErrInvalidAmount
	}

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
		return models.PointTransaction{}, models.ErrNotFound
	}
	listing := listings[idx]
	if listing.Status != models.ListingActive {
		return models.PointTransaction{}, models.ErrNotListed
	}
	if listing.SellerID == buyerID {
		return models.PointTransaction{}, models.ErrUnauthorized
	}
	if quantity > listing.Points {
		return models.PointTransaction{}, models.ErrInvalidAmount
	}

	// ceil(quantity * ask / points)
	cost := (quantity*listing.AskPrice + listing.Points - 1) / listing.Points

	if s.balanceLocked(ctx, listing.SellerID).Points < quantity {
		return models.PointTransaction{}, models.ErrInsufficientPoints
	}
	if s.ledger.Balance(ctx, buyerID).Liquid < cost {
		return models.PointTransaction{}, models.ErrInsufficientFunds
	}

	desc := fmt.Sprintf("Points market: %d points @ listing %s", quantity, listing.ID)
	if _, err := s.ledger.Record(ctx, buyerID, models.EntryTransferred, models.PoolLiquid, -cost, desc); err != nil {
		return models.PointTransaction{}, err
	}
	if _, err := s.ledger.Record(ctx, listing.SellerID, models.EntryTransferred, models.PoolLiquid, cost, desc); err != nil {
		return models.PointTransaction{}, err
	}

	s.applyLocked(ctx, listing.SellerID, -quantity, 0, quantity)
	s.applyLocked(ctx, buyerID, quantity, 0, quantity)

	remaining := listing.Points - quantity
	if remaining == 0 {
		listings[idx].Points = 0
		listings[idx].AskPrice = 0
		listings[idx].Status = models.ListingSold
	} else {
		// ceil(ask * remaining / points) keeps price-per-point fixed.
		listings[idx].AskPrice = (listing.AskPrice*remaining + listing.Points - 1) / listing.Points
		listings[idx].Points = remaining
	}
	s.saveListings(ctx, listings)

	tx := models.PointTransaction{
		ID:            uuid.New().String(),
		FromAccountID: listing.SellerID,
		ToAccountID:   buyerID,
		Points:        quantity,
		LedgerPrice:   cost,
		DiscountPct:   listing.DiscountPct,
		Direction:     models.TradeBuy,
		Timestamp:     time.Now().UTC(),
	}
	var txs []models.PointTransaction
	s.store.Load(ctx, substrate.Key(transactionsTable), &txs)
	s.store.Save(ctx, substrate.Key(transactionsTable), append(txs, tx))

	metrics.MarketTrades.WithLabelValues("points").Inc()
	s.notify.Push(ctx, listing.SellerID, models.NotifyReward,
		"Points Sold",
		fmt.Sprintf("%d points sold for %d BUILD.", quantity, cost))
	return tx, nil
}

// Transactions returns the trade log newest first, optionally filtered to one
// account on either side.
func (s *Service) Transactions(ctx context.Context, accountID string) []models.PointTransaction {
	var all []models.PointTransaction
	s.store.Load(ctx, substrate.Key(transactionsTable), &all)

	var out []models.PointTransaction
	for _, t := range all {
		if accountID == "" || t.FromAccountID == accountID || t.ToAccountID == accountID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}
