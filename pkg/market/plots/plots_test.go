package plots_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakinadamha/buildpk/pkg/ledger"
	"github.com/sakinadamha/buildpk/pkg/market/plots"
	"github.com/sakinadamha/buildpk/pkg/models"
	"github.com/sakinadamha/buildpk/pkg/notify"
	"github.com/sakinadamha/buildpk/pkg/substrate"
)

type fixture struct {
	ledger *ledger.Service
	notify *notify.Service
	market *plots.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := substrate.NewMemory()
	lg := ledger.New(store)
	nt := notify.New(store, nil)
	m := plots.New(store, lg, nt)
	m.Seed(context.Background())
	return fixture{ledger: lg, notify: nt, market: m}
}

// fund tops an account up beyond the signup bonus.
func (f fixture) fund(t *testing.T, account string, amount int64) {
	t.Helper()
	_, err := f.ledger.Record(context.Background(), account, models.EntryEarned, models.PoolLiquid, amount, "test funding")
	require.NoError(t, err)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	all := f.market.Plots(ctx)
	require.Len(t, all, 8)

	t.Run("Idempotent", func(t *testing.T) {
		f.market.Seed(ctx)
		assert.Len(t, f.market.Plots(ctx), 8)
	})

	t.Run("DemoOwnership", func(t *testing.T) {
		plot, err := f.market.Plot(ctx, "plot-3")
		require.NoError(t, err)
		assert.Equal(t, "demo-user", plot.OwnerID)
		assert.Equal(t, models.PlotOccupied, plot.Status)
	})
}

func TestPurchase(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		f.fund(t, "buyer-1", 1000)

		plot, err := f.market.Purchase(ctx, "buyer-1", "plot-1")
		require.NoError(t, err)

		assert.Equal(t, "buyer-1", plot.OwnerID)
		assert.Equal(t, models.PlotOccupied, plot.Status)
		require.NotNil(t, plot.PurchasedAt)
		assert.Equal(t, int64(ledger.SignupBonus)+1000-500, f.ledger.Balance(ctx, "buyer-1").Liquid)
	})

	t.Run("InsufficientFundsLeavesPlotUntouched", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.market.Purchase(ctx, "broke-user", "plot-1")
		assert.ErrorIs(t, err, models.ErrInsufficientFunds)

		plot, err := f.market.Plot(ctx, "plot-1")
		require.NoError(t, err)
		assert.Empty(t, plot.OwnerID)
		assert.Equal(t, models.PlotAvailable, plot.Status)
	})

	t.Run("OwnedPlotNotForPrimarySale", func(t *testing.T) {
		f := newFixture(t)
		f.fund(t, "buyer-1", 1000)

		_, err := f.market.Purchase(ctx, "buyer-1", "plot-3")
		assert.ErrorIs(t, err, models.ErrUnavailable)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.market.Purchase(ctx, "buyer-1", "plot-99")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("ReservesThePlot", func(t *testing.T) {
		f := newFixture(t)

		listing, err := f.market.List(ctx, "demo-user", "plot-3", 800)
		require.NoError(t, err)

		assert.Equal(t, models.ListingActive, listing.Status)
		assert.Equal(t, int64(600), listing.OriginalPrice)
		assert.Equal(t, int64(800), listing.SalePrice)

		plot, err := f.market.Plot(ctx, "plot-3")
		require.NoError(t, err)
		assert.Equal(t, models.PlotReserved, plot.Status)
	})

	t.Run("DoubleListingRejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.market.List(ctx, "demo-user", "plot-3", 800)
		require.NoError(t, err)

		_, err = f.market.List(ctx, "demo-user", "plot-3", 900)
		assert.ErrorIs(t, err, models.ErrAlreadyListed)
	})

	t.Run("OnlyOwnerMayList", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.market.List(ctx, "user-2", "plot-3", 800)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("RejectsNonPositivePrice", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.market.List(ctx, "demo-user", "plot-3", 0)
		assert.ErrorIs(t, err, models.ErrInvalidAmount)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("PlotReturnsToOccupied", func(t *testing.T) {
		f := newFixture(t)
		listing, err := f.market.List(ctx, "demo-user", "plot-3", 800)
		require.NoError(t, err)

		cancelled, err := f.market.Cancel(ctx, "demo-user", listing.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ListingCancelled, cancelled.Status)

		plot, err := f.market.Plot(ctx, "plot-3")
		require.NoError(t, err)
		assert.Equal(t, models.PlotOccupied, plot.Status)
		assert.Equal(t, "demo-user", plot.OwnerID)
	})

	t.Run("OnlySellerMayCancel", func(t *testing.T) {
		f := newFixture(t)
		listing, err := f.market.List(ctx, "demo-user", "plot-3", 800)
		require.NoError(t, err)

		_, err = f.market.Cancel(ctx, "user-2", listing.ID)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})
}

func TestBuyListing(t *testing.T) {
	ctx := context.Background()

	t.Run("SettlesBothSides", func(t *testing.T) {
		f := newFixture(t)
		f.fund(t, "buyer-1", 1000)
		listing, err := f.market.List(ctx, "demo-user", "plot-3", 800)
		require.NoError(t, err)

		sellerBefore := f.ledger.Balance(ctx, "demo-user").Liquid

		sold, err := f.market.BuyListing(ctx, "buyer-1", listing.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ListingSold, sold.Status)

		plot, err := f.market.Plot(ctx, "plot-3")
		require.NoError(t, err)
		assert.Equal(t, "buyer-1", plot.OwnerID)
		assert.Equal(t, models.PlotOccupied, plot.Status)

		assert.Equal(t, int64(ledger.SignupBonus)+1000-800, f.ledger.Balance(ctx, "buyer-1").Liquid)
		assert.Equal(t, sellerBefore+800, f.ledger.Balance(ctx, "demo-user").Liquid)

		notifications := f.notify.For(ctx, "demo-user")
		require.NotEmpty(t, notifications)
		assert.Equal(t, "Plot Sold", notifications[0].Title)
	})

	t.Run("SelfPurchaseRejected", func(t *testing.T) {
		f := newFixture(t)
		listing, err := f.market.List(ctx, "demo-user", "plot-3", 800)
		require.NoError(t, err)

		_, err = f.market.BuyListing(ctx, "demo-user", listing.ID)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("InsufficientFundsLeavesEverythingUntouched", func(t *testing.T) {
		f := newFixture(t)
		listing, err := f.market.List(ctx, "demo-user", "plot-3", 800)
		require.NoError(t, err)

		_, err = f.market.BuyListing(ctx, "poor-buyer", listing.ID)
		assert.ErrorIs(t, err, models.ErrInsufficientFunds)

		plot, err := f.market.Plot(ctx, "plot-3")
		require.NoError(t, err)
		assert.Equal(t, "demo-user", plot.OwnerID)
		assert.Equal(t, models.PlotReserved, plot.Status)

		fresh := f.market.Listings(ctx, models.ListingActive)
		require.Len(t, fresh, 1)
		assert.Equal(t, listing.ID, fresh[0].ID)
	})

	t.Run("SoldListingCannotBeBoughtTwice", func(t *testing.T) {
		f := newFixture(t)
		f.fund(t, "buyer-1", 1000)
		f.fund(t, "buyer-2", 1000)
		listing, err := f.market.List(ctx, "demo-user", "plot-3", 800)
		require.NoError(t, err)

		_, err = f.market.BuyListing(ctx, "buyer-1", listing.ID)
		require.NoError(t, err)

		_, err = f.market.BuyListing(ctx, "buyer-2", listing.ID)
		assert.ErrorIs(t, err, models.ErrNotListed)
	})
}
