package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakinadamha/buildpk/pkg/ledger"
	"github.com/sakinadamha/buildpk/pkg/models"
	"github.com/sakinadamha/buildpk/pkg/notify"
	"github.com/sakinadamha/buildpk/pkg/registry"
	"github.com/sakinadamha/buildpk/pkg/substrate"
)

type fixture struct {
	ledger   *ledger.Service
	notify   *notify.Service
	registry *registry.Service
}

func newFixture() fixture {
	store := substrate.NewMemory()
	lg := ledger.New(store)
	nt := notify.New(store, nil)
	return fixture{ledger: lg, notify: nt, registry: registry.New(store, lg, nt)}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	cases := map[models.ResourceKind]struct {
		reward int64
		status models.ResourceStatus
	}{
		models.KindHotspot:    {50, models.StatusOffline},
		models.KindPartner:    {25, models.StatusInactive},
		models.KindFarm:       {75, models.StatusActive},
		models.KindHealthcare: {100, models.StatusPending},
		models.KindTaxPoint:   {150, models.StatusInactive},
	}

	for kind, tc := range cases {
		reward := tc.reward
		t.Run(string(kind), func(t *testing.T) {
			f := newFixture()

			res, err := f.registry.Create(ctx, kind, "owner-1", models.Resource{Name: "unit-1"})
			require.NoError(t, err)

			assert.Equal(t, tc.status, res.Status)
			assert.Zero(t, res.Earnings)
			assert.Equal(t, int64(ledger.SignupBonus)+reward, f.ledger.Balance(ctx, "owner-1").Liquid)

			notifications := f.notify.For(ctx, "owner-1")
			require.Len(t, notifications, 1)
			assert.Equal(t, models.NotifyReward, notifications[0].Category)
		})
	}

	t.Run("UnknownKind", func(t *testing.T) {
		f := newFixture()

		_, err := f.registry.Create(ctx, "satellite", "owner-1", models.Resource{Name: "x"})
		assert.ErrorIs(t, err, models.ErrUnknownKind)
	})

	t.Run("NameRequired", func(t *testing.T) {
		f := newFixture()

		_, err := f.registry.Create(ctx, models.KindHotspot, "owner-1", models.Resource{})
		assert.Error(t, err)
	})

	t.Run("ChargerRequiresInfo", func(t *testing.T) {
		f := newFixture()

		_, err := f.registry.Create(ctx, models.KindCharger, "owner-1", models.Resource{Name: "c-1"})
		assert.Error(t, err)
	})

	t.Run("CallerCannotPickStatus", func(t *testing.T) {
		f := newFixture()

		res, err := f.registry.Create(ctx, models.KindHotspot, "owner-1", models.Resource{
			Name:   "hs-1",
			Status: models.StatusOnline,
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusOffline, res.Status)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("PartialPatch", func(t *testing.T) {
		f := newFixture()
		res, err := f.registry.Create(ctx, models.KindFarm, "owner-1", models.Resource{Name: "farm-1", Location: "Multan"})
		require.NoError(t, err)

		name := "farm-renamed"
		updated, err := f.registry.Update(ctx, models.KindFarm, "owner-1", res.ID, registry.Patch{Name: &name})
		require.NoError(t, err)

		assert.Equal(t, "farm-renamed", updated.Name)
		assert.Equal(t, "Multan", updated.Location)
	})

	t.Run("OnlyOwnerMayUpdate", func(t *testing.T) {
		f := newFixture()
		res, err := f.registry.Create(ctx, models.KindFarm, "owner-1", models.Resource{Name: "farm-1"})
		require.NoError(t, err)

		name := "stolen"
		_, err = f.registry.Update(ctx, models.KindFarm, "owner-2", res.ID, registry.Patch{Name: &name})
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture()

		name := "x"
		_, err := f.registry.Update(ctx, models.KindFarm, "owner-1", "missing", registry.Patch{Name: &name})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestListByOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.registry.Create(ctx, models.KindHotspot, "owner-1", models.Resource{Name: "hs-1"})
	require.NoError(t, err)
	_, err = f.registry.Create(ctx, models.KindHotspot, "owner-2", models.Resource{Name: "hs-2"})
	require.NoError(t, err)

	mine, err := f.registry.ListByOwner(ctx, models.KindHotspot, "owner-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "hs-1", mine[0].Name)

	all, err := f.registry.List(ctx, models.KindHotspot)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRecordContribution(t *testing.T) {
	ctx := context.Background()

	contributionRewards := map[models.ResourceKind]int64{
		models.KindPartner:    5,
		models.KindFarm:       2,
		models.KindHealthcare: 10,
		models.KindTaxPoint:   15,
	}

	for kind, reward := range contributionRewards {
		t.Run(string(kind), func(t *testing.T) {
			f := newFixture()
			res, err := f.registry.Create(ctx, kind, "owner-1", models.Resource{Name: "unit-1"})
			require.NoError(t, err)
			require.NoError(t, f.registry.SetStatus(ctx, kind, res.ID, models.StatusActive))

			before := f.ledger.Balance(ctx, "owner-1").Liquid

			updated, err := f.registry.RecordContribution(ctx, kind, res.ID)
			require.NoError(t, err)

			assert.Equal(t, reward, updated.Earnings)
			assert.Equal(t, before+reward, f.ledger.Balance(ctx, "owner-1").Liquid)
		})
	}

	t.Run("InactiveResourceDoesNotAccrue", func(t *testing.T) {
		f := newFixture()
		res, err := f.registry.Create(ctx, models.KindPartner, "owner-1", models.Resource{Name: "rider-1"})
		require.NoError(t, err)

		_, err = f.registry.RecordContribution(ctx, models.KindPartner, res.ID)
		assert.ErrorIs(t, err, models.ErrUnavailable)
	})

	t.Run("HotspotsHaveNoContributionReward", func(t *testing.T) {
		f := newFixture()
		res, err := f.registry.Create(ctx, models.KindHotspot, "owner-1", models.Resource{Name: "hs-1"})
		require.NoError(t, err)
		require.NoError(t, f.registry.SetStatus(ctx, models.KindHotspot, res.ID, models.StatusOnline))

		_, err = f.registry.RecordContribution(ctx, models.KindHotspot, res.ID)
		assert.ErrorIs(t, err, models.ErrInvalidStateTransition)
	})
}

func TestBumpChargerUsage(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	res, err := f.registry.Create(ctx, models.KindCharger, "owner-1", models.Resource{
		Name:    "charger-1",
		Charger: &models.ChargerInfo{Type: "level2", PowerOutputKW: 7.2, PricingModel: "per_kwh", PerKWh: 50},
	})
	require.NoError(t, err)

	require.NoError(t, f.registry.BumpChargerUsage(ctx, res.ID, 12.5))
	require.NoError(t, f.registry.BumpChargerUsage(ctx, res.ID, 7.5))

	got, err := f.registry.Get(ctx, models.KindCharger, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Charger.TotalSessions)
	assert.InDelta(t, 20.0, got.Charger.TotalEnergy, 1e-9)
}
