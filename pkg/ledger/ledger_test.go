package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakinadamha/buildpk/pkg/ledger"
	"github.com/sakinadamha/buildpk/pkg/models"
	"github.com/sakinadamha/buildpk/pkg/substrate"
)

func newLedger() *ledger.Service {
	return ledger.New(substrate.NewMemory())
}

func TestBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("FirstAccessCreditsSignupBonus", func(t *testing.T) {
		lg := newLedger()

		b := lg.Balance(ctx, "user-a")

		assert.Equal(t, int64(ledger.SignupBonus), b.Liquid)
		assert.Zero(t, b.Staked)
	})

	t.Run("BonusIsNotALedgerEntry", func(t *testing.T) {
		lg := newLedger()

		lg.Balance(ctx, "user-a")

		assert.Empty(t, lg.History(ctx, "user-a", 0))
	})

	t.Run("BonusPaidOnce", func(t *testing.T) {
		lg := newLedger()

		lg.Balance(ctx, "user-a")
		b := lg.Balance(ctx, "user-a")

		assert.Equal(t, int64(ledger.SignupBonus), b.Liquid)
	})
}

func TestRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("EarnedCreditsLiquid", func(t *testing.T) {
		lg := newLedger()

		entry, err := lg.Record(ctx, "user-a", models.EntryEarned, models.PoolLiquid, 50, "Hotspot registration reward: hs-1")
		require.NoError(t, err)

		assert.Equal(t, int64(50), entry.Amount)
		assert.Equal(t, int64(ledger.SignupBonus+50), lg.Balance(ctx, "user-a").Liquid)
	})

	t.Run("OverdraftRejected", func(t *testing.T) {
		lg := newLedger()

		_, err := lg.Record(ctx, "user-a", models.EntryTransferred, models.PoolLiquid, -(ledger.SignupBonus + 1), "plot purchase")
		assert.ErrorIs(t, err, models.ErrInsufficientFunds)

		// A failed record must leave no trace.
		assert.Equal(t, int64(ledger.SignupBonus), lg.Balance(ctx, "user-a").Liquid)
		assert.Empty(t, lg.History(ctx, "user-a", 0))
	})

	t.Run("BalanceReconcilesAgainstEntries", func(t *testing.T) {
		lg := newLedger()

		amounts := []int64{25, -10, 100, -40}
		for _, a := range amounts {
			_, err := lg.Record(ctx, "user-a", models.EntryEarned, models.PoolLiquid, a, "test")
			require.NoError(t, err)
		}

		var sum int64
		for _, e := range lg.History(ctx, "user-a", 0) {
			sum += e.Amount
		}
		assert.Equal(t, int64(ledger.SignupBonus)+sum, lg.Balance(ctx, "user-a").Liquid)
	})
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	lg := newLedger()

	for i := 0; i < 5; i++ {
		_, err := lg.Record(ctx, "user-a", models.EntryEarned, models.PoolLiquid, int64(i+1), "test")
		require.NoError(t, err)
	}
	_, err := lg.Record(ctx, "user-b", models.EntryEarned, models.PoolLiquid, 99, "test")
	require.NoError(t, err)

	t.Run("NewestFirst", func(t *testing.T) {
		history := lg.History(ctx, "user-a", 0)
		require.Len(t, history, 5)
		for i := 1; i < len(history); i++ {
			assert.False(t, history[i].Timestamp.After(history[i-1].Timestamp))
		}
	})

	t.Run("Limit", func(t *testing.T) {
		assert.Len(t, lg.History(ctx, "user-a", 2), 2)
	})

	t.Run("ScopedToAccount", func(t *testing.T) {
		history := lg.History(ctx, "user-b", 0)
		require.Len(t, history, 1)
		assert.Equal(t, int64(99), history[0].Amount)
	})
}

func TestStake(t *testing.T) {
	ctx := context.Background()

	t.Run("MovesLiquidToStaked", func(t *testing.T) {
		lg := newLedger()

		require.NoError(t, lg.Stake(ctx, "user-a", 60))

		b := lg.Balance(ctx, "user-a")
		assert.Equal(t, int64(ledger.SignupBonus-60), b.Liquid)
		assert.Equal(t, int64(60), b.Staked)
	})

	t.Run("ConservesTotal", func(t *testing.T) {
		lg := newLedger()

		require.NoError(t, lg.Stake(ctx, "user-a", 75))
		require.NoError(t, lg.Unstake(ctx, "user-a", 30))

		b := lg.Balance(ctx, "user-a")
		assert.Equal(t, int64(ledger.SignupBonus), b.Liquid+b.Staked)
	})

	t.Run("InsufficientLiquid", func(t *testing.T) {
		lg := newLedger()

		err := lg.Stake(ctx, "user-a", ledger.SignupBonus+1)
		assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	})

	t.Run("RejectsNonPositiveAmounts", func(t *testing.T) {
		lg := newLedger()

		assert.ErrorIs(t, lg.Stake(ctx, "user-a", 0), models.ErrInvalidAmount)
		assert.ErrorIs(t, lg.Stake(ctx, "user-a", -5), models.ErrInvalidAmount)
	})
}

func TestUnstake(t *testing.T) {
	ctx := context.Background()

	t.Run("InsufficientStaked", func(t *testing.T) {
		lg := newLedger()

		require.NoError(t, lg.Stake(ctx, "user-a", 40))
		assert.ErrorIs(t, lg.Unstake(ctx, "user-a", 41), models.ErrInsufficientFunds)
	})

	t.Run("WritesTwoLinkedEntries", func(t *testing.T) {
		lg := newLedger()

		require.NoError(t, lg.Stake(ctx, "user-a", 40))
		require.NoError(t, lg.Unstake(ctx, "user-a", 40))

		history := lg.History(ctx, "user-a", 0)
		require.Len(t, history, 4)
		unstaked := 0
		for _, e := range history {
			if e.Kind == models.EntryUnstaked {
				unstaked++
			}
		}
		assert.Equal(t, 2, unstaked)
	})
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("MovesLiquidBetweenAccounts", func(t *testing.T) {
		lg := newLedger()

		require.NoError(t, lg.Transfer(ctx, "user-a", "user-b", 30, "rent"))

		assert.Equal(t, int64(ledger.SignupBonus-30), lg.Balance(ctx, "user-a").Liquid)
		assert.Equal(t, int64(ledger.SignupBonus+30), lg.Balance(ctx, "user-b").Liquid)
	})

	t.Run("SelfTransferRejected", func(t *testing.T) {
		lg := newLedger()

		assert.ErrorIs(t, lg.Transfer(ctx, "user-a", "user-a", 10, ""), models.ErrUnauthorized)
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		lg := newLedger()

		err := lg.Transfer(ctx, "user-a", "user-b", ledger.SignupBonus+1, "")
		assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	})

	t.Run("ConcurrentOppositeTransfers", func(t *testing.T) {
		lg := newLedger()
		lg.Balance(ctx, "user-a")
		lg.Balance(ctx, "user-b")

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_ = lg.Transfer(ctx, "user-a", "user-b", 1, "")
			}()
			go func() {
				defer wg.Done()
				_ = lg.Transfer(ctx, "user-b", "user-a", 1, "")
			}()
		}
		wg.Wait()

		total := lg.Balance(ctx, "user-a").Liquid + lg.Balance(ctx, "user-b").Liquid
		assert.Equal(t, int64(2*ledger.SignupBonus), total)
	})
}

func TestClaimRewards(t *testing.T) {
	ctx := context.Background()
	lg := newLedger()

	amount, err := lg.ClaimRewards(ctx, "user-a")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, amount, int64(5))
	assert.LessOrEqual(t, amount, int64(25))
	assert.Equal(t, int64(ledger.SignupBonus)+amount, lg.Balance(ctx, "user-a").Liquid)

	history := lg.History(ctx, "user-a", 0)
	require.Len(t, history, 1)
	assert.Equal(t, models.EntryEarned, history[0].Kind)
	assert.Equal(t, "Staking pool rewards claimed", history[0].Description)
}
