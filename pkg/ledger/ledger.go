// Package ledger maintains per-account BUILD token balances and the
// append-only transaction log. Record is the single mutation path: every
// balance change appends an entry and applies the signed amount to one pool
// in the same locked section, so each pool always reconciles against the sum
// of its entries.
package ledger

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sakinadamha/buildpk/pkg/metrics"
	"github.com/sakinadamha/buildpk/pkg/models"
	"github.com/sakinadamha/buildpk/pkg/substrate"
)

// SignupBonus is credited to every balance on first access.
const SignupBonus = 100

const (
	balancesTable = "token_balances"
	entriesTable  = "transactions"
)

// Service is the ledger component. Safe for concurrent use; operations on
// the same account serialize on a per-account mutex.
type Service struct {
	store substrate.Store

	mu    sync.Mutex // guards locks
	locks map[string]*sync.Mutex
}

// New creates a ledger backed by the given substrate store.
func New(store substrate.Store) *Service {
	return &Service{store: store, locks: make(map[string]*sync.Mutex)}
}

// lock acquires the per-account mutexes for the given ids in sorted order
// (so Transfer cannot deadlock against a reverse Transfer) and returns the
// unlock function.
func (s *Service) lock(accountIDs ...string) func() {
	ids := append([]string(nil), accountIDs...)
	sort.Strings(ids)

	muxes := make([]*sync.Mutex, 0, len(ids))
	s.mu.Lock()
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		mu, ok := s.locks[id]
		if !ok {
			mu = &sync.Mutex{}
			s.locks[id] = mu
		}
		muxes = append(muxes, mu)
	}
	s.mu.Unlock()

	for _, mu := range muxes {
		mu.Lock()
	}
	return func() {
		for i := len(muxes) - 1; i >= 0; i-- {
			muxes[i].Unlock()
		}
	}
}

func (s *Service) loadBalances(ctx context.Context) []models.AccountBalance {
	var balances []models.AccountBalance
	s.store.Load(ctx, substrate.Key(balancesTable), &balances)
	return balances
}

func (s *Service) loadEntries(ctx context.Context) []models.LedgerEntry {
	var entries []models.LedgerEntry
	s.store.Load(ctx, substrate.Key(entriesTable), &entries)
	return entries
}

// balanceLocked returns the account's balance, creating it with the signup
// bonus on first access. Caller holds the account lock.
func (s *Service) balanceLocked(ctx context.Context, accountID string) models.AccountBalance {
	balances := s.loadBalances(ctx)
	for _, b := range balances {
		if b.AccountID == accountID {
			return b
		}
	}
	b := models.AccountBalance{
		AccountID: accountID,
		Liquid:    SignupBonus,
		Staked:    0,
		UpdatedAt: time.Now().UTC(),
	}
	balances = append(balances, b)
	s.store.Save(ctx, substrate.Key(balancesTable), balances)
	return b
}

// Balance returns the account's balance, creating it with the signup bonus
// on first access. Never errors.
func (s *Service) Balance(ctx context.Context, accountID string) models.AccountBalance {
	defer s.lock(accountID)()
	return s.balanceLocked(ctx, accountID)
}

// recordLocked appends an entry and applies the signed amount to the named
// pool as one unit. Caller holds the account lock.
func (s *Service) recordLocked(ctx context.Context, accountID string, kind models.EntryKind, pool models.BalancePool, amount int64, description string) (models.LedgerEntry, error) {
	balance := s.balanceLocked(ctx, accountID)

	var target *int64
	switch pool {
	case models.PoolLiquid:
		target = &balance.Liquid
	case models.PoolStaked:
		target = &balance.Staked
	default:
		return models.LedgerEntry{}, fmt.Errorf("unknown balance pool %q", pool)
	}
	if *target+amount < 0 {
		return models.LedgerEntry{}, models.ErrInsufficientFunds
	}
	*target += amount
	balance.UpdatedAt = time.Now().UTC()

	entry := models.LedgerEntry{
		ID:          uuid.New().String(),
		AccountID:   accountID,
		Kind:        kind,
		Pool:        pool,
		Amount:      amount,
		Description: description,
		Timestamp:   time.Now().UTC(),
	}

	entries := append(s.loadEntries(ctx), entry)
	s.store.Save(ctx, substrate.Key(entriesTable), entries)

	balances := s.loadBalances(ctx)
	for i := range balances {
		if balances[i].AccountID == accountID {
			balances[i] = balance
			break
		}
	}
	s.store.Save(ctx, substrate.Key(balancesTable), balances)

	metrics.LedgerEntries.WithLabelValues(string(kind)).Inc()
	return entry, nil
}

// Record is the sole balance mutation entry point: it appends a ledger entry
// and adjusts the named pool by exactly amount as one logical unit.
func (s *Service) Record(ctx context.Context, accountID string, kind models.EntryKind, pool models.BalancePool, amount int64, description string) (models.LedgerEntry, error) {
	defer s.lock(accountID)()
	return s.recordLocked(ctx, accountID, kind, pool, amount, description)
}

// History returns the account's ledger entries newest first. A positive
// limit truncates the result; zero returns everything.
func (s *Service) History(ctx context.Context, accountID string, limit int) []models.LedgerEntry {
	var out []models.LedgerEntry
	for _, e := range s.loadEntries(ctx) {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Stake moves amount from the liquid pool to the staked pool as two linked
// entries. Fails with ErrInsufficientFunds when liquid is short.
func (s *Service) Stake(ctx context.Context, accountID string, amount int64) error {
	if amount <= 0 {
		return models.ErrInvalidAmount
	}
	defer s.lock(accountID)()

	if _, err := s.recordLocked(ctx, accountID, models.EntryStaked, models.PoolLiquid, -amount, "Tokens staked for network rewards"); err != nil {
		return err
	}
	_, err := s.recordLocked(ctx, accountID, models.EntryStaked, models.PoolStaked, amount, "Tokens staked for network rewards")
	return err
}

// Unstake moves amount from the staked pool back to liquid.
func (s *Service) Unstake(ctx context.Context, accountID string, amount int64) error {
	if amount <= 0 {
		return models.ErrInvalidAmount
	}
	defer s.lock(accountID)()

	if _, err := s.recordLocked(ctx, accountID, models.EntryUnstaked, models.PoolStaked, -amount, "Tokens unstaked from network pools"); err != nil {
		return err
	}
	_, err := s.recordLocked(ctx, accountID, models.EntryUnstaked, models.PoolLiquid, amount, "Tokens unstaked from network pools")
	return err
}

// Transfer moves liquid tokens between two accounts.
func (s *Service) Transfer(ctx context.Context, fromID, toID string, amount int64, memo string) error {
	if amount <= 0 {
		return models.ErrInvalidAmount
	}
	if fromID == toID {
		return models.ErrUnauthorized
	}
	defer s.lock(fromID, toID)()

	desc := "Token transfer"
	if memo != "" {
		desc = fmt.Sprintf("Token transfer: %s", memo)
	}
	if _, err := s.recordLocked(ctx, fromID, models.EntryTransferred, models.PoolLiquid, -amount, desc); err != nil {
		return err
	}
	_, err := s.recordLocked(ctx, toID, models.EntryTransferred, models.PoolLiquid, amount, desc)
	return err
}

// ClaimRewards credits a small pseudo-random staking-pool reward (5-25
// tokens) and returns the amount.
func (s *Service) ClaimRewards(ctx context.Context, accountID string) (int64, error) {
	amount := int64(rand.IntN(21) + 5)
	_, err := s.Record(ctx, accountID, models.EntryEarned, models.PoolLiquid, amount, "Staking pool rewards claimed")
	if err != nil {
		return 0, err
	}
	return amount, nil
}
