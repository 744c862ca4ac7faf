package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/punchamoorthee/tenderops/internal/domain"
	"github.com/punchamoorthee/tenderops/internal/events"
	"github.com/punchamoorthee/tenderops/internal/funds"
	"github.com/punchamoorthee/tenderops/internal/store"
	"github.com/stretchr/testify/require"
)

const admin = "admin"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	store      store.Store
	clock      *fakeClock
	registry   *Registry
	ledger     *Ledger
	settlement *Settlement
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, store.NewMemoryStore())
}

// newFixtureOn builds the service stack on a caller-supplied store, so tests
// can wrap the memory store with failure injection.
func newFixtureOn(t *testing.T, s store.Store) *fixture {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	sink := events.NewLogSink(64)
	gate := NewGate(admin, s)
	var mu sync.Mutex
	return &fixture{
		store:      s,
		clock:      clock,
		registry:   NewRegistry(&mu, s, gate, clock, sink),
		ledger:     NewLedger(&mu, s, gate, clock, sink),
		settlement: NewSettlement(&mu, s, gate, funds.NewLedgerTransfer(s), sink),
	}
}

// approvedContractor registers and approves an identity.
func (f *fixture) approvedContractor(t *testing.T, identity string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.registry.Register(ctx, identity, "Contractor "+identity)
	require.NoError(t, err)
	require.NoError(t, f.registry.Approve(ctx, admin, identity))
}

// openContract creates a contract whose bid deadline is one hour ahead of
// the fixture clock.
func (f *fixture) openContract(t *testing.T) *domain.Contract {
	t.Helper()
	c, err := f.ledger.CreateContract(context.Background(), admin, CreateContractParams{
		Description:              "road resurfacing",
		BidDeadline:              f.clock.Now().Add(time.Hour),
		DailyPenaltyRatePerMille: 10,
		MaxPenaltyPercent:        20,
	})
	require.NoError(t, err)
	return c
}

// awardedContract drives a contract through submit, close, and award for a
// single approved contractor bidding amount/durationDays.
func (f *fixture) awardedContract(t *testing.T, identity string, amount, durationDays int64) (*domain.Contract, *domain.Bid) {
	t.Helper()
	ctx := context.Background()
	f.approvedContractor(t, identity)
	c := f.openContract(t)

	b, err := f.ledger.SubmitBid(ctx, identity, c.ID, amount, durationDays)
	require.NoError(t, err)

	f.clock.advance(2 * time.Hour)
	require.NoError(t, f.ledger.CloseContract(ctx, admin, c.ID))
	require.NoError(t, f.ledger.AwardBid(ctx, admin, b.ID))

	c, err = f.ledger.GetContract(ctx, c.ID)
	require.NoError(t, err)
	b, err = f.ledger.GetBid(ctx, b.ID)
	require.NoError(t, err)
	return c, b
}

// completedContract additionally deposits escrow, starts work, and completes
// it after actualDays on the clock.
func (f *fixture) completedContract(t *testing.T, identity string, amount, durationDays, actualDays int64) *domain.Contract {
	t.Helper()
	ctx := context.Background()
	c, _ := f.awardedContract(t, identity, amount, durationDays)

	require.NoError(t, f.settlement.DepositEscrow(ctx, admin, c.ID, amount))
	require.NoError(t, f.ledger.StartWork(ctx, admin, c.ID))
	f.clock.advance(time.Duration(actualDays) * 24 * time.Hour)
	require.NoError(t, f.ledger.CompleteWork(ctx, admin, c.ID))

	c, err := f.ledger.GetContract(ctx, c.ID)
	require.NoError(t, err)
	return c
}
