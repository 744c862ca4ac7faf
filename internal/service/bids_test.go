package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/punchamoorthee/tenderops/internal/domain"
	"github.com/punchamoorthee/tenderops/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitBid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.approvedContractor(t, "alice")
	c := f.openContract(t)

	b, err := f.ledger.SubmitBid(ctx, "alice", c.ID, 900, 12)
	require.NoError(t, err)
	assert.Equal(t, domain.BidSubmitted, b.Status)
	assert.Equal(t, "alice", b.ContractorIdentity)
	assert.NotZero(t, b.ID)
	assert.NotEqual(t, c.ID, b.ID, "contract and bid ids share one counter")

	got, err := f.ledger.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, got.SubmittedBidIDs)
}

func TestSubmitBidGates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.openContract(t)

	t.Run("unregistered identity", func(t *testing.T) {
		_, err := f.ledger.SubmitBid(ctx, "ghost", c.ID, 900, 12)
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("pending contractor", func(t *testing.T) {
		_, err := f.registry.Register(ctx, "bob", "Bob & Co")
		require.NoError(t, err)
		_, err = f.ledger.SubmitBid(ctx, "bob", c.ID, 900, 12)
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("revoked contractor", func(t *testing.T) {
		f.approvedContractor(t, "carol")
		require.NoError(t, f.registry.Revoke(ctx, admin, "carol"))
		_, err := f.ledger.SubmitBid(ctx, "carol", c.ID, 900, 12)
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})

	t.Run("missing contract", func(t *testing.T) {
		f.approvedContractor(t, "dave")
		_, err := f.ledger.SubmitBid(ctx, "dave", 9999, 900, 12)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("closed contract", func(t *testing.T) {
		f.approvedContractor(t, "erin")
		f.clock.advance(2 * time.Hour)
		require.NoError(t, f.ledger.CloseContract(ctx, admin, c.ID))
		_, err := f.ledger.SubmitBid(ctx, "erin", c.ID, 900, 12)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

// One bid per contractor per contract, even after withdrawing.
func TestRebidAfterWithdrawFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.approvedContractor(t, "alice")
	c := f.openContract(t)

	b, err := f.ledger.SubmitBid(ctx, "alice", c.ID, 900, 12)
	require.NoError(t, err)

	_, err = f.ledger.SubmitBid(ctx, "alice", c.ID, 850, 10)
	assert.ErrorIs(t, err, domain.ErrAlreadyBid)

	require.NoError(t, f.ledger.WithdrawBid(ctx, "alice", b.ID))

	_, err = f.ledger.SubmitBid(ctx, "alice", c.ID, 850, 10)
	assert.ErrorIs(t, err, domain.ErrAlreadyBid)
}

func TestWithdrawBid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.approvedContractor(t, "alice")
	f.approvedContractor(t, "bob")
	c := f.openContract(t)

	b, err := f.ledger.SubmitBid(ctx, "alice", c.ID, 900, 12)
	require.NoError(t, err)

	t.Run("other contractor cannot withdraw", func(t *testing.T) {
		assert.ErrorIs(t, f.ledger.WithdrawBid(ctx, "bob", b.ID), domain.ErrPermissionDenied)
	})

	t.Run("missing bid", func(t *testing.T) {
		assert.ErrorIs(t, f.ledger.WithdrawBid(ctx, "alice", 9999), domain.ErrNotFound)
	})

	t.Run("owner withdraws", func(t *testing.T) {
		require.NoError(t, f.ledger.WithdrawBid(ctx, "alice", b.ID))
		got, err := f.ledger.GetBid(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BidWithdrawn, got.Status)
	})

	t.Run("withdraw twice fails", func(t *testing.T) {
		assert.ErrorIs(t, f.ledger.WithdrawBid(ctx, "alice", b.ID), domain.ErrInvalidState)
	})
}

func TestWithdrawAfterCloseFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.approvedContractor(t, "alice")
	c := f.openContract(t)

	b, err := f.ledger.SubmitBid(ctx, "alice", c.ID, 900, 12)
	require.NoError(t, err)

	f.clock.advance(2 * time.Hour)
	require.NoError(t, f.ledger.CloseContract(ctx, admin, c.ID))

	assert.ErrorIs(t, f.ledger.WithdrawBid(ctx, "alice", b.ID), domain.ErrInvalidState)
}

func TestAwardBid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.approvedContractor(t, "alice")
	f.approvedContractor(t, "bob")
	c := f.openContract(t)

	bAlice, err := f.ledger.SubmitBid(ctx, "alice", c.ID, 900, 12)
	require.NoError(t, err)
	bBob, err := f.ledger.SubmitBid(ctx, "bob", c.ID, 1100, 8)
	require.NoError(t, err)

	t.Run("award before close fails", func(t *testing.T) {
		assert.ErrorIs(t, f.ledger.AwardBid(ctx, admin, bAlice.ID), domain.ErrInvalidState)
	})

	f.clock.advance(2 * time.Hour)
	require.NoError(t, f.ledger.CloseContract(ctx, admin, c.ID))

	t.Run("award requires admin", func(t *testing.T) {
		assert.ErrorIs(t, f.ledger.AwardBid(ctx, "alice", bAlice.ID), domain.ErrPermissionDenied)
	})

	t.Run("award copies bid terms onto the contract", func(t *testing.T) {
		require.NoError(t, f.ledger.AwardBid(ctx, admin, bAlice.ID))

		got, err := f.ledger.GetContract(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ContractAwarded, got.Status)
		assert.Equal(t, bAlice.ID, got.AwardedBid)
		assert.Equal(t, int64(900), got.AgreedAmount)
		assert.Equal(t, int64(12), got.PlannedDurationDays)

		gotBid, err := f.ledger.GetBid(ctx, bAlice.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BidAwarded, gotBid.Status)
	})

	t.Run("second award fails", func(t *testing.T) {
		assert.ErrorIs(t, f.ledger.AwardBid(ctx, admin, bBob.ID), domain.ErrAlreadyAwarded)
	})
}

func TestAwardWithdrawnBidFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.approvedContractor(t, "alice")
	c := f.openContract(t)

	b, err := f.ledger.SubmitBid(ctx, "alice", c.ID, 900, 12)
	require.NoError(t, err)
	require.NoError(t, f.ledger.WithdrawBid(ctx, "alice", b.ID))

	f.clock.advance(2 * time.Hour)
	require.NoError(t, f.ledger.CloseContract(ctx, admin, c.ID))

	assert.ErrorIs(t, f.ledger.AwardBid(ctx, admin, b.ID), domain.ErrInvalidState)
}

func TestAwardMissingBid(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.ledger.AwardBid(context.Background(), admin, 42), domain.ErrNotFound)
}

// flakyBidWrites fails the next n bid+contract pair writes, passing every
// other operation through to the wrapped store.
type flakyBidWrites struct {
	store.Store
	failures int
}

func (s *flakyBidWrites) PutBidAndContract(ctx context.Context, b *domain.Bid, c *domain.Contract) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("write failed")
	}
	return s.Store.PutBidAndContract(ctx, b, c)
}

// A failed award must leave the bid Submitted and the contract unawarded, so
// at most one bid per contract ever ends up Awarded.
func TestAwardWriteFailureLeavesRecordsUnchanged(t *testing.T) {
	s := &flakyBidWrites{Store: store.NewMemoryStore()}
	f := newFixtureOn(t, s)
	ctx := context.Background()

	f.approvedContractor(t, "alice")
	f.approvedContractor(t, "bob")
	c := f.openContract(t)
	bAlice, err := f.ledger.SubmitBid(ctx, "alice", c.ID, 900, 12)
	require.NoError(t, err)
	bBob, err := f.ledger.SubmitBid(ctx, "bob", c.ID, 1100, 8)
	require.NoError(t, err)

	f.clock.advance(2 * time.Hour)
	require.NoError(t, f.ledger.CloseContract(ctx, admin, c.ID))

	s.failures = 1
	require.Error(t, f.ledger.AwardBid(ctx, admin, bAlice.ID))

	got, err := f.ledger.GetBid(ctx, bAlice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BidSubmitted, got.Status)
	gotC, err := f.ledger.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, gotC.AwardedBid)
	assert.Equal(t, domain.ContractClosed, gotC.Status)

	// Awarding the other bid afterwards yields exactly one Awarded bid.
	require.NoError(t, f.ledger.AwardBid(ctx, admin, bBob.ID))
	awarded := 0
	for _, id := range []int64{bAlice.ID, bBob.ID} {
		b, err := f.ledger.GetBid(ctx, id)
		require.NoError(t, err)
		if b.Status == domain.BidAwarded {
			awarded++
		}
	}
	assert.Equal(t, 1, awarded)
}

// A failed submission must record nothing, so the contractor can bid again.
func TestSubmitBidWriteFailureLeavesNoBid(t *testing.T) {
	s := &flakyBidWrites{Store: store.NewMemoryStore()}
	f := newFixtureOn(t, s)
	ctx := context.Background()

	f.approvedContractor(t, "alice")
	c := f.openContract(t)

	s.failures = 1
	_, err := f.ledger.SubmitBid(ctx, "alice", c.ID, 900, 12)
	require.Error(t, err)

	gotC, err := f.ledger.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, gotC.SubmittedBidIDs)

	b, err := f.ledger.SubmitBid(ctx, "alice", c.ID, 900, 12)
	require.NoError(t, err)
	assert.Equal(t, domain.BidSubmitted, b.Status)
}
