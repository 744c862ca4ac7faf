package store

import (
	"context"

	"github.com/punchamoorthee/tenderops/internal/domain"
)

// Store is the durable persistence collaborator for the three record maps,
// the contractor payout accounts, and the shared id counter. Lookups return
// domain.ErrNotFound when the key is absent.
type Store interface {
	GetContractor(ctx context.Context, identity string) (*domain.Contractor, error)
	PutContractor(ctx context.Context, c *domain.Contractor) error

	GetContract(ctx context.Context, id int64) (*domain.Contract, error)
	PutContract(ctx context.Context, c *domain.Contract) error

	GetBid(ctx context.Context, id int64) (*domain.Bid, error)
	PutBid(ctx context.Context, b *domain.Bid) error
	// PutBidAndContract persists the bid and its contract as one atomic
	// write. A failure leaves both records unchanged.
	PutBidAndContract(ctx context.Context, b *domain.Bid, c *domain.Contract) error
	// HasBid reports whether the identity has any bid, in any status,
	// recorded against the contract.
	HasBid(ctx context.Context, contractID int64, identity string) (bool, error)

	// NextID allocates the next id from the counter shared by contracts and
	// bids. The first allocated id is 1; 0 always means "absent".
	NextID(ctx context.Context) (int64, error)

	// GetAccount returns the payout account for an identity. An identity
	// that has never been credited has a zero balance.
	GetAccount(ctx context.Context, identity string) (*domain.Account, error)

	// SettleEscrow atomically debits the contract's escrow balance, marks
	// the contract paid, and credits the identity's account. Fails with
	// domain.ErrInsufficientFunds if the escrow balance is below amount,
	// leaving every record untouched. The paid flag and the money always
	// move together.
	SettleEscrow(ctx context.Context, contractID int64, identity string, amount int64) error
}
