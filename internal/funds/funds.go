package funds

import (
	"context"
	"fmt"

	"github.com/punchamoorthee/tenderops/internal/store"
)

// Transferor moves money to a contractor identity and marks the source
// contract settled. A failed transfer must leave all records untouched.
type Transferor interface {
	Transfer(ctx context.Context, contractID int64, identity string, amount int64) error
}

// LedgerTransfer settles payments out of the contract's escrow balance into
// the contractor's account, atomically through the store.
type LedgerTransfer struct {
	store store.Store
}

func NewLedgerTransfer(s store.Store) *LedgerTransfer {
	return &LedgerTransfer{store: s}
}

func (t *LedgerTransfer) Transfer(ctx context.Context, contractID int64, identity string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %d", amount)
	}
	return t.store.SettleEscrow(ctx, contractID, identity, amount)
}
