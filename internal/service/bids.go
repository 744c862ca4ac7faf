package service

import (
	"context"
	"fmt"

	"github.com/punchamoorthee/tenderops/internal/domain"
)

// SubmitBid records an approved contractor's offer against an open contract.
// One bid per contractor per contract, in any status; withdrawing does not
// free the slot.
func (l *Ledger) SubmitBid(ctx context.Context, caller string, contractID, amount, durationDays int64) (*domain.Bid, error) {
	if err := l.gate.RequireApprovedContractor(ctx, caller); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.store.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c.Status != domain.ContractOpen {
		return nil, fmt.Errorf("contract %d is %s, not open for bidding: %w", contractID, c.Status, domain.ErrInvalidState)
	}

	taken, err := l.store.HasBid(ctx, contractID, caller)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("contractor %s on contract %d: %w", caller, contractID, domain.ErrAlreadyBid)
	}

	id, err := l.store.NextID(ctx)
	if err != nil {
		return nil, err
	}

	b := &domain.Bid{
		ID:                 id,
		ContractorIdentity: caller,
		ContractID:         contractID,
		Amount:             amount,
		DurationDays:       durationDays,
		Status:             domain.BidSubmitted,
	}
	c.SubmittedBidIDs = append(c.SubmittedBidIDs, id)
	if err := l.store.PutBidAndContract(ctx, b, c); err != nil {
		return nil, err
	}
	l.events.Emit("bid.submitted", fmt.Sprint(id), string(b.Status))
	return b, nil
}

// WithdrawBid retracts the caller's own submitted bid while the contract is
// still open.
func (l *Ledger) WithdrawBid(ctx context.Context, caller string, bidID int64) error {
	if err := l.gate.RequireApprovedContractor(ctx, caller); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := l.store.GetBid(ctx, bidID)
	if err != nil {
		return err
	}
	if b.Status != domain.BidSubmitted {
		return fmt.Errorf("bid %d is %s, want Submitted: %w", bidID, b.Status, domain.ErrInvalidState)
	}

	c, err := l.store.GetContract(ctx, b.ContractID)
	if err != nil {
		return err
	}
	if c.Status != domain.ContractOpen {
		return fmt.Errorf("contract %d is %s, bidding closed: %w", c.ID, c.Status, domain.ErrInvalidState)
	}
	if b.ContractorIdentity != caller {
		return fmt.Errorf("bid %d belongs to another contractor: %w", bidID, domain.ErrPermissionDenied)
	}

	b.Status = domain.BidWithdrawn
	if err := l.store.PutBid(ctx, b); err != nil {
		return err
	}
	l.events.Emit("bid.withdrawn", fmt.Sprint(bidID), string(b.Status))
	return nil
}

// AwardBid selects the winning bid on a closed contract. The bid's amount
// and duration become the contract's agreed price and planned duration.
func (l *Ledger) AwardBid(ctx context.Context, caller string, bidID int64) error {
	if err := l.gate.RequireAdmin(caller); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := l.store.GetBid(ctx, bidID)
	if err != nil {
		return err
	}
	c, err := l.store.GetContract(ctx, b.ContractID)
	if err != nil {
		return err
	}
	// Checked before the status preconditions so a second award on the same
	// contract surfaces as AlreadyAwarded, not InvalidState.
	if c.AwardedBid != 0 {
		return fmt.Errorf("contract %d: %w", c.ID, domain.ErrAlreadyAwarded)
	}
	if c.Status != domain.ContractClosed {
		return fmt.Errorf("contract %d is %s, want Closed: %w", c.ID, c.Status, domain.ErrInvalidState)
	}
	if b.Status != domain.BidSubmitted {
		return fmt.Errorf("bid %d is %s, want Submitted: %w", bidID, b.Status, domain.ErrInvalidState)
	}
	if !containsID(c.SubmittedBidIDs, bidID) {
		return fmt.Errorf("bid %d not recorded on contract %d: %w", bidID, c.ID, domain.ErrNotFound)
	}

	b.Status = domain.BidAwarded
	c.AwardedBid = bidID
	c.AgreedAmount = b.Amount
	c.PlannedDurationDays = b.DurationDays
	c.Status = domain.ContractAwarded

	// One transactional write: an Awarded bid must never exist without the
	// contract pointing back at it.
	if err := l.store.PutBidAndContract(ctx, b, c); err != nil {
		return err
	}
	l.events.Emit("bid.awarded", fmt.Sprint(bidID), string(b.Status))
	return nil
}

func (l *Ledger) GetBid(ctx context.Context, id int64) (*domain.Bid, error) {
	return l.store.GetBid(ctx, id)
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
