package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/punchamoorthee/tenderops/internal/domain"
	"github.com/punchamoorthee/tenderops/internal/events"
	"github.com/punchamoorthee/tenderops/internal/funds"
	"github.com/punchamoorthee/tenderops/internal/store"
)

// Settlement computes and authorizes the penalty-adjusted payment for a
// completed contract, drawing on the contract's escrowed balance.
type Settlement struct {
	mu         *sync.Mutex
	store      store.Store
	gate       *Gate
	transferor funds.Transferor
	events     events.Sink
}

func NewSettlement(mu *sync.Mutex, s store.Store, gate *Gate, t funds.Transferor, sink events.Sink) *Settlement {
	return &Settlement{mu: mu, store: s, gate: gate, transferor: t, events: sink}
}

// DepositEscrow funds the contract. The deposit must cover the agreed
// amount, and the agreed amount is overwritten with the deposited amount.
func (s *Settlement) DepositEscrow(ctx context.Context, caller string, contractID, amount int64) error {
	if err := s.gate.RequireAdmin(caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		return err
	}
	if amount < c.AgreedAmount {
		return fmt.Errorf("deposit %d below agreed amount %d: %w", amount, c.AgreedAmount, domain.ErrInsufficientFunds)
	}
	c.AgreedAmount = amount
	c.EscrowBalance += amount
	if err := s.store.PutContract(ctx, c); err != nil {
		return err
	}
	s.events.Emit("escrow.deposited", fmt.Sprint(contractID), fmt.Sprint(c.EscrowBalance))
	return nil
}

// CalculatePayment returns the payout for a completed contract without
// moving any money.
func (s *Settlement) CalculatePayment(ctx context.Context, contractID int64) (int64, error) {
	c, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		return 0, err
	}
	if c.Status != domain.ContractWorkCompleted {
		return 0, fmt.Errorf("contract %d is %s, want WorkCompleted: %w", contractID, c.Status, domain.ErrInvalidState)
	}
	return paymentFor(c), nil
}

// paymentFor applies the penalty formula. Overrun is signed: finishing early
// or on time pays the agreed amount in full. A late finish is charged
// agreedAmount * rate * overrunDays / 1000; once the penalty exceeds the cap
// (agreedAmount * maxPenaltyPercent / 100), the payout is the cap itself.
func paymentFor(c *domain.Contract) int64 {
	actualDays := int64(c.WorkCompletedAt.Sub(c.WorkStartedAt) / (24 * time.Hour))
	overrun := actualDays - c.PlannedDurationDays
	if overrun <= 0 {
		return c.AgreedAmount
	}

	penalty := c.AgreedAmount * c.DailyPenaltyRatePerMille * overrun / 1000
	capAmount := c.AgreedAmount * c.MaxPenaltyPercent / 100
	if penalty > capAmount {
		return capAmount
	}
	return c.AgreedAmount - penalty
}

// PayAwardedBid settles a completed contract exactly once: computes the
// payment, moves it from escrow to the awarded contractor, and marks the
// contract paid. A failed transfer leaves every record untouched.
func (s *Settlement) PayAwardedBid(ctx context.Context, caller string, contractID int64) (int64, error) {
	if err := s.gate.RequireAdmin(caller); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		return 0, err
	}
	if c.Status != domain.ContractWorkCompleted {
		return 0, fmt.Errorf("contract %d is %s, want WorkCompleted: %w", contractID, c.Status, domain.ErrInvalidState)
	}
	if c.IsPaid {
		return 0, fmt.Errorf("contract %d: %w", contractID, domain.ErrAlreadyPaid)
	}

	b, err := s.store.GetBid(ctx, c.AwardedBid)
	if err != nil {
		return 0, err
	}
	if _, err := s.store.GetContractor(ctx, b.ContractorIdentity); err != nil {
		return 0, err
	}

	payment := paymentFor(c)
	if c.EscrowBalance < payment {
		return 0, fmt.Errorf("escrow %d below payment %d: %w", c.EscrowBalance, payment, domain.ErrInsufficientFunds)
	}

	// The transfer debits escrow, credits the contractor, and marks the
	// contract paid in one atomic step. Either all of it happens or none.
	if err := s.transferor.Transfer(ctx, contractID, b.ContractorIdentity, payment); err != nil {
		return 0, fmt.Errorf("fund transfer failed: %w", err)
	}
	s.events.Emit("contract.paid", fmt.Sprint(contractID), fmt.Sprint(payment))
	return payment, nil
}

// EscrowBalance reports the funds still held for a contract.
func (s *Settlement) EscrowBalance(ctx context.Context, contractID int64) (int64, error) {
	c, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		return 0, err
	}
	return c.EscrowBalance, nil
}

// AccountBalance reports a contractor's payout balance.
func (s *Settlement) AccountBalance(ctx context.Context, identity string) (int64, error) {
	acc, err := s.store.GetAccount(ctx, identity)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}
