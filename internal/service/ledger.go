package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/punchamoorthee/tenderops/internal/domain"
	"github.com/punchamoorthee/tenderops/internal/events"
	"github.com/punchamoorthee/tenderops/internal/store"
)

// Ledger owns contract and bid records and their state machines. Contract
// ids and bid ids come from one shared monotonic counter, so they are
// globally unique across both kinds.
type Ledger struct {
	mu     *sync.Mutex
	store  store.Store
	gate   *Gate
	clock  Clock
	events events.Sink
}

func NewLedger(mu *sync.Mutex, s store.Store, gate *Gate, clock Clock, sink events.Sink) *Ledger {
	return &Ledger{mu: mu, store: s, gate: gate, clock: clock, events: sink}
}

type CreateContractParams struct {
	Description              string
	BidDeadline              time.Time
	DailyPenaltyRatePerMille int64
	MaxPenaltyPercent        int64
}

func (l *Ledger) CreateContract(ctx context.Context, caller string, p CreateContractParams) (*domain.Contract, error) {
	if err := l.gate.RequireAdmin(caller); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	id, err := l.store.NextID(ctx)
	if err != nil {
		return nil, err
	}

	c := &domain.Contract{
		ID:                       id,
		Description:              p.Description,
		BidDeadline:              p.BidDeadline,
		DailyPenaltyRatePerMille: p.DailyPenaltyRatePerMille,
		MaxPenaltyPercent:        p.MaxPenaltyPercent,
		Status:                   domain.ContractOpen,
	}
	if err := l.store.PutContract(ctx, c); err != nil {
		return nil, err
	}
	l.events.Emit("contract.created", fmt.Sprint(id), string(c.Status))
	return c, nil
}

// CloseContract ends the bidding phase. Only legal once the bid deadline has
// passed.
func (l *Ledger) CloseContract(ctx context.Context, caller string, id int64) error {
	if err := l.gate.RequireAdmin(caller); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.store.GetContract(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != domain.ContractOpen {
		return fmt.Errorf("contract %d is %s: %w", id, c.Status, domain.ErrInvalidState)
	}
	if !l.clock.Now().After(c.BidDeadline) {
		return fmt.Errorf("contract %d: %w", id, domain.ErrDeadlineNotPassed)
	}
	c.Status = domain.ContractClosed
	if err := l.store.PutContract(ctx, c); err != nil {
		return err
	}
	l.events.Emit("contract.closed", fmt.Sprint(id), string(c.Status))
	return nil
}

// CancelContract moves the contract to Canceled from any other status and
// clears the awarded bid reference. The awarded bid's own status is not
// reversed; the Canceled state is terminal.
func (l *Ledger) CancelContract(ctx context.Context, caller string, id int64) error {
	if err := l.gate.RequireAdmin(caller); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.store.GetContract(ctx, id)
	if err != nil {
		return err
	}
	if c.Status == domain.ContractCanceled {
		return fmt.Errorf("contract %d already canceled: %w", id, domain.ErrInvalidState)
	}
	c.Status = domain.ContractCanceled
	c.AwardedBid = 0
	if err := l.store.PutContract(ctx, c); err != nil {
		return err
	}
	l.events.Emit("contract.canceled", fmt.Sprint(id), string(c.Status))
	return nil
}

func (l *Ledger) StartWork(ctx context.Context, caller string, id int64) error {
	if err := l.gate.RequireAdmin(caller); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.store.GetContract(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != domain.ContractAwarded {
		return fmt.Errorf("contract %d is %s, want Awarded: %w", id, c.Status, domain.ErrInvalidState)
	}
	c.Status = domain.ContractWorkInProgress
	c.WorkStartedAt = l.clock.Now()
	if err := l.store.PutContract(ctx, c); err != nil {
		return err
	}
	l.events.Emit("contract.work_started", fmt.Sprint(id), string(c.Status))
	return nil
}

func (l *Ledger) CompleteWork(ctx context.Context, caller string, id int64) error {
	if err := l.gate.RequireAdmin(caller); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c, err := l.store.GetContract(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != domain.ContractWorkInProgress {
		return fmt.Errorf("contract %d is %s, want WorkInProgress: %w", id, c.Status, domain.ErrInvalidState)
	}
	c.Status = domain.ContractWorkCompleted
	c.WorkCompletedAt = l.clock.Now()
	if err := l.store.PutContract(ctx, c); err != nil {
		return err
	}
	l.events.Emit("contract.work_completed", fmt.Sprint(id), string(c.Status))
	return nil
}

func (l *Ledger) GetContract(ctx context.Context, id int64) (*domain.Contract, error) {
	return l.store.GetContract(ctx, id)
}
