package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/punchamoorthee/tenderops/internal/domain"
)

// MemoryStore keeps all records in process memory. Used by tests and local
// development; the production deployment uses the Postgres store.
type MemoryStore struct {
	mu          sync.Mutex
	contractors map[string]domain.Contractor
	contracts   map[int64]domain.Contract
	bids        map[int64]domain.Bid
	accounts    map[string]int64
	nextID      int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contractors: make(map[string]domain.Contractor),
		contracts:   make(map[int64]domain.Contract),
		bids:        make(map[int64]domain.Bid),
		accounts:    make(map[string]int64),
	}
}

func (m *MemoryStore) GetContractor(ctx context.Context, identity string) (*domain.Contractor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contractors[identity]
	if !ok {
		return nil, fmt.Errorf("contractor %s: %w", identity, domain.ErrNotFound)
	}
	return &c, nil
}

func (m *MemoryStore) PutContractor(ctx context.Context, c *domain.Contractor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contractors[c.Identity] = *c
	return nil
}

func (m *MemoryStore) GetContract(ctx context.Context, id int64) (*domain.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[id]
	if !ok {
		return nil, fmt.Errorf("contract %d: %w", id, domain.ErrNotFound)
	}
	c.SubmittedBidIDs = append([]int64(nil), c.SubmittedBidIDs...)
	return &c, nil
}

func (m *MemoryStore) PutContract(ctx context.Context, c *domain.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *c
	stored.SubmittedBidIDs = append([]int64(nil), c.SubmittedBidIDs...)
	m.contracts[c.ID] = stored
	return nil
}

func (m *MemoryStore) GetBid(ctx context.Context, id int64) (*domain.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bids[id]
	if !ok {
		return nil, fmt.Errorf("bid %d: %w", id, domain.ErrNotFound)
	}
	return &b, nil
}

func (m *MemoryStore) PutBid(ctx context.Context, b *domain.Bid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bids[b.ID] = *b
	return nil
}

func (m *MemoryStore) PutBidAndContract(ctx context.Context, b *domain.Bid, c *domain.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bids[b.ID] = *b
	stored := *c
	stored.SubmittedBidIDs = append([]int64(nil), c.SubmittedBidIDs...)
	m.contracts[c.ID] = stored
	return nil
}

func (m *MemoryStore) HasBid(ctx context.Context, contractID int64, identity string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bids {
		if b.ContractID == contractID && b.ContractorIdentity == identity {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) NextID(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return m.nextID, nil
}

func (m *MemoryStore) GetAccount(ctx context.Context, identity string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &domain.Account{Identity: identity, Balance: m.accounts[identity]}, nil
}

func (m *MemoryStore) SettleEscrow(ctx context.Context, contractID int64, identity string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[contractID]
	if !ok {
		return fmt.Errorf("contract %d: %w", contractID, domain.ErrNotFound)
	}
	if c.EscrowBalance < amount {
		return domain.ErrInsufficientFunds
	}
	c.EscrowBalance -= amount
	c.IsPaid = true
	m.contracts[contractID] = c
	m.accounts[identity] += amount
	return nil
}
