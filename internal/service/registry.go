package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/punchamoorthee/tenderops/internal/domain"
	"github.com/punchamoorthee/tenderops/internal/events"
	"github.com/punchamoorthee/tenderops/internal/store"
)

// Registry owns contractor records and their approval state machine:
// PendingApproval -> {Approved, Rejected}, Approved -> Revoked. Rejected and
// Revoked are terminal.
type Registry struct {
	mu     *sync.Mutex
	store  store.Store
	gate   *Gate
	clock  Clock
	events events.Sink
}

func NewRegistry(mu *sync.Mutex, s store.Store, gate *Gate, clock Clock, sink events.Sink) *Registry {
	return &Registry{mu: mu, store: s, gate: gate, clock: clock, events: sink}
}

// Register creates a PendingApproval record for the identity. At most one
// record per identity, ever.
func (r *Registry) Register(ctx context.Context, identity, displayName string) (*domain.Contractor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.store.GetContractor(ctx, identity)
	if err == nil {
		return nil, fmt.Errorf("contractor %s: %w", identity, domain.ErrAlreadyExists)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	c := &domain.Contractor{
		Identity:    identity,
		DisplayName: displayName,
		Status:      domain.ContractorPending,
		CreatedAt:   r.clock.Now(),
	}
	if err := r.store.PutContractor(ctx, c); err != nil {
		return nil, err
	}
	r.events.Emit("contractor.registered", identity, string(c.Status))
	return c, nil
}

func (r *Registry) Approve(ctx context.Context, caller, identity string) error {
	return r.transition(ctx, caller, identity, domain.ContractorPending, domain.ContractorApproved, "contractor.approved")
}

func (r *Registry) Reject(ctx context.Context, caller, identity string) error {
	return r.transition(ctx, caller, identity, domain.ContractorPending, domain.ContractorRejected, "contractor.rejected")
}

func (r *Registry) Revoke(ctx context.Context, caller, identity string) error {
	return r.transition(ctx, caller, identity, domain.ContractorApproved, domain.ContractorRevoked, "contractor.revoked")
}

func (r *Registry) transition(ctx context.Context, caller, identity string, from, to domain.ContractorStatus, kind string) error {
	if err := r.gate.RequireAdmin(caller); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.store.GetContractor(ctx, identity)
	if err != nil {
		return err
	}
	if c.Status != from {
		return fmt.Errorf("contractor %s is %s, want %s: %w", identity, c.Status, from, domain.ErrInvalidState)
	}
	c.Status = to
	if err := r.store.PutContractor(ctx, c); err != nil {
		return err
	}
	r.events.Emit(kind, identity, string(to))
	return nil
}

// StatusOf returns the contractor's approval status.
func (r *Registry) StatusOf(ctx context.Context, identity string) (domain.ContractorStatus, error) {
	c, err := r.store.GetContractor(ctx, identity)
	if err != nil {
		return "", err
	}
	return c.Status, nil
}

func (r *Registry) Get(ctx context.Context, identity string) (*domain.Contractor, error) {
	return r.store.GetContractor(ctx, identity)
}
