package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/punchamoorthee/tenderops/internal/domain"
	"github.com/punchamoorthee/tenderops/internal/store"
)

// Gate classifies a caller identity as the administrator or an approved
// contractor. The administrator is a single identity injected from
// configuration; contractor approval comes from the registry records.
type Gate struct {
	admin string
	store store.Store
}

func NewGate(adminIdentity string, s store.Store) *Gate {
	return &Gate{admin: adminIdentity, store: s}
}

func (g *Gate) IsAdmin(identity string) bool {
	return identity != "" && identity == g.admin
}

func (g *Gate) RequireAdmin(identity string) error {
	if !g.IsAdmin(identity) {
		return fmt.Errorf("identity %s is not the administrator: %w", identity, domain.ErrPermissionDenied)
	}
	return nil
}

func (g *Gate) RequireApprovedContractor(ctx context.Context, identity string) error {
	c, err := g.store.GetContractor(ctx, identity)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("identity %s is not a registered contractor: %w", identity, domain.ErrPermissionDenied)
		}
		return err
	}
	if c.Status != domain.ContractorApproved {
		return fmt.Errorf("contractor %s is %s, not approved: %w", identity, c.Status, domain.ErrPermissionDenied)
	}
	return nil
}
