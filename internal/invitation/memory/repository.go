// Package memory provides an in-process invitation.Repository for tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaxxstorm/landlord/internal/invitation"
)

// Repository is an in-memory invitation.Repository.
type Repository struct {
	mu          sync.Mutex
	invitations map[uuid.UUID]*invitation.Invitation
	byHash      map[string]uuid.UUID
	byContract  map[uuid.UUID][]uuid.UUID
}

// New builds an empty in-memory Repository.
func New() *Repository {
	return &Repository{
		invitations: make(map[uuid.UUID]*invitation.Invitation),
		byHash:      make(map[string]uuid.UUID),
		byContract:  make(map[uuid.UUID][]uuid.UUID),
	}
}

func clone(inv *invitation.Invitation) *invitation.Invitation {
	c := *inv
	return &c
}

func (r *Repository) Create(ctx context.Context, inv *invitation.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	inv.Version = 1
	stored := clone(inv)
	r.invitations[inv.ID] = stored
	r.byHash[inv.TokenHash] = inv.ID
	r.byContract[inv.ContractID] = append(r.byContract[inv.ContractID], inv.ID)
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*invitation.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.invitations[id]
	if !ok {
		return nil, invitation.ErrNotFound
	}
	return clone(stored), nil
}

func (r *Repository) GetByTokenHash(ctx context.Context, hash string) (*invitation.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byHash[hash]
	if !ok {
		return nil, invitation.ErrNotFound
	}
	return clone(r.invitations[id]), nil
}

func (r *Repository) GetLatestForContract(ctx context.Context, contractID uuid.UUID) (*invitation.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.byContract[contractID]
	if len(ids) == 0 {
		return nil, invitation.ErrNotFound
	}
	var latest *invitation.Invitation
	for _, id := range ids {
		inv := r.invitations[id]
		if latest == nil || inv.CreatedAt.After(latest.CreatedAt) {
			latest = inv
		}
	}
	return clone(latest), nil
}

func (r *Repository) Update(ctx context.Context, inv *invitation.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.invitations[inv.ID]
	if !ok {
		return invitation.ErrNotFound
	}
	if stored.Version != inv.Version {
		return invitation.ErrVersionConflict
	}
	delete(r.byHash, stored.TokenHash)
	inv.Version++
	next := clone(inv)
	r.invitations[inv.ID] = next
	r.byHash[next.TokenHash] = inv.ID
	*inv = *next
	return nil
}

func (r *Repository) ListExpirable(ctx context.Context, now time.Time) ([]*invitation.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*invitation.Invitation
	for _, inv := range r.invitations {
		if (inv.Status == invitation.StatusSent || inv.Status == invitation.StatusOpened) && !now.Before(inv.ExpiresAt) {
			out = append(out, clone(inv))
		}
	}
	return out, nil
}
