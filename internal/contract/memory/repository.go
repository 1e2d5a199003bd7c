// Package memory provides an in-process Repository implementation used by
// unit tests. It mirrors
// the locking/shape discipline of the postgres repository without a real
// database.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jaxxstorm/landlord/internal/contract"
)

// Repository is a mutex-guarded, in-memory contract.Repository.
type Repository struct {
	mu          sync.Mutex
	contracts   map[uuid.UUID]*contract.Contract
	byNumber    map[string]uuid.UUID
	history     map[uuid.UUID][]*contract.WorkflowHistoryEntry
	sequences   map[string]int
}

// New constructs an empty in-memory repository.
func New() *Repository {
	return &Repository{
		contracts: make(map[uuid.UUID]*contract.Contract),
		byNumber:  make(map[string]uuid.UUID),
		history:   make(map[uuid.UUID][]*contract.WorkflowHistoryEntry),
		sequences: make(map[string]int),
	}
}

func clone(c *contract.Contract) *contract.Contract {
	cp := *c
	return &cp
}

// CreateContract stores c, populating nothing beyond what the caller set.
func (r *Repository) CreateContract(_ context.Context, c *contract.Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byNumber[c.ContractNumber]; exists {
		return contract.ErrValidation
	}
	r.contracts[c.ID] = clone(c)
	r.byNumber[c.ContractNumber] = c.ID
	return nil
}

// GetContractByID returns a copy of the stored contract.
func (r *Repository) GetContractByID(_ context.Context, id uuid.UUID) (*contract.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contracts[id]
	if !ok {
		return nil, contract.ErrNotFound
	}
	return clone(c), nil
}

// GetContractByNumber returns a copy of the stored contract.
func (r *Repository) GetContractByNumber(ctx context.Context, number string) (*contract.Contract, error) {
	r.mu.Lock()
	id, ok := r.byNumber[number]
	r.mu.Unlock()
	if !ok {
		return nil, contract.ErrNotFound
	}
	return r.GetContractByID(ctx, id)
}

// UpdateContract performs an optimistic-locking compare-and-swap on Version.
func (r *Repository) UpdateContract(_ context.Context, c *contract.Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.contracts[c.ID]
	if !ok {
		return contract.ErrNotFound
	}
	if existing.Version != c.Version {
		return contract.ErrVersionConflict
	}
	c.Version++
	r.contracts[c.ID] = clone(c)
	return nil
}

// ListContracts applies the supported filters over the in-memory set.
func (r *Repository) ListContracts(_ context.Context, filters contract.ListFilters) ([]*contract.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*contract.Contract
	for _, c := range r.contracts {
		if filters.LandlordID != nil && c.LandlordID != *filters.LandlordID {
			continue
		}
		if filters.TenantID != nil && (c.TenantID == nil || *c.TenantID != *filters.TenantID) {
			continue
		}
		if len(filters.States) > 0 && !containsStatus(filters.States, c.CurrentState) {
			continue
		}
		out = append(out, clone(c))
	}
	return out, nil
}

func containsStatus(states []contract.Status, s contract.Status) bool {
	for _, st := range states {
		if st == s {
			return true
		}
	}
	return false
}

// AppendHistory appends entry to the contract's history log.
func (r *Repository) AppendHistory(_ context.Context, entry *contract.WorkflowHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history[entry.ContractID] = append(r.history[entry.ContractID], entry)
	return nil
}

// GetHistory returns the contract's history, oldest first.
func (r *Repository) GetHistory(_ context.Context, contractID uuid.UUID) ([]*contract.WorkflowHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*contract.WorkflowHistoryEntry(nil), r.history[contractID]...), nil
}

// AddGuarantee appends a guarantee to its contract's Guarantees slice.
func (r *Repository) AddGuarantee(_ context.Context, g *contract.Guarantee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contracts[g.ContractID]
	if !ok {
		return contract.ErrNotFound
	}
	c.Guarantees = append(c.Guarantees, *g)
	return nil
}

// UpdateGuarantee replaces a guarantee by ID within its contract.
func (r *Repository) UpdateGuarantee(_ context.Context, g *contract.Guarantee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contracts[g.ContractID]
	if !ok {
		return contract.ErrNotFound
	}
	for i := range c.Guarantees {
		if c.Guarantees[i].ID == g.ID {
			c.Guarantees[i] = *g
			return nil
		}
	}
	return contract.ErrNotFound
}

// NextSequence implements identity.Counter.
func (r *Repository) NextSequence(_ context.Context, bucket string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sequences[bucket]++
	return r.sequences[bucket], nil
}
