// Package memory provides an in-process objection.Repository for tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jaxxstorm/landlord/internal/objection"
)

// Repository is an in-memory objection.Repository.
type Repository struct {
	mu         sync.Mutex
	objections map[uuid.UUID]*objection.Objection
	byContract map[uuid.UUID][]uuid.UUID
}

func New() *Repository {
	return &Repository{
		objections: make(map[uuid.UUID]*objection.Objection),
		byContract: make(map[uuid.UUID][]uuid.UUID),
	}
}

func clone(o *objection.Objection) *objection.Objection {
	c := *o
	return &c
}

func (r *Repository) Create(ctx context.Context, o *objection.Objection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.Version = 1
	r.objections[o.ID] = clone(o)
	r.byContract[o.ContractID] = append(r.byContract[o.ContractID], o.ID)
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*objection.Objection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.objections[id]
	if !ok {
		return nil, objection.ErrNotFound
	}
	return clone(stored), nil
}

func (r *Repository) ListForContract(ctx context.Context, contractID uuid.UUID) ([]*objection.Objection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*objection.Objection
	for _, id := range r.byContract[contractID] {
		out = append(out, clone(r.objections[id]))
	}
	return out, nil
}

func (r *Repository) ListPendingForContract(ctx context.Context, contractID uuid.UUID) ([]*objection.Objection, error) {
	all, _ := r.ListForContract(ctx, contractID)
	var pending []*objection.Objection
	for _, o := range all {
		if o.Status.IsPending() {
			pending = append(pending, o)
		}
	}
	return pending, nil
}

func (r *Repository) ListAllPending(ctx context.Context) ([]*objection.Objection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*objection.Objection
	for _, o := range r.objections {
		if o.Status.IsPending() {
			out = append(out, clone(o))
		}
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, o *objection.Objection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.objections[o.ID]
	if !ok {
		return objection.ErrNotFound
	}
	if stored.Version != o.Version {
		return objection.ErrVersionConflict
	}
	o.Version++
	r.objections[o.ID] = clone(o)
	return nil
}
