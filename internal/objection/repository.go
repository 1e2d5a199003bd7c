package objection

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence port for objections, keyed by contract.
type Repository interface {
	Create(ctx context.Context, o *Objection) error
	GetByID(ctx context.Context, id uuid.UUID) (*Objection, error)
	ListForContract(ctx context.Context, contractID uuid.UUID) ([]*Objection, error)
	ListPendingForContract(ctx context.Context, contractID uuid.UUID) ([]*Objection, error)
	ListAllPending(ctx context.Context) ([]*Objection, error)
	Update(ctx context.Context, o *Objection) error
}
