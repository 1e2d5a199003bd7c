package invitation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence port for invitations, keyed by contract.
type Repository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invitation, error)
	GetByTokenHash(ctx context.Context, hash string) (*Invitation, error)
	GetLatestForContract(ctx context.Context, contractID uuid.UUID) (*Invitation, error)
	Update(ctx context.Context, inv *Invitation) error

	// ListExpirable returns invitations with status in {sent, opened} whose
	// expires_at is at or before now, for cleanup_expired().
	ListExpirable(ctx context.Context, now time.Time) ([]*Invitation, error)
}
