package contract

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilters restricts ListContracts results.
type ListFilters struct {
	LandlordID *uuid.UUID
	TenantID   *uuid.UUID
	States     []Status

	CreatedAfter  *time.Time
	CreatedBefore *time.Time

	Limit  int
	Offset int
}

// Repository is the persistence port for contracts and their owned
// sub-entities (history, guarantees). Invitations and objections have
// their own repositories (internal/invitation, internal/objection) keyed
// by contract ID.
//
// UpdateContract uses optimistic locking on Version, mirroring the
// teacher's tenant.Repository: callers must load-check-mutate-save within
// a single logical operation, and any mutation path must append exactly
// one WorkflowHistoryEntry in the same call (invariant (e), §3).
type Repository interface {
	CreateContract(ctx context.Context, c *Contract) error
	GetContractByID(ctx context.Context, id uuid.UUID) (*Contract, error)
	GetContractByNumber(ctx context.Context, number string) (*Contract, error)
	UpdateContract(ctx context.Context, c *Contract) error
	ListContracts(ctx context.Context, filters ListFilters) ([]*Contract, error)

	AppendHistory(ctx context.Context, entry *WorkflowHistoryEntry) error
	GetHistory(ctx context.Context, contractID uuid.UUID) ([]*WorkflowHistoryEntry, error)

	AddGuarantee(ctx context.Context, g *Guarantee) error
	UpdateGuarantee(ctx context.Context, g *Guarantee) error

	// NextSequence implements identity.Counter for the contract-number
	// allocator (C1): race-safe per-bucket increment.
	NextSequence(ctx context.Context, bucket string) (int, error)
}

// Stats aggregates landlord-facing contract statistics (supplemented from
// dashboard/services.py, see SPEC_FULL.md §3).
type Stats struct {
	TotalContracts        int            `json:"total_contracts"`
	CountByState           map[Status]int `json:"count_by_state"`
	AverageCompletionPct   float64        `json:"average_completion_pct"`
	AverageDaysToPublish   float64        `json:"average_days_to_publish"`
}
