package matching

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence port for match requests, criteria, and
// the property listings matching scores and filters against.
type Repository interface {
	CreateMatchRequest(ctx context.Context, m *MatchRequest) error
	GetMatchRequestByID(ctx context.Context, id uuid.UUID) (*MatchRequest, error)
	GetActiveForPair(ctx context.Context, tenantID, propertyID uuid.UUID) (*MatchRequest, error)
	ListForLandlord(ctx context.Context, landlordID uuid.UUID) ([]*MatchRequest, error)
	ListExpirable(ctx context.Context, now time.Time) ([]*MatchRequest, error)
	ListForFollowUp(ctx context.Context, now time.Time) ([]*MatchRequest, error)
	UpdateMatchRequest(ctx context.Context, m *MatchRequest) error
	CountSubmittedSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int, error)

	GetCriteria(ctx context.Context, tenantID uuid.UUID) (*MatchCriteria, error)
	ListAutoApplyCriteria(ctx context.Context, frequency string) ([]*MatchCriteria, error)

	GetProperty(ctx context.Context, id uuid.UUID) (*Property, error)
	ListProperties(ctx context.Context, filter PropertyFilter) ([]*Property, error)
}
