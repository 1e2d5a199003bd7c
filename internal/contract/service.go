package contract

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/identity"
)

// Notifier is the narrow port the contract service uses to fan out events.
// It is satisfied by internal/notification's dispatcher adapter; the
// contract package never imports internal/notification directly (§9:
// notification<->contract is by id only, no back-pointer ownership).
type Notifier interface {
	NotifyContractEvent(ctx context.Context, contractID uuid.UUID, recipient uuid.UUID, event string, data JSONMap)
}

type noopNotifier struct{}

func (noopNotifier) NotifyContractEvent(context.Context, uuid.UUID, uuid.UUID, string, JSONMap) {}

// Service is the C4/C8 engine: the only writer of Contract state and
// history. All mutation paths go through Mutate, which serializes access
// per contract (§5: "state and history mutations are serialized by a
// per-contract mutex"), re-reads the latest state, and appends exactly one
// history entry per call.
type Service struct {
	repo      Repository
	allocator *identity.Allocator
	clock     identity.Clock
	notifier  Notifier
	logger    *zap.Logger

	locks   sync.Map // uuid.UUID -> *sync.Mutex
	locksMu sync.Mutex
}

// NewService builds a contract Service.
func NewService(repo Repository, clock identity.Clock, notifier Notifier, logger *zap.Logger) *Service {
	if clock == nil {
		clock = identity.SystemClock{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Service{
		repo:      repo,
		allocator: identity.NewAllocator(repo, clock),
		clock:     clock,
		notifier:  notifier,
		logger:    logger.With(zap.String("component", "contract-service")),
	}
}

func (s *Service) lockFor(id uuid.UUID) *sync.Mutex {
	if m, ok := s.locks.Load(id); ok {
		return m.(*sync.Mutex)
	}
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if m, ok := s.locks.Load(id); ok {
		return m.(*sync.Mutex)
	}
	m := &sync.Mutex{}
	s.locks.Store(id, m)
	return m
}

// MutationFunc mutates the loaded contract in place and describes the
// history entry to append. Returning newState == "" means the call does
// not transition state (e.g. saving landlord_data mid-DRAFT).
type MutationFunc func(c *Contract) (action ActionType, description string, changes JSONMap, newState Status, err error)

// Mutate loads the contract, serializes with its per-contract lock, applies
// fn, validates any requested transition against the role gate, persists
// the contract and exactly one history entry, and returns the updated
// contract.
func (s *Service) Mutate(ctx context.Context, contractID uuid.UUID, performedBy uuid.UUID, role Role, meta HistoryMetadata, fn MutationFunc) (*Contract, *WorkflowHistoryEntry, error) {
	mu := s.lockFor(contractID)
	mu.Lock()
	defer mu.Unlock()

	c, err := s.repo.GetContractByID(ctx, contractID)
	if err != nil {
		return nil, nil, err
	}

	oldState := c.CurrentState
	action, description, changes, newState, err := fn(c)
	if err != nil {
		return nil, nil, err
	}

	if newState != "" && newState != oldState {
		if err := CheckTransition(oldState, newState, role); err != nil {
			return nil, nil, err
		}
		c.CurrentState = newState
	}

	if !c.distinctPartiesOK() {
		return nil, nil, ErrSameParty
	}

	now := s.clock.Now()
	c.UpdatedAt = now

	if err := s.repo.UpdateContract(ctx, c); err != nil {
		return nil, nil, err
	}

	recordedNew := c.CurrentState
	entry := NewHistoryEntry(contractID, action, description, performedBy, role, oldState, recordedNew, changes, meta, now)
	if err := s.repo.AppendHistory(ctx, entry); err != nil {
		return nil, nil, fmt.Errorf("append history: %w", err)
	}

	return c, entry, nil
}

// CreateDraft creates a new contract in DRAFT, owned by landlord, for the
// given property. It allocates the contract number (C1) and appends the
// DRAFT_CREATED history entry.
func (s *Service) CreateDraft(ctx context.Context, landlordID, propertyID uuid.UUID, contractType ContractType, meta HistoryMetadata) (*Contract, error) {
	number, err := s.allocator.Next(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	c := &Contract{
		ID:             uuid.New(),
		ContractNumber: number,
		ContractType:   contractType,
		CurrentState:   StatusDraft,
		LandlordID:     landlordID,
		PropertyID:     propertyID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateContract(ctx, c); err != nil {
		return nil, err
	}

	entry := NewHistoryEntry(c.ID, ActionDraftCreated, "contract draft created", landlordID, RoleLandlord, "", StatusDraft, nil, meta, now)
	if err := s.repo.AppendHistory(ctx, entry); err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}
	return c, nil
}

// CompleteLandlordData stores landlord_data/economic_terms/contract_terms
// and transitions DRAFT/LANDLORD_COMPLETING -> LANDLORD_COMPLETING (idempotent
// if already there).
func (s *Service) CompleteLandlordData(ctx context.Context, contractID, landlordID uuid.UUID, landlordData, economicTerms, contractTerms JSONMap, meta HistoryMetadata) (*Contract, error) {
	return firstOf(s.Mutate(ctx, contractID, landlordID, RoleLandlord, meta, func(c *Contract) (ActionType, string, JSONMap, Status, error) {
		if c.LandlordID != landlordID {
			return "", "", nil, "", ErrPermissionDenied
		}
		if c.CurrentState != StatusDraft && c.CurrentState != StatusLandlordCompleting {
			return "", "", nil, "", fmt.Errorf("%w: landlord data can only be completed from draft or landlord_completing, got %s", ErrInvalidTransition, c.CurrentState)
		}
		if err := ValidateEconomicTerms(economicTerms); err != nil {
			return "", "", nil, "", err
		}
		if err := ValidateContractTerms(contractTerms); err != nil {
			return "", "", nil, "", err
		}
		c.LandlordData = landlordData
		c.EconomicTerms = economicTerms
		c.ContractTerms = contractTerms
		next := StatusLandlordCompleting
		return ActionLandlordDataSaved, "landlord completed required contract data", JSONMap{
			"landlord_data": landlordData, "economic_terms": economicTerms, "contract_terms": contractTerms,
		}, next, nil
	}))
}

// CompleteTenantData stores tenant_data and advances the contract to
// LANDLORD_REVIEWING, unless an objection is already pending in which case
// it stays in/returns to OBJECTIONS_PENDING (Open Question #2, resolved as
// an explicit transition here — see SPEC_FULL.md).
func (s *Service) CompleteTenantData(ctx context.Context, contractID, tenantID uuid.UUID, tenantData JSONMap, meta HistoryMetadata) (*Contract, error) {
	return firstOf(s.Mutate(ctx, contractID, tenantID, RoleTenant, meta, func(c *Contract) (ActionType, string, JSONMap, Status, error) {
		if c.TenantID == nil || *c.TenantID != tenantID {
			return "", "", nil, "", ErrPermissionDenied
		}
		if c.CurrentState != StatusTenantReviewing && c.CurrentState != StatusTenantDataPending {
			return "", "", nil, "", fmt.Errorf("%w: tenant data can only be completed while under tenant review, got %s", ErrInvalidTransition, c.CurrentState)
		}
		c.TenantData = tenantData
		next := StatusLandlordReviewing
		if c.HasPendingObjections {
			next = StatusObjectionsPending
		}
		return ActionTenantDataSaved, "tenant completed required contract data", JSONMap{"tenant_data": tenantData}, next, nil
	}))
}

// Approve records landlord or tenant approval. Approval is only accepted in
// BOTH_REVIEWING (§4.7); once both flags are true it transitions
// BOTH_REVIEWING -> READY_TO_SIGN, unless the contract type requires a
// verified guarantee and none is attached, in which case the second
// approval fails with ErrValidation.
func (s *Service) Approve(ctx context.Context, contractID, userID uuid.UUID, role Role, meta HistoryMetadata) (*Contract, error) {
	return firstOf(s.Mutate(ctx, contractID, userID, role, meta, func(c *Contract) (ActionType, string, JSONMap, Status, error) {
		if c.CurrentState != StatusBothReviewing {
			return "", "", nil, "", fmt.Errorf("%w: approval only allowed in both_reviewing, got %s", ErrInvalidTransition, c.CurrentState)
		}
		now := s.clock.Now()
		switch role {
		case RoleLandlord:
			if c.LandlordID != userID {
				return "", "", nil, "", ErrPermissionDenied
			}
			c.LandlordApproved = true
			c.LandlordApprovedAt = &now
		case RoleTenant:
			if c.TenantID == nil || *c.TenantID != userID {
				return "", "", nil, "", ErrPermissionDenied
			}
			c.TenantApproved = true
			c.TenantApprovedAt = &now
		default:
			return "", "", nil, "", ErrPermissionDenied
		}

		next := c.CurrentState
		if c.TenantApproved && c.LandlordApproved {
			if !c.HasRequiredGuarantee() {
				return "", "", nil, "", fmt.Errorf("%w: contract type %s requires a verified guarantee before ready_to_sign", ErrValidation, c.ContractType)
			}
			next = StatusReadyToSign
		}
		return ActionApproved, fmt.Sprintf("%s approved the contract", role), JSONMap{"role": string(role)}, next, nil
	}))
}

// TransitionToBothReviewing forces a contract back to BOTH_REVIEWING from
// LANDLORD_REVIEWING, OBJECTIONS_PENDING or NEGOTIATION_IN_PROGRESS. A
// TENANT_REVIEWING contract passes the state check below but is refused by
// the transition table, which has no TENANT_REVIEWING -> BOTH_REVIEWING
// edge. The objection engine folds this edge
// into its own Mutate call when resolving an objection; this entry point
// remains for operator-driven manual recovery.
func (s *Service) TransitionToBothReviewing(ctx context.Context, contractID uuid.UUID, meta HistoryMetadata) (*Contract, error) {
	return firstOf(s.Mutate(ctx, contractID, uuid.Nil, RoleSystem, meta, func(c *Contract) (ActionType, string, JSONMap, Status, error) {
		switch c.CurrentState {
		case StatusLandlordReviewing, StatusTenantReviewing, StatusObjectionsPending, StatusNegotiationInProgress:
		default:
			return "", "", nil, "", fmt.Errorf("%w: cannot reach both_reviewing from %s", ErrInvalidTransition, c.CurrentState)
		}
		return ActionStateTransitioned, "all objections resolved, both parties reviewing", nil, StatusBothReviewing, nil
	}))
}

// Cancel transitions a non-terminal contract to CANCELLED.
func (s *Service) Cancel(ctx context.Context, contractID, userID uuid.UUID, role Role, reason string, meta HistoryMetadata) (*Contract, error) {
	return firstOf(s.Mutate(ctx, contractID, userID, role, meta, func(c *Contract) (ActionType, string, JSONMap, Status, error) {
		if c.CurrentState.IsTerminal() {
			return "", "", nil, "", fmt.Errorf("%w: contract already in terminal state %s", ErrInvalidTransition, c.CurrentState)
		}
		return ActionCancelled, reason, nil, StatusCancelled, nil
	}))
}

// Stats computes landlord-facing aggregate statistics (supplemented
// feature, see SPEC_FULL.md §3).
func (s *Service) Stats(ctx context.Context, landlordID uuid.UUID) (*Stats, error) {
	contracts, err := s.repo.ListContracts(ctx, ListFilters{LandlordID: &landlordID})
	if err != nil {
		return nil, err
	}

	stats := &Stats{CountByState: make(map[Status]int)}
	var completionSum float64
	var daysToPublishSum float64
	var publishedCount int

	for _, c := range contracts {
		stats.TotalContracts++
		stats.CountByState[c.CurrentState]++
		completionSum += float64(c.CompletionPercentage())
		if c.Published && c.PublishedAt != nil {
			publishedCount++
			daysToPublishSum += c.PublishedAt.Sub(c.CreatedAt).Hours() / 24
		}
	}

	if stats.TotalContracts > 0 {
		stats.AverageCompletionPct = completionSum / float64(stats.TotalContracts)
	}
	if publishedCount > 0 {
		stats.AverageDaysToPublish = daysToPublishSum / float64(publishedCount)
	}
	return stats, nil
}

// Get returns a contract by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Contract, error) {
	return s.repo.GetContractByID(ctx, id)
}

// GetHistory returns the full, time-ordered workflow history for a contract.
func (s *Service) GetHistory(ctx context.Context, id uuid.UUID) ([]*WorkflowHistoryEntry, error) {
	return s.repo.GetHistory(ctx, id)
}

// Clock exposes the service's injected clock to sibling packages
// (invitation/objection/signing) that must stamp timestamps consistently.
func (s *Service) Clock() identity.Clock { return s.clock }

// Repository exposes the underlying repository to sibling packages that
// need read-only access beyond Service's own surface (e.g. invitation
// lookups joined against contract state).
func (s *Service) Repository() Repository { return s.repo }

func firstOf(c *Contract, _ *WorkflowHistoryEntry, err error) (*Contract, error) {
	return c, err
}
