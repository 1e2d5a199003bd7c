package objection

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/contract"
	"github.com/jaxxstorm/landlord/internal/identity"
)

// Notifier is the narrow port objection uses to fan out events to the
// counterparty (no direct import of internal/notification, per §9).
type Notifier interface {
	NotifyObjectionEvent(ctx context.Context, objectionID uuid.UUID, recipient uuid.UUID, event string, data map[string]interface{})
}

type noopNotifier struct{}

func (noopNotifier) NotifyObjectionEvent(context.Context, uuid.UUID, uuid.UUID, string, map[string]interface{}) {
}

// Service is the C6 engine: the only writer of Objection state. It drives
// the parent contract's objection bookkeeping (objections_count,
// has_pending_objections, last_objection_date) and any resulting state
// transition exclusively through contract.Service.Mutate, never by
// mutating the contract directly.
type Service struct {
	repo      Repository
	contracts *contract.Service
	clock     identity.Clock
	notifier  Notifier
	logger    *zap.Logger
}

func NewService(repo Repository, contracts *contract.Service, clock identity.Clock, notifier Notifier, logger *zap.Logger) *Service {
	if clock == nil {
		clock = identity.SystemClock{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Service{repo: repo, contracts: contracts, clock: clock, notifier: notifier, logger: logger.With(zap.String("component", "objection-service"))}
}

// Submit records a new objection against field_reference and, if the
// contract was not already OBJECTIONS_PENDING, transitions it there.
func (s *Service) Submit(ctx context.Context, contractID, userID uuid.UUID, role contract.Role, fieldReference, currentValue, proposedValue, justification string, priority Priority, meta contract.HistoryMetadata) (*Objection, error) {
	if len(justification) < minJustificationLength {
		return nil, ErrJustificationTooShort
	}
	if role != contract.RoleLandlord && role != contract.RoleTenant {
		return nil, ErrNotAParty
	}

	c, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	switch c.CurrentState {
	case contract.StatusLandlordReviewing, contract.StatusTenantReviewing, contract.StatusObjectionsPending:
	default:
		return nil, fmt.Errorf("%w: contract in state %s", ErrNotEligibleState, c.CurrentState)
	}
	if err := s.requireParty(c, userID, role); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	o := &Objection{
		ID:             uuid.New(),
		ContractID:     contractID,
		ObjectedBy:     userID,
		ObjectorRole:   role,
		FieldReference: fieldReference,
		CurrentValue:   currentValue,
		ProposedValue:  proposedValue,
		Justification:  justification,
		Priority:       priority,
		Status:         StatusPending,
		SubmittedAt:    now,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	if _, _, err := s.contracts.Mutate(ctx, contractID, userID, role, meta, func(cc *contract.Contract) (contract.ActionType, string, contract.JSONMap, contract.Status, error) {
		cc.ObjectionsCount++
		cc.HasPendingObjections = true
		cc.LastObjectionDate = &now
		next := contract.Status("")
		if cc.CurrentState != contract.StatusObjectionsPending {
			next = contract.StatusObjectionsPending
		}
		return contract.ActionObjectionSubmitted, fmt.Sprintf("objection raised on %s", fieldReference), contract.JSONMap{"objection_id": o.ID.String()}, next, nil
	}); err != nil {
		return nil, err
	}

	counterparty, counterpartyRole := otherParty(c, userID, role)
	if counterparty != uuid.Nil {
		s.notifier.NotifyObjectionEvent(ctx, o.ID, counterparty, "objection_submitted", map[string]interface{}{"contract_id": contractID.String(), "role": string(counterpartyRole)})
	}
	return o, nil
}

// Respond resolves an objection. On ACCEPTED the proposed value is applied
// to the parent contract atomically with the response. Once no pending
// objections remain, the contract advances to BOTH_REVIEWING.
func (s *Service) Respond(ctx context.Context, objectionID, responderID uuid.UUID, responderRole contract.Role, response Status, note string, meta contract.HistoryMetadata) (*Objection, error) {
	if response != StatusAccepted && response != StatusRejected {
		return nil, fmt.Errorf("objection: response must be accepted or rejected")
	}

	o, err := s.repo.GetByID(ctx, objectionID)
	if err != nil {
		return nil, err
	}
	if !o.Status.IsPending() {
		return nil, ErrAlreadyResolved
	}
	if o.ObjectedBy == responderID {
		return nil, ErrSelfResponse
	}

	c, err := s.contracts.Get(ctx, o.ContractID)
	if err != nil {
		return nil, err
	}
	if err := s.requireParty(c, responderID, responderRole); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	o.Status = response
	o.Responder = &responderID
	o.ResponseNote = note
	o.ReviewedAt = &now
	o.ResolvedAt = &now

	pendingBefore, err := s.repo.ListPendingForContract(ctx, o.ContractID)
	if err != nil {
		return nil, err
	}
	remaining := 0
	for _, p := range pendingBefore {
		if p.ID != o.ID {
			remaining++
		}
	}
	allResolved := remaining == 0

	if _, _, err := s.contracts.Mutate(ctx, o.ContractID, responderID, responderRole, meta, func(cc *contract.Contract) (contract.ActionType, string, contract.JSONMap, contract.Status, error) {
		description := fmt.Sprintf("objection on %s %s", o.FieldReference, response)
		if response == StatusAccepted {
			if !applyFieldReference(cc, o.FieldReference, o.ProposedValue) {
				o.RequiresManualAmendment = true
				o.ResponseNote = appendNote(o.ResponseNote, "requires manual amendment: field not found")
			}
		}
		cc.HasPendingObjections = !allResolved

		next := contract.Status("")
		if allResolved {
			switch cc.CurrentState {
			case contract.StatusLandlordReviewing, contract.StatusTenantReviewing, contract.StatusObjectionsPending, contract.StatusNegotiationInProgress:
				next = contract.StatusBothReviewing
				description = "all objections resolved, both parties reviewing"
			}
		}
		return contract.ActionObjectionResolved, description, contract.JSONMap{"objection_id": o.ID.String(), "field_reference": o.FieldReference}, next, nil
	}); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}

	s.notifier.NotifyObjectionEvent(ctx, o.ID, o.ObjectedBy, "objection_resolved", map[string]interface{}{"contract_id": o.ContractID.String(), "status": string(o.Status)})
	return o, nil
}

// ListOverdue reports pending objections older than the overdue threshold
// for a contract. Purely observable (§4.6).
func (s *Service) ListOverdue(ctx context.Context, contractID uuid.UUID) ([]*Objection, error) {
	pending, err := s.repo.ListPendingForContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	var overdue []*Objection
	for _, o := range pending {
		if o.IsOverdue(now) {
			overdue = append(overdue, o)
		}
	}
	return overdue, nil
}

// SweepOverdue scans every contract's pending objections and notifies both
// parties once an objection has sat unresolved past the overdue threshold.
// Meant to be driven by a scheduler tick; it never mutates objection state
// (overdue is a derived, not stored, fact — §4.6).
func (s *Service) SweepOverdue(ctx context.Context) (int, error) {
	pending, err := s.repo.ListAllPending(ctx)
	if err != nil {
		return 0, err
	}
	now := s.clock.Now()
	count := 0
	for _, o := range pending {
		if !o.IsOverdue(now) {
			continue
		}
		c, err := s.contracts.Get(ctx, o.ContractID)
		if err != nil {
			s.logger.Error("overdue sweep: fetch contract failed", zap.String("objection_id", o.ID.String()), zap.Error(err))
			continue
		}
		s.notifier.NotifyObjectionEvent(ctx, o.ID, o.ObjectedBy, "objection_overdue", map[string]interface{}{"contract_id": o.ContractID.String()})
		counterparty, _ := otherParty(c, o.ObjectedBy, o.ObjectorRole)
		if counterparty != uuid.Nil {
			s.notifier.NotifyObjectionEvent(ctx, o.ID, counterparty, "objection_overdue", map[string]interface{}{"contract_id": o.ContractID.String()})
		}
		count++
	}
	return count, nil
}

func (s *Service) requireParty(c *contract.Contract, userID uuid.UUID, role contract.Role) error {
	switch role {
	case contract.RoleLandlord:
		if c.LandlordID != userID {
			return ErrNotAParty
		}
	case contract.RoleTenant:
		if c.TenantID == nil || *c.TenantID != userID {
			return ErrNotAParty
		}
	default:
		return ErrNotAParty
	}
	return nil
}

func otherParty(c *contract.Contract, userID uuid.UUID, role contract.Role) (uuid.UUID, contract.Role) {
	if role == contract.RoleLandlord {
		if c.TenantID != nil {
			return *c.TenantID, contract.RoleTenant
		}
		return uuid.Nil, ""
	}
	return c.LandlordID, contract.RoleLandlord
}

func appendNote(existing, addition string) string {
	if existing == "" {
		return addition
	}
	return existing + "; " + addition
}
