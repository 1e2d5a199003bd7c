// Package signing implements C7: ordered signature capture and the
// landlord-only publication that follows it (§4.7).
package signing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/contract"
	"github.com/jaxxstorm/landlord/internal/identity"
)

// Notifier is the narrow port signing uses to fan out events, mirroring
// the no-back-pointer-ownership boundary the rest of the engine keeps
// around internal/notification (§9).
type Notifier interface {
	NotifySigningEvent(ctx context.Context, contractID uuid.UUID, recipient uuid.UUID, event string, data map[string]interface{})
}

type noopNotifier struct{}

func (noopNotifier) NotifySigningEvent(context.Context, uuid.UUID, uuid.UUID, string, map[string]interface{}) {
}

// Service is the C7 engine: the only writer of signature and publication
// state. It never mutates a Contract directly, driving every change
// through contract.Service.Mutate so the per-contract lock and
// one-entry-per-mutation history invariant hold here too.
type Service struct {
	contracts *contract.Service
	clock     identity.Clock
	notifier  Notifier
	logger    *zap.Logger
}

func NewService(contracts *contract.Service, clock identity.Clock, notifier Notifier, logger *zap.Logger) *Service {
	if clock == nil {
		clock = identity.SystemClock{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Service{
		contracts: contracts,
		clock:     clock,
		notifier:  notifier,
		logger:    logger.With(zap.String("component", "signing-service")),
	}
}

// signingOrder is tenant -> guarantor (if present) -> landlord (§4.7).
func signingOrder(c *contract.Contract) []contract.Role {
	order := []contract.Role{contract.RoleTenant}
	if c.GuarantorID != nil {
		order = append(order, contract.RoleGuarantor)
	}
	return append(order, contract.RoleLandlord)
}

func isSigned(c *contract.Contract, role contract.Role) bool {
	switch role {
	case contract.RoleTenant:
		return c.TenantSigned
	case contract.RoleGuarantor:
		return c.GuarantorSigned
	case contract.RoleLandlord:
		return c.LandlordSigned
	default:
		return false
	}
}

func signerID(c *contract.Contract, role contract.Role) (uuid.UUID, bool) {
	switch role {
	case contract.RoleTenant:
		if c.TenantID == nil {
			return uuid.Nil, false
		}
		return *c.TenantID, true
	case contract.RoleGuarantor:
		if c.GuarantorID == nil {
			return uuid.Nil, false
		}
		return *c.GuarantorID, true
	case contract.RoleLandlord:
		return c.LandlordID, true
	default:
		return uuid.Nil, false
	}
}

// Sign records role's signature on contractID. Allowed only in
// READY_TO_SIGN, strictly in tenant -> guarantor? -> landlord order: a
// call by a role whose predecessors have not all signed is rejected with
// ErrOutOfOrder and produces no mutation and no history entry (§4.7, test
// scenario 3). When the call completes the last required signature, the
// same Mutate call also transitions READY_TO_SIGN -> FULLY_SIGNED and
// stamps fully_signed_at.
func (s *Service) Sign(ctx context.Context, contractID, userID uuid.UUID, role contract.Role, signatureData contract.JSONMap, authMethods []AuthMethod, meta contract.HistoryMetadata) (*contract.Contract, error) {
	switch role {
	case contract.RoleTenant, contract.RoleGuarantor, contract.RoleLandlord:
	default:
		return nil, fmt.Errorf("%w: role %s cannot sign a contract", contract.ErrPermissionDenied, role)
	}

	updated, _, err := s.contracts.Mutate(ctx, contractID, userID, role, meta, func(c *contract.Contract) (contract.ActionType, string, contract.JSONMap, contract.Status, error) {
		if c.CurrentState != contract.StatusReadyToSign {
			return "", "", nil, "", fmt.Errorf("%w: signing only allowed in ready_to_sign, got %s", ErrNotEligibleState, c.CurrentState)
		}

		expected, ok := signerID(c, role)
		if !ok {
			return "", "", nil, "", ErrGuarantorNotOnContract
		}
		if expected != userID {
			return "", "", nil, "", ErrNotAParty
		}
		if isSigned(c, role) {
			return "", "", nil, "", ErrAlreadySigned
		}

		required := RequiredLevel(c, role)
		if !Satisfies(authMethods, required) {
			return "", "", nil, "", ErrInsufficientAuth
		}

		order := signingOrder(c)
		for _, predecessor := range order {
			if predecessor == role {
				break
			}
			if !isSigned(c, predecessor) {
				return "", "", nil, "", ErrOutOfOrder
			}
		}

		now := s.clock.Now()
		switch role {
		case contract.RoleTenant:
			c.TenantSigned = true
			c.TenantSignedAt = &now
			c.TenantSignature = signatureData
		case contract.RoleGuarantor:
			c.GuarantorSigned = true
			c.GuarantorSignedAt = &now
			c.GuarantorSignature = signatureData
		case contract.RoleLandlord:
			c.LandlordSigned = true
			c.LandlordSignedAt = &now
			c.LandlordSignature = signatureData
		}

		allSigned := true
		for _, r := range order {
			if !isSigned(c, r) {
				allSigned = false
				break
			}
		}
		if !allSigned {
			return contract.ActionSigned, fmt.Sprintf("%s signed the contract", role), contract.JSONMap{"role": string(role)}, contract.StatusReadyToSign, nil
		}

		c.FullySignedAt = &now
		return contract.ActionFullySigned, fmt.Sprintf("%s signed last; all required signatures collected", role), contract.JSONMap{"role": string(role)}, contract.StatusFullySigned, nil
	})
	if err != nil {
		return nil, err
	}

	if updated.CurrentState == contract.StatusFullySigned {
		s.notifyAll(ctx, updated, "contract.fully_signed", nil)
	} else {
		if recipient, ok := otherSigner(updated, role); ok {
			s.notifier.NotifySigningEvent(ctx, updated.ID, recipient, "contract.signed", map[string]interface{}{"role": string(role)})
		}
	}
	return updated, nil
}

// otherSigner returns the next party still expected to sign, so the
// notifier can nudge them rather than broadcasting to everyone.
func otherSigner(c *contract.Contract, justSigned contract.Role) (uuid.UUID, bool) {
	for _, r := range signingOrder(c) {
		if isSigned(c, r) {
			continue
		}
		return signerID(c, r)
	}
	return uuid.Nil, false
}

func (s *Service) notifyAll(ctx context.Context, c *contract.Contract, event string, data map[string]interface{}) {
	s.notifier.NotifySigningEvent(ctx, c.ID, c.LandlordID, event, data)
	if c.TenantID != nil {
		s.notifier.NotifySigningEvent(ctx, c.ID, *c.TenantID, event, data)
	}
	if c.GuarantorID != nil {
		s.notifier.NotifySigningEvent(ctx, c.ID, *c.GuarantorID, event, data)
	}
}

// Publish is the only gate to PUBLISHED (§4.7): requires FULLY_SIGNED and
// caller == landlord. It sets start_date to today if absent, computes
// end_date by adding contract_terms.lease_duration_months months, and
// stamps published/published_at/published_by.
func (s *Service) Publish(ctx context.Context, contractID, landlordID uuid.UUID, meta contract.HistoryMetadata) (*contract.Contract, error) {
	updated, _, err := s.contracts.Mutate(ctx, contractID, landlordID, contract.RoleLandlord, meta, func(c *contract.Contract) (contract.ActionType, string, contract.JSONMap, contract.Status, error) {
		if c.CurrentState != contract.StatusFullySigned {
			return "", "", nil, "", fmt.Errorf("%w: publish only allowed in fully_signed, got %s", ErrNotFullySigned, c.CurrentState)
		}
		if c.LandlordID != landlordID {
			return "", "", nil, "", ErrNotPublisher
		}

		months, err := leaseDurationMonths(c.ContractTerms)
		if err != nil {
			return "", "", nil, "", err
		}

		now := s.clock.Now()
		if c.StartDate == nil {
			start := now.UTC().Truncate(24 * time.Hour)
			c.StartDate = &start
		}
		end := c.StartDate.AddDate(0, months, 0)
		c.EndDate = &end

		c.Published = true
		c.PublishedAt = &now
		c.PublishedBy = &landlordID

		return contract.ActionContractPublished, "contract published", contract.JSONMap{
			"start_date": c.StartDate.Format("2006-01-02"),
			"end_date":   end.Format("2006-01-02"),
		}, contract.StatusPublished, nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyAll(ctx, updated, "contract.published", nil)
	return updated, nil
}

// leaseDurationMonths extracts contract_terms.lease_duration_months,
// tolerating the shapes that round-trip through JSON/JSONB: a literal
// int (set directly in-process, e.g. in tests), or a float64 (after an
// encoding/json or JSONB unmarshal into interface{}).
func leaseDurationMonths(terms contract.JSONMap) (int, error) {
	raw, ok := terms["lease_duration_months"]
	if !ok {
		return 0, ErrMissingLeaseTerm
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: unexpected type %T", ErrMissingLeaseTerm, raw)
	}
}
