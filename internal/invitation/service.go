package invitation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/contract"
	"github.com/jaxxstorm/landlord/internal/identity"
)

// Notifier is the narrow port invitation uses to fan out events; satisfied
// by internal/notification's dispatcher adapter (no direct import, per §9).
type Notifier interface {
	NotifyInvitationEvent(ctx context.Context, invitationID uuid.UUID, recipientEmail string, event string, data map[string]interface{})
}

type noopNotifier struct{}

func (noopNotifier) NotifyInvitationEvent(context.Context, uuid.UUID, string, string, map[string]interface{}) {
}

const defaultTTLDays = 7

// Service is the C5 engine: the only writer of Invitation state.
type Service struct {
	repo      Repository
	contracts *contract.Service
	clock     identity.Clock
	notifier  Notifier
	logger    *zap.Logger
}

// NewService builds an invitation Service. contracts is used to apply the
// state transitions and history entries the contract aggregate owns
// (TENANT_INVITED, TENANT_REVIEWING) atomically with each invitation action.
func NewService(repo Repository, contracts *contract.Service, clock identity.Clock, notifier Notifier, logger *zap.Logger) *Service {
	if clock == nil {
		clock = identity.SystemClock{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Service{
		repo:      repo,
		contracts: contracts,
		clock:     clock,
		notifier:  notifier,
		logger:    logger.With(zap.String("component", "invitation-service")),
	}
}

// Create issues a new invitation for contract, allowed only from DRAFT or
// TENANT_INVITED. The plaintext token is returned exactly once; only its
// hash is ever persisted.
func (s *Service) Create(ctx context.Context, contractID, landlordID uuid.UUID, tenantEmail, tenantName string, tenantPhone *string, method Method, message *string, ttlDays int, meta contract.HistoryMetadata) (*Invitation, string, error) {
	c, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		return nil, "", err
	}
	if c.LandlordID != landlordID {
		return nil, "", contract.ErrPermissionDenied
	}
	if c.CurrentState != contract.StatusDraft && c.CurrentState != contract.StatusTenantInvited {
		return nil, "", fmt.Errorf("%w: contract in state %s", ErrContractNotEligible, c.CurrentState)
	}
	if ttlDays <= 0 {
		ttlDays = defaultTTLDays
	}

	plaintext, hash, err := identity.NewToken()
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	now := s.clock.Now()
	inv := &Invitation{
		ID:              uuid.New(),
		ContractID:      contractID,
		TokenHash:       hash,
		TenantEmail:     tenantEmail,
		TenantPhone:     tenantPhone,
		TenantName:      tenantName,
		Method:          method,
		PersonalMessage: message,
		Status:          StatusSent,
		CreatedAt:       now,
		SentAt:          &now,
		ExpiresAt:       now.Add(time.Duration(ttlDays) * 24 * time.Hour),
		CreatedBy:       landlordID,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, "", err
	}

	if _, err := s.contracts.Mutate(ctx, contractID, landlordID, contract.RoleLandlord, meta, func(cc *contract.Contract) (contract.ActionType, string, contract.JSONMap, contract.Status, error) {
		next := contract.Status("")
		if cc.CurrentState == contract.StatusDraft || cc.CurrentState == contract.StatusLandlordCompleting {
			next = contract.StatusTenantInvited
		}
		return contract.ActionInvitationSent, "invitation sent to prospective tenant", contract.JSONMap{"invitation_id": inv.ID.String(), "method": string(method)}, next, nil
	}); err != nil {
		return nil, "", err
	}

	s.notifier.NotifyInvitationEvent(ctx, inv.ID, tenantEmail, "invitation_sent", map[string]interface{}{"contract_id": contractID.String()})
	return inv, plaintext, nil
}

// Verify looks up an invitation by plaintext token, enforces expiry, and
// returns the minimal public view. A first view from status=sent advances
// it to opened.
func (s *Service) Verify(ctx context.Context, plaintext string) (*PublicView, *Invitation, error) {
	if err := identity.ValidateTokenFormat(plaintext); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	hash := identity.HashToken(plaintext)
	inv, err := s.repo.GetByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrInvalid
		}
		return nil, nil, err
	}

	now := s.clock.Now()
	if inv.IsExpired(now) && inv.Status != StatusAccepted {
		inv.Status = StatusExpired
		_ = s.repo.Update(ctx, inv)
		return nil, nil, ErrExpired
	}
	if inv.Status == StatusAccepted {
		return nil, nil, ErrAlreadyAccepted
	}

	if inv.Status == StatusSent {
		inv.Status = StatusOpened
		inv.OpenedAt = &now
		if err := s.repo.Update(ctx, inv); err != nil {
			return nil, nil, err
		}
	}

	c, err := s.contracts.Get(ctx, inv.ContractID)
	if err != nil {
		return nil, nil, err
	}

	view := &PublicView{
		LandlordDisplayName: landlordDisplayName(c.LandlordData),
		ExpiresAt:           inv.ExpiresAt,
	}
	if rent, ok := c.EconomicTerms["monthly_rent"]; ok {
		view.MonthlyRent = fmt.Sprintf("%v", rent)
	}
	if addr, ok := c.PropertyData["address"]; ok {
		view.PropertyAddress = fmt.Sprintf("%v", addr)
	}
	return view, inv, nil
}

func landlordDisplayName(landlordData contract.JSONMap) string {
	if name, ok := landlordData["full_name"]; ok {
		return fmt.Sprintf("%v", name)
	}
	return ""
}

// Accept verifies the token, links the contract's tenant, and transitions
// the contract to TENANT_REVIEWING. tenantEmail must match the invitation's
// recorded tenant_email.
func (s *Service) Accept(ctx context.Context, plaintext string, tenantID uuid.UUID, tenantEmail string, meta contract.HistoryMetadata) (*contract.Contract, error) {
	_, inv, err := s.Verify(ctx, plaintext)
	if err != nil {
		return nil, err
	}
	if inv.TenantEmail != tenantEmail {
		return nil, ErrEmailMismatch
	}

	now := s.clock.Now()
	inv.Status = StatusAccepted
	inv.AcceptedAt = &now
	inv.AcceptedBy = &tenantID
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}

	c, _, err := s.contracts.Mutate(ctx, inv.ContractID, tenantID, contract.RoleTenant, meta, func(cc *contract.Contract) (contract.ActionType, string, contract.JSONMap, contract.Status, error) {
		cc.TenantID = &tenantID
		cc.InvitationAccepted = true
		return contract.ActionInvitationAccepted, "tenant accepted invitation", contract.JSONMap{"invitation_id": inv.ID.String()}, contract.StatusTenantReviewing, nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyInvitationEvent(ctx, inv.ID, inv.TenantEmail, "invitation_accepted", map[string]interface{}{"contract_id": inv.ContractID.String()})
	return c, nil
}

// Resend finds the latest invitation in {sent, opened}, refuses if it has
// already expired, rotates the token, bumps the attempt counter, and
// redispatches the notification.
func (s *Service) Resend(ctx context.Context, contractID, landlordID uuid.UUID) (string, error) {
	c, err := s.contracts.Get(ctx, contractID)
	if err != nil {
		return "", err
	}
	if c.LandlordID != landlordID {
		return "", contract.ErrPermissionDenied
	}

	latest, err := s.repo.GetLatestForContract(ctx, contractID)
	if err != nil {
		return "", err
	}
	if latest.Status != StatusSent && latest.Status != StatusOpened {
		return "", ErrNoResendableInvitation
	}
	now := s.clock.Now()
	if latest.IsExpired(now) {
		return "", ErrExpired
	}

	plaintext, hash, err := identity.NewToken()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	latest.TokenHash = hash
	latest.Attempts++
	latest.LastResentAt = &now
	latest.Status = StatusSent
	if err := s.repo.Update(ctx, latest); err != nil {
		return "", err
	}

	s.notifier.NotifyInvitationEvent(ctx, latest.ID, latest.TenantEmail, "invitation_resent", map[string]interface{}{"contract_id": contractID.String()})
	return plaintext, nil
}

// CleanupExpired bulk-transitions {sent, opened} invitations whose
// expires_at has passed to expired. Idempotent.
func (s *Service) CleanupExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()
	expirable, err := s.repo.ListExpirable(ctx, now)
	if err != nil {
		return 0, err
	}
	for _, inv := range expirable {
		inv.Status = StatusExpired
		if err := s.repo.Update(ctx, inv); err != nil {
			return 0, err
		}
	}
	return len(expirable), nil
}
