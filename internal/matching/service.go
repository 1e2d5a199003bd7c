package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/identity"
)

// Notifier is the narrow port matching uses to fan out events, mirroring
// the no-back-pointer-ownership boundary the rest of the engine keeps
// around internal/notification (§9).
type Notifier interface {
	NotifyMatchEvent(ctx context.Context, matchID uuid.UUID, recipient uuid.UUID, event string, data map[string]interface{})
}

type noopNotifier struct{}

func (noopNotifier) NotifyMatchEvent(context.Context, uuid.UUID, uuid.UUID, string, map[string]interface{}) {
}

const (
	autoApplyMinScore = 70
	autoApplyDailyCap = 3
)

// Service is the C3 engine.
type Service struct {
	repo     Repository
	clock    identity.Clock
	notifier Notifier
	logger   *zap.Logger
}

func NewService(repo Repository, clock identity.Clock, notifier Notifier, logger *zap.Logger) *Service {
	if clock == nil {
		clock = identity.SystemClock{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Service{repo: repo, clock: clock, notifier: notifier, logger: logger.With(zap.String("component", "matching-service"))}
}

// SubmitInput carries the tenant-supplied fields of a new match request.
type SubmitInput struct {
	TenantMessage       string
	TenantPhone         string
	TenantEmail         string
	MonthlyIncome       *string
	EmploymentType      string
	LeaseDurationMonths int
	HasRentalReferences bool
	HasEmploymentProof  bool
	HasCreditCheck      bool
	NumberOfOccupants   int
	HasPets             bool
	PetDetails          string
	SmokingAllowed      bool
	Priority            Priority
}

func matchCode(id uuid.UUID) string {
	return "MT-" + id.String()[:8]
}

// Submit creates a MatchRequest for tenant -> property, refusing if an
// active request already exists for the pair (§4.3).
func (s *Service) Submit(ctx context.Context, tenantID, landlordID, propertyID uuid.UUID, in SubmitInput) (*MatchRequest, error) {
	existing, err := s.repo.GetActiveForPair(ctx, tenantID, propertyID)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, ErrActiveRequestExists
	}

	now := s.clock.Now()
	id := uuid.New()
	duration := in.LeaseDurationMonths
	if duration == 0 {
		duration = 12
	}
	occupants := in.NumberOfOccupants
	if occupants == 0 {
		occupants = 1
	}
	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	m := &MatchRequest{
		ID:                  id,
		MatchCode:           matchCode(id),
		PropertyID:          propertyID,
		TenantID:            tenantID,
		LandlordID:          landlordID,
		Status:              StatusPending,
		Priority:            priority,
		TenantMessage:       in.TenantMessage,
		TenantPhone:         in.TenantPhone,
		TenantEmail:         in.TenantEmail,
		MonthlyIncome:       in.MonthlyIncome,
		EmploymentType:      in.EmploymentType,
		LeaseDurationMonths: duration,
		HasRentalReferences: in.HasRentalReferences,
		HasEmploymentProof:  in.HasEmploymentProof,
		HasCreditCheck:      in.HasCreditCheck,
		NumberOfOccupants:   occupants,
		HasPets:             in.HasPets,
		PetDetails:          in.PetDetails,
		SmokingAllowed:      in.SmokingAllowed,
		CreatedAt:           now,
		ExpiresAt:           now.Add(defaultTTL),
	}

	if err := s.repo.CreateMatchRequest(ctx, m); err != nil {
		return nil, err
	}
	s.notifier.NotifyMatchEvent(ctx, m.ID, landlordID, "match.submitted", map[string]interface{}{"match_code": m.MatchCode})
	return m, nil
}

// MarkViewed stamps viewed_at and transitions PENDING -> VIEWED the first
// time the landlord opens the request.
func (s *Service) MarkViewed(ctx context.Context, matchID, landlordID uuid.UUID) (*MatchRequest, error) {
	m, err := s.repo.GetMatchRequestByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.LandlordID != landlordID {
		return nil, ErrNotAParty
	}
	if m.Status != StatusPending {
		return m, nil
	}
	now := s.clock.Now()
	m.Status = StatusViewed
	m.ViewedAt = &now
	if err := s.repo.UpdateMatchRequest(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) respond(ctx context.Context, matchID, landlordID uuid.UUID, response string, next Status, event string) (*MatchRequest, error) {
	m, err := s.repo.GetMatchRequestByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.LandlordID != landlordID {
		return nil, ErrNotAParty
	}
	if !m.Status.IsPendingOrViewed() {
		return nil, fmt.Errorf("%w: match request in %s", ErrNotEligibleState, m.Status)
	}
	now := s.clock.Now()
	m.Status = next
	m.LandlordResponse = response
	m.RespondedAt = &now
	if err := s.repo.UpdateMatchRequest(ctx, m); err != nil {
		return nil, err
	}
	s.notifier.NotifyMatchEvent(ctx, m.ID, m.TenantID, event, map[string]interface{}{"response": response})
	return m, nil
}

// Accept transitions a request to ACCEPTED. The contract engine may
// consume the resulting "match.accepted" event to create a DRAFT
// contract; that wiring is out of scope here (§4.3: "out-of-scope to
// force").
func (s *Service) Accept(ctx context.Context, matchID, landlordID uuid.UUID, response string) (*MatchRequest, error) {
	return s.respond(ctx, matchID, landlordID, response, StatusAccepted, "match.accepted")
}

// Reject transitions a request to REJECTED.
func (s *Service) Reject(ctx context.Context, matchID, landlordID uuid.UUID, response string) (*MatchRequest, error) {
	return s.respond(ctx, matchID, landlordID, response, StatusRejected, "match.rejected")
}

// Cancel lets the originating tenant withdraw a still-open request.
func (s *Service) Cancel(ctx context.Context, matchID, tenantID uuid.UUID) (*MatchRequest, error) {
	m, err := s.repo.GetMatchRequestByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.TenantID != tenantID {
		return nil, ErrNotAParty
	}
	if !m.Status.IsPendingOrViewed() {
		return nil, fmt.Errorf("%w: match request in %s", ErrNotEligibleState, m.Status)
	}
	m.Status = StatusCancelled
	if err := s.repo.UpdateMatchRequest(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// FindMatching returns properties satisfying a tenant's saved criteria
// (§4.3).
func (s *Service) FindMatching(ctx context.Context, criteria *MatchCriteria) ([]*Property, error) {
	filter := PropertyFilter{
		Cities:          criteria.PreferredCities,
		PropertyTypes:   criteria.PropertyTypes,
		MinPrice:        criteria.MinPrice,
		MaxPrice:        criteria.MaxPrice,
		MinBedrooms:     criteria.MinBedrooms,
		MinBathrooms:    criteria.MinBathrooms,
		MinArea:         criteria.MinArea,
		PetsRequired:    criteria.PetsRequired,
		ParkingRequired: criteria.ParkingRequired,
		AvailableOnly:   true,
	}
	return s.repo.ListProperties(ctx, filter)
}

// ProcessDaily runs the daily auto-apply sweep (§4.3): for every tenant
// with auto_apply_enabled and notification_frequency=="daily", find the
// matching properties, auto-submit a request for each that scores >=70,
// capped at 3 per tenant per day, then leaves it to the caller to raise
// a digest notification for the batch (internal/notification owns
// digest creation).
//
// Auto-apply scores against a criteria-derived baseline request rather
// than a real tenant profile: this engine tracks no persisted tenant
// financial/document profile outside an explicit MatchRequest, so the
// baseline only carries the pet/smoking requirements the tenant already
// declared in their saved search and a neutral 12-month term. This is a
// deliberate simplification, not an oversight.
func (s *Service) ProcessDaily(ctx context.Context) (int, error) {
	now := s.clock.Now()
	criteriaList, err := s.repo.ListAutoApplyCriteria(ctx, "daily")
	if err != nil {
		return 0, err
	}

	submitted := 0
	for _, criteria := range criteriaList {
		count, err := s.repo.CountSubmittedSince(ctx, criteria.TenantID, now.Add(-24*time.Hour))
		if err != nil {
			s.logger.Error("count submitted today failed", zap.Error(err))
			continue
		}
		remaining := autoApplyDailyCap - count
		if remaining <= 0 {
			continue
		}

		properties, err := s.FindMatching(ctx, criteria)
		if err != nil {
			s.logger.Error("find matching failed", zap.Error(err))
			continue
		}

		baseline := &MatchRequest{
			HasPets:             criteria.PetsRequired,
			SmokingAllowed:      criteria.SmokingRequired,
			LeaseDurationMonths: 12,
		}

		for _, property := range properties {
			if remaining <= 0 {
				break
			}
			score := CompatibilityScore(baseline, property)
			if score < autoApplyMinScore {
				continue
			}
			landlordID := property.LandlordID
			_, err := s.Submit(ctx, criteria.TenantID, landlordID, property.ID, SubmitInput{
				TenantMessage:       "Auto-applied based on your saved search criteria.",
				LeaseDurationMonths: 12,
				HasPets:             criteria.PetsRequired,
				SmokingAllowed:      criteria.SmokingRequired,
				Priority:            PriorityMedium,
			})
			if err != nil {
				if err == ErrActiveRequestExists {
					continue
				}
				s.logger.Error("auto-apply submit failed", zap.Error(err))
				continue
			}
			submitted++
			remaining--
		}
	}
	return submitted, nil
}

// ExpireOld marks PENDING/VIEWED requests past their 7-day TTL as
// EXPIRED and notifies the tenant (§4.3).
func (s *Service) ExpireOld(ctx context.Context) (int, error) {
	now := s.clock.Now()
	expirable, err := s.repo.ListExpirable(ctx, now)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, m := range expirable {
		m.Status = StatusExpired
		if err := s.repo.UpdateMatchRequest(ctx, m); err != nil {
			s.logger.Error("expire match request failed", zap.Error(err))
			continue
		}
		s.notifier.NotifyMatchEvent(ctx, m.ID, m.TenantID, "match.expired", nil)
		count++
	}
	return count, nil
}

// SendFollowUpReminders nudges landlords on requests idling at least 2
// days with fewer than 2 prior reminders, each spaced at least 2 days
// apart (§4.3).
func (s *Service) SendFollowUpReminders(ctx context.Context) (int, error) {
	now := s.clock.Now()
	candidates, err := s.repo.ListForFollowUp(ctx, now)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, m := range candidates {
		m.FollowUpCount++
		m.LastFollowUp = &now
		if err := s.repo.UpdateMatchRequest(ctx, m); err != nil {
			s.logger.Error("follow-up reminder update failed", zap.Error(err))
			continue
		}
		s.notifier.NotifyMatchEvent(ctx, m.ID, m.LandlordID, "match.follow_up_reminder", map[string]interface{}{"follow_up_count": m.FollowUpCount})
		count++
	}
	return count, nil
}
