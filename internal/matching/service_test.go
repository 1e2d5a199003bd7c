package matching_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/matching"
	"github.com/jaxxstorm/landlord/internal/matching/memory"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func setup(t *testing.T) (*matching.Service, *memory.Repository, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	repo := memory.New()
	svc := matching.NewService(repo, clock, nil, zap.NewNop())
	return svc, repo, clock
}

func seedProperty(repo *memory.Repository, landlordID uuid.UUID, rent string) *matching.Property {
	p := &matching.Property{
		ID:             uuid.New(),
		LandlordID:     landlordID,
		City:           "Lisbon",
		PropertyType:   "apartment",
		MonthlyRent:    rent,
		Bedrooms:       2,
		Bathrooms:      1,
		AreaM2:         60,
		PetsAllowed:    true,
		SmokingAllowed: false,
		Parking:        true,
		Available:      true,
	}
	repo.SeedProperty(p)
	return p
}

func TestSubmit_HappyPath(t *testing.T) {
	svc, repo, _ := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	p := seedProperty(repo, landlord, "1500")

	m, err := svc.Submit(context.Background(), tenant, landlord, p.ID, matching.SubmitInput{
		TenantMessage: "Interested in this place.",
	})
	require.NoError(t, err)
	require.Equal(t, matching.StatusPending, m.Status)
	require.Equal(t, 12, m.LeaseDurationMonths)
	require.Equal(t, 1, m.NumberOfOccupants)
	require.NotEmpty(t, m.MatchCode)
}

func TestSubmit_RejectsDuplicateActiveRequest(t *testing.T) {
	svc, repo, _ := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	p := seedProperty(repo, landlord, "1500")

	_, err := svc.Submit(context.Background(), tenant, landlord, p.ID, matching.SubmitInput{})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), tenant, landlord, p.ID, matching.SubmitInput{})
	require.ErrorIs(t, err, matching.ErrActiveRequestExists)
}

func TestMarkViewed_TransitionsOnceFromPending(t *testing.T) {
	svc, repo, _ := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	p := seedProperty(repo, landlord, "1500")
	m, err := svc.Submit(context.Background(), tenant, landlord, p.ID, matching.SubmitInput{})
	require.NoError(t, err)

	viewed, err := svc.MarkViewed(context.Background(), m.ID, landlord)
	require.NoError(t, err)
	require.Equal(t, matching.StatusViewed, viewed.Status)
	require.NotNil(t, viewed.ViewedAt)

	viewedAgain, err := svc.MarkViewed(context.Background(), m.ID, landlord)
	require.NoError(t, err)
	require.Equal(t, viewed.ViewedAt, viewedAgain.ViewedAt)
}

func TestMarkViewed_RejectsNonLandlord(t *testing.T) {
	svc, repo, _ := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	p := seedProperty(repo, landlord, "1500")
	m, err := svc.Submit(context.Background(), tenant, landlord, p.ID, matching.SubmitInput{})
	require.NoError(t, err)

	_, err = svc.MarkViewed(context.Background(), m.ID, uuid.New())
	require.ErrorIs(t, err, matching.ErrNotAParty)
}

func TestAcceptAndReject(t *testing.T) {
	svc, repo, _ := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	p := seedProperty(repo, landlord, "1500")
	m, err := svc.Submit(context.Background(), tenant, landlord, p.ID, matching.SubmitInput{})
	require.NoError(t, err)

	accepted, err := svc.Accept(context.Background(), m.ID, landlord, "Welcome aboard")
	require.NoError(t, err)
	require.Equal(t, matching.StatusAccepted, accepted.Status)
	require.NotNil(t, accepted.RespondedAt)

	_, err = svc.Reject(context.Background(), m.ID, landlord, "too late")
	require.ErrorIs(t, err, matching.ErrNotEligibleState)
}

func TestCancel_OnlyOriginatingTenant(t *testing.T) {
	svc, repo, _ := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	p := seedProperty(repo, landlord, "1500")
	m, err := svc.Submit(context.Background(), tenant, landlord, p.ID, matching.SubmitInput{})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), m.ID, uuid.New())
	require.ErrorIs(t, err, matching.ErrNotAParty)

	cancelled, err := svc.Cancel(context.Background(), m.ID, tenant)
	require.NoError(t, err)
	require.Equal(t, matching.StatusCancelled, cancelled.Status)
}

func TestFindMatching_FiltersByCityAndPrice(t *testing.T) {
	svc, repo, _ := setup(t)
	landlord := uuid.New()
	inBudget := seedProperty(repo, landlord, "1200")
	seedProperty(repo, landlord, "3000")

	min := "1000"
	max := "1500"
	criteria := &matching.MatchCriteria{
		TenantID:        uuid.New(),
		PreferredCities: []string{"Lisbon"},
		MinPrice:        &min,
		MaxPrice:        &max,
	}

	results, err := svc.FindMatching(context.Background(), criteria)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, inBudget.ID, results[0].ID)
}

// Every dimension but income is held at its no-pets/no-smoking/short-lease
// baseline (10 + 5 + 0 = 15 points) so the income-ratio tier's
// contribution is the only thing that varies between the two calls.
func TestCompatibilityScore_IncomeRatioTiers(t *testing.T) {
	p := &matching.Property{MonthlyRent: "1000"}
	const baseline = 15

	highIncome := "4000"
	m := &matching.MatchRequest{MonthlyIncome: &highIncome}
	require.Equal(t, 30+baseline, matching.CompatibilityScore(m, p))

	midIncome := "2500"
	m.MonthlyIncome = &midIncome
	require.Equal(t, 15+baseline, matching.CompatibilityScore(m, p))
}

func TestCompatibilityScore_FullCreditBundle(t *testing.T) {
	income := "6000"
	m := &matching.MatchRequest{
		MonthlyIncome:       &income,
		HasRentalReferences: true,
		HasEmploymentProof:  true,
		HasCreditCheck:      true,
		HasPets:             true,
		SmokingAllowed:      true,
		LeaseDurationMonths: 12,
		TenantMessage:       string(make([]byte, 200)),
	}
	p := &matching.Property{MonthlyRent: "1000", PetsAllowed: true, SmokingAllowed: true}
	require.Equal(t, 100, matching.CompatibilityScore(m, p))
}

func TestCompatibilityScore_PetAndSmokingMismatch(t *testing.T) {
	income := "1000"
	m := &matching.MatchRequest{
		MonthlyIncome:  &income,
		HasPets:        true,
		SmokingAllowed: true,
	}
	p := &matching.Property{MonthlyRent: "1000", PetsAllowed: false, SmokingAllowed: false}
	require.Equal(t, 5, matching.CompatibilityScore(m, p))
}

func TestExpireOld(t *testing.T) {
	svc, repo, clock := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	p := seedProperty(repo, landlord, "1500")
	m, err := svc.Submit(context.Background(), tenant, landlord, p.ID, matching.SubmitInput{})
	require.NoError(t, err)

	clock.now = clock.now.Add(8 * 24 * time.Hour)
	count, err := svc.ExpireOld(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)

	expired, err := repo.GetMatchRequestByID(context.Background(), m.ID)
	require.NoError(t, err)
	require.Equal(t, matching.StatusExpired, expired.Status)
}

func TestSendFollowUpReminders(t *testing.T) {
	svc, repo, clock := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	p := seedProperty(repo, landlord, "1500")
	m, err := svc.Submit(context.Background(), tenant, landlord, p.ID, matching.SubmitInput{})
	require.NoError(t, err)

	clock.now = clock.now.Add(3 * 24 * time.Hour)
	count, err := svc.SendFollowUpReminders(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)

	reminded, err := repo.GetMatchRequestByID(context.Background(), m.ID)
	require.NoError(t, err)
	require.Equal(t, 1, reminded.FollowUpCount)

	count, err = svc.SendFollowUpReminders(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

// ProcessDaily scores its synthesized baseline request (pet/smoking policy
// from the saved search plus a neutral 12-month term) against each
// candidate property. Since the baseline carries no income or document
// evidence, the income-ratio and documentation components always
// contribute zero, capping the achievable score well under the 70-point
// auto-apply threshold, so a sweep over an ordinary criteria/property
// set submits nothing. This asserts that documented ceiling rather than
// an auto-apply that never fires by accident.
func TestProcessDaily_BaselineScoreNeverClearsThreshold(t *testing.T) {
	svc, repo, _ := setup(t)
	landlord, tenant := uuid.New(), uuid.New()

	for i := 0; i < 5; i++ {
		seedProperty(repo, landlord, "1000")
	}

	repo.SeedCriteria(&matching.MatchCriteria{
		TenantID:              tenant,
		AutoApplyEnabled:      true,
		NotificationFrequency: "daily",
		PetsRequired:          true,
		SmokingRequired:       true,
	})

	submitted, err := svc.ProcessDaily(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, submitted)
}
