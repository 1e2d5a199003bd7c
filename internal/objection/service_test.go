package objection_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/contract"
	contractmemory "github.com/jaxxstorm/landlord/internal/contract/memory"
	"github.com/jaxxstorm/landlord/internal/objection"
	objectionmemory "github.com/jaxxstorm/landlord/internal/objection/memory"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func setup(t *testing.T) (*objection.Service, *contract.Service, *contractmemory.Repository, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	repo := contractmemory.New()
	contracts := contract.NewService(repo, clock, nil, zap.NewNop())
	svc := objection.NewService(objectionmemory.New(), contracts, clock, nil, zap.NewNop())
	return svc, contracts, repo, clock
}

func contractUnderReview(t *testing.T, contracts *contract.Service, repo *contractmemory.Repository, landlord, tenant uuid.UUID) *contract.Contract {
	t.Helper()
	c, err := contracts.CreateDraft(context.Background(), landlord, uuid.New(), contract.TypeRentalUrban, contract.HistoryMetadata{})
	require.NoError(t, err)
	c.TenantID = &tenant
	c.CurrentState = contract.StatusLandlordReviewing
	c.EconomicTerms = contract.JSONMap{"monthly_rent": "1000000"}
	require.NoError(t, repo.UpdateContract(context.Background(), c))
	return c
}

func TestSubmit_RejectsShortJustification(t *testing.T) {
	svc, contracts, repo, _ := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	c := contractUnderReview(t, contracts, repo, landlord, tenant)

	_, err := svc.Submit(context.Background(), c.ID, landlord, contract.RoleLandlord, "economic_terms.monthly_rent", "1000000", "900000", "too short", objection.PriorityMedium, contract.HistoryMetadata{})
	require.ErrorIs(t, err, objection.ErrJustificationTooShort)
}

func TestSubmit_TransitionsContractToObjectionsPending(t *testing.T) {
	svc, contracts, repo, _ := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	c := contractUnderReview(t, contracts, repo, landlord, tenant)

	o, err := svc.Submit(context.Background(), c.ID, tenant, contract.RoleTenant, "economic_terms.monthly_rent", "1000000", "900000", "the proposed rent exceeds comparable units", objection.PriorityHigh, contract.HistoryMetadata{})
	require.NoError(t, err)
	require.Equal(t, objection.StatusPending, o.Status)

	updated, err := contracts.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, contract.StatusObjectionsPending, updated.CurrentState)
	require.True(t, updated.HasPendingObjections)
	require.Equal(t, 1, updated.ObjectionsCount)
}

func TestRespond_AcceptedAppliesFieldMutationAndTransitions(t *testing.T) {
	svc, contracts, repo, _ := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	c := contractUnderReview(t, contracts, repo, landlord, tenant)

	o, err := svc.Submit(context.Background(), c.ID, tenant, contract.RoleTenant, "economic_terms.monthly_rent", "1000000", "900000", "the proposed rent exceeds comparable units", objection.PriorityHigh, contract.HistoryMetadata{})
	require.NoError(t, err)

	resolved, err := svc.Respond(context.Background(), o.ID, landlord, contract.RoleLandlord, objection.StatusAccepted, "agreed", contract.HistoryMetadata{})
	require.NoError(t, err)
	require.Equal(t, objection.StatusAccepted, resolved.Status)
	require.False(t, resolved.RequiresManualAmendment)

	updated, err := contracts.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, "900000", updated.EconomicTerms["monthly_rent"])
	require.False(t, updated.HasPendingObjections)
	require.Equal(t, contract.StatusBothReviewing, updated.CurrentState)
}

func TestRespond_UnknownFieldMarksManualAmendment(t *testing.T) {
	svc, contracts, repo, _ := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	c := contractUnderReview(t, contracts, repo, landlord, tenant)

	o, err := svc.Submit(context.Background(), c.ID, tenant, contract.RoleTenant, "economic_terms.missing_key", "", "x", "a justification of sufficient length here", objection.PriorityLow, contract.HistoryMetadata{})
	require.NoError(t, err)

	resolved, err := svc.Respond(context.Background(), o.ID, landlord, contract.RoleLandlord, objection.StatusAccepted, "ok", contract.HistoryMetadata{})
	require.NoError(t, err)
	require.True(t, resolved.RequiresManualAmendment)
}

func TestRespond_RejectsSelfResponse(t *testing.T) {
	svc, contracts, repo, _ := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	c := contractUnderReview(t, contracts, repo, landlord, tenant)

	o, err := svc.Submit(context.Background(), c.ID, tenant, contract.RoleTenant, "economic_terms.monthly_rent", "1000000", "900000", "the proposed rent exceeds comparable units", objection.PriorityHigh, contract.HistoryMetadata{})
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), o.ID, tenant, contract.RoleTenant, objection.StatusAccepted, "", contract.HistoryMetadata{})
	require.ErrorIs(t, err, objection.ErrSelfResponse)
}

func TestListOverdue_FlagsObjectionsOlderThanFiveDays(t *testing.T) {
	svc, contracts, repo, clock := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	c := contractUnderReview(t, contracts, repo, landlord, tenant)

	_, err := svc.Submit(context.Background(), c.ID, tenant, contract.RoleTenant, "economic_terms.monthly_rent", "1000000", "900000", "the proposed rent exceeds comparable units", objection.PriorityHigh, contract.HistoryMetadata{})
	require.NoError(t, err)

	overdue, err := svc.ListOverdue(context.Background(), c.ID)
	require.NoError(t, err)
	require.Empty(t, overdue)

	clock.now = clock.now.AddDate(0, 0, 6)
	overdue, err = svc.ListOverdue(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
}
