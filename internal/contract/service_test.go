package contract_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/contract"
	"github.com/jaxxstorm/landlord/internal/contract/memory"
)

func newTestService(t *testing.T) (*contract.Service, *memory.Repository) {
	t.Helper()
	repo := memory.New()
	svc := contract.NewService(repo, nil, nil, zap.NewNop())
	return svc, repo
}

func TestCreateDraft_AllocatesContractNumberAndHistory(t *testing.T) {
	svc, _ := newTestService(t)
	landlord := uuid.New()
	property := uuid.New()

	c, err := svc.CreateDraft(context.Background(), landlord, property, contract.TypeRentalUrban, contract.HistoryMetadata{})
	require.NoError(t, err)
	require.Regexp(t, `^VH-\d{4}-\d{6}$`, c.ContractNumber)
	require.Equal(t, contract.StatusDraft, c.CurrentState)

	history, err := svc.GetHistory(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, contract.ActionDraftCreated, history[0].ActionType)
	require.True(t, history[0].VerifyIntegrity())
}

func TestCreateDraft_SequentialNumbersPerYear(t *testing.T) {
	svc, _ := newTestService(t)
	landlord := uuid.New()

	c1, err := svc.CreateDraft(context.Background(), landlord, uuid.New(), contract.TypeRentalUrban, contract.HistoryMetadata{})
	require.NoError(t, err)
	c2, err := svc.CreateDraft(context.Background(), landlord, uuid.New(), contract.TypeRentalUrban, contract.HistoryMetadata{})
	require.NoError(t, err)
	require.NotEqual(t, c1.ContractNumber, c2.ContractNumber)
}

func TestCompleteLandlordData_TransitionsAndRejectsOtherLandlord(t *testing.T) {
	svc, _ := newTestService(t)
	landlord := uuid.New()
	c, err := svc.CreateDraft(context.Background(), landlord, uuid.New(), contract.TypeRentalUrban, contract.HistoryMetadata{})
	require.NoError(t, err)

	data := contract.JSONMap{"full_name": "Alice", "national_id": "123", "contact_email": "a@example.com"}
	econ := contract.JSONMap{"monthly_rent": "1500000", "security_deposit": "1500000"}
	terms := contract.JSONMap{"lease_duration_months": 12}

	updated, err := svc.CompleteLandlordData(context.Background(), c.ID, landlord, data, econ, terms, contract.HistoryMetadata{})
	require.NoError(t, err)
	require.Equal(t, contract.StatusLandlordCompleting, updated.CurrentState)

	_, err = svc.CompleteLandlordData(context.Background(), c.ID, uuid.New(), data, econ, terms, contract.HistoryMetadata{})
	require.ErrorIs(t, err, contract.ErrPermissionDenied)
}

func TestApprove_OnlyInBothReviewing(t *testing.T) {
	svc, repo := newTestService(t)
	landlord := uuid.New()
	tenant := uuid.New()
	c, err := svc.CreateDraft(context.Background(), landlord, uuid.New(), contract.TypeRentalUrban, contract.HistoryMetadata{})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), c.ID, landlord, contract.RoleLandlord, contract.HistoryMetadata{})
	require.ErrorIs(t, err, contract.ErrInvalidTransition)

	// Force the contract into both_reviewing to exercise the approval gate.
	forced, err := repo.GetContractByID(context.Background(), c.ID)
	require.NoError(t, err)
	forced.TenantID = &tenant
	forced.CurrentState = contract.StatusBothReviewing
	require.NoError(t, repo.UpdateContract(context.Background(), forced))

	updated, err := svc.Approve(context.Background(), c.ID, tenant, contract.RoleTenant, contract.HistoryMetadata{})
	require.NoError(t, err)
	require.Equal(t, contract.StatusBothReviewing, updated.CurrentState)
	require.True(t, updated.TenantApproved)

	updated, err = svc.Approve(context.Background(), c.ID, landlord, contract.RoleLandlord, contract.HistoryMetadata{})
	require.NoError(t, err)
	require.Equal(t, contract.StatusReadyToSign, updated.CurrentState)
}

func TestCompletionPercentage_MonotonicAsFactsBecomeTrue(t *testing.T) {
	c := &contract.Contract{}
	p0 := c.CompletionPercentage()
	c.LandlordData = contract.JSONMap{"x": 1}
	p1 := c.CompletionPercentage()
	require.Greater(t, p1, p0)

	c.EconomicTerms = contract.JSONMap{"x": 1}
	c.ContractTerms = contract.JSONMap{"x": 1}
	tenant := uuid.New()
	c.TenantID = &tenant
	c.InvitationAccepted = true
	c.TenantData = contract.JSONMap{"x": 1}
	c.TenantApproved = true
	c.TenantSigned = true
	c.LandlordSigned = true
	c.Published = true
	require.Equal(t, 100, c.CompletionPercentage())
}

func TestMissingDataSummary_ListsAbsentRequiredKeys(t *testing.T) {
	c := &contract.Contract{ContractType: contract.TypeRentalCommercial}
	summary := c.MissingDataSummary()
	require.Contains(t, summary["landlord"], "full_name")
	require.Contains(t, summary, "guarantee")
}

func TestMutate_ConcurrentCallsAreSerializedPerContract(t *testing.T) {
	svc, _ := newTestService(t)
	landlord := uuid.New()
	c, err := svc.CreateDraft(context.Background(), landlord, uuid.New(), contract.TypeRentalUrban, contract.HistoryMetadata{})
	require.NoError(t, err)

	const n = 20
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			_, _, err := svc.Mutate(context.Background(), c.ID, landlord, contract.RoleLandlord, contract.HistoryMetadata{}, func(cc *contract.Contract) (contract.ActionType, string, contract.JSONMap, contract.Status, error) {
				if cc.LandlordData == nil {
					cc.LandlordData = contract.JSONMap{}
				}
				cc.LandlordData["n"] = i
				return contract.ActionLandlordDataSaved, "concurrent edit", nil, "", nil
			})
			errs <- err
		}(i)
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}

	history, err := svc.GetHistory(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, history, 1+n) // draft created + n edits, none lost to version conflicts

	var last time.Time
	for _, h := range history {
		require.True(t, !h.Timestamp.Before(last))
		last = h.Timestamp
	}
}
