package signing_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/contract"
	contractmemory "github.com/jaxxstorm/landlord/internal/contract/memory"
	"github.com/jaxxstorm/landlord/internal/signing"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func setup(t *testing.T) (*signing.Service, *contract.Service, *contractmemory.Repository, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	repo := contractmemory.New()
	contracts := contract.NewService(repo, clock, nil, zap.NewNop())
	svc := signing.NewService(contracts, clock, nil, zap.NewNop())
	return svc, contracts, repo, clock
}

func readyToSign(t *testing.T, contracts *contract.Service, repo *contractmemory.Repository, landlord, tenant uuid.UUID, guarantor *uuid.UUID) *contract.Contract {
	t.Helper()
	c, err := contracts.CreateDraft(context.Background(), landlord, uuid.New(), contract.TypeRentalUrban, contract.HistoryMetadata{})
	require.NoError(t, err)
	c.TenantID = &tenant
	c.GuarantorID = guarantor
	c.CurrentState = contract.StatusReadyToSign
	c.ContractTerms = contract.JSONMap{"lease_duration_months": 12}
	c.EconomicTerms = contract.JSONMap{"monthly_rent": "1500000", "security_deposit": "1500000"}
	c.TenantApproved = true
	c.LandlordApproved = true
	require.NoError(t, repo.UpdateContract(context.Background(), c))
	return c
}

func TestSign_HappyPathNoGuarantor(t *testing.T) {
	svc, contracts, repo, _ := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	c := readyToSign(t, contracts, repo, landlord, tenant, nil)

	basic := []signing.AuthMethod{signing.AuthPassword, signing.AuthFactor}

	updated, err := svc.Sign(context.Background(), c.ID, tenant, contract.RoleTenant, contract.JSONMap{"ip": "10.0.0.1"}, basic, contract.HistoryMetadata{})
	require.NoError(t, err)
	require.True(t, updated.TenantSigned)
	require.Equal(t, contract.StatusReadyToSign, updated.CurrentState)

	updated, err = svc.Sign(context.Background(), c.ID, landlord, contract.RoleLandlord, contract.JSONMap{"ip": "10.0.0.2"}, basic, contract.HistoryMetadata{})
	require.NoError(t, err)
	require.True(t, updated.LandlordSigned)
	require.Equal(t, contract.StatusFullySigned, updated.CurrentState)
	require.NotNil(t, updated.FullySignedAt)
}

func TestSign_OutOfOrderRejectedWithGuarantor(t *testing.T) {
	svc, contracts, repo, _ := setup(t)
	landlord, tenant, guarantor := uuid.New(), uuid.New(), uuid.New()
	c := readyToSign(t, contracts, repo, landlord, tenant, &guarantor)

	basic := []signing.AuthMethod{signing.AuthPassword, signing.AuthFactor}

	_, err := svc.Sign(context.Background(), c.ID, landlord, contract.RoleLandlord, nil, basic, contract.HistoryMetadata{})
	require.ErrorIs(t, err, signing.ErrOutOfOrder)

	updated, err := contracts.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.False(t, updated.LandlordSigned)
	require.Equal(t, contract.StatusReadyToSign, updated.CurrentState)

	history, err := contracts.GetHistory(context.Background(), c.ID)
	require.NoError(t, err)
	for _, h := range history {
		require.NotEqual(t, contract.ActionSigned, h.ActionType)
	}
}

func TestSign_GuarantorThenLandlordAfterTenant(t *testing.T) {
	svc, contracts, repo, _ := setup(t)
	landlord, tenant, guarantor := uuid.New(), uuid.New(), uuid.New()
	c := readyToSign(t, contracts, repo, landlord, tenant, &guarantor)

	basic := []signing.AuthMethod{signing.AuthPassword, signing.AuthFactor}

	_, err := svc.Sign(context.Background(), c.ID, tenant, contract.RoleTenant, nil, basic, contract.HistoryMetadata{})
	require.NoError(t, err)

	_, err = svc.Sign(context.Background(), c.ID, landlord, contract.RoleLandlord, nil, basic, contract.HistoryMetadata{})
	require.ErrorIs(t, err, signing.ErrOutOfOrder)

	_, err = svc.Sign(context.Background(), c.ID, guarantor, contract.RoleGuarantor, nil, basic, contract.HistoryMetadata{})
	require.NoError(t, err)

	updated, err := svc.Sign(context.Background(), c.ID, landlord, contract.RoleLandlord, nil, basic, contract.HistoryMetadata{})
	require.NoError(t, err)
	require.Equal(t, contract.StatusFullySigned, updated.CurrentState)
}

func TestSign_RejectsWrongSigner(t *testing.T) {
	svc, contracts, repo, _ := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	c := readyToSign(t, contracts, repo, landlord, tenant, nil)

	_, err := svc.Sign(context.Background(), c.ID, uuid.New(), contract.RoleTenant, nil, []signing.AuthMethod{signing.AuthPassword, signing.AuthFactor}, contract.HistoryMetadata{})
	require.ErrorIs(t, err, signing.ErrNotAParty)
}

func TestSign_InsufficientAuthRejected(t *testing.T) {
	svc, contracts, repo, _ := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	c := readyToSign(t, contracts, repo, landlord, tenant, nil)

	_, err := svc.Sign(context.Background(), c.ID, tenant, contract.RoleTenant, nil, []signing.AuthMethod{signing.AuthPassword}, contract.HistoryMetadata{})
	require.ErrorIs(t, err, signing.ErrInsufficientAuth)
}

func TestSign_CommercialContractRequiresMaximumLevel(t *testing.T) {
	svc, contracts, repo, _ := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	c, err := contracts.CreateDraft(context.Background(), landlord, uuid.New(), contract.TypeRentalCommercial, contract.HistoryMetadata{})
	require.NoError(t, err)
	c.TenantID = &tenant
	c.CurrentState = contract.StatusReadyToSign
	c.ContractTerms = contract.JSONMap{"lease_duration_months": 24}
	c.TenantApproved = true
	c.LandlordApproved = true
	require.NoError(t, repo.UpdateContract(context.Background(), c))

	enhancedOnly := []signing.AuthMethod{signing.AuthPassword, signing.AuthFactor}
	_, err = svc.Sign(context.Background(), c.ID, tenant, contract.RoleTenant, nil, enhancedOnly, contract.HistoryMetadata{})
	require.ErrorIs(t, err, signing.ErrInsufficientAuth)

	maximum := []signing.AuthMethod{signing.AuthPassword, signing.AuthFace, signing.AuthDocument}
	updated, err := svc.Sign(context.Background(), c.ID, tenant, contract.RoleTenant, nil, maximum, contract.HistoryMetadata{})
	require.NoError(t, err)
	require.True(t, updated.TenantSigned)
}

func TestPublish_HappyPathSetsDatesAndPublishes(t *testing.T) {
	svc, contracts, repo, clock := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	c := readyToSign(t, contracts, repo, landlord, tenant, nil)

	basic := []signing.AuthMethod{signing.AuthPassword, signing.AuthFactor}
	_, err := svc.Sign(context.Background(), c.ID, tenant, contract.RoleTenant, nil, basic, contract.HistoryMetadata{})
	require.NoError(t, err)
	_, err = svc.Sign(context.Background(), c.ID, landlord, contract.RoleLandlord, nil, basic, contract.HistoryMetadata{})
	require.NoError(t, err)

	published, err := svc.Publish(context.Background(), c.ID, landlord, contract.HistoryMetadata{})
	require.NoError(t, err)
	require.Equal(t, contract.StatusPublished, published.CurrentState)
	require.True(t, published.Published)
	require.Equal(t, clock.now, *published.StartDate)
	require.Equal(t, clock.now.AddDate(0, 12, 0), *published.EndDate)

	history, err := contracts.GetHistory(context.Background(), c.ID)
	require.NoError(t, err)
	publishedCount := 0
	for _, h := range history {
		if h.ActionType == contract.ActionContractPublished {
			publishedCount++
		}
	}
	require.Equal(t, 1, publishedCount)
}

func TestPublish_RejectsNonLandlordAndNonFullySigned(t *testing.T) {
	svc, contracts, repo, _ := setup(t)
	landlord, tenant := uuid.New(), uuid.New()
	c := readyToSign(t, contracts, repo, landlord, tenant, nil)

	_, err := svc.Publish(context.Background(), c.ID, landlord, contract.HistoryMetadata{})
	require.ErrorIs(t, err, signing.ErrNotFullySigned)

	basic := []signing.AuthMethod{signing.AuthPassword, signing.AuthFactor}
	_, err = svc.Sign(context.Background(), c.ID, tenant, contract.RoleTenant, nil, basic, contract.HistoryMetadata{})
	require.NoError(t, err)
	_, err = svc.Sign(context.Background(), c.ID, landlord, contract.RoleLandlord, nil, basic, contract.HistoryMetadata{})
	require.NoError(t, err)

	_, err = svc.Publish(context.Background(), c.ID, tenant, contract.HistoryMetadata{})
	require.ErrorIs(t, err, signing.ErrNotPublisher)
}
