package invitation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/contract"
	contractmemory "github.com/jaxxstorm/landlord/internal/contract/memory"
	"github.com/jaxxstorm/landlord/internal/invitation"
	invitationmemory "github.com/jaxxstorm/landlord/internal/invitation/memory"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestService(t *testing.T) (*invitation.Service, *contract.Service, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	contracts := contract.NewService(contractmemory.New(), clock, nil, zap.NewNop())
	svc := invitation.NewService(invitationmemory.New(), contracts, clock, nil, zap.NewNop())
	return svc, contracts, clock
}

func TestCreate_TransitionsContractToTenantInvited(t *testing.T) {
	svc, contracts, clock := newTestService(t)
	landlord := uuid.New()
	c, err := contracts.CreateDraft(context.Background(), landlord, uuid.New(), contract.TypeRentalUrban, contract.HistoryMetadata{})
	require.NoError(t, err)

	inv, plaintext, err := svc.Create(context.Background(), c.ID, landlord, "tenant@example.com", "Tenant Name", nil, invitation.MethodEmail, nil, 0, contract.HistoryMetadata{})
	require.NoError(t, err)
	require.Len(t, plaintext, 43)
	require.Equal(t, invitation.StatusSent, inv.Status)
	require.Equal(t, clock.now.AddDate(0, 0, 7), inv.ExpiresAt)

	updated, err := contracts.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, contract.StatusTenantInvited, updated.CurrentState)
}

func TestCreate_RejectsWrongLandlord(t *testing.T) {
	svc, contracts, _ := newTestService(t)
	landlord := uuid.New()
	c, err := contracts.CreateDraft(context.Background(), landlord, uuid.New(), contract.TypeRentalUrban, contract.HistoryMetadata{})
	require.NoError(t, err)

	_, _, err = svc.Create(context.Background(), c.ID, uuid.New(), "tenant@example.com", "Tenant Name", nil, invitation.MethodEmail, nil, 0, contract.HistoryMetadata{})
	require.ErrorIs(t, err, contract.ErrPermissionDenied)
}

func TestVerify_OpensOnFirstView(t *testing.T) {
	svc, contracts, _ := newTestService(t)
	landlord := uuid.New()
	c, err := contracts.CreateDraft(context.Background(), landlord, uuid.New(), contract.TypeRentalUrban, contract.HistoryMetadata{})
	require.NoError(t, err)
	_, plaintext, err := svc.Create(context.Background(), c.ID, landlord, "tenant@example.com", "Tenant", nil, invitation.MethodEmail, nil, 0, contract.HistoryMetadata{})
	require.NoError(t, err)

	_, inv, err := svc.Verify(context.Background(), plaintext)
	require.NoError(t, err)
	require.Equal(t, invitation.StatusOpened, inv.Status)
	require.NotNil(t, inv.OpenedAt)
}

func TestVerify_RejectsMalformedToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, _, err := svc.Verify(context.Background(), "not-a-valid-token")
	require.ErrorIs(t, err, invitation.ErrInvalid)
}

func TestVerify_ExpiredTokenRejectedAndMarked(t *testing.T) {
	svc, contracts, clock := newTestService(t)
	landlord := uuid.New()
	c, err := contracts.CreateDraft(context.Background(), landlord, uuid.New(), contract.TypeRentalUrban, contract.HistoryMetadata{})
	require.NoError(t, err)
	_, plaintext, err := svc.Create(context.Background(), c.ID, landlord, "tenant@example.com", "Tenant", nil, invitation.MethodEmail, nil, 1, contract.HistoryMetadata{})
	require.NoError(t, err)

	clock.now = clock.now.AddDate(0, 0, 2)
	_, _, err = svc.Verify(context.Background(), plaintext)
	require.ErrorIs(t, err, invitation.ErrExpired)
}

func TestAccept_LinksTenantAndTransitions(t *testing.T) {
	svc, contracts, _ := newTestService(t)
	landlord := uuid.New()
	c, err := contracts.CreateDraft(context.Background(), landlord, uuid.New(), contract.TypeRentalUrban, contract.HistoryMetadata{})
	require.NoError(t, err)
	_, plaintext, err := svc.Create(context.Background(), c.ID, landlord, "tenant@example.com", "Tenant", nil, invitation.MethodEmail, nil, 0, contract.HistoryMetadata{})
	require.NoError(t, err)

	tenantID := uuid.New()
	updated, err := svc.Accept(context.Background(), plaintext, tenantID, "tenant@example.com", contract.HistoryMetadata{})
	require.NoError(t, err)
	require.Equal(t, contract.StatusTenantReviewing, updated.CurrentState)
	require.Equal(t, tenantID, *updated.TenantID)
	require.True(t, updated.InvitationAccepted)
}

func TestAccept_RejectsEmailMismatch(t *testing.T) {
	svc, contracts, _ := newTestService(t)
	landlord := uuid.New()
	c, err := contracts.CreateDraft(context.Background(), landlord, uuid.New(), contract.TypeRentalUrban, contract.HistoryMetadata{})
	require.NoError(t, err)
	_, plaintext, err := svc.Create(context.Background(), c.ID, landlord, "tenant@example.com", "Tenant", nil, invitation.MethodEmail, nil, 0, contract.HistoryMetadata{})
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), plaintext, uuid.New(), "someone-else@example.com", contract.HistoryMetadata{})
	require.ErrorIs(t, err, invitation.ErrEmailMismatch)
}

func TestResend_RotatesTokenAndIncrementsAttempts(t *testing.T) {
	svc, contracts, _ := newTestService(t)
	landlord := uuid.New()
	c, err := contracts.CreateDraft(context.Background(), landlord, uuid.New(), contract.TypeRentalUrban, contract.HistoryMetadata{})
	require.NoError(t, err)
	_, original, err := svc.Create(context.Background(), c.ID, landlord, "tenant@example.com", "Tenant", nil, invitation.MethodEmail, nil, 0, contract.HistoryMetadata{})
	require.NoError(t, err)

	rotated, err := svc.Resend(context.Background(), c.ID, landlord)
	require.NoError(t, err)
	require.NotEqual(t, original, rotated)

	_, _, err = svc.Verify(context.Background(), original)
	require.ErrorIs(t, err, invitation.ErrInvalid)

	_, _, err = svc.Verify(context.Background(), rotated)
	require.NoError(t, err)
}

func TestCleanupExpired_MarksPastExpiryInvitations(t *testing.T) {
	svc, contracts, clock := newTestService(t)
	landlord := uuid.New()
	c, err := contracts.CreateDraft(context.Background(), landlord, uuid.New(), contract.TypeRentalUrban, contract.HistoryMetadata{})
	require.NoError(t, err)
	_, _, err = svc.Create(context.Background(), c.ID, landlord, "tenant@example.com", "Tenant", nil, invitation.MethodEmail, nil, 1, contract.HistoryMetadata{})
	require.NoError(t, err)

	clock.now = clock.now.AddDate(0, 0, 2)
	n, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
