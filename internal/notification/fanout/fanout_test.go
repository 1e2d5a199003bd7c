package fanout_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/notification"
	"github.com/jaxxstorm/landlord/internal/notification/channel"
	"github.com/jaxxstorm/landlord/internal/notification/channel/providers/mock"
	"github.com/jaxxstorm/landlord/internal/notification/fanout"
	"github.com/jaxxstorm/landlord/internal/notification/memory"
)

func setup(t *testing.T) (*fanout.Dispatcher, *mock.Provider) {
	t.Helper()
	repo := memory.New()
	registry := channel.NewRegistry(zap.NewNop())
	inApp := mock.New("in_app")
	require.NoError(t, registry.Register(inApp))
	email := mock.New("email")
	require.NoError(t, registry.Register(email))

	configs := map[notification.Channel]notification.ChannelConfig{
		notification.ChannelInApp: {RetryAttempts: 3, DelaySeconds: 30},
		notification.ChannelEmail: {RetryAttempts: 3, DelaySeconds: 30},
	}
	svc := notification.NewService(repo, registry, nil, configs, zap.NewNop())
	return fanout.New(svc, zap.NewNop()), inApp
}

func TestNotifyObjectionEvent_DispatchesThroughNotificationService(t *testing.T) {
	d, inApp := setup(t)
	recipient := uuid.New()

	d.NotifyObjectionEvent(context.Background(), uuid.New(), recipient, "objection_submitted", map[string]interface{}{"contract_id": "c-1"})

	sent := inApp.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, recipient.String(), sent[0].RecipientID)
	require.Contains(t, sent[0].Message, "objection_submitted")
}

func TestNotifyObjectionEvent_NilRecipientIsANoop(t *testing.T) {
	d, inApp := setup(t)

	d.NotifyObjectionEvent(context.Background(), uuid.New(), uuid.Nil, "objection_submitted", nil)

	require.Empty(t, inApp.Sent())
}

func TestNotifyInvitationEvent_SameEmailMapsToSameRecipient(t *testing.T) {
	d, inApp := setup(t)

	d.NotifyInvitationEvent(context.Background(), uuid.New(), "Tenant@Example.com", "invitation_sent", nil)
	d.NotifyInvitationEvent(context.Background(), uuid.New(), "tenant@example.com", "invitation_accepted", nil)

	sent := inApp.Sent()
	require.Len(t, sent, 2)
	require.Equal(t, sent[0].RecipientID, sent[1].RecipientID)
}

func TestNotifyInvitationEvent_DifferentEmailsMapToDifferentRecipients(t *testing.T) {
	d, inApp := setup(t)

	d.NotifyInvitationEvent(context.Background(), uuid.New(), "a@example.com", "invitation_sent", nil)
	d.NotifyInvitationEvent(context.Background(), uuid.New(), "b@example.com", "invitation_sent", nil)

	sent := inApp.Sent()
	require.Len(t, sent, 2)
	require.NotEqual(t, sent[0].RecipientID, sent[1].RecipientID)
}

func TestNotifyMatchEvent_UnknownEventFallsBackToGenericCopy(t *testing.T) {
	d, inApp := setup(t)
	recipient := uuid.New()

	d.NotifyMatchEvent(context.Background(), uuid.New(), recipient, "something_unmapped", nil)

	sent := inApp.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "something_unmapped", sent[0].Message)
}
