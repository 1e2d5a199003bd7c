// Package fanout adapts internal/notification.Service to the narrow,
// per-engine Notifier ports (contract, invitation, objection, signing,
// matching) each domain package declares for itself. It imports
// internal/notification, and internal/contract only for JSONMap; the
// engines declare their own Notifier ports and never import
// internal/notification directly (§9).
package fanout

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/contract"
	"github.com/jaxxstorm/landlord/internal/notification"
)

// prospectNamespace seeds the deterministic UUID used to address a
// notification at someone who has no platform account yet (an invited
// tenant between TENANT_INVITED and acceptance): the invitation Notifier
// port only carries an email, but CreateNotification is keyed on a
// recipient id. Hashing the email into a stable UUID keeps repeated
// sends to the same address under one daily-cap/preference identity
// instead of minting an unbounded number of anonymous recipients.
var prospectNamespace = uuid.MustParse("6f6a9c0b-2d41-4e9b-9d1a-9d8a1c6e6b50")

// Dispatcher implements every engine's Notifier interface over one
// underlying notification.Service.
type Dispatcher struct {
	notifications *notification.Service
	logger        *zap.Logger
}

func New(notifications *notification.Service, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{notifications: notifications, logger: logger.With(zap.String("component", "notification-fanout"))}
}

type eventCopy struct {
	title    string
	message  string
	category notification.Category
	priority notification.Priority
}

var eventCopyByPrefix = map[string]eventCopy{
	"contract_": {title: "Contract update", message: "Your rental contract has a new update: {{ event }}.", category: notification.CategoryContract, priority: notification.PriorityNormal},
	"invitation_": {title: "Rental invitation", message: "You have a rental contract invitation: {{ event }}.", category: notification.CategoryContract, priority: notification.PriorityNormal},
	"objection_": {title: "Contract objection", message: "An objection on your contract changed status: {{ event }}.", category: notification.CategoryContract, priority: notification.PriorityHigh},
	"signing_": {title: "Contract signature", message: "Your contract's signature status changed: {{ event }}.", category: notification.CategoryContract, priority: notification.PriorityHigh},
	"match_": {title: "Match request update", message: "Your match request changed status: {{ event }}.", category: notification.CategoryProperty, priority: notification.PriorityNormal},
}

func copyFor(event string) eventCopy {
	for prefix, c := range eventCopyByPrefix {
		if strings.HasPrefix(event, prefix) {
			return c
		}
	}
	return eventCopy{title: "Notification", message: "{{ event }}", category: notification.CategorySystem, priority: notification.PriorityNormal}
}

func (d *Dispatcher) send(ctx context.Context, recipient uuid.UUID, recipientEmail string, contentType string, contentID uuid.UUID, event string, data map[string]interface{}) {
	if recipient == uuid.Nil {
		return
	}
	ctxVars := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		ctxVars[k] = v
	}
	ctxVars["event"] = event

	c := copyFor(event)
	in := notification.CreateInput{
		Recipient:      recipient,
		RecipientEmail: recipientEmail,
		Title:          c.title,
		Message:        c.message,
		Template:       event,
		Priority:       c.priority,
		Category:       c.category,
		ContentType:    contentType,
		Context:        ctxVars,
	}
	if contentID != uuid.Nil {
		in.ContentID = &contentID
	}
	if _, err := d.notifications.CreateNotification(ctx, in); err != nil {
		if err == notification.ErrBlockedByPolicy || err == notification.ErrNoEligibleChannel {
			return
		}
		d.logger.Error("fanout create notification failed", zap.String("event", event), zap.Error(err))
	}
}

func (d *Dispatcher) NotifyContractEvent(ctx context.Context, contractID uuid.UUID, recipient uuid.UUID, event string, data contract.JSONMap) {
	d.send(ctx, recipient, "", "contract", contractID, event, data)
}

func (d *Dispatcher) NotifyInvitationEvent(ctx context.Context, invitationID uuid.UUID, recipientEmail string, event string, data map[string]interface{}) {
	recipient := uuid.NewSHA1(prospectNamespace, []byte(strings.ToLower(recipientEmail)))
	d.send(ctx, recipient, recipientEmail, "invitation", invitationID, event, data)
}

func (d *Dispatcher) NotifyObjectionEvent(ctx context.Context, objectionID uuid.UUID, recipient uuid.UUID, event string, data map[string]interface{}) {
	d.send(ctx, recipient, "", "objection", objectionID, event, data)
}

func (d *Dispatcher) NotifySigningEvent(ctx context.Context, contractID uuid.UUID, recipient uuid.UUID, event string, data map[string]interface{}) {
	d.send(ctx, recipient, "", "contract", contractID, event, data)
}

func (d *Dispatcher) NotifyMatchEvent(ctx context.Context, matchID uuid.UUID, recipient uuid.UUID, event string, data map[string]interface{}) {
	d.send(ctx, recipient, "", "match_request", matchID, event, data)
}
