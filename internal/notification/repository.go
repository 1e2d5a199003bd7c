package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence port for notifications, their per-channel
// deliveries, user preferences, digests, and analytics buckets.
type Repository interface {
	CreateNotification(ctx context.Context, n *Notification, deliveries []*NotificationDelivery) error
	GetNotification(ctx context.Context, id uuid.UUID) (*Notification, error)
	UpdateNotification(ctx context.Context, n *Notification) error
	ListScheduledDue(ctx context.Context, now time.Time) ([]*Notification, error)

	ListDeliveriesForNotification(ctx context.Context, notificationID uuid.UUID) ([]*NotificationDelivery, error)
	UpdateDelivery(ctx context.Context, d *NotificationDelivery) error
	ListRetryable(ctx context.Context, now time.Time) ([]*NotificationDelivery, error)

	ListDeliveredSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*Notification, error)
	CountSentToday(ctx context.Context, recipientID uuid.UUID, template string, since time.Time) (int, error)

	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)

	GetPreference(ctx context.Context, userID uuid.UUID) (*NotificationPreference, error)
	UpsertPreference(ctx context.Context, p *NotificationPreference) error
	ListDigestEligible(ctx context.Context, digestType string) ([]uuid.UUID, error)

	GetDigest(ctx context.Context, userID uuid.UUID, digestType string, periodStart time.Time) (*NotificationDigest, error)
	CreateDigest(ctx context.Context, d *NotificationDigest) error

	IncrementAnalytics(ctx context.Context, date time.Time, ch Channel, field string) error
	GetAnalytics(ctx context.Context, date time.Time, ch Channel) (*NotificationAnalytics, error)
}
