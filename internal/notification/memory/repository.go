// Package memory provides an in-process notification.Repository for
// tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaxxstorm/landlord/internal/notification"
)

type analyticsKey struct {
	date    string
	channel notification.Channel
}

// Repository is an in-memory notification.Repository.
type Repository struct {
	mu          sync.Mutex
	notifs      map[uuid.UUID]*notification.Notification
	deliveries  map[uuid.UUID]*notification.NotificationDelivery
	preferences map[uuid.UUID]*notification.NotificationPreference
	digests     map[string]*notification.NotificationDigest
	analytics   map[analyticsKey]*notification.NotificationAnalytics
}

func New() *Repository {
	return &Repository{
		notifs:      make(map[uuid.UUID]*notification.Notification),
		deliveries:  make(map[uuid.UUID]*notification.NotificationDelivery),
		preferences: make(map[uuid.UUID]*notification.NotificationPreference),
		digests:     make(map[string]*notification.NotificationDigest),
		analytics:   make(map[analyticsKey]*notification.NotificationAnalytics),
	}
}

func cloneNotification(n *notification.Notification) *notification.Notification {
	c := *n
	return &c
}

func cloneDelivery(d *notification.NotificationDelivery) *notification.NotificationDelivery {
	c := *d
	return &c
}

func (r *Repository) CreateNotification(ctx context.Context, n *notification.Notification, deliveries []*notification.NotificationDelivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.Version = 1
	r.notifs[n.ID] = cloneNotification(n)
	for _, d := range deliveries {
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		d.Version = 1
		r.deliveries[d.ID] = cloneDelivery(d)
	}
	return nil
}

func (r *Repository) GetNotification(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifs[id]
	if !ok {
		return nil, notification.ErrNotFound
	}
	return cloneNotification(n), nil
}

func (r *Repository) UpdateNotification(ctx context.Context, n *notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.notifs[n.ID]
	if !ok {
		return notification.ErrNotFound
	}
	if stored.Version != n.Version {
		return notification.ErrVersionConflict
	}
	n.Version++
	r.notifs[n.ID] = cloneNotification(n)
	return nil
}

func (r *Repository) ListScheduledDue(ctx context.Context, now time.Time) ([]*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.Notification
	for _, n := range r.notifs {
		if n.Status != notification.StatusPending {
			continue
		}
		if n.ScheduledAt != nil && now.Before(*n.ScheduledAt) {
			continue
		}
		out = append(out, cloneNotification(n))
	}
	return out, nil
}

func (r *Repository) ListDeliveriesForNotification(ctx context.Context, notificationID uuid.UUID) ([]*notification.NotificationDelivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.NotificationDelivery
	for _, d := range r.deliveries {
		if d.NotificationID == notificationID {
			out = append(out, cloneDelivery(d))
		}
	}
	return out, nil
}

func (r *Repository) UpdateDelivery(ctx context.Context, d *notification.NotificationDelivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.deliveries[d.ID]
	if !ok {
		return notification.ErrNotFound
	}
	if stored.Version != d.Version {
		return notification.ErrVersionConflict
	}
	d.Version++
	r.deliveries[d.ID] = cloneDelivery(d)
	return nil
}

func (r *Repository) ListRetryable(ctx context.Context, now time.Time) ([]*notification.NotificationDelivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.NotificationDelivery
	for _, d := range r.deliveries {
		if d.Status != notification.DeliveryFailed {
			continue
		}
		if d.NextRetryAt == nil || d.NextRetryAt.After(now) {
			continue
		}
		out = append(out, cloneDelivery(d))
	}
	return out, nil
}

func (r *Repository) ListDeliveredSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.Notification
	for _, n := range r.notifs {
		if n.RecipientID != userID {
			continue
		}
		if n.Status != notification.StatusSent && n.Status != notification.StatusDelivered && n.Status != notification.StatusRead {
			continue
		}
		if n.SentAt == nil || n.SentAt.Before(since) {
			continue
		}
		out = append(out, cloneNotification(n))
	}
	return out, nil
}

func (r *Repository) CountSentToday(ctx context.Context, recipientID uuid.UUID, template string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.notifs {
		if n.RecipientID == recipientID && n.Template == template && n.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.Notification
	for _, n := range r.notifs {
		if n.RecipientID == userID {
			out = append(out, cloneNotification(n))
		}
	}
	return out, nil
}

func (r *Repository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.notifs {
		if n.RecipientID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *Repository) GetPreference(ctx context.Context, userID uuid.UUID) (*notification.NotificationPreference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.preferences[userID]
	if !ok {
		return nil, notification.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *Repository) UpsertPreference(ctx context.Context, p *notification.NotificationPreference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.preferences[p.UserID] = &cp
	return nil
}

func (r *Repository) ListDigestEligible(ctx context.Context, digestType string) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for _, p := range r.preferences {
		if p.DigestEnabled && p.DigestFrequency == digestType {
			out = append(out, p.UserID)
		}
	}
	return out, nil
}

func (r *Repository) GetDigest(ctx context.Context, userID uuid.UUID, digestType string, periodStart time.Time) (*notification.NotificationDigest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := digestKey(userID, digestType, periodStart)
	d, ok := r.digests[key]
	if !ok {
		return nil, notification.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *Repository) CreateDigest(ctx context.Context, d *notification.NotificationDigest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	key := digestKey(d.UserID, d.DigestType, d.PeriodStart)
	cp := *d
	r.digests[key] = &cp
	return nil
}

func digestKey(userID uuid.UUID, digestType string, periodStart time.Time) string {
	return userID.String() + "|" + digestType + "|" + periodStart.Truncate(time.Minute).String()
}

func (r *Repository) IncrementAnalytics(ctx context.Context, date time.Time, ch notification.Channel, field string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := analyticsKey{date: date.Format("2006-01-02"), channel: ch}
	a, ok := r.analytics[key]
	if !ok {
		a = &notification.NotificationAnalytics{Date: date.Truncate(24 * time.Hour), Channel: ch}
		r.analytics[key] = a
	}
	switch field {
	case "sent":
		a.Sent++
	case "delivered":
		a.Delivered++
	case "failed":
		a.Failed++
	case "clicked":
		a.Clicked++
	case "read":
		a.Read++
	}
	a.Recompute()
	return nil
}

func (r *Repository) GetAnalytics(ctx context.Context, date time.Time, ch notification.Channel) (*notification.NotificationAnalytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := analyticsKey{date: date.Format("2006-01-02"), channel: ch}
	a, ok := r.analytics[key]
	if !ok {
		return &notification.NotificationAnalytics{Date: date.Truncate(24 * time.Hour), Channel: ch}, nil
	}
	cp := *a
	return &cp, nil
}
