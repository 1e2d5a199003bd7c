package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/notification"
)

// Repository implements notification.Repository for PostgreSQL.
type Repository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func New(pool interface{}, logger *zap.Logger) (*Repository, error) {
	pgPool, ok := pool.(*pgxpool.Pool)
	if !ok {
		return nil, fmt.Errorf("expected *pgxpool.Pool, got %T", pool)
	}
	return &Repository{pool: pgPool, logger: logger.With(zap.String("component", "notification-postgres-repository"))}, nil
}

const insertNotificationQuery = `
INSERT INTO notifications (
    id, recipient_id, template, title, message, priority, status, is_read,
    action_url, deep_link, data, content_type, content_id, scheduled_at,
    expires_at, created_at, recipient_email, recipient_phone, device_tokens
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
RETURNING version
`

const insertDeliveryQuery = `
INSERT INTO notification_deliveries (
    id, notification_id, channel, status, retry_count, created_at
) VALUES ($1, $2, $3, $4, $5, $6)
RETURNING version
`

func (r *Repository) CreateNotification(ctx context.Context, n *notification.Notification, deliveries []*notification.NotificationDelivery) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create notification: %w", err)
	}
	defer tx.Rollback(ctx)

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	row := tx.QueryRow(ctx, insertNotificationQuery,
		n.ID, n.RecipientID, n.Template, n.Title, n.Message, n.Priority, n.Status, n.IsRead,
		n.ActionURL, n.DeepLink, n.Data, n.ContentType, n.ContentID, n.ScheduledAt,
		n.ExpiresAt, n.CreatedAt, n.RecipientEmail, n.RecipientPhone, n.DeviceTokens,
	)
	if err := row.Scan(&n.Version); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	for _, d := range deliveries {
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		drow := tx.QueryRow(ctx, insertDeliveryQuery, d.ID, n.ID, d.Channel, d.Status, d.RetryCount, d.CreatedAt)
		if err := drow.Scan(&d.Version); err != nil {
			return fmt.Errorf("insert delivery: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create notification: %w", err)
	}
	return nil
}

const selectNotificationColumns = `
    id, recipient_id, template, title, message, priority, status, is_read,
    action_url, deep_link, data, content_type, content_id, scheduled_at,
    expires_at, sent_at, delivered_at, read_at, created_at, version,
    recipient_email, recipient_phone, device_tokens
`

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	n := &notification.Notification{}
	err := row.Scan(
		&n.ID, &n.RecipientID, &n.Template, &n.Title, &n.Message, &n.Priority, &n.Status, &n.IsRead,
		&n.ActionURL, &n.DeepLink, &n.Data, &n.ContentType, &n.ContentID, &n.ScheduledAt,
		&n.ExpiresAt, &n.SentAt, &n.DeliveredAt, &n.ReadAt, &n.CreatedAt, &n.Version,
		&n.RecipientEmail, &n.RecipientPhone, &n.DeviceTokens,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notification.ErrNotFound
		}
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	return n, nil
}

func scanNotifications(rows pgx.Rows) ([]*notification.Notification, error) {
	var out []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *Repository) GetNotification(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectNotificationColumns+` FROM notifications WHERE id = $1`, id)
	return scanNotification(row)
}

const updateNotificationQuery = `
UPDATE notifications SET
    status = $2, is_read = $3, sent_at = $4, delivered_at = $5, read_at = $6,
    version = version + 1
WHERE id = $1 AND version = $7
RETURNING version
`

func (r *Repository) UpdateNotification(ctx context.Context, n *notification.Notification) error {
	row := r.pool.QueryRow(ctx, updateNotificationQuery, n.ID, n.Status, n.IsRead, n.SentAt, n.DeliveredAt, n.ReadAt, n.Version)
	if err := row.Scan(&n.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetNotification(ctx, n.ID); getErr != nil {
				return notification.ErrNotFound
			}
			return notification.ErrVersionConflict
		}
		return fmt.Errorf("update notification: %w", err)
	}
	return nil
}

func (r *Repository) ListScheduledDue(ctx context.Context, now time.Time) ([]*notification.Notification, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectNotificationColumns+` FROM notifications
		WHERE status = 'pending' AND (scheduled_at IS NULL OR scheduled_at <= $1)`, now)
	if err != nil {
		return nil, fmt.Errorf("list scheduled due: %w", err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

const selectDeliveryColumns = `
    id, notification_id, channel, status, retry_count, next_retry_at,
    external_id, error_message, sent_at, created_at, version
`

func scanDelivery(row pgx.Row) (*notification.NotificationDelivery, error) {
	d := &notification.NotificationDelivery{}
	err := row.Scan(&d.ID, &d.NotificationID, &d.Channel, &d.Status, &d.RetryCount, &d.NextRetryAt,
		&d.ExternalID, &d.ErrorMessage, &d.SentAt, &d.CreatedAt, &d.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notification.ErrNotFound
		}
		return nil, fmt.Errorf("scan delivery: %w", err)
	}
	return d, nil
}

func (r *Repository) ListDeliveriesForNotification(ctx context.Context, notificationID uuid.UUID) ([]*notification.NotificationDelivery, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectDeliveryColumns+` FROM notification_deliveries WHERE notification_id = $1`, notificationID)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()
	var out []*notification.NotificationDelivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const updateDeliveryQuery = `
UPDATE notification_deliveries SET
    status = $2, retry_count = $3, next_retry_at = $4, external_id = $5,
    error_message = $6, sent_at = $7, version = version + 1
WHERE id = $1 AND version = $8
RETURNING version
`

func (r *Repository) UpdateDelivery(ctx context.Context, d *notification.NotificationDelivery) error {
	row := r.pool.QueryRow(ctx, updateDeliveryQuery, d.ID, d.Status, d.RetryCount, d.NextRetryAt,
		d.ExternalID, d.ErrorMessage, d.SentAt, d.Version)
	if err := row.Scan(&d.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notification.ErrVersionConflict
		}
		return fmt.Errorf("update delivery: %w", err)
	}
	return nil
}

func (r *Repository) ListRetryable(ctx context.Context, now time.Time) ([]*notification.NotificationDelivery, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectDeliveryColumns+` FROM notification_deliveries
		WHERE status = 'failed' AND next_retry_at IS NOT NULL AND next_retry_at <= $1`, now)
	if err != nil {
		return nil, fmt.Errorf("list retryable: %w", err)
	}
	defer rows.Close()
	var out []*notification.NotificationDelivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repository) ListDeliveredSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*notification.Notification, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectNotificationColumns+` FROM notifications
		WHERE recipient_id = $1 AND status IN ('sent', 'delivered', 'read') AND sent_at >= $2`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list delivered since: %w", err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (r *Repository) CountSentToday(ctx context.Context, recipientID uuid.UUID, template string, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND template = $2 AND created_at > $3`,
		recipientID, template, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sent today: %w", err)
	}
	return count, nil
}

func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*notification.Notification, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectNotificationColumns+` FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list for user: %w", err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (r *Repository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

const selectPreferenceColumns = `
    user_id, enabled, allow_email, allow_sms, allow_push, allow_in_app,
    allow_marketing, allow_system, allow_security, allow_property,
    allow_contract, allow_payment, allow_message, allow_rating,
    quiet_hours_start, quiet_hours_end, timezone, email_frequency,
    digest_enabled, digest_frequency, max_frequency_per_user_per_day, updated_at
`

func (r *Repository) GetPreference(ctx context.Context, userID uuid.UUID) (*notification.NotificationPreference, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectPreferenceColumns+` FROM notification_preferences WHERE user_id = $1`, userID)
	p := &notification.NotificationPreference{}
	err := row.Scan(&p.UserID, &p.Enabled, &p.AllowEmail, &p.AllowSMS, &p.AllowPush, &p.AllowInApp,
		&p.AllowMarketing, &p.AllowSystem, &p.AllowSecurity, &p.AllowProperty,
		&p.AllowContract, &p.AllowPayment, &p.AllowMessage, &p.AllowRating,
		&p.QuietHoursStart, &p.QuietHoursEnd, &p.Timezone, &p.EmailFrequency,
		&p.DigestEnabled, &p.DigestFrequency, &p.MaxFrequencyPerUserPerDay, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notification.ErrNotFound
		}
		return nil, fmt.Errorf("get preference: %w", err)
	}
	return p, nil
}

const upsertPreferenceQuery = `
INSERT INTO notification_preferences (
    user_id, enabled, allow_email, allow_sms, allow_push, allow_in_app,
    allow_marketing, allow_system, allow_security, allow_property,
    allow_contract, allow_payment, allow_message, allow_rating,
    quiet_hours_start, quiet_hours_end, timezone, email_frequency,
    digest_enabled, digest_frequency, max_frequency_per_user_per_day, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
ON CONFLICT (user_id) DO UPDATE SET
    enabled = EXCLUDED.enabled, allow_email = EXCLUDED.allow_email,
    allow_sms = EXCLUDED.allow_sms, allow_push = EXCLUDED.allow_push,
    allow_in_app = EXCLUDED.allow_in_app, allow_marketing = EXCLUDED.allow_marketing,
    allow_system = EXCLUDED.allow_system, allow_security = EXCLUDED.allow_security,
    allow_property = EXCLUDED.allow_property, allow_contract = EXCLUDED.allow_contract,
    allow_payment = EXCLUDED.allow_payment, allow_message = EXCLUDED.allow_message,
    allow_rating = EXCLUDED.allow_rating, quiet_hours_start = EXCLUDED.quiet_hours_start,
    quiet_hours_end = EXCLUDED.quiet_hours_end, timezone = EXCLUDED.timezone,
    email_frequency = EXCLUDED.email_frequency, digest_enabled = EXCLUDED.digest_enabled,
    digest_frequency = EXCLUDED.digest_frequency,
    max_frequency_per_user_per_day = EXCLUDED.max_frequency_per_user_per_day,
    updated_at = EXCLUDED.updated_at
`

func (r *Repository) UpsertPreference(ctx context.Context, p *notification.NotificationPreference) error {
	_, err := r.pool.Exec(ctx, upsertPreferenceQuery,
		p.UserID, p.Enabled, p.AllowEmail, p.AllowSMS, p.AllowPush, p.AllowInApp,
		p.AllowMarketing, p.AllowSystem, p.AllowSecurity, p.AllowProperty,
		p.AllowContract, p.AllowPayment, p.AllowMessage, p.AllowRating,
		p.QuietHoursStart, p.QuietHoursEnd, p.Timezone, p.EmailFrequency,
		p.DigestEnabled, p.DigestFrequency, p.MaxFrequencyPerUserPerDay, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}
	return nil
}

func (r *Repository) ListDigestEligible(ctx context.Context, digestType string) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM notification_preferences WHERE digest_enabled = true AND digest_frequency = $1`, digestType)
	if err != nil {
		return nil, fmt.Errorf("list digest eligible: %w", err)
	}
	defer rows.Close()
	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan digest eligible: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repository) GetDigest(ctx context.Context, userID uuid.UUID, digestType string, periodStart time.Time) (*notification.NotificationDigest, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, user_id, digest_type, period_start, period_end, notification_count, summary_data, created_at
		FROM notification_digests WHERE user_id = $1 AND digest_type = $2 AND period_start = $3`, userID, digestType, periodStart)
	d := &notification.NotificationDigest{}
	err := row.Scan(&d.ID, &d.UserID, &d.DigestType, &d.PeriodStart, &d.PeriodEnd, &d.NotificationCount, &d.SummaryData, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notification.ErrNotFound
		}
		return nil, fmt.Errorf("get digest: %w", err)
	}
	return d, nil
}

func (r *Repository) CreateDigest(ctx context.Context, d *notification.NotificationDigest) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO notification_digests (id, user_id, digest_type, period_start, period_end, notification_count, summary_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.UserID, d.DigestType, d.PeriodStart, d.PeriodEnd, d.NotificationCount, d.SummaryData, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("create digest: %w", err)
	}
	return nil
}

func (r *Repository) IncrementAnalytics(ctx context.Context, date time.Time, ch notification.Channel, field string) error {
	column := "sent"
	switch field {
	case "sent", "delivered", "failed", "clicked", "read":
		column = field
	default:
		return fmt.Errorf("increment analytics: unknown field %q", field)
	}
	query := fmt.Sprintf(`
		INSERT INTO notification_analytics (date, channel, %s)
		VALUES ($1, $2, 1)
		ON CONFLICT (date, channel) DO UPDATE SET %s = notification_analytics.%s + 1
	`, column, column, column)
	_, err := r.pool.Exec(ctx, query, date.Truncate(24*time.Hour), ch)
	if err != nil {
		return fmt.Errorf("increment analytics: %w", err)
	}
	return nil
}

func (r *Repository) GetAnalytics(ctx context.Context, date time.Time, ch notification.Channel) (*notification.NotificationAnalytics, error) {
	row := r.pool.QueryRow(ctx, `SELECT date, channel, sent, delivered, failed, clicked, read
		FROM notification_analytics WHERE date = $1 AND channel = $2`, date.Truncate(24*time.Hour), ch)
	a := &notification.NotificationAnalytics{}
	err := row.Scan(&a.Date, &a.Channel, &a.Sent, &a.Delivered, &a.Failed, &a.Clicked, &a.Read)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &notification.NotificationAnalytics{Date: date.Truncate(24 * time.Hour), Channel: ch}, nil
		}
		return nil, fmt.Errorf("get analytics: %w", err)
	}
	a.Recompute()
	return a, nil
}
