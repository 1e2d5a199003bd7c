// Package notification implements C2: the dispatcher that renders,
// preference-gates, fans out, rate-limits, retries and digests every
// user-facing notice the rest of the engine raises (§4.2).
package notification

import (
	"time"

	"github.com/google/uuid"
)

// Priority mirrors the urgency scale carried on every Notification.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityUrgent   Priority = "urgent"
	PriorityCritical Priority = "critical"
)

// Status is a Notification's own rolled-up lifecycle, distinct from the
// per-channel Status each NotificationDelivery tracks independently.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusDelivered  Status = "delivered"
	StatusRead       Status = "read"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Category gates a NotificationPreference's per-category allow flags.
type Category string

const (
	CategoryMarketing Category = "marketing"
	CategorySystem    Category = "system"
	CategorySecurity  Category = "security"
	CategoryProperty  Category = "property"
	CategoryContract  Category = "contract"
	CategoryPayment   Category = "payment"
	CategoryMessage   Category = "message"
	CategoryRating    Category = "rating"
)

// Channel identifies a delivery adapter (§6's channel port).
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelSMS     Channel = "sms"
	ChannelPush    Channel = "push"
	ChannelInApp   Channel = "in_app"
	ChannelWebhook Channel = "webhook"
)

// DeliveryStatus is a single (notification, channel) attempt's state.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
	DeliveryExpired DeliveryStatus = "expired"
)

// Notification is a single user-facing notice, independent of how many
// channels eventually carry it. It may reference an arbitrary content
// entity (a Contract, an Objection, a MatchRequest, ...) purely by id -
// no back-pointer ownership (§9).
type Notification struct {
	ID          uuid.UUID `json:"id"`
	RecipientID uuid.UUID `json:"recipient_id"`

	Template string   `json:"template,omitempty"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority Priority `json:"priority"`
	Status   Status   `json:"status"`

	IsRead bool `json:"is_read"`

	ActionURL string                 `json:"action_url,omitempty"`
	DeepLink  string                 `json:"deep_link,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`

	// RecipientEmail, RecipientPhone, and DeviceTokens carry the contact
	// data a channel adapter needs (§6): resolved once at creation time
	// rather than looked up per delivery, since a recipient who has no
	// platform account yet (an invited-but-unregistered tenant) still
	// needs to receive an email.
	RecipientEmail string   `json:"recipient_email,omitempty"`
	RecipientPhone string   `json:"recipient_phone,omitempty"`
	DeviceTokens   []string `json:"device_tokens,omitempty"`

	ContentType string     `json:"content_type,omitempty"` // e.g. "contract", "match_request"
	ContentID   *uuid.UUID `json:"content_id,omitempty"`

	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`

	SentAt      *time.Time `json:"sent_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	Version   int       `json:"version"`
}

// ShouldSendNow reports whether a notification is due for immediate
// dispatch: no schedule, or a schedule that has already elapsed, and not
// past its expiry.
func (n *Notification) ShouldSendNow(now time.Time) bool {
	if n.ExpiresAt != nil && now.After(*n.ExpiresAt) {
		return false
	}
	return n.ScheduledAt == nil || !now.Before(*n.ScheduledAt)
}

// NotificationDelivery is one channel's attempt at carrying a
// Notification, with its own independent retry bookkeeping.
type NotificationDelivery struct {
	ID             uuid.UUID      `json:"id"`
	NotificationID uuid.UUID      `json:"notification_id"`
	Channel        Channel        `json:"channel"`
	Status         DeliveryStatus `json:"status"`

	RetryCount  int        `json:"retry_count"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`

	ExternalID   string `json:"external_id,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	SentAt *time.Time `json:"sent_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	Version   int       `json:"version"`
}

// CanRetry reports whether this delivery has attempts remaining under
// the channel's configured retry_attempts ceiling.
func (d *NotificationDelivery) CanRetry(maxAttempts int) bool {
	return d.Status == DeliveryFailed && d.RetryCount < maxAttempts
}

// NotificationPreference is a per-user gate: a master switch, per-channel
// allow flags, per-category allow flags, a quiet-hours window, and
// digest configuration.
type NotificationPreference struct {
	UserID uuid.UUID `json:"user_id"`

	Enabled bool `json:"enabled"`

	AllowEmail bool `json:"allow_email"`
	AllowSMS   bool `json:"allow_sms"`
	AllowPush  bool `json:"allow_push"`
	AllowInApp bool `json:"allow_in_app"`

	AllowMarketing bool `json:"allow_marketing"`
	AllowSystem    bool `json:"allow_system"`
	AllowSecurity  bool `json:"allow_security"`
	AllowProperty  bool `json:"allow_property"`
	AllowContract  bool `json:"allow_contract"`
	AllowPayment   bool `json:"allow_payment"`
	AllowMessage   bool `json:"allow_message"`
	AllowRating    bool `json:"allow_rating"`

	QuietHoursStart string `json:"quiet_hours_start,omitempty"` // "HH:MM"
	QuietHoursEnd   string `json:"quiet_hours_end,omitempty"`
	Timezone        string `json:"timezone,omitempty"`

	EmailFrequency string `json:"email_frequency,omitempty"` // immediate|daily|weekly

	DigestEnabled   bool   `json:"digest_enabled"`
	DigestFrequency string `json:"digest_frequency,omitempty"` // daily|weekly|monthly

	MaxFrequencyPerUserPerDay int `json:"max_frequency_per_user_per_day"`

	UpdatedAt time.Time `json:"updated_at"`
}

// AllowsChannel reports whether the user has the given channel enabled.
func (p *NotificationPreference) AllowsChannel(ch Channel) bool {
	if !p.Enabled {
		return false
	}
	switch ch {
	case ChannelEmail:
		return p.AllowEmail
	case ChannelSMS:
		return p.AllowSMS
	case ChannelPush:
		return p.AllowPush
	case ChannelInApp:
		return p.AllowInApp
	default:
		return true
	}
}

// AllowsCategory reports whether the user has the given category
// enabled. An unrecognized category is allowed by default.
func (p *NotificationPreference) AllowsCategory(c Category) bool {
	switch c {
	case CategoryMarketing:
		return p.AllowMarketing
	case CategorySystem:
		return p.AllowSystem
	case CategorySecurity:
		return p.AllowSecurity
	case CategoryProperty:
		return p.AllowProperty
	case CategoryContract:
		return p.AllowContract
	case CategoryPayment:
		return p.AllowPayment
	case CategoryMessage:
		return p.AllowMessage
	case CategoryRating:
		return p.AllowRating
	default:
		return true
	}
}

// InQuietHours reports whether `at`, interpreted as HH:MM in the user's
// configured window, falls inside quiet hours. A window that wraps
// midnight (start > end) is handled by treating membership as outside
// [end, start).
func (p *NotificationPreference) InQuietHours(at time.Time) bool {
	if p.QuietHoursStart == "" || p.QuietHoursEnd == "" {
		return false
	}
	loc := at.Location()
	if p.Timezone != "" {
		if tz, err := time.LoadLocation(p.Timezone); err == nil {
			loc = tz
		}
	}
	local := at.In(loc)
	cur := local.Format("15:04")
	if p.QuietHoursStart <= p.QuietHoursEnd {
		return cur >= p.QuietHoursStart && cur < p.QuietHoursEnd
	}
	return cur >= p.QuietHoursStart || cur < p.QuietHoursEnd
}

// NotificationDigest is a periodic rollup of a user's delivered
// notifications, idempotent per (user, type, period_start) unless
// forced.
type NotificationDigest struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`

	DigestType string `json:"digest_type"` // daily|weekly|monthly

	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	NotificationCount int                    `json:"notification_count"`
	SummaryData       map[string]interface{} `json:"summary_data"`

	CreatedAt time.Time `json:"created_at"`
}

// NotificationAnalytics is a (date, channel) counter bucket with
// derived delivery/click/read rates, recomputed on every increment.
type NotificationAnalytics struct {
	Date    time.Time `json:"date"`
	Channel Channel   `json:"channel"`

	Sent      int `json:"sent"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
	Clicked   int `json:"clicked"`
	Read      int `json:"read"`

	DeliveryRate float64 `json:"delivery_rate"`
	ClickRate    float64 `json:"click_rate"`
	ReadRate     float64 `json:"read_rate"`
}

// Recompute refreshes the derived rates from the raw counters.
func (a *NotificationAnalytics) Recompute() {
	if a.Sent == 0 {
		a.DeliveryRate, a.ClickRate, a.ReadRate = 0, 0, 0
		return
	}
	a.DeliveryRate = float64(a.Delivered) / float64(a.Sent)
	a.ClickRate = float64(a.Clicked) / float64(a.Sent)
	a.ReadRate = float64(a.Read) / float64(a.Sent)
}
