package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/identity"
	"github.com/jaxxstorm/landlord/internal/notification/channel"
)

// ChannelConfig is the per-channel policy the service consults when
// fanning out and retrying: a fixed config payload passed to the
// adapter, a priority, and retry bookkeeping. Priority is not read:
// deliveries are ordered by defaultChannelOrder.
type ChannelConfig struct {
	Config        json.RawMessage
	Priority      int
	RetryAttempts int
	DelaySeconds  int
}

var defaultChannelOrder = []Channel{ChannelInApp, ChannelPush, ChannelSMS, ChannelEmail, ChannelWebhook}

// Service is the C2 dispatcher: the only writer of Notification,
// NotificationDelivery, NotificationDigest and NotificationAnalytics
// state.
type Service struct {
	repo     Repository
	registry *channel.Registry
	clock    identity.Clock
	logger   *zap.Logger

	channelConfigs map[Channel]ChannelConfig
	limiter        *slidingWindowLimiter

	digestWindow map[string]time.Duration
}

func NewService(repo Repository, registry *channel.Registry, clock identity.Clock, channelConfigs map[Channel]ChannelConfig, logger *zap.Logger) *Service {
	if clock == nil {
		clock = identity.SystemClock{}
	}
	if channelConfigs == nil {
		channelConfigs = make(map[Channel]ChannelConfig)
	}
	return &Service{
		repo:           repo,
		registry:       registry,
		clock:          clock,
		logger:         logger.With(zap.String("component", "notification-service")),
		channelConfigs: channelConfigs,
		limiter:        newSlidingWindowLimiter(60, 1000),
		digestWindow: map[string]time.Duration{
			"daily":   24 * time.Hour,
			"weekly":  7 * 24 * time.Hour,
			"monthly": 30 * 24 * time.Hour,
		},
	}
}

// CreateInput carries create_notification's arguments (§4.2).
type CreateInput struct {
	Recipient uuid.UUID
	Title     string
	Message   string
	Template  string
	Priority  Priority
	Category  Category
	Channels  []Channel

	ActionURL string
	DeepLink  string
	Data      map[string]interface{}

	ContentType string
	ContentID   *uuid.UUID

	ScheduledAt *time.Time
	ExpiresAt   *time.Time

	Context map[string]interface{}

	RecipientEmail string
	RecipientPhone string
	DeviceTokens   []string
}

// CreateNotification renders the template (if given), gates on
// preferences/quiet-hours/daily cap, and schedules one delivery per
// resolved, preference-allowed channel. Returns ErrBlockedByPolicy
// (never a raw nil) when the caller's notification was suppressed, so
// that suppression is never mistaken for an unrelated failure.
func (s *Service) CreateNotification(ctx context.Context, in CreateInput) (*Notification, error) {
	pref, err := s.repo.GetPreference(ctx, in.Recipient)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	if pref == nil {
		pref = defaultPreference(in.Recipient)
	}

	now := s.clock.Now()
	if !pref.Enabled {
		return nil, ErrBlockedByPolicy
	}
	if in.Category != "" && !pref.AllowsCategory(in.Category) {
		return nil, ErrBlockedByPolicy
	}
	if pref.InQuietHours(now) && in.Priority != PriorityCritical && in.Priority != PriorityUrgent {
		return nil, ErrBlockedByPolicy
	}
	if in.Template != "" && pref.MaxFrequencyPerUserPerDay > 0 {
		count, err := s.repo.CountSentToday(ctx, in.Recipient, in.Template, now.Add(-24*time.Hour))
		if err != nil {
			return nil, err
		}
		if count >= pref.MaxFrequencyPerUserPerDay {
			return nil, ErrBlockedByPolicy
		}
	}

	title := in.Title
	message := in.Message
	if in.Template != "" && len(in.Context) > 0 {
		title = renderTemplate(title, in.Context)
		message = renderTemplate(message, in.Context)
	}
	if title == "" {
		title = in.Title
	}
	if message == "" {
		message = in.Message
	}

	priority := in.Priority
	if priority == "" {
		priority = PriorityNormal
	}

	channels := in.Channels
	if len(channels) == 0 {
		channels = []Channel{ChannelInApp}
	}
	resolved := resolveChannels(channels, pref)
	if len(resolved) == 0 {
		return nil, ErrNoEligibleChannel
	}

	n := &Notification{
		ID:          uuid.New(),
		RecipientID: in.Recipient,
		Template:    in.Template,
		Title:       title,
		Message:     message,
		Priority:    priority,
		Status:      StatusPending,
		ActionURL:   in.ActionURL,
		DeepLink:    in.DeepLink,
		Data:        in.Data,
		ContentType: in.ContentType,
		ContentID:   in.ContentID,
		ScheduledAt: in.ScheduledAt,
		ExpiresAt:   in.ExpiresAt,
		CreatedAt:   now,

		RecipientEmail: in.RecipientEmail,
		RecipientPhone: in.RecipientPhone,
		DeviceTokens:   in.DeviceTokens,
	}

	deliveries := make([]*NotificationDelivery, 0, len(resolved))
	for _, ch := range resolved {
		deliveries = append(deliveries, &NotificationDelivery{
			ID:             uuid.New(),
			NotificationID: n.ID,
			Channel:        ch,
			Status:         DeliveryPending,
			CreatedAt:      now,
		})
	}

	if err := s.repo.CreateNotification(ctx, n, deliveries); err != nil {
		return nil, err
	}

	if n.ScheduledAt == nil {
		if err := s.Send(ctx, n); err != nil {
			s.logger.Error("immediate send failed", zap.Error(err), zap.String("notification_id", n.ID.String()))
		}
	}
	return n, nil
}

func defaultPreference(userID uuid.UUID) *NotificationPreference {
	return &NotificationPreference{
		UserID: userID, Enabled: true,
		AllowEmail: true, AllowSMS: true, AllowPush: true, AllowInApp: true,
		AllowMarketing: true, AllowSystem: true, AllowSecurity: true, AllowProperty: true,
		AllowContract: true, AllowPayment: true, AllowMessage: true, AllowRating: true,
		MaxFrequencyPerUserPerDay: 20,
	}
}

// resolveChannels dedupes by channel, drops preference-disallowed
// channels, and sorts the remainder by the package default priority
// order.
func resolveChannels(requested []Channel, pref *NotificationPreference) []Channel {
	seen := make(map[Channel]bool)
	var out []Channel
	for _, ch := range requested {
		if seen[ch] {
			continue
		}
		seen[ch] = true
		if !pref.AllowsChannel(ch) {
			continue
		}
		out = append(out, ch)
	}
	priority := func(ch Channel) int {
		for i, c := range defaultChannelOrder {
			if c == ch {
				return i
			}
		}
		return len(defaultChannelOrder)
	}
	sort.SliceStable(out, func(i, j int) bool { return priority(out[i]) < priority(out[j]) })
	return out
}

// Send iterates a notification's pending deliveries, enforcing the
// per-channel sliding-window rate limit before invoking the channel
// adapter. A single delivery's failure never fails the call; it is
// recorded and, if retries remain, scheduled.
func (s *Service) Send(ctx context.Context, n *Notification) error {
	if !n.ShouldSendNow(s.clock.Now()) {
		if n.ExpiresAt != nil && s.clock.Now().After(*n.ExpiresAt) {
			n.Status = StatusCancelled
			return s.repo.UpdateNotification(ctx, n)
		}
		return nil
	}

	n.Status = StatusProcessing
	if err := s.repo.UpdateNotification(ctx, n); err != nil {
		return err
	}

	deliveries, err := s.repo.ListDeliveriesForNotification(ctx, n.ID)
	if err != nil {
		return err
	}

	anySent := false
	allFailed := len(deliveries) > 0
	for _, d := range deliveries {
		if d.Status != DeliveryPending {
			if d.Status == DeliverySent {
				anySent, allFailed = true, false
			}
			continue
		}
		if err := s.deliverOne(ctx, n, d); err != nil {
			s.logger.Error("deliver failed", zap.Error(err), zap.String("delivery_id", d.ID.String()))
		}
		if d.Status == DeliverySent {
			anySent, allFailed = true, false
		}
	}

	switch {
	case anySent:
		n.Status = StatusSent
		now := s.clock.Now()
		n.SentAt = &now
	case allFailed:
		n.Status = StatusFailed
	default:
		n.Status = StatusPending
	}
	return s.repo.UpdateNotification(ctx, n)
}

func (s *Service) deliverOne(ctx context.Context, n *Notification, d *NotificationDelivery) error {
	now := s.clock.Now()
	key := n.RecipientID.String() + ":" + string(d.Channel)
	if !s.limiter.Allow(key, now) {
		d.Status = DeliveryFailed
		d.ErrorMessage = "Rate limit exceeded"
		_ = s.repo.IncrementAnalytics(ctx, now, d.Channel, "failed")
		return s.repo.UpdateDelivery(ctx, d)
	}

	provider, err := s.registry.Get(string(d.Channel))
	if err != nil {
		d.Status = DeliveryFailed
		d.ErrorMessage = err.Error()
		return s.repo.UpdateDelivery(ctx, d)
	}

	cfg := s.channelConfigs[d.Channel]
	view := channel.NotificationView{
		NotificationID: n.ID.String(),
		RecipientID:    n.RecipientID.String(),
		Title:          n.Title,
		Message:        n.Message,
		ActionURL:      n.ActionURL,
		DeepLink:       n.DeepLink,
		Data:           n.Data,
		RecipientEmail: n.RecipientEmail,
		RecipientPhone: n.RecipientPhone,
		DeviceTokens:   n.DeviceTokens,
	}

	result, sendErr := provider.Send(ctx, cfg.Config, view)
	if sendErr != nil || result == nil || !result.Success {
		d.Status = DeliveryFailed
		if sendErr != nil {
			d.ErrorMessage = sendErr.Error()
		} else if result != nil {
			d.ErrorMessage = result.Error
		}
		_ = s.repo.IncrementAnalytics(ctx, now, d.Channel, "failed")
		if d.CanRetry(cfg.RetryAttempts) {
			s.scheduleRetry(d, cfg, now)
		}
		return s.repo.UpdateDelivery(ctx, d)
	}

	d.Status = DeliverySent
	d.ExternalID = result.ExternalID
	d.SentAt = &now
	_ = s.repo.IncrementAnalytics(ctx, now, d.Channel, "sent")
	return s.repo.UpdateDelivery(ctx, d)
}

// scheduleRetry sets next_retry_at = now + delay_seconds * (retry_count+1)
// and bumps retry_count, mirroring §4.2's backoff formula.
func (s *Service) scheduleRetry(d *NotificationDelivery, cfg ChannelConfig, now time.Time) {
	d.RetryCount++
	delay := time.Duration(cfg.DelaySeconds) * time.Duration(d.RetryCount) * time.Second
	next := now.Add(delay)
	d.NextRetryAt = &next
}

// ProcessScheduled selects pending, due, unexpired notifications and
// sends them, expiring any that are already past their expiry.
func (s *Service) ProcessScheduled(ctx context.Context) (int, error) {
	now := s.clock.Now()
	due, err := s.repo.ListScheduledDue(ctx, now)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, n := range due {
		if n.ExpiresAt != nil && now.After(*n.ExpiresAt) {
			n.Status = StatusCancelled
			if err := s.repo.UpdateNotification(ctx, n); err != nil {
				s.logger.Error("expire scheduled notification failed", zap.Error(err))
			}
			continue
		}
		if err := s.Send(ctx, n); err != nil {
			s.logger.Error("process scheduled send failed", zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}

// RetryFailed re-sends every delivery past its backoff window that still
// has attempts remaining.
func (s *Service) RetryFailed(ctx context.Context) (int, error) {
	now := s.clock.Now()
	retryable, err := s.repo.ListRetryable(ctx, now)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, d := range retryable {
		n, err := s.repo.GetNotification(ctx, d.NotificationID)
		if err != nil {
			s.logger.Error("retry lookup failed", zap.Error(err))
			continue
		}
		d.Status = DeliveryPending
		if err := s.deliverOne(ctx, n, d); err != nil {
			s.logger.Error("retry delivery failed", zap.Error(err))
			continue
		}
		count++
	}
	return count, nil
}

// CreateDigest aggregates a user's delivered notifications over
// [now-window, now) into one NotificationDigest, idempotent per (user,
// type, period_start) unless force is set.
func (s *Service) CreateDigest(ctx context.Context, userID uuid.UUID, digestType string, force bool) (*NotificationDigest, error) {
	window, ok := s.digestWindow[digestType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown digest type %q", ErrBlockedByPolicy, digestType)
	}
	now := s.clock.Now()
	periodStart := now.Add(-window)

	if !force {
		existing, err := s.repo.GetDigest(ctx, userID, digestType, periodStart)
		if err != nil && err != ErrNotFound {
			return nil, err
		}
		if existing != nil {
			return nil, ErrDigestExists
		}
	}

	delivered, err := s.repo.ListDeliveredSince(ctx, userID, periodStart)
	if err != nil {
		return nil, err
	}

	byPriority := map[Priority]int{}
	byTemplate := map[string]int{}
	for _, n := range delivered {
		byPriority[n.Priority]++
		if n.Template != "" {
			byTemplate[n.Template]++
		}
	}

	highlights := delivered
	if len(highlights) > 5 {
		highlights = highlights[:5]
	}
	highlightTitles := make([]string, 0, len(highlights))
	for _, n := range highlights {
		highlightTitles = append(highlightTitles, n.Title)
	}

	digest := &NotificationDigest{
		ID:                uuid.New(),
		UserID:            userID,
		DigestType:        digestType,
		PeriodStart:       periodStart,
		PeriodEnd:         now,
		NotificationCount: len(delivered),
		SummaryData: map[string]interface{}{
			"by_priority": byPriority,
			"by_template": byTemplate,
			"highlights":  highlightTitles,
		},
		CreatedAt: now,
	}
	if err := s.repo.CreateDigest(ctx, digest); err != nil {
		return nil, err
	}
	return digest, nil
}

// RunDigestsFor creates a digest of the given type for every user whose
// preferences opt into it, skipping users who already have one for the
// current period. It is meant to be driven by a scheduler tick, one call
// per digest type (daily/weekly/monthly), and returns the number of
// digests actually created.
func (s *Service) RunDigestsFor(ctx context.Context, digestType string) (int, error) {
	users, err := s.repo.ListDigestEligible(ctx, digestType)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, userID := range users {
		_, err := s.CreateDigest(ctx, userID, digestType, false)
		if err != nil {
			if err == ErrDigestExists {
				continue
			}
			s.logger.Error("digest creation failed", zap.String("digest_type", digestType), zap.Error(err))
			continue
		}
		created++
	}
	return created, nil
}

// MarkRead stamps read_at on a single notification owned by userID.
func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	n, err := s.repo.GetNotification(ctx, id)
	if err != nil {
		return err
	}
	if n.RecipientID != userID {
		return ErrNotFound
	}
	if n.IsRead {
		return nil
	}
	now := s.clock.Now()
	n.IsRead = true
	n.ReadAt = &now
	if n.Status == StatusSent || n.Status == StatusDelivered {
		n.Status = StatusRead
	}
	return s.repo.UpdateNotification(ctx, n)
}

// MarkAllRead marks every unread notification owned by userID as read.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	all, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	now := s.clock.Now()
	count := 0
	for _, n := range all {
		if n.IsRead {
			continue
		}
		n.IsRead = true
		n.ReadAt = &now
		if n.Status == StatusSent || n.Status == StatusDelivered {
			n.Status = StatusRead
		}
		if err := s.repo.UpdateNotification(ctx, n); err != nil {
			s.logger.Error("mark read failed", zap.Error(err))
			continue
		}
		count++
	}
	return count, nil
}

// UnreadCount reports how many notifications userID has not yet read.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
