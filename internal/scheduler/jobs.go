package scheduler

import (
	"context"
	"time"
)

// Default job intervals, minute-granularity per §5's scheduling model.
const (
	invitationCleanupInterval = 15 * time.Minute
	objectionSweepInterval    = time.Hour
	matchExpireInterval       = time.Hour
	matchReminderInterval     = time.Hour
	matchDailyInterval        = 24 * time.Hour
	notificationTickInterval  = time.Minute
	digestWeeklyInterval      = 7 * 24 * time.Hour
	digestMonthlyInterval     = 30 * 24 * time.Hour
)

// InvitationCleaner expires invitations past their TTL (C5).
type InvitationCleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// ObjectionSweeper flags overdue pending objections (C6).
type ObjectionSweeper interface {
	SweepOverdue(ctx context.Context) (int, error)
}

// MatchMaintainer runs the periodic match-request jobs (C3): expiring
// stale requests, nudging idle landlords, and auto-applying saved
// searches configured for daily auto-apply.
type MatchMaintainer interface {
	ExpireOld(ctx context.Context) (int, error)
	SendFollowUpReminders(ctx context.Context) (int, error)
	ProcessDaily(ctx context.Context) (int, error)
}

// NotificationDispatcher runs the periodic notification jobs (C2):
// flushing scheduled sends, retrying failed deliveries, and rolling up
// digests for users who opted into one.
type NotificationDispatcher interface {
	ProcessScheduled(ctx context.Context) (int, error)
	RetryFailed(ctx context.Context) (int, error)
	RunDigestsFor(ctx context.Context, digestType string) (int, error)
}

// Deps bundles the domain services the scheduler's jobs call into.
type Deps struct {
	Invitations   InvitationCleaner
	Objections    ObjectionSweeper
	Matching      MatchMaintainer
	Notifications NotificationDispatcher
}

// BuildJobs assembles the standard §5 job set from the given services.
func BuildJobs(d Deps) []Job {
	return []Job{
		{Name: "invitation_cleanup", Interval: invitationCleanupInterval, Run: d.Invitations.CleanupExpired},
		{Name: "objection_overdue_sweep", Interval: objectionSweepInterval, Run: d.Objections.SweepOverdue},
		{Name: "match_expire", Interval: matchExpireInterval, Run: d.Matching.ExpireOld},
		{Name: "match_followup_reminders", Interval: matchReminderInterval, Run: d.Matching.SendFollowUpReminders},
		{Name: "match_process_daily", Interval: matchDailyInterval, Run: func(ctx context.Context) (int, error) {
			submitted, err := d.Matching.ProcessDaily(ctx)
			if err != nil {
				return submitted, err
			}
			if _, err := d.Notifications.RunDigestsFor(ctx, "daily"); err != nil {
				return submitted, err
			}
			return submitted, nil
		}},
		{Name: "notification_process_scheduled", Interval: notificationTickInterval, Run: d.Notifications.ProcessScheduled},
		{Name: "notification_retry_failed", Interval: notificationTickInterval, Run: d.Notifications.RetryFailed},
		{Name: "notification_digest_weekly", Interval: digestWeeklyInterval, Run: func(ctx context.Context) (int, error) {
			return d.Notifications.RunDigestsFor(ctx, "weekly")
		}},
		{Name: "notification_digest_monthly", Interval: digestMonthlyInterval, Run: func(ctx context.Context) (int, error) {
			return d.Notifications.RunDigestsFor(ctx, "monthly")
		}},
	}
}
