package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/subslayer/internal/notification/domain"
	tracking "github.com/felixgeelhaar/subslayer/internal/tracking/domain"
	"github.com/felixgeelhaar/subslayer/pkg/observability"
)

// DefaultWindowDays is how far ahead renewals are reported.
const DefaultWindowDays = 3

// RunResult summarizes one renewal check.
type RunResult struct {
	SubscriptionsFound int `json:"subscriptionsFound"`
	UsersNotified      int `json:"usersNotified"`
	EmailsSent         int `json:"emailsSent"`
	Failed             int `json:"failed"`
	Skipped            int `json:"skipped"`
}

// RenewalChecker sends one reminder per user with subscriptions renewing
// soon. Users are processed one at a time; a failure for one user never
// stops the others.
type RenewalChecker struct {
	subscriptions tracking.SubscriptionRepository
	directory     domain.RecipientDirectory
	ledger        domain.Ledger
	notifier      domain.Notifier
	logger        *slog.Logger
	metrics       observability.Metrics
	windowDays    int
	now           func() time.Time
}

// NewRenewalChecker creates a checker. A nil ledger disables deduplication.
func NewRenewalChecker(
	subscriptions tracking.SubscriptionRepository,
	directory domain.RecipientDirectory,
	ledger domain.Ledger,
	notifier domain.Notifier,
	logger *slog.Logger,
	metrics observability.Metrics,
) *RenewalChecker {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &RenewalChecker{
		subscriptions: subscriptions,
		directory:     directory,
		ledger:        ledger,
		notifier:      notifier,
		logger:        logger,
		metrics:       metrics,
		windowDays:    DefaultWindowDays,
		now:           time.Now,
	}
}

// WithWindowDays sets how many days ahead to look.
func (c *RenewalChecker) WithWindowDays(days int) *RenewalChecker {
	if days > 0 {
		c.windowDays = days
	}
	return c
}

// WithClock overrides the clock.
func (c *RenewalChecker) WithClock(now func() time.Time) *RenewalChecker {
	c.now = now
	return c
}

// Run performs one check. Only a failure to list subscriptions is returned
// as an error; per-user failures are counted in the result.
func (c *RenewalChecker) Run(ctx context.Context) (*RunResult, error) {
	logger := observability.LogOperation(c.logger, "check_renewals")
	today := tracking.DateOnly(c.now().UTC())
	until := today.AddDate(0, 0, c.windowDays)

	logger.InfoContext(ctx, "checking renewals",
		"from", today.Format(tracking.DateLayout),
		"to", until.Format(tracking.DateLayout),
	)

	subs, err := c.subscriptions.ListRenewingBetween(ctx, today, until)
	if err != nil {
		return nil, fmt.Errorf("failed to list renewals: %w", err)
	}

	result := &RunResult{SubscriptionsFound: len(subs)}
	if len(subs) == 0 {
		logger.InfoContext(ctx, "no upcoming renewals")
		return result, nil
	}

	owners := make([]uuid.UUID, 0)
	byOwner := make(map[uuid.UUID][]*tracking.Subscription)
	for _, sub := range subs {
		if _, seen := byOwner[sub.UserID]; !seen {
			owners = append(owners, sub.UserID)
		}
		byOwner[sub.UserID] = append(byOwner[sub.UserID], sub)
	}
	result.UsersNotified = len(owners)

	emails, err := c.directory.Lookup(ctx, owners)
	if err != nil {
		logger.WarnContext(ctx, "could not look up recipients", "error", err)
		result.Failed = len(owners)
		c.metrics.Counter(observability.MetricRemindersFailed, int64(len(owners)))
		return result, nil
	}

	for _, owner := range owners {
		switch c.remind(ctx, logger, owner, emails[owner], byOwner[owner], today) {
		case outcomeSent:
			result.EmailsSent++
			c.metrics.Counter(observability.MetricRemindersSent, 1)
		case outcomeSkipped:
			result.Skipped++
			c.metrics.Counter(observability.MetricRemindersSkipped, 1)
		case outcomeFailed:
			result.Failed++
			c.metrics.Counter(observability.MetricRemindersFailed, 1)
		}
	}

	logger.InfoContext(ctx, "renewal check complete",
		"subscriptions_found", result.SubscriptionsFound,
		"users", result.UsersNotified,
		"sent", result.EmailsSent,
		"failed", result.Failed,
		"skipped", result.Skipped,
	)
	return result, nil
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (c *RenewalChecker) remind(ctx context.Context, logger *slog.Logger, owner uuid.UUID, email string, subs []*tracking.Subscription, today time.Time) outcome {
	logger = logger.With("user_id", owner.String())
	if email == "" {
		logger.DebugContext(ctx, "no email on file")
		return outcomeSkipped
	}

	if c.ledger != nil {
		first, err := c.ledger.Claim(ctx, owner, today)
		if err != nil {
			logger.WarnContext(ctx, "reminder ledger unavailable", "error", err)
			return outcomeFailed
		}
		if !first {
			logger.DebugContext(ctx, "already reminded today")
			return outcomeSkipped
		}
	}

	reminder := domain.NewReminder(owner, email, subs, today, c.windowDays)
	if err := c.notifier.Send(ctx, reminder); err != nil {
		logger.ErrorContext(ctx, "failed to send reminder", "error", err)
		if c.ledger != nil {
			if err := c.ledger.Release(ctx, owner, today); err != nil {
				logger.WarnContext(ctx, "failed to release reminder claim", "error", err)
			}
		}
		return outcomeFailed
	}

	logger.InfoContext(ctx, "reminder sent", "subscriptions", len(subs))
	return outcomeSent
}
