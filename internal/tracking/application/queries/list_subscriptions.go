package queries

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixgeelhaar/subslayer/internal/tracking/domain"
)

// SubscriptionDTO is a subscription prepared for display.
type SubscriptionDTO struct {
	ID               uuid.UUID       `json:"id"`
	ServiceName      string          `json:"service_name"`
	Cost             decimal.Decimal `json:"cost"`
	Currency         string          `json:"currency"`
	RenewalDate      string          `json:"renewal_date"`
	Status           domain.Status   `json:"status"`
	DaysUntilRenewal int             `json:"days_until_renewal"`
	Urgency          domain.Urgency  `json:"urgency"`
	Category         domain.Category `json:"category"`
	CancellationURL  string          `json:"cancellation_url"`
	WebsiteURL       string          `json:"website_url,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ListSubscriptionsQuery selects the owner.
type ListSubscriptionsQuery struct {
	UserID uuid.UUID
}

// ListSubscriptionsHandler lists a user's non-cancelled subscriptions.
type ListSubscriptionsHandler struct {
	repo domain.SubscriptionRepository
	now  func() time.Time
}

// NewListSubscriptionsHandler builds a handler.
func NewListSubscriptionsHandler(repo domain.SubscriptionRepository) *ListSubscriptionsHandler {
	return &ListSubscriptionsHandler{repo: repo, now: time.Now}
}

// WithClock overrides the clock used for countdowns.
func (h *ListSubscriptionsHandler) WithClock(now func() time.Time) *ListSubscriptionsHandler {
	h.now = now
	return h
}

// Handle returns the subscriptions ordered by renewal date.
func (h *ListSubscriptionsHandler) Handle(ctx context.Context, q ListSubscriptionsQuery) ([]SubscriptionDTO, error) {
	subs, err := h.repo.ListActive(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	today := h.now().UTC()
	out := make([]SubscriptionDTO, 0, len(subs))
	for _, sub := range subs {
		out = append(out, ToDTO(sub, today))
	}
	return out, nil
}

// ToDTO converts a subscription for display relative to today.
func ToDTO(sub *domain.Subscription, today time.Time) SubscriptionDTO {
	days := domain.DaysUntilRenewal(sub.RenewalDate, today)
	return SubscriptionDTO{
		ID:               sub.ID,
		ServiceName:      sub.ServiceName,
		Cost:             sub.Cost,
		Currency:         sub.Currency,
		RenewalDate:      sub.RenewalDate.Format(domain.DateLayout),
		Status:           sub.DisplayStatus(today),
		DaysUntilRenewal: days,
		Urgency:          domain.UrgencyFor(days),
		Category:         domain.Categorize(sub.ServiceName),
		CancellationURL:  domain.ResolveCancellationURL(sub.ServiceName, sub.CancellationURL),
		WebsiteURL:       sub.WebsiteURL,
		CreatedAt:        sub.CreatedAt,
	}
}
