package queries

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixgeelhaar/subslayer/internal/tracking/domain"
)

// CategorySpendDTO is one row of the category breakdown.
type CategorySpendDTO struct {
	Category domain.Category `json:"category"`
	Monthly  decimal.Decimal `json:"monthly"`
	Percent  decimal.Decimal `json:"percent"`
}

// CurrencySpendDTO is the spend in one currency.
type CurrencySpendDTO struct {
	Currency        string             `json:"currency"`
	Monthly         decimal.Decimal    `json:"monthly"`
	Yearly          decimal.Decimal    `json:"yearly"`
	Subscriptions   int                `json:"subscriptions"`
	Categories      []CategorySpendDTO `json:"categories"`
	BiggestCategory domain.Category    `json:"biggest_category,omitempty"`
}

// SpendingSummaryDTO groups spend per currency.
type SpendingSummaryDTO struct {
	Currencies []CurrencySpendDTO `json:"currencies"`
}

// SpendingSummaryQuery selects the owner.
type SpendingSummaryQuery struct {
	UserID uuid.UUID
}

// SpendingSummaryHandler computes monthly and yearly spend.
type SpendingSummaryHandler struct {
	repo domain.SubscriptionRepository
}

// NewSpendingSummaryHandler builds a handler.
func NewSpendingSummaryHandler(repo domain.SubscriptionRepository) *SpendingSummaryHandler {
	return &SpendingSummaryHandler{repo: repo}
}

// Handle totals the user's active subscriptions.
func (h *SpendingSummaryHandler) Handle(ctx context.Context, q SpendingSummaryQuery) (*SpendingSummaryDTO, error) {
	subs, err := h.repo.ListActive(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	summary := &SpendingSummaryDTO{Currencies: make([]CurrencySpendDTO, 0)}
	for _, spend := range domain.Summarize(subs) {
		dto := CurrencySpendDTO{
			Currency:      spend.Currency,
			Monthly:       spend.Monthly,
			Yearly:        spend.Yearly,
			Subscriptions: spend.Count,
			Categories:    make([]CategorySpendDTO, 0, len(spend.ByCategory)),
		}
		for _, c := range spend.ByCategory {
			dto.Categories = append(dto.Categories, CategorySpendDTO{Category: c.Category, Monthly: c.Monthly, Percent: c.Share})
		}
		if len(spend.ByCategory) > 0 {
			dto.BiggestCategory = spend.ByCategory[0].Category
		}
		summary.Currencies = append(summary.Currencies, dto)
	}
	return summary, nil
}
