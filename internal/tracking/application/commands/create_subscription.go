package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	extraction "github.com/felixgeelhaar/subslayer/internal/extraction/domain"
	"github.com/felixgeelhaar/subslayer/internal/tracking/domain"
	"github.com/felixgeelhaar/subslayer/pkg/observability"
)

var validate = validator.New()

// CreateSubscriptionCommand contains a confirmed subscription.
type CreateSubscriptionCommand struct {
	UserID          uuid.UUID
	ServiceName     string `validate:"required"`
	Cost            decimal.Decimal
	Currency        string `validate:"omitempty,iso4217"`
	RenewalDate     string `validate:"required,datetime=2006-01-02"`
	CancellationURL string `validate:"omitempty,http_url"`
	WebsiteURL      string `validate:"omitempty,http_url"`
}

// CommandFromParsed builds a create command from an extraction result.
func CommandFromParsed(userID uuid.UUID, parsed *extraction.ParsedSubscription) CreateSubscriptionCommand {
	cmd := CreateSubscriptionCommand{
		UserID:      userID,
		ServiceName: parsed.ServiceName,
		Cost:        decimal.NewFromFloat(parsed.Cost),
		Currency:    parsed.Currency,
		RenewalDate: parsed.RenewalDate,
	}
	if parsed.CancellationURL != nil {
		cmd.CancellationURL = *parsed.CancellationURL
	}
	if parsed.WebsiteURL != nil {
		cmd.WebsiteURL = *parsed.WebsiteURL
	}
	return cmd
}

// CreateSubscriptionResult returns the stored subscription.
type CreateSubscriptionResult struct {
	Subscription *domain.Subscription
}

// CreateSubscriptionHandler stores confirmed subscriptions.
type CreateSubscriptionHandler struct {
	repo    domain.SubscriptionRepository
	metrics observability.Metrics
}

// NewCreateSubscriptionHandler builds a handler.
func NewCreateSubscriptionHandler(repo domain.SubscriptionRepository, metrics observability.Metrics) *CreateSubscriptionHandler {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &CreateSubscriptionHandler{repo: repo, metrics: metrics}
}

// Handle validates the command again and inserts an active subscription.
func (h *CreateSubscriptionHandler) Handle(ctx context.Context, cmd CreateSubscriptionCommand) (*CreateSubscriptionResult, error) {
	cmd.ServiceName = strings.TrimSpace(cmd.ServiceName)
	cmd.Currency = strings.ToUpper(strings.TrimSpace(cmd.Currency))
	if cmd.Currency == "" {
		cmd.Currency = domain.DefaultCurrency
	}
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSubscription, err)
	}

	renewal, err := domain.ParseDate(cmd.RenewalDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSubscription, err)
	}

	sub, err := domain.NewSubscription(cmd.UserID, cmd.ServiceName, cmd.Cost, cmd.Currency, renewal)
	if err != nil {
		return nil, err
	}
	sub.CancellationURL = cmd.CancellationURL
	sub.WebsiteURL = cmd.WebsiteURL

	if err := h.repo.Insert(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}
	h.metrics.Counter(observability.MetricSubscriptionsCreated, 1, observability.T("currency", sub.Currency))
	return &CreateSubscriptionResult{Subscription: sub}, nil
}
