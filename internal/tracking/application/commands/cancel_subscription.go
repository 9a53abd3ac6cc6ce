package commands

import (
	"context"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/subslayer/internal/tracking/domain"
	"github.com/felixgeelhaar/subslayer/pkg/observability"
)

// CancelSubscriptionCommand identifies the subscription to cancel.
type CancelSubscriptionCommand struct {
	UserID         uuid.UUID
	SubscriptionID uuid.UUID
}

// CancelSubscriptionResult carries where the user can cancel with the provider.
type CancelSubscriptionResult struct {
	SubscriptionID  uuid.UUID `json:"subscription_id"`
	ServiceName     string    `json:"service_name"`
	CancellationURL string    `json:"cancellation_url"`
}

// CancelSubscriptionHandler marks subscriptions as cancelled. Nothing is
// cancelled with the provider itself; the caller opens CancellationURL.
type CancelSubscriptionHandler struct {
	repo    domain.SubscriptionRepository
	metrics observability.Metrics
}

// NewCancelSubscriptionHandler builds a handler.
func NewCancelSubscriptionHandler(repo domain.SubscriptionRepository, metrics observability.Metrics) *CancelSubscriptionHandler {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &CancelSubscriptionHandler{repo: repo, metrics: metrics}
}

// Handle cancels a subscription owned by cmd.UserID. A foreign or unknown
// id yields domain.ErrNotFound.
func (h *CancelSubscriptionHandler) Handle(ctx context.Context, cmd CancelSubscriptionCommand) (*CancelSubscriptionResult, error) {
	sub, err := h.repo.FindByID(ctx, cmd.UserID, cmd.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if err := sub.Cancel(); err != nil {
		return nil, err
	}
	if err := h.repo.UpdateStatus(ctx, sub.ID, cmd.UserID, sub.Status); err != nil {
		return nil, err
	}

	h.metrics.Counter(observability.MetricSubscriptionsCancelled, 1)
	return &CancelSubscriptionResult{
		SubscriptionID:  sub.ID,
		ServiceName:     sub.ServiceName,
		CancellationURL: domain.ResolveCancellationURL(sub.ServiceName, sub.CancellationURL),
	}, nil
}
