package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SubscriptionRepository persists subscriptions. Every per-owner method is
// scoped by ownerID so a user can never read or change another's rows.
type SubscriptionRepository interface {
	Insert(ctx context.Context, sub *Subscription) error
	UpdateStatus(ctx context.Context, id, ownerID uuid.UUID, status Status) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Subscription, error)
	ListActive(ctx context.Context, ownerID uuid.UUID) ([]*Subscription, error)
	// ListRenewingBetween returns active subscriptions of all owners with a
	// renewal date in [from, to]. Only the reminder job uses it.
	ListRenewingBetween(ctx context.Context, from, to time.Time) ([]*Subscription, error)
}
