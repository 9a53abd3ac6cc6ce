package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Notifier delivers a reminder to its recipient.
type Notifier interface {
	Send(ctx context.Context, reminder Reminder) error
}

// RecipientDirectory resolves user IDs to email addresses. Unknown users
// are absent from the result.
type RecipientDirectory interface {
	Lookup(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error)
	Upsert(ctx context.Context, userID uuid.UUID, email string) error
}

// Ledger remembers which users were reminded on which day.
type Ledger interface {
	// Claim records the reminder for userID on day and reports whether
	// this call was the first.
	Claim(ctx context.Context, userID uuid.UUID, day time.Time) (bool, error)
	// Release undoes a claim after a failed delivery.
	Release(ctx context.Context, userID uuid.UUID, day time.Time) error
}
