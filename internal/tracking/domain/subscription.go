package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound            = errors.New("subscription not found")
	ErrAlreadyCancelled    = errors.New("subscription already cancelled")
	ErrInvalidSubscription = errors.New("invalid subscription")
)

// Status is the stored lifecycle state of a subscription.
type Status string

const (
	StatusActive       Status = "active"
	StatusCancelled    Status = "cancelled"
	StatusExpiringSoon Status = "expiring_soon"
)

// DateLayout is the storage and wire format of renewal dates.
const DateLayout = "2006-01-02"

// DefaultCurrency applies when a subscription names no currency.
const DefaultCurrency = "USD"

// Subscription is a tracked recurring charge owned by one user.
type Subscription struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	ServiceName     string
	Cost            decimal.Decimal
	Currency        string
	RenewalDate     time.Time
	Status          Status
	CancellationURL string
	WebsiteURL      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewSubscription creates an active subscription. The renewal date is
// truncated to UTC midnight.
func NewSubscription(userID uuid.UUID, serviceName string, cost decimal.Decimal, currency string, renewal time.Time) (*Subscription, error) {
	serviceName = strings.TrimSpace(serviceName)
	currency = strings.ToUpper(strings.TrimSpace(currency))

	switch {
	case userID == uuid.Nil:
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidSubscription)
	case serviceName == "":
		return nil, fmt.Errorf("%w: service name is required", ErrInvalidSubscription)
	case !cost.IsPositive():
		return nil, fmt.Errorf("%w: cost must be positive", ErrInvalidSubscription)
	case len(currency) != 3:
		return nil, fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidSubscription)
	case renewal.IsZero():
		return nil, fmt.Errorf("%w: renewal date is required", ErrInvalidSubscription)
	}

	now := time.Now().UTC()
	return &Subscription{
		ID:          uuid.New(),
		UserID:      userID,
		ServiceName: serviceName,
		Cost:        cost.Round(2),
		Currency:    currency,
		RenewalDate: DateOnly(renewal),
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Cancel marks the subscription as cancelled.
func (s *Subscription) Cancel() error {
	if s.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	s.Status = StatusCancelled
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// IsCancelled reports whether the subscription was cancelled.
func (s *Subscription) IsCancelled() bool {
	return s.Status == StatusCancelled
}

// DisplayStatus derives expiring_soon for active subscriptions close to
// renewal. It is never persisted.
func (s *Subscription) DisplayStatus(today time.Time) Status {
	if s.Status == StatusActive && DaysUntilRenewal(s.RenewalDate, today) <= DangerDays {
		return StatusExpiringSoon
	}
	return s.Status
}

// ParseStatus validates a stored status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusCancelled, StatusExpiringSoon:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown subscription status %q", s)
}

// ParseDate parses a YYYY-MM-DD renewal date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// DateOnly drops the clock part, keeping the calendar date as UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
