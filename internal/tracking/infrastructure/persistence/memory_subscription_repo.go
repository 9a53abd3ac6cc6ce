package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/subslayer/internal/tracking/domain"
)

// MemorySubscriptionRepository keeps subscriptions in memory. It backs
// tests and ephemeral CLI sessions.
type MemorySubscriptionRepository struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]domain.Subscription
}

// NewMemorySubscriptionRepository creates an empty repository.
func NewMemorySubscriptionRepository() *MemorySubscriptionRepository {
	return &MemorySubscriptionRepository{subs: make(map[uuid.UUID]domain.Subscription)}
}

func (r *MemorySubscriptionRepository) Insert(_ context.Context, sub *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.ID] = *sub
	return nil
}

func (r *MemorySubscriptionRepository) UpdateStatus(_ context.Context, id, ownerID uuid.UUID, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok || sub.UserID != ownerID {
		return domain.ErrNotFound
	}
	sub.Status = status
	sub.UpdatedAt = time.Now().UTC()
	r.subs[id] = sub
	return nil
}

func (r *MemorySubscriptionRepository) FindByID(_ context.Context, ownerID, id uuid.UUID) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[id]
	if !ok || sub.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	return &sub, nil
}

func (r *MemorySubscriptionRepository) ListActive(_ context.Context, ownerID uuid.UUID) ([]*domain.Subscription, error) {
	return r.filter(func(s domain.Subscription) bool {
		return s.UserID == ownerID && s.Status != domain.StatusCancelled
	}), nil
}

func (r *MemorySubscriptionRepository) ListRenewingBetween(_ context.Context, from, to time.Time) ([]*domain.Subscription, error) {
	from, to = domain.DateOnly(from), domain.DateOnly(to)
	return r.filter(func(s domain.Subscription) bool {
		return s.Status == domain.StatusActive && !s.RenewalDate.Before(from) && !s.RenewalDate.After(to)
	}), nil
}

func (r *MemorySubscriptionRepository) filter(keep func(domain.Subscription) bool) []*domain.Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Subscription, 0)
	for _, sub := range r.subs {
		if keep(sub) {
			s := sub
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RenewalDate.Equal(out[j].RenewalDate) {
			return out[i].RenewalDate.Before(out[j].RenewalDate)
		}
		return out[i].ServiceName < out[j].ServiceName
	})
	return out
}

var _ domain.SubscriptionRepository = (*MemorySubscriptionRepository)(nil)
