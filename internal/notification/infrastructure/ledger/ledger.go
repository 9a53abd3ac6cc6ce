// Package ledger records which users already received today's reminder.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/subslayer/internal/notification/domain"
)

const keyPrefix = "subslayer:reminder:sent"

// DefaultTTL keeps claims long enough to cover the whole day in any zone.
const DefaultTTL = 48 * time.Hour

func claimKey(userID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, userID, day.UTC().Format("2006-01-02"))
}

// RedisLedger stores claims with SETNX and a TTL.
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLedger creates a Redis-backed ledger.
func NewRedisLedger(client *redis.Client, ttl time.Duration) *RedisLedger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLedger{client: client, ttl: ttl}
}

func (l *RedisLedger) Claim(ctx context.Context, userID uuid.UUID, day time.Time) (bool, error) {
	ok, err := l.client.SetNX(ctx, claimKey(userID, day), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim reminder: %w", err)
	}
	return ok, nil
}

func (l *RedisLedger) Release(ctx context.Context, userID uuid.UUID, day time.Time) error {
	return l.client.Del(ctx, claimKey(userID, day)).Err()
}

// MemoryLedger keeps claims in process memory.
type MemoryLedger struct {
	mu     sync.Mutex
	claims map[string]struct{}
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{claims: make(map[string]struct{})}
}

func (l *MemoryLedger) Claim(_ context.Context, userID uuid.UUID, day time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := claimKey(userID, day)
	if _, ok := l.claims[key]; ok {
		return false, nil
	}
	l.claims[key] = struct{}{}
	return true, nil
}

func (l *MemoryLedger) Release(_ context.Context, userID uuid.UUID, day time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.claims, claimKey(userID, day))
	return nil
}

var (
	_ domain.Ledger = (*RedisLedger)(nil)
	_ domain.Ledger = (*MemoryLedger)(nil)
)
