package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore remembers which event ids were handled. Implementations
// are shared by concurrent consumers.
type IdempotencyStore interface {
	Contains(ctx context.Context, eventID string) (bool, error)
	Add(ctx context.Context, eventID string) error
}

// MemoryIdempotencyStore is a per-process IdempotencyStore. Ids are
// forgotten ttl after they were added; expired ids are evicted on lookup.
type MemoryIdempotencyStore struct {
	ttl time.Duration

	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{ttl: ttl, seen: map[string]time.Time{}}
}

func (s *MemoryIdempotencyStore) Contains(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	added, ok := s.seen[eventID]
	if ok && time.Since(added) > s.ttl {
		delete(s.seen, eventID)
		return false, nil
	}
	return ok, nil
}

func (s *MemoryIdempotencyStore) Add(_ context.Context, eventID string) error {
	s.mu.Lock()
	s.seen[eventID] = time.Now()
	s.mu.Unlock()
	return nil
}

// Len counts remembered ids, including expired ones not yet evicted.
func (s *MemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// RedisIdempotencyStore keeps ids in Redis so every notifier replica sees
// them. Each id is a key under prefix that expires after ttl.
type RedisIdempotencyStore struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisIdempotencyStore(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisIdempotencyStore) Contains(ctx context.Context, eventID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.prefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency lookup %s: %w", eventID, err)
	}
	return n == 1, nil
}

func (s *RedisIdempotencyStore) Add(ctx context.Context, eventID string) error {
	if err := s.rdb.Set(ctx, s.prefix+eventID, time.Now().Unix(), s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency record %s: %w", eventID, err)
	}
	return nil
}

// IdempotentHandler skips events whose id is already in store and records
// the id once inner succeeds. Events without an id, and lookups that fail,
// go straight to inner: a duplicate email beats a lost quote request.
func IdempotentHandler(store IdempotencyStore, inner Handler, logger *slog.Logger) Handler {
	return func(ctx context.Context, event *Event) error {
		if event.EventID == "" {
			return inner(ctx, event)
		}
		log := logger.With(slog.String("event_id", event.EventID), slog.String("event_type", event.EventType))

		done, err := store.Contains(ctx, event.EventID)
		switch {
		case err != nil:
			log.WarnContext(ctx, "idempotency lookup failed, handling anyway", slog.String("error", err.Error()))
		case done:
			consumerDuplicates.WithLabelValues(event.EventType).Inc()
			log.DebugContext(ctx, "duplicate event skipped")
			return nil
		}

		if err := inner(ctx, event); err != nil {
			return err
		}
		if err := store.Add(ctx, event.EventID); err != nil {
			log.WarnContext(ctx, "could not record handled event", slog.String("error", err.Error()))
		}
		return nil
	}
}
