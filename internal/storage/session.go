package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/kayson83/line-bot-chatgpt-redis/internal/models"
	"github.com/kayson83/line-bot-chatgpt-redis/internal/redis"
)

const (
	// MaxHistoryTurns is the rolling window kept per user at rest.
	MaxHistoryTurns = 10

	historyTTL = time.Hour
	counterTTL = 24 * time.Hour
)

// ErrStoreUnavailable marks failures reaching the backing store, as opposed
// to a key simply being absent or expired.
var ErrStoreUnavailable = errors.New("session store unavailable")

// SessionStore keeps per-user conversation history and per-user-per-day
// token counters in redis. History and counter keys are independent and may
// expire independently.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore constructs a SessionStore over the shared redis client.
func NewSessionStore(client *redis.Client) (*SessionStore, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	return &SessionStore{client: client}, nil
}

func historyKey(userID string) string {
	return "context:" + userID
}

func counterKey(userID, date string) string {
	return fmt.Sprintf("tokens:%s:%s", userID, date)
}

// LoadHistory returns the stored conversation window for the user, or an
// empty slice when none exists. A corrupt payload is treated as absent.
func (s *SessionStore) LoadHistory(ctx context.Context, userID string) ([]models.Turn, error) {
	raw, err := s.client.Get(ctx, historyKey(userID))
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return []models.Turn{}, nil
		}
		return nil, fmt.Errorf("%w: load history: %v", ErrStoreUnavailable, err)
	}
	var turns []models.Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		log.Printf("session history decode failed for %s: %v", userID, err)
		return []models.Turn{}, nil
	}
	return turns, nil
}

// SaveHistory overwrites the stored window, truncated to the most recent
// MaxHistoryTurns turns, and resets the one hour expiration.
func (s *SessionStore) SaveHistory(ctx context.Context, userID string, turns []models.Turn) error {
	if len(turns) > MaxHistoryTurns {
		turns = turns[len(turns)-MaxHistoryTurns:]
	}
	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.client.Set(ctx, historyKey(userID), data, historyTTL); err != nil {
		return fmt.Errorf("%w: save history: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// ClearHistory deletes the user's history key. Deleting an absent key is
// not an error.
func (s *SessionStore) ClearHistory(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, historyKey(userID)); err != nil && !errors.Is(err, redis.ErrCacheMiss) {
		return fmt.Errorf("%w: clear history: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// AddTokens increments the user's counter for the given UTC date and resets
// its 24 hour expiration, returning the new total.
func (s *SessionStore) AddTokens(ctx context.Context, userID, date string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("token amount cannot be negative: %d", amount)
	}
	total, err := s.client.IncrByWithTTL(ctx, counterKey(userID, date), amount, counterTTL)
	if err != nil {
		return 0, fmt.Errorf("%w: add tokens: %v", ErrStoreUnavailable, err)
	}
	return total, nil
}

// GetTokens returns the user's consumed tokens for the given UTC date, or
// zero when no counter exists.
func (s *SessionStore) GetTokens(ctx context.Context, userID, date string) (int64, error) {
	raw, err := s.client.Get(ctx, counterKey(userID, date))
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: get tokens: %v", ErrStoreUnavailable, err)
	}
	total, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode token counter: %w", err)
	}
	return total, nil
}

// CounterTTL reports the remaining expiration on the user's counter key.
func (s *SessionStore) CounterTTL(ctx context.Context, userID, date string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, counterKey(userID, date))
	if err != nil {
		return 0, fmt.Errorf("%w: counter ttl: %v", ErrStoreUnavailable, err)
	}
	return ttl, nil
}
