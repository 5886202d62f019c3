package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActiveSession is the cache projection of a running charging session,
// keyed by booking for the resume-by-booking lookup.
type ActiveSession struct {
	SessionID int64     `json:"session_id"`
	BookingID int64     `json:"booking_id"`
	UserID    int64     `json:"user_id"`
	SlotID    int64     `json:"slot_id"`
	StartedAt time.Time `json:"started_at"`
}

// ActiveSessionCache keeps running sessions in redis for quick lookup.
// All methods are nil-receiver safe so the cache stays optional.
type ActiveSessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewActiveSessionCache returns a redis-backed cache.
func NewActiveSessionCache(client *redis.Client, ttl time.Duration) *ActiveSessionCache {
	return &ActiveSessionCache{client: client, ttl: ttl}
}

func (c *ActiveSessionCache) key(bookingID int64) string {
	return fmt.Sprintf("charging:active:%d", bookingID)
}

// Save caches the session under its booking id.
func (c *ActiveSessionCache) Save(ctx context.Context, session ActiveSession) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(session.BookingID), data, c.ttl).Err()
}

// Get returns the cached session for the booking, nil when absent.
func (c *ActiveSessionCache) Get(ctx context.Context, bookingID int64) (*ActiveSession, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	result, err := c.client.Get(ctx, c.key(bookingID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session ActiveSession
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete drops the cached session once charging stops.
func (c *ActiveSessionCache) Delete(ctx context.Context, bookingID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.key(bookingID)).Err()
}
