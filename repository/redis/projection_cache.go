package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/stylebook/backend/domain"
	"github.com/stylebook/backend/repository"
)

type projectionCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewProjectionCache creates a Redis-backed booking projection cache.
// Entries are best-effort read models; the event log remains authoritative.
func NewProjectionCache(client *redislib.Client, ttl time.Duration) repository.ProjectionCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &projectionCache{
		client: client,
		prefix: "booking:",
		ttl:    ttl,
	}
}

func (c *projectionCache) Get(ctx context.Context, bookingID string) (*domain.Booking, error) {
	result, err := c.client.Get(ctx, c.key(bookingID)).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}

	var booking domain.Booking
	if err := json.Unmarshal([]byte(result), &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *projectionCache) Put(ctx context.Context, booking *domain.Booking) error {
	if booking == nil || booking.ID == "" {
		return domain.ErrInvalidPayload
	}

	payload, err := json.Marshal(booking)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(booking.ID), payload, c.ttl).Err()
}

func (c *projectionCache) Invalidate(ctx context.Context, bookingID string) error {
	return c.client.Del(ctx, c.key(bookingID)).Err()
}

func (c *projectionCache) key(id string) string {
	return fmt.Sprintf("%s%s", c.prefix, id)
}
