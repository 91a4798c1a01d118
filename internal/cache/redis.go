package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tinydiner/weddingdesk/config"
)

type RedisCache struct {
	client   *redis.Client
	datesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, datesTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		datesTTL: datesTTL,
	}
}

// AcquireDateLock takes the advisory per-date lock used as the fast path in
// hold requests. The database constraint stays authoritative; losing a race
// here just produces a friendly conflict without a round trip to Postgres.
func (c *RedisCache) AcquireDateLock(ctx context.Context, eventDate time.Time, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, dateLockKey(eventDate), "held", ttl).Result()
}

func (c *RedisCache) ReleaseDateLock(ctx context.Context, eventDate time.Time) error {
	return c.client.Del(ctx, dateLockKey(eventDate)).Err()
}

func (c *RedisCache) GetBookedDates(ctx context.Context) ([]time.Time, error) {
	data, err := c.client.Get(ctx, bookedDatesKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var dates []time.Time
	if err := json.Unmarshal(data, &dates); err != nil {
		return nil, err
	}
	return dates, nil
}

func (c *RedisCache) SetBookedDates(ctx context.Context, dates []time.Time) error {
	payload, err := json.Marshal(dates)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, bookedDatesKey(), payload, c.datesTTL).Err()
}

func (c *RedisCache) InvalidateBookedDates(ctx context.Context) error {
	return c.client.Del(ctx, bookedDatesKey()).Err()
}

func bookedDatesKey() string {
	return "cache:booked_dates"
}

func dateLockKey(eventDate time.Time) string {
	return "lock:date:" + eventDate.Format("2006-01-02")
}
