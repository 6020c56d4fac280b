package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/twmb/murmur3"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

const cacheKeyPrefix = "lirical:run:"

// Cache keeps recently computed runs in Redis keyed by request fingerprint.
// Every Redis call goes through a circuit breaker; while the breaker is open
// lookups report a miss and writes are dropped.
type Cache struct {
	redis      *redis.Client
	breaker    *gobreaker.CircuitBreaker
	defaultTTL time.Duration
	logger     *logrus.Logger
}

// NewCache creates a new cache around an existing Redis client.
func NewCache(client *redis.Client, defaultTTL time.Duration, logger *logrus.Logger) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}

	settings := gobreaker.Settings{
		Name:        "ResultsCache",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from,
				"to_state":        to,
			}).Warn("Circuit breaker state changed")
		},
	}

	return &Cache{
		redis:      client,
		breaker:    gobreaker.NewCircuitBreaker(settings),
		defaultTTL: defaultTTL,
		logger:     logger,
	}
}

// NewCacheFromConfig connects to Redis using the cache configuration.
func NewCacheFromConfig(config domain.CacheConfig, logger *logrus.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.PoolTimeout > 0 {
		opts.PoolTimeout = config.PoolTimeout
	}
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewCache(client, config.DefaultTTL, logger), nil
}

// Fingerprint hashes the parts of a request that determine its ranking.
// Parts are order sensitive; callers sort term lists before passing them.
func Fingerprint(parts ...string) string {
	h := murmur3.StringSum64(strings.Join(parts, "\x1f"))
	return strconv.FormatUint(h, 16)
}

// Get returns the cached run for fingerprint. Any failure is reported as a miss.
func (c *Cache) Get(ctx context.Context, fingerprint string) (*Record, bool) {
	val, err := c.breaker.Execute(func() (interface{}, error) {
		b, err := c.redis.Get(ctx, cacheKeyPrefix+fingerprint).Bytes()
		if errors.Is(err, redis.Nil) {
			// a miss is not a Redis failure
			return nil, nil
		}
		return b, err
	})
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"fingerprint": fingerprint,
			"error":       err,
		}).Debug("Results cache lookup failed")
		return nil, false
	}

	b, _ := val.([]byte)
	if b == nil {
		return nil, false
	}

	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		c.redis.Del(ctx, cacheKeyPrefix+fingerprint)
		return nil, false
	}
	return &r, true
}

// Set caches a completed run under its fingerprint.
func (c *Cache) Set(ctx context.Context, record *Record, ttl time.Duration) error {
	if record.Fingerprint == "" || record.Status != StatusCompleted {
		return nil
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal cached run: %w", err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.redis.Set(ctx, cacheKeyPrefix+record.Fingerprint, data, ttl).Err()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to cache run %s: %w", record.ID, err)
	}
	return nil
}

// State reports the circuit breaker state.
func (c *Cache) State() gobreaker.State {
	return c.breaker.State()
}

// Ping checks if the Redis connection is alive.
func (c *Cache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.redis.Close()
}
