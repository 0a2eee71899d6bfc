// Package ratelimit backs fiber's limiter middleware with Redis so request budgets survive restarts.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/developia-II/ratemy-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redis "github.com/redis/go-redis/v9"
)

const opTimeout = 2 * time.Second

// Storage implements fiber.Storage on top of a go-redis client. Every key is prefixed with
// the configured namespace.
type Storage struct {
	client    *redis.Client
	namespace string
}

var _ fiber.Storage = (*Storage)(nil)

// NewStorage connects to Redis. It returns nil, nil when no address is configured so callers
// fall back to the limiter's in-memory store.
func NewStorage(ctx context.Context, cfg config.RedisConfig) (*Storage, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	return &Storage{client: client, namespace: cfg.Namespace}, nil
}

func (s *Storage) key(k string) string {
	if s.namespace == "" || strings.HasPrefix(k, s.namespace+":") {
		return k
	}
	return s.namespace + ":" + k
}

func (s *Storage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *Storage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return s.client.Set(ctx, s.key(key), val, exp).Err()
}

func (s *Storage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return s.client.Del(ctx, s.key(key)).Err()
}

// Reset removes every key under the namespace.
func (s *Storage) Reset() error {
	ctx := context.Background()
	iter := s.client.Scan(ctx, 0, s.key("*"), 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (s *Storage) Close() error {
	return s.client.Close()
}

// Middleware returns the per-IP limiter. A nil storage keeps counters in memory.
func Middleware(cfg config.LimitConfig, storage *Storage) fiber.Handler {
	lc := limiter.Config{
		Max:        cfg.Max,
		Expiration: cfg.Window,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later")
		},
	}
	if storage != nil {
		lc.Storage = storage
	}
	return limiter.New(lc)
}
