package ratelimit

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/developia-II/ratemy-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorageWithoutAddr(t *testing.T) {
	s, err := NewStorage(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestKeyNamespacing(t *testing.T) {
	s := &Storage{namespace: "ratemy"}
	assert.Equal(t, "ratemy:10.0.0.1", s.key("10.0.0.1"))
	assert.Equal(t, "ratemy:10.0.0.1", s.key("ratemy:10.0.0.1"))

	bare := &Storage{}
	assert.Equal(t, "10.0.0.1", bare.key("10.0.0.1"))
}

func TestMiddlewareInMemory(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware(config.LimitConfig{Max: 2, Window: time.Minute}, nil))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

// Runs against a real server when REDIS_TEST_ADDR is set.
func TestStorageRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	s, err := NewStorage(context.Background(), config.RedisConfig{Addr: addr, Namespace: "ratemy-test"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Reset()
		_ = s.Close()
	})

	val, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, s.Set("ip", []byte("3"), time.Minute))
	val, err = s.Get("ip")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), val)

	require.NoError(t, s.Delete("ip"))
	val, err = s.Get("ip")
	require.NoError(t, err)
	assert.Nil(t, val)
}
