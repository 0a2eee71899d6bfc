package logging

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	requestIDKey = "requestid"
	userIDKey    = "userId"
)

var _logger = zap.NewNop()

// New builds a zap logger. pretty selects the development console encoder.
func New(level string, pretty bool) (*zap.Logger, error) {
	var c zap.Config
	var opts []zap.Option
	if pretty {
		c = zap.NewDevelopmentConfig()
		opts = append(opts, zap.AddStacktrace(zap.ErrorLevel))
	} else {
		c = zap.NewProductionConfig()
	}

	if level == "" {
		level = "info"
	}
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("could not parse log level %q: %w", level, err)
	}
	c.Level = lvl

	return c.Build(opts...)
}

// Init installs the process-wide logger.
func Init(level string, pretty bool) error {
	l, err := New(level, pretty)
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// Set replaces the process-wide logger. Passing nil is a no-op.
func Set(l *zap.Logger) {
	if l != nil {
		_logger = l
	}
}

func L() *zap.Logger {
	return _logger
}

// FromCtx returns the logger annotated with the request id and authenticated user, when known.
func FromCtx(c *fiber.Ctx) *zap.Logger {
	l := _logger
	if c == nil {
		return l
	}
	if rid, ok := c.Locals(requestIDKey).(string); ok && rid != "" {
		l = l.With(zap.String("request_id", rid))
	}
	if uid, ok := c.Locals(userIDKey).(string); ok && uid != "" {
		l = l.With(zap.String("user_id", uid))
	}
	return l
}
