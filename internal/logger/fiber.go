package logger

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// RequestIDHeader is echoed back on every response
	RequestIDHeader = "X-Request-ID"
	ctxRequestIDKey = "request_id"
)

// Middleware logs one line per request with status and latency.
// Streaming responses are logged when the handler returns, before the body is written.
func Middleware(log *zap.Logger) fiber.Handler {
	log = OrNop(log)
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals(ctxRequestIDKey, requestID)
		c.Set(RequestIDHeader, requestID)

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("request failed", append(fields, zap.Error(err))...)
		case status >= fiber.StatusBadRequest:
			log.Warn("request rejected", fields...)
		default:
			log.Info("request", fields...)
		}
		return err
	}
}

// RequestID returns the id assigned by Middleware.
func RequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(ctxRequestIDKey).(string); ok {
		return id
	}
	return ""
}
