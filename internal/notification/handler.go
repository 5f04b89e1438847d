package notification

import (
	"bufio"

	"ottobite-backend/internal/apperr"
	"ottobite-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

func observerFrom(c *fiber.Ctx) (Observer, bool) {
	s, ok := auth.SessionFrom(c)
	if !ok {
		return Observer{}, false
	}
	return Observer{UserID: s.UserID, Role: string(s.Role), Department: s.Department}, true
}

// GET /api/notifications/stream
func StreamHandler(g *Gateway, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		obs, ok := observerFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Oturum gerekli.")
		}

		release, ok := g.Admit()
		if !ok {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Çok fazla canlı bağlantı var, lütfen daha sonra tekrar deneyin.")
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache, no-transform")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer release()
			if err := g.Stream(g.ctx, w, obs); err != nil && log != nil {
				log.Debug("notification stream ended", zap.Uint("user_id", obs.UserID), zap.Error(err))
			}
		}))
		return nil
	}
}

// GET /api/notifications
// Canlı bağlantı kuramayan istemciler bu uç noktayı periyodik olarak çeker
func SnapshotHandler(g *Gateway, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		obs, ok := observerFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Oturum gerekli.")
		}
		events, err := g.Snapshot(c.UserContext(), obs)
		if events == nil {
			events = []Event{}
		}
		return apperr.Respond(c, log, "notification.snapshot", events, err)
	}
}

// POST /api/notifications/read
func MarkAllReadHandler(g *Gateway, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := g.MarkAllRead(c.UserContext())
		return apperr.Respond(c, log, "notification.mark_all_read", nil, err)
	}
}
