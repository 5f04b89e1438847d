package jobs

import (
	"crypto/subtle"
	"time"

	"ottobite-backend/internal/apperr"
	"ottobite-backend/internal/inventory"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GET /api/cron/maintenance-notify
// CRON_SECRET tanımlıysa x-cron-secret header'ı eşleşmeli
func MaintenanceCronHandler(sweep *MaintenanceSweep, secret string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret != "" && subtle.ConstantTimeCompare([]byte(c.Get(inventory.CronSecretHeader)), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(apperr.Result{Success: false, Error: "Unauthorized"})
		}
		created, err := sweep.Run(c.UserContext(), time.Now())
		return apperr.Respond(c, log, "jobs.maintenance_alerts", fiber.Map{"created": created}, err)
	}
}
