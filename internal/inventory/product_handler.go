package inventory

import (
	"crypto/subtle"
	"time"

	"ottobite-backend/internal/apperr"
	"ottobite-backend/internal/auth"
	"ottobite-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ActorFrom builds the acting user from the request session.
func ActorFrom(c *fiber.Ctx) Actor {
	s, ok := auth.SessionFrom(c)
	if !ok {
		return Actor{}
	}
	return Actor{UserID: s.UserID, FullName: s.FullName, Role: s.Role}
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Geçersiz id")
	}
	return uint(id), nil
}

// parseDay: "2006-01-02" veya RFC3339; boş ya da bozuksa sıfır zaman
func parseDay(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil && t.Year() >= 1900 && t.Year() <= 3000 {
			return t
		}
	}
	return time.Time{}
}

// GET /api/inventory/products?startDate=2026-10-01&endDate=2026-10-31
func ListProductsHandler(svc *Products, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from := parseDay(c.Query("startDate"))
		to := parseDay(c.Query("endDate"))
		if !to.IsZero() {
			// bitiş günü dahil
			to = to.AddDate(0, 0, 1)
		}
		products, err := svc.List(c.UserContext(), from, to)
		return apperr.Respond(c, log, "inventory.list_products", products, err)
	}
}

// POST /api/inventory/products (ADMIN, CHEF)
func CreateProductHandler(svc *Products, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductInput
		if err := c.BodyParser(&body); err != nil {
			return apperr.Respond(c, log, "inventory.create_product", nil, apperr.Validation("Geçersiz veri"))
		}
		p, err := svc.Create(c.UserContext(), body, ActorFrom(c))
		if err == nil {
			c.Status(fiber.StatusCreated)
		}
		return apperr.Respond(c, log, "inventory.create_product", p, err)
	}
}

// PUT /api/inventory/products/:id (ADMIN, CHEF)
func UpdateProductHandler(svc *Products, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return apperr.Respond(c, log, "inventory.update_product", nil, err)
		}
		var body UpdateProductInput
		if err := c.BodyParser(&body); err != nil {
			return apperr.Respond(c, log, "inventory.update_product", nil, apperr.Validation("Geçersiz veri"))
		}
		p, err := svc.Update(c.UserContext(), id, body, ActorFrom(c))
		return apperr.Respond(c, log, "inventory.update_product", p, err)
	}
}

// DELETE /api/inventory/products/:id (ADMIN, CHEF)
func DeleteProductHandler(svc *Products, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return apperr.Respond(c, log, "inventory.delete_product", nil, err)
		}
		err = svc.Delete(c.UserContext(), id, ActorFrom(c))
		return apperr.Respond(c, log, "inventory.delete_product", nil, err)
	}
}

// GET /api/inventory/products/:id/history?limit=20
func ProductHistoryHandler(svc *Products, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return apperr.Respond(c, log, "inventory.product_history", nil, err)
		}
		history, err := svc.History(c.UserContext(), id, c.QueryInt("limit", 20))
		return apperr.Respond(c, log, "inventory.product_history", history, err)
	}
}

// GET /api/inventory/products/:id/verify
func VerifyProductHandler(svc *Products, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return apperr.Respond(c, log, "inventory.verify_product", nil, err)
		}
		v, err := svc.Verify(c.UserContext(), id)
		return apperr.Respond(c, log, "inventory.verify_product", v, err)
	}
}

type MoveStockRequest struct {
	ProductID uint                  `json:"productId" validate:"required"`
	Type      models.StockDirection `json:"type" validate:"required,oneof=IN OUT"`
	Amount    decimal.Decimal       `json:"amount"`
}

// POST /api/inventory/stock (ADMIN, CHEF)
func MoveStockHandler(svc *Stock, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body MoveStockRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Respond(c, log, "inventory.move_stock", nil, apperr.Validation("Geçersiz veri"))
		}
		if err := apperr.ValidateStruct(body); err != nil {
			return apperr.Respond(c, log, "inventory.move_stock", nil, err)
		}
		p, err := svc.Move(c.UserContext(), body.ProductID, body.Type, body.Amount, ActorFrom(c))
		return apperr.Respond(c, log, "inventory.move_stock", p, err)
	}
}

const CronSecretHeader = "x-cron-secret"

// GET /api/cron/reset-inventory
// CRON_SECRET tanımlıysa x-cron-secret header'ı eşleşmeli
func ResetInventoryCronHandler(reset *PeriodReset, secret string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret != "" && subtle.ConstantTimeCompare([]byte(c.Get(CronSecretHeader)), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(apperr.Result{Success: false, Error: "Unauthorized"})
		}
		summary, err := reset.Run(c.UserContext(), time.Now())
		return apperr.Respond(c, log, "inventory.period_reset", summary, err)
	}
}
