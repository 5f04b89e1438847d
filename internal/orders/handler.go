package orders

import (
	"ottobite-backend/internal/apperr"
	"ottobite-backend/internal/inventory"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func paramID(c *fiber.Ctx, key string) (uint, error) {
	id, err := c.ParamsInt(key)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Geçersiz id")
	}
	return uint(id), nil
}

// GET /api/orders
func ListOrdersHandler(svc *Service, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orders, err := svc.ListOrders(c.UserContext())
		return apperr.Respond(c, log, "orders.list", orders, err)
	}
}

// GET /api/orders/unfilled
func ListUnfilledHandler(svc *Service, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orders, err := svc.ListUnfilled(c.UserContext())
		return apperr.Respond(c, log, "orders.list_unfilled", orders, err)
	}
}

// GET /api/orders/:id
func GetOrderHandler(svc *Service, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return apperr.Respond(c, log, "orders.get", nil, err)
		}
		order, err := svc.GetOrder(c.UserContext(), id)
		return apperr.Respond(c, log, "orders.get", order, err)
	}
}

// POST /api/orders
func CreateOrderHandler(svc *Service, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderInput
		if err := c.BodyParser(&body); err != nil {
			return apperr.Respond(c, log, "orders.create", nil, apperr.Validation("Geçersiz veri"))
		}
		order, err := svc.CreateOrder(c.UserContext(), body, inventory.ActorFrom(c))
		if err == nil {
			c.Status(fiber.StatusCreated)
		}
		return apperr.Respond(c, log, "orders.create", order, err)
	}
}

type updateTitleRequest struct {
	Title string `json:"title"`
}

// PATCH /api/orders/:id
func UpdateTitleHandler(svc *Service, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return apperr.Respond(c, log, "orders.update_title", nil, err)
		}
		var body updateTitleRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Respond(c, log, "orders.update_title", nil, apperr.Validation("Geçersiz veri"))
		}
		err = svc.UpdateTitle(c.UserContext(), id, body.Title)
		return apperr.Respond(c, log, "orders.update_title", nil, err)
	}
}

// DELETE /api/orders/:id (ADMIN)
func DeleteOrderHandler(svc *Service, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return apperr.Respond(c, log, "orders.delete", nil, err)
		}
		err = svc.DeleteOrder(c.UserContext(), id, inventory.ActorFrom(c))
		return apperr.Respond(c, log, "orders.delete", nil, err)
	}
}

// POST /api/orders/:id/items
func AddItemHandler(svc *Service, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return apperr.Respond(c, log, "orders.add_item", nil, err)
		}
		var body ItemInput
		if err := c.BodyParser(&body); err != nil {
			return apperr.Respond(c, log, "orders.add_item", nil, apperr.Validation("Geçersiz veri"))
		}
		item, err := svc.AddItem(c.UserContext(), id, body)
		if err == nil {
			c.Status(fiber.StatusCreated)
		}
		return apperr.Respond(c, log, "orders.add_item", item, err)
	}
}

// PATCH /api/orders/items/:itemId
func UpdateItemHandler(svc *Service, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "itemId")
		if err != nil {
			return apperr.Respond(c, log, "orders.update_item", nil, err)
		}
		var body UpdateItemInput
		if err := c.BodyParser(&body); err != nil {
			return apperr.Respond(c, log, "orders.update_item", nil, apperr.Validation("Geçersiz veri"))
		}
		item, err := svc.UpdateItem(c.UserContext(), id, body)
		return apperr.Respond(c, log, "orders.update_item", item, err)
	}
}

// DELETE /api/orders/items/:itemId
func RemoveItemHandler(svc *Service, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "itemId")
		if err != nil {
			return apperr.Respond(c, log, "orders.remove_item", nil, err)
		}
		remaining, err := svc.RemoveItem(c.UserContext(), id)
		return apperr.Respond(c, log, "orders.remove_item", fiber.Map{"remainingItems": remaining}, err)
	}
}

// POST /api/orders/items/:itemId/received
func ToggleReceivedHandler(svc *Service, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "itemId")
		if err != nil {
			return apperr.Respond(c, log, "orders.toggle_received", nil, err)
		}
		var body ToggleReceivedInput
		if err := c.BodyParser(&body); err != nil {
			return apperr.Respond(c, log, "orders.toggle_received", nil, apperr.Validation("Geçersiz veri"))
		}
		item, err := svc.ToggleReceived(c.UserContext(), id, body, inventory.ActorFrom(c))
		return apperr.Respond(c, log, "orders.toggle_received", item, err)
	}
}

// POST /api/orders/items/:itemId/sync (ADMIN, CHEF)
func ToggleInventorySyncHandler(svc *Service, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "itemId")
		if err != nil {
			return apperr.Respond(c, log, "orders.toggle_sync", nil, err)
		}
		res, err := svc.ToggleInventorySync(c.UserContext(), id, inventory.ActorFrom(c))
		return apperr.Respond(c, log, "orders.toggle_sync", res, err)
	}
}

// Register mounts the order routes on r. r is expected to already require a session.
func Register(r fiber.Router, svc *Service, manage fiber.Handler, adminOnly fiber.Handler, log *zap.Logger) {
	r.Get("/", ListOrdersHandler(svc, log))
	r.Get("/unfilled", ListUnfilledHandler(svc, log))
	r.Post("/", CreateOrderHandler(svc, log))
	r.Patch("/items/:itemId", UpdateItemHandler(svc, log))
	r.Delete("/items/:itemId", RemoveItemHandler(svc, log))
	r.Post("/items/:itemId/received", ToggleReceivedHandler(svc, log))
	r.Post("/items/:itemId/sync", manage, ToggleInventorySyncHandler(svc, log))
	r.Get("/:id", GetOrderHandler(svc, log))
	r.Patch("/:id", UpdateTitleHandler(svc, log))
	r.Delete("/:id", adminOnly, DeleteOrderHandler(svc, log))
	r.Post("/:id/items", AddItemHandler(svc, log))
}
