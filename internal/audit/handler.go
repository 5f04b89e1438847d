package audit

import (
	"ottobite-backend/internal/apperr"
	"ottobite-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type InventoryLogResponse struct {
	ID          uint                   `json:"id"`
	CreatedAt   string                 `json:"createdAt"`
	ActionType  models.InventoryAction `json:"actionType"`
	ProductName string                 `json:"productName"`
	Details     string                 `json:"details"`
	UserID      uint                   `json:"userId"`
	UserName    string                 `json:"userName"`
}

// GET /api/inventory/logs?product=Domates&action=STOCK_IN&user_id=1&limit=50
func ListLogsHandler(db *gorm.DB, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := ListFilter{
			ProductName: c.Query("product"),
			Action:      models.InventoryAction(c.Query("action")),
			UserID:      uint(c.QueryInt("user_id")),
			Limit:       c.QueryInt("limit", 100),
		}

		logs, err := List(db.WithContext(c.UserContext()), f)
		if err != nil {
			return apperr.Respond(c, log, "audit.list", nil, apperr.Storage("audit logları okunamadı", err))
		}

		resp := make([]InventoryLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, InventoryLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
				ActionType:  l.ActionType,
				ProductName: l.ProductName,
				Details:     l.Details,
				UserID:      l.UserID,
				UserName:    l.UserName,
			})
		}
		return apperr.Respond(c, log, "audit.list", resp, nil)
	}
}
