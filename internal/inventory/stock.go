package inventory

import (
	"context"
	"errors"
	"fmt"

	"ottobite-backend/internal/apperr"
	"ottobite-backend/internal/audit"
	"ottobite-backend/internal/logger"
	"ottobite-backend/internal/models"
	"ottobite-backend/internal/notification"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Stock handles manual stock movements (sayım düzeltmesi, fire, elden giriş).
type Stock struct {
	db       *gorm.DB
	ledger   *Ledger
	notifier Notifier
	log      *zap.Logger
}

func NewStock(db *gorm.DB, ledger *Ledger, notifier Notifier, log *zap.Logger) *Stock {
	return &Stock{db: db, ledger: ledger, notifier: notifier, log: logger.OrNop(log)}
}

// Move posts a positive amount in the given direction and adjusts currentStock.
func (s *Stock) Move(ctx context.Context, productID uint, dir models.StockDirection, amount decimal.Decimal, actor Actor) (models.Product, error) {
	if !actor.canManageStock() {
		return models.Product{}, apperr.Authorization("Yetkisiz işlem.")
	}
	if dir != models.StockIn && dir != models.StockOut {
		return models.Product{}, apperr.Validation("Hareket tipi IN veya OUT olmalıdır")
	}
	if !amount.IsPositive() {
		return models.Product{}, apperr.Validation("Miktar pozitif olmalıdır")
	}

	var (
		updated models.Product
		details string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.First(&p, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Ürün bulunamadı")
			}
			return apperr.Storage("ürün okunamadı", err)
		}

		userID, err := activeUserID(tx, actor.UserID)
		if err != nil {
			return apperr.Storage("kullanıcı okunamadı", err)
		}

		if _, err := s.ledger.Append(tx, p.ID, dir, amount, userID); err != nil {
			return apperr.Storage("stok hareketi yazılamadı", err)
		}

		delta := amount
		if dir == models.StockOut {
			delta = amount.Neg()
		}
		if err := tx.Model(&models.Product{}).
			Where("id = ?", p.ID).
			Update("current_stock", gorm.Expr("current_stock + ?", delta)).Error; err != nil {
			return apperr.Storage("stok güncellenemedi", err)
		}
		if err := tx.First(&updated, p.ID).Error; err != nil {
			return apperr.Storage("ürün okunamadı", err)
		}

		label, action := "Stok Girişi", models.InventoryActionStockIn
		if dir == models.StockOut {
			label, action = "Stok Çıkışı", models.InventoryActionStockOut
		}
		details = fmt.Sprintf("%s: %s %s (İşlem sonrası: %s %s)",
			label, amount, updated.Unit, updated.CurrentStock, updated.Unit)

		if err := audit.WriteLog(tx, audit.LogOptions{
			Action:      action,
			ProductName: updated.Name,
			Details:     details,
			UserID:      derefUint(userID),
			UserName:    actor.FullName,
		}); err != nil {
			return apperr.Storage("denetim kaydı yazılamadı", err)
		}
		return nil
	})
	if err != nil {
		return models.Product{}, err
	}

	if s.notifier != nil {
		typ := EventStockIn
		if dir == models.StockOut {
			typ = EventStockOut
		}
		s.notifier.Notify(ctx, typ, fmt.Sprintf("%s: %s", updated.Name, details), actor.FullName,
			notification.Options{Link: inventoryLink})
	}
	return updated, nil
}
