package inventory

import (
	"context"
	"errors"
	"fmt"

	"ottobite-backend/internal/apperr"
	"ottobite-backend/internal/audit"
	"ottobite-backend/internal/logger"
	"ottobite-backend/internal/metrics"
	"ottobite-backend/internal/models"
	"ottobite-backend/internal/notification"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	EventSynced         = "INVENTORY_SYNCED"
	EventSyncReverted   = "INVENTORY_SYNC_REVERTED"
	EventStockIn        = "INVENTORY_STOCK_IN"
	EventStockOut       = "INVENTORY_STOCK_OUT"
	EventProductCreated = "INVENTORY_PRODUCT_CREATED"
	EventProductUpdated = "INVENTORY_PRODUCT_UPDATED"
	EventProductDeleted = "INVENTORY_PRODUCT_DELETED"

	inventoryLink = "/dashboard/inventory"
)

// Notifier is the part of the notification broker inventory code depends on.
type Notifier interface {
	Notify(ctx context.Context, typ, content, actorName string, opts notification.Options) notification.Result
}

// Actor: işlemi yapan kullanıcı (oturumdan). Kullanıcı silinmiş olabilir.
type Actor struct {
	UserID   uint
	FullName string
	Role     models.UserRole
}

func (a Actor) canManageStock() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleChef
}

type SyncResult struct {
	ItemID         uint            `json:"itemId"`
	ProductID      uint            `json:"productId"`
	ProductName    string          `json:"productName"`
	IsAddedToStock bool            `json:"isAddedToStock"`
	Quantity       decimal.Decimal `json:"quantity"`
	CurrentStock   decimal.Decimal `json:"currentStock"`
	Relinked       bool            `json:"relinked"`
}

// Syncer applies or reverses an order item's effect on stock.
type Syncer struct {
	db       *gorm.DB
	ledger   *Ledger
	resolver *Resolver
	notifier Notifier
	log      *zap.Logger
}

func NewSyncer(db *gorm.DB, ledger *Ledger, resolver *Resolver, notifier Notifier, log *zap.Logger) *Syncer {
	return &Syncer{
		db:       db,
		ledger:   ledger,
		resolver: resolver,
		notifier: notifier,
		log:      logger.OrNop(log),
	}
}

// Toggle flips the item's isAddedToStock flag. The flag, product stock, ledger entry and
// audit entry are written in one transaction; the notification goes out after commit.
func (s *Syncer) Toggle(ctx context.Context, itemID uint, actor Actor) (SyncResult, error) {
	var (
		res        SyncResult
		orderTitle string
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.OrderItem
		if err := tx.Preload("Order").First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Ürün bulunamadı.")
			}
			return apperr.Storage("sipariş kalemi okunamadı", err)
		}
		if item.Order == nil {
			return apperr.NotFound("Sipariş bulunamadı.")
		}
		orderTitle = item.Order.Title

		// Teslim alınmamış kalem ancak daha önce eklenmişse geri alınabilir
		if !item.IsReceived && !item.IsAddedToStock {
			return apperr.Conflict("Önce ürünün geldiğini onaylamalısınız.")
		}

		resolution, err := s.resolver.Resolve(tx, item)
		if err != nil {
			return err
		}
		product := resolution.Product

		qty := item.SyncQuantity()
		newState := !item.IsAddedToStock

		// Bayrak karşılaştır-ve-yaz ile çevrilir; eşzamanlı ikinci toggle 0 satır günceller
		updates := map[string]any{"is_added_to_stock": newState}
		if resolution.Relinked {
			updates["product_id"] = product.ID
		}
		flip := tx.Model(&models.OrderItem{}).
			Where("id = ? AND is_added_to_stock = ?", item.ID, item.IsAddedToStock).
			Updates(updates)
		if flip.Error != nil {
			return apperr.Storage("sipariş kalemi güncellenemedi", flip.Error)
		}
		if flip.RowsAffected == 0 {
			return apperr.Conflict("Bu kalem başka bir işlemle güncellendi, lütfen sayfayı yenileyin.")
		}

		delta := qty
		if !newState {
			delta = qty.Neg()
		}
		if err := tx.Model(&models.Product{}).
			Where("id = ?", product.ID).
			Update("current_stock", gorm.Expr("current_stock + ?", delta)).Error; err != nil {
			return apperr.Storage("stok güncellenemedi", err)
		}

		userID, err := activeUserID(tx, actor.UserID)
		if err != nil {
			return apperr.Storage("kullanıcı okunamadı", err)
		}

		// İki yönde de IN yazılır, etkiyi işaretli miktar taşır
		if _, err := s.ledger.Append(tx, product.ID, models.StockIn, delta, userID); err != nil {
			return apperr.Storage("stok hareketi yazılamadı", err)
		}

		action := models.InventoryActionStockIn
		details := fmt.Sprintf("Sipariş üzerinden otomatik eklendi (%s)", orderTitle)
		if !newState {
			action = models.InventoryActionStockOut
			details = fmt.Sprintf("Sipariş eşlemesi geri alındı (Eklenen stok düşüldü) (%s)", orderTitle)
		}
		if err := audit.WriteLog(tx, audit.LogOptions{
			Action:      action,
			ProductName: product.Name,
			Details:     details,
			UserID:      derefUint(userID),
			UserName:    actor.FullName,
		}); err != nil {
			return apperr.Storage("denetim kaydı yazılamadı", err)
		}

		var updated models.Product
		if err := tx.First(&updated, product.ID).Error; err != nil {
			return apperr.Storage("ürün okunamadı", err)
		}

		res = SyncResult{
			ItemID:         item.ID,
			ProductID:      product.ID,
			ProductName:    product.Name,
			IsAddedToStock: newState,
			Quantity:       qty,
			CurrentStock:   updated.CurrentStock,
			Relinked:       resolution.Relinked && item.ProductID != nil,
		}
		return nil
	})
	if err != nil {
		s.recordFailure(itemID, err)
		return SyncResult{}, err
	}

	if res.IsAddedToStock {
		metrics.SyncToggles.WithLabelValues("synced").Inc()
	} else {
		metrics.SyncToggles.WithLabelValues("reverted").Inc()
	}

	s.notifyToggle(ctx, res, orderTitle, actor)
	return res, nil
}

func (s *Syncer) recordFailure(itemID uint, err error) {
	if apperr.IsBusiness(err) {
		metrics.SyncToggles.WithLabelValues("rejected").Inc()
		s.log.Warn("inventory sync rejected",
			zap.Uint("item_id", itemID),
			zap.String("kind", apperr.KindOf(err).String()),
			zap.String("error", apperr.Message(err)))
		return
	}
	metrics.SyncToggles.WithLabelValues("failed").Inc()
	s.log.Error("inventory sync failed",
		zap.Uint("item_id", itemID),
		zap.Error(err))
}

func (s *Syncer) notifyToggle(ctx context.Context, res SyncResult, orderTitle string, actor Actor) {
	if s.notifier == nil {
		return
	}
	typ := EventSynced
	content := fmt.Sprintf("%s %s stoğa eklendi (%s)", res.Quantity, res.ProductName, orderTitle)
	if !res.IsAddedToStock {
		typ = EventSyncReverted
		content = fmt.Sprintf("%s %s stoktan geri alındı (%s)", res.Quantity, res.ProductName, orderTitle)
	}
	s.notifier.Notify(ctx, typ, content, actor.FullName, notification.Options{Link: inventoryLink})
}

// activeUserID: oturumdaki kullanıcı silinmişse (ör. veri sıfırlama) nil döner, işlem sistem adına yazılır
func activeUserID(tx *gorm.DB, id uint) (*uint, error) {
	if id == 0 {
		return nil, nil
	}
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	return &id, nil
}

func derefUint(p *uint) uint {
	if p == nil {
		return 0
	}
	return *p
}
