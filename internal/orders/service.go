// Package orders manages supplier order lists and their items up to the point where
// received goods are synced into inventory.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ottobite-backend/internal/apperr"
	"ottobite-backend/internal/inventory"
	"ottobite-backend/internal/logger"
	"ottobite-backend/internal/models"
	"ottobite-backend/internal/notification"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	EventOrderCreated = "ORDER_CREATED"
	EventItemReceived = "ITEM_RECEIVED"

	ordersLink  = "/dashboard/orders"
	defaultUnit = "adet"
)

type Service struct {
	db       *gorm.DB
	resolver *inventory.Resolver
	syncer   *inventory.Syncer
	notifier inventory.Notifier
	log      *zap.Logger
}

func NewService(db *gorm.DB, resolver *inventory.Resolver, syncer *inventory.Syncer, notifier inventory.Notifier, log *zap.Logger) *Service {
	return &Service{
		db:       db,
		resolver: resolver,
		syncer:   syncer,
		notifier: notifier,
		log:      logger.OrNop(log),
	}
}

type ItemInput struct {
	ProductName string          `json:"productName" validate:"required,max=100"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit" validate:"max=20"`
	ProductID   *uint           `json:"productId"`
}

type CreateOrderInput struct {
	Title string      `json:"title" validate:"required,max=200"`
	Items []ItemInput `json:"items" validate:"min=1,dive"`
}

func (in *ItemInput) normalize() error {
	in.ProductName = strings.TrimSpace(in.ProductName)
	in.Unit = strings.TrimSpace(in.Unit)
	if in.Unit == "" {
		in.Unit = defaultUnit
	}
	if in.ProductID != nil && *in.ProductID == 0 {
		in.ProductID = nil
	}
	if !in.Quantity.IsPositive() {
		return apperr.Validation("Miktar sıfırdan büyük olmalıdır")
	}
	return nil
}

// newItem: productId verilmemişse depoda isimden eşleşen ürüne bağlanır
func (s *Service) newItem(tx *gorm.DB, orderID uint, in ItemInput) (models.OrderItem, error) {
	item := models.OrderItem{
		OrderID:     orderID,
		ProductName: in.ProductName,
		Quantity:    in.Quantity,
		Unit:        in.Unit,
		ProductID:   in.ProductID,
	}
	if item.ProductID == nil {
		p, err := s.resolver.MatchByName(tx, in.ProductName)
		if err != nil {
			return models.OrderItem{}, apperr.Storage("ürün aranamadı", err)
		}
		if p != nil {
			item.ProductID = &p.ID
		}
	}
	return item, nil
}

func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput, actor inventory.Actor) (models.Order, error) {
	in.Title = strings.TrimSpace(in.Title)
	for i := range in.Items {
		if err := in.Items[i].normalize(); err != nil {
			return models.Order{}, err
		}
	}
	if err := apperr.ValidateStruct(in); err != nil {
		return models.Order{}, err
	}

	order := models.Order{Title: in.Title, Status: models.OrderPending}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return apperr.Storage("sipariş oluşturulamadı", err)
		}
		for _, it := range in.Items {
			item, err := s.newItem(tx, order.ID, it)
			if err != nil {
				return err
			}
			if err := tx.Create(&item).Error; err != nil {
				return apperr.Storage("sipariş kalemi oluşturulamadı", err)
			}
			order.Items = append(order.Items, item)
		}
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	s.log.Info("order created", zap.Uint("order_id", order.ID), zap.String("title", order.Title), zap.String("by", actor.FullName))
	s.notify(ctx, EventOrderCreated,
		fmt.Sprintf("%q başlıklı yeni bir sipariş listesi oluşturuldu.", order.Title), actor)
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, apperr.Storage("siparişler listelenemedi", err)
	}
	return orders, nil
}

// ListUnfilled: teslim alınmamış kalemi olan siparişler, sadece o kalemlerle
func (s *Service) ListUnfilled(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id AND oi.is_received = ?)", false).
		Preload("Items", "is_received = ?", false).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, apperr.Storage("siparişler listelenemedi", err)
	}
	return orders, nil
}

func (s *Service) GetOrder(ctx context.Context, id uint) (models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Order{}, apperr.NotFound("Sipariş bulunamadı.")
		}
		return models.Order{}, apperr.Storage("sipariş okunamadı", err)
	}
	return order, nil
}

func (s *Service) UpdateTitle(ctx context.Context, id uint, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperr.Validation("Başlık zorunludur")
	}
	res := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("title", title)
	if res.Error != nil {
		return apperr.Storage("sipariş güncellenemedi", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Sipariş bulunamadı.")
	}
	return nil
}

type ToggleReceivedInput struct {
	IsReceived       bool             `json:"isReceived"`
	ReceivedQuantity *decimal.Decimal `json:"receivedQuantity"`
}

// ToggleReceived marks an item received or not. The received quantity of an item that
// is already synced cannot change, otherwise reverting the sync would move a different amount.
func (s *Service) ToggleReceived(ctx context.Context, itemID uint, in ToggleReceivedInput, actor inventory.Actor) (models.OrderItem, error) {
	if in.IsReceived && in.ReceivedQuantity != nil && !in.ReceivedQuantity.IsPositive() {
		return models.OrderItem{}, apperr.Validation("Geçerli bir teslim miktarı girin.")
	}

	var (
		item  models.OrderItem
		title string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Order").First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Ürün bulunamadı.")
			}
			return apperr.Storage("sipariş kalemi okunamadı", err)
		}
		if item.Order != nil {
			title = item.Order.Title
		}

		updates := map[string]any{"is_received": in.IsReceived}
		if in.IsReceived {
			updates["received_at"] = time.Now()
		} else {
			updates["received_at"] = nil
		}

		if item.IsAddedToStock {
			if in.IsReceived && in.ReceivedQuantity != nil && !in.ReceivedQuantity.Equal(item.SyncQuantity()) {
				return apperr.Conflict("Bu ürün zaten depoya eklendi. Teslim miktarı değiştirilemez.")
			}
		} else {
			var qty decimal.NullDecimal
			if in.IsReceived && in.ReceivedQuantity != nil {
				qty = decimal.NewNullDecimal(*in.ReceivedQuantity)
			}
			updates["received_quantity"] = qty
		}

		if err := tx.Model(&item).Updates(updates).Error; err != nil {
			return apperr.Storage("sipariş kalemi güncellenemedi", err)
		}
		item = models.OrderItem{}
		if err := tx.First(&item, itemID).Error; err != nil {
			return apperr.Storage("sipariş kalemi okunamadı", err)
		}
		return refreshStatus(tx, item.OrderID)
	})
	if err != nil {
		return models.OrderItem{}, err
	}

	if in.IsReceived {
		content := fmt.Sprintf("%q listesindeki %q ürünü geldi.", title, item.ProductName)
		if item.ReceivedQuantity.Valid {
			content += fmt.Sprintf(" (%s %s)", item.ReceivedQuantity.Decimal, item.Unit)
		}
		s.notify(ctx, EventItemReceived, content, actor)
	}
	return item, nil
}

// refreshStatus: tüm kalemler teslim alındıysa sipariş tamamlanır
func refreshStatus(tx *gorm.DB, orderID uint) error {
	var open int64
	if err := tx.Model(&models.OrderItem{}).
		Where("order_id = ? AND is_received = ?", orderID, false).
		Count(&open).Error; err != nil {
		return apperr.Storage("sipariş durumu hesaplanamadı", err)
	}
	status := models.OrderCompleted
	if open > 0 {
		status = models.OrderPending
	}
	if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Update("status", status).Error; err != nil {
		return apperr.Storage("sipariş durumu güncellenemedi", err)
	}
	return nil
}

type UpdateItemInput struct {
	Quantity    *decimal.Decimal `json:"quantity"`
	Unit        *string          `json:"unit"`
	ProductName *string          `json:"productName"`
}

func (s *Service) UpdateItem(ctx context.Context, itemID uint, in UpdateItemInput) (models.OrderItem, error) {
	var item models.OrderItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Ürün bulunamadı.")
			}
			return apperr.Storage("sipariş kalemi okunamadı", err)
		}
		if item.IsAddedToStock {
			return apperr.Conflict("Bu ürün zaten depoya eklendi. Düzenleme yapılamaz.")
		}

		updates := map[string]any{}
		if in.Quantity != nil {
			if !in.Quantity.IsPositive() {
				return apperr.Validation("Miktar sıfırdan büyük olmalıdır")
			}
			updates["quantity"] = *in.Quantity
		}
		if in.Unit != nil {
			updates["unit"] = strings.TrimSpace(*in.Unit)
		}
		if in.ProductName != nil {
			name := strings.TrimSpace(*in.ProductName)
			if name == "" {
				return apperr.Validation("Ürün adı boş olamaz")
			}
			updates["product_name"] = name
		}
		if len(updates) == 0 {
			return nil
		}

		// Sadece senkronlanmamış kalem düzenlenir; aradaki toggle'a karşı koşullu güncelle
		res := tx.Model(&models.OrderItem{}).Where("id = ? AND is_added_to_stock = ?", itemID, false).Updates(updates)
		if res.Error != nil {
			return apperr.Storage("sipariş kalemi güncellenemedi", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("Bu ürün zaten depoya eklendi. Düzenleme yapılamaz.")
		}
		return tx.First(&item, itemID).Error
	})
	if err != nil {
		return models.OrderItem{}, asStorage("sipariş kalemi güncellenemedi", err)
	}
	return item, nil
}

func (s *Service) AddItem(ctx context.Context, orderID uint, in ItemInput) (models.OrderItem, error) {
	if err := in.normalize(); err != nil {
		return models.OrderItem{}, err
	}
	if err := apperr.ValidateStruct(in); err != nil {
		return models.OrderItem{}, err
	}

	var item models.OrderItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Sipariş bulunamadı.")
			}
			return apperr.Storage("sipariş okunamadı", err)
		}

		var err error
		item, err = s.newItem(tx, orderID, in)
		if err != nil {
			return err
		}
		if err := tx.Create(&item).Error; err != nil {
			return apperr.Storage("sipariş kalemi oluşturulamadı", err)
		}
		return refreshStatus(tx, orderID)
	})
	if err != nil {
		return models.OrderItem{}, err
	}
	return item, nil
}

// RemoveItem returns the number of items left on the order.
func (s *Service) RemoveItem(ctx context.Context, itemID uint) (int64, error) {
	var remaining int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.OrderItem
		if err := tx.First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Ürün bulunamadı.")
			}
			return apperr.Storage("sipariş kalemi okunamadı", err)
		}
		if item.IsAddedToStock {
			return apperr.Conflict("Bu ürün zaten depoya eklendi. Silmeden önce depo eşlemesini geri alın.")
		}

		res := tx.Where("id = ? AND is_added_to_stock = ?", itemID, false).Delete(&models.OrderItem{})
		if res.Error != nil {
			return apperr.Storage("sipariş kalemi silinemedi", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("Bu ürün zaten depoya eklendi. Silmeden önce depo eşlemesini geri alın.")
		}

		if err := tx.Model(&models.OrderItem{}).Where("order_id = ?", item.OrderID).Count(&remaining).Error; err != nil {
			return apperr.Storage("kalemler sayılamadı", err)
		}
		if remaining == 0 {
			return nil
		}
		return refreshStatus(tx, item.OrderID)
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// DeleteOrder: sadece ADMIN. Kalemler cascade ile silinir; stok hareketleri dokunulmadan kalır.
func (s *Service) DeleteOrder(ctx context.Context, id uint, actor inventory.Actor) error {
	if actor.Role != models.RoleAdmin {
		return apperr.Authorization("Sadece yöneticiler silebilir.")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return apperr.Storage("sipariş kalemleri silinemedi", err)
		}
		res := tx.Delete(&models.Order{}, id)
		if res.Error != nil {
			return apperr.Storage("sipariş silinemedi", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("Sipariş bulunamadı.")
		}
		return nil
	})
	return err
}

// ToggleInventorySync is the entry point the order screen calls for a sync toggle.
func (s *Service) ToggleInventorySync(ctx context.Context, itemID uint, actor inventory.Actor) (inventory.SyncResult, error) {
	return s.syncer.Toggle(ctx, itemID, actor)
}

func (s *Service) notify(ctx context.Context, typ, content string, actor inventory.Actor) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, typ, content, actor.FullName, notification.Options{Link: ordersLink})
}

func asStorage(op string, err error) error {
	if apperr.KindOf(err) == apperr.KindUnknown {
		return apperr.Storage(op, err)
	}
	return err
}
