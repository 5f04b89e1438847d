package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ottobite-backend/internal/apperr"
	"ottobite-backend/internal/audit"
	"ottobite-backend/internal/logger"
	"ottobite-backend/internal/models"
	"ottobite-backend/internal/notification"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const unknownUser = "Bilinmiyor"

type Products struct {
	db       *gorm.DB
	ledger   *Ledger
	resolver *Resolver
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewProducts(db *gorm.DB, ledger *Ledger, resolver *Resolver, notifier Notifier, log *zap.Logger) *Products {
	return &Products{
		db:       db,
		ledger:   ledger,
		resolver: resolver,
		notifier: notifier,
		log:      logger.OrNop(log),
		now:      time.Now,
	}
}

// ProductSummary: ürün + seçili aralıktaki giriş/çıkış toplamları
type ProductSummary struct {
	models.Product
	AddedThisMonth   decimal.Decimal `json:"addedThisMonth"`
	RemovedThisMonth decimal.Decimal `json:"removedThisMonth"`
}

// List returns products by name with movement totals in [from, to). Zero bounds default to the current month.
func (s *Products) List(ctx context.Context, from, to time.Time) ([]ProductSummary, error) {
	now := s.now()
	if from.IsZero() {
		from = monthStart(now)
	}
	if to.IsZero() {
		to = monthStart(now).AddDate(0, 1, 0)
	}

	var products []models.Product
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&products).Error; err != nil {
		return nil, apperr.Storage("ürünler listelenemedi", err)
	}

	totals, err := s.ledger.Totals(ctx, from, to)
	if err != nil {
		return nil, apperr.Storage("stok toplamları hesaplanamadı", err)
	}

	out := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		t := totals[p.ID]
		out = append(out, ProductSummary{Product: p, AddedThisMonth: t.In, RemovedThisMonth: t.Out})
	}
	return out, nil
}

type CreateProductInput struct {
	Name       string          `json:"name" validate:"required,max=100"`
	Unit       string          `json:"unit" validate:"required,max=20"`
	Category   string          `json:"category" validate:"max=50"`
	StartStock decimal.Decimal `json:"startStock"`
}

func (s *Products) Create(ctx context.Context, in CreateProductInput, actor Actor) (models.Product, error) {
	if !actor.canManageStock() {
		return models.Product{}, apperr.Authorization("Yetkisiz işlem.")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	in.Category = strings.TrimSpace(in.Category)
	if err := apperr.ValidateStruct(in); err != nil {
		return models.Product{}, err
	}
	if in.StartStock.IsNegative() {
		return models.Product{}, apperr.Validation("Başlangıç stoğu negatif olamaz")
	}

	p := models.Product{
		Name:         in.Name,
		Unit:         in.Unit,
		Category:     in.Category,
		StartStock:   in.StartStock,
		CurrentStock: in.StartStock,
		LastReset:    s.now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.resolver.MatchByName(tx, in.Name)
		if err != nil {
			return apperr.Storage("ürün aranamadı", err)
		}
		if existing != nil {
			return apperr.Conflict(fmt.Sprintf("%q adında bir ürün zaten var.", existing.Name))
		}

		if err := tx.Create(&p).Error; err != nil {
			return apperr.Storage("ürün oluşturulamadı", err)
		}

		userID, err := activeUserID(tx, actor.UserID)
		if err != nil {
			return apperr.Storage("kullanıcı okunamadı", err)
		}
		return audit.WriteLog(tx, audit.LogOptions{
			Action:      models.InventoryActionProductCreated,
			ProductName: p.Name,
			Details:     fmt.Sprintf("Ürün oluşturuldu. Başlangıç stoğu: %s %s", p.StartStock, p.Unit),
			UserID:      derefUint(userID),
			UserName:    actor.FullName,
		})
	})
	if err != nil {
		return models.Product{}, asStorage("ürün oluşturulamadı", err)
	}

	s.notify(ctx, EventProductCreated,
		fmt.Sprintf("%q ürünü oluşturuldu. Başlangıç stoğu: %s %s", p.Name, p.StartStock, p.Unit),
		actor, models.PriorityInfo)
	return p, nil
}

type UpdateProductInput struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Unit     *string `json:"unit" validate:"omitempty,max=20"`
	Category *string `json:"category" validate:"omitempty,max=50"`
}

// Update changes descriptive fields only; stock moves go through the ledger.
func (s *Products) Update(ctx context.Context, id uint, in UpdateProductInput, actor Actor) (models.Product, error) {
	if !actor.canManageStock() {
		return models.Product{}, apperr.Authorization("Yetkisiz işlem.")
	}
	if err := apperr.ValidateStruct(in); err != nil {
		return models.Product{}, err
	}

	var p models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Ürün bulunamadı")
			}
			return apperr.Storage("ürün okunamadı", err)
		}

		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apperr.Validation("Ürün adı boş olamaz")
			}
			if !strings.EqualFold(name, p.Name) {
				existing, err := s.resolver.MatchByName(tx, name)
				if err != nil {
					return apperr.Storage("ürün aranamadı", err)
				}
				if existing != nil && existing.ID != p.ID {
					return apperr.Conflict(fmt.Sprintf("%q adında bir ürün zaten var.", existing.Name))
				}
			}
			p.Name = name
		}
		if in.Unit != nil {
			unit := strings.TrimSpace(*in.Unit)
			if unit == "" {
				return apperr.Validation("Birim boş olamaz")
			}
			p.Unit = unit
		}
		if in.Category != nil {
			p.Category = strings.TrimSpace(*in.Category)
		}

		if err := tx.Model(&p).Select("name", "unit", "category").Updates(&p).Error; err != nil {
			return apperr.Storage("ürün güncellenemedi", err)
		}
		return nil
	})
	if err != nil {
		return models.Product{}, err
	}

	s.notify(ctx, EventProductUpdated, fmt.Sprintf("%q ürünü güncellendi.", p.Name), actor, models.PriorityInfo)
	return p, nil
}

// Delete removes a product. Order items that still wait for a sync block the delete;
// already synced items keep their now dangling id.
func (s *Products) Delete(ctx context.Context, id uint, actor Actor) error {
	if !actor.canManageStock() {
		return apperr.Authorization("Yetkisiz işlem.")
	}

	var p models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Ürün bulunamadı")
			}
			return apperr.Storage("ürün okunamadı", err)
		}

		var pending []models.OrderItem
		if err := tx.Preload("Order").
			Where("product_id = ? AND is_added_to_stock = ?", id, false).
			Find(&pending).Error; err != nil {
			return apperr.Storage("aktif siparişler okunamadı", err)
		}
		if len(pending) > 0 {
			return apperr.Conflict(pendingOrdersMessage(pending))
		}

		if err := tx.Delete(&models.Product{}, id).Error; err != nil {
			return apperr.Storage("ürün silinemedi", err)
		}

		userID, err := activeUserID(tx, actor.UserID)
		if err != nil {
			return apperr.Storage("kullanıcı okunamadı", err)
		}
		return audit.WriteLog(tx, audit.LogOptions{
			Action:      models.InventoryActionProductDeleted,
			ProductName: p.Name,
			Details:     fmt.Sprintf("Ürün tamamen silindi. (Son stok: %s %s)", p.CurrentStock, p.Unit),
			UserID:      derefUint(userID),
			UserName:    actor.FullName,
		})
	})
	if err != nil {
		return asStorage("ürün silinemedi", err)
	}

	s.notify(ctx, EventProductDeleted,
		fmt.Sprintf("%q silindi. Son stok: %s %s", p.Name, p.CurrentStock, p.Unit),
		actor, models.PriorityHigh)
	return nil
}

func pendingOrdersMessage(items []models.OrderItem) string {
	var titles []string
	seen := map[string]bool{}
	for _, it := range items {
		if it.Order == nil || seen[it.Order.Title] {
			continue
		}
		seen[it.Order.Title] = true
		titles = append(titles, it.Order.Title)
	}
	more := ""
	if len(titles) > 3 {
		more = fmt.Sprintf(" ve %d sipariş daha", len(titles)-3)
		titles = titles[:3]
	}
	return fmt.Sprintf("Bu ürün aktif siparişlerde kullanılıyor: %s%s. Silmeden önce siparişleri tamamlayın.",
		strings.Join(titles, ", "), more)
}

type HistoryEntry struct {
	ID     uint                  `json:"id"`
	Type   models.StockDirection `json:"type"`
	Amount decimal.Decimal       `json:"amount"`
	Date   time.Time             `json:"date"`
	User   string                `json:"user"`
}

func (s *Products) History(ctx context.Context, productID uint, limit int) ([]HistoryEntry, error) {
	entries, err := s.ledger.History(ctx, productID, limit)
	if err != nil {
		return nil, apperr.Storage("stok geçmişi okunamadı", err)
	}

	var ids []uint
	for _, e := range entries {
		if e.UserID != nil {
			ids = append(ids, *e.UserID)
		}
	}
	names := map[uint]string{}
	if len(ids) > 0 {
		var users []models.User
		if err := s.db.WithContext(ctx).Select("id", "full_name").Where("id IN ?", ids).Find(&users).Error; err != nil {
			return nil, apperr.Storage("kullanıcılar okunamadı", err)
		}
		for _, u := range users {
			names[u.ID] = u.FullName
		}
	}

	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		user := unknownUser
		if e.UserID != nil {
			if n, ok := names[*e.UserID]; ok {
				user = n
			}
		}
		out = append(out, HistoryEntry{ID: e.ID, Type: e.Type, Amount: e.Amount, Date: e.CreatedAt, User: user})
	}
	return out, nil
}

func (s *Products) Verify(ctx context.Context, productID uint) (Verification, error) {
	v, err := s.ledger.Verify(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Verification{}, apperr.NotFound("Ürün bulunamadı")
		}
		return Verification{}, apperr.Storage("stok doğrulanamadı", err)
	}
	return v, nil
}

func (s *Products) notify(ctx context.Context, typ, content string, actor Actor, priority models.NotificationPriority) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, typ, content, actor.FullName, notification.Options{Link: inventoryLink, Priority: priority})
}

// asStorage wraps errors that escaped the taxonomy, e.g. from audit.WriteLog.
func asStorage(op string, err error) error {
	if apperr.KindOf(err) == apperr.KindUnknown {
		return apperr.Storage(op, err)
	}
	return err
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
