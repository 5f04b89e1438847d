package inventory

import (
	"errors"
	"fmt"
	"strings"

	"ottobite-backend/internal/apperr"
	"ottobite-backend/internal/logger"
	"ottobite-backend/internal/metrics"
	"ottobite-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Resolution: kalemin bağlanacağı ürün. Relinked ise kalemin productId'si değişmeli.
type Resolution struct {
	Product  models.Product
	Relinked bool
}

// Resolver maps an order item's product reference to a product, repairing dangling ids by name.
type Resolver struct {
	log *zap.Logger
}

func NewResolver(log *zap.Logger) *Resolver {
	return &Resolver{log: logger.OrNop(log)}
}

func (r *Resolver) Resolve(tx *gorm.DB, item models.OrderItem) (Resolution, error) {
	if item.ProductID != nil {
		var p models.Product
		err := tx.First(&p, *item.ProductID).Error
		if err == nil {
			return Resolution{Product: p}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return Resolution{}, apperr.Storage("ürün okunamadı", err)
		}
		r.log.Info("linked product was deleted, searching by name",
			zap.Uint("item_id", item.ID),
			zap.Uint("product_id", *item.ProductID),
			zap.String("product_name", item.ProductName))
	}

	p, err := r.MatchByName(tx, item.ProductName)
	if err != nil {
		return Resolution{}, apperr.Storage("ürün aranamadı", err)
	}
	if p == nil {
		return Resolution{}, apperr.ProductNotFound(item.ProductName)
	}

	if item.ProductID != nil {
		metrics.Relinks.Inc()
		r.log.Info("self-healing relink",
			zap.Uint("item_id", item.ID),
			zap.Uint("old_product_id", *item.ProductID),
			zap.Uint("new_product_id", p.ID))
	}
	return Resolution{Product: *p, Relinked: true}, nil
}

// MatchByName: büyük/küçük harf duyarsız isim eşleşmesi. Bulunamazsa nil, nil döner.
// Birden fazla eşleşmede en küçük id kazanır.
func (r *Resolver) MatchByName(db *gorm.DB, name string) (*models.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	var candidates []models.Product
	if err := db.Select("id", "name").Order("id ASC").Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("ürünler okunamadı: %w", err)
	}

	for _, c := range candidates {
		if strings.EqualFold(strings.TrimSpace(c.Name), name) {
			var p models.Product
			if err := db.First(&p, c.ID).Error; err != nil {
				return nil, fmt.Errorf("ürün okunamadı: %w", err)
			}
			return &p, nil
		}
	}
	return nil, nil
}
