package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type StockDirection string

const (
	StockIn  StockDirection = "IN"
	StockOut StockDirection = "OUT"
)

// StockTransaction: stok defteri kaydı. Oluşturulduktan sonra güncellenmez, silinmez;
// geri alma yeni bir ters kayıtla yapılır. ProductID zayıf referanstır (ürün silinse de kayıt kalır).
type StockTransaction struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ProductID uint            `gorm:"index;not null" json:"productId"`
	Type      StockDirection  `gorm:"size:3;not null" json:"type"`
	Amount    decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"amount"` // işaretli miktar
	UserID    *uint           `gorm:"index" json:"userId"`
	CreatedAt time.Time       `gorm:"index" json:"createdAt"`
}
