package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderCompleted OrderStatus = "COMPLETED"
)

type Order struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Title     string      `gorm:"size:200;not null" json:"title"`
	Status    OrderStatus `gorm:"size:20;not null;default:PENDING" json:"status"`
	CreatedAt time.Time   `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// OrderItem: sipariş satırı. ProductName görünen etikettir; ProductID sadece zayıf bir referans,
// ürün silinmişse boşa düşebilir ve senkron sırasında isimden yeniden bağlanır.
type OrderItem struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	OrderID          uint                `gorm:"index;not null" json:"orderId"`
	Order            *Order              `json:"order,omitempty"`
	ProductName      string              `gorm:"size:100;not null" json:"productName"`
	Quantity         decimal.Decimal     `gorm:"type:numeric(14,3);not null" json:"quantity"`
	Unit             string              `gorm:"size:20;not null;default:adet" json:"unit"`
	ProductID        *uint               `gorm:"index" json:"productId"`
	IsReceived       bool                `gorm:"not null;default:false" json:"isReceived"`
	ReceivedAt       *time.Time          `json:"receivedAt"`
	ReceivedQuantity decimal.NullDecimal `gorm:"type:numeric(14,3)" json:"receivedQuantity"`
	IsAddedToStock   bool                `gorm:"not null;default:false" json:"isAddedToStock"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// SyncQuantity: stoğa taşınacak miktar; teslim miktarı girilmişse o, yoksa sipariş miktarı
func (i OrderItem) SyncQuantity() decimal.Decimal {
	if i.ReceivedQuantity.Valid {
		return i.ReceivedQuantity.Decimal
	}
	return i.Quantity
}
