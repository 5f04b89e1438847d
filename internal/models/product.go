package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product: depodaki stok kartı. CurrentStock sadece senkron işlemi ve dönem sıfırlama ile değişir.
type Product struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Unit         string          `gorm:"size:20;not null" json:"unit"` // kg, adet, koli vs.
	Category     string          `gorm:"size:50;index" json:"category"`
	CurrentStock decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"currentStock"`
	StartStock   decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"startStock"` // son dönem başı stok
	LastReset    time.Time       `gorm:"not null" json:"lastReset"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
