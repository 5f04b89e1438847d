package models

import "time"

type InventoryAction string

const (
	InventoryActionStockIn        InventoryAction = "STOCK_IN"
	InventoryActionStockOut       InventoryAction = "STOCK_OUT"
	InventoryActionProductCreated InventoryAction = "CREATE"
	InventoryActionProductDeleted InventoryAction = "DELETE"
	InventoryActionPeriodReset    InventoryAction = "PERIOD_RESET"
)

// InventoryLog: depo işlemlerinin okunabilir denetim kaydı
type InventoryLog struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	ActionType InventoryAction `gorm:"size:20;index;not null" json:"actionType"`
	// Ürün silinse de okunabilsin diye isim denormalize tutulur
	ProductName string    `gorm:"size:100;index" json:"productName"`
	Details     string    `gorm:"size:500" json:"details"`
	UserName    string    `gorm:"size:100" json:"userName"`
	UserID      uint      `json:"userId"` // sistem işlemleri için 0
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
}
