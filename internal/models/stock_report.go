package models

import "time"

// StockReport: dönem sıfırlamadan önce alınan stok fotoğrafı
type StockReport struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Period    string    `gorm:"size:50;not null" json:"period"` // ör: "Ekim 2026"
	Data      string    `gorm:"type:text;not null" json:"data"` // JSON: []StockReportLine
	CreatedAt time.Time `json:"createdAt"`
}
