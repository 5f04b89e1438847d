package audit

import (
	"fmt"
	"strings"

	"ottobite-backend/internal/models"

	"gorm.io/gorm"
)

// SystemUserName: oturumu olmayan ya da silinmiş kullanıcı adına yapılan işlemler
const SystemUserName = "Sistem"

type LogOptions struct {
	Action      models.InventoryAction
	ProductName string
	Details     string
	UserID      uint
	UserName    string
}

// WriteLog: denetim kaydını verilen bağlantı/transaction üzerinden yazar.
// Transaction içinden çağrıldığında kayıt, işlemin geri kalanıyla birlikte commit/rollback olur.
func WriteLog(db *gorm.DB, opts LogOptions) error {
	userName := strings.TrimSpace(opts.UserName)
	if userName == "" {
		userName = SystemUserName
	}

	log := models.InventoryLog{
		ActionType:  opts.Action,
		ProductName: opts.ProductName,
		Details:     opts.Details,
		UserName:    userName,
		UserID:      opts.UserID,
	}

	if err := db.Create(&log).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}
	return nil
}

type ListFilter struct {
	ProductName string
	Action      models.InventoryAction
	UserID      uint
	Limit       int
}

// List: en yeni kayıt önce
func List(db *gorm.DB, f ListFilter) ([]models.InventoryLog, error) {
	dbq := db.Model(&models.InventoryLog{})

	if f.ProductName != "" {
		dbq = dbq.Where("product_name = ?", f.ProductName)
	}
	if f.Action != "" {
		dbq = dbq.Where("action_type = ?", f.Action)
	}
	if f.UserID > 0 {
		dbq = dbq.Where("user_id = ?", f.UserID)
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var logs []models.InventoryLog
	if err := dbq.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("audit logları okunamadı: %w", err)
	}
	return logs, nil
}
