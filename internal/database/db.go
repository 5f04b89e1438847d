package database

import (
	"fmt"
	"time"

	"ottobite-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open: Postgres bağlantısını açar, gorm sorgu logları zap üzerinden akar
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: NewGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("veritabanına bağlanılamadı: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql.DB alınamadı: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate: tabloları oluşturur/günceller
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.StockTransaction{},
		&models.Order{},
		&models.OrderItem{},
		&models.InventoryLog{},
		&models.Notification{},
		&models.OrderNotification{},
		&models.MaintenancePlan{},
		&models.MaintenanceAlert{},
		&models.StockReport{},
	)
	if err != nil {
		return fmt.Errorf("AutoMigrate hatası: %w", err)
	}
	return nil
}

// NewGormLogger: gorm'un yavaş sorgu ve hata loglarını zap'e yönlendirir
func NewGormLogger(log *zap.Logger) gormlogger.Interface {
	if log == nil {
		return gormlogger.Discard
	}
	return gormlogger.New(
		zap.NewStdLog(log.Named("gorm")),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}
