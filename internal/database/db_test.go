package database_test

import (
	"testing"

	"ottobite-backend/internal/database/dbtest"
	"ottobite-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestMigrate_CreatesTables(t *testing.T) {
	db := dbtest.New(t)

	for _, m := range []any{
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
	} {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
}
