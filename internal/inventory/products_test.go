package inventory

import (
	"context"
	"testing"
	"time"

	"ottobite-backend/internal/apperr"
	"ottobite-backend/internal/models"
	"ottobite-backend/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.products.Create(ctx, CreateProductInput{Name: " Domates ", Unit: "kg", Category: "Sebze", StartStock: dec("12")}, f.chef)
	require.NoError(t, err)
	assert.Equal(t, "Domates", p.Name)
	assert.True(t, dec("12").Equal(p.CurrentStock))
	assert.True(t, dec("12").Equal(p.StartStock))

	logs := f.auditLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, models.InventoryActionProductCreated, logs[0].ActionType)
	assert.Equal(t, "Ürün oluşturuldu. Başlangıç stoğu: 12 kg", logs[0].Details)
	assert.Equal(t, []string{EventProductCreated}, f.notifier.types())

	_, err = f.products.Create(ctx, CreateProductInput{Name: "DOMATES", Unit: "kg"}, f.chef)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.products.Create(ctx, CreateProductInput{Name: "Biber"}, f.chef)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.products.Create(ctx, CreateProductInput{Name: "Biber", Unit: "kg", StartStock: dec("-1")}, f.chef)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.products.Create(ctx, CreateProductInput{Name: "Biber", Unit: "kg"}, Actor{Role: models.RoleStaff})
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
}

func TestUpdateProduct(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, 0, "Domates", "1")
	f.product(t, 0, "Biber", "1")

	name := "Salkım Domates"
	p, err := f.products.Update(context.Background(), a.ID, UpdateProductInput{Name: &name}, f.chef)
	require.NoError(t, err)
	assert.Equal(t, name, f.reloadProduct(t, a.ID).Name)
	assert.True(t, dec("1").Equal(p.CurrentStock))

	clash := "biber"
	_, err = f.products.Update(context.Background(), a.ID, UpdateProductInput{Name: &clash}, f.chef)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.products.Update(context.Background(), 999, UpdateProductInput{Name: &name}, f.chef)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, 0, "Domates", "7")
	pending := f.item(t, "Pazartesi", "Domates", "2", uintPtr(p.ID), true)

	err := f.products.Delete(context.Background(), p.ID, f.chef)
	require.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, "Bu ürün aktif siparişlerde kullanılıyor: Pazartesi. Silmeden önce siparişleri tamamlayın.", apperr.Message(err))

	_, err = f.syncer.Toggle(context.Background(), pending.ID, f.chef)
	require.NoError(t, err)

	require.NoError(t, f.products.Delete(context.Background(), p.ID, f.chef))

	var count int64
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", p.ID).Count(&count).Error)
	assert.Zero(t, count)

	// Senkronlanmış kalem artık boşa düşen id'yi tutar
	got := f.reloadItem(t, pending.ID)
	require.NotNil(t, got.ProductID)
	assert.Equal(t, p.ID, *got.ProductID)

	logs := f.auditLogs(t)
	last := logs[len(logs)-1]
	assert.Equal(t, models.InventoryActionProductDeleted, last.ActionType)
	assert.Equal(t, "Ürün tamamen silindi. (Son stok: 9 kg)", last.Details)

	f.notifier.mu.Lock()
	lastSent := f.notifier.sent[len(f.notifier.sent)-1]
	f.notifier.mu.Unlock()
	assert.Equal(t, EventProductDeleted, lastSent.Type)
	assert.Equal(t, models.PriorityHigh, lastSent.Opts.Priority)
	assert.Equal(t, notification.Options{Link: "/dashboard/inventory", Priority: models.PriorityHigh}, lastSent.Opts)

	assert.True(t, apperr.Is(f.products.Delete(context.Background(), p.ID, f.chef), apperr.KindNotFound))
}

func TestPendingOrdersMessageTruncates(t *testing.T) {
	var items []models.OrderItem
	for _, title := range []string{"A", "B", "A", "C", "D", "E"} {
		items = append(items, models.OrderItem{Order: &models.Order{Title: title}})
	}
	assert.Equal(t,
		"Bu ürün aktif siparişlerde kullanılıyor: A, B, C ve 2 sipariş daha. Silmeden önce siparişleri tamamlayın.",
		pendingOrdersMessage(items))
}

func TestListProductsWithMonthTotals(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, 0, "Un", "10")
	f.product(t, 0, "Biber", "0")

	_, err := f.stock.Move(context.Background(), a.ID, models.StockIn, dec("5"), f.chef)
	require.NoError(t, err)
	_, err = f.stock.Move(context.Background(), a.ID, models.StockOut, dec("2"), f.chef)
	require.NoError(t, err)

	list, err := f.products.List(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Biber", list[0].Name)
	assert.True(t, list[0].AddedThisMonth.IsZero())

	assert.Equal(t, "Un", list[1].Name)
	assert.True(t, dec("5").Equal(list[1].AddedThisMonth))
	assert.True(t, dec("2").Equal(list[1].RemovedThisMonth))

	past, err := f.products.List(context.Background(), time.Now().AddDate(-1, 0, 0), time.Now().AddDate(0, -6, 0))
	require.NoError(t, err)
	assert.True(t, past[1].AddedThisMonth.IsZero())
}

func TestProductHistory(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, 0, "Un", "10")

	_, err := f.stock.Move(context.Background(), p.ID, models.StockIn, dec("5"), f.chef)
	require.NoError(t, err)
	_, err = f.stock.Move(context.Background(), p.ID, models.StockOut, dec("1"), Actor{UserID: 999, FullName: "Eski", Role: models.RoleAdmin})
	require.NoError(t, err)

	history, err := f.products.History(context.Background(), p.ID, 20)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.StockOut, history[0].Type)
	assert.Equal(t, "Bilinmiyor", history[0].User)
	assert.Equal(t, "Ayşe Şef", history[1].User)
}

func TestVerifyUnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.products.Verify(context.Background(), 404)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
