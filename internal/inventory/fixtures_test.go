package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"ottobite-backend/internal/database/dbtest"
	"ottobite-backend/internal/models"
	"ottobite-backend/internal/notification"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentNotification struct {
	Type, Content, Actor string
	Opts                 notification.Options
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, typ, content, actor string, opts notification.Options) notification.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{Type: typ, Content: content, Actor: actor, Opts: opts})
	return notification.Result{Persisted: true}
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.sent {
		out = append(out, s.Type)
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	ledger   *Ledger
	resolver *Resolver
	notifier *recordingNotifier
	syncer   *Syncer
	stock    *Stock
	products *Products
	chef     Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	f := &fixture{
		db:       db,
		ledger:   NewLedger(db),
		resolver: NewResolver(nil),
		notifier: &recordingNotifier{},
	}
	f.syncer = NewSyncer(db, f.ledger, f.resolver, f.notifier, nil)
	f.stock = NewStock(db, f.ledger, f.notifier, nil)
	f.products = NewProducts(db, f.ledger, f.resolver, f.notifier, nil)

	user := models.User{FullName: "Ayşe Şef", Username: "ayse", PasswordHash: "x", Role: models.RoleChef, Department: "Salon 1"}
	require.NoError(t, db.Create(&user).Error)
	f.chef = Actor{UserID: user.ID, FullName: user.FullName, Role: user.Role}
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) product(t *testing.T, id uint, name, stock string) models.Product {
	t.Helper()
	p := models.Product{
		ID:           id,
		Name:         name,
		Unit:         "kg",
		CurrentStock: dec(stock),
		StartStock:   dec(stock),
		LastReset:    time.Now().Add(-time.Hour),
	}
	require.NoError(t, f.db.Create(&p).Error)
	return p
}

func (f *fixture) item(t *testing.T, title, name, qty string, productID *uint, received bool) models.OrderItem {
	t.Helper()
	order := models.Order{Title: title, Status: models.OrderPending}
	require.NoError(t, f.db.Create(&order).Error)

	it := models.OrderItem{
		OrderID:     order.ID,
		ProductName: name,
		Quantity:    dec(qty),
		Unit:        "kg",
		ProductID:   productID,
		IsReceived:  received,
	}
	require.NoError(t, f.db.Create(&it).Error)
	return it
}

func (f *fixture) reloadProduct(t *testing.T, id uint) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, f.db.First(&p, id).Error)
	return p
}

func (f *fixture) reloadItem(t *testing.T, id uint) models.OrderItem {
	t.Helper()
	var it models.OrderItem
	require.NoError(t, f.db.First(&it, id).Error)
	return it
}

func (f *fixture) ledgerEntries(t *testing.T) []models.StockTransaction {
	t.Helper()
	var entries []models.StockTransaction
	require.NoError(t, f.db.Order("id ASC").Find(&entries).Error)
	return entries
}

func (f *fixture) auditLogs(t *testing.T) []models.InventoryLog {
	t.Helper()
	var logs []models.InventoryLog
	require.NoError(t, f.db.Order("id ASC").Find(&logs).Error)
	return logs
}

func uintPtr(v uint) *uint { return &v }
