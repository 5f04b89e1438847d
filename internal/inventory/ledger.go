package inventory

import (
	"context"
	"fmt"
	"time"

	"ottobite-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ledger is the append-only stock movement log. Entries are never updated or deleted;
// a reversal is a new entry with the opposite sign.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Append: tek yazma yolu. tx, çağıranın transaction'ı olmalı.
func (l *Ledger) Append(tx *gorm.DB, productID uint, dir models.StockDirection, amount decimal.Decimal, userID *uint) (models.StockTransaction, error) {
	entry := models.StockTransaction{
		ProductID: productID,
		Type:      dir,
		Amount:    amount,
		UserID:    userID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return models.StockTransaction{}, fmt.Errorf("stok hareketi yazılamadı: %w", err)
	}
	return entry, nil
}

// History: en yeni hareket önce
func (l *Ledger) History(ctx context.Context, productID uint, limit int) ([]models.StockTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	var entries []models.StockTransaction
	err := l.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("stok geçmişi okunamadı: %w", err)
	}
	return entries, nil
}

// Totals: bir ürünün belirli aralıktaki IN ve OUT toplamları
type Totals struct {
	In  decimal.Decimal `json:"in"`
	Out decimal.Decimal `json:"out"`
}

// Net returns In − Out.
func (t Totals) Net() decimal.Decimal { return t.In.Sub(t.Out) }

// Totals sums amounts per product and direction for entries created in [from, to).
// A zero to leaves the range open.
func (l *Ledger) Totals(ctx context.Context, from, to time.Time) (map[uint]Totals, error) {
	return sumTotals(l.db.WithContext(ctx), from, to, 0)
}

func sumTotals(db *gorm.DB, from, to time.Time, productID uint) (map[uint]Totals, error) {
	var rows []struct {
		ProductID uint
		Type      models.StockDirection
		Total     decimal.Decimal
	}

	q := db.Model(&models.StockTransaction{}).
		Select("product_id, type, SUM(amount) AS total").
		Where("created_at >= ?", from)
	if !to.IsZero() {
		q = q.Where("created_at < ?", to)
	}
	if productID != 0 {
		q = q.Where("product_id = ?", productID)
	}
	if err := q.Group("product_id, type").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("stok toplamları hesaplanamadı: %w", err)
	}

	out := make(map[uint]Totals)
	for _, r := range rows {
		t := out[r.ProductID]
		switch r.Type {
		case models.StockIn:
			t.In = t.In.Add(r.Total)
		case models.StockOut:
			t.Out = t.Out.Add(r.Total)
		}
		out[r.ProductID] = t
	}
	return out, nil
}

type Verification struct {
	ProductID    uint            `json:"productId"`
	StartStock   decimal.Decimal `json:"startStock"`
	In           decimal.Decimal `json:"in"`
	Out          decimal.Decimal `json:"out"`
	Expected     decimal.Decimal `json:"expected"`
	CurrentStock decimal.Decimal `json:"currentStock"`
	Consistent   bool            `json:"consistent"`
}

// Verify recomputes startStock + ΣIN − ΣOUT since the last reset and compares it to currentStock.
func (l *Ledger) Verify(ctx context.Context, productID uint) (Verification, error) {
	db := l.db.WithContext(ctx)

	var p models.Product
	if err := db.First(&p, productID).Error; err != nil {
		return Verification{}, err
	}

	totals, err := sumTotals(db, p.LastReset, time.Time{}, p.ID)
	if err != nil {
		return Verification{}, err
	}
	t := totals[p.ID]
	expected := p.StartStock.Add(t.Net())

	return Verification{
		ProductID:    p.ID,
		StartStock:   p.StartStock,
		In:           t.In,
		Out:          t.Out,
		Expected:     expected,
		CurrentStock: p.CurrentStock,
		Consistent:   expected.Equal(p.CurrentStock),
	}, nil
}
