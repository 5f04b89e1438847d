package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ottobite-backend/internal/apperr"
	"ottobite-backend/internal/audit"
	"ottobite-backend/internal/logger"
	"ottobite-backend/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var trMonths = [...]string{
	"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık",
}

// StockReportLine: StockReport.Data içindeki satır
type StockReportLine struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	CurrentStock decimal.Decimal `json:"currentStock"`
	Unit         string          `json:"unit"`
}

type ResetSummary struct {
	ReportID uint   `json:"reportId"`
	Period   string `json:"period"`
	Products int    `json:"products"`
}

// PeriodReset closes the month: it snapshots every product into a StockReport and
// moves each product's baseline to the start of the month.
type PeriodReset struct {
	db     *gorm.DB
	locale string
	log    *zap.Logger
}

func NewPeriodReset(db *gorm.DB, locale string, log *zap.Logger) *PeriodReset {
	return &PeriodReset{db: db, locale: locale, log: logger.OrNop(log)}
}

// Run: startStock = currentStock − ΣIN + ΣOUT (ay başından beri), lastReset = ay başı.
// Böylece startStock + hareketler == currentStock eşitliği reset sonrası da korunur.
func (r *PeriodReset) Run(ctx context.Context, now time.Time) (ResetSummary, error) {
	start := monthStart(now)
	summary := ResetSummary{Period: periodLabel(now, r.locale)}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		totals, err := sumTotals(tx, start, time.Time{}, 0)
		if err != nil {
			return err
		}

		var products []models.Product
		if err := tx.Order("id ASC").Find(&products).Error; err != nil {
			return fmt.Errorf("ürünler okunamadı: %w", err)
		}

		lines := make([]StockReportLine, 0, len(products))
		for _, p := range products {
			lines = append(lines, StockReportLine{ID: p.ID, Name: p.Name, CurrentStock: p.CurrentStock, Unit: p.Unit})
		}
		data, err := json.Marshal(lines)
		if err != nil {
			return fmt.Errorf("stok raporu serileştirilemedi: %w", err)
		}

		report := models.StockReport{Period: summary.Period, Data: string(data)}
		if err := tx.Create(&report).Error; err != nil {
			return fmt.Errorf("stok raporu kaydedilemedi: %w", err)
		}
		summary.ReportID = report.ID

		for _, p := range products {
			baseline := p.CurrentStock.Sub(totals[p.ID].Net())
			if err := tx.Model(&models.Product{}).Where("id = ?", p.ID).Updates(map[string]any{
				"start_stock": baseline,
				"last_reset":  start,
			}).Error; err != nil {
				return fmt.Errorf("ürün sıfırlanamadı (%d): %w", p.ID, err)
			}
		}
		summary.Products = len(products)

		return audit.WriteLog(tx, audit.LogOptions{
			Action:  models.InventoryActionPeriodReset,
			Details: fmt.Sprintf("Dönem sıfırlandı: %s (%d ürün)", summary.Period, len(products)),
		})
	})
	if err != nil {
		r.log.Error("period reset failed", zap.Error(err))
		return ResetSummary{}, apperr.Storage("dönem sıfırlanamadı", err)
	}

	r.log.Info("period reset completed",
		zap.String("period", summary.Period),
		zap.Int("products", summary.Products))
	return summary, nil
}

// periodLabel: "Ekim 2026" gibi ay/yıl etiketi
func periodLabel(t time.Time, locale string) string {
	if strings.HasPrefix(strings.ToLower(locale), "tr") {
		return fmt.Sprintf("%s %d", trMonths[t.Month()-1], t.Year())
	}
	return fmt.Sprintf("%s %d", t.Month(), t.Year())
}
