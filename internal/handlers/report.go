package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diewo77/facturacion-backend/internal/httpx"
	"github.com/diewo77/facturacion-backend/internal/models"
)

// ReportHandler serves read models over the invariants the billing core
// maintains. Voided invoices and soft-deleted lines are always excluded.
type ReportHandler struct {
	DB *gorm.DB
}

func NewReportHandler(db *gorm.DB) *ReportHandler { return &ReportHandler{DB: db} }

const dateLayout = "2006-01-02"

// Sales: GET /reportes/ventas?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ReportHandler) Sales(w http.ResponseWriter, r *http.Request) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_from_date", nil)
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_to_date", nil)
			return
		}
		to = t
	}
	var row struct {
		InvoiceCount  int64           `json:"invoice_count"`
		Subtotal      decimal.Decimal `json:"subtotal"`
		DiscountValue decimal.Decimal `json:"discount_value"`
		TaxValue      decimal.Decimal `json:"tax_value"`
		Total         decimal.Decimal `json:"total"`
	}
	err := h.DB.Model(&models.Invoice{}).
		Select("COUNT(*) as invoice_count, COALESCE(SUM(subtotal),0) as subtotal, COALESCE(SUM(discount_value),0) as discount_value, COALESCE(SUM(tax_value),0) as tax_value, COALESCE(SUM(total),0) as total").
		Where("status = ? AND active = ? AND date >= ? AND date < ?",
			models.InvoiceStatusActive, true, from, to.AddDate(0, 0, 1)).
		Scan(&row).Error
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_build_report", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"from":    from.Format(dateLayout),
		"to":      to.Format(dateLayout),
		"summary": row,
	})
}

// BestSellers: GET /reportes/mas-vendidos?limit=N
func (h *ReportHandler) BestSellers(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	var rows []struct {
		ArticleID   uint            `json:"article_id"`
		ArticleCode string          `json:"article_code"`
		ArticleName string          `json:"article_name"`
		Quantity    int64           `json:"quantity"`
		Revenue     decimal.Decimal `json:"revenue"`
	}
	err := h.DB.Table("invoice_lines").
		Select("invoice_lines.article_id, invoice_lines.article_code, invoice_lines.article_name, SUM(invoice_lines.quantity) as quantity, SUM(invoice_lines.subtotal) as revenue").
		Joins("JOIN invoices ON invoices.id = invoice_lines.invoice_id").
		Where("invoice_lines.active = ? AND invoices.status = ? AND invoices.active = ?",
			true, models.InvoiceStatusActive, true).
		Group("invoice_lines.article_id, invoice_lines.article_code, invoice_lines.article_name").
		Order("quantity desc").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_build_report", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows})
}

// LowStock: GET /reportes/stock-bajo – articles at or below their threshold.
func (h *ReportHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	var articles []models.Article
	err := h.DB.Where("active = ? AND stock <= min_stock", true).
		Order("stock asc").
		Find(&articles).Error
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_build_report", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": articles})
}
