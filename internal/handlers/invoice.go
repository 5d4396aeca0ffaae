package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diewo77/facturacion-backend/internal/auth"
	"github.com/diewo77/facturacion-backend/internal/billing"
	"github.com/diewo77/facturacion-backend/internal/httpx"
	"github.com/diewo77/facturacion-backend/internal/models"
)

type InvoiceHandler struct {
	DB  *gorm.DB
	Svc *billing.InvoiceService
}

func NewInvoiceHandler(db *gorm.DB, svc *billing.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{DB: db, Svc: svc}
}

// Create: POST /facturas
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input billing.CreateInvoiceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	res, err := h.Svc.Create(input, userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"invoice":  res.Invoice,
		"warnings": res.Warnings,
	})
}

// List: GET /facturas – optional status filter and number/customer search.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	dbq := h.DB.Where("active = ?", true)
	if status := r.URL.Query().Get("status"); status != "" {
		dbq = dbq.Where("status = ?", status)
	}
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		like := "%" + strings.ToLower(safeLike(q)) + "%"
		dbq = dbq.Where("lower(number) LIKE ? OR lower(customer_name) LIKE ?", like, like)
	}
	var total int64
	dbq.Model(&models.Invoice{}).Count(&total)
	var invoices []models.Invoice
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&invoices).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_invoices", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": invoices, "total": total, "limit": limit, "offset": offset})
}

// Get: GET /facturas/{id} – full detail including lines.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var inv models.Invoice
	if err := h.DB.Preload("Lines").First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_invoice", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Void: PUT /facturas/{id}/anular
func (h *InvoiceHandler) Void(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	inv, err := h.Svc.Void(id, body.Reason, userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"id":     inv.ID,
		"number": inv.Number,
		"status": inv.Status,
		"total":  inv.Total,
		"notes":  inv.Notes,
	})
}

// PreviewTotals: POST /facturas/calcular-totales – no persistence.
func (h *InvoiceHandler) PreviewTotals(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Items []billing.LineInput `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, h.Svc.PreviewTotals(body.Items))
}

// AddItem: POST /facturas/{id}/items
func (h *InvoiceHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var item billing.LineInput
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	inv, err := h.Svc.AddLine(id, item, userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// UpdateItem: PUT /facturas/{id}/items/{itemId}
func (h *InvoiceHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemId")
	if !ok {
		return
	}
	var body struct {
		Quantity  int             `json:"quantity"`
		UnitPrice decimal.Decimal `json:"unit_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	inv, err := h.Svc.UpdateLine(id, itemID, body.Quantity, body.UnitPrice, userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// RemoveItem: DELETE /facturas/{id}/items/{itemId}
func (h *InvoiceHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemId")
	if !ok {
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	inv, err := h.Svc.RemoveLine(id, itemID, userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// writeServiceError maps the billing error taxonomy onto HTTP statuses:
// rejections are 400 with the message list, unknown ids are 404, state
// conflicts are 400 with a specific code, everything else is logged as an
// internal error without echoing detail to the client.
func (h *InvoiceHandler) writeServiceError(w http.ResponseWriter, err error) {
	var rej *billing.Rejection
	switch {
	case errors.As(err, &rej):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed",
			httpx.ValidationDetails{Errors: rej.Errors, Warnings: rej.Warnings})
	case errors.Is(err, billing.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, billing.ErrAlreadyVoided):
		httpx.JSONError(w, http.StatusBadRequest, "already_voided", nil)
	case errors.Is(err, billing.ErrInvoiceVoided):
		httpx.JSONError(w, http.StatusBadRequest, "invoice_voided",
			map[string]string{"reason": "cannot modify a voided invoice"})
	default:
		log.Error().Err(err).Msg("invoice operation failed")
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
