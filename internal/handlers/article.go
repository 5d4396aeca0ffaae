package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diewo77/facturacion-backend/internal/httpx"
	"github.com/diewo77/facturacion-backend/internal/models"
	"github.com/diewo77/facturacion-backend/internal/validation"
)

// ArticleHandler is thin CRUD over the article catalog. It never writes the
// stock column: initial stock is set at creation, afterwards only the stock
// ledger may change it.
type ArticleHandler struct {
	DB *gorm.DB
}

func NewArticleHandler(db *gorm.DB) *ArticleHandler { return &ArticleHandler{DB: db} }

// List: GET /articulos
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
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
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		like := "%" + strings.ToLower(safeLike(q)) + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR lower(code) LIKE ?", like, like)
	}
	var total int64
	dbq.Model(&models.Article{}).Count(&total)
	var articles []models.Article
	if err := dbq.Preload("Category").Order("id desc").Limit(limit).Offset(offset).Find(&articles).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_articles", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": articles, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /articulos
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Code        string          `json:"code"`
		Name        string          `json:"name"`
		Description string          `json:"description"`
		UnitPrice   decimal.Decimal `json:"unit_price"`
		Stock       int             `json:"stock"`
		MinStock    int             `json:"min_stock"`
		CategoryID  *uint           `json:"category_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("code", input.Code, v)
	validation.Required("name", input.Name, v)
	validation.MaxLen("code", input.Code, 40, v)
	validation.PositiveDecimal("unit_price", input.UnitPrice, v)
	validation.NonNegativeInt("stock", input.Stock, v)
	validation.NonNegativeInt("min_stock", input.MinStock, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if input.CategoryID != nil {
		var count int64
		if err := h.DB.Model(&models.Category{}).Where("id = ? AND active = ?", *input.CategoryID, true).Count(&count).Error; err != nil || count == 0 {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"category_id": "unknown"})
			return
		}
	}
	art := models.Article{
		Code:        strings.TrimSpace(input.Code),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		UnitPrice:   input.UnitPrice,
		Stock:       input.Stock,
		MinStock:    input.MinStock,
		CategoryID:  input.CategoryID,
		Active:      true,
	}
	if err := h.DB.Create(&art).Error; err != nil {
		if isUniqueViolation(err) {
			httpx.JSONError(w, http.StatusConflict, "code_already_exists", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_article", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, art)
}

// Update: PUT /articulos/{id} – code and stock are immutable here.
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var input struct {
		Name        *string          `json:"name"`
		Description *string          `json:"description"`
		UnitPrice   *decimal.Decimal `json:"unit_price"`
		MinStock    *int             `json:"min_stock"`
		CategoryID  *uint            `json:"category_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	var art models.Article
	if err := h.DB.First(&art, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_article", nil)
		return
	}
	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"name": "required"})
			return
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.UnitPrice != nil {
		if !input.UnitPrice.IsPositive() {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"unit_price": "must_be_positive"})
			return
		}
		updates["unit_price"] = *input.UnitPrice
	}
	if input.MinStock != nil {
		if *input.MinStock < 0 {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"min_stock": "must_not_be_negative"})
			return
		}
		updates["min_stock"] = *input.MinStock
	}
	if input.CategoryID != nil {
		updates["category_id"] = *input.CategoryID
	}
	if len(updates) == 0 {
		httpx.JSON(w, http.StatusOK, art)
		return
	}
	if err := h.DB.Model(&art).Updates(updates).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_article", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, art)
}

// Delete: DELETE /articulos/{id} – soft delete; history referencing the
// article keeps its snapshots.
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res := h.DB.Model(&models.Article{}).Where("id = ? AND active = ?", id, true).Update("active", false)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_article", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
