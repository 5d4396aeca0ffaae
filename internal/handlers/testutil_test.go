package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/facturacion-backend/internal/auth"
	"github.com/diewo77/facturacion-backend/internal/billing"
	"github.com/diewo77/facturacion-backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}, &models.Category{}, &models.Article{},
		&models.Customer{}, &models.Invoice{}, &models.InvoiceLine{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

// newTestMux registers the invoice and catalog routes the way the real router
// does, but with a fixed authenticated user instead of the session middleware.
func newTestMux(t *testing.T, conn *gorm.DB) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	authed := func(h http.HandlerFunc) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h(w, r.WithContext(auth.WithUserID(r.Context(), 1)))
		})
	}

	svc := billing.NewInvoiceService(conn, billing.DefaultParams())
	ih := NewInvoiceHandler(conn, svc)
	mux.Handle("POST /facturas", authed(ih.Create))
	mux.Handle("GET /facturas", authed(ih.List))
	mux.Handle("POST /facturas/calcular-totales", authed(ih.PreviewTotals))
	mux.Handle("GET /facturas/{id}", authed(ih.Get))
	mux.Handle("PUT /facturas/{id}/anular", authed(ih.Void))
	mux.Handle("POST /facturas/{id}/items", authed(ih.AddItem))
	mux.Handle("PUT /facturas/{id}/items/{itemId}", authed(ih.UpdateItem))
	mux.Handle("DELETE /facturas/{id}/items/{itemId}", authed(ih.RemoveItem))

	arth := NewArticleHandler(conn)
	mux.Handle("GET /articulos", authed(arth.List))
	mux.Handle("POST /articulos", authed(arth.Create))
	mux.Handle("PUT /articulos/{id}", authed(arth.Update))
	mux.Handle("DELETE /articulos/{id}", authed(arth.Delete))

	ch := NewCustomerHandler(conn)
	mux.Handle("GET /clientes", authed(ch.List))
	mux.Handle("POST /clientes", authed(ch.Create))
	mux.Handle("PUT /clientes/{id}", authed(ch.Update))
	mux.Handle("DELETE /clientes/{id}", authed(ch.Delete))

	rh := NewReportHandler(conn)
	mux.Handle("GET /reportes/ventas", authed(rh.Sales))
	mux.Handle("GET /reportes/mas-vendidos", authed(rh.BestSellers))
	mux.Handle("GET /reportes/stock-bajo", authed(rh.LowStock))

	return mux
}

// doJSON performs a request with an optional JSON body and decodes the JSON
// response into out (skipped when out is nil).
func doJSON(t *testing.T, h http.Handler, method, target string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec
}

func seedTestCustomer(t *testing.T, conn *gorm.DB) models.Customer {
	t.Helper()
	c := models.Customer{
		Document: "900123456",
		Name:     "Comercial Andina",
		Address:  "Cra 7 # 12-34",
		Phone:    "3001234567",
		Active:   true,
	}
	if err := conn.Create(&c).Error; err != nil {
		t.Fatalf("customer: %v", err)
	}
	return c
}

func seedTestArticle(t *testing.T, conn *gorm.DB, code, price string, stock int) models.Article {
	t.Helper()
	a := models.Article{
		Code:      code,
		Name:      "Article " + code,
		UnitPrice: decimal.RequireFromString(price),
		Stock:     stock,
		MinStock:  2,
		Active:    true,
	}
	if err := conn.Create(&a).Error; err != nil {
		t.Fatalf("article %s: %v", code, err)
	}
	return a
}
