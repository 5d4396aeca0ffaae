package server

import (
	"context"
	"net/http"

	"gorm.io/gorm"

	"github.com/diewo77/facturacion-backend/internal/auth"
	"github.com/diewo77/facturacion-backend/internal/billing"
	"github.com/diewo77/facturacion-backend/internal/handlers"
	"github.com/diewo77/facturacion-backend/internal/httpx"
	"github.com/diewo77/facturacion-backend/internal/middleware"
	"github.com/diewo77/facturacion-backend/internal/models"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, params billing.Params) http.Handler {
	mux := http.NewServeMux()

	// Sessions must refer to an existing, still-active user.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ? AND active = ?", uid, true).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	protected := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(h))
	}

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth endpoints
	ah := handlers.NewAuthHandler(db)
	mux.HandleFunc("POST /auth/login", ah.Login)
	mux.HandleFunc("POST /auth/logout", ah.Logout)

	// Invoice endpoints – the core surface.
	invSvc := billing.NewInvoiceService(db, params)
	ih := handlers.NewInvoiceHandler(db, invSvc)
	mux.Handle("POST /facturas", protected(ih.Create))
	mux.Handle("GET /facturas", protected(ih.List))
	mux.Handle("POST /facturas/calcular-totales", protected(ih.PreviewTotals))
	mux.Handle("GET /facturas/{id}", protected(ih.Get))
	mux.Handle("PUT /facturas/{id}/anular", protected(ih.Void))
	mux.Handle("POST /facturas/{id}/items", protected(ih.AddItem))
	mux.Handle("PUT /facturas/{id}/items/{itemId}", protected(ih.UpdateItem))
	mux.Handle("DELETE /facturas/{id}/items/{itemId}", protected(ih.RemoveItem))

	// Catalog CRUD
	arth := handlers.NewArticleHandler(db)
	mux.Handle("GET /articulos", protected(arth.List))
	mux.Handle("POST /articulos", protected(arth.Create))
	mux.Handle("PUT /articulos/{id}", protected(arth.Update))
	mux.Handle("DELETE /articulos/{id}", protected(arth.Delete))

	ch := handlers.NewCustomerHandler(db)
	mux.Handle("GET /clientes", protected(ch.List))
	mux.Handle("POST /clientes", protected(ch.Create))
	mux.Handle("PUT /clientes/{id}", protected(ch.Update))
	mux.Handle("DELETE /clientes/{id}", protected(ch.Delete))

	cath := handlers.NewCategoryHandler(db)
	mux.Handle("GET /categorias", protected(cath.List))
	mux.Handle("POST /categorias", protected(cath.Create))

	// Reporting read models
	rh := handlers.NewReportHandler(db)
	mux.Handle("GET /reportes/ventas", protected(rh.Sales))
	mux.Handle("GET /reportes/mas-vendidos", protected(rh.BestSellers))
	mux.Handle("GET /reportes/stock-bajo", protected(rh.LowStock))

	return middleware.Recover(middleware.Logging(mux))
}
