package main

import (
	"net/http"

	"github.com/fairbill/contractor-invoices/auth"
	"github.com/fairbill/contractor-invoices/internal/handlers"
	"github.com/fairbill/contractor-invoices/internal/services"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux *http.ServeMux
	db  *gorm.DB
}

// NewApp creates the application with all routes configured.
func NewApp(db *gorm.DB, svc *services.InvoiceService) *App {
	app := &App{mux: http.NewServeMux(), db: db}

	ah := handlers.NewAuthHandler(db)
	ih := handlers.NewInvoiceHandler(db, svc)

	// Public routes
	app.mux.HandleFunc("POST /signup", ah.Signup)
	app.mux.HandleFunc("POST /login", ah.Login)
	app.mux.HandleFunc("POST /logout", ah.Logout)

	// Invoices
	app.mux.Handle("GET /invoices", requireAuth(http.HandlerFunc(ih.List)))
	app.mux.Handle("POST /invoices", requireAuth(http.HandlerFunc(ih.Create)))
	app.mux.Handle("GET /invoices/{id}", requireAuth(http.HandlerFunc(ih.Get)))
	app.mux.Handle("POST /invoices/{id}", requireAuth(http.HandlerFunc(ih.Update)))
	app.mux.Handle("POST /invoices/{id}/delete", requireAuth(http.HandlerFunc(ih.Delete)))

	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	auth.Middleware(a.mux).ServeHTTP(w, r)
}

func requireAuth(next http.Handler) http.Handler {
	return auth.RequireAuth(next)
}
