package router

import (
	"pantryhub-api/internal/handler"
	"pantryhub-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler            *handler.Handler
	InventoryHandler   *handler.InventoryHandler
	CheckoutHandler    *handler.CheckoutHandler
	OrderHandler       *handler.OrderHandler
	TransactionHandler *handler.TransactionHandler
	AdminHandler       *handler.AdminHandler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Actor-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		if cfg.InventoryHandler != nil {
			r.Route("/items", func(r chi.Router) {
				r.Get("/", cfg.InventoryHandler.ListItems)
				r.Post("/", cfg.InventoryHandler.CreateItem)
				r.Route("/{item_id}", func(r chi.Router) {
					r.Get("/", cfg.InventoryHandler.GetItem)
					r.Put("/", cfg.InventoryHandler.UpdateItem)
					r.Delete("/", cfg.InventoryHandler.DeleteItem)
					r.Post("/restock", cfg.InventoryHandler.Restock)
				})
			})
		}

		if cfg.CheckoutHandler != nil {
			r.Get("/eligibility/{student_id}/{item_id}", cfg.CheckoutHandler.CanTake)
			r.Post("/checkout", cfg.CheckoutHandler.Checkout)
		}

		if cfg.OrderHandler != nil {
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", cfg.OrderHandler.ListOrders)
				r.Post("/", cfg.OrderHandler.PlaceOrder)
				r.Route("/{order_id}", func(r chi.Router) {
					r.Get("/", cfg.OrderHandler.GetOrder)
					r.Post("/fulfill", cfg.OrderHandler.FulfillOrder)
					r.Post("/cancel", cfg.OrderHandler.CancelOrder)
				})
			})
		}

		if cfg.TransactionHandler != nil {
			r.Get("/transactions", cfg.TransactionHandler.ListTransactions)
			r.Get("/checkouts/{student_id}", cfg.TransactionHandler.StudentCheckouts)
		}

		if cfg.AdminHandler != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Post("/checkout", cfg.AdminHandler.DirectCheckout)
				r.Get("/stats", cfg.AdminHandler.GetStats)
			})
		}
	})

	return r
}
