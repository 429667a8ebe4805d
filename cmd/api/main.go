package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pantryhub-api/internal/cache"
	"pantryhub-api/internal/config"
	"pantryhub-api/internal/handler"
	"pantryhub-api/internal/repository"
	"pantryhub-api/internal/router"
	"pantryhub-api/internal/service"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting PantryHub API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize store based on config
	var store repository.Store
	switch cfg.Store.Type {
	case "postgres", "postgresql":
		pgStore, err := repository.NewPostgresStore(cfg.Store.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		store = pgStore
		log.Println("PostgreSQL store initialized")
	case "mysql":
		myStore, err := repository.NewMySQLStore(cfg.Store.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to initialize MySQL: %v", err)
		}
		store = myStore
		log.Println("MySQL store initialized")
	case "memory":
		store = repository.NewMemoryStore()
		log.Println("In-memory store initialized (data is not persisted)")
	default: // sqlite
		sqliteStore, err := repository.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		store = sqliteStore
		log.Println("SQLite store initialized")
	}
	defer store.Close()

	// Initialize cache
	var itemCache cache.Cache
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(cache.RedisCacheConfig{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Printf("Warning: Redis connection failed, continuing without cache: %v", err)
		} else {
			itemCache = redisCache
			defer redisCache.Close()
		}
	case "none":
		log.Println("Item cache disabled")
	default: // memory
		memCache := cache.NewMemoryCache()
		itemCache = memCache
		defer memCache.Close()
		log.Println("Memory cache initialized")
	}

	// Initialize services
	eligibility := service.NewEligibility(store)
	checkoutService := service.NewCheckoutService(store, eligibility)
	inventoryService := service.NewInventoryService(store, itemCache, cfg.Cache.TTL)

	// Start stale-order sweeper
	var sweeper *service.OrderSweeper
	if cfg.Sweeper.Enabled {
		sweeper = service.NewOrderSweeper(store, checkoutService, service.SweeperConfig{
			MaxPendingAge: cfg.Sweeper.MaxPendingAge,
			Interval:      cfg.Sweeper.Interval,
		})
		sweeper.Start()
	}

	// Initialize handlers
	healthHandler := handler.New()
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, eligibility)
	orderHandler := handler.NewOrderHandler(checkoutService, store)
	transactionHandler := handler.NewTransactionHandler(store)
	adminHandler := handler.NewAdminHandler(checkoutService, inventoryService)

	// Create router
	r := router.New(router.Config{
		Handler:            healthHandler,
		InventoryHandler:   inventoryHandler,
		CheckoutHandler:    checkoutHandler,
		OrderHandler:       orderHandler,
		TransactionHandler: transactionHandler,
		AdminHandler:       adminHandler,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if sweeper != nil {
		sweeper.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
