package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/servicehubhq/cart-service/internal/api/handlers"
	"github.com/servicehubhq/cart-service/internal/api/middleware"
	"github.com/servicehubhq/cart-service/internal/cart"
	"github.com/servicehubhq/cart-service/internal/config"
	"github.com/servicehubhq/cart-service/internal/events"
	"github.com/servicehubhq/cart-service/internal/gateway"
	"github.com/servicehubhq/cart-service/internal/health"
	"github.com/servicehubhq/cart-service/internal/metrics"
	"github.com/servicehubhq/cart-service/internal/poller"
	service "github.com/servicehubhq/cart-service/internal/services"
	"github.com/servicehubhq/cart-service/internal/store"
	"github.com/servicehubhq/cart-service/internal/telemetry"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	// Tracing setup
	shutdownTracing, err := telemetry.Setup(context.Background(), cfg.Telemetry)
	if err != nil {
		slog.Error("❌ Error initializing telemetry", "error", err.Error())
		os.Exit(1)
	}

	// Snapshot store setup
	localStore, counter, closeStore, err := buildLocalStore(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the snapshot store", "error", err.Error())
		os.Exit(1)
	}

	defer func() {
		if err := closeStore(); err != nil {
			slog.Error("⚠️ Error closing snapshot store", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Snapshot store closed")
		}
	}()

	syncGateway := gateway.NewClient(cfg.SyncGateway)
	notifier := events.NewNotifier()
	cartStore := cart.NewStore(localStore, syncGateway, notifier, cfg.Cart.SyncTimeout)
	cartService := service.NewCartService(cartStore)
	cartHandler := handlers.NewCartHandler(cartService)
	pricingHandler := handlers.NewPricingHandler(cartService)
	authMiddleware := middleware.NewAuthMiddleware([]byte(cfg.Security.JWTKey))

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("❌ Error initializing health checks", "error", err.Error())
		os.Exit(1)
	}

	slog.Info("storage initialized",
		slog.String("env", cfg.Env),
		slog.String("backend", cfg.Cart.Backend),
		slog.String("version", "1.0.0"))

	// Snapshot gauge poller
	statsPoller := poller.New("snapshot-stats", cfg.Poller.StatsInterval, func(ctx context.Context) error {
		count, err := counter.ActiveSnapshots(ctx)
		if err != nil {
			return err
		}
		metrics.SetActiveSnapshots(count)
		return nil
	})

	pollerCtx, cancelPoller := context.WithCancel(context.Background())
	defer cancelPoller()
	statsPoller.Start(pollerCtx)

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("GET /api/v1/cart", authMiddleware.Authenticate(cartHandler.GetCart()))
	routerMux.HandleFunc("DELETE /api/v1/cart", authMiddleware.Authenticate(cartHandler.ClearCart()))
	routerMux.HandleFunc("POST /api/v1/cart/items", authMiddleware.Authenticate(cartHandler.AddItem()))
	routerMux.HandleFunc("PATCH /api/v1/cart/items", authMiddleware.Authenticate(cartHandler.UpdateQuantity()))
	routerMux.HandleFunc("DELETE /api/v1/cart/items", authMiddleware.Authenticate(cartHandler.RemoveItem()))
	routerMux.HandleFunc("POST /api/v1/pricing/quote", pricingHandler.Quote())
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthHandler.Handler())

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)

	// Setup http server
	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	statsPoller.Stop()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("⚠️ Tracing shutdown encountered an issue", slog.String("error", err.Error()))
	}
}

// buildLocalStore picks the snapshot backend from config. Both backends
// satisfy store.SnapshotCounter, which feeds the active-snapshots gauge.
func buildLocalStore(cfg *config.Config) (store.LocalStore, store.SnapshotCounter, func() error, error) {

	switch cfg.Cart.Backend {
	case "postgres":
		db, err := store.OpenPostgres(cfg)
		if err != nil {
			return nil, nil, nil, err
		}

		s := store.NewPostgresStore(db)

		return s, s.(store.SnapshotCounter), db.Close, nil
	default:
		client, err := store.NewRedisClient(cfg)
		if err != nil {
			return nil, nil, nil, err
		}

		s := store.NewRedisStore(client, cfg.Cart.SnapshotTTL)

		return s, s.(store.SnapshotCounter), client.Close, nil
	}
}
