package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	cartapp "github.com/shopfront/cartengine/internal/application/cart"
	"github.com/shopfront/cartengine/internal/infrastructure/config"
	"github.com/shopfront/cartengine/internal/infrastructure/logger"
	"github.com/shopfront/cartengine/internal/infrastructure/persistence"
	"github.com/shopfront/cartengine/internal/infrastructure/session"
	"github.com/shopfront/cartengine/internal/infrastructure/syncapi"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting cart engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("snapshot_backend", cfg.Snapshot.Backend),
	)

	snapshots, err := newSnapshotStore(cfg)
	if err != nil {
		log.Fatal("Failed to initialize snapshot store", zap.Error(err))
	}

	sessions, err := newSessionProvider(cfg)
	if err != nil {
		log.Fatal("Failed to initialize session provider", zap.Error(err))
	}

	syncClient, err := syncapi.NewClient(&syncapi.Config{
		BaseURL:        cfg.Server.BaseURL,
		TimeoutSeconds: int(cfg.Sync.RequestTimeout / time.Second),
	})
	if err != nil {
		log.Fatal("Failed to initialize sync client", zap.Error(err))
	}

	store := cartapp.NewStore(snapshots, log)
	coordinator, err := cartapp.NewSyncCoordinator(cartapp.SyncCoordinatorConfig{
		DebounceWindow:  cfg.Sync.DebounceWindow,
		MinSyncInterval: cfg.Sync.MinSyncInterval,
	}, store, syncClient, sessions, log)
	if err != nil {
		log.Fatal("Failed to initialize sync coordinator", zap.Error(err))
	}

	ctx := context.Background()
	if err := store.Hydrate(ctx); err != nil {
		// A corrupt snapshot is recoverable; the cart starts empty.
		log.Warn("Snapshot rehydration failed, starting empty", zap.Error(err))
	}
	if store.CheckCartHealth(ctx) {
		log.Info("Stored cart quantities were corrected on startup")
	}

	if err := coordinator.SyncNow(ctx); err != nil {
		log.Warn("Initial cart sync failed, keeping local cart", zap.Error(err))
	}

	totals := store.Totals()
	log.Info("Cart ready",
		zap.Int("items", totals.ItemCount),
		zap.String("subtotal", totals.Subtotal.StringFixed(2)),
		zap.Time("last_sync_at", store.LastSyncAt()),
	)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down cart engine")
	coordinator.CancelScheduledSync()

	// Flush local state so the next start rehydrates the same cart.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := coordinator.PushToServer(shutdownCtx); err != nil {
		log.Warn("Final cart push failed", zap.Error(err))
	}

	log.Info("Cart engine stopped")
}

// newSnapshotStore builds the durable snapshot backend selected in config.
func newSnapshotStore(cfg *config.Config) (cartapp.SnapshotStore, error) {
	switch cfg.Snapshot.Backend {
	case "memory":
		return persistence.NewMemorySnapshotStore(), nil
	case "file":
		return persistence.NewFileSnapshotStore(cfg.Snapshot.FilePath)
	case "sqlite":
		return persistence.NewSQLiteSnapshotStore(cfg.Snapshot.DBPath, cfg.Snapshot.StoreKey)
	case "redis":
		return persistence.NewRedisSnapshotStore(persistence.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Snapshot.StoreKey)
	default:
		// config validation rejects unknown backends before we get here
		return persistence.NewMemorySnapshotStore(), nil
	}
}

// newSessionProvider prefers token-based sessions when a secret is
// configured, falling back to an anonymous static session.
func newSessionProvider(cfg *config.Config) (cartapp.SessionProvider, error) {
	if cfg.Session.JWTSecret == "" {
		return &session.StaticProvider{}, nil
	}
	provider, err := session.NewJWTProvider(cfg.Session.JWTSecret, cfg.Session.Issuer)
	if err != nil {
		return nil, err
	}
	if token := os.Getenv("CART_SESSION_TOKEN"); token != "" {
		provider.SetToken(token)
	}
	return provider, nil
}
