package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	checkoutapp "github.com/KazuakiWatanabe/scancheckout-oss/internal/application/checkout"
	"github.com/KazuakiWatanabe/scancheckout-oss/internal/domain/checkout"
	"github.com/KazuakiWatanabe/scancheckout-oss/internal/infrastructure/cache"
	"github.com/KazuakiWatanabe/scancheckout-oss/internal/infrastructure/config"
	"github.com/KazuakiWatanabe/scancheckout-oss/internal/infrastructure/logger"
	"github.com/KazuakiWatanabe/scancheckout-oss/internal/infrastructure/odoo"
	"github.com/KazuakiWatanabe/scancheckout-oss/internal/infrastructure/telemetry"
	"github.com/KazuakiWatanabe/scancheckout-oss/internal/interfaces/http/handler"
	"github.com/KazuakiWatanabe/scancheckout-oss/internal/interfaces/http/middleware"
	"github.com/KazuakiWatanabe/scancheckout-oss/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting scancheckout bridge",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Remote side: session + gateway, resolver, orchestrator. The client
	// caches a mutable session identity; the orchestrator serializes all
	// access to it.
	odooCfg := odoo.NewConfig(cfg.Odoo.BaseURL, cfg.Odoo.Database, cfg.Odoo.Username, cfg.Odoo.Password)
	odooCfg.TimeoutSeconds = cfg.Odoo.TimeoutSeconds
	odooCfg.SKUField = cfg.Odoo.SKUField
	odooCfg.DefaultPartnerID = cfg.Odoo.DefaultPartnerID
	var pricelistID *int64
	if cfg.Odoo.DefaultPricelistID > 0 {
		id := cfg.Odoo.DefaultPricelistID
		pricelistID = &id
	}

	odooClient, err := odoo.NewClient(odooCfg)
	if err != nil {
		log.Fatal("Failed to create Odoo client", zap.Error(err))
	}
	resolver := odoo.NewResolver(odooClient)
	orchestrator := odoo.NewOrchestrator(odooClient, resolver)

	checkoutService := checkoutapp.NewService(orchestrator, checkoutapp.Config{
		DefaultPartnerID:   cfg.Odoo.DefaultPartnerID,
		DefaultPricelistID: pricelistID,
		IdempotencyTTL:     cfg.Checkout.IdempotencyTTL,
	}, log.Named("checkout"))

	if cfg.Checkout.IdempotencyEnabled {
		store := newIdempotencyStore(cfg, log)
		defer func() {
			if err := store.Close(); err != nil {
				log.Error("Error closing idempotency store", zap.Error(err))
			}
		}()
		checkoutService.SetIdempotencyStore(store)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.CORS(middleware.CORSConfig{AllowOrigins: cfg.HTTP.CORSAllowOrigins}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))

	router.NewRouter(engine).
		Register(handler.NewCheckoutHandler(checkoutService)).
		Register(handler.NewSystemHandler(cfg.App.Name, version)).
		Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}

// newIdempotencyStore picks the Redis store when configured for shared
// deployments and falls back to the in-memory store otherwise.
func newIdempotencyStore(cfg *config.Config, log *zap.Logger) checkout.IdempotencyStore {
	if cfg.Checkout.UseRedisStore {
		store, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect Redis idempotency store", zap.Error(err))
		}
		log.Info("Using Redis idempotency store",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
		return store
	}
	log.Info("Using in-memory idempotency store")
	return cache.NewInMemoryIdempotencyStore()
}
