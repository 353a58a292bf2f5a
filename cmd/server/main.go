package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/AiBunty/BoxCostPro-sub007/internal/billing"
	"github.com/AiBunty/BoxCostPro-sub007/internal/cache"
	"github.com/AiBunty/BoxCostPro-sub007/internal/config"
	"github.com/AiBunty/BoxCostPro-sub007/internal/events"
	"github.com/AiBunty/BoxCostPro-sub007/internal/handler"
	"github.com/AiBunty/BoxCostPro-sub007/internal/metrics"
	"github.com/AiBunty/BoxCostPro-sub007/internal/middleware"
	"github.com/AiBunty/BoxCostPro-sub007/internal/repository"

	_ "github.com/lib/pq"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database connection: %v", err)
	}
	defer db.Close()

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections / 2)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test database connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("✅ Connected to PostgreSQL")

	// Initialize repositories
	pricingRepo := repository.NewPricingRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	overrideRepo := repository.NewOverrideRepository(db)
	usageRepo := repository.NewUsageRepository(db)

	// Initialize snapshot cache
	snapshotCache := cache.NewSnapshotCache(cfg.SnapshotCacheTTL)
	log.Printf("✅ Initialized pricing snapshot cache (TTL: %s)", cfg.SnapshotCacheTTL)

	// Start background snapshot refresh
	refreshManager := cache.NewRefreshManager(snapshotCache, pricingRepo, cfg.SnapshotCacheTTL)
	go refreshManager.Start()
	defer refreshManager.Stop()

	// Initialize Redis decision cache (optional - graceful degradation)
	var decisionCache *cache.DecisionCache
	if cfg.RedisAddr != "" {
		decisionCache, err = cache.NewDecisionCache(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: 10,
		}, cfg.DecisionCacheTTL)
		if err != nil {
			log.Printf("⚠️  Warning: Failed to connect to Redis: %v", err)
			log.Println("⚠️  Entitlement decisions will be computed on every request")
			decisionCache = nil
		} else {
			log.Println("✅ Connected to Redis for decision caching")
			defer decisionCache.Close()
		}
	} else {
		log.Println("⚠️  REDIS_ADDR not set - decision caching disabled")
	}

	// Initialize Kafka event producer (optional - graceful degradation)
	var eventProducer *events.EventProducer
	eventCfg, err := events.LoadConfig()
	if err != nil {
		log.Printf("⚠️  Warning: Failed to load Kafka config: %v", err)
		log.Println("⚠️  Quote event tracking will be disabled")
	} else if eventCfg.Enabled {
		eventProducer, err = events.NewEventProducer(events.ProducerConfig{
			Brokers:       eventCfg.Brokers,
			Topic:         eventCfg.Topic,
			BatchSize:     eventCfg.BatchSize,
			FlushInterval: eventCfg.FlushInterval,
			BufferSize:    eventCfg.BufferSize,
		})
		if err != nil {
			log.Printf("⚠️  Warning: Failed to create Kafka producer: %v", err)
			log.Println("⚠️  Quote event tracking will be disabled")
		} else {
			log.Println("✅ Connected to Kafka for quote event tracking")
			defer eventProducer.Close()
		}
	} else {
		log.Println("ℹ️  Kafka disabled - quote event tracking disabled")
	}

	// Initialize Stripe billing provider (optional)
	stripeProvider := billing.NewStripeProvider(cfg.StripeAPIKey)
	if stripeProvider.Enabled() {
		log.Println("✅ Stripe billing refresh enabled")
	} else {
		log.Println("ℹ️  STRIPE_API_KEY not set - billing refresh disabled")
	}

	// Setup the entitlement lifecycle sweep
	c := cron.New()
	sweep := newLifecycleSweep(subscriptionRepo, stripeProvider, decisionCache)
	if _, err := c.AddFunc(cfg.SweepSchedule, sweep.run); err != nil {
		log.Fatalf("Failed to setup sweep cron job: %v", err)
	}
	c.Start()
	defer c.Stop()
	log.Printf("✅ Entitlement sweep scheduled: %s", cfg.SweepSchedule)

	// Initialize handlers
	healthHandler := handler.NewHealth(pricingRepo)
	quoteHandler := handler.NewQuoteHandler(snapshotCache, pricingRepo, quoteRecorder(eventProducer))
	entitlementHandler := handler.NewEntitlementHandler(subscriptionRepo, overrideRepo, usageRepo, decisionCache)
	adminHandler := handler.NewAdminHandler(pricingRepo, overrideRepo, snapshotCache, decisionCache)

	// Initialize middleware
	loggerMiddleware := middleware.NewLogger()
	recoveryMiddleware := middleware.NewRecovery()

	// Setup router
	router := mux.NewRouter()

	// Health and metrics endpoints (no tenant context required)
	router.HandleFunc("/health", healthHandler.ServeHTTP).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")
	router.HandleFunc("/health/live", healthHandler.Live).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// API routes (tenant-scoped)
	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.TenantContext)

	apiRouter.HandleFunc("/quotes/rate", quoteHandler.CalculateRate).Methods("POST")
	apiRouter.HandleFunc("/entitlements", entitlementHandler.GetEntitlements).Methods("GET")

	apiRouter.HandleFunc("/admin/pricing/bf-prices", adminHandler.UpsertBFPrice).Methods("PUT")
	apiRouter.HandleFunc("/admin/pricing/shade-premiums", adminHandler.UpsertShadePremium).Methods("PUT")
	apiRouter.HandleFunc("/admin/pricing/rules", adminHandler.UpdateRules).Methods("PUT")
	apiRouter.HandleFunc("/admin/overrides", adminHandler.CreateOverride).Methods("POST")
	apiRouter.HandleFunc("/admin/overrides/{id}", adminHandler.RevokeOverride).Methods("DELETE")

	// Apply global middleware (order matters: recovery -> logging -> routes)
	rootHandler := recoveryMiddleware.Middleware(
		loggerMiddleware.Middleware(router),
	)

	// Create HTTP server
	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("🚀 Pricing engine starting on http://localhost%s", addr)
		log.Printf("📊 Health check available at http://localhost%s/health", addr)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

// quoteRecorder adapts an optional producer to the handler interface. A
// typed nil *EventProducer must become a nil interface so the handler's
// nil check works.
func quoteRecorder(producer *events.EventProducer) handler.QuoteRecorder {
	if producer == nil {
		return nil
	}
	return producer
}

// lifecycleSweep invalidates cached entitlement decisions for users whose
// trial or billing period ended since the last run, so a decision never
// outlives its subscription boundary by more than one cache TTL plus one
// sweep interval. When Stripe is configured it also re-fetches the
// subscription so the stored row reflects the post-boundary state.
type lifecycleSweep struct {
	subscriptions *repository.SubscriptionRepository
	stripe        *billing.StripeProvider
	decisions     *cache.DecisionCache

	mu      sync.Mutex
	lastRun time.Time
}

func newLifecycleSweep(
	subscriptions *repository.SubscriptionRepository,
	stripe *billing.StripeProvider,
	decisions *cache.DecisionCache,
) *lifecycleSweep {
	return &lifecycleSweep{
		subscriptions: subscriptions,
		stripe:        stripe,
		decisions:     decisions,
		lastRun:       time.Now().UTC(),
	}
}

func (s *lifecycleSweep) run() {
	s.mu.Lock()
	from := s.lastRun
	now := time.Now().UTC()
	s.lastRun = now
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userIDs, err := s.subscriptions.ListUsersWithBoundaryBetween(ctx, from, now)
	if err != nil {
		log.Printf("❌ Entitlement sweep failed: %v", err)
		return
	}
	if len(userIDs) == 0 {
		return
	}

	for _, userID := range userIDs {
		s.refreshFromBilling(ctx, userID)
	}

	if s.decisions != nil {
		if err := s.decisions.Invalidate(ctx, userIDs...); err != nil {
			log.Printf("⚠️  Sweep failed to invalidate decisions: %v", err)
			return
		}
	}

	metrics.RecordSweepInvalidations(len(userIDs))
	log.Printf("⏰ Entitlement sweep invalidated %d decisions (window %s → %s)",
		len(userIDs), from.Format(time.RFC3339), now.Format(time.RFC3339))
}

// refreshFromBilling pulls the user's current subscription state from
// Stripe and replaces the stored snapshot. Failures are logged and skipped;
// the stale row still resolves fail-closed once the boundary has passed.
func (s *lifecycleSweep) refreshFromBilling(ctx context.Context, userID string) {
	if !s.stripe.Enabled() {
		return
	}

	stripeSubID, err := s.subscriptions.GetStripeSubscriptionID(ctx, userID)
	if err != nil {
		log.Printf("⚠️  Sweep: failed to look up billing link for user %s: %v", userID, err)
		return
	}
	if stripeSubID == "" {
		return
	}

	sub, err := s.stripe.GetSubscription(ctx, stripeSubID)
	if err != nil {
		log.Printf("⚠️  Sweep: failed to fetch subscription %s: %v", stripeSubID, err)
		return
	}

	if err := s.subscriptions.RefreshFromBilling(ctx, userID, *sub); err != nil {
		log.Printf("⚠️  Sweep: failed to store refreshed subscription for user %s: %v", userID, err)
	}
}
