package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesaviva/mesaviva-backend/api/controllers"
	"github.com/mesaviva/mesaviva-backend/api/routes"
	"github.com/mesaviva/mesaviva-backend/internal/cart"
	"github.com/mesaviva/mesaviva-backend/internal/checkout"
	"github.com/mesaviva/mesaviva-backend/internal/cron"
	"github.com/mesaviva/mesaviva-backend/internal/menu"
	"github.com/mesaviva/mesaviva-backend/internal/orders"
	"github.com/mesaviva/mesaviva-backend/internal/payments"
	"github.com/mesaviva/mesaviva-backend/internal/pricing"
	"github.com/mesaviva/mesaviva-backend/internal/tracking"
	"github.com/mesaviva/mesaviva-backend/internal/ws"
	"github.com/mesaviva/mesaviva-backend/pkg/config"
	"github.com/mesaviva/mesaviva-backend/pkg/db"
	"github.com/mesaviva/mesaviva-backend/pkg/geo"
	"github.com/mesaviva/mesaviva-backend/pkg/logger"
	"github.com/mesaviva/mesaviva-backend/pkg/maps"
	"github.com/mesaviva/mesaviva-backend/pkg/metrics"
	"github.com/mesaviva/mesaviva-backend/pkg/migrate"
	"github.com/mesaviva/mesaviva-backend/pkg/redis"
	"github.com/mesaviva/mesaviva-backend/pkg/session"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(cfg.Session)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	distancer := buildDistancer(cfg, logg)

	hub := ws.NewHub()
	go hub.Run()

	trackingMetrics := metrics.NewTrackingMetrics(prometheus.DefaultRegisterer)
	trackingManager := tracking.NewManager(
		distancer,
		tracking.SettingsFromConfig(cfg.Tracking),
		hub,
		trackingMetrics,
		logg,
	)

	menuService, err := menu.NewService(menu.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create menu service", err)
		os.Exit(1)
	}

	limits := cart.Limits{
		MaxQtyRegular: cfg.Cart.MaxQtyRegular,
		MaxQtyPremium: cfg.Cart.MaxQtyPremium,
	}
	carts, err := cart.NewSessionStore(redisClient, limits, cfg.Session.CartTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}

	schedule, err := pricing.ScheduleFromConfig(cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "invalid pricing config", err)
		os.Exit(1)
	}
	engine, err := pricing.NewEngine(schedule)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing engine", err)
		os.Exit(1)
	}

	cashProvider, err := payments.NewCashProvider(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment provider", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, dbClient, cashProvider, logg, trackingManager)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(carts, menuService, engine, ordersRepo, ordersService, cashProvider, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the stale-tracking sweep must run next to the in-memory trackers, so
	// the cron loop lives inside the api process
	go runCron(ctx, cfg, logg, redisClient, ordersRepo, ordersService, trackingManager)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			Redis:    redisClient,
			Sessions: sessionManager,
			Pingers: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			Menu:     menuService,
			Carts:    carts,
			Pricing:  engine,
			Checkout: checkoutService,
			Orders:   ordersService,
			Tracking: trackingManager,
			Hub:      hub,
		}),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown failed", err)
		}
	}()

	startCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})
	logg.Info(startCtx, "starting api server")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(startCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(startCtx, "api server shut down gracefully")
}

func buildDistancer(cfg *config.Config, logg *logger.Logger) geo.Distancer {
	if cfg.GoogleMaps.APIKey == "" {
		logg.Warn(context.Background(), "no maps api key configured, using haversine distances")
		return geo.HaversineDistancer()
	}
	client, err := maps.NewClient(cfg.GoogleMaps.APIKey)
	if err != nil {
		logg.Error(context.Background(), "failed to create maps client, using haversine distances", err)
		return geo.HaversineDistancer()
	}
	return maps.WithFallback(client, geo.HaversineDistancer())
}

func runCron(
	ctx context.Context,
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	ordersRepo orders.Repository,
	ordersService orders.Service,
	trackingManager *tracking.Manager,
) {
	lock, err := cron.NewRedisLock(redisClient, cronLockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(ctx, "failed to create cron lock", err)
		return
	}

	draftExpiry, err := cron.NewDraftExpiryJob(cron.DraftExpiryJobParams{
		Logger:   logg,
		Drafts:   ordersRepo,
		Orders:   ordersService,
		DraftTTL: cfg.Cron.DraftTTL,
	})
	if err != nil {
		logg.Error(ctx, "failed to create draft expiry job", err)
		return
	}

	staleTracking, err := cron.NewStaleTrackingJob(cron.StaleTrackingJobParams{
		Logger:  logg,
		Tracker: trackingManager,
	})
	if err != nil {
		logg.Error(ctx, "failed to create stale tracking job", err)
		return
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(draftExpiry, staleTracking),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cron service", err)
		return
	}

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron loop stopped unexpectedly", err)
	}
}

func cronLockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("mv:cron:lock:%s", env)
}
