package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"fsanano/food-market/internal/auth"
	"fsanano/food-market/internal/cart"
	"fsanano/food-market/internal/config"
	"fsanano/food-market/internal/handler"
	"fsanano/food-market/internal/metrics"
	"fsanano/food-market/internal/notification"
	"fsanano/food-market/internal/repository"
	"fsanano/food-market/internal/service"
	"fsanano/food-market/internal/service/routing"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if cfg.Debug {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	}

	// 2. Setup Database
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := repository.Migrate(cfg.DatabaseURL); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.WithError(err).Fatal("failed to ping database")
	}
	log.Info("connected to database")

	// 3. Setup Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("failed to parse redis url")
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Fatal("failed to ping redis")
	}

	// 4. Setup Logic
	repo := repository.New(dbPool)
	broadcaster := notification.NewRedisBroadcaster(rdb)

	var mailer notification.Mailer = notification.NewLogMailer(log)
	if cfg.SMTP.Addr != "" {
		mailer = notification.NewSMTPMailer(cfg.SMTP.Addr, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	}
	dispatcher := notification.NewDispatcher(repo, broadcaster, mailer, cfg.AppURL, log)

	routes := routing.NewClient(routing.Config{
		APIURL:   cfg.Routing.APIURL,
		ClientID: cfg.Routing.ClientID,
		APIKey:   cfg.Routing.APIKey,
	})

	tokens := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL)

	limiter := handler.NewRateLimiter(cfg.LoginRate.PerSecond, cfg.LoginRate.Burst)
	limiter.StartCleanup(ctx, 10*time.Minute)

	h := handler.NewHandler(handler.Deps{
		Auth:          service.NewAuthService(repo, tokens),
		Catalog:       service.NewCatalogService(repo, cfg.NearbyRadiusKM),
		Orders:        service.NewOrderService(repo, dispatcher, routes),
		Reviews:       service.NewReviewService(repo),
		Chat:          service.NewChatService(repo),
		Locations:     service.NewLocationService(repo, dispatcher, cfg.NearbyRadiusKM, log),
		Notifications: service.NewNotificationService(repo),
		Admin:         service.NewAdminService(repo, dispatcher),
		Carts: service.NewCartService(func(userID int64) cart.Storage {
			return cart.NewRedisStorage(rdb, service.UserStoragePrefix(userID))
		}, repo),

		Resolver: auth.NewResolver(tokens, repo, log),
		Vendors:  repo,
		Stream:   broadcaster,
		Limiter:  limiter,
		Metrics:  metrics.New(),

		Log:   log,
		Debug: cfg.Debug,
	})

	// 5. Setup Server
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. Run Server with Graceful Shutdown
	go func() {
		log.WithField("port", cfg.ServerPort).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Info("shutting down server")

	// Create a deadline to wait for.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
		os.Exit(1)
	}

	// Pushes wait out their broadcast delay, so allow longer than that.
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelDrain()

	if err := dispatcher.Wait(drainCtx); err != nil {
		log.WithError(err).Warn("notifications dropped on shutdown")
	}

	log.Info("server exiting")
}
