package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/printhaus/printhaus-backend/api/controllers"
	"github.com/printhaus/printhaus-backend/api/routes"
	"github.com/printhaus/printhaus-backend/internal/catalog"
	"github.com/printhaus/printhaus-backend/internal/designs"
	"github.com/printhaus/printhaus-backend/internal/notifications"
	"github.com/printhaus/printhaus-backend/internal/publication"
	"github.com/printhaus/printhaus-backend/internal/users"
	"github.com/printhaus/printhaus-backend/internal/vendorproducts"
	"github.com/printhaus/printhaus-backend/pkg/config"
	"github.com/printhaus/printhaus-backend/pkg/db"
	"github.com/printhaus/printhaus-backend/pkg/env"
	"github.com/printhaus/printhaus-backend/pkg/logger"
	"github.com/printhaus/printhaus-backend/pkg/metrics"
	"github.com/printhaus/printhaus-backend/pkg/migrate"
	"github.com/printhaus/printhaus-backend/pkg/outbox"
	"github.com/printhaus/printhaus-backend/pkg/pubsub"
	"github.com/printhaus/printhaus-backend/pkg/redis"
	"github.com/printhaus/printhaus-backend/pkg/storage/gcs"

	"github.com/prometheus/client_golang/prometheus"
)

const shutdownGrace = 15 * time.Second

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

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	eventService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	validationMetrics := metrics.NewValidationMetrics(prometheus.DefaultRegisterer)

	designRepo := designs.NewRepository(dbClient.DB())
	productRepo := vendorproducts.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	notificationRepo := notifications.NewRepository(dbClient.DB())

	usersService, err := users.NewService(users.ServiceParams{
		Repo:           users.NewRepository(dbClient.DB()),
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	designService, err := designs.NewService(designs.ServiceParams{
		Repo:        designRepo,
		Tx:          dbClient,
		Store:       gcsClient,
		Events:      eventService,
		Logger:      logg,
		Bucket:      cfg.GCS.BucketName,
		MaxUploadMB: cfg.Uploads.MaxUploadMB,
		MinWidthPx:  cfg.Uploads.ImageMinWidth,
		MinHeightPx: cfg.Uploads.ImageMinHeight,
		SweepMinAge: cfg.Validation.SweepMinAge,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create designs service", err)
		os.Exit(1)
	}

	productService, err := vendorproducts.NewService(vendorproducts.ServiceParams{
		Repo:    productRepo,
		Designs: designRepo,
		Catalog: catalogRepo,
		Tx:      dbClient,
		Events:  eventService,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create vendor products service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notificationRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	notifier, err := notifications.NewOutboxNotifier(dbClient, eventService)
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox notifier", err)
		os.Exit(1)
	}

	coordinator, err := publication.NewCoordinator(publication.CoordinatorParams{
		Designs:  designRepo,
		Products: productRepo,
		Tx:       dbClient,
		Locker:   redisClient,
		Events:   eventService,
		Notifier: notifier,
		Metrics:  validationMetrics,
		Logger:   logg,
		LockTTL:  cfg.Validation.DecisionLockTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create publication coordinator", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.RouterParams{
		Config: cfg,
		Logger: logg,
		HealthPingers: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
			"gcs":      gcsClient,
			"pubsub":   pubsubClient,
		},
		Users:         usersService,
		Designs:       designService,
		Products:      productService,
		Catalog:       catalogService,
		Notifications: notificationService,
		Coordinator:   coordinator,
	})

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server stopped")
}
