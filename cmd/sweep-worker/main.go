package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/printhaus/printhaus-backend/internal/designs"
	"github.com/printhaus/printhaus-backend/pkg/config"
	"github.com/printhaus/printhaus-backend/pkg/db"
	"github.com/printhaus/printhaus-backend/pkg/logger"
	"github.com/printhaus/printhaus-backend/pkg/metrics"
	"github.com/printhaus/printhaus-backend/pkg/migrate"
	"github.com/printhaus/printhaus-backend/pkg/outbox"
	"github.com/printhaus/printhaus-backend/pkg/redis"
	"github.com/printhaus/printhaus-backend/pkg/storage/gcs"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "sweep-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "sweep-worker"

	logg = logger.New(logger.Options{
		ServiceName: "sweep-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		requireResource(ctx, logg, "dev migrations", err)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	requireResource(ctx, logg, "gcs", err)
	defer gcsClient.Close()

	eventService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	designService, err := designs.NewService(designs.ServiceParams{
		Repo:        designs.NewRepository(dbClient.DB()),
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
	requireResource(ctx, logg, "designs service", err)

	service, err := NewService(ServiceParams{
		Logger:   logg,
		Sweeper:  designService,
		Lock:     redisClient,
		Tx:       dbClient,
		Events:   eventService,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Validation.SweepInterval,
		MinAge:   cfg.Validation.SweepMinAge,
	})
	requireResource(ctx, logg, "sweep service", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"env":         cfg.App.Env,
	})
	logg.Info(runCtx, "sweep worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "sweep worker not working", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
