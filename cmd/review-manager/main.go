// cmd/review-manager/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"childminder-review/internal/api"
	"childminder-review/internal/common/aws"
	"childminder-review/internal/common/config"
	"childminder-review/internal/common/database"
	"childminder-review/internal/common/logger"
	"childminder-review/internal/magiclink"
	"childminder-review/internal/notify"
	"childminder-review/internal/review/progress"
	"childminder-review/internal/review/queue"
	"childminder-review/internal/review/release"
	"childminder-review/internal/review/section"
	"childminder-review/internal/review/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting review manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Notification Clients ---
	sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.Region)
	if err != nil {
		zapLog.Fatal("ses client init failed", zap.Error(err))
	}
	var snsClient *aws.SNSClient
	if cfg.Notifications.SMSEnabled {
		snsClient, err = aws.NewSNSClient(ctx, cfg.Notifications.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
	}
	zapLog.Info("Notification clients initialized")

	// --- Assemble the Review Engine ---
	st := store.New(pg.DB, log)
	reviewer := section.NewReviewer(st, log)
	aggregator := progress.NewAggregator(st, log)
	assignQueue := queue.New(pg.DB, cfg.Review.ReviewerCapacity, cfg.Review.ClaimAttempts, log)
	links := magiclink.NewIssuer(rdb.Client, cfg.Review.MagicLink.TTL(), cfg.Review.MagicLink.TokenLength, log)

	var notifier notify.Notifier
	if snsClient != nil {
		notifier = notify.NewService(sesClient, snsClient, cfg.Notifications, log)
	} else {
		notifier = notify.NewService(sesClient, nil, cfg.Notifications, log)
	}

	releaseEngine := release.NewEngine(pg.DB, st, links, notifier, cfg.Review.MagicLink.BaseURL, log)

	server := api.NewServer(st, reviewer, aggregator, assignQueue, releaseEngine, links, log)

	// --- Metrics and pprof ---
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		zapLog.Info("Metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	// --- Serve the API ---
	serveCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	zapLog.Info("API server listening", zap.String("addr", addr))
	if err := server.ListenAndServe(serveCtx, addr); err != nil && err != http.ErrServerClosed {
		zapLog.Fatal("api server failed", zap.Error(err))
	}

	zapLog.Info("Shutdown complete")
}
