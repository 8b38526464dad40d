package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/watusiii/tool-stopmotion/internal/infra/config"
	"github.com/watusiii/tool-stopmotion/internal/infra/email"
	"github.com/watusiii/tool-stopmotion/internal/infra/ffmpeg"
	"github.com/watusiii/tool-stopmotion/internal/infra/metrics"
	miniostorage "github.com/watusiii/tool-stopmotion/internal/infra/minio"
	"github.com/watusiii/tool-stopmotion/internal/infra/postgres"
	"github.com/watusiii/tool-stopmotion/internal/infra/rabbitmq"
	"github.com/watusiii/tool-stopmotion/internal/infra/tracing"
	"github.com/watusiii/tool-stopmotion/internal/retime"
	"github.com/watusiii/tool-stopmotion/internal/usecase"
	"github.com/watusiii/tool-stopmotion/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting stopmotion-retime-worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if Jaeger unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	// Migrations
	err = postgres.RunMigrations(cfg.DatabaseURL, "migrations")
	if err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// MinIO
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:       cfg.MinIOEndpoint,
		AccessKey:      cfg.MinIOAccessKey,
		SecretKey:      cfg.MinIOSecretKey,
		UseSSL:         cfg.MinIOUseSSL,
		UploadBucket:   cfg.MinIOUploadBucket,
		OutputBucket:   cfg.MinIOOutputBucket,
		TimelineBucket: cfg.MinIOTimelineBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	statusPub := rabbitmq.NewStatusPublisher(pub, cfg.RabbitMQStatusQueue)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Infra adapters
	repo := postgres.NewJobRepository(pool)
	codec := ffmpeg.NewCodec(log)
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	thumbnailer, err := retime.NewThumbnailer(cfg.ThumbnailWidth)
	fatalOnErr(err, "create thumbnailer")

	// Use cases
	ucCfg := usecase.RetimeConfig{
		TempDir:                cfg.TempDir,
		MaxRetries:             cfg.MaxRetries,
		DefaultReductionFactor: cfg.DefaultReductionFactor,
		EnhanceContrast:        cfg.EnhanceContrast,
	}
	retimeUC := usecase.NewRetimeVideoUseCase(repo, storage, codec, statusPub, dlqPub, notifier, log, ucCfg)
	extractUC := usecase.NewExtractTimelineUseCase(repo, storage, codec, thumbnailer, statusPub, dlqPub, notifier, log, ucCfg)
	dispatcher := usecase.NewDispatcher(retimeUC, extractUC, dlqPub, log)

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQRetimeQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, dispatcher.Execute, log)
	fatalOnErr(err, "create consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("stopmotion-retime-worker started, consuming messages")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("stopmotion-retime-worker stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
