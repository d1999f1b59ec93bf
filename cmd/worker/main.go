package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Video2Frames/video-processor/internal/domain/port"
	"github.com/Video2Frames/video-processor/internal/inbound"
	"github.com/Video2Frames/video-processor/internal/infra/archive"
	"github.com/Video2Frames/video-processor/internal/infra/config"
	"github.com/Video2Frames/video-processor/internal/infra/ffmpeg"
	"github.com/Video2Frames/video-processor/internal/infra/localfs"
	"github.com/Video2Frames/video-processor/internal/infra/logpub"
	"github.com/Video2Frames/video-processor/internal/infra/metrics"
	miniostorage "github.com/Video2Frames/video-processor/internal/infra/minio"
	"github.com/Video2Frames/video-processor/internal/infra/postgres"
	"github.com/Video2Frames/video-processor/internal/infra/rabbitmq"
	s3storage "github.com/Video2Frames/video-processor/internal/infra/s3"
	"github.com/Video2Frames/video-processor/internal/infra/selector"
	snspub "github.com/Video2Frames/video-processor/internal/infra/sns"
	"github.com/Video2Frames/video-processor/internal/infra/tempfile"
	"github.com/Video2Frames/video-processor/internal/infra/tracing"
	"github.com/Video2Frames/video-processor/internal/infra/validator"
	"github.com/Video2Frames/video-processor/internal/usecase"
	"github.com/Video2Frames/video-processor/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting video-processor")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Storage backend
	input, output, err := buildStorage(ctx, cfg)
	fatalOnErr(err, "create storage")

	// RabbitMQ connection for the DLQ and, when selected, the status
	// publisher. The consumer manages its own connection.
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq")
	defer rmqConn.Close()

	publisher, err := buildPublisher(ctx, cfg, rmqConn, log)
	fatalOnErr(err, "create event publisher")

	// Optional event archive: wraps the publisher with an append-only
	// postgres record of every published event.
	if cfg.EventArchiveEnabled {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		fatalOnErr(err, "connect to postgres")
		defer pool.Close()

		if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
			log.Warn("migration warning", zap.Error(err))
		}

		publisher = postgres.NewArchivingPublisher(publisher, postgres.NewEventArchive(pool), log)
	}

	// Infra adapters
	tempFiles, err := tempfile.NewNamedManager(cfg.TempDir)
	fatalOnErr(err, "create temp file manager")

	metadataReader := ffmpeg.NewMetadataReader(tempFiles, log)
	extractor := ffmpeg.NewExtractor(log)
	packager := archive.NewZipPackager(tempFiles)

	frameSelector, err := buildSelector(cfg)
	fatalOnErr(err, "create frame selector")

	validators := []port.VideoValidator{
		validator.NewMaxSize(cfg.MaxVideoSizeBytes),
	}

	// Use case
	uc := usecase.NewProcessVideo(
		input, output, tempFiles, metadataReader,
		validators, frameSelector, extractor, packager,
		publisher, log,
	)

	// Metrics server
	metricsSrv := metrics.StartServer(ctx, cfg.MetricsPort, log)

	// DLQ sink for undecodable messages
	dlq, err := rabbitmq.NewDLQPublisher(rmqConn, cfg.RabbitMQDLQ)
	fatalOnErr(err, "create dlq publisher")

	handler := inbound.NewHandler(uc, dlq, log)

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Exchange:    cfg.RabbitMQExchange,
		UploadQueue: cfg.RabbitMQUploadQueue,
		StatusQueue: cfg.RabbitMQStatusQueue,
		DLQ:         cfg.RabbitMQDLQ,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, handler.Handle, log)
	fatalOnErr(err, "create consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("video-processor started, consuming messages")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("video-processor stopped")
}

func buildStorage(ctx context.Context, cfg *config.Config) (port.InputStorage, port.OutputStorage, error) {
	switch cfg.StorageBackend {
	case "local":
		s := localfs.NewStorage(cfg.LocalInputPath, cfg.LocalOutputPath)
		return s, s, nil

	case "minio":
		s, err := miniostorage.NewStorage(miniostorage.StorageConfig{
			Endpoint:     cfg.MinIOEndpoint,
			AccessKey:    cfg.MinIOAccessKey,
			SecretKey:    cfg.MinIOSecretKey,
			UseSSL:       cfg.MinIOUseSSL,
			InputBucket:  cfg.MinIOInputBucket,
			OutputBucket: cfg.MinIOOutputBucket,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := s.EnsureBuckets(ctx); err != nil {
			return nil, nil, err
		}
		return s, s, nil

	case "s3":
		s, err := s3storage.NewStorage(ctx, s3storage.StorageConfig{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			InputBucket:     cfg.S3InputBucket,
			OutputBucket:    cfg.S3OutputBucket,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func buildPublisher(ctx context.Context, cfg *config.Config, rmqConn *amqp.Connection, log *zap.Logger) (port.EventPublisher, error) {
	switch cfg.PublisherBackend {
	case "log":
		return logpub.NewPublisher(log), nil

	case "rabbitmq":
		return rabbitmq.NewEventPublisher(rmqConn, cfg.RabbitMQExchange, cfg.RabbitMQStatusQueue)

	case "sns":
		return snspub.NewPublisher(ctx, snspub.PublisherConfig{
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			TopicARN:        cfg.SNSTopicARN,
			GroupID:         cfg.SNSGroupID,
		})

	default:
		return nil, fmt.Errorf("unknown event publisher %q", cfg.PublisherBackend)
	}
}

func buildSelector(cfg *config.Config) (port.FrameSelector, error) {
	switch cfg.SelectorStrategy {
	case "uniform":
		return selector.NewUniform(cfg.PercentageThreshold), nil
	case "budget":
		return selector.NewBudget(cfg.MaxFrames), nil
	default:
		return nil, fmt.Errorf("unknown selector strategy %q", cfg.SelectorStrategy)
	}
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
