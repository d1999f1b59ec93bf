package integration

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Video2Frames/video-processor/internal/domain/port"
	"github.com/Video2Frames/video-processor/internal/inbound"
	"github.com/Video2Frames/video-processor/internal/infra/archive"
	"github.com/Video2Frames/video-processor/internal/infra/ffmpeg"
	miniostorage "github.com/Video2Frames/video-processor/internal/infra/minio"
	"github.com/Video2Frames/video-processor/internal/infra/postgres"
	"github.com/Video2Frames/video-processor/internal/infra/rabbitmq"
	"github.com/Video2Frames/video-processor/internal/infra/selector"
	"github.com/Video2Frames/video-processor/internal/infra/tempfile"
	"github.com/Video2Frames/video-processor/internal/infra/validator"
	"github.com/Video2Frames/video-processor/internal/usecase"
	"github.com/Video2Frames/video-processor/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

const (
	exchange    = "video"
	uploadQueue = "video.uploaded"
	statusQueue = "video.status"
	dlqQueue    = "video.uploaded.dlq"
)

// requireFFmpeg skips the test when the ffmpeg binaries are not installed.
func requireFFmpeg(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not found in PATH", bin)
		}
	}
}

// makeTestVideo renders a short synthetic clip with ffmpeg.
func makeTestVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.mp4")
	cmd := exec.Command("ffmpeg",
		"-f", "lavfi", "-i", "testsrc=duration=2:size=320x240:rate=10",
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		path,
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "generate test video: %s", out)
	return path
}

func TestPipelineEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	requireFFmpeg(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Containers
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("events"),
		tcpostgres.WithUsername("events_user"),
		tcpostgres.WithPassword("events_pass"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	defer pgContainer.Terminate(ctx)

	pgConnStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rmqContainer, err := tcrabbitmq.Run(ctx, "rabbitmq:3.12-management-alpine")
	require.NoError(t, err)
	defer rmqContainer.Terminate(ctx)

	rmqURL, err := rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)

	minioContainer, err := tcminio.Run(ctx,
		"minio/minio:latest",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	defer minioContainer.Terminate(ctx)

	minioEndpoint, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err)

	// Migrations + event archive
	require.NoError(t, postgres.RunMigrations(pgConnStr, "../../migrations"))

	pool, err := pgxpool.New(ctx, pgConnStr)
	require.NoError(t, err)
	defer pool.Close()

	// Storage
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:     minioEndpoint,
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		UseSSL:       false,
		InputBucket:  "uploads",
		OutputBucket: "frames",
	})
	require.NoError(t, err)
	require.NoError(t, storage.EnsureBuckets(ctx))

	// Upload the source video
	videoPath := makeTestVideo(t)
	minioClient, err := miniogo.New(minioEndpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	require.NoError(t, err)

	videoID := uuid.New()
	uploadPath := videoID.String() + "/test.mp4"
	_, err = minioClient.FPutObject(ctx, "uploads", uploadPath, videoPath, miniogo.PutObjectOptions{
		ContentType: "video/mp4",
	})
	require.NoError(t, err)

	// Publishers
	log, _ := logger.New("debug")

	rmqConn, err := amqp.Dial(rmqURL)
	require.NoError(t, err)
	defer rmqConn.Close()

	statusPub, err := rabbitmq.NewEventPublisher(rmqConn, exchange, statusQueue)
	require.NoError(t, err)

	dlqPub, err := rabbitmq.NewDLQPublisher(rmqConn, dlqQueue)
	require.NoError(t, err)

	publisher := postgres.NewArchivingPublisher(statusPub, postgres.NewEventArchive(pool), log)

	// Pipeline
	tempFiles, err := tempfile.NewNamedManager(t.TempDir())
	require.NoError(t, err)

	uc := usecase.NewProcessVideo(
		storage, storage, tempFiles,
		ffmpeg.NewMetadataReader(tempFiles, log),
		[]port.VideoValidator{validator.NewMaxSize(100 << 20)},
		selector.NewUniform(0.1),
		ffmpeg.NewExtractor(log),
		archive.NewZipPackager(tempFiles),
		publisher, log,
	)

	handler := inbound.NewHandler(uc, dlqPub, log)

	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         rmqURL,
		Exchange:    exchange,
		UploadQueue: uploadQueue,
		StatusQueue: statusQueue,
		DLQ:         dlqQueue,
		Prefetch:    1,
		WorkerCount: 1,
		BaseDelayMs: 100,
	}, handler.Handle, log)
	require.NoError(t, err)
	defer consumer.Close()

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	defer consumerCancel()
	go func() {
		consumer.Start(consumerCtx)
	}()
	time.Sleep(500 * time.Millisecond)

	// Subscribe to status events before triggering the run
	statusCh, err := rmqConn.Channel()
	require.NoError(t, err)
	defer statusCh.Close()

	statusMsgs, err := statusCh.Consume(statusQueue, "", true, false, false, false, nil)
	require.NoError(t, err)

	// Trigger
	trigger, err := json.Marshal(map[string]string{
		"video_id":    videoID.String(),
		"upload_path": uploadPath,
	})
	require.NoError(t, err)

	pubCh, err := rmqConn.Channel()
	require.NoError(t, err)
	err = pubCh.PublishWithContext(ctx, exchange, uploadQueue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        trigger,
	})
	require.NoError(t, err)
	pubCh.Close()

	// Expect ProcessingStarted then Processed
	var types []string
	var outputPath string
	deadline := time.After(2 * time.Minute)
	for len(types) < 2 {
		select {
		case delivery := <-statusMsgs:
			types = append(types, delivery.Type)
			if delivery.Type == "VideoProcessed" {
				var payload struct {
					VideoID    uuid.UUID `json:"video_id"`
					OutputPath string    `json:"output_path"`
				}
				require.NoError(t, json.Unmarshal(delivery.Body, &payload))
				assert.Equal(t, videoID, payload.VideoID)
				outputPath = payload.OutputPath
			}
		case <-deadline:
			t.Fatalf("timeout waiting for status events, got %v", types)
		}
	}
	assert.Equal(t, []string{"VideoProcessingStarted", "VideoProcessed"}, types)
	assert.Equal(t, videoID.String()+"/output.zip", outputPath)

	// The archive in the output bucket holds the selected frames
	zipObj, err := minioClient.GetObject(ctx, "frames", outputPath, miniogo.GetObjectOptions{})
	require.NoError(t, err)

	var zipBuf bytes.Buffer
	_, err = zipBuf.ReadFrom(zipObj)
	require.NoError(t, err)

	zipReader, err := zip.NewReader(bytes.NewReader(zipBuf.Bytes()), int64(zipBuf.Len()))
	require.NoError(t, err)

	jpgCount := 0
	for _, f := range zipReader.File {
		if strings.HasSuffix(f.Name, ".jpg") {
			jpgCount++
		}
	}
	// 2s at 10fps with a 0.1 threshold selects every 10th frame
	assert.Equal(t, 2, jpgCount)

	// Every published event was archived
	var archived int
	err = pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM domain_events WHERE video_id=$1", videoID,
	).Scan(&archived)
	require.NoError(t, err)
	assert.Equal(t, 2, archived)

	consumerCancel()
}

func TestPipelineMalformedMessageGoesToDLQ(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rmqContainer, err := tcrabbitmq.Run(ctx, "rabbitmq:3.12-management-alpine")
	require.NoError(t, err)
	defer rmqContainer.Terminate(ctx)

	rmqURL, err := rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)

	log, _ := logger.New("debug")

	rmqConn, err := amqp.Dial(rmqURL)
	require.NoError(t, err)
	defer rmqConn.Close()

	dlqPub, err := rabbitmq.NewDLQPublisher(rmqConn, dlqQueue)
	require.NoError(t, err)

	// The pipeline never runs for an undecodable message, so the handler can
	// carry a use case with nil ports.
	handler := inbound.NewHandler(nil, dlqPub, log)

	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         rmqURL,
		Exchange:    exchange,
		UploadQueue: uploadQueue,
		StatusQueue: statusQueue,
		DLQ:         dlqQueue,
		Prefetch:    1,
		WorkerCount: 1,
		BaseDelayMs: 100,
	}, handler.Handle, log)
	require.NoError(t, err)
	defer consumer.Close()

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	defer consumerCancel()
	go func() {
		consumer.Start(consumerCtx)
	}()
	time.Sleep(500 * time.Millisecond)

	pubCh, err := rmqConn.Channel()
	require.NoError(t, err)
	err = pubCh.PublishWithContext(ctx, exchange, uploadQueue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        []byte(`{invalid json`),
	})
	require.NoError(t, err)
	pubCh.Close()

	time.Sleep(2 * time.Second)

	dlqCh, err := rmqConn.Channel()
	require.NoError(t, err)
	defer dlqCh.Close()

	dlqMsg, ok, err := dlqCh.Get(dlqQueue, true)
	require.NoError(t, err)
	assert.True(t, ok, "malformed message should land in the DLQ")
	assert.Equal(t, `{invalid json`, string(dlqMsg.Body))

	consumerCancel()
}
