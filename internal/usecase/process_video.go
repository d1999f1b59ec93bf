// Package usecase contains the process-video pipeline that composes the
// domain ports into the end-to-end workflow.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Video2Frames/video-processor/internal/domain/entity"
	"github.com/Video2Frames/video-processor/internal/domain/port"
	"github.com/Video2Frames/video-processor/internal/infra/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Command identifies one video to process. It maps 1:1 to one Execute call.
type Command struct {
	VideoID    uuid.UUID
	UploadPath string
}

// ProcessVideo walks a video through download, metadata reading, validation,
// frame selection, extraction, packaging and upload, publishing a status
// event at every lifecycle transition. A run is strictly sequential and owns
// its temp file; on any stage failure the video is failed, a terminal event
// is published and the original error is propagated to the caller.
type ProcessVideo struct {
	input      port.InputStorage
	output     port.OutputStorage
	tempFiles  port.TempFileManager
	metadata   port.VideoMetadataReader
	validators []port.VideoValidator
	selector   port.FrameSelector
	extractor  port.FrameExtractor
	packager   port.FramePackager
	publisher  port.EventPublisher
	logger     *zap.Logger
}

func NewProcessVideo(
	input port.InputStorage,
	output port.OutputStorage,
	tempFiles port.TempFileManager,
	metadata port.VideoMetadataReader,
	validators []port.VideoValidator,
	selector port.FrameSelector,
	extractor port.FrameExtractor,
	packager port.FramePackager,
	publisher port.EventPublisher,
	logger *zap.Logger,
) *ProcessVideo {
	return &ProcessVideo{
		input:      input,
		output:     output,
		tempFiles:  tempFiles,
		metadata:   metadata,
		validators: validators,
		selector:   selector,
		extractor:  extractor,
		packager:   packager,
		publisher:  publisher,
		logger:     logger,
	}
}

// Execute runs the full pipeline for one video. On success the returned
// video is COMPLETED and a [ProcessingStarted, Processed] event sequence has
// been published. On failure the returned video is FAILED, a ProcessingFailed
// event has been published, and the stage's error is returned so the caller
// can decide on redelivery.
func (uc *ProcessVideo) Execute(ctx context.Context, cmd Command) (*entity.Video, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessVideo.Execute")
	defer span.End()

	span.SetAttributes(
		attribute.String("video.id", cmd.VideoID.String()),
		attribute.String("video.upload_path", cmd.UploadPath),
	)

	log := uc.logger.With(zap.String("video_id", cmd.VideoID.String()))
	log.Info("processing video", zap.String("upload_path", cmd.UploadPath))

	metrics.ActiveRuns.Inc()
	defer metrics.ActiveRuns.Dec()
	totalTimer := time.Now()

	video := entity.NewVideo(cmd.VideoID, cmd.UploadPath)

	var tmp *entity.TempFile
	defer func() {
		if tmp == nil {
			return
		}
		// cleanup cannot change the run's outcome; log only
		if err := uc.tempFiles.Delete(*tmp); err != nil {
			log.Warn("temp file cleanup failed", zap.String("path", tmp.Path), zap.Error(err))
		}
	}()

	err := uc.run(ctx, video, &tmp, log)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		return video, err
	}

	metrics.RunsTotal.WithLabelValues("completed").Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())
	log.Info("video processed", zap.String("output_path", video.OutputPath))
	return video, nil
}

func (uc *ProcessVideo) run(ctx context.Context, video *entity.Video, tmp **entity.TempFile, log *zap.Logger) error {
	if err := uc.start(ctx, video, log); err != nil {
		return err
	}

	content, err := uc.download(ctx, video, log)
	if err != nil {
		return err
	}

	tempFile, err := uc.materialize(ctx, video, content, log)
	if err != nil {
		return err
	}
	*tmp = &tempFile

	meta, err := uc.readMetadata(ctx, video, tempFile, log)
	if err != nil {
		return err
	}

	if err := uc.validate(ctx, video, meta, log); err != nil {
		return err
	}

	selection, err := uc.selectFrames(ctx, video, meta, log)
	if err != nil {
		return err
	}

	archive, err := uc.extractAndPackage(ctx, video, tempFile, selection, log)
	if err != nil {
		return err
	}

	if err := uc.upload(ctx, video, archive, log); err != nil {
		return err
	}

	return uc.complete(ctx, video, log)
}

func (uc *ProcessVideo) start(ctx context.Context, video *entity.Video, log *zap.Logger) error {
	if err := video.StartProcessing(); err != nil {
		video.FailProcessing(fmt.Sprintf("start processing failed: %v", err))
		log.Error("start processing failed", zap.Error(err))
		if pubErr := uc.publishEvents(ctx, video, log); pubErr != nil {
			return pubErr
		}
		return err
	}

	log.Info("video processing started")
	return uc.publishEvents(ctx, video, log)
}

func (uc *ProcessVideo) download(ctx context.Context, video *entity.Video, log *zap.Logger) (entity.FileContent, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "download_video")
	defer span.End()
	timer := time.Now()

	content, err := uc.input.Download(ctx, video.UploadPath)
	if err != nil {
		return entity.FileContent{}, uc.failRun(ctx, video, log, fmt.Sprintf("download failed: %v", err), err)
	}

	metrics.StageDuration.WithLabelValues("download").Observe(time.Since(timer).Seconds())
	log.Info("video downloaded", zap.Int("bytes", len(content.Content)))
	return content, nil
}

func (uc *ProcessVideo) materialize(ctx context.Context, video *entity.Video, content entity.FileContent, log *zap.Logger) (entity.TempFile, error) {
	tempFile, err := uc.tempFiles.Create(content.Content, filepath.Ext(video.UploadPath))
	if err != nil {
		return entity.TempFile{}, uc.failRun(ctx, video, log, fmt.Sprintf("temp file creation failed: %v", err), err)
	}

	log.Debug("video materialized", zap.String("path", tempFile.Path))
	return tempFile, nil
}

func (uc *ProcessVideo) readMetadata(ctx context.Context, video *entity.Video, tempFile entity.TempFile, log *zap.Logger) (entity.VideoMetadata, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "read_metadata")
	defer span.End()

	meta, err := uc.metadata.Read(ctx, tempFile)
	if err != nil {
		return entity.VideoMetadata{}, uc.failRun(ctx, video, log, fmt.Sprintf("metadata reading failed: %v", err), err)
	}

	log.Info("video metadata read",
		zap.Int("frame_count", meta.FrameCount),
		zap.Float64("fps", meta.FPS),
		zap.Float64("duration_seconds", meta.DurationSeconds),
		zap.Int64("size_bytes", meta.SizeInBytes),
	)
	return meta, nil
}

func (uc *ProcessVideo) validate(ctx context.Context, video *entity.Video, meta entity.VideoMetadata, log *zap.Logger) error {
	for _, v := range uc.validators {
		if err := v.Validate(meta); err != nil {
			return uc.failRun(ctx, video, log, fmt.Sprintf("validation failed: %v", err), err)
		}
	}
	return nil
}

func (uc *ProcessVideo) selectFrames(ctx context.Context, video *entity.Video, meta entity.VideoMetadata, log *zap.Logger) (entity.FrameSelection, error) {
	selection, err := uc.selector.Select(meta)
	if err != nil {
		return entity.FrameSelection{}, uc.failRun(ctx, video, log, fmt.Sprintf("frame selection failed: %v", err), err)
	}

	log.Info("frames selected", zap.Int("count", len(selection.Indexes)))
	return selection, nil
}

func (uc *ProcessVideo) extractAndPackage(ctx context.Context, video *entity.Video, tempFile entity.TempFile, selection entity.FrameSelection, log *zap.Logger) (entity.FileContent, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "extract_and_package")
	defer span.End()
	timer := time.Now()

	stream, err := uc.extractor.Extract(ctx, tempFile, selection)
	if err != nil {
		return entity.FileContent{}, uc.failRun(ctx, video, log, fmt.Sprintf("frame extraction failed: %v", err), err)
	}
	defer stream.Close()

	// the packager is the stream's sole consumer; extraction errors surface
	// through it unchanged
	archive, err := uc.packager.Package(ctx, stream)
	if err != nil {
		msg := fmt.Sprintf("frame packaging failed: %v", err)
		var extractionErr *port.ExtractionError
		if errors.As(err, &extractionErr) {
			msg = fmt.Sprintf("frame extraction failed: %v", err)
		}
		return entity.FileContent{}, uc.failRun(ctx, video, log, msg, err)
	}

	metrics.StageDuration.WithLabelValues("extract_and_package").Observe(time.Since(timer).Seconds())
	metrics.FramesExtractedTotal.Add(float64(len(selection.Indexes)))
	log.Info("frames packaged", zap.Int("frame_count", len(selection.Indexes)), zap.Int("archive_bytes", len(archive.Content)))
	return archive, nil
}

func (uc *ProcessVideo) upload(ctx context.Context, video *entity.Video, archive entity.FileContent, log *zap.Logger) error {
	ctx, span := otel.Tracer("usecase").Start(ctx, "upload_archive")
	defer span.End()
	timer := time.Now()

	if err := uc.output.Upload(ctx, archive, video.OutputPath); err != nil {
		return uc.failRun(ctx, video, log, fmt.Sprintf("upload failed: %v", err), err)
	}

	metrics.StageDuration.WithLabelValues("upload").Observe(time.Since(timer).Seconds())
	log.Info("archive uploaded", zap.String("output_path", video.OutputPath))
	return nil
}

func (uc *ProcessVideo) complete(ctx context.Context, video *entity.Video, log *zap.Logger) error {
	if err := video.CompleteProcessing(); err != nil {
		video.FailProcessing(fmt.Sprintf("complete processing failed: %v", err))
		log.Error("complete processing failed", zap.Error(err))
		if pubErr := uc.publishEvents(ctx, video, log); pubErr != nil {
			return pubErr
		}
		return err
	}

	return uc.publishEvents(ctx, video, log)
}

// failRun records a stage failure on the aggregate, publishes the resulting
// ProcessingFailed event and hands the stage's error back for propagation.
// The pipeline never swallows an error; it only makes sure the domain and
// its observers know about it first. A publish failure takes precedence
// because silently dropping a status event is not safe.
func (uc *ProcessVideo) failRun(ctx context.Context, video *entity.Video, log *zap.Logger, message string, cause error) error {
	video.FailProcessing(message)
	log.Error("video processing failed", zap.String("reason", message), zap.Error(cause))

	if pubErr := uc.publishEvents(ctx, video, log); pubErr != nil {
		return pubErr
	}
	return cause
}

func (uc *ProcessVideo) publishEvents(ctx context.Context, video *entity.Video, log *zap.Logger) error {
	for _, ev := range video.CollectEvents() {
		if err := uc.publisher.Publish(ctx, ev); err != nil {
			log.Error("event publishing failed", zap.String("event_type", ev.EventType()), zap.Error(err))
			return err
		}
		metrics.EventsPublishedTotal.WithLabelValues(ev.EventType()).Inc()
		log.Debug("event published", zap.String("event_type", ev.EventType()))
	}
	return nil
}
