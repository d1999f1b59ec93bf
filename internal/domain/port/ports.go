// Package port declares the capability contracts the pipeline depends on.
// Each port is a narrow, single-purpose interface with one concrete adapter
// per backend under internal/infra.
package port

import (
	"context"

	"github.com/Video2Frames/video-processor/internal/domain/entity"
	"github.com/Video2Frames/video-processor/internal/domain/event"
)

// InputStorage fetches raw video bytes from the upload store.
// Failures are reported as *StorageError.
type InputStorage interface {
	Download(ctx context.Context, sourcePath string) (entity.FileContent, error)
}

// OutputStorage stores the packaged archive at a destination path.
// Failures are reported as *StorageError.
type OutputStorage interface {
	Upload(ctx context.Context, content entity.FileContent, destinationPath string) error
}

// TempFileManager owns scratch files on local disk.
// Failures are reported as *TempFileError.
type TempFileManager interface {
	Create(content []byte, suffix string) (entity.TempFile, error)
	Delete(tf entity.TempFile) error
	Size(tf entity.TempFile) (int64, error)
}

// VideoMetadataReader reads metadata from a materialized video file.
// Failures are reported as *MetadataError.
type VideoMetadataReader interface {
	Read(ctx context.Context, tf entity.TempFile) (entity.VideoMetadata, error)
}

// VideoValidator rejects videos whose metadata violates a policy.
// Rejections are reported as *ValidationError.
type VideoValidator interface {
	Validate(meta entity.VideoMetadata) error
}

// FrameSelector computes which frame indexes to extract.
// Failures are reported as *SelectionError.
type FrameSelector interface {
	Select(meta entity.VideoMetadata) (entity.FrameSelection, error)
}

// FrameStream is a lazy, single-pass sequence of extracted frames. It is not
// restartable: the packager is its sole consumer and exhausts it exactly
// once. Next returns ok=false once the stream is exhausted; a stream that
// returned an error yields nothing further.
type FrameStream interface {
	Next(ctx context.Context) (entity.RawFrame, bool, error)
	Close() error
}

// FrameExtractor decodes the selected frames from a video file.
// Failures are reported as *ExtractionError, both from Extract and from the
// returned stream.
type FrameExtractor interface {
	Extract(ctx context.Context, tf entity.TempFile, sel entity.FrameSelection) (FrameStream, error)
}

// FramePackager drains a frame stream into a single archive. Stream errors
// pass through unchanged; packaging failures are reported as
// *PackagingError.
type FramePackager interface {
	Package(ctx context.Context, frames FrameStream) (entity.FileContent, error)
}

// EventPublisher delivers one domain event to observers.
// Failures are reported as *PublishError.
type EventPublisher interface {
	Publish(ctx context.Context, ev event.DomainEvent) error
}
