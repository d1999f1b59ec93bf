// Package event defines the domain events emitted by the video aggregate.
// Events are immutable records of status transitions; they are buffered on
// the aggregate and published by the use case, never by the aggregate itself.
package event

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is implemented by every event in the domain.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	EventOccurredAt() time.Time
	EventVersion() int
}

// VideoStatusEvent is implemented by events that concern a single video.
type VideoStatusEvent interface {
	DomainEvent
	Subject() uuid.UUID
}

// Base carries the fields shared by all domain events.
type Base struct {
	ID         uuid.UUID `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	Version    int       `json:"version"`
}

func newBase() Base {
	return Base{
		ID:         uuid.New(),
		OccurredAt: time.Now().UTC(),
		Version:    1,
	}
}

func (b Base) EventID() uuid.UUID         { return b.ID }
func (b Base) EventOccurredAt() time.Time { return b.OccurredAt }
func (b Base) EventVersion() int          { return b.Version }

// ProcessingStarted signals that processing of a video has begun.
type ProcessingStarted struct {
	Base
	VideoID   uuid.UUID `json:"video_id"`
	StartedAt time.Time `json:"processing_started_at"`
}

func NewProcessingStarted(videoID uuid.UUID, startedAt time.Time) ProcessingStarted {
	return ProcessingStarted{Base: newBase(), VideoID: videoID, StartedAt: startedAt}
}

func (ProcessingStarted) EventType() string    { return "VideoProcessingStarted" }
func (e ProcessingStarted) Subject() uuid.UUID { return e.VideoID }

// Processed signals that a video was processed and its archive uploaded.
type Processed struct {
	Base
	VideoID     uuid.UUID `json:"video_id"`
	OutputPath  string    `json:"output_path"`
	ProcessedAt time.Time `json:"processed_at"`
}

func NewProcessed(videoID uuid.UUID, outputPath string, processedAt time.Time) Processed {
	return Processed{Base: newBase(), VideoID: videoID, OutputPath: outputPath, ProcessedAt: processedAt}
}

func (Processed) EventType() string    { return "VideoProcessed" }
func (e Processed) Subject() uuid.UUID { return e.VideoID }

// ProcessingFailed signals that processing of a video failed.
type ProcessingFailed struct {
	Base
	VideoID      uuid.UUID `json:"video_id"`
	FailedAt     time.Time `json:"failed_at"`
	ErrorMessage string    `json:"error_message"`
}

func NewProcessingFailed(videoID uuid.UUID, failedAt time.Time, errorMessage string) ProcessingFailed {
	return ProcessingFailed{Base: newBase(), VideoID: videoID, FailedAt: failedAt, ErrorMessage: errorMessage}
}

func (ProcessingFailed) EventType() string    { return "VideoProcessingFailed" }
func (e ProcessingFailed) Subject() uuid.UUID { return e.VideoID }
