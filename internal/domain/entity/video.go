// Package entity holds the video aggregate and its value objects.
package entity

import (
	"fmt"
	"time"

	"github.com/Video2Frames/video-processor/internal/domain/event"
	"github.com/google/uuid"
)

type VideoStatus string

const (
	VideoStatusPending    VideoStatus = "PENDING"
	VideoStatusProcessing VideoStatus = "PROCESSING"
	VideoStatusCompleted  VideoStatus = "COMPLETED"
	VideoStatusFailed     VideoStatus = "FAILED"
)

// InvalidStatusTransitionError reports an illegal status transition attempt
// on the video aggregate. It indicates a logic error in the caller, not an
// infrastructure failure.
type InvalidStatusTransitionError struct {
	VideoID   uuid.UUID
	Current   VideoStatus
	Attempted VideoStatus
}

func (e *InvalidStatusTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition for video %s: %s -> %s",
		e.VideoID, e.Current, e.Attempted)
}

// Video is the aggregate root of one pipeline run. It owns the status state
// machine and the buffer of pending domain events. It lives for exactly one
// run and is never persisted.
type Video struct {
	ID           uuid.UUID
	UploadPath   string
	OutputPath   string
	Status       VideoStatus
	ErrorMessage string

	events []event.DomainEvent
}

// NewVideo creates a pending video for one pipeline run. The output path is
// derived from the identifier up front so it is available in event payloads
// even when the run fails early.
func NewVideo(id uuid.UUID, uploadPath string) *Video {
	return &Video{
		ID:         id,
		UploadPath: uploadPath,
		OutputPath: fmt.Sprintf("%s/output.zip", id),
		Status:     VideoStatusPending,
	}
}

// StartProcessing moves the video from PENDING to PROCESSING and buffers a
// ProcessingStarted event. Any other current status is an invalid transition
// and buffers nothing.
func (v *Video) StartProcessing() error {
	if v.Status != VideoStatusPending {
		return &InvalidStatusTransitionError{
			VideoID:   v.ID,
			Current:   v.Status,
			Attempted: VideoStatusProcessing,
		}
	}

	now := time.Now().UTC()
	v.Status = VideoStatusProcessing
	v.events = append(v.events, event.NewProcessingStarted(v.ID, now))
	return nil
}

// CompleteProcessing moves the video from PROCESSING to COMPLETED and
// buffers a Processed event carrying the output path.
func (v *Video) CompleteProcessing() error {
	if v.Status != VideoStatusProcessing {
		return &InvalidStatusTransitionError{
			VideoID:   v.ID,
			Current:   v.Status,
			Attempted: VideoStatusCompleted,
		}
	}

	now := time.Now().UTC()
	v.Status = VideoStatusCompleted
	v.events = append(v.events, event.NewProcessed(v.ID, v.OutputPath, now))
	return nil
}

// FailProcessing moves the video to FAILED from any status, records the
// failure message and buffers a ProcessingFailed event. It is the terminal
// sink for every error path and never fails itself.
func (v *Video) FailProcessing(message string) {
	now := time.Now().UTC()
	v.Status = VideoStatusFailed
	v.ErrorMessage = message
	v.events = append(v.events, event.NewProcessingFailed(v.ID, now, message))
}

// CollectEvents drains the pending event buffer, returning the buffered
// events in insertion order. A drained event is never delivered again.
func (v *Video) CollectEvents() []event.DomainEvent {
	out := v.events
	v.events = nil
	return out
}
