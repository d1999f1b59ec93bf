// Package validator holds the video validation policies run before frame
// selection.
package validator

import (
	"fmt"

	"github.com/Video2Frames/video-processor/internal/domain/entity"
	"github.com/Video2Frames/video-processor/internal/domain/port"
)

// MaxSize rejects videos whose byte size exceeds a configured ceiling.
type MaxSize struct {
	maxBytes int64
}

func NewMaxSize(maxBytes int64) *MaxSize {
	return &MaxSize{maxBytes: maxBytes}
}

func (v *MaxSize) Validate(meta entity.VideoMetadata) error {
	if meta.SizeInBytes > v.maxBytes {
		return &port.ValidationError{
			Reason: fmt.Sprintf("video size %d bytes exceeds the maximum allowed %d bytes",
				meta.SizeInBytes, v.maxBytes),
		}
	}
	return nil
}
