// Package selector implements the frame selection strategies behind the
// FrameSelector port. Both are deterministic pure computations: the same
// metadata always yields the same selection.
package selector

import (
	"fmt"

	"github.com/Video2Frames/video-processor/internal/domain/entity"
	"github.com/Video2Frames/video-processor/internal/domain/port"
)

// Uniform samples approximately a configured percentage of frames, evenly
// spaced: step = max(1, floor(1/threshold)), indexes 0, step, 2*step, ...
// below the frame count. A threshold of 1 selects every frame.
type Uniform struct {
	threshold float64
}

func NewUniform(percentageThreshold float64) *Uniform {
	return &Uniform{threshold: percentageThreshold}
}

func (s *Uniform) Select(meta entity.VideoMetadata) (entity.FrameSelection, error) {
	if s.threshold <= 0 || s.threshold > 1 {
		return entity.FrameSelection{}, &port.SelectionError{
			Reason: fmt.Sprintf("percentage threshold %v must be in (0, 1]", s.threshold),
		}
	}
	if meta.FrameCount == 0 {
		return entity.FrameSelection{}, &port.SelectionError{Reason: "video has no frames to select"}
	}

	step := int(1 / s.threshold)
	if step < 1 {
		step = 1
	}

	indexes := make([]int, 0, meta.FrameCount/step+1)
	for i := 0; i < meta.FrameCount; i += step {
		indexes = append(indexes, i)
	}
	return entity.FrameSelection{Indexes: indexes}, nil
}
