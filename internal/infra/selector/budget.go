package selector

import (
	"math"

	"github.com/Video2Frames/video-processor/internal/domain/entity"
	"github.com/Video2Frames/video-processor/internal/domain/port"
)

// Budget caps the sample at a configured frame budget: it takes 1% of the
// frame count, clamped to [1, maxFrames], and spaces that many indexes
// evenly across [0, frameCount-1]. A zero budget selects every frame.
// Collisions from rounding on short videos are skipped so the selection
// stays strictly ascending.
type Budget struct {
	maxFrames int
}

func NewBudget(maxFrames int) *Budget {
	return &Budget{maxFrames: maxFrames}
}

func (s *Budget) Select(meta entity.VideoMetadata) (entity.FrameSelection, error) {
	if meta.FrameCount == 0 {
		return entity.FrameSelection{}, &port.SelectionError{Reason: "video has no frames to select"}
	}

	count := meta.FrameCount
	if s.maxFrames > 0 {
		count = int(math.Round(float64(meta.FrameCount) * 0.01))
		if count < 1 {
			count = 1
		}
		if count > s.maxFrames {
			count = s.maxFrames
		}
	}

	if count == 1 {
		return entity.FrameSelection{Indexes: []int{0}}, nil
	}

	indexes := make([]int, 0, count)
	last := -1
	for i := 0; i < count; i++ {
		idx := int(math.Round(float64(i) * float64(meta.FrameCount-1) / float64(count-1)))
		if idx == last {
			continue
		}
		indexes = append(indexes, idx)
		last = idx
	}
	return entity.FrameSelection{Indexes: indexes}, nil
}
