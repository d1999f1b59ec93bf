package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/Video2Frames/video-processor/internal/domain/entity"
	"github.com/Video2Frames/video-processor/internal/domain/port"
	"go.uber.org/zap"
)

// Extractor decodes selected frames by seeking ffmpeg to each index and
// re-encoding it as JPEG. Extraction is exposed as a lazy single-pass
// stream: a frame is only decoded when the consumer pulls it.
type Extractor struct {
	logger *zap.Logger
}

func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, tf entity.TempFile, sel entity.FrameSelection) (port.FrameStream, error) {
	if _, err := os.Stat(tf.Path); err != nil {
		return nil, &port.ExtractionError{Index: -1, Err: fmt.Errorf("open video file: %w", err)}
	}

	return &frameStream{path: tf.Path, indexes: sel.Indexes, logger: e.logger}, nil
}

// frameStream pulls one frame per Next call. It is not restartable: once
// exhausted or failed it yields nothing further.
type frameStream struct {
	path    string
	indexes []int
	pos     int
	done    bool
	logger  *zap.Logger
}

func (s *frameStream) Next(ctx context.Context) (entity.RawFrame, bool, error) {
	if s.done || s.pos >= len(s.indexes) {
		s.done = true
		return entity.RawFrame{}, false, nil
	}

	index := s.indexes[s.pos]
	s.pos++

	frame, err := s.decode(ctx, index)
	if err != nil {
		s.done = true
		return entity.RawFrame{}, false, err
	}
	return frame, true, nil
}

func (s *frameStream) decode(ctx context.Context, index int) (entity.RawFrame, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-v", "error",
		"-i", s.path,
		"-vf", fmt.Sprintf("select=eq(n\\,%d)", index),
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"pipe:1",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return entity.RawFrame{}, &port.ExtractionError{
			Index: index,
			Err:   fmt.Errorf("ffmpeg: %w, output: %s", err, stderr.String()),
		}
	}
	if stdout.Len() == 0 {
		return entity.RawFrame{}, &port.ExtractionError{
			Index: index,
			Err:   fmt.Errorf("no frame decoded"),
		}
	}

	s.logger.Debug("frame decoded", zap.Int("index", index), zap.Int("bytes", stdout.Len()))
	return entity.RawFrame{
		Index:    index,
		Filename: fmt.Sprintf("frame_%d.jpg", index),
		Content:  stdout.Bytes(),
	}, nil
}

func (s *frameStream) Close() error {
	s.done = true
	return nil
}
