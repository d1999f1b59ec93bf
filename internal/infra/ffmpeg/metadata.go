// Package ffmpeg implements the metadata reader and frame extractor ports by
// shelling out to ffprobe and ffmpeg.
package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Video2Frames/video-processor/internal/domain/entity"
	"github.com/Video2Frames/video-processor/internal/domain/port"
	"go.uber.org/zap"
)

// MetadataReader reads video metadata with ffprobe. The byte size comes from
// the temp file manager, not from the container headers.
type MetadataReader struct {
	tempFiles port.TempFileManager
	logger    *zap.Logger
}

func NewMetadataReader(tempFiles port.TempFileManager, logger *zap.Logger) *MetadataReader {
	return &MetadataReader{tempFiles: tempFiles, logger: logger}
}

type probeOutput struct {
	Streams []struct {
		NbReadFrames string `json:"nb_read_frames"`
		AvgFrameRate string `json:"avg_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (r *MetadataReader) Read(ctx context.Context, tf entity.TempFile) (entity.VideoMetadata, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-count_frames",
		"-show_entries", "stream=nb_read_frames,avg_frame_rate,duration",
		"-show_entries", "format=duration",
		"-of", "json",
		tf.Path,
	)

	out, err := cmd.Output()
	if err != nil {
		return entity.VideoMetadata{}, &port.MetadataError{Path: tf.Path, Err: fmt.Errorf("ffprobe: %w", err)}
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return entity.VideoMetadata{}, &port.MetadataError{Path: tf.Path, Err: fmt.Errorf("parse ffprobe output: %w", err)}
	}
	if len(probe.Streams) == 0 {
		return entity.VideoMetadata{}, &port.MetadataError{Path: tf.Path, Err: fmt.Errorf("no video stream found")}
	}

	stream := probe.Streams[0]
	fps, err := parseFrameRate(stream.AvgFrameRate)
	if err != nil {
		return entity.VideoMetadata{}, &port.MetadataError{Path: tf.Path, Err: err}
	}

	duration := parseSeconds(stream.Duration)
	if duration == 0 {
		duration = parseSeconds(probe.Format.Duration)
	}

	frameCount, err := strconv.Atoi(stream.NbReadFrames)
	if err != nil {
		// some containers do not report a frame count; derive it
		frameCount = int(math.Round(duration * fps))
		r.logger.Warn("frame count not reported, derived from duration",
			zap.String("path", tf.Path),
			zap.Int("frame_count", frameCount),
		)
	}

	size, err := r.tempFiles.Size(tf)
	if err != nil {
		return entity.VideoMetadata{}, &port.MetadataError{Path: tf.Path, Err: err}
	}

	return entity.VideoMetadata{
		Path:            tf.Path,
		DurationSeconds: duration,
		FrameCount:      frameCount,
		FPS:             fps,
		SizeInBytes:     size,
	}, nil
}

// parseFrameRate parses ffprobe's fractional rate notation, e.g.
// "30000/1001" or "25/1".
func parseFrameRate(s string) (float64, error) {
	num, den, found := strings.Cut(s, "/")
	if !found {
		rate, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
		}
		return rate, nil
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
	}
	if d == 0 {
		return 0, fmt.Errorf("parse frame rate %q: zero denominator", s)
	}
	return n / d, nil
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
