package localfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Video2Frames/video-processor/internal/domain/entity"
	"github.com/Video2Frames/video-processor/internal/domain/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload(t *testing.T) {
	input := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(input, "user1"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(input, "user1", "clip.mp4"), []byte("video-bytes"), 0o640))

	s := NewStorage(input, t.TempDir())
	content, err := s.Download(context.Background(), "user1/clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, []byte("video-bytes"), content.Content)
	assert.Equal(t, filepath.Join(input, "user1", "clip.mp4"), content.Path)
}

func TestDownloadMissingFile(t *testing.T) {
	s := NewStorage(t.TempDir(), t.TempDir())

	_, err := s.Download(context.Background(), "nope.mp4")
	var storageErr *port.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "download", storageErr.Op)
}

func TestUploadCreatesParentDirs(t *testing.T) {
	output := t.TempDir()
	s := NewStorage(t.TempDir(), output)

	content := entity.FileContent{Path: "output.zip", Content: []byte("zip-bytes")}
	require.NoError(t, s.Upload(context.Background(), content, "abc-123/output.zip"))

	data, err := os.ReadFile(filepath.Join(output, "abc-123", "output.zip"))
	require.NoError(t, err)
	assert.Equal(t, []byte("zip-bytes"), data)
}
