// Package localfs implements the storage ports against the local file
// system, mainly for development and tests.
package localfs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Video2Frames/video-processor/internal/domain/entity"
	"github.com/Video2Frames/video-processor/internal/domain/port"
)

// Storage reads uploads from one base directory and writes archives under
// another.
type Storage struct {
	inputPath  string
	outputPath string
}

func NewStorage(inputPath, outputPath string) *Storage {
	return &Storage{inputPath: inputPath, outputPath: outputPath}
}

func (s *Storage) Download(ctx context.Context, sourcePath string) (entity.FileContent, error) {
	full := filepath.Join(s.inputPath, sourcePath)
	data, err := os.ReadFile(full)
	if err != nil {
		return entity.FileContent{}, &port.StorageError{Op: "download", Path: full, Err: err}
	}
	return entity.FileContent{Path: full, Content: data}, nil
}

func (s *Storage) Upload(ctx context.Context, content entity.FileContent, destinationPath string) error {
	full := filepath.Join(s.outputPath, destinationPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return &port.StorageError{Op: "upload", Path: full, Err: err}
	}
	if err := os.WriteFile(full, content.Content, 0o640); err != nil {
		return &port.StorageError{Op: "upload", Path: full, Err: err}
	}
	return nil
}
