// Package tempfile manages the scratch files a pipeline run materializes
// videos into.
package tempfile

import (
	"fmt"
	"os"

	"github.com/Video2Frames/video-processor/internal/domain/entity"
	"github.com/Video2Frames/video-processor/internal/domain/port"
)

// NamedManager creates uniquely named temp files in a configured directory.
type NamedManager struct {
	dir string
}

// NewNamedManager creates the manager, creating dir if needed. An empty dir
// falls back to the system temp directory.
func NewNamedManager(dir string) (*NamedManager, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create temp dir %s: %w", dir, err)
		}
	}
	return &NamedManager{dir: dir}, nil
}

func (m *NamedManager) Create(content []byte, suffix string) (entity.TempFile, error) {
	f, err := os.CreateTemp(m.dir, "video-*"+suffix)
	if err != nil {
		return entity.TempFile{}, &port.TempFileError{Op: "create", Err: err}
	}

	path := f.Name()
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(path)
		return entity.TempFile{}, &port.TempFileError{Op: "create", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return entity.TempFile{}, &port.TempFileError{Op: "create", Path: path, Err: err}
	}

	return entity.TempFile{Path: path}, nil
}

func (m *NamedManager) Delete(tf entity.TempFile) error {
	if err := os.Remove(tf.Path); err != nil {
		return &port.TempFileError{Op: "delete", Path: tf.Path, Err: err}
	}
	return nil
}

func (m *NamedManager) Size(tf entity.TempFile) (int64, error) {
	info, err := os.Stat(tf.Path)
	if err != nil {
		return 0, &port.TempFileError{Op: "size", Path: tf.Path, Err: err}
	}
	return info.Size(), nil
}
