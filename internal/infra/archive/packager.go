// Package archive packages extracted frames into a zip file.
package archive

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"

	"github.com/Video2Frames/video-processor/internal/domain/entity"
	"github.com/Video2Frames/video-processor/internal/domain/port"
)

// ZipPackager drains a frame stream into a zip built in a managed temp file,
// reads the result back and always releases the temp file. It is the sole
// consumer of the stream and exhausts it exactly once; stream errors pass
// through unchanged so the caller can tell an extraction failure from a
// packaging one.
type ZipPackager struct {
	tempFiles port.TempFileManager
}

func NewZipPackager(tempFiles port.TempFileManager) *ZipPackager {
	return &ZipPackager{tempFiles: tempFiles}
}

func (p *ZipPackager) Package(ctx context.Context, frames port.FrameStream) (entity.FileContent, error) {
	tmp, err := p.tempFiles.Create(nil, ".zip")
	if err != nil {
		return entity.FileContent{}, &port.PackagingError{Err: err}
	}
	defer func() {
		_ = p.tempFiles.Delete(tmp)
	}()

	if err := p.writeZip(ctx, tmp.Path, frames); err != nil {
		return entity.FileContent{}, err
	}

	data, err := os.ReadFile(tmp.Path)
	if err != nil {
		return entity.FileContent{}, &port.PackagingError{Err: err}
	}

	return entity.FileContent{Path: filepath.Base(tmp.Path), Content: data}, nil
}

func (p *ZipPackager) writeZip(ctx context.Context, path string, frames port.FrameStream) error {
	f, err := os.Create(path)
	if err != nil {
		return &port.PackagingError{Err: err}
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for {
		select {
		case <-ctx.Done():
			zw.Close()
			return &port.PackagingError{Err: ctx.Err()}
		default:
		}

		frame, ok, err := frames.Next(ctx)
		if err != nil {
			zw.Close()
			return err
		}
		if !ok {
			break
		}

		w, err := zw.Create(frame.Filename)
		if err != nil {
			zw.Close()
			return &port.PackagingError{Err: err}
		}
		if _, err := w.Write(frame.Content); err != nil {
			zw.Close()
			return &port.PackagingError{Err: err}
		}
	}

	if err := zw.Close(); err != nil {
		return &port.PackagingError{Err: err}
	}
	if err := f.Close(); err != nil {
		return &port.PackagingError{Err: err}
	}
	return nil
}
