package port

import "fmt"

// StorageError reports a failure in one of the storage ports.
type StorageError struct {
	Op   string // "download" or "upload"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// TempFileError reports a failure of the temp file manager.
type TempFileError struct {
	Op   string // "create", "delete" or "size"
	Path string
	Err  error
}

func (e *TempFileError) Error() string {
	return fmt.Sprintf("temp file %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *TempFileError) Unwrap() error { return e.Err }

// MetadataError reports a failure while reading video metadata.
type MetadataError struct {
	Path string
	Err  error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("read video metadata %s: %v", e.Path, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// ValidationError reports a video rejected by a validator.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "video validation: " + e.Reason
}

// SelectionError reports a failure to compute a frame selection.
type SelectionError struct {
	Reason string
}

func (e *SelectionError) Error() string {
	return "frame selection: " + e.Reason
}

// ExtractionError reports a failure while decoding or encoding a frame.
// Index is -1 when the failure is not tied to a specific frame.
type ExtractionError struct {
	Index int
	Err   error
}

func (e *ExtractionError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("frame extraction: %v", e.Err)
	}
	return fmt.Sprintf("frame extraction at index %d: %v", e.Index, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// PackagingError reports a failure while building the frame archive.
type PackagingError struct {
	Err error
}

func (e *PackagingError) Error() string {
	return fmt.Sprintf("frame packaging: %v", e.Err)
}

func (e *PackagingError) Unwrap() error { return e.Err }

// PublishError reports a failure to publish a domain event.
type PublishError struct {
	EventType string
	Err       error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish event %s: %v", e.EventType, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
