package entity

// FileContent is an opaque byte payload together with its logical path.
type FileContent struct {
	Path    string
	Content []byte
}

// TempFile is a handle to a transient file on disk. Whoever creates it owns
// it until the use case releases it at the end of the run.
type TempFile struct {
	Path string
}

// VideoMetadata describes a downloaded video. It is produced once per run
// and never mutated.
type VideoMetadata struct {
	Path            string
	DurationSeconds float64
	FrameCount      int
	FPS             float64
	SizeInBytes     int64
}

// FrameSelection is the ordered set of frame indexes to extract. Insertion
// order is extraction order.
type FrameSelection struct {
	Indexes []int
}

// RawFrame is a single extracted frame, already encoded as an image.
type RawFrame struct {
	Index    int
	Filename string
	Content  []byte
}
