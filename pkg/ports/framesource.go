package ports

import (
	"errors"
	"image"
)

var (
	// ErrOpen is wrapped by every failure to open a video.
	ErrOpen = errors.New("open video failed")

	// ErrDecode is wrapped by every failure to seek or read a frame.
	ErrDecode = errors.New("decode frame failed")
)

// FrameSource is a decodable video addressed by zero-based frame index.
//
// A FrameSource is not safe for concurrent use. The playback controller owns
// it exclusively and only the active playback loop (or a paused preview)
// touches it.
type FrameSource interface {
	// FrameCount returns the number of frames in the video.
	FrameCount() int

	// FPS returns the nominal frame rate.
	FPS() float64

	// Seek positions the source at the given frame index.
	// Out-of-range indexes return an error wrapping ErrDecode.
	Seek(index int) error

	// ReadCurrentFrame decodes the frame at the current position.
	// The returned image is owned by the caller.
	ReadCurrentFrame() (image.Image, error)

	// Close releases decoder resources.
	Close() error
}

// SourceOpener opens a FrameSource for a path.
type SourceOpener interface {
	// Open returns an error wrapping ErrOpen when the path is not a
	// readable video.
	Open(path string) (FrameSource, error)
}
