// Package smartsource provides a SourceOpener that picks the frame
// source matching the path: image sequences for directories, ffmpeg
// decoding for video files.
package smartsource

import (
	"fmt"

	"github.com/user/objecttracker/pkg/ports"
)

// Backend identifies the source implementation chosen for a path.
type Backend string

const (
	// BackendImageSequence reads a directory of still images.
	BackendImageSequence Backend = "imageseq"
	// BackendFFmpeg decodes a video file with ffmpeg.
	BackendFFmpeg Backend = "ffmpeg"
)

// Opener dispatches Open to the sequence or video opener.
type Opener struct {
	fs       ports.FileSystem
	sequence ports.SourceOpener
	video    ports.SourceOpener
	logger   ports.Logger
}

// New creates an Opener.
func New(fs ports.FileSystem, sequence, video ports.SourceOpener, logger ports.Logger) *Opener {
	return &Opener{
		fs:       fs,
		sequence: sequence,
		video:    video,
		logger:   logger.WithComponent("source"),
	}
}

// BackendFor returns the backend Open would use for path.
func (o *Opener) BackendFor(path string) (Backend, error) {
	isDir, err := o.fs.IsDir(path)
	if err != nil {
		return "", fmt.Errorf("%w: stat %s: %w", ports.ErrOpen, path, err)
	}
	if isDir {
		return BackendImageSequence, nil
	}
	return BackendFFmpeg, nil
}

// Open opens path with the matching backend.
func (o *Opener) Open(path string) (ports.FrameSource, error) {
	backend, err := o.BackendFor(path)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("Opening %s with %s backend", path, backend)

	if backend == BackendImageSequence {
		return o.sequence.Open(path)
	}
	return o.video.Open(path)
}

var _ ports.SourceOpener = (*Opener)(nil)
