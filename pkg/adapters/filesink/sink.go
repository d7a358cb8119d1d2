// Package filesink provides a file-based frame sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/objecttracker/pkg/ports"
)

// Sink saves frames as numbered PNG files in a directory.
type Sink struct {
	baseDir  string
	prefix   string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new FileSink writing <baseDir>/<prefix>-NNNNN.png.
func New(baseDir, prefix string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	if prefix == "" {
		prefix = "frame"
	}
	return &Sink{
		baseDir:  baseDir,
		prefix:   prefix,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveFrame encodes img as PNG under its frame index. Saving the same
// index twice overwrites the earlier file.
func (s *Sink) SaveFrame(index int, img image.Image) error {
	if err := s.fs.MkdirAll(s.baseDir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", index, err)
	}
	return s.fs.WriteFile(s.Path(index), data)
}

// Path returns the file a frame index is saved to.
func (s *Sink) Path(index int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s-%05d.png", s.prefix, index))
}

// Ensure Sink implements ports.FrameSink
var _ ports.FrameSink = (*Sink)(nil)
