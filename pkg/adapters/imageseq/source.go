// Package imageseq provides a FrameSource over a directory of numbered
// still images, such as frames exported by another tool. Files are
// ordered by name; PNG and JPEG are supported.
package imageseq

import (
	"fmt"
	"image"
	"math"
	"path/filepath"
	"strings"
	"sync"

	"github.com/user/objecttracker/pkg/ports"
)

// DefaultFPS is the frame rate assumed for a sequence when none is given.
const DefaultFPS = 25.0

var formats = map[string]ports.ImageFormat{
	".png":  ports.FormatPNG,
	".jpg":  ports.FormatJPEG,
	".jpeg": ports.FormatJPEG,
}

// Opener opens image directories as frame sources.
type Opener struct {
	fs       ports.FileSystem
	renderer ports.Renderer
	logger   ports.Logger
	fps      float64
}

// NewOpener creates an Opener playing sequences at fps.
func NewOpener(fs ports.FileSystem, renderer ports.Renderer, logger ports.Logger, fps float64) *Opener {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		fps = DefaultFPS
	}
	return &Opener{
		fs:       fs,
		renderer: renderer,
		logger:   logger.WithComponent("source"),
		fps:      fps,
	}
}

// Open lists the images in dir.
func (o *Opener) Open(dir string) (ports.FrameSource, error) {
	names, err := o.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ports.ErrOpen, dir, err)
	}

	var files []string
	for _, name := range names {
		if _, ok := formats[strings.ToLower(filepath.Ext(name))]; ok {
			files = append(files, filepath.Join(dir, name))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no PNG or JPEG frames in %s", ports.ErrOpen, dir)
	}

	o.logger.Info("Found %d image frames in %s", len(files), dir)

	return &Source{
		files:    files,
		fps:      o.fps,
		fs:       o.fs,
		renderer: o.renderer,
	}, nil
}

var _ ports.SourceOpener = (*Opener)(nil)

// Source implements ports.FrameSource. Frames are decoded on every read
// and nothing is cached.
type Source struct {
	files    []string
	fps      float64
	fs       ports.FileSystem
	renderer ports.Renderer

	mu     sync.Mutex
	pos    int
	closed bool
}

func (s *Source) FrameCount() int { return len(s.files) }

func (s *Source) FPS() float64 { return s.fps }

// Seek sets the frame read by the next ReadCurrentFrame.
func (s *Source) Seek(index int) error {
	if index < 0 || index >= len(s.files) {
		return fmt.Errorf("%w: frame %d out of range [0,%d)", ports.ErrDecode, index, len(s.files))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = index
	return nil
}

// ReadCurrentFrame reads and decodes the image at the current position.
func (s *Source) ReadCurrentFrame() (image.Image, error) {
	s.mu.Lock()
	index, closed := s.pos, s.closed
	s.mu.Unlock()

	if closed {
		return nil, fmt.Errorf("%w: source closed", ports.ErrDecode)
	}

	path := s.files[index]
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ports.ErrDecode, path, err)
	}

	img, err := s.renderer.DecodeImage(data, formats[strings.ToLower(filepath.Ext(path))])
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ports.ErrDecode, path, err)
	}
	return img, nil
}

// Close marks the source closed.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Files returns the frame files in playback order.
func (s *Source) Files() []string {
	out := make([]string, len(s.files))
	copy(out, s.files)
	return out
}

var _ ports.FrameSource = (*Source)(nil)
