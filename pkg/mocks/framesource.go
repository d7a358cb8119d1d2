package mocks

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/user/objecttracker/pkg/ports"
)

// FrameSource is an in-memory ports.FrameSource. Every frame is a small
// image whose first pixel encodes the frame index (see FrameIndexOf).
type FrameSource struct {
	mu sync.Mutex

	count int
	fps   float64
	pos   int

	reads           []int
	closed          bool
	readsAfterClose int

	// ReadFunc overrides frame decoding.
	ReadFunc func(index int) (image.Image, error)
	// ReadDelay is slept on every read to mimic a slow decoder.
	ReadDelay time.Duration
	// CloseErr is returned by Close.
	CloseErr error
}

// NewFrameSource creates a source with count frames at fps.
func NewFrameSource(count int, fps float64) *FrameSource {
	return &FrameSource{count: count, fps: fps}
}

func (m *FrameSource) FrameCount() int { return m.count }

func (m *FrameSource) FPS() float64 { return m.fps }

func (m *FrameSource) Seek(index int) error {
	if index < 0 || index >= m.count {
		return fmt.Errorf("%w: frame %d out of range [0,%d)", ports.ErrDecode, index, m.count)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pos = index
	return nil
}

func (m *FrameSource) ReadCurrentFrame() (image.Image, error) {
	if m.ReadDelay > 0 {
		time.Sleep(m.ReadDelay)
	}

	m.mu.Lock()
	index := m.pos
	m.reads = append(m.reads, index)
	if m.closed {
		m.readsAfterClose++
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: source closed", ports.ErrDecode)
	}
	m.mu.Unlock()

	if m.ReadFunc != nil {
		return m.ReadFunc(index)
	}
	return FrameImage(index), nil
}

func (m *FrameSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.CloseErr
}

// Reads returns the indexes read so far, in order.
func (m *FrameSource) Reads() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.reads))
	copy(out, m.reads)
	return out
}

// Closed reports whether Close was called.
func (m *FrameSource) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ReadsAfterClose counts reads attempted after Close.
func (m *FrameSource) ReadsAfterClose() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readsAfterClose
}

var _ ports.FrameSource = (*FrameSource)(nil)

// FrameImage returns the 4x4 test frame for index.
func FrameImage(index int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(0, 0, color.RGBA{R: uint8(index % 256), G: uint8(index / 256 % 256), A: 255})
	return img
}

// FrameIndexOf decodes the index written by FrameImage.
func FrameIndexOf(img image.Image) int {
	r, g, _, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
	return int(r>>8) + int(g>>8)*256
}

// Opener is a mock implementation of ports.SourceOpener.
type Opener struct {
	mu      sync.Mutex
	Sources map[string]ports.FrameSource
	opened  []string

	OpenFunc func(path string) (ports.FrameSource, error)
}

// NewOpener creates an Opener serving the given sources by path.
func NewOpener(sources map[string]ports.FrameSource) *Opener {
	return &Opener{Sources: sources}
}

func (m *Opener) Open(path string) (ports.FrameSource, error) {
	m.mu.Lock()
	m.opened = append(m.opened, path)
	m.mu.Unlock()

	if m.OpenFunc != nil {
		return m.OpenFunc(path)
	}
	if src, ok := m.Sources[path]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("%w: %s", ports.ErrOpen, path)
}

// Opened returns the paths passed to Open.
func (m *Opener) Opened() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.opened))
	copy(out, m.opened)
	return out
}

var _ ports.SourceOpener = (*Opener)(nil)
