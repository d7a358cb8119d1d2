// Package ffmpegsource provides a FrameSource that decodes single frames
// of a video file by index with an external ffmpeg process.
package ffmpegsource

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/user/objecttracker/pkg/adapters/mp4probe"
	"github.com/user/objecttracker/pkg/ports"
)

// ErrFFmpegNotFound is returned when no ffmpeg executable can be located.
var ErrFFmpegNotFound = errors.New("ffmpeg not found")

// RunFunc runs the ffmpeg executable with args and returns its stdout.
type RunFunc func(ffmpegPath string, args []string) ([]byte, error)

// ProbeFunc reads video metadata from path.
type ProbeFunc func(path string) (mp4probe.Info, error)

// Options configures an Opener. Zero values select ffmpeg from PATH,
// exec, mp4probe, and ffprobe as the fallback for other containers.
type Options struct {
	FFmpegPath  string
	FFprobePath string
	Run         RunFunc
	Probe       ProbeFunc
	Fallback    ProbeFunc
}

// Opener opens video files as ffmpeg-backed frame sources.
type Opener struct {
	renderer ports.Renderer
	logger   ports.Logger
	opts     Options
}

// NewOpener creates an Opener. renderer decodes the PNG frames ffmpeg emits.
func NewOpener(renderer ports.Renderer, logger ports.Logger, opts Options) *Opener {
	if opts.Run == nil {
		opts.Run = runFFmpeg
	}
	if opts.Probe == nil {
		opts.Probe = mp4probe.ProbeFile
	}
	if opts.Fallback == nil {
		opts.Fallback = FFprobe(opts.FFprobePath, opts.FFmpegPath, opts.Run)
	}
	return &Opener{
		renderer: renderer,
		logger:   logger.WithComponent("source"),
		opts:     opts,
	}
}

// Open probes path and returns a FrameSource for it.
func (o *Opener) Open(path string) (ports.FrameSource, error) {
	ffmpegPath, err := findFFmpeg(o.opts.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrOpen, err)
	}

	info, err := o.Probe(path)
	if err != nil {
		return nil, fmt.Errorf("%w: probe %s: %w", ports.ErrOpen, path, err)
	}
	if info.FrameCount <= 0 {
		return nil, fmt.Errorf("%w: %s has no frames", ports.ErrOpen, path)
	}
	if info.FPS <= 0 || math.IsNaN(info.FPS) || math.IsInf(info.FPS, 0) {
		return nil, fmt.Errorf("%w: %s has no usable frame rate", ports.ErrOpen, path)
	}

	o.logger.Info("Probed %s: codec %s, %d frames, %.2f fps", path, info.Codec, info.FrameCount, info.FPS)

	return &Source{
		path:       path,
		ffmpegPath: ffmpegPath,
		info:       info,
		run:        o.opts.Run,
		renderer:   o.renderer,
		logger:     o.logger,
	}, nil
}

// Probe reads the metadata of path with mp4probe, falling back to ffprobe
// for containers that are not MP4.
func (o *Opener) Probe(path string) (mp4probe.Info, error) {
	info, err := o.opts.Probe(path)
	if err == nil {
		return info, nil
	}

	o.logger.Debug("MP4 probe of %s failed, trying ffprobe: %v", path, err)
	info, fallbackErr := o.opts.Fallback(path)
	if fallbackErr != nil {
		return mp4probe.Info{}, fmt.Errorf("%w (ffprobe: %w)", err, fallbackErr)
	}
	return info, nil
}

var _ ports.SourceOpener = (*Opener)(nil)

// Source implements ports.FrameSource. Every read runs ffmpeg once,
// seeking to the frame's timestamp and emitting it as PNG on stdout.
type Source struct {
	path       string
	ffmpegPath string
	info       mp4probe.Info
	run        RunFunc
	renderer   ports.Renderer
	logger     ports.Logger

	mu     sync.Mutex
	pos    int
	closed bool
}

func (s *Source) FrameCount() int { return s.info.FrameCount }

func (s *Source) FPS() float64 { return s.info.FPS }

// Info returns the probed metadata.
func (s *Source) Info() mp4probe.Info { return s.info }

// Seek sets the frame read by the next ReadCurrentFrame.
func (s *Source) Seek(index int) error {
	if index < 0 || index >= s.info.FrameCount {
		return fmt.Errorf("%w: frame %d out of range [0,%d)", ports.ErrDecode, index, s.info.FrameCount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = index
	return nil
}

// ReadCurrentFrame decodes the frame at the current position.
func (s *Source) ReadCurrentFrame() (image.Image, error) {
	s.mu.Lock()
	index, closed := s.pos, s.closed
	s.mu.Unlock()

	if closed {
		return nil, fmt.Errorf("%w: source closed", ports.ErrDecode)
	}

	s.logger.Debug("Decoding frame %d with ffmpeg", index)

	out, err := s.run(s.ffmpegPath, frameArgs(s.path, index, s.info.FPS))
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg frame %d: %w", ports.ErrDecode, index, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: ffmpeg returned no data for frame %d", ports.ErrDecode, index)
	}

	img, err := s.renderer.DecodeImage(out, ports.FormatPNG)
	if err != nil {
		return nil, fmt.Errorf("%w: decode png: %w", ports.ErrDecode, err)
	}
	return img, nil
}

// Close marks the source closed. No process outlives a read, so there is
// nothing else to release.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ ports.FrameSource = (*Source)(nil)

// frameArgs builds the ffmpeg arguments extracting frame index. The input
// seek lands half a frame early so rounding never skips the wanted frame.
func frameArgs(path string, index int, fps float64) []string {
	seek := (float64(index) - 0.5) / fps
	if seek < 0 {
		seek = 0
	}
	return []string{
		"-v", "error",
		"-ss", strconv.FormatFloat(seek, 'f', 6, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1",
	}
}

func runFFmpeg(ffmpegPath string, args []string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(ffmpegPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w\nstderr: %s", filepath.Base(ffmpegPath), err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// findFFmpeg searches for ffmpeg in PATH and common locations.
// If customPath is set, it uses that path instead.
func findFFmpeg(customPath string) (string, error) {
	if customPath != "" {
		if _, err := os.Stat(customPath); err == nil {
			return customPath, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, customPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}

	path, err := lookPath(execName)
	if err == nil {
		return path, nil
	}

	for _, dir := range commonDirs() {
		p := filepath.Join(dir, execName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrFFmpegNotFound
}

var lookPath = exec.LookPath

// commonDirs lists the usual ffmpeg install directories outside PATH.
func commonDirs() []string {
	if runtime.GOOS == "windows" {
		return []string{
			`C:\ffmpeg\bin`,
			`C:\Program Files\ffmpeg\bin`,
			`C:\Program Files (x86)\ffmpeg\bin`,
		}
	}
	return []string{
		"/usr/bin",
		"/usr/local/bin",
		"/opt/homebrew/bin",
		"/snap/bin",
	}
}

// Available reports whether an ffmpeg executable can be found.
func Available(customPath string) bool {
	_, err := findFFmpeg(customPath)
	return err == nil
}
