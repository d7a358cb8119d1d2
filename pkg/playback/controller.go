package playback

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/user/objecttracker/pkg/ports"
)

var (
	// ErrNoVideo is returned by transport commands before a video is loaded.
	ErrNoVideo = errors.New("playback: no video loaded")

	// ErrRunning is returned by SeekWhilePaused while a loop is producing frames.
	ErrRunning = errors.New("playback: playback is running")
)

const (
	// DefaultUpdateInterval paces the loop. It limits how often the UI is
	// updated; the playback rate is governed by the Clock alone.
	DefaultUpdateInterval = 20 * time.Millisecond

	// DefaultPreviewInterval is the minimum spacing of SeekWhilePaused reads.
	DefaultPreviewInterval = 50 * time.Millisecond

	// DefaultEventBuffer is the capacity of the Events channel.
	DefaultEventBuffer = 8
)

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	Speed           float64
	UpdateInterval  time.Duration
	PreviewInterval time.Duration
	EventBuffer     int
	Wall            WallClock
}

// DefaultOptions returns Options with default values.
func DefaultOptions() Options {
	return Options{
		Speed:           DefaultSpeed,
		UpdateInterval:  DefaultUpdateInterval,
		PreviewInterval: DefaultPreviewInterval,
		EventBuffer:     DefaultEventBuffer,
		Wall:            SystemClock(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Speed <= 0 || math.IsNaN(o.Speed) {
		o.Speed = d.Speed
	}
	if o.UpdateInterval <= 0 {
		o.UpdateInterval = d.UpdateInterval
	}
	if o.PreviewInterval <= 0 {
		o.PreviewInterval = d.PreviewInterval
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = d.EventBuffer
	}
	if o.Wall == nil {
		o.Wall = d.Wall
	}
	return o
}

// session is one run of the frame-production loop.
type session struct {
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

// Controller owns a FrameSource and a Clock and runs the frame-production
// loop. All methods are safe for concurrent use; commands are serialised.
type Controller struct {
	opener    ports.SourceOpener
	annotator ports.Annotator
	logger    ports.Logger
	opts      Options
	events    chan Event

	// cmdMu serialises commands. It is never taken by the loop.
	cmdMu   sync.Mutex
	preview *rate.Limiter

	mu         sync.Mutex
	source     ports.FrameSource
	clock      *Clock
	path       string
	state      State
	intent     Intent
	generation uint64
	speed      float64
	session    *session

	framesProduced    atomic.Int64
	framesSkipped     atomic.Int64
	previewsServed    atomic.Int64
	previewsThrottled atomic.Int64
	decodeErrors      atomic.Int64
	sessions          atomic.Int64
}

// New creates a Controller in StateIdle. annotator may be nil, in which
// case frames are emitted unannotated.
func New(opener ports.SourceOpener, annotator ports.Annotator, logger ports.Logger, opts Options) *Controller {
	opts = opts.withDefaults()
	if annotator == nil {
		annotator = ports.PassThrough
	}
	return &Controller{
		opener:    opener,
		annotator: annotator,
		logger:    logger.WithComponent("playback"),
		opts:      opts,
		events:    make(chan Event, opts.EventBuffer),
		preview:   newPreviewLimiter(opts.PreviewInterval),
		speed:     opts.Speed,
	}
}

func newPreviewLimiter(interval time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Events returns the notification stream shared by all sessions.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// LoadVideo opens path and installs it as the current video.
//
// The new source is opened before the current session is touched, so a
// failed open leaves the previous video loaded and playing.
func (c *Controller) LoadVideo(path string) error {
	if c.opener == nil {
		return fmt.Errorf("%w: no source opener configured", ports.ErrOpen)
	}

	src, err := c.opener.Open(path)
	if err != nil {
		c.logger.Error("Failed to open %s: %v", path, err)
		if !errors.Is(err, ports.ErrOpen) {
			err = fmt.Errorf("%w: %w", ports.ErrOpen, err)
		}
		return err
	}

	if err := c.LoadSource(src); err != nil {
		src.Close()
		return err
	}

	c.mu.Lock()
	c.path = path
	c.mu.Unlock()

	c.logger.Info("Opened %s: %d frames at %.2f fps", path, src.FrameCount(), src.FPS())
	return nil
}

// LoadSource installs src as the current video, leaving the controller in
// StateStopped. A running loop is stopped and joined, and the previous
// source closed, before src becomes visible.
func (c *Controller) LoadSource(src ports.FrameSource) error {
	fps := src.FPS()
	if src.FrameCount() <= 0 {
		return fmt.Errorf("%w: video has no frames", ports.ErrOpen)
	}
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return fmt.Errorf("%w: invalid frame rate %v", ports.ErrOpen, fps)
	}

	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	c.stopLocked()

	c.mu.Lock()
	old := c.source
	c.source = nil
	c.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			c.logger.Warn("Failed to close previous video: %v", err)
		}
	}

	c.mu.Lock()
	c.source = src
	c.clock = NewClock(fps, src.FrameCount(), c.opts.Wall)
	c.path = ""
	c.state = StateStopped
	c.intent = Paused
	c.generation++
	c.session = nil
	c.mu.Unlock()

	c.preview = newPreviewLimiter(c.opts.PreviewInterval)
	return nil
}

// PlayFrom stops any running loop, restarts the clock at index and starts a
// new loop. index is clamped to the video.
func (c *Controller) PlayFrom(index int) error {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	return c.playFromLocked(index)
}

// playFromLocked starts a session at index. Callers hold cmdMu.
func (c *Controller) playFromLocked(index int) error {
	c.mu.Lock()
	loaded := c.source != nil
	c.mu.Unlock()
	if !loaded {
		return ErrNoVideo
	}

	c.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	index = clampFrame(index, c.source.FrameCount())
	c.clock.Reset(index, c.speed)
	c.generation++
	s := &session{
		generation: c.generation,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	c.session = s
	c.state = StateRunning
	c.intent = Playing
	src, clock, speed := c.source, c.clock, c.speed
	c.mu.Unlock()

	c.sessions.Add(1)
	c.logger.Debug("Playing from frame %d at %.2fx (session %d)", index, speed, s.generation)

	go c.run(ctx, s, src, clock)
	return nil
}

// Stop ends the running loop and blocks until it has exited. No event of
// the stopped session is emitted after Stop returns. Stop is a no-op when
// nothing is running.
func (c *Controller) Stop() {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	c.stopLocked()

	c.mu.Lock()
	if c.intent == Playing {
		c.intent = Paused
	}
	c.mu.Unlock()
}

// stopLocked cancels and joins the current session. Callers hold cmdMu.
func (c *Controller) stopLocked() {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.mu.Unlock()

	if s == nil {
		return
	}

	s.cancel()
	<-s.done

	c.mu.Lock()
	if c.state == StateRunning {
		c.state = StateStopped
		c.generation++
		c.logger.Debug("Stopped session %d", s.generation)
	}
	c.mu.Unlock()
}

// SeekWhilePaused reads and annotates a single frame for preview without
// starting playback. Reads are rate limited: a call arriving sooner than the
// preview interval after the last served read returns ok == false and
// touches nothing but the transport intent.
//
// Seeking to the last frame sets the intent to Ended; any other index sets
// Paused.
func (c *Controller) SeekWhilePaused(index int) (frame Frame, ok bool, err error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	return c.seekLocked(index, true)
}

// ShowFrame is SeekWhilePaused without the rate limit. It is meant for the
// frame a slider settles on, which must be displayed even when the drag
// before it used up the preview budget.
func (c *Controller) ShowFrame(index int) (Frame, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	frame, _, err := c.seekLocked(index, false)
	return frame, err
}

// seekLocked implements the paused seeks. Callers hold cmdMu.
func (c *Controller) seekLocked(index int, throttled bool) (Frame, bool, error) {
	c.mu.Lock()
	src, state := c.source, c.state
	if src == nil {
		c.mu.Unlock()
		return Frame{}, false, ErrNoVideo
	}
	if state == StateRunning {
		c.mu.Unlock()
		return Frame{}, false, ErrRunning
	}
	index = clampFrame(index, src.FrameCount())
	c.state = StateStopped
	if index == c.clock.LastFrame() {
		c.intent = Ended
	} else {
		c.intent = Paused
	}
	gen := c.generation
	c.mu.Unlock()

	if throttled && !c.preview.AllowN(c.opts.Wall.Now(), 1) {
		c.previewsThrottled.Add(1)
		c.logger.Debug("Preview of frame %d throttled", index)
		return Frame{}, false, nil
	}

	img, err := c.readFrame(src, index)
	if err != nil {
		c.decodeErrors.Add(1)
		c.logger.Warn("Preview of frame %d failed: %v", index, err)
		return Frame{}, false, err
	}

	c.previewsServed.Add(1)
	return Frame{Index: index, Generation: gen, Image: img}, true, nil
}

// SetSpeed changes the speed multiplier. A running loop is restarted from
// its current target frame so the change takes effect immediately; a
// stopped controller keeps the speed for the next PlayFrom.
func (c *Controller) SetSpeed(speed float64) error {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return fmt.Errorf("playback: invalid speed %v", speed)
	}

	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	c.mu.Lock()
	c.speed = speed
	running := c.state == StateRunning && c.session != nil
	var from int
	if running {
		from = c.clock.TargetFrame()
	}
	c.mu.Unlock()

	c.logger.Debug("Speed set to %.2fx", speed)
	if running {
		return c.playFromLocked(from)
	}
	return nil
}

// Close stops playback and releases the current video.
func (c *Controller) Close() error {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	c.stopLocked()

	c.mu.Lock()
	src := c.source
	c.source = nil
	c.clock = nil
	c.state = StateIdle
	c.intent = Paused
	c.generation++
	c.mu.Unlock()

	if src != nil {
		return src.Close()
	}
	return nil
}

// run is the frame-production loop of one session.
func (c *Controller) run(ctx context.Context, s *session, src ports.FrameSource, clock *Clock) {
	defer close(s.done)

	last := clock.LastFrame()
	prev := -1

	for ctx.Err() == nil {
		target := clock.TargetFrame()
		final := target >= last
		if final {
			target = last
		}

		if target != prev {
			img, err := c.readFrame(src, target)
			if err != nil {
				c.decodeErrors.Add(1)
				c.logger.Warn("Decode failed at frame %d, ending playback: %v", target, err)
				c.finish(ctx, s)
				return
			}
			if prev >= 0 && target > prev+1 {
				c.framesSkipped.Add(int64(target - prev - 1))
			}
			if !c.emit(ctx, Event{Kind: FrameProduced, Generation: s.generation, FrameIndex: target, Image: img}) {
				return
			}
			c.framesProduced.Add(1)
			prev = target
		}

		if final {
			c.finish(ctx, s)
			return
		}

		if !sleep(ctx, c.opts.UpdateInterval) {
			return
		}
	}
}

// finish marks the session ended and emits StreamEnded.
func (c *Controller) finish(ctx context.Context, s *session) {
	c.mu.Lock()
	if c.session == s && c.generation == s.generation {
		c.state = StateEnded
		c.intent = Ended
	}
	c.mu.Unlock()

	if c.emit(ctx, Event{Kind: StreamEnded, Generation: s.generation}) {
		c.logger.Debug("Session %d reached end of stream", s.generation)
	}
}

func (c *Controller) emit(ctx context.Context, ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Controller) readFrame(src ports.FrameSource, index int) (image.Image, error) {
	if err := src.Seek(index); err != nil {
		return nil, decodeError("seek", index, err)
	}
	img, err := src.ReadCurrentFrame()
	if err != nil {
		return nil, decodeError("read", index, err)
	}
	if img == nil {
		return nil, fmt.Errorf("%w: read frame %d: empty image", ports.ErrDecode, index)
	}
	return c.annotator.Annotate(img), nil
}

func decodeError(op string, index int, err error) error {
	if errors.Is(err, ports.ErrDecode) {
		return fmt.Errorf("%s frame %d: %w", op, index, err)
	}
	return fmt.Errorf("%w: %s frame %d: %w", ports.ErrDecode, op, index, err)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// FrameCount returns the frame count of the loaded video, or 0.
func (c *Controller) FrameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.source == nil {
		return 0
	}
	return c.source.FrameCount()
}

// FPS returns the frame rate of the loaded video, or 0.
func (c *Controller) FPS() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.source == nil {
		return 0
	}
	return c.source.FPS()
}

// IsPlaying reports whether the user intent is Playing.
func (c *Controller) IsPlaying() bool {
	return c.Intent() == Playing
}

// Intent returns the transport intent.
func (c *Controller) Intent() Intent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intent
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generation returns the current session generation. Events carrying any
// other generation are stale.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// IsCurrent reports whether ev belongs to the current generation.
func (c *Controller) IsCurrent(ev Event) bool {
	return ev.Generation == c.Generation()
}

// Speed returns the speed multiplier used by the next PlayFrom.
func (c *Controller) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// Path returns the path of the loaded video, empty for sources installed
// with LoadSource.
func (c *Controller) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

// Stats returns a snapshot of the controller counters.
func (c *Controller) Stats() Stats {
	return Stats{
		FramesProduced:    c.framesProduced.Load(),
		FramesSkipped:     c.framesSkipped.Load(),
		PreviewsServed:    c.previewsServed.Load(),
		PreviewsThrottled: c.previewsThrottled.Load(),
		DecodeErrors:      c.decodeErrors.Load(),
		Sessions:          c.sessions.Load(),
	}
}
