// Package transport implements the player controls on top of a
// playback.Controller without depending on any UI toolkit: the position
// slider, the transport buttons, the time and frame labels, and the gate
// that drops stale playback events.
//
// A Transport is owned by the foreground goroutine. It is not safe for
// concurrent use; the playback loop reaches it only through events the
// foreground applies with Apply.
package transport

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/user/objecttracker/pkg/playback"
	"github.com/user/objecttracker/pkg/ports"
)

// DefaultJumpProportion is the fraction of the video skipped by the jump buttons.
const DefaultJumpProportion = 0.05

// Speeds are the multipliers offered by Faster and Slower.
var Speeds = []float64{0.25, 0.5, 0.75, 1, 1.25, 1.5, 2, 3, 4, 8}

// ErrNoFrame is returned by Snapshot when nothing has been displayed yet.
var ErrNoFrame = errors.New("transport: no frame displayed")

// Player is the command surface of playback.Controller used by Transport.
type Player interface {
	LoadVideo(path string) error
	PlayFrom(index int) error
	Stop()
	SeekWhilePaused(index int) (playback.Frame, bool, error)
	ShowFrame(index int) (playback.Frame, error)
	SetSpeed(speed float64) error
	Speed() float64
	FrameCount() int
	FPS() float64
	Intent() playback.Intent
	Generation() uint64
}

// Transport holds the on-screen state of the player.
type Transport struct {
	player Player
	sink   ports.FrameSink
	logger ports.Logger
	jump   float64

	position   int
	image      image.Image
	imageIndex int

	dragging          bool
	playingBeforeDrag bool
}

// New creates a Transport driving player. sink receives snapshots and may be nil.
func New(player Player, sink ports.FrameSink, logger ports.Logger, jumpProportion float64) *Transport {
	if jumpProportion <= 0 || jumpProportion > 1 {
		jumpProportion = DefaultJumpProportion
	}
	return &Transport{
		player:     player,
		sink:       sink,
		logger:     logger.WithComponent("transport"),
		jump:       jumpProportion,
		imageIndex: -1,
	}
}

// Open loads path and starts playing it from the first frame.
func (t *Transport) Open(path string) error {
	if err := t.player.LoadVideo(path); err != nil {
		return err
	}
	t.position = 0
	t.image = nil
	t.imageIndex = -1
	t.dragging = false
	return t.command("open", t.player.PlayFrom(0))
}

// Apply updates the display from a playback event. Events from an earlier
// generation are discarded; Apply reports whether ev was applied.
func (t *Transport) Apply(ev playback.Event) bool {
	if current := t.player.Generation(); ev.Generation != current {
		t.logger.Debug("Discarded stale %s event (generation %d, current %d)", ev.Kind, ev.Generation, current)
		return false
	}
	if ev.Kind == playback.FrameProduced {
		if !t.dragging {
			t.position = ev.FrameIndex
		}
		t.image = ev.Image
		t.imageIndex = ev.FrameIndex
	}
	return true
}

// TogglePlay is the play button: pause while playing, replay from the start
// after the end, otherwise resume from the slider position.
func (t *Transport) TogglePlay() error {
	if !t.loaded() {
		return nil
	}
	switch t.player.Intent() {
	case playback.Playing:
		t.player.Stop()
		return nil
	case playback.Ended:
		t.position = 0
		return t.command("replay", t.player.PlayFrom(0))
	default:
		return t.command("play", t.player.PlayFrom(t.position))
	}
}

// FirstFrame rewinds to frame 0, keeping playback running if it was.
func (t *Transport) FirstFrame() error {
	return t.moveTo(0)
}

// JumpBackward moves back by the jump proportion of the video.
func (t *Transport) JumpBackward() error {
	if !t.loaded() {
		return nil
	}
	return t.moveTo(t.position - t.jumpFrames())
}

// JumpForward moves ahead by the jump proportion of the video. A jump that
// would reach the end behaves like LastFrame.
func (t *Transport) JumpForward() error {
	if !t.loaded() {
		return nil
	}
	target := t.position + t.jumpFrames()
	if target >= t.Max() {
		return t.LastFrame()
	}
	return t.moveTo(target)
}

// LastFrame stops playback and shows the final frame. The next TogglePlay
// replays from the start.
func (t *Transport) LastFrame() error {
	if !t.loaded() {
		return nil
	}
	t.player.Stop()
	return t.preview(t.Max())
}

// StepForward pauses and shows the next frame.
func (t *Transport) StepForward() error {
	return t.step(1)
}

// StepBackward pauses and shows the previous frame.
func (t *Transport) StepBackward() error {
	return t.step(-1)
}

func (t *Transport) step(delta int) error {
	if !t.loaded() {
		return nil
	}
	t.player.Stop()
	return t.preview(t.position + delta)
}

// BeginDrag presses the slider at pixel x of a slider width pixels wide.
// Running playback is stopped and resumed by EndDrag.
func (t *Transport) BeginDrag(x, width int) error {
	if !t.loaded() {
		return nil
	}
	t.dragging = true
	t.playingBeforeDrag = t.player.Intent() == playback.Playing
	if t.playingBeforeDrag {
		t.player.Stop()
	}
	return t.preview(t.SliderValueAt(x, width))
}

// DragTo moves a pressed slider to pixel x.
func (t *Transport) DragTo(x, width int) error {
	if !t.dragging {
		return nil
	}
	return t.preview(t.SliderValueAt(x, width))
}

// EndDrag releases the slider at pixel x. Releasing on the last frame ends
// the video; otherwise playback resumes if it was running at BeginDrag.
func (t *Transport) EndDrag(x, width int) error {
	if !t.dragging {
		return nil
	}
	t.dragging = false

	value := t.SliderValueAt(x, width)
	if err := t.preview(value); err != nil {
		return err
	}
	if value == t.Max() || !t.playingBeforeDrag {
		return t.settle()
	}
	return t.command("resume", t.player.PlayFrom(value))
}

// settle makes the displayed image match the slider when a throttled
// preview left an older frame on screen.
func (t *Transport) settle() error {
	if t.imageIndex == t.position {
		return nil
	}
	frame, err := t.player.ShowFrame(t.position)
	if err != nil {
		return t.command("settle", err)
	}
	t.image = frame.Image
	t.imageIndex = frame.Index
	return nil
}

// Faster switches to the next speed in Speeds.
func (t *Transport) Faster() error {
	current := t.player.Speed()
	for _, s := range Speeds {
		if s > current+1e-9 {
			return t.command("faster", t.player.SetSpeed(s))
		}
	}
	return nil
}

// Slower switches to the previous speed in Speeds.
func (t *Transport) Slower() error {
	current := t.player.Speed()
	for i := len(Speeds) - 1; i >= 0; i-- {
		if Speeds[i] < current-1e-9 {
			return t.command("slower", t.player.SetSpeed(Speeds[i]))
		}
	}
	return nil
}

// Speed returns the playback speed multiplier.
func (t *Transport) Speed() float64 {
	return t.player.Speed()
}

// Dragging reports whether the slider is pressed.
func (t *Transport) Dragging() bool {
	return t.dragging
}

// SliderValueAt maps pixel x of a slider width pixels wide to a frame index.
func (t *Transport) SliderValueAt(x, width int) int {
	if width <= 0 {
		return 0
	}
	v := int(math.Round(float64(x) / float64(width) * float64(t.Max())))
	return clamp(v, 0, t.Max())
}

// Snapshot saves the displayed frame to the sink.
func (t *Transport) Snapshot() (int, error) {
	if t.image == nil {
		return 0, ErrNoFrame
	}
	if t.sink == nil || !t.sink.Enabled() {
		return t.imageIndex, nil
	}
	if err := t.sink.SaveFrame(t.imageIndex, t.image); err != nil {
		return t.imageIndex, fmt.Errorf("snapshot frame %d: %w", t.imageIndex, err)
	}
	t.logger.Info("Saved snapshot of frame %d", t.imageIndex)
	return t.imageIndex, nil
}

// moveTo goes to index, restarting playback there if it is running and
// previewing the frame otherwise.
func (t *Transport) moveTo(index int) error {
	if !t.loaded() {
		return nil
	}
	index = clamp(index, 0, t.Max())
	if t.player.Intent() == playback.Playing {
		t.position = index
		return t.command("seek", t.player.PlayFrom(index))
	}
	return t.preview(index)
}

// preview moves the slider to index and fetches the frame for display.
// A throttled fetch leaves the previous image on screen.
func (t *Transport) preview(index int) error {
	t.position = clamp(index, 0, t.Max())
	frame, ok, err := t.player.SeekWhilePaused(t.position)
	if err != nil {
		return t.command("preview", err)
	}
	if ok {
		t.image = frame.Image
		t.imageIndex = frame.Index
	}
	return nil
}

func (t *Transport) command(name string, err error) error {
	if err != nil {
		t.logger.Warn("Transport command %s failed: %v", name, err)
	}
	return err
}

func (t *Transport) jumpFrames() int {
	return int(math.Round(t.jump * float64(t.Max()+1)))
}

func (t *Transport) loaded() bool {
	return t.player.FrameCount() > 0
}

// Position returns the slider position.
func (t *Transport) Position() int {
	return t.position
}

// Max returns the slider maximum, the index of the last frame.
func (t *Transport) Max() int {
	if n := t.player.FrameCount(); n > 0 {
		return n - 1
	}
	return 0
}

// Image returns the displayed frame, or nil.
func (t *Transport) Image() image.Image {
	return t.image
}

// ImageIndex returns the index of the displayed frame, or -1.
func (t *Transport) ImageIndex() int {
	return t.imageIndex
}

// Intent returns the transport intent shown on the play button.
func (t *Transport) Intent() playback.Intent {
	return t.player.Intent()
}

// TimeLabel renders "Time: current / total".
func (t *Transport) TimeLabel() string {
	if !t.loaded() {
		return "Time: 0:00 / 0:00"
	}
	fps := t.player.FPS()
	current := float64(t.position) / fps
	total := float64(t.player.FrameCount()) / fps
	return fmt.Sprintf("Time: %s / %s", TimeString(current), TimeString(total))
}

// FrameLabel renders "Frames: current / total" with a 1-based current frame.
func (t *Transport) FrameLabel() string {
	if !t.loaded() {
		return "Frames: 0 / 0"
	}
	return fmt.Sprintf("Frames: %d / %d", t.position+1, t.player.FrameCount())
}

// TimeString formats seconds as m:ss. Seconds are truncated; non-finite
// values render as NaN.
func TimeString(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "NaN"
	}
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
