// Package playback keeps a decoded video, a wall-time playback clock and a
// user-facing position mutually consistent.
//
// A Controller owns one ports.FrameSource at a time and runs at most one
// frame-production loop on its own goroutine. The loop never touches UI
// state: it emits immutable Event values tagged with a generation number,
// and consumers drop events whose generation is no longer current.
package playback

import (
	"math"
	"sync"
	"time"
)

// DefaultSpeed is the playback speed multiplier used when none is given.
const DefaultSpeed = 1.0

// WallClock supplies the current time. Tests substitute a manual clock.
type WallClock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the WallClock backed by time.Now.
func SystemClock() WallClock {
	return systemClock{}
}

// Clock maps elapsed wall time and a speed multiplier to a target frame.
//
// The target is derived from time elapsed since the last Reset rather than
// counted per loop iteration, so a late loop skips frames instead of
// drifting behind.
type Clock struct {
	wall       WallClock
	fps        float64
	frameCount int

	mu            sync.Mutex
	startingFrame int
	speed         float64
	epoch         time.Time
}

// NewClock creates a clock for a video with the given frame rate and length.
// The clock starts at frame 0 with DefaultSpeed.
func NewClock(fps float64, frameCount int, wall WallClock) *Clock {
	if wall == nil {
		wall = SystemClock()
	}
	return &Clock{
		wall:       wall,
		fps:        fps,
		frameCount: frameCount,
		speed:      DefaultSpeed,
		epoch:      wall.Now(),
	}
}

// Reset restarts the clock at startFrame. Non-positive speeds fall back to
// DefaultSpeed.
func (c *Clock) Reset(startFrame int, speed float64) {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		speed = DefaultSpeed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.startingFrame = startFrame
	c.speed = speed
	c.epoch = c.wall.Now()
}

// TargetFrame returns the frame that should be on screen now, rounded to the
// nearest index and clamped to [0, frameCount-1].
func (c *Clock) TargetFrame() int {
	c.mu.Lock()
	start, speed, epoch := c.startingFrame, c.speed, c.epoch
	c.mu.Unlock()

	elapsed := c.wall.Now().Sub(epoch).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	target := int(math.Round(float64(start) + speed*c.fps*elapsed))
	return clampFrame(target, c.frameCount)
}

// StartingFrame returns the frame the clock was last reset to.
func (c *Clock) StartingFrame() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startingFrame
}

// Speed returns the current speed multiplier.
func (c *Clock) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// LastFrame returns the index of the final frame, or 0 for an empty video.
func (c *Clock) LastFrame() int {
	return clampFrame(c.frameCount-1, c.frameCount)
}

func clampFrame(index, frameCount int) int {
	if index > frameCount-1 {
		index = frameCount - 1
	}
	if index < 0 {
		index = 0
	}
	return index
}
