// Package export plays a video headlessly and persists every annotated
// frame the playback loop emits.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/user/objecttracker/pkg/playback"
	"github.com/user/objecttracker/pkg/ports"
)

// Player is the part of playback.Controller the exporter drives.
type Player interface {
	LoadVideo(path string) error
	PlayFrom(index int) error
	Stop()
	Events() <-chan playback.Event
	Generation() uint64
	FrameCount() int
	FPS() float64
	Speed() float64
	Stats() playback.Stats
}

// Config contains the configuration of one export run.
type Config struct {
	InputPath  string
	OutputDir  string
	StartFrame int
}

// Result contains the outcome of an export run for summary generation.
type Result struct {
	FrameCount   int
	FPS          float64
	Speed        float64
	StartFrame   int
	Exported     int
	SaveFailures int
	Skipped      int64
	DecodeErrors int64
	LastFrame    int
	Completed    bool // true when the stream ended, false when cancelled
	Elapsed      time.Duration
}

// Exporter coordinates the player and the frame sink.
type Exporter struct {
	player Player
	sink   ports.FrameSink
	logger ports.Logger
}

// New creates a new Exporter.
func New(player Player, sink ports.FrameSink, logger ports.Logger) *Exporter {
	return &Exporter{
		player: player,
		sink:   sink,
		logger: logger,
	}
}

// Run loads cfg.InputPath, plays it from cfg.StartFrame and saves frames
// until the stream ends or ctx is cancelled. A cancelled run returns the
// partial result together with ctx.Err().
func (e *Exporter) Run(ctx context.Context, cfg Config) (Result, error) {
	started := time.Now()

	if err := e.player.LoadVideo(cfg.InputPath); err != nil {
		return Result{}, fmt.Errorf("load video: %w", err)
	}

	result := Result{
		FrameCount: e.player.FrameCount(),
		FPS:        e.player.FPS(),
		Speed:      e.player.Speed(),
		StartFrame: cfg.StartFrame,
		LastFrame:  -1,
	}

	e.logger.Info("Exporting %s at %.2fx to %s", cfg.InputPath, result.Speed, cfg.OutputDir)

	if err := e.player.PlayFrom(cfg.StartFrame); err != nil {
		return result, fmt.Errorf("start playback: %w", err)
	}

	events := e.player.Events()
	var runErr error

loop:
	for {
		select {
		case <-ctx.Done():
			e.player.Stop()
			e.logger.Warn("Export cancelled at frame %d", result.LastFrame)
			runErr = ctx.Err()
			break loop

		case ev := <-events:
			if ev.Generation != e.player.Generation() {
				continue
			}
			if ev.Kind == playback.StreamEnded {
				result.Completed = true
				break loop
			}
			e.save(ev, &result)
		}
	}

	stats := e.player.Stats()
	result.Skipped = stats.FramesSkipped
	result.DecodeErrors = stats.DecodeErrors
	result.Elapsed = time.Since(started)

	e.logger.Info("Exported %d frames (%d skipped)", result.Exported, result.Skipped)
	return result, runErr
}

func (e *Exporter) save(ev playback.Event, result *Result) {
	result.LastFrame = ev.FrameIndex
	if e.sink == nil || !e.sink.Enabled() {
		result.Exported++
		return
	}
	if err := e.sink.SaveFrame(ev.FrameIndex, ev.Image); err != nil {
		e.logger.Warn("Failed to save frame %d: %v", ev.FrameIndex, err)
		result.SaveFailures++
		return
	}
	result.Exported++
}
