// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/user/objecttracker/pkg/adapters/houghannotator"
	"github.com/user/objecttracker/pkg/playback"
	"github.com/user/objecttracker/pkg/ports"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the full configuration for objecttracker.
type Config struct {
	Playback  PlaybackConfig  `yaml:"playback"`
	Source    SourceConfig    `yaml:"source"`
	Detection DetectionConfig `yaml:"detection"`
	Display   DisplayConfig   `yaml:"display"`

	LogLevel string `yaml:"log_level"`
}

// PlaybackConfig controls the playback clock and controller.
type PlaybackConfig struct {
	Speed             float64 `yaml:"speed"`
	UpdateIntervalMs  int     `yaml:"update_interval_ms"`
	PreviewIntervalMs int     `yaml:"preview_interval_ms"`
	EventBuffer       int     `yaml:"event_buffer"`
	JumpProportion    float64 `yaml:"jump_proportion"`
}

// SourceConfig controls how videos are opened.
type SourceConfig struct {
	FFmpegPath  string  `yaml:"ffmpeg_path"`
	FFprobePath string  `yaml:"ffprobe_path"`
	SequenceFPS float64 `yaml:"sequence_fps"`
}

// DetectionConfig controls the circle annotator.
type DetectionConfig struct {
	Enabled       bool    `yaml:"enabled"`
	MedianBlur    bool    `yaml:"median_blur"`
	EdgeThreshold float64 `yaml:"edge_threshold"`
	VoteThreshold int     `yaml:"vote_threshold"`
	MinDistance   float64 `yaml:"min_distance"`
	MinRadius     int     `yaml:"min_radius"`
	MaxRadius     int     `yaml:"max_radius"`
	OutlineColor  string  `yaml:"outline_color"`
	OutlineWidth  float64 `yaml:"outline_width"`
	CenterColor   string  `yaml:"center_color"`
	CenterRadius  float64 `yaml:"center_radius"`
}

// DisplayConfig controls the terminal preview size in cells.
type DisplayConfig struct {
	PreviewWidth  int `yaml:"preview_width"`
	PreviewHeight int `yaml:"preview_height"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Playback: PlaybackConfig{
			Speed:             1.0,
			UpdateIntervalMs:  20,
			PreviewIntervalMs: 50,
			EventBuffer:       8,
			JumpProportion:    0.05,
		},
		Source: SourceConfig{
			SequenceFPS: 25,
		},
		Detection: DetectionConfig{
			Enabled:       true,
			MedianBlur:    true,
			EdgeThreshold: 50,
			VoteThreshold: 30,
			MinDistance:   30,
			MinRadius:     30,
			MaxRadius:     35,
			OutlineColor:  "#0000ff",
			OutlineWidth:  1,
			CenterColor:   "#00ff00",
			CenterRadius:  3,
		},
		Display: DisplayConfig{
			PreviewWidth:  64,
			PreviewHeight: 24,
		},
		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML file. Keys missing from
// the file keep their default values.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks value ranges. The first problem found is returned.
func (c Config) Validate() error {
	p := c.Playback
	switch {
	case p.Speed <= 0:
		return fmt.Errorf("%w: playback.speed must be positive, got %v", ErrInvalid, p.Speed)
	case p.UpdateIntervalMs <= 0:
		return fmt.Errorf("%w: playback.update_interval_ms must be positive, got %d", ErrInvalid, p.UpdateIntervalMs)
	case p.PreviewIntervalMs < 0:
		return fmt.Errorf("%w: playback.preview_interval_ms must not be negative, got %d", ErrInvalid, p.PreviewIntervalMs)
	case p.EventBuffer < 1:
		return fmt.Errorf("%w: playback.event_buffer must be at least 1, got %d", ErrInvalid, p.EventBuffer)
	case p.JumpProportion <= 0 || p.JumpProportion > 1:
		return fmt.Errorf("%w: playback.jump_proportion must be in (0, 1], got %v", ErrInvalid, p.JumpProportion)
	}

	if c.Source.SequenceFPS <= 0 {
		return fmt.Errorf("%w: source.sequence_fps must be positive, got %v", ErrInvalid, c.Source.SequenceFPS)
	}

	d := c.Detection
	switch {
	case d.MinRadius <= 0:
		return fmt.Errorf("%w: detection.min_radius must be positive, got %d", ErrInvalid, d.MinRadius)
	case d.MaxRadius < d.MinRadius:
		return fmt.Errorf("%w: detection.max_radius %d is below min_radius %d", ErrInvalid, d.MaxRadius, d.MinRadius)
	case d.EdgeThreshold <= 0:
		return fmt.Errorf("%w: detection.edge_threshold must be positive, got %v", ErrInvalid, d.EdgeThreshold)
	case d.VoteThreshold <= 0:
		return fmt.Errorf("%w: detection.vote_threshold must be positive, got %d", ErrInvalid, d.VoteThreshold)
	}
	for name, hex := range map[string]string{"outline_color": d.OutlineColor, "center_color": d.CenterColor} {
		if _, ok := parseHex(hex); !ok {
			return fmt.Errorf("%w: detection.%s %q is not a #rrggbb color", ErrInvalid, name, hex)
		}
	}

	if c.Display.PreviewWidth < 8 || c.Display.PreviewHeight < 4 {
		return fmt.Errorf("%w: display preview must be at least 8x4, got %dx%d",
			ErrInvalid, c.Display.PreviewWidth, c.Display.PreviewHeight)
	}

	return nil
}

// Level returns the parsed log level.
func (c Config) Level() ports.LogLevel {
	return ports.ParseLogLevel(c.LogLevel)
}

// ParseColor parses a hex color string to color.Color. Malformed input
// yields black.
func ParseColor(hex string) color.Color {
	c, ok := parseHex(hex)
	if !ok {
		return color.Black
	}
	return c
}

func parseHex(hex string) (color.RGBA, bool) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return color.RGBA{}, false
	}

	var rgb [3]uint8
	for i := range rgb {
		hi, ok1 := hexValue(hex[2*i])
		lo, ok2 := hexValue(hex[2*i+1])
		if !ok1 || !ok2 {
			return color.RGBA{}, false
		}
		rgb[i] = hi<<4 | lo
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, true
}

func hexValue(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// ToPlaybackOptions converts Config to playback.Options.
func (c Config) ToPlaybackOptions() playback.Options {
	return playback.Options{
		Speed:           c.Playback.Speed,
		UpdateInterval:  time.Duration(c.Playback.UpdateIntervalMs) * time.Millisecond,
		PreviewInterval: time.Duration(c.Playback.PreviewIntervalMs) * time.Millisecond,
		EventBuffer:     c.Playback.EventBuffer,
	}
}

// ToAnnotatorOptions converts Config to houghannotator.Options.
func (c Config) ToAnnotatorOptions() houghannotator.Options {
	d := c.Detection
	return houghannotator.Options{
		MedianBlur:    d.MedianBlur,
		EdgeThreshold: d.EdgeThreshold,
		VoteThreshold: d.VoteThreshold,
		MinDistance:   d.MinDistance,
		MinRadius:     d.MinRadius,
		MaxRadius:     d.MaxRadius,
		OutlineColor:  ParseColor(d.OutlineColor),
		OutlineWidth:  d.OutlineWidth,
		CenterColor:   ParseColor(d.CenterColor),
		CenterRadius:  d.CenterRadius,
	}
}
