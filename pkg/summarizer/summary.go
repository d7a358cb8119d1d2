package summarizer

import "time"

// Summary contains all data collected during an export run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Input video
	Video VideoInfo

	// Export configuration
	Settings Settings

	// Outcome
	Results Results
}

// VideoInfo describes the exported video.
type VideoInfo struct {
	Path       string
	Codec      string
	FrameCount int
	FPS        float64
	DurationMs int
	Width      int
	Height     int
}

// Settings contains the export configuration.
type Settings struct {
	Speed      float64
	StartFrame int
	OutputDir  string

	// Circle detection; radii are ignored when disabled.
	Detection bool
	MinRadius int
	MaxRadius int
}

// Results contains the counters of a finished run.
type Results struct {
	Exported     int
	Skipped      int64
	SaveFailures int
	DecodeErrors int64
	LastFrame    int
	Completed    bool
	ElapsedMs    int
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithVideo sets input video information.
func (b *Builder) WithVideo(video VideoInfo) *Builder {
	b.summary.Video = video
	return b
}

// WithSettings sets export settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithResults sets the run outcome.
func (b *Builder) WithResults(results Results) *Builder {
	b.summary.Results = results
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
