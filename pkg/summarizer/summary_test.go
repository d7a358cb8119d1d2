package summarizer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/user/objecttracker/pkg/mocks"
)

func TestNewSummary(t *testing.T) {
	before := time.Now()
	summary := NewSummary()
	after := time.Now()

	if summary.GeneratedAt.Before(before) || summary.GeneratedAt.After(after) {
		t.Errorf("GeneratedAt should be between %v and %v, got %v",
			before, after, summary.GeneratedAt)
	}
}

func TestBuilder(t *testing.T) {
	summary := NewBuilder().
		WithVideo(VideoInfo{Path: "clip.mp4", FrameCount: 250, FPS: 25}).
		WithSettings(Settings{Speed: 2}).
		WithResults(Results{Exported: 120, Completed: true}).
		Build()

	if summary.Video.Path != "clip.mp4" || summary.Video.FrameCount != 250 {
		t.Errorf("unexpected video %+v", summary.Video)
	}
	if summary.Settings.Speed != 2 {
		t.Errorf("expected speed 2, got %v", summary.Settings.Speed)
	}
	if summary.Results.Exported != 120 || !summary.Results.Completed {
		t.Errorf("unexpected results %+v", summary.Results)
	}
}

func TestWriter_Write(t *testing.T) {
	fs := mocks.NewFileSystem()
	w := NewWriter(fs, FormatFunc(func(s *Summary) string { return "frames: 3" }))

	if err := w.Write("out/summary.md", NewSummary()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, ok := fs.GetFile("out/summary.md")
	if !ok || string(data) != "frames: 3" {
		t.Errorf("unexpected file content %q", data)
	}
}

func TestWriter_WriteError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFileFunc = func(string, []byte) error { return errors.New("read-only") }
	w := NewWriter(fs, NewMarkdownFormatter())

	err := w.Write("summary.md", NewSummary())
	if err == nil || !strings.Contains(err.Error(), "read-only") {
		t.Errorf("expected wrapped write error, got %v", err)
	}
}
