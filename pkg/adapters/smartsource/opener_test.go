package smartsource

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/user/objecttracker/pkg/adapters/logger"
	"github.com/user/objecttracker/pkg/adapters/osfilesystem"
	"github.com/user/objecttracker/pkg/mocks"
	"github.com/user/objecttracker/pkg/ports"
)

func TestOpener_DispatchesByPathKind(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.MkdirAll("frames")

	seqSrc := mocks.NewFrameSource(10, 25)
	vidSrc := mocks.NewFrameSource(100, 30)
	sequence := mocks.NewOpener(map[string]ports.FrameSource{"frames": seqSrc})
	video := mocks.NewOpener(map[string]ports.FrameSource{"clip.mp4": vidSrc})

	o := New(fs, sequence, video, logger.NewNoop())

	src, err := o.Open("frames")
	if err != nil || src != ports.FrameSource(seqSrc) {
		t.Errorf("expected sequence source for directory, got %v (%v)", src, err)
	}
	src, err = o.Open("clip.mp4")
	if err != nil || src != ports.FrameSource(vidSrc) {
		t.Errorf("expected video source for file, got %v (%v)", src, err)
	}

	if len(sequence.Opened()) != 1 || len(video.Opened()) != 1 {
		t.Errorf("expected one open each, got %v and %v", sequence.Opened(), video.Opened())
	}
}

func TestOpener_BackendFor(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "clip.mp4")
	fs := osfilesystem.New()
	if err := fs.WriteFile(file, []byte("x")); err != nil {
		t.Fatal(err)
	}

	o := New(fs, mocks.NewOpener(nil), mocks.NewOpener(nil), logger.NewNoop())

	tests := []struct {
		path string
		want Backend
	}{
		{dir, BackendImageSequence},
		{file, BackendFFmpeg},
		{filepath.Join(dir, "missing.mp4"), BackendFFmpeg},
	}
	for _, tt := range tests {
		got, err := o.BackendFor(tt.path)
		if err != nil {
			t.Fatalf("BackendFor(%s) failed: %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("BackendFor(%s) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestOpener_PropagatesOpenErrors(t *testing.T) {
	o := New(mocks.NewFileSystem(), mocks.NewOpener(nil), mocks.NewOpener(nil), logger.NewNoop())

	if _, err := o.Open("missing.mp4"); !errors.Is(err, ports.ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", err)
	}
}
