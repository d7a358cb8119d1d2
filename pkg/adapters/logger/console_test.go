package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/user/objecttracker/pkg/ports"
)

func TestWriterLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(ports.LevelWarn, &buf)

	log.Debug("debug %d", 1)
	log.Info("info %d", 2)
	log.Warn("warn %d", 3)
	log.Error("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("messages below warn should be dropped:\n%s", out)
	}
	if !strings.Contains(out, "warn 3") || !strings.Contains(out, "error 4") {
		t.Errorf("expected warn and error messages:\n%s", out)
	}
	if !strings.Contains(out, "warn ") || !strings.Contains(out, "error") {
		t.Errorf("expected level names in stamped lines:\n%s", out)
	}
}

func TestWriterLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(ports.LevelDebug, &buf).WithComponent("playback")

	log.Info("Stopped at %s", "frame")

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "[playback] ") {
		t.Errorf("expected component prefix, got %q", line)
	}
	if strings.Contains(line, "\033[") {
		t.Errorf("writer output should not be colored, got %q", line)
	}
}

func TestWriterLogger_Quiet(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(ports.LevelQuiet, &buf)

	log.Error("boom")
	if buf.Len() != 0 {
		t.Errorf("expected nothing at quiet level, got %q", buf.String())
	}
}

func TestNoop(t *testing.T) {
	log := NewNoop()
	log.Info("ignored")
	if log.WithComponent("x") == nil {
		t.Error("expected a logger")
	}
}
