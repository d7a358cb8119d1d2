package playback

import (
	"errors"
	"fmt"
	"image"
	"testing"
	"time"

	"github.com/user/objecttracker/pkg/adapters/logger"
	"github.com/user/objecttracker/pkg/mocks"
	"github.com/user/objecttracker/pkg/ports"
)

func testOptions() Options {
	return Options{
		UpdateInterval:  2 * time.Millisecond,
		PreviewInterval: 50 * time.Millisecond,
	}
}

func newTestController(t *testing.T, src ports.FrameSource, opts Options) *Controller {
	t.Helper()
	c := New(nil, nil, logger.NewNoop(), opts)
	if err := c.LoadSource(src); err != nil {
		t.Fatalf("LoadSource failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// collectUntilEnded reads events until StreamEnded or timeout.
func collectUntilEnded(t *testing.T, c *Controller, timeout time.Duration) []Event {
	t.Helper()
	var events []Event
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-c.Events():
			events = append(events, ev)
			if ev.Kind == StreamEnded {
				return events
			}
		case <-deadline:
			t.Fatalf("timed out after %v waiting for StreamEnded (%d events)", timeout, len(events))
			return nil
		}
	}
}

// drain returns every event currently buffered.
func drain(c *Controller) []Event {
	var events []Event
	for {
		select {
		case ev := <-c.Events():
			events = append(events, ev)
		default:
			return events
		}
	}
}

func expectQuiet(t *testing.T, c *Controller, d time.Duration) {
	t.Helper()
	select {
	case ev := <-c.Events():
		t.Fatalf("expected no events, got %s for frame %d", ev.Kind, ev.FrameIndex)
	case <-time.After(d):
	}
}

func TestController_InitialState(t *testing.T) {
	c := New(nil, nil, logger.NewNoop(), Options{})

	if c.State() != StateIdle {
		t.Errorf("expected idle, got %s", c.State())
	}
	if c.FrameCount() != 0 || c.FPS() != 0 {
		t.Errorf("expected empty video, got %d frames at %v fps", c.FrameCount(), c.FPS())
	}
	if err := c.PlayFrom(0); !errors.Is(err, ErrNoVideo) {
		t.Errorf("expected ErrNoVideo, got %v", err)
	}
	if _, _, err := c.SeekWhilePaused(0); !errors.Is(err, ErrNoVideo) {
		t.Errorf("expected ErrNoVideo, got %v", err)
	}
	c.Stop()
}

func TestController_PlayToEnd(t *testing.T) {
	src := mocks.NewFrameSource(20, 1000)
	c := newTestController(t, src, testOptions())

	if err := c.PlayFrom(0); err != nil {
		t.Fatalf("PlayFrom failed: %v", err)
	}
	if !c.IsPlaying() || c.State() != StateRunning {
		t.Errorf("expected running/playing, got %s/%s", c.State(), c.Intent())
	}

	events := collectUntilEnded(t, c, 2*time.Second)

	prev := -1
	frames := 0
	for _, ev := range events[:len(events)-1] {
		if ev.Kind != FrameProduced {
			t.Fatalf("unexpected %s before end", ev.Kind)
		}
		if ev.FrameIndex <= prev {
			t.Errorf("frame %d emitted after %d", ev.FrameIndex, prev)
		}
		if got := mocks.FrameIndexOf(ev.Image); got != ev.FrameIndex {
			t.Errorf("event for frame %d carries image of frame %d", ev.FrameIndex, got)
		}
		prev = ev.FrameIndex
		frames++
	}
	if prev != 19 {
		t.Errorf("expected final frame 19, got %d", prev)
	}

	expectQuiet(t, c, 30*time.Millisecond)

	if c.State() != StateEnded || c.Intent() != Ended {
		t.Errorf("expected ended/ended, got %s/%s", c.State(), c.Intent())
	}

	stats := c.Stats()
	if stats.FramesProduced != int64(frames) {
		t.Errorf("expected %d frames produced, got %d", frames, stats.FramesProduced)
	}
	if stats.Sessions != 1 {
		t.Errorf("expected 1 session, got %d", stats.Sessions)
	}
}

func TestController_FastSpeedReachesEnd(t *testing.T) {
	src := mocks.NewFrameSource(100, 25)
	opts := testOptions()
	opts.Speed = 4
	c := newTestController(t, src, opts)

	start := time.Now()
	if err := c.PlayFrom(95); err != nil {
		t.Fatalf("PlayFrom failed: %v", err)
	}

	events := collectUntilEnded(t, c, time.Second)

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("end of stream took %v", elapsed)
	}
	if events[0].FrameIndex < 95 {
		t.Errorf("first frame %d precedes start frame 95", events[0].FrameIndex)
	}
	last := events[len(events)-2]
	if last.Kind != FrameProduced || last.FrameIndex != 99 {
		t.Errorf("expected frame 99 before end, got %s %d", last.Kind, last.FrameIndex)
	}
}

func TestController_StopIsQuiescent(t *testing.T) {
	src := mocks.NewFrameSource(1000, 25)
	c := newTestController(t, src, testOptions())

	if err := c.PlayFrom(10); err != nil {
		t.Fatalf("PlayFrom failed: %v", err)
	}
	c.Stop()

	produced := 0
	for _, ev := range drain(c) {
		if ev.Kind == FrameProduced {
			produced++
			if ev.FrameIndex < 10 {
				t.Errorf("frame %d precedes start frame 10", ev.FrameIndex)
			}
		}
	}
	if produced > 1 {
		t.Errorf("expected at most one frame before stop, got %d", produced)
	}

	expectQuiet(t, c, 50*time.Millisecond)

	if c.State() != StateStopped || c.Intent() != Paused {
		t.Errorf("expected stopped/paused, got %s/%s", c.State(), c.Intent())
	}

	// Stop is idempotent.
	gen := c.Generation()
	c.Stop()
	if c.Generation() != gen {
		t.Errorf("second Stop changed generation %d -> %d", gen, c.Generation())
	}
}

func TestController_StopWithFullEventBuffer(t *testing.T) {
	src := mocks.NewFrameSource(10000, 1000)
	opts := testOptions()
	opts.EventBuffer = 1
	c := newTestController(t, src, opts)

	if err := c.PlayFrom(0); err != nil {
		t.Fatalf("PlayFrom failed: %v", err)
	}
	// Nobody reads, so the loop blocks on emit.
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		c.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked while the loop waited on a full event buffer")
	}
}

func TestController_GenerationAdvancesPerSession(t *testing.T) {
	src := mocks.NewFrameSource(1000, 25)
	c := newTestController(t, src, testOptions())

	g0 := c.Generation()
	if err := c.PlayFrom(0); err != nil {
		t.Fatal(err)
	}
	g1 := c.Generation()
	if err := c.PlayFrom(500); err != nil {
		t.Fatal(err)
	}
	g2 := c.Generation()
	c.Stop()
	g3 := c.Generation()

	if !(g0 < g1 && g1 < g2 && g2 < g3) {
		t.Fatalf("expected increasing generations, got %d %d %d %d", g0, g1, g2, g3)
	}

	for _, ev := range drain(c) {
		if c.IsCurrent(ev) {
			t.Errorf("event of generation %d should be stale after stop", ev.Generation)
		}
		if ev.Generation == g2 && ev.FrameIndex < 500 {
			t.Errorf("second session emitted frame %d before its start", ev.FrameIndex)
		}
	}
}

func TestController_LoadWhileRunningNeverReadsOldSource(t *testing.T) {
	oldSrc := mocks.NewFrameSource(1000, 25)
	oldSrc.ReadDelay = 3 * time.Millisecond
	c := newTestController(t, oldSrc, testOptions())

	go func() {
		for range c.Events() {
		}
	}()

	if err := c.PlayFrom(0); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)

	newSrc := mocks.NewFrameSource(50, 30)
	if err := c.LoadSource(newSrc); err != nil {
		t.Fatalf("LoadSource failed: %v", err)
	}

	if !oldSrc.Closed() {
		t.Error("expected previous source to be closed")
	}
	readsAtSwap := len(oldSrc.Reads())

	if err := c.PlayFrom(0); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)
	c.Stop()

	if n := oldSrc.ReadsAfterClose(); n != 0 {
		t.Errorf("previous source read %d times after close", n)
	}
	if got := len(oldSrc.Reads()); got != readsAtSwap {
		t.Errorf("previous source read after swap: %d -> %d", readsAtSwap, got)
	}
	if len(newSrc.Reads()) == 0 {
		t.Error("expected new source to be read")
	}
	if c.FrameCount() != 50 || c.FPS() != 30 {
		t.Errorf("expected new video metadata, got %d frames at %v fps", c.FrameCount(), c.FPS())
	}
}

func TestController_LoadVideoFailureKeepsSession(t *testing.T) {
	good := mocks.NewFrameSource(1000, 25)
	opener := mocks.NewOpener(map[string]ports.FrameSource{"good.mp4": good})
	c := New(opener, nil, logger.NewNoop(), testOptions())
	t.Cleanup(func() { c.Close() })

	if err := c.LoadVideo("good.mp4"); err != nil {
		t.Fatalf("LoadVideo failed: %v", err)
	}
	if c.Path() != "good.mp4" {
		t.Errorf("expected path good.mp4, got %q", c.Path())
	}
	if err := c.PlayFrom(0); err != nil {
		t.Fatal(err)
	}
	gen := c.Generation()

	err := c.LoadVideo("missing.mp4")
	if !errors.Is(err, ports.ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}

	if c.State() != StateRunning || c.Generation() != gen {
		t.Errorf("failed open disturbed the session: %s, generation %d -> %d", c.State(), gen, c.Generation())
	}
	if good.Closed() {
		t.Error("failed open closed the current source")
	}
	if c.Path() != "good.mp4" {
		t.Errorf("expected path to stay good.mp4, got %q", c.Path())
	}
}

func TestController_LoadVideoWrapsOpenerErrors(t *testing.T) {
	opener := &mocks.Opener{OpenFunc: func(path string) (ports.FrameSource, error) {
		return nil, fmt.Errorf("permission denied")
	}}
	c := New(opener, nil, logger.NewNoop(), testOptions())

	if err := c.LoadVideo("x.mp4"); !errors.Is(err, ports.ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", err)
	}
	if c.State() != StateIdle {
		t.Errorf("expected idle, got %s", c.State())
	}
}

func TestController_RejectsEmptyVideo(t *testing.T) {
	c := New(nil, nil, logger.NewNoop(), testOptions())

	if err := c.LoadSource(mocks.NewFrameSource(0, 25)); !errors.Is(err, ports.ErrOpen) {
		t.Errorf("expected ErrOpen for empty video, got %v", err)
	}
	if err := c.LoadSource(mocks.NewFrameSource(10, 0)); !errors.Is(err, ports.ErrOpen) {
		t.Errorf("expected ErrOpen for zero fps, got %v", err)
	}
}

func TestController_DecodeErrorEndsStream(t *testing.T) {
	src := mocks.NewFrameSource(100, 1000)
	src.ReadFunc = func(index int) (image.Image, error) {
		if index >= 5 {
			return nil, errors.New("corrupt packet")
		}
		return mocks.FrameImage(index), nil
	}
	c := newTestController(t, src, testOptions())

	if err := c.PlayFrom(0); err != nil {
		t.Fatal(err)
	}

	events := collectUntilEnded(t, c, 2*time.Second)
	for _, ev := range events {
		if ev.Kind == FrameProduced && ev.FrameIndex >= 5 {
			t.Errorf("frame %d emitted despite decode failure", ev.FrameIndex)
		}
	}

	expectQuiet(t, c, 20*time.Millisecond)

	if c.State() != StateEnded || c.Intent() != Ended {
		t.Errorf("expected ended/ended, got %s/%s", c.State(), c.Intent())
	}
	if c.Stats().DecodeErrors != 1 {
		t.Errorf("expected 1 decode error, got %d", c.Stats().DecodeErrors)
	}
}

func TestController_AnnotatesFrames(t *testing.T) {
	src := mocks.NewFrameSource(3, 1000)
	var annotated int
	c := New(nil, ports.AnnotatorFunc(func(img image.Image) image.Image {
		annotated++
		return image.NewGray(image.Rect(0, 0, 2, 2))
	}), logger.NewNoop(), testOptions())
	if err := c.LoadSource(src); err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.PlayFrom(0); err != nil {
		t.Fatal(err)
	}
	for _, ev := range collectUntilEnded(t, c, time.Second) {
		if ev.Kind != FrameProduced {
			continue
		}
		if _, ok := ev.Image.(*image.Gray); !ok {
			t.Errorf("frame %d was not annotated", ev.FrameIndex)
		}
	}
	if annotated == 0 {
		t.Error("annotator was never called")
	}
}

func TestController_SeekWhilePausedThrottle(t *testing.T) {
	wall := newManualClock()
	opts := testOptions()
	opts.Wall = wall
	src := mocks.NewFrameSource(100, 25)
	c := newTestController(t, src, opts)

	frame, ok, err := c.SeekWhilePaused(10)
	if err != nil || !ok {
		t.Fatalf("first preview: ok=%v err=%v", ok, err)
	}
	if frame.Index != 10 || mocks.FrameIndexOf(frame.Image) != 10 {
		t.Errorf("expected frame 10, got %d", frame.Index)
	}

	wall.Advance(10 * time.Millisecond)
	if _, ok, err := c.SeekWhilePaused(11); err != nil || ok {
		t.Errorf("second preview within 10ms: expected throttled, got ok=%v err=%v", ok, err)
	}

	wall.Advance(50 * time.Millisecond)
	frame, ok, err = c.SeekWhilePaused(12)
	if err != nil || !ok || frame.Index != 12 {
		t.Errorf("preview after 60ms: ok=%v err=%v index=%d", ok, err, frame.Index)
	}

	if reads := src.Reads(); len(reads) != 2 {
		t.Errorf("expected 2 reads, got %v", reads)
	}
	stats := c.Stats()
	if stats.PreviewsServed != 2 || stats.PreviewsThrottled != 1 {
		t.Errorf("unexpected preview stats %+v", stats)
	}

	expectQuiet(t, c, 10*time.Millisecond)
}

func TestController_SeekWhilePausedIntent(t *testing.T) {
	wall := newManualClock()
	opts := testOptions()
	opts.Wall = wall
	c := newTestController(t, mocks.NewFrameSource(100, 25), opts)

	if _, _, err := c.SeekWhilePaused(500); err != nil {
		t.Fatal(err)
	}
	if c.Intent() != Ended {
		t.Errorf("seek past the end: expected ended intent, got %s", c.Intent())
	}

	wall.Advance(time.Second)
	if _, _, err := c.SeekWhilePaused(40); err != nil {
		t.Fatal(err)
	}
	if c.Intent() != Paused || c.State() != StateStopped {
		t.Errorf("expected paused/stopped, got %s/%s", c.Intent(), c.State())
	}
}

func TestController_SeekWhilePausedRefusedWhileRunning(t *testing.T) {
	c := newTestController(t, mocks.NewFrameSource(1000, 25), testOptions())

	if err := c.PlayFrom(0); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.SeekWhilePaused(3); !errors.Is(err, ErrRunning) {
		t.Errorf("expected ErrRunning, got %v", err)
	}
}

func TestController_SeekWhilePausedAfterEnd(t *testing.T) {
	c := newTestController(t, mocks.NewFrameSource(5, 1000), testOptions())

	if err := c.PlayFrom(0); err != nil {
		t.Fatal(err)
	}
	collectUntilEnded(t, c, time.Second)

	if _, ok, err := c.SeekWhilePaused(2); err != nil || !ok {
		t.Fatalf("preview after end: ok=%v err=%v", ok, err)
	}
	if c.State() != StateStopped || c.Intent() != Paused {
		t.Errorf("expected stopped/paused, got %s/%s", c.State(), c.Intent())
	}
}

func TestController_PreviewDecodeError(t *testing.T) {
	src := mocks.NewFrameSource(10, 25)
	src.ReadFunc = func(index int) (image.Image, error) {
		return nil, errors.New("bad frame")
	}
	c := newTestController(t, src, testOptions())

	_, ok, err := c.SeekWhilePaused(3)
	if ok || !errors.Is(err, ports.ErrDecode) {
		t.Errorf("expected ErrDecode, got ok=%v err=%v", ok, err)
	}
}

func TestController_SetSpeed(t *testing.T) {
	c := newTestController(t, mocks.NewFrameSource(1000, 25), testOptions())

	for _, bad := range []float64{0, -1} {
		if err := c.SetSpeed(bad); err == nil {
			t.Errorf("expected error for speed %v", bad)
		}
	}
	if err := c.SetSpeed(2); err != nil {
		t.Fatal(err)
	}
	if c.Speed() != 2 {
		t.Errorf("expected speed 2, got %v", c.Speed())
	}
	if c.State() != StateStopped {
		t.Errorf("expected a stopped controller to stay stopped, got %s", c.State())
	}

	if err := c.PlayFrom(0); err != nil {
		t.Fatal(err)
	}
	gen := c.Generation()
	if err := c.SetSpeed(3); err != nil {
		t.Fatal(err)
	}
	if c.Generation() == gen || c.State() != StateRunning {
		t.Errorf("expected restarted session, generation %d -> %d, state %s", gen, c.Generation(), c.State())
	}
}

func TestController_SetSpeedAfterEnd(t *testing.T) {
	c := newTestController(t, mocks.NewFrameSource(5, 1000), testOptions())

	if err := c.PlayFrom(0); err != nil {
		t.Fatal(err)
	}
	collectUntilEnded(t, c, time.Second)

	if err := c.SetSpeed(2); err != nil {
		t.Fatal(err)
	}
	if c.State() != StateEnded || c.IsPlaying() {
		t.Errorf("expected ended video to stay ended, got %s", c.State())
	}
	expectQuiet(t, c, 20*time.Millisecond)
}

func TestController_SetSpeedSerialisedWithStop(t *testing.T) {
	c := newTestController(t, mocks.NewFrameSource(100000, 25), testOptions())

	for i := 0; i < 50; i++ {
		if err := c.PlayFrom(0); err != nil {
			t.Fatal(err)
		}
		done := make(chan struct{})
		go func() {
			defer close(done)
			c.SetSpeed(float64(i%4 + 1))
		}()
		c.Stop()
		<-done

		// Either order leaves playback stopped: SetSpeed before Stop
		// restarts a session that Stop then ends, SetSpeed after Stop
		// finds nothing to restart.
		if c.State() == StateRunning {
			t.Fatalf("run %d: SetSpeed restarted a stopped session", i)
		}
		drain(c)
	}
	expectQuiet(t, c, 20*time.Millisecond)
}

func TestController_ShowFrameIgnoresThrottle(t *testing.T) {
	wall := newManualClock()
	opts := testOptions()
	opts.Wall = wall
	src := mocks.NewFrameSource(100, 25)
	c := newTestController(t, src, opts)

	if _, ok, _ := c.SeekWhilePaused(10); !ok {
		t.Fatal("expected first preview to be served")
	}
	if _, ok, _ := c.SeekWhilePaused(20); ok {
		t.Fatal("expected second preview to be throttled")
	}

	frame, err := c.ShowFrame(20)
	if err != nil {
		t.Fatalf("ShowFrame failed: %v", err)
	}
	if frame.Index != 20 || mocks.FrameIndexOf(frame.Image) != 20 {
		t.Errorf("expected frame 20, got %d", frame.Index)
	}
	if c.Intent() != Paused || c.State() != StateStopped {
		t.Errorf("expected paused/stopped, got %s/%s", c.Intent(), c.State())
	}

	if _, err := c.ShowFrame(99); err != nil || c.Intent() != Ended {
		t.Errorf("expected ended intent on the last frame, got %s (%v)", c.Intent(), err)
	}

	if err := c.PlayFrom(0); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ShowFrame(5); !errors.Is(err, ErrRunning) {
		t.Errorf("expected ErrRunning while playing, got %v", err)
	}
}

func TestController_Close(t *testing.T) {
	src := mocks.NewFrameSource(100, 25)
	c := New(nil, nil, logger.NewNoop(), testOptions())
	if err := c.LoadSource(src); err != nil {
		t.Fatal(err)
	}
	if err := c.PlayFrom(0); err != nil {
		t.Fatal(err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !src.Closed() {
		t.Error("expected source closed")
	}
	if c.State() != StateIdle {
		t.Errorf("expected idle, got %s", c.State())
	}
	if src.ReadsAfterClose() != 0 {
		t.Errorf("source read %d times after close", src.ReadsAfterClose())
	}
}
