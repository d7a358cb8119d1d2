package playback

import "image"

// EventKind distinguishes the two notifications a playback session emits.
type EventKind int

const (
	// FrameProduced carries an annotated frame and its index.
	FrameProduced EventKind = iota
	// StreamEnded marks the end of a session, either at the final frame or
	// after a decode failure.
	StreamEnded
)

func (k EventKind) String() string {
	switch k {
	case FrameProduced:
		return "frame-produced"
	case StreamEnded:
		return "stream-ended"
	default:
		return "unknown"
	}
}

// Event is an immutable notification from the playback loop.
//
// Delivery is asynchronous. An event may arrive after the consumer has
// issued a new command; compare Generation with Controller.Generation and
// drop mismatches.
type Event struct {
	Kind       EventKind
	Generation uint64
	FrameIndex int
	Image      image.Image
}

// Frame is a single annotated frame produced outside a playback session,
// for example by SeekWhilePaused.
type Frame struct {
	Index      int
	Generation uint64
	Image      image.Image
}

// Intent is the transport state shown to the user.
type Intent int

const (
	Paused Intent = iota
	Playing
	// Ended means the next play restarts from frame 0.
	Ended
)

func (i Intent) String() string {
	switch i {
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// State is the controller's internal lifecycle state.
type State int

const (
	// StateIdle means no video is loaded.
	StateIdle State = iota
	// StateStopped means a video is loaded and no loop runs.
	StateStopped
	// StateRunning means a loop is producing frames.
	StateRunning
	// StateEnded means the last loop finished at end of stream.
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Stats counts what the controller has done since it was created.
type Stats struct {
	FramesProduced    int64 // FrameProduced events emitted
	FramesSkipped     int64 // frames the clock jumped over
	PreviewsServed    int64 // SeekWhilePaused reads performed
	PreviewsThrottled int64 // SeekWhilePaused calls dropped by the rate limit
	DecodeErrors      int64 // seek/read failures, loop and preview
	Sessions          int64 // loops started
}
