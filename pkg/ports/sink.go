package ports

import (
	"image"
)

// FrameSink persists displayed frames (snapshots and exports).
type FrameSink interface {
	// Enabled returns true if frames are actually written.
	Enabled() bool

	// SaveFrame saves an annotated frame under its frame index.
	SaveFrame(index int, img image.Image) error
}
