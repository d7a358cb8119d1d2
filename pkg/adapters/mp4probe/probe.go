// Package mp4probe reads video track metadata from MP4 files: codec,
// frame count, frame rate and dimensions. Both progressive and
// fragmented files are supported.
package mp4probe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"
)

// ErrNoVideoTrack is returned for files without a video track.
var ErrNoVideoTrack = errors.New("mp4probe: no video track found")

// Codec represents a video codec type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecVP9     Codec = "vp9"
	CodecUnknown Codec = "unknown"
)

// Info describes the video track of an MP4 file.
type Info struct {
	Codec      Codec
	FrameCount int
	FPS        float64
	Duration   time.Duration
	Width      int
	Height     int
	Fragmented bool
}

// ProbeFile probes the MP4 file at path.
func ProbeFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return Probe(f)
}

// ProbeBytes probes MP4 data held in memory.
func ProbeBytes(data []byte) (Info, error) {
	return Probe(bytes.NewReader(data))
}

// Probe probes an MP4 stream. Media data is skipped, so memory use depends
// on the size of the boxes describing the file, not on the video payload.
// The reader is left positioned at the start.
func Probe(reader io.ReadSeeker) (Info, error) {
	mp4File, err := mp4.DecodeFile(reader, mp4.WithDecodeMode(mp4.DecModeLazyMdat))
	if err != nil {
		return Info{}, fmt.Errorf("decode mp4: %w", err)
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return Info{}, fmt.Errorf("seek: %w", err)
	}

	return probeFile(mp4File)
}

func probeFile(mp4File *mp4.File) (Info, error) {
	moov := mp4File.Moov
	if mp4File.IsFragmented() && mp4File.Init != nil && mp4File.Init.Moov != nil {
		moov = mp4File.Init.Moov
	}
	if moov == nil {
		return Info{}, ErrNoVideoTrack
	}

	trak := findVideoTrack(moov)
	if trak == nil {
		return Info{}, ErrNoVideoTrack
	}

	info := Info{
		Codec:      detectCodecFromTrack(trak),
		Fragmented: mp4File.IsFragmented(),
	}
	info.Width, info.Height = dimensions(trak)

	timescale := uint32(1000)
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
		timescale = trak.Mdia.Mdhd.Timescale
	}

	count, ticks := progressiveSamples(trak)
	if info.Fragmented {
		fragCount, fragTicks := fragmentedSamples(mp4File, moov, trak.Tkhd.TrackID)
		count += fragCount
		ticks += fragTicks
	}

	info.FrameCount = count
	if ticks > 0 {
		seconds := float64(ticks) / float64(timescale)
		info.Duration = time.Duration(seconds * float64(time.Second))
		info.FPS = float64(count) / seconds
	}
	return info, nil
}

func findVideoTrack(moov *mp4.MoovBox) *mp4.TrakBox {
	for _, trak := range moov.Traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			return trak
		}
	}
	return nil
}

func detectCodecFromTrack(trak *mp4.TrakBox) Codec {
	stsd := sampleDescription(trak)
	if stsd == nil {
		return CodecUnknown
	}

	for _, child := range stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			return CodecH264
		case "hvc1", "hev1":
			return CodecHEVC
		case "av01":
			return CodecAV1
		case "vp09":
			return CodecVP9
		}
	}
	return CodecUnknown
}

func sampleDescription(trak *mp4.TrakBox) *mp4.StsdBox {
	if trak.Mdia == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
		return nil
	}
	return trak.Mdia.Minf.Stbl.Stsd
}

// dimensions prefers the sample entry size and falls back to the track header.
func dimensions(trak *mp4.TrakBox) (int, int) {
	if stsd := sampleDescription(trak); stsd != nil {
		for _, child := range stsd.Children {
			if vse, ok := child.(*mp4.VisualSampleEntryBox); ok && vse.Width > 0 {
				return int(vse.Width), int(vse.Height)
			}
		}
	}
	if trak.Tkhd != nil {
		return int(trak.Tkhd.Width >> 16), int(trak.Tkhd.Height >> 16)
	}
	return 0, 0
}

// progressiveSamples counts samples and their total duration in the
// track's sample table.
func progressiveSamples(trak *mp4.TrakBox) (int, uint64) {
	if trak.Mdia == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
		return 0, 0
	}
	stbl := trak.Mdia.Minf.Stbl

	count := 0
	if stbl.Stsz != nil {
		count = int(stbl.Stsz.SampleNumber)
	}

	var ticks uint64
	if stbl.Stts != nil {
		for i, n := range stbl.Stts.SampleCount {
			if i < len(stbl.Stts.SampleTimeDelta) {
				ticks += uint64(n) * uint64(stbl.Stts.SampleTimeDelta[i])
			}
		}
	}
	return count, ticks
}

// fragmentedSamples counts samples and their total duration across all
// fragments of trackID. Only the track run boxes are read; the samples
// themselves stay in the unread mdat boxes.
func fragmentedSamples(mp4File *mp4.File, moov *mp4.MoovBox, trackID uint32) (int, uint64) {
	var trex *mp4.TrexBox
	if moov.Mvex != nil {
		for _, t := range moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	count := 0
	var ticks uint64
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd == nil || traf.Tfhd.TrackID != trackID {
					continue
				}
				for _, trun := range traf.Truns {
					ticks += trun.AddSampleDefaultValues(traf.Tfhd, trex)
					count += int(trun.SampleCount())
				}
			}
		}
	}
	return count, ticks
}
