package ffmpegsource

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/user/objecttracker/pkg/adapters/mp4probe"
)

// ErrFFprobeNotFound is returned when no ffprobe executable can be located.
var ErrFFprobeNotFound = errors.New("ffprobe not found")

// ffprobeOutput is the subset of `ffprobe -of json -show_entries stream=...`
// read by the fallback probe.
type ffprobeOutput struct {
	Streams []struct {
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbReadFrames string `json:"nb_read_frames"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

// FFprobe returns a ProbeFunc that reads video metadata with ffprobe. It
// serves the containers mp4probe cannot parse (mkv, webm, avi, ...).
// ffprobePath may be empty; ffprobe is then looked up next to ffmpegPath,
// in PATH and in the usual install locations.
func FFprobe(ffprobePath, ffmpegPath string, run RunFunc) ProbeFunc {
	if run == nil {
		run = runFFmpeg
	}
	return func(path string) (mp4probe.Info, error) {
		exe, err := findFFprobe(ffprobePath, ffmpegPath)
		if err != nil {
			return mp4probe.Info{}, err
		}
		out, err := run(exe, ffprobeArgs(path))
		if err != nil {
			return mp4probe.Info{}, fmt.Errorf("ffprobe %s: %w", path, err)
		}
		return parseFFprobe(out)
	}
}

func ffprobeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-count_frames",
		"-show_entries", "stream=codec_name,width,height,r_frame_rate,avg_frame_rate,nb_read_frames,nb_frames,duration",
		"-of", "json",
		path,
	}
}

func parseFFprobe(data []byte) (mp4probe.Info, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return mp4probe.Info{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return mp4probe.Info{}, mp4probe.ErrNoVideoTrack
	}
	st := out.Streams[0]

	info := mp4probe.Info{
		Codec:  codecFromName(st.CodecName),
		Width:  st.Width,
		Height: st.Height,
		FPS:    parseRate(st.RFrameRate),
	}
	if info.FPS <= 0 {
		info.FPS = parseRate(st.AvgFrameRate)
	}

	info.FrameCount, _ = strconv.Atoi(st.NbReadFrames)
	if info.FrameCount <= 0 {
		info.FrameCount, _ = strconv.Atoi(st.NbFrames)
	}

	if seconds, err := strconv.ParseFloat(st.Duration, 64); err == nil && seconds > 0 {
		info.Duration = time.Duration(seconds * float64(time.Second))
		if info.FrameCount <= 0 && info.FPS > 0 {
			info.FrameCount = int(seconds*info.FPS + 0.5)
		}
	} else if info.FPS > 0 && info.FrameCount > 0 {
		info.Duration = time.Duration(float64(info.FrameCount) / info.FPS * float64(time.Second))
	}
	return info, nil
}

// parseRate parses an ffprobe rational such as "30000/1001". "0/0" and
// malformed values yield 0.
func parseRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func codecFromName(name string) mp4probe.Codec {
	switch name {
	case "h264":
		return mp4probe.CodecH264
	case "hevc":
		return mp4probe.CodecHEVC
	case "av1":
		return mp4probe.CodecAV1
	case "vp9":
		return mp4probe.CodecVP9
	case "":
		return mp4probe.CodecUnknown
	}
	return mp4probe.Codec(name)
}

// findFFprobe locates ffprobe the way findFFmpeg locates ffmpeg, trying
// the directory of a custom ffmpeg first since both ship together.
func findFFprobe(customPath, ffmpegPath string) (string, error) {
	if customPath != "" {
		if _, err := os.Stat(customPath); err == nil {
			return customPath, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFprobeNotFound, customPath)
	}

	execName := "ffprobe"
	if runtime.GOOS == "windows" {
		execName = "ffprobe.exe"
	}

	if ffmpegPath != "" {
		sibling := filepath.Join(filepath.Dir(ffmpegPath), execName)
		if _, err := os.Stat(sibling); err == nil {
			return sibling, nil
		}
	}

	path, err := lookPath(execName)
	if err == nil {
		return path, nil
	}
	for _, dir := range commonDirs() {
		p := filepath.Join(dir, execName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", ErrFFprobeNotFound
}
