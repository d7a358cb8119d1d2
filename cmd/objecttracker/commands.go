package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/objecttracker/pkg/adapters/ffmpegsource"
	"github.com/user/objecttracker/pkg/adapters/filesink"
	"github.com/user/objecttracker/pkg/adapters/ggrenderer"
	"github.com/user/objecttracker/pkg/adapters/houghannotator"
	"github.com/user/objecttracker/pkg/adapters/imageseq"
	"github.com/user/objecttracker/pkg/adapters/logger"
	"github.com/user/objecttracker/pkg/adapters/nullsink"
	"github.com/user/objecttracker/pkg/adapters/osfilesystem"
	"github.com/user/objecttracker/pkg/adapters/smartsource"
	"github.com/user/objecttracker/pkg/config"
	"github.com/user/objecttracker/pkg/export"
	"github.com/user/objecttracker/pkg/playback"
	"github.com/user/objecttracker/pkg/ports"
	"github.com/user/objecttracker/pkg/summarizer"
	"github.com/user/objecttracker/pkg/transport"
	"github.com/user/objecttracker/pkg/tui"
)

var errNoInput = errors.New("a video file or image directory argument is required")

// components holds the adapters shared by all commands.
type components struct {
	cfg       config.Config
	log       ports.Logger
	fs        *osfilesystem.FileSystem
	renderer  *ggrenderer.Renderer
	video     *ffmpegsource.Opener
	opener    *smartsource.Opener
	annotator ports.Annotator
}

// loadConfig builds the configuration from defaults, the --config file and
// flag overrides, in that order.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if c.IsSet("speed") {
		cfg.Playback.Speed = c.Float64("speed")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.Source.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.IsSet("ffprobe-path") {
		cfg.Source.FFprobePath = c.String("ffprobe-path")
	}
	if c.IsSet("fps") {
		cfg.Source.SequenceFPS = c.Float64("fps")
	}
	if c.Bool("no-detect") {
		cfg.Detection.Enabled = false
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.Bool("quiet") {
		cfg.LogLevel = ports.LevelQuiet.String()
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newComponents wires the adapters around cfg. log is passed to every
// adapter that logs.
func newComponents(cfg config.Config, log ports.Logger) *components {
	fs := osfilesystem.New()
	renderer := ggrenderer.New()

	sequence := imageseq.NewOpener(fs, renderer, log, cfg.Source.SequenceFPS)
	video := ffmpegsource.NewOpener(renderer, log, ffmpegsource.Options{
		FFmpegPath:  cfg.Source.FFmpegPath,
		FFprobePath: cfg.Source.FFprobePath,
	})

	var annotator ports.Annotator
	if cfg.Detection.Enabled {
		annotator = houghannotator.New(renderer, log, cfg.ToAnnotatorOptions())
	}

	return &components{
		cfg:       cfg,
		log:       log,
		fs:        fs,
		renderer:  renderer,
		video:     video,
		opener:    smartsource.New(fs, sequence, video, log),
		annotator: annotator,
	}
}

func consoleLogger(cfg config.Config, w io.Writer) ports.Logger {
	if cfg.Level() == ports.LevelQuiet {
		return logger.NewNoop()
	}
	if w == nil || w == os.Stderr {
		return logger.NewConsole(cfg.Level())
	}
	return logger.NewWriter(cfg.Level(), w)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func inputPath(c *cli.Context) (string, error) {
	if c.NArg() < 1 {
		return "", errNoInput
	}
	return c.Args().First(), nil
}

// runPlay opens the terminal player. Logs go to --log-file or nowhere,
// since console output would tear the alternate screen.
func runPlay(c *cli.Context) error {
	path, err := inputPath(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var log ports.Logger = logger.NewNoop()
	if logPath := c.String("log-file"); logPath != "" && cfg.Level() != ports.LevelQuiet {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		log = logger.NewWriter(cfg.Level(), f)
	}

	rt := newComponents(cfg, log)

	ctrl := playback.New(rt.opener, rt.annotator, log, cfg.ToPlaybackOptions())
	defer ctrl.Close()

	var sink ports.FrameSink = nullsink.New()
	if out := c.String("out"); out != "" {
		sink = filesink.New(out, "snapshot", rt.fs, rt.renderer)
	}

	tr := transport.New(ctrl, sink, log, cfg.Playback.JumpProportion)
	if err := tr.Open(path); err != nil {
		return err
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	model := tui.New(tr, ctrl.Events(), rt.renderer, ctrl.Stats, log, tui.Options{
		PreviewWidth:  cfg.Display.PreviewWidth,
		PreviewHeight: cfg.Display.PreviewHeight,
		Title:         path,
	})
	return tui.Run(ctx, model)
}

// runExport plays the input headlessly and writes every emitted frame.
func runExport(c *cli.Context) error {
	path, err := inputPath(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log := consoleLogger(cfg, c.App.ErrWriter)
	rt := newComponents(cfg, log)

	outDir := c.String("out")
	if err := rt.fs.MkdirAll(outDir); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ctrl := playback.New(rt.opener, rt.annotator, log, cfg.ToPlaybackOptions())
	defer ctrl.Close()

	ctx, cancel := signalContext(log)
	defer cancel()

	sink := filesink.New(outDir, "frame", rt.fs, rt.renderer)
	result, runErr := export.New(ctrl, sink, log).Run(ctx, export.Config{
		InputPath:  path,
		OutputDir:  outDir,
		StartFrame: c.Int("start") - 1,
	})
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	if summaryPath := c.String("summary"); summaryPath != "" {
		if err := rt.writeSummary(summaryPath, path, outDir, result); err != nil {
			log.Error("Failed to write summary: %v", err)
		} else {
			log.Info("Summary saved to %s", summaryPath)
		}
	}

	return nil
}

func (rt *components) writeSummary(summaryPath, input, outDir string, result export.Result) error {
	video := summarizer.VideoInfo{
		Path:       input,
		FrameCount: result.FrameCount,
		FPS:        result.FPS,
	}
	if result.FPS > 0 {
		video.DurationMs = int(float64(result.FrameCount) / result.FPS * 1000)
	}
	if backend, err := rt.opener.BackendFor(input); err == nil && backend == smartsource.BackendFFmpeg {
		if info, err := rt.video.Probe(input); err == nil {
			video.Codec = string(info.Codec)
			video.Width, video.Height = info.Width, info.Height
		}
	}

	summary := summarizer.NewBuilder().
		WithVideo(video).
		WithSettings(summarizer.Settings{
			Speed:      result.Speed,
			StartFrame: result.StartFrame,
			OutputDir:  outDir,
			Detection:  rt.cfg.Detection.Enabled,
			MinRadius:  rt.cfg.Detection.MinRadius,
			MaxRadius:  rt.cfg.Detection.MaxRadius,
		}).
		WithResults(summarizer.Results{
			Exported:     result.Exported,
			Skipped:      result.Skipped,
			SaveFailures: result.SaveFailures,
			DecodeErrors: result.DecodeErrors,
			LastFrame:    result.LastFrame,
			Completed:    result.Completed,
			ElapsedMs:    int(result.Elapsed / time.Millisecond),
		}).
		Build()

	formatter := summarizer.NewMarkdownFormatter(summarizer.WithVersion(version))
	return summarizer.NewWriter(rt.fs, formatter).Write(summaryPath, summary)
}

// runProbe prints the metadata of a video file or image directory.
func runProbe(c *cli.Context) error {
	path, err := inputPath(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	rt := newComponents(cfg, consoleLogger(cfg, c.App.ErrWriter))
	out := c.App.Writer

	backend, err := rt.opener.BackendFor(path)
	if err != nil {
		return err
	}

	if backend == smartsource.BackendImageSequence {
		src, err := rt.opener.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()

		fmt.Fprintln(out, l10n.F("Source: image sequence %s", path))
		printTiming(out, src.FrameCount(), src.FPS())
		return nil
	}

	info, err := rt.video.Probe(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ports.ErrOpen, err)
	}
	fmt.Fprintln(out, l10n.F("Source: video file %s", path))
	fmt.Fprintln(out, l10n.F("Codec: %s", info.Codec))
	fmt.Fprintln(out, l10n.F("Size: %dx%d", info.Width, info.Height))
	if info.Fragmented {
		fmt.Fprintln(out, l10n.T("Fragmented: yes"))
	}
	printTiming(out, info.FrameCount, info.FPS)
	return nil
}

func printTiming(out io.Writer, frames int, fps float64) {
	fmt.Fprintln(out, l10n.F("Frames: %d", frames))
	fmt.Fprintln(out, l10n.F("Frame rate: %.2f fps", fps))
	fmt.Fprintln(out, l10n.F("Duration: %s", transport.TimeString(float64(frames)/fps)))
}
