// Package main provides the CLI entry point for objecttracker.
package main

import (
	"fmt"
	"os"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %v", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "objecttracker",
		Usage:   l10n.T("Play videos with circle detection overlays"),
		Version: version,
		Description: l10n.T("objecttracker plays a video or an image sequence, marks circular objects " +
			"in every frame and lets you scrub, step and export the annotated frames."),
		Commands: []*cli.Command{
			{
				Name:      "play",
				Usage:     l10n.T("Play a video in the terminal"),
				ArgsUsage: "<video|directory>",
				Flags:     append(commonFlags(), playFlags()...),
				Action:    runPlay,
			},
			{
				Name:      "export",
				Usage:     l10n.T("Export annotated frames as PNG files"),
				ArgsUsage: "<video|directory>",
				Flags:     append(commonFlags(), exportFlags()...),
				Action:    runExport,
			},
			{
				Name:      "probe",
				Usage:     l10n.T("Show video metadata"),
				ArgsUsage: "<video|directory>",
				Flags:     commonFlags(),
				Action:    runProbe,
			},
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, l10n.F("objecttracker version %s", version))
					return nil
				},
			},
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Usage:    l10n.T("YAML configuration file"),
			Category: l10n.T("Configuration"),
		},
		&cli.Float64Flag{
			Name:     "speed",
			Aliases:  []string{"s"},
			Usage:    l10n.T("Playback speed multiplier (default: 1.0)"),
			Category: l10n.T("Playback"),
		},
		&cli.StringFlag{
			Name:     "ffmpeg-path",
			Usage:    l10n.T("Path to ffmpeg executable (default: search PATH)"),
			Category: l10n.T("Source"),
		},
		&cli.StringFlag{
			Name:     "ffprobe-path",
			Usage:    l10n.T("Path to ffprobe executable for non-MP4 videos"),
			Category: l10n.T("Source"),
		},
		&cli.Float64Flag{
			Name:     "fps",
			Usage:    l10n.T("Frame rate of image sequences (default: 25)"),
			Category: l10n.T("Source"),
		},
		&cli.BoolFlag{
			Name:     "no-detect",
			Usage:    l10n.T("Disable circle detection"),
			Category: l10n.T("Detection"),
		},
		&cli.StringFlag{
			Name:     "log-level",
			Aliases:  []string{"l"},
			Usage:    l10n.T("Log level (debug, info, warn, error)"),
			Category: l10n.T("Logging"),
		},
		&cli.BoolFlag{
			Name:     "quiet",
			Aliases:  []string{"Q"},
			Usage:    l10n.T("Suppress all log output"),
			Category: l10n.T("Logging"),
		},
	}
}

func playFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "out",
			Aliases:  []string{"o"},
			Usage:    l10n.T("Directory for snapshots (snapshots are disabled when empty)"),
			Category: l10n.T("Output"),
		},
		&cli.StringFlag{
			Name:     "log-file",
			Usage:    l10n.T("Write logs to this file while the player is open"),
			Category: l10n.T("Logging"),
		},
	}
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "out",
			Aliases:  []string{"o"},
			Usage:    l10n.T("Output directory for PNG frames (required)"),
			Required: true,
			Category: l10n.T("Output"),
		},
		&cli.IntFlag{
			Name:     "start",
			Usage:    l10n.T("Frame to start from (1-based)"),
			Value:    1,
			Category: l10n.T("Playback"),
		},
		&cli.StringFlag{
			Name:     "summary",
			Usage:    l10n.T("Output execution summary to file (Markdown format)"),
			Category: l10n.T("Output"),
		},
	}
}
