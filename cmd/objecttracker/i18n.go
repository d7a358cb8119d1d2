// Package main provides localization for the objecttracker CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定",
		"Playback":      "再生",
		"Source":        "入力",
		"Detection":     "検出",
		"Output":        "出力先",
		"Logging":       "ログ",

		// Root command
		"Play videos with circle detection overlays": "円検出オーバーレイ付きで動画を再生",
		"objecttracker plays a video or an image sequence, marks circular objects in every frame and lets you scrub, step and export the annotated frames.": "objecttrackerは動画または連番画像を再生し、各フレームの円形物体をマークします。シーク、コマ送り、注釈付きフレームの書き出しができます。",

		// Commands
		"Play a video in the terminal":         "ターミナルで動画を再生",
		"Export annotated frames as PNG files": "注釈付きフレームをPNGファイルとして書き出し",
		"Show video metadata":                  "動画のメタデータを表示",
		"Show version information":             "バージョン情報を表示",
		"objecttracker version %s":             "objecttracker バージョン %s",

		// Flags
		"YAML configuration file":                                     "YAML設定ファイル",
		"Playback speed multiplier (default: 1.0)":                    "再生速度の倍率（デフォルト: 1.0）",
		"Path to ffmpeg executable (default: search PATH)":            "ffmpeg実行ファイルのパス（デフォルト: PATHを検索）",
		"Path to ffprobe executable for non-MP4 videos":               "MP4以外の動画に使うffprobe実行ファイルのパス",
		"Frame rate of image sequences (default: 25)":                 "連番画像のフレームレート（デフォルト: 25）",
		"Disable circle detection":                                    "円検出を無効化",
		"Log level (debug, info, warn, error)":                        "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                                     "全てのログ出力を抑制",
		"Directory for snapshots (snapshots are disabled when empty)": "スナップショットの保存先（空の場合は無効）",
		"Write logs to this file while the player is open":            "プレーヤー表示中のログをこのファイルに出力",
		"Output directory for PNG frames (required)":                  "PNGフレームの出力ディレクトリ（必須）",
		"Frame to start from (1-based)":                               "開始フレーム（1から数える）",
		"Output execution summary to file (Markdown format)":          "実行サマリーをファイルに出力（Markdown形式）",

		// Runtime messages
		"Error: %v":                     "エラー: %v",
		"Interrupted, shutting down...": "中断されました。シャットダウン中...",
		"Summary saved to %s":           "サマリーを %s に保存しました",
		"Failed to write summary: %v":   "サマリーの書き込みに失敗しました: %v",

		// Probe output
		"Source: image sequence %s": "入力: 連番画像 %s",
		"Source: video file %s":     "入力: 動画ファイル %s",
		"Codec: %s":                 "コーデック: %s",
		"Size: %dx%d":               "サイズ: %dx%d",
		"Fragmented: yes":           "フラグメント化: あり",
		"Frames: %d":                "フレーム数: %d",
		"Frame rate: %.2f fps":      "フレームレート: %.2f fps",
		"Duration: %s":              "再生時間: %s",

		// Summary content
		"Export Summary":   "エクスポートサマリー",
		"Generated":        "生成日時",
		"Video":            "動画",
		"Settings":         "設定",
		"Results":          "実行結果",
		"Item":             "項目",
		"Value":            "値",
		"File":             "ファイル",
		"Codec":            "コーデック",
		"Frame Count":      "フレーム数",
		"Frame Rate":       "フレームレート",
		"Video Duration":   "動画再生時間",
		"Frame Size":       "フレームサイズ",
		"Speed":            "再生速度",
		"Start Frame":      "開始フレーム",
		"Circle Detection": "円検出",
		"Output Directory": "出力ディレクトリ",
		"Enabled":          "有効",
		"Disabled":         "無効",
		"Status":           "状態",
		"Completed":        "完了",
		"Cancelled":        "中断",
		"Frames Exported":  "書き出したフレーム",
		"Frames Skipped":   "スキップしたフレーム",
		"Save Failures":    "保存失敗",
		"Decode Errors":    "デコードエラー",
		"Last Frame":       "最終フレーム",
		"Elapsed":          "所要時間",
		"None":             "なし",
		"Generated by":     "生成:",
	})
}
