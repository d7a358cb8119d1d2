package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Controller
		"Opened %s: %d frames at %.2f fps":               "%s を開きました: %d フレーム, %.2f fps",
		"Failed to open %s: %v":                          "%s を開けませんでした: %v",
		"Failed to close previous video: %v":             "前の動画を閉じられませんでした: %v",
		"Playing from frame %d at %.2fx (session %d)":    "フレーム %d から %.2f 倍速で再生 (セッション %d)",
		"Stopped session %d":                             "セッション %d を停止しました",
		"Session %d reached end of stream":               "セッション %d が動画の終端に到達しました",
		"Decode failed at frame %d, ending playback: %v": "フレーム %d のデコードに失敗したため再生を終了します: %v",
		"Preview of frame %d throttled":                  "フレーム %d のプレビューを間引きました",
		"Preview of frame %d failed: %v":                 "フレーム %d のプレビューに失敗しました: %v",
		"Speed set to %.2fx":                             "再生速度を %.2f 倍に設定しました",

		// Sources
		"Probed %s: codec %s, %d frames, %.2f fps":   "%s を解析: コーデック %s, %d フレーム, %.2f fps",
		"Found %d image frames in %s":                "%d 枚の画像フレームを %s で検出しました",
		"Decoding frame %d with ffmpeg":              "ffmpeg でフレーム %d をデコード中",
		"Opening %s with %s backend":                 "%s を %s バックエンドで開きます",
		"MP4 probe of %s failed, trying ffprobe: %v": "%s のMP4解析に失敗したため ffprobe を使います: %v",

		// Annotator
		"Detected %d circles in %dx%d frame": "%d 個の円を検出しました (%dx%d)",
		"Failed to draw overlay: %v":         "オーバーレイの描画に失敗しました: %v",

		// Transport
		"Discarded stale %s event (generation %d, current %d)": "古い %s イベントを破棄しました (世代 %d, 現在 %d)",
		"Transport command %s failed: %v":                      "操作 %s に失敗しました: %v",

		// Export
		"Exporting %s at %.2fx to %s":     "%s を %.2f 倍速で %s へ書き出し中",
		"Exported %d frames (%d skipped)": "%d フレームを書き出しました (%d フレームをスキップ)",
		"Failed to save frame %d: %v":     "フレーム %d の保存に失敗しました: %v",
		"Saved snapshot of frame %d":      "フレーム %d のスナップショットを保存しました",
		"Export cancelled at frame %d":    "フレーム %d で書き出しを中断しました",

		// Terminal UI
		"Key %s": "キー %s",
	})
}
