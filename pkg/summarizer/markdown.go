package summarizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/ideamans/go-l10n"
)

// MarkdownFormatter renders a Summary as a Markdown document with one
// table per section.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator replaces the l10n translator used for headings and labels.
func WithTranslator(fn func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = fn
	}
}

// WithVersion adds the tool version to the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{translate: l10n.T}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Export Summary"))
	fmt.Fprintf(&b, "%s: %s\n\n", t("Generated"), s.GeneratedAt.Format(time.RFC3339))

	f.section(&b, t("Video"), [][2]string{
		{t("File"), s.Video.Path},
		{t("Codec"), orNone(t, s.Video.Codec)},
		{t("Frame Count"), fmt.Sprintf("%d", s.Video.FrameCount)},
		{t("Frame Rate"), fmt.Sprintf("%.2f fps", s.Video.FPS)},
		{t("Video Duration"), formatMs(s.Video.DurationMs)},
		{t("Frame Size"), formatSize(t, s.Video.Width, s.Video.Height)},
	})

	detection := t("Disabled")
	if s.Settings.Detection {
		detection = fmt.Sprintf("%s (r %d-%d px)", t("Enabled"), s.Settings.MinRadius, s.Settings.MaxRadius)
	}
	f.section(&b, t("Settings"), [][2]string{
		{t("Speed"), fmt.Sprintf("%.2fx", s.Settings.Speed)},
		{t("Start Frame"), fmt.Sprintf("%d", s.Settings.StartFrame+1)},
		{t("Circle Detection"), detection},
		{t("Output Directory"), orNone(t, s.Settings.OutputDir)},
	})

	status := t("Cancelled")
	if s.Results.Completed {
		status = t("Completed")
	}
	last := t("None")
	if s.Results.LastFrame >= 0 {
		last = fmt.Sprintf("%d", s.Results.LastFrame+1)
	}
	f.section(&b, t("Results"), [][2]string{
		{t("Status"), status},
		{t("Frames Exported"), fmt.Sprintf("%d", s.Results.Exported)},
		{t("Frames Skipped"), fmt.Sprintf("%d", s.Results.Skipped)},
		{t("Save Failures"), fmt.Sprintf("%d", s.Results.SaveFailures)},
		{t("Decode Errors"), fmt.Sprintf("%d", s.Results.DecodeErrors)},
		{t("Last Frame"), last},
		{t("Elapsed"), formatMs(s.Results.ElapsedMs)},
	})

	b.WriteString("---\n\n")
	b.WriteString(t("Generated by"))
	b.WriteString(" objecttracker")
	if f.version != "" {
		b.WriteString(" ")
		b.WriteString(f.version)
	}
	b.WriteString("\n")

	return b.String()
}

func (f *MarkdownFormatter) section(b *strings.Builder, title string, rows [][2]string) {
	fmt.Fprintf(b, "## %s\n\n", title)
	fmt.Fprintf(b, "| %s | %s |\n", f.translate("Item"), f.translate("Value"))
	b.WriteString("|---|---|\n")
	for _, row := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", row[0], row[1])
	}
	b.WriteString("\n")
}

func orNone(t func(string) string, v string) string {
	if v == "" {
		return t("None")
	}
	return v
}

func formatSize(t func(string) string, w, h int) string {
	if w <= 0 || h <= 0 {
		return t("None")
	}
	return fmt.Sprintf("%dx%d", w, h)
}

// formatMs renders milliseconds as seconds with two decimals.
func formatMs(ms int) string {
	return fmt.Sprintf("%.2f s", float64(ms)/1000)
}

var _ Formatter = (*MarkdownFormatter)(nil)
