// Package tui is the terminal front end of the player: a bubbletea
// program showing the annotated frame as half-block pixels, the position
// slider, the transport labels and playback statistics.
//
// The bubbletea Update loop is the foreground context. Playback events
// reach it as messages and are applied through transport.Transport, so
// all display state is touched from one goroutine.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/user/objecttracker/pkg/playback"
	"github.com/user/objecttracker/pkg/ports"
	"github.com/user/objecttracker/pkg/transport"
)

const (
	DefaultPreviewWidth  = 64
	DefaultPreviewHeight = 24

	// headerRows is the number of lines above the preview.
	headerRows = 1
)

// StatsFunc returns the current playback statistics.
type StatsFunc func() playback.Stats

// Options configures the model.
type Options struct {
	// PreviewWidth and PreviewHeight size the preview in terminal cells.
	PreviewWidth  int
	PreviewHeight int
	// Title is shown in the header, usually the video path.
	Title string
}

func (o Options) withDefaults() Options {
	if o.PreviewWidth < 8 {
		o.PreviewWidth = DefaultPreviewWidth
	}
	if o.PreviewHeight < 4 {
		o.PreviewHeight = DefaultPreviewHeight
	}
	return o
}

// Model implements tea.Model.
type Model struct {
	transport *transport.Transport
	events    <-chan playback.Event
	renderer  ports.Renderer
	stats     StatsFunc
	logger    ports.Logger
	opts      Options

	status   string
	failed   bool
	quitting bool
}

// Messages
type eventMsg playback.Event
type eventsClosedMsg struct{}

// New creates a Model. events is the controller's event stream; stats may
// be nil.
func New(tr *transport.Transport, events <-chan playback.Event, renderer ports.Renderer, stats StatsFunc, logger ports.Logger, opts Options) *Model {
	return &Model{
		transport: tr,
		events:    events,
		renderer:  renderer,
		stats:     stats,
		logger:    logger.WithComponent("tui"),
		opts:      opts.withDefaults(),
	}
}

// Run starts the program on the alternate screen with mouse tracking and
// blocks until the user quits or ctx is cancelled. Cancellation is not
// reported as an error.
func Run(ctx context.Context, m *Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		ev := playback.Event(msg)
		if m.transport.Apply(ev) && ev.Kind == playback.StreamEnded {
			m.setStatus("End of video", nil)
		}
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	m.logger.Debug("Key %s", key)

	var err error
	switch key {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case " ", "space", "p":
		err = m.transport.TogglePlay()
	case "home":
		err = m.transport.FirstFrame()
	case "end":
		err = m.transport.LastFrame()
	case "left":
		err = m.transport.JumpBackward()
	case "right":
		err = m.transport.JumpForward()
	case ",":
		err = m.transport.StepBackward()
	case ".":
		err = m.transport.StepForward()
	case "+", "=":
		err = m.transport.Faster()
	case "-", "_":
		err = m.transport.Slower()
	case "s":
		m.snapshot()
		return m, nil
	default:
		return m, nil
	}
	m.setStatus("", err)
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	width := m.sliderWidth()
	x := msg.X
	if x < 0 {
		x = 0
	}
	if x > width {
		x = width
	}

	var err error
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		switch {
		case msg.Y == m.sliderRow():
			err = m.transport.BeginDrag(x, width)
		case m.inPreview(msg.X, msg.Y):
			err = m.transport.TogglePlay()
		default:
			return
		}
	case tea.MouseActionMotion:
		if !m.transport.Dragging() {
			return
		}
		err = m.transport.DragTo(x, width)
	case tea.MouseActionRelease:
		if !m.transport.Dragging() {
			return
		}
		err = m.transport.EndDrag(x, width)
	default:
		return
	}
	m.setStatus("", err)
}

func (m *Model) snapshot() {
	index, err := m.transport.Snapshot()
	if err != nil {
		m.setStatus("", err)
		return
	}
	m.setStatus(fmt.Sprintf("Saved frame %d", index+1), nil)
}

func (m *Model) setStatus(text string, err error) {
	if err != nil {
		m.status, m.failed = err.Error(), true
		return
	}
	m.status, m.failed = text, false
}

// sliderWidth is the pixel span passed to the transport; the slider is
// one cell wider so both ends are reachable.
func (m *Model) sliderWidth() int {
	return m.opts.PreviewWidth - 1
}

func (m *Model) sliderRow() int {
	return headerRows + m.opts.PreviewHeight
}

func (m *Model) inPreview(x, y int) bool {
	return x >= 0 && x < m.opts.PreviewWidth &&
		y >= headerRows && y < headerRows+m.opts.PreviewHeight
}

// View implements tea.Model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(headerStyle.Render(m.title()))
	b.WriteString("  ")
	b.WriteString(buttonStyle.Render(playButton(m.transport.Intent())))
	b.WriteString("\n")

	if img := m.transport.Image(); img != nil {
		b.WriteString(renderHalfBlocks(m.renderer, img, m.opts.PreviewWidth, m.opts.PreviewHeight))
	} else {
		b.WriteString(blankBlock(m.opts.PreviewWidth, m.opts.PreviewHeight, "No video"))
	}
	b.WriteString("\n")

	b.WriteString(renderSlider(m.transport.Position(), m.transport.Max(), m.opts.PreviewWidth))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render(m.transport.TimeLabel()))
	b.WriteString("   ")
	b.WriteString(labelStyle.Render(m.transport.FrameLabel()))
	b.WriteString("\n")

	if m.stats != nil {
		b.WriteString(mutedStyle.Render(statsLine(m.transport.Speed(), m.stats())))
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render("space play/pause  home/end first/last  ←/→ jump  ,/. step  +/- speed  s snapshot  q quit"))
	b.WriteString("\n")

	if m.status != "" {
		if m.failed {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(statusStyle.Render(m.status))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) title() string {
	if m.opts.Title == "" {
		return "objecttracker"
	}
	return m.opts.Title
}

func playButton(intent playback.Intent) string {
	switch intent {
	case playback.Playing:
		return "❚❚ Pause"
	case playback.Ended:
		return "↺ Replay"
	default:
		return "▶ Play"
	}
}

func statsLine(speed float64, s playback.Stats) string {
	return fmt.Sprintf("speed %.2fx  frames %d  skipped %d  previews %d (throttled %d)  errors %d",
		speed, s.FramesProduced, s.FramesSkipped, s.PreviewsServed, s.PreviewsThrottled, s.DecodeErrors)
}

func waitForEvent(events <-chan playback.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}
