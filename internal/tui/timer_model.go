package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/fencer/internal/engine"
	"github.com/balkashynov/fencer/internal/models"
	"github.com/balkashynov/fencer/internal/parser"
)

// TimerOptions configures the countdown screen
type TimerOptions struct {
	Theme       models.Theme
	ConfirmStop bool
	// BlockCheck is how often to look for blocked apps; 0 disables it
	BlockCheck time.Duration
}

// TimerModel shows the active session's countdown and drives the engine
// from key presses. Engine snapshots arrive through updates.
type TimerModel struct {
	engine  *engine.Engine
	opts    TimerOptions
	palette Palette
	keys    timerKeyMap
	help    help.Model
	bar     progress.Model
	updates chan engine.Snapshot
	quote   string

	width  int
	height int

	snap       engine.Snapshot
	blockedApp string

	// Animation state
	timerAnimation int

	// UI state
	confirming bool
	finished   *models.Session
	stopErr    error
}

// snapshotMsg carries an engine snapshot into the update loop
type snapshotMsg engine.Snapshot

// blockCheckMsg asks for a blocked app check
type blockCheckMsg struct{}

// blockedMsg reports the blocked app found running, if any
type blockedMsg struct {
	app string
	err error
}

// animationTickMsg is sent for the header animation
type animationTickMsg struct{}

// NewTimerModel creates a timer bound to e. Subscribe its Listener before
// running the program.
func NewTimerModel(e *engine.Engine, opts TimerOptions) TimerModel {
	palette := PaletteFor(opts.Theme)

	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color(palette.AccentBright))
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.Color(palette.HelpText))

	return TimerModel{
		engine:  e,
		opts:    opts,
		palette: palette,
		keys:    defaultTimerKeys(),
		help:    h,
		bar:     progress.New(progress.WithGradient(palette.AccentMain, palette.AccentBright), progress.WithoutPercentage()),
		updates: make(chan engine.Snapshot, 1),
		quote:   randomQuote(),
		snap:    e.Snapshot(),
	}
}

// Listener forwards snapshots to the model, keeping only the newest one
// when the UI falls behind
func (m TimerModel) Listener() engine.Listener {
	ch := m.updates
	return func(s engine.Snapshot) {
		for {
			select {
			case ch <- s:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	}
}

func (m TimerModel) waitForSnapshot() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		return snapshotMsg(<-ch)
	}
}

func (m TimerModel) scheduleBlockCheck() tea.Cmd {
	if m.opts.BlockCheck <= 0 {
		return nil
	}
	return tea.Tick(m.opts.BlockCheck, func(time.Time) tea.Msg {
		return blockCheckMsg{}
	})
}

func (m TimerModel) checkBlocked() tea.Cmd {
	e := m.engine
	timeout := m.opts.BlockCheck
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		app, err := e.CheckBlocked(ctx)
		return blockedMsg{app: app, err: err}
	}
}

// Init starts listening for snapshots and the periodic checks
func (m TimerModel) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.waitForSnapshot(),
		tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
			return animationTickMsg{}
		}),
	}
	if m.opts.BlockCheck > 0 {
		cmds = append(cmds, m.checkBlocked())
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		s := engine.Snapshot(msg)
		if s.Seq < m.snap.Seq {
			return m, m.waitForSnapshot()
		}
		m.snap = s
		if s.Phase == engine.Idle {
			if s.Finished != nil && m.finished == nil {
				m.finished = s.Finished
				m.stopErr = s.Err
			}
			return m, tea.Quit
		}
		return m, m.waitForSnapshot()

	case blockCheckMsg:
		if m.snap.Phase == engine.Idle {
			return m, nil
		}
		return m, m.checkBlocked()

	case blockedMsg:
		if msg.err == nil {
			m.blockedApp = msg.app
		}
		return m, m.scheduleBlockCheck()

	case animationTickMsg:
		m.timerAnimation = (m.timerAnimation + 1) % 4
		return m, tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
			return animationTickMsg{}
		})

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.bar.Width = min(max(msg.Width-20, 10), 60)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m TimerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.stop()
	}

	if m.confirming {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			return m.stop()
		case key.Matches(msg, m.keys.Cancel):
			m.confirming = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Pause):
		var err error
		if m.snap.Phase == engine.Paused {
			err = m.engine.Resume()
		} else {
			err = m.engine.Pause()
		}
		if err != nil {
			m.stopErr = err
		}
		m.snap = m.engine.Snapshot()
	case key.Matches(msg, m.keys.Stop), key.Matches(msg, m.keys.Quit):
		if m.opts.ConfirmStop {
			m.confirming = true
			return m, nil
		}
		return m.stop()
	}
	return m, nil
}

// stop ends the session as not completed and quits
func (m TimerModel) stop() (tea.Model, tea.Cmd) {
	finished, err := m.engine.Stop(false)
	if finished != nil {
		m.finished = finished
	}
	m.stopErr = err
	return m, tea.Quit
}

// Finished returns the session that ended while the timer was shown
func (m TimerModel) Finished() *models.Session {
	return m.finished
}

// Err returns the last error from the engine, typically a failed save
func (m TimerModel) Err() error {
	return m.stopErr
}

// View renders the timer TUI
func (m TimerModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	helpBar := lipgloss.NewStyle().Align(lipgloss.Center).Width(m.width).Render(m.help.View(m.keys))
	contentHeight := m.height - lipgloss.Height(helpBar) - 1

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderTimerPanel(m.width, contentHeight),
		helpBar,
	)
}

func (m TimerModel) centered(width int, color string) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(color)).
		Align(lipgloss.Center).
		Width(width)
}

// renderTimerPanel renders the countdown and session details
func (m TimerModel) renderTimerPanel(width, height int) string {
	var components []string

	animChars := []string{"◐", "◓", "◑", "◒"}
	animChar := animChars[m.timerAnimation]
	headerText := fmt.Sprintf("%s  FOCUS  %s", animChar, animChar)
	if m.snap.Phase == engine.Paused {
		headerText = "⏸  PAUSED  ⏸"
	}
	components = append(components, m.centered(width, m.palette.AccentBright).Bold(true).Render(headerText))

	components = append(components, m.centered(width, m.palette.SecondaryText).Italic(true).Render(m.quote))

	components = append(components, renderBigClock(m.snap.Remaining, width, m.clockColor()))

	percent := 0.0
	if m.snap.Planned > 0 {
		percent = float64(m.snap.Planned-m.snap.Remaining) / float64(m.snap.Planned)
	}
	components = append(components, lipgloss.NewStyle().Align(lipgloss.Center).Width(width).Render(m.bar.ViewAs(percent)))

	components = append(components, m.centered(width, m.palette.SecondaryText).Render(m.sessionInfo()))

	if m.blockedApp != "" {
		warning := fmt.Sprintf("⚠️  %s is running. Close it and get back to work.", m.blockedApp)
		components = append(components, m.centered(width, m.palette.Warning).Bold(true).Render(warning))
	}

	if m.confirming {
		prompt := "Give up this session? Your progress will not be counted. (y/n)"
		components = append(components, m.centered(width, m.palette.Error).Bold(true).Render(prompt))
	} else if m.stopErr != nil {
		components = append(components, m.centered(width, m.palette.Error).Render(m.stopErr.Error()))
	}

	content := strings.Join(components, "\n\n")

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func (m TimerModel) clockColor() string {
	if m.snap.Phase == engine.Paused {
		return m.palette.DisabledText
	}
	return m.palette.AccentBright
}

func (m TimerModel) sessionInfo() string {
	if m.snap.Active == nil {
		return ""
	}
	info := fmt.Sprintf("Started at %s · %s session",
		m.snap.Active.StartedAt.Format("15:04"),
		parser.FormatMinutes(m.snap.Active.PlannedMinutes()))
	if len(m.snap.Active.BlockedApps) > 0 {
		info += " · blocking " + strings.Join(m.snap.Active.BlockedApps, ", ")
	}
	return info
}

// ASCII art for digits (5x5 characters each)
var bigDigits = map[rune][5]string{
	'0': {" ███ ", "█   █", "█   █", "█   █", " ███ "},
	'1': {"  █  ", " ██  ", "  █  ", "  █  ", "█████"},
	'2': {" ███ ", "█   █", "   █ ", "  █  ", "█████"},
	'3': {" ███ ", "█   █", "  ██ ", "█   █", " ███ "},
	'4': {"█   █", "█   █", "█████", "    █", "    █"},
	'5': {"█████", "█    ", "████ ", "    █", "████ "},
	'6': {" ███ ", "█    ", "████ ", "█   █", " ███ "},
	'7': {"█████", "    █", "   █ ", "  █  ", " █   "},
	'8': {" ███ ", "█   █", " ███ ", "█   █", " ███ "},
	'9': {" ███ ", "█   █", " ████", "    █", " ███ "},
	':': {"     ", "  █  ", "     ", "  █  ", "     "},
}

// renderBigClock renders seconds as a centered ASCII art clock
func renderBigClock(seconds, width int, color string) string {
	var lines [5]strings.Builder
	for _, char := range parser.FormatClock(seconds) {
		art, ok := bigDigits[char]
		if !ok {
			continue
		}
		for i := range art {
			lines[i].WriteString(art[i])
			lines[i].WriteString(" ")
		}
	}

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(color)).
		Bold(true).
		Align(lipgloss.Center).
		Width(width)

	rendered := make([]string, len(lines))
	for i := range lines {
		rendered[i] = style.Render(lines[i].String())
	}
	return strings.Join(rendered, "\n")
}
