package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wricardo/treasure-hunt/game/render"
)

// Playback speed limits in frames per second
const (
	DefaultFPS = 4
	minFPS     = 1
	maxFPS     = 30
	logLines   = 6
)

// TickMsg advances playback by one frame
type TickMsg time.Time

func tickCmd(fps int) tea.Cmd {
	interval := time.Second / time.Duration(fps)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// KeyMap defines the key bindings for the replay viewer
type KeyMap struct {
	Play   key.Binding
	Next   key.Binding
	Prev   key.Binding
	First  key.Binding
	Last   key.Binding
	Faster key.Binding
	Slower key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Prev, k.Next, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Prev, k.Next, k.First, k.Last},
		{k.Faster, k.Slower, k.Help, k.Quit},
	}
}

// DefaultKeyMap returns default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Play: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "play/pause"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next step"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev step"),
		),
		First: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "first"),
		),
		Last: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "last"),
		),
		Faster: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "faster"),
		),
		Slower: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "slower"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Model is the Bubble Tea model of the replay viewer
type Model struct {
	rec      *Recording
	cursor   int
	playing  bool
	fps      int
	palette  render.Palette
	keys     KeyMap
	help     help.Model
	quitting bool
}

// NewModel creates a viewer positioned on the initial frame, playing
func NewModel(rec *Recording) Model {
	return Model{
		rec:     rec,
		playing: len(rec.Frames) > 1,
		fps:     DefaultFPS,
		palette: render.DefaultPalette(),
		keys:    DefaultKeyMap(),
		help:    help.New(),
	}
}

// Cursor returns the index of the frame on screen
func (m Model) Cursor() int { return m.cursor }

// Playing reports whether playback is running
func (m Model) Playing() bool { return m.playing }

func (m Model) last() int { return len(m.rec.Frames) - 1 }

// Init starts playback
func (m Model) Init() tea.Cmd {
	if m.playing {
		return tickCmd(m.fps)
	}
	return nil
}

// Update handles key presses and playback ticks
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		if !m.playing {
			return m, nil
		}
		if m.cursor < m.last() {
			m.cursor++
		}
		if m.cursor == m.last() {
			m.playing = false
			return m, nil
		}
		return m, tickCmd(m.fps)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Play):
			if m.playing {
				m.playing = false
				return m, nil
			}
			if m.cursor == m.last() {
				m.cursor = 0
			}
			m.playing = m.last() > 0
			if m.playing {
				return m, tickCmd(m.fps)
			}
			return m, nil

		case key.Matches(msg, m.keys.Next):
			m.playing = false
			if m.cursor < m.last() {
				m.cursor++
			}

		case key.Matches(msg, m.keys.Prev):
			m.playing = false
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keys.First):
			m.playing = false
			m.cursor = 0

		case key.Matches(msg, m.keys.Last):
			m.playing = false
			m.cursor = m.last()

		case key.Matches(msg, m.keys.Faster):
			m.fps = min(m.fps*2, maxFPS)

		case key.Matches(msg, m.keys.Slower):
			m.fps = max(m.fps/2, minFPS)

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	}

	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	statStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	eventStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// View renders the current frame
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	frame := m.rec.Frames[m.cursor]

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Treasure Hunt - %s", m.rec.ConfigName)))
	b.WriteString("\n\n")

	board := boardStyle.Render(m.palette.Styled(frame.Grid))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, board, "  ", m.sidebar()))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) sidebar() string {
	frame := m.rec.Frames[m.cursor]
	p := frame.Player

	state := "paused"
	if m.playing {
		state = fmt.Sprintf("playing %d fps", m.fps)
	}

	lines := []string{
		statStyle.Render(fmt.Sprintf("Step %d/%d (%s)", m.cursor, m.last(), state)),
		statStyle.Render(fmt.Sprintf("Position %s", p.Position)),
		statStyle.Render(fmt.Sprintf("Energy %g", p.Energy)),
		statStyle.Render(fmt.Sprintf("Cost/step %g  Speed %g", p.EnergyPerStep, p.Speed)),
		statStyle.Render(fmt.Sprintf("Collected %d", m.rec.Collected(m.cursor))),
		"",
	}

	if step := frame.Step; step != nil {
		if !step.Moved {
			lines = append(lines, eventStyle.Render("Move dropped at the edge"))
		}
		for _, effect := range step.Effects {
			lines = append(lines, eventStyle.Render(fmt.Sprintf("%s at %s: %s", effect.Symbol, effect.At, effect.Detail)))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, append(lines, m.legLog()...)...)
}

// legLog lists the most recent leg reports up to the current frame
func (m Model) legLog() []string {
	var log []string
	for _, frame := range m.rec.Frames[:m.cursor+1] {
		for _, leg := range frame.Legs {
			log = append(log, render.LegSummary(leg))
		}
	}
	if len(log) > logLines {
		log = log[len(log)-logLines:]
	}
	if len(log) > 0 {
		log = append([]string{""}, log...)
	}
	return log
}

// Watch replays a recording in the terminal until the user quits
func Watch(rec *Recording, opts ...tea.ProgramOption) error {
	if len(rec.Frames) == 0 {
		return fmt.Errorf("nothing to replay")
	}
	_, err := tea.NewProgram(NewModel(rec), opts...).Run()
	return err
}
