package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/mdlink/mdlink/internal/domain"
)

const sidebarWidth = 38

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	sideStyle   = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			PaddingLeft(1).
			Width(sidebarWidth)
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	footerStyle  = lipgloss.NewStyle().Faint(true).Padding(0, 1)
)

type eventMsg Event

type streamClosedMsg struct{}

// Model is the bubbletea model for the live debugger view.
type Model struct {
	command string
	events  <-chan Event

	viewport    viewport.Model
	content     strings.Builder
	frames      []domain.Frame
	breakpoints []domain.Breakpoint
	state       domain.DebugState
	lastErr     error

	ready  bool
	width  int
	height int
}

// New creates a view for command fed by events.
func New(command string, events <-chan Event) Model {
	return Model{command: command, events: events}
}

// Init starts listening for display updates.
func (m Model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(ev)
	}
}

// Update handles input and display events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		bodyHeight := msg.Height - 2
		if bodyHeight < 1 {
			bodyHeight = 1
		}
		consoleWidth := msg.Width - sidebarWidth - 1
		if consoleWidth < 1 {
			consoleWidth = 1
		}
		if !m.ready {
			m.viewport = viewport.New(consoleWidth, bodyHeight)
			m.viewport.SetContent(m.content.String())
			m.ready = true
		} else {
			m.viewport.Width = consoleWidth
			m.viewport.Height = bodyHeight
		}

	case eventMsg:
		m.apply(Event(msg))
		return m, m.waitForEvent()

	case streamClosedMsg:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) apply(ev Event) {
	switch ev.Kind {
	case EventText:
		m.content.WriteString(ev.Text)
		if m.ready {
			atBottom := m.viewport.AtBottom()
			m.viewport.SetContent(m.content.String())
			if atBottom {
				m.viewport.GotoBottom()
			}
		}
	case EventFrames:
		m.frames = ev.Frames
	case EventBreakpoints:
		m.breakpoints = ev.Breakpoints
	case EventDebugState:
		m.state = ev.State
	case EventError:
		m.lastErr = ev.Err
	}
}

// View renders the console beside the stack and breakpoint sidebar.
func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}

	body := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.viewport.View(),
		sideStyle.Height(m.viewport.Height).Render(m.sidebar()),
	)

	return m.header() + "\n" + body + "\n" + m.footer()
}

func (m Model) header() string {
	badge := idleStyle.Render("idle")
	if m.state == domain.DebugActive {
		badge = activeStyle.Render("debugging")
	}
	return headerStyle.Render(fmt.Sprintf("mdlink · %s · %s", m.command, badge))
}

func (m Model) footer() string {
	if m.lastErr != nil {
		return footerStyle.Render(errStyle.Render("error: " + m.lastErr.Error()))
	}
	return footerStyle.Render("q: quit · ↑/↓: scroll")
}

func (m Model) sidebar() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Stack"))
	b.WriteString("\n")
	if len(m.frames) == 0 {
		b.WriteString("(no active stack)\n")
	} else {
		for i, f := range m.frames {
			line := fmt.Sprintf("%d %s:%d %s", i+1, f.File, f.AbsLine(), f.Name)
			if f.Current() {
				line = currentStyle.Render("» " + line)
			} else {
				line = "  " + line
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Breakpoints"))
	b.WriteString("\n")
	if len(m.breakpoints) == 0 {
		b.WriteString("(none)\n")
	} else {
		lines := lo.Map(m.breakpoints, func(bp domain.Breakpoint, _ int) string {
			return fmt.Sprintf("  %s:%d", bp.File, bp.Line)
		})
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}

	return b.String()
}
