package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdlink/mdlink/internal/domain"
)

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func TestModelRendersConsoleText(t *testing.T) {
	sink := NewSink()
	m := sized(New("matlab", sink.Events()))

	next, _ := m.Update(eventMsg{Kind: EventText, Text: "ans =\n    42\n"})
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "ans =")
	assert.Contains(t, view, "42")
}

func TestModelSidebarShowsStackAndBreakpoints(t *testing.T) {
	sink := NewSink()
	m := sized(New("matlab", sink.Events()))

	next, _ := m.Update(eventMsg{Kind: EventFrames, Frames: []domain.Frame{
		{File: "solve.m", Name: "solve", Line: -12},
		{File: "main.m", Name: "main", Line: 3},
	}})
	m = next.(Model)
	next, _ = m.Update(eventMsg{Kind: EventBreakpoints, Breakpoints: []domain.Breakpoint{
		{File: "solve.m", Name: "solve", Line: 12},
	}})
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "solve.m:12")
	assert.Contains(t, view, "main.m:3")
}

func TestModelDebugStateBadge(t *testing.T) {
	sink := NewSink()
	m := sized(New("matlab", sink.Events()))
	assert.Contains(t, m.View(), "idle")

	next, _ := m.Update(eventMsg{Kind: EventDebugState, State: domain.DebugActive})
	m = next.(Model)
	assert.Contains(t, m.View(), "debugging")
}

func TestModelQuitsOnStreamClose(t *testing.T) {
	sink := NewSink()
	m := sized(New("matlab", sink.Events()))

	_, cmd := m.Update(streamClosedMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestSinkDeliversInOrder(t *testing.T) {
	sink := NewSink()
	require.NoError(t, sink.AppendText("one"))
	require.NoError(t, sink.RenderFrameList(nil))
	sink.Close()

	ev, ok := <-sink.Events()
	require.True(t, ok)
	assert.Equal(t, EventText, ev.Kind)
	ev, ok = <-sink.Events()
	require.True(t, ok)
	assert.Equal(t, EventFrames, ev.Kind)
	_, ok = <-sink.Events()
	assert.False(t, ok)
}
