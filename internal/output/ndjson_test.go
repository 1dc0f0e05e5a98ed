package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdlink/mdlink/internal/domain"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line, err := buf.ReadBytes('\n')
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(line, &m))
	return m
}

func TestAppendTextEmitsFlushEvent(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	require.NoError(t, w.AppendText(">> ans = 42\n"))

	m := decodeLine(t, buf)
	require.Equal(t, "flush", m["type"])
	require.EqualValues(t, 1, m["schemaVersion"])
	require.Equal(t, ">> ans = 42\n", m["text"])
}

func TestRenderFrameList(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	frames := []domain.Frame{{File: "/f.m", Name: "fcn", Line: -5}}
	require.NoError(t, w.RenderFrameList(frames))

	m := decodeLine(t, buf)
	require.Equal(t, "frame_list", m["type"])
	got, ok := m["frames"].([]interface{})
	require.True(t, ok)
	require.Len(t, got, 1)
	frame := got[0].(map[string]interface{})
	assert.Equal(t, "/f.m", frame["file"])
	assert.EqualValues(t, -5, frame["line"])
}

func TestRenderFrameListEmptyIsNotNull(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	require.NoError(t, w.RenderFrameList(nil))

	m := decodeLine(t, buf)
	_, ok := m["frames"].([]interface{})
	assert.True(t, ok, "frames must encode as [], not null")
}

func TestWriteDebugState(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	require.NoError(t, w.WriteDebugState(domain.DebugActive, 2))

	m := decodeLine(t, buf)
	require.Equal(t, "debug_state", m["type"])
	require.Equal(t, "active", m["state"])
	require.EqualValues(t, 2, m["session"])
}

func TestWriteBreakpointChange(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	bp := domain.Breakpoint{File: "/a.m", Name: "f", Line: 10}
	require.NoError(t, w.WriteBreakpointChange(true, bp))
	require.NoError(t, w.WriteBreakpointChange(false, bp))

	m := decodeLine(t, buf)
	assert.Equal(t, "breakpoint_added", m["type"])
	m = decodeLine(t, buf)
	assert.Equal(t, "breakpoint_removed", m["type"])
	assert.EqualValues(t, 10, m["line"])
}

func TestWriteError(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewNDJSONWriter(buf)

	require.NoError(t, w.WriteError("MATLAB_NOT_FOUND", "no matlab on PATH", "set command in mdlink.yaml"))

	m := decodeLine(t, buf)
	require.Equal(t, "error", m["type"])
	require.Equal(t, "MATLAB_NOT_FOUND", m["code"])
	require.Equal(t, "no matlab on PATH", m["message"])
	require.Equal(t, "set command in mdlink.yaml", m["hint"])
}

func TestTextWriterFrameTable(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewTextWriter(buf)

	require.NoError(t, w.RenderFrameList([]domain.Frame{
		{File: "/f.m", Name: "fcn", Line: -5},
		{File: "/g.m", Name: "caller", Line: 20},
	}))

	out := buf.String()
	assert.Contains(t, out, "call stack")
	assert.Contains(t, out, "fcn")
	assert.Contains(t, out, "/g.m")
	assert.Contains(t, out, "1*") // current frame marker
}

func TestTextWriterEmptyLists(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewTextWriter(buf)

	require.NoError(t, w.RenderFrameList(nil))
	require.NoError(t, w.RenderBreakpointList(nil))

	assert.Contains(t, buf.String(), "no active stack")
	assert.Contains(t, buf.String(), "no breakpoints")
}
