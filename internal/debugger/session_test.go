package debugger

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdlink/mdlink/internal/domain"
	"github.com/mdlink/mdlink/internal/hotlink"
	"github.com/mdlink/mdlink/internal/prompt"
)

const (
	plainPrompt = "\n>> "
	debugPrompt = "\nK>> "
)

// recordingSink captures everything the filter releases.
type recordingSink struct {
	text        strings.Builder
	frameLists  [][]domain.Frame
	bpLists     [][]domain.Breakpoint
}

func (r *recordingSink) AppendText(text string) error {
	r.text.WriteString(text)
	return nil
}

func (r *recordingSink) RenderFrameList(frames []domain.Frame) error {
	r.frameLists = append(r.frameLists, frames)
	return nil
}

func (r *recordingSink) RenderBreakpointList(bps []domain.Breakpoint) error {
	r.bpLists = append(r.bpLists, bps)
	return nil
}

// changeRecordingSink additionally records per-breakpoint add/remove edges.
type changeRecordingSink struct {
	recordingSink
	changes []string
}

func (c *changeRecordingSink) WriteBreakpointChange(added bool, bp domain.Breakpoint) error {
	verb := "removed"
	if added {
		verb = "added"
	}
	c.changes = append(c.changes, fmt.Sprintf("%s %s:%d", verb, bp.File, bp.Line))
	return nil
}

// recordingSurface tracks live breakpoint markers.
type recordingSurface struct {
	marks map[domain.BreakpointKey]int
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{marks: map[domain.BreakpointKey]int{}}
}

func (r *recordingSurface) MarkBreakpoint(file string, line int) error {
	r.marks[domain.BreakpointKey{File: file, Line: line}]++
	return nil
}

func (r *recordingSurface) UnmarkBreakpoint(file string, line int) error {
	delete(r.marks, domain.BreakpointKey{File: file, Line: line})
	return nil
}

func newTestSession(t *testing.T, hooks prompt.Hooks) (*Session, *recordingSink, *recordingSurface, *bytes.Buffer) {
	t.Helper()
	sink := &recordingSink{}
	surface := newRecordingSurface()
	requests := &bytes.Buffer{}
	s, err := NewSession(Config{
		Requests: requests,
		Sink:     sink,
		Surface:  surface,
		Hooks:    hooks,
	})
	require.NoError(t, err)
	return s, sink, surface, requests
}

func ingest(t *testing.T, s *Session, text string) {
	t.Helper()
	require.NoError(t, s.Ingest([]byte(text)))
}

func TestPlainOutputFlushesByLine(t *testing.T) {
	s, sink, _, _ := newTestSession(t, prompt.Hooks{})

	ingest(t, s, "ans =\n    42\npartial")
	assert.Equal(t, "ans =\n    42\n", sink.text.String())

	ingest(t, s, " line\n")
	assert.Equal(t, "ans =\n    42\npartial line\n", sink.text.String())
}

func TestTrailingPromptFlushesSpeculatively(t *testing.T) {
	s, sink, _, _ := newTestSession(t, prompt.Hooks{})

	ingest(t, s, "done\n>> ")
	assert.Equal(t, "done\n>> ", sink.text.String())
}

func TestOpenMarkerWithheldUntilClosed(t *testing.T) {
	s, sink, _, _ := newTestSession(t, prompt.Hooks{})

	ingest(t, s, "before\n<a href=\"matlab:opentoline('/f.m',3)\">f.m line 3")
	assert.Equal(t, "before\n", sink.text.String())

	// Complete lines after the opener stay held too.
	ingest(t, s, "\nmore output\n")
	assert.Equal(t, "before\n", sink.text.String())

	ingest(t, s, "</a>\n")
	assert.Equal(t, "before\n<a href=\"matlab:opentoline('/f.m',3)\">f.m line 3\nmore output\n</a>\n", sink.text.String())
}

func TestErrorControlBytesArriveAsSentinels(t *testing.T) {
	s, sink, _, _ := newTestSession(t, prompt.Hooks{})

	ingest(t, s, "x\x02Undefined variable\x03y\n")
	assert.Equal(t, "x<ERRORTXT>Undefined variable</ERRORTXT>y\n", sink.text.String())
}

func TestHotlinkRoundTrip(t *testing.T) {
	s, sink, _, requests := newTestSession(t, prompt.Hooks{})

	envelope := `(("/f.m" "fcn" 5))`
	ingest(t, s, "K>> "+"\n"+hotlink.EchoMarker+envelope+plainPrompt)

	// The debug prompt armed the exchange.
	assert.Contains(t, requests.String(), hotlink.RequestCommand)

	// Registry holds exactly the decoded frame.
	frames := s.StackFrames()
	require.Len(t, frames, 1)
	assert.Equal(t, domain.Frame{File: "/f.m", Name: "fcn", Line: 5}, frames[0])

	// No part of the envelope reached the display.
	assert.NotContains(t, sink.text.String(), "fcn")
	assert.NotContains(t, sink.text.String(), hotlink.EchoMarker)
	assert.Contains(t, sink.text.String(), "K>> \n")
	assert.True(t, strings.HasSuffix(sink.text.String(), ">> "))

	// The frame list was rendered.
	require.NotEmpty(t, sink.frameLists)
	assert.Len(t, sink.frameLists[len(sink.frameLists)-1], 1)
}

func TestHotlinkRoundTripFragmented(t *testing.T) {
	whole := "K>> \n" + hotlink.EchoMarker + `(("/f.m" "fcn" 5) ("/g.m" "g" -9))` + plainPrompt

	// Same outcome regardless of chunking.
	for _, size := range []int{1, 2, 3, 7, len(whole)} {
		s, sink, _, _ := newTestSession(t, prompt.Hooks{})
		for i := 0; i < len(whole); i += size {
			end := i + size
			if end > len(whole) {
				end = len(whole)
			}
			ingest(t, s, whole[i:end])
		}
		require.Len(t, s.StackFrames(), 2, "chunk size %d", size)
		assert.NotContains(t, sink.text.String(), hotlink.EchoMarker, "chunk size %d", size)
		assert.Equal(t, "K>> >> ", strings.ReplaceAll(sink.text.String(), "\n", ""), "chunk size %d", size)
	}
}

func TestHotlinkAbandonment(t *testing.T) {
	s, _, _, _ := newTestSession(t, prompt.Hooks{})

	ingest(t, s, "K>> \n")
	ingest(t, s, ">> ")

	assert.Empty(t, s.StackFrames())
	summary := s.Summary()
	assert.Equal(t, 1, summary.HotlinkAbandoned)
	assert.Zero(t, summary.HotlinkRoundTrips)
}

func TestHoldAllWhilePendingAfterFirstPrompt(t *testing.T) {
	s, sink, _, _ := newTestSession(t, prompt.Hooks{})

	ingest(t, s, ">> \n")
	flushedBefore := sink.text.String()

	// Debug prompt arms the exchange; with a prompt already seen, everything
	// is held until the echo arrives.
	ingest(t, s, "K>> \n")
	ingest(t, s, "interleaved output\n")
	assert.Equal(t, flushedBefore, sink.text.String())

	ingest(t, s, hotlink.EchoMarker+"()"+plainPrompt)
	assert.Contains(t, sink.text.String(), "interleaved output\n")
	assert.NotContains(t, sink.text.String(), hotlink.EchoMarker)
}

func TestActivationDeactivationOrder(t *testing.T) {
	var calls []string
	s, _, _, _ := newTestSession(t, prompt.Hooks{
		OnActivate:   func() { calls = append(calls, "activate") },
		OnDeactivate: func() { calls = append(calls, "deactivate") },
	})

	ingest(t, s, ">> \n")
	ingest(t, s, "K>> \n")
	ingest(t, s, ">> ")

	assert.Equal(t, []string{"activate", "deactivate"}, calls)
	assert.Equal(t, domain.DebugInactive, s.State())
}

func TestPlainPromptClearsStackDisplay(t *testing.T) {
	s, sink, _, _ := newTestSession(t, prompt.Hooks{})

	ingest(t, s, "K>> \n"+hotlink.EchoMarker+`(("/f.m" "fcn" 5))`+plainPrompt)
	require.Len(t, s.StackFrames(), 1)

	// A later plain prompt means the debugger is gone; the frame display is
	// cleared before the prompt shows.
	ingest(t, s, "ans = 1"+plainPrompt)
	assert.Empty(t, s.StackFrames())
	require.NotEmpty(t, sink.frameLists)
	assert.Empty(t, sink.frameLists[len(sink.frameLists)-1])
}

func TestBreakpointUniqueness(t *testing.T) {
	s, _, surface, _ := newTestSession(t, prompt.Hooks{})

	require.NoError(t, s.AddBreakpoint("a.m", "f", 10))
	require.NoError(t, s.AddBreakpoint("a.m", "f", 10))
	assert.Len(t, s.Breakpoints(), 1)
	assert.Len(t, surface.marks, 1)

	require.NoError(t, s.RemoveBreakpoint("a.m", 10))
	assert.Empty(t, s.Breakpoints())
	assert.Empty(t, surface.marks)
}

func TestRemoveBreakpointIgnoresName(t *testing.T) {
	s, _, _, _ := newTestSession(t, prompt.Hooks{})

	require.NoError(t, s.AddBreakpoint("a.m", "first", 10))
	require.NoError(t, s.AddBreakpoint("a.m", "other", 20))
	require.NoError(t, s.RemoveBreakpoint("a.m", 10))

	bps := s.Breakpoints()
	require.Len(t, bps, 1)
	assert.Equal(t, 20, bps[0].Line)
}

func TestBreakpointPayloadReplacesRegistry(t *testing.T) {
	s, sink, surface, _ := newTestSession(t, prompt.Hooks{})

	require.NoError(t, s.AddBreakpoint("old.m", "f", 1))
	ingest(t, s, "K>> \n"+hotlink.EchoMarker+`breakpoints (("/a.m" "f" 10) ("/b.m" "g" 20))`+plainPrompt)

	bps := s.Breakpoints()
	require.Len(t, bps, 2)
	assert.Len(t, surface.marks, 2)
	assert.NotContains(t, surface.marks, domain.BreakpointKey{File: "old.m", Line: 1})
	require.NotEmpty(t, sink.bpLists)
}

func TestBreakpointChangeEvents(t *testing.T) {
	sink := &changeRecordingSink{}
	s, err := NewSession(Config{
		Requests: &bytes.Buffer{},
		Sink:     sink,
		Surface:  newRecordingSurface(),
	})
	require.NoError(t, err)

	require.NoError(t, s.AddBreakpoint("/a.m", "f", 10))
	require.NoError(t, s.AddBreakpoint("/b.m", "g", 20))
	require.NoError(t, s.AddBreakpoint("/b.m", "g", 20)) // duplicate is silent
	require.NoError(t, s.RemoveBreakpoint("/a.m", 10))
	assert.Equal(t, []string{"added /a.m:10", "added /b.m:20", "removed /a.m:10"}, sink.changes)

	// A breakpoint payload reports only the diff against the registry.
	sink.changes = nil
	ingest(t, s, "K>> \n"+hotlink.EchoMarker+`breakpoints (("/b.m" "g" 20) ("/c.m" "h" 5))`+plainPrompt)
	assert.Equal(t, []string{"added /c.m:5"}, sink.changes)
}

func TestReapplyMarks(t *testing.T) {
	s, _, surface, _ := newTestSession(t, prompt.Hooks{})

	require.NoError(t, s.AddBreakpoint("a.m", "f", 10))
	require.NoError(t, s.AddBreakpoint("b.m", "g", 20))
	surface.marks = map[domain.BreakpointKey]int{} // file closed, markers gone

	require.NoError(t, s.ReapplyMarks("a.m"))
	assert.Len(t, surface.marks, 1)
	assert.Contains(t, surface.marks, domain.BreakpointKey{File: "a.m", Line: 10})
}

func TestShowFrameBounds(t *testing.T) {
	s, _, _, _ := newTestSession(t, prompt.Hooks{})

	ingest(t, s, "K>> \n"+hotlink.EchoMarker+`(("/f.m" "top" 5) ("/g.m" "caller" 9))`+plainPrompt)

	f, err := s.ShowFrame(1)
	require.NoError(t, err)
	assert.Equal(t, "top", f.Name)

	_, err = s.ShowFrame(0)
	assert.Error(t, err)
	_, err = s.ShowFrame(3)
	assert.Error(t, err)
}

func TestMalformedPayloadIsNonFatal(t *testing.T) {
	s, sink, _, _ := newTestSession(t, prompt.Hooks{})

	ingest(t, s, "K>> \n"+hotlink.EchoMarker+"((not a tuple"+plainPrompt)
	assert.Empty(t, s.StackFrames())

	// The filter keeps working afterwards.
	ingest(t, s, "\nmore output\n")
	assert.Contains(t, sink.text.String(), "more output\n")
}

func TestCloseDiscardsAllState(t *testing.T) {
	s, _, surface, _ := newTestSession(t, prompt.Hooks{})

	ingest(t, s, "K>> \n"+hotlink.EchoMarker+`(("/f.m" "fcn" 5))`+plainPrompt)
	require.Len(t, s.StackFrames(), 1)
	require.NoError(t, s.AddBreakpoint("a.m", "f", 10))

	require.NoError(t, s.Close())
	assert.Empty(t, s.StackFrames())
	assert.Empty(t, s.Breakpoints())
	assert.Empty(t, surface.marks)
	assert.Equal(t, domain.DebugInactive, s.State())
}

func TestChunkedFlushMatchesWholeFlush(t *testing.T) {
	input := ">> \nans =\n    7\n" + ">> x\nline two\n" + ">> "

	whole, _, _, _ := newTestSession(t, prompt.Hooks{})
	ingest(t, whole, input)

	for _, size := range []int{1, 3, 5} {
		s, sink, _, _ := newTestSession(t, prompt.Hooks{})
		for i := 0; i < len(input); i += size {
			end := i + size
			if end > len(input) {
				end = len(input)
			}
			ingest(t, s, input[i:end])
		}
		assert.Equal(t, input, sink.text.String(), "chunk size %d", size)
	}
}
