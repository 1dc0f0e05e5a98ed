// Package debugger ties the stream accumulator, hotlink exchange, prompt
// classifier and registries into one per-session filter with a safe flush
// policy.
package debugger

import (
	"io"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/mdlink/mdlink/internal/domain"
	"github.com/mdlink/mdlink/internal/hotlink"
	"github.com/mdlink/mdlink/internal/prompt"
	"github.com/mdlink/mdlink/internal/stream"
)

// Config assembles a session. Requests is the subprocess stdin; Sink is
// required, Surface and Hooks are optional.
type Config struct {
	Requests     io.Writer
	Sink         DisplaySink
	Surface      EditorSurface
	PlainPattern string
	DebugPattern string
	EchoesInput  bool
	Hooks        prompt.Hooks
	Logger       *zap.SugaredLogger
}

// Session owns all per-session filter state. It is fed one chunk at a time
// from a single goroutine and never blocks: unresolved partial state stays in
// the buffer until the next chunk arrives.
type Session struct {
	buf         *stream.Buffer
	protocol    *hotlink.Protocol
	classifier  *prompt.Classifier
	stack       *StackRegistry
	breakpoints *BreakpointRegistry
	sink        DisplaySink
	surface     EditorSurface
	log         *zap.SugaredLogger

	promptSeen bool
	flushes    int
}

// NewSession builds a session from cfg.
func NewSession(cfg Config) (*Session, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	classifier, err := prompt.NewClassifier(cfg.PlainPattern, cfg.DebugPattern, cfg.Hooks)
	if err != nil {
		return nil, err
	}
	plainPat := cfg.PlainPattern
	if plainPat == "" {
		plainPat = prompt.DefaultPlainPattern
	}
	plainRe, err := regexp.Compile(plainPat)
	if err != nil {
		return nil, err
	}
	surface := cfg.Surface
	if surface == nil {
		surface = NopSurface{}
	}
	return &Session{
		buf:         &stream.Buffer{},
		protocol:    hotlink.New(cfg.Requests, plainRe, cfg.EchoesInput, log),
		classifier:  classifier,
		stack:       &StackRegistry{},
		breakpoints: &BreakpointRegistry{},
		sink:        cfg.Sink,
		surface:     surface,
		log:         log,
	}, nil
}

// Ingest appends one chunk of subprocess output and runs the filter once:
// normalize, step the hotlink exchange as far as the buffer allows, flush the
// safe prefix, then apply any decoded payload. The payload is applied after
// the flush so the prompt that terminated the envelope cannot clear the very
// stack it delivered.
func (s *Session) Ingest(chunk []byte) error {
	s.buf.Append(chunk)

	// A debug prompt line in unprocessed output arms the hotlink exchange.
	// Lines already released can never re-trigger: they have left the buffer.
	if !s.protocol.Pending() && s.bufferHasDebugPrompt() {
		if err := s.protocol.Begin(); err != nil {
			s.log.Warnw("hotlink request failed", "error", err)
		}
	}

	var payload *hotlink.Payload
	for s.protocol.Pending() {
		before := s.protocol.State()
		adv := s.protocol.Step(s.buf)
		if adv.Released != "" {
			if err := s.emit(adv.Released); err != nil {
				return err
			}
		}
		if adv.Payload != nil {
			payload = adv.Payload
		}
		if s.protocol.State() == before && adv.Released == "" {
			break
		}
	}

	if err := s.flush(); err != nil {
		return err
	}
	if payload != nil {
		return s.applyPayload(payload)
	}
	return nil
}

// flush releases the safe prefix of the buffer to the sink.
//
// Hold rules, in precedence order: while a hotlink request is pending (and a
// prompt has been seen before) nothing is released at all; otherwise complete
// lines flush immediately, except from an unclosed structured marker onward.
// A trailing prompt line flushes speculatively so it appears without waiting
// for more input.
func (s *Session) flush() error {
	if s.protocol.Pending() && s.promptSeen {
		return nil
	}
	text := s.buf.String()
	if text == "" {
		return nil
	}

	limit := len(text)
	held := stream.HeldMarkerStart(text)
	if held >= 0 {
		limit = held
	}

	n := 0
	if i := strings.LastIndexByte(text[:limit], '\n'); i >= 0 {
		n = i + 1
	}
	if held < 0 && n < len(text) && s.classifier.Classify(text[n:]) != domain.PromptNone {
		n = len(text)
	}
	if n == 0 {
		return nil
	}
	return s.emit(s.buf.ConsumePrefix(n))
}

// emit hands text to the display sink and lets the classifier observe it.
// A plain prompt means the subprocess is no longer suspended, so frames on
// display are cleared before the text itself is shown.
func (s *Session) emit(text string) error {
	if s.stack.Len() > 0 && s.containsPlainPrompt(text) {
		s.stack.Clear()
		if err := s.sink.RenderFrameList(nil); err != nil {
			return err
		}
	}
	if err := s.sink.AppendText(text); err != nil {
		return err
	}
	s.flushes++
	if !s.promptSeen && s.containsPrompt(text) {
		s.promptSeen = true
	}
	s.classifier.Observe(text)
	return nil
}

func (s *Session) applyPayload(p *hotlink.Payload) error {
	switch p.Kind {
	case hotlink.PayloadBreakpoints:
		old := s.breakpoints.Clear()
		for _, ob := range old {
			if err := s.surface.UnmarkBreakpoint(ob.File, ob.Line); err != nil {
				return err
			}
		}
		for _, t := range p.Tuples {
			bp := domain.Breakpoint{File: t.File, Name: t.Name, Line: t.AbsLine()}
			if s.breakpoints.Add(bp) {
				if err := s.surface.MarkBreakpoint(bp.File, bp.Line); err != nil {
					return err
				}
			}
		}
		now := s.breakpoints.All()
		for _, ob := range old {
			if !containsBreakpoint(now, ob) {
				if err := s.notifyBreakpointChange(false, ob); err != nil {
					return err
				}
			}
		}
		for _, nb := range now {
			if !containsBreakpoint(old, nb) {
				if err := s.notifyBreakpointChange(true, nb); err != nil {
					return err
				}
			}
		}
		return s.sink.RenderBreakpointList(now)
	default:
		s.stack.Set(p.Tuples)
		return s.sink.RenderFrameList(s.stack.Frames())
	}
}

// AddBreakpoint registers and renders a breakpoint. Idempotent on (file, line).
func (s *Session) AddBreakpoint(file, name string, line int) error {
	bp := domain.Breakpoint{File: file, Name: name, Line: line}
	if !s.breakpoints.Add(bp) {
		return nil
	}
	if err := s.surface.MarkBreakpoint(file, line); err != nil {
		return err
	}
	if err := s.notifyBreakpointChange(true, bp); err != nil {
		return err
	}
	return s.sink.RenderBreakpointList(s.breakpoints.All())
}

// RemoveBreakpoint drops every breakpoint at (file, line) and releases its
// markers.
func (s *Session) RemoveBreakpoint(file string, line int) error {
	if s.breakpoints.Remove(file, line) == 0 {
		return nil
	}
	if err := s.surface.UnmarkBreakpoint(file, line); err != nil {
		return err
	}
	if err := s.notifyBreakpointChange(false, domain.Breakpoint{File: file, Line: line}); err != nil {
		return err
	}
	return s.sink.RenderBreakpointList(s.breakpoints.All())
}

// ReapplyMarks re-renders the markers for a file that was just (re)opened.
func (s *Session) ReapplyMarks(file string) error {
	for _, bp := range s.breakpoints.ForFile(file) {
		if err := s.surface.MarkBreakpoint(bp.File, bp.Line); err != nil {
			return err
		}
	}
	return nil
}

// ShowFrame returns the 1-based indexed frame of the current stack.
func (s *Session) ShowFrame(index int) (domain.Frame, error) {
	return s.stack.Frame(index)
}

// StackFrames returns the current call stack.
func (s *Session) StackFrames() []domain.Frame {
	return s.stack.Frames()
}

// Breakpoints returns the current breakpoint registry contents.
func (s *Session) Breakpoints() []domain.Breakpoint {
	return s.breakpoints.All()
}

// State returns the debug-activity state.
func (s *Session) State() domain.DebugState {
	return s.classifier.State()
}

// Summary reports the session's filter counters. Duration is filled in by the
// caller that owns the clock.
func (s *Session) Summary() domain.SessionSummary {
	trips, abandoned := s.protocol.Stats()
	return domain.SessionSummary{
		Flushes:           s.flushes,
		HotlinkRoundTrips: trips,
		HotlinkAbandoned:  abandoned,
		PromptTransitions: s.classifier.Transitions(),
	}
}

// Close discards all per-session state. Rendering markers are released before
// anything else so the surface never outlives its marks.
func (s *Session) Close() error {
	var firstErr error
	for _, bp := range s.breakpoints.Clear() {
		if err := s.surface.UnmarkBreakpoint(bp.File, bp.Line); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.stack.Clear()
	s.protocol.Reset()
	s.buf.Reset()
	s.classifier.Reset()
	s.promptSeen = false
	return firstErr
}

// notifyBreakpointChange forwards an add/remove edge to sinks that track
// individual changes. Listing-only sinks are left alone.
func (s *Session) notifyBreakpointChange(added bool, bp domain.Breakpoint) error {
	if cs, ok := s.sink.(BreakpointChangeSink); ok {
		return cs.WriteBreakpointChange(added, bp)
	}
	return nil
}

func containsBreakpoint(bps []domain.Breakpoint, bp domain.Breakpoint) bool {
	return lo.ContainsBy(bps, func(b domain.Breakpoint) bool {
		return b.Key() == bp.Key()
	})
}

func (s *Session) bufferHasDebugPrompt() bool {
	for _, line := range strings.Split(s.buf.String(), "\n") {
		if s.classifier.Classify(line) == domain.PromptDebug {
			return true
		}
	}
	return false
}

func (s *Session) containsPrompt(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if s.classifier.Classify(line) != domain.PromptNone {
			return true
		}
	}
	return false
}

func (s *Session) containsPlainPrompt(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if s.classifier.Classify(line) == domain.PromptPlain {
			return true
		}
	}
	return false
}
