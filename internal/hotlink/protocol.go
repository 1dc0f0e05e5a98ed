// Package hotlink implements the request/response exchange used to pull
// structured stack and breakpoint state out of MATLAB's plain-text channel.
//
// There is no length-prefixed or self-delimiting framing on the stream: the
// debugger's reply is interleaved with ordinary program output, so the
// exchange frames the response with an explicit echo marker and the
// terminating plain prompt.
package hotlink

import (
	"io"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/mdlink/mdlink/internal/stream"
)

// EchoMarker frames the start of a hotlink response in the output stream.
// When MATLAB echoes stdin, the request carries the marker in a trailing
// comment so the echo itself provides it; otherwise the MATLAB-side helper
// prints it before the payload.
const EchoMarker = "<HOTLINK>"

// RequestCommand invokes the MATLAB-side helper that prints the response
// envelope.
const RequestCommand = "mdlink_dbinfo"

// State of the exchange.
type State int

const (
	Idle State = iota
	AwaitingEcho
	AwaitingPrompt
)

func (s State) String() string {
	switch s {
	case AwaitingEcho:
		return "awaiting_echo"
	case AwaitingPrompt:
		return "awaiting_prompt"
	default:
		return "idle"
	}
}

// Advance is the outcome of stepping the exchange against the buffer.
type Advance struct {
	Released  string   // text ahead of the echo marker, safe for the flush policy
	Payload   *Payload // decoded envelope, nil when none or on parse failure
	Completed bool     // a round trip finished this step
	Abandoned bool     // the request was presumed lost this step
}

// Protocol is the hotlink exchange state machine. One instance per session,
// stepped from the single filter goroutine; no internal locking.
type Protocol struct {
	state       State
	echoesInput bool
	requests    io.Writer
	plainPrompt *regexp.Regexp
	log         *zap.SugaredLogger

	roundTrips int
	abandoned  int
}

// New builds a protocol that writes requests to w. plainPrompt recognizes a
// whole plain-prompt line; echoesInput selects the request form for MATLAB
// versions that echo stdin.
func New(w io.Writer, plainPrompt *regexp.Regexp, echoesInput bool, log *zap.SugaredLogger) *Protocol {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Protocol{
		requests:    w,
		echoesInput: echoesInput,
		plainPrompt: plainPrompt,
		log:         log,
	}
}

// Pending reports whether a request is in flight.
func (p *Protocol) Pending() bool {
	return p.state != Idle
}

// State returns the current exchange state.
func (p *Protocol) State() State {
	return p.state
}

// Stats returns completed round trips and abandonments.
func (p *Protocol) Stats() (roundTrips, abandoned int) {
	return p.roundTrips, p.abandoned
}

// Begin sends the request and arms the exchange. No-op unless Idle.
func (p *Protocol) Begin() error {
	if p.state != Idle {
		return nil
	}
	req := RequestCommand + "\n"
	if p.echoesInput {
		// The echoed line itself carries the marker.
		req = RequestCommand + " %" + EchoMarker + "\n"
	}
	if _, err := io.WriteString(p.requests, req); err != nil {
		return err
	}
	p.state = AwaitingEcho
	return nil
}

// Step advances the exchange against the buffer. It consumes only what it
// owns: text ahead of the echo marker is handed back via Released, and a
// completed envelope is excised so the terminating prompt flushes normally.
func (p *Protocol) Step(buf *stream.Buffer) Advance {
	switch p.state {
	case AwaitingEcho:
		return p.stepAwaitingEcho(buf)
	case AwaitingPrompt:
		return p.stepAwaitingPrompt(buf)
	default:
		return Advance{}
	}
}

func (p *Protocol) stepAwaitingEcho(buf *stream.Buffer) Advance {
	i := buf.Index(EchoMarker)
	if i < 0 {
		// A plain prompt before the echo means the request was lost.
		if p.plainPrompt != nil && p.findPromptLine(buf.String()) >= 0 {
			p.state = Idle
			p.abandoned++
			p.log.Warnw("hotlink request abandoned", "reason", "plain prompt before echo")
			return Advance{Abandoned: true}
		}
		return Advance{}
	}
	released := buf.ConsumePrefix(i)
	p.state = AwaitingPrompt
	return Advance{Released: released}
}

func (p *Protocol) stepAwaitingPrompt(buf *stream.Buffer) Advance {
	s := buf.String()
	after := s[len(EchoMarker):]
	promptAt := p.findPromptLine(after)
	if promptAt < 0 {
		return Advance{}
	}
	envelope := buf.CutSpan(0, len(EchoMarker)+promptAt)
	envelope = envelope[len(EchoMarker):]
	p.state = Idle
	p.roundTrips++

	adv := Advance{Completed: true}
	if strings.TrimSpace(envelope) == "" {
		return adv
	}
	payload, err := DecodePayload(envelope)
	if err != nil {
		// Bad payloads are reported and dropped; the exchange still closes.
		p.log.Warnw("hotlink payload rejected", "error", err)
		return adv
	}
	adv.Payload = payload
	return adv
}

// findPromptLine returns the offset of the first whole line matching the
// plain-prompt pattern, or -1. The prompt may be the unterminated tail of the
// buffer.
func (p *Protocol) findPromptLine(s string) int {
	offset := 0
	for {
		line := s[offset:]
		lineEnd := len(line)
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			lineEnd = i
		}
		if p.plainPrompt.MatchString(line[:lineEnd]) {
			return offset
		}
		if lineEnd == len(line) {
			return -1
		}
		offset += lineEnd + 1
	}
}

// Reset abandons any in-flight request without a stats hit. Used on session
// teardown.
func (p *Protocol) Reset() {
	p.state = Idle
}
