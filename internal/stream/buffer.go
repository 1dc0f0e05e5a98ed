// Package stream holds not-yet-flushed subprocess output and the scanning
// primitives the debugger filter runs against it.
package stream

import (
	"bytes"
	"strings"
)

// MATLAB brackets error text with raw STX/ETX control bytes. They are
// rewritten to stable sentinel tokens before any pattern matching so a
// control byte arriving in its own chunk can never confuse a scanner.
const (
	ErrorStartByte = 0x02
	ErrorEndByte   = 0x03

	ErrorStartToken = "<ERRORTXT>"
	ErrorEndToken   = "</ERRORTXT>"
)

// Multi-chunk structured markers. An opener with no closer yet means the
// tail of the buffer must not be flushed, or the marker would be split
// across two flush calls.
var markerPairs = [][2]string{
	{"<a href=", "</a>"},
	{ErrorStartToken, ErrorEndToken},
	{"<CAPTXT", "</CAPTXT>"},
}

// Buffer is the per-session accumulator of unconsumed subprocess output.
// Mutated only by Append and the consume operations; owned by exactly one
// filter instance.
type Buffer struct {
	data []byte
}

// Append adds a raw chunk and normalizes error control bytes. Normalization
// runs over the whole buffer on every append and is idempotent: the sentinel
// tokens contain no control bytes, so re-running is a no-op.
func (b *Buffer) Append(chunk []byte) {
	b.data = append(b.data, chunk...)
	if bytes.IndexByte(b.data, ErrorStartByte) < 0 && bytes.IndexByte(b.data, ErrorEndByte) < 0 {
		return
	}
	normalized := make([]byte, 0, len(b.data)+len(ErrorStartToken))
	for _, c := range b.data {
		switch c {
		case ErrorStartByte:
			normalized = append(normalized, ErrorStartToken...)
		case ErrorEndByte:
			normalized = append(normalized, ErrorEndToken...)
		default:
			normalized = append(normalized, c)
		}
	}
	b.data = normalized
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// String returns the buffered text without consuming it.
func (b *Buffer) String() string {
	return string(b.data)
}

// Index reports the first occurrence of marker, or -1.
func (b *Buffer) Index(marker string) int {
	return bytes.Index(b.data, []byte(marker))
}

// ConsumePrefix removes and returns the first n bytes.
func (b *Buffer) ConsumePrefix(n int) string {
	if n > len(b.data) {
		n = len(b.data)
	}
	out := string(b.data[:n])
	b.data = append(b.data[:0], b.data[n:]...)
	return out
}

// CutSpan removes the bytes in [from, to) and returns them. Used to excise a
// hotlink envelope while putting the remainder back for normal flushing.
func (b *Buffer) CutSpan(from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(b.data) {
		to = len(b.data)
	}
	if from >= to {
		return ""
	}
	out := string(b.data[from:to])
	b.data = append(b.data[:from], b.data[to:]...)
	return out
}

// Reset discards all buffered text.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
}

// HeldMarkerStart returns the index of the earliest structured marker opener
// that has no matching closer yet, or -1 when the buffer contains no open
// marker. A trailing partial opener (the opener itself split across chunks)
// also counts as held.
func HeldMarkerStart(s string) int {
	held := -1
	for _, pair := range markerPairs {
		if open := firstUnclosed(s, pair[0], pair[1]); open >= 0 && (held < 0 || open < held) {
			held = open
		}
		if p := partialSuffixStart(s, pair[0]); p >= 0 && (held < 0 || p < held) {
			held = p
		}
	}
	return held
}

// firstUnclosed walks openers and closers in stream order and returns the
// index of the earliest opener left without a closer, or -1. A closer pairs
// with the most recent pending opener; an opener superseded by another opener
// is treated as unclosed for good, so a later pair can never shadow an
// earlier dangling region.
func firstUnclosed(s, opener, closer string) int {
	held := -1
	open := -1
	pos := 0
	for {
		oi := strings.Index(s[pos:], opener)
		ci := strings.Index(s[pos:], closer)
		if oi < 0 && ci < 0 {
			break
		}
		if ci < 0 || (oi >= 0 && oi < ci) {
			if open >= 0 && (held < 0 || open < held) {
				held = open
			}
			open = pos + oi
			pos = open + len(opener)
			continue
		}
		open = -1
		pos = pos + ci + len(closer)
	}
	if open >= 0 && (held < 0 || open < held) {
		held = open
	}
	return held
}

// partialSuffixStart reports where a proper prefix of opener begins at the
// end of s, or -1. "<a hr" at the tail is the start of an anchor we have not
// fully received.
func partialSuffixStart(s, opener string) int {
	max := len(opener) - 1
	if max > len(s) {
		max = len(s)
	}
	for n := max; n > 0; n-- {
		if strings.HasSuffix(s, opener[:n]) {
			return len(s) - n
		}
	}
	return -1
}
