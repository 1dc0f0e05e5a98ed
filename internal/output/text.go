package output

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/mdlink/mdlink/internal/domain"
)

// TextWriter is the human-facing DisplaySink: raw terminal text plus tabular
// stack and breakpoint listings.
type TextWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextWriter creates a text sink emitting to w.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

// AppendText writes released terminal text verbatim.
func (t *TextWriter) AppendText(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := io.WriteString(t.w, text)
	return err
}

// RenderFrameList prints the stack as a table, innermost frame first. An
// empty stack prints a single notice line.
func (t *TextWriter) RenderFrameList(frames []domain.Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(frames) == 0 {
		_, err := fmt.Fprintln(t.w, "--- no active stack ---")
		return err
	}
	if _, err := fmt.Fprintln(t.w, "--- call stack ---"); err != nil {
		return err
	}
	table := tablewriter.NewWriter(t.w)
	table.Header([]string{"#", "Function", "File", "Line"})
	for i, f := range frames {
		marker := ""
		if f.Current() {
			marker = "*"
		}
		table.Append([]string{
			strconv.Itoa(i+1) + marker,
			f.Name,
			f.File,
			strconv.Itoa(f.AbsLine()),
		})
	}
	return table.Render()
}

// RenderBreakpointList prints the breakpoint registry as a table.
func (t *TextWriter) RenderBreakpointList(bps []domain.Breakpoint) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(bps) == 0 {
		_, err := fmt.Fprintln(t.w, "--- no breakpoints ---")
		return err
	}
	if _, err := fmt.Fprintln(t.w, "--- breakpoints ---"); err != nil {
		return err
	}
	table := tablewriter.NewWriter(t.w)
	table.Header([]string{"Function", "File", "Line"})
	rows := lo.Map(bps, func(b domain.Breakpoint, _ int) []string {
		return []string{b.Name, b.File, strconv.Itoa(b.Line)}
	})
	for _, row := range rows {
		table.Append(row)
	}
	return table.Render()
}
