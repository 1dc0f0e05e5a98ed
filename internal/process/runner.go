// Package process launches the MATLAB subprocess and pumps its combined
// output to the filter one chunk at a time.
package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"go.uber.org/zap"
)

// lockedWriter serializes writes to the subprocess stdin. Hotlink requests
// and forwarded user keystrokes come from different goroutines; each line
// must land whole.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// Runner owns one subprocess. Output chunks are delivered on a channel so
// the filter runs in a single execution context regardless of how the
// operating system slices the stream.
type Runner struct {
	command string
	args    []string
	bufSize int
	log     *zap.SugaredLogger

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	in     *lockedWriter
	out    *os.File
	chunks chan []byte
	errs   chan error
}

// NewRunner prepares a runner for command with args. bufSize caps one read;
// zero selects 4096.
func NewRunner(command string, args []string, bufSize int, log *zap.SugaredLogger) *Runner {
	if bufSize <= 0 {
		bufSize = 4096
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runner{
		command: command,
		args:    args,
		bufSize: bufSize,
		log:     log,
		chunks:  make(chan []byte, 16),
		errs:    make(chan error, 1),
	}
}

// Start launches the subprocess with stdout and stderr merged into one
// stream, then begins delivering chunks. The subprocess is killed when ctx
// is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("output pipe: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.command, r.args...)
	cmd.Stdout = pw
	cmd.Stderr = pw

	stdin, err := cmd.StdinPipe()
	if err != nil {
		pr.Close()
		pw.Close()
		return fmt.Errorf("stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return fmt.Errorf("start %s: %w", r.command, err)
	}
	// The parent's write end must close or the reader never sees EOF.
	pw.Close()

	r.cmd = cmd
	r.stdin = stdin
	r.in = &lockedWriter{w: stdin}
	r.out = pr
	r.log.Debugw("subprocess started", "command", r.command, "pid", cmd.Process.Pid)

	go r.pump()
	return nil
}

func (r *Runner) pump() {
	defer close(r.chunks)
	buf := make([]byte, r.bufSize)
	for {
		n, err := r.out.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			r.chunks <- chunk
		}
		if err != nil {
			if err != io.EOF {
				r.errs <- err
			}
			return
		}
	}
}

// Chunks delivers output chunks; closed when the stream ends.
func (r *Runner) Chunks() <-chan []byte {
	return r.chunks
}

// Errors reports read failures.
func (r *Runner) Errors() <-chan error {
	return r.errs
}

// Stdin is the subprocess input, used for hotlink requests and forwarded
// user commands. Writes from different goroutines are serialized: a write
// is never split by another.
func (r *Runner) Stdin() io.Writer {
	return r.in
}

// PID returns the subprocess PID, 0 before Start.
func (r *Runner) PID() int {
	if r.cmd == nil || r.cmd.Process == nil {
		return 0
	}
	return r.cmd.Process.Pid
}

// Stop closes stdin and reaps the subprocess. The exit status of a killed
// process is not an error worth surfacing.
func (r *Runner) Stop() {
	if r.stdin != nil {
		r.stdin.Close()
	}
	if r.out != nil {
		r.out.Close()
	}
	if r.cmd != nil {
		if err := r.cmd.Wait(); err != nil {
			r.log.Debugw("subprocess exit", "error", err)
		}
	}
}
