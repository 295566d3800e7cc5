package trace

import (
	"bufio"
	"io"
	"os"
	"sync"
)

// StreamTracer writes every event as it happens. Trace files opened by New
// are buffered and flushed on Flush and Close.
type StreamTracer struct {
	mu     sync.Mutex
	dst    io.Writer
	buf    *bufio.Writer
	level  Level
	format Format
}

// NewStreamTracer creates a StreamTracer writing to w.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	t := &StreamTracer{dst: w, level: level, format: format}
	if f, ok := w.(*os.File); ok && !isStdStream(f) {
		t.buf = bufio.NewWriter(f)
	}
	return t
}

// Emit writes ev unless its scope is filtered out. Heartbeats always pass.
func (t *StreamTracer) Emit(ev *Event) {
	if ev.Kind != KindHeartbeat && !t.level.ShouldEmit(ev.Scope) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	ev.Seq = NextSeq()
	// ошибки записи трейса не должны ронять проверку
	_, _ = t.writer().Write(FormatEvent(ev, t.format)) //nolint:errcheck
}

func (t *StreamTracer) writer() io.Writer {
	if t.buf != nil {
		return t.buf
	}
	return t.dst
}

// Flush writes out buffered events.
func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.buf != nil {
		return t.buf.Flush()
	}
	return nil
}

// Close flushes and closes the destination. Standard streams stay open.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if c, ok := t.dst.(io.Closer); ok && !isStdStream(t.dst) {
		return c.Close()
	}
	return nil
}

func (t *StreamTracer) Level() Level  { return t.level }
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
