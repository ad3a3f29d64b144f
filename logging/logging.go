// Package logging routes log/slog output to a single blocking console device
// such as a UART. The device is bound once per process by Init.
package logging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// LevelTrace is below slog.LevelDebug and is the threshold set by Init.
const LevelTrace = slog.Level(-8)

// TargetKey is the attribute naming the source of a record. It is rendered
// in brackets at the start of the line instead of as a key=value pair.
const TargetKey = "target"

// DefaultTarget is used for records that carry no target attribute.
const DefaultTarget = "gyrolog"

var ErrAlreadyInitialized = errors.New("logging: console already initialized")

// console serialises whole lines onto the output device.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *console) writeLine(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err := c.w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		// The console is the only diagnostic channel left.
		panic(fmt.Errorf("console write: %w", err))
	}
}

var (
	bound     atomic.Pointer[console]
	threshold = new(slog.LevelVar)
)

// Init binds w as the process-wide log device, sets the threshold to
// LevelTrace and installs the console handler as the slog default, which
// also captures the standard log package. A second call fails with
// ErrAlreadyInitialized and leaves the first device bound.
func Init(w io.Writer) error {
	if w == nil {
		return errors.New("logging: nil console device")
	}
	if !bound.CompareAndSwap(nil, &console{w: w}) {
		return ErrAlreadyInitialized
	}
	threshold.Set(LevelTrace)
	slog.SetDefault(slog.New(&Handler{target: DefaultTarget}))
	return nil
}

// Enabled reports whether a console device has been bound.
func Enabled() bool {
	return bound.Load() != nil
}

// Flush is a no-op: every record is written synchronously.
func Flush() error { return nil }

// For returns a logger whose records carry the given target.
func For(target string) *slog.Logger {
	return slog.New(&Handler{target: target})
}

// Trace logs at LevelTrace on the default logger.
func Trace(msg string, args ...any) {
	slog.Default().Log(context.Background(), LevelTrace, msg, args...)
}

// Handler formats records as "[target] <LEVEL> message\n". Attributes other
// than the target follow the message as " key=value".
type Handler struct {
	target string
	prefix string
	attrs  []slog.Attr
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return bound.Load() != nil && l >= threshold.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	c := bound.Load()
	if c == nil {
		return nil
	}

	target := h.target
	var tail bytes.Buffer
	for _, a := range h.attrs {
		appendAttr(&tail, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == TargetKey && h.prefix == "" {
			target = a.Value.String()
			return true
		}
		appendAttr(&tail, h.prefix, a)
		return true
	})

	var line bytes.Buffer
	line.Grow(len(target) + len(r.Message) + tail.Len() + 12)
	line.WriteByte('[')
	line.WriteString(target)
	line.WriteString("] <")
	line.WriteString(levelName(r.Level))
	line.WriteString("> ")
	line.WriteString(r.Message)
	line.Write(tail.Bytes())
	line.WriteByte('\n')

	c.writeLine(line.Bytes())
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := h.clone()
	for _, a := range attrs {
		if a.Key == TargetKey && h.prefix == "" {
			n.target = a.Value.String()
			continue
		}
		n.attrs = append(n.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return n
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	n := h.clone()
	n.prefix = h.prefix + name + "."
	return n
}

func (h *Handler) clone() *Handler {
	return &Handler{
		target: h.target,
		prefix: h.prefix,
		attrs:  append([]slog.Attr(nil), h.attrs...),
	}
}

func appendAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range group {
			appendAttr(buf, prefix, ga)
		}
		return
	}
	fmt.Fprintf(buf, " %s%s=%v", prefix, a.Key, a.Value.Any())
}

func levelName(l slog.Level) string {
	switch {
	case l < slog.LevelDebug:
		return "TRACE"
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}
