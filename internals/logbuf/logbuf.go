// Package logbuf buffers log entries for the lifetime of one HTTP request so
// the daemon emits a single grouped slog record per submission instead of
// interleaved lines. The middleware opens a scope with With, handlers append
// breadcrumbs through the request context, and Flush drains everything into
// one slog.Attr payload.
package logbuf

import (
	"log/slog"
	"sync"
	"time"
)

type Entry struct {
	Level   slog.Level
	Message string
	At      time.Time
	Seq     uint64
	Attrs   []slog.Attr
}

// Logger is a node in a scope chain. The root returned by New carries the
// process-wide attrs and no buffer; With starts a request scope that owns
// the buffer, and further With calls share it.
type Logger struct {
	mu     sync.Mutex
	parent *Logger
	attrs  []slog.Attr
	buffer *buffer
}

type buffer struct {
	mu      sync.Mutex
	entries []Entry
	seq     uint64
}

func New(attrs ...slog.Attr) *Logger {
	logger := &Logger{}
	if len(attrs) > 0 {
		logger.attrs = append(logger.attrs, attrs...)
	}
	return logger
}

func (l *Logger) With(attrs ...slog.Attr) *Logger {
	if len(attrs) == 0 {
		return l
	}
	child := &Logger{parent: l, buffer: l.scope()}
	if child.buffer == nil {
		child.buffer = &buffer{}
	}
	child.attrs = append(child.attrs, attrs...)
	return child
}

// Add attaches attrs to this node's flush payload after creation, for values
// only known once the request finishes (status, duration).
func (l *Logger) Add(attrs ...slog.Attr) {
	if len(attrs) == 0 {
		return
	}
	l.mu.Lock()
	l.attrs = append(l.attrs, attrs...)
	l.mu.Unlock()
}

func (l *Logger) Debug(message string, attrs ...slog.Attr) {
	l.append(slog.LevelDebug, message, attrs...)
}

func (l *Logger) Info(message string, attrs ...slog.Attr) {
	l.append(slog.LevelInfo, message, attrs...)
}

func (l *Logger) Warn(message string, attrs ...slog.Attr) {
	l.append(slog.LevelWarn, message, attrs...)
}

func (l *Logger) Error(message string, attrs ...slog.Attr) {
	l.append(slog.LevelError, message, attrs...)
}

// Flush drains the scope's buffer and returns the accumulated attrs plus the
// buffered entries as one group, ready to hand to slog. The buffer is reset
// so a reused scope starts clean.
func (l *Logger) Flush() slog.Attr {
	entries := []Entry{}
	if buf := l.scope(); buf != nil {
		buf.mu.Lock()
		entries = make([]Entry, len(buf.entries))
		copy(entries, buf.entries)
		buf.entries = buf.entries[:0]
		buf.seq = 0
		buf.mu.Unlock()
	}

	attrs := l.chainAttrs()
	attrs = append(attrs, slog.Any("entries", payload(entries)))
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return slog.Group("", args...)
}

func (l *Logger) append(level slog.Level, message string, attrs ...slog.Attr) {
	buf := l.scope()
	if buf == nil {
		return
	}
	buf.mu.Lock()
	buf.seq++
	entry := Entry{
		Level:   level,
		Message: message,
		At:      time.Now(),
		Seq:     buf.seq,
	}
	if len(attrs) > 0 {
		entry.Attrs = append(entry.Attrs, attrs...)
	}
	buf.entries = append(buf.entries, entry)
	buf.mu.Unlock()
}

// scope walks up to the nearest node that owns a buffer. The root never has
// one, so entries logged outside a With scope are dropped.
func (l *Logger) scope() *buffer {
	for current := l; current != nil; current = current.parent {
		if current.buffer != nil {
			return current.buffer
		}
	}
	return nil
}

// chainAttrs collects attrs root-first so the process attrs come before the
// request attrs in the flushed payload.
func (l *Logger) chainAttrs() []slog.Attr {
	chain := []*Logger{}
	for current := l; current != nil; current = current.parent {
		chain = append(chain, current)
	}

	attrs := make([]slog.Attr, 0)
	for i := len(chain) - 1; i >= 0; i-- {
		node := chain[i]
		node.mu.Lock()
		if len(node.attrs) > 0 {
			attrs = append(attrs, node.attrs...)
		}
		node.mu.Unlock()
	}

	return attrs
}

func payload(entries []Entry) []map[string]any {
	out := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		item := map[string]any{
			"message": entry.Message,
			"level":   entry.Level.String(),
			"at":      entry.At,
			"seq":     entry.Seq,
		}
		for key, value := range attrsToMap(entry.Attrs) {
			if _, reserved := item[key]; reserved {
				continue
			}
			item[key] = value
		}
		out = append(out, item)
	}
	return out
}

func attrsToMap(attrs []slog.Attr) map[string]any {
	result := map[string]any{}
	for _, attr := range attrs {
		if attr.Key == "" {
			if attr.Value.Kind() == slog.KindGroup {
				for key, value := range attrsToMap(attr.Value.Group()) {
					result[key] = value
				}
			}
			continue
		}
		result[attr.Key] = valueToAny(attr.Value)
	}
	return result
}

func valueToAny(value slog.Value) any {
	switch value.Kind() {
	case slog.KindAny:
		return value.Any()
	case slog.KindBool:
		return value.Bool()
	case slog.KindDuration:
		return value.Duration()
	case slog.KindFloat64:
		return value.Float64()
	case slog.KindInt64:
		return value.Int64()
	case slog.KindString:
		return value.String()
	case slog.KindTime:
		return value.Time()
	case slog.KindUint64:
		return value.Uint64()
	case slog.KindGroup:
		return attrsToMap(value.Group())
	default:
		return value.String()
	}
}
