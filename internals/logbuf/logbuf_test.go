package logbuf

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func TestWithPreservesAttrsAndBuffer(t *testing.T) {
	logger := New(slog.String("parent", "yes"))
	child := logger.With(slog.String("child", "yes"))
	child.Info("hello")

	attrs := attrsToMap([]slog.Attr{child.Flush()})

	if attrs["parent"] != "yes" {
		t.Fatalf("expected parent attr")
	}
	if attrs["child"] != "yes" {
		t.Fatalf("expected child attr")
	}

	entries, ok := attrs["entries"].([]map[string]any)
	if !ok || len(entries) != 1 {
		t.Fatalf("expected one entry, got %v", attrs["entries"])
	}
	if entries[0]["level"] != slog.LevelInfo.String() {
		t.Fatalf("expected info level, got %v", entries[0]["level"])
	}
}

func TestRootWithoutScopeDropsEntries(t *testing.T) {
	logger := New(slog.String("version", "test"))
	logger.Info("dropped")

	attrs := attrsToMap([]slog.Attr{logger.Flush()})
	entries, ok := attrs["entries"].([]map[string]any)
	if !ok {
		t.Fatalf("expected entries slice, got %v", attrs["entries"])
	}
	if len(entries) != 0 {
		t.Fatalf("expected root entries to be dropped, got %d", len(entries))
	}
}

func TestAddAppendsAttrs(t *testing.T) {
	logger := New()
	child := logger.With(slog.String("a", "1"))
	child.Add(slog.String("b", "2"))

	attrs := attrsToMap([]slog.Attr{child.Flush()})

	if attrs["a"] != "1" || attrs["b"] != "2" {
		t.Fatalf("expected attrs to include a and b, got %v", attrs)
	}
}

func TestFlushResetsScope(t *testing.T) {
	logger := New()
	child := logger.With(slog.String("k", "v"))
	child.Info("first")

	buf := child.scope()
	if buf == nil {
		t.Fatalf("expected scope buffer")
	}
	if buf.seq == 0 {
		t.Fatalf("expected seq to increment")
	}

	_ = child.Flush()
	if buf.seq != 0 {
		t.Fatalf("expected seq reset, got %d", buf.seq)
	}
	if len(buf.entries) != 0 {
		t.Fatalf("expected entries cleared")
	}

	child.Info("second")
	if buf.seq != 1 {
		t.Fatalf("expected seq to restart at 1, got %d", buf.seq)
	}
}

func TestPayloadDoesNotOverwriteReserved(t *testing.T) {
	now := time.Now().UTC()
	entries := []Entry{
		{
			Level:   slog.LevelInfo,
			Message: "hello",
			At:      now,
			Seq:     1,
			Attrs: []slog.Attr{
				slog.String("message", "override"),
				slog.String("extra", "ok"),
			},
		},
	}

	out := payload(entries)
	if len(out) != 1 {
		t.Fatalf("expected one payload entry")
	}
	item := out[0]
	if item["message"] != "hello" {
		t.Fatalf("expected reserved message to stay, got %v", item["message"])
	}
	if item["extra"] != "ok" {
		t.Fatalf("expected extra attr, got %v", item["extra"])
	}
}

func TestContextRoundTrip(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Fatalf("expected nil outside a request scope")
	}

	child := New().With(slog.String("request_id", "r1"))
	ctx := WithContext(context.Background(), child)
	if FromContext(ctx) != child {
		t.Fatalf("expected the scope logger back")
	}
}

func TestConcurrentLogging(t *testing.T) {
	logger := New()
	child := logger.With(slog.String("k", "v"))

	const count = 50
	var wg sync.WaitGroup
	wg.Add(count)
	for i := 0; i < count; i++ {
		go func(i int) {
			defer wg.Done()
			child.Info("msg", slog.Int("i", i))
		}(i)
	}
	wg.Wait()

	attrs := attrsToMap([]slog.Attr{child.Flush()})
	entries, ok := attrs["entries"].([]map[string]any)
	if !ok {
		t.Fatalf("expected entries slice")
	}
	if len(entries) != count {
		t.Fatalf("expected %d entries, got %d", count, len(entries))
	}
}
