package backends

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cogniolab/hybrid/internals/task"
)

func newAnthropicTestServer(t *testing.T, handler http.HandlerFunc) *AnthropicBackend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b, err := NewAnthropic(AnthropicOptions{
		APIKey:     "sk-ant-test",
		Model:      "claude-sonnet-4-5",
		BaseURL:    srv.URL,
		MaxRetries: 2,
	})
	if err != nil {
		t.Fatalf("NewAnthropic: %v", err)
	}
	return b
}

func TestAnthropicExecute(t *testing.T) {
	var gotKey, gotVersion, gotPath string
	var gotReq anthropicRequest

	b := newAnthropicTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg-1",
			"model": "claude-sonnet-4-5",
			"content": [
				{"type": "text", "text": "restarted api-1; "},
				{"type": "tool_use", "name": "bash"},
				{"type": "text", "text": "all healthy"}
			],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 40, "output_tokens": 12}
		}`))
	})

	tk, err := task.New("restart the api service", task.WithID("t-claude"), task.WithSystemAccess())
	if err != nil {
		t.Fatalf("task.New: %v", err)
	}
	res, err := b.Execute(context.Background(), tk)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if gotKey != "sk-ant-test" {
		t.Fatalf("x-api-key: %q", gotKey)
	}
	if gotVersion != anthropicAPIVersion {
		t.Fatalf("anthropic-version: %q", gotVersion)
	}
	if gotPath != "/messages" {
		t.Fatalf("path: %q", gotPath)
	}
	if gotReq.System == "" || len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" {
		t.Fatalf("request payload: %+v", gotReq)
	}

	if res.Backend != Claude || res.TaskID != "t-claude" {
		t.Fatalf("result identity: %+v", res)
	}
	if res.Output != "restarted api-1; all healthy" {
		t.Fatalf("output: %q", res.Output)
	}
	tools, ok := res.Metadata["tools_used"].([]string)
	if !ok || len(tools) != 1 || tools[0] != "bash" {
		t.Fatalf("tools_used: %+v", res.Metadata["tools_used"])
	}
	if res.Metadata["stop_reason"] != "end_turn" {
		t.Fatalf("stop_reason: %+v", res.Metadata["stop_reason"])
	}
}

func TestAnthropicRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	b := newAnthropicTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error": {"type": "overloaded_error", "message": "overloaded"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content": [{"type": "text", "text": "done"}], "usage": {}}`))
	})

	tk, err := task.New("eventually works")
	if err != nil {
		t.Fatalf("task.New: %v", err)
	}
	res, err := b.Execute(context.Background(), tk)
	if err != nil {
		t.Fatalf("Execute after retries: %v", err)
	}
	if res.Output != "done" {
		t.Fatalf("output: %q", res.Output)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestAnthropicEmptyContentIsError(t *testing.T) {
	b := newAnthropicTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content": [], "usage": {}}`))
	})

	tk, err := task.New("empty answer")
	if err != nil {
		t.Fatalf("task.New: %v", err)
	}
	if _, err := b.Execute(context.Background(), tk); err == nil {
		t.Fatalf("expected error for empty content")
	}
}

func TestAnthropicRequiresKey(t *testing.T) {
	if _, err := NewAnthropic(AnthropicOptions{}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}
