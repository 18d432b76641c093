package backends

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cogniolab/hybrid/internals/task"
)

func newOpenAITestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *OpenAIBackend) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b, err := NewOpenAI(OpenAIOptions{
		APIKey:     "sk-test",
		Model:      "gpt-5.2",
		BaseURL:    srv.URL,
		MaxRetries: 2,
	})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	return srv, b
}

func TestOpenAIExecute(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq chatRequest

	_, b := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-5.2",
			"choices": [{"message": {"role": "assistant", "content": "plan: 1) look 2) leap"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 21, "completion_tokens": 9}
		}`))
	})

	tk, err := task.New("plan the migration", task.WithID("t-openai"))
	if err != nil {
		t.Fatalf("task.New: %v", err)
	}
	res, err := b.Execute(context.Background(), tk)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Fatalf("auth header: %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("path: %q", gotPath)
	}
	if gotReq.Model != "gpt-5.2" || gotReq.Stream {
		t.Fatalf("request payload: %+v", gotReq)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Content != "plan the migration" {
		t.Fatalf("messages: %+v", gotReq.Messages)
	}

	if res.Backend != OpenAI || res.TaskID != "t-openai" {
		t.Fatalf("result identity: %+v", res)
	}
	if res.Output != "plan: 1) look 2) leap" {
		t.Fatalf("output: %q", res.Output)
	}
	usage, ok := res.Metadata["token_usage"].(map[string]int)
	if !ok || usage["input"] != 21 || usage["output"] != 9 {
		t.Fatalf("token usage: %+v", res.Metadata["token_usage"])
	}
}

func TestOpenAIRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	_, b := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": {"message": "rate limited"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "ok"}}], "usage": {}}`))
	})

	tk, err := task.New("retry me")
	if err != nil {
		t.Fatalf("task.New: %v", err)
	}
	res, err := b.Execute(context.Background(), tk)
	if err != nil {
		t.Fatalf("Execute after retry: %v", err)
	}
	if res.Output != "ok" {
		t.Fatalf("output: %q", res.Output)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestOpenAIPermanentFailureDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	_, b := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad api key"}}`))
	})

	tk, err := task.New("fail me")
	if err != nil {
		t.Fatalf("task.New: %v", err)
	}
	_, err = b.Execute(context.Background(), tk)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "bad api key") {
		t.Fatalf("error should carry provider message, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("401 must not retry, got %d calls", calls.Load())
	}
}

func TestOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAI(OpenAIOptions{}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}
