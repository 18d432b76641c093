package backends

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/cogniolab/hybrid/internals/messages"
	"github.com/cogniolab/hybrid/internals/task"
	"github.com/cogniolab/hybrid/internals/timeouts"
)

// executorPrompt steers the system-acting backend.
const executorPrompt = "You are the executor agent of a task platform with " +
	"system access. Carry out the task and report exactly what was done."

const anthropicAPIVersion = "2023-06-01"

type AnthropicOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxTokens  int
	MaxRetries int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// AnthropicBackend executes tasks against the Anthropic messages API over
// plain HTTP.
type AnthropicBackend struct {
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
	maxRetries uint64
	client     *http.Client
	logger     *slog.Logger
}

func NewAnthropic(opts AnthropicOptions) (*AnthropicBackend, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("backends: anthropic api key is required")
	}
	b := &AnthropicBackend{
		apiKey:  opts.APIKey,
		model:   opts.Model,
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		client:  opts.HTTPClient,
		logger:  opts.Logger,
	}
	if b.model == "" {
		b.model = "claude-sonnet-4-5"
	}
	if b.baseURL == "" {
		b.baseURL = "https://api.anthropic.com/v1"
	}
	b.maxTokens = opts.MaxTokens
	if b.maxTokens <= 0 {
		b.maxTokens = 4096
	}
	if opts.MaxRetries > 0 {
		b.maxRetries = uint64(opts.MaxRetries)
	}
	if b.client == nil {
		b.client = &http.Client{Timeout: timeouts.BackendHTTP}
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b, nil
}

func (b *AnthropicBackend) ID() ID {
	return Claude
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []messages.Message `json:"messages"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
		Name string `json:"name"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (b *AnthropicBackend) Execute(ctx context.Context, t *task.Task) (*Result, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	payload := anthropicRequest{
		Model:     b.model,
		MaxTokens: b.maxTokens,
		System:    executorPrompt,
		Messages:  []messages.Message{messages.User(t.Description)},
	}

	var resp anthropicResponse
	backoff := retry.WithMaxRetries(b.maxRetries, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return b.send(ctx, payload, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	var text strings.Builder
	var toolsUsed []string
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			toolsUsed = append(toolsUsed, block.Name)
		}
	}
	if text.Len() == 0 && len(toolsUsed) == 0 {
		return nil, errors.New("anthropic: response contained no content")
	}

	metadata := map[string]any{
		"agent":       "executor",
		"model":       resp.Model,
		"stop_reason": resp.StopReason,
		"token_usage": map[string]int{
			"input":  resp.Usage.InputTokens,
			"output": resp.Usage.OutputTokens,
		},
	}
	if len(toolsUsed) > 0 {
		metadata["tools_used"] = toolsUsed
	}

	return &Result{
		Backend:  Claude,
		TaskID:   t.ID,
		Output:   text.String(),
		Metadata: metadata,
	}, nil
}

func (b *AnthropicBackend) send(ctx context.Context, payload anthropicRequest, out *anthropicResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", b.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

	res, err := b.client.Do(req)
	if err != nil {
		return retry.RetryableError(err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return retry.RetryableError(err)
	}

	if res.StatusCode != http.StatusOK {
		apiErr := fmt.Errorf("status %d: %s", res.StatusCode, errorMessage(data))
		if retryableStatus(res.StatusCode) {
			b.logger.Warn("anthropic request failed, retrying", "status", res.StatusCode)
			return retry.RetryableError(apiErr)
		}
		return apiErr
	}

	return json.Unmarshal(data, out)
}
