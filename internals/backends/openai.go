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

// coordinatorPrompt steers the fast-reasoning backend. Planning and
// verification stages of hybrid workflows land here too.
const coordinatorPrompt = "You are the coordinator agent of a task platform. " +
	"Work through the task you are given and answer with the outcome, concisely."

type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxTokens  int
	MaxRetries int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// OpenAIBackend executes tasks against the OpenAI chat completions API over
// plain HTTP.
type OpenAIBackend struct {
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
	maxRetries uint64
	client     *http.Client
	logger     *slog.Logger
}

func NewOpenAI(opts OpenAIOptions) (*OpenAIBackend, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("backends: openai api key is required")
	}
	b := &OpenAIBackend{
		apiKey:  opts.APIKey,
		model:   opts.Model,
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		client:  opts.HTTPClient,
		logger:  opts.Logger,
	}
	if b.model == "" {
		b.model = "gpt-5.2"
	}
	if b.baseURL == "" {
		b.baseURL = "https://api.openai.com/v1"
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

func (b *OpenAIBackend) ID() ID {
	return OpenAI
}

type chatRequest struct {
	Model       string             `json:"model"`
	Messages    []messages.Message `json:"messages"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens"`
	Stream      bool               `json:"stream"`
}

type chatCompletion struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      messages.Message `json:"message"`
		FinishReason string           `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (b *OpenAIBackend) Execute(ctx context.Context, t *task.Task) (*Result, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	payload := chatRequest{
		Model: b.model,
		Messages: []messages.Message{
			messages.System(coordinatorPrompt),
			messages.User(t.Description),
		},
		Temperature: 0.7,
		MaxTokens:   b.maxTokens,
	}

	var resp chatCompletion
	backoff := retry.WithMaxRetries(b.maxRetries, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return b.complete(ctx, payload, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: response contained no choices")
	}

	return &Result{
		Backend: OpenAI,
		TaskID:  t.ID,
		Output:  resp.Choices[0].Message.Content,
		Metadata: map[string]any{
			"agent": "coordinator",
			"model": resp.Model,
			"token_usage": map[string]int{
				"input":  resp.Usage.PromptTokens,
				"output": resp.Usage.CompletionTokens,
			},
		},
	}, nil
}

func (b *OpenAIBackend) complete(ctx context.Context, payload chatRequest, out *chatCompletion) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

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
			b.logger.Warn("openai request failed, retrying", "status", res.StatusCode)
			return retry.RetryableError(apiErr)
		}
		return apiErr
	}

	return json.Unmarshal(data, out)
}
