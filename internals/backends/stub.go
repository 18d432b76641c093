package backends

import (
	"context"

	"github.com/cogniolab/hybrid/internals/task"
)

// Stub backends keep the platform fully offline: canned outputs shaped like
// the real adapters', deterministic for tests and the default dev mode.

type StubOpenAI struct{}

func NewStubOpenAI() *StubOpenAI {
	return &StubOpenAI{}
}

func (*StubOpenAI) ID() ID {
	return OpenAI
}

func (*StubOpenAI) Execute(ctx context.Context, t *task.Task) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Result{
		Backend: OpenAI,
		TaskID:  t.ID,
		Output:  "[OpenAI would execute]: " + t.Description,
		Metadata: map[string]any{
			"agent":       "coordinator",
			"token_usage": map[string]int{"input": 100, "output": 200},
		},
	}, nil
}

type StubClaude struct{}

func NewStubClaude() *StubClaude {
	return &StubClaude{}
}

func (*StubClaude) ID() ID {
	return Claude
}

func (*StubClaude) Execute(ctx context.Context, t *task.Task) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Result{
		Backend: Claude,
		TaskID:  t.ID,
		Output:  "[Claude would execute with system access]: " + t.Description,
		Metadata: map[string]any{
			"agent":        "executor",
			"tools_used":   []string{"bash", "file_system"},
			"verification": "passed",
		},
	}, nil
}
