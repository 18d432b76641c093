package task

import (
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cogniolab/hybrid/internals/assert"
	"github.com/cogniolab/hybrid/internals/timeouts"
)

type Type string

const (
	TypeConversation     Type = "conversation"
	TypeSystemOperation  Type = "system_operation"
	TypeResearch         Type = "research"
	TypeAnalysis         Type = "analysis"
	TypeCodeReview       Type = "code_review"
	TypeDeployment       Type = "deployment"
	TypeIncidentResponse Type = "incident_response"
)

// Types lists every valid task type, in a stable order.
func Types() []Type {
	return []Type{
		TypeConversation,
		TypeSystemOperation,
		TypeResearch,
		TypeAnalysis,
		TypeCodeReview,
		TypeDeployment,
		TypeIncidentResponse,
	}
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

const (
	MinPriority     = 1
	DefaultPriority = 3
	MaxPriority     = 5
)

// Task is a unit of work flowing through the platform. The descriptor fields
// are immutable after New. Lifecycle state is guarded by an internal mutex so
// history snapshots can be taken while the owning workflow is running the
// task; the transitions themselves belong to exactly one workflow.
type Task struct {
	ID                   string
	Description          string
	Type                 Type
	RequiresSystemAccess bool
	RequiresMultiStep    bool
	Context              map[string]any
	Priority             int
	EstimatedCost        float64
	Timeout              time.Duration
	CreatedAt            time.Time

	mu              sync.Mutex
	status          Status
	assignedBackend string
	startedAt       *time.Time
	completedAt     *time.Time
	result          any
	failure         string
}

type Option func(*Task)

func WithID(id string) Option {
	return func(t *Task) { t.ID = id }
}

func WithType(typ Type) Option {
	return func(t *Task) { t.Type = typ }
}

func WithSystemAccess() Option {
	return func(t *Task) { t.RequiresSystemAccess = true }
}

func WithMultiStep() Option {
	return func(t *Task) { t.RequiresMultiStep = true }
}

func WithContext(ctx map[string]any) Option {
	return func(t *Task) {
		if ctx != nil {
			t.Context = ctx
		}
	}
}

func WithPriority(p int) Option {
	return func(t *Task) { t.Priority = p }
}

func WithEstimatedCost(cost float64) Option {
	return func(t *Task) { t.EstimatedCost = cost }
}

func WithTimeout(d time.Duration) Option {
	return func(t *Task) { t.Timeout = d }
}

// New builds a pending task. Construction is the only place invalid input is
// reported as an error. Once a task exists, misuse of its lifecycle is a
// programming error and panics.
func New(description string, opts ...Option) (*Task, error) {
	t := &Task{
		ID:          uuid.NewString(),
		Description: description,
		Type:        TypeConversation,
		Context:     map[string]any{},
		Priority:    DefaultPriority,
		Timeout:     timeouts.DefaultTask,
		CreatedAt:   time.Now().UTC(),
		status:      StatusPending,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.Context = maps.Clone(t.Context)
	if t.Context == nil {
		t.Context = map[string]any{}
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Task) validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("task: description is required")
	}
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("task: id must not be blank")
	}
	if t.Priority < MinPriority || t.Priority > MaxPriority {
		return fmt.Errorf("task: priority %d out of range [%d, %d]", t.Priority, MinPriority, MaxPriority)
	}
	for _, known := range Types() {
		if t.Type == known {
			return nil
		}
	}
	return fmt.Errorf("task: unknown type %q", t.Type)
}

func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Terminal reports whether the task reached a final state.
func (t *Task) Terminal() bool {
	s := t.Status()
	return s == StatusCompleted || s == StatusFailed
}

// AssignedBackend is the backend the task was started on, "" until started.
func (t *Task) AssignedBackend() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.assignedBackend
}

func (t *Task) StartedAt() *time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyTime(t.startedAt)
}

func (t *Task) CompletedAt() *time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyTime(t.completedAt)
}

// Result is the success payload, nil until completed.
func (t *Task) Result() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Failure is the failure message, "" unless the task failed.
func (t *Task) Failure() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failure
}

// Start moves a pending task to in_progress and records which backend owns it.
func (t *Task) Start(backend string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	assert.Assert(t.status == StatusPending,
		"invalid task transition: %s -> %s (task %s)", t.status, StatusInProgress, t.ID)
	now := time.Now().UTC()
	t.status = StatusInProgress
	t.startedAt = &now
	t.assignedBackend = backend
}

// Complete moves an in_progress task to completed with its result payload.
func (t *Task) Complete(result any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	assert.Assert(t.status == StatusInProgress,
		"invalid task transition: %s -> %s (task %s)", t.status, StatusCompleted, t.ID)
	now := time.Now().UTC()
	t.status = StatusCompleted
	t.completedAt = &now
	t.result = result
}

// Fail moves any non-terminal task to failed. Legal from pending: guardrails
// fail tasks that never started.
func (t *Task) Fail(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	assert.Assert(t.status != StatusCompleted && t.status != StatusFailed,
		"invalid task transition: %s -> %s (task %s)", t.status, StatusFailed, t.ID)
	now := time.Now().UTC()
	t.status = StatusFailed
	t.completedAt = &now
	t.failure = message
}

func copyTime(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	v := *src
	return &v
}
