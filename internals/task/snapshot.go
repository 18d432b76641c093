package task

import (
	"maps"
	"time"
)

// Snapshot is a read-only projection of a task at a point in time, shaped for
// the wire. History hands these out so callers never touch live tasks.
type Snapshot struct {
	ID                   string         `json:"task_id"`
	Description          string         `json:"description"`
	Type                 Type           `json:"type"`
	Status               Status         `json:"status"`
	Priority             int            `json:"priority"`
	RequiresSystemAccess bool           `json:"requires_system_access"`
	RequiresMultiStep    bool           `json:"requires_multi_step"`
	Context              map[string]any `json:"context,omitempty"`
	EstimatedCost        float64        `json:"estimated_cost,omitempty"`
	AssignedBackend      string         `json:"assigned_backend,omitempty"`
	CreatedAt            string         `json:"created_at"`
	StartedAt            string         `json:"started_at,omitempty"`
	CompletedAt          string         `json:"completed_at,omitempty"`
	Result               any            `json:"result,omitempty"`
	Error                string         `json:"error,omitempty"`
}

func (t *Task) Snapshot() Snapshot {
	s := Snapshot{
		ID:                   t.ID,
		Description:          t.Description,
		Type:                 t.Type,
		Priority:             t.Priority,
		RequiresSystemAccess: t.RequiresSystemAccess,
		RequiresMultiStep:    t.RequiresMultiStep,
		EstimatedCost:        t.EstimatedCost,
		CreatedAt:            t.CreatedAt.Format(time.RFC3339Nano),
	}
	if len(t.Context) > 0 {
		s.Context = maps.Clone(t.Context)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	s.Status = t.status
	s.AssignedBackend = t.assignedBackend
	s.Result = t.result
	s.Error = t.failure
	if t.startedAt != nil {
		s.StartedAt = t.startedAt.Format(time.RFC3339Nano)
	}
	if t.completedAt != nil {
		s.CompletedAt = t.completedAt.Format(time.RFC3339Nano)
	}
	return s
}
