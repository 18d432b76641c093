// Package schemas holds the wire types of the daemon API: request payloads,
// their validation schemas, and the conversions into domain values. Response
// bodies reuse the domain types directly where those already carry json tags.
package schemas

import (
	"time"

	z "github.com/Oudwins/zog"

	"github.com/cogniolab/hybrid/internals/task"
)

// TaskSubmitRequest is the POST /tasks payload. Absent fields fall back to
// the task defaults; the schema fills them in before conversion.
type TaskSubmitRequest struct {
	ID                   string         `json:"id,omitempty" zog:"id"`
	Description          string         `json:"description" zog:"description"`
	Type                 task.Type      `json:"type,omitempty" zog:"type"`
	RequiresSystemAccess bool           `json:"requires_system_access,omitempty" zog:"requires_system_access"`
	RequiresMultiStep    bool           `json:"requires_multi_step,omitempty" zog:"requires_multi_step"`
	Context              map[string]any `json:"context,omitempty"`
	Priority             int            `json:"priority,omitempty" zog:"priority"`
	EstimatedCost        float64        `json:"estimated_cost,omitempty" zog:"estimated_cost"`
	TimeoutSeconds       int            `json:"timeout_seconds,omitempty" zog:"timeout_seconds"`
}

var TaskSubmitSchema = z.Struct(z.Shape{
	"ID":             z.String().Optional().Trim(),
	"Description":    z.String().Required(z.Message("description is required")).Trim(),
	"Type":           z.StringLike[task.Type]().OneOf(task.Types()).Default(task.TypeConversation),
	"Priority":       z.Int().Default(task.DefaultPriority).GTE(task.MinPriority).LTE(task.MaxPriority),
	"EstimatedCost":  z.Float64().Optional().GTE(0),
	"TimeoutSeconds": z.Int().Optional().GTE(0),
})

// Task builds the domain task from a validated request.
func (r *TaskSubmitRequest) Task() (*task.Task, error) {
	opts := []task.Option{
		task.WithType(r.Type),
		task.WithPriority(r.Priority),
	}
	if r.ID != "" {
		opts = append(opts, task.WithID(r.ID))
	}
	if r.RequiresSystemAccess {
		opts = append(opts, task.WithSystemAccess())
	}
	if r.RequiresMultiStep {
		opts = append(opts, task.WithMultiStep())
	}
	if len(r.Context) > 0 {
		opts = append(opts, task.WithContext(r.Context))
	}
	if r.EstimatedCost > 0 {
		opts = append(opts, task.WithEstimatedCost(r.EstimatedCost))
	}
	if r.TimeoutSeconds > 0 {
		opts = append(opts, task.WithTimeout(time.Duration(r.TimeoutSeconds)*time.Second))
	}
	return task.New(r.Description, opts...)
}

// HistoryResponse is the GET /tasks body, oldest submission first.
type HistoryResponse struct {
	Tasks []task.Snapshot `json:"tasks"`
}
