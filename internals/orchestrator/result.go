package orchestrator

import "github.com/cogniolab/hybrid/internals/backends"

type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunBlocked   RunStatus = "blocked"
)

// RunResult is the outcome of one submission. Completed single-backend runs
// carry Output; completed hybrid runs carry Stages; blocked runs carry the
// guardrail name and message and nothing else.
type RunResult struct {
	Status    RunStatus        `json:"status"`
	Backend   backends.ID      `json:"platform,omitempty"`
	TaskID    string           `json:"task_id"`
	Output    *backends.Result `json:"output,omitempty"`
	Stages    map[string]Stage `json:"stages,omitempty"`
	Guardrail string           `json:"guardrail,omitempty"`
	Message   string           `json:"message,omitempty"`
}

// Stage is one step of a hybrid workflow, tagged with the backend that ran it.
type Stage struct {
	Backend backends.ID      `json:"platform"`
	Output  *backends.Result `json:"output"`
}

// Stage keys of the hybrid workflow, in execution order.
const (
	StagePlanning     = "planning"
	StageExecution    = "execution"
	StageVerification = "verification"
)
