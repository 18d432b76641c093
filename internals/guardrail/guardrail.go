// Package guardrail holds the policy checks a task must clear before it is
// routed anywhere. Guardrails are evaluated in insertion order and the first
// one that denies wins; later guardrails are never consulted.
package guardrail

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cogniolab/hybrid/internals/task"
)

type Kind string

const (
	KindValidation       Kind = "validation"
	KindBlock            Kind = "block"
	KindApprovalRequired Kind = "approval_required"
	KindRateLimit        Kind = "rate_limit"
	KindCostLimit        Kind = "cost_limit"
)

// Kinds lists every guardrail kind. Only block and approval_required deny;
// the rest are observational and never affect the decision.
func Kinds() []Kind {
	return []Kind{KindValidation, KindBlock, KindApprovalRequired, KindRateLimit, KindCostLimit}
}

func validKind(k Kind) bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

type Guardrail struct {
	Name      string
	Kind      Kind
	Condition Condition
	Message   string
	// Approver is who must sign off; only approval_required uses it.
	Approver string
}

// Decision is the outcome of a check. A zero Decision denies with no detail;
// use Allow for the passing case.
type Decision struct {
	Allowed   bool
	Guardrail string
	Kind      Kind
	Message   string
}

// Allow is the decision returned when no guardrail denies the task.
var Allow = Decision{Allowed: true}

// Info is a read-only projection of a registered guardrail for listings.
type Info struct {
	Name      string `json:"name"`
	Kind      Kind   `json:"kind"`
	Condition string `json:"condition"`
	Message   string `json:"message"`
	Approver  string `json:"approver,omitempty"`
}

// Info projects the guardrail for listings and API responses.
func (g Guardrail) Info() Info {
	info := Info{Name: g.Name, Kind: g.Kind, Message: g.Message, Approver: g.Approver}
	if g.Condition != nil {
		info.Condition = g.Condition.String()
	}
	return info
}

// Engine is an ordered guardrail list. Adding while checks are in flight is
// safe; a new guardrail only affects checks that start after the add.
type Engine struct {
	mu    sync.RWMutex
	rails []Guardrail
}

func NewEngine() *Engine {
	return &Engine{}
}

// Add registers a guardrail at the end of the evaluation order. Duplicate
// names are allowed; both entries evaluate independently.
func (e *Engine) Add(g Guardrail) error {
	if strings.TrimSpace(g.Name) == "" {
		return errors.New("guardrail: name is required")
	}
	if !validKind(g.Kind) {
		return fmt.Errorf("guardrail: unknown kind %q", g.Kind)
	}
	if g.Condition == nil {
		return errors.New("guardrail: condition is required")
	}
	if g.Kind == KindApprovalRequired && strings.TrimSpace(g.Approver) == "" {
		return errors.New("guardrail: approval_required needs an approver")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.rails = append(e.rails, g)
	return nil
}

// Check walks guardrails in insertion order and returns the first denial, or
// Allow. Matching guardrails of a non-denying kind fall through.
func (e *Engine) Check(t *task.Task) Decision {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, g := range e.rails {
		if !g.Condition.Matches(t) {
			continue
		}
		switch g.Kind {
		case KindBlock:
			return Decision{Guardrail: g.Name, Kind: g.Kind, Message: g.Message}
		case KindApprovalRequired:
			return Decision{
				Guardrail: g.Name,
				Kind:      g.Kind,
				Message:   g.Message + " (Approval required from " + g.Approver + ")",
			}
		case KindValidation, KindRateLimit, KindCostLimit:
			// Evaluated, never denies.
		}
	}
	return Allow
}

func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rails)
}

// List returns registered guardrails in evaluation order.
func (e *Engine) List() []Info {
	e.mu.RLock()
	defer e.mu.RUnlock()

	infos := make([]Info, len(e.rails))
	for i, g := range e.rails {
		infos[i] = g.Info()
	}
	return infos
}
