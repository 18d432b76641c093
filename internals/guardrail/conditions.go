package guardrail

import (
	"fmt"
	"strings"

	"github.com/cogniolab/hybrid/internals/task"
)

// Condition decides whether a guardrail applies to a task. Implementations
// must be pure reads: a condition never mutates the task it inspects.
type Condition interface {
	Matches(t *task.Task) bool
	String() string
}

// Func adapts a plain predicate for in-process callers. Func conditions are
// not expressible over the HTTP API; use the declarative conditions there.
type Func func(t *task.Task) bool

func (f Func) Matches(t *task.Task) bool { return f(t) }
func (f Func) String() string            { return "func" }

// DescriptionContains matches when the task description contains Substring.
type DescriptionContains struct {
	Substring       string
	CaseInsensitive bool
}

func (c DescriptionContains) Matches(t *task.Task) bool {
	desc, sub := t.Description, c.Substring
	if c.CaseInsensitive {
		desc = strings.ToLower(desc)
		sub = strings.ToLower(sub)
	}
	return strings.Contains(desc, sub)
}

func (c DescriptionContains) String() string {
	if c.CaseInsensitive {
		return fmt.Sprintf("description contains %q (case-insensitive)", c.Substring)
	}
	return fmt.Sprintf("description contains %q", c.Substring)
}

// ContextHasKey matches when the task context carries Key, whatever the value.
type ContextHasKey struct {
	Key string
}

func (c ContextHasKey) Matches(t *task.Task) bool {
	_, ok := t.Context[c.Key]
	return ok
}

func (c ContextHasKey) String() string {
	return fmt.Sprintf("context has key %q", c.Key)
}

// ContextEquals matches when the task context carries Key with exactly Value.
type ContextEquals struct {
	Key   string
	Value any
}

func (c ContextEquals) Matches(t *task.Task) bool {
	v, ok := t.Context[c.Key]
	return ok && v == c.Value
}

func (c ContextEquals) String() string {
	return fmt.Sprintf("context[%q] == %v", c.Key, c.Value)
}

// PriorityAtLeast matches tasks at or above Min priority.
type PriorityAtLeast struct {
	Min int
}

func (c PriorityAtLeast) Matches(t *task.Task) bool {
	return t.Priority >= c.Min
}

func (c PriorityAtLeast) String() string {
	return fmt.Sprintf("priority >= %d", c.Min)
}

// CostAtLeast matches tasks whose estimated cost reaches Min.
type CostAtLeast struct {
	Min float64
}

func (c CostAtLeast) Matches(t *task.Task) bool {
	return t.EstimatedCost >= c.Min
}

func (c CostAtLeast) String() string {
	return fmt.Sprintf("estimated cost >= %g", c.Min)
}

// TypeIn matches tasks of any of the given types.
type TypeIn struct {
	Types []task.Type
}

func (c TypeIn) Matches(t *task.Task) bool {
	for _, typ := range c.Types {
		if t.Type == typ {
			return true
		}
	}
	return false
}

func (c TypeIn) String() string {
	parts := make([]string, len(c.Types))
	for i, typ := range c.Types {
		parts[i] = string(typ)
	}
	return "type in {" + strings.Join(parts, ", ") + "}"
}

// RequiresSystemAccess matches tasks that asked for system access.
type RequiresSystemAccess struct{}

func (RequiresSystemAccess) Matches(t *task.Task) bool {
	return t.RequiresSystemAccess
}

func (RequiresSystemAccess) String() string {
	return "requires system access"
}

// Not inverts a condition.
type Not struct {
	Cond Condition
}

func (c Not) Matches(t *task.Task) bool {
	return !c.Cond.Matches(t)
}

func (c Not) String() string {
	return "not (" + c.Cond.String() + ")"
}

// All matches when every inner condition matches. Empty All matches.
type All struct {
	Conds []Condition
}

func (c All) Matches(t *task.Task) bool {
	for _, cond := range c.Conds {
		if !cond.Matches(t) {
			return false
		}
	}
	return true
}

func (c All) String() string {
	return "all(" + joinConds(c.Conds) + ")"
}

// Any matches when at least one inner condition matches. Empty Any never does.
type Any struct {
	Conds []Condition
}

func (c Any) Matches(t *task.Task) bool {
	for _, cond := range c.Conds {
		if cond.Matches(t) {
			return true
		}
	}
	return false
}

func (c Any) String() string {
	return "any(" + joinConds(c.Conds) + ")"
}

func joinConds(conds []Condition) string {
	parts := make([]string, len(conds))
	for i, cond := range conds {
		parts[i] = cond.String()
	}
	return strings.Join(parts, "; ")
}
