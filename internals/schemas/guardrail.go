package schemas

import (
	"errors"
	"fmt"

	z "github.com/Oudwins/zog"

	"github.com/cogniolab/hybrid/internals/guardrail"
	"github.com/cogniolab/hybrid/internals/task"
)

// ConditionKind enumerates the declarative predicates accepted over the API.
// Arbitrary code conditions (guardrail.Func) are deliberately not expressible
// here; a policy record on the wire stays data.
type ConditionKind string

const (
	CondDescriptionContains  ConditionKind = "description_contains"
	CondContextHasKey        ConditionKind = "context_has_key"
	CondContextEquals        ConditionKind = "context_equals"
	CondPriorityAtLeast      ConditionKind = "priority_at_least"
	CondCostAtLeast          ConditionKind = "cost_at_least"
	CondTypeIn               ConditionKind = "type_in"
	CondRequiresSystemAccess ConditionKind = "requires_system_access"
	CondAll                  ConditionKind = "all"
	CondAny                  ConditionKind = "any"
	CondNot                  ConditionKind = "not"
)

// ConditionNode is the wire form of a guardrail condition: one predicate kind
// plus its parameters. all/any/not compose nested nodes.
type ConditionNode struct {
	Kind            ConditionKind   `json:"kind"`
	Value           string          `json:"value,omitempty"`
	Key             string          `json:"key,omitempty"`
	CaseInsensitive bool            `json:"case_insensitive,omitempty"`
	Threshold       float64         `json:"threshold,omitempty"`
	Types           []task.Type     `json:"types,omitempty"`
	Nodes           []ConditionNode `json:"nodes,omitempty"`
}

// Condition converts the node tree into an engine condition.
func (n *ConditionNode) Condition() (guardrail.Condition, error) {
	switch n.Kind {
	case CondDescriptionContains:
		if n.Value == "" {
			return nil, errors.New("description_contains needs a value")
		}
		return guardrail.DescriptionContains{Substring: n.Value, CaseInsensitive: n.CaseInsensitive}, nil
	case CondContextHasKey:
		if n.Key == "" {
			return nil, errors.New("context_has_key needs a key")
		}
		return guardrail.ContextHasKey{Key: n.Key}, nil
	case CondContextEquals:
		if n.Key == "" {
			return nil, errors.New("context_equals needs a key")
		}
		return guardrail.ContextEquals{Key: n.Key, Value: n.Value}, nil
	case CondPriorityAtLeast:
		return guardrail.PriorityAtLeast{Min: int(n.Threshold)}, nil
	case CondCostAtLeast:
		return guardrail.CostAtLeast{Min: n.Threshold}, nil
	case CondTypeIn:
		if len(n.Types) == 0 {
			return nil, errors.New("type_in needs at least one type")
		}
		for _, typ := range n.Types {
			if !validTaskType(typ) {
				return nil, fmt.Errorf("type_in: unknown task type %q", typ)
			}
		}
		return guardrail.TypeIn{Types: n.Types}, nil
	case CondRequiresSystemAccess:
		return guardrail.RequiresSystemAccess{}, nil
	case CondAll, CondAny:
		if len(n.Nodes) == 0 {
			return nil, fmt.Errorf("%s needs nested conditions", n.Kind)
		}
		conds, err := nestedConditions(n.Nodes)
		if err != nil {
			return nil, err
		}
		if n.Kind == CondAll {
			return guardrail.All{Conds: conds}, nil
		}
		return guardrail.Any{Conds: conds}, nil
	case CondNot:
		if len(n.Nodes) != 1 {
			return nil, errors.New("not needs exactly one nested condition")
		}
		inner, err := n.Nodes[0].Condition()
		if err != nil {
			return nil, err
		}
		return guardrail.Not{Cond: inner}, nil
	default:
		return nil, fmt.Errorf("unknown condition kind %q", n.Kind)
	}
}

func nestedConditions(nodes []ConditionNode) ([]guardrail.Condition, error) {
	conds := make([]guardrail.Condition, len(nodes))
	for i := range nodes {
		cond, err := nodes[i].Condition()
		if err != nil {
			return nil, err
		}
		conds[i] = cond
	}
	return conds, nil
}

func validTaskType(typ task.Type) bool {
	for _, known := range task.Types() {
		if typ == known {
			return true
		}
	}
	return false
}

// GuardrailRequest is the POST /guardrails payload.
type GuardrailRequest struct {
	Name      string         `json:"name" zog:"name"`
	Kind      guardrail.Kind `json:"kind" zog:"kind"`
	Condition *ConditionNode `json:"condition"`
	Message   string         `json:"message,omitempty" zog:"message"`
	Approver  string         `json:"approver,omitempty" zog:"approver"`
}

var GuardrailSchema = z.Struct(z.Shape{
	"Name":     z.String().Required(z.Message("name is required")).Trim(),
	"Kind":     z.StringLike[guardrail.Kind]().OneOf(guardrail.Kinds()).Required(z.Message("kind is required")),
	"Message":  z.String().Optional().Trim(),
	"Approver": z.String().Optional().Trim(),
})

// Guardrail converts the validated request into an engine guardrail. The
// condition tree is checked here, structurally, rather than in the zog schema.
func (r *GuardrailRequest) Guardrail() (guardrail.Guardrail, error) {
	if r.Condition == nil {
		return guardrail.Guardrail{}, errors.New("condition is required")
	}
	cond, err := r.Condition.Condition()
	if err != nil {
		return guardrail.Guardrail{}, err
	}
	return guardrail.Guardrail{
		Name:      r.Name,
		Kind:      r.Kind,
		Condition: cond,
		Message:   r.Message,
		Approver:  r.Approver,
	}, nil
}

// GuardrailListResponse is the GET /guardrails body, in evaluation order.
type GuardrailListResponse struct {
	Guardrails []guardrail.Info `json:"guardrails"`
}
