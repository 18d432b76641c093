// Package routing classifies tasks onto backends. Pure decision logic: no
// I/O, no configuration, no state, and no look at priority or context.
package routing

import (
	"github.com/cogniolab/hybrid/internals/backends"
	"github.com/cogniolab/hybrid/internals/task"
)

// Decide maps a task to the backend that should run it. Rules apply in
// order; the first hit wins:
//
//  1. tasks needing system access run on the system-acting backend
//  2. multi-step tasks run as a hybrid workflow
//  3. conversation and analysis run on the fast-reasoning backend
//  4. system operations and research run on the system-acting backend
//  5. everything else defaults to the fast-reasoning backend
func Decide(t *task.Task) backends.ID {
	if t.RequiresSystemAccess {
		return backends.Claude
	}
	if t.RequiresMultiStep {
		return backends.Hybrid
	}
	switch t.Type {
	case task.TypeConversation, task.TypeAnalysis:
		return backends.OpenAI
	case task.TypeSystemOperation, task.TypeResearch:
		return backends.Claude
	}
	return backends.OpenAI
}
