package orchestrator

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/cogniolab/hybrid/internals/backends"
	"github.com/cogniolab/hybrid/internals/task"
	"github.com/cogniolab/hybrid/internals/tracing"
)

// stageSpec describes one hybrid stage: which backend runs it and how the
// derived sub-task is synthesized. Construction is pure; nothing here touches
// platform state, which keeps the synthesis trivially testable.
type stageSpec struct {
	name    string
	backend backends.ID
	id      string
	typ     task.Type
	desc    string
	system  bool
}

// planStage asks the fast-reasoning backend for a step-by-step plan.
func planStage(t *task.Task) stageSpec {
	return stageSpec{
		name:    StagePlanning,
		backend: backends.OpenAI,
		id:      t.ID + "_plan",
		typ:     task.TypeAnalysis,
		desc:    "Create a step-by-step plan for: " + t.Description,
	}
}

// executeStage hands the produced plan to the system-acting backend. The
// sub-task description embeds the planning output, not the original request.
func executeStage(t *task.Task, plan *backends.Result) stageSpec {
	return stageSpec{
		name:    StageExecution,
		backend: backends.Claude,
		id:      t.ID + "_exec",
		typ:     task.TypeSystemOperation,
		desc:    "Execute this plan: " + plan.Output,
		system:  true,
	}
}

// verifyStage sends the execution output back to the fast-reasoning backend
// for review and summary.
func verifyStage(t *task.Task, exec *backends.Result) stageSpec {
	return stageSpec{
		name:    StageVerification,
		backend: backends.OpenAI,
		id:      t.ID + "_verify",
		typ:     task.TypeAnalysis,
		desc:    "Verify and summarize: " + exec.Output,
	}
}

func (s stageSpec) newTask() (*task.Task, error) {
	opts := []task.Option{task.WithID(s.id), task.WithType(s.typ)}
	if s.system {
		opts = append(opts, task.WithSystemAccess())
	}
	return task.New(s.desc, opts...)
}

// runHybrid drives the fixed plan -> execute -> verify pipeline. The derived
// sub-tasks run their own lifecycles but never enter history; the originating
// task owns the composite result. Any stage failure aborts the remaining
// stages, fails the originating task and propagates to the caller.
func (p *Platform) runHybrid(ctx context.Context, t *task.Task) (*RunResult, error) {
	ctx, span := p.startSpan(ctx, tracing.SpanWorkflow,
		attribute.String(tracing.AttrTaskID, t.ID),
	)
	defer span.End()

	t.Start(backends.Hybrid.String())
	p.audit("hybrid workflow started", "task_id", t.ID)

	stages := make(map[string]Stage, 3)

	plan, err := p.runStage(ctx, t, planStage(t), stages)
	if err != nil {
		return nil, err
	}
	exec, err := p.runStage(ctx, t, executeStage(t, plan), stages)
	if err != nil {
		return nil, err
	}
	if _, err := p.runStage(ctx, t, verifyStage(t, exec), stages); err != nil {
		return nil, err
	}

	res := &RunResult{
		Status:  RunCompleted,
		Backend: backends.Hybrid,
		TaskID:  t.ID,
		Stages:  stages,
	}
	t.Complete(res)
	p.audit("hybrid workflow completed", "task_id", t.ID)
	return res, nil
}

// runStage synthesizes and dispatches one sub-task, recording its output
// under the stage name. On failure the originating task fails with the
// stage-tagged error.
func (p *Platform) runStage(ctx context.Context, parent *task.Task, spec stageSpec, stages map[string]Stage) (*backends.Result, error) {
	ctx, span := p.startSpan(ctx, tracing.SpanStage,
		attribute.String(tracing.AttrStage, spec.name),
		attribute.String(tracing.AttrBackend, spec.backend.String()),
		attribute.String(tracing.AttrTaskID, parent.ID),
	)
	defer span.End()

	sub, err := spec.newTask()
	if err != nil {
		err = fmt.Errorf("%s stage: %w", spec.name, err)
		parent.Fail(err.Error())
		return nil, err
	}

	res, err := p.dispatch(ctx, spec.backend, sub)
	if err != nil {
		err = fmt.Errorf("%s stage: %w", spec.name, err)
		parent.Fail(err.Error())
		return nil, err
	}

	stages[spec.name] = Stage{Backend: spec.backend, Output: res}
	return res, nil
}
