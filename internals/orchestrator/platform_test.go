package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/cogniolab/hybrid/internals/backends"
	"github.com/cogniolab/hybrid/internals/guardrail"
	"github.com/cogniolab/hybrid/internals/task"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stubStore(t *testing.T) *backends.Store {
	t.Helper()
	store := backends.NewStore()
	if err := store.Register(backends.NewStubOpenAI()); err != nil {
		t.Fatalf("register openai stub: %v", err)
	}
	if err := store.Register(backends.NewStubClaude()); err != nil {
		t.Fatalf("register claude stub: %v", err)
	}
	return store
}

func newPlatform(t *testing.T, opts ...Option) *Platform {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return New(stubStore(t), opts...)
}

func mustTask(t *testing.T, desc string, opts ...task.Option) *task.Task {
	t.Helper()
	tk, err := task.New(desc, opts...)
	if err != nil {
		t.Fatalf("task.New(%q): %v", desc, err)
	}
	return tk
}

type failBackend struct {
	id  backends.ID
	err error
}

func (f *failBackend) ID() backends.ID { return f.id }

func (f *failBackend) Execute(context.Context, *task.Task) (*backends.Result, error) {
	return nil, f.err
}

func TestRunBlockedByGuardrail(t *testing.T) {
	p := newPlatform(t)
	err := p.Register(guardrail.Guardrail{
		Name:      "no_destructive_sql",
		Kind:      guardrail.KindBlock,
		Condition: guardrail.DescriptionContains{Substring: "DROP TABLE"},
		Message:   "Destructive SQL operations are not allowed",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	tk := mustTask(t, "DROP TABLE users")
	res, err := p.Run(context.Background(), tk)
	if err != nil {
		t.Fatalf("Run returned error for blocked task: %v", err)
	}
	if res.Status != RunBlocked {
		t.Fatalf("status = %q, want %q", res.Status, RunBlocked)
	}
	if res.Guardrail != "no_destructive_sql" {
		t.Errorf("guardrail = %q, want no_destructive_sql", res.Guardrail)
	}
	if res.Message != "Destructive SQL operations are not allowed" {
		t.Errorf("message = %q", res.Message)
	}
	if res.TaskID != tk.ID {
		t.Errorf("task id = %q, want %q", res.TaskID, tk.ID)
	}
	if res.Backend != "" || res.Output != nil || res.Stages != nil {
		t.Errorf("blocked result carries execution fields: %+v", res)
	}

	if got := tk.Status(); got != task.StatusFailed {
		t.Errorf("task status = %q, want failed", got)
	}
	want := "Blocked by guardrail: Destructive SQL operations are not allowed"
	if got := tk.Failure(); got != want {
		t.Errorf("failure = %q, want %q", got, want)
	}
	if tk.StartedAt() != nil || tk.AssignedBackend() != "" {
		t.Errorf("blocked task was started: backend=%q", tk.AssignedBackend())
	}
	if got := len(p.History()); got != 1 {
		t.Errorf("history length = %d, want 1", got)
	}
}

func TestRunApprovalRequiredMessage(t *testing.T) {
	p := newPlatform(t)
	err := p.Register(guardrail.Guardrail{
		Name:      "high_priority_signoff",
		Kind:      guardrail.KindApprovalRequired,
		Condition: guardrail.PriorityAtLeast{Min: 4},
		Message:   "High priority tasks need sign-off",
		Approver:  "slack://ops-channel",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := p.Submit(context.Background(), "rotate production keys", task.WithPriority(5))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Status != RunBlocked {
		t.Fatalf("status = %q, want blocked", res.Status)
	}
	want := "High priority tasks need sign-off (Approval required from slack://ops-channel)"
	if res.Message != want {
		t.Errorf("message = %q, want %q", res.Message, want)
	}
}

func TestRunRoutesSystemAccessToClaude(t *testing.T) {
	p := newPlatform(t)

	tk := mustTask(t, "ping", task.WithSystemAccess())
	res, err := p.Run(context.Background(), tk)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != RunCompleted {
		t.Fatalf("status = %q, want completed", res.Status)
	}
	if res.Backend != backends.Claude {
		t.Errorf("backend = %q, want claude", res.Backend)
	}
	if res.Output == nil || res.Output.Output != "[Claude would execute with system access]: ping" {
		t.Errorf("output = %+v", res.Output)
	}
	if got := tk.Status(); got != task.StatusCompleted {
		t.Errorf("task status = %q, want completed", got)
	}
	if got := tk.AssignedBackend(); got != "claude" {
		t.Errorf("assigned backend = %q, want claude", got)
	}
}

func TestRunSystemAccessWinsOverMultiStep(t *testing.T) {
	p := newPlatform(t)

	res, err := p.Submit(context.Background(), "patch and restart the fleet",
		task.WithSystemAccess(), task.WithMultiStep())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Backend != backends.Claude {
		t.Errorf("backend = %q, want claude", res.Backend)
	}
	if res.Stages != nil {
		t.Errorf("single-backend run produced stages: %+v", res.Stages)
	}
}

func TestRunDefaultsToOpenAI(t *testing.T) {
	p := newPlatform(t)

	tk := mustTask(t, "summarize yesterday's incidents")
	res, err := p.Run(context.Background(), tk)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Backend != backends.OpenAI {
		t.Errorf("backend = %q, want openai", res.Backend)
	}
	if res.Output == nil || res.Output.TaskID != tk.ID {
		t.Errorf("output = %+v", res.Output)
	}
	if got := tk.AssignedBackend(); got != "openai" {
		t.Errorf("assigned backend = %q, want openai", got)
	}
}

func TestRunHybridWorkflow(t *testing.T) {
	p := newPlatform(t)

	tk := mustTask(t, "migrate the billing database", task.WithID("task-42"), task.WithMultiStep())
	res, err := p.Run(context.Background(), tk)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != RunCompleted {
		t.Fatalf("status = %q, want completed", res.Status)
	}
	if res.Backend != backends.Hybrid {
		t.Errorf("backend = %q, want hybrid", res.Backend)
	}
	if len(res.Stages) != 3 {
		t.Fatalf("stages = %d, want 3: %+v", len(res.Stages), res.Stages)
	}

	plan, ok := res.Stages[StagePlanning]
	if !ok {
		t.Fatalf("missing planning stage")
	}
	if plan.Backend != backends.OpenAI {
		t.Errorf("planning backend = %q, want openai", plan.Backend)
	}
	if plan.Output.TaskID != "task-42_plan" {
		t.Errorf("plan sub-task id = %q, want task-42_plan", plan.Output.TaskID)
	}
	wantPlan := "[OpenAI would execute]: Create a step-by-step plan for: migrate the billing database"
	if plan.Output.Output != wantPlan {
		t.Errorf("plan output = %q, want %q", plan.Output.Output, wantPlan)
	}

	exec, ok := res.Stages[StageExecution]
	if !ok {
		t.Fatalf("missing execution stage")
	}
	if exec.Backend != backends.Claude {
		t.Errorf("execution backend = %q, want claude", exec.Backend)
	}
	if exec.Output.TaskID != "task-42_exec" {
		t.Errorf("exec sub-task id = %q, want task-42_exec", exec.Output.TaskID)
	}
	wantExec := "[Claude would execute with system access]: Execute this plan: " + wantPlan
	if exec.Output.Output != wantExec {
		t.Errorf("exec output = %q, want %q", exec.Output.Output, wantExec)
	}

	verify, ok := res.Stages[StageVerification]
	if !ok {
		t.Fatalf("missing verification stage")
	}
	if verify.Backend != backends.OpenAI {
		t.Errorf("verification backend = %q, want openai", verify.Backend)
	}
	if verify.Output.TaskID != "task-42_verify" {
		t.Errorf("verify sub-task id = %q, want task-42_verify", verify.Output.TaskID)
	}
	wantVerify := "[OpenAI would execute]: Verify and summarize: " + wantExec
	if verify.Output.Output != wantVerify {
		t.Errorf("verify output = %q, want %q", verify.Output.Output, wantVerify)
	}

	if got := tk.Status(); got != task.StatusCompleted {
		t.Errorf("task status = %q, want completed", got)
	}
	if got := tk.AssignedBackend(); got != "hybrid" {
		t.Errorf("assigned backend = %q, want hybrid", got)
	}
	if tk.Result() != any(res) {
		t.Errorf("task result is not the composite run result")
	}
	// Sub-tasks are workflow internals; only the originating task is recorded.
	if got := len(p.History()); got != 1 {
		t.Errorf("history length = %d, want 1", got)
	}
}

func TestHybridSubTasksBypassGuardrails(t *testing.T) {
	p := newPlatform(t)
	err := p.Register(guardrail.Guardrail{
		Name:      "no_plan_execution",
		Kind:      guardrail.KindBlock,
		Condition: guardrail.DescriptionContains{Substring: "Execute this plan"},
		Message:   "should never trigger",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := p.Submit(context.Background(), "roll out the new config", task.WithMultiStep())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Status != RunCompleted {
		t.Fatalf("status = %q, want completed; guardrails must only gate submissions", res.Status)
	}
}

func TestRunBackendFailure(t *testing.T) {
	store := backends.NewStore()
	boom := errors.New("connection reset")
	if err := store.Register(&failBackend{id: backends.OpenAI, err: boom}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := store.Register(backends.NewStubClaude()); err != nil {
		t.Fatalf("register: %v", err)
	}
	p := New(store, WithLogger(quietLogger()))

	tk := mustTask(t, "summarize the sprint")
	res, err := p.Run(context.Background(), tk)
	if err == nil {
		t.Fatalf("Run succeeded, want backend failure; res=%+v", res)
	}
	if res != nil {
		t.Errorf("result = %+v, want nil on failure", res)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error %v does not wrap the backend error", err)
	}
	if !strings.Contains(err.Error(), "backend openai") {
		t.Errorf("error = %q, want backend tag", err)
	}
	if got := tk.Status(); got != task.StatusFailed {
		t.Errorf("task status = %q, want failed", got)
	}
	if got := tk.Failure(); !strings.Contains(got, "connection reset") {
		t.Errorf("failure = %q, want the backend error text", got)
	}
	if got := len(p.History()); got != 1 {
		t.Errorf("history length = %d, want 1", got)
	}
}

func TestRunHybridStageFailure(t *testing.T) {
	store := backends.NewStore()
	if err := store.Register(backends.NewStubOpenAI()); err != nil {
		t.Fatalf("register: %v", err)
	}
	boom := errors.New("tool sandbox unavailable")
	if err := store.Register(&failBackend{id: backends.Claude, err: boom}); err != nil {
		t.Fatalf("register: %v", err)
	}
	p := New(store, WithLogger(quietLogger()))

	tk := mustTask(t, "upgrade the cluster", task.WithMultiStep())
	res, err := p.Run(context.Background(), tk)
	if err == nil {
		t.Fatalf("Run succeeded, want execution stage failure; res=%+v", res)
	}
	if res != nil {
		t.Errorf("result = %+v, want nil on failure", res)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error %v does not wrap the stage error", err)
	}
	if !strings.Contains(err.Error(), "execution stage") {
		t.Errorf("error = %q, want execution stage tag", err)
	}
	if got := tk.Status(); got != task.StatusFailed {
		t.Errorf("task status = %q, want failed", got)
	}
	if got := tk.Failure(); !strings.Contains(got, "execution stage") {
		t.Errorf("failure = %q, want stage tag", got)
	}
}

func TestRunUnknownBackend(t *testing.T) {
	// Claude-only store: conversation routes to openai, which is missing.
	store := backends.NewStore()
	if err := store.Register(backends.NewStubClaude()); err != nil {
		t.Fatalf("register: %v", err)
	}
	p := New(store, WithLogger(quietLogger()))

	tk := mustTask(t, "hello there")
	_, err := p.Run(context.Background(), tk)
	if !errors.Is(err, backends.ErrUnknownBackend) {
		t.Fatalf("error = %v, want ErrUnknownBackend", err)
	}
	if got := tk.Status(); got != task.StatusFailed {
		t.Errorf("task status = %q, want failed", got)
	}
}

func TestHistoryRecordsEverySubmission(t *testing.T) {
	p := newPlatform(t)
	if err := p.Register(guardrail.Guardrail{
		Name:      "no_rm",
		Kind:      guardrail.KindBlock,
		Condition: guardrail.DescriptionContains{Substring: "rm -rf"},
		Message:   "blocked",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	ids := make([]string, 0, 3)
	for _, desc := range []string{"rm -rf /", "check disk usage", "plan the upgrade"} {
		res, err := p.Submit(context.Background(), desc)
		if err != nil {
			t.Fatalf("Submit(%q): %v", desc, err)
		}
		ids = append(ids, res.TaskID)
	}

	hist := p.History()
	if len(hist) != 3 {
		t.Fatalf("history length = %d, want 3", len(hist))
	}
	for i, snap := range hist {
		if snap.ID != ids[i] {
			t.Errorf("history[%d].ID = %q, want %q", i, snap.ID, ids[i])
		}
	}
	if hist[0].Status != task.StatusFailed {
		t.Errorf("blocked task status = %q, want failed", hist[0].Status)
	}
	if hist[1].Status != task.StatusCompleted || hist[2].Status != task.StatusCompleted {
		t.Errorf("completed statuses = %q, %q", hist[1].Status, hist[2].Status)
	}
}

func TestFindTask(t *testing.T) {
	p := newPlatform(t)

	res, err := p.Submit(context.Background(), "triage the alert", task.WithID("alert-1"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.TaskID != "alert-1" {
		t.Fatalf("task id = %q", res.TaskID)
	}

	snap, ok := p.FindTask("alert-1")
	if !ok {
		t.Fatalf("FindTask missed a submitted task")
	}
	if snap.Status != task.StatusCompleted {
		t.Errorf("snapshot status = %q, want completed", snap.Status)
	}
	if _, ok := p.FindTask("alert-2"); ok {
		t.Errorf("FindTask found an unknown id")
	}
}

func TestSubmitRejectsInvalidTask(t *testing.T) {
	p := newPlatform(t)

	if _, err := p.Submit(context.Background(), "   "); err == nil {
		t.Fatalf("Submit accepted a blank description")
	}
	if got := len(p.History()); got != 0 {
		t.Errorf("history length = %d, want 0 after rejected submit", got)
	}
}

func TestRunNilTask(t *testing.T) {
	p := newPlatform(t)
	if _, err := p.Run(context.Background(), nil); err == nil {
		t.Fatalf("Run accepted a nil task")
	}
}

func TestRegisterRejectsInvalidGuardrail(t *testing.T) {
	p := newPlatform(t)
	err := p.Register(guardrail.Guardrail{Name: "half-baked", Kind: guardrail.KindBlock})
	if err == nil {
		t.Fatalf("Register accepted a guardrail without a condition")
	}
	if got := len(p.Guardrails()); got != 0 {
		t.Errorf("guardrails = %d, want 0", got)
	}
}

func TestBackendsListing(t *testing.T) {
	p := newPlatform(t)
	ids := p.Backends()
	if len(ids) != 2 || ids[0] != backends.OpenAI || ids[1] != backends.Claude {
		t.Fatalf("backends = %v", ids)
	}
}

func TestConcurrentRuns(t *testing.T) {
	p := newPlatform(t)

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			opts := []task.Option{}
			if i%3 == 0 {
				opts = append(opts, task.WithMultiStep())
			}
			res, err := p.Submit(context.Background(), fmt.Sprintf("job %d", i), opts...)
			if err != nil {
				t.Errorf("Submit(job %d): %v", i, err)
				return
			}
			if res.Status != RunCompleted {
				t.Errorf("job %d status = %q", i, res.Status)
			}
		}(i)
	}
	wg.Wait()

	if got := len(p.History()); got != n {
		t.Fatalf("history length = %d, want %d", got, n)
	}
	for _, snap := range p.History() {
		if snap.Status != task.StatusCompleted {
			t.Errorf("task %s status = %q, want completed", snap.ID, snap.Status)
		}
	}
}
