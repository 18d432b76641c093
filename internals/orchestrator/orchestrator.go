// Package orchestrator ties the platform together: every submitted task is
// recorded in history first, then checked against guardrails, then routed to
// a backend or decomposed into the hybrid workflow.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cogniolab/hybrid/internals/backends"
	"github.com/cogniolab/hybrid/internals/guardrail"
	"github.com/cogniolab/hybrid/internals/history"
	"github.com/cogniolab/hybrid/internals/routing"
	"github.com/cogniolab/hybrid/internals/task"
	"github.com/cogniolab/hybrid/internals/tracing"
)

// Config carries the platform-level knobs. Backend retry budgets are wired
// into the adapters at construction time, not here: the orchestrator itself
// never retries.
type Config struct {
	// DefaultTimeout bounds backend calls for tasks that carry no timeout
	// of their own. Advisory: nothing reaps work beyond context cancellation.
	DefaultTimeout time.Duration
	// AuditLogging promotes per-run records from debug to info level.
	AuditLogging bool
}

// Platform is the orchestration facade. Safe for concurrent use; each task
// may only be submitted once.
type Platform struct {
	backends *backends.Store
	guards   *guardrail.Engine
	log      *history.Log
	logger   *slog.Logger
	cfg      Config

	mu       sync.RWMutex
	tracer   trace.Tracer
	provider *tracing.Provider
}

type Option func(*Platform)

func WithLogger(l *slog.Logger) Option {
	return func(p *Platform) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithGuardrails(e *guardrail.Engine) Option {
	return func(p *Platform) {
		if e != nil {
			p.guards = e
		}
	}
}

func WithHistory(h *history.Log) Option {
	return func(p *Platform) {
		if h != nil {
			p.log = h
		}
	}
}

func WithConfig(cfg Config) Option {
	return func(p *Platform) { p.cfg = cfg }
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Platform) {
		if t != nil {
			p.tracer = t
		}
	}
}

func New(store *backends.Store, opts ...Option) *Platform {
	p := &Platform{
		backends: store,
		guards:   guardrail.NewEngine(),
		log:      history.NewLog(),
		logger:   slog.Default(),
		tracer:   tracing.Noop().Tracer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Register adds a guardrail. It affects submissions that start after it is
// added, never retroactively.
func (p *Platform) Register(g guardrail.Guardrail) error {
	if err := p.guards.Add(g); err != nil {
		return err
	}
	p.logger.Info("guardrail registered", "name", g.Name, "kind", string(g.Kind))
	return nil
}

// Guardrails lists registered guardrails in evaluation order.
func (p *Platform) Guardrails() []guardrail.Info {
	return p.guards.List()
}

// History returns snapshots of every task ever submitted, oldest first.
// Blocked and failed tasks are part of the record.
func (p *Platform) History() []task.Snapshot {
	return p.log.Snapshots()
}

// FindTask returns the snapshot of the first submitted task with the id.
func (p *Platform) FindTask(id string) (task.Snapshot, bool) {
	return p.log.Find(id)
}

// Backends lists the registered executable backends.
func (p *Platform) Backends() []backends.ID {
	return p.backends.IDs()
}

// Submit is the one-call path: construct a task, then Run it. Construction
// errors surface before anything is recorded.
func (p *Platform) Submit(ctx context.Context, description string, opts ...task.Option) (*RunResult, error) {
	t, err := task.New(description, opts...)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, t)
}

// Run pushes one task through the pipeline: record, check, route, dispatch.
// A guardrail denial is a normal outcome (blocked result, nil error); a
// backend failure fails the task and returns the error to the caller.
func (p *Platform) Run(ctx context.Context, t *task.Task) (*RunResult, error) {
	if t == nil {
		return nil, errors.New("orchestrator: nil task")
	}
	ctx, span := p.startSpan(ctx, tracing.SpanRun,
		attribute.String(tracing.AttrTaskID, t.ID),
		attribute.String(tracing.AttrTaskType, string(t.Type)),
	)
	defer span.End()

	p.log.Append(t)
	p.audit("task submitted", "task_id", t.ID, "type", string(t.Type), "priority", t.Priority)

	if d := p.guards.Check(t); !d.Allowed {
		t.Fail("Blocked by guardrail: " + d.Message)
		span.SetAttributes(
			attribute.String(tracing.AttrStatus, string(RunBlocked)),
			attribute.String(tracing.AttrGuardrail, d.Guardrail),
		)
		p.audit("task blocked", "task_id", t.ID, "guardrail", d.Guardrail, "message", d.Message)
		return &RunResult{
			Status:    RunBlocked,
			TaskID:    t.ID,
			Guardrail: d.Guardrail,
			Message:   d.Message,
		}, nil
	}

	route := routing.Decide(t)
	span.SetAttributes(attribute.String(tracing.AttrBackend, route.String()))

	if route == backends.Hybrid {
		return p.runHybrid(ctx, t)
	}

	res, err := p.dispatch(ctx, route, t)
	if err != nil {
		return nil, err
	}
	return &RunResult{
		Status:  RunCompleted,
		Backend: route,
		TaskID:  t.ID,
		Output:  res,
	}, nil
}

// dispatch runs one task start-to-finish on a single backend, driving its
// lifecycle transitions. Used for submitted tasks and hybrid sub-tasks alike.
func (p *Platform) dispatch(ctx context.Context, id backends.ID, t *task.Task) (*backends.Result, error) {
	b, err := p.backends.Get(id)
	if err != nil {
		t.Fail(err.Error())
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	ctx, span := p.startSpan(ctx, tracing.SpanBackend,
		attribute.String(tracing.AttrBackend, id.String()),
		attribute.String(tracing.AttrTaskID, t.ID),
	)
	defer span.End()

	if t.Timeout <= 0 && p.cfg.DefaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.DefaultTimeout)
		defer cancel()
	}

	t.Start(id.String())
	res, err := b.Execute(ctx, t)
	if err != nil {
		err = fmt.Errorf("backend %s: %w", id, err)
		t.Fail(err.Error())
		p.logger.Error("task failed", "task_id", t.ID, "platform", id.String(), "error", err)
		return nil, err
	}

	t.Complete(res)
	p.audit("task completed", "task_id", t.ID, "platform", id.String())
	return res, nil
}

// EnableTracing points span export at an OTLP-HTTP collector. Runs that
// start after it returns are traced.
func (p *Platform) EnableTracing(ctx context.Context, endpoint string) error {
	provider, err := tracing.New(ctx, endpoint)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.tracer = provider.Tracer()
	p.provider = provider
	p.mu.Unlock()
	p.logger.Info("tracing enabled", "endpoint", endpoint)
	return nil
}

// ShutdownTracing flushes buffered spans, if tracing was ever enabled.
func (p *Platform) ShutdownTracing(ctx context.Context) error {
	p.mu.RLock()
	provider := p.provider
	p.mu.RUnlock()
	return provider.Shutdown(ctx)
}

func (p *Platform) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	p.mu.RLock()
	tracer := p.tracer
	p.mu.RUnlock()
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// audit emits per-run records. With AuditLogging they land at info so the
// daemon log doubles as a durable trail; otherwise debug.
func (p *Platform) audit(msg string, args ...any) {
	if p.cfg.AuditLogging {
		p.logger.Info(msg, args...)
		return
	}
	p.logger.Debug(msg, args...)
}
