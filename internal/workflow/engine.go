package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/logging"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/sandbox"
)

// instrumentationName is the scope for the engine's metrics and spans.
const instrumentationName = "github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/workflow"

type (
	// Sink receives a text record per successful execution. Failures are
	// logged and ignored by the Engine.
	Sink interface {
		Append(ctx context.Context, subject, text string) error
	}

	// SessionFactory opens the shared sandbox session.
	SessionFactory func(ctx context.Context, credential string) (sandbox.Session, error)

	// Engine resolves workflows by id and runs them with the shared
	// sandbox session. Execute may be called from many goroutines; the
	// Engine adds no per-workflow locking.
	Engine struct {
		registry   *Registry
		namespace  Namespace
		sink       Sink
		credential string
		factory    SessionFactory
		logger     Logger
		meter      metric.Meter
		tracer     trace.Tracer

		executions metric.Int64Counter
		duration   metric.Float64Histogram

		mu   sync.Mutex
		cell *sessionCell
	}

	// sessionCell is filled by the first caller of Session; everyone else
	// waits on done.
	sessionCell struct {
		done    chan struct{}
		raw     sandbox.Session
		session sandbox.Session
		err     error
	}
)

// New builds an Engine and immediately discovers the configured namespace.
// Discovery problems are logged, never returned.
func New(ctx context.Context, opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewLogger()
	}
	if e.registry == nil {
		e.registry = NewRegistry(e.logger)
	}
	if e.meter == nil {
		e.meter = otel.Meter(instrumentationName)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(instrumentationName)
	}

	// OTel returns noop instruments alongside any error.
	e.executions, _ = e.meter.Int64Counter("workflow.executions",
		metric.WithDescription("Total number of workflow executions"),
		metric.WithUnit("{execution}"),
	)
	e.duration, _ = e.meter.Float64Histogram("workflow.duration",
		metric.WithDescription("Duration of workflow executions in seconds"),
		metric.WithUnit("s"),
	)

	e.registry.Discover(ctx, e.namespace)
	return e
}

// Registry exposes the engine's registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// List returns the registered workflow ids.
func (e *Engine) List() []string {
	return e.registry.List()
}

// Definitions returns every registered definition ordered by id.
func (e *Engine) Definitions() []Definition {
	return e.registry.Definitions()
}

// Describe returns the definition registered under id.
func (e *Engine) Describe(id string) (Definition, bool) {
	return e.registry.Get(id)
}

// Session returns the shared sandbox session, creating it on first use.
// Concurrent first callers share one creation. The creation ignores the
// cancellation of whichever caller started it; each caller only stops
// waiting on its own ctx. A failed creation is not remembered, so a later
// call tries again.
func (e *Engine) Session(ctx context.Context) (sandbox.Session, error) {
	e.mu.Lock()
	cell := e.cell
	if cell == nil {
		cell = &sessionCell{done: make(chan struct{})}
		e.cell = cell
		go e.create(context.WithoutCancel(ctx), cell)
	}
	e.mu.Unlock()

	select {
	case <-cell.done:
		return cell.session, cell.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// create fills cell and closes done. The sandbox client's timeout bounds it.
func (e *Engine) create(ctx context.Context, cell *sessionCell) {
	defer close(cell.done)
	cell.raw, cell.err = e.openSession(ctx)
	if cell.err == nil {
		cell.session = sandbox.WithPersistence(cell.raw, e.recorder(), e.logger)
		return
	}
	e.mu.Lock()
	if e.cell == cell {
		e.cell = nil
	}
	e.mu.Unlock()
}

func (e *Engine) openSession(ctx context.Context) (sandbox.Session, error) {
	if e.factory == nil {
		return nil, ErrNoSandbox
	}
	s, err := e.factory(ctx, e.credential)
	if err != nil {
		return nil, fmt.Errorf("workflow: create sandbox session: %w", err)
	}
	e.logger.Info("Sandbox session created")
	return s, nil
}

func (e *Engine) recorder() sandbox.Recorder {
	if e.sink == nil {
		return nil
	}
	return e.sink
}

// Execute runs the workflow registered under req.ID on behalf of
// req.Subject. Unknown ids fail with ErrWorkflowNotFound before anything
// else happens. Errors from the workflow itself are returned as is. On
// success one summary record is appended to the sink; a sink failure is
// logged and does not affect the returned result.
func (e *Engine) Execute(ctx context.Context, req Request) (Result, error) {
	def, ok := e.registry.Get(req.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, req.ID)
	}

	ctx, span := e.tracer.Start(ctx, "workflow.execute", trace.WithAttributes(
		attribute.String("workflow.id", def.ID),
		attribute.String("workflow.subject", req.Subject),
	))
	defer span.End()

	start := time.Now()
	result, err := e.run(ctx, def, req)
	e.record(ctx, def.ID, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Debug("Workflow failed", "id", def.ID, "subject", req.Subject, "error", err)
		return nil, err
	}

	e.report(ctx, def.ID, req.Subject, result)
	return result, nil
}

func (e *Engine) run(ctx context.Context, def Definition, req Request) (Result, error) {
	session, err := e.Session(ctx)
	if err != nil {
		return nil, err
	}
	params, err := def.bind(req.Params)
	if err != nil {
		return nil, err
	}
	return def.Func(ctx, req.Subject, session, params)
}

func (e *Engine) report(ctx context.Context, id, subject string, result Result) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Append(ctx, subject, Summary(id, subject, result)); err != nil {
		e.logger.Warn("Failed to store workflow result",
			"id", id, "subject", subject, "error", err)
	}
}

func (e *Engine) record(ctx context.Context, id string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("workflow_id", id),
		attribute.String("status", status),
	)
	e.executions.Add(ctx, 1, attrs)
	e.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// Close closes the shared sandbox session, if one was opened. A creation
// still in flight is waited for, and callers that joined it receive the
// session being closed. A later Execute opens a fresh session.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	cell := e.cell
	e.mu.Unlock()
	if cell == nil {
		return nil
	}

	select {
	case <-cell.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	e.mu.Lock()
	owned := e.cell == cell
	if owned {
		e.cell = nil
	}
	e.mu.Unlock()
	if !owned || cell.err != nil || cell.raw == nil {
		return nil
	}
	return cell.raw.Close(ctx)
}

// Summary renders the sink record for one execution.
func Summary(id, subject string, result Result) string {
	rendered, err := json.Marshal(result)
	if err != nil {
		rendered = []byte(fmt.Sprintf("%v", map[string]any(result)))
	}
	return fmt.Sprintf("Workflow %s executed for %s. Result: %s", id, subject, rendered)
}
