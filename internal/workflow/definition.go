package workflow

import (
	"context"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/sandbox"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/pkg/models"
)

type (
	// Params maps parameter names to values.
	Params map[string]any

	// Result is the structured value a workflow returns. Each workflow
	// chooses its own keys.
	Result map[string]any

	// Func is the body of a workflow. It owns the order of its sandbox
	// calls; sb may be shared with other executions running at the same
	// time.
	Func func(
		ctx context.Context, subject string, sb sandbox.Session, params Params,
	) (Result, error)

	// Callable is a top-level function of a Unit. Only callables built by
	// Mark are discoverable.
	Callable struct {
		Name     string
		Func     Func
		Params   []string
		Defaults Params
		Version  int

		IsWorkflow bool
		WorkflowID string
		explicitID bool
	}

	// MarkOption adjusts a callable at marking time.
	MarkOption func(*Callable)

	// Definition is an indexed workflow. It is created once by the
	// Registry and never changed afterwards.
	Definition struct {
		ID       string
		Unit     string
		Name     string
		Params   []string
		Defaults Params
		Version  int
		Func     Func
	}

	// Request asks the Engine to run one workflow for a subject.
	Request struct {
		ID      string
		Subject string
		Params  Params
	}
)

// Mark turns fn into a discoverable workflow callable named name. The
// workflow id is the explicit WithID value when given, name otherwise.
// fn is stored as is.
func Mark(name string, fn Func, opts ...MarkOption) Callable {
	c := Callable{
		Name:       name,
		Func:       fn,
		Version:    1,
		IsWorkflow: true,
		WorkflowID: name,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Helper wraps fn as an unmarked callable. Discovery skips it.
func Helper(name string, fn Func) Callable {
	return Callable{Name: name, Func: fn}
}

// WithID overrides the derived identifier.
func WithID(id string) MarkOption {
	return func(c *Callable) {
		if id == "" {
			return
		}
		c.WorkflowID = id
		c.explicitID = true
	}
}

// WithParams declares the parameter names the workflow reads.
func WithParams(names ...string) MarkOption {
	return func(c *Callable) {
		c.Params = append([]string(nil), names...)
	}
}

// WithDefaults supplies values for parameters the caller leaves out.
func WithDefaults(defaults Params) MarkOption {
	return func(c *Callable) {
		c.Defaults = cloneParams(defaults)
	}
}

// WithVersion tags the definition with a version number.
func WithVersion(v int) MarkOption {
	return func(c *Callable) {
		if v > 0 {
			c.Version = v
		}
	}
}

// ResolveID returns the registry key of c inside unit.
func ResolveID(unit string, c Callable) string {
	if c.explicitID {
		return c.WorkflowID
	}
	name := c.WorkflowID
	if name == "" {
		name = c.Name
	}
	if unit == "" {
		return name
	}
	return unit + "." + name
}

// Info renders the definition for API listings.
func (d Definition) Info() models.WorkflowInfo {
	return models.WorkflowInfo{
		ID:       d.ID,
		Unit:     d.Unit,
		Name:     d.Name,
		Params:   append([]string{}, d.Params...),
		Defaults: cloneParams(d.Defaults),
		Version:  d.Version,
	}
}
