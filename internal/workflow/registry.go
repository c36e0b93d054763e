package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Registry maps workflow identifiers to definitions. It is safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	defs   map[string]Definition
	logger Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger Logger) *Registry {
	return &Registry{
		defs:   map[string]Definition{},
		logger: logger,
	}
}

// Discover indexes every marked callable of every unit of ns except the
// base unit. A namespace that cannot be loaded is logged and skipped; the
// registry keeps whatever it already held.
func (r *Registry) Discover(ctx context.Context, ns Namespace) {
	if ns == nil {
		r.logger.Warn("No workflow namespace configured; registry left empty")
		return
	}
	units, err := ns.Units(ctx)
	if err != nil {
		r.logger.Warn("Failed to load workflow namespace",
			"namespace", ns.Name(), "error", err)
		return
	}

	for _, unit := range units {
		if unit.Name == BaseUnit {
			continue
		}
		for _, c := range unit.Callables {
			if !c.IsWorkflow || c.Func == nil {
				continue
			}
			id, err := r.Register(unit.Name, c)
			if err != nil {
				r.logger.Warn("Skipping workflow", "unit", unit.Name,
					"name", c.Name, "error", err)
				continue
			}
			r.logger.Info("Discovered workflow", "id", id,
				"namespace", ns.Name())
		}
	}
}

// Register indexes one marked callable of unit and returns its id. A
// colliding id is overwritten; replacing a different callable is logged.
func (r *Registry) Register(unit string, c Callable) (string, error) {
	if !c.IsWorkflow {
		return "", fmt.Errorf("%w: %s", ErrNotMarked, c.Name)
	}
	if c.Func == nil {
		return "", fmt.Errorf("workflow: %s has no function", c.Name)
	}

	id := ResolveID(unit, c)
	def := Definition{
		ID:       id,
		Unit:     unit,
		Name:     c.Name,
		Params:   append([]string(nil), c.Params...),
		Defaults: cloneParams(c.Defaults),
		Version:  c.Version,
		Func:     c.Func,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.defs[id]; ok && (prev.Unit != unit || prev.Name != c.Name) {
		r.logger.Warn("Workflow id collision, replacing definition",
			"id", id, "previous", prev.Unit+"."+prev.Name,
			"replacement", unit+"."+c.Name)
	}
	r.defs[id] = def
	return id, nil
}

// Get returns the definition registered under id.
func (r *Registry) Get(id string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[id]
	return def, ok
}

// List returns the sorted identifiers.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Definitions returns every definition ordered by id.
func (r *Registry) Definitions() []Definition {
	ids := r.List()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(ids))
	for _, id := range ids {
		if def, ok := r.defs[id]; ok {
			out = append(out, def)
		}
	}
	return out
}
