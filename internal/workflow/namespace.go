package workflow

import "context"

// BaseUnit is the unit name discovery never scans.
const BaseUnit = "base"

type (
	// Unit is a named group of callables, the equivalent of one module of
	// a namespace.
	Unit struct {
		Name      string
		Callables []Callable
	}

	// Namespace enumerates the units that may hold workflows. Units fails
	// when the namespace itself cannot be located or loaded.
	Namespace interface {
		Name() string
		Units(ctx context.Context) ([]Unit, error)
	}

	// StaticNamespace is a Namespace built from units declared in Go code.
	StaticNamespace struct {
		name  string
		units []Unit
	}
)

var _ Namespace = (*StaticNamespace)(nil)

// NewStaticNamespace creates a namespace holding units.
func NewStaticNamespace(name string, units ...Unit) *StaticNamespace {
	return &StaticNamespace{name: name, units: units}
}

// Name returns the namespace name.
func (n *StaticNamespace) Name() string {
	return n.name
}

// Units returns a copy of the declared units.
func (n *StaticNamespace) Units(context.Context) ([]Unit, error) {
	out := make([]Unit, len(n.units))
	for i, u := range n.units {
		out[i] = Unit{
			Name:      u.Name,
			Callables: append([]Callable(nil), u.Callables...),
		}
	}
	return out, nil
}
