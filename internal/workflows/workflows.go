// Package workflows holds the workflow definitions that ship with the
// service. Namespace hands them to the engine grouped by unit.
package workflows

import (
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/workflow"
)

// Name is the namespace name of the built-in definitions.
const Name = "builtin"

// Namespace returns the built-in units: base (helpers only), basic and
// analysis.
func Namespace() *workflow.StaticNamespace {
	return workflow.NewStaticNamespace(Name,
		baseUnit(),
		basicUnit(),
		analysisUnit(),
	)
}
