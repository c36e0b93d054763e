package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/sandbox"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/workflow"
)

// ErrStepFailed is returned when a sandbox step reports failure.
var ErrStepFailed = errors.New("workflows: step failed")

// step is one sandbox call of a definition.
type step struct {
	name     string
	code     string
	language string
	persist  bool
}

func baseUnit() workflow.Unit {
	return workflow.Unit{
		Name: workflow.BaseUnit,
		Callables: []workflow.Callable{
			workflow.Helper("ping", ping),
		},
	}
}

// ping checks that the session answers. It lives in the base unit so it is
// never exposed as a workflow.
func ping(ctx context.Context, subject string, sb sandbox.Session, _ workflow.Params) (workflow.Result, error) {
	exec, err := runStep(ctx, sb, subject, step{name: "ping", code: `print("pong")`})
	if err != nil {
		return nil, err
	}
	return workflow.Result{"stdout": exec.Stdout()}, nil
}

// runStep executes s and fails unless the sandbox reports success.
func runStep(ctx context.Context, sb sandbox.Session, subject string, s step) (*sandbox.Execution, error) {
	exec, err := sb.ExecuteCode(ctx, sandbox.Request{
		Code:     s.code,
		Language: s.language,
		Subject:  subject,
		Persist:  s.persist,
	})
	if err != nil {
		return nil, fmt.Errorf("workflows: step %s: %w", s.name, err)
	}
	if !exec.Success {
		msg := exec.Error
		if msg == "" {
			msg = exec.Stderr()
		}
		return exec, fmt.Errorf("%w: %s: %s", ErrStepFailed, s.name, msg)
	}
	return exec, nil
}

// section is the structured value of a step, falling back to its stdout.
func section(exec *sandbox.Execution) any {
	if exec.Result != nil {
		return exec.Result
	}
	return exec.Stdout()
}
