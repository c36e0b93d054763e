package workflows

import (
	"context"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/sandbox"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/workflow"
)

func basicUnit() workflow.Unit {
	return workflow.Unit{
		Name: "basic",
		Callables: []workflow.Callable{
			workflow.Mark("echo", echo,
				workflow.WithID("echo"),
				workflow.WithParams("text"),
			),
			workflow.Mark("run_code", runCode,
				workflow.WithParams("code", "language", "persist"),
				workflow.WithDefaults(workflow.Params{
					"language": sandbox.DefaultLanguage,
					"persist":  false,
				}),
			),
		},
	}
}

// echo returns its text parameter without touching the sandbox.
func echo(_ context.Context, _ string, _ sandbox.Session, params workflow.Params) (workflow.Result, error) {
	return workflow.Result{"echo": params["text"]}, nil
}

// runCode runs one snippet and returns the sandbox envelope. A snippet that
// fails inside the sandbox is reported in the result, not as an error.
func runCode(ctx context.Context, subject string, sb sandbox.Session, params workflow.Params) (workflow.Result, error) {
	code, err := params.String("code")
	if err != nil {
		return nil, err
	}
	exec, err := sb.ExecuteCode(ctx, sandbox.Request{
		Code:     code,
		Language: params.StringOr("language", sandbox.DefaultLanguage),
		Subject:  subject,
		Persist:  params.Bool("persist"),
	})
	if err != nil {
		return nil, err
	}
	return workflow.Result{
		"success": exec.Success,
		"stdout":  exec.Stdout(),
		"stderr":  exec.Stderr(),
		"result":  exec.Result,
		"error":   exec.Error,
	}, nil
}
