package scripted

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/sandbox"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/workflow"
)

// StepError reports a step the sandbox ran but marked as failed.
type StepError struct {
	Workflow string
	Step     string
	Message  string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("scripted: workflow %s step %s failed: %s", e.Workflow, e.Step, e.Message)
}

type compiledStep struct {
	name     string
	language string
	persist  bool
	code     *template.Template
}

// compile parses every step template up front so broken files are rejected
// at discovery time.
func compile(decl workflowDecl) (workflow.Func, error) {
	steps := make([]compiledStep, 0, len(decl.Steps))
	for i, s := range decl.Steps {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		if strings.TrimSpace(s.Code) == "" {
			return nil, fmt.Errorf("workflow %s step %s: code is required", decl.Name, name)
		}
		tmpl, err := template.New(name).
			Funcs(templateFuncs).
			Option("missingkey=zero").
			Parse(s.Code)
		if err != nil {
			return nil, fmt.Errorf("workflow %s step %s: %w", decl.Name, name, err)
		}
		steps = append(steps, compiledStep{
			name:     name,
			language: s.Language,
			persist:  s.Persist,
			code:     tmpl,
		})
	}

	workflowName := decl.Name
	required := append([]string(nil), decl.Params...)
	return func(ctx context.Context, subject string, sb sandbox.Session, params workflow.Params) (workflow.Result, error) {
		// Defaults are already merged in, so anything still absent was never supplied.
		for _, name := range required {
			if v, ok := params[name]; !ok || v == nil {
				return nil, fmt.Errorf("%w: %s", workflow.ErrMissingParam, name)
			}
		}
		data := map[string]any(params)
		result := workflow.Result{}
		for _, s := range steps {
			var code bytes.Buffer
			if err := s.code.Execute(&code, data); err != nil {
				return nil, fmt.Errorf("scripted: workflow %s step %s: render: %w", workflowName, s.name, err)
			}
			exec, err := sb.ExecuteCode(ctx, sandbox.Request{
				Code:     code.String(),
				Language: s.language,
				Subject:  subject,
				Persist:  s.persist,
			})
			if err != nil {
				return nil, err
			}
			if !exec.Success {
				msg := exec.Error
				if msg == "" {
					msg = exec.Stderr()
				}
				return nil, &StepError{Workflow: workflowName, Step: s.name, Message: msg}
			}
			if exec.Result != nil {
				result[s.name] = exec.Result
			} else {
				result[s.name] = exec.Stdout()
			}
		}
		return result, nil
	}, nil
}
