// Package sandbox is the client for the remote code-execution service.
//
// Two flavours are offered. HTTPClient runs one snippet per call with no
// remote state. HTTPSession owns a remote session created with Create,
// keeps interpreter state between calls and must be closed by its owner.
// Workflows only ever see the Session interface.
package sandbox

import (
	"context"
	"errors"
	"strings"
)

// DefaultLanguage is used when a request leaves Language empty.
const DefaultLanguage = "python"

var (
	ErrSessionClosed = errors.New("sandbox: session closed")
	ErrHTTPStatus    = errors.New("sandbox: unexpected HTTP status")
	ErrEmptyCode     = errors.New("sandbox: code is required")
)

type (
	// Request is one snippet submitted for execution.
	Request struct {
		Code     string `json:"code"`
		Language string `json:"language"`
		Subject  string `json:"subject"`
		Persist  bool   `json:"persist"`
	}

	// Output is one captured stream fragment.
	Output struct {
		Stream string `json:"stream"`
		Text   string `json:"text"`
	}

	// Execution is the envelope returned for every snippet. A snippet that
	// fails inside the sandbox still yields an Execution with Success false;
	// only transport problems surface as Go errors.
	Execution struct {
		Success bool     `json:"success"`
		Outputs []Output `json:"outputs"`
		Result  any      `json:"result"`
		Error   string   `json:"error,omitempty"`
	}

	// Executor runs snippets.
	Executor interface {
		ExecuteCode(ctx context.Context, req Request) (*Execution, error)
	}

	// Session is an Executor with an owner-controlled lifetime.
	Session interface {
		Executor
		Close(ctx context.Context) error
	}
)

// Stdout joins the stdout fragments of the execution.
func (e *Execution) Stdout() string {
	return e.stream("stdout")
}

// Stderr joins the stderr fragments of the execution.
func (e *Execution) Stderr() string {
	return e.stream("stderr")
}

func (e *Execution) stream(name string) string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	for _, out := range e.Outputs {
		if out.Stream == name {
			b.WriteString(out.Text)
		}
	}
	return b.String()
}

func (r Request) normalized() (Request, error) {
	if strings.TrimSpace(r.Code) == "" {
		return r, ErrEmptyCode
	}
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	return r, nil
}
