package sandbox

import (
	"context"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

type (
	// Recorder stores rendered step output for later retrieval.
	Recorder interface {
		Append(ctx context.Context, subject, text string) error
	}

	// Logger is the subset of the application logger used here.
	Logger interface {
		Warn(msg string, args ...any)
	}

	persistingSession struct {
		Session
		recorder Recorder
		logger   Logger
	}
)

// WithPersistence wraps s so that requests with Persist set have their
// rendered output appended to rec. Recording failures are logged and never
// change the execution reply. A nil rec returns s unchanged.
func WithPersistence(s Session, rec Recorder, logger Logger) Session {
	if rec == nil {
		return s
	}
	return &persistingSession{Session: s, recorder: rec, logger: logger}
}

func (p *persistingSession) ExecuteCode(
	ctx context.Context, req Request,
) (*Execution, error) {
	exec, err := p.Session.ExecuteCode(ctx, req)
	if err != nil || !req.Persist {
		return exec, err
	}
	if recErr := p.recorder.Append(ctx, req.Subject, Render(req, exec)); recErr != nil {
		if p.logger != nil {
			p.logger.Warn("Failed to persist step output",
				"subject", req.Subject, "error", recErr)
		}
	}
	return exec, nil
}

// Render formats a request and its execution as plain text.
func Render(req Request, exec *Execution) string {
	var b strings.Builder
	status := "failed"
	if exec != nil && exec.Success {
		status = "succeeded"
	}
	lang := req.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	fmt.Fprintf(&b, "Code execution (%s) %s.\nCode:\n%s\n", lang, status, req.Code)
	if out := exec.Stdout(); out != "" {
		fmt.Fprintf(&b, "Output:\n%s\n", out)
	}
	if exec == nil {
		return b.String()
	}
	if exec.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", exec.Error)
	}
	if exec.Result != nil {
		if data, err := json.Marshal(exec.Result); err == nil {
			fmt.Fprintf(&b, "Result: %s\n", data)
		}
	}
	return b.String()
}
