package models

// WorkflowInfo describes a registered workflow definition.
type WorkflowInfo struct {
	ID       string         `json:"id"`
	Unit     string         `json:"unit"`
	Name     string         `json:"name"`
	Params   []string       `json:"params"`
	Defaults map[string]any `json:"defaults,omitempty"`
	Version  int            `json:"version"`
}

// ExecutionRequest is the body accepted by the execute endpoint.
type ExecutionRequest struct {
	Parameters map[string]any `json:"parameters"`
}

// ExecutionResponse wraps the result of a workflow execution.
type ExecutionResponse struct {
	WorkflowID string         `json:"workflow_id"`
	Subject    string         `json:"subject"`
	Result     map[string]any `json:"result"`
}
