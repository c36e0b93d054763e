package workflow

import "errors"

var (
	ErrWorkflowNotFound = errors.New("workflow: not found")
	ErrNoSandbox        = errors.New("workflow: no sandbox session factory configured")
	ErrNotMarked        = errors.New("workflow: callable is not marked as a workflow")
	ErrMissingParam     = errors.New("workflow: missing parameter")
	ErrInvalidParam     = errors.New("workflow: invalid parameter")
)
