// Package api contains the HTTP handlers for the workflow service
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/auth"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/workflow"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/pkg/models"
)

type (
	// Workflows is the part of the engine the API uses.
	Workflows interface {
		Definitions() []workflow.Definition
		Execute(ctx context.Context, req workflow.Request) (workflow.Result, error)
	}

	// Logger defines the logging interface compatible with the application logger.
	Logger interface {
		Error(msg string, args ...any)
	}

	// Server holds the dependencies for the API server.
	Server struct {
		workflows   Workflows
		discussions Discussions
		logger      Logger
	}
)

// NewServer creates a new Server. discussions may be nil when no store is
// configured; its routes then answer 503.
func NewServer(workflows Workflows, discussions Discussions, logger Logger) *Server {
	return &Server{workflows: workflows, discussions: discussions, logger: logger}
}

// RegisterHandlers mounts the API routes on g. Callers are expected to have
// installed auth.RequireAuth on g.
func (s *Server) RegisterHandlers(g *echo.Group) {
	g.GET("/workflows", s.ListWorkflows,
		echo.WrapMiddleware(auth.RequireScope(auth.ScopeWorkflowsRead)))
	g.POST("/workflows/:id/executions", s.ExecuteWorkflow,
		echo.WrapMiddleware(auth.RequireScope(auth.ScopeWorkflowsExecute)))
	g.GET("/discussions", s.SearchDiscussions,
		echo.WrapMiddleware(auth.RequireScope(auth.ScopeDiscussionsRead)))
	g.DELETE("/discussions/:id", s.DeleteDiscussion,
		echo.WrapMiddleware(auth.RequireScope(auth.ScopeDiscussionsWrite)))
}

// ListWorkflows returns every registered workflow
// (GET /api/v1/workflows)
func (s *Server) ListWorkflows(c echo.Context) error {
	defs := s.workflows.Definitions()
	out := make([]models.WorkflowInfo, 0, len(defs))
	for _, def := range defs {
		out = append(out, def.Info())
	}
	return c.JSON(http.StatusOK, out)
}

// ExecuteWorkflow runs a workflow for the authenticated subject
// (POST /api/v1/workflows/:id/executions)
func (s *Server) ExecuteWorkflow(c echo.Context) error {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return writeError(c, http.StatusBadRequest, "Invalid workflow id: "+err.Error())
	}

	var body models.ExecutionRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&body); err != nil {
			return writeError(c, http.StatusBadRequest, "Invalid request body")
		}
	}

	subject := auth.SubjectFromContext(c.Request().Context())
	result, err := s.workflows.Execute(c.Request().Context(), workflow.Request{
		ID:      id,
		Subject: subject,
		Params:  body.Parameters,
	})
	switch {
	case errors.Is(err, workflow.ErrWorkflowNotFound):
		return writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, workflow.ErrMissingParam), errors.Is(err, workflow.ErrInvalidParam):
		return writeError(c, http.StatusBadRequest, err.Error())
	case err != nil:
		s.logError("workflow execution failed", "id", id, "subject", subject, "error", err)
		return writeError(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, models.ExecutionResponse{
		WorkflowID: id,
		Subject:    subject,
		Result:     result,
	})
}

func (s *Server) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
