// Package mcp exposes the workflow engine and the discussion store as MCP
// tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/auth"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/workflow"
	"github.com/Frontier-tech-consulting/composio-integration-frameworks/pkg/models"
)

type (
	// Workflows is the part of the engine exposed as tools.
	Workflows interface {
		Definitions() []workflow.Definition
		Execute(ctx context.Context, req workflow.Request) (workflow.Result, error)
	}

	// Discussions is the part of the discussion service exposed as tools.
	Discussions interface {
		Search(ctx context.Context, subject, query string, topK int) ([]*models.ScoredDiscussion, error)
	}

	Server struct {
		mcpServer   *server.MCPServer
		workflows   Workflows
		discussions Discussions
	}
)

// NewServer builds the MCP server. search_discussions is only offered when
// discussions is non-nil.
func NewServer(workflows Workflows, discussions Discussions) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Workflow Service",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		workflows:   workflows,
		discussions: discussions,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_workflows",
			mcp.WithDescription("List the registered workflows and their parameters"),
		),
		s.handleListWorkflows,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"execute_workflow",
			mcp.WithDescription("Run a workflow in the code sandbox"),
			mcp.WithString("id", mcp.Required(), mcp.Description("The workflow identifier")),
			mcp.WithString("subject", mcp.Description("Who the run is for; defaults to the authenticated caller")),
			mcp.WithObject("parameters", mcp.Description("Workflow parameters")),
		),
		s.handleExecuteWorkflow,
	)

	if s.discussions != nil {
		s.mcpServer.AddTool(
			mcp.NewTool(
				"search_discussions",
				mcp.WithDescription("Find stored workflow output by meaning"),
				mcp.WithString("query", mcp.Required(), mcp.Description("The query to search for")),
				mcp.WithNumber("top_k", mcp.Description("Maximum number of hits")),
			),
			s.handleSearchDiscussions,
		)
	}
}

// authorize returns a tool error when the caller is missing scope.
func authorize(ctx context.Context, scope string) *mcp.CallToolResult {
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("Authentication required")
	}
	if !p.HasScope(scope) {
		return mcp.NewToolResultError(fmt.Sprintf("Missing required scope: %s", scope))
	}
	return nil
}

func (s *Server) handleListWorkflows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if denied := authorize(ctx, auth.ScopeWorkflowsRead); denied != nil {
		return denied, nil
	}
	defs := s.workflows.Definitions()
	infos := make([]models.WorkflowInfo, 0, len(defs))
	for _, def := range defs {
		infos = append(infos, def.Info())
	}
	return jsonResult(infos)
}

func (s *Server) handleExecuteWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if denied := authorize(ctx, auth.ScopeWorkflowsExecute); denied != nil {
		return denied, nil
	}
	id, err := request.RequireString("id")
	if err != nil || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}

	subject := auth.SubjectFromContext(ctx)
	if subject == "" {
		subject = request.GetString("subject", "")
	}

	var params workflow.Params
	if raw, ok := request.GetArguments()["parameters"]; ok && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return mcp.NewToolResultError("parameters must be an object"), nil
		}
		params = m
	}

	result, err := s.workflows.Execute(ctx, workflow.Request{ID: id, Subject: subject, Params: params})
	if errors.Is(err, workflow.ErrWorkflowNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("Unknown workflow: %s", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Workflow failed: %v", err)), nil
	}
	return jsonResult(models.ExecutionResponse{WorkflowID: id, Subject: subject, Result: result})
}

func (s *Server) handleSearchDiscussions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if denied := authorize(ctx, auth.ScopeDiscussionsRead); denied != nil {
		return denied, nil
	}
	query, err := request.RequireString("query")
	if err != nil || query == "" {
		return mcp.NewToolResultError("Missing required parameter: query"), nil
	}
	topK := request.GetInt("top_k", 0)

	hits, err := s.discussions.Search(ctx, auth.SubjectFromContext(ctx), query, topK)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search: %v", err)), nil
	}
	if hits == nil {
		hits = []*models.ScoredDiscussion{}
	}
	return jsonResult(hits)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

// MountHTTPHandlers serves the MCP SSE transport at /mcp/sse and
// /mcp/message. The caller's principal is carried from the HTTP request into
// tool calls, where each tool checks its scope.
func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	sseServer := server.NewSSEServer(mcpServer,
		server.WithStaticBasePath("/mcp"),
		server.WithSSEContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if p, ok := auth.PrincipalFromContext(r.Context()); ok {
				return auth.WithPrincipal(ctx, p)
			}
			return ctx
		}),
	)

	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
