// Package mcpserver exposes the research adapter as MCP tools over stdio.
//
// Three tools are registered: start_research, get_result, and
// list_research. The server delivers parsed tool arguments to the
// adapter and renders its results; all protocol framing is handled by
// the MCP SDK. Logs go to stderr only, since stdout carries the wire
// protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/richinex/deepresearch/research"
	"github.com/richinex/deepresearch/upstream"
)

const serverVersion = "v0.1.0"

// startResearchInput defines the parameters for the start_research tool.
type startResearchInput struct {
	Query              string `json:"query" jsonschema:"description=The research question or query"`
	Model              string `json:"model,omitempty" jsonschema:"description=Research model to use (default: o4-mini-deep-research; o3-deep-research for deeper runs)"`
	MaxToolCalls       int    `json:"max_tool_calls,omitempty" jsonschema:"description=Maximum number of upstream tool calls (default 50)"`
	UseCodeInterpreter bool   `json:"use_code_interpreter,omitempty" jsonschema:"description=Enable the code interpreter tool (default false)"`
}

// getResultInput defines the parameters for the get_result tool.
type getResultInput struct {
	ID string `json:"id" jsonschema:"description=The research task ID returned by start_research"`
}

// listResearchInput has no parameters.
type listResearchInput struct{}

// empty output — results are returned as JSON text content.
type emptyResult struct{}

// New builds the MCP server with all tools registered.
func New(svc *research.Service, logger *slog.Logger) *gomcp.Server {
	if logger == nil {
		logger = slog.Default()
	}

	server := gomcp.NewServer(
		&gomcp.Implementation{
			Name:    "openai-deep-research",
			Version: serverVersion,
		},
		nil,
	)

	gomcp.AddTool(server, &gomcp.Tool{
		Name: "start_research",
		Description: "Start a background deep research task. Returns immediately with the task id " +
			"and initial status; poll get_result to retrieve the report once completed.",
	}, startResearchHandler(svc, logger))

	gomcp.AddTool(server, &gomcp.Tool{
		Name: "get_result",
		Description: "Get the current status of a research task. Once completed, the result carries " +
			"the full report, citations, and the execution steps.",
	}, getResultHandler(svc, logger))

	gomcp.AddTool(server, &gomcp.Tool{
		Name:        "list_research",
		Description: "List research tasks started by this server instance with their last observed status.",
	}, listResearchHandler(svc, logger))

	return server
}

// Serve runs the MCP server over stdio until the client disconnects.
func Serve(ctx context.Context, svc *research.Service, logger *slog.Logger) error {
	return New(svc, logger).Run(ctx, &gomcp.StdioTransport{})
}

func startResearchHandler(svc *research.Service, logger *slog.Logger) func(context.Context, *gomcp.CallToolRequest, startResearchInput) (*gomcp.CallToolResult, emptyResult, error) {
	return func(ctx context.Context, req *gomcp.CallToolRequest, input startResearchInput) (*gomcp.CallToolResult, emptyResult, error) {
		trace := uuid.NewString()
		logger.Debug("tool call", "tool", "start_research", "trace", trace, "model", input.Model)

		job, err := svc.StartResearch(ctx, research.Request{
			Query:              input.Query,
			Model:              input.Model,
			MaxToolCalls:       input.MaxToolCalls,
			UseCodeInterpreter: input.UseCodeInterpreter,
		})
		if err != nil {
			logger.Warn("start_research failed", "trace", trace, "error", err)
			return errorResult(err), emptyResult{}, nil
		}

		logger.Debug("research started", "trace", trace, "id", job.ID, "status", job.Status)
		return jsonResult(job), emptyResult{}, nil
	}
}

func getResultHandler(svc *research.Service, logger *slog.Logger) func(context.Context, *gomcp.CallToolRequest, getResultInput) (*gomcp.CallToolResult, emptyResult, error) {
	return func(ctx context.Context, req *gomcp.CallToolRequest, input getResultInput) (*gomcp.CallToolResult, emptyResult, error) {
		trace := uuid.NewString()
		logger.Debug("tool call", "tool", "get_result", "trace", trace, "id", input.ID)

		job, err := svc.GetResult(ctx, input.ID)
		if err != nil {
			logger.Warn("get_result failed", "trace", trace, "id", input.ID, "error", err)
			return errorResult(err), emptyResult{}, nil
		}

		logger.Debug("result fetched", "trace", trace, "id", job.ID, "status", job.Status)
		return jsonResult(job), emptyResult{}, nil
	}
}

func listResearchHandler(svc *research.Service, logger *slog.Logger) func(context.Context, *gomcp.CallToolRequest, listResearchInput) (*gomcp.CallToolResult, emptyResult, error) {
	return func(ctx context.Context, req *gomcp.CallToolRequest, input listResearchInput) (*gomcp.CallToolResult, emptyResult, error) {
		sessions := svc.Sessions()
		logger.Debug("tool call", "tool", "list_research", "count", len(sessions))

		return jsonResult(map[string]interface{}{"sessions": sessions}), emptyResult{}, nil
	}
}

// jsonResult renders a success payload as JSON text content.
func jsonResult(v interface{}) *gomcp.CallToolResult {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		// Job and Session marshal cleanly; this covers future fields only.
		return &gomcp.CallToolResult{
			IsError: true,
			Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf("failed to encode result: %v", err)}},
		}
	}
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: string(encoded)}},
	}
}

// errorResult maps an adapter failure to a structured tool error. A job
// with status "failed" never reaches here: it is a successful result
// carrying an error detail.
func errorResult(err error) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		IsError: true,
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf("%s: %v", errorCode(err), err)}},
	}
}

// errorCode tags an error with its taxonomy name so callers can
// distinguish, for example, "not done yet" from "doesn't exist".
func errorCode(err error) string {
	switch {
	case errors.Is(err, research.ErrValidation):
		return "validation_error"
	case errors.Is(err, upstream.ErrAuth):
		return "upstream_auth_error"
	case errors.Is(err, upstream.ErrNotFound):
		return "not_found"
	case errors.Is(err, upstream.ErrRequest):
		return "upstream_request_error"
	case errors.Is(err, upstream.ErrUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, research.ErrNormalization), errors.Is(err, upstream.ErrMalformed):
		return "normalization_error"
	}
	return "internal_error"
}
