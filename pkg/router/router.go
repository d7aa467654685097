// Package router exposes the Pinecone Assistant context capability over the
// Model Context Protocol: tool discovery, argument validation, dispatch, and
// the mapping of backend outcomes into protocol results.
package router

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"assistant-mcp/pkg/config"
	"assistant-mcp/pkg/pinecone"
)

const (
	serverName = "pinecone-assistant"

	toolAssistantContext = "assistant_context"

	paramAssistantName = "assistant_name"
	paramQuery         = "query"
	paramTopK          = "top_k"
)

// InvalidParamsError reports a missing or mistyped call argument. It is kept
// distinct from backend failures so a client can tell "you called me wrong"
// from "the backend failed".
type InvalidParamsError struct {
	Message string
}

func (e *InvalidParamsError) Error() string {
	return "Invalid parameters: " + e.Message
}

// toolHandler processes a decoded argument bag and returns a tool result.
type toolHandler func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error)

// Router dispatches tool calls by name to their handlers. It holds no mutable
// per-call state and is safe for concurrent use.
type Router struct {
	client   *pinecone.Client
	tools    []mcp.Tool
	handlers map[string]toolHandler
}

// New creates a router backed by a Pinecone client built from the config.
func New(cfg *config.Config) *Router {
	log.Info("Creating assistant router", "host", cfg.Pinecone.Host)

	r := &Router{
		client:   pinecone.NewClient(cfg.Pinecone.APIKey, cfg.Pinecone.Host),
		handlers: make(map[string]toolHandler),
	}

	r.register(newAssistantContextTool(), r.handleAssistantContext)

	return r
}

// register adds a tool descriptor and its handler. Every registered name is
// dispatchable through CallTool.
func (r *Router) register(tool mcp.Tool, handler toolHandler) {
	r.tools = append(r.tools, tool)
	r.handlers[tool.Name] = handler
}

func newAssistantContextTool() mcp.Tool {
	return mcp.NewTool(
		toolAssistantContext,
		mcp.WithDescription(
			"Retrieves relevant document snippets from your Pinecone Assistant knowledge base. "+
				"Returns an array of text snippets from the most relevant documents. "+
				"You can use the 'top_k' parameter to control result count (default: 15). "+
				"Recommended top_k: a few (5-8) for simple/narrow queries, 10-20 for complex/broad topics.",
		),
		mcp.WithString(
			paramAssistantName,
			mcp.Required(),
			mcp.Description("Name of an existing Pinecone assistant"),
		),
		mcp.WithString(
			paramQuery,
			mcp.Required(),
			mcp.Description("The query to retrieve context for."),
		),
		mcp.WithNumber(
			paramTopK,
			mcp.Description("The number of context snippets to retrieve. Defaults to 15."),
		),
	)
}

// Name returns the server's identifying name.
func (r *Router) Name() string {
	return serverName
}

// Instructions returns the static help text advertised to protocol clients.
func (r *Router) Instructions() string {
	return fmt.Sprintf(
		"This server connects to an existing Pinecone Assistant, "+
			"a RAG system for retrieving relevant document snippets. "+
			"Use the %s tool to access contextual information from its knowledge base",
		toolAssistantContext,
	)
}

// Capabilities declares which protocol surfaces this server supports: tools
// only, with resources and prompts absent.
func (r *Router) Capabilities() []server.ServerOption {
	return []server.ServerOption{
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
		server.WithLogging(),
	}
}

// ListTools returns the immutable tool descriptor collection.
func (r *Router) ListTools() []mcp.Tool {
	log.Debug("Listing available tools")
	tools := make([]mcp.Tool, len(r.tools))
	copy(tools, r.tools)
	return tools
}

// CallTool dispatches a call to the named tool's handler and maps failures
// into protocol error results. Domain failures are returned as error results
// with a nil Go error.
func (r *Router) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	logger := log.With("tool", name, "call_id", uuid.NewString())

	handler, ok := r.handlers[name]
	if !ok {
		logger.Error("Tool not found")
		return mcp.NewToolResultError(fmt.Sprintf("Tool %s not found", name)), nil
	}

	logger.Info("Calling tool")

	result, err := handler(ctx, args)
	if err != nil {
		var invalid *InvalidParamsError
		if errors.As(err, &invalid) {
			logger.Error("Invalid parameters", "error", invalid.Message)
			return mcp.NewToolResultError(invalid.Error()), nil
		}

		logger.Error("Tool execution failed", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	logger.Debug("Tool call succeeded")
	return result, nil
}

// Handler adapts CallTool to the mcp-go tool handler signature so the router
// can be registered with server.AddTool.
func (r *Router) Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return r.CallTool(ctx, request.Params.Name, request.Params.Arguments)
}

func (r *Router) handleAssistantContext(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	assistantName, ok := args[paramAssistantName].(string)
	if !ok {
		return nil, &InvalidParamsError{Message: fmt.Sprintf("%s must be a string", paramAssistantName)}
	}

	query, ok := args[paramQuery].(string)
	if !ok {
		return nil, &InvalidParamsError{Message: fmt.Sprintf("%s must be a string", paramQuery)}
	}

	topK := optionalTopK(args)

	var topKValue any
	if topK != nil {
		topKValue = *topK
	}
	log.Info("Making request to Pinecone API", "assistant", assistantName, "top_k", topKValue)

	response, err := r.client.AssistantContext(ctx, assistantName, query, topK)
	if err != nil {
		return nil, err
	}

	// One content item per snippet, order preserved. Usage is not exposed
	// to the protocol client.
	contents := make([]interface{}, 0, len(response.Snippets))
	for _, snippet := range response.Snippets {
		contents = append(contents, mcp.NewTextContent(string(snippet)))
	}

	return &mcp.CallToolResult{Content: contents}, nil
}

// optionalTopK reads top_k permissively: a non-negative integral JSON number
// is forwarded, anything else is treated as absent. The backend applies its
// own default.
func optionalTopK(args map[string]any) *uint32 {
	value, ok := args[paramTopK]
	if !ok {
		return nil
	}

	number, ok := value.(float64)
	if !ok || number < 0 || number > math.MaxUint32 || number != math.Trunc(number) {
		log.Debug("Ignoring malformed top_k", "value", value)
		return nil
	}

	topK := uint32(number)
	return &topK
}

// ListResources returns an empty collection; this server exposes no
// resources.
func (r *Router) ListResources() []mcp.Resource {
	return []mcp.Resource{}
}

// ReadResource always fails: no resources are available.
func (r *Router) ReadResource(uri string) (string, error) {
	return "", fmt.Errorf("resource %s not found: no resources available", uri)
}

// ListPrompts returns an empty collection; this server exposes no prompts.
func (r *Router) ListPrompts() []mcp.Prompt {
	return []mcp.Prompt{}
}

// GetPrompt always fails: no prompts are available.
func (r *Router) GetPrompt(name string) (*mcp.GetPromptResult, error) {
	return nil, fmt.Errorf("Prompt %s not found", name)
}
