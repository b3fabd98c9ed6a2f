package toolserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/false-systems/nopea/internal/agentrt"
	"github.com/false-systems/nopea/internal/cache"
	"github.com/false-systems/nopea/internal/deploy"
	"github.com/false-systems/nopea/internal/memory"
	"github.com/false-systems/nopea/internal/nerrors"
)

// Server wraps nopea's deploy registry, memory, and cache as an MCP
// tool surface served over stdio.
type Server struct {
	mcpServer *server.MCPServer
	registry  *agentrt.Registry
	memory    *memory.Service
	cache     *cache.Cache
}

// New builds a Server and registers its tools. memSvc may be nil.
func New(registry *agentrt.Registry, memSvc *memory.Service, c *cache.Cache) *Server {
	mcpServer := server.NewMCPServer(
		"nopea",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{mcpServer: mcpServer, registry: registry, memory: memSvc, cache: c}
	s.registerTools()
	return s
}

// Serve runs the MCP server over stdio. It blocks until the stdio
// connection closes.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("nopea_deploy",
		mcp.WithDescription("Deploy a service's manifests via nopea, optionally pinning a strategy."),
		mcp.WithString("service", mcp.Required()),
		mcp.WithString("namespace"),
		mcp.WithString("strategy"),
		mcp.WithString("manifests", mcp.Required(), mcp.Description("JSON array of manifest objects")),
	), s.handleDeploy)

	s.mcpServer.AddTool(mcp.NewTool("nopea_context",
		mcp.WithDescription("Fetch the memory context nopea holds for a service: known failure patterns, dependencies, recommendations."),
		mcp.WithString("service", mcp.Required()),
		mcp.WithString("namespace"),
	), s.handleContext)

	s.mcpServer.AddTool(mcp.NewTool("nopea_history",
		mcp.WithDescription("List cached deploy results for a service, newest first."),
		mcp.WithString("service", mcp.Required()),
	), s.handleHistory)

	s.mcpServer.AddTool(mcp.NewTool("nopea_health",
		mcp.WithDescription("List the status of every live per-service deploy agent."),
	), s.handleHealth)

	s.mcpServer.AddTool(mcp.NewTool("nopea_explain",
		mcp.WithDescription("Explain the most recent deploy result for a service in plain language."),
		mcp.WithString("service", mcp.Required()),
	), s.handleExplain)
}

func (s *Server) handleDeploy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	service, _ := args["service"].(string)
	if service == "" {
		return mcp.NewToolResultError("service parameter is required"), nil
	}
	namespace, _ := args["namespace"].(string)
	strategy, _ := args["strategy"].(string)

	manifestsJSON, _ := args["manifests"].(string)
	manifests, err := manifestsFromJSON(manifestsJSON)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	spec := &deploy.Spec{
		Service:   service,
		Namespace: namespace,
		Manifests: manifests,
		Strategy:  deploy.Strategy(strategy),
	}
	spec.Normalize()

	result := s.registry.Deploy(service, spec)
	return textJSON(result)
}

func (s *Server) handleContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	service, _ := args["service"].(string)
	if service == "" {
		return mcp.NewToolResultError("service parameter is required"), nil
	}
	namespace, _ := args["namespace"].(string)

	if s.memory == nil {
		return textJSON(memory.Context{Service: service, Namespace: namespace})
	}
	return textJSON(s.memory.GetDeployContext(service, namespace))
}

func (s *Server) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	service, _ := args["service"].(string)
	if service == "" {
		return mcp.NewToolResultError("service parameter is required"), nil
	}
	return textJSON(map[string]interface{}{
		"service":     service,
		"deployments": s.cache.ListDeployments(service),
	})
}

func (s *Server) handleHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return textJSON(s.registry.Health())
}

func (s *Server) handleExplain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	service, _ := args["service"].(string)
	if service == "" {
		return mcp.NewToolResultError("service parameter is required"), nil
	}

	st, err := s.registry.Status(service)
	if err != nil || st.LastResult == nil {
		if nerrors.IsNotFound(err) || err == nil {
			return mcp.NewToolResultText(fmt.Sprintf("nopea has no record of any deploy for %q yet.", service)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	r := st.LastResult
	explanation := fmt.Sprintf("The most recent deploy of %s (id %s) %s via the %s strategy in %s.",
		r.Service, r.DeployID, string(r.Status), string(r.Strategy), r.Namespace)
	if r.Error != nil {
		explanation += fmt.Sprintf(" Failure: %s (%s).", r.Error.Message, r.Error.Tag)
	}
	if r.Status == deploy.StatusCompleted {
		if r.Verified {
			explanation += " Post-deploy verification found no drift."
		} else {
			explanation += " Post-deploy verification could not confirm the cluster matches what was applied."
		}
	}
	return mcp.NewToolResultText(explanation), nil
}

func manifestsFromJSON(raw string) ([]deploy.Manifest, error) {
	if raw == "" {
		return nil, fmt.Errorf("manifests parameter is required")
	}
	var items []map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("manifests must be a JSON array of objects: %w", err)
	}
	out := make([]deploy.Manifest, 0, len(items))
	for _, item := range items {
		out = append(out, deploy.Manifest(item))
	}
	return out, nil
}

func textJSON(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshaling result: %s", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
