package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/automator/internal/logging"
	"github.com/aretw0/automator/pkg/domain"
	"github.com/aretw0/automator/pkg/groups"
	"github.com/aretw0/automator/pkg/locator"
	"github.com/aretw0/automator/pkg/observability"
	"github.com/aretw0/automator/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const conditionsURI = "automator://conditions"

// Server wraps the group service and exposes it as an MCP Server.
type Server struct {
	service   *groups.Service
	catalog   ports.ConditionCatalog
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(svc *groups.Service, catalog ports.ConditionCatalog, version string, opts ...Option) *Server {
	s := &Server{
		service:   svc,
		catalog:   catalog,
		mcpServer: server.NewMCPServer("automator-mcp", strings.TrimSpace(version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: list_conditions
	s.mcpServer.AddTool(mcp.NewTool(domain.DiscoveryOperation,
		mcp.WithDescription("List every registered condition type with its integration code, condition code and accepted fields."),
		mcp.WithString("integration_code", mcp.Description("Only list conditions of this integration (optional)")),
	), s.handleListConditions)

	// TOOL: list_condition_groups
	s.mcpServer.AddTool(mcp.NewTool("list_condition_groups",
		mcp.WithDescription("List the condition groups of a recipe, ordered by priority."),
		mcp.WithNumber("recipe_id", mcp.Required(), mcp.Description("Recipe id")),
	), s.handleListGroups)

	// TOOL: create_condition_group
	s.mcpServer.AddTool(mcp.NewTool("create_condition_group",
		mcp.WithDescription("Create a condition group gating some actions of a recipe. Use "+domain.DiscoveryOperation+" to find condition codes."),
		mcp.WithNumber("recipe_id", mcp.Required(), mcp.Description("Recipe id")),
		mcp.WithString("action_ids", mcp.Required(), mcp.Description("JSON array of action ids, e.g. [10, 11]")),
		mcp.WithString("mode", mcp.Required(), mcp.Description("ALL or ANY")),
		mcp.WithString("conditions", mcp.Description(`JSON array of {"integration_code", "condition_code", "fields"} objects`)),
		mcp.WithNumber("priority", mcp.Description("Ordering hint, lower first")),
		mcp.WithString("parent_id", mcp.Description("Id of an existing parent group")),
	), s.handleCreateGroup)

	// TOOL: add_condition
	s.mcpServer.AddTool(mcp.NewTool("add_condition",
		mcp.WithDescription("Append a condition to an existing group."),
		mcp.WithNumber("recipe_id", mcp.Required(), mcp.Description("Recipe id")),
		mcp.WithString("group_id", mcp.Required(), mcp.Description("Condition group id")),
		mcp.WithString("integration_code", mcp.Required(), mcp.Description("Integration code, e.g. WP")),
		mcp.WithString("condition_code", mcp.Required(), mcp.Description("Condition code")),
		mcp.WithString("fields", mcp.Description("JSON object of condition parameters")),
	), s.handleAddCondition)

	// TOOL: remove_condition_group
	s.mcpServer.AddTool(mcp.NewTool("remove_condition_group",
		mcp.WithDescription("Delete a condition group. Its child groups become top level."),
		mcp.WithNumber("recipe_id", mcp.Required(), mcp.Description("Recipe id")),
		mcp.WithString("group_id", mcp.Required(), mcp.Description("Condition group id")),
	), s.handleRemoveGroup)
}

func (s *Server) handleListConditions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.catalog == nil {
		return jsonResult([]domain.ConditionDefinition{})
	}
	defs, err := s.catalog.ListConditions(ctx)
	if err != nil {
		return s.toolError(domain.DiscoveryOperation, err), nil
	}
	if integration, _ := request.GetArguments()["integration_code"].(string); integration != "" {
		filtered := make([]domain.ConditionDefinition, 0, len(defs))
		for _, d := range defs {
			if strings.EqualFold(d.IntegrationCode, integration) {
				filtered = append(filtered, d)
			}
		}
		defs = filtered
	}
	return jsonResult(defs)
}

func (s *Server) handleListGroups(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	recipeID, err := recipeArg(args)
	if err != nil {
		return s.toolError("list_condition_groups", err), nil
	}
	list, err := s.service.List(ctx, recipeID)
	if err != nil {
		return s.toolError("list_condition_groups", err), nil
	}
	return jsonResult(domain.Records(locator.SortByPriority(list)))
}

func (s *Server) handleCreateGroup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	recipeID, err := recipeArg(args)
	if err != nil {
		return s.toolError("create_condition_group", err), nil
	}

	raw := map[string]any{
		"mode":      args["mode"],
		"priority":  args["priority"],
		"parent_id": args["parent_id"],
	}
	if raw["action_ids"], err = jsonArg(args, "action_ids"); err != nil {
		return s.toolError("create_condition_group", err), nil
	}
	if raw["conditions"], err = jsonArg(args, "conditions"); err != nil {
		return s.toolError("create_condition_group", err), nil
	}

	req, err := groups.DecodeCreateRequest(raw)
	if err != nil {
		return s.toolError("create_condition_group", err), nil
	}
	g, err := s.service.Create(ctx, recipeID, req)
	if err != nil {
		return s.toolError("create_condition_group", err), nil
	}
	return jsonResult(g.Record())
}

func (s *Server) handleAddCondition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	recipeID, err := recipeArg(args)
	if err != nil {
		return s.toolError("add_condition", err), nil
	}
	fields, err := jsonArg(args, "fields")
	if err != nil {
		return s.toolError("add_condition", err), nil
	}

	groupID, _ := args["group_id"].(string)
	g, err := s.service.AddCondition(ctx, recipeID, domain.GroupID(groupID), map[string]any{
		domain.KeyIntegrationCode: args["integration_code"],
		domain.KeyConditionCode:   args["condition_code"],
		domain.KeyFields:          fields,
	})
	if err != nil {
		return s.toolError("add_condition", err), nil
	}
	return jsonResult(g.Record())
}

func (s *Server) handleRemoveGroup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	recipeID, err := recipeArg(args)
	if err != nil {
		return s.toolError("remove_condition_group", err), nil
	}
	groupID, _ := args["group_id"].(string)
	if err := s.service.Delete(ctx, recipeID, domain.GroupID(groupID)); err != nil {
		return s.toolError("remove_condition_group", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("condition group %s removed", groupID)), nil
}

func (s *Server) registerResources() {
	// EXPOSE: automator://conditions
	s.mcpServer.AddResource(mcp.NewResource(conditionsURI, "Registered Conditions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		defs := []domain.ConditionDefinition{}
		if s.catalog != nil {
			var err error
			if defs, err = s.catalog.ListConditions(ctx); err != nil {
				return nil, fmt.Errorf("failed to list conditions: %w", err)
			}
		}
		jsonBytes, err := json.Marshal(defs)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      conditionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

// toolError reports err as a tool error so agents can read the message, including
// the discovery hint of ConditionNotFound.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	kind := observability.Classify(err)
	if kind.IsClientError() {
		s.logger.Debug("MCP tool rejected input", "tool", tool, "kind", kind, "err", err)
	} else {
		s.logger.Error("MCP tool failed", "tool", tool, "kind", kind, "err", err)
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", kind, err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

// recipeArg reads recipe_id, which clients send as a number or a numeric string.
func recipeArg(args map[string]any) (domain.RecipeID, error) {
	var n int64
	switch v := args["recipe_id"].(type) {
	case float64:
		n = int64(v)
		if float64(n) != v {
			n = 0
		}
	case string:
		n, _ = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: recipe_id must be a positive integer", domain.ErrInvalidRequest)
	}
	return domain.RecipeID(n), nil
}

// jsonArg decodes a JSON-encoded string argument. Absent arguments are nil; values
// that are already structured are passed through.
func jsonArg(args map[string]any, key string) (any, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	str, ok := raw.(string)
	if !ok {
		return raw, nil
	}
	if strings.TrimSpace(str) == "" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(str))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %s is not valid JSON: %w", domain.ErrInvalidRequest, key, err)
	}
	return v, nil
}
