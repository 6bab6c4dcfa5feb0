// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/momah-portal/embedgen/application/service"
	"github.com/momah-portal/embedgen/domain/embedding"
	"github.com/momah-portal/embedgen/domain/entity"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "embedgen"

// Generator runs embedding generation for MCP tools.
type Generator interface {
	Generate(ctx context.Context, entityName, mode string, ids []string) (embedding.Summary, error)
}

// CoverageReporter reports embedding coverage per entity kind.
type CoverageReporter interface {
	Coverage(ctx context.Context) ([]service.Coverage, error)
}

// Server wraps the MCP server with embedgen tools.
type Server struct {
	mcpServer *server.MCPServer
	generator Generator
	coverage  CoverageReporter
	logger    *slog.Logger
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(generator Generator, coverage CoverageReporter, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		generator: generator,
		coverage:  coverage,
		logger:    logger,
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	kinds := make([]string, 0, len(entity.Names()))
	for _, n := range entity.Names() {
		kinds = append(kinds, string(n))
	}

	generateTool := mcp.NewTool("generate_embeddings",
		mcp.WithDescription("Generate vector embeddings for records of one entity kind and store them on each record"),
		mcp.WithString("entity_name",
			mcp.Required(),
			mcp.Description("Entity kind to embed"),
			mcp.Enum(kinds...),
		),
		mcp.WithString("mode",
			mcp.Description("all (default) re-embeds every record; missing only records without an embedding"),
			mcp.Enum(string(embedding.ModeAll), string(embedding.ModeMissing)),
		),
		mcp.WithArray("entity_ids",
			mcp.Description("Explicit record ids; overrides mode when non-empty"),
			mcp.WithStringItems(),
		),
	)
	mcpServer.AddTool(generateTool, s.handleGenerate)

	listTool := mcp.NewTool("list_entity_types",
		mcp.WithDescription("List embeddable entity kinds with total and missing embedding counts"),
	)
	mcpServer.AddTool(listTool, s.handleListEntityTypes)
}

type generateResult struct {
	EntityName string              `json:"entity_name"`
	Processed  int                 `json:"processed"`
	Successful int                 `json:"successful"`
	Failed     int                 `json:"failed"`
	Message    string              `json:"message,omitempty"`
	Results    []embedding.Outcome `json:"results"`
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("entity_name")
	if err != nil {
		return mcp.NewToolResultError("entity_name is required"), nil
	}
	mode := request.GetString("mode", "")
	ids := request.GetStringSlice("entity_ids", nil)

	summary, err := s.generator.Generate(ctx, name, mode, ids)
	if err != nil {
		s.logger.Error("generate embeddings failed", slog.String("entity", name), slog.Any("error", err))
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := generateResult{
		EntityName: string(summary.EntityName),
		Processed:  summary.Processed,
		Successful: summary.Successful,
		Failed:     summary.Failed,
		Results:    summary.Results,
	}
	if summary.Empty() {
		result.Message = "No entities to process"
		result.Results = []embedding.Outcome{}
	}
	return jsonResult(result)
}

func (s *Server) handleListEntityTypes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coverage, err := s.coverage.Coverage(ctx)
	if err != nil {
		s.logger.Error("list entity types failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to list entity types: %v", err)), nil
	}
	return jsonResult(coverage)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
