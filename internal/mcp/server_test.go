package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/momah-portal/embedgen/application/service"
	"github.com/momah-portal/embedgen/domain/embedding"
	"github.com/momah-portal/embedgen/domain/entity"
)

// fakeGenerator records the last call and returns a canned summary.
type fakeGenerator struct {
	summary embedding.Summary
	err     error

	entityName string
	mode       string
	ids        []string
}

func (f *fakeGenerator) Generate(_ context.Context, entityName, mode string, ids []string) (embedding.Summary, error) {
	f.entityName = entityName
	f.mode = mode
	f.ids = ids
	return f.summary, f.err
}

// fakeCoverage returns canned coverage.
type fakeCoverage struct {
	coverage []service.Coverage
	err      error
}

func (f *fakeCoverage) Coverage(_ context.Context) ([]service.Coverage, error) {
	return f.coverage, f.err
}

// sendMessage marshals a JSON-RPC request, sends it through HandleMessage,
// and returns the JSONRPCResponse.
func sendMessage(t *testing.T, srv *Server, method string, id int, params map[string]any) mcp.JSONRPCResponse {
	t.Helper()

	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		msg["params"] = params
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	result := srv.MCPServer().HandleMessage(context.Background(), raw)

	resp, ok := result.(mcp.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse, got %T: %+v", result, result)
	}
	return resp
}

// resultJSON re-marshals the Result field through JSON into dst.
func resultJSON(t *testing.T, resp mcp.JSONRPCResponse, dst any) {
	t.Helper()
	b, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		t.Fatalf("unmarshal result into %T: %v", dst, err)
	}
}

func textFromContent(t *testing.T, result mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	b, err := json.Marshal(result.Content[0])
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	var tc struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(b, &tc); err != nil {
		t.Fatalf("unmarshal text content: %v", err)
	}
	return tc.Text
}

func initializeParams() map[string]any {
	return map[string]any{
		"protocolVersion": "2025-06-18",
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    "test-client",
			"version": "0.0.1",
		},
	}
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) mcp.CallToolResult {
	t.Helper()
	sendMessage(t, srv, "initialize", 1, initializeParams())
	resp := sendMessage(t, srv, "tools/call", 2, map[string]any{
		"name":      name,
		"arguments": args,
	})
	var result mcp.CallToolResult
	resultJSON(t, resp, &result)
	return result
}

func TestServer_Initialize(t *testing.T) {
	srv := NewServer(&fakeGenerator{}, &fakeCoverage{}, "1.2.3", nil)
	resp := sendMessage(t, srv, "initialize", 1, initializeParams())

	var result mcp.InitializeResult
	resultJSON(t, resp, &result)

	if result.ServerInfo.Name != ServerName {
		t.Errorf("expected server name %s, got %s", ServerName, result.ServerInfo.Name)
	}
	if result.ServerInfo.Version != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %s", result.ServerInfo.Version)
	}
	if result.Capabilities.Tools == nil {
		t.Error("expected tools capability to be present")
	}
}

func TestServer_ListTools(t *testing.T) {
	srv := NewServer(&fakeGenerator{}, &fakeCoverage{}, "1.0.0", nil)
	sendMessage(t, srv, "initialize", 1, initializeParams())

	resp := sendMessage(t, srv, "tools/list", 2, nil)

	var result mcp.ListToolsResult
	resultJSON(t, resp, &result)

	if len(result.Tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(result.Tools))
	}

	tools := map[string]mcp.Tool{}
	for _, tool := range result.Tools {
		tools[tool.Name] = tool
	}

	generate, ok := tools["generate_embeddings"]
	if !ok {
		t.Fatal("missing tool: generate_embeddings")
	}
	if _, ok := tools["list_entity_types"]; !ok {
		t.Error("missing tool: list_entity_types")
	}
	for _, param := range []string{"entity_name", "mode", "entity_ids"} {
		if _, ok := generate.InputSchema.Properties[param]; !ok {
			t.Errorf("generate_embeddings missing %s parameter", param)
		}
	}
	if len(generate.InputSchema.Required) != 1 || generate.InputSchema.Required[0] != "entity_name" {
		t.Errorf("required = %v, want [entity_name]", generate.InputSchema.Required)
	}
}

func TestServer_GenerateEmbeddings(t *testing.T) {
	gen := &fakeGenerator{summary: embedding.NewSummary(entity.Pilot, []embedding.Outcome{
		embedding.Succeeded("p1", 768),
		embedding.Failed("p2", entity.ErrInsufficientContent),
	})}
	srv := NewServer(gen, &fakeCoverage{}, "1.0.0", nil)

	result := callTool(t, srv, "generate_embeddings", map[string]any{
		"entity_name": "Pilot",
		"mode":        "missing",
		"entity_ids":  []string{"p1", "p2"},
	})

	if result.IsError {
		t.Fatalf("expected success, got error: %s", textFromContent(t, result))
	}
	if gen.entityName != "Pilot" || gen.mode != "missing" || len(gen.ids) != 2 {
		t.Errorf("generator called with %q %q %v", gen.entityName, gen.mode, gen.ids)
	}

	var got generateResult
	if err := json.Unmarshal([]byte(textFromContent(t, result)), &got); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if got.Processed != 2 || got.Successful != 1 || got.Failed != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", got.Processed, got.Successful, got.Failed)
	}
	if got.Results[1].Error != "Insufficient text content" {
		t.Errorf("error = %q", got.Results[1].Error)
	}
}

func TestServer_GenerateEmbeddings_Empty(t *testing.T) {
	gen := &fakeGenerator{summary: embedding.NewSummary(entity.Challenge, nil)}
	srv := NewServer(gen, &fakeCoverage{}, "1.0.0", nil)

	result := callTool(t, srv, "generate_embeddings", map[string]any{"entity_name": "Challenge"})

	text := textFromContent(t, result)
	if !strings.Contains(text, "No entities to process") {
		t.Errorf("expected empty-run message, got %s", text)
	}
}

func TestServer_GenerateEmbeddings_Errors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		err  error
		want string
	}{
		{"missing entity name", map[string]any{}, nil, "entity_name is required"},
		{"unsupported entity", map[string]any{"entity_name": "User"}, entity.NewUnsupportedEntityError("User"), "Entity User not supported for embeddings"},
		{"missing credential", map[string]any{"entity_name": "Pilot"}, &embedding.MissingCredentialError{Name: "GOOGLE_API_KEY"}, "GOOGLE_API_KEY not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(&fakeGenerator{err: tt.err}, &fakeCoverage{}, "1.0.0", nil)
			result := callTool(t, srv, "generate_embeddings", tt.args)

			if !result.IsError {
				t.Fatal("expected error response")
			}
			if text := textFromContent(t, result); !strings.Contains(text, tt.want) {
				t.Errorf("error text = %q, want %q", text, tt.want)
			}
		})
	}
}

func TestServer_ListEntityTypes(t *testing.T) {
	cov := &fakeCoverage{coverage: []service.Coverage{
		{Entity: entity.Challenge, Table: "challenges", Total: 4, Missing: 1},
	}}
	srv := NewServer(&fakeGenerator{}, cov, "1.0.0", nil)

	result := callTool(t, srv, "list_entity_types", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", textFromContent(t, result))
	}

	var got []service.Coverage
	if err := json.Unmarshal([]byte(textFromContent(t, result)), &got); err != nil {
		t.Fatalf("unmarshal coverage: %v", err)
	}
	if len(got) != 1 || got[0].Table != "challenges" || got[0].Missing != 1 {
		t.Errorf("coverage = %+v", got)
	}
}

func TestServer_ListEntityTypes_Error(t *testing.T) {
	srv := NewServer(&fakeGenerator{}, &fakeCoverage{err: errors.New("db down")}, "1.0.0", nil)

	result := callTool(t, srv, "list_entity_types", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error response")
	}
}
