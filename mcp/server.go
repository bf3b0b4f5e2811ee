// Package mcp provides the MCP (Model Context Protocol) server for reposteria.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/scoring"
	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/search"
)

const (
	serverName      = "reposteria"
	protocolVersion = "2024-11-05"

	toolSearchInstances = "reposteria_search_instances"
	toolSearchClasses   = "reposteria_search_classes"
	toolDBpedia         = "reposteria_dbpedia"

	resourceOverview = "reposteria://overview"
	resourceSchema   = "reposteria://schema"

	defaultToolLimit = 20
)

// RemoteSearcher looks up results outside the local ontology.
type RemoteSearcher interface {
	Search(ctx context.Context, term string, limit int) ([]*search.Result, error)
}

// Server represents the MCP server.
type Server struct {
	catalog *search.Catalog
	remote  RemoteSearcher
	logger  *slog.Logger
	version string
	server  *mcp.Server
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// Option configures a Server.
type Option func(*Server)

// WithRemote enables the DBpedia tool.
func WithRemote(r RemoteSearcher) Option {
	return func(s *Server) {
		s.remote = r
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVersion sets the version announced on initialize.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// NewServer creates a new MCP server answering from catalog.
func NewServer(catalog *search.Catalog, opts ...Option) *Server {
	s := &Server{
		catalog: catalog,
		logger:  slog.Default(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: s.version,
	}, nil)

	s.registerTools()
	s.registerResources()

	return s
}

// searchInput holds the arguments of the local search tools.
type searchInput struct {
	Query string `json:"query" jsonschema:"Search text, e.g. 'tarta chocolate'"`
	Lang  string `json:"lang,omitempty" jsonschema:"Preferred language code (es or en)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results"`
	All   bool   `json:"all,omitempty" jsonschema:"Only return hits matching every search term"`
}

// dbpediaInput holds the arguments of the DBpedia tool.
type dbpediaInput struct {
	Term  string `json:"term" jsonschema:"Dessert name or part of it"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results"`
}

func searchSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {Type: "string", Description: "Search text, e.g. 'tarta chocolate'"},
			"lang":  {Type: "string", Description: "Preferred language code (es or en)"},
			"limit": {Type: "integer", Description: "Maximum number of results"},
			"all":   {Type: "boolean", Description: "Only return hits matching every search term"},
		},
		Required: []string{"query"},
	}
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	tools := []Tool{
		{
			Name:        toolSearchInstances,
			Description: "Search recipes, ingredients, tools and techniques in the pastry ontology. Returns hits ranked by relevance.",
			InputSchema: searchSchema(),
		},
		{
			Name:        toolSearchClasses,
			Description: "Search ontology classes (categories such as Pastel or Ingrediente) by name.",
			InputSchema: searchSchema(),
		},
	}
	if s.remote != nil {
		tools = append(tools, Tool{
			Name:        toolDBpedia,
			Description: "Look up desserts on DBpedia by label. Results are not ranked against the local ontology.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"term":  {Type: "string", Description: "Dessert name or part of it"},
					"limit": {Type: "integer", Description: "Maximum number of results"},
				},
				Required: []string{"term"},
			},
		})
	}
	return tools
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         resourceOverview,
			Name:        "Ontology Overview",
			Description: "Size of the loaded pastry ontology",
			MimeType:    "text/plain",
		},
		{
			URI:         resourceSchema,
			Name:        "Result Schema",
			Description: "Fields of a search result and how relevance is computed",
			MimeType:    "text/plain",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case toolSearchInstances, toolSearchClasses:
		in := searchInput{}
		in.Query, _ = args["query"].(string)
		in.Lang, _ = args["lang"].(string)
		in.All, _ = args["all"].(bool)
		if limit, ok := args["limit"].(float64); ok {
			in.Limit = int(limit)
		}
		if name == toolSearchClasses {
			return s.searchClasses(ctx, in)
		}
		return s.searchInstances(ctx, in)
	case toolDBpedia:
		in := dbpediaInput{}
		in.Term, _ = args["term"].(string)
		if limit, ok := args["limit"].(float64); ok {
			in.Limit = int(limit)
		}
		return s.dbpedia(ctx, in)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case resourceOverview:
		return s.overview()
	case resourceSchema:
		return getSchema(), nil
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}

	reader := bufio.NewReader(stdin)
	encoder := json.NewEncoder(stdout)
	// Note: Do NOT use SetIndent - MCP protocol requires compact JSON (one line per message)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		// Parse JSON-RPC request
		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			if err := encoder.Encode(errorResponse(nil, -32700, "Parse error")); err != nil {
				return err
			}
			continue
		}

		// Notifications carry no id and get no response.
		if _, ok := req["id"]; !ok {
			continue
		}

		resp := s.handleRequest(ctx, req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
}

// RunSDK serves the same tools and resources through the go-sdk server on
// transport t, typically &mcp.StdioTransport{}.
func (s *Server) RunSDK(ctx context.Context, t mcp.Transport) error {
	return s.server.Run(ctx, t)
}

// SDKServer returns the underlying go-sdk server.
func (s *Server) SDKServer() *mcp.Server {
	return s.server
}

func (s *Server) handleRequest(ctx context.Context, req map[string]any) map[string]any {
	method, _ := req["method"].(string)
	id := req["id"]

	switch method {
	case "initialize":
		return s.handleInitialize(id)
	case "ping":
		return map[string]any{"jsonrpc": "2.0", "id": id, "result": map[string]any{}}
	case "tools/list":
		return s.handleToolsList(id)
	case "tools/call":
		return s.handleToolsCall(ctx, id, req)
	case "resources/list":
		return s.handleResourcesList(id)
	case "resources/read":
		return s.handleResourcesRead(ctx, id, req)
	default:
		return errorResponse(id, -32601, "Method not found: "+method)
	}
}

func (s *Server) handleInitialize(id any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"protocolVersion": protocolVersion,
			"serverInfo": map[string]any{
				"name":    serverName,
				"version": s.version,
			},
			"capabilities": map[string]any{
				"tools": map[string]any{
					"listChanged": false,
				},
				"resources": map[string]any{
					"listChanged": false,
				},
			},
		},
	}
}

func (s *Server) handleToolsList(id any) map[string]any {
	tools := s.ListTools()
	toolList := make([]map[string]any, len(tools))
	for i, tool := range tools {
		schema, _ := json.Marshal(tool.InputSchema)
		var schemaMap map[string]any
		_ = json.Unmarshal(schema, &schemaMap)

		toolList[i] = map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": schemaMap,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"tools": toolList,
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	result, err := s.CallTool(ctx, name, args)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"content": []map[string]any{
				{
					"type": "text",
					"text": result,
				},
			},
		},
	}
}

func (s *Server) handleResourcesList(id any) map[string]any {
	resources := s.ListResources()
	resourceList := make([]map[string]any, len(resources))
	for i, res := range resources {
		resourceList[i] = map[string]any{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    res.MimeType,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"resources": resourceList,
		},
	}
}

func (s *Server) handleResourcesRead(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	uri, _ := params["uri"].(string)

	content, err := s.ReadResource(ctx, uri)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"contents": []map[string]any{
				{
					"uri":      uri,
					"mimeType": "text/plain",
					"text":     content,
				},
			},
		},
	}
}

// Tool Handlers

func (s *Server) searchInstances(ctx context.Context, in searchInput) (string, error) {
	if strings.TrimSpace(in.Query) == "" {
		return "No query provided", nil
	}
	results, err := s.catalog.SearchInstances(ctx, in.Query, in.Lang, toolOptions(in))
	if err != nil {
		return "", err
	}
	return formatResults(results, in.Query), nil
}

func (s *Server) searchClasses(ctx context.Context, in searchInput) (string, error) {
	if strings.TrimSpace(in.Query) == "" {
		return "No query provided", nil
	}
	results, err := s.catalog.SearchClasses(ctx, in.Query, in.Lang, toolOptions(in))
	if err != nil {
		return "", err
	}
	return formatResults(results, in.Query), nil
}

func (s *Server) dbpedia(ctx context.Context, in dbpediaInput) (string, error) {
	if s.remote == nil {
		return "", errors.New("dbpedia lookups are disabled")
	}
	if strings.TrimSpace(in.Term) == "" {
		return "No term provided", nil
	}
	results, err := s.remote.Search(ctx, in.Term, in.Limit)
	if err != nil {
		return "", err
	}
	return formatResults(results, in.Term), nil
}

func toolOptions(in searchInput) search.Options {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultToolLimit
	}
	return search.Options{RequireAll: in.All, Limit: limit}
}

// formatResults renders results as a markdown list.
func formatResults(results []*search.Result, query string) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for '%s'", query)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d results for '%s':\n\n", len(results), query))
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("%d. **%s**", i+1, r.Name))
		if len(r.Classes) > 0 {
			sb.WriteString(fmt.Sprintf(" (%s)", strings.Join(r.Classes, ", ")))
		}
		if r.Source == search.SourceDBpedia {
			sb.WriteString(" [DBpedia]")
		} else {
			sb.WriteString(fmt.Sprintf(" relevance %d", r.Relevance))
		}
		sb.WriteString("\n")

		writeList(&sb, "Ingredients", r.Ingredients)
		writeList(&sb, "Tools", r.Tools)
		writeList(&sb, "Techniques", r.Techniques)
		writeList(&sb, "Subclasses", r.Subclasses)
		writeList(&sb, "Instances", r.Instances)
		writeList(&sb, "Categories", r.Categories)
		if r.Description != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", r.Description))
		}
		if r.DBpediaURI != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", r.DBpediaURI))
		}
	}
	return sb.String()
}

func writeList(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("   %s: %s\n", label, strings.Join(items, ", ")))
}

// Resource Handlers

func (s *Server) overview() (string, error) {
	e, err := s.catalog.Engine()
	if err != nil {
		return "", err
	}
	stats := e.Index().Stats()

	var sb strings.Builder
	sb.WriteString("# Reposteria Ontology Overview\n\n")
	sb.WriteString(fmt.Sprintf("**Triples:** %d\n", stats["triples"]))
	sb.WriteString(fmt.Sprintf("**Subjects:** %d\n", stats["subjects"]))
	sb.WriteString(fmt.Sprintf("**Classes:** %d\n", stats["classes"]))
	sb.WriteString(fmt.Sprintf("**Instances:** %d\n", stats["instances"]))
	sb.WriteString(fmt.Sprintf("**Default language:** %s\n", e.Language()))
	sb.WriteString(fmt.Sprintf("**DBpedia lookups:** %t\n", s.remote != nil))
	return sb.String(), nil
}

func getSchema() string {
	var sb strings.Builder
	sb.WriteString("# Reposteria Result Schema\n\n")
	sb.WriteString("| Field | Description |\n")
	sb.WriteString("|-------|-------------|\n")
	sb.WriteString("| `kind` | instance or class |\n")
	sb.WriteString("| `name` | Preferred name in the requested language |\n")
	sb.WriteString("| `classes` | Direct classes of an instance |\n")
	sb.WriteString("| `superclasses` | Every ancestor class |\n")
	sb.WriteString("| `is_product` | Whether the entity descends from Producto |\n")
	sb.WriteString("| `ingredients` / `tools` / `techniques` | Related entities of a product |\n")
	sb.WriteString("| `attributes` | Remaining properties by predicate name |\n")
	sb.WriteString("| `used_by` | Entities that reference this one |\n")
	sb.WriteString("| `subclasses` / `instances` | Members of a class |\n")
	sb.WriteString("| `categories` | DBpedia categories an instance is filed under |\n")
	sb.WriteString("| `source` | local or dbpedia |\n")
	sb.WriteString("| `relevance` | Local ranking score |\n")

	sb.WriteString("\n## Relevance Weights\n\n")
	categories := make([]string, 0, len(scoring.Weights))
	for c := range scoring.Weights {
		categories = append(categories, string(c))
	}
	sort.Slice(categories, func(i, j int) bool {
		wi, wj := scoring.Weights[scoring.Category(categories[i])], scoring.Weights[scoring.Category(categories[j])]
		if wi != wj {
			return wi > wj
		}
		return categories[i] < categories[j]
	})
	for _, c := range categories {
		sb.WriteString(fmt.Sprintf("- %s: %d\n", c, scoring.Weights[scoring.Category(c)]))
	}
	return sb.String()
}

// Helper functions

func errorResponse(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// registerTools registers tools with the go-sdk server.
func (s *Server) registerTools() {
	for _, tool := range s.ListTools() {
		t := &mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}
		switch tool.Name {
		case toolSearchInstances:
			mcp.AddTool(s.server, t, func(ctx context.Context, _ *mcp.CallToolRequest, in searchInput) (*mcp.CallToolResult, any, error) {
				text, err := s.searchInstances(ctx, in)
				if err != nil {
					return nil, nil, err
				}
				return textResult(text), nil, nil
			})
		case toolSearchClasses:
			mcp.AddTool(s.server, t, func(ctx context.Context, _ *mcp.CallToolRequest, in searchInput) (*mcp.CallToolResult, any, error) {
				text, err := s.searchClasses(ctx, in)
				if err != nil {
					return nil, nil, err
				}
				return textResult(text), nil, nil
			})
		case toolDBpedia:
			mcp.AddTool(s.server, t, func(ctx context.Context, _ *mcp.CallToolRequest, in dbpediaInput) (*mcp.CallToolResult, any, error) {
				text, err := s.dbpedia(ctx, in)
				if err != nil {
					return nil, nil, err
				}
				return textResult(text), nil, nil
			})
		}
	}
}

// registerResources registers resources with the go-sdk server.
func (s *Server) registerResources() {
	for _, res := range s.ListResources() {
		uri := res.URI
		s.server.AddResource(&mcp.Resource{
			URI:         res.URI,
			Name:        res.Name,
			Description: res.Description,
			MIMEType:    res.MimeType,
		}, func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			text, err := s.ReadResource(ctx, uri)
			if err != nil {
				return nil, err
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: "text/plain", Text: text}},
			}, nil
		})
	}
}
