package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"refmap/internal/scanner"
)

const (
	guidelinesURI = "refmap://usage-guidelines"
	languagesURI  = "refmap://languages"
	schemaPrefix  = "refmap://schemas/"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         guidelinesURI,
		Name:        "Usage Guidelines",
		Description: "How the refmap tools attribute calls and render graphs",
		MIMEType:    "text/markdown",
	}, staticResource(guidelinesURI, "text/markdown", s.systemPrompt))

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         languagesURI,
		Name:        "Supported Languages",
		Description: "File extensions and the grammar each one is parsed with",
		MIMEType:    "application/json",
	}, staticResource(languagesURI, "application/json", languageTable()))

	schemas := buildSchemaMap()
	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: schemaPrefix + "{tool_name}",
		Name:        "Tool Schema",
		Description: "JSON schema for the named tool's arguments",
		MIMEType:    "application/schema+json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		tool := strings.TrimPrefix(req.Params.URI, schemaPrefix)
		schema, ok := schemas[tool]
		if !ok {
			return nil, fmt.Errorf("unknown tool schema: %q", tool)
		}
		return readResult(req.Params.URI, "application/schema+json", schema), nil
	})
}

func staticResource(uri, mimeType, text string) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return readResult(uri, mimeType, text), nil
	}
}

func readResult(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeType, Text: text}},
	}
}

// languageTable renders the extension to grammar mapping as sorted JSON.
func languageTable() string {
	type entry struct {
		Extension string `json:"extension"`
		Grammar   string `json:"grammar"`
	}
	exts := make([]string, 0, len(scanner.Grammars))
	for ext := range scanner.Grammars {
		exts = append(exts, ext)
	}
	slices.Sort(exts)

	entries := make([]entry, 0, len(exts))
	for _, ext := range exts {
		entries = append(entries, entry{Extension: ext, Grammar: scanner.Grammars[ext].Name})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		log.Printf("[server] Failed to encode language table: %v", err)
		return "[]"
	}
	return string(data)
}

// buildSchemaMap maps tool names to the JSON schema of their arguments.
func buildSchemaMap() map[string]string {
	m := make(map[string]string)
	for _, tool := range []struct {
		name   string
		schema func() (*jsonschema.Schema, error)
	}{
		{"call_graph", schemaOf[GraphArgs]},
		{"class_graph", schemaOf[GraphArgs]},
		{"get_relations", schemaOf[RelationsArgs]},
	} {
		schema, err := tool.schema()
		if err != nil {
			log.Printf("[server] Failed to infer schema for %s: %v", tool.name, err)
			continue
		}
		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			continue
		}
		m[tool.name] = string(data)
	}
	return m
}

func schemaOf[T any]() (*jsonschema.Schema, error) {
	return jsonschema.For[T](nil)
}
