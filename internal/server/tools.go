package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"refmap/internal/analyzer"
	"refmap/internal/graph"
	"refmap/internal/scanner"
	"refmap/util"
)

// Arguments structs

type GraphArgs struct {
	FilePath string `json:"file_path" jsonschema:"absolute, file:// or workspace-relative path of the source file"`
}

type RelationsArgs struct {
	FilePath string `json:"file_path" jsonschema:"absolute, file:// or workspace-relative path of the source file"`
	Mode     string `json:"mode,omitempty" jsonschema:"calls (default) or classes"`
}

type relationsResult struct {
	FileURI string       `json:"file_uri"`
	Mode    string       `json:"mode"`
	Nodes   []graph.Node `json:"nodes"`
	Edges   []graph.Edge `json:"edges"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "call_graph",
		Description: "Returns the function call graph of a source file as Graphviz DOT",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GraphArgs) (*mcp.CallToolResult, any, error) {
		return s.graphTool(ctx, args.FilePath, analyzer.ModeCalls), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "class_graph",
		Description: "Returns the class inheritance and method graph of a source file as Graphviz DOT",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GraphArgs) (*mcp.CallToolResult, any, error) {
		return s.graphTool(ctx, args.FilePath, analyzer.ModeClasses), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_relations",
		Description: "Returns the nodes and edges of a call or class graph as JSON",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args RelationsArgs) (*mcp.CallToolResult, any, error) {
		modeArg := args.Mode
		if modeArg == "" {
			modeArg = string(analyzer.ModeCalls)
		}
		mode, err := analyzer.ParseMode(modeArg)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}

		path, err := s.resolvePath(args.FilePath)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}

		r, err := s.analyze(ctx, path, mode)
		if err != nil {
			return errorResult(analysisError(path, err)), nil, nil
		}

		result := relationsResult{
			FileURI: util.PathToURI(path),
			Mode:    string(mode),
			Nodes:   r.Nodes(),
			Edges:   r.Edges(),
		}
		if result.Nodes == nil {
			result.Nodes = []graph.Node{}
		}
		if result.Edges == nil {
			result.Edges = []graph.Edge{}
		}

		jsonBytes, _ := json.MarshalIndent(result, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})
}

func (s *Server) graphTool(ctx context.Context, filePath string, mode analyzer.Mode) *mcp.CallToolResult {
	path, err := s.resolvePath(filePath)
	if err != nil {
		return errorResult(err.Error())
	}
	r, err := s.analyze(ctx, path, mode)
	if err != nil {
		return errorResult(analysisError(path, err))
	}
	return textResult(r.DOT)
}

func analysisError(path string, err error) string {
	if errors.Is(err, scanner.ErrParse) {
		return fmt.Sprintf("Could not read source file: %s", path)
	}
	return fmt.Sprintf("Analysis failed: %v", err)
}
