// Package server exposes refmap analyses as MCP tools.
package server

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	ignore "github.com/sabhiram/go-gitignore"

	"refmap/internal/analyzer"
	"refmap/internal/store"
	"refmap/util"
)

const systemPrompt = `# refmap

refmap extracts structural relationships from a single source file and
renders them as Graphviz DOT.

- call_graph: one edge per call expression, attributed to the most recently
  entered named function. Calls outside any function are not shown.
- class_graph: classes as boxes, methods as ellipses, and an "inherits" edge
  from each superclass.
- get_relations: the same relationships as JSON edges.

Paths may be absolute, file:// URIs, or relative to the workspace root.
Files ignored by the workspace .gitignore are not analysed.
`

// Options configures a Server.
type Options struct {
	Root    string       // workspace root; defaults to the git root of the working directory
	Store   *store.Store // optional; every analysis is persisted when set
	Version string
}

// Server serves refmap tools over MCP.
type Server struct {
	mcpServer    *mcp.Server
	analyzer     *analyzer.Analyzer
	store        *store.Store
	root         string
	ignore       *ignore.GitIgnore
	systemPrompt string
}

// New creates a Server and registers its tools and resources.
func New(opts Options) (*Server, error) {
	root := opts.Root
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if root, err = util.FindGitRoot(cwd); err != nil {
			return nil, fmt.Errorf("failed to find workspace root: %w", err)
		}
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	version := opts.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    "refmap",
			Version: version,
		}, nil),
		analyzer:     analyzer.New(),
		store:        opts.Store,
		root:         root,
		systemPrompt: systemPrompt,
	}

	gitignorePath := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		gi, err := ignore.CompileIgnoreFile(gitignorePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to read %s: %v\n", gitignorePath, err)
		} else {
			s.ignore = gi
		}
	}

	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	log.Printf("[server] Serving workspace %s", s.root)
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// resolvePath turns a tool argument into an absolute path inside the
// workspace, rejecting files the workspace ignores.
func (s *Server) resolvePath(p string) (string, error) {
	p = strings.TrimSpace(util.URIToPath(p))
	if p == "" {
		return "", fmt.Errorf("file_path is required")
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.root, p)
	}
	p = filepath.Clean(p)

	if s.ignore != nil {
		rel, err := filepath.Rel(s.root, p)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			if s.ignore.MatchesPath(filepath.ToSlash(rel)) {
				return "", fmt.Errorf("%s is excluded by .gitignore", filepath.ToSlash(rel))
			}
		}
	}
	return p, nil
}

// analyze runs one analysis and persists it when a store is configured.
func (s *Server) analyze(ctx context.Context, path string, mode analyzer.Mode) (*analyzer.Result, error) {
	r, err := s.analyzer.AnalyzeFile(path, mode)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		if err := s.store.Save(ctx, path, string(mode), r.Nodes(), r.Edges()); err != nil {
			return nil, fmt.Errorf("failed to record relationships: %w", err)
		}
	}
	return r, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	r := textResult(msg)
	r.IsError = true
	return r
}
