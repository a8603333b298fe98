// Package analyzer extracts call and class relationships from a single
// source file and renders them as DOT.
package analyzer

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"refmap/internal/dot"
	"refmap/internal/graph"
	"refmap/internal/scanner"
	"refmap/internal/syntax"
)

// Mode selects which relationships are extracted.
type Mode string

const (
	ModeCalls   Mode = "calls"
	ModeClasses Mode = "classes"
)

// ErrUnknownMode is returned for a mode other than calls or classes.
var ErrUnknownMode = errors.New("unknown analysis mode")

// ParseMode validates s as a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeCalls, ModeClasses:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Result holds the relationships extracted from one file.
type Result struct {
	Path    string
	Mode    Mode
	Calls   *graph.CallGraph  // ModeCalls only
	Classes *graph.ClassGraph // ModeClasses only
	DOT     string
}

// Edges returns the relationships in DOT statement order.
func (r *Result) Edges() []graph.Edge {
	if r.Mode == ModeClasses {
		return r.Classes.Edges()
	}
	return r.Calls.Edges()
}

// Nodes returns the entities named by the relationships.
func (r *Result) Nodes() []graph.Node {
	if r.Mode == ModeClasses {
		return r.Classes.Nodes(r.Path)
	}
	return r.Calls.Nodes(r.Path)
}

// Analyzer runs the parse, walk and render pipeline.
type Analyzer struct {
	scanner *scanner.Scanner
	trace   *log.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithTrace logs the grammar type of every visited node to l.
func WithTrace(l *log.Logger) Option {
	return func(a *Analyzer) {
		a.trace = l
	}
}

// New creates an Analyzer backed by the tree-sitter scanner.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{scanner: scanner.New()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeFile parses the file at path and extracts the relationships of
// mode. Unreadable files yield an error wrapping scanner.ErrParse.
func (a *Analyzer) AnalyzeFile(path string, mode Mode) (*Result, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	root, err := a.scanner.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return a.Analyze(path, root, mode)
}

// AnalyzeSource is AnalyzeFile for source already in memory. path only
// selects the grammar and labels the result.
func (a *Analyzer) AnalyzeSource(path string, src []byte, mode Mode) (*Result, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	root, err := a.scanner.Parse(a.scanner.GrammarFor(path), src)
	if err != nil {
		return nil, err
	}
	return a.Analyze(path, root, mode)
}

// Analyze walks an already parsed tree.
func (a *Analyzer) Analyze(path string, root *syntax.Node, mode Mode) (*Result, error) {
	r := &Result{Path: path, Mode: mode}
	switch mode {
	case ModeCalls:
		r.Calls = a.CallGraph(root)
		r.DOT = dot.CallGraph(r.Calls)
	case ModeClasses:
		r.Classes = a.ClassGraph(root)
		r.DOT = dot.ClassGraph(r.Classes)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return r, nil
}

// OutputPath replaces the extension of path with .dot, or appends .dot when
// there is none. A dotfile such as .eslintrc has no extension.
func OutputPath(path string) string {
	ext := filepath.Ext(path)
	if ext == filepath.Base(path) {
		ext = ""
	}
	return strings.TrimSuffix(path, ext) + ".dot"
}

// WriteDOT writes r.DOT next to the analysed file and returns the path
// written. An existing file is overwritten.
func WriteDOT(r *Result) (string, error) {
	out := OutputPath(r.Path)
	if err := os.WriteFile(out, []byte(r.DOT), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", out, err)
	}
	return out, nil
}
