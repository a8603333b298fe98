package analyzer

import (
	"log"

	"refmap/internal/graph"
	"refmap/internal/syntax"
)

// callVisitor attributes each call to the most recently entered named
// function. The cursor is not restored when the walk leaves a
// nested declaration: after `function outer() { function inner() {} x() }`
// the call to x belongs to inner.
type callVisitor struct {
	graph   *graph.CallGraph
	current string
	trace   *log.Logger
}

func (v *callVisitor) visit(n *syntax.Node) {
	if v.trace != nil {
		v.trace.Printf("visiting node: %s", n.Type)
	}

	if name, ok := n.FunctionName(); ok {
		v.current = name
		v.graph.Declare(name)
	} else if callee, ok := n.CalleeText(); ok && v.current != "" {
		v.graph.AddCall(v.current, callee)
	}

	for _, child := range n.Children {
		v.visit(child)
	}
}

// CallGraph walks root once and records every call made inside a named
// function. Calls made before any function declaration are dropped.
func (a *Analyzer) CallGraph(root *syntax.Node) *graph.CallGraph {
	v := &callVisitor{graph: graph.NewCallGraph(), trace: a.trace}
	if root != nil {
		v.visit(root)
	}
	return v.graph
}
