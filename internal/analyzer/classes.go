package analyzer

import (
	"log"

	"refmap/internal/graph"
	"refmap/internal/syntax"
)

type classVisitor struct {
	graph *graph.ClassGraph
	trace *log.Logger
}

func (v *classVisitor) visit(n *syntax.Node) {
	if v.trace != nil {
		v.trace.Printf("visiting node: %s", n.Type)
	}

	if name, ok := n.ClassName(); ok {
		rec := graph.ClassRecord{Name: name, Extends: superclass(n), Methods: []string{}}
		for _, m := range n.Members {
			if method, ok := m.MethodName(); ok {
				rec.Methods = append(rec.Methods, method)
			}
		}
		v.graph.Put(rec)
	}

	for _, child := range n.Children {
		v.visit(child)
	}
}

// superclass returns the first target of the first extends clause.
func superclass(class *syntax.Node) string {
	for _, h := range class.Heritage {
		if h.Kind == syntax.HeritageExtends && len(h.Types) > 0 {
			return h.Types[0]
		}
	}
	return ""
}

// ClassGraph walks root once and records every named class with its
// superclass and direct methods. A later class with the same name replaces
// the earlier record.
func (a *Analyzer) ClassGraph(root *syntax.Node) *graph.ClassGraph {
	v := &classVisitor{graph: graph.NewClassGraph(), trace: a.trace}
	if root != nil {
		v.visit(root)
	}
	return v.graph
}
