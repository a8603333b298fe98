// Package dot renders relationship graphs as Graphviz DOT text.
package dot

import (
	"fmt"
	"strings"

	"refmap/internal/graph"
)

const (
	header = "digraph G {\n"
	footer = "}"
	indent = "    "
)

// CallGraph renders one edge statement per recorded call, callers in
// first-seen order and callees in recorded order. Repeated calls repeat
// their edge.
func CallGraph(g *graph.CallGraph) string {
	var b strings.Builder
	b.WriteString(header)
	for _, caller := range g.Callers() {
		for _, callee := range g.Callees(caller) {
			fmt.Fprintf(&b, "%s%s -> %s;\n", indent, quote(caller), quote(callee))
		}
	}
	b.WriteString(footer)
	return b.String()
}

// ClassGraph renders a box per class, an ellipse per qualified method with
// an edge from its class, and an inherits edge from each recorded
// superclass. Superclasses without a record get no node statement.
func ClassGraph(g *graph.ClassGraph) string {
	var b strings.Builder
	b.WriteString(header)
	for _, rec := range g.Classes() {
		class := quote(rec.Name)
		fmt.Fprintf(&b, "%s%s [shape=box];\n", indent, class)
		for _, m := range rec.Methods {
			method := quote(rec.QualifiedMethod(m))
			fmt.Fprintf(&b, "%s%s -> %s;\n", indent, class, method)
			fmt.Fprintf(&b, "%s%s [shape=ellipse];\n", indent, method)
		}
		if rec.Extends != "" {
			fmt.Fprintf(&b, "%s%s -> %s [label=\"inherits\"];\n", indent, quote(rec.Extends), class)
		}
	}
	b.WriteString(footer)
	return b.String()
}

// quote wraps s in double quotes, escaping embedded quotes.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
