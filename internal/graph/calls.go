package graph

import "refmap/util"

// CallGraph maps a function name to the callee text of every call recorded
// while that function was the active scope.
//
// Callers iterate in first-seen order and each callee list keeps recording
// order, duplicates included. Declaring a name twice merges: the existing
// list is kept and later calls append to it.
type CallGraph struct {
	order []string
	calls map[string][]string
}

// NewCallGraph creates an empty call graph.
func NewCallGraph() *CallGraph {
	return &CallGraph{calls: make(map[string][]string)}
}

// Declare registers a caller with an empty call list unless it is already known.
func (g *CallGraph) Declare(name string) {
	if _, ok := g.calls[name]; ok {
		return
	}
	g.order = append(g.order, name)
	g.calls[name] = []string{}
}

// AddCall appends callee to the call list of caller.
func (g *CallGraph) AddCall(caller, callee string) {
	g.Declare(caller)
	g.calls[caller] = append(g.calls[caller], callee)
}

// Has reports whether name has been declared.
func (g *CallGraph) Has(name string) bool {
	_, ok := g.calls[name]
	return ok
}

// Callers returns the declared function names in first-seen order.
func (g *CallGraph) Callers() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Callees returns the recorded callee text of caller.
func (g *CallGraph) Callees(caller string) []string {
	calls := g.calls[caller]
	out := make([]string, len(calls))
	copy(out, calls)
	return out
}

// Len returns the number of declared callers.
func (g *CallGraph) Len() int {
	return len(g.order)
}

// Edges returns one calls edge per recorded call, in render order.
func (g *CallGraph) Edges() []Edge {
	var edges []Edge
	for _, caller := range g.order {
		for _, callee := range g.calls[caller] {
			edges = append(edges, Edge{Source: caller, Target: callee, Relation: RelationCalls})
		}
	}
	return edges
}

// Nodes returns the declared functions followed by callees that were never
// declared in the file. Each name appears once.
func (g *CallGraph) Nodes(filePath string) []Node {
	seen := make(map[string]bool)
	var nodes []Node
	add := func(name, kind string) {
		if seen[name] {
			return
		}
		seen[name] = true
		nodes = append(nodes, Node{
			ID:       util.GenerateNodeID(filePath, name),
			Name:     name,
			Kind:     kind,
			FilePath: filePath,
		})
	}
	for _, caller := range g.order {
		add(caller, KindFunction)
	}
	for _, caller := range g.order {
		for _, callee := range g.calls[caller] {
			add(callee, KindCallee)
		}
	}
	return nodes
}
