package graph

import "refmap/util"

// ClassRecord describes one class declaration.
type ClassRecord struct {
	Name    string   `json:"name"`
	Extends string   `json:"extends,omitempty"`
	Methods []string `json:"methods"`
}

// QualifiedMethod returns the "Class.method" label of a method.
func (r ClassRecord) QualifiedMethod(method string) string {
	return r.Name + "." + method
}

// ClassGraph maps class names to their records.
//
// Putting a record under a known name replaces it entirely; the name keeps
// its first-seen position in iteration order.
type ClassGraph struct {
	order   []string
	classes map[string]ClassRecord
}

// NewClassGraph creates an empty class graph.
func NewClassGraph() *ClassGraph {
	return &ClassGraph{classes: make(map[string]ClassRecord)}
}

// Put stores rec under rec.Name, overwriting any earlier record.
func (g *ClassGraph) Put(rec ClassRecord) {
	if _, ok := g.classes[rec.Name]; !ok {
		g.order = append(g.order, rec.Name)
	}
	methods := make([]string, len(rec.Methods))
	copy(methods, rec.Methods)
	rec.Methods = methods
	g.classes[rec.Name] = rec
}

// Get returns the record stored under name.
func (g *ClassGraph) Get(name string) (ClassRecord, bool) {
	rec, ok := g.classes[name]
	return rec, ok
}

// Classes returns all records in first-seen order.
func (g *ClassGraph) Classes() []ClassRecord {
	out := make([]ClassRecord, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.classes[name])
	}
	return out
}

// Len returns the number of recorded classes.
func (g *ClassGraph) Len() int {
	return len(g.order)
}

// Edges returns has_method and inherits edges in render order.
func (g *ClassGraph) Edges() []Edge {
	var edges []Edge
	for _, rec := range g.Classes() {
		for _, m := range rec.Methods {
			edges = append(edges, Edge{Source: rec.Name, Target: rec.QualifiedMethod(m), Relation: RelationHasMethod})
		}
		if rec.Extends != "" {
			edges = append(edges, Edge{Source: rec.Extends, Target: rec.Name, Relation: RelationInherits})
		}
	}
	return edges
}

// Nodes returns classes, their qualified methods, and superclasses that have
// no record of their own.
func (g *ClassGraph) Nodes(filePath string) []Node {
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
	for _, rec := range g.Classes() {
		add(rec.Name, KindClass)
		for _, m := range rec.Methods {
			add(rec.QualifiedMethod(m), KindMethod)
		}
	}
	for _, rec := range g.Classes() {
		if rec.Extends != "" {
			add(rec.Extends, KindClass)
		}
	}
	return nodes
}
