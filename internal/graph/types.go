package graph

// Node represents a named entity in an analysed file.
type Node struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	FilePath string `json:"file_path"`
}

// Edge represents a relationship between two nodes.
type Edge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"` // calls, has_method, inherits
}

const (
	RelationCalls     = "calls"
	RelationHasMethod = "has_method"
	RelationInherits  = "inherits"
)

const (
	KindFunction = "function"
	KindCallee   = "callee"
	KindClass    = "class"
	KindMethod   = "method"
)
