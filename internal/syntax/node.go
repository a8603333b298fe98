package syntax

// Kind discriminates the node shapes the analyzers care about.
// Every other construct is KindOther and is only walked for its children.
type Kind uint8

const (
	KindOther Kind = iota
	KindFunction
	KindCall
	KindClass
	KindMethod
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindCall:
		return "call"
	case KindClass:
		return "class"
	case KindMethod:
		return "method"
	default:
		return "other"
	}
}

// HeritageKind tells an extends relation apart from an implements relation.
type HeritageKind uint8

const (
	HeritageExtends HeritageKind = iota + 1
	HeritageImplements
)

// Heritage is one heritage clause of a class declaration.
type Heritage struct {
	Kind  HeritageKind
	Types []string // source text of each target, in clause order
}

// Node is a parsed source construct.
type Node struct {
	Kind Kind
	Type string // grammar node type, e.g. "call_expression"

	Name     string     // function, class and method declarations
	Callee   string     // call expressions
	Heritage []Heritage // class declarations
	Members  []*Node    // class declarations: direct body members, in order

	Children []*Node
}

// FunctionName returns the declared name of a named function declaration.
func (n *Node) FunctionName() (string, bool) {
	if n == nil || n.Kind != KindFunction || n.Name == "" {
		return "", false
	}
	return n.Name, true
}

// CalleeText returns the raw text of a call's callee expression.
func (n *Node) CalleeText() (string, bool) {
	if n == nil || n.Kind != KindCall || n.Callee == "" {
		return "", false
	}
	return n.Callee, true
}

// ClassName returns the declared name of a named class declaration.
func (n *Node) ClassName() (string, bool) {
	if n == nil || n.Kind != KindClass || n.Name == "" {
		return "", false
	}
	return n.Name, true
}

// MethodName returns the name of a method member.
func (n *Node) MethodName() (string, bool) {
	if n == nil || n.Kind != KindMethod || n.Name == "" {
		return "", false
	}
	return n.Name, true
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the current node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Block returns an opaque container node.
func Block(children ...*Node) *Node {
	return &Node{Kind: KindOther, Children: children}
}

// Function returns a function declaration node.
func Function(name string, children ...*Node) *Node {
	return &Node{Kind: KindFunction, Name: name, Children: children}
}

// Call returns a call expression node. Children hold argument subtrees.
func Call(callee string, children ...*Node) *Node {
	return &Node{Kind: KindCall, Callee: callee, Children: children}
}

// Method returns a method member node.
func Method(name string, children ...*Node) *Node {
	return &Node{Kind: KindMethod, Name: name, Children: children}
}

// Class returns a class declaration whose children are its members.
func Class(name string, heritage []Heritage, members ...*Node) *Node {
	return &Node{
		Kind:     KindClass,
		Name:     name,
		Heritage: heritage,
		Members:  members,
		Children: members,
	}
}

// Extends returns an extends heritage clause.
func Extends(types ...string) Heritage {
	return Heritage{Kind: HeritageExtends, Types: types}
}

// Implements returns an implements heritage clause.
func Implements(types ...string) Heritage {
	return Heritage{Kind: HeritageImplements, Types: types}
}
