package scanner

import (
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"refmap/internal/syntax"
)

// Grammar maps the node types of one tree-sitter language onto the shapes
// the analyzers understand.
type Grammar struct {
	Name     string
	language func() unsafe.Pointer

	functions map[string]bool // named function declarations
	calls     map[string]bool // call expressions, callee under calleeField
	classes   map[string]bool // class declarations, members under "body"
	methods   map[string]bool // method members, only as direct class members
	wrappers  map[string]bool // nodes that wrap a class member (decorators)

	calleeField string
	heritage    func(c *converter, class *tree_sitter.Node) []syntax.Heritage
	isMethod    func(c *converter, member *tree_sitter.Node) bool
}

func set(kinds ...string) map[string]bool {
	m := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}

var typescript = &Grammar{
	Name:     "typescript",
	language: tree_sitter_typescript.LanguageTypescript,
	functions: set(
		"function_declaration",
		"generator_function_declaration",
		"function_signature",
	),
	calls:       set("call_expression"),
	classes:     set("class_declaration", "abstract_class_declaration"),
	methods:     set("method_definition", "method_signature", "abstract_method_signature"),
	calleeField: "function",
	heritage:    typescriptHeritage,
	isMethod:    isPlainMethod,
}

var tsx = &Grammar{
	Name:        "tsx",
	language:    tree_sitter_typescript.LanguageTSX,
	functions:   typescript.functions,
	calls:       typescript.calls,
	classes:     typescript.classes,
	methods:     typescript.methods,
	calleeField: "function",
	heritage:    typescriptHeritage,
	isMethod:    isPlainMethod,
}

var javascript = &Grammar{
	Name:        "javascript",
	language:    tree_sitter_javascript.Language,
	functions:   set("function_declaration", "generator_function_declaration"),
	calls:       set("call_expression"),
	classes:     set("class_declaration"),
	methods:     set("method_definition"),
	calleeField: "function",
	heritage:    javascriptHeritage,
	isMethod:    isPlainMethod,
}

var golang = &Grammar{
	Name:        "go",
	language:    tree_sitter_go.Language,
	functions:   set("function_declaration", "method_declaration"),
	calls:       set("call_expression"),
	classes:     set(),
	methods:     set(),
	calleeField: "function",
}

var python = &Grammar{
	Name:        "python",
	language:    tree_sitter_python.Language,
	functions:   set("function_definition"),
	calls:       set("call"),
	classes:     set("class_definition"),
	methods:     set("function_definition"),
	wrappers:    set("decorated_definition"),
	calleeField: "function",
	heritage:    pythonHeritage,
}

// Grammars maps file extensions to grammars.
var Grammars = map[string]*Grammar{
	".ts":  typescript,
	".mts": typescript,
	".cts": typescript,
	".tsx": tsx,
	".js":  javascript,
	".mjs": javascript,
	".cjs": javascript,
	".jsx": javascript,
	".go":  golang,
	".py":  python,
}

// typescriptHeritage reads `extends` and `implements` clauses from the
// class_heritage child of a class declaration.
func typescriptHeritage(c *converter, class *tree_sitter.Node) []syntax.Heritage {
	var out []syntax.Heritage
	for i := uint(0); i < class.NamedChildCount(); i++ {
		child := class.NamedChild(i)
		if child == nil || child.Kind() != "class_heritage" {
			continue
		}
		for j := uint(0); j < child.NamedChildCount(); j++ {
			clause := child.NamedChild(j)
			if clause == nil {
				continue
			}
			var kind syntax.HeritageKind
			switch clause.Kind() {
			case "extends_clause":
				kind = syntax.HeritageExtends
			case "implements_clause":
				kind = syntax.HeritageImplements
			default:
				continue
			}
			out = append(out, syntax.Heritage{Kind: kind, Types: c.namedTexts(clause, "type_arguments", "comment")})
		}
	}
	return out
}

// javascriptHeritage handles `class_heritage: extends <expression>`.
func javascriptHeritage(c *converter, class *tree_sitter.Node) []syntax.Heritage {
	for i := uint(0); i < class.NamedChildCount(); i++ {
		child := class.NamedChild(i)
		if child == nil || child.Kind() != "class_heritage" {
			continue
		}
		if types := c.namedTexts(child, "comment"); len(types) > 0 {
			return []syntax.Heritage{syntax.Extends(types[0])}
		}
	}
	return nil
}

// pythonHeritage treats the positional base classes as one extends clause.
func pythonHeritage(c *converter, class *tree_sitter.Node) []syntax.Heritage {
	bases := class.ChildByFieldName("superclasses")
	if bases == nil {
		return nil
	}
	types := c.namedTexts(bases, "keyword_argument", "list_splat", "dictionary_splat", "comment")
	if len(types) == 0 {
		return nil
	}
	return []syntax.Heritage{syntax.Extends(types...)}
}

// isPlainMethod rejects constructors and get/set accessors.
func isPlainMethod(c *converter, member *tree_sitter.Node) bool {
	for i := uint(0); i < member.ChildCount(); i++ {
		child := member.Child(i)
		if child == nil || child.IsNamed() {
			continue
		}
		if k := child.Kind(); k == "get" || k == "set" {
			return false
		}
	}
	return c.fieldText(member, "name") != "constructor"
}
