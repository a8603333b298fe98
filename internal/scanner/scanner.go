package scanner

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"refmap/internal/syntax"
)

// ErrParse is returned when no syntax tree could be produced for a file.
var ErrParse = errors.New("parse failed")

// Scanner turns source files into syntax trees using tree-sitter.
type Scanner struct {
	grammars map[string]*Grammar
	fallback *Grammar
}

// New creates a Scanner with the built-in grammars. Files with an unknown
// extension are parsed as TypeScript.
func New() *Scanner {
	return &Scanner{
		grammars: Grammars,
		fallback: typescript,
	}
}

// GrammarFor picks the grammar for path by its extension.
func (s *Scanner) GrammarFor(path string) *Grammar {
	if g, ok := s.grammars[strings.ToLower(filepath.Ext(path))]; ok {
		return g
	}
	return s.fallback
}

// ParseFile reads and parses the file at path.
func (s *Scanner) ParseFile(path string) (*syntax.Node, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return s.Parse(s.GrammarFor(path), src)
}

// Parse parses src with grammar g and converts the tree.
func (s *Scanner) Parse(g *Grammar, src []byte) (*syntax.Node, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tree_sitter.NewLanguage(g.language())); err != nil {
		return nil, fmt.Errorf("%w: load %s grammar: %v", ErrParse, g.Name, err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("%w: %s parser returned no tree", ErrParse, g.Name)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("%w: empty %s tree", ErrParse, g.Name)
	}
	if root.HasError() {
		log.Printf("[%s] Warning: source contains syntax errors, results may be partial", g.Name)
	}

	c := &converter{grammar: g, src: src}
	return c.convert(root, false), nil
}

// converter copies a tree-sitter tree into syntax nodes. Only named nodes
// are kept; punctuation and keywords carry nothing the analyzers use.
type converter struct {
	grammar *Grammar
	src     []byte
}

func (c *converter) convert(n *tree_sitter.Node, member bool) *syntax.Node {
	g := c.grammar
	kind := n.Kind()
	out := &syntax.Node{Type: kind}

	switch {
	case member && g.methods[kind] && (g.isMethod == nil || g.isMethod(c, n)):
		out.Kind = syntax.KindMethod
		out.Name = c.fieldText(n, "name")
	case g.functions[kind]:
		out.Kind = syntax.KindFunction
		out.Name = c.fieldText(n, "name")
	case g.calls[kind] && !isTaggedTemplate(n):
		out.Kind = syntax.KindCall
		out.Callee = c.fieldText(n, g.calleeField)
	case g.classes[kind]:
		out.Kind = syntax.KindClass
		out.Name = c.fieldText(n, "name")
		if g.heritage != nil {
			out.Heritage = g.heritage(c, n)
		}
	}

	var body *tree_sitter.Node
	if out.Kind == syntax.KindClass {
		body = n.ChildByFieldName("body")
	}

	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		if body != nil && child.Id() == body.Id() {
			out.Children = append(out.Children, c.convertBody(child, out))
			continue
		}
		out.Children = append(out.Children, c.convert(child, member && g.wrappers[kind]))
	}
	return out
}

// convertBody converts a class body and fills class.Members with its direct
// members, looking through wrapper nodes such as Python decorators.
func (c *converter) convertBody(body *tree_sitter.Node, class *syntax.Node) *syntax.Node {
	out := &syntax.Node{Type: body.Kind()}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		child := body.NamedChild(i)
		if child == nil {
			continue
		}
		m := c.convert(child, true)
		out.Children = append(out.Children, m)
		class.Members = append(class.Members, c.unwrapMember(m))
	}
	return out
}

func (c *converter) unwrapMember(m *syntax.Node) *syntax.Node {
	if !c.grammar.wrappers[m.Type] {
		return m
	}
	for _, child := range m.Children {
		if child.Kind == syntax.KindMethod {
			return child
		}
	}
	return m
}

// isTaggedTemplate reports whether a call node is really a tagged template
// such as gql`...`, which tree-sitter parses as a call with a template
// string argument.
func isTaggedTemplate(n *tree_sitter.Node) bool {
	args := n.ChildByFieldName("arguments")
	return args != nil && args.Kind() == "template_string"
}

// fieldText returns the source text of the child stored under field.
func (c *converter) fieldText(n *tree_sitter.Node, field string) string {
	child := n.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Utf8Text(c.src)
}

// namedTexts returns the text of every named child of n whose type is not
// in skip.
func (c *converter) namedTexts(n *tree_sitter.Node, skip ...string) []string {
	var out []string
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		kind := child.Kind()
		skipped := false
		for _, s := range skip {
			if kind == s {
				skipped = true
				break
			}
		}
		if !skipped {
			out = append(out, child.Utf8Text(c.src))
		}
	}
	return out
}
