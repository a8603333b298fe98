package analyzer

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refmap/internal/graph"
	"refmap/internal/scanner"
	"refmap/internal/syntax"
)

func TestCallGraphOrderAndEdges(t *testing.T) {
	root := syntax.Block(
		syntax.Function("a", syntax.Call("b"), syntax.Call("c")),
		syntax.Function("b", syntax.Call("c")),
	)

	g := New().CallGraph(root)

	assert.Equal(t, []string{"a", "b"}, g.Callers())
	assert.Equal(t, []graph.Edge{
		{Source: "a", Target: "b", Relation: graph.RelationCalls},
		{Source: "a", Target: "c", Relation: graph.RelationCalls},
		{Source: "b", Target: "c", Relation: graph.RelationCalls},
	}, g.Edges())
}

func TestCallGraphCallsOutsideFunctionsAreDropped(t *testing.T) {
	root := syntax.Block(
		syntax.Call("setup"),
		syntax.Function("a", syntax.Call("b")),
	)

	g := New().CallGraph(root)

	assert.Equal(t, []string{"b"}, g.Callees("a"))
	assert.Len(t, g.Edges(), 1)
}

func TestCallGraphCursorIsNotRestored(t *testing.T) {
	root := syntax.Block(
		syntax.Function("outer",
			syntax.Call("before"),
			syntax.Function("inner", syntax.Call("x")),
			syntax.Call("after"),
		),
		syntax.Call("topLevel"),
	)

	g := New().CallGraph(root)

	assert.Equal(t, []string{"before"}, g.Callees("outer"))
	assert.Equal(t, []string{"x", "after", "topLevel"}, g.Callees("inner"))
}

func TestCallGraphMergesRedeclaredFunctions(t *testing.T) {
	root := syntax.Block(
		syntax.Function("a", syntax.Call("b")),
		syntax.Function("z"),
		syntax.Function("a", syntax.Call("c")),
	)

	g := New().CallGraph(root)

	assert.Equal(t, []string{"a", "z"}, g.Callers())
	assert.Equal(t, []string{"b", "c"}, g.Callees("a"))
}

func TestCallGraphSelfAndNestedCalls(t *testing.T) {
	root := syntax.Block(
		syntax.Function("fact", syntax.Call("fact", syntax.Call("dec"))),
		syntax.Function("", syntax.Call("anon")),
	)

	g := New().CallGraph(root)

	assert.Equal(t, []string{"fact", "dec", "anon"}, g.Callees("fact"))
}

func TestClassGraph(t *testing.T) {
	root := syntax.Block(
		syntax.Class("B", []syntax.Heritage{syntax.Implements("I"), syntax.Extends("A"), syntax.Extends("Z")},
			syntax.Method("m1"),
			&syntax.Node{Kind: syntax.KindOther, Type: "public_field_definition"},
			syntax.Method("m2"),
			syntax.Method(""),
		),
	)

	g := New().ClassGraph(root)

	rec, ok := g.Get("B")
	require.True(t, ok)
	assert.Equal(t, "A", rec.Extends)
	assert.Equal(t, []string{"m1", "m2"}, rec.Methods)
}

func TestClassGraphDuplicateNameOverwrites(t *testing.T) {
	root := syntax.Block(
		syntax.Class("C", []syntax.Heritage{syntax.Extends("Old")}, syntax.Method("first")),
		syntax.Class("D", nil),
		syntax.Class("C", nil, syntax.Method("second")),
	)

	g := New().ClassGraph(root)

	classes := g.Classes()
	require.Len(t, classes, 2)
	assert.Equal(t, graph.ClassRecord{Name: "C", Methods: []string{"second"}}, classes[0])
	assert.Equal(t, "D", classes[1].Name)
}

func TestClassGraphNestedClasses(t *testing.T) {
	inner := syntax.Class("Inner", nil, syntax.Method("x"))
	root := syntax.Block(
		syntax.Class("Outer", nil, syntax.Method("make", inner)),
	)

	g := New().ClassGraph(root)

	outer, _ := g.Get("Outer")
	assert.Equal(t, []string{"make"}, outer.Methods)
	nested, ok := g.Get("Inner")
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, nested.Methods)
}

func TestAnalyzeSourceCalls(t *testing.T) {
	src := `
init();

function a() {
  b();
  c();
}

function b() {
  c();
  c();
}
`
	r, err := New().AnalyzeSource("app.ts", []byte(src), ModeCalls)
	require.NoError(t, err)

	want := "digraph G {\n" +
		"    \"a\" -> \"b\";\n" +
		"    \"a\" -> \"c\";\n" +
		"    \"b\" -> \"c\";\n" +
		"    \"b\" -> \"c\";\n" +
		"}"
	assert.Equal(t, want, r.DOT)
	assert.Len(t, r.Edges(), 4)
}

func TestAnalyzeSourceClasses(t *testing.T) {
	src := `
class B extends A implements Serializable {
  m1() {}
  m2() {}
}

class C { old() {} }
class C extends B { fresh() {} }
`
	r, err := New().AnalyzeSource("shapes.ts", []byte(src), ModeClasses)
	require.NoError(t, err)

	want := "digraph G {\n" +
		"    \"B\" [shape=box];\n" +
		"    \"B\" -> \"B.m1\";\n" +
		"    \"B.m1\" [shape=ellipse];\n" +
		"    \"B\" -> \"B.m2\";\n" +
		"    \"B.m2\" [shape=ellipse];\n" +
		"    \"A\" -> \"B\" [label=\"inherits\"];\n" +
		"    \"C\" [shape=box];\n" +
		"    \"C\" -> \"C.fresh\";\n" +
		"    \"C.fresh\" [shape=ellipse];\n" +
		"    \"B\" -> \"C\" [label=\"inherits\"];\n" +
		"}"
	assert.Equal(t, want, r.DOT)
	assert.NotContains(t, r.DOT, "Serializable")
}

func TestAnalyzeSourceCursorFollowsNestedDeclaration(t *testing.T) {
	src := `
function outer() {
  before();
  function inner() {
    x();
  }
  after();
}
topLevel();
`
	r, err := New().AnalyzeSource("nested.ts", []byte(src), ModeCalls)
	require.NoError(t, err)

	want := "digraph G {\n" +
		"    \"outer\" -> \"before\";\n" +
		"    \"inner\" -> \"x\";\n" +
		"    \"inner\" -> \"after\";\n" +
		"    \"inner\" -> \"topLevel\";\n" +
		"}"
	assert.Equal(t, want, r.DOT)
}

func TestAnalyzeSourceSkipsTaggedTemplates(t *testing.T) {
	r, err := New().AnalyzeSource("p.ts", []byte("function f() { tag`x${y}`; g(); }"), ModeCalls)
	require.NoError(t, err)

	assert.Equal(t, "digraph G {\n    \"f\" -> \"g\";\n}", r.DOT)
}

func TestAnalyzeSourceGenericSuperclass(t *testing.T) {
	r, err := New().AnalyzeSource("repo.ts", []byte("class UserRepo extends Repo<User> { find() {} }\n"), ModeClasses)
	require.NoError(t, err)

	assert.Contains(t, r.DOT, `"Repo" -> "UserRepo" [label="inherits"];`)
	assert.NotContains(t, r.DOT, "<User>")
}

func TestAnalyzeSourceEmpty(t *testing.T) {
	for _, mode := range []Mode{ModeCalls, ModeClasses} {
		r, err := New().AnalyzeSource("empty.ts", []byte("const x = 1;\n"), mode)
		require.NoError(t, err)
		assert.Equal(t, "digraph G {\n}", r.DOT, string(mode))
	}
}

func TestAnalyzeSourceUnknownMode(t *testing.T) {
	_, err := New().AnalyzeSource("a.ts", nil, Mode("imports"))
	assert.True(t, errors.Is(err, ErrUnknownMode))
}

func TestAnalyzeFileIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.ts")
	src := "function a() { b(); this.c(); }\nclass K extends J { run() { a(); } }\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	for _, mode := range []Mode{ModeCalls, ModeClasses} {
		first, err := New().AnalyzeFile(path, mode)
		require.NoError(t, err)
		second, err := New().AnalyzeFile(path, mode)
		require.NoError(t, err)
		assert.Equal(t, first.DOT, second.DOT)
	}
}

func TestAnalyzeFileMissing(t *testing.T) {
	_, err := New().AnalyzeFile(filepath.Join(t.TempDir(), "nope.ts"), ModeCalls)
	assert.True(t, errors.Is(err, scanner.ErrParse))
}

func TestWithTraceLogsVisitedNodes(t *testing.T) {
	var buf bytes.Buffer
	a := New(WithTrace(log.New(&buf, "", 0)))

	_, err := a.AnalyzeSource("a.ts", []byte("function f() { g(); }"), ModeCalls)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "visiting node: program")
	assert.Contains(t, out, "visiting node: function_declaration")
	assert.Contains(t, out, "visiting node: call_expression")
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Classes ")
	require.NoError(t, err)
	assert.Equal(t, ModeClasses, m)

	_, err = ParseMode("graph")
	assert.True(t, errors.Is(err, ErrUnknownMode))
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a/b.ts", "a/b.dot"},
		{"x.test.ts", "x.test.dot"},
		{"Makefile", "Makefile.dot"},
		{"dir.v2/file", "dir.v2/file.dot"},
		{"main.go", "main.dot"},
		{"dir/.eslintrc", "dir/.eslintrc.dot"},
		{".config.ts", ".config.dot"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), OutputPath(filepath.FromSlash(tt.in)))
		})
	}
}

func TestWriteDOTOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.ts")
	require.NoError(t, os.WriteFile(path, []byte("function m() { n(); }"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m.dot"), []byte("stale content that is longer"), 0644))

	r, err := New().AnalyzeFile(path, ModeCalls)
	require.NoError(t, err)
	out, err := WriteDOT(r)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, r.DOT, string(data))
	assert.True(t, strings.HasSuffix(out, "m.dot"))
}
