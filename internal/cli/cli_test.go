package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"refmap/internal/analyzer"
	"refmap/internal/graph"
	"refmap/internal/store"
)

const callsSource = `
function main() {
  parse();
  render();
}

function parse() {
  read();
}
`

func execute(t *testing.T, args ...string) (string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand("test")
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return stdout.String(), stderr.String()
}

func writeSource(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestMissingArgument(t *testing.T) {
	stdout, stderr := execute(t, "calls")

	assert.Empty(t, stdout)
	assert.Equal(t, "Please provide a source file as argument.\n", stderr)
}

func TestUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.ts")

	stdout, stderr := execute(t, "classes", path)

	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Could not read source file: "+path)
	assert.Contains(t, stderr, "no such file or directory")
	_, err := os.Stat(filepath.Join(dir, "missing.dot"))
	assert.True(t, os.IsNotExist(err))
}

func TestCallsWritesDotFile(t *testing.T) {
	path := writeSource(t, "app.ts", callsSource)
	out := filepath.Join(filepath.Dir(path), "app.dot")

	stdout, _ := execute(t, "calls", path)
	assert.Equal(t, "Graphviz DOT output written to "+out+"\n", stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	want := "digraph G {\n" +
		"    \"main\" -> \"parse\";\n" +
		"    \"main\" -> \"render\";\n" +
		"    \"parse\" -> \"read\";\n" +
		"}"
	assert.Equal(t, want, string(data))
}

func TestRepeatedRunsAreByteIdentical(t *testing.T) {
	path := writeSource(t, "shapes.ts", "class Square extends Shape { area() {} }\n")
	out := filepath.Join(filepath.Dir(path), "shapes.dot")

	execute(t, "classes", path)
	first, err := os.ReadFile(out)
	require.NoError(t, err)

	execute(t, "classes", path)
	second, err := os.ReadFile(out)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, string(first), `"Shape" -> "Square" [label="inherits"];`)
}

func TestExtraArgumentsAreIgnored(t *testing.T) {
	path := writeSource(t, "app.ts", callsSource)

	stdout, _ := execute(t, "calls", path, "extra", "args")

	assert.Contains(t, stdout, "Graphviz DOT output written to ")
	assert.FileExists(t, filepath.Join(filepath.Dir(path), "app.dot"))
}

func TestStdoutFlag(t *testing.T) {
	path := writeSource(t, "app.ts", callsSource)

	stdout, _ := execute(t, "calls", "--stdout", path)

	assert.Contains(t, stdout, "digraph G {\n")
	_, err := os.Stat(filepath.Join(filepath.Dir(path), "app.dot"))
	assert.True(t, os.IsNotExist(err))
}

func TestDBFlagRecordsRelationships(t *testing.T) {
	path := writeSource(t, "app.ts", callsSource)
	dbPath := filepath.Join(t.TempDir(), "refmap.db")

	execute(t, "calls", "--stdout", "--db="+dbPath, path)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	edges, err := st.Edges(context.Background(), path, string(analyzer.ModeCalls))
	require.NoError(t, err)
	assert.Equal(t, []graph.Edge{
		{Source: "main", Target: "parse", Relation: graph.RelationCalls},
		{Source: "main", Target: "render", Relation: graph.RelationCalls},
		{Source: "parse", Target: "read", Relation: graph.RelationCalls},
	}, edges)
}

func TestDBFlagReadOnlyDatabaseFails(t *testing.T) {
	path := writeSource(t, "app.ts", callsSource)
	dbPath := filepath.Join(t.TempDir(), "refmap.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand("test")
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"calls", "--db=file:" + dbPath + "?mode=ro", path})

	err = cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record relationships")
	_, statErr := os.Stat(filepath.Join(filepath.Dir(path), "app.dot"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDBFlagWithoutValueUsesDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("REFMAP_HOME", home)
	path := writeSource(t, "app.ts", callsSource)

	execute(t, "calls", "--stdout", "--db", path)

	_, err := os.Stat(filepath.Join(home, store.DBFileName))
	assert.NoError(t, err)
}

func TestStandaloneGraphCommand(t *testing.T) {
	path := writeSource(t, "app.ts", callsSource)

	var stdout, stderr bytes.Buffer
	cmd := NewGraphCommand("parse-fun-refs", analyzer.ModeCalls)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{path})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, stdout.String(), "Graphviz DOT output written to ")
	assert.Empty(t, stderr.String())
}

func TestTraceFlag(t *testing.T) {
	path := writeSource(t, "app.ts", callsSource)

	_, stderr := execute(t, "calls", "--stdout", "--trace", path)

	assert.Contains(t, stderr, "visiting node: function_declaration")
}

func TestFileWatcherReportsWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := writeSource(t, "app.ts", callsSource)
	other := filepath.Join(filepath.Dir(path), "other.ts")

	w, err := newFileWatcher(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.run(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	require.NoError(t, os.WriteFile(other, []byte("function x() {}"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("function y() { z(); }"), 0644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
