// Package cli wires the analyzer, store and MCP server into cobra commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"refmap/internal/analyzer"
	"refmap/internal/scanner"
	"refmap/internal/server"
	"refmap/internal/store"
)

// defaultDB is the value --db takes when given without a path.
const defaultDB = "default"

type graphOptions struct {
	stdout bool
	db     string
	watch  bool
	trace  bool
}

// NewRootCommand builds the refmap command tree.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:          "refmap",
		Short:        "Render call and class graphs of a source file as Graphviz DOT",
		Version:      version,
		SilenceUsage: true,
	}
	root.AddCommand(
		NewGraphCommand("calls", analyzer.ModeCalls),
		NewGraphCommand("classes", analyzer.ModeClasses),
		newServeCommand(version),
	)
	return root
}

// NewGraphCommand builds a command that analyses one file in mode. It is
// used both as a refmap subcommand and as the root of the standalone
// parse-fun-refs and parse-class-refs binaries.
func NewGraphCommand(use string, mode analyzer.Mode) *cobra.Command {
	var opts graphOptions
	short := "Write the function call graph of a file as DOT"
	if mode == analyzer.ModeClasses {
		short = "Write the class member and inheritance graph of a file as DOT"
	}

	cmd := &cobra.Command{
		Use:          use + " [file]",
		Short:        short,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "Please provide a source file as argument.")
				return nil
			}
			return runGraph(cmd.Context(), cmd, args[0], mode, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "Print DOT to stdout instead of writing a .dot file")
	cmd.Flags().StringVar(&opts.db, "db", "", "Record the relationships in a SQLite database (default path when no value is given)")
	cmd.Flags().Lookup("db").NoOptDefVal = defaultDB
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Re-run whenever the file changes")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "Log every visited syntax node to stderr")
	return cmd
}

func runGraph(ctx context.Context, cmd *cobra.Command, path string, mode analyzer.Mode, opts graphOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var aopts []analyzer.Option
	if opts.trace {
		aopts = append(aopts, analyzer.WithTrace(log.New(cmd.ErrOrStderr(), "", 0)))
	}
	an := analyzer.New(aopts...)

	var st *store.Store
	if opts.db != "" {
		dbPath, err := resolveDBPath(opts.db)
		if err != nil {
			return err
		}
		st, err = store.Open(dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	once := func() error {
		return analyzeOnce(ctx, an, st, path, mode, opts.stdout, cmd.OutOrStdout(), cmd.ErrOrStderr())
	}
	if err := once(); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}

	w, err := newFileWatcher(path)
	if err != nil {
		return err
	}
	log.Printf("[watch] Watching %s", path)
	return w.run(ctx, func() {
		if err := once(); err != nil {
			log.Printf("[watch] Error: %v", err)
		}
	})
}

func analyzeOnce(ctx context.Context, an *analyzer.Analyzer, st *store.Store, path string, mode analyzer.Mode, toStdout bool, stdout, stderr io.Writer) error {
	r, err := an.AnalyzeFile(path, mode)
	if errors.Is(err, scanner.ErrParse) {
		fmt.Fprintf(stderr, "Could not read source file: %s\n  %v\n", path, err)
		return nil
	}
	if err != nil {
		return err
	}

	if st != nil {
		if err := st.Save(ctx, r.Path, string(r.Mode), r.Nodes(), r.Edges()); err != nil {
			return fmt.Errorf("failed to record relationships: %w", err)
		}
	}

	if toStdout {
		fmt.Fprintln(stdout, r.DOT)
		return nil
	}
	out, err := analyzer.WriteDOT(r)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Graphviz DOT output written to %s\n", out)
	return nil
}

func resolveDBPath(flag string) (string, error) {
	if flag == defaultDB {
		return store.DefaultDBPath()
	}
	return flag, nil
}

func newServeCommand(version string) *cobra.Command {
	var root, db string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyses as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := server.Options{Root: root, Version: version}
			if db != "" {
				dbPath, err := resolveDBPath(db)
				if err != nil {
					return err
				}
				st, err := store.Open(dbPath)
				if err != nil {
					return err
				}
				defer st.Close()
				opts.Store = st
			}

			s, err := server.New(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return s.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Workspace root for relative paths (default: enclosing git root)")
	cmd.Flags().StringVar(&db, "db", "", "Record every analysis in a SQLite database (default path when no value is given)")
	cmd.Flags().Lookup("db").NoOptDefVal = defaultDB
	return cmd
}
