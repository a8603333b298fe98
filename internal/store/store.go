// Package store persists extracted relationships in a sqlite database so
// they can be queried after the run.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"refmap/internal/graph"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	file_path   TEXT NOT NULL,
	mode        TEXT NOT NULL,
	analyzed_at TEXT NOT NULL,
	PRIMARY KEY (file_path, mode)
);
CREATE TABLE IF NOT EXISTS nodes (
	file_path TEXT NOT NULL,
	mode      TEXT NOT NULL,
	id        TEXT NOT NULL,
	name      TEXT NOT NULL,
	kind      TEXT NOT NULL,
	PRIMARY KEY (file_path, mode, id)
);
CREATE TABLE IF NOT EXISTS edges (
	file_path TEXT NOT NULL,
	mode      TEXT NOT NULL,
	seq       INTEGER NOT NULL,
	source    TEXT NOT NULL,
	target    TEXT NOT NULL,
	relation  TEXT NOT NULL,
	PRIMARY KEY (file_path, mode, seq)
);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target);
`

// Run describes one stored analysis.
type Run struct {
	FilePath   string    `json:"file_path"`
	Mode       string    `json:"mode"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// Store is a sqlite-backed relationship store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// sqlite has a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces everything stored for (filePath, mode) with nodes and edges.
// Edge order is kept.
func (s *Store) Save(ctx context.Context, filePath, mode string, nodes []graph.Node, edges []graph.Edge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"runs", "nodes", "edges"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE file_path = ? AND mode = ?", filePath, mode); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (file_path, mode, analyzed_at) VALUES (?, ?, ?)",
		filePath, mode, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO nodes (file_path, mode, id, name, kind) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare node insert: %w", err)
	}
	defer nodeStmt.Close()
	for _, n := range nodes {
		if _, err := nodeStmt.ExecContext(ctx, filePath, mode, n.ID, n.Name, n.Kind); err != nil {
			return fmt.Errorf("failed to insert node %s: %w", n.Name, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, "INSERT INTO edges (file_path, mode, seq, source, target, relation) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer edgeStmt.Close()
	for i, e := range edges {
		if _, err := edgeStmt.ExecContext(ctx, filePath, mode, i, e.Source, e.Target, e.Relation); err != nil {
			return fmt.Errorf("failed to insert edge %s -> %s: %w", e.Source, e.Target, err)
		}
	}

	return tx.Commit()
}

// Edges returns the stored edges of (filePath, mode) in saved order.
func (s *Store) Edges(ctx context.Context, filePath, mode string) ([]graph.Edge, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT source, target, relation FROM edges WHERE file_path = ? AND mode = ? ORDER BY seq",
		filePath, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	var edges []graph.Edge
	for rows.Next() {
		var e graph.Edge
		if err := rows.Scan(&e.Source, &e.Target, &e.Relation); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// Nodes returns the stored nodes of (filePath, mode) ordered by name.
func (s *Store) Nodes(ctx context.Context, filePath, mode string) ([]graph.Node, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, kind FROM nodes WHERE file_path = ? AND mode = ? ORDER BY name",
		filePath, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []graph.Node
	for rows.Next() {
		n := graph.Node{FilePath: filePath}
		if err := rows.Scan(&n.ID, &n.Name, &n.Kind); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// Runs lists every stored analysis, most recent first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT file_path, mode, analyzed_at FROM runs ORDER BY analyzed_at DESC, file_path")
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var at string
		if err := rows.Scan(&r.FilePath, &r.Mode, &at); err != nil {
			return nil, err
		}
		if r.AnalyzedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", at, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
