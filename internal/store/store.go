// Package store persists analysis runs in a single SQLite database: one row
// per run plus the spans and compliance results it produced. The pipeline
// itself never touches the store; the CLI and the MCP server write runs
// after an analysis completes.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/vertragslab/klausel/internal/rules"
	"github.com/vertragslab/klausel/internal/span"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.klausel/klausel.db"

// Run is one persisted analysis.
type Run struct {
	ID        string
	DocID     string
	CreatedAt time.Time
	// KeyFacts and Summary are stored as produced: JSON for the facts,
	// markdown for the summary.
	KeyFactsJSON string
	Summary      string
	SpanCount    int
	RulesPassed  int
	RulesFailed  int
}

// ListOpts controls pagination for ListRuns.
type ListOpts struct {
	Limit  int
	Offset int
	DocID  string
}

// Store is the persistence interface consumed by the CLI and MCP layers.
type Store interface {
	SaveRun(ctx context.Context, run *Run, spans []span.Span, compliance []rules.Result) (string, error)
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, opts ListOpts) ([]*Run, error)
	GetSpans(ctx context.Context, runID string) ([]span.Span, error)
	GetCompliance(ctx context.Context, runID string) ([]rules.Result, error)
	DeleteRun(ctx context.Context, runID string) error
	Close() error
}

// SQLiteStore implements Store on a single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (and if needed creates) the database at cfg path. Pass
// ":memory:" for in-memory databases (testing).
func NewStore(dbPath string) (Store, error) {
	if dbPath == "" {
		dbPath = expandPath(DefaultDBPath)
	}
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// newRunID returns a fresh run identifier.
func newRunID() string {
	return uuid.NewString()
}

// expandPath expands ~ to the home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
