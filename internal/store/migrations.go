package store

import "fmt"

// bootstrapDDL creates the schema. Every statement is idempotent so migrate
// can run on every open.
var bootstrapDDL = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id     TEXT PRIMARY KEY,
		doc_id     TEXT NOT NULL,
		created_at TEXT NOT NULL,
		key_facts  TEXT NOT NULL DEFAULT '',
		summary    TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS run_spans (
		run_id     TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		span_id    TEXT NOT NULL,
		item_type  TEXT NOT NULL,
		subtype    TEXT NOT NULL DEFAULT '',
		text_raw   TEXT NOT NULL DEFAULT '',
		value_norm TEXT NOT NULL DEFAULT '',
		currency   TEXT NOT NULL DEFAULT '',
		unit       TEXT NOT NULL DEFAULT '',
		start_off  INTEGER,
		end_off    INTEGER,
		confidence REAL NOT NULL DEFAULT 1.0,
		extractor  TEXT NOT NULL DEFAULT '',
		version    TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, span_id)
	)`,
	`CREATE TABLE IF NOT EXISTS run_compliance (
		run_id   TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		rule_id  TEXT NOT NULL,
		passed   INTEGER NOT NULL,
		severity TEXT NOT NULL DEFAULT '',
		message  TEXT NOT NULL DEFAULT '',
		evidence TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, rule_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_doc_id ON runs(doc_id)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
}

// migrate applies the schema inside one transaction.
func (s *SQLiteStore) migrate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ddl := range bootstrapDDL {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return tx.Commit()
}
