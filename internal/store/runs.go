package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vertragslab/klausel/internal/rules"
	"github.com/vertragslab/klausel/internal/span"
)

// SaveRun stores one analysis atomically: the run row plus its spans and
// compliance results. A missing run id is generated; the id is returned
// either way.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run, spans []span.Span, compliance []rules.Result) (string, error) {
	if run == nil {
		return "", fmt.Errorf("saving run: nil run")
	}
	if run.DocID == "" {
		return "", fmt.Errorf("saving run: no doc id")
	}
	if run.ID == "" {
		run.ID = newRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, doc_id, created_at, key_facts, summary) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.DocID, run.CreatedAt.Format(time.RFC3339), run.KeyFactsJSON, run.Summary)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	for _, sp := range spans {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_spans
			 (run_id, span_id, item_type, subtype, text_raw, value_norm, currency, unit, start_off, end_off, confidence, extractor, version)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, sp.ID, string(sp.ItemType), sp.Subtype, sp.TextRaw, sp.ValueNorm,
			sp.Currency, sp.Unit, nullInt(sp.Start), nullInt(sp.End), sp.Confidence,
			sp.Extractor, sp.Version)
		if err != nil {
			return "", fmt.Errorf("inserting span %s: %w", sp.ID, err)
		}
	}

	for _, c := range compliance {
		passed := 0
		if c.Passed {
			passed = 1
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_compliance (run_id, rule_id, passed, severity, message, evidence)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, c.RuleID, passed, c.Severity, c.Message, strings.Join(c.EvidenceIDs, ","))
		if err != nil {
			return "", fmt.Errorf("inserting compliance result %s: %w", c.RuleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return run.ID, nil
}

// GetRun loads one run row with its span and rule counts.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.run_id, r.doc_id, r.created_at, r.key_facts, r.summary,
		       (SELECT COUNT(*) FROM run_spans sp WHERE sp.run_id = r.run_id),
		       (SELECT COUNT(*) FROM run_compliance c WHERE c.run_id = r.run_id AND c.passed = 1),
		       (SELECT COUNT(*) FROM run_compliance c WHERE c.run_id = r.run_id AND c.passed = 0)
		FROM runs r WHERE r.run_id = ?`, runID)
	return scanRun(row)
}

// ListRuns returns runs in reverse chronological order.
func (s *SQLiteStore) ListRuns(ctx context.Context, opts ListOpts) ([]*Run, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	q := `
		SELECT r.run_id, r.doc_id, r.created_at, r.key_facts, r.summary,
		       (SELECT COUNT(*) FROM run_spans sp WHERE sp.run_id = r.run_id),
		       (SELECT COUNT(*) FROM run_compliance c WHERE c.run_id = r.run_id AND c.passed = 1),
		       (SELECT COUNT(*) FROM run_compliance c WHERE c.run_id = r.run_id AND c.passed = 0)
		FROM runs r`
	var args []any
	if opts.DocID != "" {
		q += ` WHERE r.doc_id = ?`
		args = append(args, opts.DocID)
	}
	q += ` ORDER BY r.created_at DESC, r.run_id LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetSpans loads the spans of one run in span-id order.
func (s *SQLiteStore) GetSpans(ctx context.Context, runID string) ([]span.Span, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT span_id, item_type, subtype, text_raw, value_norm, currency, unit,
		       start_off, end_off, confidence, extractor, version
		FROM run_spans WHERE run_id = ? ORDER BY span_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading spans: %w", err)
	}
	defer rows.Close()

	var out []span.Span
	for rows.Next() {
		var sp span.Span
		var itemType string
		var start, end sql.NullInt64
		if err := rows.Scan(&sp.ID, &itemType, &sp.Subtype, &sp.TextRaw, &sp.ValueNorm,
			&sp.Currency, &sp.Unit, &start, &end, &sp.Confidence, &sp.Extractor, &sp.Version); err != nil {
			return nil, fmt.Errorf("scanning span: %w", err)
		}
		sp.ItemType = span.ItemType(itemType)
		if start.Valid {
			sp.Start = span.Offs(int(start.Int64))
		}
		if end.Valid {
			sp.End = span.Offs(int(end.Int64))
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// GetCompliance loads the compliance results of one run in rule-id order.
func (s *SQLiteStore) GetCompliance(ctx context.Context, runID string) ([]rules.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_id, passed, severity, message, evidence
		FROM run_compliance WHERE run_id = ? ORDER BY rule_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading compliance results: %w", err)
	}
	defer rows.Close()

	var out []rules.Result
	for rows.Next() {
		var r rules.Result
		var passed int
		var evidence string
		if err := rows.Scan(&r.RuleID, &passed, &r.Severity, &r.Message, &evidence); err != nil {
			return nil, fmt.Errorf("scanning compliance result: %w", err)
		}
		r.Passed = passed != 0
		if evidence != "" {
			r.EvidenceIDs = strings.Split(evidence, ",")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRun removes a run; spans and compliance rows cascade.
func (s *SQLiteStore) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("deleting run: %s not found", runID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var created string
	err := row.Scan(&r.ID, &r.DocID, &created, &r.KeyFactsJSON, &r.Summary,
		&r.SpanCount, &r.RulesPassed, &r.RulesFailed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	if t, perr := time.Parse(time.RFC3339, created); perr == nil {
		r.CreatedAt = t
	}
	return &r, nil
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
