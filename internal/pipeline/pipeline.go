// Package pipeline drives the per-document analysis: extraction,
// normalization, entity resolution, price schedule assembly and compliance
// evaluation, in that order.
//
// A Runner is safe for concurrent use: the extractor registry and the
// policy are read-only after construction, and every Run allocates fresh
// result structures for its document.
package pipeline

import (
	"errors"
	"log/slog"

	"github.com/vertragslab/klausel/internal/extract"
	"github.com/vertragslab/klausel/internal/normalize"
	"github.com/vertragslab/klausel/internal/policy"
	"github.com/vertragslab/klausel/internal/resolve"
	"github.com/vertragslab/klausel/internal/rules"
	"github.com/vertragslab/klausel/internal/schedule"
	"github.com/vertragslab/klausel/internal/span"
)

// ErrNoDocID is returned when a document arrives without an id. It is the
// only fatal input condition; empty text yields an empty but well-typed
// result.
var ErrNoDocID = errors.New("document has no id")

// Document is the pipeline input: plain text plus any tables captured by
// the ingestion layer. Tables are row-major string grids.
type Document struct {
	ID     string
	Text   string
	Tables [][][]string
}

// Result carries everything one analysis produced.
type Result struct {
	DocID      string             `json:"doc_id"`
	Spans      []span.Span        `json:"spans"`
	KeyFacts   normalize.KeyFacts `json:"key_facts"`
	Entities   []resolve.Entity   `json:"entities"`
	Links      []resolve.Link     `json:"links"`
	Roles      map[string]string  `json:"roles,omitempty"`
	Schedule   []schedule.Row     `json:"price_schedule"`
	Compliance []rules.Result     `json:"compliance"`
	Summary    string             `json:"summary,omitempty"`
}

// Runner holds the process-wide analysis configuration.
type Runner struct {
	Registry *extract.Registry
	Policy   *policy.Policy
	// Allow restricts extraction to the named extractors. Nil means all.
	Allow  []string
	Logger *slog.Logger
}

// New returns a Runner with the built-in extractors and the default policy.
func New(logger *slog.Logger) *Runner {
	return &Runner{
		Registry: extract.DefaultRegistry(),
		Policy:   policy.Default(),
		Logger:   logger,
	}
}

// Run analyzes one document. Extractor failures are logged and skipped;
// every other stage is fail-soft, so the result may be sparse but Run only
// errors on a missing document id.
func (r *Runner) Run(doc Document) (*Result, error) {
	if doc.ID == "" {
		return nil, ErrNoDocID
	}

	extractors := r.Registry.Enabled(r.Allow)
	batches := extract.RunAll(extractors, doc.ID, doc.Text, r.Logger)
	merged := extract.Merge(batches)

	spans, facts := normalize.Normalize(merged, doc.Text)
	entities, links := resolve.Resolve(spans, doc.ID)
	roles := resolve.DetectRoles(span.Filter(spans, span.TypeParty, ""), doc.Text)
	rows := schedule.Build(spans, doc.Tables)
	compliance := rules.Evaluate(spans, roles, rows, r.Policy)

	return &Result{
		DocID:      doc.ID,
		Spans:      spans,
		KeyFacts:   facts,
		Entities:   entities,
		Links:      links,
		Roles:      roles,
		Schedule:   rows,
		Compliance: compliance,
		Summary:    normalize.Summarize(spans, facts),
	}, nil
}
