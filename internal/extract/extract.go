// Package extract provides rule-based fact extraction from German contract
// text.
//
// The extraction layer identifies structured information without an LLM or
// external API:
// - Monetary terms (fees, VAT, net/gross amounts, IBANs)
// - Parties (organizations, persons, quoted names)
// - Dates, durations and termination terms
// - Legal clauses (governing law, jurisdiction, liability, data protection)
// - Service levels (reaction times, uptime, maintenance periodicities)
// - Price schedules (month ranges, yearly stages)
//
// Each extractor is a deterministic pure function of (docID, text) producing
// a span.Batch. Extractors are independent: a failure in one never affects
// the others, and none reads or writes state belonging to another.
package extract

import (
	"fmt"
	"log/slog"

	"github.com/vertragslab/klausel/internal/span"
)

// Extractor is the capability every extractor implements: given a document
// id and its full text, produce a batch of typed spans.
type Extractor interface {
	Name() string
	Version() string
	Extract(docID, text string) (span.Batch, error)
}

// Registry is an ordered catalog of extractors. It is populated once at
// process start and read-only afterwards, so one registry may serve any
// number of concurrent pipeline runs.
type Registry struct {
	extractors []Extractor
	byName     map[string]Extractor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]Extractor{}}
}

// Register appends e to the registry. Registering two extractors with the
// same name is a programming error.
func (r *Registry) Register(e Extractor) error {
	if _, dup := r.byName[e.Name()]; dup {
		return fmt.Errorf("extractor %q already registered", e.Name())
	}
	r.extractors = append(r.extractors, e)
	r.byName[e.Name()] = e
	return nil
}

// All returns every registered extractor in registration order.
func (r *Registry) All() []Extractor {
	out := make([]Extractor, len(r.extractors))
	copy(out, r.extractors)
	return out
}

// Enabled returns the extractors whose names appear in the allow-list,
// preserving registration order. Unknown names are ignored. A nil allow-list
// means all extractors.
func (r *Registry) Enabled(names []string) []Extractor {
	if names == nil {
		return r.All()
	}
	allowed := make(map[string]bool, len(names))
	for _, n := range names {
		allowed[n] = true
	}
	var out []Extractor
	for _, e := range r.extractors {
		if allowed[e.Name()] {
			out = append(out, e)
		}
	}
	return out
}

// DefaultRegistry assembles every built-in extractor. The moneyplus and
// oncall layers wrap their base extractors via explicit composition, so the
// base findings are replayed inside the wrapper's batch and the bases are
// not registered separately.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, e := range []Extractor{
		NewContractExtractor(),
		NewSectionExtractor(),
		NewSubjectExtractor(),
		NewPartiesExtractor(),
		NewMoneyPlusExtractor(NewMoneyExtractor()),
		NewTotalsExtractor(),
		NewTermsExtractor(),
		NewPaymentExtractor(),
		NewLegalExtractor(),
		NewLegalDeepExtractor(),
		NewOnCallExtractor(NewSLAExtraExtractor()),
		NewSLAExtractor(),
		NewPricingExtractor(),
		NewTravelExtractor(),
		NewPartsExtractor(),
		NewContactsExtractor(),
		NewIDsExtractor(),
		NewObligationsExtractor(),
		NewIndexationExtractor(),
		NewLexiconExtractor(),
	} {
		// Names are compile-time constants; duplicates cannot happen here.
		_ = r.Register(e)
	}
	return r
}

// RunAll invokes each extractor on the document, isolating failures: an
// error or panic in one extractor is logged and skipped, and extraction
// continues with the rest. The returned batches are in extractor order.
func RunAll(extractors []Extractor, docID, text string, logger *slog.Logger) []span.Batch {
	if logger == nil {
		logger = slog.Default()
	}
	var batches []span.Batch
	for _, e := range extractors {
		b, err := runOne(e, docID, text)
		if err != nil {
			logger.Warn("extractor failed, skipping",
				"extractor", e.Name(), "doc_id", docID, "error", err)
			continue
		}
		batches = append(batches, b)
	}
	return batches
}

func runOne(e Extractor, docID, text string) (b span.Batch, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in extractor %s: %v", e.Name(), rec)
		}
	}()
	return e.Extract(docID, text)
}

// Merge flattens batches into a single span sequence, assigning sequential
// span ids (sp_000001, ...) and stamping the document id. Duplicates across
// extractors are expected here; the normalizer deduplicates downstream.
func Merge(batches []span.Batch) []span.Span {
	var out []span.Span
	n := 0
	for _, b := range batches {
		for _, s := range b.Items {
			n++
			s.ID = fmt.Sprintf("sp_%06d", n)
			s.DocID = b.DocID
			if s.Confidence == 0 {
				s.Confidence = 1.0
			}
			out = append(out, s)
		}
	}
	return out
}
