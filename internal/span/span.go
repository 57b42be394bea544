// Package span defines the typed fact model shared by every stage of the
// contract analysis pipeline.
//
// A Span is one fact instance found in document text: a money amount, a date,
// a party name, a clause, and so on. Extractors produce Batches of spans;
// the normalizer, entity resolver, schedule builder and rule engine all
// consume them. Spans are plain serializable records — no stage mutates
// another stage's spans in place.
package span

import "fmt"

// ItemType is the closed set of fact kinds. Extractors must not invent new
// kinds; the normalizer and rule engine rely on this enumeration.
type ItemType string

const (
	TypeDate    ItemType = "date"
	TypeMoney   ItemType = "money"
	TypeParty   ItemType = "party"
	TypeClause  ItemType = "clause"
	TypeContact ItemType = "contact"
	TypeID      ItemType = "id"
	TypeOther   ItemType = "other"
	TypeTravel  ItemType = "travel"
	TypePricing ItemType = "pricing"
	TypeSLA     ItemType = "sla"
	TypeParts   ItemType = "parts"
)

var validTypes = map[ItemType]bool{
	TypeDate: true, TypeMoney: true, TypeParty: true, TypeClause: true,
	TypeContact: true, TypeID: true, TypeOther: true, TypeTravel: true,
	TypePricing: true, TypeSLA: true, TypeParts: true,
}

// Valid reports whether t is one of the enumerated item types.
func (t ItemType) Valid() bool { return validTypes[t] }

// Span is a single extracted fact tied to an optional character range in the
// source text.
type Span struct {
	ID         string   `json:"span_id,omitempty"`
	DocID      string   `json:"doc_id,omitempty"`
	ItemType   ItemType `json:"item_type"`
	Subtype    string   `json:"subtype,omitempty"`
	TextRaw    string   `json:"text_raw"`
	ValueNorm  string   `json:"value_norm,omitempty"`
	Currency   string   `json:"currency,omitempty"`
	Unit       string   `json:"unit,omitempty"`
	Start      *int     `json:"start,omitempty"`
	End        *int     `json:"end,omitempty"`
	Confidence float64  `json:"confidence"`
	Extractor  string   `json:"extractor"`
	Version    string   `json:"version"`
}

// Validate checks the span invariants: enumerated item type, confidence in
// [0,1], and start <= end when both offsets are present.
func (s Span) Validate() error {
	if !s.ItemType.Valid() {
		return fmt.Errorf("invalid item type %q", s.ItemType)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("confidence %v out of [0,1]", s.Confidence)
	}
	if s.Start != nil && s.End != nil && *s.Start > *s.End {
		return fmt.Errorf("start %d after end %d", *s.Start, *s.End)
	}
	return nil
}

// Batch is the full set of spans produced by one extractor for one document.
// Item order is insertion order; document order (ascending Start) governs
// "first match wins" logic downstream.
type Batch struct {
	DocID string `json:"doc_id"`
	Items []Span `json:"items"`
}

// Offs is a convenience for building offset pointers from match positions.
func Offs(n int) *int { return &n }

// Filter returns the spans matching the given type and subtype. An empty
// itemType or subtype matches anything.
func Filter(spans []Span, itemType ItemType, subtype string) []Span {
	var out []Span
	for _, s := range spans {
		if itemType != "" && s.ItemType != itemType {
			continue
		}
		if subtype != "" && s.Subtype != subtype {
			continue
		}
		out = append(out, s)
	}
	return out
}

// First returns the first span matching type and subtype, or false when none
// matches.
func First(spans []Span, itemType ItemType, subtype string) (Span, bool) {
	for _, s := range spans {
		if itemType != "" && s.ItemType != itemType {
			continue
		}
		if subtype != "" && s.Subtype != subtype {
			continue
		}
		return s, true
	}
	return Span{}, false
}

// Exists reports whether any span matches type and subtype.
func Exists(spans []Span, itemType ItemType, subtype string) bool {
	_, ok := First(spans, itemType, subtype)
	return ok
}

// IDs collects span ids from spans, capped at max entries. Spans without an
// assigned id are skipped.
func IDs(spans []Span, max int) []string {
	var out []string
	for _, s := range spans {
		if s.ID == "" {
			continue
		}
		out = append(out, s.ID)
		if len(out) >= max {
			break
		}
	}
	return out
}
