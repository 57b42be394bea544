package extract

import (
	"regexp"
	"strings"

	"github.com/vertragslab/klausel/internal/span"
)

// TotalsExtractor finds total amount lines like "Gesamtsumme: 12.345,00 EUR".
type TotalsExtractor struct{}

func NewTotalsExtractor() *TotalsExtractor { return &TotalsExtractor{} }

func (x *TotalsExtractor) Name() string    { return "totals" }
func (x *TotalsExtractor) Version() string { return "0.1.0" }

var reTotalLine = regexp.MustCompile(`(?i)(Gesamtsumme|Gesamtbetrag|Vertragssumme|Gesamtpreis|Preis\s*gesamt)[^0-9]{0,40}([0-9]{1,3}(?:\.[0-9]{3})*(?:,[0-9]{2})?)\s*(€|EUR)`)

func (x *TotalsExtractor) Extract(docID, text string) (span.Batch, error) {
	var items []span.Span
	for _, m := range reTotalLine.FindAllStringSubmatchIndex(text, -1) {
		items = append(items, span.Span{
			ItemType:  span.TypeMoney,
			Subtype:   "total_amount",
			TextRaw:   text[m[0]:m[1]],
			ValueNorm: text[m[4]:m[5]] + " EUR",
			Currency:  "EUR",
			Start:     span.Offs(m[0]),
			End:       span.Offs(m[1]),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}
	return span.Batch{DocID: docID, Items: items}, nil
}

// ObligationsExtractor marks customer obligation and liability clauses,
// carrying a chunk of following text as evidence.
type ObligationsExtractor struct{}

func NewObligationsExtractor() *ObligationsExtractor { return &ObligationsExtractor{} }

func (x *ObligationsExtractor) Name() string    { return "obl_liability" }
func (x *ObligationsExtractor) Version() string { return "0.1.0" }

var (
	reOblClause  = regexp.MustCompile(`(?i)(Pflichten des Kunden|Mitwirkungspflichten|Obliegenheiten des Kunden)`)
	reLiabClause = regexp.MustCompile(`(?i)(Haftung|Haftungsbeschr[aä]nkung|Haftungsausschluss)`)
)

const clauseGrabWindow = 350

func (x *ObligationsExtractor) Extract(docID, text string) (span.Batch, error) {
	var items []span.Span

	add := func(subtype string, m []int) {
		e := min(len(text), m[1]+clauseGrabWindow)
		items = append(items, span.Span{
			ItemType:  span.TypeClause,
			Subtype:   subtype,
			TextRaw:   strings.TrimSpace(text[m[0]:e]),
			ValueNorm: "present",
			Start:     span.Offs(m[0]),
			End:       span.Offs(m[1]),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	for _, m := range reOblClause.FindAllStringIndex(text, -1) {
		add("customer_obligations", m)
	}
	for _, m := range reLiabClause.FindAllStringIndex(text, -1) {
		add("liability", m)
	}

	return span.Batch{DocID: docID, Items: items}, nil
}
