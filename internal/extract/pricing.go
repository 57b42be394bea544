package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vertragslab/klausel/internal/span"
)

// PricingExtractor recognizes staged price schedules expressed in prose:
// month ranges with an amount nearby, "ab dem N. Monat" stages, yearly cost
// lines and per-call fees.
type PricingExtractor struct{}

func NewPricingExtractor() *PricingExtractor { return &PricingExtractor{} }

func (x *PricingExtractor) Name() string    { return "pricing" }
func (x *PricingExtractor) Version() string { return "0.2.0" }

var (
	reMonthRangeDot = regexp.MustCompile(`(?i)(\d{1,3})\s*[.\-–—]\s*(\d{1,3})\s*\.\s*Monat`)
	reMonthRangeBis = regexp.MustCompile(`(?i)(\d{1,3})\s*bis\s*(\d{1,3})\s*Monat(?:e)?`)
	reMonthFrom     = regexp.MustCompile(`(?i)ab\s*dem\s*(\d{1,3})\.\s*Monat`)
	reAmountEUR     = regexp.MustCompile(`(?i)(\d{1,3}(?:\.\d{3})*(?:,\d{2})?)\s*(?:€|EUR)`)
	reCostPerYear   = regexp.MustCompile(`(?is)Kosten\s*/\s*Jahr.*?(?:€|EUR)\s*([0-9.,]+)`)
	rePerCall       = regexp.MustCompile(`(?i)(?:fixed\s+per\s+call|pro\s+einsatz)\s*[:\-]?\s*([0-9.,]+)\s*(?:€|EUR)`)
)

const priceCtxWindow = 120

func (x *PricingExtractor) Extract(docID, text string) (span.Batch, error) {
	var items []span.Span

	add := func(subtype, raw, val, unit string, start, end int) {
		items = append(items, span.Span{
			ItemType:  span.TypeMoney,
			Subtype:   subtype,
			TextRaw:   raw,
			ValueNorm: val,
			Unit:      unit,
			Start:     span.Offs(start),
			End:       span.Offs(end),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	// an amount near the range makes the stage priced, otherwise it is
	// just a bare range
	rangeStage := func(m []int) {
		a, b := text[m[2]:m[3]], text[m[4]:m[5]]
		s := max(0, m[0]-priceCtxWindow)
		e := min(len(text), m[1]+priceCtxWindow)
		ctx := text[s:e]
		val := fmt.Sprintf("[%s-%s]", a, b)
		if am := reAmountEUR.FindStringSubmatch(ctx); am != nil {
			val = fmt.Sprintf("%s EUR per month [%s-%s]", am[1], a, b)
		}
		add("price_schedule_monthly", strings.TrimSpace(ctx), val, "month", m[0], m[1])
	}

	for _, m := range reMonthRangeDot.FindAllStringSubmatchIndex(text, -1) {
		rangeStage(m)
	}
	for _, m := range reMonthRangeBis.FindAllStringSubmatchIndex(text, -1) {
		rangeStage(m)
	}

	for _, m := range reMonthFrom.FindAllStringSubmatchIndex(text, -1) {
		a := text[m[2]:m[3]]
		s := max(0, m[0]-priceCtxWindow)
		e := min(len(text), m[1]+priceCtxWindow)
		ctx := text[s:e]
		val := fmt.Sprintf("[from %s]", a)
		if am := reAmountEUR.FindStringSubmatch(ctx); am != nil {
			val = fmt.Sprintf("%s EUR per month [from %s]", am[1], a)
		}
		add("price_schedule_monthly_from", strings.TrimSpace(ctx), val, "month", m[0], m[1])
	}

	for _, m := range reCostPerYear.FindAllStringSubmatchIndex(text, -1) {
		add("price_per_year", text[m[0]:m[1]], text[m[2]:m[3]]+" EUR per year", "year", m[0], m[1])
	}

	for _, m := range rePerCall.FindAllStringSubmatchIndex(text, -1) {
		add("fixed_per_call", text[m[0]:m[1]], text[m[2]:m[3]], "", m[0], m[1])
	}

	return span.Batch{DocID: docID, Items: items}, nil
}
