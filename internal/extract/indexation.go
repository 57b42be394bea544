package extract

import (
	"regexp"

	"github.com/vertragslab/klausel/internal/span"
)

// IndexationExtractor covers price indexation clauses (VPI, yearly raises,
// caps) and service credits tied to availability.
type IndexationExtractor struct{}

func NewIndexationExtractor() *IndexationExtractor { return &IndexationExtractor{} }

func (x *IndexationExtractor) Name() string    { return "indexation_credits" }
func (x *IndexationExtractor) Version() string { return "0.1.0" }

var (
	reIndexVPI      = regexp.MustCompile(`(?i)(Verbraucherpreisindex|VPI|CPI|Indexierung|Preisgleitklausel)`)
	reRaisePctYear  = regexp.MustCompile(`(?i)(Erh[öo]hung|Anpassung)[^%\n]{0,40}?(\d{1,2}(?:[.,]\d{1,2})?)\s*%\s*(?:p\.a\.|pro\s*Jahr|jährlich)`)
	reIndexCapPct   = regexp.MustCompile(`(?i)(?:Max\.?|maximal|Deckelung|Kappung)[^%\n]{0,40}?(\d{1,2}(?:[.,]\d{1,2})?)\s*%`)
	reCredit        = regexp.MustCompile(`(?i)(Gutschrift|Servicegutschrift|Credit)\b`)
	reUptimeTrigger = regexp.MustCompile(`(?i)Verfügbarkeit[^%\n]{0,40}?<\s*(\d{1,3}(?:[.,]\d{1,2})?)\s*%`)
	reCreditPct     = regexp.MustCompile(`(?i)(\d{1,2}(?:[.,]\d{1,2})?)\s*%\s*(?:Gutschrift|Credit)`)
)

func (x *IndexationExtractor) Extract(docID, text string) (span.Batch, error) {
	var items []span.Span

	add := func(subtype, raw, val, unit string, start, end int) {
		items = append(items, span.Span{
			ItemType:  span.TypePricing,
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

	for _, m := range reIndexVPI.FindAllStringIndex(text, -1) {
		add("indexation_present", text[m[0]:m[1]], "present", "", m[0], m[1])
	}
	for _, m := range reRaisePctYear.FindAllStringSubmatchIndex(text, -1) {
		add("index_raise_percent_pa", text[m[0]:m[1]], text[m[4]:m[5]], "percent_pa", m[0], m[1])
	}
	for _, m := range reIndexCapPct.FindAllStringSubmatchIndex(text, -1) {
		add("index_cap_percent", text[m[0]:m[1]], text[m[2]:m[3]], "percent", m[0], m[1])
	}
	for _, m := range reCredit.FindAllStringIndex(text, -1) {
		add("service_credit_present", text[m[0]:m[1]], "present", "", m[0], m[1])
	}
	for _, m := range reUptimeTrigger.FindAllStringSubmatchIndex(text, -1) {
		add("service_credit_trigger_uptime_lt", text[m[0]:m[1]], text[m[2]:m[3]], "percent", m[0], m[1])
	}
	for _, m := range reCreditPct.FindAllStringSubmatchIndex(text, -1) {
		add("service_credit_percent", text[m[0]:m[1]], text[m[2]:m[3]], "percent", m[0], m[1])
	}

	return span.Batch{DocID: docID, Items: items}, nil
}
