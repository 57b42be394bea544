package extract

import (
	"regexp"

	"github.com/vertragslab/klausel/internal/span"
)

// The original money extractor was extended in place with net/gross/VAT
// patterns. Here that extension is an explicit decorator: it emits its own
// findings first and then replays the base extractor, so both coexist in the
// batch (duplicates are deduplicated downstream).

const numEUR = `(\d{1,3}(?:[.\s]\d{3})*(?:,\d{1,2})?)\s*(?:EUR|€)`

var (
	reNetto    = regexp.MustCompile(`(?i)(Netto(?:betrag)?)\s*[:\-]?\s*` + numEUR)
	reBrutto   = regexp.MustCompile(`(?i)(Brutto(?:betrag)?)\s*[:\-]?\s*` + numEUR)
	reMwStAmt  = regexp.MustCompile(`(?i)(?:MwSt|USt|Umsatzsteuer)[^0-9\n]{0,20}` + numEUR)
	reMwStPct  = regexp.MustCompile(`(?i)(?:MwSt|USt|Umsatzsteuer)[^%\n]{0,20}(\d{1,2}(?:[.,]\d{1,2})?)\s*%`)
)

// MoneyPlusExtractor layers German net/gross/VAT amount patterns on top of a
// base money extractor.
type MoneyPlusExtractor struct {
	base Extractor
}

func NewMoneyPlusExtractor(base Extractor) *MoneyPlusExtractor {
	return &MoneyPlusExtractor{base: base}
}

func (x *MoneyPlusExtractor) Name() string    { return "moneyplus" }
func (x *MoneyPlusExtractor) Version() string { return "0.1.0" }

func (x *MoneyPlusExtractor) Extract(docID, text string) (span.Batch, error) {
	var items []span.Span

	emit := func(rx *regexp.Regexp, subtype string, valueGroup int) {
		for _, m := range rx.FindAllStringSubmatchIndex(text, -1) {
			val := ""
			if lo, hi := m[2*valueGroup], m[2*valueGroup+1]; lo >= 0 {
				val = text[lo:hi]
			}
			items = append(items, span.Span{
				ItemType:  span.TypeMoney,
				Subtype:   subtype,
				TextRaw:   text[m[0]:m[1]],
				ValueNorm: val,
				Start:     span.Offs(m[0]),
				End:       span.Offs(m[1]),
				Extractor: x.Name(),
				Version:   x.Version(),
			})
		}
	}

	emit(reNetto, "net_amount_eur", 2)
	emit(reBrutto, "gross_amount_eur", 2)
	emit(reMwStAmt, "vat_amount_eur", 1)
	emit(reMwStPct, "vat_percent", 1)

	if x.base != nil {
		prev, err := x.base.Extract(docID, text)
		if err == nil {
			items = append(items, prev.Items...)
		}
	}

	return span.Batch{DocID: docID, Items: items}, nil
}
