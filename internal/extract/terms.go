package extract

import (
	"regexp"
	"strings"

	"github.com/vertragslab/klausel/internal/detext"
	"github.com/vertragslab/klausel/internal/span"
)

// TermsExtractor pulls contract-term fields: notice periods, minimum term,
// free months, payment start events and auto-renewal clauses.
type TermsExtractor struct{}

func NewTermsExtractor() *TermsExtractor { return &TermsExtractor{} }

func (x *TermsExtractor) Name() string    { return "terms" }
func (x *TermsExtractor) Version() string { return "0.1.0" }

var (
	reNoticeMonths = regexp.MustCompile(`(?is)\b(?:frist|kündigungsfrist|kuendigungsfrist)\b.*?\b(\d{1,3})\s*monate?n?\b`)
	reMinTerm      = regexp.MustCompile(`(?i)\bmindestlaufzeit\b.*?\b(\d{1,4})\s*monate?n?\b`)
	reFreeMonths   = regexp.MustCompile(`(?i)\b(entgeltfrei|kostenfrei|kostenlos)\b.*?\b(\d{1,3})\s*monate?n?\b`)
	rePayStart     = regexp.MustCompile(`(?i)\bzahlungsbeginn\b\s*:\s*([^\n\r]+)`)
	reAutoYes      = regexp.MustCompile(`(?i)\b(verlängert\s+sich\s+automatisch|automatische\s+verlängerung)\b`)
	reAutoNo       = regexp.MustCompile(`(?i)\bwird\s+nicht\s+automatisch\s+verlängert\b`)
)

func (x *TermsExtractor) Extract(docID, text string) (span.Batch, error) {
	t := detext.NormalizeDigits(text)
	var items []span.Span

	add := func(subtype, raw, val string, start, end *int) {
		items = append(items, span.Span{
			ItemType:  span.TypeOther,
			Subtype:   subtype,
			TextRaw:   raw,
			ValueNorm: val,
			Start:     start,
			End:       end,
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	if m := reNoticeMonths.FindStringSubmatchIndex(t); m != nil {
		add("notice_months", strings.TrimSpace(t[m[0]:m[1]]), t[m[2]:m[3]], span.Offs(m[0]), span.Offs(m[1]))
	}
	if m := reMinTerm.FindStringSubmatchIndex(t); m != nil {
		add("min_term_months", strings.TrimSpace(t[m[0]:m[1]]), t[m[2]:m[3]], span.Offs(m[0]), span.Offs(m[1]))
	}
	if m := reFreeMonths.FindStringSubmatchIndex(t); m != nil {
		add("free_months", strings.TrimSpace(t[m[0]:m[1]]), t[m[4]:m[5]], span.Offs(m[0]), span.Offs(m[1]))
	}
	if m := rePayStart.FindStringSubmatchIndex(t); m != nil {
		add("payment_start_event", strings.TrimSpace(t[m[0]:m[1]]), strings.TrimSpace(t[m[2]:m[3]]), span.Offs(m[0]), span.Offs(m[1]))
	}
	if reAutoYes.MatchString(t) {
		add("auto_renewal", "auto_renewal_yes", "yes", nil, nil)
	}
	if reAutoNo.MatchString(t) {
		add("auto_renewal", "auto_renewal_no", "no", nil, nil)
	}

	return span.Batch{DocID: docID, Items: items}, nil
}

// PaymentExtractor recognizes payment interval, advance payment and payment
// method mentions.
type PaymentExtractor struct{}

func NewPaymentExtractor() *PaymentExtractor { return &PaymentExtractor{} }

func (x *PaymentExtractor) Name() string    { return "payment" }
func (x *PaymentExtractor) Version() string { return "0.1.0" }

var (
	rePayInterval = regexp.MustCompile(`(?i)\b(j[aä]hrlich|monatlich|viertelj[aä]hrlich|quartalsweise|halbj[aä]hrlich)\b`)
	rePayAdvance  = regexp.MustCompile(`(?i)\b(im\s+Voraus|vorauszahl\w*)\b`)
	rePayMethod   = regexp.MustCompile(`(?i)\b(SEPA[-\s]?Lastschrift|Lastschrift|Rechnung|[ÜU]berweisung|Bank[ -]?[Tt]ransfer)\b`)
)

func (x *PaymentExtractor) Extract(docID, text string) (span.Batch, error) {
	var items []span.Span

	add := func(subtype, raw, val string, start, end int) {
		items = append(items, span.Span{
			ItemType:  span.TypeOther,
			Subtype:   subtype,
			TextRaw:   raw,
			ValueNorm: val,
			Start:     span.Offs(start),
			End:       span.Offs(end),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	for _, m := range rePayInterval.FindAllStringIndex(text, -1) {
		raw := text[m[0]:m[1]]
		add("payment_interval", raw, strings.ToLower(raw), m[0], m[1])
	}
	for _, m := range rePayAdvance.FindAllStringIndex(text, -1) {
		add("payment_advance", text[m[0]:m[1]], "im Voraus", m[0], m[1])
	}
	for _, m := range rePayMethod.FindAllStringIndex(text, -1) {
		raw := text[m[0]:m[1]]
		add("payment_method", raw, raw, m[0], m[1])
	}

	return span.Batch{DocID: docID, Items: items}, nil
}
