package extract

import (
	"regexp"
	"strings"

	"github.com/vertragslab/klausel/internal/span"
)

// LegalExtractor covers governing law, CISG exclusion and jurisdiction.
type LegalExtractor struct{}

func NewLegalExtractor() *LegalExtractor { return &LegalExtractor{} }

func (x *LegalExtractor) Name() string    { return "legal" }
func (x *LegalExtractor) Version() string { return "0.1.0" }

var (
	reGovLaw   = regexp.MustCompile(`(?i)\b(deutsches\s+recht|german\s+law)\b`)
	reCISGExcl = regexp.MustCompile(`(?i)\bCISG\b.*?(?:nicht|ausgeschlossen|keine Anwendung)`)
	reJuris    = regexp.MustCompile(`(?i)\bGerichtsstand\b[^\.:\n\r]*?(?:ist|in|am|:)?\s*([A-ZÄÖÜ][A-Za-zÄÖÜäöüß\-]+)`)
)

func (x *LegalExtractor) Extract(docID, text string) (span.Batch, error) {
	var items []span.Span

	if reGovLaw.MatchString(text) {
		items = append(items, span.Span{
			ItemType:  span.TypeClause,
			Subtype:   "governing_law",
			TextRaw:   "deutsches Recht",
			ValueNorm: "DE",
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}
	if reCISGExcl.MatchString(text) {
		items = append(items, span.Span{
			ItemType:  span.TypeClause,
			Subtype:   "cisg_excluded",
			TextRaw:   "CISG excluded",
			ValueNorm: "yes",
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}
	if m := reJuris.FindStringSubmatchIndex(text); m != nil {
		items = append(items, span.Span{
			ItemType:  span.TypeClause,
			Subtype:   "jurisdiction",
			TextRaw:   strings.TrimSpace(text[m[0]:m[1]]),
			ValueNorm: text[m[2]:m[3]],
			Start:     span.Offs(m[2]),
			End:       span.Offs(m[3]),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	return span.Batch{DocID: docID, Items: items}, nil
}

// LegalDeepExtractor digs into payment terms, cash discounts, default
// interest, liability caps, data-protection clauses and registered seats.
type LegalDeepExtractor struct{}

func NewLegalDeepExtractor() *LegalDeepExtractor { return &LegalDeepExtractor{} }

func (x *LegalDeepExtractor) Name() string    { return "legal_deep" }
func (x *LegalDeepExtractor) Version() string { return "0.1.0" }

var (
	reDueDays  = regexp.MustCompile(`(?i)(zahlbar\s+innerhalb\s+|Zahlungsziel\s+|Netto\s*)(\d{1,3})\s*Tage`)
	reSkonto   = regexp.MustCompile(`(?i)(Skonto)[^%\n\r]{0,30}?(\d{1,2}(?:[.,]\d{1,2})?)\s*%`)
	reVerzug   = regexp.MustCompile(`(?i)(Verzugszins\w*|Zinsen)[^%\n\r]{0,50}?(\d{1,2}(?:[.,]\d{1,2})?)\s*%\s*(?:p\.a\.|pro\s*Jahr)?`)
	reBasis    = regexp.MustCompile(`(?i)(\d{1,2}(?:[.,]\d{1,2})?)\s*%\s*(?:über|ueber)\s*dem\s*Basiszinssatz`)
	reLiabAmt  = regexp.MustCompile(`(?i)(Haftungsobergrenze|Haftung\b[^.\n]{0,40}?\bbegrenzt)\b[^0-9\n]{0,40}?(\d{1,3}(?:[.\s]\d{3})*(?:[.,]\d{1,2})?)\s*(?:EUR|€)`)
	reLiabPct  = regexp.MustCompile(`(?i)(Haftungsobergrenze|Haftung\b[^.\n]{0,40}?\bbegrenzt)\b[^%\n]{0,40}?(\d{1,2}(?:[.,]\d{1,2})?)\s*%`)
	reDSGVO    = regexp.MustCompile(`(?i)\b(DSGVO|GDPR|Datenschutz-Grundverordnung)\b`)
	reAVV      = regexp.MustCompile(`(?i)\b(Auftragsverarbeitung|AVV|Auftragsverarbeitungsvertrag)\b`)
	reTOMs     = regexp.MustCompile(`(?i)\b(technische\s+und\s+organisatorische\s+Ma[ßs]nahmen|TOMs?)\b`)
	reCompete  = regexp.MustCompile(`(?i)\b(Wettbewerbsverbot|Konkurrenzverbot)\b`)
	rePoach    = regexp.MustCompile(`(?i)\b(Abwerbeverbot|Abwerbung)\b`)
	reSeatCity = regexp.MustCompile(`(?i)\bSitz\b[^.\n]{0,40}?\b([A-ZÄÖÜ][a-zäöüß]+(?:[-\s][A-ZÄÖÜa-zäöüß]+)?)`)
)

func (x *LegalDeepExtractor) Extract(docID, text string) (span.Batch, error) {
	var items []span.Span

	add := func(t span.ItemType, subtype, raw, val, unit string, start, end int) {
		items = append(items, span.Span{
			ItemType:  t,
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

	for _, m := range reDueDays.FindAllStringSubmatchIndex(text, -1) {
		add(span.TypeMoney, "payment_due_days", text[m[0]:m[1]], text[m[4]:m[5]], "", m[0], m[1])
	}
	for _, m := range reSkonto.FindAllStringSubmatchIndex(text, -1) {
		add(span.TypeMoney, "skonto_percent", text[m[0]:m[1]], text[m[4]:m[5]], "percent", m[0], m[1])
	}
	for _, m := range reVerzug.FindAllStringSubmatchIndex(text, -1) {
		add(span.TypeMoney, "default_interest_percent", text[m[0]:m[1]], text[m[4]:m[5]], "percent", m[0], m[1])
	}
	for _, m := range reBasis.FindAllStringSubmatchIndex(text, -1) {
		add(span.TypeMoney, "default_interest_over_basis", text[m[0]:m[1]], text[m[2]:m[3]], "percent_over_basis", m[0], m[1])
	}
	for _, m := range reLiabAmt.FindAllStringSubmatchIndex(text, -1) {
		add(span.TypeClause, "liability_cap_amount", text[m[0]:m[1]], text[m[4]:m[5]], "", m[0], m[1])
	}
	for _, m := range reLiabPct.FindAllStringSubmatchIndex(text, -1) {
		add(span.TypeClause, "liability_cap_percent", text[m[0]:m[1]], text[m[4]:m[5]], "percent", m[0], m[1])
	}

	presence := []struct {
		re      *regexp.Regexp
		subtype string
	}{
		{reDSGVO, "dsgvo"},
		{reAVV, "avv"},
		{reTOMs, "toms"},
		{reCompete, "non_compete"},
		{rePoach, "non_solicit"},
	}
	for _, p := range presence {
		for _, m := range p.re.FindAllStringIndex(text, -1) {
			add(span.TypeClause, p.subtype, text[m[0]:m[1]], "present", "", m[0], m[1])
		}
	}

	for _, m := range reSeatCity.FindAllStringSubmatchIndex(text, -1) {
		city := strings.TrimSpace(text[m[2]:m[3]])
		add(span.TypeParty, "seat_city", text[m[0]:m[1]], city, "", m[0], m[1])
	}

	return span.Batch{DocID: docID, Items: items}, nil
}
