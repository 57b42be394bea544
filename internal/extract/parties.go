package extract

import (
	"regexp"
	"strings"

	"github.com/vertragslab/klausel/internal/detext"
	"github.com/vertragslab/klausel/internal/span"
)

const orgForms = `(?:GmbH|AG|UG|OHG|KG|KGaA|e\.K\.|eG|SE|GbR|PartG|PartGmbB|Ltd|LLC|Inc\.?|S\.A\.|SARL|PLC|Unternehmen|Gesellschaft|Firma)`

// PartiesExtractor finds party names three ways: organizations by legal
// form, quoted names (often the short form a contract assigns), and persons
// introduced with a title.
type PartiesExtractor struct{}

func NewPartiesExtractor() *PartiesExtractor { return &PartiesExtractor{} }

func (x *PartiesExtractor) Name() string    { return "parties" }
func (x *PartiesExtractor) Version() string { return "0.2.1" }

var (
	reQuotedName = regexp.MustCompile(`["“”„»«]\s*([^"“”„»«]{2,120}?)\s*["“”„»«]`)
	reOrgName    = regexp.MustCompile(`(?i)\b` + orgForms + `\b[^\n,().:;]{0,120}`)
	reOrgFull    = regexp.MustCompile(`(?i)([A-ZÄÖÜ][^,\n().:;]{2,180}?\s*` + orgForms + `)`)
	rePersonName = regexp.MustCompile(`(?i)\b(Herr|Frau|Dr\.|Mr\.?|Ms\.?|Mrs\.?)\s+([^\n,().]{2,80})`)
)

func cleanPartyName(name string) string {
	name = strings.Trim(strings.TrimSpace(name), ` "“”„»«`)
	return detext.CollapseSpace(name)
}

func (x *PartiesExtractor) Extract(docID, text string) (span.Batch, error) {
	var items []span.Span

	add := func(subtype, raw, val string, start, end int) {
		items = append(items, span.Span{
			ItemType:  span.TypeParty,
			Subtype:   subtype,
			TextRaw:   raw,
			ValueNorm: val,
			Start:     span.Offs(start),
			End:       span.Offs(end),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	// Organizations by legal form. The match starts at the legal form, so
	// widen leftwards to pick up the company name in front of it.
	for _, m := range reOrgName.FindAllStringIndex(text, -1) {
		ctx := detext.Window(text, m[0], m[1], 80)
		raw := text[m[0]:m[1]]
		if full := reOrgFull.FindStringSubmatch(ctx); full != nil {
			raw = full[1]
		}
		add("org", raw, cleanPartyName(raw), m[0], m[1])
	}

	for _, m := range reQuotedName.FindAllStringSubmatchIndex(text, -1) {
		val := cleanPartyName(text[m[2]:m[3]])
		if len(val) >= 3 {
			add("quoted", text[m[0]:m[1]], val, m[0], m[1])
		}
	}

	for _, m := range rePersonName.FindAllStringSubmatchIndex(text, -1) {
		val := cleanPartyName(text[m[4]:m[5]])
		add("person", text[m[0]:m[1]], val, m[0], m[1])
	}

	return span.Batch{DocID: docID, Items: items}, nil
}
