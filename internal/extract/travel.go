package extract

import (
	"regexp"

	"github.com/vertragslab/klausel/internal/span"
)

// TravelExtractor recognizes travel cost clauses: the bare trigger word, a
// per-kilometer rate and flat call-out fees.
type TravelExtractor struct{}

func NewTravelExtractor() *TravelExtractor { return &TravelExtractor{} }

func (x *TravelExtractor) Name() string    { return "travel" }
func (x *TravelExtractor) Version() string { return "0.1.0" }

var (
	reTravelTrig  = regexp.MustCompile(`(?i)\b(Anfahrt|Anfahrtskosten|Fahrtkosten)\b`)
	reTravelPerKm = regexp.MustCompile(`(?i)(Anfahrtskosten|Fahrtkosten)[^0-9\n]{0,40}?(\d{1,2}(?:[.,]\d{1,2})?)\s*€\s*/\s*km`)
	reTravelFlat  = regexp.MustCompile(`(?i)(Anfahrtskosten|Fahrtkosten|Anfahrt)[^0-9\n]{0,60}?(\d{1,4}(?:[.\s]\d{3})*(?:,\d{1,2})?)\s*(?:EUR|€)\b[^a-zA-Z\n]{0,10}(?:Pauschale|pauschal)?`)
)

func (x *TravelExtractor) Extract(docID, text string) (span.Batch, error) {
	var items []span.Span

	add := func(subtype, raw, val string, start, end int) {
		items = append(items, span.Span{
			ItemType:  span.TypeTravel,
			Subtype:   subtype,
			TextRaw:   raw,
			ValueNorm: val,
			Start:     span.Offs(start),
			End:       span.Offs(end),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	for _, m := range reTravelTrig.FindAllStringIndex(text, -1) {
		add("travel_trigger", text[m[0]:m[1]], "present", m[0], m[1])
	}
	for _, m := range reTravelPerKm.FindAllStringSubmatchIndex(text, -1) {
		add("travel_per_km_eur", text[m[0]:m[1]], text[m[4]:m[5]], m[0], m[1])
	}
	for _, m := range reTravelFlat.FindAllStringSubmatchIndex(text, -1) {
		add("travel_flat_eur", text[m[0]:m[1]], text[m[4]:m[5]], m[0], m[1])
	}

	return span.Batch{DocID: docID, Items: items}, nil
}

// PartsExtractor finds annual spend caps for spare and wear parts.
type PartsExtractor struct{}

func NewPartsExtractor() *PartsExtractor { return &PartsExtractor{} }

func (x *PartsExtractor) Name() string    { return "parts_extra" }
func (x *PartsExtractor) Version() string { return "0.1.0" }

var rePartsCapYear = regexp.MustCompile(`(?i)(Ersatzteile|Verschlei[ßs]teile)[^.\n\r]{0,80}?(?:Max\.?|maximal|Deckel|Obergrenze|bis zu)[^0-9\n\r]{0,20}(\d{1,4}(?:[.\s]\d{3})*(?:,\d{1,2})?)\s*(?:EUR|€)\s*(?:pro\s*Jahr|p\.a\.|j[aä]hrlich)`)

func (x *PartsExtractor) Extract(docID, text string) (span.Batch, error) {
	var items []span.Span
	for _, m := range rePartsCapYear.FindAllStringSubmatchIndex(text, -1) {
		items = append(items, span.Span{
			ItemType:  span.TypeParts,
			Subtype:   "parts_cap_per_year_eur",
			TextRaw:   text[m[0]:m[1]],
			ValueNorm: text[m[4]:m[5]],
			Start:     span.Offs(m[0]),
			End:       span.Offs(m[1]),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}
	return span.Batch{DocID: docID, Items: items}, nil
}
