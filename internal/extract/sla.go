package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vertragslab/klausel/internal/span"
)

// SLAExtractor covers reaction times, business hours, weekend surcharges and
// loaner device clauses.
type SLAExtractor struct{}

func NewSLAExtractor() *SLAExtractor { return &SLAExtractor{} }

func (x *SLAExtractor) Name() string    { return "sla" }
func (x *SLAExtractor) Version() string { return "0.1.0" }

var (
	reReact    = regexp.MustCompile(`(?is)\breaktionszeit\b.*?\b(\d{1,3})\s*(?:stunden|h)\b`)
	reBizHours = regexp.MustCompile(`(?i)(montag\s*bis\s*freitag|mo\.\s*-\s*fr\.)[^\n\r]*?\b(\d{1,2})[:.](\d{2})\s*uhr?\s*(?:bis|-)\s*(\d{1,2})[:.](\d{2})\s*uhr?`)
	reWeekend  = regexp.MustCompile(`(?i)(\d{1,3})\s*-%-?\s*zuschlag`)
	reLoaner   = regexp.MustCompile(`(?i)\b(leihgerät|ersatzgerät)\b`)
)

func (x *SLAExtractor) Extract(docID, text string) (span.Batch, error) {
	var items []span.Span

	if m := reReact.FindStringSubmatchIndex(text); m != nil {
		items = append(items, span.Span{
			ItemType:  span.TypeOther,
			Subtype:   "reaction_time_hours",
			TextRaw:   strings.TrimSpace(text[m[0]:m[1]]),
			ValueNorm: text[m[2]:m[3]],
			Start:     span.Offs(m[0]),
			End:       span.Offs(m[1]),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	if m := reBizHours.FindStringSubmatchIndex(text); m != nil {
		h1, _ := strconv.Atoi(text[m[4]:m[5]])
		h2, _ := strconv.Atoi(text[m[8]:m[9]])
		val := fmt.Sprintf("Mo-Fr %02d:%s-%02d:%s", h1, text[m[6]:m[7]], h2, text[m[10]:m[11]])
		items = append(items, span.Span{
			ItemType:  span.TypeOther,
			Subtype:   "business_hours",
			TextRaw:   strings.TrimSpace(text[m[0]:m[1]]),
			ValueNorm: val,
			Start:     span.Offs(m[0]),
			End:       span.Offs(m[1]),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	if m := reWeekend.FindStringSubmatchIndex(text); m != nil {
		items = append(items, span.Span{
			ItemType:  span.TypeOther,
			Subtype:   "weekend_surcharge_percent",
			TextRaw:   strings.TrimSpace(text[m[0]:m[1]]),
			ValueNorm: text[m[2]:m[3]],
			Start:     span.Offs(m[0]),
			End:       span.Offs(m[1]),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	if reLoaner.MatchString(text) {
		items = append(items, span.Span{
			ItemType:  span.TypeOther,
			Subtype:   "loaner_device",
			TextRaw:   "loaner_device",
			ValueNorm: "yes",
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	return span.Batch{DocID: docID, Items: items}, nil
}

// SLAExtraExtractor covers uptime guarantees, maintenance periodicities
// around activity anchors, parts inclusion and yearly service scopes.
type SLAExtraExtractor struct{}

func NewSLAExtraExtractor() *SLAExtraExtractor { return &SLAExtraExtractor{} }

func (x *SLAExtraExtractor) Name() string    { return "sla_extra" }
func (x *SLAExtraExtractor) Version() string { return "0.1.0" }

var (
	reUptime     = regexp.MustCompile(`(?i)\b(Verfügbarkeit|Betriebsbereitschaft|Uptime)\b[^%\n\r]{0,60}?(\d{1,3}(?:,\d{1,2})?)\s*%`)
	rePeriodWord = regexp.MustCompile(`(?i)(monatlich|viertelj[aä]hrlich|quartalsweise|j[aä]hrlich|halbj[aä]hrlich)`)
	rePeriodXMon = regexp.MustCompile(`(?i)alle\s+(\d{1,2})\s*Monate`)
	reWartung    = regexp.MustCompile(`(?i)\b(Wartung|Instandhaltung)\b`)
	reInspektion = regexp.MustCompile(`(?i)\bInspektion\b`)
	reKalib      = regexp.MustCompile(`(?i)\bKalibrierung|Kalibrieren\b`)
	rePartsIncl  = regexp.MustCompile(`(?i)\b(Ersatzteile|Verschlei[ßs]teile)\b[^.\n\r]{0,60}?\b(inkl(?:usive)?|einschließlich)\b`)
	rePartsExcl  = regexp.MustCompile(`(?i)\b(Ersatzteile|Verschlei[ßs]teile)\b[^.\n\r]{0,60}?\b(exkl(?:usive)?|nicht\s*enthalten|ausgeschlossen)\b`)
	reScopeYear  = regexp.MustCompile(`(?i)(\d{1,3})\s+(Wartungen|Wartung|Inspektionen|Inspektion|Kalibrierungen|Kalibrierung|Einsätze|Einsatz|Stunden)\s*(?:/|pro)\s*Jahr`)
)

const anchorWindow = 120

func (x *SLAExtraExtractor) Extract(docID, text string) (span.Batch, error) {
	var items []span.Span

	add := func(subtype, raw, val, unit string, start, end int) {
		items = append(items, span.Span{
			ItemType:  span.TypeOther,
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

	for _, m := range reUptime.FindAllStringSubmatchIndex(text, -1) {
		add("uptime_percent", text[m[0]:m[1]], text[m[4]:m[5]], "percent", m[0], m[1])
	}

	anchors := []struct {
		re      *regexp.Regexp
		subtype string
	}{
		{reWartung, "wartung_period"},
		{reInspektion, "inspektion_period"},
		{reKalib, "kalibrierung_period"},
	}
	for _, a := range anchors {
		for _, ma := range a.re.FindAllStringIndex(text, -1) {
			s := max(0, ma[0]-anchorWindow)
			e := min(len(text), ma[1]+anchorWindow)
			ctx := text[s:e]
			if m := rePeriodWord.FindStringSubmatchIndex(ctx); m != nil {
				add(a.subtype, ctx[m[0]:m[1]], strings.ToLower(ctx[m[2]:m[3]]), "", s+m[0], s+m[1])
				continue
			}
			if m := rePeriodXMon.FindStringSubmatchIndex(ctx); m != nil {
				add(a.subtype, ctx[m[0]:m[1]], ctx[m[2]:m[3]]+" Monate", "", s+m[0], s+m[1])
			}
		}
	}

	for _, m := range rePartsIncl.FindAllStringIndex(text, -1) {
		add("parts_included", text[m[0]:m[1]], "inklusive", "", m[0], m[1])
	}
	for _, m := range rePartsExcl.FindAllStringIndex(text, -1) {
		add("parts_included", text[m[0]:m[1]], "exklusive", "", m[0], m[1])
	}

	for _, m := range reScopeYear.FindAllStringSubmatchIndex(text, -1) {
		val := fmt.Sprintf("%s %s/Jahr", text[m[2]:m[3]], text[m[4]:m[5]])
		add("service_scope_yearly", text[m[0]:m[1]], val, "", m[0], m[1])
	}

	return span.Batch{DocID: docID, Items: items}, nil
}

// OnCallExtractor wraps a base service-level extractor and adds on-call,
// night, weekend and holiday surcharge findings to its batch.
type OnCallExtractor struct {
	base Extractor
}

func NewOnCallExtractor(base Extractor) *OnCallExtractor {
	return &OnCallExtractor{base: base}
}

func (x *OnCallExtractor) Name() string    { return x.base.Name() }
func (x *OnCallExtractor) Version() string { return x.base.Version() }

var (
	reOnCallTrig = regexp.MustCompile(`(?i)\b(Rufbereitschaft|Bereitschaftsdienst|Rufdienst|Nacht|Wochenende|Feiertag)\b`)
	reOnCallPct  = regexp.MustCompile(`(?i)(Rufbereitschaft|Nacht|Wochenende|Feiertag)[^%\n\r]{0,60}?(\d{1,2}(?:[.,]\d{1,2})?)\s*%`)
	reOnCallEurH = regexp.MustCompile(`(?i)(Rufbereitschaft|Nacht|Wochenende|Feiertag)[^€\n\r]{0,60}?(\d{1,3}(?:[.\s]\d{3})*(?:,\d{1,2})?)\s*€\s*/\s*(?:h|Std\.?|Stunden?)`)
)

func (x *OnCallExtractor) Extract(docID, text string) (span.Batch, error) {
	b, err := x.base.Extract(docID, text)
	if err != nil {
		return span.Batch{}, err
	}
	items := b.Items

	add := func(subtype, raw, val string, start, end int) {
		items = append(items, span.Span{
			ItemType:  span.TypeSLA,
			Subtype:   subtype,
			TextRaw:   raw,
			ValueNorm: val,
			Start:     span.Offs(start),
			End:       span.Offs(end),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	for _, m := range reOnCallTrig.FindAllStringIndex(text, -1) {
		add("oncall_trigger", text[m[0]:m[1]], "present", m[0], m[1])
	}
	for _, m := range reOnCallPct.FindAllStringSubmatchIndex(text, -1) {
		add("oncall_surcharge_percent", text[m[0]:m[1]], text[m[4]:m[5]], m[0], m[1])
	}
	for _, m := range reOnCallEurH.FindAllStringSubmatchIndex(text, -1) {
		add("oncall_surcharge_eur_per_hour", text[m[0]:m[1]], text[m[4]:m[5]], m[0], m[1])
	}

	return span.Batch{DocID: docID, Items: items}, nil
}
