package extract

import (
	"regexp"
	"strings"

	"github.com/vertragslab/klausel/internal/detext"
	"github.com/vertragslab/klausel/internal/span"
)

// ContractExtractor understands the skeleton of a German service agreement:
// the "Zwischen ... und ... wird folgender Vertrag" intro block naming the
// parties, the §1-§4 section structure, and the financial and term fields
// those sections carry.
type ContractExtractor struct{}

func NewContractExtractor() *ContractExtractor { return &ContractExtractor{} }

func (x *ContractExtractor) Name() string    { return "contract" }
func (x *ContractExtractor) Version() string { return "1.4.0" }

var (
	rePartyBlock = regexp.MustCompile(`(?si)Zwischen(.*?)wird folgender Vertrag`)
	reFolgend    = regexp.MustCompile(`(?i)im\s+Folgenden`)

	reSec1 = regexp.MustCompile(`(?im)(§\s*1\s+Vertragsgegenstand|^\s*1[.)]?\s+Vertragsgegenstand)`)
	reSec2 = regexp.MustCompile(`(?im)(§\s*2\s+(Pflichten|Leistungsumfang)|^\s*2[.)]?\s+(Pflichten|Leistungsumfang))`)
	reSec3 = regexp.MustCompile(`(?im)(§\s*3\s+(Vergütung|Verguetung|Zahlung)|^\s*3[.)]?\s+(Vergütung|Verguetung|Zahlung))`)
	reSec4 = regexp.MustCompile(`(?im)(§\s*4\s+(Vertragsdauer|Laufzeit|Kündigung|Kuendigung)|^\s*4[.)]?\s+(Vertragsdauer|Laufzeit|Kündigung|Kuendigung))`)

	reFee       = regexp.MustCompile(`(?i)(\d{1,3}(?:\.\d{3})*(?:,\d{2})?)\s*(EUR|€)`)
	reVATPct    = regexp.MustCompile(`(?i)(?:Umsatzsteuer|MwSt)[^%]{0,80}?(?:derzeit\s*)?(\d{1,2})%`)
	rePayDays   = regexp.MustCompile(`(?i)(\d{1,3})\s*Tage\s+nach\s+Rechnungserhalt`)
	reStartDate = regexp.MustCompile(`(?i)tritt\s+am\s+(\d{1,2}\.\d{1,2}\.\d{2,4})\s+in\s+Kraft`)
	reEndDate   = regexp.MustCompile(`(?i)endet\s+am\s+(\d{1,2}\.\d{1,2}\.\d{2,4})`)
	reTermWeeks = regexp.MustCompile(`(?i)Frist\s+von\s+(\d{1,2})\s*Wochen\s+zum\s+Monatsende`)

	reContractType = regexp.MustCompile(`(?i)\b(Dienstleistungsvertrag|Werkvertrag|Kaufvertrag|Mietvertrag|Lizenzvertrag|Servicevertrag)\b`)
)

// orgHints marks strings that name a legal entity rather than a person.
var orgHints = []string{"GmbH", "AG", "UG", "SE", "KG", "OHG", "GbR", "e.V."}

// sectionSpan locates a section start and bounds it by the earliest of the
// follow-up headers, or end of text.
func sectionSpan(text string, start *regexp.Regexp, next []*regexp.Regexp) (int, int, bool) {
	m := start.FindStringIndex(text)
	if m == nil {
		return 0, 0, false
	}
	end := len(text)
	for _, rx := range next {
		if n := rx.FindStringIndex(text[m[1]:]); n != nil {
			if cand := m[1] + n[0]; cand < end {
				end = cand
			}
		}
	}
	return m[0], end, true
}

// splitPartyBlock splits the intro block into the two party chunks around
// the standalone "und" line.
func splitPartyBlock(block string) [][]string {
	b := strings.ReplaceAll(strings.ReplaceAll(block, "\r\n", "\n"), "\r", "\n")
	var lines []string
	for _, ln := range strings.Split(b, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" || reFolgend.MatchString(ln) {
			continue
		}
		lines = append(lines, ln)
	}
	undIdx := -1
	for i, ln := range lines {
		if strings.EqualFold(ln, "und") {
			undIdx = i
			break
		}
	}
	if undIdx < 0 {
		mid := len(lines) / 2
		return [][]string{lines[:mid], lines[mid:]}
	}
	var before []string
	for _, ln := range lines[:undIdx] {
		if !strings.EqualFold(ln, "zwischen") {
			before = append(before, ln)
		}
	}
	return [][]string{before, lines[undIdx+1:]}
}

func packParty(chunk []string) (name, addr string) {
	var kept []string
	for _, c := range chunk {
		lc := strings.ToLower(c)
		if lc == "zwischen" || lc == "und" {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return "", ""
	}
	name = kept[0]
	hi := len(kept)
	if hi > 4 {
		hi = 4
	}
	return name, strings.Join(kept[1:hi], "\n")
}

func isOrgName(name string) bool {
	for _, h := range orgHints {
		if strings.Contains(name, h) {
			return true
		}
	}
	return false
}

func (x *ContractExtractor) Extract(docID, text string) (span.Batch, error) {
	var items []span.Span

	mk := func(t span.ItemType, subtype, raw, val, unit, currency string, start, end *int, conf float64) {
		items = append(items, span.Span{
			ItemType: t, Subtype: subtype, TextRaw: raw, ValueNorm: val,
			Unit: unit, Currency: currency, Start: start, End: end,
			Confidence: conf, Extractor: x.Name(), Version: x.Version(),
		})
	}

	// Title-level contract type.
	if m := reContractType.FindStringSubmatchIndex(text); m != nil {
		mk(span.TypeClause, "contract_type", text[m[0]:m[1]], text[m[2]:m[3]], "", "", nil, nil, 0.95)
	}

	// Intro party block.
	if pb := rePartyBlock.FindStringSubmatchIndex(text); pb != nil {
		chunks := splitPartyBlock(text[pb[2]:pb[3]])
		for i, ch := range chunks {
			if i >= 2 {
				break
			}
			name, addr := packParty(ch)
			lc := strings.ToLower(name)
			if name == "" || lc == "und" || lc == "zwischen" {
				continue
			}
			subtype := "individual"
			if isOrgName(name) {
				subtype = "company"
			}
			raw := name
			if addr != "" {
				raw = name + "\n" + addr
			}
			mk(span.TypeParty, subtype, strings.TrimSpace(raw), name, "", "",
				span.Offs(pb[0]), span.Offs(pb[1]), 0.97)
		}
	}

	s1a, s1b, ok1 := sectionSpan(text, reSec1, []*regexp.Regexp{reSec2, reSec3, reSec4})
	s2a, s2b, ok2 := sectionSpan(text, reSec2, []*regexp.Regexp{reSec3, reSec4})
	s3a, s3b, ok3 := sectionSpan(text, reSec3, []*regexp.Regexp{reSec4})
	s4a, s4b, ok4 := sectionSpan(text, reSec4, nil)

	if ok1 {
		mk(span.TypeClause, "subject", strings.TrimSpace(text[s1a:s1b]), "", "", "",
			span.Offs(s1a), span.Offs(s1b), 0.94)
	}
	if ok2 {
		mk(span.TypeClause, "obligations", strings.TrimSpace(text[s2a:s2b]), "", "", "",
			span.Offs(s2a), span.Offs(s2b), 0.9)
	}

	if ok3 {
		sec3 := text[s3a:s3b]
		if m := reFee.FindStringSubmatch(sec3); m != nil {
			val := m[1]
			if f, ok := detext.ParseNumber(m[1]); ok {
				val = trimFloat(f)
			}
			mk(span.TypeMoney, "total_fee", m[0], val, "", "EUR",
				span.Offs(s3a), span.Offs(s3b), 0.9)
		}
		if m := reVATPct.FindStringSubmatch(sec3); m != nil {
			mk(span.TypeOther, "vat_rate_percent", m[0], m[1], "percent", "",
				span.Offs(s3a), span.Offs(s3b), 0.88)
		}
		if m := rePayDays.FindStringSubmatch(sec3); m != nil {
			mk(span.TypeOther, "payment_terms_days_after_invoice", m[0], m[1], "days", "",
				span.Offs(s3a), span.Offs(s3b), 0.9)
		}
	}

	if ok4 {
		sec4 := text[s4a:s4b]
		if m := reStartDate.FindStringSubmatch(sec4); m != nil {
			mk(span.TypeDate, "start_date", m[0], detext.ToISODate(m[1]), "", "",
				span.Offs(s4a), span.Offs(s4b), 0.9)
		}
		if m := reEndDate.FindStringSubmatch(sec4); m != nil {
			mk(span.TypeDate, "end_date", m[0], detext.ToISODate(m[1]), "", "",
				span.Offs(s4a), span.Offs(s4b), 0.9)
		}
		if m := reTermWeeks.FindStringSubmatch(sec4); m != nil {
			mk(span.TypeOther, "termination_notice_weeks_to_month_end", m[0], m[1], "weeks", "",
				span.Offs(s4a), span.Offs(s4b), 0.88)
		}
	}

	return span.Batch{DocID: docID, Items: items}, nil
}
