// Package schedule assembles the price schedule of a contract from two
// sources: pricing spans found in prose, and tables captured alongside the
// document text.
package schedule

import (
	"regexp"
	"strings"

	"github.com/vertragslab/klausel/internal/span"
)

// Row kinds.
const (
	KindMonthly = "monthly"
	KindYearly  = "yearly"
	KindFlat    = "flat"
)

// Row is one stage of the price schedule. Month bounds and year index are
// kept as strings: source documents leave them blank more often than not.
type Row struct {
	Kind       string `json:"type"`
	Subtype    string `json:"subtype"`
	AmountEUR  string `json:"amount_eur"`
	Unit       string `json:"unit"`
	StartMonth string `json:"start_month,omitempty"`
	EndMonth   string `json:"end_month,omitempty"`
	YearIndex  string `json:"year_index,omitempty"`
	Raw        string `json:"raw"`
}

var (
	reAmt      = regexp.MustCompile(`(\d{1,3}(?:\.\d{3})*(?:,\d{2})?)`)
	reAmtEUR   = regexp.MustCompile(`(?i)(\d{1,3}(?:\.\d{3})*(?:,\d{2})?)\s*(?:€|EUR)`)
	reVomRange = regexp.MustCompile(`vom\s+(\d+)\.\s*-\s*(\d+)\.\s*Monat`)
	reYearIdx  = regexp.MustCompile(`(?i)im\s*(\d)\.\s*Jahr`)

	reTblRange1 = regexp.MustCompile(`(?i)(\d{1,3})\s*[.\-–—]\s*(\d{1,3})\s*\.?\s*monat`)
	reTblRange2 = regexp.MustCompile(`(?i)(\d{1,3})\s*bis\s*(\d{1,3})\s*monat(?:e)?`)
	reTblFrom   = regexp.MustCompile(`(?i)ab\s*dem\s*(\d{1,3})\.?\s*monat`)
	reTblYear   = regexp.MustCompile(`(?i)(?:im|im\s*gesamten)?\s*(\d)\.?\s*jahr`)

	reNonDigit = regexp.MustCompile(`\D`)
	reSpaces   = regexp.MustCompile(`\s+`)
)

// FromSpans derives schedule rows from pricing spans: monthly ranges, yearly
// stages and flat per-year amounts.
func FromSpans(spans []span.Span) []Row {
	var rows []Row

	for _, s := range span.Filter(spans, span.TypeMoney, "price_schedule_monthly") {
		amt := ""
		if m := reAmt.FindStringSubmatch(s.TextRaw); m != nil {
			amt = m[1]
		}
		a, b := "", ""
		if m := reVomRange.FindStringSubmatch(s.TextRaw); m != nil {
			a, b = m[1], m[2]
		}
		rows = append(rows, Row{Kind: KindMonthly, Subtype: "price_schedule_monthly",
			AmountEUR: amt, Unit: "month", StartMonth: a, EndMonth: b, Raw: s.TextRaw})
	}

	for _, s := range span.Filter(spans, span.TypeMoney, "price_schedule_yearly") {
		amt := ""
		if m := reAmt.FindStringSubmatch(s.TextRaw); m != nil {
			amt = m[1]
		}
		y := ""
		if m := reYearIdx.FindStringSubmatch(s.TextRaw); m != nil {
			y = m[1]
		}
		rows = append(rows, Row{Kind: KindYearly, Subtype: "price_schedule_yearly",
			AmountEUR: amt, Unit: "year", YearIndex: y, Raw: s.TextRaw})
	}

	for _, s := range span.Filter(spans, span.TypeMoney, "price_per_year") {
		amt := ""
		if m := reAmt.FindStringSubmatch(s.TextRaw); m != nil {
			amt = m[1]
		}
		rows = append(rows, Row{Kind: KindFlat, Subtype: "price_per_year",
			AmountEUR: amt, Unit: "year", Raw: s.TextRaw})
	}

	return rows
}

// Table header synonym sets. A header cell matches if it contains any of the
// listed words.
var (
	hdrVon   = []string{"von", "start", "beginn", "monat von", "von monat", "beginn monat", "ab monat", "ab dem monat", "ab"}
	hdrBis   = []string{"bis", "ende", "monat bis", "bis monat", "ende monat"}
	hdrMonat = []string{"monat", "monate", "monat(e)", "duration", "zeitr", "zeitraum"}
	hdrJahr  = []string{"jahr", "jahr(e)", "jahrgang", "year"}
	hdrPreis = []string{"preis", "betrag", "summe", "kosten", "preis/monat", "monatsrate", "rate", "eur", "€"}
	hdrNote  = []string{"bemerkung", "anmerkung", "hinweis", "beschreibung"}
)

func normCell(s string) string {
	return reSpaces.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

func containsAny(c string, words []string) bool {
	for _, w := range words {
		if strings.Contains(c, w) {
			return true
		}
	}
	return false
}

// headerMap classifies header cells to column roles. The price check runs
// first: "Preis/Monat" is a price column, not a month column.
func headerMap(row []string) map[string]int {
	m := map[string]int{}
	for i, cell := range row {
		c := normCell(cell)
		if c == "" {
			continue
		}
		var k string
		switch {
		case containsAny(c, hdrPreis):
			k = "preis"
		case containsAny(c, hdrVon):
			k = "von"
		case containsAny(c, hdrBis):
			k = "bis"
		case containsAny(c, hdrJahr):
			k = "jahr"
		case containsAny(c, hdrMonat):
			k = "monat"
		case containsAny(c, hdrNote):
			k = "note"
		default:
			continue
		}
		if _, dup := m[k]; !dup {
			m[k] = i
		}
	}
	return m
}

func rowEmpty(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// FromTables derives schedule rows from raw tables. When a header row is
// recognized, cells are read by column role; otherwise each row is matched
// against the prose patterns.
func FromTables(tables [][][]string) []Row {
	var rows []Row

	for _, t := range tables {
		if len(t) == 0 {
			continue
		}
		empty := true
		for _, r := range t {
			if !rowEmpty(r) {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		hdrIdx := -1
		var hdr map[string]int
		for i, r := range t {
			if rowEmpty(r) {
				continue
			}
			if m := headerMap(r); len(m) > 0 {
				hdrIdx, hdr = i, m
				break
			}
		}

		for ri, r := range t {
			if hdrIdx >= 0 && ri <= hdrIdx {
				continue
			}
			line := strings.TrimSpace(strings.Join(r, " | "))
			if line == "" {
				continue
			}

			if len(hdr) > 0 {
				if row, ok := headerRow(r, hdr, line); ok {
					rows = append(rows, row)
					continue
				}
			}
			if row, ok := patternRow(line); ok {
				rows = append(rows, row)
			}
		}
	}

	return rows
}

func cellAt(r []string, hdr map[string]int, key string) string {
	i, ok := hdr[key]
	if !ok || i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

func headerRow(r []string, hdr map[string]int, line string) (Row, bool) {
	valAmt := cellAt(r, hdr, "preis")
	if !reAmtEUR.MatchString(valAmt) {
		for _, c := range r {
			if reAmtEUR.MatchString(c) {
				valAmt = c
				break
			}
		}
	}
	amt := ""
	if m := reAmtEUR.FindStringSubmatch(valAmt); m != nil {
		amt = m[1]
	}

	von := cellAt(r, hdr, "von")
	bis := cellAt(r, hdr, "bis")
	monat := cellAt(r, hdr, "monat")
	jahr := cellAt(r, hdr, "jahr")

	a, b := "", ""
	switch {
	case von != "" && bis != "":
		a = reNonDigit.ReplaceAllString(von, "")
		b = reNonDigit.ReplaceAllString(bis, "")
	case monat != "":
		m := reTblRange1.FindStringSubmatch(monat)
		if m == nil {
			m = reTblRange2.FindStringSubmatch(monat)
		}
		if m != nil {
			a, b = m[1], m[2]
		} else if f := reTblFrom.FindStringSubmatch(monat); f != nil {
			a = f[1]
		}
	}

	switch {
	case amt != "" && (a != "" || b != ""):
		return Row{Kind: KindMonthly, Subtype: "price_schedule_monthly",
			AmountEUR: amt, Unit: "month", StartMonth: a, EndMonth: b, Raw: line}, true
	case amt != "" && jahr != "":
		return Row{Kind: KindYearly, Subtype: "price_schedule_yearly",
			AmountEUR: amt, Unit: "year", YearIndex: reNonDigit.ReplaceAllString(jahr, ""), Raw: line}, true
	case amt != "" && (strings.Contains(normCell(monat), "monat") || strings.Contains(strings.ToLower(line), "monat") || von != "" || bis != ""):
		return Row{Kind: KindMonthly, Subtype: "price_schedule_monthly",
			AmountEUR: amt, Unit: "month", StartMonth: a, EndMonth: b, Raw: line}, true
	case amt != "" && (strings.Contains(strings.ToLower(jahr), "jahr") || strings.Contains(strings.ToLower(line), "jahr")):
		return Row{Kind: KindYearly, Subtype: "price_schedule_yearly",
			AmountEUR: amt, Unit: "year", YearIndex: reNonDigit.ReplaceAllString(jahr, ""), Raw: line}, true
	}
	return Row{}, false
}

func patternRow(line string) (Row, bool) {
	amt := ""
	if m := reAmtEUR.FindStringSubmatch(line); m != nil {
		amt = m[1]
	}

	m := reTblRange1.FindStringSubmatch(line)
	if m == nil {
		m = reTblRange2.FindStringSubmatch(line)
	}
	if m != nil {
		return Row{Kind: KindMonthly, Subtype: "price_schedule_monthly",
			AmountEUR: amt, Unit: "month", StartMonth: m[1], EndMonth: m[2], Raw: line}, true
	}
	if f := reTblFrom.FindStringSubmatch(line); f != nil {
		return Row{Kind: KindMonthly, Subtype: "price_schedule_monthly_from",
			AmountEUR: amt, Unit: "month", StartMonth: f[1], Raw: line}, true
	}
	if y := reTblYear.FindStringSubmatch(line); y != nil && amt != "" {
		return Row{Kind: KindYearly, Subtype: "price_schedule_yearly",
			AmountEUR: amt, Unit: "year", YearIndex: y[1], Raw: line}, true
	}
	if strings.Contains(strings.ToLower(line), "monat") && amt != "" {
		return Row{Kind: KindMonthly, Subtype: "price_schedule_monthly",
			AmountEUR: amt, Unit: "month", Raw: line}, true
	}
	return Row{}, false
}

// Build unions both sources, drops rows without an amount, and deduplicates
// identical rows while preserving order.
func Build(spans []span.Span, tables [][][]string) []Row {
	all := append(FromSpans(spans), FromTables(tables)...)

	seen := map[Row]bool{}
	var out []Row
	for _, r := range all {
		if strings.TrimSpace(r.AmountEUR) == "" {
			continue
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
