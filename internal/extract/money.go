package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vertragslab/klausel/internal/detext"
	"github.com/vertragslab/klausel/internal/span"
)

// moneyWindow is the context window (chars each side) used to classify an
// ambiguous amount by nearby keyword cues.
const moneyWindow = 80

var (
	// German format 1.234,56 with optional currency symbol or name on
	// either side.
	reMoney = regexp.MustCompile(`(?:[$€]|EUR|USD|SAR|SYP)?\s?\d{1,3}(?:[.,]\d{3})*(?:[.,]\d+)?\s?(?:[$€]|EUR|USD|SAR|SYP|Euro|euro)?`)

	rePercent = regexp.MustCompile(`\d{1,3}(?:[.,]\d+)?\s?%`)

	reDays   = regexp.MustCompile(`(?i)\b(\d{1,4})\s*(?:day|days|tag|tage|tagen)\b`)
	reMonths = regexp.MustCompile(`(?i)\b(\d{1,4})\s*(?:month|months|monat|monate|monaten)\b`)

	reIBAN = regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{1,30}\b`)
)

var (
	cuesMonthly   = []string{"per month", "p.m", "/month", "monatlich", "pro monat", "/monat"}
	cuesYearly    = []string{"per year", "p.a", "/year", "jährlich", "pro jahr", "/jahr"}
	cuesSurcharge = []string{"extra cost", "surcharge", "fee", "zusätzliche gebühren", "zusatzkosten", "aufschlag"}
	cuesVAT       = []string{"vat", "tax", "mwst", "ust", "umsatzsteuer", "mehrwertsteuer"}
	cuesNotice    = []string{"notice", "kündigungsfrist", "kuendigungsfrist", "frist"}
	cuesAutoRenew = []string{"auto renew", "renewal", "verlängert", "verlanger", "verlängerung", "automatische verlängerung"}
)

// MoneyExtractor detects amounts, percentages, day/month durations and IBANs,
// classifying each by keyword cues in a ±80 character window.
type MoneyExtractor struct{}

func NewMoneyExtractor() *MoneyExtractor { return &MoneyExtractor{} }

func (x *MoneyExtractor) Name() string    { return "money" }
func (x *MoneyExtractor) Version() string { return "1.2.0" }

func currencyOf(s string) string {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "eur") || strings.Contains(s, "€") || strings.Contains(s, "euro"):
		return "EUR"
	case strings.Contains(s, "usd") || strings.Contains(s, "$") || strings.Contains(s, "dollar"):
		return "USD"
	case strings.Contains(s, "sar"):
		return "SAR"
	case strings.Contains(s, "syp"):
		return "SYP"
	}
	return ""
}

func (x *MoneyExtractor) Extract(docID, text string) (span.Batch, error) {
	t := detext.NormalizeDigits(text)
	var items []span.Span

	for _, m := range reMoney.FindAllStringIndex(t, -1) {
		raw := strings.TrimSpace(t[m[0]:m[1]])
		if raw == "" {
			continue
		}
		ctx := strings.ToLower(detext.Window(t, m[0], m[1], moneyWindow))

		var subtype, unit string
		switch {
		case detext.ContainsAny(ctx, cuesMonthly):
			subtype, unit = "cost_per_month", "month"
		case detext.ContainsAny(ctx, cuesYearly):
			subtype, unit = "cost_per_year", "year"
		case detext.ContainsAny(ctx, cuesSurcharge):
			subtype = "extra_cost"
		}

		currency := currencyOf(raw)
		if currency == "" {
			currency = currencyOf(ctx)
		}

		items = append(items, span.Span{
			ItemType:  span.TypeMoney,
			Subtype:   subtype,
			TextRaw:   raw,
			ValueNorm: raw,
			Currency:  currency,
			Unit:      unit,
			Start:     span.Offs(m[0]),
			End:       span.Offs(m[1]),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	for _, m := range rePercent.FindAllStringIndex(t, -1) {
		raw := t[m[0]:m[1]]
		ctx := strings.ToLower(detext.Window(t, m[0], m[1], moneyWindow))
		subtype := "percent"
		if detext.ContainsAny(ctx, cuesVAT) {
			subtype = "vat_percent"
		}
		items = append(items, span.Span{
			ItemType:  span.TypeMoney,
			Subtype:   subtype,
			TextRaw:   raw,
			ValueNorm: raw,
			Start:     span.Offs(m[0]),
			End:       span.Offs(m[1]),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	for _, m := range reDays.FindAllStringSubmatchIndex(t, -1) {
		raw := t[m[0]:m[1]]
		n := t[m[2]:m[3]]
		ctx := strings.ToLower(detext.Window(t, m[0], m[1], moneyWindow))
		subtype := "duration_days"
		if detext.ContainsAny(ctx, cuesNotice) {
			subtype = "notice_days"
		}
		items = append(items, span.Span{
			ItemType:  span.TypeMoney,
			Subtype:   subtype,
			TextRaw:   raw,
			ValueNorm: stripLeadingZeros(n),
			Unit:      "days",
			Start:     span.Offs(m[0]),
			End:       span.Offs(m[1]),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	for _, m := range reMonths.FindAllStringSubmatchIndex(t, -1) {
		raw := t[m[0]:m[1]]
		n := t[m[2]:m[3]]
		ctx := strings.ToLower(detext.Window(t, m[0], m[1], moneyWindow))
		subtype := "duration_months"
		if detext.ContainsAny(ctx, cuesAutoRenew) {
			subtype = "auto_renew_months"
		}
		items = append(items, span.Span{
			ItemType:  span.TypeMoney,
			Subtype:   subtype,
			TextRaw:   raw,
			ValueNorm: stripLeadingZeros(n),
			Unit:      "months",
			Start:     span.Offs(m[0]),
			End:       span.Offs(m[1]),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	for _, m := range reIBAN.FindAllStringIndex(t, -1) {
		raw := t[m[0]:m[1]]
		items = append(items, span.Span{
			ItemType:  span.TypeMoney,
			Subtype:   "iban",
			TextRaw:   raw,
			ValueNorm: strings.ReplaceAll(raw, " ", ""),
			Start:     span.Offs(m[0]),
			End:       span.Offs(m[1]),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	return span.Batch{DocID: docID, Items: items}, nil
}

func stripLeadingZeros(s string) string {
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return strconv.Itoa(n)
}
