package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vertragslab/klausel/internal/detext"
	"github.com/vertragslab/klausel/internal/span"
)

var (
	reSumMoney = regexp.MustCompile(`(?i)(\d{1,3}(?:\.\d{3})*(?:,\d{2})?)\s*(EUR|€)`)
	reSumVAT   = regexp.MustCompile(`(?i)(?:Umsatzsteuer|MwSt)[^%]{0,120}?(?:derzeit\s*)?(\d{1,2})%`)
	reSumPay   = regexp.MustCompile(`(?i)(\d{1,3})\s*Tage\s+nach\s+Rechnungserhalt`)
	reSumSec3  = regexp.MustCompile(`(?is)(§\s*3\s+[^\n]+)(.*?)(\n\s*§\s*4\s+|$)`)
	reSumSec4  = regexp.MustCompile(`(?is)(§\s*4\s+[^\n]+)(.*?)(\n\s*§\s*\d+\s+|$)`)
)

// Summarize renders a short German markdown summary of the contract. Fields
// missing from the key facts are re-read from the combined span text, so a
// sparse extraction still yields a usable summary.
func Summarize(spans []span.Span, kf KeyFacts) string {
	var lines []string

	var raws []string
	for _, s := range spans {
		if s.TextRaw != "" {
			raws = append(raws, s.TextRaw)
		}
	}
	allText := strings.Join(raws, "\n")

	sec3 := ""
	if m := reSumSec3.FindString(allText); m != "" {
		sec3 = m
	}
	sec4 := ""
	if m := reSumSec4.FindString(allText); m != "" {
		sec4 = m
	}

	var partyLabels []string
	if kf.Party1 != "" {
		partyLabels = append(partyLabels, "A: "+kf.Party1)
	}
	if kf.Party2 != "" {
		partyLabels = append(partyLabels, "B: "+kf.Party2)
	}
	if len(partyLabels) > 0 {
		lines = append(lines, "**Parteien:** "+strings.Join(partyLabels, " / "))
	}

	if kf.ContractType != "" {
		lines = append(lines, "**Vertragsart:** "+kf.ContractType)
	}
	if kf.SubjectSnippet != "" {
		lines = append(lines, "**Vertragsgegenstand:** "+kf.SubjectSnippet)
	}

	fee := kf.TotalFee
	if fee == "" && sec3 != "" {
		// largest EUR amount in §3
		best := 0.0
		found := false
		for _, m := range reSumMoney.FindAllStringSubmatch(sec3, -1) {
			if f, ok := detext.ParseNumber(m[1]); ok && (!found || f > best) {
				best, found = f, true
			}
		}
		if found {
			fee = strconv.FormatFloat(best, 'f', -1, 64)
		}
	}
	if fee != "" {
		cur := kf.Currency
		if cur == "" {
			cur = "EUR"
		}
		lines = append(lines, strings.TrimSpace(fmt.Sprintf("**Vergütung:** %s %s", fee, cur)))
	}

	vat := kf.VATRatePercent
	if vat == "" && sec3 != "" {
		if m := reSumVAT.FindStringSubmatch(sec3); m != nil {
			vat = m[1]
		}
	}
	if vat != "" {
		lines = append(lines, fmt.Sprintf("**USt.:** %s%%", vat))
	}

	pay := kf.PaymentTermsDays
	if pay == "" && sec3 != "" {
		if m := reSumPay.FindStringSubmatch(sec3); m != nil {
			pay = m[1]
		}
	}
	if pay != "" {
		lines = append(lines, fmt.Sprintf("**Zahlungsziel:** %s Tage nach Rechnungserhalt", pay))
	}

	start := detext.ToISODate(kf.StartDate)
	end := detext.ToISODate(kf.EndDate)
	if start == "" && sec4 != "" {
		if m := reStart.FindStringSubmatch(sec4); m != nil {
			start = detext.ToISODate(m[1])
		}
	}
	if end == "" && sec4 != "" {
		if m := reEnd.FindStringSubmatch(sec4); m != nil {
			end = detext.ToISODate(m[1])
		}
	}
	if start != "" || end != "" {
		if start == "" {
			start = "—"
		}
		if end == "" {
			end = "—"
		}
		lines = append(lines, fmt.Sprintf("**Laufzeit:** %s bis %s", start, end))
	}

	if kf.JurisdictionCity != "" || kf.GoverningLaw != "" {
		var lj []string
		if kf.GoverningLaw != "" {
			lj = append(lj, "Deutsches Recht")
		}
		if kf.JurisdictionCity != "" {
			lj = append(lj, "Gerichtsstand "+kf.JurisdictionCity)
		}
		lines = append(lines, "**Recht/Gerichtsstand:** "+strings.Join(lj, " / "))
	}

	return strings.Join(lines, "\n\n")
}
