// Package rules evaluates declarative compliance policies against the
// extracted facts of one document: spans, resolved party roles and the
// price schedule.
//
// Every rule yields exactly one Result. A rule that cannot be evaluated
// (malformed data, unknown type, panic during evaluation) fails closed:
// it reports passed=false instead of aborting the batch. Auto-pass is a
// distinct outcome: the rule's trigger never occurred, passed=true and no
// evidence is attached.
package rules

import (
	"fmt"
	"math"
	"strings"

	"github.com/vertragslab/klausel/internal/detext"
	"github.com/vertragslab/klausel/internal/policy"
	"github.com/vertragslab/klausel/internal/schedule"
	"github.com/vertragslab/klausel/internal/span"
)

// Result is the outcome of one rule for one document.
type Result struct {
	RuleID      string   `json:"rule_id"`
	Passed      bool     `json:"passed"`
	Severity    string   `json:"severity"`
	Message     string   `json:"message"`
	EvidenceIDs []string `json:"evidence_span_ids"`
}

const maxEvidence = 5

// Evaluate runs every rule in the policy against the document facts. Roles
// maps lower-cased canonical party names to "customer" or "provider". The
// result slice has one entry per rule, in policy order.
func Evaluate(spans []span.Span, roles map[string]string, price []schedule.Row, pol *policy.Policy) []Result {
	if pol == nil {
		return nil
	}
	out := make([]Result, 0, len(pol.Rules))
	for _, rule := range pol.Rules {
		out = append(out, evalRule(spans, roles, price, rule))
	}
	return out
}

func evalRule(spans []span.Span, roles map[string]string, price []schedule.Row, rule policy.Rule) (res Result) {
	sev := rule.Severity
	if sev == "" {
		sev = "low"
	}
	res = Result{RuleID: rule.ID, Severity: sev, Message: rule.Description}
	defer func() {
		if r := recover(); r != nil {
			res.Passed = false
			res.EvidenceIDs = nil
		}
		if len(res.EvidenceIDs) > maxEvidence {
			res.EvidenceIDs = res.EvidenceIDs[:maxEvidence]
		}
	}()

	switch rule.Type {
	case "presence":
		matches := span.Filter(spans, span.ItemType(rule.Target), rule.Subtype)
		res.Passed = len(matches) > 0
		if res.Passed {
			res.EvidenceIDs = spanIDs(matches)
		}

	case "presence_any":
		for _, opt := range rule.Options {
			if m := matchSel(spans, opt); len(m) > 0 {
				res.Passed = true
				res.EvidenceIDs = append(res.EvidenceIDs, spanIDs(m[:1])...)
			}
		}

	case "presence_implies":
		var condIDs []string
		condHit := false
		for _, opt := range rule.If {
			if m := matchSel(spans, opt); len(m) > 0 {
				condHit = true
				condIDs = append(condIDs, spanIDs(m[:1])...)
			}
		}
		if !condHit {
			res.Passed = true
			return
		}
		allOK := true
		var needIDs []string
		for _, opt := range rule.Then {
			m := matchSel(spans, opt)
			if len(m) == 0 {
				allOK = false
			} else {
				needIDs = append(needIDs, spanIDs(m[:1])...)
			}
		}
		res.Passed = allOK
		res.EvidenceIDs = append(condIDs, needIDs...)

	case "presence_implies_any":
		var condIDs []string
		condHit := false
		for _, opt := range rule.If {
			if m := matchSel(spans, opt); len(m) > 0 {
				condHit = true
				condIDs = append(condIDs, spanIDs(m[:1])...)
			}
		}
		if !condHit {
			res.Passed = true
			return
		}
		anyOK := false
		var hitIDs []string
		for _, opt := range rule.Any {
			if m := matchSel(spans, opt); len(m) > 0 {
				anyOK = true
				hitIDs = append(hitIDs, spanIDs(m[:1])...)
			}
		}
		res.Passed = anyOK
		res.EvidenceIDs = append(condIDs, hitIDs...)

	case "min_value":
		thr := 0.0
		if rule.Threshold != nil {
			thr = *rule.Threshold
		}
		matches := matchSel(spans, rule.Where)
		var best span.Span
		mx, found := 0.0, false
		for _, s := range matches {
			v, ok := detext.ParseNumber(fieldOf(s, rule.Field))
			if !ok {
				continue
			}
			if !found || v > mx {
				mx, best, found = v, s, true
			}
		}
		if found {
			res.Passed = mx >= thr
			res.EvidenceIDs = spanIDs([]span.Span{best})
		}

	case "reaction_time_max_hours":
		thr := 48.0
		if rule.Threshold != nil {
			thr = *rule.Threshold
		}
		matches := span.Filter(spans, "", "reaction_time_hours")
		var best span.Span
		mn, found := 0.0, false
		for _, s := range matches {
			v, ok := detext.ParseNumber(s.ValueNorm)
			if !ok {
				continue
			}
			if !found || v < mn {
				mn, best, found = v, s, true
			}
		}
		if found {
			res.Passed = mn <= thr
			res.EvidenceIDs = spanIDs([]span.Span{best})
		}

	case "start_before_end":
		s, okS := span.First(spans, "", "start_date")
		e, okE := span.First(spans, "", "end_date")
		if !okS || !okE {
			res.Passed = true
			return
		}
		ds, okDS := detext.ParseDate(s.ValueNorm)
		de, okDE := detext.ParseDate(e.ValueNorm)
		if okDS && okDE {
			res.Passed = !ds.After(de)
		}
		res.EvidenceIDs = append(spanIDs([]span.Span{s}), spanIDs([]span.Span{e})...)

	case "govlaw_requires_jurisdiction":
		gl := span.Filter(spans, "", "governing_law")
		if len(gl) == 0 {
			res.Passed = true
			return
		}
		jur := span.Filter(spans, span.TypeClause, "jurisdiction")
		res.Passed = len(jur) > 0
		res.EvidenceIDs = spanIDs(gl[:1])
		if len(jur) > 0 {
			res.EvidenceIDs = append(res.EvidenceIDs, spanIDs(jur[:1])...)
		}

	case "cisg_excluded_if_de_govlaw":
		gl := span.Filter(spans, "", "governing_law")
		if len(gl) == 0 {
			res.Passed = true
			return
		}
		var texts []string
		for _, s := range gl {
			texts = append(texts, s.TextRaw)
		}
		txt := strings.ToLower(strings.Join(texts, " "))
		isDE := false
		for _, w := range []string{"deutsch", "bundesrepublik", "deutsches recht", "german law"} {
			if strings.Contains(txt, w) {
				isDE = true
				break
			}
		}
		if !isDE {
			res.Passed = true
			return
		}
		cisg := span.Filter(spans, span.TypeClause, "cisg_excluded")
		res.Passed = len(cisg) > 0
		res.EvidenceIDs = spanIDs(gl[:1])
		if len(cisg) > 0 {
			res.EvidenceIDs = append(res.EvidenceIDs, spanIDs(cisg[:1])...)
		}

	case "vat_present_if_eur":
		money := span.Filter(spans, span.TypeMoney, "")
		hasEUR := false
		for _, s := range money {
			t := strings.ToLower(s.TextRaw)
			if strings.Contains(t, "€") || strings.Contains(t, "eur") {
				hasEUR = true
				break
			}
		}
		if !hasEUR {
			res.Passed = true
			return
		}
		if len(money) > 2 {
			res.EvidenceIDs = spanIDs(money[:2])
		} else {
			res.EvidenceIDs = spanIDs(money)
		}
		vat := span.Filter(spans, span.TypeMoney, "vat_percent")
		res.Passed = len(vat) > 0
		if len(vat) > 0 {
			res.EvidenceIDs = append(res.EvidenceIDs, spanIDs(vat[:1])...)
		}

	case "price_schedule_exists_if_costs":
		hasCost := span.Exists(spans, span.TypeMoney, "cost_per_month") ||
			span.Exists(spans, span.TypeMoney, "cost_per_year")
		if !hasCost {
			res.Passed = true
			return
		}
		res.Passed = len(price) > 0
		if res.Passed {
			res.EvidenceIDs = []string{"PriceSchedule"}
		}

	case "year1_free_if_free_months":
		var yearRows []schedule.Row
		for _, r := range price {
			if r.Unit == "year" && r.YearIndex != "" {
				yearRows = append(yearRows, r)
			}
		}
		if len(yearRows) == 0 {
			res.Passed = true
			return
		}
		y1Seen := false
		minAmt := math.Inf(1)
		for _, r := range yearRows {
			y, ok := detext.ParseNumber(r.YearIndex)
			if !ok || int(y) != 1 {
				continue
			}
			y1Seen = true
			amt, ok := detext.ParseNumber(r.AmountEUR)
			if !ok {
				amt = 0
			}
			minAmt = math.Min(minAmt, amt)
		}
		if y1Seen && minAmt == 0 {
			res.Passed = true
			res.EvidenceIDs = []string{"PriceSchedule:Y1=0"}
		}

	case "entities_roles_both_present":
		hasCustomer, hasProvider := false, false
		for _, r := range roles {
			switch strings.ToLower(r) {
			case "customer":
				hasCustomer = true
			case "provider":
				hasProvider = true
			}
		}
		res.Passed = hasCustomer && hasProvider
		if res.Passed {
			res.EvidenceIDs = []string{"entities:roles"}
		}

	case "monthly_yearly_consistency":
		tol := 5.0
		if rule.TolerancePct != nil {
			tol = *rule.TolerancePct
		}
		tol /= 100.0
		monthly := span.Filter(spans, "", "cost_per_month")
		yearly := span.Filter(spans, "", "cost_per_year")
		if len(monthly) == 0 || len(yearly) == 0 {
			res.Passed = true
			return
		}
		for _, m := range monthly {
			mv, okM := detext.ParseNumber(m.ValueNorm)
			if !okM || mv == 0 {
				continue
			}
			for _, y := range yearly {
				yv, okY := detext.ParseNumber(y.ValueNorm)
				if !okY || yv == 0 {
					continue
				}
				exp := mv * 12.0
				if math.Abs(yv-exp)/exp <= tol {
					res.Passed = true
					res.EvidenceIDs = append(spanIDs([]span.Span{m}), spanIDs([]span.Span{y})...)
					return
				}
			}
		}

	case "payment_annual_requires_advance":
		intervals := span.Filter(spans, "", "payment_interval")
		hasYearly := false
		for _, s := range intervals {
			if strings.Contains(strings.ToLower(s.ValueNorm), "jähr") {
				hasYearly = true
				break
			}
		}
		if !hasYearly || !span.Exists(spans, span.TypeMoney, "cost_per_year") {
			res.Passed = true
			return
		}
		adv := span.Filter(spans, "", "payment_advance")
		res.Passed = len(adv) > 0
		res.EvidenceIDs = spanIDs(intervals[:1])
		if len(adv) > 0 {
			res.EvidenceIDs = append(res.EvidenceIDs, spanIDs(adv[:1])...)
		}

	case "price_covers_term":
		tm := termMonths(spans)
		if tm <= 0 {
			res.Passed = true
			return
		}
		covered := coveredMonths(price)
		var missing []int
		for m := 1; m <= tm; m++ {
			if !covered[m] {
				missing = append(missing, m)
			}
		}
		if len(missing) <= rule.Tolerance {
			res.Passed = true
			res.EvidenceIDs = []string{"PriceSchedule"}
			return
		}
		shown := missing
		suffix := ""
		if len(shown) > 20 {
			shown = shown[:20]
			suffix = "..."
		}
		gap := fmt.Sprintf("Fehlende Monate im Preisplan: %v%s", shown, suffix)
		if res.Message != "" {
			res.Message += " | " + gap
		} else {
			res.Message = gap
		}
		res.EvidenceIDs = []string{"PriceSchedule"}

	case "net_vat_brutto_consistency":
		tol := 1.0
		if rule.ToleranceEUR != nil {
			tol = *rule.ToleranceEUR
		}
		res.Passed = netVATGrossConsistent(spans, tol)

	default:
		res.Passed = false
	}
	return
}

func matchSel(spans []span.Span, sel policy.Selector) []span.Span {
	return span.Filter(spans, span.ItemType(sel.Type), sel.Subtype)
}

func fieldOf(s span.Span, field string) string {
	if field == "text_raw" {
		return s.TextRaw
	}
	return s.ValueNorm
}

// spanIDs collects up to maxEvidence ids from the given spans.
func spanIDs(spans []span.Span) []string {
	return span.IDs(spans, maxEvidence)
}

func numsFrom(spans []span.Span, subtype string) []float64 {
	var out []float64
	for _, s := range span.Filter(spans, "", subtype) {
		if s.ValueNorm == "" {
			continue
		}
		if v, ok := detext.ParseNumber(s.ValueNorm); ok {
			out = append(out, v)
		}
	}
	return out
}

// termMonths reads the contract term length from the first span carrying a
// known term subtype.
func termMonths(spans []span.Span) int {
	for _, st := range []string{"min_term_months", "term_months"} {
		s, ok := span.First(spans, "", st)
		if !ok {
			continue
		}
		if v, okN := detext.ParseNumber(s.ValueNorm); okN {
			return int(v)
		}
	}
	return 0
}

// coveredMonths expands the price schedule into the set of contract months
// it prices. Month rows contribute their inclusive range, year rows a full
// twelve-month block by year index.
func coveredMonths(price []schedule.Row) map[int]bool {
	months := map[int]bool{}
	for _, r := range price {
		switch r.Unit {
		case "month":
			s := toInt(r.StartMonth)
			e := toInt(r.EndMonth)
			if s > 0 && e >= s {
				for m := s; m <= e; m++ {
					months[m] = true
				}
			}
		case "year":
			y := toInt(r.YearIndex)
			if y > 0 {
				for m := (y-1)*12 + 1; m <= y*12; m++ {
					months[m] = true
				}
			}
		}
	}
	return months
}

func toInt(s string) int {
	v, ok := detext.ParseNumber(s)
	if !ok {
		return 0
	}
	return int(v)
}

// netVATGrossConsistent checks whether any (net, vat, gross) combination
// among the document's amounts reconciles within tol euros. The vat leg is
// tried first as an absolute amount, then as a percentage. Auto-pass when
// no net/gross pair exists.
func netVATGrossConsistent(spans []span.Span, tol float64) bool {
	net := numsFrom(spans, "net_amount_eur")
	gross := numsFrom(spans, "gross_amount_eur")
	if len(net) == 0 || len(gross) == 0 {
		return true
	}
	for _, n := range net {
		for _, v := range numsFrom(spans, "vat_amount_eur") {
			for _, g := range gross {
				if math.Abs((n+v)-g) <= tol {
					return true
				}
			}
		}
	}
	for _, n := range net {
		for _, p := range numsFrom(spans, "vat_percent") {
			for _, g := range gross {
				if math.Abs(n*(1.0+p/100.0)-g) <= tol {
					return true
				}
			}
		}
	}
	return false
}
