package pipeline

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/vertragslab/klausel/internal/policy"
	"github.com/vertragslab/klausel/internal/span"
)

const contractText = `Dienstleistungsvertrag

Zwischen
MediServ GmbH
Hauptstraße 12
80331 München
(im Folgenden "Auftragnehmer")

und

Klinikum Nordstadt
Am Park 3
30167 Hannover
(im Folgenden "Auftraggeber")

wird folgender Vertrag geschlossen:

§ 1 Vertragsgegenstand
Wartung und Instandhaltung der medizintechnischen Geräte.

§ 2 Pflichten des Auftragnehmers
Der Auftragnehmer führt die Wartung vierteljährlich durch.
Die Reaktionszeit beträgt 4 Stunden.

§ 3 Vergütung
Die Vergütung beträgt 10.000,00 EUR zuzüglich Umsatzsteuer von derzeit 19%.
Zahlbar 30 Tage nach Rechnungserhalt.

§ 4 Vertragsdauer
Der Vertrag tritt am 01.01.2025 in Kraft und endet am 31.12.2027.
Die Kündigung ist mit einer Frist von 6 Wochen zum Monatsende möglich.

§ 5 Schlussbestimmungen
Es gilt deutsches Recht. Das UN-Kaufrecht (CISG) findet keine Anwendung.
Gerichtsstand: München.
`

func findRule(t *testing.T, res *Result, id string) (rule struct {
	Passed   bool
	Evidence []string
}) {
	t.Helper()
	for _, c := range res.Compliance {
		if c.RuleID == id {
			rule.Passed = c.Passed
			rule.Evidence = c.EvidenceIDs
			return
		}
	}
	t.Fatalf("rule %s missing from compliance results", id)
	return
}

func TestRunRequiresDocID(t *testing.T) {
	r := New(slog.Default())
	if _, err := r.Run(Document{Text: "irrelevant"}); !errors.Is(err, ErrNoDocID) {
		t.Errorf("err = %v, want ErrNoDocID", err)
	}
}

func TestRunEmptyTextYieldsTypedResult(t *testing.T) {
	r := New(nil)
	res, err := r.Run(Document{ID: "empty"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.DocID != "empty" {
		t.Errorf("doc id = %q", res.DocID)
	}
	if len(res.Compliance) != len(r.Policy.Rules) {
		t.Errorf("got %d compliance results for %d rules", len(res.Compliance), len(r.Policy.Rules))
	}
}

func TestRunFullContract(t *testing.T) {
	r := New(nil)
	res, err := r.Run(Document{ID: "e2e", Text: contractText})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Spans) == 0 {
		t.Fatal("no spans extracted")
	}
	for _, s := range res.Spans {
		if s.ID == "" {
			t.Fatalf("span without id: %+v", s)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("span %s invalid: %v", s.ID, err)
		}
	}

	kf := res.KeyFacts
	if kf.TotalFee != "10000" || kf.Currency != "EUR" {
		t.Errorf("total fee = %q %q", kf.TotalFee, kf.Currency)
	}
	if kf.VATRatePercent != "19" {
		t.Errorf("vat = %q", kf.VATRatePercent)
	}
	if kf.StartDate != "2025-01-01" || kf.EndDate != "2027-12-31" {
		t.Errorf("term = %q..%q", kf.StartDate, kf.EndDate)
	}
	if kf.Party1 == "" || kf.Party2 == "" {
		t.Errorf("parties = %q / %q", kf.Party1, kf.Party2)
	}

	if len(res.Entities) < 2 {
		t.Fatalf("entities = %+v", res.Entities)
	}
	known := map[string]bool{}
	for _, e := range res.Entities {
		known[e.ID] = true
	}
	spanIDs := map[string]bool{}
	for _, s := range res.Spans {
		spanIDs[s.ID] = true
	}
	for _, l := range res.Links {
		if l.SubjectID != "doc:e2e" {
			t.Errorf("link subject = %q", l.SubjectID)
		}
		if !known[l.ObjectID] {
			t.Errorf("dangling link object %q", l.ObjectID)
		}
		if l.EvidenceSpanID != "" && !spanIDs[l.EvidenceSpanID] {
			t.Errorf("link evidence %q is not a span id", l.EvidenceSpanID)
		}
	}

	if len(res.Compliance) != len(r.Policy.Rules) {
		t.Fatalf("got %d compliance results for %d rules", len(res.Compliance), len(r.Policy.Rules))
	}
	if c := findRule(t, res, "term_dates_ordered"); !c.Passed {
		t.Error("term_dates_ordered should pass for 2025..2027")
	}
	if c := findRule(t, res, "eur_needs_vat"); !c.Passed {
		t.Error("eur_needs_vat should pass: VAT rate is stated")
	}
	if c := findRule(t, res, "cisg_exclusion"); !c.Passed {
		t.Error("cisg_exclusion should pass: exclusion clause present")
	}
	if c := findRule(t, res, "govlaw_needs_jurisdiction"); !c.Passed {
		t.Error("govlaw_needs_jurisdiction should pass: Gerichtsstand München")
	}
	if c := findRule(t, res, "reaction_time_limit"); !c.Passed {
		t.Error("reaction_time_limit should pass: 4h <= 24h")
	}

	if !strings.Contains(res.Summary, "10000") {
		t.Errorf("summary does not mention the fee: %q", res.Summary)
	}
}

func TestRunWithAllowList(t *testing.T) {
	r := New(nil)
	r.Allow = []string{"contract"}
	res, err := r.Run(Document{ID: "allow", Text: contractText})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, s := range res.Spans {
		if s.Extractor != "contract" && s.Extractor != "normalizer" {
			t.Errorf("unexpected extractor %q with allow-list", s.Extractor)
		}
	}
}

func TestRunWithExternalPolicy(t *testing.T) {
	r := New(nil)
	pol, err := policy.Parse([]byte("rules:\n  - id: only\n    type: presence\n    target: money\n    subtype: total_fee\n"))
	if err != nil {
		t.Fatal(err)
	}
	r.Policy = pol
	res, err := r.Run(Document{ID: "pol", Text: contractText})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Compliance) != 1 || res.Compliance[0].RuleID != "only" {
		t.Errorf("compliance = %+v", res.Compliance)
	}
	if !res.Compliance[0].Passed {
		t.Error("total_fee presence should pass")
	}
	if len(span.Filter(res.Spans, span.TypeMoney, "total_fee")) == 0 {
		t.Error("no total_fee span in result")
	}
}

func TestRunTablesFeedSchedule(t *testing.T) {
	tables := [][][]string{{
		{"Von Monat", "Bis Monat", "Preis"},
		{"1", "12", "500,00 EUR"},
		{"13", "36", "650,00 EUR"},
	}}
	r := New(nil)
	res, err := r.Run(Document{ID: "tbl", Text: contractText, Tables: tables})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Schedule) < 2 {
		t.Fatalf("schedule = %+v", res.Schedule)
	}
	found := false
	for _, row := range res.Schedule {
		if row.StartMonth == "13" && row.EndMonth == "36" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing 13..36 row: %+v", res.Schedule)
	}
}
