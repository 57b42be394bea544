package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseRuleParameters(t *testing.T) {
	p, err := Parse([]byte(`
rules:
  - id: r1
    type: min_value
    severity: medium
    description: "mindestens drei"
    where: { type: other, subtype: notice_months }
    field: value_norm
    threshold: 3
  - id: r2
    type: presence_implies_any
    if:
      - { type: clause, subtype: dsgvo }
    any:
      - { type: clause, subtype: avv }
      - { type: clause, subtype: toms }
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p.Rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(p.Rules))
	}
	r1 := p.Rules[0]
	if r1.Where.Type != "other" || r1.Where.Subtype != "notice_months" {
		t.Errorf("where = %+v", r1.Where)
	}
	if r1.Threshold == nil || *r1.Threshold != 3 {
		t.Errorf("threshold = %v, want 3", r1.Threshold)
	}
	r2 := p.Rules[1]
	if len(r2.If) != 1 || len(r2.Any) != 2 {
		t.Errorf("if/any lengths = %d/%d", len(r2.If), len(r2.Any))
	}
	if r2.Severity != "" {
		t.Errorf("severity should stay empty when omitted, got %q", r2.Severity)
	}
}

func TestParseRejectsIncompleteRules(t *testing.T) {
	if _, err := Parse([]byte("rules:\n  - type: presence\n")); err == nil {
		t.Error("rule without id should fail")
	}
	if _, err := Parse([]byte("rules:\n  - id: r1\n")); err == nil {
		t.Error("rule without type should fail")
	}
	if _, err := Parse([]byte(": : :")); err == nil {
		t.Error("malformed yaml should fail")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.yml")
	if err := os.WriteFile(path, []byte("rules:\n  - id: x\n    type: presence\n    target: money\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.Rules) != 1 || p.Rules[0].Target != "money" {
		t.Errorf("unexpected policy: %+v", p)
	}
}

func TestDefaultCoversAllRuleTypes(t *testing.T) {
	p := Default()
	if len(p.Rules) == 0 {
		t.Fatal("default policy is empty")
	}
	types := map[string]bool{}
	ids := map[string]bool{}
	for _, r := range p.Rules {
		types[r.Type] = true
		if ids[r.ID] {
			t.Errorf("duplicate rule id %q", r.ID)
		}
		ids[r.ID] = true
	}
	want := []string{
		"presence", "presence_any", "presence_implies", "presence_implies_any",
		"min_value", "reaction_time_max_hours", "start_before_end",
		"govlaw_requires_jurisdiction", "cisg_excluded_if_de_govlaw",
		"vat_present_if_eur", "price_schedule_exists_if_costs",
		"payment_annual_requires_advance", "monthly_yearly_consistency",
		"price_covers_term", "net_vat_brutto_consistency",
		"year1_free_if_free_months", "entities_roles_both_present",
	}
	for _, w := range want {
		if !types[w] {
			t.Errorf("default policy has no %s rule", w)
		}
	}
}
