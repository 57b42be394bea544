package schedule

import (
	"testing"

	"github.com/vertragslab/klausel/internal/span"
)

func priceSpan(subtype, raw string) span.Span {
	return span.Span{
		ID: "sp_000001", DocID: "d", ItemType: span.TypeMoney, Subtype: subtype,
		TextRaw: raw, ValueNorm: raw, Confidence: 1,
	}
}

func TestFromSpans(t *testing.T) {
	spans := []span.Span{
		priceSpan("price_schedule_monthly", "vom 1. - 12. Monat je 1.200,00 EUR"),
		priceSpan("price_schedule_yearly", "im 2. Jahr 15.000,00 EUR"),
		priceSpan("price_per_year", "Kosten/Jahr € 15.450,00"),
	}

	rows := FromSpans(spans)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3: %+v", len(rows), rows)
	}

	if rows[0].Kind != KindMonthly || rows[0].StartMonth != "1" || rows[0].EndMonth != "12" {
		t.Errorf("monthly row = %+v", rows[0])
	}
	if rows[1].Kind != KindYearly || rows[1].YearIndex != "2" {
		t.Errorf("yearly row = %+v", rows[1])
	}
	if rows[2].Kind != KindFlat || rows[2].AmountEUR == "" {
		t.Errorf("flat row = %+v", rows[2])
	}
}

func TestFromTablesHeaderDriven(t *testing.T) {
	tables := [][][]string{{
		{"Von", "Bis", "Preis"},
		{"1", "12", "1.200,00 EUR"},
		{"13", "24", "1.350,00 EUR"},
	}}

	rows := FromTables(tables)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(rows), rows)
	}
	if rows[0].Kind != KindMonthly || rows[0].StartMonth != "1" || rows[0].EndMonth != "12" || rows[0].AmountEUR != "1.200,00" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].StartMonth != "13" || rows[1].EndMonth != "24" || rows[1].AmountEUR != "1.350,00" {
		t.Errorf("row 1 = %+v", rows[1])
	}
}

func TestFromTablesHeaderSynonyms(t *testing.T) {
	tables := [][][]string{{
		{"Zeitraum", "Monatsrate"},
		{"1-12. Monat", "990,00 €"},
		{"ab dem 13. Monat", "1.050,00 €"},
	}}

	rows := FromTables(tables)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(rows), rows)
	}
	if rows[0].StartMonth != "1" || rows[0].EndMonth != "12" {
		t.Errorf("row 0 months = %q-%q", rows[0].StartMonth, rows[0].EndMonth)
	}
	if rows[1].StartMonth != "13" || rows[1].EndMonth != "" {
		t.Errorf("from-row months = %q-%q", rows[1].StartMonth, rows[1].EndMonth)
	}
}

func TestFromTablesHeaderAfterCaptionRow(t *testing.T) {
	tables := [][][]string{{
		{"Anlage 1", ""},
		{"Von Monat", "Bis Monat", "Preis"},
		{"1", "12", "500,00 EUR"},
	}}

	rows := FromTables(tables)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1: %+v", len(rows), rows)
	}
	if rows[0].Kind != KindMonthly || rows[0].StartMonth != "1" || rows[0].EndMonth != "12" || rows[0].AmountEUR != "500,00" {
		t.Errorf("row = %+v", rows[0])
	}
}

// A data row the header mapping cannot price still goes through the prose
// patterns.
func TestFromTablesPatternFallback(t *testing.T) {
	tables := [][][]string{{
		{"Von", "Bis", "Preis"},
		{"1", "12", "1.200,00 EUR"},
		{"13 - 24. Monat gilt Anlage 3", "", ""},
	}}

	rows := FromTables(tables)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(rows), rows)
	}
	if rows[1].Kind != KindMonthly || rows[1].StartMonth != "13" || rows[1].EndMonth != "24" {
		t.Errorf("fallback row = %+v", rows[1])
	}
	if rows[1].AmountEUR != "" {
		t.Errorf("fallback row amount = %q, want empty", rows[1].AmountEUR)
	}
}

func TestBuildDropsAmountlessAndDeduplicates(t *testing.T) {
	spans := []span.Span{
		priceSpan("price_schedule_monthly", "vom 1. - 12. Monat je 1.200,00 EUR"),
		priceSpan("price_schedule_monthly", "Monatspauschale laut Anlage"),
	}
	tables := [][][]string{{
		{"Von", "Bis", "Preis"},
		{"1", "12", "1.200,00 EUR"},
	}}

	rows := Build(spans, tables)
	for _, r := range rows {
		if r.AmountEUR == "" {
			t.Errorf("amount-less row survived: %+v", r)
		}
	}

	seen := map[Row]bool{}
	for _, r := range rows {
		if seen[r] {
			t.Errorf("duplicate row: %+v", r)
		}
		seen[r] = true
	}
}
