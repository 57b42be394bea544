package extract

import (
	"strings"
	"testing"

	"github.com/vertragslab/klausel/internal/span"
)

type fakeExtractor struct {
	name  string
	items []span.Span
	err   error
	panic bool
}

func (f *fakeExtractor) Name() string    { return f.name }
func (f *fakeExtractor) Version() string { return "0.0.0" }

func (f *fakeExtractor) Extract(docID, text string) (span.Batch, error) {
	if f.panic {
		panic("boom")
	}
	if f.err != nil {
		return span.Batch{}, f.err
	}
	return span.Batch{DocID: docID, Items: f.items}, nil
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeExtractor{name: "a"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(&fakeExtractor{name: "a"}); err == nil {
		t.Fatal("expected error on duplicate name")
	}
}

func TestEnabledFiltersAndPreservesOrder(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"a", "b", "c"} {
		if err := r.Register(&fakeExtractor{name: n}); err != nil {
			t.Fatal(err)
		}
	}

	got := r.Enabled([]string{"c", "a", "nope"})
	if len(got) != 2 || got[0].Name() != "a" || got[1].Name() != "c" {
		t.Fatalf("Enabled = %v, want [a c] in registration order", names(got))
	}

	if len(r.Enabled(nil)) != 3 {
		t.Fatal("nil allow-list should mean all extractors")
	}
}

func names(es []Extractor) []string {
	var out []string
	for _, e := range es {
		out = append(out, e.Name())
	}
	return out
}

func TestRunAllIsolatesPanics(t *testing.T) {
	ok := &fakeExtractor{name: "ok", items: []span.Span{
		{ItemType: span.TypeOther, Subtype: "x", TextRaw: "x", ValueNorm: "x"},
	}}
	bad := &fakeExtractor{name: "bad", panic: true}

	batches := RunAll([]Extractor{bad, ok}, "doc1", "text", nil)
	if len(batches) != 1 {
		t.Fatalf("got %d batches, want 1 (panicking extractor skipped)", len(batches))
	}
	if batches[0].DocID != "doc1" || len(batches[0].Items) != 1 {
		t.Fatalf("surviving batch corrupted: %+v", batches[0])
	}
}

func TestMergeAssignsSequentialIDs(t *testing.T) {
	batches := []span.Batch{
		{DocID: "d", Items: []span.Span{
			{ItemType: span.TypeMoney, Subtype: "a", TextRaw: "1", ValueNorm: "1"},
			{ItemType: span.TypeMoney, Subtype: "b", TextRaw: "2", ValueNorm: "2", Confidence: 0.5},
		}},
		{DocID: "d", Items: []span.Span{
			{ItemType: span.TypeClause, Subtype: "c", TextRaw: "3", ValueNorm: "3"},
		}},
	}

	spans := Merge(batches)
	if len(spans) != 3 {
		t.Fatalf("got %d spans, want 3", len(spans))
	}
	wantIDs := []string{"sp_000001", "sp_000002", "sp_000003"}
	for i, s := range spans {
		if s.ID != wantIDs[i] {
			t.Errorf("span %d id = %q, want %q", i, s.ID, wantIDs[i])
		}
		if s.DocID != "d" {
			t.Errorf("span %d doc id = %q, want d", i, s.DocID)
		}
	}
	if spans[0].Confidence != 1.0 {
		t.Errorf("zero confidence should default to 1.0, got %v", spans[0].Confidence)
	}
	if spans[1].Confidence != 0.5 {
		t.Errorf("explicit confidence overwritten: got %v", spans[1].Confidence)
	}
}

func TestDefaultRegistryRunsCleanOnEmptyText(t *testing.T) {
	r := DefaultRegistry()
	if len(r.All()) < 15 {
		t.Fatalf("default registry unexpectedly small: %d extractors", len(r.All()))
	}
	batches := RunAll(r.All(), "doc1", "", nil)
	if len(batches) != len(r.All()) {
		t.Fatalf("empty text should not fail any extractor: %d of %d batches",
			len(batches), len(r.All()))
	}
}

func TestCompositionReplaysBaseFindings(t *testing.T) {
	text := "Nettobetrag: 1.000,00 EUR zzgl. MwSt. 19 %, Bruttobetrag: 1.190,00 EUR"

	mp := NewMoneyPlusExtractor(NewMoneyExtractor())
	b, err := mp.Extract("doc1", text)
	if err != nil {
		t.Fatal(err)
	}

	var haveNet, haveBase bool
	for _, s := range b.Items {
		switch {
		case s.Subtype == "net_amount_eur":
			haveNet = true
		case s.Extractor == "money":
			haveBase = true
		}
	}
	if !haveNet {
		t.Error("wrapper finding net_amount_eur missing")
	}
	if !haveBase {
		t.Error("base money findings were not replayed into the wrapped batch")
	}
}

func TestOnCallWrapsServiceLevels(t *testing.T) {
	text := strings.Join([]string{
		"Die Verfügbarkeit beträgt 98,5 %.",
		"Wartung erfolgt vierteljährlich.",
		"Rufbereitschaft an Feiertagen: 50 % Zuschlag.",
	}, "\n")

	x := NewOnCallExtractor(NewSLAExtraExtractor())
	b, err := x.Extract("doc1", text)
	if err != nil {
		t.Fatal(err)
	}

	if !span.Exists(b.Items, span.TypeOther, "uptime_percent") {
		t.Error("base uptime_percent missing from wrapped batch")
	}
	if !span.Exists(b.Items, span.TypeOther, "wartung_period") {
		t.Error("base wartung_period missing from wrapped batch")
	}
	if !span.Exists(b.Items, span.TypeSLA, "oncall_trigger") {
		t.Error("oncall_trigger missing")
	}
	if s, ok := span.First(b.Items, span.TypeSLA, "oncall_surcharge_percent"); !ok || s.ValueNorm != "50" {
		t.Errorf("oncall_surcharge_percent = %+v, want value 50", s)
	}
}
