package span

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		span    Span
		wantErr bool
	}{
		{"valid money", Span{ItemType: TypeMoney, TextRaw: "100 EUR", Confidence: 1.0}, false},
		{"invalid type", Span{ItemType: "concept", TextRaw: "x", Confidence: 1.0}, true},
		{"confidence too high", Span{ItemType: TypeDate, TextRaw: "x", Confidence: 1.5}, true},
		{"confidence negative", Span{ItemType: TypeDate, TextRaw: "x", Confidence: -0.1}, true},
		{"start after end", Span{ItemType: TypeDate, TextRaw: "x", Confidence: 1, Start: Offs(10), End: Offs(5)}, true},
		{"start equals end", Span{ItemType: TypeDate, TextRaw: "x", Confidence: 1, Start: Offs(5), End: Offs(5)}, false},
		{"offsets absent", Span{ItemType: TypeOther, TextRaw: "x", Confidence: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.span.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFilterAndFirst(t *testing.T) {
	spans := []Span{
		{ID: "sp_000001", ItemType: TypeMoney, Subtype: "total_fee"},
		{ID: "sp_000002", ItemType: TypeMoney, Subtype: "vat_percent"},
		{ID: "sp_000003", ItemType: TypeDate, Subtype: "start_date"},
	}

	money := Filter(spans, TypeMoney, "")
	if len(money) != 2 {
		t.Fatalf("expected 2 money spans, got %d", len(money))
	}

	vat := Filter(spans, TypeMoney, "vat_percent")
	if len(vat) != 1 || vat[0].ID != "sp_000002" {
		t.Errorf("unexpected vat filter result: %+v", vat)
	}

	first, ok := First(spans, "", "start_date")
	if !ok || first.ID != "sp_000003" {
		t.Errorf("First returned %+v, %v", first, ok)
	}

	if _, ok := First(spans, TypeParty, ""); ok {
		t.Error("First should not find a party span")
	}
}

func TestIDsCap(t *testing.T) {
	spans := []Span{
		{ID: "a"}, {ID: ""}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}, {ID: "f"},
	}
	got := IDs(spans, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 ids, got %d", len(got))
	}
	if got[0] != "a" || got[1] != "b" {
		t.Errorf("unexpected id order: %v", got)
	}
}
