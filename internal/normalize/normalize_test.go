package normalize

import (
	"reflect"
	"strings"
	"testing"

	"github.com/vertragslab/klausel/internal/span"
)

const fullText = `Dienstleistungsvertrag

§ 1 Vertragsgegenstand
Wartung der medizintechnischen Geräte.

§ 2 Pflichten
Der Auftragnehmer wartet die Geräte.

§ 3 Vergütung
Die Vergütung beträgt 10.000,00 EUR zuzüglich Umsatzsteuer von derzeit 19%.
Zahlbar 30 Tage nach Rechnungserhalt.

§ 4 Vertragsdauer
Der Vertrag tritt am 01.01.2025 in Kraft und endet am 31.12.2026.

§ 5 Schlussbestimmungen
Es gilt das Recht der Bundesrepublik Deutschland.

§ 6 Gerichtsstand
Gerichtsstand ist München.
`

func baseSpans() []span.Span {
	return []span.Span{
		{ID: "sp_000001", DocID: "d", ItemType: span.TypeParty, Subtype: "company",
			TextRaw: "MediServ GmbH", ValueNorm: "MediServ GmbH", Confidence: 0.97, Extractor: "contract", Version: "1"},
		{ID: "sp_000002", DocID: "d", ItemType: span.TypeParty, Subtype: "individual",
			TextRaw: "Anna Schmidt", ValueNorm: "Anna Schmidt", Confidence: 0.97, Extractor: "contract", Version: "1"},
		{ID: "sp_000003", DocID: "d", ItemType: span.TypeMoney,
			TextRaw: "Die Vergütung beträgt 10.000,00 EUR", ValueNorm: "10000", Confidence: 1, Extractor: "money", Version: "1"},
	}
}

func TestNormalizeSynthesizesMissingFields(t *testing.T) {
	spans, kf := Normalize(baseSpans(), fullText)

	if s, ok := span.First(spans, span.TypeMoney, "total_fee"); !ok || s.Currency != "EUR" {
		t.Errorf("total_fee marking failed: %+v", s)
	}

	wantSynth := []struct {
		t       span.ItemType
		subtype string
		value   string
		conf    float64
	}{
		{span.TypeClause, "contract_type", "Dienstleistungsvertrag", 0.9},
		{span.TypeOther, "vat_rate_percent", "19", 0.86},
		{span.TypeOther, "payment_terms_days_after_invoice", "30", 0.85},
		{span.TypeDate, "start_date", "2025-01-01", 0.85},
		{span.TypeDate, "end_date", "2026-12-31", 0.85},
		{span.TypeClause, "governing_law_germany", "DE", 0.85},
	}
	for _, w := range wantSynth {
		s, ok := span.First(spans, w.t, w.subtype)
		if !ok {
			t.Errorf("missing synthesized %s/%s", w.t, w.subtype)
			continue
		}
		if s.ValueNorm != w.value {
			t.Errorf("%s value = %q, want %q", w.subtype, s.ValueNorm, w.value)
		}
		if s.Confidence != w.conf {
			t.Errorf("%s confidence = %v, want %v", w.subtype, s.Confidence, w.conf)
		}
		if s.Extractor != "normalizer" {
			t.Errorf("%s extractor = %q, want normalizer", w.subtype, s.Extractor)
		}
	}

	if kf.TotalFee != "10000" || kf.Currency != "EUR" {
		t.Errorf("key facts fee = %q %q, want 10000 EUR", kf.TotalFee, kf.Currency)
	}
	if kf.VATRatePercent != "19" || kf.PaymentTermsDays != "30" {
		t.Errorf("key facts vat/pay = %q/%q, want 19/30", kf.VATRatePercent, kf.PaymentTermsDays)
	}
	if kf.Party1 != "MediServ GmbH" || kf.Party2 != "Anna Schmidt" {
		t.Errorf("key facts parties = %q/%q", kf.Party1, kf.Party2)
	}
	if kf.StartDate != "2025-01-01" || kf.EndDate != "2026-12-31" {
		t.Errorf("key facts dates = %q/%q", kf.StartDate, kf.EndDate)
	}
	if kf.GoverningLaw != "DE" {
		t.Errorf("governing law = %q, want DE", kf.GoverningLaw)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	once, kf1 := Normalize(baseSpans(), fullText)
	twice, kf2 := Normalize(once, fullText)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second pass changed spans:\nfirst:  %+v\nsecond: %+v", once, twice)
	}
	if !reflect.DeepEqual(kf1, kf2) {
		t.Errorf("second pass changed key facts: %+v vs %+v", kf1, kf2)
	}
}

func TestNormalizeDropsTitleParties(t *testing.T) {
	spans := []span.Span{
		{ID: "sp_000001", DocID: "d", ItemType: span.TypeParty, Subtype: "company",
			TextRaw: "Dienstleistungsvertrag", ValueNorm: "Dienstleistungsvertrag", Confidence: 1},
		{ID: "sp_000002", DocID: "d", ItemType: span.TypeParty, Subtype: "company",
			TextRaw: "MediServ GmbH", ValueNorm: "MediServ GmbH", Confidence: 1},
	}
	out, kf := Normalize(spans, "")
	if kf.PartyCount != 1 {
		t.Fatalf("party count = %d, want 1 after title filter", kf.PartyCount)
	}
	if out[0].ValueNorm != "MediServ GmbH" {
		t.Errorf("surviving party = %q", out[0].ValueNorm)
	}
}

func TestNormalizeSkipsJurisdictionStopword(t *testing.T) {
	spans := []span.Span{
		{ID: "sp_000001", DocID: "d", ItemType: span.TypeOther, Subtype: "x",
			TextRaw: "x", ValueNorm: "x", Confidence: 1},
	}
	// Lower-cased continuation: the pattern captures "und", which the
	// stopword list must reject.
	out, kf := Normalize(spans, "§ 6 Gerichtsstand\nGerichtsstand und anderes\n")
	if span.Exists(out, span.TypeClause, "jurisdiction") {
		t.Error("stopword capture must not become a jurisdiction span")
	}
	if kf.JurisdictionCity != "" {
		t.Errorf("jurisdiction city = %q, want empty", kf.JurisdictionCity)
	}
}

func TestNormalizeDefaultsSubtype(t *testing.T) {
	spans := []span.Span{
		{ID: "sp_000001", DocID: "d", ItemType: span.TypeOther, TextRaw: "x", ValueNorm: "x", Confidence: 1},
	}
	out, _ := Normalize(spans, "")
	if out[0].Subtype != "unspecified" {
		t.Errorf("subtype = %q, want unspecified", out[0].Subtype)
	}
}

func TestSummarize(t *testing.T) {
	spans, kf := Normalize(baseSpans(), fullText)
	sum := Summarize(spans, kf)

	for _, want := range []string{
		"**Parteien:** A: MediServ GmbH / B: Anna Schmidt",
		"**Vertragsart:** Dienstleistungsvertrag",
		"**Vergütung:** 10000 EUR",
		"**USt.:** 19%",
		"**Zahlungsziel:** 30 Tage nach Rechnungserhalt",
		"**Laufzeit:** 2025-01-01 bis 2026-12-31",
	} {
		if !strings.Contains(sum, want) {
			t.Errorf("summary missing %q:\n%s", want, sum)
		}
	}
}
