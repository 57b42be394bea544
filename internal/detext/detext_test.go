package detext

import (
	"strings"
	"testing"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1.234,56", 1234.56, true},
		{"10.000,00 EUR", 10000.0, true},
		{"15.450,00", 15450.0, true},
		{"19", 19, true},
		{"2,5", 2.5, true},
		{"1234.56", 1234.56, true},
		{"€ 99", 99, true},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseDateRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"01.03.2024", "2024-03-01"},
		{"1.3.2024", "2024-03-01"},
		{"15.12.24", "2024-12-15"}, // two-digit year promoted by +2000
		{"2024-03-01", "2024-03-01"},
	}
	for _, tt := range tests {
		if got := ToISODate(tt.in); got != tt.want {
			t.Errorf("ToISODate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	// Re-converting an ISO date must be stable.
	if got := ToISODate(ToISODate("31.01.2025")); got != "2025-01-31" {
		t.Errorf("round trip unstable: %q", got)
	}

	if _, ok := ParseDate("99.99.2024"); ok {
		t.Error("ParseDate should reject impossible dates")
	}
}

func TestNormalizeDigits(t *testing.T) {
	if got := NormalizeDigits("٣٠ Tage"); got != "30 Tage" {
		t.Errorf("NormalizeDigits = %q", got)
	}
	if got := NormalizeDigits("30 Tage"); got != "30 Tage" {
		t.Errorf("ASCII input changed: %q", got)
	}
}

func TestSection(t *testing.T) {
	text := "§ 1 Vertragsgegenstand\nEtwas.\n§ 3 Vergütung\nDie Vergütung beträgt 10.000,00 EUR.\n§ 4 Laufzeit\nDer Vertrag tritt am 01.01.2024 in Kraft."

	sec3 := Section(text, 3)
	if sec3 == "" {
		t.Fatal("section 3 not found")
	}
	if !strings.Contains(sec3, "10.000,00") {
		t.Errorf("section 3 missing amount: %q", sec3)
	}
	if strings.Contains(sec3, "Laufzeit") {
		t.Errorf("section 3 bleeds into section 4: %q", sec3)
	}

	// Last section runs to end of text.
	sec4 := Section(text, 4)
	if !strings.Contains(sec4, "in Kraft") {
		t.Errorf("section 4 truncated: %q", sec4)
	}

	if got := Section(text, 9); got != "" {
		t.Errorf("absent section should be empty, got %q", got)
	}
}

func TestWindow(t *testing.T) {
	text := "abcdefghij"
	if got := Window(text, 4, 5, 2); got != "cdefg" {
		t.Errorf("Window = %q", got)
	}
	if got := Window(text, 0, 2, 5); got != "abcdefg" {
		t.Errorf("Window clamp low = %q", got)
	}
	if got := Window(text, 8, 10, 5); got != "defghij" {
		t.Errorf("Window clamp high = %q", got)
	}
}
