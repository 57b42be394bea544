// Package detext holds parsing helpers for German-language contract text:
// decimal/thousands separators, DD.MM.YYYY dates, Arabic-Indic digit
// normalization, and §-numbered section slicing.
//
// All parsers fail soft: malformed input yields a zero value and ok=false,
// never an error or panic. Absence of a field must never abort a pipeline
// stage.
package detext

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var reNonNumeric = regexp.MustCompile(`[^0-9.,]`)

// ParseNumber parses a numeric string in German format ("1.234,56") or plain
// format ("1234.56"). Currency symbols and other noise are stripped first.
func ParseNumber(s string) (float64, bool) {
	s = reNonNumeric.ReplaceAllString(s, "")
	switch {
	case strings.Contains(s, ".") && strings.Contains(s, ","):
		// German: dots group thousands, comma is the decimal mark.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

var (
	reISODate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reDEDate  = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{2,4})$`)
)

// ParseDate parses an ISO date (YYYY-MM-DD) or a German date (DD.MM.YYYY).
// Two-digit years are promoted by adding 2000.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if reISODate.MatchString(s) {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	m := reDEDate.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// ToISODate converts a German date string to ISO form. Already-ISO input is
// returned unchanged; anything unparseable is returned as-is.
func ToISODate(s string) string {
	s = strings.TrimSpace(s)
	if reISODate.MatchString(s) {
		return s
	}
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

const arabicDigits = "٠١٢٣٤٥٦٧٨٩"

// NormalizeDigits maps Arabic-Indic digits to ASCII. Legacy documents in the
// corpus occasionally mix the two.
func NormalizeDigits(s string) string {
	if !strings.ContainsAny(s, arabicDigits) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if idx := strings.IndexRune(arabicDigits, r); idx >= 0 {
			// Each Arabic-Indic digit is 2 bytes; index arithmetic maps to 0-9.
			b.WriteRune(rune('0' + idx/2))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var reSpace = regexp.MustCompile(`\s+`)

// CollapseSpace trims s and collapses interior whitespace runs to one space.
func CollapseSpace(s string) string {
	return reSpace.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Section slices the §<num> section out of text, bounded by the next §
// header or end of text. Returns "" when the section is absent.
func Section(text string, num int) string {
	rx, err := regexp.Compile(fmt.Sprintf(`(?si)(§\s*%d\s+\w.*?)(\n\s*§\s*\d+\s+\w|$)`, num))
	if err != nil {
		return ""
	}
	m := rx.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// Window returns the slice of text around [start,end) widened by n characters
// on each side, clamped to the text bounds.
func Window(text string, start, end, n int) string {
	lo := start - n
	if lo < 0 {
		lo = 0
	}
	hi := end + n
	if hi > len(text) {
		hi = len(text)
	}
	if lo > hi {
		return ""
	}
	return text[lo:hi]
}

// ContainsAny reports whether the lower-cased text contains any of the cues.
func ContainsAny(text string, cues []string) bool {
	t := strings.ToLower(text)
	for _, c := range cues {
		if strings.Contains(t, c) {
			return true
		}
	}
	return false
}
