package extract

import (
	"regexp"
	"strings"

	"github.com/vertragslab/klausel/internal/span"
)

// SectionExtractor captures the §1 Vertragsgegenstand subject clause as a
// whole, bounded by the next recognized header or end of document. It
// tolerates both "§ 1 Vertragsgegenstand" and a bare "1. Vertragsgegenstand"
// heading.
type SectionExtractor struct{}

func NewSectionExtractor() *SectionExtractor { return &SectionExtractor{} }

func (x *SectionExtractor) Name() string    { return "sections" }
func (x *SectionExtractor) Version() string { return "1.0.0" }

var (
	reSubjectHeader    = regexp.MustCompile(`(?i)§\s*1\s*[.)]?\s+Vertragsgegenstand\b`)
	reSubjectHeaderAlt = regexp.MustCompile(`(?im)^\s*1[.)]?\s+Vertragsgegenstand\b`)
	reNextHeader       = regexp.MustCompile(`(?i)[\n\r](?:\s*§\s*\d+\s+\w+|\s*\d+[.)]\s+\w+)`)
)

func (x *SectionExtractor) Extract(docID, text string) (span.Batch, error) {
	var items []span.Span

	m := reSubjectHeader.FindStringIndex(text)
	if m == nil {
		m = reSubjectHeaderAlt.FindStringIndex(text)
	}
	if m != nil {
		end := len(text)
		if n := reNextHeader.FindStringIndex(text[m[1]:]); n != nil {
			end = m[1] + n[0]
		}
		sec := strings.TrimSpace(text[m[0]:end])
		if sec != "" {
			items = append(items, span.Span{
				ItemType:   span.TypeClause,
				Subtype:    "subject",
				TextRaw:    sec,
				Start:      span.Offs(m[0]),
				End:        span.Offs(m[0] + len(sec)),
				Confidence: 0.92,
				Extractor:  x.Name(),
				Version:    x.Version(),
			})
		}
	}

	return span.Batch{DocID: docID, Items: items}, nil
}

// SubjectExtractor is the title-line fallback: it grabs the first
// "Contract/Agreement ..." style heading when no §1 section exists.
type SubjectExtractor struct{}

func NewSubjectExtractor() *SubjectExtractor { return &SubjectExtractor{} }

func (x *SubjectExtractor) Name() string    { return "subject" }
func (x *SubjectExtractor) Version() string { return "0.1.0" }

var reSubjectTitle = regexp.MustCompile(`(?i)\b(Contract|Agreement|Vertrag)\s+[^\n.]{1,160}`)

func (x *SubjectExtractor) Extract(docID, text string) (span.Batch, error) {
	var items []span.Span
	if m := reSubjectTitle.FindStringIndex(text); m != nil {
		subj := strings.TrimSpace(text[m[0]:m[1]])
		items = append(items, span.Span{
			ItemType:  span.TypeClause,
			Subtype:   "subject",
			TextRaw:   subj,
			ValueNorm: subj,
			Start:     span.Offs(m[0]),
			End:       span.Offs(m[1]),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}
	return span.Batch{DocID: docID, Items: items}, nil
}
