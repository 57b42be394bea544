package extract

import (
	"regexp"
	"strings"

	"github.com/vertragslab/klausel/internal/span"
)

// ContactsExtractor picks up email addresses and phone numbers.
type ContactsExtractor struct{}

func NewContactsExtractor() *ContactsExtractor { return &ContactsExtractor{} }

func (x *ContactsExtractor) Name() string    { return "contacts" }
func (x *ContactsExtractor) Version() string { return "0.1.0" }

var (
	reEmail = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	rePhone = regexp.MustCompile(`(\+?\d[\d \-()/]{6,}\d)`)
)

func (x *ContactsExtractor) Extract(docID, text string) (span.Batch, error) {
	var items []span.Span

	for _, m := range reEmail.FindAllStringIndex(text, -1) {
		raw := text[m[0]:m[1]]
		items = append(items, span.Span{
			ItemType:  span.TypeContact,
			Subtype:   "email",
			TextRaw:   raw,
			ValueNorm: strings.ToLower(raw),
			Start:     span.Offs(m[0]),
			End:       span.Offs(m[1]),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}
	for _, m := range rePhone.FindAllStringIndex(text, -1) {
		ph := strings.TrimSpace(text[m[0]:m[1]])
		items = append(items, span.Span{
			ItemType:  span.TypeContact,
			Subtype:   "phone",
			TextRaw:   ph,
			ValueNorm: strings.ReplaceAll(ph, " ", ""),
			Start:     span.Offs(m[0]),
			End:       span.Offs(m[1]),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	return span.Batch{DocID: docID, Items: items}, nil
}

// IDsExtractor finds contract and customer numbers.
type IDsExtractor struct{}

func NewIDsExtractor() *IDsExtractor { return &IDsExtractor{} }

func (x *IDsExtractor) Name() string    { return "ids" }
func (x *IDsExtractor) Version() string { return "0.1.0" }

var (
	reContractNo = regexp.MustCompile(`(?i)\b(?:Vertr\.-?Nr\.|Vertragsnummer|Servicevertrag\s*Nr\.)\s*[:#]?\s*([A-Z0-9\-./]+)`)
	reCustomerNo = regexp.MustCompile(`(?i)\b(Kunden-?Nr\.|Kundennummer)\s*[:#]?\s*([A-Z0-9\-./]+)`)
)

func (x *IDsExtractor) Extract(docID, text string) (span.Batch, error) {
	var items []span.Span

	add := func(subtype, raw, val string, start, end int) {
		items = append(items, span.Span{
			ItemType:  span.TypeID,
			Subtype:   subtype,
			TextRaw:   strings.TrimSpace(raw),
			ValueNorm: strings.TrimSpace(val),
			Start:     span.Offs(start),
			End:       span.Offs(end),
			Extractor: x.Name(),
			Version:   x.Version(),
		})
	}

	for _, m := range reContractNo.FindAllStringSubmatchIndex(text, -1) {
		add("contract_number", text[m[0]:m[1]], text[m[2]:m[3]], m[0], m[1])
	}
	for _, m := range reCustomerNo.FindAllStringSubmatchIndex(text, -1) {
		add("customer_number", text[m[0]:m[1]], text[m[4]:m[5]], m[0], m[1])
	}

	return span.Batch{DocID: docID, Items: items}, nil
}
