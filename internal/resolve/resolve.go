// Package resolve turns party spans into deduplicated entities, links them
// to the document, and assigns contract roles.
package resolve

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/vertragslab/klausel/internal/span"
)

// Entity is a deduplicated contract party. Aliases collects every raw
// spelling that resolved to the same canonical name.
type Entity struct {
	ID            string   `json:"entity_id"`
	Type          string   `json:"entity_type"`
	CanonicalName string   `json:"canonical_name"`
	Aliases       []string `json:"aliases"`
	NormalizedIDs string   `json:"normalized_ids,omitempty"`
}

// Link relates the document node to an entity with span-level evidence.
type Link struct {
	SubjectID      string `json:"subject_id"`
	Predicate      string `json:"predicate"`
	ObjectID       string `json:"object_id"`
	EvidenceSpanID string `json:"evidence_span_id,omitempty"`
}

var reCollapse = regexp.MustCompile(`\s+`)

// canon strips quotes and collapses whitespace so spellings of the same
// party compare equal.
func canon(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"“”„»«`)
	return reCollapse.ReplaceAllString(s, " ")
}

func nameOf(s span.Span) string {
	if s.ValueNorm != "" {
		return s.ValueNorm
	}
	return s.TextRaw
}

// Resolve builds the entity table and document links from the party spans.
// Entity ids are assigned in first-seen order; every link's object id refers
// to an entity in the returned slice.
func Resolve(spans []span.Span, docID string) ([]Entity, []Link) {
	var parties []span.Span
	for _, s := range spans {
		if s.ItemType == span.TypeParty {
			parties = append(parties, s)
		}
	}
	if len(parties) == 0 {
		return []Entity{}, []Link{}
	}

	type record struct {
		ent     *Entity
		aliases map[string]bool
	}
	seen := map[string]*record{}
	var order []string
	var entities []Entity

	for _, p := range parties {
		name := canon(nameOf(p))
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		alias := p.TextRaw
		if alias == "" {
			alias = name
		}
		if rec, ok := seen[key]; ok {
			rec.aliases[alias] = true
			continue
		}
		etype := p.Subtype
		if etype == "" {
			etype = "org"
		}
		seen[key] = &record{
			ent: &Entity{
				ID:            fmt.Sprintf("ent_%03d", len(seen)+1),
				Type:          etype,
				CanonicalName: name,
			},
			aliases: map[string]bool{alias: true},
		}
		order = append(order, key)
	}

	for _, key := range order {
		rec := seen[key]
		for a := range rec.aliases {
			rec.ent.Aliases = append(rec.ent.Aliases, a)
		}
		sort.Strings(rec.ent.Aliases)
		entities = append(entities, *rec.ent)
	}

	docNode := "doc:" + docID
	var links []Link
	for _, p := range parties {
		name := canon(nameOf(p))
		if name == "" {
			continue
		}
		rec, ok := seen[strings.ToLower(name)]
		if !ok {
			continue
		}
		links = append(links, Link{
			SubjectID:      docNode,
			Predicate:      "signed_by",
			ObjectID:       rec.ent.ID,
			EvidenceSpanID: p.ID,
		})
	}

	return entities, links
}

// roleHints maps contract roles to keywords whose presence in the document
// suggests that role. Order matters: the first role whose keyword occurs
// wins.
var roleHints = []struct {
	role     string
	keywords []string
}{
	{"customer", []string{"kunde", "krankenhaus", "servicenehmer", "auftraggeber"}},
	{"provider", []string{"abbott", "abiomed", "siemens", "service-provider", "dienstleister", "auftragnehmer"}},
}

// DetectRoles assigns a customer/provider role to each party name that
// occurs in the document text. Keys are lower-cased canonical names.
func DetectRoles(parties []span.Span, fullText string) map[string]string {
	roles := map[string]string{}
	ctx := strings.ToLower(fullText)
	for _, p := range parties {
		if p.ItemType != span.TypeParty {
			continue
		}
		name := canon(nameOf(p))
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, done := roles[key]; done {
			continue
		}
		if !strings.Contains(ctx, key) {
			continue
		}
		for _, h := range roleHints {
			for _, kw := range h.keywords {
				if strings.Contains(ctx, kw) {
					roles[key] = h.role
					break
				}
			}
			if _, done := roles[key]; done {
				break
			}
		}
	}
	return roles
}
