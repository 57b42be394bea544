package extract

import (
	_ "embed"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/vertragslab/klausel/internal/span"
)

//go:embed lexicon/medtech_de.yml
var medtechLexicon []byte

type lexiconFile struct {
	Concepts []lexiconConcept `yaml:"concepts"`
}

type lexiconConcept struct {
	ID          string   `yaml:"id"`
	Label       string   `yaml:"label"`
	Category    string   `yaml:"category"`
	Description string   `yaml:"description"`
	Patterns    []string `yaml:"patterns"`
}

type concept struct {
	id       string
	label    string
	patterns []*regexp.Regexp
}

// LexiconExtractor matches a curated German medtech concept lexicon against
// the document. Each concept carries one or more patterns; every hit becomes
// a span whose subtype is the concept id and whose value is the label.
type LexiconExtractor struct {
	concepts []concept
	err      error
}

func NewLexiconExtractor() *LexiconExtractor {
	x := &LexiconExtractor{}
	x.concepts, x.err = loadLexicon(medtechLexicon)
	return x
}

func (x *LexiconExtractor) Name() string    { return "lexicon" }
func (x *LexiconExtractor) Version() string { return "0.1.0" }

func loadLexicon(raw []byte) ([]concept, error) {
	var f lexiconFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	var out []concept
	for _, c := range f.Concepts {
		cc := concept{id: c.ID, label: c.Label}
		for _, p := range c.Patterns {
			rx, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("lexicon concept %s: pattern %q: %w", c.ID, p, err)
			}
			cc.patterns = append(cc.patterns, rx)
		}
		out = append(out, cc)
	}
	return out, nil
}

func (x *LexiconExtractor) Extract(docID, text string) (span.Batch, error) {
	if x.err != nil {
		return span.Batch{}, x.err
	}
	var items []span.Span
	for _, c := range x.concepts {
		for _, rx := range c.patterns {
			for _, m := range rx.FindAllStringIndex(text, -1) {
				items = append(items, span.Span{
					ItemType:  span.TypeOther,
					Subtype:   c.id,
					TextRaw:   text[m[0]:m[1]],
					ValueNorm: c.label,
					Start:     span.Offs(m[0]),
					End:       span.Offs(m[1]),
					Extractor: x.Name(),
					Version:   x.Version(),
				})
			}
		}
	}
	return span.Batch{DocID: docID, Items: items}, nil
}
