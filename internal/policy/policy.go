// Package policy defines the declarative compliance rule model and loads
// rule sets from YAML. A policy is data only; evaluation lives in the rules
// package.
package policy

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Selector narrows a rule to spans of a given item type and subtype. An
// empty field matches anything.
type Selector struct {
	Type    string `yaml:"type,omitempty" json:"type,omitempty"`
	Subtype string `yaml:"subtype,omitempty" json:"subtype,omitempty"`
}

// Rule is one tagged-variant policy rule. Which parameter fields apply
// depends on Type; unused fields stay zero.
type Rule struct {
	ID          string `yaml:"id" json:"id"`
	Type        string `yaml:"type" json:"type"`
	Severity    string `yaml:"severity,omitempty" json:"severity,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// presence
	Target  string `yaml:"target,omitempty" json:"target,omitempty"`
	Subtype string `yaml:"subtype,omitempty" json:"subtype,omitempty"`

	// min_value
	Where Selector `yaml:"where,omitempty" json:"where,omitempty"`
	Field string   `yaml:"field,omitempty" json:"field,omitempty"`

	// min_value, reaction_time_max_hours
	Threshold *float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`

	// price_covers_term (missing-month count), monthly_yearly_consistency,
	// net_vat_brutto_consistency
	Tolerance    int      `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
	TolerancePct *float64 `yaml:"tolerance_pct,omitempty" json:"tolerance_pct,omitempty"`
	ToleranceEUR *float64 `yaml:"tolerance_eur,omitempty" json:"tolerance_eur,omitempty"`

	// presence_implies, presence_implies_any, presence_any
	If      []Selector `yaml:"if,omitempty" json:"if,omitempty"`
	Then    []Selector `yaml:"then,omitempty" json:"then,omitempty"`
	Any     []Selector `yaml:"any,omitempty" json:"any,omitempty"`
	Options []Selector `yaml:"options,omitempty" json:"options,omitempty"`
}

// Policy is an ordered rule set. Evaluation order follows slice order.
type Policy struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}

// Parse decodes a YAML policy document.
func Parse(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}
	for i, r := range p.Rules {
		if r.ID == "" {
			return nil, fmt.Errorf("parsing policy: rule %d has no id", i)
		}
		if r.Type == "" {
			return nil, fmt.Errorf("parsing policy: rule %q has no type", r.ID)
		}
	}
	return &p, nil
}

// Load reads and parses a policy file.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading policy file: %w", err)
	}
	return Parse(data)
}

//go:embed policies.yml
var defaultYAML []byte

// Default returns the built-in rule set for German service contracts.
func Default() *Policy {
	p, err := Parse(defaultYAML)
	if err != nil {
		// The embedded file ships with the binary; a parse failure here is
		// a build defect, not a runtime condition.
		panic(err)
	}
	return p
}
