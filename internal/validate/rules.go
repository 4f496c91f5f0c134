// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/papercut-engine/pkg/types"
)

// Evidence is the visual evidence a forbidding condition requires beyond
// the coarse category.
type Evidence string

const (
	EvidenceNone      Evidence = ""
	EvidenceFigure    Evidence = "has_figure"
	EvidenceAnimal    Evidence = "has_animal"
	EvidenceQuadruped Evidence = "quadruped"
	EvidenceBird      Evidence = "bird"
)

// ForbiddenWhen is one visual condition under which a rule's fragments are
// inconsistent. An empty Category matches every category.
type ForbiddenWhen struct {
	Category types.CoarseCategory `yaml:"category,omitempty"`
	Requires Evidence             `yaml:"requires,omitempty"`
}

// Rule maps motif-name fragments to the visual conditions that forbid
// them. Template may use {motif}, {fragment}, {category} and {evidence}.
type Rule struct {
	Name      string          `yaml:"name"`
	Fragments []string        `yaml:"fragments"`
	Forbidden []ForbiddenWhen `yaml:"forbidden"`
	Template  string          `yaml:"template"`
}

const defaultTemplate = "{motif} contains {fragment}, inconsistent with the detected {evidence}"

// Check reports a malformed rule.
func (r Rule) Check() error {
	if len(r.Fragments) == 0 {
		return fmt.Errorf("rule %q: no fragments", r.Name)
	}
	for _, f := range r.Fragments {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("rule %q: blank fragment", r.Name)
		}
	}
	if len(r.Forbidden) == 0 {
		return fmt.Errorf("rule %q: no forbidden conditions", r.Name)
	}
	for _, f := range r.Forbidden {
		switch f.Requires {
		case EvidenceNone, EvidenceFigure, EvidenceAnimal, EvidenceQuadruped, EvidenceBird:
		default:
			return fmt.Errorf("rule %q: unknown evidence %q", r.Name, f.Requires)
		}
		if f.Category == "" && f.Requires == EvidenceNone {
			return fmt.Errorf("rule %q: condition matches every image", r.Name)
		}
	}
	return nil
}

var (
	figureEvidence    = ForbiddenWhen{Category: types.CategoryHumanFigure, Requires: EvidenceFigure}
	quadrupedEvidence = ForbiddenWhen{Category: types.CategoryAnimal, Requires: EvidenceQuadruped}
	birdEvidence      = ForbiddenWhen{Category: types.CategoryAnimal, Requires: EvidenceBird}
)

// DefaultRules returns the built-in rule table.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "bird",
			Fragments: []string{
				"wild goose", "goose", "geese", "bird", "magpie", "sparrow", "crane", "mandarin duck", "swallow", "butterfly",
				"双雁", "鸟", "雁", "喜鹊", "麻雀", "鹤", "鸳鸯", "蝴蝶",
			},
			Forbidden: []ForbiddenWhen{figureEvidence, quadrupedEvidence},
			Template:  "{motif} is a bird motif ({fragment}), inconsistent with the detected {evidence}",
		},
		{
			Name:      "fish",
			Fragments: []string{"fish", "goldfish", "carp", "catfish", "鱼", "金鱼", "鲤鱼", "鲶鱼"},
			Forbidden: []ForbiddenWhen{figureEvidence, quadrupedEvidence},
			Template:  "{motif} is a fish motif ({fragment}), inconsistent with the detected {evidence}",
		},
		{
			Name:      "flower",
			Fragments: []string{"lotus", "peony", "plum blossom", "莲花", "莲", "牡丹", "梅花"},
			Forbidden: []ForbiddenWhen{figureEvidence},
			Template:  "{motif} is a flower motif ({fragment}), inconsistent with the detected {evidence}",
		},
		{
			Name: "quadruped",
			Fragments: []string{
				"tiger", "lion", "ox", "cow", "horse", "qilin", "dog", "sheep", "rabbit",
				"虎", "狮", "牛", "马", "麒麟", "狗", "羊", "兔",
			},
			Forbidden: []ForbiddenWhen{birdEvidence},
			Template:  "{motif} is a four-legged motif ({fragment}), inconsistent with the detected {evidence}",
		},
		{
			Name:      "figure",
			Fragments: []string{"doll", "child", "boy", "娃娃", "童子", "人物"},
			Forbidden: []ForbiddenWhen{birdEvidence},
			Template:  "{motif} is a figure motif ({fragment}), inconsistent with the detected {evidence}",
		},
	}
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads extra rules from a YAML file of the form
// {rules: [{name, fragments, forbidden: [{category, requires}], template}]}.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules %s: %w", path, err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rules %s: %w", path, err)
	}
	for _, r := range f.Rules {
		if err := r.Check(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return f.Rules, nil
}
