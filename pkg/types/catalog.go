// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"

	"go.yaml.in/yaml/v3"
)

// Region is a paper-cutting region with its artistic profile. Motifs refer
// to regions by id; the region does not own its motifs.
type Region struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`

	// Counties lists the administrative areas the region covers.
	Counties []string `json:"counties,omitempty" yaml:"counties,omitempty"`

	CulturalFeatures string `json:"cultural_features" yaml:"cultural_features"`

	// ArtisticStyle is the short style description used in regional
	// annotation labels ("{name}: {artistic_style}").
	ArtisticStyle string `json:"artistic_style" yaml:"artistic_style"`

	Techniques       []string `json:"representative_techniques" yaml:"representative_techniques"`
	ColorPreferences []string `json:"color_preferences" yaml:"color_preferences"`
	Taboos           []string `json:"taboos" yaml:"taboos"`
}

// RegionRefs holds the region ids a motif belongs to. The knowledge base
// may write a single id or a list; both decode into RegionRefs.
type RegionRefs []string

// UnmarshalYAML accepts either a scalar region id or a sequence of ids.
func (r *RegionRefs) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var id string
		if err := value.Decode(&id); err != nil {
			return err
		}
		if id == "" {
			*r = nil
			return nil
		}
		*r = RegionRefs{id}
		return nil
	case yaml.SequenceNode:
		var ids []string
		if err := value.Decode(&ids); err != nil {
			return err
		}
		*r = RegionRefs(ids)
		return nil
	default:
		return fmt.Errorf("region_id: expected id or list of ids, got node kind %d", value.Kind)
	}
}

// MotifSubtype is a named variant of a motif.
type MotifSubtype struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// ConfidenceLevels records the curators' confidence (0-100) in recognizing
// and interpreting a motif or combination.
type ConfidenceLevels struct {
	Recognition    int `json:"recognition" yaml:"recognition"`
	Interpretation int `json:"interpretation" yaml:"interpretation"`
}

// Motif is a named, catalogued paper-cut pattern. Motifs are immutable once
// the catalog is loaded.
type Motif struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`

	RegionRefs RegionRefs `json:"region_id,omitempty" yaml:"region_id,omitempty"`

	AppearanceDescription string `json:"appearance_description" yaml:"appearance_description"`

	// Symbolism is ordered: the first entries are the primary meanings.
	Symbolism []string `json:"symbolism" yaml:"symbolism"`

	CulturalBackground string   `json:"cultural_background" yaml:"cultural_background"`
	UsageScenarios     []string `json:"usage_scenarios" yaml:"usage_scenarios"`

	RelatedMotifRefs []string `json:"related_patterns,omitempty" yaml:"related_patterns,omitempty"`

	RitualSignificance string `json:"ritual_significance,omitempty" yaml:"ritual_significance,omitempty"`

	Subtypes         []MotifSubtype    `json:"subtypes,omitempty" yaml:"subtypes,omitempty"`
	ConfidenceLevels *ConfidenceLevels `json:"confidence_levels,omitempty" yaml:"confidence_levels,omitempty"`
}

// MotifCombination is a curated grouping of motifs with its own symbolism.
type MotifCombination struct {
	ID           string `json:"combination_id" yaml:"combination_id"`
	Name         string `json:"name" yaml:"name"`
	CombinedName string `json:"combined_name,omitempty" yaml:"combined_name,omitempty"`

	// MemberMotifRefs is ordered; every entry resolves to a motif once the
	// catalog has been loaded.
	MemberMotifRefs []string `json:"patterns" yaml:"patterns"`

	CombinedSymbolism  []string          `json:"symbolism" yaml:"symbolism"`
	DesignSuggestions  []string          `json:"design_suggestions" yaml:"design_suggestions"`
	UsageScenarios     []string          `json:"usage_scenarios" yaml:"usage_scenarios"`
	RegionalVariations map[string]string `json:"regional_variations" yaml:"regional_variations"`

	ConfidenceLevels *ConfidenceLevels `json:"confidence_levels,omitempty" yaml:"confidence_levels,omitempty"`
}

// KnowledgeBase is the static structured knowledge base a Catalog is built
// from.
type KnowledgeBase struct {
	Name         string             `json:"name" yaml:"name"`
	Version      string             `json:"version" yaml:"version"`
	Description  string             `json:"description,omitempty" yaml:"description,omitempty"`
	Regions      []Region           `json:"regions" yaml:"regions"`
	Motifs       []Motif            `json:"patterns" yaml:"patterns"`
	Combinations []MotifCombination `json:"pattern_combinations" yaml:"pattern_combinations"`
}

// KnowledgeBaseFile is the on-disk envelope of a knowledge base.
type KnowledgeBaseFile struct {
	KnowledgeBase KnowledgeBase `json:"knowledge_base" yaml:"knowledge_base"`
}
