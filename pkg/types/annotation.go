// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// MatchCandidate is one ranked catalog motif for an image. The matcher
// creates candidates; the consistency validator sets Valid and
// RejectionReason in place.
type MatchCandidate struct {
	MotifID   string `json:"motif_id" yaml:"motif_id"`
	MotifName string `json:"motif_name" yaml:"motif_name"`

	// Similarity is the normalized score in [0,1].
	Similarity float64 `json:"similarity" yaml:"similarity"`

	Valid           bool   `json:"valid" yaml:"valid"`
	RejectionReason string `json:"rejection_reason,omitempty" yaml:"rejection_reason,omitempty"`
}

// PatternScore is a motif name with its normalized similarity.
type PatternScore struct {
	MotifID    string  `json:"motif_id,omitempty" yaml:"motif_id,omitempty"`
	Name       string  `json:"pattern_name" yaml:"pattern_name"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

// Detection echoes the classifier's figure/animal evidence.
type Detection struct {
	HasFigure  bool    `json:"has_figure" yaml:"has_figure"`
	HasAnimal  bool    `json:"has_animal" yaml:"has_animal"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// ContentObject is the content/object dimension of an annotation.
type ContentObject struct {
	MainSubjects         []string  `json:"main_subjects" yaml:"main_subjects"`
	AuxiliaryElements    []string  `json:"auxiliary_elements" yaml:"auxiliary_elements"`
	CompositionStructure []string  `json:"composition_structure" yaml:"composition_structure"`
	Detection            Detection `json:"detection" yaml:"detection"`
}

// FormVisual is the form/visual dimension of an annotation.
type FormVisual struct {
	LineStyle         string   `json:"line_style" yaml:"line_style"`
	StyleAnalysis     []string `json:"style_analysis" yaml:"style_analysis"`
	CuttingTechnique  string   `json:"cutting_technique" yaml:"cutting_technique"`
	TechniqueAnalysis []string `json:"technique_analysis" yaml:"technique_analysis"`
	Color             string   `json:"color" yaml:"color"`
	PaperTexture      string   `json:"paper_texture" yaml:"paper_texture"`
	ArtCategory       string   `json:"art_category" yaml:"art_category"`
}

// CulturalSemantic is the cultural/semantic dimension of an annotation.
type CulturalSemantic struct {
	Symbolism          []string `json:"symbolism" yaml:"symbolism"`
	FolkUses           []string `json:"folk_uses" yaml:"folk_uses"`
	RegionalFeatures   []string `json:"regional_features" yaml:"regional_features"`
	CulturalBackground string   `json:"cultural_background" yaml:"cultural_background"`
}

// ContextRelation is the context/relation dimension of an annotation.
// RelatedPatterns and SimilarPatterns only ever hold catalog motifs, so they
// are empty (never null) when nothing qualifies.
type ContextRelation struct {
	RelatedPatterns      []string       `json:"related_patterns" yaml:"related_patterns"`
	SimilarPatterns      []PatternScore `json:"similar_patterns" yaml:"similar_patterns"`
	ApplicationScenarios []string       `json:"application_scenarios" yaml:"application_scenarios"`
}

// VisualAnalysis summarizes the VisualSignals the annotation was built from.
type VisualAnalysis struct {
	DetectedCategory CoarseCategory   `json:"detected_category" yaml:"detected_category"`
	HasFigure        bool             `json:"has_figure" yaml:"has_figure"`
	HasAnimal        bool             `json:"has_animal" yaml:"has_animal"`
	Confidence       float64          `json:"confidence" yaml:"confidence"`
	LineStyle        LineStyle        `json:"line_style" yaml:"line_style"`
	CuttingTechnique CuttingTechnique `json:"cutting_technique" yaml:"cutting_technique"`
	ColorScheme      ColorScheme      `json:"color_scheme" yaml:"color_scheme"`
	Texture          Texture          `json:"texture" yaml:"texture"`
}

// AnnotationRecord is the four-dimensional annotation of one image.
type AnnotationRecord struct {
	ID        string    `json:"id,omitempty" yaml:"id,omitempty"`
	Source    string    `json:"source,omitempty" yaml:"source,omitempty"`
	Category  string    `json:"category,omitempty" yaml:"category,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`

	ContentObject    ContentObject    `json:"content_object" yaml:"content_object"`
	FormVisual       FormVisual       `json:"form_visual" yaml:"form_visual"`
	CulturalSemantic CulturalSemantic `json:"cultural_semantic" yaml:"cultural_semantic"`
	ContextRelation  ContextRelation  `json:"context_relation" yaml:"context_relation"`

	// MatchingPatterns are the top valid candidates, most similar first.
	MatchingPatterns []PatternScore `json:"matching_patterns" yaml:"matching_patterns"`

	// BestMatch is nil when no candidate survived validation.
	BestMatch *PatternScore `json:"best_match,omitempty" yaml:"best_match,omitempty"`

	VisualAnalysis VisualAnalysis `json:"visual_analysis" yaml:"visual_analysis"`
}

// SuggestionSource tells whether a suggestion came from the catalog or was
// synthesized.
type SuggestionSource string

const (
	SourceCatalog   SuggestionSource = "catalog"
	SourceHeuristic SuggestionSource = "heuristic"
)

// Suggestion is one combination proposal.
type Suggestion struct {
	Name               string            `json:"name" yaml:"name"`
	CombinedName       string            `json:"combined_name,omitempty" yaml:"combined_name,omitempty"`
	MemberMotifs       []string          `json:"member_motifs" yaml:"member_motifs"`
	Symbolism          []string          `json:"symbolism" yaml:"symbolism"`
	DesignSuggestions  []string          `json:"design_suggestions" yaml:"design_suggestions"`
	UsageScenarios     []string          `json:"usage_scenarios" yaml:"usage_scenarios"`
	RegionalVariations map[string]string `json:"regional_variations" yaml:"regional_variations"`
	Source             SuggestionSource  `json:"source" yaml:"source"`
}

// CombinationSuggestion is the combination suggester's output for one
// annotation.
type CombinationSuggestion struct {
	Theme            string       `json:"theme" yaml:"theme"`
	BasisMotifs      []string     `json:"basis_motifs" yaml:"basis_motifs"`
	Suggestions      []Suggestion `json:"suggestions" yaml:"suggestions"`
	DesignPrinciples []string     `json:"design_principles" yaml:"design_principles"`
}
