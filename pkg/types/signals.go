// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// CoarseCategory is one of the top-level visual classes assigned by the
// image classifier.
type CoarseCategory string

const (
	CategoryHumanFigure CoarseCategory = "human-figure"
	CategoryAnimal      CoarseCategory = "animal"
	CategoryPlant       CoarseCategory = "plant"
	CategoryAbstract    CoarseCategory = "abstract"
	CategoryDecorative  CoarseCategory = "decorative"
	CategoryUnknown     CoarseCategory = "unknown"
)

// CoarseCategories lists the five classifier classes in classifier index
// order.
var CoarseCategories = []CoarseCategory{
	CategoryHumanFigure,
	CategoryAnimal,
	CategoryAbstract,
	CategoryDecorative,
	CategoryPlant,
}

// categoryAliases maps the labels external classifiers emit (including the
// dataset's Chinese class directory names) onto coarse categories.
var categoryAliases = map[string]CoarseCategory{
	"human-figure": CategoryHumanFigure,
	"human":        CategoryHumanFigure,
	"figure":       CategoryHumanFigure,
	"人物类":          CategoryHumanFigure,
	"animal":       CategoryAnimal,
	"动物类":          CategoryAnimal,
	"plant":        CategoryPlant,
	"flower-plant": CategoryPlant,
	"花草植物类":        CategoryPlant,
	"abstract":     CategoryAbstract,
	"抽象类":          CategoryAbstract,
	"decorative":   CategoryDecorative,
	"ornament":     CategoryDecorative,
	"花样类":          CategoryDecorative,
}

// ParseCoarseCategory maps a classifier label onto a CoarseCategory. It
// reports false and CategoryUnknown for labels it does not recognize.
func ParseCoarseCategory(label string) (CoarseCategory, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	key = strings.ReplaceAll(key, "_", "-")
	key = strings.ReplaceAll(key, " ", "-")
	if c, ok := categoryAliases[key]; ok {
		return c, true
	}
	return CategoryUnknown, false
}

// LineStyle describes the dominant stroke weight of a paper cut.
type LineStyle string

const (
	LineBold LineStyle = "bold"
	LineFine LineStyle = "fine"
)

// CuttingTechnique distinguishes yang (lines kept), yin (lines cut away)
// and mixed cutting.
type CuttingTechnique string

const (
	CutYang  CuttingTechnique = "yang"
	CutYin   CuttingTechnique = "yin"
	CutMixed CuttingTechnique = "mixed"
)

// ColorScheme is monochrome or polychrome.
type ColorScheme string

const (
	ColorMonochrome ColorScheme = "monochrome"
	ColorPolychrome ColorScheme = "polychrome"
)

// Texture describes the paper surface.
type Texture string

const (
	TextureSmooth Texture = "smooth"
	TextureRough  Texture = "rough"
)

// VisualFeatures are the low-level descriptors computed from pixels, with
// the raw measurements the labels were derived from.
type VisualFeatures struct {
	LineStyle        LineStyle        `json:"line_style" yaml:"line_style"`
	CuttingTechnique CuttingTechnique `json:"cutting_technique" yaml:"cutting_technique"`
	ColorScheme      ColorScheme      `json:"color_scheme" yaml:"color_scheme"`
	Texture          Texture          `json:"texture" yaml:"texture"`

	EdgeDensity     float64 `json:"edge_density" yaml:"edge_density"`
	WhiteRatio      float64 `json:"white_ratio" yaml:"white_ratio"`
	ColorSpread     float64 `json:"color_spread" yaml:"color_spread"`
	TextureVariance float64 `json:"texture_variance" yaml:"texture_variance"`
}

// FigureDetails is the classifier's structured hint about a detected human
// figure.
type FigureDetails struct {
	Type        string   `json:"type" yaml:"type"`
	Accessories []string `json:"accessories,omitempty" yaml:"accessories,omitempty"`
	Pose        string   `json:"pose,omitempty" yaml:"pose,omitempty"`
}

// AnimalDetails is the classifier's structured hint about a detected
// animal. Legs is zero when unknown.
type AnimalDetails struct {
	Type     string   `json:"type" yaml:"type"`
	Features []string `json:"features,omitempty" yaml:"features,omitempty"`
	Legs     int      `json:"legs,omitempty" yaml:"legs,omitempty"`
}

// Classification is the external classifier's answer for one image.
type Classification struct {
	Category   string             `json:"category" yaml:"category"`
	Confidence float64            `json:"confidence" yaml:"confidence"`
	Scores     map[string]float64 `json:"scores,omitempty" yaml:"scores,omitempty"`
	Figure     *FigureDetails     `json:"figure,omitempty" yaml:"figure,omitempty"`
	Animal     *AnimalDetails     `json:"animal,omitempty" yaml:"animal,omitempty"`
}

// VisualSignals combines visual features and classifier output for a single
// annotation call. It is never persisted.
type VisualSignals struct {
	LineStyle        LineStyle        `json:"line_style"`
	CuttingTechnique CuttingTechnique `json:"cutting_technique"`
	ColorScheme      ColorScheme      `json:"color_scheme"`
	Texture          Texture          `json:"texture"`

	CoarseCategory CoarseCategory `json:"coarse_category"`
	HasFigure      bool           `json:"has_figure"`
	HasAnimal      bool           `json:"has_animal"`
	FigureDetails  *FigureDetails `json:"figure_details,omitempty"`
	AnimalDetails  *AnimalDetails `json:"animal_details,omitempty"`

	// DecorationPatterns are decoration keywords detected in the image.
	DecorationPatterns []string `json:"decoration_patterns"`

	// Confidence is in [0,1].
	Confidence float64 `json:"confidence"`
}

var (
	quadrupedMarkers = []string{"four-legged", "quadruped", "四足", "ox", "horse", "tiger", "lion", "qilin", "牛", "马", "虎", "狮", "麒麟"}
	birdMarkers      = []string{"bird", "goose", "magpie", "crane", "swallow", "雁", "鸟", "鹊", "鹤"}
)

// Quadruped reports whether the animal hint positively describes a
// four-legged creature.
func (s VisualSignals) Quadruped() bool {
	if !s.HasAnimal || s.AnimalDetails == nil {
		return false
	}
	if s.AnimalDetails.Legs == 4 {
		return true
	}
	return s.AnimalDetails.mentions(quadrupedMarkers)
}

// BirdSilhouette reports whether the animal hint positively describes a
// bird-type silhouette.
func (s VisualSignals) BirdSilhouette() bool {
	if !s.HasAnimal || s.AnimalDetails == nil {
		return false
	}
	if s.AnimalDetails.Legs == 2 {
		return true
	}
	return s.AnimalDetails.mentions(birdMarkers)
}

func (a *AnimalDetails) mentions(markers []string) bool {
	text := strings.ToLower(a.Type + " " + strings.Join(a.Features, " "))
	for _, m := range markers {
		if containsTerm(text, m) {
			return true
		}
	}
	return false
}

// containsTerm matches ASCII markers on word boundaries and other markers as
// substrings.
func containsTerm(text, term string) bool {
	if !isASCII(term) {
		return strings.Contains(text, term)
	}
	return strings.Contains(" "+wordsOnly(text)+" ", " "+wordsOnly(term)+" ")
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// wordsOnly lowercases text and replaces everything except ASCII letters,
// digits and non-ASCII runes with single spaces.
func wordsOnly(text string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r >= 0x80 {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// ContainsTerm is the term matcher shared by the validator and the
// synthesizer keyword tables.
func ContainsTerm(text, term string) bool {
	return containsTerm(strings.ToLower(text), strings.ToLower(term))
}

// ContainsWordPrefix matches ASCII terms at the start of a word, so a term
// also matches its inflections ("bird" in "birds", "ox" in "oxen" but not
// "box"). Other terms match as substrings.
func ContainsWordPrefix(text, term string) bool {
	text, term = strings.ToLower(text), strings.ToLower(term)
	if !isASCII(term) {
		return strings.Contains(text, term)
	}
	return strings.Contains(" "+wordsOnly(text), " "+wordsOnly(term))
}
