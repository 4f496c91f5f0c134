// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"math"
	"strings"

	"github.com/pdiddy/papercut-engine/internal/catalog"
	"github.com/pdiddy/papercut-engine/pkg/types"
)

// Default labels used when no valid candidate yields data.
const (
	DefaultComposition        = "traditional folk composition"
	DefaultAuxiliary          = "traditional decoration"
	DefaultStyle              = "plain and generous"
	DefaultTechnique          = "traditional paper-cut technique"
	DefaultCulturalBackground = "Northern Chinese folk paper-cut art, rich in folk-custom meaning"
	ArtCategory               = "folk paper-cut / window flower"
)

var (
	defaultSymbolism = []string{"good fortune", "best wishes"}
	defaultFolkUses  = []string{"window decoration", "wedding decoration", "festival decoration"}
	defaultRegional  = []string{"Northern Shaanxi folk paper-cut style", "Northern Chinese traditional paper-cut"}
	defaultScenarios = []string{"window decoration", "interior ornament", "festival celebration"}
)

// keywordLabel adds Label when any of Keywords occurs in the scanned text.
type keywordLabel struct {
	Keywords []string
	Label    string
}

var compositionTable = []keywordLabel{
	{[]string{"symmetric", "symmetry", "symmetrical", "对称"}, "symmetric composition"},
	{[]string{"center", "centered", "centre", "central", "中心"}, "centered composition"},
	{[]string{"encircling", "encircled", "surrounded", "surrounding", "环绕"}, "encircling composition"},
}

var styleTable = []keywordLabel{
	{[]string{"jagged", "bold", "rugged", "sawtooth"}, "rugged and bold"},
	{[]string{"fine", "delicate", "refined"}, "delicate and refined"},
	{[]string{"flowing", "soft"}, "flowing and natural"},
}

var techniqueTable = []keywordLabel{
	{[]string{"yin cut", "hollowed"}, "yin cutting (hollowed areas)"},
	{[]string{"yang cut", "retained"}, "yang cutting (retained lines)"},
	{[]string{"combined", "yin-yang"}, "combined yin and yang cutting"},
	{[]string{"swirl"}, "swirl hollowing"},
}

var (
	lineLabels = map[types.LineStyle]string{
		types.LineBold: "bold jagged lines",
		types.LineFine: "fine delicate lines",
	}
	techniqueLabels = map[types.CuttingTechnique]string{
		types.CutYang:  "yang cut (lines retained)",
		types.CutYin:   "yin cut (hollowed out)",
		types.CutMixed: "combined yin-yang cutting",
	}
	colorLabels = map[types.ColorScheme]string{
		types.ColorMonochrome: "monochrome paper-cut",
		types.ColorPolychrome: "polychrome paper-cut",
	}
	textureLabels = map[types.Texture]string{
		types.TextureSmooth: "smooth paper",
		types.TextureRough:  "rough textured paper",
	}
)

// Synthesizer builds annotation records from visual signals and validated
// candidates. It is stateless apart from its configuration.
type Synthesizer struct {
	cfg types.AnnotationConfig
}

// NewSynthesizer returns a Synthesizer; zero config fields take defaults.
func NewSynthesizer(cfg types.AnnotationConfig) *Synthesizer {
	cfg.ApplyDefaults()
	return &Synthesizer{cfg: cfg}
}

// validMatch pairs a valid candidate with its catalog entry, which is nil
// when the candidate's id is not in the catalog.
type validMatch struct {
	types.MatchCandidate
	motif *types.Motif
}

// Synthesize builds the four-section record. Candidates must be ordered
// most similar first; invalid ones are ignored. The record never has empty
// labels: sections with no supporting data get default labels.
func (s *Synthesizer) Synthesize(sig types.VisualSignals, candidates []types.MatchCandidate, cat *catalog.Catalog) types.AnnotationRecord {
	var valid []validMatch
	for _, c := range candidates {
		if !c.Valid {
			continue
		}
		m, _ := cat.FindByID(c.MotifID)
		if c.MotifName == "" && m != nil {
			c.MotifName = m.Name
		}
		valid = append(valid, validMatch{MatchCandidate: c, motif: m})
	}

	rec := types.AnnotationRecord{
		Category:         string(sig.CoarseCategory),
		ContentObject:    s.contentObject(sig, valid),
		FormVisual:       s.formVisual(sig),
		CulturalSemantic: s.culturalSemantic(valid, cat),
		ContextRelation:  s.contextRelation(valid, cat),
		MatchingPatterns: []types.PatternScore{},
		VisualAnalysis: types.VisualAnalysis{
			DetectedCategory: sig.CoarseCategory,
			HasFigure:        sig.HasFigure,
			HasAnimal:        sig.HasAnimal,
			Confidence:       round3(sig.Confidence),
			LineStyle:        sig.LineStyle,
			CuttingTechnique: sig.CuttingTechnique,
			ColorScheme:      sig.ColorScheme,
			Texture:          sig.Texture,
		},
	}
	for _, v := range head(valid, s.cfg.Limits.MatchingPatterns) {
		rec.MatchingPatterns = append(rec.MatchingPatterns, score(v.MatchCandidate))
	}
	if len(valid) > 0 {
		best := score(valid[0].MatchCandidate)
		rec.BestMatch = &best
	}
	return rec
}

func (s *Synthesizer) contentObject(sig types.VisualSignals, valid []validMatch) types.ContentObject {
	var subjects []string
	switch {
	case sig.CoarseCategory == types.CategoryHumanFigure && sig.HasFigure:
		if sig.FigureDetails != nil {
			subjects = append(subjects, "figure ("+orDefault(sig.FigureDetails.Type, "child")+")")
		} else {
			subjects = append(subjects, "figure pattern")
		}
	case sig.CoarseCategory == types.CategoryAnimal && sig.HasAnimal:
		if sig.AnimalDetails != nil {
			subjects = append(subjects, orDefault(sig.AnimalDetails.Type, "auspicious beast")+" pattern")
		} else {
			subjects = append(subjects, "animal pattern")
		}
	}
	for _, v := range head(valid, 2) {
		subjects = appendUnique(subjects, 0, v.MotifName)
	}
	if len(subjects) == 0 {
		subjects = []string{categoryLabel(sig.CoarseCategory) + " pattern"}
	}

	aux := appendUnique(nil, 0, sig.DecorationPatterns...)
	if len(aux) == 0 {
		aux = []string{DefaultAuxiliary}
	}

	var appearance []string
	for _, v := range head(valid, 3) {
		if v.motif != nil {
			appearance = append(appearance, v.motif.AppearanceDescription)
		}
	}
	composition := scan(compositionTable, strings.Join(appearance, " "), DefaultComposition)

	return types.ContentObject{
		MainSubjects:         subjects,
		AuxiliaryElements:    aux,
		CompositionStructure: composition,
		Detection: types.Detection{
			HasFigure:  sig.HasFigure,
			HasAnimal:  sig.HasAnimal,
			Confidence: round3(sig.Confidence),
		},
	}
}

func (s *Synthesizer) formVisual(sig types.VisualSignals) types.FormVisual {
	line := orDefault(lineLabels[sig.LineStyle], "plain lines")
	technique := orDefault(techniqueLabels[sig.CuttingTechnique], "traditional cutting")

	return types.FormVisual{
		LineStyle:         line,
		StyleAnalysis:     scan(styleTable, line, DefaultStyle),
		CuttingTechnique:  technique,
		TechniqueAnalysis: scan(techniqueTable, technique, DefaultTechnique),
		Color:             orDefault(colorLabels[sig.ColorScheme], colorLabels[types.ColorMonochrome]),
		PaperTexture:      orDefault(textureLabels[sig.Texture], "ordinary paper"),
		ArtCategory:       ArtCategory,
	}
}

func (s *Synthesizer) culturalSemantic(valid []validMatch, cat *catalog.Catalog) types.CulturalSemantic {
	limits := s.cfg.Limits
	var symbolism, uses, regional []string
	background := ""
	for _, v := range head(valid, 3) {
		if v.motif == nil {
			continue
		}
		symbolism = appendUnique(symbolism, limits.Symbolism, v.motif.Symbolism...)
		uses = appendUnique(uses, limits.FolkUses, v.motif.UsageScenarios...)
		for _, ref := range v.motif.RegionRefs {
			if r, ok := cat.Region(ref); ok {
				regional = appendUnique(regional, limits.RegionalFeatures, regionLabel(r))
			}
		}
		if background == "" {
			background = strings.TrimSpace(v.motif.CulturalBackground)
		}
	}

	return types.CulturalSemantic{
		Symbolism:          orDefaults(symbolism, defaultSymbolism),
		FolkUses:           orDefaults(uses, defaultFolkUses),
		RegionalFeatures:   orDefaults(regional, defaultRegional),
		CulturalBackground: orDefault(background, DefaultCulturalBackground),
	}
}

func (s *Synthesizer) contextRelation(valid []validMatch, cat *catalog.Catalog) types.ContextRelation {
	limits := s.cfg.Limits
	out := types.ContextRelation{
		RelatedPatterns: []string{},
		SimilarPatterns: []types.PatternScore{},
	}
	bestID := ""
	if len(valid) > 0 {
		bestID = valid[0].MotifID
	}

	var scenarios []string
	for _, v := range head(valid, 5) {
		for _, r := range cat.Related(v.MotifID) {
			out.RelatedPatterns = appendUnique(out.RelatedPatterns, limits.Related, r.Name)
		}
		if v.MotifID != bestID && v.Similarity > s.cfg.SimilarFloor && len(out.SimilarPatterns) < limits.Similar {
			out.SimilarPatterns = append(out.SimilarPatterns, score(v.MatchCandidate))
		}
		if v.motif != nil {
			scenarios = appendUnique(scenarios, limits.Scenarios, v.motif.UsageScenarios...)
		}
	}
	out.ApplicationScenarios = orDefaults(scenarios, defaultScenarios)
	return out
}

func regionLabel(r *types.Region) string {
	if r.ArtisticStyle == "" {
		return r.Name
	}
	return r.Name + ": " + r.ArtisticStyle
}

func categoryLabel(c types.CoarseCategory) string {
	if c == "" || c == types.CategoryUnknown {
		return "traditional"
	}
	return string(c)
}

// scan returns the labels of every table row with a keyword in text, or
// the single fallback label.
func scan(table []keywordLabel, text, fallback string) []string {
	var out []string
	for _, row := range table {
		for _, kw := range row.Keywords {
			if types.ContainsTerm(text, kw) {
				out = append(out, row.Label)
				break
			}
		}
	}
	if len(out) == 0 {
		return []string{fallback}
	}
	return out
}

// appendUnique appends the non-empty items not already in list, stopping
// at limit entries. limit <= 0 means no cap.
func appendUnique(list []string, limit int, items ...string) []string {
	for _, it := range items {
		if limit > 0 && len(list) >= limit {
			break
		}
		it = strings.TrimSpace(it)
		if it == "" || contains(list, it) {
			continue
		}
		list = append(list, it)
	}
	return list
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func head(v []validMatch, n int) []validMatch {
	if len(v) > n {
		return v[:n]
	}
	return v
}

func score(c types.MatchCandidate) types.PatternScore {
	return types.PatternScore{MotifID: c.MotifID, Name: c.MotifName, Similarity: round3(c.Similarity)}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func orDefaults(list, defaults []string) []string {
	if len(list) == 0 {
		return append([]string(nil), defaults...)
	}
	return list
}
