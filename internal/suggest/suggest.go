// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package suggest proposes motif combinations for an annotated image:
// curated catalog combinations first, a synthesized suggestion otherwise.
package suggest

import (
	"fmt"
	"maps"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/papercut-engine/internal/catalog"
	"github.com/pdiddy/papercut-engine/pkg/types"
)

const (
	DefaultTheme = "traditional paper-cut combination"
	BasisDefault = "traditional pattern"
)

// Figure-centric suggestions always pair the subject with these two
// auspicious companions.
var figureCompanions = []string{"magpie on plum branch", "abundance year after year"}

var designPrinciples = []string{
	"Keep the cultural meaning consistent",
	"Balance and harmonize the visual elements",
	"Fit the practical needs of the usage scenario",
}

// Suggester is stateless and safe for concurrent use.
type Suggester struct {
	logger zerolog.Logger
}

// New returns a Suggester.
func New(logger zerolog.Logger) *Suggester {
	return &Suggester{logger: logger}
}

// Suggest returns combinations for rec. Every catalog combination with a
// member matching one of the record's main subjects (by name or alias) is
// returned verbatim in catalog order. When none match, a single heuristic
// suggestion is synthesized, so the result is never empty. The output is
// a pure function of its inputs.
func (s *Suggester) Suggest(rec types.AnnotationRecord, cat *catalog.Catalog, theme string) types.CombinationSuggestion {
	var subjects []string
	for _, subj := range rec.ContentObject.MainSubjects {
		if subj = strings.TrimSpace(subj); subj != "" {
			subjects = append(subjects, subj)
		}
	}

	out := types.CombinationSuggestion{
		Theme:            theme,
		BasisMotifs:      subjects,
		DesignPrinciples: append([]string(nil), designPrinciples...),
	}
	if strings.TrimSpace(out.Theme) == "" {
		out.Theme = DefaultTheme
	}

	if len(subjects) > 0 {
		out.Suggestions = catalogSuggestions(subjects, cat)
	} else {
		out.BasisMotifs = []string{BasisDefault}
	}
	if len(out.Suggestions) == 0 {
		out.Suggestions = []types.Suggestion{heuristic(rec, out.BasisMotifs)}
	}

	s.logger.Debug().
		Strs("basis", out.BasisMotifs).
		Int("suggestions", len(out.Suggestions)).
		Str("source", string(out.Suggestions[0].Source)).
		Msg("combinations suggested")
	return out
}

func catalogSuggestions(subjects []string, cat *catalog.Catalog) []types.Suggestion {
	ids := make(map[string]bool)
	for _, subj := range subjects {
		for _, m := range cat.FindByNameOrAlias(subj) {
			ids[m.ID] = true
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var out []types.Suggestion
	for _, combo := range cat.Combinations() {
		hit := false
		names := make([]string, 0, len(combo.MemberMotifRefs))
		for _, ref := range combo.MemberMotifRefs {
			m, ok := cat.FindByID(ref)
			if !ok {
				continue
			}
			names = append(names, m.Name)
			hit = hit || ids[ref]
		}
		if !hit {
			continue
		}
		out = append(out, types.Suggestion{
			Name:               combo.Name,
			CombinedName:       combo.CombinedName,
			MemberMotifs:       names,
			Symbolism:          clone(combo.CombinedSymbolism),
			DesignSuggestions:  clone(combo.DesignSuggestions),
			UsageScenarios:     clone(combo.UsageScenarios),
			RegionalVariations: cloneMap(combo.RegionalVariations),
			Source:             types.SourceCatalog,
		})
	}
	return out
}

func heuristic(rec types.AnnotationRecord, basis []string) types.Suggestion {
	main := basis[0]

	if rec.VisualAnalysis.HasFigure || rec.ContentObject.Detection.HasFigure {
		return types.Suggestion{
			Name:         "figure-themed auspicious combination",
			MemberMotifs: append(clone(basis), figureCompanions...),
			Symbolism:    []string{"good fortune", "many children and blessings", "peace and safety"},
			DesignSuggestions: []string{
				fmt.Sprintf("Place %s at the center", main),
				"Surround it with auspicious flowers in an encircling layout",
				"Keep a symmetric composition for visual balance",
				"Add bats or magpies as auxiliary auspicious elements",
			},
			UsageScenarios:     []string{"wedding decoration", "birth of a baby", "housewarming"},
			RegionalVariations: map[string]string{},
			Source:             types.SourceHeuristic,
		}
	}

	symbolism := clone(rec.CulturalSemantic.Symbolism)
	if len(symbolism) == 0 {
		symbolism = []string{"good fortune"}
	}
	usage := clone(rec.ContextRelation.ApplicationScenarios)
	if len(usage) == 0 {
		usage = []string{"window flower", "wall flower"}
	}
	return types.Suggestion{
		Name:         main + " themed combination",
		MemberMotifs: clone(basis),
		Symbolism:    symbolism,
		DesignSuggestions: []string{
			fmt.Sprintf("Center the composition on %s", main),
			"Surround it with traditional auspicious elements",
			"Keep a symmetric composition",
		},
		UsageScenarios:     usage,
		RegionalVariations: map[string]string{},
		Source:             types.SourceHeuristic,
	}
}

func clone(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string(nil), s...)
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	maps.Copy(out, m)
	return out
}
