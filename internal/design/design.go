// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package design proposes themed paper-cut compositions from the catalog.
// Randomness comes from an injected *rand.Rand so plans are reproducible
// for a given seed.
package design

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/pdiddy/papercut-engine/internal/catalog"
	"github.com/pdiddy/papercut-engine/pkg/types"
)

// planSize is the number of motifs in a themed plan.
const planSize = 3

// Preset is a themed plan template: seed motifs plus keywords used to pad
// the plan from the rest of the catalog.
type Preset struct {
	Theme       string
	Description string
	Seeds       []string
	PadKeywords []string
	Layout      string
	Colors      string
	Usage       string
}

// Festival names.
const (
	FestivalSpring     = "Spring Festival"
	FestivalDragonBoat = "Dragon Boat Festival"
)

var festivalAliases = map[string]string{
	"spring":               FestivalSpring,
	"spring festival":      FestivalSpring,
	"chinese new year":     FestivalSpring,
	"春节":                   FestivalSpring,
	"dragon boat":          FestivalDragonBoat,
	"dragon boat festival": FestivalDragonBoat,
	"duanwu":               FestivalDragonBoat,
	"端午节":                  FestivalDragonBoat,
}

// WeddingPreset returns the wedding plan template.
func WeddingPreset() Preset {
	return Preset{
		Theme:       "wedding",
		Description: "Paper-cut combination for weddings, symbolizing marital love, a happy marriage and many children",
		Seeds:       []string{"pattern_001", "pattern_002", "pattern_010", "pattern_003"},
		PadKeywords: []string{"good fortune", "blessing", "joy", "happy", "吉祥", "福", "喜"},
		Layout:      "Double-wild-goose at the center, encircled by fish, lotus and gourd in a symmetric round or square layout",
		Colors:      "Mainly red for festivity, with a little gold or pink for warmth",
		Usage:       "wedding decoration",
	}
}

// FestivalPresets returns the festival plan templates by festival name.
func FestivalPresets() map[string]Preset {
	return map[string]Preset{
		FestivalSpring: {
			Theme:       FestivalSpring + " decoration",
			Description: "Paper-cut combination for the Spring Festival, adding to the festive atmosphere",
			Seeds:       []string{"pattern_005", "pattern_006", "pattern_003"},
			PadKeywords: []string{"ward off evil", "blessing", "peace", "辟邪", "纳福", "平安"},
			Layout:      "Tiger and lion as door guardians with the gourd in the center, surrounded by other auspicious motifs",
			Colors:      "Mainly red for festivity, with yellow and green for liveliness",
			Usage:       FestivalSpring + " decoration",
		},
		FestivalDragonBoat: {
			Theme:       FestivalDragonBoat + " decoration",
			Description: "Paper-cut combination for the Dragon Boat Festival, adding to the festive atmosphere",
			Seeds:       []string{"pattern_003", "pattern_005", "pattern_004"},
			Layout:      "Gourd and topknot doll as the main subjects with the tiger in support, in a triangular layout",
			Colors:      "Mainly red and green to drive off poisons, with blue for coolness",
			Usage:       FestivalDragonBoat + " decoration",
		},
	}
}

// CustomOptions filter the motifs of a custom plan.
type CustomOptions struct {
	Theme     string
	Symbolism string
	Region    string
}

// Generator builds design plans. It is safe for concurrent use.
type Generator struct {
	cat *catalog.Catalog

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a Generator drawing from rng. A nil rng uses a
// randomly seeded source.
func NewGenerator(cat *catalog.Catalog, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{cat: cat, rng: rng}
}

// Generate dispatches on theme. festival names the festival for
// ThemeFestival.
func (g *Generator) Generate(theme types.DesignTheme, festival string, custom CustomOptions) (types.DesignPlan, error) {
	switch theme {
	case types.ThemeWedding:
		return g.Wedding(), nil
	case types.ThemeFestival:
		return g.Festival(festival), nil
	case types.ThemeCustom:
		return g.Custom(custom), nil
	case types.ThemeRandom, "":
		return g.Random(), nil
	default:
		return types.DesignPlan{}, fmt.Errorf("unknown design theme %q", theme)
	}
}

// Wedding returns the wedding plan.
func (g *Generator) Wedding() types.DesignPlan {
	return g.fromPreset(WeddingPreset())
}

// Festival returns the plan for the named festival. Unknown festivals get
// a random selection.
func (g *Generator) Festival(name string) types.DesignPlan {
	canonical := name
	if c, ok := festivalAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		canonical = c
	}
	if strings.TrimSpace(canonical) == "" {
		canonical = FestivalSpring
	}
	if p, ok := FestivalPresets()[canonical]; ok {
		return g.fromPreset(p)
	}

	return types.DesignPlan{
		Theme:            canonical + " decoration",
		Description:      fmt.Sprintf("Paper-cut combination for %s, adding to the festive atmosphere", canonical),
		Patterns:         entries(g.sample(g.cat.Motifs(), planSize), canonical+" decoration"),
		LayoutSuggestion: "Arrange the motifs in a balanced layout according to their size and shape",
		ColorSuggestion:  "Mainly red for festivity",
	}
}

// Custom returns a plan drawn from motifs matching the region and
// symbolism filters. Fewer than two matches widen the pool to the whole
// catalog.
func (g *Generator) Custom(opts CustomOptions) types.DesignPlan {
	all := g.cat.Motifs()
	pool := all
	if opts.Region != "" {
		pool = g.cat.FindByRegion(opts.Region)
	}
	if kw := strings.ToLower(strings.TrimSpace(opts.Symbolism)); kw != "" {
		pool = slices.DeleteFunc(slices.Clone(pool), func(m *types.Motif) bool {
			return !anyContains(m.Symbolism, []string{kw})
		})
	}
	if len(pool) < 2 {
		pool = all
	}

	theme := strings.TrimSpace(opts.Theme)
	basis := theme
	if theme == "" {
		theme = "custom combination"
		basis = "the selected criteria"
	}
	return types.DesignPlan{
		Theme:            theme,
		Description:      fmt.Sprintf("Paper-cut combination based on %s", basis),
		Patterns:         entries(g.sample(pool, planSize), "decoration"),
		LayoutSuggestion: "Arrange by size, shape and meaning: the most representative motif in the center, supporting motifs around it",
		ColorSuggestion:  "Choose colors for the theme; traditional paper-cut is mainly red and can be paired with other colors",
	}
}

// Random returns a plan of randomly chosen motifs.
func (g *Generator) Random() types.DesignPlan {
	return types.DesignPlan{
		Theme:            "random combination",
		Description:      "Randomly chosen paper-cut motifs showing the character and beauty of each",
		Patterns:         entries(g.sample(g.cat.Motifs(), planSize), "decoration"),
		LayoutSuggestion: "Try different layouts based on the motifs' features to create a distinctive visual effect",
		ColorSuggestion:  "Traditional red, or other colors chosen by the motifs' meanings and personal taste",
	}
}

// fromPreset resolves the preset's seeds and pads the plan to planSize
// with randomly chosen motifs whose symbolism matches a pad keyword.
func (g *Generator) fromPreset(p Preset) types.DesignPlan {
	var chosen []*types.Motif
	for _, id := range p.Seeds {
		if m, ok := g.cat.FindByID(id); ok {
			chosen = append(chosen, m)
		}
	}

	if len(chosen) < planSize && len(p.PadKeywords) > 0 {
		var eligible []*types.Motif
		for _, m := range g.cat.Motifs() {
			if !slices.Contains(chosen, m) && anyContains(m.Symbolism, p.PadKeywords) {
				eligible = append(eligible, m)
			}
		}
		chosen = append(chosen, g.sample(eligible, planSize-len(chosen))...)
	}

	return types.DesignPlan{
		Theme:            p.Theme,
		Description:      p.Description,
		Patterns:         entries(chosen, p.Usage),
		LayoutSuggestion: p.Layout,
		ColorSuggestion:  p.Colors,
	}
}

// sample returns min(k, len(motifs)) distinct motifs in random order.
func (g *Generator) sample(motifs []*types.Motif, k int) []*types.Motif {
	pool := slices.Clone(motifs)
	g.mu.Lock()
	g.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	g.mu.Unlock()
	return pool[:min(k, len(pool))]
}

func entries(motifs []*types.Motif, defaultUsage string) []types.DesignPattern {
	out := make([]types.DesignPattern, 0, len(motifs))
	for _, m := range motifs {
		usage := defaultUsage
		if len(m.UsageScenarios) > 0 {
			usage = m.UsageScenarios[0]
		}
		out = append(out, types.DesignPattern{
			MotifID:   m.ID,
			Name:      m.Name,
			Symbolism: append([]string{}, m.Symbolism...),
			Usage:     usage,
		})
	}
	return out
}

func anyContains(values, keywords []string) bool {
	for _, v := range values {
		v = strings.ToLower(v)
		for _, kw := range keywords {
			if strings.Contains(v, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}
