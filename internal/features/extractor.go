// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package features

import (
	"context"
	"image"
	"math"

	"github.com/pdiddy/papercut-engine/pkg/types"
)

// Decoration keywords derived from pixel features.
const (
	DecorationSawtooth    = "sawtooth pattern"
	DecorationFineCarving = "fine carving"
	DecorationYinYang     = "combined yin-yang cutting"
	DecorationLayering    = "color layering"
	DecorationTraditional = "traditional paper-cut technique"
)

// Extractor combines classifier output and pixel features into
// VisualSignals.
type Extractor struct {
	classifier Classifier
	analyzer   Analyzer
}

// NewExtractor returns an Extractor using c for the coarse category and a
// for pixel features.
func NewExtractor(c Classifier, a Analyzer) *Extractor {
	return &Extractor{classifier: c, analyzer: a}
}

// Extract classifies img and analyzes its pixels.
func (e *Extractor) Extract(ctx context.Context, img image.Image) (types.VisualSignals, error) {
	cls, err := e.classifier.Classify(ctx, img)
	if err != nil {
		return types.VisualSignals{}, err
	}
	return Combine(cls, e.analyzer.Analyze(img)), nil
}

// Combine merges a classification with pixel features.
func Combine(cls types.Classification, f types.VisualFeatures) types.VisualSignals {
	category, _ := types.ParseCoarseCategory(cls.Category)

	s := types.VisualSignals{
		LineStyle:        f.LineStyle,
		CuttingTechnique: f.CuttingTechnique,
		ColorScheme:      f.ColorScheme,
		Texture:          f.Texture,
		CoarseCategory:   category,
		HasFigure:        category == types.CategoryHumanFigure || cls.Figure != nil,
		HasAnimal:        category == types.CategoryAnimal || cls.Animal != nil,
		Confidence:       clamp01(cls.Confidence),
	}
	if cls.Figure != nil {
		d := *cls.Figure
		d.Accessories = append([]string(nil), d.Accessories...)
		s.FigureDetails = &d
	}
	if cls.Animal != nil {
		d := *cls.Animal
		d.Features = append([]string(nil), d.Features...)
		s.AnimalDetails = &d
	}
	s.DecorationPatterns = decorations(f)
	return s
}

func decorations(f types.VisualFeatures) []string {
	var out []string
	switch f.LineStyle {
	case types.LineBold:
		out = append(out, DecorationSawtooth)
	case types.LineFine:
		out = append(out, DecorationFineCarving)
	}
	if f.CuttingTechnique == types.CutMixed {
		out = append(out, DecorationYinYang)
	}
	if f.ColorScheme == types.ColorPolychrome {
		out = append(out, DecorationLayering)
	}
	if len(out) == 0 {
		out = []string{DecorationTraditional}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
