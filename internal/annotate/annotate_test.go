// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/papercut-engine/internal/catalog"
	"github.com/pdiddy/papercut-engine/internal/catalog/catalogtest"
	"github.com/pdiddy/papercut-engine/internal/embed"
	"github.com/pdiddy/papercut-engine/internal/features"
	"github.com/pdiddy/papercut-engine/internal/validate"
	"github.com/pdiddy/papercut-engine/pkg/types"
)

func figureSignals() types.VisualSignals {
	return types.VisualSignals{
		LineStyle:          types.LineBold,
		CuttingTechnique:   types.CutYang,
		ColorScheme:        types.ColorMonochrome,
		Texture:            types.TextureSmooth,
		CoarseCategory:     types.CategoryHumanFigure,
		HasFigure:          true,
		FigureDetails:      &types.FigureDetails{Type: "child riding a beast"},
		DecorationPatterns: []string{features.DecorationSawtooth, features.DecorationSawtooth},
		Confidence:         0.8,
	}
}

func decorativeSignals() types.VisualSignals {
	return types.VisualSignals{
		LineStyle:        types.LineFine,
		CuttingTechnique: types.CutMixed,
		ColorScheme:      types.ColorPolychrome,
		Texture:          types.TextureRough,
		CoarseCategory:   types.CategoryDecorative,
		Confidence:       0.9,
	}
}

func valid(id, name string, sim float64) types.MatchCandidate {
	return types.MatchCandidate{MotifID: id, MotifName: name, Similarity: sim, Valid: true}
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			c := color.RGBA{R: 200, A: 255}
			if (x+y)%3 == 0 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// assertPopulated checks that no label in the record is empty.
func assertPopulated(t *testing.T, rec types.AnnotationRecord) {
	t.Helper()
	nonEmpty := func(field string, list []string) {
		assert.NotEmpty(t, list, field)
		for _, s := range list {
			assert.NotEmpty(t, strings.TrimSpace(s), field)
		}
	}
	nonEmpty("main_subjects", rec.ContentObject.MainSubjects)
	nonEmpty("auxiliary_elements", rec.ContentObject.AuxiliaryElements)
	nonEmpty("composition_structure", rec.ContentObject.CompositionStructure)
	nonEmpty("style_analysis", rec.FormVisual.StyleAnalysis)
	nonEmpty("technique_analysis", rec.FormVisual.TechniqueAnalysis)
	nonEmpty("symbolism", rec.CulturalSemantic.Symbolism)
	nonEmpty("folk_uses", rec.CulturalSemantic.FolkUses)
	nonEmpty("regional_features", rec.CulturalSemantic.RegionalFeatures)
	nonEmpty("application_scenarios", rec.ContextRelation.ApplicationScenarios)
	for _, s := range []string{
		rec.FormVisual.LineStyle, rec.FormVisual.CuttingTechnique, rec.FormVisual.Color,
		rec.FormVisual.PaperTexture, rec.FormVisual.ArtCategory, rec.CulturalSemantic.CulturalBackground,
	} {
		assert.NotEmpty(t, s)
	}
	assert.NotNil(t, rec.ContextRelation.RelatedPatterns)
	assert.NotNil(t, rec.ContextRelation.SimilarPatterns)
	assert.NotNil(t, rec.MatchingPatterns)
}

func TestSynthesizeWithoutCandidates(t *testing.T) {
	cat := catalogtest.New(t)
	s := NewSynthesizer(types.AnnotationConfig{})

	rec := s.Synthesize(types.VisualSignals{}, nil, cat)
	assertPopulated(t, rec)

	assert.Equal(t, []string{"traditional pattern"}, rec.ContentObject.MainSubjects)
	assert.Equal(t, []string{DefaultAuxiliary}, rec.ContentObject.AuxiliaryElements)
	assert.Equal(t, []string{DefaultComposition}, rec.ContentObject.CompositionStructure)
	assert.Equal(t, []string{DefaultStyle}, rec.FormVisual.StyleAnalysis)
	assert.Equal(t, []string{DefaultTechnique}, rec.FormVisual.TechniqueAnalysis)
	assert.Equal(t, defaultSymbolism, rec.CulturalSemantic.Symbolism)
	assert.Equal(t, defaultFolkUses, rec.CulturalSemantic.FolkUses)
	assert.Equal(t, defaultRegional, rec.CulturalSemantic.RegionalFeatures)
	assert.Equal(t, DefaultCulturalBackground, rec.CulturalSemantic.CulturalBackground)
	assert.Equal(t, defaultScenarios, rec.ContextRelation.ApplicationScenarios)
	assert.Empty(t, rec.ContextRelation.RelatedPatterns)
	assert.Empty(t, rec.MatchingPatterns)
	assert.Nil(t, rec.BestMatch)
}

func TestSynthesizeIgnoresInvalidCandidates(t *testing.T) {
	cat := catalogtest.New(t)
	s := NewSynthesizer(types.AnnotationConfig{})

	rejected := valid("pattern_001", "double-wild-goose", 0.9)
	rejected.Valid = false
	rejected.RejectionReason = "bird"

	rec := s.Synthesize(types.VisualSignals{CoarseCategory: types.CategoryPlant}, []types.MatchCandidate{rejected}, cat)
	assertPopulated(t, rec)
	assert.Equal(t, []string{"plant pattern"}, rec.ContentObject.MainSubjects)
	assert.Nil(t, rec.BestMatch)
	assert.Empty(t, rec.MatchingPatterns)
}

func TestSynthesizeSections(t *testing.T) {
	cat := catalogtest.New(t)
	s := NewSynthesizer(types.AnnotationConfig{})

	cands := []types.MatchCandidate{
		valid("pattern_003", "gourd pattern", 0.5),
		valid("pattern_004", "topknot doll", 0.3),
		valid("pattern_007", "lotus pattern", 0.15),
	}
	rec := s.Synthesize(decorativeSignals(), cands, cat)
	assertPopulated(t, rec)

	co := rec.ContentObject
	assert.Equal(t, []string{"gourd pattern", "topknot doll"}, co.MainSubjects)
	assert.Equal(t, []string{DefaultAuxiliary}, co.AuxiliaryElements)
	assert.Equal(t, []string{"symmetric composition"}, co.CompositionStructure)
	assert.Equal(t, 0.9, co.Detection.Confidence)

	cs := rec.CulturalSemantic
	assert.Equal(t, []string{"ward off evil", "receive blessings", "many children", "god of joy", "bringing sons"}, cs.Symbolism)
	assert.Equal(t, []string{"skylight center", "wedding room", "Dragon Boat Festival", "door lintel", "wedding window flower"}, cs.FolkUses)
	assert.Equal(t, []string{
		"Yansui: simple and plain with strong symmetry",
		"Sanbian: hair-fine lines with delicate detail",
	}, cs.RegionalFeatures)
	assert.Equal(t, DefaultCulturalBackground, cs.CulturalBackground)

	cr := rec.ContextRelation
	assert.Equal(t, []string{"topknot doll"}, cr.RelatedPatterns)
	assert.Equal(t, []types.PatternScore{{MotifID: "pattern_004", Name: "topknot doll", Similarity: 0.3}}, cr.SimilarPatterns)
	assert.Len(t, cr.ApplicationScenarios, 5)

	require.NotNil(t, rec.BestMatch)
	assert.Equal(t, "gourd pattern", rec.BestMatch.Name)
	assert.Len(t, rec.MatchingPatterns, 3)
	assert.Equal(t, "decorative", rec.Category)
}

func TestSynthesizeAuxiliaryIsDeduplicated(t *testing.T) {
	rec := NewSynthesizer(types.AnnotationConfig{}).Synthesize(figureSignals(), nil, catalogtest.New(t))
	assert.Equal(t, []string{features.DecorationSawtooth}, rec.ContentObject.AuxiliaryElements)
	assert.Equal(t, []string{"figure (child riding a beast)"}, rec.ContentObject.MainSubjects)
}

func TestSynthesizeMainSubjects(t *testing.T) {
	cat := catalogtest.New(t)
	s := NewSynthesizer(types.AnnotationConfig{})
	cands := []types.MatchCandidate{valid("pattern_005", "tiger pattern", 0.6)}

	tests := []struct {
		name    string
		signals types.VisualSignals
		want    []string
	}{
		{"figure without details", types.VisualSignals{CoarseCategory: types.CategoryHumanFigure, HasFigure: true}, []string{"figure pattern", "tiger pattern"}},
		{"figure details without type", types.VisualSignals{CoarseCategory: types.CategoryHumanFigure, HasFigure: true, FigureDetails: &types.FigureDetails{}}, []string{"figure (child)", "tiger pattern"}},
		{"animal details", types.VisualSignals{CoarseCategory: types.CategoryAnimal, HasAnimal: true, AnimalDetails: &types.AnimalDetails{Type: "tiger"}}, []string{"tiger pattern"}},
		{"animal without details", types.VisualSignals{CoarseCategory: types.CategoryAnimal, HasAnimal: true}, []string{"animal pattern", "tiger pattern"}},
		{"plain", types.VisualSignals{CoarseCategory: types.CategoryAbstract}, []string{"tiger pattern"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.Synthesize(tt.signals, cands, cat)
			assert.Equal(t, tt.want, rec.ContentObject.MainSubjects)
		})
	}
}

func TestSynthesizeDanglingRelatedRef(t *testing.T) {
	cat := catalogtest.New(t)
	s := NewSynthesizer(types.AnnotationConfig{})

	rec := s.Synthesize(types.VisualSignals{CoarseCategory: types.CategoryAnimal, Confidence: 0.9},
		[]types.MatchCandidate{valid("pattern_002", "fish pattern", 0.7)}, cat)

	assert.Empty(t, rec.ContextRelation.RelatedPatterns)
	assert.NotContains(t, rec.ContextRelation.RelatedPatterns, "pattern_099")
	assert.Equal(t, "The fish stands for fertility.", rec.CulturalSemantic.CulturalBackground)
	assert.Empty(t, rec.ContextRelation.SimilarPatterns, "the best match is not similar to itself")

	rec = s.Synthesize(types.VisualSignals{}, []types.MatchCandidate{valid("pattern_001", "double-wild-goose", 0.7)}, cat)
	assert.Equal(t, []string{"fish pattern"}, rec.ContextRelation.RelatedPatterns)
}

func TestSynthesizeLimits(t *testing.T) {
	cat := catalogtest.New(t)
	s := NewSynthesizer(types.AnnotationConfig{
		SimilarFloor: 0.05,
		Limits:       types.AnnotationLimits{Symbolism: 2, Similar: 1, MatchingPatterns: 2, Scenarios: 3},
	})

	var cands []types.MatchCandidate
	for i, m := range cat.Motifs() {
		cands = append(cands, valid(m.ID, m.Name, 0.5-float64(i)*0.05))
	}
	rec := s.Synthesize(types.VisualSignals{}, cands, cat)

	assert.Len(t, rec.CulturalSemantic.Symbolism, 2)
	assert.Len(t, rec.ContextRelation.SimilarPatterns, 1)
	assert.Equal(t, "fish pattern", rec.ContextRelation.SimilarPatterns[0].Name)
	assert.Len(t, rec.MatchingPatterns, 2)
	assert.Len(t, rec.ContextRelation.ApplicationScenarios, 3)
}

func TestFormVisual(t *testing.T) {
	s := NewSynthesizer(types.AnnotationConfig{})

	fv := s.formVisual(figureSignals())
	assert.Equal(t, "bold jagged lines", fv.LineStyle)
	assert.Equal(t, []string{"rugged and bold"}, fv.StyleAnalysis)
	assert.Equal(t, []string{"yang cutting (retained lines)"}, fv.TechniqueAnalysis)
	assert.Equal(t, "monochrome paper-cut", fv.Color)
	assert.Equal(t, "smooth paper", fv.PaperTexture)
	assert.Equal(t, ArtCategory, fv.ArtCategory)

	fv = s.formVisual(decorativeSignals())
	assert.Equal(t, []string{"delicate and refined"}, fv.StyleAnalysis)
	assert.Equal(t, []string{"combined yin and yang cutting"}, fv.TechniqueAnalysis)
	assert.Equal(t, "polychrome paper-cut", fv.Color)
	assert.Equal(t, "rough textured paper", fv.PaperTexture)

	fv = s.formVisual(types.VisualSignals{CuttingTechnique: types.CutYin})
	assert.Equal(t, []string{"yin cutting (hollowed areas)"}, fv.TechniqueAnalysis)
}

func TestScan(t *testing.T) {
	assert.Equal(t, []string{"symmetric composition", "encircling composition"},
		scan(compositionTable, "Two geese in a symmetric layout, surrounded by peony", DefaultComposition))
	assert.Equal(t, []string{"centered composition"}, scan(compositionTable, "以葫芦为中心", DefaultComposition))
	assert.Equal(t, []string{DefaultComposition}, scan(compositionTable, "", DefaultComposition))
}

// fakeExtractor and fakeRanker stand in for the pipeline stages.
type fakeExtractor struct {
	signals types.VisualSignals
	err     error
}

func (f fakeExtractor) Extract(ctx context.Context, _ image.Image) (types.VisualSignals, error) {
	if err := ctx.Err(); err != nil {
		return types.VisualSignals{}, err
	}
	return f.signals, f.err
}

type fakeRanker struct {
	candidates []types.MatchCandidate
	err        error
	calls      atomic.Int32
}

func (f *fakeRanker) RankCatalog(_ context.Context, _ image.Image, _ *catalog.Catalog, _ int) ([]types.MatchCandidate, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return append([]types.MatchCandidate(nil), f.candidates...), nil
}

func newAnnotator(t *testing.T, ex SignalExtractor, r CatalogRanker) *Annotator {
	t.Helper()
	cfg := types.DefaultAnnotationConfig()
	a := New(catalogtest.New(t), ex, r, validate.New(validate.DefaultRules(), cfg.ValidationFloor(), zerolog.Nop()), cfg, zerolog.Nop())
	a.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	a.newID = func() string { return "ann-1" }
	return a
}

func TestAnnotateFigureRejectsBirdMotif(t *testing.T) {
	r := &fakeRanker{candidates: []types.MatchCandidate{
		valid("pattern_001", "double-wild-goose", 0.62),
		valid("pattern_004", "topknot doll", 0.25),
		valid("pattern_002", "fish pattern", 0.08),
	}}
	a := newAnnotator(t, fakeExtractor{signals: figureSignals()}, r)

	rec, err := a.Annotate(context.Background(), bytes.NewReader(pngImage(t)), "figure.png")
	require.NoError(t, err)
	assertPopulated(t, *rec)

	assert.NotContains(t, rec.ContentObject.MainSubjects, "double-wild-goose")
	assert.Equal(t, []string{"figure (child riding a beast)", "topknot doll"}, rec.ContentObject.MainSubjects)
	require.NotNil(t, rec.BestMatch)
	assert.Equal(t, "topknot doll", rec.BestMatch.Name)
	for _, p := range rec.MatchingPatterns {
		assert.NotEqual(t, "pattern_001", p.MotifID)
	}

	assert.Equal(t, "ann-1", rec.ID)
	assert.Equal(t, "figure.png", rec.Source)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), rec.CreatedAt)
}

func TestAnnotateUsesAliasesForValidation(t *testing.T) {
	r := &fakeRanker{candidates: []types.MatchCandidate{valid("pattern_001", "pattern one", 0.9)}}
	a := newAnnotator(t, fakeExtractor{signals: figureSignals()}, r)

	rec, err := a.Annotate(context.Background(), bytes.NewReader(pngImage(t)), "x.png")
	require.NoError(t, err)
	assert.Nil(t, rec.BestMatch)
}

func TestAnnotateDecodeErrorBeforeRanking(t *testing.T) {
	r := &fakeRanker{}
	a := newAnnotator(t, fakeExtractor{}, r)

	_, err := a.Annotate(context.Background(), strings.NewReader("not an image"), "bad.png")
	var de *features.ImageDecodeError
	assert.True(t, errors.As(err, &de))
	assert.Zero(t, r.calls.Load())
}

func TestAnnotatePropagatesBackendErrors(t *testing.T) {
	backendErr := &embed.EmbeddingBackendError{Backend: "http", Op: "embed image", Err: errors.New("timeout")}
	a := newAnnotator(t, fakeExtractor{signals: figureSignals()}, &fakeRanker{err: backendErr})

	rec, err := a.Annotate(context.Background(), bytes.NewReader(pngImage(t)), "x.png")
	assert.Nil(t, rec)
	var be *embed.EmbeddingBackendError
	assert.True(t, errors.As(err, &be))

	clsErr := &features.ClassifierError{Backend: "http", Err: errors.New("refused")}
	a = newAnnotator(t, fakeExtractor{err: clsErr}, &fakeRanker{})
	rec, err = a.Annotate(context.Background(), bytes.NewReader(pngImage(t)), "x.png")
	assert.Nil(t, rec)
	var ce *features.ClassifierError
	assert.True(t, errors.As(err, &ce))
}

func TestAnnotateCancelled(t *testing.T) {
	a := newAnnotator(t, fakeExtractor{signals: figureSignals()}, &fakeRanker{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, err := a.Annotate(ctx, bytes.NewReader(pngImage(t)), "x.png")
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnnotateFileMissing(t *testing.T) {
	a := newAnnotator(t, fakeExtractor{}, &fakeRanker{})
	_, err := a.AnnotateFile(context.Background(), "/nonexistent/image.png")
	assert.ErrorContains(t, err, "opening image")
}

func TestAnnotateEndToEndIsDeterministic(t *testing.T) {
	cat := catalogtest.New(t)
	analyzer := features.Analyzer{}
	extractor := features.NewExtractor(features.StaticClassifier{Result: types.Classification{Category: "花样类", Confidence: 0.7}}, analyzer)
	matcher := embed.NewMatcher(embed.NewLexicalEmbedder(256, analyzer), embed.Options{}, zerolog.Nop())
	cfg := types.DefaultAnnotationConfig()
	a := New(cat, extractor, matcher, validate.New(validate.DefaultRules(), cfg.ValidationFloor(), zerolog.Nop()), cfg, zerolog.Nop())

	data := pngImage(t)
	first, err := a.Annotate(context.Background(), bytes.NewReader(data), "a.png")
	require.NoError(t, err)
	second, err := a.Annotate(context.Background(), bytes.NewReader(data), "a.png")
	require.NoError(t, err)

	assertPopulated(t, *first)
	assert.Equal(t, types.CategoryDecorative, first.VisualAnalysis.DetectedCategory)
	assert.Equal(t, first.MatchingPatterns, second.MatchingPatterns)
	assert.Equal(t, first.ContentObject, second.ContentObject)
	assert.NotEqual(t, first.ID, second.ID)
	assert.LessOrEqual(t, len(first.MatchingPatterns), 5)
	for i := 1; i < len(first.MatchingPatterns); i++ {
		assert.GreaterOrEqual(t, first.MatchingPatterns[i-1].Similarity, first.MatchingPatterns[i].Similarity)
	}
}
