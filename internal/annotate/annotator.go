// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package annotate turns a paper-cut image into a four-dimensional
// annotation record: content/object, form/visual, cultural/semantic and
// context/relation.
package annotate

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/papercut-engine/internal/catalog"
	"github.com/pdiddy/papercut-engine/internal/embed"
	"github.com/pdiddy/papercut-engine/internal/features"
	"github.com/pdiddy/papercut-engine/internal/validate"
	"github.com/pdiddy/papercut-engine/pkg/types"
)

// SignalExtractor produces visual signals for an image.
// *features.Extractor satisfies it.
type SignalExtractor interface {
	Extract(ctx context.Context, img image.Image) (types.VisualSignals, error)
}

// CatalogRanker ranks catalog motifs against an image. *embed.Matcher
// satisfies it.
type CatalogRanker interface {
	RankCatalog(ctx context.Context, img image.Image, cat *catalog.Catalog, topK int) ([]types.MatchCandidate, error)
}

var (
	_ SignalExtractor = (*features.Extractor)(nil)
	_ CatalogRanker   = (*embed.Matcher)(nil)
)

// Annotator runs the full pipeline: decode, extract signals and rank the
// catalog concurrently, validate, synthesize. A call either returns a
// complete record or an error.
type Annotator struct {
	catalog   *catalog.Catalog
	extractor SignalExtractor
	ranker    CatalogRanker
	validator *validate.Validator
	synth     *Synthesizer
	topK      int
	logger    zerolog.Logger

	now   func() time.Time
	newID func() string
}

// New returns an Annotator over cat.
func New(cat *catalog.Catalog, extractor SignalExtractor, ranker CatalogRanker, validator *validate.Validator, cfg types.AnnotationConfig, logger zerolog.Logger) *Annotator {
	cfg.ApplyDefaults()
	return &Annotator{
		catalog:   cat,
		extractor: extractor,
		ranker:    ranker,
		validator: validator,
		synth:     NewSynthesizer(cfg),
		topK:      cfg.TopK,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Catalog returns the catalog the annotator matches against.
func (a *Annotator) Catalog() *catalog.Catalog { return a.catalog }

// Annotate decodes an image from r and annotates it. Unreadable input fails
// with *features.ImageDecodeError before any backend call.
func (a *Annotator) Annotate(ctx context.Context, r io.Reader, source string) (*types.AnnotationRecord, error) {
	img, err := features.Decode(r)
	if err != nil {
		return nil, err
	}
	return a.AnnotateImage(ctx, img, source)
}

// AnnotateFile annotates the image at path.
func (a *Annotator) AnnotateFile(ctx context.Context, path string) (*types.AnnotationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()
	return a.Annotate(ctx, f, path)
}

// AnnotateImage annotates a decoded image.
func (a *Annotator) AnnotateImage(ctx context.Context, img image.Image, source string) (*types.AnnotationRecord, error) {
	start := a.now()

	var (
		signals    types.VisualSignals
		candidates []types.MatchCandidate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		signals, err = a.extractor.Extract(gctx, img)
		return err
	})
	g.Go(func() error {
		var err error
		candidates, err = a.ranker.RankCatalog(gctx, img, a.catalog, a.topK)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rejected := a.validator.ValidateAll(candidates, signals, a.names)
	rec := a.synth.Synthesize(signals, candidates, a.catalog)
	rec.ID = a.newID()
	rec.Source = source
	rec.CreatedAt = a.now().UTC()

	ev := a.logger.Info().
		Str("id", rec.ID).
		Str("source", source).
		Str("category", rec.Category).
		Int("candidates", len(candidates)).
		Int("rejected", rejected).
		Dur("elapsed", a.now().Sub(start))
	if rec.BestMatch != nil {
		ev = ev.Str("best_match", rec.BestMatch.Name).Float64("similarity", rec.BestMatch.Similarity)
	}
	ev.Msg("image annotated")
	return &rec, nil
}

// names returns a candidate's catalog name and aliases.
func (a *Annotator) names(c types.MatchCandidate) []string {
	m, ok := a.catalog.FindByID(c.MotifID)
	if !ok {
		return nil
	}
	return append([]string{m.Name}, m.Aliases...)
}
