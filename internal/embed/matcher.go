// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/pdiddy/papercut-engine/internal/catalog"
	"github.com/pdiddy/papercut-engine/pkg/types"
)

// Options tune score normalization and text batching.
type Options struct {
	// Normalization is softmax (default) or cosine.
	Normalization types.Normalization

	// Temperature scales cosine similarities before the softmax
	// (default 100).
	Temperature float64

	// BatchSize is the number of texts per EmbedTexts call (default 32).
	BatchSize int

	// Workers bounds concurrent EmbedTexts calls (default 4).
	Workers int
}

func (o *Options) applyDefaults() {
	if o.Normalization == "" {
		o.Normalization = types.NormalizeSoftmax
	}
	if o.Temperature <= 0 {
		o.Temperature = 100
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 32
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
}

// catalogIndex holds the unit-normalized text vectors of one catalog
// version.
type catalogIndex struct {
	key        string
	candidates []Candidate
	vectors    [][]float64
}

// Matcher ranks candidates by similarity to an image. It is safe for
// concurrent use. The catalog text index is computed on first use and
// reused until the catalog version or embedder changes.
type Matcher struct {
	embedder Embedder
	opts     Options
	logger   zerolog.Logger

	mu    sync.RWMutex
	index *catalogIndex
}

// NewMatcher returns a Matcher using e.
func NewMatcher(e Embedder, opts Options, logger zerolog.Logger) *Matcher {
	opts.applyDefaults()
	return &Matcher{embedder: e, opts: opts, logger: logger}
}

// Rank embeds img and every candidate, and returns at most topK candidates
// ordered by normalized similarity, most similar first. Ties keep
// candidate order. topK <= 0 returns every candidate. An empty candidate
// list yields an empty result without calling the embedder.
func (m *Matcher) Rank(ctx context.Context, img image.Image, candidates []Candidate, topK int) ([]types.MatchCandidate, error) {
	if len(candidates) == 0 {
		return []types.MatchCandidate{}, nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.text()
	}
	vectors, err := m.embedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}

	imgVec, err := m.embedImage(ctx, img)
	if err != nil {
		return nil, err
	}
	return m.score(imgVec, candidates, vectors, topK)
}

// RankCatalog ranks every motif of cat against img, using the cached text
// index for cat's version.
func (m *Matcher) RankCatalog(ctx context.Context, img image.Image, cat *catalog.Catalog, topK int) ([]types.MatchCandidate, error) {
	idx, err := m.catalogIndex(ctx, cat)
	if err != nil {
		return nil, err
	}
	imgVec, err := m.embedImage(ctx, img)
	if err != nil {
		return nil, err
	}
	return m.score(imgVec, idx.candidates, idx.vectors, topK)
}

// Warm computes the catalog text index ahead of the first request.
func (m *Matcher) Warm(ctx context.Context, cat *catalog.Catalog) error {
	_, err := m.catalogIndex(ctx, cat)
	return err
}

func (m *Matcher) catalogIndex(ctx context.Context, cat *catalog.Catalog) (*catalogIndex, error) {
	key := m.embedder.Name() + "@" + cat.Version()

	m.mu.RLock()
	idx := m.index
	m.mu.RUnlock()
	if idx != nil && idx.key == key {
		return idx, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index != nil && m.index.key == key {
		return m.index, nil
	}

	candidates := CatalogCandidates(cat)
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.text()
	}
	vectors, err := m.embedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}

	m.index = &catalogIndex{key: key, candidates: candidates, vectors: vectors}
	m.logger.Debug().
		Str("embedder", m.embedder.Name()).
		Str("catalog_version", cat.Version()).
		Int("motifs", len(candidates)).
		Msg("catalog embedding index built")
	return m.index, nil
}

func (m *Matcher) embedImage(ctx context.Context, img image.Image) ([]float64, error) {
	vec, err := m.embedder.EmbedImage(ctx, img)
	if err != nil {
		return nil, m.backendError("embed image", err)
	}
	return unit(vec), nil
}

// embedTexts embeds texts in batches across a bounded worker pool and
// returns unit vectors in input order.
func (m *Matcher) embedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for start := 0; start < len(texts); start += m.opts.BatchSize {
		end := min(start+m.opts.BatchSize, len(texts))
		g.Go(func() error {
			vecs, err := m.embedder.EmbedTexts(gctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(vecs) != end-start {
				return fmt.Errorf("got %d vectors for %d texts", len(vecs), end-start)
			}
			for i, v := range vecs {
				out[start+i] = unit(v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, m.backendError("embed texts", err)
	}
	return out, nil
}

func (m *Matcher) backendError(op string, err error) error {
	var be *EmbeddingBackendError
	if errors.As(err, &be) {
		return err
	}
	return &EmbeddingBackendError{Backend: m.embedder.Name(), Op: op, Err: err}
}

// score computes normalized similarities and returns the topK candidates.
func (m *Matcher) score(imgVec []float64, candidates []Candidate, vectors [][]float64, topK int) ([]types.MatchCandidate, error) {
	if len(candidates) == 0 {
		return []types.MatchCandidate{}, nil
	}

	sims := make([]float64, len(candidates))
	for i, v := range vectors {
		if len(v) != len(imgVec) {
			return nil, m.backendError("score", fmt.Errorf(
				"dimension mismatch: image vector has %d dimensions, text vector for %s has %d",
				len(imgVec), candidates[i].MotifID, len(v)))
		}
		sims[i] = floats.Dot(imgVec, v)
	}
	m.normalize(sims)

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return sims[order[a]] > sims[order[b]] })

	if topK <= 0 || topK > len(order) {
		topK = len(order)
	}
	out := make([]types.MatchCandidate, topK)
	for i, j := range order[:topK] {
		out[i] = types.MatchCandidate{
			MotifID:    candidates[j].MotifID,
			MotifName:  candidates[j].Name,
			Similarity: sims[j],
			Valid:      true,
		}
	}
	return out, nil
}

// normalize maps raw cosine similarities into [0,1] in place.
func (m *Matcher) normalize(sims []float64) {
	if m.opts.Normalization == types.NormalizeCosine {
		for i, s := range sims {
			sims[i] = math.Max(0, math.Min(1, s))
		}
		return
	}

	peak := floats.Max(sims)
	for i, s := range sims {
		sims[i] = math.Exp(m.opts.Temperature * (s - peak))
	}
	floats.Scale(1/floats.Sum(sims), sims)
}

// unit returns v scaled to unit length. Zero vectors are returned as is.
func unit(v []float64) []float64 {
	out := append([]float64(nil), v...)
	n := floats.Norm(out, 2)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return out
	}
	floats.Scale(1/n, out)
	return out
}
