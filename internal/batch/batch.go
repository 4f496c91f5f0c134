// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch annotates a dataset laid out as one directory of images per
// category and exports the records grouped by category.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/papercut-engine/pkg/types"
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// ImageAnnotator annotates one image file. *annotate.Annotator satisfies it.
type ImageAnnotator interface {
	AnnotateFile(ctx context.Context, path string) (*types.AnnotationRecord, error)
}

// Saver persists annotation records. *knowledge.Store satisfies it.
type Saver interface {
	SaveAnnotation(ctx context.Context, rec *types.AnnotationRecord) error
}

// Failure is one image that could not be annotated.
type Failure struct {
	Path string
	Err  error
}

// Result holds the outcome of a batch run.
type Result struct {
	Total     int
	Annotated int
	Failed    int
	Saved     int

	// Categories lists the category directories processed, in order.
	Categories []string

	// Annotations maps category to its records, in file name order.
	Annotations map[string][]*types.AnnotationRecord

	Failures []Failure
}

// HasFailures reports whether any image failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Runner annotates datasets with a bounded worker pool.
type Runner struct {
	annotator ImageAnnotator
	saver     Saver
	cfg       types.BatchConfig
	logger    zerolog.Logger
}

// NewRunner returns a Runner. saver may be nil.
func NewRunner(a ImageAnnotator, saver Saver, cfg types.BatchConfig, logger zerolog.Logger) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Runner{annotator: a, saver: saver, cfg: cfg, logger: logger}
}

// Run annotates every image under the configured root, printing per-image
// progress to w. Individual failures are counted and do not stop the run;
// only context cancellation and an unreadable root are returned as errors.
func (r *Runner) Run(ctx context.Context, w io.Writer) (Result, error) {
	res := Result{Annotations: make(map[string][]*types.AnnotationRecord)}

	categories, err := r.categories()
	if err != nil {
		return res, err
	}

	for _, category := range categories {
		dir := filepath.Join(r.cfg.Root, category)
		images, err := listImages(dir)
		if err != nil {
			fmt.Fprintf(w, "warning: category %s: %v, skipping\n", category, err)
			continue
		}
		fmt.Fprintf(w, "category %s: %d images\n", category, len(images))
		res.Categories = append(res.Categories, category)
		res.Total += len(images)

		records, err := r.annotateCategory(ctx, category, images, &res, w)
		if err != nil {
			return res, err
		}
		res.Annotations[category] = records
	}
	return res, nil
}

func (r *Runner) annotateCategory(ctx context.Context, category string, images []string, res *Result, w io.Writer) ([]*types.AnnotationRecord, error) {
	slots := make([]*types.AnnotationRecord, len(images))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, path := range images {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := r.annotator.AnnotateFile(gctx, path)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				mu.Lock()
				res.Failed++
				res.Failures = append(res.Failures, Failure{Path: path, Err: err})
				fmt.Fprintf(w, "failed: %s: %v\n", path, err)
				mu.Unlock()
				r.logger.Warn().Err(err).Str("path", path).Msg("annotation failed")
				return nil
			}
			rec.Category = category
			slots[i] = rec

			saved := false
			if r.saver != nil {
				if err := r.saver.SaveAnnotation(gctx, rec); err != nil {
					r.logger.Warn().Err(err).Str("id", rec.ID).Msg("saving annotation")
				} else {
					saved = true
				}
			}

			mu.Lock()
			res.Annotated++
			if saved {
				res.Saved++
			}
			fmt.Fprintf(w, "annotated %d/%d: %s\n", res.Annotated+res.Failed, res.Total, path)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]*types.AnnotationRecord, 0, len(slots))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (r *Runner) categories() ([]string, error) {
	if len(r.cfg.Categories) > 0 {
		return r.cfg.Categories, nil
	}
	entries, err := os.ReadDir(r.cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("reading dataset root: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// listImages returns the image files directly under dir, sorted by name.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	slices.Sort(out)
	return out, nil
}

// WriteJSON writes the records grouped by category to path. Every processed
// category is present, with an empty list when nothing was annotated.
func WriteJSON(path string, res Result) error {
	out := make(map[string][]*types.AnnotationRecord, len(res.Categories))
	for _, c := range res.Categories {
		recs := res.Annotations[c]
		if recs == nil {
			recs = []*types.AnnotationRecord{}
		}
		out[c] = recs
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling annotations: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// PrintSummary writes totals and per-category counts.
func PrintSummary(w io.Writer, res Result) {
	fmt.Fprintf(w, "\ntotal: %d images, %d annotated, %d failed", res.Total, res.Annotated, res.Failed)
	if res.Saved > 0 {
		fmt.Fprintf(w, ", %d saved", res.Saved)
	}
	fmt.Fprintln(w)
	for _, c := range res.Categories {
		fmt.Fprintf(w, "  %s: %d\n", c, len(res.Annotations[c]))
	}
}
