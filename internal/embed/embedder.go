// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed ranks catalog motifs against an image in a shared
// image/text embedding space.
package embed

import (
	"context"
	"fmt"
	"image"

	"github.com/pdiddy/papercut-engine/pkg/types"
)

// Embedder maps images and texts into the same vector space. Vectors need
// not be normalized. Implementations must be safe for concurrent use and
// deterministic per input.
type Embedder interface {
	EmbedImage(ctx context.Context, img image.Image) ([]float64, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)

	// Name identifies the embedding space. Cached text vectors are only
	// reused for the same Name.
	Name() string
}

// EmbeddingBackendError reports an unavailable or misbehaving embedding
// provider. The core never retries it.
type EmbeddingBackendError struct {
	Backend string
	Op      string
	Err     error
}

func (e *EmbeddingBackendError) Error() string {
	return fmt.Sprintf("embedding backend %s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *EmbeddingBackendError) Unwrap() error { return e.Err }

// NewEmbedder builds the embedder selected by cfg. The caller applies config
// defaults first.
func NewEmbedder(cfg types.EmbeddingConfig, features FeatureAnalyzer) (Embedder, error) {
	switch cfg.Backend {
	case types.EmbeddingHTTP:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("embedding: http backend requires base_url")
		}
		return NewHTTPEmbedder(cfg), nil
	case types.EmbeddingLexical, "":
		return NewLexicalEmbedder(cfg.Dimensions, features), nil
	default:
		return nil, fmt.Errorf("embedding: unknown backend %q", cfg.Backend)
	}
}
