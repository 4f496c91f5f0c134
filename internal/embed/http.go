// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"net/http"

	"github.com/pdiddy/papercut-engine/internal/features"
	"github.com/pdiddy/papercut-engine/internal/httputil"
	"github.com/pdiddy/papercut-engine/pkg/types"
)

// HTTPEmbedder calls a CLIP-style embedding service:
//
//	POST {base_url}/embed/text   {"model": m, "inputs": [...]}  -> {"embeddings": [[...], ...]}
//	POST {base_url}/embed/image  {"model": m, "image": "<base64 PNG>"} -> {"embedding": [...]}
type HTTPEmbedder struct {
	client *httputil.Client
	model  string
}

// NewHTTPEmbedder builds an HTTP embedder from cfg.
func NewHTTPEmbedder(cfg types.EmbeddingConfig) *HTTPEmbedder {
	return &HTTPEmbedder{
		client: &httputil.Client{
			HTTP:       &http.Client{Timeout: cfg.Timeout},
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			UserAgent:  cfg.UserAgent,
			MaxRetries: cfg.MaxRetries,
		},
		model: cfg.Model,
	}
}

// Name implements Embedder.
func (h *HTTPEmbedder) Name() string {
	if h.model == "" {
		return "http"
	}
	return "http:" + h.model
}

type textRequest struct {
	Model  string   `json:"model,omitempty"`
	Inputs []string `json:"inputs"`
}

type textResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

type imageRequest struct {
	Model string `json:"model,omitempty"`
	Image string `json:"image"`
}

type imageResponse struct {
	Embedding []float64 `json:"embedding"`
}

// EmbedTexts implements Embedder.
func (h *HTTPEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	var resp textResponse
	if err := h.client.PostJSON(ctx, "embed/text", textRequest{Model: h.model, Inputs: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

// EmbedImage implements Embedder.
func (h *HTTPEmbedder) EmbedImage(ctx context.Context, img image.Image) ([]float64, error) {
	data, err := features.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	var resp imageResponse
	req := imageRequest{Model: h.model, Image: base64.StdEncoding.EncodeToString(data)}
	if err := h.client.PostJSON(ctx, "embed/image", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("empty image embedding")
	}
	return resp.Embedding, nil
}
