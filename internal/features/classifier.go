// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package features

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"net/http"

	"github.com/pdiddy/papercut-engine/internal/httputil"
	"github.com/pdiddy/papercut-engine/pkg/types"
)

// Classifier is the external supervised image classifier. Implementations
// must be safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, img image.Image) (types.Classification, error)
}

// ClassifierError reports a failed classifier call.
type ClassifierError struct {
	Backend string
	Err     error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("classifier %s: %v", e.Backend, e.Err)
}

func (e *ClassifierError) Unwrap() error { return e.Err }

// StaticClassifier answers every image with the same classification. It
// stands in for the real classifier offline and in tests.
type StaticClassifier struct {
	Result types.Classification
}

// Classify returns the fixed classification.
func (s StaticClassifier) Classify(ctx context.Context, _ image.Image) (types.Classification, error) {
	if err := ctx.Err(); err != nil {
		return types.Classification{}, err
	}
	return s.Result, nil
}

// HTTPClassifier calls a classification service:
//
//	POST {base_url}/classify  {"image": "<base64 PNG>"}
//
// The response body is a types.Classification in JSON.
type HTTPClassifier struct {
	client *httputil.Client
}

// NewHTTPClassifier builds a client from cfg. The caller applies config
// defaults first.
func NewHTTPClassifier(cfg types.HTTPConfig) *HTTPClassifier {
	return &HTTPClassifier{client: &httputil.Client{
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
	}}
}

type classifyRequest struct {
	Image string `json:"image"`
}

// Classify sends img to the service.
func (c *HTTPClassifier) Classify(ctx context.Context, img image.Image) (types.Classification, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return types.Classification{}, &ClassifierError{Backend: "http", Err: err}
	}

	var out types.Classification
	req := classifyRequest{Image: base64.StdEncoding.EncodeToString(data)}
	if err := c.client.PostJSON(ctx, "classify", req, &out); err != nil {
		return types.Classification{}, &ClassifierError{Backend: "http", Err: err}
	}
	return out, nil
}

// NewClassifier builds the classifier selected by cfg.
func NewClassifier(cfg types.ClassifierConfig) (Classifier, error) {
	switch cfg.Backend {
	case types.ClassifierHTTP:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("classifier: http backend requires base_url")
		}
		return NewHTTPClassifier(cfg.HTTPConfig), nil
	case types.ClassifierStatic, "":
		return StaticClassifier{Result: types.Classification{
			Category:   cfg.StaticCategory,
			Confidence: cfg.StaticConfidence,
		}}, nil
	default:
		return nil, fmt.Errorf("classifier: unknown backend %q", cfg.Backend)
	}
}
