// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/papercut-engine/internal/annotate"
	"github.com/pdiddy/papercut-engine/internal/catalog"
	"github.com/pdiddy/papercut-engine/internal/embed"
	"github.com/pdiddy/papercut-engine/internal/features"
	"github.com/pdiddy/papercut-engine/internal/knowledge"
	"github.com/pdiddy/papercut-engine/internal/secrets"
	"github.com/pdiddy/papercut-engine/internal/validate"
	"github.com/pdiddy/papercut-engine/pkg/types"
)

// envKeys are config keys that can be set from PAPERCUT_* variables without
// appearing in a config file.
var envKeys = []string{
	"catalog.path",
	"embedding.backend", "embedding.base_url", "embedding.api_key", "embedding.model",
	"classifier.backend", "classifier.base_url", "classifier.api_key",
	"classifier.static_category", "classifier.static_confidence",
	"annotation.top_k", "annotation.temperature", "annotation.confidence_floor", "annotation.rules_file",
	"store.dir",
}

// loadConfig reads the typed configuration from viper, fills API keys from
// secrets and applies defaults.
func loadConfig() (types.Config, error) {
	for _, k := range envKeys {
		viper.BindEnv(k)
	}

	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Embedding.APIKey = loadedSecrets.Resolve(secrets.EmbeddingAPIKey, cfg.Embedding.APIKey)
	cfg.Classifier.APIKey = loadedSecrets.Resolve(secrets.ClassifierAPIKey, cfg.Classifier.APIKey)
	cfg.ApplyDefaults()
	return cfg, nil
}

// engine bundles the components built from one configuration.
type engine struct {
	cfg       types.Config
	catalog   *catalog.Catalog
	annotator *annotate.Annotator
}

// loadCatalog loads the configured knowledge base and logs integrity
// warnings.
func loadCatalog(cfg types.Config) (*catalog.Catalog, error) {
	cat, err := catalog.Load(cfg.Catalog.Path, logger)
	if err != nil {
		return nil, err
	}
	if n := len(cat.Warnings()); n > 0 {
		logger.Warn().Int("count", n).Str("catalog", cfg.Catalog.Path).Msg("catalog loaded with integrity warnings")
	}
	return cat, nil
}

// newEngine wires the catalog, feature extractor, matcher and validator
// into an Annotator.
func newEngine() (*engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	analyzer := features.Analyzer{MaxSide: cfg.Features.AnalysisMaxSide}
	classifier, err := features.NewClassifier(cfg.Classifier)
	if err != nil {
		return nil, err
	}
	embedder, err := embed.NewEmbedder(cfg.Embedding, analyzer)
	if err != nil {
		return nil, err
	}
	matcher := embed.NewMatcher(embedder, embed.Options{
		Normalization: cfg.Annotation.Normalization,
		Temperature:   cfg.Annotation.Temperature,
		BatchSize:     cfg.Embedding.BatchSize,
		Workers:       cfg.Embedding.Workers,
	}, logger)

	rules := validate.DefaultRules()
	if cfg.Annotation.RulesFile != "" {
		extra, err := validate.LoadRules(cfg.Annotation.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = append(rules, extra...)
	}
	validator := validate.New(rules, cfg.Annotation.ValidationFloor(), logger)

	return &engine{
		cfg:       cfg,
		catalog:   cat,
		annotator: annotate.New(cat, features.NewExtractor(classifier, analyzer), matcher, validator, cfg.Annotation, logger),
	}, nil
}

func openStore(cfg types.Config) (*knowledge.Store, error) {
	return knowledge.NewStore(cfg.Store)
}

// writeOutput encodes v to w as json or yaml.
func writeOutput(w io.Writer, v any, format string) error {
	switch strings.ToLower(format) {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q: use json or yaml", format)
	}
}

// describeError turns the categorized pipeline errors into one-line
// messages for progress output.
func describeError(err error) string {
	var decodeErr *features.ImageDecodeError
	var backendErr *embed.EmbeddingBackendError
	var classifierErr *features.ClassifierError
	switch {
	case errors.As(err, &decodeErr):
		return "not a decodable image: " + decodeErr.Err.Error()
	case errors.As(err, &backendErr):
		return "embedding backend unavailable (" + backendErr.Backend + "): " + backendErr.Err.Error()
	case errors.As(err, &classifierErr):
		return "classifier unavailable (" + classifierErr.Backend + "): " + classifierErr.Err.Error()
	default:
		return err.Error()
	}
}
