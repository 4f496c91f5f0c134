// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by backends that make network
// requests.
type HTTPConfig struct {
	// BaseURL is the service root (e.g. "http://localhost:8000").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey is sent as a bearer token when set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Timeout is the HTTP request timeout (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429. Zero disables
	// retrying; callers that want retries opt in.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// CatalogConfig locates the knowledge base file.
type CatalogConfig struct {
	// Path is a YAML or JSON knowledge base file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// EmbeddingBackend identifies the embedding provider.
type EmbeddingBackend string

const (
	EmbeddingLexical EmbeddingBackend = "lexical"
	EmbeddingHTTP    EmbeddingBackend = "http"
)

// EmbeddingConfig holds settings for the embedding provider.
type EmbeddingConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backend selects the provider: lexical (offline) or http.
	Backend EmbeddingBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Model is passed through to the HTTP provider.
	Model string `json:"model,omitempty" yaml:"model,omitempty" mapstructure:"model"`

	// Dimensions is the vector size of the lexical backend (default 512).
	Dimensions int `json:"dimensions" yaml:"dimensions" mapstructure:"dimensions"`

	// BatchSize is the number of texts per embedding request (default 32).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`

	// Workers bounds concurrent embedding requests (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// ClassifierBackend identifies the image classifier.
type ClassifierBackend string

const (
	ClassifierHTTP   ClassifierBackend = "http"
	ClassifierStatic ClassifierBackend = "static"
)

// ClassifierConfig holds settings for the external image classifier.
type ClassifierConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backend selects http or static.
	Backend ClassifierBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// StaticCategory and StaticConfidence are the answer of the static
	// classifier.
	StaticCategory   string  `json:"static_category,omitempty" yaml:"static_category,omitempty" mapstructure:"static_category"`
	StaticConfidence float64 `json:"static_confidence,omitempty" yaml:"static_confidence,omitempty" mapstructure:"static_confidence"`
}

// FeatureConfig holds settings for pixel-level feature analysis.
type FeatureConfig struct {
	// AnalysisMaxSide is the longest side images are downscaled to before
	// analysis (default 256).
	AnalysisMaxSide int `json:"analysis_max_side" yaml:"analysis_max_side" mapstructure:"analysis_max_side"`
}

// Normalization selects how raw cosine similarities are mapped into [0,1].
type Normalization string

const (
	NormalizeSoftmax Normalization = "softmax"
	NormalizeCosine  Normalization = "cosine"
)

// AnnotationLimits caps the list fields of an annotation record.
type AnnotationLimits struct {
	Symbolism        int `json:"symbolism" yaml:"symbolism" mapstructure:"symbolism"`
	FolkUses         int `json:"folk_uses" yaml:"folk_uses" mapstructure:"folk_uses"`
	RegionalFeatures int `json:"regional_features" yaml:"regional_features" mapstructure:"regional_features"`
	Related          int `json:"related" yaml:"related" mapstructure:"related"`
	Similar          int `json:"similar" yaml:"similar" mapstructure:"similar"`
	Scenarios        int `json:"scenarios" yaml:"scenarios" mapstructure:"scenarios"`
	MatchingPatterns int `json:"matching_patterns" yaml:"matching_patterns" mapstructure:"matching_patterns"`
}

// AnnotationConfig holds the tunables of the matching and synthesis
// pipeline.
type AnnotationConfig struct {
	// TopK is the number of ranked candidates kept (default 10).
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`

	// Normalization is softmax (default) or cosine.
	Normalization Normalization `json:"normalization" yaml:"normalization" mapstructure:"normalization"`

	// Temperature scales cosine similarities before the softmax
	// (default 100).
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// SimilarFloor is the normalized score a valid candidate needs to be
	// listed as a similar pattern (default 0.20).
	SimilarFloor float64 `json:"similar_floor" yaml:"similar_floor" mapstructure:"similar_floor"`

	// ConfidenceFloor is the classifier confidence below which the
	// consistency validator accepts every candidate (default 0.3). An
	// explicit 0 validates every candidate.
	ConfidenceFloor *float64 `json:"confidence_floor" yaml:"confidence_floor" mapstructure:"confidence_floor"`

	// RulesFile optionally extends the built-in consistency rules.
	RulesFile string `json:"rules_file,omitempty" yaml:"rules_file,omitempty" mapstructure:"rules_file"`

	Limits AnnotationLimits `json:"limits" yaml:"limits" mapstructure:"limits"`
}

// StoreConfig holds settings for the SQLite knowledge store.
type StoreConfig struct {
	// Dir is the base directory for the store (contains index/).
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// BatchConfig holds settings for dataset batch annotation.
type BatchConfig struct {
	// Root contains one sub-directory of images per category.
	Root string `json:"root" yaml:"root" mapstructure:"root"`

	// Categories lists the category directories to walk. Empty means every
	// sub-directory of Root.
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty" mapstructure:"categories"`

	// Workers bounds concurrent annotations (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// Output is the JSON file results are written to
	// (default dataset_annotations.json).
	Output string `json:"output" yaml:"output" mapstructure:"output"`
}

// Config groups every component configuration.
type Config struct {
	Catalog    CatalogConfig    `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Embedding  EmbeddingConfig  `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier" mapstructure:"classifier"`
	Features   FeatureConfig    `json:"features" yaml:"features" mapstructure:"features"`
	Annotation AnnotationConfig `json:"annotation" yaml:"annotation" mapstructure:"annotation"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
	Batch      BatchConfig      `json:"batch" yaml:"batch" mapstructure:"batch"`
}

// DefaultConfidenceFloor is the validator confidence floor used when none
// is configured.
const DefaultConfidenceFloor = 0.3

// ValidationFloor returns the configured confidence floor, falling back to
// DefaultConfidenceFloor when unset.
func (c AnnotationConfig) ValidationFloor() float64 {
	if c.ConfidenceFloor == nil {
		return DefaultConfidenceFloor
	}
	return *c.ConfidenceFloor
}

// DefaultAnnotationConfig returns the annotation settings used when nothing
// is configured.
func DefaultAnnotationConfig() AnnotationConfig {
	var c AnnotationConfig
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero-valued annotation settings.
func (c *AnnotationConfig) ApplyDefaults() {
	if c.TopK <= 0 {
		c.TopK = 10
	}
	if c.Normalization == "" {
		c.Normalization = NormalizeSoftmax
	}
	if c.Temperature <= 0 {
		c.Temperature = 100
	}
	if c.SimilarFloor <= 0 {
		c.SimilarFloor = 0.20
	}
	if c.ConfidenceFloor == nil {
		floor := DefaultConfidenceFloor
		c.ConfidenceFloor = &floor
	}
	l := &c.Limits
	if l.Symbolism <= 0 {
		l.Symbolism = 5
	}
	if l.FolkUses <= 0 {
		l.FolkUses = 5
	}
	if l.RegionalFeatures <= 0 {
		l.RegionalFeatures = 3
	}
	if l.Related <= 0 {
		l.Related = 5
	}
	if l.Similar <= 0 {
		l.Similar = 3
	}
	if l.Scenarios <= 0 {
		l.Scenarios = 5
	}
	if l.MatchingPatterns <= 0 {
		l.MatchingPatterns = 5
	}
}

// ApplyDefaults fills zero-valued settings across all components.
func (c *Config) ApplyDefaults() {
	if c.Catalog.Path == "" {
		c.Catalog.Path = "data/knowledge_base.yaml"
	}

	if c.Embedding.Backend == "" {
		c.Embedding.Backend = EmbeddingLexical
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 512
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 32
	}
	if c.Embedding.Workers <= 0 {
		c.Embedding.Workers = 4
	}
	c.Embedding.HTTPConfig.applyDefaults()

	if c.Classifier.Backend == "" {
		c.Classifier.Backend = ClassifierStatic
	}
	if c.Classifier.StaticCategory == "" {
		c.Classifier.StaticCategory = string(CategoryUnknown)
	}
	c.Classifier.HTTPConfig.applyDefaults()

	if c.Features.AnalysisMaxSide <= 0 {
		c.Features.AnalysisMaxSide = 256
	}

	c.Annotation.ApplyDefaults()

	if c.Store.Dir == "" {
		c.Store.Dir = "knowledge"
	}
	if c.Store.MaxResults <= 0 {
		c.Store.MaxResults = 20
	}

	if c.Batch.Workers <= 0 {
		c.Batch.Workers = 4
	}
	if c.Batch.Output == "" {
		c.Batch.Output = "dataset_annotations.json"
	}
}

func (h *HTTPConfig) applyDefaults() {
	if h.Timeout <= 0 {
		h.Timeout = 30 * time.Second
	}
	if h.UserAgent == "" {
		h.UserAgent = "papercut-engine/0.1"
	}
}
