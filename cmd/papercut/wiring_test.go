// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/papercut-engine/internal/embed"
	"github.com/pdiddy/papercut-engine/internal/features"
	"github.com/pdiddy/papercut-engine/internal/secrets"
)

func TestWriteOutput(t *testing.T) {
	v := map[string][]string{"symbolism": {"ward off evil", "福"}}

	var js bytes.Buffer
	require.NoError(t, writeOutput(&js, v, "JSON"))
	assert.JSONEq(t, `{"symbolism":["ward off evil","福"]}`, js.String())

	var ym bytes.Buffer
	require.NoError(t, writeOutput(&ym, v, "yaml"))
	assert.Equal(t, "symbolism:\n  - ward off evil\n  - 福\n", ym.String())

	assert.ErrorContains(t, writeOutput(&bytes.Buffer{}, v, "xml"), "unsupported format")
}

func TestDescribeError(t *testing.T) {
	decode := fmt.Errorf("annotating x.png: %w", &features.ImageDecodeError{Err: errors.New("unknown format")})
	assert.Equal(t, "not a decodable image: unknown format", describeError(decode))

	backend := &embed.EmbeddingBackendError{Backend: "http", Op: "embed texts", Err: errors.New("connection refused")}
	assert.Equal(t, "embedding backend unavailable (http): connection refused", describeError(backend))

	cls := &features.ClassifierError{Backend: "http", Err: errors.New("503")}
	assert.Equal(t, "classifier unavailable (http): 503", describeError(cls))

	assert.Equal(t, "boom", describeError(errors.New("boom")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "tiger", truncate("tiger", 10))
	assert.Equal(t, "double-...", truncate("double-wild-goose", 10))
	assert.Equal(t, "抓髻娃...", truncate("抓髻娃娃纹样剪纸", 6))
}

func TestLoadConfigResolvesSecrets(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	prev := loadedSecrets
	t.Cleanup(func() { loadedSecrets = prev })

	loadedSecrets = secrets.Set{
		secrets.EmbeddingAPIKey:  "ek_file",
		secrets.ClassifierAPIKey: "ck_file",
	}
	viper.Set("embedding.api_key", "ek_config")
	viper.Set("annotation.confidence_floor", 0)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "ek_config", cfg.Embedding.APIKey, "configured key wins over the key file")
	assert.Equal(t, "ck_file", cfg.Classifier.APIKey)
	assert.Zero(t, cfg.Annotation.ValidationFloor())
	assert.Equal(t, 10, cfg.Annotation.TopK)
}
