// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads backend API keys from a directory of plain-text
// files. Each file holds one key: the file name is the key name and the
// trimmed contents are the value.
//
// Recognized key files: embedding-api-key, classifier-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// Key file names read by the papercut CLI.
const (
	EmbeddingAPIKey  = "embedding-api-key"
	ClassifierAPIKey = "classifier-api-key"
)

var known = []string{EmbeddingAPIKey, ClassifierAPIKey}

// Set maps key names to values.
type Set map[string]string

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error and yields an empty Set. Unreadable files are logged and
// skipped; empty files are ignored.
func Load(dir string, logger zerolog.Logger) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Set)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn().Err(err).Str("key", name).Msg("could not read secret")
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, nil
}

// Resolve returns configured when it is set, so config files and env vars
// win over key files; otherwise it returns the stored value for key.
func (s Set) Resolve(key, configured string) string {
	if configured != "" {
		return configured
	}
	return s[key]
}

// Keys returns the loaded key names, sorted.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Unknown returns the sorted key names no backend reads, usually typos of
// a recognized key file.
func (s Set) Unknown() []string {
	var out []string
	for _, k := range s.Keys() {
		if !slices.Contains(known, k) {
			out = append(out, k)
		}
	}
	return out
}
