// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/papercut-engine/pkg/types"
)

// Load reads a YAML or JSON knowledge base file and builds a Catalog from
// it. The file holds a top-level knowledge_base mapping; a bare knowledge
// base mapping is accepted as well.
func Load(path string, logger zerolog.Logger) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge base %s: %w", path, err)
	}
	kb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing knowledge base %s: %w", path, err)
	}
	return New(kb, logger.With().Str("knowledge_base", path).Logger())
}

// Parse decodes knowledge base bytes. JSON input is decoded by the YAML
// parser.
func Parse(data []byte) (types.KnowledgeBase, error) {
	var file types.KnowledgeBaseFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return types.KnowledgeBase{}, err
	}
	if len(file.KnowledgeBase.Motifs) > 0 || file.KnowledgeBase.Name != "" {
		return file.KnowledgeBase, nil
	}

	var kb types.KnowledgeBase
	if err := yaml.Unmarshal(data, &kb); err != nil {
		return types.KnowledgeBase{}, err
	}
	return kb, nil
}
