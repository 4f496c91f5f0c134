// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalogtest provides a small knowledge base fixture for tests.
//
// The fixture holds seven motifs, three regions and three combinations.
// It carries three deliberate integrity problems: pattern_002 relates to
// the missing pattern_099, pattern_006 references the missing
// region_missing, and combo_002 lists the missing pattern_404.
package catalogtest

import (
	_ "embed"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pdiddy/papercut-engine/internal/catalog"
	"github.com/pdiddy/papercut-engine/pkg/types"
)

//go:embed knowledge_base.yaml
var fixture []byte

// YAML returns the raw fixture file.
func YAML() []byte {
	return append([]byte(nil), fixture...)
}

// KnowledgeBase returns a freshly parsed copy of the fixture.
func KnowledgeBase(t testing.TB) types.KnowledgeBase {
	t.Helper()
	kb, err := catalog.Parse(fixture)
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return kb
}

// New builds a Catalog from the fixture.
func New(t testing.TB) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(KnowledgeBase(t), zerolog.Nop())
	if err != nil {
		t.Fatalf("building fixture catalog: %v", err)
	}
	return c
}
