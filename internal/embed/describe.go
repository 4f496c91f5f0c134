// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"strings"

	"github.com/pdiddy/papercut-engine/internal/catalog"
	"github.com/pdiddy/papercut-engine/pkg/types"
)

// Candidate is one motif offered to the matcher.
type Candidate struct {
	MotifID string
	Name    string

	// Text is embedded in place of Name when set.
	Text string
}

func (c Candidate) text() string {
	if c.Text != "" {
		return c.Text
	}
	return c.Name
}

// Describe builds the text a motif is embedded as: its name, first alias,
// appearance description and symbolism.
func Describe(m *types.Motif) string {
	var b strings.Builder
	b.WriteString(m.Name)
	if len(m.Aliases) > 0 {
		b.WriteString(", also called ")
		b.WriteString(m.Aliases[0])
	}
	if d := strings.TrimSpace(m.AppearanceDescription); d != "" {
		b.WriteString(". ")
		b.WriteString(d)
	}
	if len(m.Symbolism) > 0 {
		b.WriteString(". Symbolizes ")
		b.WriteString(strings.Join(m.Symbolism, ", "))
	}
	return b.String()
}

// CatalogCandidates returns one Candidate per catalog motif, in catalog
// order.
func CatalogCandidates(cat *catalog.Catalog) []Candidate {
	motifs := cat.Motifs()
	out := make([]Candidate, len(motifs))
	for i, m := range motifs {
		out[i] = Candidate{MotifID: m.ID, Name: m.Name, Text: Describe(m)}
	}
	return out
}
