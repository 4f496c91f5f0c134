// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog holds the read-only, indexed motif knowledge base.
//
// A Catalog is built once from a KnowledgeBase. Construction checks
// referential integrity: dangling region, related-motif and combination
// member references are dropped and reported as IntegrityWarnings, never
// as errors. After construction the Catalog is immutable and safe for
// concurrent use.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/papercut-engine/pkg/types"
)

// ErrEmptyCatalog is returned when a knowledge base has no usable motifs.
var ErrEmptyCatalog = errors.New("catalog: knowledge base has no motifs")

// WarningKind classifies an integrity problem found at load time.
type WarningKind string

const (
	WarnDuplicateMotif       WarningKind = "duplicate_motif"
	WarnDuplicateRegion      WarningKind = "duplicate_region"
	WarnDuplicateCombination WarningKind = "duplicate_combination"
	WarnMissingID            WarningKind = "missing_id"
	WarnDanglingRegion       WarningKind = "dangling_region_ref"
	WarnDanglingRelated      WarningKind = "dangling_related_ref"
	WarnDanglingMember       WarningKind = "dangling_member_ref"
	WarnEmptyCombination     WarningKind = "empty_combination"
)

// IntegrityWarning records one reference dropped while loading.
type IntegrityWarning struct {
	Kind  WarningKind `json:"kind" yaml:"kind"`
	Owner string      `json:"owner" yaml:"owner"`
	Ref   string      `json:"ref,omitempty" yaml:"ref,omitempty"`
}

func (w IntegrityWarning) String() string {
	if w.Ref == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Owner)
	}
	return fmt.Sprintf("%s: %s -> %s", w.Kind, w.Owner, w.Ref)
}

// Catalog is the in-memory motif knowledge base. Returned pointers refer to
// catalog-owned values; callers must not modify them.
type Catalog struct {
	name    string
	version string
	hash    string

	motifs       []*types.Motif
	regions      []*types.Region
	combinations []*types.MotifCombination

	motifByID     map[string]*types.Motif
	motifsByName  map[string][]*types.Motif
	motifsByRegn  map[string][]*types.Motif
	regionByID    map[string]*types.Region
	combosByMotif map[string][]*types.MotifCombination

	warnings []IntegrityWarning
}

// New builds a Catalog from kb. The knowledge base is copied; later changes
// to kb do not affect the Catalog. Integrity problems are logged at warn
// level and kept in Warnings. New fails only when no motif survives.
func New(kb types.KnowledgeBase, logger zerolog.Logger) (*Catalog, error) {
	c := &Catalog{
		name:          kb.Name,
		version:       kb.Version,
		motifByID:     make(map[string]*types.Motif),
		motifsByName:  make(map[string][]*types.Motif),
		motifsByRegn:  make(map[string][]*types.Motif),
		regionByID:    make(map[string]*types.Region),
		combosByMotif: make(map[string][]*types.MotifCombination),
	}

	c.loadRegions(kb.Regions)
	c.loadMotifs(kb.Motifs)
	if len(c.motifs) == 0 {
		return nil, ErrEmptyCatalog
	}
	c.resolveMotifRefs()
	c.loadCombinations(kb.Combinations)
	c.buildIndices()

	hash, err := c.contentHash()
	if err != nil {
		return nil, err
	}
	c.hash = hash

	for _, w := range c.warnings {
		logger.Warn().
			Str("kind", string(w.Kind)).
			Str("owner", w.Owner).
			Str("ref", w.Ref).
			Msg("catalog integrity warning")
	}
	logger.Debug().
		Str("catalog", c.name).
		Int("motifs", len(c.motifs)).
		Int("regions", len(c.regions)).
		Int("combinations", len(c.combinations)).
		Int("warnings", len(c.warnings)).
		Msg("catalog loaded")

	return c, nil
}

func (c *Catalog) warn(kind WarningKind, owner, ref string) {
	c.warnings = append(c.warnings, IntegrityWarning{Kind: kind, Owner: owner, Ref: ref})
}

func (c *Catalog) loadRegions(regions []types.Region) {
	for i := range regions {
		r := cloneRegion(regions[i])
		if r.ID == "" {
			c.warn(WarnMissingID, "region "+r.Name, "")
			continue
		}
		if _, dup := c.regionByID[r.ID]; dup {
			c.warn(WarnDuplicateRegion, r.ID, "")
			continue
		}
		c.regionByID[r.ID] = r
		c.regions = append(c.regions, r)
	}
}

func (c *Catalog) loadMotifs(motifs []types.Motif) {
	for i := range motifs {
		m := cloneMotif(motifs[i])
		if m.ID == "" {
			c.warn(WarnMissingID, "motif "+m.Name, "")
			continue
		}
		if _, dup := c.motifByID[m.ID]; dup {
			c.warn(WarnDuplicateMotif, m.ID, "")
			continue
		}
		c.motifByID[m.ID] = m
		c.motifs = append(c.motifs, m)
	}
}

// resolveMotifRefs drops region and related-motif references that do not
// resolve. It runs after every motif is indexed so forward references work.
func (c *Catalog) resolveMotifRefs() {
	for _, m := range c.motifs {
		var regions types.RegionRefs
		for _, ref := range m.RegionRefs {
			if _, ok := c.regionByID[ref]; !ok {
				c.warn(WarnDanglingRegion, m.ID, ref)
				continue
			}
			regions = append(regions, ref)
		}
		m.RegionRefs = regions

		var related []string
		for _, ref := range m.RelatedMotifRefs {
			if _, ok := c.motifByID[ref]; !ok {
				c.warn(WarnDanglingRelated, m.ID, ref)
				continue
			}
			related = append(related, ref)
		}
		m.RelatedMotifRefs = related
	}
}

func (c *Catalog) loadCombinations(combos []types.MotifCombination) {
	seen := make(map[string]bool)
	for i := range combos {
		combo := cloneCombination(combos[i])
		if combo.ID == "" {
			c.warn(WarnMissingID, "combination "+combo.Name, "")
			continue
		}
		if seen[combo.ID] {
			c.warn(WarnDuplicateCombination, combo.ID, "")
			continue
		}
		seen[combo.ID] = true

		var members []string
		for _, ref := range combo.MemberMotifRefs {
			if _, ok := c.motifByID[ref]; !ok {
				c.warn(WarnDanglingMember, combo.ID, ref)
				continue
			}
			members = append(members, ref)
		}
		if len(members) == 0 {
			c.warn(WarnEmptyCombination, combo.ID, "")
			continue
		}
		combo.MemberMotifRefs = members
		c.combinations = append(c.combinations, combo)
	}
}

func (c *Catalog) buildIndices() {
	for _, m := range c.motifs {
		keys := []string{normalize(m.Name)}
		for _, a := range m.Aliases {
			keys = append(keys, normalize(a))
		}
		added := make(map[string]bool, len(keys))
		for _, k := range keys {
			if k == "" || added[k] {
				continue
			}
			added[k] = true
			c.motifsByName[k] = append(c.motifsByName[k], m)
		}
		for _, r := range m.RegionRefs {
			c.motifsByRegn[r] = append(c.motifsByRegn[r], m)
		}
	}
	for _, combo := range c.combinations {
		added := make(map[string]bool, len(combo.MemberMotifRefs))
		for _, ref := range combo.MemberMotifRefs {
			if added[ref] {
				continue
			}
			added[ref] = true
			c.combosByMotif[ref] = append(c.combosByMotif[ref], combo)
		}
	}
}

// contentHash fingerprints the resolved catalog content.
func (c *Catalog) contentHash() (string, error) {
	data, err := json.Marshal(struct {
		Version      string
		Regions      []*types.Region
		Motifs       []*types.Motif
		Combinations []*types.MotifCombination
	}{c.version, c.regions, c.motifs, c.combinations})
	if err != nil {
		return "", fmt.Errorf("hashing catalog: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8]), nil
}

// Name returns the knowledge base name.
func (c *Catalog) Name() string { return c.name }

// Version identifies the catalog content. Two catalogs built from the same
// resolved content share a Version.
func (c *Catalog) Version() string {
	if c.version == "" {
		return c.hash
	}
	return c.version + "+" + c.hash
}

// Warnings returns the integrity warnings raised while loading.
func (c *Catalog) Warnings() []IntegrityWarning {
	return append([]IntegrityWarning(nil), c.warnings...)
}

// Motifs returns every motif in knowledge base order.
func (c *Catalog) Motifs() []*types.Motif {
	return append([]*types.Motif(nil), c.motifs...)
}

// Regions returns every region in knowledge base order.
func (c *Catalog) Regions() []*types.Region {
	return append([]*types.Region(nil), c.regions...)
}

// Combinations returns every combination in knowledge base order.
func (c *Catalog) Combinations() []*types.MotifCombination {
	return append([]*types.MotifCombination(nil), c.combinations...)
}

// FindByID returns the motif with the given id.
func (c *Catalog) FindByID(id string) (*types.Motif, bool) {
	m, ok := c.motifByID[id]
	return m, ok
}

// FindByNameOrAlias returns the motifs whose name or an alias equals text
// after case and whitespace normalization.
func (c *Catalog) FindByNameOrAlias(text string) []*types.Motif {
	return append([]*types.Motif(nil), c.motifsByName[normalize(text)]...)
}

// FindByRegion returns the motifs that reference regionID.
func (c *Catalog) FindByRegion(regionID string) []*types.Motif {
	return append([]*types.Motif(nil), c.motifsByRegn[regionID]...)
}

// CombinationsContaining returns the combinations that list motifID as a
// member, in knowledge base order.
func (c *Catalog) CombinationsContaining(motifID string) []*types.MotifCombination {
	return append([]*types.MotifCombination(nil), c.combosByMotif[motifID]...)
}

// Region returns the region with the given id.
func (c *Catalog) Region(id string) (*types.Region, bool) {
	r, ok := c.regionByID[id]
	return r, ok
}

// Related returns the motifs referenced by id's related-motif list.
func (c *Catalog) Related(id string) []*types.Motif {
	m, ok := c.motifByID[id]
	if !ok {
		return nil
	}
	out := make([]*types.Motif, 0, len(m.RelatedMotifRefs))
	for _, ref := range m.RelatedMotifRefs {
		if r, ok := c.motifByID[ref]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Search returns motifs whose name, aliases, appearance description or
// symbolism contain keyword, case-insensitively, in knowledge base order.
func (c *Catalog) Search(keyword string) []*types.Motif {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return nil
	}
	var out []*types.Motif
	for _, m := range c.motifs {
		if matchesKeyword(m, kw) {
			out = append(out, m)
		}
	}
	return out
}

func matchesKeyword(m *types.Motif, kw string) bool {
	if strings.Contains(strings.ToLower(m.Name), kw) ||
		strings.Contains(strings.ToLower(m.AppearanceDescription), kw) {
		return true
	}
	for _, a := range m.Aliases {
		if strings.Contains(strings.ToLower(a), kw) {
			return true
		}
	}
	for _, s := range m.Symbolism {
		if strings.Contains(strings.ToLower(s), kw) {
			return true
		}
	}
	return false
}

// Normalize is the key used for name and alias lookups: lower case with
// runs of whitespace collapsed to one space.
func Normalize(s string) string { return normalize(s) }

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func cloneRegion(r types.Region) *types.Region {
	r.Counties = cloneStrings(r.Counties)
	r.Techniques = cloneStrings(r.Techniques)
	r.ColorPreferences = cloneStrings(r.ColorPreferences)
	r.Taboos = cloneStrings(r.Taboos)
	return &r
}

func cloneMotif(m types.Motif) *types.Motif {
	m.Aliases = cloneStrings(m.Aliases)
	m.RegionRefs = types.RegionRefs(cloneStrings(m.RegionRefs))
	m.Symbolism = cloneStrings(m.Symbolism)
	m.UsageScenarios = cloneStrings(m.UsageScenarios)
	m.RelatedMotifRefs = cloneStrings(m.RelatedMotifRefs)
	if m.Subtypes != nil {
		m.Subtypes = append([]types.MotifSubtype(nil), m.Subtypes...)
	}
	if m.ConfidenceLevels != nil {
		cl := *m.ConfidenceLevels
		m.ConfidenceLevels = &cl
	}
	return &m
}

func cloneCombination(c types.MotifCombination) *types.MotifCombination {
	c.MemberMotifRefs = cloneStrings(c.MemberMotifRefs)
	c.CombinedSymbolism = cloneStrings(c.CombinedSymbolism)
	c.DesignSuggestions = cloneStrings(c.DesignSuggestions)
	c.UsageScenarios = cloneStrings(c.UsageScenarios)
	if c.RegionalVariations != nil {
		rv := make(map[string]string, len(c.RegionalVariations))
		for k, v := range c.RegionalVariations {
			rv[k] = v
		}
		c.RegionalVariations = rv
	}
	if c.ConfidenceLevels != nil {
		cl := *c.ConfidenceLevels
		c.ConfidenceLevels = &cl
	}
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
