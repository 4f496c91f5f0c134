// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate cross-checks embedding matches against the visual
// signals of an image. Visual evidence takes precedence: a candidate whose
// name contradicts a specific visual detection is marked invalid with a
// reason, however high its similarity.
package validate

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/papercut-engine/pkg/types"
)

// Validator evaluates a rule table. It holds no mutable state and is safe
// for concurrent use.
type Validator struct {
	rules  []Rule
	floor  float64
	logger zerolog.Logger
}

// New returns a Validator over rules. Signals with confidence below floor
// leave every candidate valid; a zero floor always validates.
func New(rules []Rule, floor float64, logger zerolog.Logger) *Validator {
	return &Validator{rules: append([]Rule(nil), rules...), floor: floor, logger: logger}
}

// Validate checks one candidate. names are matched against rule fragments;
// motifName is the first and is used in the reason. An invalid result
// always carries a reason.
func (v *Validator) Validate(c types.MatchCandidate, motifName string, s types.VisualSignals, aliases ...string) (bool, string) {
	if s.Confidence < v.floor {
		return true, ""
	}
	if motifName == "" {
		motifName = c.MotifID
	}
	names := append([]string{motifName}, aliases...)

	for _, r := range v.rules {
		fragment, ok := matchFragment(r.Fragments, names)
		if !ok {
			continue
		}
		for _, fw := range r.Forbidden {
			if !holds(fw, s) {
				continue
			}
			return false, render(r.Template, motifName, fragment, s.CoarseCategory, fw)
		}
	}
	return true, ""
}

// NameFunc returns the names a candidate is known by, display name first.
type NameFunc func(c types.MatchCandidate) []string

// ValidateAll sets Valid and RejectionReason on every candidate in place
// and returns the number rejected. Candidates are judged independently.
// A nil nameOf uses each candidate's MotifName.
func (v *Validator) ValidateAll(candidates []types.MatchCandidate, s types.VisualSignals, nameOf NameFunc) int {
	rejected := 0
	for i := range candidates {
		c := &candidates[i]
		names := []string{c.MotifName}
		if nameOf != nil {
			if n := nameOf(*c); len(n) > 0 {
				names = n
			}
		}
		c.Valid, c.RejectionReason = v.Validate(*c, names[0], s, names[1:]...)
		if !c.Valid {
			rejected++
			v.logger.Debug().
				Str("motif_id", c.MotifID).
				Float64("similarity", c.Similarity).
				Str("reason", c.RejectionReason).
				Msg("match rejected")
		}
	}
	return rejected
}

func matchFragment(fragments, names []string) (string, bool) {
	for _, f := range fragments {
		for _, n := range names {
			if types.ContainsWordPrefix(n, f) {
				return f, true
			}
		}
	}
	return "", false
}

func holds(fw ForbiddenWhen, s types.VisualSignals) bool {
	if fw.Category != "" && fw.Category != s.CoarseCategory {
		return false
	}
	switch fw.Requires {
	case EvidenceFigure:
		return s.HasFigure
	case EvidenceAnimal:
		return s.HasAnimal
	case EvidenceQuadruped:
		return s.Quadruped()
	case EvidenceBird:
		return s.BirdSilhouette()
	default:
		return true
	}
}

func evidenceLabel(fw ForbiddenWhen, category types.CoarseCategory) string {
	switch fw.Requires {
	case EvidenceFigure:
		return "human figure"
	case EvidenceAnimal:
		return "animal"
	case EvidenceQuadruped:
		return "four-legged animal"
	case EvidenceBird:
		return "bird silhouette"
	default:
		return string(category) + " image"
	}
}

func render(tmpl, motif, fragment string, category types.CoarseCategory, fw ForbiddenWhen) string {
	if tmpl == "" {
		tmpl = defaultTemplate
	}
	return strings.NewReplacer(
		"{motif}", motif,
		"{fragment}", fragment,
		"{category}", string(category),
		"{evidence}", evidenceLabel(fw, category),
	).Replace(tmpl)
}
